// Package mysql reads the storefront's beat rows through GORM.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a read-only view of the beat database.
type Store struct {
	db *gorm.DB
}

// Open connects to the database identified by dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("mysql dsn is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	zlog.Info().Msg("mysql: connected")
	return &Store{db: db}, nil
}

// ListBeats returns up to limit rows of table as column maps.
func (s *Store) ListBeats(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Table(table).Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", table)
	}

	for _, row := range rows {
		normalizeRow(row)
	}
	zlog.Debug().Msgf("mysql: listed beats: table=%s rows=%d", table, len(rows))
	return rows, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// normalizeRow converts driver byte values and nullable wrappers into plain
// Go values so the catalog can decode them.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		switch val := v.(type) {
		case []byte:
			row[k] = string(val)
		case sql.RawBytes:
			row[k] = string(val)
		case sql.NullString:
			row[k] = nullable(val.Valid, val.String)
		case sql.NullInt64:
			row[k] = nullable(val.Valid, val.Int64)
		case sql.NullInt32:
			row[k] = nullable(val.Valid, val.Int32)
		case sql.NullFloat64:
			row[k] = nullable(val.Valid, val.Float64)
		case sql.NullTime:
			row[k] = nullable(val.Valid, val.Time)
		}
	}
}

func nullable[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}
