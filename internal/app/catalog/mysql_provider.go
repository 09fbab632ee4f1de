package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// BeatStore reads raw beat rows from the store database.
type BeatStore interface {
	ListBeats(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// MySQLProviderConfig holds the mysql provider settings.
type MySQLProviderConfig struct {
	Table string `yaml:"table" mapstructure:"table" default:"BeatFiles" validate:"required,alphanum"`
	Limit int    `yaml:"limit" mapstructure:"limit" default:"500" validate:"gte=1,lte=10000"`
}

// MySQLProvider reads the storefront's beat table.
type MySQLProvider struct {
	store  BeatStore
	config *MySQLProviderConfig
}

// NewMySQLProvider creates a new MySQLProvider.
func NewMySQLProvider(store BeatStore, settings map[string]any) (*MySQLProvider, error) {
	if store == nil {
		return nil, errors.New("beat store is not configured")
	}

	var config MySQLProviderConfig
	if err := mapstructure.WeakDecode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("mysql provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &MySQLProvider{store: store, config: &config}, nil
}

// Fetch reads the beat rows.
func (p *MySQLProvider) Fetch(ctx context.Context) ([]Record, error) {
	rows, err := p.store.ListBeats(ctx, p.config.Table, p.config.Limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list beats from %s", p.config.Table)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record(row)
	}
	return records, nil
}

// Name returns the provider name.
func (p *MySQLProvider) Name() string {
	return "mysql"
}
