// Package objectstore presigns audio objects kept in S3-compatible storage
// such as Cloudflare R2 or MinIO.
package objectstore

import (
	"context"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	zlog "github.com/rs/zerolog/log"
)

// Presigning limits enforced by S3 signature v4.
const (
	minPresignTTL = time.Second
	maxPresignTTL = 7 * 24 * time.Hour
)

// Config represents object storage configuration.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Insecure  bool
}

// Presigner issues time-limited GET URLs.
type Presigner struct {
	client *minio.Client
}

// New creates a new Presigner. No request is made until a URL is signed,
// and signing itself is offline when a region is configured.
func New(cfg Config) (*Presigner, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("object storage endpoint and credentials are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create object storage client")
	}

	zlog.Info().Msgf("objectstore: client ready: endpoint=%s region=%s secure=%t", cfg.Endpoint, cfg.Region, !cfg.Insecure)
	return &Presigner{client: client}, nil
}

// PresignGet returns a GET URL for bucket/key valid for ttl.
// ttl is clamped to what signature v4 accepts.
func (p *Presigner) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl < minPresignTTL {
		ttl = minPresignTTL
	}
	if ttl > maxPresignTTL {
		ttl = maxPresignTTL
	}

	u, err := p.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "failed to presign %s/%s", bucket, key)
	}
	return u.String(), nil
}
