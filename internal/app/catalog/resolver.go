package catalog

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Presigner issues time-limited GET URLs for objects in S3-compatible storage.
type Presigner interface {
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Resolver turns a catalog audio reference into a URL the audio engine can open.
//
// Accepted forms:
//   - http(s)://...    passed through
//   - file://... and local paths passed through
//   - r2://bucket/key  presigned through the object store
//   - s3://bucket/key  presigned through the object store
type Resolver struct {
	presigner Presigner
	ttl       time.Duration
}

// NewResolver creates a resolver. presigner may be nil when no object
// storage is configured, in which case object references fail to resolve.
func NewResolver(presigner Presigner, ttl time.Duration) *Resolver {
	return &Resolver{presigner: presigner, ttl: ttl}
}

// Resolve returns a playable URL for ref. An empty ref resolves to "".
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "invalid audio reference %q", ref)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "file", "":
		return ref, nil
	case "r2", "s3":
		return r.presign(ctx, u)
	default:
		return "", errors.Newf("unsupported audio scheme %q", u.Scheme)
	}
}

func (r *Resolver) presign(ctx context.Context, u *url.URL) (string, error) {
	if r.presigner == nil {
		return "", errors.Newf("object storage is not configured for %s", u.String())
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", errors.Newf("object reference needs bucket and key: %s", u.String())
	}

	signed, err := r.presigner.PresignGet(ctx, bucket, key, r.ttl)
	if err != nil {
		return "", errors.Wrapf(err, "failed to presign %s/%s", bucket, key)
	}
	return signed, nil
}
