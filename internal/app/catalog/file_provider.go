package catalog

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileProviderConfig holds the file provider settings.
type FileProviderConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// FileProvider reads records from a YAML or JSON file. The file holds either
// a list of records or a mapping with a "beats" or "tracks" list.
// The file is re-read on every fetch, so edits show up on the next refresh.
type FileProvider struct {
	config *FileProviderConfig
}

// NewFileProvider creates a new FileProvider.
func NewFileProvider(settings map[string]any) (*FileProvider, error) {
	var config FileProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("file provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &FileProvider{config: &config}, nil
}

// Fetch reads and parses the catalog file.
func (p *FileProvider) Fetch(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(p.config.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog file %s", p.config.Path)
	}
	return parseRecords(data)
}

// Name returns the provider name.
func (p *FileProvider) Name() string {
	return "file"
}

// parseRecords decodes a list of records, or a mapping holding one.
// JSON documents parse as YAML.
func parseRecords(data []byte) ([]Record, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"beats", "tracks"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
		if items == nil {
			return nil, errors.New(`catalog file mapping needs a "beats" or "tracks" list`)
		}
	case nil:
		return []Record{}, nil
	default:
		return nil, errors.Newf("unexpected catalog document type %T", doc)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			zlog.Debug().Msgf("skipping catalog entry %d: not a mapping", i)
			continue
		}
		records = append(records, Record(m))
	}
	return records, nil
}
