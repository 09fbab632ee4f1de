package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileProvider_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantIDs []any
		wantErr bool
	}{
		{
			name: "yaml list",
			file: "beats.yaml",
			content: `
- id: a
  audioUrl: /a.mp3
- id: b
  file_path: r2://beats/b.mp3
`,
			wantIDs: []any{"a", "b"},
		},
		{
			name:    "json beats key",
			file:    "beats.json",
			content: `{"beats": [{"beatId": "x", "audioUrl": "/x.mp3"}, "junk", {"beatId": "y"}]}`,
			wantIDs: []any{nil, nil},
		},
		{
			name: "tracks key",
			file: "tracks.yaml",
			content: `
tracks:
  - id: t1
`,
			wantIDs: []any{"t1"},
		},
		{
			name:    "empty document",
			file:    "empty.yaml",
			content: "",
			wantIDs: []any{},
		},
		{
			name:    "mapping without list",
			file:    "bad.yaml",
			content: "name: store\n",
			wantErr: true,
		},
		{
			name:    "scalar document",
			file:    "scalar.yaml",
			content: "42\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			file:    "broken.yaml",
			content: "- id: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFileProvider(map[string]any{"path": writeCatalog(t, tt.file, tt.content)})
			require.NoError(t, err)

			records, err := p.Fetch(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := make([]any, len(records))
			for i, rec := range records {
				ids[i] = rec["id"]
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFileProvider_NormalizesJSONAliases(t *testing.T) {
	path := writeCatalog(t, "beats.json",
		`[{"beatId": 7, "name": "Seven", "producer": "Kato", "audiourl": "/7.mp3", "BPM": "128"}]`)
	p, err := NewFileProvider(map[string]any{"path": path})
	require.NoError(t, err)

	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	tr, err := Normalize(records[0])
	require.NoError(t, err)
	assert.Equal(t, "7", tr.ID)
	assert.Equal(t, "Seven", tr.Title)
	assert.Equal(t, "Kato", tr.Artist)
	assert.Equal(t, "/7.mp3", tr.AudioURL)
	assert.Equal(t, 128, tr.BPM)
}

func TestFileProvider_Errors(t *testing.T) {
	_, err := NewFileProvider(map[string]any{})
	assert.Error(t, err, "path is required")

	p, err := NewFileProvider(map[string]any{"path": filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name())

	_, err = p.Fetch(context.Background())
	assert.Error(t, err)
}
