package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Record is a loosely-typed catalog row as delivered by a provider.
type Record map[string]any

// fieldAliases lists, per canonical field, every key a source may use for it.
// Earlier aliases win when a record carries several.
var fieldAliases = []struct {
	canonical string
	aliases   []string
}{
	{"id", []string{"id", "beatId", "beat_id", "beatid"}},
	{"title", []string{"title", "name"}},
	{"artist", []string{"artist", "producer", "artist_name"}},
	{"cover_url", []string{"coverUrl", "cover_url", "cover", "image", "coverurl"}},
	{"audio_url", []string{"audioUrl", "audiourl", "audio_url", "file_path", "mp3", "audio"}},
	{"base_price", []string{"basePrice", "base_price", "price"}},
	{"bpm", []string{"bpm", "BPM", "tempo"}},
	{"key", []string{"key", "musical_key"}},
	{"mood", []string{"mood"}},
	{"genre", []string{"genre"}},
}

// canonicalRecord is the decode target for a folded record. The numeric
// display fields are decoded separately by optionalField.
type canonicalRecord struct {
	ID       string `mapstructure:"id"`
	Title    string `mapstructure:"title"`
	Artist   string `mapstructure:"artist"`
	CoverURL string `mapstructure:"cover_url"`
	AudioURL string `mapstructure:"audio_url"`
	Key      string `mapstructure:"key"`
	Mood     string `mapstructure:"mood"`
	Genre    string `mapstructure:"genre"`
}

// Normalize maps a record onto the canonical Track shape. Values are decoded
// weakly, so "140" and 140.0 both become BPM 140. A record without an id is
// rejected. An unparsable bpm or base_price is dropped and the track kept.
func Normalize(rec Record) (track.Track, error) {
	folded := make(map[string]any, len(fieldAliases))
	for _, f := range fieldAliases {
		if v, ok := firstValue(rec, f.aliases); ok {
			folded[f.canonical] = v
		}
	}

	var out canonicalRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(folded); err != nil {
		return track.Track{}, errors.Wrap(err, "failed to decode record")
	}

	id := strings.TrimSpace(out.ID)
	if id == "" {
		return track.Track{}, errors.New("record has no id")
	}

	bpm, _ := optionalField[int](folded, "bpm", id)
	var basePrice *float64
	if price, ok := optionalField[float64](folded, "base_price", id); ok {
		basePrice = &price
	}

	return track.Track{
		ID:        id,
		Title:     strings.TrimSpace(out.Title),
		Artist:    strings.TrimSpace(out.Artist),
		CoverURL:  strings.TrimSpace(out.CoverURL),
		AudioURL:  strings.TrimSpace(out.AudioURL),
		Genre:     out.Genre,
		Mood:      out.Mood,
		Key:       out.Key,
		BPM:       bpm,
		BasePrice: basePrice,
	}, nil
}

// optionalField weakly decodes folded[field] into T. A missing or unparsable
// value yields the zero value and false.
func optionalField[T any](folded map[string]any, field, id string) (T, bool) {
	var out T
	v, ok := folded[field]
	if !ok {
		return out, false
	}
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		zlog.Debug().Msgf("ignoring unparsable field: id=%s field=%s value=%v error=%v", id, field, v, err)
		var zero T
		return zero, false
	}
	return out, true
}

// firstValue returns the first alias present with a non-empty value.
func firstValue(rec Record, aliases []string) (any, bool) {
	for _, a := range aliases {
		v, ok := rec[a]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// RecordFromTrack converts a track into a record with canonical keys.
func RecordFromTrack(t track.Track) Record {
	rec := Record{
		"id":        t.ID,
		"title":     t.Title,
		"artist":    t.Artist,
		"cover_url": t.CoverURL,
		"audio_url": t.AudioURL,
		"genre":     t.Genre,
		"mood":      t.Mood,
		"key":       t.Key,
	}
	if t.BPM > 0 {
		rec["bpm"] = t.BPM
	}
	if t.BasePrice != nil {
		rec["base_price"] = *t.BasePrice
	}
	return rec
}
