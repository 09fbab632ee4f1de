package connect

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/beatdeck/beatdeck/internal/app/playback"
	"github.com/beatdeck/beatdeck/internal/domain/license"
	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// TrackView is the wire shape of a track.
type TrackView struct {
	ID       string  `mapstructure:"id"`
	Title    string  `mapstructure:"title"`
	Artist   string  `mapstructure:"artist"`
	CoverURL string  `mapstructure:"cover_url"`
	AudioURL string  `mapstructure:"audio_url"`
	Genre    string  `mapstructure:"genre"`
	Mood     string  `mapstructure:"mood"`
	Key      string  `mapstructure:"key"`
	BPM      int     `mapstructure:"bpm"`
	Price    float64 `mapstructure:"price"`
}

// SnapshotView is the wire shape of a playback snapshot. Times are seconds.
type SnapshotView struct {
	Track           *TrackView `mapstructure:"track"`
	Position        int        `mapstructure:"position"`
	State           string     `mapstructure:"state"`
	CurrentTime     float64    `mapstructure:"current_time"`
	Duration        float64    `mapstructure:"duration"`
	Volume          float64    `mapstructure:"volume"`
	Shuffle         bool       `mapstructure:"shuffle"`
	Repeat          string     `mapstructure:"repeat"`
	Autoplay        bool       `mapstructure:"autoplay"`
	SkipCooldown    bool       `mapstructure:"skip_cooldown"`
	ShuffleCooldown bool       `mapstructure:"shuffle_cooldown"`
	QueueLength     int        `mapstructure:"queue_length"`
}

// OfferView is the wire shape of a license offer.
type OfferView struct {
	ID          string  `mapstructure:"id"`
	Tier        string  `mapstructure:"tier"`
	Price       float64 `mapstructure:"price"`
	Negotiated  bool    `mapstructure:"negotiated"`
	Terms       string  `mapstructure:"terms"`
	Deliverable string  `mapstructure:"deliverable"`
}

// LicenseOptionsView lists the offers for a track.
type LicenseOptionsView struct {
	TrackID       string      `mapstructure:"track_id"`
	StartingPrice float64     `mapstructure:"starting_price"`
	Offers        []OfferView `mapstructure:"offers"`
}

func trackMap(t track.Track) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"title":     t.DisplayTitle(),
		"artist":    t.DisplayArtist(),
		"cover_url": t.DisplayCover(),
		"audio_url": t.AudioURL,
		"genre":     t.Genre,
		"mood":      t.Mood,
		"key":       t.Key,
		"bpm":       t.BPM,
		"price":     t.DisplayPrice(),
	}
}

// SnapshotToStruct converts a snapshot to its wire form.
func SnapshotToStruct(snap playback.Snapshot) (*structpb.Struct, error) {
	var current any
	if snap.Track != nil {
		current = trackMap(*snap.Track)
	}

	s, err := structpb.NewStruct(map[string]any{
		"track":            current,
		"position":         snap.Position,
		"state":            snap.State.String(),
		"current_time":     snap.CurrentTime.Seconds(),
		"duration":         snap.Duration.Seconds(),
		"volume":           snap.Volume,
		"shuffle":          snap.Shuffle,
		"repeat":           snap.Repeat.String(),
		"autoplay":         snap.Autoplay,
		"skip_cooldown":    snap.SkipCooldown,
		"shuffle_cooldown": snap.ShuffleCooldown,
		"queue_length":     len(snap.Queue),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}
	return s, nil
}

// QueueToStruct converts the active queue to its wire form.
func QueueToStruct(tracks []track.Track) (*structpb.Struct, error) {
	list := make([]any, len(tracks))
	for i, t := range tracks {
		list[i] = trackMap(t)
	}
	s, err := structpb.NewStruct(map[string]any{"tracks": list})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode queue")
	}
	return s, nil
}

// LicenseOptionsToStruct converts the offers for t to their wire form.
func LicenseOptionsToStruct(t track.Track, tiers []license.Tier) (*structpb.Struct, error) {
	offers := license.OffersFor(t, tiers)
	list := make([]any, len(offers))
	for i, o := range offers {
		list[i] = map[string]any{
			"id":          o.ID,
			"tier":        o.Tier.Name,
			"price":       o.Tier.Price,
			"negotiated":  o.Tier.Negotiated,
			"terms":       o.Tier.Terms,
			"deliverable": o.Tier.Deliverable,
		}
	}
	s, err := structpb.NewStruct(map[string]any{
		"track_id":       t.ID,
		"starting_price": license.StartingPrice(t, tiers),
		"offers":         list,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode license options")
	}
	return s, nil
}

// decodeStruct decodes a wire struct into one of the view types.
func decodeStruct(s *structpb.Struct, out any) error {
	if err := mapstructure.WeakDecode(s.AsMap(), out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// SnapshotFromStruct decodes a wire snapshot.
func SnapshotFromStruct(s *structpb.Struct) (SnapshotView, error) {
	var v SnapshotView
	err := decodeStruct(s, &v)
	return v, err
}

// Progress returns the played fraction in [0,1].
func (v SnapshotView) Progress() float64 {
	if v.Duration <= 0 {
		return 0
	}
	if p := v.CurrentTime / v.Duration; p < 1 {
		return p
	}
	return 1
}

// Elapsed returns the current time as a duration.
func (v SnapshotView) Elapsed() time.Duration {
	return time.Duration(v.CurrentTime * float64(time.Second))
}

// Total returns the duration of the current track.
func (v SnapshotView) Total() time.Duration {
	return time.Duration(v.Duration * float64(time.Second))
}
