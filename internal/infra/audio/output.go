package audio

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output mixes streamers into a device. Streamers are pulled with the
// output locked, so mutations of a playing streamer must hold Lock.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput plays through the system audio device.
type speakerOutput struct {
	sr beep.SampleRate
}

var speakerOnce sync.Once

// NewSpeakerOutput initializes the speaker. It may only be created once per
// process.
func NewSpeakerOutput(sr beep.SampleRate, buffer time.Duration) (Output, error) {
	var err error
	initialized := false
	speakerOnce.Do(func() {
		initialized = true
		err = speaker.Init(sr, sr.N(buffer))
	})
	if !initialized {
		return nil, errors.New("speaker already initialized")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}
	return &speakerOutput{sr: sr}, nil
}

func (o *speakerOutput) SampleRate() beep.SampleRate { return o.sr }
func (o *speakerOutput) Play(s ...beep.Streamer)     { speaker.Play(s...) }
func (o *speakerOutput) Clear()                      { speaker.Clear() }
func (o *speakerOutput) Lock()                       { speaker.Lock() }
func (o *speakerOutput) Unlock()                     { speaker.Unlock() }

// NullOutput consumes audio at real-time pace without a device, for headless
// hosts. Drain pulls samples manually.
type NullOutput struct {
	mu    sync.Mutex
	sr    beep.SampleRate
	mixer beep.Mixer
	buf   [][2]float64
}

// NewNullOutput creates a NullOutput that is drained only by Drain.
func NewNullOutput(sr beep.SampleRate) *NullOutput {
	return &NullOutput{sr: sr}
}

// Run drains one buffer per interval until stop is closed.
func (o *NullOutput) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := o.sr.N(interval)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.Drain(n)
		}
	}
}

// Drain pulls n samples through the mixer and discards them.
func (o *NullOutput) Drain(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cap(o.buf) < n {
		o.buf = make([][2]float64, n)
	}
	o.mixer.Stream(o.buf[:n])
}

func (o *NullOutput) SampleRate() beep.SampleRate { return o.sr }

func (o *NullOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s...)
	o.mu.Unlock()
}

func (o *NullOutput) Clear() {
	o.mu.Lock()
	o.mixer.Clear()
	o.mu.Unlock()
}

func (o *NullOutput) Lock()   { o.mu.Lock() }
func (o *NullOutput) Unlock() { o.mu.Unlock() }
