package audiofile

import (
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

// bufferStreamer feeds a rendered buffer to beep one sample pair at a time.
type bufferStreamer struct {
	buf *synth.Buffer
	pos int // frame index
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.buf.Frames()
	if s.pos >= frames {
		return 0, false
	}

	n := 0
	for n < len(samples) && s.pos < frames {
		samples[n][0] = s.buf.Samples[2*s.pos]
		samples[n][1] = s.buf.Samples[2*s.pos+1]
		s.pos++
		n++
	}
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }

// Play sends a rendered buffer to the default audio device and blocks until
// playback finishes or ctx is cancelled.
func Play(ctx context.Context, buf *synth.Buffer) error {
	if buf == nil || buf.Frames() == 0 {
		return nil
	}

	sr := beep.SampleRate(buf.SampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(&bufferStreamer{buf: buf}, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	case <-done:
		return nil
	}
}
