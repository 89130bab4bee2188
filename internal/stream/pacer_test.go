package stream

import (
	"context"
	"testing"
	"time"
)

func constRendition(id string, frames int, value int16) Rendition {
	samples := make([]int16, frames*FrameSamples)
	for i := range samples {
		samples[i] = value
	}
	return Rendition{ID: id, Title: id, Style: "poised", Samples: samples}
}

// --- Pacer unit tests (non-timing) ---

func TestNewPacer(t *testing.T) {
	p := NewPacer(8*time.Second, nil)
	if p == nil {
		t.Fatal("NewPacer returned nil")
	}
	if p.SegueDuration() != 8*time.Second {
		t.Errorf("SegueDuration = %v, want 8s", p.SegueDuration())
	}
}

func TestPacerQueueSize(t *testing.T) {
	p := NewPacer(4*time.Second, nil)
	if p.QueueSize() != 0 {
		t.Errorf("Initial QueueSize = %d, want 0", p.QueueSize())
	}
	p.Enqueue(constRendition("a", 1, 0))
	if p.QueueSize() != 1 {
		t.Errorf("QueueSize after enqueue = %d, want 1", p.QueueSize())
	}
}

func TestPacerInitialStatus(t *testing.T) {
	p := NewPacer(4*time.Second, nil)
	info, pos, dur := p.Status()
	if info.ID != "" || pos != 0 || dur != 0 {
		t.Errorf("Initial status should be zero-valued, got info=%v pos=%v dur=%v", info, pos, dur)
	}
}

func TestPacerSkipNonBlocking(t *testing.T) {
	p := NewPacer(4*time.Second, nil)
	// Skip on an idle pacer should not block, even twice
	p.Skip()
	p.Skip()
}

// --- Frame emission ---

func TestPacerEmitsFrames(t *testing.T) {
	p := NewPacer(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Enqueue(constRendition("solo", 3, 1000))
	go p.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case frame := <-p.Frames():
			if len(frame) != FrameSamples {
				t.Fatalf("Frame %d length = %d, want %d", i, len(frame), FrameSamples)
			}
			if frame[0] != 1000 {
				t.Errorf("Frame %d sample[0] = %d, want 1000", i, frame[0])
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for frame %d", i)
		}
	}

	info, _, dur := p.Status()
	if info.ID != "solo" {
		t.Errorf("Status rendition = %q, want solo", info.ID)
	}
	if dur != 3*FrameDuration {
		t.Errorf("Status duration = %v, want %v", dur, 3*FrameDuration)
	}
}

func TestPacerFrameCadence(t *testing.T) {
	p := NewPacer(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Enqueue(constRendition("paced", 4, 100))
	go p.Run(ctx)

	start := time.Now()
	for i := 0; i < 4; i++ {
		select {
		case <-p.Frames():
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for frame %d", i)
		}
	}
	elapsed := time.Since(start)

	// Four frames on a 20ms tick cannot arrive faster than three ticks
	if elapsed < 3*FrameDuration-5*time.Millisecond {
		t.Errorf("4 frames arrived in %v, want at least ~%v", elapsed, 3*FrameDuration)
	}
}

func TestPacerSegues(t *testing.T) {
	p := NewPacer(2*FrameDuration, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Enqueue(constRendition("a", 6, 1000))
	p.Enqueue(constRendition("b", 6, -1000))
	go p.Run(ctx)

	frames := make([][]int16, 0, 10)
	for i := 0; i < 10; i++ {
		select {
		case frame := <-p.Frames():
			frames = append(frames, frame)
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for frame %d", i)
		}
	}

	// Frames 0-4: outgoing rendition (blend progress 0 is still all outgoing)
	for i := 0; i < 5; i++ {
		if frames[i][0] != 1000 {
			t.Errorf("Frame %d sample[0] = %d, want 1000", i, frames[i][0])
		}
	}
	// Frame 5: blend midpoint of 1000 and -1000 cancels out
	if frames[5][0] != 0 {
		t.Errorf("Blend frame sample[0] = %d, want 0", frames[5][0])
	}
	// Frames 6-9: incoming rendition past the segue zone
	for i := 6; i < 10; i++ {
		if frames[i][0] != -1000 {
			t.Errorf("Frame %d sample[0] = %d, want -1000", i, frames[i][0])
		}
	}

	info, _, _ := p.Status()
	if info.ID != "b" {
		t.Errorf("Status rendition after segue = %q, want b", info.ID)
	}
}

func TestPacerSkipAdvances(t *testing.T) {
	p := NewPacer(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Enqueue(constRendition("long", 100, 500))
	p.Enqueue(constRendition("next", 3, -500))
	go p.Run(ctx)

	// Let the first rendition start
	for i := 0; i < 2; i++ {
		select {
		case <-p.Frames():
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for initial frames")
		}
	}

	p.Skip()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case frame := <-p.Frames():
			if frame[0] == -500 {
				return // reached the next rendition
			}
		case <-deadline:
			t.Fatal("Never reached the next rendition after skip")
		}
	}
}
