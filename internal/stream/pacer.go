package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pacer turns queued renditions into a steady flow of 20ms PCM frames,
// blending across rendition boundaries when the next one is already queued.
type Pacer struct {
	renditionCh chan Rendition
	frameCh     chan []int16
	skipCh      chan struct{}
	segueDur    time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	current  RenditionInfo
	position time.Duration
	duration time.Duration
}

// NewPacer creates a pacer with the given segue duration.
func NewPacer(segue time.Duration, logger *slog.Logger) *Pacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pacer{
		renditionCh: make(chan Rendition, 8),
		frameCh:     make(chan []int16, 100),
		skipCh:      make(chan struct{}, 1),
		segueDur:    segue,
		logger:      logger,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pacer) Frames() <-chan []int16 {
	return p.frameCh
}

// Enqueue adds a rendition to the playback queue. Blocks while the queue is full.
func (p *Pacer) Enqueue(r Rendition) {
	p.renditionCh <- r
}

// QueueSize returns the number of renditions waiting in the queue.
func (p *Pacer) QueueSize() int {
	return len(p.renditionCh)
}

// Skip interrupts the current rendition.
func (p *Pacer) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// SegueDuration returns the configured segue length.
func (p *Pacer) SegueDuration() time.Duration {
	return p.segueDur
}

// Status returns the current rendition and playback position.
func (p *Pacer) Status() (current RenditionInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.position, p.duration
}

// Run starts the pacer. Blocks until ctx is cancelled.
func (p *Pacer) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	var pending *Rendition
	var startFrame int

	for {
		var r Rendition

		if pending != nil {
			r = *pending
			pending = nil
		} else {
			select {
			case <-ctx.Done():
				return
			case q, ok := <-p.renditionCh:
				if !ok {
					return
				}
				r = q
				startFrame = 0
			}
		}

		next, nextStart := p.play(ctx, ticker, r, startFrame)
		if next != nil {
			pending = next
			startFrame = nextStart
		} else {
			startFrame = 0
		}
	}
}

// play emits one rendition, blending into the next when it is already queued.
// Returns the next rendition and its resume frame if a segue happened.
func (p *Pacer) play(ctx context.Context, ticker *time.Ticker, r Rendition, startFrame int) (*Rendition, int) {
	totalFrames := len(r.Samples) / FrameSamples
	segueFrames := int(p.segueDur / FrameDuration)
	if segueFrames > totalFrames/2 {
		segueFrames = totalFrames / 2 // never blend more than half the rendition
	}
	segueStart := totalFrames - segueFrames

	p.setRendition(r.Info(), totalFrames)
	p.logger.Info("now streaming",
		"rendition", r.ID, "title", r.Title, "style", r.Style, "frames", totalFrames)

	for i := startFrame; i < segueStart; i++ {
		if !p.sendFrame(ctx, ticker, r.Samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	var next *Rendition
	select {
	case q := <-p.renditionCh:
		next = &q
	default:
	}

	if next != nil {
		for i := 0; i < segueFrames; i++ {
			outPos := (segueStart + i) * FrameSamples
			inPos := i * FrameSamples

			if outPos+FrameSamples > len(r.Samples) || inPos+FrameSamples > len(next.Samples) {
				break
			}

			progress := float64(i) / float64(segueFrames)
			frame := SegueFrames(
				r.Samples[outPos:outPos+FrameSamples],
				next.Samples[inPos:inPos+FrameSamples],
				progress,
			)

			if !p.sendFrame(ctx, ticker, frame) {
				return nil, 0
			}
			p.updatePosition(segueStart + i)
		}

		p.logger.Info("segued into", "rendition", next.ID, "title", next.Title)
		return next, segueFrames
	}

	for i := segueStart; i < totalFrames; i++ {
		if !p.sendFrame(ctx, ticker, r.Samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	return nil, 0
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Pacer) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		p.logger.Info("rendition skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pacer) setRendition(info RenditionInfo, totalFrames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = info
	p.position = 0
	p.duration = time.Duration(totalFrames) * FrameDuration
}

func (p *Pacer) updatePosition(frameIdx int) {
	p.mu.Lock()
	p.position = time.Duration(frameIdx) * FrameDuration
	p.mu.Unlock()
}
