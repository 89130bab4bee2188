package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	// listenerBuffer is each listener's frame backlog (~3s at 20ms frames).
	listenerBuffer = 150
	// primeFrames is how much recent audio a joining listener is seeded
	// with (~1s) so buffered egress starts with sound already flowing.
	primeFrames = 50
)

// Broadcaster fans the paced recital feed out to every attached listener.
// A single Run goroutine relays frames; egress handlers attach one listener
// per connection.
type Broadcaster struct {
	mu       sync.Mutex
	audience map[*Listener]struct{}
	recent   [][]int16 // ring of the last primeFrames relayed frames
	recentAt int
	dropped  atomic.Uint64
}

// Listener is one attached audience connection. Frames arrive on C until
// the done channel closes.
type Listener struct {
	C      chan []int16
	done   chan struct{}
	lagged atomic.Uint64
}

// Lagged returns how many frames this listener missed by falling behind.
func (l *Listener) Lagged() uint64 {
	return l.lagged.Load()
}

// NewBroadcaster creates a broadcaster with an empty audience.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		audience: make(map[*Listener]struct{}),
	}
}

// Subscribe attaches a listener seeded with the recent past. Playback
// starts immediately instead of waiting out a cold client buffer.
func (b *Broadcaster) Subscribe() *Listener {
	return b.attach(true)
}

// SubscribeLive attaches a listener at the live edge with no seed, for
// latency-sensitive egress.
func (b *Broadcaster) SubscribeLive() *Listener {
	return b.attach(false)
}

func (b *Broadcaster) attach(prime bool) *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	if prime {
		n := len(b.recent)
		for i := 0; i < n; i++ {
			l.C <- b.recent[(b.recentAt+i)%n]
		}
	}
	b.audience[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe detaches a listener and closes its done channel. Detaching
// the same listener again is a no-op.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	_, attached := b.audience[l]
	delete(b.audience, l)
	b.mu.Unlock()
	if attached {
		close(l.done)
	}
}

// ListenerCount returns the number of attached listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.audience)
}

// Dropped returns the total frames dropped across all slow listeners.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Run relays frames from source to the audience until ctx is cancelled or
// source closes.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.relay(frame)
		}
	}
}

// relay records the frame in the prime ring and hands it to every listener.
// A listener whose backlog is full loses the frame; the relay never blocks.
func (b *Broadcaster) relay(frame []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.recent) < primeFrames {
		b.recent = append(b.recent, frame)
	} else {
		b.recent[b.recentAt] = frame
		b.recentAt = (b.recentAt + 1) % primeFrames
	}

	for l := range b.audience {
		select {
		case l.C <- frame:
		default:
			l.lagged.Add(1)
			b.dropped.Add(1)
		}
	}
}
