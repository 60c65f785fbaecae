package rtpraw

import (
	"io"
	"sync"
	"sync/atomic"
)

// Broadcaster fans marshaled packets out to several sinks. Each sink has
// its own small queue so a slow receiver doesn't block the others.
type Broadcaster struct {
	mu      sync.RWMutex
	sinks   map[*sink]struct{}
	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

type sink struct {
	ch   chan []byte
	quit chan struct{}
	done chan struct{}
	w    io.Writer
}

// NewBroadcaster creates a broadcaster. Call Close when done.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sinks: make(map[*sink]struct{})}
}

// Add registers w and returns a function removing it again. Queued packets
// not yet written when the sink is removed are discarded.
func (b *Broadcaster) Add(w io.Writer) (remove func()) {
	s := &sink{ch: make(chan []byte, 4), quit: make(chan struct{}), done: make(chan struct{}), w: w}
	go func() {
		defer close(s.done)
		for {
			select {
			case pkt := <-s.ch:
				if _, err := s.w.Write(pkt); err != nil {
					b.failed.Add(1)
					continue
				}
				b.sent.Add(1)
			case <-s.quit:
				return
			}
		}
	}()
	b.mu.Lock()
	if b.sinks == nil {
		b.sinks = make(map[*sink]struct{})
	}
	b.sinks[s] = struct{}{}
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		if _, ok := b.sinks[s]; ok {
			delete(b.sinks, s)
			close(s.quit)
		}
		b.mu.Unlock()
		<-s.done
	}
}

// WritePacket queues pkt on every sink. pkt must not be modified
// afterwards. A full queue drops the packet for that sink.
func (b *Broadcaster) WritePacket(pkt []byte) {
	b.mu.RLock()
	for s := range b.sinks {
		select {
		case s.ch <- pkt:
		default:
			b.dropped.Add(1)
		}
	}
	b.mu.RUnlock()
}

// Len is the number of registered sinks.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}

// Counters returns a snapshot of packets written, dropped on full queues
// and failed writes.
func (b *Broadcaster) Counters() map[string]uint64 {
	return map[string]uint64{
		"packets_sent":    b.sent.Load(),
		"packets_dropped": b.dropped.Load(),
		"packets_failed":  b.failed.Load(),
	}
}

// Close stops all sink workers and clears the list.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	var done []chan struct{}
	for s := range b.sinks {
		select {
		case <-s.quit:
		default:
			close(s.quit)
		}
		done = append(done, s.done)
		delete(b.sinks, s)
	}
	b.mu.Unlock()
	for _, d := range done {
		<-d
	}
}
