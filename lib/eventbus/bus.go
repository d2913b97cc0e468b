// Package eventbus provides the per-deployment append-only event buffer
// that live stream connections attach to. Delivery order equals append
// order, and every attached reader sees each event exactly once.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/launchdeck-platform/models"
)

// EventKind discriminates bus events
type EventKind string

const (
	EventKindLog      EventKind = "log"
	EventKindStatus   EventKind = "status"
	EventKindComplete EventKind = "complete"
)

// Event is one sequenced entry in a deployment's stream
type Event struct {
	Seq       int64                   `json:"seq"`
	Kind      EventKind               `json:"kind"`
	Level     models.LogLevel         `json:"level,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Status    models.DeploymentStatus `json:"status,omitempty"`
	URL       string                  `json:"url,omitempty"`
	Duration  int                     `json:"duration,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Bus holds the sequenced event buffer for one deployment.
// Sequence numbers start at the value the bus was created with
// (zero for fresh deployments) and never reset.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	base   int64 // sequence of events[0]
	next   int64
	events []Event
	sealed bool
}

// NewBus creates a bus whose first event will carry sequence startSeq
func NewBus(startSeq int64) *Bus {
	b := &Bus{base: startSeq, next: startSeq}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Append assigns the next sequence number to ev, buffers it and wakes
// all attached readers. It returns the assigned sequence. Appends after
// Seal are ignored and return -1.
func (b *Bus) Append(ev Event) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return -1
	}
	ev.Seq = b.next
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.events = append(b.events, ev)
	b.next++
	b.cond.Broadcast()
	return ev.Seq
}

// Seal appends a final complete event carrying the terminal status and
// publish URL, then marks the bus closed. All current and future
// attachments drain up to the complete event and then their channels close.
// Sealing twice is a no-op.
func (b *Bus) Seal(status models.DeploymentStatus, url string, duration int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	b.events = append(b.events, Event{
		Seq:       b.next,
		Kind:      EventKindComplete,
		Status:    status,
		URL:       url,
		Duration:  duration,
		Timestamp: time.Now(),
	})
	b.next++
	b.sealed = true
	b.cond.Broadcast()
}

// Sealed reports whether the bus has been sealed
func (b *Bus) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// NextSeq returns the sequence the next appended event would receive
func (b *Bus) NextSeq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

// Attach returns a channel that replays buffered events with sequence >= from,
// then delivers live events in append order. The channel closes after the
// complete event has been delivered, or when ctx is cancelled. A from value
// past the buffered head yields no replay and waits for new events.
func (b *Bus) Attach(ctx context.Context, from int64) <-chan Event {
	ch := make(chan Event, 16)

	// wake the reader loop when the subscriber goes away
	go func() {
		<-ctx.Done()
		b.cond.Broadcast()
	}()

	go func() {
		defer close(ch)
		cursor := from
		if cursor < b.baseSeq() {
			cursor = b.baseSeq()
		}
		for {
			batch, sealed := b.waitForEvents(ctx, cursor)
			if ctx.Err() != nil {
				return
			}
			for _, ev := range batch {
				select {
				case ch <- ev:
					cursor = ev.Seq + 1
				case <-ctx.Done():
					return
				}
			}
			if sealed && cursor >= b.NextSeq() {
				return
			}
		}
	}()
	return ch
}

func (b *Bus) baseSeq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.base
}

// waitForEvents blocks until events past cursor exist, the bus is sealed,
// or ctx is cancelled. It returns a copy of the pending events.
func (b *Bus) waitForEvents(ctx context.Context, cursor int64) ([]Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for cursor >= b.next && !b.sealed && ctx.Err() == nil {
		b.cond.Wait()
	}
	if ctx.Err() != nil {
		return nil, b.sealed
	}
	if cursor >= b.next {
		return nil, b.sealed
	}
	pending := b.events[cursor-b.base : b.next-b.base]
	batch := make([]Event, len(pending))
	copy(batch, pending)
	return batch, b.sealed
}
