// Package eventbus implements the per-job event stream (spec.md C7): an
// in-process publish/subscribe bus keyed by job_id, feeding the SSE
// transport. Grounded on the teacher's CommandStore.SubscribeCommand
// pattern (orchestration/hitl_interfaces.go) — a subscribe call returns a
// receive-only channel plus an unsubscribe func — generalized here to a
// bounded, drop-on-full buffer since a slow SSE client must never block
// the Orchestrator (spec.md §5 "Backpressure").
package eventbus

import (
	"sync"
	"sync/atomic"
)

// bufferSize is the per-subscriber channel depth. Once full, new events
// for that subscriber are dropped (spec.md §4.7: "a slow consumer loses
// events, it never blocks the pipeline").
const bufferSize = 16

// Event is one message on a job's stream.
type Event struct {
	JobID    string
	Sequence uint64
	Type     string
	Payload  interface{}
}

// Bus is a process-local, job-scoped pub/sub bus.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]map[int]chan Event
	nextSubID   int
	seqMu       sync.Mutex
	sequences   map[string]*uint64
	dropped     uint64
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string]map[int]chan Event),
		sequences:   make(map[string]*uint64),
	}
}

// Subscribe registers a new subscriber for jobID and returns a
// receive-only channel plus an unsubscribe function. The channel must be
// drained promptly; once bufferSize events are buffered, further events
// are dropped rather than blocking the publisher.
func (b *Bus) Subscribe(jobID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	id := b.nextSubID
	b.nextSubID++

	if b.subscribers[jobID] == nil {
		b.subscribers[jobID] = make(map[int]chan Event)
	}
	b.subscribers[jobID][id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[jobID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, jobID)
			}
		}
		close(ch)
	}

	return ch, unsubscribe
}

// Publish emits an event to every current subscriber of jobID, stamping
// it with the next monotonic sequence number for that job (spec.md §4.7:
// resumable streams via Last-Event-ID need a strictly increasing
// per-job counter).
func (b *Bus) Publish(jobID, eventType string, payload interface{}) Event {
	seq := b.nextSequence(jobID)
	event := Event{JobID: jobID, Sequence: seq, Type: eventType, Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers[jobID] {
		select {
		case ch <- event:
		default:
			atomic.AddUint64(&b.dropped, 1)
		}
	}
	return event
}

// Dropped reports the cumulative count of events dropped across all jobs
// due to a full subscriber buffer, for diagnostics.
func (b *Bus) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

func (b *Bus) nextSequence(jobID string) uint64 {
	b.seqMu.Lock()
	defer b.seqMu.Unlock()

	counter, ok := b.sequences[jobID]
	if !ok {
		counter = new(uint64)
		b.sequences[jobID] = counter
	}
	*counter++
	return *counter
}

// Forget releases the sequence counter for a completed job, since no
// further events will be published once the Orchestrator reaches
// job.PhaseDone (spec.md §4.7).
func (b *Bus) Forget(jobID string) {
	b.seqMu.Lock()
	delete(b.sequences, jobID)
	b.seqMu.Unlock()
}
