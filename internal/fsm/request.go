package fsm

import "github.com/ecat-io/dataplane-master/internal/domain"

// RequestState is the lifecycle of one aperiodic request, observed by
// its submitter after a wake-up (§3 Lifecycles, §7).
type RequestState uint8

const (
	RequestQueued RequestState = iota
	RequestBusy
	RequestSuccess
	RequestFailure
)

func (s RequestState) String() string {
	switch s {
	case RequestQueued:
		return "queued"
	case RequestBusy:
		return "busy"
	case RequestSuccess:
		return "success"
	case RequestFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// RequestBase is embedded by every request kind: the state flag the
// submitter polls, and a channel closed exactly once to wake it,
// standing in for the "ownership temporarily transferred, returned by a
// wake-up" lifecycle of §3.
type RequestBase struct {
	State RequestState
	Done  chan struct{}
}

// NewRequestBase constructs a freshly queued request base.
func NewRequestBase() RequestBase {
	return RequestBase{State: RequestQueued, Done: make(chan struct{})}
}

// finish transitions the request to its terminal state and wakes the
// submitter. Called at most once per request by the owning FSM.
func (b *RequestBase) finish(ok bool) {
	if ok {
		b.State = RequestSuccess
	} else {
		b.State = RequestFailure
	}
	close(b.Done)
}

// SDORequest is a CoE/SDO object-dictionary access request.
type SDORequest struct {
	RequestBase
	Index          uint16
	SubIndex       uint8
	CompleteAccess bool
	Data           []byte
}

// RegRequest is a raw register read/write, built and judged inline with
// no sub-FSM (§4.5).
type RegRequest struct {
	RequestBase
	Dir     domain.Direction
	Address uint16
	Data    []byte
}

// FoERequest is a file-over-EtherCAT transfer request.
type FoERequest struct {
	RequestBase
	FileName string
	Data     []byte
}

// SoERequest is a servo-over-EtherCAT parameter access request.
type SoERequest struct {
	RequestBase
	DriveNo uint8
	IDN     uint16
	Data    []byte
}

// queue is an ordered FIFO of pending requests of one kind. It is not
// safe for concurrent use; callers submit from the same goroutine that
// drives the FSM's Exec, per the cooperative single-threaded scheduling
// model (§5).
type queue[T any] struct {
	items []*T
}

// Enqueue appends a request to the tail.
func (q *queue[T]) Enqueue(item *T) {
	q.items = append(q.items, item)
}

// Dequeue pops and returns the head, removing it from the queue.
func (q *queue[T]) Dequeue() (*T, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// FindQueued returns the first item whose state, as reported by
// stateOf, is still RequestQueued — without removing it. This is the
// internal register-request queue's lookup (§9 supplemented feature 4):
// entries persist in place across Busy/Success/Failure and are expected
// to be reaped by their owner, not by the FSM.
func (q *queue[T]) FindQueued(stateOf func(*T) RequestState) (*T, bool) {
	for _, item := range q.items {
		if stateOf(item) == RequestQueued {
			return item, true
		}
	}
	return nil, false
}

// Len reports the number of items currently held.
func (q *queue[T]) Len() int { return len(q.items) }
