package request

import "sync"

type pending[D, A any] struct {
	args A
	ch   *Channel[D]
}

// Queue serialises requests from many goroutines so that a single consumer
// can answer them one at a time, oldest first.
type Queue[D, A any] struct {
	mu       sync.Mutex
	requests []pending[D, A]
	closed   bool
}

func NewQueue[D, A any]() *Queue[D, A] {
	return &Queue[D, A]{}
}

// GetData enqueues a request, calls notify (which must not block) and waits
// for the answer. A closed queue answers at once with processed=false.
func (q *Queue[D, A]) GetData(args A, notify func()) (value D, processed bool) {
	ch := NewChannel[D]()
	ch.arm()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		var zero D
		return zero, false
	}
	q.requests = append(q.requests, pending[D, A]{args: args, ch: ch})
	q.mu.Unlock()

	if notify != nil {
		notify()
	}
	return ch.wait()
}

// OnDataRequest answers the oldest request with the result of provider.
// provider returning ok=false cancels the request. Calling OnDataRequest on
// an empty queue is a programming error.
func (q *Queue[D, A]) OnDataRequest(provider func(args A) (D, bool)) {
	q.mu.Lock()
	if len(q.requests) == 0 {
		q.mu.Unlock()
		panic("request: OnDataRequest called with no pending request")
	}
	req := q.requests[0]
	q.requests = q.requests[1:]
	q.mu.Unlock()

	value, ok := provider(req.args)
	if ok {
		req.ch.SendData(value)
		return
	}
	req.ch.Cancel()
}

// Len is the number of unanswered requests.
func (q *Queue[D, A]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// CancelAll abandons every pending request and closes the queue: until
// Reopen, new requests are answered immediately with processed=false.
func (q *Queue[D, A]) CancelAll() {
	q.mu.Lock()
	requests := q.requests
	q.requests = nil
	q.closed = true
	q.mu.Unlock()

	for _, req := range requests {
		req.ch.Cancel()
	}
}

// Reopen accepts requests again after CancelAll.
func (q *Queue[D, A]) Reopen() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = false
}
