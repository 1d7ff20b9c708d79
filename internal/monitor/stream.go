package monitor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	ackTimeout  = 2 * time.Second
	maxAttempts = 5
)

var errStreamClosed = errors.New("monitor stream closed")

// Envelope numbers the messages sent over one connection in one direction.
// Sequence numbers start at 1.
type Envelope struct {
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}

// emitFunc sends payload as event ev and reports the peer acknowledgement,
// or a timeout, through ack.
type emitFunc func(ev, payload string, ack func([]any, error))

type outMsg struct {
	event   string
	payload string
	seq     uint64
}

// outbox sends messages in order with at most one unacknowledged message on
// the wire. socket.io delivers concurrently received packets on separate
// goroutines, so a message is only sent once the previous one was
// acknowledged. Unacknowledged messages are resent with the same sequence
// number.
type outbox struct {
	logger *slog.Logger
	emit   emitFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []outMsg
	seq    uint64
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

func newOutbox(logger *slog.Logger, emit emitFunc) *outbox {
	o := &outbox{
		logger: logger,
		emit:   emit,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	o.cond = sync.NewCond(&o.mu)
	go o.run()
	return o
}

// Send queues v, JSON encoded, as event ev. It never blocks on the network.
func (o *outbox) Send(ev string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return errStreamClosed
	}
	o.seq++
	payload, err := json.Marshal(Envelope{Seq: o.seq, Data: data})
	if err != nil {
		o.seq--
		return err
	}
	o.queue = append(o.queue, outMsg{event: ev, payload: string(payload), seq: o.seq})
	o.cond.Signal()
	return nil
}

// Pending is the number of messages not yet acknowledged.
func (o *outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Close drops the unsent messages and stops the sender. It may be called
// more than once.
func (o *outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.queue = nil
	close(o.stop)
	o.cond.Broadcast()
	o.mu.Unlock()
}

func (o *outbox) run() {
	defer close(o.done)
	for {
		o.mu.Lock()
		for len(o.queue) == 0 && !o.closed {
			o.cond.Wait()
		}
		if o.closed {
			o.mu.Unlock()
			return
		}
		msg := o.queue[0]
		o.mu.Unlock()

		if !o.deliver(msg) {
			o.Close()
			return
		}

		o.mu.Lock()
		if len(o.queue) > 0 {
			o.queue = o.queue[1:]
		}
		o.mu.Unlock()
	}
}

func (o *outbox) deliver(msg outMsg) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		acked := make(chan error, 1)
		o.emit(msg.event, msg.payload, func(_ []any, err error) {
			select {
			case acked <- err:
			default:
			}
		})
		select {
		case err := <-acked:
			if err == nil {
				return true
			}
			o.logger.Debug("Message not acknowledged, resending.", "event", msg.event, "seq", msg.seq, "attempt", attempt, "error", err)
		case <-time.After(ackTimeout + time.Second):
			o.logger.Debug("Message not acknowledged, resending.", "event", msg.event, "seq", msg.seq, "attempt", attempt)
		case <-o.stop:
			return false
		}
	}
	o.logger.Warn("Peer stopped acknowledging messages.", "event", msg.event, "seq", msg.seq)
	return false
}

// inbox restores the sequence order of received envelopes and drops the
// ones already delivered.
type inbox struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]func()
}

func newInbox() *inbox {
	return &inbox{next: 1, pending: make(map[uint64]func())}
}

// Accept runs deliver once every envelope before seq has been delivered.
// Deliveries run in sequence order and must not block.
func (in *inbox) Accept(seq uint64, deliver func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if seq < in.next {
		return
	}
	if _, dup := in.pending[seq]; dup {
		return
	}
	in.pending[seq] = deliver
	for {
		fn, ok := in.pending[in.next]
		if !ok {
			return
		}
		delete(in.pending, in.next)
		in.next++
		fn()
	}
}

// receiver returns a socket.io listener that acknowledges each envelope and
// hands its data to handle in sequence order.
func receiver(logger *slog.Logger, in *inbox, ev string, handle func(data []byte)) func(...any) {
	return func(args ...any) {
		args, ack := splitAck(args)
		if ack != nil {
			defer ack(nil, nil)
		}
		var env Envelope
		if err := unmarshalPayload(args, &env); err != nil {
			logger.Warn("Malformed envelope.", "event", ev, "error", err)
			return
		}
		in.Accept(env.Seq, func() { handle(env.Data) })
	}
}

// splitAck separates the acknowledgement callback socket.io appends to the
// arguments of an event sent with an ack.
func splitAck(args []any) ([]any, func([]any, error)) {
	if len(args) == 0 {
		return args, nil
	}
	if ack, ok := args[len(args)-1].(func([]any, error)); ok {
		return args[:len(args)-1], ack
	}
	return args, nil
}
