// Package joblog keeps the log messages of each job.
//
// A Log is an slog.Handler. The job observer fans its logger out to the
// process handler and the job's Log, so every message of a job ends up in
// both. A Log can additionally persist messages to a Store.
package joblog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Attribute keys with a dedicated Event field.
const (
	KeyJobID  = "job_id"
	KeySource = "source"
)

// Event is one recorded log message.
type Event struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	JobID   string     `json:"job_id"`
	Source  string     `json:"source,omitempty"`
	Message string     `json:"message"`
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, ev Event) error
	List(ctx context.Context, jobID string) ([]Event, error)
}

type state struct {
	mu       sync.Mutex
	events   []Event
	store    Store
	storeErr error
	subs     []func(Event)
}

// Log records events in memory and forwards them to an optional store and
// subscribers. It is safe for concurrent use.
type Log struct {
	st     *state
	level  slog.Leveler
	jobID  string
	source string
}

// New creates a log recording events of at least level. store may be nil.
func New(level slog.Leveler, store Store) *Log {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Log{st: &state{store: store}, level: level}
}

func (l *Log) Enabled(_ context.Context, level slog.Level) bool {
	return level >= l.level.Level()
}

func (l *Log) Handle(ctx context.Context, r slog.Record) error {
	ev := Event{Time: r.Time, Level: r.Level, JobID: l.jobID, Source: l.source, Message: r.Message}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case KeyJobID:
			ev.JobID = a.Value.String()
		case KeySource:
			ev.Source = a.Value.String()
		}
		return true
	})

	st := l.st
	st.mu.Lock()
	st.events = append(st.events, ev)
	store := st.store
	subs := append([]func(Event){}, st.subs...)
	st.mu.Unlock()

	if store != nil {
		if err := store.Append(ctx, ev); err != nil {
			st.mu.Lock()
			st.storeErr = err
			st.mu.Unlock()
			return err
		}
	}
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

// WithAttrs keeps the job id and source of attrs. Other attributes are not
// recorded.
func (l *Log) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *l
	for _, a := range attrs {
		switch a.Key {
		case KeyJobID:
			c.jobID = a.Value.String()
		case KeySource:
			c.source = a.Value.String()
		}
	}
	return &c
}

func (l *Log) WithGroup(string) slog.Handler { return l }

// Events returns a copy of the recorded events.
func (l *Log) Events() []Event {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return append([]Event(nil), l.st.events...)
}

// Len is the number of recorded events.
func (l *Log) Len() int {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return len(l.st.events)
}

// Clear drops the recorded events. Persisted events are kept.
func (l *Log) Clear() {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	l.st.events = nil
}

// Subscribe registers fn to receive every new event on the logging
// goroutine.
func (l *Log) Subscribe(fn func(Event)) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	l.st.subs = append(l.st.subs, fn)
}

// StoreErr returns the last error of the store, if any.
func (l *Log) StoreErr() error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return l.st.storeErr
}
