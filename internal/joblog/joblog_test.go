package joblog

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	slogmulti "github.com/samber/slog-multi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordsThroughFanout(t *testing.T) {
	var process []string
	var mu sync.Mutex
	processHandler := &captureHandler{fn: func(r slog.Record) {
		mu.Lock()
		defer mu.Unlock()
		process = append(process, r.Message)
	}}
	jl := New(slog.LevelInfo, nil)
	logger := slog.New(slogmulti.Fanout(processHandler, jl)).With(KeyJobID, "job-1")

	logger.Debug("hidden")
	logger.Info("started", KeySource, "Sequence0")
	logger.Warn("slow")

	events := jl.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "job-1", events[0].JobID)
	assert.Equal(t, "Sequence0", events[0].Source)
	assert.Equal(t, slog.LevelWarn, events[1].Level)
	assert.Equal(t, []string{"hidden", "started", "slow"}, process)
}

func TestLog_ConcurrentWriters(t *testing.T) {
	jl := New(nil, nil)
	logger := slog.New(jl)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Info("tick")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, jl.Len())
	jl.Clear()
	assert.Zero(t, jl.Len())
}

func TestLog_SubscribersAndStoreErrors(t *testing.T) {
	store := &failingStore{err: errors.New("disk full")}
	jl := New(nil, store)
	var got []Event
	jl.Subscribe(func(ev Event) { got = append(got, ev) })

	slog.New(jl).Info("a")
	assert.Len(t, jl.Events(), 1)
	assert.EqualError(t, jl.StoreErr(), "disk full")

	store.err = nil
	slog.New(jl).Info("b")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Message)
}

func TestSQLiteStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "jobs.db")
	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []Event{
		{Time: base, Level: slog.LevelInfo, JobID: "a", Source: "Wait0", Message: "first"},
		{Time: base.Add(time.Millisecond), Level: slog.LevelError, JobID: "a", Message: "second"},
	}
	for _, ev := range want {
		require.NoError(t, store.Append(ctx, ev))
	}
	require.NoError(t, store.Append(ctx, Event{Time: base, JobID: "b", Message: "other"}))

	got, err := store.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateApproxTime(0)))

	jobs, err := store.Jobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, jobs)

	// Reopening keeps the data and does not re-run migrations.
	require.NoError(t, store.Close())
	again, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })
	got, err = again.List(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLog_PersistsToSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(New(nil, store)).With(KeyJobID, "job-7")
	logger.Error("pump tripped", KeySource, "Message")

	got, err := store.List(ctx, "job-7")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pump tripped", got[0].Message)
	assert.Equal(t, "Message", got[0].Source)
}

type captureHandler struct {
	fn func(slog.Record)
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.fn(r)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

type failingStore struct {
	err error
}

func (s *failingStore) Append(context.Context, Event) error { return s.err }

func (s *failingStore) List(context.Context, string) ([]Event, error) { return nil, nil }
