package runner

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/flow"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDomain blocks in ExecuteProcedure until released or halted. Each run
// passes through the flow controller once, like an instruction start.
type fakeDomain struct {
	flow     *flow.Controller
	setupErr error
	result   sequencer.Status

	mu      sync.Mutex
	release chan struct{}
	haltCh  chan struct{}
	halted  atomic.Bool

	runs    atomic.Int32
	started chan struct{}
}

func newFakeDomain(fc *flow.Controller) *fakeDomain {
	return &fakeDomain{
		flow:    fc,
		result:  sequencer.Success,
		release: make(chan struct{}),
		haltCh:  make(chan struct{}),
		started: make(chan struct{}, 16),
	}
}

func (d *fakeDomain) Setup() error { return d.setupErr }

func (d *fakeDomain) ExecuteProcedure() sequencer.Status {
	d.runs.Add(1)
	d.started <- struct{}{}
	d.flow.WaitIfNecessary()
	d.mu.Lock()
	release, haltCh := d.release, d.haltCh
	d.mu.Unlock()
	select {
	case <-release:
		return d.result
	case <-haltCh:
		return sequencer.Failure
	}
}

func (d *fakeDomain) Halt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted.CompareAndSwap(false, true) {
		close(d.haltCh)
	}
}

func (d *fakeDomain) IsHalted() bool { return d.halted.Load() }

func (d *fakeDomain) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted.CompareAndSwap(true, false) {
		d.haltCh = make(chan struct{})
	}
}

func (d *fakeDomain) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	close(d.release)
	d.release = make(chan struct{})
}

type statusLog struct {
	mu   sync.Mutex
	seen []Status
}

func (l *statusLog) record(st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, st)
}

func (l *statusLog) get() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.seen...)
}

func setup(t *testing.T) (*Controller, *fakeDomain, *flow.Controller, *statusLog) {
	t.Helper()
	fc := flow.New()
	domain := newFakeDomain(fc)
	c := NewController(domain, fc)
	log := &statusLog{}
	c.OnStatusChange(log.record)
	t.Cleanup(c.Close)
	return c, domain, fc, log
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not finish")
	}
}

func TestController_Completes(t *testing.T) {
	t.Parallel()
	c, domain, _, log := setup(t)

	require.Equal(t, Idle, c.Status())
	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	require.True(t, c.IsBusy())

	domain.finish()
	waitDone(t, c)
	assert.Equal(t, Completed, c.Status())
	assert.Equal(t, []Status{Running, Completed}, log.get())
}

func TestController_FailureResult(t *testing.T) {
	t.Parallel()
	c, domain, _, _ := setup(t)
	domain.result = sequencer.Failure

	require.NoError(t, c.ExecuteProcedure(false))
	<-domain.started
	domain.finish()
	waitDone(t, c)
	assert.Equal(t, Failed, c.Status())
}

func TestController_SetupFailureIsSynchronous(t *testing.T) {
	t.Parallel()
	c, domain, _, log := setup(t)
	domain.setupErr = errors.New("bad attribute")

	err := c.ExecuteProcedure(true)
	require.ErrorIs(t, err, faults.ErrSetupFailed)
	require.ErrorIs(t, err, faults.ErrRuntime)
	assert.Equal(t, Idle, c.Status())
	assert.Empty(t, log.get())
	assert.Equal(t, int32(0), domain.runs.Load())
}

func TestController_SubmitWhileBusyIsNoop(t *testing.T) {
	t.Parallel()
	c, domain, _, _ := setup(t)

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	require.NoError(t, c.ExecuteProcedure(true))

	assert.Equal(t, Running, c.Status())
	assert.Equal(t, int32(1), domain.runs.Load())

	domain.finish()
	waitDone(t, c)
}

func TestController_TerminateIsIdempotent(t *testing.T) {
	t.Parallel()
	c, domain, _, log := setup(t)

	c.Terminate()
	assert.Equal(t, Idle, c.Status(), "terminate without a run is a no-op")

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	c.Terminate()
	c.Terminate()

	assert.Equal(t, Canceled, c.Status())
	assert.False(t, c.IsBusy())
	assert.Equal(t, []Status{Running, Canceling, Canceled}, log.get())
	c.Close()
}

func TestController_TerminateReleasesPausedRun(t *testing.T) {
	t.Parallel()
	c, domain, fc, _ := setup(t)

	interrupted := make(chan struct{}, 1)
	c.AddInterrupter(func() {
		select {
		case interrupted <- struct{}{}:
		default:
		}
	})

	c.SetWaitingMode(flow.WaitForRelease)
	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	require.Eventually(t, fc.IsWaiting, time.Second, time.Millisecond)

	terminated := make(chan struct{})
	go func() {
		c.Terminate()
		close(terminated)
	}()
	select {
	case <-terminated:
	case <-time.After(time.Second):
		t.Fatal("Terminate deadlocked on a paused run")
	}
	assert.Equal(t, Canceled, c.Status())
	assert.Len(t, interrupted, 1)
}

func TestController_CloseRunsInterruptersOnlyWhenBusy(t *testing.T) {
	t.Parallel()
	c, domain, _, _ := setup(t)
	var calls atomic.Int32
	c.AddInterrupter(func() { calls.Add(1) })

	c.Close()
	assert.Zero(t, calls.Load(), "idle controller")

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	domain.finish()
	waitDone(t, c)
	c.Close()
	assert.Zero(t, calls.Load(), "finished run")

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	c.Terminate()
	assert.Equal(t, int32(1), calls.Load())
	c.Close()
	assert.Equal(t, int32(1), calls.Load(), "Close after Terminate")

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	c.Close()
	assert.Equal(t, int32(2), calls.Load(), "Close of a running controller")
	assert.False(t, c.IsBusy())
}

func TestController_StepAdvancesPausedRun(t *testing.T) {
	t.Parallel()
	c, domain, fc, _ := setup(t)

	c.SetWaitingMode(flow.WaitForRelease)
	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	require.Eventually(t, fc.IsWaiting, time.Second, time.Millisecond)
	assert.Equal(t, Running, c.Status(), "pausing does not change the controller state")

	c.Step()
	require.Eventually(t, func() bool { return !fc.IsWaiting() }, time.Second, time.Millisecond)
	domain.finish()
	waitDone(t, c)
	assert.Equal(t, Completed, c.Status())
}

func TestController_DomainHaltIsStopped(t *testing.T) {
	t.Parallel()
	c, domain, _, _ := setup(t)

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	domain.Halt()
	waitDone(t, c)
	assert.Equal(t, Stopped, c.Status())
	assert.False(t, domain.IsHalted(), "the domain is reset after a run")
}

func TestController_RunsAgainAfterCancel(t *testing.T) {
	t.Parallel()
	c, domain, _, _ := setup(t)

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	c.Terminate()

	require.NoError(t, c.ExecuteProcedure(true))
	<-domain.started
	require.Equal(t, Running, c.Status())
	domain.finish()
	waitDone(t, c)
	assert.Equal(t, Completed, c.Status())
	assert.Equal(t, int32(2), domain.runs.Load())
}

func TestStatus_Strings(t *testing.T) {
	t.Parallel()
	for st := Idle; st <= Stopped; st++ {
		parsed, err := ParseStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}
	assert.True(t, Canceled.IsFinished())
	assert.False(t, Paused.IsFinished())
}
