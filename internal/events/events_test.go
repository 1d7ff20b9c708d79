package events

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEqual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		a, b  Event
		equal bool
	}{
		{"invalid", Invalid{}, Invalid{}, true},
		{"nil is invalid", nil, Invalid{}, true},
		{"invalid vs valid", Invalid{}, BreakpointHit{Index: 0}, false},
		{"instruction", InstructionStateUpdated{1, sequencer.Running}, InstructionStateUpdated{1, sequencer.Running}, true},
		{"instruction status differs", InstructionStateUpdated{1, sequencer.Running}, InstructionStateUpdated{1, sequencer.Success}, false},
		{"variable", VariableUpdated{0, cty.NumberIntVal(42), true}, VariableUpdated{0, cty.NumberIntVal(42), true}, true},
		{"variable value differs", VariableUpdated{0, cty.NumberIntVal(42), true}, VariableUpdated{0, cty.NumberIntVal(43), true}, false},
		{"variable struct", VariableUpdated{0, cty.ObjectVal(map[string]cty.Value{"a": cty.True}), true},
			VariableUpdated{0, cty.ObjectVal(map[string]cty.Value{"a": cty.True}), true}, true},
		{"job", JobStateChanged{runner.Running}, JobStateChanged{runner.Running}, true},
		{"kinds differ", ActiveInstructionChanged{1}, BreakpointHit{1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.equal, Equal(tc.a, tc.b))
		})
	}
}

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	var pushed []Event
	for i := 0; i < 100; i++ {
		e := InstructionStateUpdated{Index: i, Status: sequencer.Running}
		pushed = append(pushed, e)
		q.Push(e)
	}
	require.Equal(t, 100, q.Count())

	var popped []Event
	for q.Count() > 0 {
		popped = append(popped, q.Pop())
	}
	require.Empty(t, cmp.Diff(pushed, popped))
	assert.Equal(t, 0, q.Count())
	assert.False(t, IsValid(q.Pop()))
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	const producers, perProducer = 4, 250
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(ActiveInstructionChanged{Index: p*perProducer + i})
			}
		}(p)
	}
	wg.Wait()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for q.Count() > 0 {
		idx := q.Pop().(ActiveInstructionChanged).Index
		p, i := idx/perProducer, idx%perProducer
		require.Greater(t, i, last[p])
		last[p] = i
	}
	for _, l := range last {
		assert.Equal(t, perProducer-1, l)
	}
}

// manualLoop collects posted functions so a test decides when the consumer
// runs.
type manualLoop struct {
	mu    sync.Mutex
	tasks []func()
}

func (l *manualLoop) post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, fn)
}

func (l *manualLoop) tick() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

func TestDispatcher_CoalescesPosts(t *testing.T) {
	t.Parallel()

	loop := &manualLoop{}
	var got []Event
	var anyCount int
	d := NewDispatcher(loop.post, Handlers{
		InstructionState: func(e InstructionStateUpdated) { got = append(got, e) },
		JobState:         func(e JobStateChanged) { got = append(got, e) },
		Any:              func(Event) { anyCount++ },
	})

	d.Push(InstructionStateUpdated{0, sequencer.Running})
	d.Push(JobStateChanged{runner.Running})
	d.Push(InstructionStateUpdated{0, sequencer.Success})
	require.Equal(t, 3, d.Pending())

	require.Equal(t, 1, loop.tick(), "three pushes between ticks cost one notification")
	want := []Event{
		InstructionStateUpdated{0, sequencer.Running},
		JobStateChanged{runner.Running},
		InstructionStateUpdated{0, sequencer.Success},
	}
	require.Empty(t, cmp.Diff(want, got))
	assert.Equal(t, 3, anyCount)
	assert.Equal(t, 0, loop.tick())

	d.Push(BreakpointHit{2})
	assert.Equal(t, 1, loop.tick(), "a push after a flush schedules a new one")
	assert.Equal(t, 4, anyCount)
}

func TestDispatcher_CloseDrops(t *testing.T) {
	t.Parallel()

	loop := &manualLoop{}
	delivered := 0
	d := NewDispatcher(loop.post, Handlers{Any: func(Event) { delivered++ }})
	d.Push(BreakpointHit{1})
	d.Close()
	d.Push(BreakpointHit{2})
	loop.tick()
	assert.Equal(t, 0, delivered)
}
