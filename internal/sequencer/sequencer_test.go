package sequencer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type statusRecord struct {
	name   string
	status Status
}

type recordingUI struct {
	mu          sync.Mutex
	statuses    []statusRecord
	variables   []string
	logs        []string
	breakpoints []string
}

func (u *recordingUI) OnInstructionStatusChange(inst *Instruction, status Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.statuses = append(u.statuses, statusRecord{inst.Name(), status})
}

func (u *recordingUI) OnVariableChange(name string, _ cty.Value, _ bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.variables = append(u.variables, name)
}

func (u *recordingUI) OnLogMessage(text string, _ Severity) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.logs = append(u.logs, text)
}

func (u *recordingUI) OnUserInput(cty.Value, string) (cty.Value, bool) { return cty.NilVal, false }

func (u *recordingUI) OnUserChoice([]string, cty.Value) (int, bool) { return -1, false }

func (u *recordingUI) OnBreakpointHit(inst *Instruction) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.breakpoints = append(u.breakpoints, inst.Name())
}

func sequence() Behavior {
	return ExecuteFunc(func(ec *ExecContext, inst *Instruction) Status {
		for _, child := range inst.Children() {
			if st := ec.ExecuteChild(child); st == Failure {
				return Failure
			}
		}
		return Success
	})
}

func succeed() Behavior {
	return ExecuteFunc(func(*ExecContext, *Instruction) Status { return Success })
}

func waitForever() Behavior {
	return ExecuteFunc(func(ec *ExecContext, _ *Instruction) Status {
		if ec.Wait(time.Hour) {
			return Success
		}
		return Failure
	})
}

type includeBehavior struct{}

func (includeBehavior) Setup(*Instruction, *Procedure) error { return nil }

func (includeBehavior) Execute(ec *ExecContext, inst *Instruction) Status {
	return ec.ExecuteChild(inst.Children()[0])
}

func (includeBehavior) Expand(inst *Instruction, proc *Procedure) ([]*Instruction, error) {
	path, _ := inst.Attribute("path")
	clone, err := proc.CloneTopInstruction(path)
	if err != nil {
		return nil, err
	}
	return []*Instruction{clone}, nil
}

func named(kind, name string, factory BehaviorFactory, children ...*Instruction) *Instruction {
	inst := NewInstruction(kind, factory)
	inst.SetName(name)
	for _, c := range children {
		inst.AddChild(c)
	}
	return inst
}

type localVar struct{}

func (localVar) Setup(v *Variable) (cty.Value, bool, error) { return v.InitialValue(), true, nil }
func (localVar) Teardown(*Variable)                         {}

func TestProcedure_SetupIndexesPreOrder(t *testing.T) {
	t.Parallel()

	proc := NewProcedure("main")
	proc.AddInstruction(named("Sequence", "Sequence0", sequence,
		named("Wait", "Wait0", succeed)))
	proc.AddInstruction(named("Sequence", "Sequence1", sequence,
		named("Wait", "Wait1", succeed)))

	require.NoError(t, proc.Setup())
	require.True(t, proc.IsSetup())
	require.Equal(t, 4, proc.InstructionCount())

	var names []string
	for i := 0; i < proc.InstructionCount(); i++ {
		inst := proc.Instruction(i)
		require.Equal(t, i, inst.Index())
		names = append(names, inst.Name())
	}
	assert.Equal(t, []string{"Sequence0", "Wait0", "Sequence1", "Wait1"}, names)
	assert.Nil(t, proc.Instruction(4))
	assert.Nil(t, proc.Instruction(-1))
}

func TestProcedure_IncludeExpansion(t *testing.T) {
	t.Parallel()

	include := named("Include", "inc", func() Behavior { return includeBehavior{} })
	include.SetAttribute("path", "Template")
	root := named("Sequence", "Main", sequence, include)
	root.SetAttribute(AttrIsRoot, "true")

	proc := NewProcedure("main")
	proc.AddInstruction(named("Sequence", "Template", sequence, named("Wait", "inner", succeed)))
	proc.AddInstruction(root)

	require.NoError(t, proc.Setup())
	require.Same(t, root, proc.RootInstruction())

	require.Len(t, include.Children(), 1)
	generated := include.Children()[0]
	assert.True(t, generated.Generated())
	assert.Equal(t, "Template", generated.Name())
	assert.Equal(t, "inner", generated.Children()[0].Name())
	assert.Equal(t, 6, proc.InstructionCount())

	ui := &recordingUI{}
	runner := NewRunner(ui)
	runner.SetProcedure(proc)
	require.Equal(t, Success, runner.ExecuteProcedure())
	assert.Contains(t, ui.statuses, statusRecord{"inner", Success})
}

func TestProcedure_IncludeCycleFails(t *testing.T) {
	t.Parallel()

	inc := named("Include", "loop", func() Behavior { return includeBehavior{} })
	inc.SetAttribute("path", "A")
	proc := NewProcedure("cyclic")
	proc.AddInstruction(named("Sequence", "A", sequence, inc))

	err := proc.Setup()
	require.Error(t, err)
	require.Contains(t, err.Error(), "include cycles")
}

func TestProcedure_EmptyFailsSetup(t *testing.T) {
	t.Parallel()
	require.Error(t, NewProcedure("empty").Setup())
}

func TestRunner_StatusOrderAndReset(t *testing.T) {
	t.Parallel()

	proc := NewProcedure("main")
	proc.AddInstruction(named("Sequence", "seq", sequence,
		named("Wait", "a", succeed), named("Wait", "b", succeed)))
	require.NoError(t, proc.Setup())

	ui := &recordingUI{}
	runner := NewRunner(ui)
	runner.SetProcedure(proc)

	require.Equal(t, Success, runner.ExecuteProcedure())
	want := []statusRecord{
		{"seq", Running},
		{"a", Running}, {"a", Success},
		{"b", Running}, {"b", Success},
		{"seq", Success},
	}
	assert.Equal(t, want, ui.statuses)

	runner.Reset()
	assert.Equal(t, NotExecuted, proc.Instruction(0).Status())
}

func TestRunner_HaltInterruptsWait(t *testing.T) {
	t.Parallel()

	proc := NewProcedure("main")
	proc.AddInstruction(named("Sequence", "seq", sequence,
		named("Wait", "forever", waitForever), named("Wait", "never", succeed)))
	require.NoError(t, proc.Setup())

	ui := &recordingUI{}
	runner := NewRunner(ui)
	runner.SetProcedure(proc)

	done := make(chan Status, 1)
	go func() { done <- runner.ExecuteProcedure() }()

	require.Eventually(t, func() bool {
		return proc.Instruction(1).Status() == Running
	}, time.Second, time.Millisecond)

	runner.Halt()
	runner.Halt()

	select {
	case st := <-done:
		require.Equal(t, Failure, st)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after Halt")
	}
	assert.True(t, runner.IsHalted())
	assert.Equal(t, NotExecuted, proc.Instruction(2).Status())

	runner.Reset()
	assert.False(t, runner.IsHalted())
}

func TestRunner_BreakpointReportedBeforeStart(t *testing.T) {
	t.Parallel()

	proc := NewProcedure("main")
	proc.AddInstruction(named("Sequence", "seq", sequence, named("Wait", "a", succeed)))
	require.NoError(t, proc.Setup())

	ui := &recordingUI{}
	runner := NewRunner(ui)
	runner.SetProcedure(proc)
	runner.SetBreakpoint(1)

	require.Equal(t, Success, runner.ExecuteProcedure())
	assert.Equal(t, []string{"a"}, ui.breakpoints)

	runner.RemoveBreakpoint(1)
	ui.breakpoints = nil
	runner.Reset()
	runner.ExecuteProcedure()
	assert.Empty(t, ui.breakpoints)
}

func TestWorkspace_Lifecycle(t *testing.T) {
	t.Parallel()

	ws := NewWorkspace()
	v := NewVariable("local", localVar{})
	v.SetInitialValue(cty.NumberIntVal(1))
	require.NoError(t, ws.AddVariable("counter", v))
	require.Error(t, ws.AddVariable("counter", NewVariable("local", localVar{})))

	type seen struct {
		value     cty.Value
		connected bool
	}
	var mu sync.Mutex
	var got []seen
	token := new(int)
	ws.RegisterGenericCallback(func(_ string, value cty.Value, connected bool) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, seen{value, connected})
	}, token)

	_, err := ws.GetValue("counter")
	require.Error(t, err, "values are unavailable before setup")

	require.NoError(t, ws.Setup())
	require.Error(t, ws.AddVariable("late", NewVariable("local", localVar{})))
	require.NoError(t, ws.SetValue("counter", cty.StringVal("5")))

	value, err := ws.GetValue("counter")
	require.NoError(t, err)
	assert.True(t, value.RawEquals(cty.NumberIntVal(5)))
	require.Error(t, ws.SetValue("counter", cty.StringVal("five")))
	require.Error(t, ws.SetValue("missing", cty.True))

	require.NoError(t, ws.SetAvailable("counter", false))
	assert.False(t, ws.IsAvailable("counter"))

	guard := ws.GetCallbackGuard(token)
	guard.Release()
	guard.Release()
	require.NoError(t, ws.SetValue("counter", cty.NumberIntVal(9)))

	mu.Lock()
	require.Len(t, got, 3)
	assert.True(t, got[0].value.RawEquals(cty.NumberIntVal(1)))
	assert.True(t, got[0].connected)
	assert.True(t, got[1].value.RawEquals(cty.NumberIntVal(5)))
	assert.False(t, got[2].connected)
	mu.Unlock()

	ws.Teardown()
	assert.False(t, ws.IsSuccessfullySetup())
	assert.False(t, ws.IsAvailable("counter"))
}

func TestStatus_Parse(t *testing.T) {
	t.Parallel()

	for _, st := range []Status{NotExecuted, Running, Success, Failure, Warning} {
		parsed, err := ParseStatus(st.String())
		require.NoError(t, err)
		require.Equal(t, st, parsed)
	}
	_, err := ParseStatus("Exploded")
	require.Error(t, err)
	assert.True(t, Success.IsFinished())
	assert.False(t, Running.IsFinished())
}
