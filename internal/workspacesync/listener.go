package workspacesync

import (
	"sync"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// Listener forwards every value and availability change of a domain
// workspace as a VariableUpdated event. Variables are addressed by their
// position in the workspace.
type Listener struct {
	ws   *sequencer.Workspace
	push func(events.Event)

	mu      sync.Mutex
	index   map[string]int
	guard   *sequencer.CallbackGuard
	started bool
}

func NewListener(ws *sequencer.Workspace, push func(events.Event)) *Listener {
	return &Listener{ws: ws, push: push}
}

// Start attaches to the workspace. It must happen before the workspace is
// set up, otherwise the first values would be missed.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return faults.Logic("workspace listener is already started")
	}
	if l.ws.IsSuccessfullySetup() {
		return faults.Logic("workspace listener started after workspace setup")
	}
	l.index = make(map[string]int)
	for i, name := range l.ws.VariableNames() {
		l.index[name] = i
	}
	l.ws.RegisterGenericCallback(l.onChange, l)
	l.guard = l.ws.GetCallbackGuard(l)
	l.started = true
	return nil
}

// Stop detaches from the workspace. Stopping a listener that is not
// started is an error.
func (l *Listener) Stop() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return faults.Logic("workspace listener is not started")
	}
	guard := l.guard
	l.guard = nil
	l.started = false
	l.mu.Unlock()

	guard.Release()
	return nil
}

func (l *Listener) IsStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

func (l *Listener) onChange(name string, value cty.Value, connected bool) {
	l.mu.Lock()
	i, ok := l.index[name]
	l.mu.Unlock()
	if !ok {
		return
	}
	l.push(events.VariableUpdated{Index: i, Value: value, Connected: connected})
}
