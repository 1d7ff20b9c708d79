// Package workspacesync keeps the variable items of a job in step with the
// live domain workspace.
//
// Domain changes travel through an events.Dispatcher and are applied on the
// goroutine that owns the items. Edits of the items are written to the
// domain workspace directly.
package workspacesync

import (
	"context"
	"slices"
	"sort"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Synchronizer bridges a domain workspace and its workspace item. All
// methods except the listener callback run on the owning goroutine.
type Synchronizer struct {
	ctx        context.Context
	domain     *sequencer.Workspace
	gui        *model.WorkspaceItem
	dispatcher *events.Dispatcher
	listener   *Listener
	byIndex    []*model.VariableItem

	unsubscribe []func()
	onUpdate    func(events.VariableUpdated)
	applying    bool
	started     bool
	shutdown    bool
}

// New attaches to domain, which must not be set up yet. post schedules work
// on the goroutine that owns gui.
func New(ctx context.Context, domain *sequencer.Workspace, gui *model.WorkspaceItem, post func(func())) (*Synchronizer, error) {
	if domain == nil || gui == nil {
		return nil, faults.Logic("synchronizer needs both workspaces")
	}
	if domain.IsSuccessfullySetup() {
		return nil, faults.Runtime("domain workspace has already been set up")
	}
	s := &Synchronizer{ctx: ctx, domain: domain, gui: gui}
	s.dispatcher = events.NewDispatcher(post, events.Handlers{Variable: s.applyDomainUpdate})
	s.listener = NewListener(domain, s.dispatcher.Push)
	if err := s.listener.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// OnUpdate registers fn to observe each applied domain update.
func (s *Synchronizer) OnUpdate(fn func(events.VariableUpdated)) { s.onUpdate = fn }

// Start checks that both sides hold the same variables, sets the domain
// workspace up and enables editing.
func (s *Synchronizer) Start() error {
	if s.started {
		return faults.Logic("synchronizer has already been started")
	}
	if s.shutdown {
		return faults.Logic("synchronizer has been shut down")
	}
	if err := validate(s.gui, s.domain); err != nil {
		return err
	}
	names := s.domain.VariableNames()
	s.byIndex = make([]*model.VariableItem, len(names))
	for i, name := range names {
		s.byIndex[i] = s.gui.VariableByName(name)
	}

	if !s.domain.IsSuccessfullySetup() {
		if err := s.domain.Setup(); err != nil {
			return faults.SetupFailed(err)
		}
	}
	for _, item := range s.gui.Variables() {
		item.SetEditable(true)
		s.unsubscribe = append(s.unsubscribe, item.Subscribe(s.onGUIChange))
	}
	s.started = true
	return nil
}

func (s *Synchronizer) HasStarted() bool { return s.started }

// Shutdown detaches both sides, tears the domain workspace down and marks
// every item unavailable. Calling it again does nothing.
func (s *Synchronizer) Shutdown() {
	if s.shutdown {
		return
	}
	s.shutdown = true
	if s.listener.IsStarted() {
		_ = s.listener.Stop()
	}
	s.dispatcher.Close()
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
	s.domain.Teardown()
	for _, item := range s.gui.Variables() {
		item.SetEditable(false)
		item.SetAvailable(false)
	}
	s.started = false
}

func (s *Synchronizer) applyDomainUpdate(ev events.VariableUpdated) {
	if !s.started || ev.Index < 0 || ev.Index >= len(s.byIndex) {
		return
	}
	item := s.byIndex[ev.Index]
	s.applying = true
	item.SetValue(ev.Value)
	item.SetAvailable(ev.Connected)
	s.applying = false
	if s.onUpdate != nil {
		s.onUpdate(ev)
	}
}

func (s *Synchronizer) onGUIChange(item *model.VariableItem) {
	if !s.started || s.applying {
		return
	}
	if err := s.domain.SetValue(item.Name(), item.Value()); err != nil {
		ctxlog.FromContext(s.ctx).Warn("Variable edit rejected by workspace.", "variable", item.Name(), "error", err)
	}
}

// validate requires both workspaces to hold the same, non-empty set of
// variable names.
func validate(gui *model.WorkspaceItem, domain *sequencer.Workspace) error {
	domainNames := domain.SortedVariableNames()
	if len(domainNames) == 0 {
		return faults.Logic("workspace doesn't contain variables")
	}
	guiNames := gui.Names()
	sort.Strings(guiNames)
	if !slices.Equal(domainNames, guiNames) {
		return faults.Logic("workspace and workspace item have different variable sets")
	}
	return nil
}
