package message_test

import (
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/testutil"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type severityUI struct {
	testutil.RecordingUI
	last sequencer.Severity
}

func (u *severityUI) OnLogMessage(text string, severity sequencer.Severity) {
	u.last = severity
	u.RecordingUI.OnLogMessage(text, severity)
}

func TestMessage_LogsTextWithSeverity(t *testing.T) {
	ctx, _ := testutil.Context(t)
	r := registry.New()
	r.LoadModules(ctx, &message.Module{})
	proc := sequencer.NewProcedure("p")
	proc.AddInstruction(testutil.NewInstruction(t, r, "Message", "m", testutil.Attrs{"text": "pump on", "severity": "warning"}))

	ui := &severityUI{}
	assert.Equal(t, sequencer.Success, testutil.Execute(t, proc, ui))
	assert.Equal(t, []string{"pump on"}, ui.Messages())
	assert.Equal(t, sequencer.SeverityWarning, ui.last)
}

func TestMessage_UnknownSeverity(t *testing.T) {
	ctx, _ := testutil.Context(t)
	r := registry.New()
	r.LoadModules(ctx, &message.Module{})
	proc := sequencer.NewProcedure("p")
	proc.AddInstruction(testutil.NewInstruction(t, r, "Message", "m", testutil.Attrs{"severity": "loud"}))

	require.Error(t, proc.SetupPreamble())
}
