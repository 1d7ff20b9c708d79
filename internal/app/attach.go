package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/eventloop"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/monitor"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ui"
)

// Attach connects to a monitor server and prints the mirrored jobs and
// their state changes until ctx is done. Lines read from in are sent as
// commands: "step", "pause", "start" or "stop", applied to the last
// announced job.
func Attach(ctx context.Context, outW io.Writer, in io.Reader, url, logLevel, logFormat string) error {
	logger := newLogger(logLevel, logFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	loop := eventloop.New()

	var current string
	client, err := monitor.Dial(ctx, url, loop.Post, monitor.ClientHandlers{
		JobInfo: func(job *model.JobItem) {
			current = job.ID()
			fmt.Fprint(outW, ui.JobSummary(job))
		},
		Update: func(job *model.JobItem, ev events.Event) {
			if st, ok := ev.(events.JobStateChanged); ok {
				fmt.Fprintln(outW, ui.InfoMsg("%s %s", job.ID(), ui.JobStatus(st.Status)))
				if st.Status.IsFinished() {
					fmt.Fprint(outW, ui.JobSummary(job))
				}
			}
		},
		CommandError: func(ce monitor.CommandError) {
			fmt.Fprintln(outW, ui.ErrorMsg("%s %s: %s", ce.JobID, ce.Action, ce.Error))
		},
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if in != nil {
		console := ui.NewConsole(in, io.Discard)
		go func() {
			for {
				line, ok := console.Line("")
				if !ok {
					return
				}
				action := monitor.Action(strings.ToLower(line))
				loop.Post(func() {
					if current == "" {
						return
					}
					if err := client.SendCommand(current, action); err != nil {
						logger.Warn("Command not sent.", "error", err)
					}
				})
			}
		}()
	}

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
