package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const connectTimeout = 15 * time.Second

type remoteJob struct {
	job   *model.JobItem
	index *transform.Index
}

// Client mirrors the jobs of a monitor server. Updates are applied on the
// event loop behind post, in the order the server sent them.
type Client struct {
	logger *slog.Logger
	post   func(func())
	io     *socket.Socket
	out    *outbox
	in     *inbox

	// Owned by the event loop.
	jobs     map[string]*remoteJob
	order    []string
	onInfo   func(*model.JobItem)
	onUpdate func(*model.JobItem, events.Event)
	onError  func(CommandError)
}

// ClientHandlers observe the mirrored jobs. They run on the event loop.
type ClientHandlers struct {
	JobInfo      func(*model.JobItem)
	Update       func(*model.JobItem, events.Event)
	CommandError func(CommandError)
}

// Dial connects to the monitor at rawURL, e.g. http://host:port/socket.io/.
func Dial(ctx context.Context, rawURL string, post func(func()), handlers ClientHandlers) (*Client, error) {
	if post == nil {
		return nil, faults.Logic("monitor client needs an event loop")
	}
	logger := ctxlog.FromContext(ctx).With("component", "monitor_client", "url", rawURL)
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	// A new connection restarts the sequence numbers of both streams.
	opts.SetReconnection(false)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	c := &Client{
		logger:   logger,
		post:     post,
		io:       io,
		in:       newInbox(),
		jobs:     make(map[string]*remoteJob),
		onInfo:   handlers.JobInfo,
		onUpdate: handlers.Update,
		onError:  handlers.CommandError,
	}
	c.out = newOutbox(logger, func(ev, payload string, ack func([]any, error)) {
		io.Timeout(ackTimeout).Emit(ev, payload, ack)
	})
	io.On(EventJobInfo, receiver(logger, c.in, EventJobInfo, c.receiveJobInfo))
	io.On(EventDomainEvent, receiver(logger, c.in, EventDomainEvent, c.receiveEvent))
	io.On(EventCommandErr, receiver(logger, c.in, EventCommandErr, c.receiveCommandError))
	io.On("disconnect", func(...any) {
		logger.Warn("Disconnected from monitor.")
		c.out.Close()
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to monitor.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect error: %v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		c.Close()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}

// SendCommand asks the server to apply action to a job. Commands reach the
// server in the order they were sent.
func (c *Client) SendCommand(jobID string, action Action) error {
	return c.out.Send(EventCommand, Command{JobID: jobID, Action: action})
}

// Close disconnects from the server and drops unsent commands.
func (c *Client) Close() {
	c.out.Close()
	c.io.Disconnect()
}

// Job returns a mirrored job. Call on the event loop.
func (c *Client) Job(id string) *model.JobItem {
	if rj, ok := c.jobs[id]; ok {
		return rj.job
	}
	return nil
}

// Jobs returns the mirrored jobs in the order they were first announced.
// Call on the event loop.
func (c *Client) Jobs() []*model.JobItem {
	out := make([]*model.JobItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.jobs[id].job)
	}
	return out
}

func (c *Client) receiveJobInfo(data []byte) {
	var info transform.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		c.logger.Warn("Malformed job info.", "error", err)
		return
	}
	c.post(func() {
		job, index, err := transform.BuildFromJobInfo(info)
		if err != nil {
			c.logger.Warn("Cannot mirror job.", "job_id", info.JobID, "error", err)
			return
		}
		if _, known := c.jobs[job.ID()]; !known {
			c.order = append(c.order, job.ID())
		}
		c.jobs[job.ID()] = &remoteJob{job: job, index: index}
		if c.onInfo != nil {
			c.onInfo(job)
		}
	})
}

func (c *Client) receiveEvent(data []byte) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("Malformed domain event.", "error", err)
		return
	}
	ev, err := DecodeEvent(msg)
	if err != nil {
		c.logger.Warn("Cannot decode domain event.", "job_id", msg.JobID, "error", err)
		return
	}
	c.post(func() { c.apply(msg.JobID, ev) })
}

func (c *Client) receiveCommandError(data []byte) {
	var ce CommandError
	if err := json.Unmarshal(data, &ce); err != nil {
		c.logger.Warn("Malformed command error.", "error", err)
		return
	}
	c.post(func() {
		if c.onError != nil {
			c.onError(ce)
		}
	})
}

// apply updates the mirrored job the way the job handler updates a local
// one.
func (c *Client) apply(jobID string, ev events.Event) {
	rj, ok := c.jobs[jobID]
	if !ok {
		c.logger.Debug("Event for unknown job dropped.", "job_id", jobID, "event", ev.String())
		return
	}
	switch e := ev.(type) {
	case events.InstructionStateUpdated:
		if item := rj.index.Item(e.Index); item != nil {
			item.SetStatus(e.Status)
		}
	case events.VariableUpdated:
		if v := rj.job.ExpandedProcedure().Workspace().Variable(e.Index); v != nil {
			v.SetAvailable(e.Connected)
			v.SetValue(e.Value)
		}
	case events.JobStateChanged:
		rj.job.SetStatus(e.Status)
	case events.BreakpointHit:
		if item := rj.index.Item(e.Index); item != nil && item.Breakpoint() == model.BreakpointSet {
			item.SetBreakpoint(model.BreakpointSetAndHit)
		}
	}
	if c.onUpdate != nil {
		c.onUpdate(rj.job, ev)
	}
}
