package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	"github.com/zishang520/socket.io/v2/socket"
)

// Path is where the socket.io endpoint is served.
const Path = "/socket.io/"

// Jobs is the part of the job manager the server drives. Its methods are
// called on the event loop.
type Jobs interface {
	JobInfos() []transform.JobInfo
	Start(id string) error
	Pause(id string) error
	Step(id string) error
	Stop(id string) error
}

// Server broadcasts job state to socket.io clients and applies their
// commands through Jobs on the event loop.
type Server struct {
	logger *slog.Logger
	post   func(func())
	jobs   Jobs

	io       *socket.Server
	listener net.Listener
	http     *http.Server

	mu     sync.Mutex
	peers  map[socket.SocketId]*peer
	closed bool
}

// peer is one connected client with its own numbered streams.
type peer struct {
	sock *socket.Socket
	out  *outbox
	in   *inbox
}

// NewServer listens on addr. Serve must be called to accept connections.
func NewServer(ctx context.Context, addr string, post func(func()), jobs Jobs) (*Server, error) {
	if post == nil || jobs == nil {
		return nil, faults.Logic("monitor server needs an event loop and a job manager")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monitor listen on %s: %w", addr, err)
	}
	s := &Server{
		logger:   ctxlog.FromContext(ctx).With("component", "monitor"),
		post:     post,
		jobs:     jobs,
		io:       socket.NewServer(nil, nil),
		listener: ln,
		peers:    make(map[socket.SocketId]*peer),
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.onConnection(client)
	})

	mux := http.NewServeMux()
	mux.Handle(Path, s.io.ServeHandler(nil))
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s, nil
}

// Addr is the address the server listens on.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// URL is the base URL clients connect to.
func (s *Server) URL() string { return "http://" + s.listener.Addr().String() + Path }

// Serve accepts connections until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	s.logger.Info("Monitor server listening.", "addr", s.Addr().String())
	err := s.http.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close disconnects every client and stops the HTTP server. It may be
// called more than once.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, p := range s.peers {
		p.out.Close()
		delete(s.peers, id)
	}
	s.mu.Unlock()

	s.io.Close(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("Monitor server shutdown.", "error", err)
	}
}

func (s *Server) onConnection(client *socket.Socket) {
	logger := s.logger.With("sid", string(client.Id()))
	logger.Info("Monitor client connected.")

	p := &peer{
		sock: client,
		out: newOutbox(logger, func(ev, payload string, ack func([]any, error)) {
			client.Timeout(ackTimeout).Emit(ev, payload, ack)
		}),
		in: newInbox(),
	}
	client.On(EventCommand, receiver(logger, p.in, EventCommand, func(data []byte) {
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			logger.Warn("Malformed command.", "error", err)
			return
		}
		s.post(func() { s.apply(p, cmd) })
	}))
	client.On("disconnect", func(...any) {
		logger.Info("Monitor client disconnected.")
		s.mu.Lock()
		delete(s.peers, client.Id())
		s.mu.Unlock()
		p.out.Close()
	})

	// The snapshot is queued under the same lock as the registration, so it
	// precedes every event broadcast to this client.
	s.post(func() {
		s.mu.Lock()
		if s.closed || client.Disconnected() {
			s.mu.Unlock()
			p.out.Close()
			return
		}
		defer s.mu.Unlock()
		s.peers[client.Id()] = p
		for _, info := range s.jobs.JobInfos() {
			if err := p.out.Send(EventJobInfo, info); err != nil {
				logger.Warn("Cannot send job info.", "job_id", info.JobID, "error", err)
			}
		}
	})
}

func (s *Server) apply(p *peer, cmd Command) {
	var err error
	switch cmd.Action {
	case ActionStart:
		err = s.jobs.Start(cmd.JobID)
	case ActionPause:
		err = s.jobs.Pause(cmd.JobID)
	case ActionStep:
		err = s.jobs.Step(cmd.JobID)
	case ActionStop:
		err = s.jobs.Stop(cmd.JobID)
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}
	if err == nil {
		s.logger.Debug("Command applied.", "job_id", cmd.JobID, "action", string(cmd.Action))
		return
	}
	s.logger.Warn("Command failed.", "job_id", cmd.JobID, "action", string(cmd.Action), "error", err)
	if serr := p.out.Send(EventCommandErr, CommandError{Command: cmd, Error: err.Error()}); serr != nil {
		s.logger.Debug("Command error not sent.", "error", serr)
	}
}

// PublishJobInfo sends a job snapshot to every client.
func (s *Server) PublishJobInfo(info transform.JobInfo) {
	s.broadcast(EventJobInfo, info)
}

// PublishEvent sends one event of a job to every client. Events published
// from one goroutine reach each client in publication order.
func (s *Server) PublishEvent(jobID string, ev events.Event) {
	msg, err := EncodeEvent(jobID, ev)
	if err != nil {
		s.logger.Warn("Cannot encode event.", "job_id", jobID, "error", err)
		return
	}
	s.broadcast(EventDomainEvent, msg)
}

func (s *Server) broadcast(ev string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.peers {
		if err := p.out.Send(ev, v); err != nil {
			s.logger.Debug("Dropping message for closed client.", "sid", string(id), "event", ev, "error", err)
		}
	}
}

// Clients is the number of registered clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}
