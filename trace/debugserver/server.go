// Package debugserver implements a minimal remote-attach transport for
// trace.DebugController (spec.md §4.8): breakpoint set/clear, step/resume
// commands, and trace-event streaming, framed as JSON-over-websocket —
// grounded on LanternOps-breeze's agent/internal/websocket client, here
// turned the other way around (this side accepts the connection).
package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quackster/libreshockwave/trace"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Command is one inbound debugger command, matching the command/result
// JSON envelope shape used throughout the pack (id + type + payload).
type Command struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // "set_breakpoint", "clear_breakpoint", "resume", "step_in", "step_over", "step_out", "eval_watch", "list_breakpoints"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result answers one Command.
type Result struct {
	Type      string `json:"type"`
	CommandID string `json:"commandId"`
	Status    string `json:"status"` // "ok" or "error"
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Event is a message pushed to the client: a trace.PauseEvent ("paused")
// or the Result answering one Command ("result").
type Event struct {
	Type  string `json:"type"` // "paused", "result"
	Event any    `json:"event,omitempty"`
}

type breakpointPayload struct {
	ScriptID  uint32 `json:"scriptId"`
	Offset    uint32 `json:"offset"`
	Condition string `json:"condition,omitempty"`
	LogPoint  bool   `json:"logPoint,omitempty"`
}

type watchPayload struct {
	Expr string `json:"expr"`
}

// Server upgrades incoming HTTP connections and lets each one drive ctrl.
// Multiple simultaneous connections are supported; every connected client
// receives every pause event (a single active debugger is the expected
// deployment, but nothing here assumes exactly one).
type Server struct {
	ctrl *trace.DebugController
	log  *zap.Logger

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// New builds a Server driving ctrl. It installs ctrl.OnPause to broadcast
// PauseEvents to every connected client.
func New(ctrl *trace.DebugController, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{ctrl: ctrl, log: log, conns: make(map[*conn]struct{})}
	ctrl.OnPause = s.broadcastPause
	return s
}

func (s *Server) broadcastPause(ev trace.PauseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.send(Event{Type: "paused", Event: ev})
	}
}

// ServeHTTP upgrades the request to a websocket and serves it until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{id: uuid.NewString(), ws: ws, out: make(chan Event, sendQueue)}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	s.log.Info("debugger attached", zap.String("conn_id", c.id))
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		ws.Close()
		s.log.Info("debugger detached", zap.String("conn_id", c.id))
	}()

	done := make(chan struct{})
	go c.writePump(done)
	s.readLoop(c)
	close(done)
}

func (s *Server) readLoop(c *conn) {
	for {
		var cmd Command
		if err := c.ws.ReadJSON(&cmd); err != nil {
			return
		}
		c.send(Event{Type: "result", Event: s.handle(cmd)})
	}
}

func (s *Server) handle(cmd Command) Result {
	res := Result{Type: "command_result", CommandID: cmd.ID, Status: "ok"}
	switch cmd.Type {
	case "set_breakpoint":
		var p breakpointPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return errResult(cmd.ID, err)
		}
		s.ctrl.SetBreakpoint(trace.Breakpoint{ScriptID: p.ScriptID, Offset: p.Offset, Condition: p.Condition, LogPoint: p.LogPoint})
	case "clear_breakpoint":
		var p breakpointPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return errResult(cmd.ID, err)
		}
		s.ctrl.ClearBreakpoint(p.ScriptID, p.Offset)
	case "resume":
		s.ctrl.Resume()
	case "step_in":
		s.ctrl.StepIn()
	case "step_over":
		s.ctrl.StepOver()
	case "step_out":
		s.ctrl.StepOut()
	case "eval_watch":
		var p watchPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return errResult(cmd.ID, err)
		}
		res.Result = s.ctrl.EvalWatch(p.Expr).String()
	case "list_breakpoints":
		res.Result = s.ctrl.Breakpoints()
	default:
		return Result{Type: "command_result", CommandID: cmd.ID, Status: "error", Error: "unknown command: " + cmd.Type}
	}
	return res
}

func errResult(id string, err error) Result {
	return Result{Type: "command_result", CommandID: id, Status: "error", Error: err.Error()}
}

type conn struct {
	id  string
	ws  *websocket.Conn
	out chan Event
}

func (c *conn) send(ev Event) {
	select {
	case c.out <- ev:
	default:
		// Slow client: drop rather than block the VM's pause-event path.
	}
}

func (c *conn) writePump(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
