package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/lifecycle"
	"github.com/bastiangx/inkpilot/pkg/predict"
)

// Server handles the IPC between one editor and one controller.
type Server struct {
	reader     *bufio.Reader
	controller *lifecycle.Controller
	tracker    *editor.Tracker
	logger     *log.Logger

	writeMu sync.Mutex
	encoder *msgpack.Encoder
}

// NewServer builds a server reading requests from r and writing replies and
// effects to w. The server is the controller's view.
func NewServer(r io.Reader, w io.Writer, provider predict.Provider, settings config.Settings, opts ...lifecycle.Option) *Server {
	s := &Server{
		reader:  bufio.NewReader(r),
		tracker: editor.NewTracker(),
		logger:  logger.New("server"),
		encoder: msgpack.NewEncoder(w),
	}
	opts = append(opts, lifecycle.WithStatus(func(_ lifecycle.Kind, status string) {
		s.send(Effect{Kind: FxStatus, Text: status})
	}))
	s.controller = lifecycle.New(provider, s, settings, opts...)
	return s
}

// Controller returns the controller driven by this server.
func (s *Server) Controller() *lifecycle.Controller {
	return s.controller
}

// Start signals readiness and serves requests until the input ends.
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	s.send(Effect{Kind: FxReady})

	decoder := msgpack.NewDecoder(s.reader)
	for {
		var raw msgpack.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed, stopping server")
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return fmt.Errorf("read request: %w", err)
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.logger.Warnf("Malformed request: %v", err)
			s.send(Reply{Error: "malformed request"})
			continue
		}
		s.handleRequest(req)
	}
}

// Close stops the controller and waits for in-flight requests.
func (s *Server) Close() {
	s.controller.Close()
}

func (s *Server) handleRequest(req Request) {
	s.logger.Debugf("Request %s: %s", req.ID, req.Op)
	c := s.controller

	reply := Reply{ID: req.ID, OK: true}
	switch req.Op {
	case OpChange:
		c.HandleDocumentChange(s.tracker.Observe(observation(req)))
	case OpPredict:
		snap := editor.SnapshotAt(req.Text, req.Cursor)
		if req.Text == "" {
			snap = s.tracker.Last()
		}
		c.HandlePredictCommand(snap.Prefix, snap.Suffix)
	case OpAccept:
		reply.Consumed = c.HandleAcceptKeyPressed()
	case OpPartial:
		reply.Consumed = c.HandlePartialAcceptKeyPressed()
	case OpCancel:
		reply.Consumed = c.HandleCancelKeyPressed()
	case OpAcceptCmd:
		c.HandleAcceptCommand()
	case OpFile:
		s.tracker.Reset()
		c.HandleFileChange(editor.File{Path: req.Path, Tags: req.Tags})
	case OpStatus:
		reply.Status = c.StatusText()
	case OpHealth:
		reply.Status = "ok"
	default:
		reply.OK = false
		reply.Error = fmt.Sprintf("unknown op: %q", req.Op)
	}

	reply.State = c.State().String()
	reply.Context = c.Context().String()
	s.send(reply)
}

func observation(req Request) editor.Observation {
	obs := editor.Observation{
		Text:           req.Text,
		Cursor:         req.Cursor,
		Focused:        req.Focus,
		Selection:      req.Selection,
		MultipleCursor: req.Multi,
	}
	for _, ev := range req.Events {
		if kind, ok := editor.ParseInputKind(ev); ok {
			obs.Inputs = append(obs.Inputs, kind)
		}
	}
	return obs
}

// Render implements editor.View.
func (s *Server) Render(text string) { s.send(Effect{Kind: FxRender, Text: text}) }

// Insert implements editor.View.
func (s *Server) Insert(text string) { s.send(Effect{Kind: FxInsert, Text: text}) }

// Clear implements editor.View.
func (s *Server) Clear() { s.send(Effect{Kind: FxClear}) }

// Notice implements editor.View.
func (s *Server) Notice(msg string) { s.send(Effect{Kind: FxNotice, Text: msg}) }

// send encodes one message. Writes from the request loop and from prediction
// goroutines are serialized here.
func (s *Server) send(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.encoder.Encode(v); err != nil {
		s.logger.Errorf("Writing message: %v", err)
	}
}
