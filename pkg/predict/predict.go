// Package predict turns a raw model backend into a completion provider.
//
// A Client answers one request with whatever the model emitted. Service wraps a
// Client with context classification and the processing pipeline, which is what
// the lifecycle controller talks to through the Provider interface.
package predict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/pkg/classify"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/pipeline"
)

// ErrBackend wraps every failure reported by a Client.
var ErrBackend = errors.New("completion backend failed")

// Provider produces a finished suggestion for the text around the cursor.
// An empty string with a nil error means there is nothing to suggest.
type Provider interface {
	FetchPredictions(ctx context.Context, prefix, suffix string) (string, error)
}

// Reconfigurable is implemented by providers that follow settings changes.
type Reconfigurable interface {
	Reconfigure(settings config.Settings)
}

// Request is what a Client receives after pre-processing.
type Request struct {
	Prefix  string
	Suffix  string
	Context classify.Context
}

// Client is a raw model backend.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Service is the Provider used in production.
type Service struct {
	client Client
	logger *log.Logger

	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
	timeout  time.Duration
}

// NewService wraps client with the pipeline described by settings.
func NewService(client Client, settings config.Settings) *Service {
	s := &Service{
		client: client,
		logger: logger.New("predict"),
	}
	s.Reconfigure(settings)
	return s
}

// Reconfigure rebuilds the pipeline and request timeout.
func (s *Service) Reconfigure(settings config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = pipeline.New(settings.Pipeline)
	s.timeout = settings.RequestTimeout
}

// FetchPredictions classifies the cursor, pre-processes, calls the client and
// post-processes its answer against the unmodified document text.
func (s *Service) FetchPredictions(ctx context.Context, prefix, suffix string) (string, error) {
	s.mu.RLock()
	p, timeout := s.pipeline, s.timeout
	s.mu.RUnlock()

	cctx := classify.Classify(prefix, suffix)
	req := Request{Context: cctx}
	var ok bool
	req.Prefix, req.Suffix, ok = p.PreProcess(prefix, suffix, cctx)
	if !ok {
		s.logger.Debugf("Cursor is inside stripped content, skipping request")
		return "", nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}
	completion := p.PostProcess(prefix, suffix, raw, cctx)
	s.logger.Debugf("Completed in %v (ctx=%s raw=%q final=%q)", time.Since(start), cctx, raw, completion)
	return completion, nil
}
