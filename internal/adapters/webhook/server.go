package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"go.uber.org/zap"
)

// Processor is the reply flow behind the webhook
type Processor interface {
	Process(ctx context.Context, msg *core.InboundMessage) (*core.Outcome, error)
}

// WebhookServer receives inbound email webhooks over HTTP
type WebhookServer struct {
	service           Processor
	parser            *inbound.Parser
	logger            *zap.Logger
	listenAddr        string
	readHeaderTimeout time.Duration

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewWebhookServer creates a new webhook server
func NewWebhookServer(
	service Processor,
	parser *inbound.Parser,
	logger *zap.Logger,
	listenAddr string,
	readHeaderTimeout time.Duration,
) *WebhookServer {
	return &WebhookServer{
		service:           service,
		parser:            parser,
		logger:            logger,
		listenAddr:        listenAddr,
		readHeaderTimeout: readHeaderTimeout,
	}
}

// Handler returns the HTTP routes
func (s *WebhookServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /inbound", s.handleInbound)
	mux.HandleFunc("GET /ping", s.handlePing)
	return mux
}

// Start starts listening in the background
func (s *WebhookServer) Start() error {
	l, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("Starting webhook server", zap.String("listen_addr", l.Addr().String()))

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Webhook server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (s *WebhookServer) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once started
func (s *WebhookServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// ProcessEmail runs one inbound email through the reply flow
func (s *WebhookServer) ProcessEmail(ctx context.Context, msg *core.InboundMessage) (*core.Outcome, error) {
	return s.service.Process(ctx, msg)
}

func (s *WebhookServer) handleInbound(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Panic while processing inbound email", zap.Any("panic", rec), zap.Stack("stack"))
			writeText(w, http.StatusBadRequest, fmt.Sprintf("Error processing inbound email: %v", rec))
		}
	}()

	msg, err := s.parser.FromRequest(w, r)
	if err != nil {
		s.logger.Warn("Rejected inbound payload", zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, inbound.ErrPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeText(w, status, fmt.Sprintf("Error processing inbound email: %v", err))
		return
	}

	outcome, perr := s.process(r.Context(), msg)
	if perr != nil {
		s.logger.Info("Inbound email not processed",
			zap.String("kind", perr.Kind.String()),
			zap.Int("status_code", perr.StatusCode()),
			zap.Error(perr))
		writeText(w, perr.StatusCode(), perr.Error())
		return
	}

	s.logger.Debug("Inbound email handled",
		zap.String("outcome", outcome.Status.String()),
		zap.String("message", outcome.Message))
	writeText(w, http.StatusOK, "OK")
}

// process runs the reply flow; errors and panics from it always carry a kind
func (s *WebhookServer) process(ctx context.Context, msg *core.InboundMessage) (outcome *core.Outcome, perr *core.ProcessingError) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Panic while processing email", zap.Any("panic", rec), zap.Stack("stack"))
			outcome = nil
			perr = core.NewError(core.KindUnexpected, "Error processing email", fmt.Errorf("%v", rec))
		}
	}()

	outcome, err := s.ProcessEmail(ctx, msg)
	if err == nil {
		return outcome, nil
	}
	if !errors.As(err, &perr) {
		perr = core.NewError(core.KindUnexpected, "Error processing email", err)
	}
	return nil, perr
}

func (s *WebhookServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
