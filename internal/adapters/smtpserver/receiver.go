package smtpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"go.uber.org/zap"
)

// Processor is the reply flow behind the receiver
type Processor interface {
	Process(ctx context.Context, msg *core.InboundMessage) (*core.Outcome, error)
}

// SMTPReceiver accepts inbound email over SMTP, for deployments where an
// MTA relays mail to the agent instead of a webhook provider
type SMTPReceiver struct {
	service         Processor
	parser          *inbound.Parser
	logger          *zap.Logger
	listenAddr      string
	domain          string
	maxMessageBytes int64
	processTimeout  time.Duration

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
}

// NewSMTPReceiver creates a new SMTP receiver
func NewSMTPReceiver(
	service Processor,
	parser *inbound.Parser,
	logger *zap.Logger,
	listenAddr string,
	domain string,
	maxMessageBytes int64,
) *SMTPReceiver {
	if domain == "" {
		domain = "localhost"
	}
	return &SMTPReceiver{
		service:         service,
		parser:          parser,
		logger:          logger,
		listenAddr:      listenAddr,
		domain:          domain,
		maxMessageBytes: maxMessageBytes,
		processTimeout:  5 * time.Minute,
	}
}

// Start starts the SMTP listener in the background
func (r *SMTPReceiver) Start() error {
	l, err := net.Listen("tcp", r.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.listenAddr, err)
	}

	server := smtp.NewServer(&backend{receiver: r})
	server.Domain = r.domain
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = r.maxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true

	r.mu.Lock()
	r.server = server
	r.listener = l
	r.mu.Unlock()

	r.logger.Info("Starting SMTP receiver", zap.String("listen_addr", l.Addr().String()))

	go func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			r.logger.Error("SMTP receiver error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP listener
func (r *SMTPReceiver) Stop() error {
	r.mu.Lock()
	server := r.server
	r.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Close()
}

// Addr returns the bound address once started
func (r *SMTPReceiver) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return r.listenAddr
	}
	return r.listener.Addr().String()
}

// ProcessEmail runs one inbound email through the reply flow
func (r *SMTPReceiver) ProcessEmail(ctx context.Context, msg *core.InboundMessage) (*core.Outcome, error) {
	return r.service.Process(ctx, msg)
}

// handleMessage parses a DATA payload and maps processing failures to SMTP replies
func (r *SMTPReceiver) handleMessage(sender string, recipients []string, raw []byte) error {
	msg, err := r.parser.FromRFC5322(bytes.NewReader(raw))
	if err != nil {
		r.logger.Warn("Rejected unparseable message", zap.String("sender", sender), zap.Error(err))
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: "Error processing inbound email"}
	}

	// The envelope fills in what the headers leave out
	if msg.From == "" {
		msg.From = sender
	}
	if msg.To == "" && msg.Cc == "" {
		msg.To = strings.Join(recipients, ", ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.processTimeout)
	defer cancel()

	outcome, err := r.ProcessEmail(ctx, msg)
	if err != nil {
		return r.toSMTPError(err)
	}

	r.logger.Info("Processed email",
		zap.String("from", msg.From),
		zap.Strings("recipients", recipients),
		zap.String("outcome", outcome.Status.String()))
	return nil
}

func (r *SMTPReceiver) toSMTPError(err error) error {
	var perr *core.ProcessingError
	if !errors.As(err, &perr) {
		r.logger.Error("Error processing inbound email", zap.Error(err))
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 3, 0}, Message: "Error processing inbound email"}
	}

	r.logger.Info("Inbound email not processed",
		zap.String("kind", perr.Kind.String()),
		zap.Error(err))

	switch perr.Kind {
	case core.KindNotWhitelisted:
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: perr.Message}
	case core.KindMalformed, core.KindNoRecipients:
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: perr.Message}
	default:
		// Permanent so the MTA never redelivers and re-runs the completion
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 3, 0}, Message: perr.Message}
	}
}

// backend implements the go-smtp Backend interface
type backend struct {
	receiver *SMTPReceiver
}

// NewSession creates a new SMTP session
func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{receiver: b.receiver}, nil
}

// session implements the go-smtp Session interface
type session struct {
	receiver   *SMTPReceiver
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *session) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and runs it through the reply flow
func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.receiver.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.receiver.handleMessage(s.sender, s.recipients, raw)
}

// Logout handles SMTP logout
func (s *session) Logout() error {
	return nil
}
