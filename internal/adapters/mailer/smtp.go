package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap"
)

// TLS modes for the SMTP relay
const (
	TLSNone     = "none"
	TLSStartTLS = "starttls"
	TLSImplicit = "tls"
)

// SMTPConfig describes the relay the SMTP mailer submits to
type SMTPConfig struct {
	Address  string
	Port     int
	Username string
	Password string
	TLS      string
}

// SMTPMailer submits replies to an SMTP relay
type SMTPMailer struct {
	cfg         SMTPConfig
	dialTimeout time.Duration
	ioTimeout   time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if cfg.TLS == "" {
		cfg.TLS = TLSStartTLS
	}
	return &SMTPMailer{
		cfg:         cfg,
		dialTimeout: 10 * time.Second,
		ioTimeout:   30 * time.Second,
		now:         time.Now,
		logger:      logger,
	}
}

// Name returns the mailer name
func (m *SMTPMailer) Name() string {
	return "smtp"
}

// Send submits the reply. Rejected recipients are logged and skipped as
// long as at least one is accepted.
func (m *SMTPMailer) Send(ctx context.Context, env *core.ReplyEnvelope) (*core.DispatchResult, error) {
	raw, messageID, err := BuildMIME(env, m.now())
	if err != nil {
		return nil, err
	}

	c, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if m.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return nil, fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(env.From, nil); err != nil {
		return nil, fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range Recipients(env) {
		if err := c.Rcpt(recipient, nil); err != nil {
			m.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return nil, fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return nil, fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(raw); err != nil {
		wc.Close()
		return nil, fmt.Errorf("failed to write message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("failed to complete DATA command: %w", err)
	}

	if err := c.Quit(); err != nil {
		m.logger.Warn("QUIT failed", zap.Error(err))
	}

	m.logger.Debug("SMTP relay accepted message",
		zap.String("relay", m.cfg.Address),
		zap.Int("size", len(raw)))
	return &core.DispatchResult{StatusCode: 250, MessageID: messageID}, nil
}

func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Address, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(m.ioTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set connection deadline: %w", err)
	}

	tlsConfig := &tls.Config{ServerName: m.cfg.Address}

	switch m.cfg.TLS {
	case TLSStartTLS:
		c, err := smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
		return c, nil
	case TLSImplicit:
		conn = tls.Client(conn, tlsConfig)
	case TLSNone:
	default:
		conn.Close()
		return nil, fmt.Errorf("unsupported SMTP TLS mode: %s", m.cfg.TLS)
	}

	c := smtp.NewClient(conn)
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		c.Close()
		return nil, fmt.Errorf("EHLO failed: %w", err)
	}
	return c, nil
}
