package smtpserver

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-agent/internal/adapters/mailer"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap/zaptest"
)

type fakeProcessor struct {
	mu      sync.Mutex
	err     error
	lastMsg *core.InboundMessage
}

func (f *fakeProcessor) Process(_ context.Context, msg *core.InboundMessage) (*core.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMsg = msg
	if f.err != nil {
		return nil, f.err
	}
	return &core.Outcome{Status: core.OutcomeSent}, nil
}

func startReceiver(t *testing.T, p Processor) *SMTPReceiver {
	t.Helper()
	logger := zaptest.NewLogger(t)
	parser := inbound.NewParser(utils.NewTextProcessor(logger, utils.HTMLModeStrip), 0, logger)
	r := NewSMTPReceiver(p, parser, logger, "127.0.0.1:0", "agents.example.com", 1<<20)
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { r.Stop() })
	return r
}

func clientFor(t *testing.T, r *SMTPReceiver) *mailer.SMTPMailer {
	host, port, _ := net.SplitHostPort(r.Addr())
	p, _ := strconv.Atoi(port)
	return mailer.NewSMTPMailer(mailer.SMTPConfig{Address: host, Port: p, TLS: mailer.TLSNone}, zaptest.NewLogger(t))
}

func envelope() *core.ReplyEnvelope {
	return &core.ReplyEnvelope{
		From:       "alice@example.com",
		FromName:   "Alice",
		To:         []string{"claude@agents.example.com"},
		Subject:    "Question",
		Body:       "What time is it?",
		References: "<root@example.com>",
	}
}

func TestSMTPReceiver_Accepts(t *testing.T) {
	p := &fakeProcessor{}
	r := startReceiver(t, p)

	if _, err := clientFor(t, r).Send(context.Background(), envelope()); err != nil {
		t.Fatalf("send: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastMsg == nil {
		t.Fatal("processor not called")
	}
	if !strings.Contains(p.lastMsg.From, "alice@example.com") {
		t.Errorf("from: got %q", p.lastMsg.From)
	}
	if !strings.Contains(p.lastMsg.To, "claude@agents.example.com") {
		t.Errorf("to: got %q", p.lastMsg.To)
	}
	if p.lastMsg.Text != "What time is it?" {
		t.Errorf("text: got %q", p.lastMsg.Text)
	}
	if p.lastMsg.MessageID == "" || p.lastMsg.References != "<root@example.com>" {
		t.Errorf("thread ids: got %q / %q", p.lastMsg.MessageID, p.lastMsg.References)
	}
}

func TestSMTPReceiver_RejectsNotWhitelisted(t *testing.T) {
	p := &fakeProcessor{err: core.NewError(core.KindNotWhitelisted, "Sender email not whitelisted", nil)}
	r := startReceiver(t, p)

	_, err := clientFor(t, r).Send(context.Background(), envelope())
	if err == nil || !strings.Contains(err.Error(), "Sender email not whitelisted") {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestToSMTPError(t *testing.T) {
	r := NewSMTPReceiver(&fakeProcessor{}, nil, zaptest.NewLogger(t), "", "", 0)

	tests := []struct {
		kind     core.ErrorKind
		want     int
		enhanced smtp.EnhancedCode
	}{
		{core.KindNotWhitelisted, 550, smtp.EnhancedCode{5, 7, 1}},
		{core.KindMalformed, 554, smtp.EnhancedCode{5, 6, 0}},
		{core.KindNoRecipients, 554, smtp.EnhancedCode{5, 6, 0}},
		{core.KindAuthConfig, 554, smtp.EnhancedCode{5, 3, 0}},
		{core.KindCompletionFailed, 554, smtp.EnhancedCode{5, 3, 0}},
		{core.KindDispatchFailed, 554, smtp.EnhancedCode{5, 3, 0}},
		{core.KindUnexpected, 554, smtp.EnhancedCode{5, 3, 0}},
	}
	for _, tt := range tests {
		var serr *smtp.SMTPError
		if !errors.As(r.toSMTPError(core.NewError(tt.kind, "x", nil)), &serr) {
			t.Fatalf("%s: expected *smtp.SMTPError", tt.kind)
		}
		if serr.Code != tt.want || serr.EnhancedCode != tt.enhanced {
			t.Errorf("%s: got %d %v, want %d %v", tt.kind, serr.Code, serr.EnhancedCode, tt.want, tt.enhanced)
		}
	}

	var serr *smtp.SMTPError
	if !errors.As(r.toSMTPError(errors.New("boom")), &serr) || serr.Code/100 != 5 {
		t.Errorf("plain error: got %v, want a permanent failure", serr)
	}
}

func TestSMTPReceiver_CompletionFailureIsPermanent(t *testing.T) {
	p := &fakeProcessor{err: core.NewError(core.KindCompletionFailed, "AI API error", errors.New("timeout"))}
	r := startReceiver(t, p)

	_, err := clientFor(t, r).Send(context.Background(), envelope())
	var serr *smtp.SMTPError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *smtp.SMTPError, got %v", err)
	}
	if serr.Temporary() {
		t.Errorf("got temporary code %d, want permanent", serr.Code)
	}
}
