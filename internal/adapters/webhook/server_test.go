package webhook

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap/zaptest"
)

type fakeProcessor struct {
	outcome   *core.Outcome
	err       error
	panicWith any
	callCount int
	lastMsg   *core.InboundMessage
}

func (f *fakeProcessor) Process(_ context.Context, msg *core.InboundMessage) (*core.Outcome, error) {
	f.callCount++
	f.lastMsg = msg
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.outcome, f.err
}

func newTestServer(t *testing.T, p Processor) *WebhookServer {
	logger := zaptest.NewLogger(t)
	parser := inbound.NewParser(utils.NewTextProcessor(logger, utils.HTMLModeStrip), 0, logger)
	return NewWebhookServer(p, parser, logger, "127.0.0.1:0", time.Second)
}

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var sampleForm = url.Values{
	"from":    {"alice@example.com"},
	"to":      {"claude@agents.example.com"},
	"subject": {"Hello"},
	"text":    {"Hi"},
}

func TestHandleInbound(t *testing.T) {
	tests := []struct {
		name       string
		processor  *fakeProcessor
		wantStatus int
		wantBody   string
	}{
		{
			name:       "sent",
			processor:  &fakeProcessor{outcome: &core.Outcome{Status: core.OutcomeSent}},
			wantStatus: http.StatusOK,
			wantBody:   "OK",
		},
		{
			name:       "suppressed",
			processor:  &fakeProcessor{outcome: &core.Outcome{Status: core.OutcomeNoReply}},
			wantStatus: http.StatusOK,
			wantBody:   "OK",
		},
		{
			name:       "not whitelisted",
			processor:  &fakeProcessor{err: core.NewError(core.KindNotWhitelisted, "Sender email not whitelisted", nil)},
			wantStatus: http.StatusForbidden,
			wantBody:   "Sender email not whitelisted",
		},
		{
			name:       "dispatch failure",
			processor:  &fakeProcessor{err: core.NewError(core.KindDispatchFailed, "Failed to send email", errors.New("boom"))},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to send email: boom",
		},
		{
			name:       "unexpected error",
			processor:  &fakeProcessor{err: errors.New("weird")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Error processing email: weird",
		},
		{
			name:       "panic",
			processor:  &fakeProcessor{panicWith: "assignment to entry in nil map"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Error processing email: assignment to entry in nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.processor)
			rec := postForm(t, s.Handler(), sampleForm)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body: got %q, want %q", got, tt.wantBody)
			}
			if tt.processor.callCount != 1 {
				t.Fatalf("Process called %d times, want 1", tt.processor.callCount)
			}
			if tt.processor.lastMsg.From != "alice@example.com" || tt.processor.lastMsg.Text != "Hi" {
				t.Errorf("parsed message: got %+v", tt.processor.lastMsg)
			}
		})
	}
}

func TestHandleInbound_BadPayload(t *testing.T) {
	p := &fakeProcessor{}
	s := newTestServer(t, p)

	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=missing")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Error processing inbound email: ") {
		t.Errorf("body: got %q", rec.Body.String())
	}
	if p.callCount != 0 {
		t.Error("processor should not run for unparseable payloads")
	}
}

func TestHandleInbound_OversizedPayload(t *testing.T) {
	p := &fakeProcessor{}
	logger := zaptest.NewLogger(t)
	parser := inbound.NewParser(utils.NewTextProcessor(logger, utils.HTMLModeStrip), 1024, logger)
	s := NewWebhookServer(p, parser, logger, "127.0.0.1:0", time.Second)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("from", "alice@example.com")
	mw.WriteField("to", "claude@agents.example.com")
	part, _ := mw.CreateFormFile("attachment1", "big.bin")
	part.Write(bytes.Repeat([]byte{'x'}, 4<<20))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/inbound", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Error processing inbound email: ") {
		t.Errorf("body: got %q", rec.Body.String())
	}
	if p.callCount != 0 {
		t.Error("processor should not run for oversized payloads")
	}
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inbound", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /inbound: got %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing: got %d, want 404", rec.Code)
	}
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		s.Stop()
		t.Fatalf("ping: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("ping: got %d %q", resp.StatusCode, body)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
}
