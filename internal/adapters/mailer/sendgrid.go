package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// DefaultSendGridURL is the public SendGrid API endpoint
const DefaultSendGridURL = "https://api.sendgrid.com"

const sendGridEndpoint = "/v3/mail/send"

// SendGridMailer sends replies through the SendGrid v3 mail send API
type SendGridMailer struct {
	apiKey  string
	baseURL string
	client  *rest.Client
	logger  *zap.Logger
}

// NewSendGridMailer creates a new SendGrid mailer. An empty baseURL uses
// the public endpoint and a nil client uses a 30 second timeout.
func NewSendGridMailer(apiKey, baseURL string, httpClient *http.Client, logger *zap.Logger) *SendGridMailer {
	if baseURL == "" {
		baseURL = DefaultSendGridURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SendGridMailer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &rest.Client{HTTPClient: httpClient},
		logger:  logger,
	}
}

// Name returns the mailer name
func (m *SendGridMailer) Name() string {
	return "sendgrid"
}

// Send posts the reply to SendGrid
func (m *SendGridMailer) Send(ctx context.Context, env *core.ReplyEnvelope) (*core.DispatchResult, error) {
	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.baseURL)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(buildSendGridMail(env))

	resp, err := m.client.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("SendGrid request failed: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		m.logger.Error("SendGrid rejected message",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", resp.Body))
		return nil, fmt.Errorf("SendGrid returned status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}

	m.logger.Debug("SendGrid accepted message", zap.Int("status_code", resp.StatusCode))
	return &core.DispatchResult{
		StatusCode: resp.StatusCode,
		MessageID:  firstHeader(resp.Headers, "X-Message-Id"),
	}, nil
}

func buildSendGridMail(env *core.ReplyEnvelope) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(env.FromName, env.From))
	m.Subject = env.Subject
	if env.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail(env.FromName, env.ReplyTo))
	}

	p := mail.NewPersonalization()
	for _, a := range env.To {
		p.AddTos(mail.NewEmail("", a))
	}
	for _, a := range env.Cc {
		p.AddCCs(mail.NewEmail("", a))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", env.Body))

	for k, v := range env.Headers {
		m.SetHeader(k, v)
	}
	if env.InReplyTo != "" {
		m.SetHeader("In-Reply-To", env.InReplyTo)
	}
	if env.References != "" {
		m.SetHeader("References", env.References)
	}
	return m
}

func firstHeader(headers map[string][]string, name string) string {
	if v := http.Header(headers).Get(name); v != "" {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
