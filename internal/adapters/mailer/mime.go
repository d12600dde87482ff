package mailer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/mikey/llm-mail-agent/internal/core"
)

// BuildMIME renders the envelope as an RFC 5322 text/plain message and
// returns it with its generated Message-ID
func BuildMIME(env *core.ReplyEnvelope, now time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: env.FromName, Address: env.From}})
	h.SetAddressList("To", addressList(env.To))
	if len(env.Cc) > 0 {
		h.SetAddressList("Cc", addressList(env.Cc))
	}
	if env.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Name: env.FromName, Address: env.ReplyTo}})
	}
	h.SetSubject(env.Subject)

	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("failed to generate message id: %w", err)
	}

	if env.InReplyTo != "" {
		h.Set("In-Reply-To", env.InReplyTo)
	}
	if env.References != "" {
		h.Set("References", env.References)
	}
	for k, v := range env.Headers {
		h.Set(k, v)
	}

	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, env.Body); err != nil {
		return nil, "", fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish message: %w", err)
	}

	id, _ := h.MessageID()
	return buf.Bytes(), id, nil
}

// Recipients returns every To and Cc address of the envelope
func Recipients(env *core.ReplyEnvelope) []string {
	out := make([]string, 0, len(env.To)+len(env.Cc))
	out = append(out, env.To...)
	return append(out, env.Cc...)
}

func addressList(addrs []string) []*mail.Address {
	out := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, &mail.Address{Address: a})
		}
	}
	return out
}
