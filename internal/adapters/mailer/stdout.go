package mailer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/llm-mail-agent/internal/core"
)

// StdoutMailer prints replies instead of sending them
type StdoutMailer struct {
	writer io.Writer
}

// NewStdoutMailer creates a mailer writing to os.Stdout
func NewStdoutMailer() *StdoutMailer {
	return &StdoutMailer{writer: os.Stdout}
}

// NewStdoutMailerWithWriter creates a mailer writing to w
func NewStdoutMailerWithWriter(w io.Writer) *StdoutMailer {
	return &StdoutMailer{writer: w}
}

// Name returns the mailer name
func (m *StdoutMailer) Name() string {
	return "stdout"
}

// Send prints the reply in a readable format
func (m *StdoutMailer) Send(_ context.Context, env *core.ReplyEnvelope) (*core.DispatchResult, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "From: %s <%s>\n", env.FromName, env.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(env.To, ", "))
	if len(env.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(env.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", env.Subject)
	if env.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\n", env.InReplyTo)
	}
	if env.References != "" {
		fmt.Fprintf(&b, "References: %s\n", env.References)
	}
	b.WriteString("Body:\n")
	b.WriteString(env.Body + "\n")
	b.WriteString("========================================\n")

	if _, err := io.WriteString(m.writer, b.String()); err != nil {
		return nil, fmt.Errorf("failed to write reply: %w", err)
	}
	return &core.DispatchResult{StatusCode: 200}, nil
}
