package inbound

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap"
)

// FromRFC5322 parses a raw message. The first text/plain and text/html
// inline parts become the body and attachment parts become attachments.
func (p *Parser) FromRFC5322(r io.Reader) (*core.InboundMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	msg := &core.InboundMessage{
		From:       headerText(h, "From"),
		To:         headerText(h, "To"),
		Cc:         headerText(h, "Cc"),
		Subject:    headerText(h, "Subject"),
		MessageID:  strings.TrimSpace(h.Get("Message-Id")),
		References: strings.TrimSpace(h.Get("References")),
	}

	var text, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				p.logger.Debug("Unknown charset in message part", zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := ph.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read message body: %w", err)
			}
			switch {
			case ct == "text/html" && html == "":
				html = string(body)
			case (ct == "text/plain" || ct == "") && text == "":
				text = string(body)
			}
		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			ct, _, _ := ph.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				p.logger.Warn("Error processing attachment",
					zap.String("filename", filename),
					zap.Error(err))
				continue
			}
			msg.Attachments = append(msg.Attachments, core.Attachment{
				Filename:    filename,
				ContentType: ct,
				Content:     data,
			})
		}
	}

	msg.Text = p.resolveBody(text, html)
	return msg, nil
}

func headerText(h mail.Header, key string) string {
	if v, err := h.Text(key); err == nil {
		return v
	}
	return h.Get(key)
}
