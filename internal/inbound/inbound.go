package inbound

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/textproto"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// NoTextContent is the body used when an email has no usable text
const NoTextContent = "No text content provided"

// ErrPayloadTooLarge is returned when a webhook body exceeds the upload limit
var ErrPayloadTooLarge = errors.New("request body too large")

// Parser turns webhook payloads and raw messages into InboundMessages
type Parser struct {
	textProcessor  *utils.TextProcessor
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewParser creates a new inbound parser
func NewParser(textProcessor *utils.TextProcessor, maxUploadBytes int64, logger *zap.Logger) *Parser {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Parser{
		textProcessor:  textProcessor,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// FromRequest parses a multipart or urlencoded webhook POST. The body is
// capped at the upload limit; w may be nil outside an HTTP handler.
func (p *Parser) FromRequest(w http.ResponseWriter, r *http.Request) (*core.InboundMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, p.maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
		if err := r.ParseMultipartForm(p.maxUploadBytes); err != nil {
			return nil, p.parseError("failed to parse multipart form", r, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, p.parseError("failed to parse form", r, err)
	}

	var files map[string][]*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File
	}
	return p.FromForm(r.PostForm, files), nil
}

// parseError reports ErrPayloadTooLarge when the capped body was exhausted.
// The multipart reader does not always keep the limit error in its chain, but
// the capped reader keeps returning it once the limit is hit.
func (p *Parser) parseError(msg string, r *http.Request, err error) error {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		_, rerr := r.Body.Read(make([]byte, 1))
		if !errors.As(rerr, &maxErr) {
			return fmt.Errorf("%s: %w", msg, err)
		}
	}
	p.logger.Warn("Inbound payload exceeds upload limit", zap.Int64("limit", maxErr.Limit))
	return fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, maxErr.Limit)
}

// FromForm builds the message from form values and file parts. Files that
// cannot be read are logged and skipped.
func (p *Parser) FromForm(values url.Values, files map[string][]*multipart.FileHeader) *core.InboundMessage {
	field := p.fieldDecoder(values)

	msg := &core.InboundMessage{
		From:       field("from"),
		To:         field("to"),
		Cc:         field("cc"),
		Subject:    field("subject"),
		MessageID:  firstNonEmpty(values.Get("Message-ID"), values.Get("message-id")),
		References: values.Get("References"),
	}

	if msg.MessageID == "" || msg.References == "" {
		if raw := values.Get("headers"); raw != "" {
			h := parseHeaderBlock(raw, p.logger)
			if msg.MessageID == "" {
				msg.MessageID = strings.TrimSpace(h.Get("Message-Id"))
			}
			if msg.References == "" {
				msg.References = strings.TrimSpace(h.Get("References"))
			}
		}
	}

	msg.Text = p.resolveBody(field("text"), field("html"))
	msg.Attachments = p.readFiles(files)

	p.logger.Debug("Parsed inbound email",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.String("message_id", msg.MessageID),
		zap.Int("attachments", len(msg.Attachments)))

	return msg
}

// resolveBody prefers plain text, then sanitized HTML. HTML that strips to
// nothing yields an empty body.
func (p *Parser) resolveBody(text, html string) string {
	if text != "" {
		if !utf8.ValidString(text) {
			return NoTextContent
		}
		return strings.TrimSpace(text)
	}
	if html != "" {
		return strings.TrimSpace(p.textProcessor.HTMLToText(html))
	}
	return NoTextContent
}

func (p *Parser) readFiles(files map[string][]*multipart.FileHeader) []core.Attachment {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []core.Attachment
	for _, name := range names {
		for _, fh := range files[name] {
			att, err := readFile(name, fh)
			if err != nil {
				p.logger.Warn("Error processing attachment",
					zap.String("field", name),
					zap.String("filename", fh.Filename),
					zap.Error(err))
				continue
			}
			out = append(out, att)
		}
	}
	return out
}

func readFile(field string, fh *multipart.FileHeader) (core.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return core.Attachment{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return core.Attachment{}, err
	}

	filename := fh.Filename
	if filename == "" {
		filename = field
	}
	return core.Attachment{
		Filename:    filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     data,
	}, nil
}

// fieldDecoder returns a lookup decoding each field from the charset named in
// the SendGrid "charsets" field
func (p *Parser) fieldDecoder(values url.Values) func(string) string {
	charsets := map[string]string{}
	if raw := values.Get("charsets"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &charsets); err != nil {
			p.logger.Warn("Ignoring invalid charsets field", zap.Error(err))
		}
	}

	return func(name string) string {
		value := values.Get(name)
		cs := charsets[name]
		if value == "" || cs == "" {
			return value
		}
		decoded, err := decodeCharset(cs, value)
		if err != nil {
			p.logger.Debug("Could not decode field charset",
				zap.String("field", name),
				zap.String("charset", cs),
				zap.Error(err))
			return value
		}
		return decoded
	}
}

func decodeCharset(charset, value string) (string, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "us-ascii":
		return value, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", err
	}
	return enc.NewDecoder().String(value)
}

func parseHeaderBlock(raw string, logger *zap.Logger) textproto.Header {
	block := strings.TrimRight(raw, "\r\n") + "\r\n\r\n"
	h, err := textproto.ReadHeader(bufio.NewReader(strings.NewReader(block)))
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Debug("Could not parse headers field", zap.Error(err))
	}
	return h
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
