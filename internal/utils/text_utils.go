package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"
)

// HTML conversion modes
const (
	HTMLModeStrip    = "strip"
	HTMLModeMarkdown = "markdown"
)

var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger   *zap.Logger
	htmlMode string
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger, htmlMode string) *TextProcessor {
	if htmlMode == "" {
		htmlMode = HTMLModeStrip
	}
	return &TextProcessor{
		logger:   logger,
		htmlMode: htmlMode,
	}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Remove bytes until we have valid UTF-8
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}

// HTMLToText turns an HTML body into plain text. The strip mode removes
// tags with a simple non-nested match; markdown mode converts the markup
// and falls back to stripping if the conversion fails.
func (tp *TextProcessor) HTMLToText(html string) string {
	if tp.htmlMode == HTMLModeMarkdown {
		md, err := htmltomarkdown.ConvertString(html)
		if err == nil {
			return strings.TrimSpace(md)
		}
		tp.logger.Warn("Failed to convert HTML to markdown, stripping tags", zap.Error(err))
	}
	return StripTags(html)
}

// StripTags removes anything that looks like a tag and trims the result
func StripTags(html string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(html, ""))
}
