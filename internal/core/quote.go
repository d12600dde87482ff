package core

import (
	"strings"
	"time"
	"unicode"
)

// QuoteDateLayout formats the attribution line of a quoted reply
const QuoteDateLayout = "Mon, 02 Jan 2006 03:04 PM"

// FormatQuotedReply renders original as a quoted block attributed to from.
// Every line gains exactly one level of quote depth.
func FormatQuotedReply(original, from string, at time.Time) string {
	var b strings.Builder
	b.WriteString("\n\nOn ")
	b.WriteString(at.Format(QuoteDateLayout))
	b.WriteString(" ")
	b.WriteString(from)
	b.WriteString(" wrote:\n")

	lines := strings.Split(strings.TrimSpace(original), "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		depth, content := QuoteDepth(strings.TrimRight(line, "\r"))
		b.WriteString(strings.Repeat(">", depth+1))
		if strings.TrimSpace(content) != "" {
			b.WriteString(" ")
			b.WriteString(content)
		}
	}

	return b.String()
}

// QuoteDepth counts the leading ">" markers of a line, skipping whitespace
// (including non-breaking spaces) after each one, and returns the count with the remaining content.
func QuoteDepth(line string) (int, string) {
	depth := 0
	for strings.HasPrefix(line, ">") {
		depth++
		line = strings.TrimLeftFunc(line[1:], unicode.IsSpace)
	}
	return depth, line
}
