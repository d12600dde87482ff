package core

import (
	"strings"
	"testing"
	"time"
)

var quoteTime = time.Date(2025, time.March, 4, 15, 7, 0, 0, time.UTC)

func TestFormatQuotedReply(t *testing.T) {
	t.Parallel()

	original := "Hello there\n\n> earlier\n>> much earlier\n> > spaced\n"
	got := FormatQuotedReply(original, "Alice <alice@x.com>", quoteTime)
	want := "\n\nOn Tue, 04 Mar 2025 03:07 PM Alice <alice@x.com> wrote:\n" +
		"> Hello there\n" +
		">\n" +
		">> earlier\n" +
		">>> much earlier\n" +
		">>> spaced"

	if got != want {
		t.Errorf("FormatQuotedReply:\ngot  %q\nwant %q", got, want)
	}
}

func TestFormatQuotedReply_CRLF(t *testing.T) {
	t.Parallel()

	got := FormatQuotedReply("one\r\n> two\r\n", "a@b.com", quoteTime)
	if strings.Contains(got, "\r") {
		t.Errorf("expected carriage returns to be dropped, got %q", got)
	}
	if !strings.HasSuffix(got, "> one\n>> two") {
		t.Errorf("unexpected quoting: %q", got)
	}
}

func TestQuoteDepthIncreasesByOne(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"plain", "> one", ">> two", "> > > three", ">>>>"} {
		before, _ := QuoteDepth(line)
		quoted := FormatQuotedReply(line, "a@b.com", quoteTime)
		last := quoted[strings.LastIndex(quoted, "\n")+1:]
		after, _ := QuoteDepth(last)
		if after != before+1 {
			t.Errorf("line %q: depth went from %d to %d", line, before, after)
		}
	}
}

func TestRequotingIsMonotonic(t *testing.T) {
	t.Parallel()

	body := "newest\n> older\n>> oldest"
	prev := depths(body)

	for round := 0; round < 2; round++ {
		quoted := FormatQuotedReply(body, "a@b.com", quoteTime)
		// drop the blank separator and attribution line
		body = strings.SplitN(quoted, "\n", 4)[3]
		cur := depths(body)
		if len(cur) != len(prev) {
			t.Fatalf("round %d: line count changed from %d to %d", round, len(prev), len(cur))
		}
		for i := range cur {
			if cur[i] != prev[i]+1 {
				t.Errorf("round %d line %d: depth %d, want %d", round, i, cur[i], prev[i]+1)
			}
		}
		prev = cur
	}
}

func depths(body string) []int {
	var out []int
	for _, line := range strings.Split(body, "\n") {
		d, _ := QuoteDepth(line)
		out = append(out, d)
	}
	return out
}

func TestQuoteDepth_UnicodeWhitespace(t *testing.T) {
	t.Parallel()

	depth, content := QuoteDepth(">\u00a0>\u2003hello")
	if depth != 2 || content != "hello" {
		t.Errorf("got (%d, %q), want (2, %q)", depth, content, "hello")
	}
}
