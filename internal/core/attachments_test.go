package core

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsImageAndMediaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		att       Attachment
		wantImage bool
		wantType  string
	}{
		{"jpg extension", Attachment{Filename: "Photo.JPG"}, true, "image/jpeg"},
		{"jpeg extension", Attachment{Filename: "a.jpeg"}, true, "image/jpeg"},
		{"tif extension", Attachment{Filename: "scan.tif"}, true, "image/tif"},
		{"declared type wins", Attachment{Filename: "a.png", ContentType: "image/webp"}, true, "image/webp"},
		{"declared type with params", Attachment{Filename: "blob", ContentType: "image/gif; name=x"}, true, "image/gif"},
		{"no extension no type", Attachment{Filename: "attachment1"}, false, "image/png"},
		{"pdf", Attachment{Filename: "report.pdf", ContentType: "application/pdf"}, false, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImage(tt.att); got != tt.wantImage {
				t.Errorf("IsImage: got %v, want %v", got, tt.wantImage)
			}
			if got := ImageMediaType(tt.att); got != tt.wantType {
				t.Errorf("ImageMediaType: got %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestProcessAttachments(t *testing.T) {
	t.Parallel()

	obs, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(obs)

	parts, notes := ProcessAttachments([]Attachment{
		{Filename: "chart.png", Content: []byte{0x89, 'P', 'N', 'G'}},
		{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		{Filename: "empty.jpg"},
		{Filename: "huge.gif", Content: make([]byte, 64)},
	}, 32, logger)

	if len(parts) != 1 {
		t.Fatalf("image parts: got %d, want 1", len(parts))
	}
	if parts[0].MediaType != "image/png" {
		t.Errorf("MediaType: got %q", parts[0].MediaType)
	}
	if got, want := parts[0].DataURL(), "data:image/png;base64,iVBORw=="; got != want {
		t.Errorf("DataURL: got %q, want %q", got, want)
	}
	if want := "\n[Attached file: report.pdf (not an image)]"; notes != want {
		t.Errorf("notes: got %q, want %q", notes, want)
	}
	if got := logs.FilterMessage("Skipping attachment").Len(); got != 2 {
		t.Errorf("skipped attachments logged: got %d, want 2", got)
	}
}

func TestProcessAttachments_CopiesContent(t *testing.T) {
	t.Parallel()

	src := []byte{1, 2, 3}
	parts, _ := ProcessAttachments([]Attachment{{Filename: "a.png", Content: src}}, 0, zaptest.NewLogger(t))
	src[0] = 9
	if parts[0].Data[0] != 1 {
		t.Error("expected image data to be copied")
	}
}
