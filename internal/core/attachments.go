package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImage classifies an attachment by file extension or declared content type
func IsImage(a Attachment) bool {
	return imageExtensions[extension(a.Filename)] || strings.HasPrefix(a.ContentType, "image/")
}

// ImageMediaType picks the media type for an image attachment. A declared
// image/* type wins over the file extension; png is the fallback.
func ImageMediaType(a Attachment) string {
	if strings.HasPrefix(a.ContentType, "image/") {
		_, subtype, _ := strings.Cut(a.ContentType, "/")
		subtype, _, _ = strings.Cut(subtype, ";")
		return "image/" + strings.TrimSpace(subtype)
	}

	switch ext := extension(a.Filename); ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif", ".webp", ".bmp", ".tiff", ".tif", ".png":
		return "image/" + ext[1:]
	default:
		return "image/png"
	}
}

// AttachmentNote is the line appended to the body for a non-image attachment
func AttachmentNote(filename string) string {
	return fmt.Sprintf("\n[Attached file: %s (not an image)]", filename)
}

// ProcessAttachments turns attachments into image parts and a text note for
// everything else. A failing attachment is logged and skipped.
func ProcessAttachments(attachments []Attachment, maxImageBytes int, logger *zap.Logger) ([]ContentPart, string) {
	var parts []ContentPart
	var notes strings.Builder

	for _, a := range attachments {
		logger.Debug("Processing attachment",
			zap.String("filename", a.Filename),
			zap.String("content_type", a.ContentType),
			zap.Int("size", len(a.Content)))

		if !IsImage(a) {
			notes.WriteString(AttachmentNote(a.Filename))
			continue
		}

		part, err := imagePart(a, maxImageBytes)
		if err != nil {
			logger.Warn("Skipping attachment", zap.String("filename", a.Filename), zap.Error(err))
			continue
		}
		parts = append(parts, part)
	}

	return parts, notes.String()
}

func imagePart(a Attachment, maxImageBytes int) (ContentPart, error) {
	if len(a.Content) == 0 {
		return ContentPart{}, fmt.Errorf("image attachment is empty")
	}
	if maxImageBytes > 0 && len(a.Content) > maxImageBytes {
		return ContentPart{}, fmt.Errorf("image attachment is %d bytes, limit is %d", len(a.Content), maxImageBytes)
	}

	data := make([]byte, len(a.Content))
	copy(data, a.Content)

	return ContentPart{
		Type:      PartImage,
		MediaType: ImageMediaType(a),
		Data:      data,
	}, nil
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
