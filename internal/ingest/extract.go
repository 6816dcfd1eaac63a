// Package ingest turns uploaded document bytes into ordered retrieval
// passages: format-specific text extraction, cleanup, and boundary-aware
// splitting.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"communibot/internal/pkg/docxextract"
	"communibot/internal/pkg/pdfextract"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtraction        = errors.New("text extraction failed")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
)

// MaxFileSize bounds accepted uploads.
const MaxFileSize = 10 << 20

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe  = regexp.MustCompile(`[ \t]+`)
)

// SupportedFormat reports whether the declared format has an extractor.
func SupportedFormat(format string) bool {
	switch NormalizeFormat(format) {
	case "txt", "md", "pdf", "docx":
		return true
	}
	return false
}

// NormalizeFormat lowercases a declared format/extension and strips a
// leading dot.
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}

// Extract returns cleaned plain text from raw file bytes. It fails with
// ErrUnsupportedFormat for unknown formats, ErrFileTooLarge for oversized
// input, and ErrExtraction (wrapping the underlying cause) for corrupt or
// unreadable files.
func Extract(data []byte, format string) (string, error) {
	if len(data) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	var (
		text string
		err  error
	)
	switch NormalizeFormat(format) {
	case "txt", "md":
		text = string(bytes.ToValidUTF8(data, []byte("�")))
	case "pdf":
		text, err = pdfextract.ExtractText(bytes.NewReader(data))
	case "docx":
		text, err = docxextract.ExtractText(bytes.NewReader(data), int64(len(data)))
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return cleanText(text), nil
}

// cleanText collapses runs of blank lines and horizontal whitespace the way
// extractors tend to leave them.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = spaceRunsRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
