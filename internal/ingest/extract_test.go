package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("Line one.\r\n\r\n\r\n\r\nLine   two."), "txt")
	require.NoError(t, err)
	assert.Equal(t, "Line one.\n\nLine two.", text)
}

func TestExtractMarkdown(t *testing.T) {
	text, err := Extract([]byte("# Title\n\nBody text."), ".MD")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", text)
}

func TestExtractReplacesInvalidUTF8(t *testing.T) {
	text, err := Extract([]byte{'o', 'k', 0xff, 0xfe}, "txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "ok"))
	assert.True(t, strings.Contains(text, "�"))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract([]byte("data"), "xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractFileTooLarge(t *testing.T) {
	_, err := Extract(make([]byte, MaxFileSize+1), "txt")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract([]byte("not a pdf at all"), "pdf")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractDocx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:r><w:t>World</w:t></w:r></w:p>`)
	text, err := Extract(data, "docx")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n\nWorld", text)
}

func TestExtractCorruptDocx(t *testing.T) {
	_, err := Extract([]byte("PK not really a zip"), "docx")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestSupportedFormat(t *testing.T) {
	assert.True(t, SupportedFormat("txt"))
	assert.True(t, SupportedFormat(".PDF"))
	assert.True(t, SupportedFormat("docx"))
	assert.True(t, SupportedFormat("md"))
	assert.False(t, SupportedFormat("exe"))
	assert.False(t, SupportedFormat(""))
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	doc := `<?xml version="1.0"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
