package docxextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, name, content string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func wrapDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
}

func TestExtractTextParagraphs(t *testing.T) {
	r := buildArchive(t, "word/document.xml", wrapDocument(
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>`))

	text, err := ExtractText(r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestExtractTextBreaksAndTabs(t *testing.T) {
	r := buildArchive(t, "word/document.xml", wrapDocument(
		`<w:p><w:r><w:t>above</w:t><w:br/><w:t>below</w:t><w:tab/><w:t>after</w:t></w:r></w:p>`))

	text, err := ExtractText(r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, "above\nbelow\tafter", text)
}

func TestExtractTextSkipsNonTextNodes(t *testing.T) {
	r := buildArchive(t, "word/document.xml", wrapDocument(
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>kept</w:t></w:r></w:p>`))

	text, err := ExtractText(r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, "kept", text)
}

func TestExtractTextEmptyParagraphsDropped(t *testing.T) {
	r := buildArchive(t, "word/document.xml", wrapDocument(
		`<w:p></w:p><w:p><w:r><w:t>only</w:t></w:r></w:p><w:p></w:p>`))

	text, err := ExtractText(r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, "only", text)
}

func TestExtractTextMissingDocumentXML(t *testing.T) {
	r := buildArchive(t, "word/styles.xml", "<w:styles/>")
	_, err := ExtractText(r, r.Size())
	assert.ErrorIs(t, err, ErrNoDocumentXML)
}

func TestExtractTextNotAZip(t *testing.T) {
	r := bytes.NewReader([]byte("plainly not a zip archive"))
	_, err := ExtractText(r, r.Size())
	assert.Error(t, err)
}
