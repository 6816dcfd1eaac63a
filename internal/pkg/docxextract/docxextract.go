// Package docxextract pulls plain text out of .docx files. A .docx is a zip
// archive whose body lives in word/document.xml; text sits in <w:t> runs
// grouped into <w:p> paragraphs.
package docxextract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var ErrNoDocumentXML = errors.New("docx missing word/document.xml")

// ExtractText extracts paragraph text from a docx archive. Paragraphs are
// separated by blank lines in the output.
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", ErrNoDocumentXML
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var out strings.Builder
	var para strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "cr":
				para.WriteString("\n")
			case "tab":
				para.WriteString("\t")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				if text != "" {
					if out.Len() > 0 {
						out.WriteString("\n\n")
					}
					out.WriteString(text)
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	if text := strings.TrimSpace(para.String()); text != "" {
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(text)
	}
	return out.String(), nil
}
