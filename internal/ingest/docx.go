package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
)

// ingestDOCX reads word/document.xml out of the OOXML zip container and
// walks its runs: paragraphs end lines, table cells become tabs.
func ingestDOCX(data []byte, opts Options) doctext.Document {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return newDocument(KindDOCX, "", data, opts,
			[]string{"not a valid DOCX container: " + err.Error()})
	}

	var docFile *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return newDocument(KindDOCX, "", data, opts,
			[]string{"DOCX container has no word/document.xml"})
	}

	rc, err := docFile.Open()
	if err != nil {
		return newDocument(KindDOCX, "", data, opts,
			[]string{"DOCX document.xml unreadable: " + err.Error()})
	}
	defer rc.Close()

	text := strings.TrimRight(wordXMLText(rc), "\n")
	return newDocument(KindDOCX, text, data, opts, nil)
}

// ingestDOC handles legacy binary Word files. There is no suitable parser
// available, so degrade to a placeholder with a specific warning rather
// than failing ingestion.
func ingestDOC(data []byte, opts Options) doctext.Document {
	return newDocument(KindDOC, "", data, opts,
		[]string{"legacy .doc is not supported; convert to DOCX or plain text"})
}

// wordXMLText extracts document text from WordprocessingML: w:t and
// w:instrText carry text, w:tab/w:br/w:cr are whitespace, paragraph and
// table-row ends become newlines, table-cell ends become tabs.
func wordXMLText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf []byte
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf = append(buf, text...)
				}
			case "tab":
				buf = append(buf, '\t')
			case "br", "cr":
				buf = append(buf, '\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if n := len(buf); n == 0 || buf[n-1] != '\n' {
					buf = append(buf, '\n')
				}
			case "tc":
				// The cell's last paragraph just closed a line; the cell
				// boundary becomes a tab instead.
				if n := len(buf); n > 0 && buf[n-1] == '\n' {
					buf = buf[:n-1]
				}
				buf = append(buf, '\t')
			}
		}
	}
	return string(buf)
}
