package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
)

var slidePathRx = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ingestPresentation extracts slide text from a PPTX container, one
// "Slide N:" section per slide joined by blank lines, with a page-map
// entry per slide. ODP and other formats without a parser degrade to a
// placeholder warning.
func ingestPresentation(data []byte, opts Options) doctext.Document {
	if strings.HasSuffix(strings.ToLower(opts.Filename), ".odp") {
		return newDocument(KindPresentation, "", data, opts,
			[]string{"ODP presentations are not supported; export to PPTX"})
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return newDocument(KindPresentation, "", data, opts,
			[]string{"not a valid PPTX container: " + err.Error()})
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range r.File {
		if m := slidePathRx.FindStringSubmatch(f.Name); m != nil {
			num, _ := strconv.Atoi(m[1])
			slides = append(slides, slideFile{num: num, file: f})
		}
	}
	if len(slides) == 0 {
		return newDocument(KindPresentation, "", data, opts,
			[]string{"PPTX container has no slides"})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var text strings.Builder
	var pageMap []doctext.PageSpan
	var warnings []string
	for i, s := range slides {
		// The slide separator belongs to the following slide's span,
		// keeping the page map contiguous.
		start := text.Len()
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(fmt.Sprintf("Slide %d:\n", s.num))

		rc, err := s.file.Open()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("slide %d unreadable: %v", s.num, err))
		} else {
			text.WriteString(strings.Join(slideTextNodes(rc), "\n"))
			rc.Close()
		}
		pageMap = append(pageMap, doctext.PageSpan{Page: i + 1, Start: start, End: text.Len()})
	}

	doc := newDocument(KindPresentation, text.String(), data, opts, warnings)
	doc.PageMap = pageMap
	doc.Meta.Notes = []string{fmt.Sprintf("slides=%d", len(slides))}
	return doc
}

// slideTextNodes collects the contents of every a:t element in a slide.
func slideTextNodes(r io.Reader) []string {
	dec := xml.NewDecoder(r)
	var out []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if t, ok := tok.(xml.StartElement); ok && t.Name.Local == "t" {
			var text string
			if err := dec.DecodeElement(&text, &t); err == nil && text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}
