package ingest

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/docsift/docsift/pkg/doctext"
)

// ingestHTML flattens HTML into a Markdown-like text: headings keep a '#'
// prefix, emphasis is stripped to plain text, links and images keep their
// targets, lists become bullets, and table rows become pipe-delimited
// lines. Entities are decoded by the parser.
func ingestHTML(data []byte, opts Options) doctext.Document {
	text, warnings := htmlToMarkdown(string(data))
	return newDocument(KindHTML, text, data, opts, warnings)
}

// htmlToMarkdown converts an HTML string, degrading to the raw input with
// a warning when parsing fails outright.
func htmlToMarkdown(raw string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, []string{"html parse failed; keeping raw content"}
	}
	doc.Find("script, style, noscript").Remove()

	var b bytes.Buffer
	for _, n := range doc.Selection.Nodes {
		renderMarkdown(&b, n)
	}
	return collapseWhitespace(b.String()), nil
}

func renderMarkdown(b *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			b.WriteString("\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(nodeText(n)) + "\n")
			return
		case "a":
			label := strings.TrimSpace(nodeText(n))
			if href, ok := attr(n, "href"); ok && label != "" {
				b.WriteString("[" + label + "](" + href + ")")
			} else {
				b.WriteString(label)
			}
			return
		case "img":
			alt, _ := attr(n, "alt")
			if src, ok := attr(n, "src"); ok {
				b.WriteString("![" + alt + "](" + src + ")")
			}
			return
		case "li":
			b.WriteString("\n- ")
			renderChildren(b, n)
			b.WriteString("\n")
			return
		case "ul", "ol":
			b.WriteString("\n")
			renderChildren(b, n)
			b.WriteString("\n")
			return
		case "tr":
			cells := rowCells(n)
			if len(cells) > 0 {
				b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
			}
			return
		case "br", "hr":
			b.WriteString("\n")
			return
		case "p", "div", "section", "article", "header", "footer", "blockquote", "pre":
			b.WriteString("\n")
			renderChildren(b, n)
			b.WriteString("\n")
			return
		}
	}
	renderChildren(b, n)
}

func renderChildren(b *bytes.Buffer, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderMarkdown(b, c)
	}
}

// rowCells extracts trimmed th/td cell text from a table row.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			if cell := strings.TrimSpace(nodeText(c)); cell != "" {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// nodeText concatenates the descendant text of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

var (
	spaceRunRx   = regexp.MustCompile(`[ \t]+`)
	blankRunRx   = regexp.MustCompile(`\n{3,}`)
	lineEdgeRx   = regexp.MustCompile(`(?m)[ \t]+$|^[ \t]+`)
	nbspReplacer = strings.NewReplacer(" ", " ")
)

// collapseWhitespace squeezes tab/space runs to a single space and runs of
// blank lines to at most one blank line. Pipe rows from tables keep their
// internal spacing because only horizontal runs are touched.
func collapseWhitespace(s string) string {
	s = nbspReplacer.Replace(s)
	s = spaceRunRx.ReplaceAllString(s, " ")
	s = lineEdgeRx.ReplaceAllString(s, "")
	s = blankRunRx.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
