package view

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SpanKind is the emphasis applied to a run of answer text
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanItalic
	SpanCode
)

// Span is a run of text with a single emphasis
type Span struct {
	Kind SpanKind
	Text string
}

// Line is one line of a paragraph
type Line []Span

// Paragraph is a block of lines separated from its neighbours by a blank line
type Paragraph struct {
	Lines []Line
}

// Document is a parsed answer
type Document struct {
	Paragraphs []Paragraph
}

var (
	spanPattern      = regexp.MustCompile(`\*\*(.+?)\*\*|\*(.+?)\*|` + "`(.+?)`")
	paragraphPattern = regexp.MustCompile(`\n[ \t]*\n`)
)

// ParseMarkup applies the answer markup: **bold**, *italic*, `code`,
// blank-line separated paragraphs and single newlines as line breaks.
func ParseMarkup(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var doc Document
	for _, block := range paragraphPattern.Split(text, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		var p Paragraph
		for _, raw := range strings.Split(block, "\n") {
			p.Lines = append(p.Lines, parseLine(raw))
		}
		doc.Paragraphs = append(doc.Paragraphs, p)
	}
	return doc
}

func parseLine(raw string) Line {
	var line Line
	last := 0
	for _, m := range spanPattern.FindAllStringSubmatchIndex(raw, -1) {
		if m[0] > last {
			line = append(line, Span{Kind: SpanText, Text: raw[last:m[0]]})
		}
		switch {
		case m[2] >= 0:
			line = append(line, Span{Kind: SpanBold, Text: raw[m[2]:m[3]]})
		case m[4] >= 0:
			line = append(line, Span{Kind: SpanItalic, Text: raw[m[4]:m[5]]})
		default:
			line = append(line, Span{Kind: SpanCode, Text: raw[m[6]:m[7]]})
		}
		last = m[1]
	}
	if last < len(raw) {
		line = append(line, Span{Kind: SpanText, Text: raw[last:]})
	}
	return line
}

// PlainText flattens a document back to text without markup
func (d Document) PlainText() string {
	var b strings.Builder
	for i, p := range d.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for j, l := range p.Lines {
			if j > 0 {
				b.WriteByte('\n')
			}
			for _, s := range l {
				b.WriteString(s.Text)
			}
		}
	}
	return b.String()
}

// RenderHTML renders the document as an HTML fragment of <p> elements.
// Text is escaped by the renderer.
func RenderHTML(doc Document) (string, error) {
	var buf bytes.Buffer
	for _, p := range doc.Paragraphs {
		node := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		for i, l := range p.Lines {
			if i > 0 {
				node.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
			}
			for _, s := range l {
				node.AppendChild(spanNode(s))
			}
		}
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func spanNode(s Span) *html.Node {
	text := &html.Node{Type: html.TextNode, Data: s.Text}

	var el *html.Node
	switch s.Kind {
	case SpanBold:
		el = &html.Node{Type: html.ElementNode, Data: "strong", DataAtom: atom.Strong}
	case SpanItalic:
		el = &html.Node{Type: html.ElementNode, Data: "em", DataAtom: atom.Em}
	case SpanCode:
		el = &html.Node{Type: html.ElementNode, Data: "code", DataAtom: atom.Code}
	default:
		return text
	}
	el.AppendChild(text)
	return el
}
