// Package format turns assistant replies into presentational markup.
//
// Replies are parsed as markdown and mapped onto a closed set of node kinds.
// Nothing from the reply is ever passed through as markup: raw HTML, links and
// images degrade to literal text, so renderers only see nodes this package
// produced.
package format

import (
	"html"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Kind int

const (
	KindText Kind = iota
	KindStrong
	KindEmphasis
	KindCode
	KindLineBreak
	KindParagraph
	KindHeading1
	KindHeading2
	KindHeading3
	KindCodeBlock
	KindList
	KindListItem
)

var kindNames = map[Kind]string{
	KindText:      "text",
	KindStrong:    "strong",
	KindEmphasis:  "emphasis",
	KindCode:      "code",
	KindLineBreak: "break",
	KindParagraph: "paragraph",
	KindHeading1:  "h1",
	KindHeading2:  "h2",
	KindHeading3:  "h3",
	KindCodeBlock: "codeblock",
	KindList:      "list",
	KindListItem:  "item",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Block reports whether nodes of this kind start on their own line.
func (k Kind) Block() bool {
	return k >= KindParagraph
}

// Node is one element of a rendered document. Text is set on leaves
// (KindText, KindCode, KindCodeBlock); containers use Children.
type Node struct {
	Kind     Kind
	Text     string
	Lang     string
	Children []Node
}

// Document is the rendered form of one reply.
type Document struct {
	Blocks []Node
}

var parser = goldmark.New().Parser()

// Render parses src and maps it onto the allow-listed node set.
func Render(src string) Document {
	source := []byte(src)
	root := parser.Parse(text.NewReader(source))

	c := converter{source: source}
	var blocks []Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, c.block(n)...)
	}
	return Document{Blocks: blocks}
}

type converter struct {
	source []byte
}

func (c converter) block(n ast.Node) []Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []Node{{Kind: KindParagraph, Children: c.inlines(n)}}
	case *ast.Heading:
		return []Node{{Kind: headingKind(v.Level), Children: c.inlines(n)}}
	case *ast.FencedCodeBlock:
		lang := ""
		if l := v.Language(c.source); l != nil {
			lang = string(l)
		}
		return []Node{{Kind: KindCodeBlock, Lang: lang, Text: c.lines(n)}}
	case *ast.CodeBlock:
		return []Node{{Kind: KindCodeBlock, Text: c.lines(n)}}
	case *ast.HTMLBlock:
		body := c.lines(n)
		if v.HasClosure() {
			body += string(v.ClosureLine.Value(c.source))
		}
		return []Node{{Kind: KindParagraph, Children: []Node{{Kind: KindText, Text: strings.TrimRight(body, "\n")}}}}
	case *ast.List:
		return []Node{c.list(v)}
	case *ast.Blockquote:
		var out []Node
		for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
			out = append(out, c.block(ch)...)
		}
		return out
	case *ast.ThematicBreak:
		return []Node{{Kind: KindParagraph, Children: []Node{{Kind: KindText, Text: "---"}}}}
	default:
		if n.HasChildren() {
			return []Node{{Kind: KindParagraph, Children: c.inlines(n)}}
		}
		return nil
	}
}

func (c converter) list(l *ast.List) Node {
	out := Node{Kind: KindList}
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var children []Node
		if l.IsOrdered() {
			children = append(children, Node{Kind: KindText, Text: strconv.Itoa(num) + ". "})
			num++
		}
		first := true
		for ch := item.FirstChild(); ch != nil; ch = ch.NextSibling() {
			if !first {
				children = append(children, Node{Kind: KindLineBreak})
			}
			first = false
			switch ch.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				children = append(children, c.inlines(ch)...)
			default:
				for _, b := range c.block(ch) {
					children = append(children, flatten(b)...)
				}
			}
		}
		out.Children = append(out.Children, Node{Kind: KindListItem, Children: children})
	}
	return out
}

func (c converter) inlines(parent ast.Node) []Node {
	var out []Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.inline(n)...)
	}
	return out
}

func (c converter) inline(n ast.Node) []Node {
	switch v := n.(type) {
	case *ast.Text:
		out := []Node{{Kind: KindText, Text: html.UnescapeString(string(v.Segment.Value(c.source)))}}
		if v.SoftLineBreak() || v.HardLineBreak() {
			out = append(out, Node{Kind: KindLineBreak})
		}
		return out
	case *ast.String:
		return []Node{{Kind: KindText, Text: html.UnescapeString(string(v.Value))}}
	case *ast.CodeSpan:
		return []Node{{Kind: KindCode, Text: c.rawText(n)}}
	case *ast.Emphasis:
		kind := KindEmphasis
		if v.Level >= 2 {
			kind = KindStrong
		}
		return []Node{{Kind: kind, Children: c.inlines(n)}}
	case *ast.Link:
		out := c.inlines(n)
		if dest := string(v.Destination); dest != "" {
			out = append(out, Node{Kind: KindText, Text: " (" + dest + ")"})
		}
		return out
	case *ast.Image:
		return c.inlines(n)
	case *ast.AutoLink:
		return []Node{{Kind: KindText, Text: string(v.URL(c.source))}}
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			sb.Write(seg.Value(c.source))
		}
		return []Node{{Kind: KindText, Text: sb.String()}}
	default:
		return c.inlines(n)
	}
}

// rawText concatenates the literal source of all text descendants.
func (c converter) rawText(n ast.Node) string {
	var sb strings.Builder
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch v := ch.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(c.source))
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(c.rawText(ch))
		}
	}
	return sb.String()
}

func (c converter) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func headingKind(level int) Kind {
	switch {
	case level <= 1:
		return KindHeading1
	case level == 2:
		return KindHeading2
	default:
		return KindHeading3
	}
}

// flatten turns a block into inline content for nesting inside list items.
func flatten(b Node) []Node {
	switch b.Kind {
	case KindCodeBlock:
		return []Node{{Kind: KindCode, Text: b.Text}}
	case KindList:
		var out []Node
		for i, item := range b.Children {
			if i > 0 {
				out = append(out, Node{Kind: KindLineBreak})
			}
			out = append(out, Node{Kind: KindText, Text: "• "})
			out = append(out, item.Children...)
		}
		return out
	case KindHeading1, KindHeading2, KindHeading3:
		return []Node{{Kind: KindStrong, Children: b.Children}}
	default:
		return b.Children
	}
}
