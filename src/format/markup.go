package format

import (
	"html"
	"strings"
)

// Markup serializes the document using only p, strong, em, code, pre,
// h1-h3, ul, li and br. All text is escaped.
func (d Document) Markup() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		writeMarkup(&sb, b)
	}
	return sb.String()
}

func writeMarkup(sb *strings.Builder, n Node) {
	switch n.Kind {
	case KindText:
		sb.WriteString(html.EscapeString(n.Text))
	case KindLineBreak:
		sb.WriteString("<br />")
	case KindCode:
		sb.WriteString("<code>")
		sb.WriteString(html.EscapeString(n.Text))
		sb.WriteString("</code>")
	case KindCodeBlock:
		sb.WriteString("<pre><code>")
		sb.WriteString(html.EscapeString(n.Text))
		sb.WriteString("</code></pre>")
	default:
		tag := tagFor(n.Kind)
		sb.WriteString("<" + tag + ">")
		for _, ch := range n.Children {
			writeMarkup(sb, ch)
		}
		sb.WriteString("</" + tag + ">")
	}
}

func tagFor(k Kind) string {
	switch k {
	case KindStrong:
		return "strong"
	case KindEmphasis:
		return "em"
	case KindHeading1:
		return "h1"
	case KindHeading2:
		return "h2"
	case KindHeading3:
		return "h3"
	case KindList:
		return "ul"
	case KindListItem:
		return "li"
	default:
		return "p"
	}
}

// PlainText drops all markup, keeping line structure.
func (d Document) PlainText() string {
	var lines []string
	for _, b := range d.Blocks {
		switch b.Kind {
		case KindCodeBlock:
			lines = append(lines, b.Text)
		case KindList:
			for _, item := range b.Children {
				lines = append(lines, "- "+inlineText(item.Children))
			}
		default:
			lines = append(lines, inlineText(b.Children))
		}
	}
	return strings.Join(lines, "\n")
}

func inlineText(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case KindText, KindCode:
			sb.WriteString(n.Text)
		case KindLineBreak:
			sb.WriteString("\n")
		default:
			sb.WriteString(inlineText(n.Children))
		}
	}
	return sb.String()
}
