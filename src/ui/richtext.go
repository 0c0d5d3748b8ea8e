package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"region-chat/src/format"
)

var styleHeading3 = widget.RichTextStyle{
	ColorName: theme.ColorNameForeground,
	SizeName:  theme.SizeNameText,
	TextStyle: fyne.TextStyle{Bold: true},
}

// segments maps formatter output onto RichText segments. Only the closed node
// set of the formatter reaches the widget.
func segments(doc format.Document) []widget.RichTextSegment {
	var out []widget.RichTextSegment
	for _, b := range doc.Blocks {
		out = append(out, blockSegments(b)...)
	}
	return out
}

func blockSegments(b format.Node) []widget.RichTextSegment {
	switch b.Kind {
	case format.KindHeading1, format.KindHeading2, format.KindHeading3:
		text := format.Document{Blocks: []format.Node{b}}.PlainText()
		return []widget.RichTextSegment{&widget.TextSegment{Style: headingStyle(b.Kind), Text: text}}
	case format.KindCodeBlock:
		return []widget.RichTextSegment{&widget.TextSegment{Style: widget.RichTextStyleCodeBlock, Text: b.Text}}
	case format.KindList:
		var out []widget.RichTextSegment
		for _, item := range b.Children {
			line := []widget.RichTextSegment{&widget.TextSegment{Style: widget.RichTextStyleInline, Text: "• "}}
			line = append(line, inlineSegments(item.Children)...)
			out = append(out, endLine(line)...)
		}
		return out
	default:
		return endLine(inlineSegments(b.Children))
	}
}

func headingStyle(k format.Kind) widget.RichTextStyle {
	switch k {
	case format.KindHeading1:
		return widget.RichTextStyleHeading
	case format.KindHeading2:
		return widget.RichTextStyleSubHeading
	default:
		return styleHeading3
	}
}

func inlineSegments(nodes []format.Node) []widget.RichTextSegment {
	var out []widget.RichTextSegment
	for _, n := range nodes {
		switch n.Kind {
		case format.KindLineBreak:
			out = endLine(out)
		case format.KindStrong:
			out = append(out, styled(n, widget.RichTextStyleStrong)...)
		case format.KindEmphasis:
			out = append(out, styled(n, widget.RichTextStyleEmphasis)...)
		case format.KindCode:
			out = append(out, &widget.TextSegment{Style: widget.RichTextStyleCodeInline, Text: n.Text})
		default:
			if n.Text != "" {
				out = append(out, &widget.TextSegment{Style: widget.RichTextStyleInline, Text: n.Text})
			}
		}
	}
	return out
}

// styled flattens nested inline nodes under one style. Nested emphasis inside
// strong keeps both text styles.
func styled(n format.Node, style widget.RichTextStyle) []widget.RichTextSegment {
	if len(n.Children) == 0 {
		return []widget.RichTextSegment{&widget.TextSegment{Style: style, Text: n.Text}}
	}
	var out []widget.RichTextSegment
	for _, seg := range inlineSegments(n.Children) {
		if ts, ok := seg.(*widget.TextSegment); ok {
			ts.Style.TextStyle.Bold = ts.Style.TextStyle.Bold || style.TextStyle.Bold
			ts.Style.TextStyle.Italic = ts.Style.TextStyle.Italic || style.TextStyle.Italic
		}
		out = append(out, seg)
	}
	return out
}

// endLine makes the last segment terminate its line.
func endLine(line []widget.RichTextSegment) []widget.RichTextSegment {
	if len(line) == 0 {
		return append(line, &widget.TextSegment{Style: widget.RichTextStyleParagraph})
	}
	if ts, ok := line[len(line)-1].(*widget.TextSegment); ok {
		ts.Style.Inline = false
		return line
	}
	return append(line, &widget.TextSegment{Style: widget.RichTextStyleParagraph})
}

// assistantText renders model output through the formatter.
func assistantText(content string) *widget.RichText {
	rt := widget.NewRichText(segments(format.Render(content))...)
	rt.Wrapping = fyne.TextWrapWord
	return rt
}

// userText renders user input verbatim. Nothing in it is interpreted.
func userText(content string) *widget.RichText {
	rt := widget.NewRichText(&widget.TextSegment{Style: widget.RichTextStyleParagraph, Text: content})
	rt.Wrapping = fyne.TextWrapWord
	return rt
}
