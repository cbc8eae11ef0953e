package markdown

import (
	"fmt"
	"strings"
)

var textComponents = Components[string]{
	Header: func(_ int, content []string) string {
		return strings.Join(content, "")
	},
	Paragraph: func(content []string) string {
		return strings.Join(content, "")
	},
	List: func(ordered bool, items [][]string) string {
		lines := make([]string, len(items))
		for i, item := range items {
			if ordered {
				lines[i] = fmt.Sprintf("%d. %s", i+1, strings.Join(item, ""))
			} else {
				lines[i] = "• " + strings.Join(item, "")
			}
		}
		return strings.Join(lines, "\n")
	},
	CodeBlock: func(text string) string {
		return text
	},
	Blockquote: func(content []string) string {
		return "> " + strings.Join(content, "")
	},
	Span: func(s Span) string {
		if s.Kind == Link {
			return fmt.Sprintf("%s (%s)", s.Text, s.Href)
		}
		return s.Text
	},
}

// PlainText renders md as readable text: inline syntax removed, link
// targets kept in parentheses, list items numbered or bulleted, blocks
// separated by a blank line.
func PlainText(md string) string {
	return strings.Join(Render(md, textComponents), "\n\n")
}
