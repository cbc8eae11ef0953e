package markdown

import (
	"fmt"
	"html"
	"strings"
)

const (
	emptyDocument = "No content to display"
	emptyParse    = "No content parsed"
)

var escape = html.EscapeString

type htmlConfig struct {
	dir    string
	prefix string
}

// HTMLOption configures HTML.
type HTMLOption func(*htmlConfig)

// WithDirection sets the text direction of the container. Anything other
// than "rtl" renders left to right.
func WithDirection(dir string) HTMLOption {
	return func(c *htmlConfig) {
		if dir == "rtl" {
			c.dir = "rtl"
		} else {
			c.dir = "ltr"
		}
	}
}

// WithClassPrefix sets the prefix of every CSS class HTML emits.
func WithClassPrefix(prefix string) HTMLOption {
	return func(c *htmlConfig) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// HTML renders md as an HTML fragment wrapped in a single container div.
// All text is escaped. Links open in a new browsing context and send no
// referrer.
func HTML(md string, opts ...HTMLOption) string {
	cfg := htmlConfig{dir: "ltr", prefix: "md"}
	for _, o := range opts {
		o(&cfg)
	}

	if md == "" {
		return fmt.Sprintf(`<div class="%s-empty">%s</div>`, cfg.prefix, emptyDocument)
	}

	var out strings.Builder
	fmt.Fprintf(&out, `<div class="%s" dir="%s">`, cfg.prefix, cfg.dir)
	out.WriteByte('\n')
	nodes := Render(md, HTMLComponents(cfg.prefix))
	if len(nodes) == 0 {
		fmt.Fprintf(&out, `<p class="%s-p">%s</p>`, cfg.prefix, emptyParse)
		out.WriteByte('\n')
	}
	for _, n := range nodes {
		out.WriteString(n)
		out.WriteByte('\n')
	}
	out.WriteString("</div>")
	return out.String()
}

// HTMLComponents returns the components HTML renders with. Class names are
// built from prefix.
func HTMLComponents(prefix string) Components[string] {
	class := func(name string) string {
		return prefix + "-" + name
	}
	return Components[string]{
		Header: func(level int, content []string) string {
			return fmt.Sprintf(`<h%d class="%s">%s</h%d>`,
				level, class(fmt.Sprintf("h%d", level)), strings.Join(content, ""), level)
		},
		Paragraph: func(content []string) string {
			return fmt.Sprintf(`<p class="%s">%s</p>`, class("p"), strings.Join(content, ""))
		},
		List: func(ordered bool, items [][]string) string {
			tag, kind := "ul", "unordered"
			if ordered {
				tag, kind = "ol", "ordered"
			}
			var b strings.Builder
			fmt.Fprintf(&b, `<%s class="%s">`, tag, class("list"))
			for _, item := range items {
				fmt.Fprintf(&b, `<li class="%s %s">%s</li>`, class("item"), kind, strings.Join(item, ""))
			}
			fmt.Fprintf(&b, "</%s>", tag)
			return b.String()
		},
		CodeBlock: func(text string) string {
			return fmt.Sprintf(`<pre class="%s"><code>%s</code></pre>`, class("code"), escape(text))
		},
		Blockquote: func(content []string) string {
			return fmt.Sprintf(`<blockquote class="%s">%s</blockquote>`, class("quote"), strings.Join(content, ""))
		},
		Span: func(s Span) string {
			switch s.Kind {
			case Bold:
				return "<strong>" + escape(s.Text) + "</strong>"
			case Italic:
				return "<em>" + escape(s.Text) + "</em>"
			case Code:
				return fmt.Sprintf(`<code class="%s">%s</code>`, class("inline-code"), escape(s.Text))
			case Link:
				return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
					escape(s.Href), escape(s.Text))
			}
			return escape(s.Text)
		},
	}
}
