package markdown

// Components maps parsed elements to output nodes of type N. Every callback
// must be set. Header receives the display bucket from HeaderBucket, not the
// parsed level.
type Components[N any] struct {
	Header     func(level int, content []N) N
	Paragraph  func(content []N) N
	List       func(ordered bool, items [][]N) N
	CodeBlock  func(text string) N
	Blockquote func(content []N) N
	Span       func(s Span) N
}

// HeaderBucket maps a header level to its display bucket. Levels 5 and 6
// share the level 4 bucket.
func HeaderBucket(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 4:
		return 4
	}
	return level
}

// Render parses md and renders every block through c, in document order.
func Render[N any](md string, c Components[N]) []N {
	blocks := Parse(md)
	nodes := make([]N, 0, len(blocks))
	for _, b := range blocks {
		nodes = append(nodes, c.Block(b))
	}
	return nodes
}

// Block renders one parsed block. Code block text is passed through without
// inline formatting.
func (c Components[N]) Block(b Block) N {
	switch b.Kind {
	case Header:
		return c.Header(HeaderBucket(b.Level), c.Inline(b.Text))
	case List:
		items := make([][]N, len(b.Items))
		for i, item := range b.Items {
			items[i] = c.Inline(item)
		}
		return c.List(b.Ordered, items)
	case CodeBlock:
		return c.CodeBlock(b.Text)
	case Blockquote:
		return c.Blockquote(c.Inline(b.Text))
	}
	return c.Paragraph(c.Inline(b.Text))
}

// Inline formats text and renders each span.
func (c Components[N]) Inline(text string) []N {
	spans := Format(text)
	nodes := make([]N, len(spans))
	for i, s := range spans {
		nodes[i] = c.Span(s)
	}
	return nodes
}
