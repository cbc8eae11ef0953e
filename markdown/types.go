// Package markdown parses the Markdown dialect career plans are written in
// and renders it. The dialect covers headers, single-line paragraphs, flat
// lists, fenced code, one-line blockquotes and bold, italic, code and link
// spans. Parse and Format are pure and safe for concurrent use.
package markdown

import "encoding/json"

// BlockKind identifies a structural unit of a plan document.
type BlockKind string

const (
	Header     BlockKind = "header"
	Paragraph  BlockKind = "paragraph"
	CodeBlock  BlockKind = "code_block"
	Blockquote BlockKind = "blockquote"
	List       BlockKind = "list"
)

// Block is one parsed unit of the document. Text is the raw content before
// inline formatting and is empty for lists; Level is set for headers only,
// Ordered and Items for lists only.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Text    string    `json:"text,omitempty"`
	Level   int       `json:"level,omitempty"`
	Ordered bool      `json:"ordered,omitempty"`
	Items   []string  `json:"items,omitempty"`
}

type blockJSON Block

// MarshalJSON always writes ordered for lists and leaves it out for every
// other kind.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Kind != List {
		return json.Marshal(blockJSON(b))
	}
	return json.Marshal(struct {
		blockJSON
		Ordered bool `json:"ordered"`
	}{blockJSON(b), b.Ordered})
}

// SpanKind identifies the formatting of an inline run.
type SpanKind string

const (
	Plain  SpanKind = "plain"
	Bold   SpanKind = "bold"
	Italic SpanKind = "italic"
	Code   SpanKind = "code"
	Link   SpanKind = "link"
)

// Span is one fragment of formatted text within a line. For links Text is
// the label. Start and End are byte offsets of the source range the span
// was produced from, delimiters included.
type Span struct {
	Kind  SpanKind `json:"kind"`
	Text  string   `json:"text"`
	Href  string   `json:"href,omitempty"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// External reports whether the span must open in a new browsing context
// without passing referrer information.
func (s Span) External() bool {
	return s.Kind == Link
}
