package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

const fence = "```"

// space matches the same characters as trim: Unicode spaces, line and
// paragraph separators and the byte order mark. rest is the remainder of a
// line, which never spans a line terminator.
const (
	space = `[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`
	rest  = `([^\n\r\x{2028}\x{2029}]+)`
)

var (
	headerRe    = regexp.MustCompile(`^(#{1,6})` + space + rest + `$`)
	unorderedRe = regexp.MustCompile(`^[-*+]` + space + rest + `$`)
	orderedRe   = regexp.MustCompile(`^\d+\.` + space + rest + `$`)
)

// Parse converts a plan document into blocks in document order. It never
// fails: constructs it does not recognise become single-line paragraphs.
//
// Rules are tried in a fixed order on each trimmed line: header, code
// fence, blockquote, list, paragraph. Paragraphs are never merged across
// lines.
func Parse(md string) []Block {
	if md == "" {
		return []Block{}
	}

	lines := strings.Split(md, "\n")
	blocks := []Block{}
	for i := 0; i < len(lines); {
		line := trim(lines[i])
		if line == "" {
			i++
			continue
		}

		if b, ok := headerAhead(line); ok {
			blocks = append(blocks, b)
			i++
			continue
		}

		if strings.HasPrefix(line, fence) {
			var b Block
			b, i = codeAhead(lines, i)
			blocks = append(blocks, b)
			continue
		}

		if b, ok := quoteAhead(line); ok {
			blocks = append(blocks, b)
			i++
			continue
		}

		if _, ordered, ok := listItem(line); ok {
			var b Block
			b, i = listAhead(lines, i, ordered)
			blocks = append(blocks, b)
			continue
		}

		blocks = append(blocks, Block{Kind: Paragraph, Text: line})
		i++
	}
	return blocks
}

func headerAhead(line string) (Block, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return Block{}, false
	}
	return Block{Kind: Header, Level: len(m[1]), Text: m[2]}, true
}

// codeAhead consumes a fenced block starting at lines[start]. An
// unterminated fence runs to the end of input. It returns the index of the
// first line after the block.
func codeAhead(lines []string, start int) (Block, int) {
	i := start + 1
	var body []string
	for i < len(lines) && !strings.HasPrefix(trim(lines[i]), fence) {
		body = append(body, lines[i])
		i++
	}
	if i < len(lines) {
		i++
	}
	return Block{Kind: CodeBlock, Text: strings.Join(body, "\n")}, i
}

func quoteAhead(line string) (Block, bool) {
	if !strings.HasPrefix(line, ">") {
		return Block{}, false
	}
	return Block{Kind: Blockquote, Text: trim(line[1:])}, true
}

// listAhead collects items of one marker type. Blank lines inside the list
// are skipped; any other line ends it and is left for the caller.
func listAhead(lines []string, start int, ordered bool) (Block, int) {
	items := []string{}
	i := start
	for i < len(lines) {
		line := trim(lines[i])
		if line == "" {
			i++
			continue
		}
		item, o, ok := listItem(line)
		if !ok || o != ordered {
			break
		}
		items = append(items, item)
		i++
	}
	return Block{Kind: List, Ordered: ordered, Items: items}, i
}

// listItem reports whether line is a list item and which marker it uses.
func listItem(line string) (item string, ordered, ok bool) {
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		return m[1], true, true
	}
	if m := unorderedRe.FindStringSubmatch(line); m != nil {
		return m[1], false, true
	}
	return "", false, false
}

// trim strips the characters space matches from both ends of s.
func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
