package markdown

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	codeRe = regexp.MustCompile("`([^`]+)`")
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// match is a candidate span. loc holds the whole-match offsets followed by
// one offset pair per capture group, in the layout regexp uses.
type match struct {
	kind SpanKind
	loc  []int
}

func (m match) start() int { return m.loc[0] }
func (m match) end() int   { return m.loc[1] }

// scanners run in declaration order; for candidates starting at the same
// offset the earlier scanner wins.
var scanners = []func(string) []match{
	boldMatches,
	italicMatches,
	patternMatches(Code, codeRe),
	patternMatches(Link, linkRe),
}

// Format splits one line into plain runs and bold, italic, code and link
// spans. Candidates from all patterns are resolved leftmost-wins: a later
// candidate overlapping an accepted one is dropped, never retried. Inner
// delimiters of an accepted span stay literal.
//
// Empty or whitespace-only text yields a single plain span holding text.
func Format(text string) []Span {
	if trim(text) == "" {
		return []Span{plain(text, 0, len(text))}
	}
	return resolve(text, candidates(text))
}

// candidates runs every scanner over text and orders the results by start
// offset, keeping scanner order for equal starts.
func candidates(text string) []match {
	var all []match
	for _, scan := range scanners {
		all = append(all, scan(text)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].start() < all[j].start()
	})
	return all
}

// resolve keeps each candidate that starts at or after the end of the last
// kept one and emits spans covering text. A candidate whose span cannot be
// built is emitted as its raw source text.
func resolve(text string, sorted []match) []Span {
	var accepted []match
	lastEnd := 0
	for _, m := range sorted {
		if m.start() >= lastEnd {
			accepted = append(accepted, m)
			lastEnd = m.end()
		}
	}

	spans := make([]Span, 0, 2*len(accepted)+1)
	cursor := 0
	for _, m := range accepted {
		if m.start() > cursor {
			spans = append(spans, plain(text, cursor, m.start()))
		}
		s, err := m.span(text)
		if err != nil {
			s = plain(text, m.start(), m.end())
		}
		spans = append(spans, s)
		cursor = m.end()
	}
	if cursor < len(text) || len(spans) == 0 {
		spans = append(spans, plain(text, cursor, len(text)))
	}
	return spans
}

// StripInline returns text with recognised inline syntax removed: the
// concatenation of the Text of every span Format produces.
func StripInline(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, s := range Format(text) {
		b.WriteString(s.Text)
	}
	return b.String()
}

func plain(src string, start, end int) Span {
	return Span{Kind: Plain, Text: src[start:end], Start: start, End: end}
}

func (m match) group(src string, n int) (string, error) {
	if 2*n+1 >= len(m.loc) || m.loc[2*n] < 0 || m.loc[2*n+1] > len(src) {
		return "", errors.Errorf("%s at %d: missing group %d", m.kind, m.start(), n)
	}
	return src[m.loc[2*n]:m.loc[2*n+1]], nil
}

func (m match) span(src string) (Span, error) {
	text, err := m.group(src, 1)
	if err != nil {
		return Span{}, err
	}
	s := Span{Kind: m.kind, Text: text, Start: m.start(), End: m.end()}
	switch m.kind {
	case Bold, Italic, Code:
		return s, nil
	case Link:
		href, err := m.group(src, 2)
		if err != nil {
			return Span{}, err
		}
		s.Href = href
		return s, nil
	}
	return Span{}, errors.Errorf("unknown span kind %q", m.kind)
}

func patternMatches(kind SpanKind, re *regexp.Regexp) func(string) []match {
	return func(s string) []match {
		locs := re.FindAllStringSubmatchIndex(s, -1)
		ms := make([]match, 0, len(locs))
		for _, loc := range locs {
			ms = append(ms, match{kind: kind, loc: loc})
		}
		return ms
	}
}

// boldMatches finds **text** spans whose content may hold single asterisks
// but no "**" pair. The closing delimiter is therefore the first "**" after
// the opener, and the content must be non-empty.
func boldMatches(s string) []match {
	// next[k] is the first index >= k starting a "**" pair, or -1.
	next := make([]int, len(s)+1)
	next[len(s)] = -1
	for k := len(s) - 1; k >= 0; k-- {
		if k+1 < len(s) && s[k] == '*' && s[k+1] == '*' {
			next[k] = k
		} else {
			next[k] = next[k+1]
		}
	}

	var ms []match
	for i := 0; i+1 < len(s); {
		if s[i] == '*' && s[i+1] == '*' {
			if j := next[i+2]; j > i+2 {
				ms = append(ms, match{kind: Bold, loc: []int{i, j + 2, i + 2, j}})
				i = j + 2
				continue
			}
		}
		i++
	}
	return ms
}

// italicMatches finds *text* spans with single-asterisk delimiters: neither
// delimiter may touch another asterisk, so the halves of a "**" pair never
// open or close italics. The content holds no asterisk and is non-empty.
func italicMatches(s string) []match {
	var ms []match
	for i := 0; i < len(s); {
		if s[i] == '*' && (i == 0 || s[i-1] != '*') {
			if q := strings.IndexByte(s[i+1:], '*'); q > 0 {
				q += i + 1
				if q+1 == len(s) || s[q+1] != '*' {
					ms = append(ms, match{kind: Italic, loc: []int{i, q + 1, i + 1, q}})
					i = q + 1
					continue
				}
			}
		}
		i++
	}
	return ms
}
