package markdown

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// commonMark is the full GFM engine, used when a plan should be rendered
// with complete Markdown semantics instead of the plan dialect. Raw HTML is
// omitted from its output.
var commonMark = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// CommonMark renders md with goldmark and applies the same display policy
// as HTML: links open in a new browsing context without referrer, and h5/h6
// render as h4.
func CommonMark(md string) (string, error) {
	var buf bytes.Buffer
	if err := commonMark.Convert([]byte(md), &buf); err != nil {
		return "", errors.Wrap(err, "could not convert markdown")
	}
	return normalizeHTML(buf.String())
}

func normalizeHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", errors.Wrap(err, "could not parse rendered html")
	}

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("target", "_blank")
		s.SetAttr("rel", "noopener noreferrer")
	})

	doc.Find("h5, h6").Each(func(_ int, s *goquery.Selection) {
		inner, err := s.Html()
		if err != nil {
			return
		}
		id, ok := s.Attr("id")
		if ok {
			s.ReplaceWithHtml(`<h4 id="` + escape(id) + `">` + inner + "</h4>")
			return
		}
		s.ReplaceWithHtml("<h4>" + inner + "</h4>")
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", errors.Wrap(err, "could not serialize html")
	}
	return strings.TrimSpace(out), nil
}
