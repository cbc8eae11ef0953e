package generator

import (
	"errors"
	"strings"

	"careerplan/markdown"
)

const digestLimit = 160

// PostProcess validates model output and fills in the plan's title and
// digest from its first header and first paragraph.
func PostProcess(raw string, a Answers) (Plan, error) {
	md := unwrapFence(strings.TrimSpace(raw))
	if md == "" {
		return Plan{}, errors.New("model returned empty markdown")
	}

	blocks := markdown.Parse(md)
	title := extractTitle(blocks)
	if title == "" {
		title = a.Goal
	}
	digest := extractDigest(blocks)
	if digest == "" {
		digest = defaultDigest(markdown.PlainText(md), digestLimit)
	}

	return Plan{
		Title:    title,
		Digest:   digest,
		Markdown: md,
	}, nil
}

// unwrapFence strips a fence the model put around the whole reply.
func unwrapFence(md string) string {
	if !strings.HasPrefix(md, "```") || !strings.HasSuffix(md, "```") {
		return md
	}
	lines := strings.Split(md, "\n")
	if len(lines) < 3 {
		return md
	}
	info := strings.TrimSpace(strings.TrimPrefix(lines[0], "```"))
	if info != "" && info != "markdown" && info != "md" {
		return md
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// extractTitle prefers the first level 1 header over any other header.
func extractTitle(blocks []markdown.Block) string {
	var first string
	for _, b := range blocks {
		if b.Kind != markdown.Header {
			continue
		}
		if b.Level == 1 {
			return markdown.StripInline(b.Text)
		}
		if first == "" {
			first = markdown.StripInline(b.Text)
		}
	}
	return first
}

// The digest is the first paragraph.
func extractDigest(blocks []markdown.Block) string {
	for _, b := range blocks {
		if b.Kind == markdown.Paragraph {
			return markdown.StripInline(b.Text)
		}
	}
	return ""
}

func defaultDigest(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
