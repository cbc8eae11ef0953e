package publisher

import (
	"context"
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"careerplan/generator"
	"careerplan/locale"
	"careerplan/markdown"
)

// Export formats.
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatHTML     = "html"
)

// ErrFormatUnavailable is returned for pdf and docx. Plans export as
// html, md or txt only.
var ErrFormatUnavailable = errors.New("export format not available")

// PublishParams describes a markdown file to export from the command line.
type PublishParams struct {
	MarkdownPath string
	Title        string
	Format       string
	Language     string
	// OutPath is written when set; otherwise the caller prints Export.Body.
	OutPath string
}

// Export is a rendered plan ready to be served or written.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Publisher renders plans into downloadable documents.
type Publisher struct {
	cfg     Config
	verbose bool
	logger  *log.Logger
}

func New(cfg Config, verbose bool, logger *log.Logger) (*Publisher, error) {
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{cfg: cfg, verbose: verbose, logger: logger}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// Engine reports which markdown engine HTML exports use.
func (p *Publisher) Engine() string { return p.cfg.Engine }

// Export renders plan in format. lang picks the document language and
// direction and falls back to the configured language.
func (p *Publisher) Export(plan generator.Plan, lang, format string) (Export, error) {
	if lang == "" {
		lang = p.cfg.Language
	}
	lang = locale.Normalize(lang)
	name := slug(plan.Title)

	switch format {
	case FormatMarkdown:
		return Export{
			Filename:    name + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Body:        []byte(plan.Markdown),
		}, nil
	case FormatText:
		return Export{
			Filename:    name + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(markdown.PlainText(plan.Markdown) + "\n"),
		}, nil
	case FormatHTML:
		doc, err := p.Document(plan, lang)
		if err != nil {
			return Export{}, err
		}
		return Export{
			Filename:    name + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        []byte(doc),
		}, nil
	case "pdf", "docx":
		return Export{}, errors.Wrapf(ErrFormatUnavailable, "%s: use html, md or txt", format)
	default:
		return Export{}, errors.Errorf("unsupported export format %q", format)
	}
}

// Body renders only the plan's markdown with the configured engine.
func (p *Publisher) Body(md, lang string) (string, error) {
	dir := locale.Direction(lang)
	if p.cfg.Engine == EngineCommonMark {
		body, err := markdown.CommonMark(md)
		if err != nil {
			return "", errors.Wrap(err, "render commonmark")
		}
		return fmt.Sprintf(`<div class="md" dir="%s">%s</div>`, dir, body), nil
	}
	return markdown.HTML(md, markdown.WithDirection(dir)), nil
}

// Document renders plan as a standalone HTML page.
func (p *Publisher) Document(plan generator.Plan, lang string) (string, error) {
	lang = locale.Normalize(lang)
	body, err := p.Body(plan.Markdown, lang)
	if err != nil {
		return "", err
	}
	title := plan.Title
	if title == "" {
		title = "Career Plan"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"%s\" dir=\"%s\">\n<head>\n", lang, locale.Direction(lang))
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	if plan.Digest != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=\"%s\">\n", html.EscapeString(plan.Digest))
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String(), nil
}

// PublishFile exports the markdown file at params.MarkdownPath.
func (p *Publisher) PublishFile(ctx context.Context, params PublishParams) (Export, error) {
	if params.MarkdownPath == "" {
		return Export{}, errors.New("markdown path is required")
	}
	format := params.Format
	if format == "" {
		format = FormatHTML
	}

	mdBytes, err := os.ReadFile(params.MarkdownPath)
	if err != nil {
		return Export{}, errors.Wrap(err, "read markdown")
	}
	p.infof("Read %s (%s)", params.MarkdownPath, humanize.Bytes(uint64(len(mdBytes))))

	plan, err := generator.PostProcess(string(mdBytes), generator.Answers{Goal: params.Title, Language: params.Language})
	if err != nil {
		return Export{}, err
	}
	if params.Title != "" {
		plan.Title = params.Title
	}
	p.infof("Parsed plan title=%q digest=%q", plan.Title, plan.Digest)

	out, err := p.Export(plan, params.Language, format)
	if err != nil {
		return Export{}, err
	}
	p.infof("Rendered %s with %s engine (%s)", format, p.cfg.Engine, humanize.Bytes(uint64(len(out.Body))))

	if params.OutPath == "" {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	if err := os.WriteFile(params.OutPath, out.Body, 0o644); err != nil {
		return Export{}, errors.Wrapf(err, "write %s", params.OutPath)
	}
	p.infof("Wrote %s", params.OutPath)
	return out, nil
}

// slug turns a plan title into a file name stem.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "career-plan"
	}
	return s
}
