// Package export renders an assembled transcript as a standalone HTML
// document. Agent-controlled markdown is sanitized by default: the
// browser-side original injected rendered HTML unsanitized, which this
// port deliberately does not reproduce.
package export

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/runvnc/mindroot-tui/internal/transcript"
)

// fenceRe matches a fenced code block with an optional language tag.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

const placeholderFmt = "MDCODEBLOCK%dEND"

// Options configures an Exporter.
type Options struct {
	Title    string
	Sanitize bool
}

// Exporter converts turns to HTML.
type Exporter struct {
	opts   Options
	md     goldmark.Markdown
	policy *bluemonday.Policy
	code   *chromahtml.Formatter
}

// New creates an exporter. The sanitization policy keeps the elements
// goldmark and chroma emit (including class attributes for highlight CSS)
// and strips everything else the agent may have embedded.
func New(opts Options) *Exporter {
	if opts.Title == "" {
		opts.Title = "MindRoot transcript"
	}

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("span", "pre", "code", "div")
	policy.AllowImages()

	return &Exporter{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: policy,
		code: chromahtml.New(
			chromahtml.WithClasses(true),
		),
	}
}

// WriteHTML writes the full document for a session's turns.
func (e *Exporter) WriteHTML(w io.Writer, session string, turns []transcript.Turn) error {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(e.opts.Title))
	b.WriteString("<style>\n")
	b.WriteString(documentCSS)
	if err := e.writeHighlightCSS(&b); err != nil {
		return err
	}
	b.WriteString("</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<p class=\"session\">session %s</p>\n",
		html.EscapeString(e.opts.Title), html.EscapeString(session))

	for i := range turns {
		if err := e.writeTurn(&b, turns, i); err != nil {
			return err
		}
	}

	b.WriteString("</body>\n</html>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (e *Exporter) writeTurn(b *strings.Builder, turns []transcript.Turn, i int) error {
	turn := turns[i]

	cls := "turn ai"
	if turn.Sender == transcript.SenderUser {
		cls = "turn user"
	}
	fmt.Fprintf(b, "<div class=%q>\n", cls)

	if transcript.ShowAvatar(turns, i) {
		label := turn.Persona
		if turn.Sender == transcript.SenderUser {
			label = "you"
		}
		fmt.Fprintf(b, "<div class=\"persona\">%s</div>\n", html.EscapeString(label))
	}

	switch turn.Kind {
	case transcript.KindMarkdown:
		rendered, err := e.renderMarkdown(turn.Raw)
		if err != nil {
			// Degrade to preformatted, never fail the whole export.
			rendered = "<pre>" + html.EscapeString(turn.Raw) + "</pre>"
		}
		b.WriteString(rendered)
	case transcript.KindCommand:
		fmt.Fprintf(b, "<div class=\"command\" data-command=%q><pre>%s</pre></div>\n",
			turn.Command, html.EscapeString(turn.Raw))
	case transcript.KindImage:
		fmt.Fprintf(b, "<img src=%q alt=\"generated image\">\n", turn.Raw)
	default:
		fmt.Fprintf(b, "<pre>%s</pre>\n", html.EscapeString(turn.Raw))
	}

	b.WriteString("</div>\n")
	return nil
}

// renderMarkdown converts one turn's markdown to sanitized HTML. Fenced
// blocks are isolated before parsing, highlighted with chroma, and
// spliced back after sanitization (chroma escapes code content itself).
func (e *Exporter) renderMarkdown(text string) (string, error) {
	blocks, stripped := extractFences(text)

	var out strings.Builder
	if err := e.md.Convert([]byte(stripped), &out); err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}

	rendered := out.String()
	if e.opts.Sanitize {
		rendered = e.policy.Sanitize(rendered)
	}

	for i, block := range blocks {
		token := fmt.Sprintf(placeholderFmt, i)
		highlighted, err := e.highlightHTML(block)
		if err != nil {
			highlighted = "<pre>" + html.EscapeString(block.code) + "</pre>"
		}
		rendered = strings.Replace(rendered, token, highlighted, 1)
	}
	return rendered, nil
}

type fencedBlock struct {
	lang string
	code string
}

func extractFences(text string) ([]fencedBlock, string) {
	var blocks []fencedBlock
	stripped := fenceRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := fenceRe.FindStringSubmatch(match)
		token := fmt.Sprintf(placeholderFmt, len(blocks))
		blocks = append(blocks, fencedBlock{lang: sub[1], code: sub[2]})
		return token
	})
	return blocks, stripped
}

func (e *Exporter) highlightHTML(b fencedBlock) (string, error) {
	lexer := lexerFor(b.lang, b.code)
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, strings.TrimRight(b.code, "\n"))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := e.code.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) writeHighlightCSS(w io.Writer) error {
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	return e.code.WriteCSS(w, style)
}

const documentCSS = `
body { max-width: 52rem; margin: 2rem auto; font-family: sans-serif; line-height: 1.5; }
.turn { padding: 0.5rem 1rem; margin-bottom: 0.5rem; border-radius: 6px; }
.turn.user { background: #f0f0f0; }
.persona { font-weight: bold; margin-bottom: 0.25rem; color: #555; }
.command pre { background: #f8f8f8; border-left: 3px solid #ccc; padding: 0.5rem; overflow-x: auto; }
.session { color: #888; }
img { max-width: 100%; }
pre { overflow-x: auto; }
`
