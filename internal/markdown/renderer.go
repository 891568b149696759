// Package markdown renders agent output for terminal display. Fenced code
// blocks are isolated before markdown parsing, highlighted with chroma,
// and reinserted afterwards, so the markdown engine never mangles code.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

// fenceRe matches a fenced code block with an optional language tag.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// placeholderFmt stands in for an extracted code block during markdown
// parsing. Glamour treats the token as a plain paragraph and leaves it
// intact, so the highlighted block can be spliced back afterwards.
const placeholderFmt = "MDCODEBLOCK%dEND"

// Renderer converts raw markdown to terminal output at a fixed width.
// Safe for concurrent use; width changes go through SetWidth.
type Renderer struct {
	mu    sync.Mutex
	width int

	// glamour renderers are expensive to build; cache per width.
	cache map[int]*glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at the given width.
func NewRenderer(width int) *Renderer {
	if width < 20 {
		width = 20
	}
	return &Renderer{
		width: width,
		cache: make(map[int]*glamour.TermRenderer),
	}
}

// SetWidth changes the wrap width for subsequent renders.
func (r *Renderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.mu.Lock()
	r.width = width
	r.mu.Unlock()
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Render converts markdown to display-ready terminal text. The input is
// stripped of raw ANSI control sequences first, so agent-controlled text
// cannot smuggle escape codes into the terminal. Render never panics; any
// failure degrades to a preformatted block around the raw text.
func (r *Renderer) Render(text string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Preformatted(text)
			err = nil
		}
	}()

	clean := ansi.Strip(text)

	blocks, stripped := extractFences(clean)

	rendered, rerr := r.renderMarkdown(stripped)
	if rerr != nil {
		return Preformatted(clean), nil
	}

	for i, block := range blocks {
		token := fmt.Sprintf(placeholderFmt, i)
		rendered = strings.Replace(rendered, token, highlightBlock(block), 1)
	}

	return rendered, nil
}

// fencedBlock is one extracted code block.
type fencedBlock struct {
	lang string
	code string
}

// extractFences replaces each fenced block with a placeholder token and
// returns the blocks in order.
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

func (r *Renderer) renderMarkdown(text string) (string, error) {
	r.mu.Lock()
	width := r.width
	renderer, ok := r.cache[width]
	if !ok {
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			r.mu.Unlock()
			return "", err
		}
		r.cache[width] = renderer
	}
	r.mu.Unlock()

	out, err := renderer.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// Preformatted wraps raw text in a preformatted block: each line indented
// four spaces, nothing interpreted. Used as the degradation path when
// parsing fails.
func Preformatted(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
