package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"

	"github.com/runvnc/mindroot-tui/internal/transcript"
	"github.com/runvnc/mindroot-tui/internal/ui"
)

// viewportProbe adapts the bubbles viewport to the scroll controller's
// geometry interface.
type viewportProbe struct {
	vp *viewport.Model
}

func (p *viewportProbe) ScrollTop() int    { return p.vp.YOffset }
func (p *viewportProbe) ScrollHeight() int { return p.vp.TotalLineCount() }
func (p *viewportProbe) ClientHeight() int { return p.vp.Height }
func (p *viewportProbe) ScrollToBottom()   { p.vp.GotoBottom() }

// renderTranscript renders the full turn sequence for the viewport.
// Markdown turns carry pre-rendered content sized to the current width;
// user and placeholder turns are wrapped here.
func renderTranscript(turns []transcript.Turn, styles *ui.Styles, spinnerFrame string, width int) string {
	wrapWidth := width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}

		if transcript.ShowAvatar(turns, i) {
			if turn.Sender == transcript.SenderUser {
				b.WriteString(styles.UserLabel.Render("you"))
			} else {
				b.WriteString(styles.PersonaLabel.Render(turn.Persona))
			}
			b.WriteString("\n")
		}

		switch {
		case turn.Sender == transcript.SenderUser:
			b.WriteString(renderUserTurn(turn.Content, styles, wrapWidth))
		case turn.Kind == transcript.KindCommand:
			b.WriteString(styles.Placeholder.Render(wordwrap.String(turn.Content, wrapWidth)))
		default:
			b.WriteString(strings.TrimRight(turn.Content, "\n"))
		}
		b.WriteString("\n")

		if turn.Spinning {
			b.WriteString(spinnerFrame)
			b.WriteString(styles.Muted.Render(" running..."))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderUserTurn prefixes the first line with the prompt marker and
// indents continuation lines under it.
func renderUserTurn(content string, styles *ui.Styles, wrapWidth int) string {
	prompt := styles.Prompt.Render("❯") + " "
	wrapped := wordwrap.String(content, wrapWidth)

	var b strings.Builder
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			b.WriteString(prompt)
		} else {
			b.WriteString("\n  ")
		}
		b.WriteString(line)
	}
	return b.String()
}
