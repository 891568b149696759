package transcript

import (
	"encoding/json"
	"strings"

	"github.com/runvnc/mindroot-tui/internal/api"
)

// System bookkeeping records start with one of these markers. The real
// payload, if any, follows the first "]\n" after the marker.
const (
	systemMarkerOpen = "[SYSTEM]"
	systemMarker     = "SYSTEM]"
)

// LoadHistory backfills the transcript from stored history records,
// producing the immutable prefix of the turn sequence. It must complete
// before the live stream is attached; the chat command sequences the two.
//
// Record interpretation:
//   - SYSTEM-marked records keep only the payload after the first "]\n",
//     and are dropped entirely when that payload is itself SYSTEM-marked
//     (pure bookkeeping, never shown).
//   - Records decoding as a JSON envelope array yield one AI turn per
//     envelope with a say.text or json_encoded_md.markdown field; other
//     envelopes are skipped.
//   - Anything else is a plain user turn (legacy messages).
func (a *Assembler) LoadHistory(records []api.HistoryRecord) {
	for _, rec := range records {
		a.loadRecord(rec)
	}
	a.mu.Lock()
	a.state = StateIdle
	updated := a.onUpdate
	a.mu.Unlock()
	signal(updated)
}

func (a *Assembler) loadRecord(rec api.HistoryRecord) {
	content := rec.Content

	if strings.HasPrefix(content, systemMarkerOpen) || strings.HasPrefix(content, systemMarker) {
		payload, keep := stripSystemMarker(content)
		if keep {
			a.appendHistoryTurn(Turn{
				Content: payload,
				Raw:     payload,
				Kind:    KindText,
				Sender:  SenderUser,
				Persona: rec.Persona,
			})
		}
		return
	}

	var envs []Envelope
	if err := json.Unmarshal([]byte(content), &envs); err == nil {
		for _, env := range envs {
			text, ok := env.historyText()
			if !ok {
				continue
			}
			persona := env.Persona
			if persona == "" {
				persona = rec.Persona
			}
			a.appendHistoryTurn(Turn{
				Content: a.renderOrFallback(text),
				Raw:     text,
				Kind:    KindMarkdown,
				Sender:  SenderAI,
				Persona: persona,
				Command: env.Command,
			})
		}
		return
	}

	// Not JSON: a legacy plain-text user message.
	a.appendHistoryTurn(Turn{
		Content: content,
		Raw:     content,
		Kind:    KindText,
		Sender:  SenderUser,
		Persona: rec.Persona,
	})
}

// stripSystemMarker returns the displayable payload of a SYSTEM-marked
// record. keep is false when the record carries nothing to show.
func stripSystemMarker(content string) (payload string, keep bool) {
	idx := strings.Index(content, "]\n")
	if idx < 0 {
		return "", false
	}
	payload = content[idx+2:]
	if strings.HasPrefix(payload, "SYSTEM") {
		return "", false
	}
	return payload, true
}

func (a *Assembler) appendHistoryTurn(t Turn) {
	a.mu.Lock()
	if t.Persona == "" {
		t.Persona = a.personaFallback
	}
	a.turns = append(a.turns, t)
	idx := len(a.turns) - 1
	added := a.onTurnAdded
	a.mu.Unlock()
	notify(added, idx)
}
