package transcript

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Command names with a first-class text form. Everything else goes through
// the generic placeholder path.
const (
	cmdSay       = "say"
	cmdEncodedMD = "json_encoded_md"
)

// Envelope is the discriminated command payload arriving over the stream
// and inside JSON-encoded history records. Params carries the
// command-specific body for partial events; Args carries result output.
type Envelope struct {
	Command string          `json:"command"`
	Event   string          `json:"event,omitempty"`
	Persona string          `json:"persona,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// textParams is the subset of say/json_encoded_md params we display.
type textParams struct {
	Text     *string `json:"text"`
	Markdown *string `json:"markdown"`
}

// isTextCommand reports whether the envelope's command carries markdown
// text in its params.
func (e *Envelope) isTextCommand() bool {
	return e.Command == cmdSay || e.Command == cmdEncodedMD
}

// streamText extracts the accumulated text of a live say/json_encoded_md
// partial. The source resends the whole text each time, so the result is
// the full content, not a delta. Falls back to the raw params when neither
// text key is present.
func (e *Envelope) streamText() string {
	var p textParams
	if err := json.Unmarshal(e.Params, &p); err == nil {
		if p.Text != nil {
			return *p.Text
		}
		if p.Markdown != nil {
			return *p.Markdown
		}
	}
	return string(e.Params)
}

// historyText extracts the displayable text of a history envelope. Unlike
// the live path there is no fallback: envelopes without a say.text or
// json_encoded_md.markdown field are bookkeeping and produce no turn.
func (e *Envelope) historyText() (string, bool) {
	var p textParams
	if err := json.Unmarshal(e.Params, &p); err != nil {
		return "", false
	}
	switch {
	case e.Command == cmdSay && p.Text != nil:
		return *p.Text, true
	case e.Command == cmdEncodedMD && p.Markdown != nil:
		return *p.Markdown, true
	}
	return "", false
}

// normalizeParams wraps array, string, and object params in {"val": ...}
// so placeholder consumers always receive an object.
func normalizeParams(params json.RawMessage) string {
	trimmed := strings.TrimSpace(string(params))
	if trimmed == "" {
		trimmed = "null"
	}
	switch trimmed[0] {
	case '[', '"', '{':
		return `{"val": ` + trimmed + `}`
	}
	return trimmed
}

// commandPlaceholder builds the declarative marker for a command without a
// text form. The parameter blob is attribute-escaped so external renderers
// keyed by command name can recover it verbatim.
func commandPlaceholder(command, paramsJSON string) string {
	return fmt.Sprintf("<command-output command=%q params=\"%s\"></command-output>",
		command, html.EscapeString(paramsJSON))
}
