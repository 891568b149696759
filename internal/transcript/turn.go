// Package chat implements the turn assembly pipeline: it interprets
// history payloads and live stream events from a MindRoot backend into an
// ordered sequence of renderable chat turns.
package transcript

// Sender identifies which side of the conversation produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// TurnKind tags how a turn's raw source should be interpreted when the
// transcript is re-rendered (resize) or exported.
type TurnKind int

const (
	// KindText is plain user text, displayed without markdown parsing.
	KindText TurnKind = iota
	// KindMarkdown is agent output rendered through the markdown renderer.
	KindMarkdown
	// KindCommand is structured output from a command without a text form,
	// displayed as a placeholder marker keyed by command name.
	KindCommand
	// KindImage is an image reference delivered by an image event.
	KindImage
)

// Turn is one renderable unit of the transcript.
//
// Turns are append-only except for the last one, which stays open for
// wholesale content replacement while a streaming response is arriving.
// Once a new turn begins, all earlier turns are immutable.
type Turn struct {
	// Content is the display-ready form. It is replaced as a whole on
	// every update, never edited in place.
	Content string

	// Raw is the source the content was rendered from: markdown text,
	// the normalized command parameter blob, or an image URL. Kept so
	// the transcript can be re-rendered at a new width and exported.
	Raw string

	Kind    TurnKind
	Sender  Sender
	Persona string

	// Command is set for KindCommand turns.
	Command string

	// Spinning reports an in-flight command executing for this turn.
	Spinning bool
}

// ShowAvatar reports whether the turn at index i should display its
// persona avatar: the first turn always does, later turns only when the
// previous turn came from a different sender.
func ShowAvatar(turns []Turn, i int) bool {
	if i < 0 || i >= len(turns) {
		return false
	}
	if i == 0 {
		return true
	}
	return turns[i-1].Sender != turns[i].Sender
}
