package transcript

import (
	"strings"
	"sync"
)

// Renderer turns raw markdown into display-ready text. Implementations
// must not panic; a returned error makes the assembler fall back to a
// preformatted block around the raw text.
type Renderer interface {
	Render(text string) (string, error)
}

// State is the assembler's position in the streaming protocol.
type State int

const (
	// StateIdle means no AI turn is in flight.
	StateIdle State = iota
	// StateStreamingAI means the last turn is an open AI turn that
	// partial events keep replacing.
	StateStreamingAI
	// StateAwaitingBoundary means a running-command signal was seen; the
	// next content-bearing event must open a new turn even though the
	// sender has not changed. This is how consecutive tool invocations
	// are visually separated.
	StateAwaitingBoundary
)

// Assembler owns the ordered turn sequence for one chat session and
// translates history records and live stream events into it.
//
// All mutations are serialized by an internal mutex: the stream client
// and the TUI run on different goroutines, and the turn sequence has a
// single owner.
type Assembler struct {
	mu    sync.Mutex
	turns []Turn
	state State

	taskID string

	render   Renderer
	registry *Registry

	personaFallback string

	// onTurnAdded is the external bookkeeping hook, called with the new
	// turn's index after it is appended.
	onTurnAdded func(index int)
	// onUpdate fires after any content change so the host can evaluate
	// autoscroll.
	onUpdate func()
	// logf receives recoverable event-handling problems.
	logf func(format string, args ...any)
}

// NewAssembler creates an assembler using the given renderer and command
// registry. The registry may be shared with plugin code that registers
// result handlers.
func NewAssembler(render Renderer, registry *Registry) *Assembler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Assembler{
		render:          render,
		registry:        registry,
		personaFallback: "default",
	}
}

// SetPersonaFallback sets the persona used when an event carries none.
func (a *Assembler) SetPersonaFallback(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p != "" {
		a.personaFallback = p
	}
}

// SetTurnAddedHook registers the turn-added notification callback.
func (a *Assembler) SetTurnAddedHook(fn func(index int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTurnAdded = fn
}

// SetUpdateHook registers the content-change callback.
func (a *Assembler) SetUpdateHook(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = fn
}

// SetLogf registers a destination for recoverable event errors.
func (a *Assembler) SetLogf(fn func(format string, args ...any)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logf = fn
}

// Turns returns a snapshot copy of the turn sequence.
func (a *Assembler) Turns() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.turns))
	copy(out, a.turns)
	return out
}

// Len returns the number of turns.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.turns)
}

// State returns the current streaming state.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TaskID returns the active task handle, empty when none.
func (a *Assembler) TaskID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.taskID
}

// SetTaskID records the task handle returned by an outbound send.
func (a *Assembler) SetTaskID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taskID = id
}

// AppendUserTurn appends a new immutable user turn for a locally submitted
// message. The outbound send itself is owned by the caller; the turn is
// optimistic and stays even if the send later fails.
func (a *Assembler) AppendUserTurn(content string) {
	a.mu.Lock()
	a.turns = append(a.turns, Turn{
		Content: content,
		Raw:     content,
		Kind:    KindText,
		Sender:  SenderUser,
		Persona: a.personaFallback,
	})
	idx := len(a.turns) - 1
	a.state = StateIdle
	added, updated := a.onTurnAdded, a.onUpdate
	a.mu.Unlock()

	notify(added, idx)
	signal(updated)
}

// OnPartialCommand handles a partial_command event: it opens a new AI turn
// at a boundary and replaces the open turn's content with the freshly
// rendered full text (the source resends the whole accumulated text, not
// a delta).
func (a *Assembler) OnPartialCommand(env Envelope) {
	a.mu.Lock()

	addedIdx := -1
	if a.needsBoundary() {
		persona := env.Persona
		if persona == "" {
			persona = a.personaFallback
		}
		a.turns = append(a.turns, Turn{Sender: SenderAI, Persona: persona})
		addedIdx = len(a.turns) - 1
	}
	a.state = StateStreamingAI

	last := &a.turns[len(a.turns)-1]
	if env.isTextCommand() {
		text := env.streamText()
		last.Content = a.renderOrFallback(text)
		last.Raw = text
		last.Kind = KindMarkdown
		last.Command = env.Command
	} else {
		blob := normalizeParams(env.Params)
		last.Content = commandPlaceholder(env.Command, blob)
		last.Raw = blob
		last.Kind = KindCommand
		last.Command = env.Command
	}

	added, updated := a.onTurnAdded, a.onUpdate
	a.mu.Unlock()

	if addedIdx >= 0 {
		notify(added, addedIdx)
	}
	signal(updated)
}

// OnRunningCommand handles a running_command event: the last turn shows a
// spinner and the next partial must open a fresh turn.
func (a *Assembler) OnRunningCommand() {
	a.mu.Lock()
	if len(a.turns) > 0 {
		a.turns[len(a.turns)-1].Spinning = true
	}
	a.state = StateAwaitingBoundary
	updated := a.onUpdate
	a.mu.Unlock()

	signal(updated)
}

// OnCommandResult handles a command_result event: the registered handler
// for the command (if any) runs as a fire-and-forget side effect, then the
// spinner is cleared on every turn. The blanket clear is deliberate: a
// result ends the busy period for the whole visible transcript.
func (a *Assembler) OnCommandResult(env Envelope) {
	if h := a.registry.Lookup(env.Command); h != nil {
		h(env.Args)
	}

	a.mu.Lock()
	for i := range a.turns {
		a.turns[i].Spinning = false
	}
	updated := a.onUpdate
	a.mu.Unlock()

	signal(updated)
}

// OnFinished handles a finished_chat event. It only clears the task
// handle; the turn sequence is untouched.
func (a *Assembler) OnFinished() {
	a.mu.Lock()
	a.taskID = ""
	a.mu.Unlock()
}

// OnImage appends a fresh AI turn referencing the image. Image events
// never merge into an open streaming turn, and the next partial starts a
// new turn so the image stays immutable.
func (a *Assembler) OnImage(url string) {
	a.mu.Lock()
	a.turns = append(a.turns, Turn{
		Content: a.renderOrFallback("![image](" + url + ")"),
		Raw:     url,
		Kind:    KindImage,
		Sender:  SenderAI,
		Persona: a.personaFallback,
	})
	idx := len(a.turns) - 1
	a.state = StateAwaitingBoundary
	added, updated := a.onTurnAdded, a.onUpdate
	a.mu.Unlock()

	notify(added, idx)
	signal(updated)
}

// Rerender re-renders every turn from its raw source, e.g. after the
// renderer's width changed on a terminal resize. Content is still replaced
// wholesale per turn.
func (a *Assembler) Rerender() {
	a.mu.Lock()
	for i := range a.turns {
		t := &a.turns[i]
		switch t.Kind {
		case KindMarkdown:
			t.Content = a.renderOrFallback(t.Raw)
		case KindImage:
			t.Content = a.renderOrFallback("![image](" + t.Raw + ")")
		}
	}
	updated := a.onUpdate
	a.mu.Unlock()

	signal(updated)
}

// needsBoundary reports whether the next content-bearing event must open a
// new AI turn. Callers hold the lock.
func (a *Assembler) needsBoundary() bool {
	if a.state == StateIdle || a.state == StateAwaitingBoundary {
		return true
	}
	return len(a.turns) == 0 || a.turns[len(a.turns)-1].Sender != SenderAI
}

// renderOrFallback renders markdown, degrading to a preformatted block on
// failure so a bad document never crashes the assembler.
func (a *Assembler) renderOrFallback(text string) string {
	if a.render == nil {
		return text
	}
	out, err := a.render.Render(text)
	if err != nil {
		if a.logf != nil {
			a.logf("render failed, using preformatted fallback: %v", err)
		}
		return Preformat(text)
	}
	return out
}

// Preformat wraps raw text in a preformatted block: every line indented,
// nothing interpreted.
func Preformat(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func notify(fn func(int), idx int) {
	if fn != nil {
		fn(idx)
	}
}

func signal(fn func()) {
	if fn != nil {
		fn()
	}
}
