package transcript

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// markRenderer prefixes rendered output so tests can tell rendered content
// apart from raw text.
type markRenderer struct{}

func (markRenderer) Render(text string) (string, error) {
	return "R:" + text, nil
}

// failRenderer simulates a markdown engine blowing up on malformed input.
type failRenderer struct{}

func (failRenderer) Render(text string) (string, error) {
	return "", errors.New("malformed fenced code block")
}

func sayEnvelope(text string) Envelope {
	params, _ := json.Marshal(map[string]string{"text": text})
	return Envelope{Command: "say", Params: params}
}

func TestPartialReplacesNotAppends(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)

	a.OnPartialCommand(sayEnvelope("a"))
	a.OnPartialCommand(sayEnvelope("ab"))

	turns := a.Turns()
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	if turns[0].Content != "R:ab" {
		t.Errorf("content = %q, want %q (replace, not append)", turns[0].Content, "R:ab")
	}
	if turns[0].Sender != SenderAI {
		t.Errorf("sender = %q, want ai", turns[0].Sender)
	}
}

func TestRunningCommandForcesTurnBoundary(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)

	a.OnPartialCommand(sayEnvelope("first"))
	a.OnRunningCommand()
	a.OnPartialCommand(sayEnvelope("second"))

	turns := a.Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2 (running_command must force a boundary)", len(turns))
	}
	if turns[0].Content != "R:first" || turns[1].Content != "R:second" {
		t.Errorf("turns = %q / %q", turns[0].Content, turns[1].Content)
	}
	if turns[0].Sender != SenderAI || turns[1].Sender != SenderAI {
		t.Error("both turns should be sender=ai")
	}
}

func TestCommandResultClearsAllSpinners(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)

	a.AppendUserTurn("question")
	a.OnPartialCommand(sayEnvelope("working on it"))
	a.OnRunningCommand()
	a.OnPartialCommand(sayEnvelope("still going"))
	a.OnRunningCommand()

	spinning := 0
	for _, turn := range a.Turns() {
		if turn.Spinning {
			spinning++
		}
	}
	if spinning == 0 {
		t.Fatal("expected at least one spinning turn before command_result")
	}

	a.OnCommandResult(Envelope{Command: "write_file"})

	for i, turn := range a.Turns() {
		if turn.Spinning {
			t.Errorf("turn %d still spinning after command_result", i)
		}
	}
}

func TestUnknownCommandParamsNormalization(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)

	a.OnPartialCommand(Envelope{
		Command: "run_code",
		Params:  json.RawMessage(`["x","y"]`),
	})

	turns := a.Turns()
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	content := turns[0].Content
	if !strings.Contains(content, `command="run_code"`) {
		t.Errorf("placeholder missing command name: %q", content)
	}
	escaped := `{&#34;val&#34;: [&#34;x&#34;,&#34;y&#34;]}`
	if !strings.Contains(content, escaped) {
		t.Errorf("placeholder missing escaped normalized params %q: %q", escaped, content)
	}
	if turns[0].Kind != KindCommand {
		t.Errorf("kind = %v, want KindCommand", turns[0].Kind)
	}
}

func TestScenarioFullExchange(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)

	a.AppendUserTurn("Hello")
	turns := a.Turns()
	if len(turns) != 1 || turns[0].Sender != SenderUser || turns[0].Content != "Hello" {
		t.Fatalf("after user send: %+v", turns)
	}

	a.OnPartialCommand(sayEnvelope("Hi there"))
	turns = a.Turns()
	if len(turns) != 2 {
		t.Fatalf("after first partial: got %d turns, want 2", len(turns))
	}
	if turns[1].Sender != SenderAI || turns[1].Content != "R:Hi there" {
		t.Errorf("turn 2 = %+v", turns[1])
	}

	a.OnRunningCommand()
	a.OnPartialCommand(sayEnvelope("Second reply"))
	turns = a.Turns()
	if len(turns) != 3 {
		t.Fatalf("after boundary partial: got %d turns, want 3", len(turns))
	}
	if turns[2].Content != "R:Second reply" {
		t.Errorf("turn 3 content = %q", turns[2].Content)
	}
	if turns[1].Content != "R:Hi there" {
		t.Errorf("turn 2 mutated after boundary: %q", turns[1].Content)
	}

	a.OnCommandResult(Envelope{Command: "say"})
	for i, turn := range a.Turns() {
		if turn.Spinning {
			t.Errorf("turn %d spinning after result", i)
		}
	}
}

func TestRenderFailureFallsBackToPreformatted(t *testing.T) {
	a := NewAssembler(failRenderer{}, nil)

	raw := "```go\nbroken fence"
	a.OnPartialCommand(sayEnvelope(raw))

	turns := a.Turns()
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	content := turns[0].Content
	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(content, line) {
			t.Errorf("fallback lost raw line %q: %q", line, content)
		}
	}
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "    ") {
			t.Errorf("fallback line not preformatted: %q", line)
		}
	}
}

func TestCommandResultInvokesRegisteredHandler(t *testing.T) {
	reg := NewRegistry()
	var got json.RawMessage
	reg.Register("run_code", func(args json.RawMessage) { got = args })
	// Last registration wins.
	reg.Register("run_code", func(args json.RawMessage) { got = append(json.RawMessage("win:"), args...) })

	a := NewAssembler(markRenderer{}, reg)
	a.OnCommandResult(Envelope{Command: "run_code", Args: json.RawMessage(`{"output":"ok"}`)})

	if string(got) != `win:{"output":"ok"}` {
		t.Errorf("handler args = %q", got)
	}

	// Unknown commands are a no-op, not an error.
	a.OnCommandResult(Envelope{Command: "never_registered"})
}

func TestFinishedClearsTaskHandleOnly(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)
	a.AppendUserTurn("hi")
	a.SetTaskID("task-9")

	a.OnFinished()

	if a.TaskID() != "" {
		t.Errorf("task id = %q, want empty", a.TaskID())
	}
	if a.Len() != 1 {
		t.Errorf("turn count changed: %d", a.Len())
	}
}

func TestImageEventAppendsFreshTurn(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)
	a.OnPartialCommand(sayEnvelope("describing"))

	a.OnImage("http://host/img.png")

	turns := a.Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2 (image never merges)", len(turns))
	}
	if turns[1].Kind != KindImage || turns[1].Raw != "http://host/img.png" {
		t.Errorf("image turn = %+v", turns[1])
	}

	// The image turn stays immutable: the next partial opens a new turn.
	a.OnPartialCommand(sayEnvelope("after image"))
	turns = a.Turns()
	if len(turns) != 3 {
		t.Fatalf("got %d turns after post-image partial, want 3", len(turns))
	}
	if turns[1].Kind != KindImage {
		t.Error("image turn was overwritten by a later partial")
	}
}

func TestShowAvatarDerivedFromPreviousSender(t *testing.T) {
	turns := []Turn{
		{Sender: SenderUser},
		{Sender: SenderAI},
		{Sender: SenderAI},
		{Sender: SenderUser},
	}
	want := []bool{true, true, false, true}
	for i, w := range want {
		if got := ShowAvatar(turns, i); got != w {
			t.Errorf("ShowAvatar(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestTurnAddedHook(t *testing.T) {
	a := NewAssembler(markRenderer{}, nil)
	var added []int
	a.SetTurnAddedHook(func(i int) { added = append(added, i) })

	a.AppendUserTurn("one")
	a.OnPartialCommand(sayEnvelope("two"))
	a.OnPartialCommand(sayEnvelope("two more")) // same turn, no new notification

	if len(added) != 2 || added[0] != 0 || added[1] != 1 {
		t.Errorf("added indices = %v, want [0 1]", added)
	}
}

func TestStreamTextFallbackStringifiesParams(t *testing.T) {
	env := Envelope{Command: "say", Params: json.RawMessage(`{"other":"field"}`)}
	if got := env.streamText(); got != `{"other":"field"}` {
		t.Errorf("streamText = %q", got)
	}
}
