package chat

import (
	"context"

	"github.com/runvnc/mindroot-tui/internal/debuglog"
	"github.com/runvnc/mindroot-tui/internal/events"
	"github.com/runvnc/mindroot-tui/internal/transcript"
)

// loggingHandler forwards stream events to the assembler and records
// them in the raw debug log.
type loggingHandler struct {
	asm *transcript.Assembler
	log *debuglog.Logger
}

func (h *loggingHandler) OnImage(url string) {
	h.log.Event(events.EventImage, []byte(url))
	h.asm.OnImage(url)
}

func (h *loggingHandler) OnPartialCommand(env transcript.Envelope) {
	h.log.Event(events.EventPartialCommand, env.Params)
	h.asm.OnPartialCommand(env)
}

func (h *loggingHandler) OnRunningCommand() {
	h.log.Event(events.EventRunningCommand, nil)
	h.asm.OnRunningCommand()
}

func (h *loggingHandler) OnCommandResult(env transcript.Envelope) {
	h.log.Event(events.EventCommandResult, env.Args)
	h.asm.OnCommandResult(env)
}

func (h *loggingHandler) OnFinished() {
	h.log.Event(events.EventFinishedChat, nil)
	h.asm.OnFinished()
}

// runStream subscribes to the session event stream and blocks until it
// ends. A nil return means clean shutdown (context cancelled); anything
// else is terminal for this view instance.
func runStream(ctx context.Context, url string, asm *transcript.Assembler, log *debuglog.Logger) error {
	stream := events.New(url, &loggingHandler{asm: asm, log: log})
	stream.SetLogf(log.Errorf)
	return stream.Run(ctx)
}
