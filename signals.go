package loom

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for engine events.
var (
	SignalExecuteStart      = capitan.NewSignal("loom.execute.start", "Trace execution beginning")
	SignalExecuteComplete   = capitan.NewSignal("loom.execute.complete", "Trace execution finished")
	SignalStepInput         = capitan.NewSignal("loom.step.input", "Input step delivered to agent")
	SignalStepOutput        = capitan.NewSignal("loom.step.output", "Output step drained from agent")
	SignalMutationApplied   = capitan.NewSignal("loom.mutation.applied", "Structural mutation applied")
	SignalPayloadSpliced    = capitan.NewSignal("loom.payload.spliced", "Payload spliced into concrete encoding")
	SignalPayloadAmbiguous  = capitan.NewSignal("loom.payload.ambiguous", "Payload anchor matched more than once")
	SignalPayloadAnchorLost = capitan.NewSignal("loom.payload.anchor_lost", "Payload anchor missing from encoding")
)

// Keys for typed event data.
var (
	KeyAgent    = capitan.NewStringKey("agent")
	KeyStep     = capitan.NewIntKey("step")
	KeySteps    = capitan.NewIntKey("steps")
	KeyMutator  = capitan.NewStringKey("mutator")
	KeyTerm     = capitan.NewStringKey("term")
	KeySize     = capitan.NewIntKey("size")
	KeyOffset   = capitan.NewIntKey("offset")
	KeySecond   = capitan.NewIntKey("second_offset")
	KeyStatus   = capitan.NewStringKey("status")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

// EmitExecuteStart emits an event when a trace execution begins.
func EmitExecuteStart(ctx context.Context, steps int) {
	capitan.Emit(ctx, SignalExecuteStart, KeySteps.Field(steps))
}

// EmitExecuteComplete emits an event when a trace execution finishes.
func EmitExecuteComplete(ctx context.Context, status string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyStatus.Field(status),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalExecuteComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalExecuteComplete, fields...)
}

// EmitStepInput emits an event when an input step delivers bytes to an agent.
func EmitStepInput(ctx context.Context, agent string, step, size int) {
	capitan.Emit(ctx, SignalStepInput,
		KeyAgent.Field(agent),
		KeyStep.Field(step),
		KeySize.Field(size),
	)
}

// EmitStepOutput emits an event when an output step drains bytes from an agent.
func EmitStepOutput(ctx context.Context, agent string, step, size int) {
	capitan.Emit(ctx, SignalStepOutput,
		KeyAgent.Field(agent),
		KeyStep.Field(step),
		KeySize.Field(size),
	)
}

// EmitMutationApplied emits an event when a mutator rewrites a trace.
func EmitMutationApplied(ctx context.Context, mutator string, steps int) {
	capitan.Emit(ctx, SignalMutationApplied,
		KeyMutator.Field(mutator),
		KeySteps.Field(steps),
	)
}

// EmitPayloadSpliced emits an event when a payload replaces its anchor in the
// concrete encoding.
func EmitPayloadSpliced(ctx context.Context, offset, size int) {
	capitan.Emit(ctx, SignalPayloadSpliced,
		KeyOffset.Field(offset),
		KeySize.Field(size),
	)
}

// EmitPayloadAmbiguous emits a warning event when a payload anchor occurs more
// than once in the concrete encoding.
func EmitPayloadAmbiguous(ctx context.Context, offset, second int, term string) {
	capitan.Emit(ctx, SignalPayloadAmbiguous,
		KeyOffset.Field(offset),
		KeySecond.Field(second),
		KeyTerm.Field(term),
	)
}

// EmitPayloadAnchorLost emits an error event when a payload anchor is absent
// from the concrete encoding and the payload is skipped.
func EmitPayloadAnchorLost(ctx context.Context, term string) {
	capitan.Error(ctx, SignalPayloadAnchorLost,
		KeyTerm.Field(term),
		KeyError.Field(ErrPayloadAnchorLost),
	)
}
