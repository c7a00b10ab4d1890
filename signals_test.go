package loom

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitExecuteStart(_ *testing.T) {
	EmitExecuteStart(context.Background(), 3)
}

func TestEmitExecuteComplete_Success(_ *testing.T) {
	EmitExecuteComplete(context.Background(), "success", 10*time.Millisecond, nil)
}

func TestEmitExecuteComplete_Error(_ *testing.T) {
	EmitExecuteComplete(context.Background(), "failure", 10*time.Millisecond, errors.New("test error"))
}

func TestEmitStepEvents(_ *testing.T) {
	EmitStepInput(context.Background(), "0", 1, 64)
	EmitStepOutput(context.Background(), "0", 2, 128)
}

func TestEmitMutationApplied(_ *testing.T) {
	EmitMutationApplied(context.Background(), "SkipMutator", 2)
}

func TestEmitPayloadEvents(_ *testing.T) {
	EmitPayloadSpliced(context.Background(), 4, 8)
	EmitPayloadAmbiguous(context.Background(), 4, 16, "fn_pair(...)")
	EmitPayloadAnchorLost(context.Background(), "fn_pair(...)")
}

func TestSignalVariables(t *testing.T) {
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalExecuteStart", SignalExecuteStart},
		{"SignalExecuteComplete", SignalExecuteComplete},
		{"SignalStepInput", SignalStepInput},
		{"SignalStepOutput", SignalStepOutput},
		{"SignalMutationApplied", SignalMutationApplied},
		{"SignalPayloadSpliced", SignalPayloadSpliced},
		{"SignalPayloadAmbiguous", SignalPayloadAmbiguous},
		{"SignalPayloadAnchorLost", SignalPayloadAnchorLost},
	}
	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}
