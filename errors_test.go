package loom

import (
	"errors"
	"strings"
	"testing"
)

func TestFnErrorUnwrapsSentinels(t *testing.T) {
	err := WrongArity("fn_add", 1, 2)
	if !errors.Is(err, ErrFn) {
		t.Errorf("WrongArity should unwrap to ErrFn")
	}
	if !errors.Is(err, ErrWrongArity) {
		t.Errorf("WrongArity should unwrap to ErrWrongArity")
	}
	if errors.Is(err, ErrWrongType) {
		t.Errorf("WrongArity must not unwrap to ErrWrongType")
	}

	err = WrongType("fn_add", 0, "uint32", "string")
	if !errors.Is(err, ErrWrongType) || !errors.Is(err, ErrFn) {
		t.Errorf("WrongType should unwrap to ErrWrongType and ErrFn")
	}
}

func TestFnErrorKinds(t *testing.T) {
	tests := []struct {
		err  *FnError
		kind FnKind
		want string
	}{
		{FnUnknownf("bad input"), FnUnknown, "unknown"},
		{FnMalformedf("short buffer"), FnMalformed, "malformed"},
		{FnCryptof("bad tag"), FnCrypto, "crypto"},
	}
	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("kind = %v, want %v", tt.err.Kind, tt.kind)
		}
		if !strings.Contains(tt.err.Error(), tt.want) {
			t.Errorf("Error() = %q, want it to mention %q", tt.err.Error(), tt.want)
		}
		if !errors.Is(tt.err, ErrFn) {
			t.Errorf("%v should unwrap to ErrFn", tt.err)
		}
	}
}

func TestTraceErrorWrappers(t *testing.T) {
	cause := errors.New("socket closed")

	tests := []struct {
		err      error
		sentinel error
	}{
		{NewTermErrorf("unable to find variable x"), ErrTerm},
		{NewAgentError("0", cause), ErrAgent},
		{NewStreamError("deframe", cause), ErrStream},
		{NewExtractionError(cause), ErrExtraction},
		{NewSecurityClaimError("auth bypass"), ErrSecurityClaim},
		{NewUnknownSymbolError("fn_gone"), ErrUnknownSymbol},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("%v should unwrap to %v", tt.err, tt.sentinel)
		}
	}

	if !errors.Is(NewAgentError("0", cause), cause) {
		t.Errorf("AgentError should keep its cause in the chain")
	}
}

func TestAgentErrorCarriesCrash(t *testing.T) {
	err := NewAgentError("1", ErrCrashed)
	if !errors.Is(err, ErrCrashed) {
		t.Errorf("a crash cause should survive wrapping")
	}
	if !errors.Is(err, ErrAgent) {
		t.Errorf("a wrapped crash is still an agent error")
	}
}
