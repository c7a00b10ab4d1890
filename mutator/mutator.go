// Package mutator rewrites attacker traces between fuzzer iterations. The
// five structural mutators respect the term algebra's type discipline so that
// mutated traces stay mostly well-typed; ordering of mutators within a fuzz
// iteration is the harness's business, not this package's.
package mutator

import (
	"context"
	"math/rand"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// Result reports whether a mutator changed the trace.
type Result int

const (
	// Skipped means no candidate rewrite site existed.
	Skipped Result = iota

	// Mutated means the trace was rewritten.
	Mutated
)

func (r Result) String() string {
	if r == Mutated {
		return "mutated"
	}
	return "skipped"
}

// Mutator rewrites a trace in place. Mutators must not panic: a trace with no
// candidate site yields Skipped.
type Mutator interface {
	Name() string
	Mutate(r *rand.Rand, tr *trace.Trace) (Result, error)
}

// All returns the standard mutator tuple in its canonical order.
func All(sig *algebra.Signature, limits loom.Limits) []Mutator {
	return []Mutator{
		NewRepeat(limits),
		NewSkip(),
		NewReplaceReuse(limits),
		NewReplaceMatch(sig),
		NewRemoveAndLift(),
	}
}

// emitApplied signals a successful rewrite.
func emitApplied(name string, tr *trace.Trace) {
	loom.EmitMutationApplied(context.Background(), name, len(tr.Steps))
}
