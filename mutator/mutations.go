package mutator

import (
	"math/rand"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// Repeat duplicates a step which is already part of the trace at a random
// position.
type Repeat struct {
	limits loom.Limits
}

// NewRepeat creates a Repeat mutator bounded by limits.MaxTraceSteps.
func NewRepeat(limits loom.Limits) *Repeat {
	return &Repeat{limits: limits}
}

func (m *Repeat) Name() string {
	return "RepeatMutator"
}

func (m *Repeat) Mutate(r *rand.Rand, tr *trace.Trace) (Result, error) {
	length := len(tr.Steps)
	if length == 0 {
		return Skipped, nil
	}
	if max := m.limits.MaxTraceSteps; max > 0 && length >= max {
		return Skipped, nil
	}
	insert := r.Intn(length)
	step := tr.Steps[r.Intn(length)].Clone()

	tr.Steps = append(tr.Steps, trace.Step{})
	copy(tr.Steps[insert+1:], tr.Steps[insert:])
	tr.Steps[insert] = step

	emitApplied(m.Name(), tr)
	return Mutated, nil
}

// Skip removes a random step.
type Skip struct{}

// NewSkip creates a Skip mutator.
func NewSkip() *Skip {
	return &Skip{}
}

func (m *Skip) Name() string {
	return "SkipMutator"
}

func (m *Skip) Mutate(r *rand.Rand, tr *trace.Trace) (Result, error) {
	length := len(tr.Steps)
	if length == 0 {
		return Skipped, nil
	}
	remove := r.Intn(length)
	tr.Steps = append(tr.Steps[:remove], tr.Steps[remove+1:]...)

	emitApplied(m.Name(), tr)
	return Mutated, nil
}

// ReplaceReuse replaces a random sub-term with a clone of another sub-term of
// the same return type, possibly from a different step's recipe. Type
// preservation holds by construction.
type ReplaceReuse struct {
	limits loom.Limits
}

// NewReplaceReuse creates a ReplaceReuse mutator bounded by
// limits.MaxTermSize.
func NewReplaceReuse(limits loom.Limits) *ReplaceReuse {
	return &ReplaceReuse{limits: limits}
}

func (m *ReplaceReuse) Name() string {
	return "ReplaceReuseMutator"
}

func (m *ReplaceReuse) Mutate(r *rand.Rand, tr *trace.Trace) (Result, error) {
	replacementSite, ok := chooseSite(r, tr, nil)
	if !ok {
		return Skipped, nil
	}
	replacement := nodeAt(tr, replacementSite).Clone()

	targetSite, ok := chooseSite(r, tr, func(te *algebra.TermEval) bool {
		return te.TypeShape() == replacement.TypeShape()
	})
	if !ok {
		return Skipped, nil
	}
	if max := m.limits.MaxTermSize; max > 0 {
		root := tr.InputRecipes()[targetSite.recipe]
		target := nodeAt(tr, targetSite)
		if root.Size()-target.Size()+replacement.Size() > max {
			return Skipped, nil
		}
	}
	nodeAt(tr, targetSite).Mutate(replacement)

	emitApplied(m.Name(), tr)
	return Mutated, nil
}

// ReplaceMatch swaps the function symbol of a random application for a
// different symbol of identical shape drawn from the signature, keeping the
// children. An example is replacing one constant with another, or fn_add
// with fn_sub. Types are identical by the compatibility rule.
type ReplaceMatch struct {
	sig *algebra.Signature
}

// NewReplaceMatch creates a ReplaceMatch mutator drawing from sig.
func NewReplaceMatch(sig *algebra.Signature) *ReplaceMatch {
	return &ReplaceMatch{sig: sig}
}

func (m *ReplaceMatch) Name() string {
	return "ReplaceMatchMutator"
}

func (m *ReplaceMatch) Mutate(r *rand.Rand, tr *trace.Trace) (Result, error) {
	requested, ok := m.sig.Sample(r)
	if !ok {
		return Skipped, nil
	}

	targetSite, ok := chooseSite(r, tr, func(te *algebra.TermEval) bool {
		return te.Term.IsApplication() && te.Term.Func.Shape().Compatible(requested.Shape())
	})
	if !ok {
		return Skipped, nil
	}
	nodeAt(tr, targetSite).Term.Func.ChangeFunction(requested.Shape(), requested.Dynamic())

	emitApplied(m.Name(), tr)
	return Mutated, nil
}

// RemoveAndLift removes a sub-term whose function has exactly one argument of
// its own return type, attaching the orphaned child to the parent. Types are
// preserved by the constraint.
type RemoveAndLift struct{}

// NewRemoveAndLift creates a RemoveAndLift mutator.
func NewRemoveAndLift() *RemoveAndLift {
	return &RemoveAndLift{}
}

func (m *RemoveAndLift) Name() string {
	return "RemoveAndLiftMutator"
}

func (m *RemoveAndLift) Mutate(r *rand.Rand, tr *trace.Trace) (Result, error) {
	targetSite, ok := chooseSite(r, tr, func(te *algebra.TermEval) bool {
		if !te.Term.IsApplication() {
			return false
		}
		shape := te.Term.Func.Shape()
		return shape.Arity() == 1 && shape.Args[0] == shape.Ret
	})
	if !ok {
		return Skipped, nil
	}
	target := nodeAt(tr, targetSite)
	target.Mutate(target.Term.Args[0])

	emitApplied(m.Name(), tr)
	return Mutated, nil
}
