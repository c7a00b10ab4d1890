package trace

import (
	"context"
	"time"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
)

// ActionKind distinguishes the two step variants.
type ActionKind uint8

const (
	// ActionInput evaluates a recipe and delivers the bytes to the agent.
	ActionInput ActionKind = iota

	// ActionOutput drains the agent's pending bytes and extracts knowledge.
	ActionOutput
)

// Step binds one agent to one action. Input steps carry the recipe — the
// attacker's synthesized message as a term.
type Step struct {
	Agent  agent.Name
	Kind   ActionKind
	Recipe *algebra.TermEval // set iff Kind == ActionInput
}

// InputStep builds an input step delivering recipe to name.
func InputStep(name agent.Name, recipe *algebra.TermEval) Step {
	return Step{Agent: name, Kind: ActionInput, Recipe: recipe}
}

// OutputStep builds an output step draining name.
func OutputStep(name agent.Name) Step {
	return Step{Agent: name, Kind: ActionOutput}
}

// Clone deep-copies the step.
func (s Step) Clone() Step {
	clone := s
	if s.Recipe != nil {
		clone.Recipe = s.Recipe.Clone()
	}
	return clone
}

// Equal reports structural equality.
func (s Step) Equal(o Step) bool {
	if s.Agent != o.Agent || s.Kind != o.Kind {
		return false
	}
	if (s.Recipe == nil) != (o.Recipe == nil) {
		return false
	}
	return s.Recipe == nil || s.Recipe.Equal(o.Recipe)
}

// Trace is the ordered program the attacker runs: agent descriptors, the
// steps over them, and any prior traces that must run first to seed the
// knowledge store. Traces are structurally immutable during evaluation and
// rewritten between fuzzer iterations.
type Trace struct {
	PriorTraces []*Trace
	Descriptors []agent.Descriptor
	Steps       []Step
}

// Clone deep-copies the trace.
func (t *Trace) Clone() *Trace {
	clone := &Trace{
		Descriptors: append([]agent.Descriptor(nil), t.Descriptors...),
		Steps:       make([]Step, len(t.Steps)),
	}
	for _, prior := range t.PriorTraces {
		clone.PriorTraces = append(clone.PriorTraces, prior.Clone())
	}
	for i, s := range t.Steps {
		clone.Steps[i] = s.Clone()
	}
	return clone
}

// Equal reports structural equality.
func (t *Trace) Equal(o *Trace) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.PriorTraces) != len(o.PriorTraces) ||
		len(t.Descriptors) != len(o.Descriptors) ||
		len(t.Steps) != len(o.Steps) {
		return false
	}
	for i, prior := range t.PriorTraces {
		if !prior.Equal(o.PriorTraces[i]) {
			return false
		}
	}
	for i, desc := range t.Descriptors {
		if desc != o.Descriptors[i] {
			return false
		}
	}
	for i, s := range t.Steps {
		if !s.Equal(o.Steps[i]) {
			return false
		}
	}
	return true
}

// InputRecipes returns the recipes of all input steps, including prior
// traces', in execution order. Mutators enumerate rewrite sites through this.
func (t *Trace) InputRecipes() []*algebra.TermEval {
	var recipes []*algebra.TermEval
	for _, prior := range t.PriorTraces {
		recipes = append(recipes, prior.InputRecipes()...)
	}
	for _, s := range t.Steps {
		if s.Kind == ActionInput {
			recipes = append(recipes, s.Recipe)
		}
	}
	return recipes
}

// Execute runs the trace against ctx: prior traces first, then the trace's
// own steps in strict forward order, all sharing ctx. The first failing step
// aborts the execution; the error is surfaced, never panicked, so the outer
// fuzz loop can carry on with the next iteration.
func (t *Trace) Execute(ctx *TraceContext) error {
	sctx := context.Background()
	loom.EmitExecuteStart(sctx, len(t.Steps))
	started := time.Now()

	err := t.execute(ctx)
	loom.EmitExecuteComplete(sctx, StatusOf(err).Kind.String(), time.Since(started), err)
	return err
}

func (t *Trace) execute(ctx *TraceContext) error {
	if err := ctx.SpawnAgents(t.Descriptors); err != nil {
		return err
	}
	for _, prior := range t.PriorTraces {
		if err := prior.execute(ctx); err != nil {
			return err
		}
	}
	for i, s := range t.Steps {
		if err := s.execute(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (s Step) execute(ctx *TraceContext, index int) error {
	put, err := ctx.Agent(s.Agent)
	if err != nil {
		return err
	}
	sctx := context.Background()

	switch s.Kind {
	case ActionInput:
		data, err := s.Recipe.Evaluate(ctx)
		if err != nil {
			return err
		}
		if err := put.AddInbound(data); err != nil {
			return loom.NewAgentError(s.Agent.String(), err)
		}
		if err := put.Progress(); err != nil {
			return loom.NewAgentError(s.Agent.String(), err)
		}
		loom.EmitStepInput(sctx, s.Agent.String(), index, len(data))

	case ActionOutput:
		data, err := put.TakeOutbound()
		if err != nil {
			return loom.NewAgentError(s.Agent.String(), err)
		}
		if err := ctx.extract(data, algebra.AgentSource(s.Agent)); err != nil {
			return err
		}
		loom.EmitStepOutput(sctx, s.Agent.String(), index, len(data))
	}

	return ctx.recordClaims(put)
}
