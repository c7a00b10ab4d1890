package trace

import (
	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
)

// Extractor turns outbound wire bytes into knowledge. Implementations deframe
// the protocol's record layer and decide which pieces become bindable data.
type Extractor interface {
	Extract(data []byte, source algebra.Source) ([]Knowledge, error)
}

// TraceContext carries everything one trace execution accumulates: the
// knowledge store, the claim list, and the spawned agents. A context is owned
// by exactly one execution and constructed fresh for each.
type TraceContext struct {
	Knowledge *KnowledgeStore

	claims    []Claim
	agents    map[agent.Name]Put
	spawner   Spawner
	extractor Extractor
	policy    ViolationPolicy
}

// ContextOption configures a TraceContext.
type ContextOption func(*TraceContext)

// WithExtractor installs the protocol's knowledge extractor. Without one,
// outbound bytes are deposited raw.
func WithExtractor(e Extractor) ContextOption {
	return func(ctx *TraceContext) { ctx.extractor = e }
}

// WithPolicy installs the security violation policy checked after each step.
func WithPolicy(p ViolationPolicy) ContextOption {
	return func(ctx *TraceContext) { ctx.policy = p }
}

// NewTraceContext creates a fresh context spawning endpoints through spawner.
func NewTraceContext(spawner Spawner, opts ...ContextOption) *TraceContext {
	ctx := &TraceContext{
		Knowledge: NewKnowledgeStore(),
		agents:    make(map[agent.Name]Put),
		spawner:   spawner,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// FindVariable implements algebra.Context against the knowledge store.
func (ctx *TraceContext) FindVariable(shape algebra.TypeShape, query *algebra.Query) (any, bool) {
	return ctx.Knowledge.Find(shape, query)
}

// FindClaim implements algebra.Context against the claim list. Among the
// named agent's claims of the requested shape, the earliest wins.
func (ctx *TraceContext) FindClaim(name agent.Name, shape algebra.TypeShape) (any, bool) {
	for _, c := range ctx.claims {
		if c.Agent == name && c.Shape == shape {
			return c.Value, true
		}
	}
	return nil, false
}

// Claims returns the accumulated claim list.
func (ctx *TraceContext) Claims() []Claim {
	return ctx.claims
}

// SpawnAgents creates endpoints for any descriptor not yet spawned.
func (ctx *TraceContext) SpawnAgents(descriptors []agent.Descriptor) error {
	for _, desc := range descriptors {
		if _, ok := ctx.agents[desc.Name]; ok {
			continue
		}
		put, err := ctx.spawner.Spawn(desc)
		if err != nil {
			return loom.NewAgentError(desc.Name.String(), err)
		}
		ctx.agents[desc.Name] = put
	}
	return nil
}

// Agent returns the endpoint spawned under name.
func (ctx *TraceContext) Agent(name agent.Name) (Put, error) {
	put, ok := ctx.agents[name]
	if !ok {
		return nil, loom.NewTermErrorf("no agent %s spawned", name)
	}
	return put, nil
}

// Shutdown releases every spawned endpoint.
func (ctx *TraceContext) Shutdown() {
	for _, put := range ctx.agents {
		put.Shutdown()
	}
}

// recordClaims drains the endpoint's fresh claims, extracts their tagged
// knowledge, and runs the violation policy over the full list.
func (ctx *TraceContext) recordClaims(put Put) error {
	fresh := put.Claims()
	for _, c := range fresh {
		ctx.claims = append(ctx.claims, c)
		ExtractClaimKnowledge(ctx.Knowledge, c)
	}
	if ctx.policy != nil {
		if rule, violated := ctx.policy(ctx.claims); violated {
			return loom.NewSecurityClaimError(rule)
		}
	}
	return nil
}

// extract deposits knowledge from outbound bytes. Without an extractor the
// raw bytes are stored whole, if []byte is a registered type.
func (ctx *TraceContext) extract(data []byte, source algebra.Source) error {
	if ctx.extractor == nil {
		ctx.Knowledge.AddRaw(data, source)
		return nil
	}
	items, err := ctx.extractor.Extract(data, source)
	if err != nil {
		return loom.NewExtractionError(err)
	}
	for _, k := range items {
		ctx.Knowledge.Add(k)
	}
	return nil
}
