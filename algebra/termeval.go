package algebra

import (
	"bytes"
	"context"

	"github.com/loomfuzz/loom"
)

// bitstringName is displayed in place of a node name once the node's byte
// form is pinned.
const bitstringName = "BITSTRING_"

// Payloads pins a sub-term to a concrete byte string. Payload0 is the
// original symbolic encoding captured when the overlay was installed and
// serves as the splice anchor; Payload is the variant subject to bit-level
// mutation. Both start equal.
type Payloads struct {
	Payload0 []byte
	Payload  []byte

	// Offset is the slot for where Payload0 sat in the parent encoding at
	// installation time. Nothing in this package fills it: NewPayloads
	// leaves it at -1 (unknown) and the search-based splice ignores it. It
	// is cloned and serialized so a future revision can prefer it over
	// searching when the anchor is ambiguous.
	Offset int
}

// NewPayloads pins data as both the anchor and the mutable variant.
func NewPayloads(data []byte) *Payloads {
	return &Payloads{
		Payload0: bytes.Clone(data),
		Payload:  bytes.Clone(data),
		Offset:   -1,
	}
}

// Clone deep-copies the payload pair.
func (p *Payloads) Clone() *Payloads {
	return &Payloads{
		Payload0: bytes.Clone(p.Payload0),
		Payload:  bytes.Clone(p.Payload),
		Offset:   p.Offset,
	}
}

// Equal compares both byte strings.
func (p *Payloads) Equal(o *Payloads) bool {
	if p == nil || o == nil {
		return p == o
	}
	return bytes.Equal(p.Payload0, o.Payload0) && bytes.Equal(p.Payload, o.Payload)
}

// TermEval is a term equipped with an optional payload overlay. While the
// overlay is absent the node is symbolic; once installed, the node's byte
// form is pinned and every strict descendant's overlay is cleared.
type TermEval struct {
	Term     *Term
	Payloads *Payloads
}

// FromTerm wraps a term as a symbolic TermEval.
func FromTerm(t *Term) *TermEval {
	return &TermEval{Term: t}
}

// AppEval builds a symbolic application node; a convenience for assembling
// recipes.
func AppEval(f *Function, args ...*TermEval) *TermEval {
	return FromTerm(App(f, args...))
}

// VarEval builds a symbolic variable node.
func VarEval(v *Variable) *TermEval {
	return FromTerm(Var(v))
}

// IsSymbolic reports whether the node carries no payload overlay.
func (te *TermEval) IsSymbolic() bool {
	return te.Payloads == nil
}

// Size counts nodes. A node pinned to a payload counts as a leaf.
func (te *TermEval) Size() int {
	if te.IsLeaf() {
		return sizeLeaf
	}
	return te.Term.Size()
}

// IsLeaf reports whether the node is a leaf: a variable, a constant, or any
// node pinned to a payload.
func (te *TermEval) IsLeaf() bool {
	if te.IsSymbolic() {
		return te.Term.IsLeaf()
	}
	return true
}

// TypeShape returns the node's static type, unchanged by overlays.
func (te *TermEval) TypeShape() TypeShape {
	return te.Term.TypeShape()
}

// NodeName returns the symbolic node name, or the bitstring marker once the
// node is pinned.
func (te *TermEval) NodeName() string {
	if te.IsSymbolic() {
		return te.Term.NodeName()
	}
	return bitstringName
}

// IsList reports whether the node applies a list-building function.
func (te *TermEval) IsList() bool {
	return te.Term.IsApplication() && te.Term.Func.Shape().List
}

// IsOpaque reports whether the node applies an opaque function.
func (te *TermEval) IsOpaque() bool {
	return te.Term.IsApplication() && te.Term.Func.Shape().Opaque
}

// Clone deep-copies the node, its subtree, and any overlays.
func (te *TermEval) Clone() *TermEval {
	clone := &TermEval{Term: te.Term.Clone()}
	if te.Payloads != nil {
		clone.Payloads = te.Payloads.Clone()
	}
	return clone
}

// Equal reports structural equality including overlays.
func (te *TermEval) Equal(o *TermEval) bool {
	if te == nil || o == nil {
		return te == o
	}
	if (te.Payloads == nil) != (o.Payloads == nil) {
		return false
	}
	if te.Payloads != nil && !te.Payloads.Equal(o.Payloads) {
		return false
	}
	return te.Term.Equal(o.Term)
}

// Mutate replaces the node in place with other.
func (te *TermEval) Mutate(other *TermEval) {
	te.Term = other.Term
	te.Payloads = other.Payloads
}

// AddPayloads pins the node to data: the anchor and the mutable variant both
// start as data, and every strict descendant's overlay is cleared so the
// splice anchors stay predictable.
func (te *TermEval) AddPayloads(data []byte) {
	te.Payloads = NewPayloads(data)
	te.erasePayloadsSubterms(false)
}

func (te *TermEval) erasePayloadsSubterms(isSubterm bool) {
	if isSubterm {
		te.Payloads = nil
	}
	for _, arg := range te.Term.Args {
		arg.erasePayloadsSubterms(true)
	}
}

// AllPayloads returns every overlay in the subtree in bottom-up order: a
// descendant's payload always precedes its ancestor's. The splice relies on
// this order.
func (te *TermEval) AllPayloads() []*Payloads {
	var acc []*Payloads
	te.appendPayloads(&acc)
	return acc
}

func (te *TermEval) appendPayloads(acc *[]*Payloads) {
	for _, arg := range te.Term.Args {
		arg.appendPayloads(acc)
	}
	if te.Payloads != nil {
		*acc = append(*acc, te.Payloads)
	}
}

// Subterms returns every node of the subtree, descendants left-to-right
// first, the node itself last. Mutators enumerate candidate rewrite sites in
// this order.
func (te *TermEval) Subterms() []*TermEval {
	var acc []*TermEval
	te.appendSubterms(&acc)
	return acc
}

func (te *TermEval) appendSubterms(acc *[]*TermEval) {
	for _, arg := range te.Term.Args {
		arg.appendSubterms(acc)
	}
	*acc = append(*acc, te)
}

// EvaluateLazy resolves the subtree to an opaque boxed value: variables
// through the context, applications by evaluating arguments left to right and
// invoking the function shim. Overlays are ignored.
func (te *TermEval) EvaluateLazy(ctx Context) (any, error) {
	return te.Term.evaluateLazy(ctx)
}

// EvaluateSymbolic renders the subtree to bytes, treating every node as
// symbolic even where payloads are installed.
func (te *TermEval) EvaluateSymbolic(ctx Context) ([]byte, error) {
	value, err := te.EvaluateLazy(ctx)
	if err != nil {
		return nil, err
	}
	return EncodeValue(te.TypeShape(), value)
}

// Evaluate renders the subtree to bytes and splices every installed payload
// into the result.
func (te *TermEval) Evaluate(ctx Context) ([]byte, error) {
	out, err := te.EvaluateSymbolic(ctx)
	if err != nil {
		return nil, err
	}
	return te.spliceBitstrings(out), nil
}

// spliceBitstrings replaces each payload's anchor with its mutated variant,
// bottom-up. An anchor found twice is a warning (the first occurrence wins);
// an anchor found never means the payload is skipped. Both are surfaced as
// engine signals: mutated terms routinely lose their anchors and the fuzz
// loop must carry on.
func (te *TermEval) spliceBitstrings(buf []byte) []byte {
	sctx := context.Background()
	for _, p := range te.AllPayloads() {
		start := searchSubVec(buf, p.Payload0)
		if start < 0 {
			loom.EmitPayloadAnchorLost(sctx, te.String())
			continue
		}
		spliced := make([]byte, 0, len(buf)-len(p.Payload0)+len(p.Payload))
		spliced = append(spliced, buf[:start]...)
		spliced = append(spliced, p.Payload...)
		spliced = append(spliced, buf[start+len(p.Payload0):]...)
		buf = spliced
		loom.EmitPayloadSpliced(sctx, start, len(p.Payload))

		if len(p.Payload0) > 0 {
			if second := searchSubVec(buf[start+len(p.Payload):], p.Payload0); second >= 0 {
				loom.EmitPayloadAmbiguous(sctx, start, start+len(p.Payload)+second, te.String())
			}
		}
	}
	return buf
}

// searchSubVec returns the first index of needle in haystack, or -1. An empty
// needle matches at 0.
func searchSubVec(haystack, needle []byte) int {
	return bytes.Index(haystack, needle)
}

// DisplayAtDepth pretty-prints the node, marking pinned subtrees.
func (te *TermEval) DisplayAtDepth(depth int) string {
	if te.IsSymbolic() {
		return te.Term.DisplayAtDepth(depth)
	}
	tabs := ""
	for i := 0; i < depth; i++ {
		tabs += "\t"
	}
	return tabs + "BITSTRING_OF:\n" + te.Term.DisplayAtDepth(depth)
}

func (te *TermEval) String() string {
	return te.DisplayAtDepth(0)
}
