package algebra

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
)

const sizeLeaf = 1

// Source names where an observation came from: a protocol agent, or an
// externally labelled origin.
type Source struct {
	Agent *agent.Name `msgpack:"agent"`
	Label string      `msgpack:"label"`
}

// AgentSource is a source naming a protocol agent.
func AgentSource(name agent.Name) Source {
	return Source{Agent: &name}
}

// LabelSource is a source naming an external origin.
func LabelSource(label string) Source {
	return Source{Label: label}
}

// Equal reports whether two sources name the same origin.
func (s Source) Equal(o Source) bool {
	if (s.Agent == nil) != (o.Agent == nil) {
		return false
	}
	if s.Agent != nil {
		return *s.Agent == *o.Agent
	}
	return s.Label == o.Label
}

func (s Source) String() string {
	if s.Agent != nil {
		return "agent " + s.Agent.String()
	}
	return "label " + s.Label
}

// Query selects a previously-observed datum: the source it must come from
// (nil wildcards), the matcher its metadata must satisfy (nil matches any),
// and which of the matches to take in encounter order.
type Query struct {
	Source  *Source
	Matcher Matcher
	Index   int
}

func (q *Query) String() string {
	src := "*"
	if q.Source != nil {
		src = q.Source.String()
	}
	return fmt.Sprintf("(%s)[%d]", src, q.Index)
}

// Variable requests a previously-observed datum of its type that satisfies
// its query. Like functions, variables carry a resistant id stable across
// clones.
type Variable struct {
	Shape TypeShape
	Query Query
	id    uuid.UUID
}

// NewVariable creates a variable of the given shape.
func NewVariable(shape TypeShape, query Query) *Variable {
	return &Variable{Shape: shape, Query: query, id: uuid.New()}
}

// ResistantID returns the identity that survives clones.
func (v *Variable) ResistantID() uuid.UUID {
	return v.id
}

// Equal reports structural equality: same shape and same query.
func (v *Variable) Equal(o *Variable) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Shape != o.Shape || v.Query.Index != o.Query.Index {
		return false
	}
	if (v.Query.Source == nil) != (o.Query.Source == nil) {
		return false
	}
	if v.Query.Source != nil && !v.Query.Source.Equal(*o.Query.Source) {
		return false
	}
	// Matchers compare by mutual satisfaction; nil only equals nil.
	if (v.Query.Matcher == nil) != (o.Query.Matcher == nil) {
		return false
	}
	if v.Query.Matcher != nil &&
		!(v.Query.Matcher.Matches(o.Query.Matcher) && o.Query.Matcher.Matches(v.Query.Matcher)) {
		return false
	}
	return true
}

func (v *Variable) clone() *Variable {
	clone := *v
	if v.Query.Source != nil {
		src := *v.Query.Source
		clone.Query.Source = &src
	}
	return &clone
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s/%s", v.Query.String(), v.Shape.Name())
}

// Context resolves variables during evaluation. It is implemented by the
// trace execution context.
type Context interface {
	// FindVariable looks the query up in the knowledge store.
	FindVariable(shape TypeShape, query *Query) (any, bool)

	// FindClaim looks a datum of the given shape up among the claims the
	// named agent has emitted.
	FindClaim(name agent.Name, shape TypeShape) (any, bool)
}

// Term is a typed first-order term: either a variable or a function applied
// to zero or more sub-terms. A zero-arity application is a constant. Exactly
// one of Variable and Func is set.
type Term struct {
	Variable *Variable
	Func     *Function
	Args     []*TermEval
}

// Var builds a variable term.
func Var(v *Variable) *Term {
	return &Term{Variable: v}
}

// App builds an application term.
func App(f *Function, args ...*TermEval) *Term {
	return &Term{Func: f, Args: args}
}

// IsVariable reports whether the term is a variable leaf.
func (t *Term) IsVariable() bool {
	return t.Variable != nil
}

// IsApplication reports whether the term is a function application.
func (t *Term) IsApplication() bool {
	return t.Func != nil
}

// ResistantID returns the root node's resistant id.
func (t *Term) ResistantID() uuid.UUID {
	if t.IsVariable() {
		return t.Variable.ResistantID()
	}
	return t.Func.ResistantID()
}

// Size counts nodes: leaves cost 1, applications 1 plus their children.
func (t *Term) Size() int {
	if t.IsVariable() {
		return sizeLeaf
	}
	size := 1
	for _, arg := range t.Args {
		size += arg.Size()
	}
	return size
}

// IsLeaf reports whether the term is a variable or a constant.
func (t *Term) IsLeaf() bool {
	if t.IsVariable() {
		return true
	}
	return len(t.Args) == 0
}

// TypeShape returns the term's static type: the variable's shape, or the
// applied function's return type.
func (t *Term) TypeShape() TypeShape {
	if t.IsVariable() {
		return t.Variable.Shape
	}
	return t.Func.Shape().Ret
}

// NodeName returns the variable's type name or the applied function's name.
func (t *Term) NodeName() string {
	if t.IsVariable() {
		return t.Variable.Shape.Name()
	}
	return t.Func.Name()
}

// Clone deep-copies the term. Function nodes are copied so in-place symbol
// swaps on the clone leave the original untouched; resistant ids survive.
func (t *Term) Clone() *Term {
	if t.IsVariable() {
		return &Term{Variable: t.Variable.clone()}
	}
	args := make([]*TermEval, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.Clone()
	}
	return &Term{Func: t.Func.Clone(), Args: args}
}

// Equal reports structural equality: functions by name, variables by shape
// and query, children pairwise.
func (t *Term) Equal(o *Term) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.IsVariable() != o.IsVariable() {
		return false
	}
	if t.IsVariable() {
		return t.Variable.Equal(o.Variable)
	}
	if !t.Func.Equal(o.Func) || len(t.Args) != len(o.Args) {
		return false
	}
	for i, arg := range t.Args {
		if !arg.Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (t *Term) evaluateLazy(ctx Context) (any, error) {
	if t.IsVariable() {
		v := t.Variable
		if data, ok := ctx.FindVariable(v.Shape, &v.Query); ok {
			return data, nil
		}
		if v.Query.Source != nil && v.Query.Source.Agent != nil {
			if data, ok := ctx.FindClaim(*v.Query.Source.Agent, v.Shape); ok {
				return data, nil
			}
		}
		return nil, loom.NewTermErrorf("unable to find variable %s", v)
	}

	args := make([]any, len(t.Args))
	for i, arg := range t.Args {
		data, err := arg.EvaluateLazy(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = data
	}
	return t.Func.Dynamic()(args)
}

// DisplayAtDepth pretty-prints the term indented by depth tabs.
func (t *Term) DisplayAtDepth(depth int) string {
	tabs := strings.Repeat("\t", depth)
	if t.IsVariable() {
		return tabs + t.Variable.String()
	}

	op := removeFnPrefix(removePrefix(t.Func.Name()))
	ret := removePrefix(t.Func.Shape().Ret.Name())
	if len(t.Args) == 0 {
		return fmt.Sprintf("%s%s -> %s", tabs, op, ret)
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.DisplayAtDepth(depth + 1)
	}
	return fmt.Sprintf("%s%s(\n%s\n%s) -> %s", tabs, op, strings.Join(args, ",\n"), tabs, ret)
}

func (t *Term) String() string {
	return t.DisplayAtDepth(0)
}

// removePrefix strips package-path qualifiers from a type or function name,
// recursing into bracketed type parameters:
//
//	"msgs/handshake.Random"       -> "Random"
//	"container.List[pkg.Element]" -> "List[Element]"
func removePrefix(name string) string {
	open := strings.IndexByte(name, '[')
	if open >= 0 && strings.HasSuffix(name, "]") {
		base := name[:open]
		param := name[open+1 : len(name)-1]
		return stripQualifier(base) + "[" + removePrefix(param) + "]"
	}
	return stripQualifier(name)
}

func stripQualifier(name string) string {
	if pos := strings.LastIndexByte(name, '.'); pos >= 0 {
		return name[pos+1:]
	}
	return name
}

// removeFnPrefix strips the fn_ naming convention for display.
func removeFnPrefix(name string) string {
	return strings.ReplaceAll(name, "fn_", "")
}
