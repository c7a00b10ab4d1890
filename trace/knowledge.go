// Package trace provides the ordered attacker program: traces of input and
// output steps over named agents, the knowledge store feeding term variables,
// the claim list, and the execution context tying them to programs under
// test.
package trace

import (
	"reflect"

	"github.com/loomfuzz/loom/algebra"
)

// Knowledge is a source-tagged, type-erased datum extracted from a protocol
// interaction, available for binding to term variables.
type Knowledge struct {
	Source  algebra.Source
	Matcher algebra.Matcher
	Shape   algebra.TypeShape
	Data    any
}

// KnowledgeStore is the append-only ordered list of everything observed
// during one trace execution. A store lives exactly as long as its execution.
type KnowledgeStore struct {
	items []Knowledge
}

// NewKnowledgeStore creates an empty store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{}
}

// Add appends an observation. Knowledge accumulates monotonically; nothing is
// ever removed within an execution.
func (ks *KnowledgeStore) Add(k Knowledge) {
	ks.items = append(ks.items, k)
}

// AddRaw appends a datum whose shape is inferred from its native type. The
// type must be registered.
func (ks *KnowledgeStore) AddRaw(data any, source algebra.Source) bool {
	shape, ok := algebra.LookupType(reflect.TypeOf(data))
	if !ok {
		return false
	}
	ks.Add(Knowledge{Source: source, Shape: shape, Data: data})
	return true
}

// Find returns the query.Index-th item, in encounter order, whose source
// matches the query source (nil wildcards), whose matcher satisfies the query
// matcher, and whose type equals the requested shape.
func (ks *KnowledgeStore) Find(shape algebra.TypeShape, query *algebra.Query) (any, bool) {
	idx := 0
	for _, k := range ks.items {
		if k.Shape != shape {
			continue
		}
		if query.Source != nil && !k.Source.Equal(*query.Source) {
			continue
		}
		if !algebra.MatchQuery(k.Matcher, query.Matcher) {
			continue
		}
		if idx == query.Index {
			return k.Data, true
		}
		idx++
	}
	return nil, false
}

// Len returns the number of observations.
func (ks *KnowledgeStore) Len() int {
	return len(ks.items)
}

// Items returns the observations in encounter order.
func (ks *KnowledgeStore) Items() []Knowledge {
	return ks.items
}
