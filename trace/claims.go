package trace

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"

	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
)

func init() {
	// Register the claim extraction tag with sentinel
	sentinel.Tag("knowledge")
}

// Claim is an internal state snapshot emitted by an agent: transcripts,
// secrets, finished messages. Claims are looked up by agent and type when
// variable resolution misses the knowledge store, and fed to the violation
// policy after every step.
type Claim struct {
	Agent agent.Name
	Shape algebra.TypeShape
	Value any
}

// NewClaim boxes a typed claim payload. The payload's type must be
// registered.
func NewClaim(name agent.Name, value any) (Claim, bool) {
	shape, ok := algebra.LookupType(reflect.TypeOf(value))
	if !ok {
		return Claim{}, false
	}
	return Claim{Agent: name, Shape: shape, Value: value}, true
}

// ViolationPolicy inspects the accumulated claims for a security policy
// violation. A hit returns the violated rule.
type ViolationPolicy func(claims []Claim) (string, bool)

// claimField describes one tagged field of a claim payload type.
type claimField struct {
	index []int
	name  string
	label string
	shape algebra.TypeShape
}

var (
	claimPlansMu sync.RWMutex
	claimPlans   = make(map[reflect.Type][]claimField)
)

// RegisterClaimType scans T's struct tags and caches an extraction plan.
// Fields tagged `knowledge:"label"` are deposited into the knowledge store,
// labelled, whenever a claim of type T is extracted. Field types must be
// registered in the type registry.
func RegisterClaimType[T any]() error {
	rt := reflect.TypeFor[T]()

	claimPlansMu.RLock()
	_, ok := claimPlans[rt]
	claimPlansMu.RUnlock()
	if ok {
		return nil
	}

	spec := sentinel.Scan[T]()
	var fields []claimField
	for _, field := range spec.Fields {
		label, ok := field.Tags["knowledge"]
		if !ok {
			continue
		}
		shape, ok := algebra.LookupType(field.ReflectType)
		if !ok {
			return fmt.Errorf("trace: claim %s field %s: type %v not registered",
				spec.TypeName, field.Name, field.ReflectType)
		}
		fields = append(fields, claimField{
			index: field.Index,
			name:  field.Name,
			label: label,
			shape: shape,
		})
	}

	claimPlansMu.Lock()
	defer claimPlansMu.Unlock()
	claimPlans[rt] = fields
	return nil
}

// ExtractClaimKnowledge deposits the claim payload's tagged fields into the
// store, each under its label source. Claims of unregistered payload types
// contribute nothing.
func ExtractClaimKnowledge(ks *KnowledgeStore, c Claim) {
	claimPlansMu.RLock()
	plan, ok := claimPlans[reflect.TypeOf(c.Value)]
	claimPlansMu.RUnlock()
	if !ok {
		return
	}
	rv := reflect.ValueOf(c.Value)
	for _, field := range plan {
		ks.Add(Knowledge{
			Source: algebra.LabelSource(field.label),
			Shape:  field.shape,
			Data:   rv.FieldByIndex(field.index).Interface(),
		})
	}
}

// ResetClaimPlans clears the cached extraction plans.
// This is primarily useful for test isolation.
func ResetClaimPlans() {
	claimPlansMu.Lock()
	defer claimPlansMu.Unlock()
	claimPlans = make(map[reflect.Type][]claimField)
}
