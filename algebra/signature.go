package algebra

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/loomfuzz/loom"
)

// Signature is the closed set of function symbols known to the term algebra.
// It is assembled once at process init and read-only afterwards; mutation,
// pretty-printing, and deserialization all resolve symbols through it.
type Signature struct {
	functions []*Function
	byName    map[string]*Function
	types     []TypeShape
}

// NewSignature builds a signature over the given functions. Function order is
// preserved; the type list is the deduplicated set of all argument and return
// shapes in name order.
func NewSignature(fns ...*Function) *Signature {
	sig := &Signature{
		functions: fns,
		byName:    make(map[string]*Function, len(fns)),
	}
	seen := make(map[TypeShape]bool)
	for _, f := range fns {
		sig.byName[f.Name()] = f
		for _, shape := range f.Shape().Args {
			if !seen[shape] {
				seen[shape] = true
				sig.types = append(sig.types, shape)
			}
		}
		if ret := f.Shape().Ret; !seen[ret] {
			seen[ret] = true
			sig.types = append(sig.types, ret)
		}
	}
	sort.Slice(sig.types, func(i, j int) bool {
		return sig.types[i].Name() < sig.types[j].Name()
	})
	return sig
}

// LookupByName returns the registered function symbol.
func (s *Signature) LookupByName(name string) (*Function, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Functions returns all registered functions in registration order.
func (s *Signature) Functions() []*Function {
	return s.functions
}

// Types returns all shapes reachable from the registered functions.
func (s *Signature) Types() []TypeShape {
	return s.types
}

// Sample returns a uniformly random function symbol.
func (s *Signature) Sample(r *rand.Rand) (*Function, bool) {
	if len(s.functions) == 0 {
		return nil, false
	}
	return s.functions[r.Intn(len(s.functions))], true
}

// SampleByReturnType returns a uniformly random function whose return type is
// shape.
func (s *Signature) SampleByReturnType(shape TypeShape, r *rand.Rand) (*Function, bool) {
	var candidates []*Function
	for _, f := range s.functions {
		if f.Shape().Ret == shape {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[r.Intn(len(candidates))], true
}

func (s *Signature) String() string {
	var b strings.Builder
	for _, f := range s.functions {
		fmt.Fprintf(&b, "%s\n", f.Shape())
	}
	return b.String()
}

var (
	deserializeMu  sync.RWMutex
	deserializeSig *Signature
)

// SetDeserializationSignature installs the signature used to resolve function
// names during decoding. The signature is set once per process; setting the
// same signature again is a no-op, a different one an error.
func SetDeserializationSignature(sig *Signature) error {
	deserializeMu.Lock()
	defer deserializeMu.Unlock()
	if deserializeSig != nil {
		if deserializeSig == sig {
			return nil
		}
		return fmt.Errorf("algebra: deserialization signature already set")
	}
	deserializeSig = sig
	return nil
}

// DeserializationSignature returns the installed signature, or
// loom.ErrUnknownSignature if none was set.
func DeserializationSignature() (*Signature, error) {
	deserializeMu.RLock()
	defer deserializeMu.RUnlock()
	if deserializeSig == nil {
		return nil, loom.ErrUnknownSignature
	}
	return deserializeSig, nil
}

// ResetDeserializationSignature clears the installed signature.
// This is primarily useful for test isolation.
func ResetDeserializationSignature() {
	deserializeMu.Lock()
	defer deserializeMu.Unlock()
	deserializeSig = nil
}
