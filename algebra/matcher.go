package algebra

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/loomfuzz/loom"
)

// Matcher filters variable queries against knowledge metadata. A query-side
// matcher describes what a variable asks for; a data-side matcher describes
// what an observation is. Specificity orders matchers so ambiguous lookups can
// prefer the most specific binding.
type Matcher interface {
	// Matches reports whether the receiver (data side) satisfies the query.
	Matches(query Matcher) bool

	// Specificity returns how narrow this matcher is; 0 is trivial.
	Specificity() uint32
}

// AnyMatcher matches everything.
type AnyMatcher struct{}

func (AnyMatcher) Matches(Matcher) bool {
	return true
}

func (AnyMatcher) Specificity() uint32 {
	return 0
}

// MatchQuery applies option semantics over possibly-absent matchers: a nil
// query matches any data, nil data matches only a nil query, and an
// AnyMatcher query matches any non-nil data.
func MatchQuery(data, query Matcher) bool {
	if query == nil {
		return true
	}
	if data == nil {
		return false
	}
	if _, ok := query.(AnyMatcher); ok {
		return true
	}
	return data.Matches(query)
}

// SpecificityOf ranks a possibly-absent matcher: absence is the least
// specific, presence adds one level on top of the matcher's own rank.
func SpecificityOf(m Matcher) uint32 {
	if m == nil {
		return 0
	}
	return 1 + m.Specificity()
}

// The matcher registry maps stable names to concrete matcher types so wire
// decoding can reconstruct them.
var (
	matchersMu     sync.RWMutex
	matchersByName = make(map[string]reflect.Type)
	matcherNames   = make(map[reflect.Type]string)
)

// RegisterMatcher interns the concrete matcher type M under name for wire
// encoding. Like type registration this is a process-init-time action.
func RegisterMatcher[M Matcher](name string) {
	rt := reflect.TypeFor[M]()

	matchersMu.Lock()
	defer matchersMu.Unlock()
	if existing, ok := matchersByName[name]; ok && existing != rt {
		panic(fmt.Sprintf("algebra: matcher name %q already registered for %v", name, existing))
	}
	matchersByName[name] = rt
	matcherNames[rt] = name
}

func init() {
	RegisterMatcher[AnyMatcher]("any")
}

// matcherName returns the registered name for m's concrete type.
func matcherName(m Matcher) (string, error) {
	matchersMu.RLock()
	defer matchersMu.RUnlock()
	name, ok := matcherNames[reflect.TypeOf(m)]
	if !ok {
		return "", loom.NewUnknownSymbolError(fmt.Sprintf("%T", m))
	}
	return name, nil
}

// encodeMatcher writes a possibly-absent matcher as (name, payload).
func encodeMatcher(enc *msgpack.Encoder, m Matcher) error {
	if m == nil {
		return enc.EncodeNil()
	}
	name, err := matcherName(m)
	if err != nil {
		return err
	}
	if err := enc.EncodeString(name); err != nil {
		return err
	}
	return enc.Encode(m)
}

// decodeMatcher reads a possibly-absent matcher written by encodeMatcher.
func decodeMatcher(dec *msgpack.Decoder) (Matcher, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if code == msgpcode.Nil {
		return nil, dec.DecodeNil()
	}
	name, err := dec.DecodeString()
	if err != nil {
		return nil, err
	}
	matchersMu.RLock()
	rt, ok := matchersByName[name]
	matchersMu.RUnlock()
	if !ok {
		return nil, loom.NewUnknownSymbolError(name)
	}
	pv := reflect.New(rt)
	if err := dec.Decode(pv.Interface()); err != nil {
		return nil, err
	}
	return pv.Elem().Interface().(Matcher), nil
}
