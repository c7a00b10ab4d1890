package algebra_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
)

// A small signature for exercising the algebra without the TLS function set.

type testKey []byte

func encodeIdentity(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }
func decodeIdentity(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

func encodeTestKey(k testKey) ([]byte, error) { return append([]byte(nil), k...), nil }
func decodeTestKey(b []byte) (testKey, error) { return testKey(append([]byte(nil), b...)), nil }

func encodeTestU32(v uint32) ([]byte, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:], nil
}

func decodeTestU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, loom.FnMalformedf("u32 wants 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func fnHmacNewKey() (testKey, error) {
	return make(testKey, 32), nil
}

func fnHmac(key testKey, msg []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil), nil
}

func fnSeq0() (uint32, error) { return 0, nil }
func fnSeq1() (uint32, error) { return 1, nil }

func fnQuadB() ([]byte, error) { return []byte{1, 2, 3, 4}, nil }
func fnQuadC() ([]byte, error) { return []byte{5, 6, 7, 8}, nil }

func fnPair(a, b []byte) ([]byte, error) {
	out := append([]byte(nil), a...)
	return append(out, b...), nil
}

func fnWrap(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

var (
	sigOnce sync.Once
	testSig *algebra.Signature

	bytesShape algebra.TypeShape
	u32Shape   algebra.TypeShape
	keyShape   algebra.TypeShape
)

// testSignature registers the test types once and returns the signature over
// the test functions.
func testSignature() *algebra.Signature {
	sigOnce.Do(func() {
		bytesShape = algebra.RegisterType[[]byte]("test.Bytes", encodeIdentity, decodeIdentity)
		u32Shape = algebra.RegisterType[uint32]("test.U32", encodeTestU32, decodeTestU32)
		keyShape = algebra.RegisterType[testKey]("test.Key", encodeTestKey, decodeTestKey)

		testSig = algebra.NewSignature(
			algebra.MustFunction("fn_hmac_new_key", fnHmacNewKey),
			algebra.MustFunction("fn_hmac", fnHmac),
			algebra.MustFunction("fn_seq_0", fnSeq0),
			algebra.MustFunction("fn_seq_1", fnSeq1),
			algebra.MustFunction("fn_quad_b", fnQuadB),
			algebra.MustFunction("fn_quad_c", fnQuadC),
			algebra.MustFunction("fn_pair", fnPair),
			algebra.MustFunction("fn_wrap", fnWrap),
		)
	})
	return testSig
}

// mustFn looks a function up in the test signature, instantiated as a fresh
// term node.
func mustFn(name string) *algebra.Function {
	f, ok := testSignature().LookupByName(name)
	if !ok {
		panic("unknown test function " + name)
	}
	return f.Instantiate()
}

// stubContext resolves variables from a flat list, mirroring the knowledge
// store's encounter-order semantics.
type stubItem struct {
	source  algebra.Source
	matcher algebra.Matcher
	shape   algebra.TypeShape
	data    any
}

type stubContext struct {
	items  []stubItem
	claims map[agent.Name]map[algebra.TypeShape]any
}

func (ctx *stubContext) FindVariable(shape algebra.TypeShape, query *algebra.Query) (any, bool) {
	idx := 0
	for _, item := range ctx.items {
		if item.shape != shape {
			continue
		}
		if query.Source != nil && !item.source.Equal(*query.Source) {
			continue
		}
		if !algebra.MatchQuery(item.matcher, query.Matcher) {
			continue
		}
		if idx == query.Index {
			return item.data, true
		}
		idx++
	}
	return nil, false
}

func (ctx *stubContext) FindClaim(name agent.Name, shape algebra.TypeShape) (any, bool) {
	data, ok := ctx.claims[name][shape]
	return data, ok
}
