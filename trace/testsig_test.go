package trace_test

import (
	"encoding/binary"
	"sync"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/algebra"
)

// A minimal signature for exercising trace execution without the TLS
// function set.

func encodeIdentity(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }
func decodeIdentity(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

func encodeU32(v uint32) ([]byte, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:], nil
}

func decodeU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, loom.FnMalformedf("u32 wants 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func fnHello() ([]byte, error) { return []byte("hello"), nil }

func fnEcho(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

func fnSeq0() (uint32, error) { return 0, nil }

func fnFail() ([]byte, error) { return nil, loom.FnUnknownf("always fails") }

var (
	sigOnce sync.Once
	testSig *algebra.Signature

	bytesShape algebra.TypeShape
	u32Shape   algebra.TypeShape
)

func testSignature() *algebra.Signature {
	sigOnce.Do(func() {
		bytesShape = algebra.RegisterType[[]byte]("test.Bytes", encodeIdentity, decodeIdentity)
		u32Shape = algebra.RegisterType[uint32]("test.U32", encodeU32, decodeU32)

		testSig = algebra.NewSignature(
			algebra.MustFunction("fn_hello", fnHello),
			algebra.MustFunction("fn_echo", fnEcho),
			algebra.MustFunction("fn_seq_0", fnSeq0),
			algebra.MustFunction("fn_fail", fnFail),
		)
	})
	return testSig
}

func mustFn(name string) *algebra.Function {
	f, ok := testSignature().LookupByName(name)
	if !ok {
		panic("unknown test function " + name)
	}
	return f.Instantiate()
}
