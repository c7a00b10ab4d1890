package algebra_test

import (
	"math/rand"
	"testing"

	"github.com/loomfuzz/loom/algebra"
)

func TestLookupByName(t *testing.T) {
	sig := testSignature()

	f, ok := sig.LookupByName("fn_hmac")
	if !ok {
		t.Fatalf("fn_hmac not found")
	}
	if f.Shape().Arity() != 2 {
		t.Errorf("fn_hmac arity = %d, want 2", f.Shape().Arity())
	}
	if _, ok := sig.LookupByName("fn_nonexistent"); ok {
		t.Errorf("lookup of unknown name succeeded")
	}
}

func TestTypesDeduplicated(t *testing.T) {
	sig := testSignature()

	seen := make(map[algebra.TypeShape]bool)
	for _, shape := range sig.Types() {
		if seen[shape] {
			t.Errorf("type %s listed twice", shape)
		}
		seen[shape] = true
	}
	if !seen[bytesShape] || !seen[u32Shape] || !seen[keyShape] {
		t.Errorf("signature types missing a registered shape: %v", sig.Types())
	}
}

func TestSampleByReturnType(t *testing.T) {
	sig := testSignature()
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		f, ok := sig.SampleByReturnType(u32Shape, r)
		if !ok {
			t.Fatalf("no function returns u32")
		}
		if name := f.Name(); name != "fn_seq_0" && name != "fn_seq_1" {
			t.Errorf("SampleByReturnType() = %s, want a seq function", name)
		}
	}

	if _, ok := sig.SampleByReturnType(algebra.TypeShape{}, r); ok {
		t.Errorf("sampling an unknown return type should fail")
	}
}
