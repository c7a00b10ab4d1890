package tls_test

import (
	"bytes"
	"testing"

	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/tls"
)

// The codecs back the payload splice: a value must survive encode/decode, and
// the encoding must be the exact byte region the splice anchors on.

func TestRecordCodec(t *testing.T) {
	tls.Signature()
	shape := algebra.TypeShapeOf[tls.Record]()

	rec := tls.Record{Typ: tls.ContentHandshake, Version: tls.V1_2, Payload: []byte{1, 2, 3}}
	data, err := algebra.EncodeValue(shape, rec)
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	want := []byte{22, 3, 3, 0, 3, 1, 2, 3}
	if !bytes.Equal(data, want) {
		t.Errorf("encoded = %x, want %x", data, want)
	}

	decoded, err := algebra.DecodeValue(shape, data)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	got := decoded.(tls.Record)
	if got.Typ != rec.Typ || got.Version != rec.Version || !bytes.Equal(got.Payload, rec.Payload) {
		t.Errorf("decoded = %+v, want %+v", got, rec)
	}
}

func TestHandshakeCodecLength(t *testing.T) {
	tls.Signature()
	shape := algebra.TypeShapeOf[tls.HandshakeMessage]()

	msg := tls.HandshakeMessage{Typ: tls.TypeFinished, Body: make([]byte, 300)}
	data, err := algebra.EncodeValue(shape, msg)
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	// 3-byte length: 300 = 0x00012c
	if data[0] != 20 || data[1] != 0 || data[2] != 0x01 || data[3] != 0x2c {
		t.Errorf("header = %x", data[:4])
	}

	if _, err := algebra.DecodeValue(shape, data[:10]); err == nil {
		t.Errorf("truncated handshake message decoded")
	}
}

func TestSessionIDCodecRejectsOversize(t *testing.T) {
	tls.Signature()
	shape := algebra.TypeShapeOf[tls.SessionID]()

	if _, err := algebra.EncodeValue(shape, tls.SessionID(make([]byte, 33))); err == nil {
		t.Errorf("oversized session id encoded")
	}
}

func TestCipherSuitesCodec(t *testing.T) {
	tls.Signature()
	shape := algebra.TypeShapeOf[tls.CipherSuites]()

	suites := tls.CipherSuites{tls.SuiteECDHERSAWithAES128GCMSHA256, tls.SuiteTLS13AES128GCMSHA256}
	data, err := algebra.EncodeValue(shape, suites)
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	want := []byte{0, 4, 0xc0, 0x2f, 0x13, 0x01}
	if !bytes.Equal(data, want) {
		t.Errorf("encoded = %x, want %x", data, want)
	}

	decoded, err := algebra.DecodeValue(shape, data)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	got := decoded.(tls.CipherSuites)
	if len(got) != 2 || got[0] != suites[0] || got[1] != suites[1] {
		t.Errorf("decoded = %v, want %v", got, suites)
	}
}

func TestExtensionsCodecRoundTrip(t *testing.T) {
	tls.Signature()
	shape := algebra.TypeShapeOf[tls.Extensions]()

	exts := tls.Extensions{
		{Typ: 0x000a, Data: []byte{0, 2, 0, 0x1d}},
		{Typ: 0xff01, Data: []byte{0}},
	}
	data, err := algebra.EncodeValue(shape, exts)
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	decoded, err := algebra.DecodeValue(shape, data)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	got := decoded.(tls.Extensions)
	if len(got) != 2 || got[0].Typ != exts[0].Typ || !bytes.Equal(got[1].Data, exts[1].Data) {
		t.Errorf("decoded = %+v, want %+v", got, exts)
	}
}

func TestPayloadSpliceInsideClientHello(t *testing.T) {
	tls.Signature()

	recipe := tls.SeedClientHello(0).Steps[0].Recipe
	baseline, err := recipe.Evaluate(emptyContext())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	// Pin the session id sub-term and flip its bytes.
	sessionNode := findNode(t, recipe, "fn_new_session_id")
	encoded, err := sessionNode.EvaluateSymbolic(emptyContext())
	if err != nil {
		t.Fatalf("EvaluateSymbolic() error: %v", err)
	}
	sessionNode.AddPayloads(encoded)
	mutated := append([]byte(nil), encoded...)
	for i := 1; i < len(mutated); i++ {
		mutated[i] = 0x7f
	}
	sessionNode.Payloads.Payload = mutated

	out, err := recipe.Evaluate(emptyContext())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if bytes.Equal(out, baseline) {
		t.Fatalf("splice left the encoding unchanged")
	}
	if bytes.Index(out, mutated) < 0 {
		t.Errorf("mutated session id missing from the encoding")
	}
	if len(out) != len(baseline) {
		t.Errorf("length changed: %d -> %d", len(baseline), len(out))
	}
}

func findNode(t *testing.T, root *algebra.TermEval, name string) *algebra.TermEval {
	t.Helper()
	for _, node := range root.Subterms() {
		if node.NodeName() == name {
			return node
		}
	}
	t.Fatalf("node %s not found", name)
	return nil
}
