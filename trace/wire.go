package trace

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
)

// Traces share the algebra's wire discipline: a self-describing tagged
// msgpack stream, with function symbols bound by name against the installed
// deserialization signature.

var (
	_ msgpack.CustomEncoder = (*Step)(nil)
	_ msgpack.CustomDecoder = (*Step)(nil)
	_ msgpack.CustomEncoder = (*Trace)(nil)
	_ msgpack.CustomDecoder = (*Trace)(nil)
)

// EncodeMsgpack writes the step as (agent, kind, recipe?).
func (s *Step) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(uint8(s.Agent)); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(s.Kind)); err != nil {
		return err
	}
	if s.Recipe == nil {
		return enc.EncodeBool(false)
	}
	if err := enc.EncodeBool(true); err != nil {
		return err
	}
	return s.Recipe.EncodeMsgpack(enc)
}

// DecodeMsgpack reads a step written by EncodeMsgpack.
func (s *Step) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	hasRecipe, err := dec.DecodeBool()
	if err != nil {
		return err
	}
	s.Agent = agent.Name(name)
	s.Kind = ActionKind(kind)
	s.Recipe = nil
	if hasRecipe {
		recipe := new(algebra.TermEval)
		if err := recipe.DecodeMsgpack(dec); err != nil {
			return err
		}
		s.Recipe = recipe
	}
	return nil
}

// EncodeMsgpack writes the trace as (priors, descriptors, steps).
func (t *Trace) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(t.PriorTraces)); err != nil {
		return err
	}
	for _, prior := range t.PriorTraces {
		if err := prior.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	if err := enc.Encode(t.Descriptors); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(t.Steps)); err != nil {
		return err
	}
	for i := range t.Steps {
		if err := t.Steps[i].EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack reads a trace written by EncodeMsgpack. The deserialization
// signature must be installed first.
func (t *Trace) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	t.PriorTraces = nil
	for i := 0; i < n; i++ {
		prior := new(Trace)
		if err := prior.DecodeMsgpack(dec); err != nil {
			return err
		}
		t.PriorTraces = append(t.PriorTraces, prior)
	}
	if err := dec.Decode(&t.Descriptors); err != nil {
		return err
	}
	n, err = dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	t.Steps = make([]Step, n)
	for i := range t.Steps {
		if err := t.Steps[i].DecodeMsgpack(dec); err != nil {
			return err
		}
	}
	return nil
}

// MarshalTrace serializes a trace.
func MarshalTrace(t *Trace) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := t.EncodeMsgpack(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalTrace deserializes a trace. The deserialization signature must be
// installed first.
func UnmarshalTrace(data []byte) (*Trace, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	t := new(Trace)
	if err := t.DecodeMsgpack(dec); err != nil {
		return nil, err
	}
	return t, nil
}
