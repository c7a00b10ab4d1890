package algebra

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/loomfuzz/loom"
)

// The wire encoding is a self-describing tagged msgpack stream. Functions and
// type shapes travel by stable name only; decoding binds names against the
// installed deserialization signature and the type registry. Payload pairs
// travel as length-prefixed byte strings.

const (
	termTagVariable    = 0
	termTagApplication = 1
)

var (
	_ msgpack.CustomEncoder = (*TypeShape)(nil)
	_ msgpack.CustomDecoder = (*TypeShape)(nil)
	_ msgpack.CustomEncoder = (*Function)(nil)
	_ msgpack.CustomDecoder = (*Function)(nil)
	_ msgpack.CustomEncoder = (*Variable)(nil)
	_ msgpack.CustomDecoder = (*Variable)(nil)
	_ msgpack.CustomEncoder = (*Term)(nil)
	_ msgpack.CustomDecoder = (*Term)(nil)
	_ msgpack.CustomEncoder = (*TermEval)(nil)
	_ msgpack.CustomDecoder = (*TermEval)(nil)
	_ msgpack.CustomEncoder = (*Payloads)(nil)
	_ msgpack.CustomDecoder = (*Payloads)(nil)
)

// EncodeMsgpack writes the shape's registered name.
func (s *TypeShape) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.name)
}

// DecodeMsgpack resolves a shape name against the type registry.
func (s *TypeShape) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	shape, ok := LookupTypeByName(name)
	if !ok {
		return loom.NewUnknownSymbolError(name)
	}
	*s = shape
	return nil
}

// EncodeMsgpack writes the function's stable name.
func (f *Function) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(f.shape.Name)
}

// DecodeMsgpack resolves a function name against the installed
// deserialization signature and instantiates a fresh node.
func (f *Function) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	sig, err := DeserializationSignature()
	if err != nil {
		return err
	}
	registered, ok := sig.LookupByName(name)
	if !ok {
		return loom.NewUnknownSymbolError(name)
	}
	*f = *registered.Instantiate()
	return nil
}

// EncodeMsgpack writes the variable as (type, source?, matcher?, index).
func (v *Variable) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := v.Shape.EncodeMsgpack(enc); err != nil {
		return err
	}
	if v.Query.Source == nil {
		if err := enc.EncodeNil(); err != nil {
			return err
		}
	} else if err := enc.Encode(v.Query.Source); err != nil {
		return err
	}
	if err := encodeMatcher(enc, v.Query.Matcher); err != nil {
		return err
	}
	return enc.EncodeInt(int64(v.Query.Index))
}

// DecodeMsgpack reads a variable written by EncodeMsgpack. The decoded
// variable receives a fresh resistant id.
func (v *Variable) DecodeMsgpack(dec *msgpack.Decoder) error {
	var shape TypeShape
	if err := shape.DecodeMsgpack(dec); err != nil {
		return err
	}
	var source *Source
	if err := dec.Decode(&source); err != nil {
		return err
	}
	matcher, err := decodeMatcher(dec)
	if err != nil {
		return err
	}
	index, err := dec.DecodeInt()
	if err != nil {
		return err
	}
	*v = *NewVariable(shape, Query{Source: source, Matcher: matcher, Index: index})
	return nil
}

// EncodeMsgpack writes the term as a tagged variant.
func (t *Term) EncodeMsgpack(enc *msgpack.Encoder) error {
	if t.IsVariable() {
		if err := enc.EncodeUint8(termTagVariable); err != nil {
			return err
		}
		return t.Variable.EncodeMsgpack(enc)
	}
	if err := enc.EncodeUint8(termTagApplication); err != nil {
		return err
	}
	if err := t.Func.EncodeMsgpack(enc); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(t.Args)); err != nil {
		return err
	}
	for _, arg := range t.Args {
		if err := arg.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack reads a term written by EncodeMsgpack.
func (t *Term) DecodeMsgpack(dec *msgpack.Decoder) error {
	tag, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	switch tag {
	case termTagVariable:
		v := new(Variable)
		if err := v.DecodeMsgpack(dec); err != nil {
			return err
		}
		*t = Term{Variable: v}
		return nil
	case termTagApplication:
		f := new(Function)
		if err := f.DecodeMsgpack(dec); err != nil {
			return err
		}
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		args := make([]*TermEval, n)
		for i := range args {
			args[i] = new(TermEval)
			if err := args[i].DecodeMsgpack(dec); err != nil {
				return err
			}
		}
		*t = Term{Func: f, Args: args}
		return nil
	default:
		return loom.NewStreamError(fmt.Sprintf("unknown term tag %d", tag), nil)
	}
}

// EncodeMsgpack writes the node as term + optional payload pair.
func (te *TermEval) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := te.Term.EncodeMsgpack(enc); err != nil {
		return err
	}
	if te.Payloads == nil {
		return enc.EncodeBool(false)
	}
	if err := enc.EncodeBool(true); err != nil {
		return err
	}
	return te.Payloads.EncodeMsgpack(enc)
}

// DecodeMsgpack reads a node written by EncodeMsgpack.
func (te *TermEval) DecodeMsgpack(dec *msgpack.Decoder) error {
	t := new(Term)
	if err := t.DecodeMsgpack(dec); err != nil {
		return err
	}
	hasPayloads, err := dec.DecodeBool()
	if err != nil {
		return err
	}
	te.Term = t
	te.Payloads = nil
	if hasPayloads {
		p := new(Payloads)
		if err := p.DecodeMsgpack(dec); err != nil {
			return err
		}
		te.Payloads = p
	}
	return nil
}

// EncodeMsgpack writes the payload pair as length-prefixed byte strings plus
// the recorded offset.
func (p *Payloads) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeBytes(p.Payload0); err != nil {
		return err
	}
	if err := enc.EncodeBytes(p.Payload); err != nil {
		return err
	}
	return enc.EncodeInt(int64(p.Offset))
}

// DecodeMsgpack reads a payload pair written by EncodeMsgpack.
func (p *Payloads) DecodeMsgpack(dec *msgpack.Decoder) error {
	payload0, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	payload, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	offset, err := dec.DecodeInt()
	if err != nil {
		return err
	}
	p.Payload0 = payload0
	p.Payload = payload
	p.Offset = offset
	return nil
}

// MarshalTerm serializes a recipe term.
func MarshalTerm(te *TermEval) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := te.EncodeMsgpack(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalTerm deserializes a recipe term. The deserialization signature
// must be installed first.
func UnmarshalTerm(data []byte) (*TermEval, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	te := new(TermEval)
	if err := te.DecodeMsgpack(dec); err != nil {
		return nil, err
	}
	return te, nil
}
