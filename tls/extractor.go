package tls

import (
	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// MessageMatcher refines knowledge lookups by record content type and,
// optionally, handshake message type. It is the domain matcher recipes use to
// ask for "the server hello" rather than "the second blob".
type MessageMatcher struct {
	ContentType  ContentType   `msgpack:"content_type"`
	Handshake    HandshakeType `msgpack:"handshake"`
	HasHandshake bool          `msgpack:"has_handshake"`
}

// HandshakeMatcher matches handshake records of the given message type.
func HandshakeMatcher(typ HandshakeType) MessageMatcher {
	return MessageMatcher{ContentType: ContentHandshake, Handshake: typ, HasHandshake: true}
}

// Matches reports whether the observation satisfies the query.
func (m MessageMatcher) Matches(query algebra.Matcher) bool {
	switch q := query.(type) {
	case algebra.AnyMatcher:
		return true
	case MessageMatcher:
		if m.ContentType != q.ContentType {
			return false
		}
		if q.HasHandshake && (!m.HasHandshake || m.Handshake != q.Handshake) {
			return false
		}
		return true
	default:
		return false
	}
}

// Specificity ranks content-type-only below content-plus-handshake.
func (m MessageMatcher) Specificity() uint32 {
	if m.HasHandshake {
		return 2
	}
	return 1
}

func init() {
	algebra.RegisterMatcher[MessageMatcher]("tls.message")
}

// Extractor deframes outbound TLS bytes into records and deposits each as
// knowledge: the record itself, its payload, and for handshake records the
// parsed message, all tagged with a MessageMatcher.
type Extractor struct{}

// NewExtractor creates the TLS record extractor, registering the native
// types if the signature was never touched.
func NewExtractor() *Extractor {
	Signature()
	return &Extractor{}
}

// Extract implements trace.Extractor.
func (e *Extractor) Extract(data []byte, source algebra.Source) ([]trace.Knowledge, error) {
	var items []trace.Knowledge
	rest := data
	for len(rest) > 0 {
		if len(rest) < recordHeaderLen {
			return nil, loom.NewStreamError("record header truncated", nil)
		}
		size := recordHeaderLen + (int(rest[3])<<8 | int(rest[4]))
		if len(rest) < size {
			return nil, loom.NewStreamError("record payload truncated", nil)
		}
		rec, err := decodeRecord(rest[:size])
		if err != nil {
			return nil, loom.NewStreamError("record decode", err)
		}
		rest = rest[size:]

		matcher := MessageMatcher{ContentType: rec.Typ}
		if rec.Typ == ContentHandshake && len(rec.Payload) >= handshakeHdrLen {
			if msg, err := decodeHandshake(rec.Payload); err == nil {
				matcher = HandshakeMatcher(msg.Typ)
				items = append(items, trace.Knowledge{
					Source:  source,
					Matcher: matcher,
					Shape:   algebra.TypeShapeOf[HandshakeMessage](),
					Data:    msg,
				})
			}
		}
		items = append(items,
			trace.Knowledge{
				Source:  source,
				Matcher: matcher,
				Shape:   algebra.TypeShapeOf[Record](),
				Data:    rec,
			},
			trace.Knowledge{
				Source:  source,
				Matcher: matcher,
				Shape:   algebra.TypeShapeOf[[]byte](),
				Data:    append([]byte(nil), rec.Payload...),
			},
		)
	}
	return items, nil
}
