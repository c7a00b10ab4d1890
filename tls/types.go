// Package tls provides the TLS rendering of the term algebra: the native
// wire types with their byte codecs, the function set the attacker composes
// messages from, the record deframer, and seed traces.
package tls

import (
	"encoding/binary"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/algebra"
)

// ProtocolVersion is a TLS protocol version on the wire.
type ProtocolVersion uint16

const (
	V1_2 ProtocolVersion = 0x0303
	V1_3 ProtocolVersion = 0x0304
)

// ContentType is a TLS record content type.
type ContentType uint8

const (
	ContentChangeCipherSpec ContentType = 20
	ContentAlert            ContentType = 21
	ContentHandshake        ContentType = 22
	ContentApplicationData  ContentType = 23
)

// HandshakeType is a TLS handshake message type.
type HandshakeType uint8

const (
	TypeClientHello       HandshakeType = 1
	TypeServerHello       HandshakeType = 2
	TypeCertificate       HandshakeType = 11
	TypeClientKeyExchange HandshakeType = 16
	TypeFinished          HandshakeType = 20
)

// Random is the 32-byte hello random.
type Random [32]byte

// SessionID is a legacy session id of at most 32 bytes.
type SessionID []byte

// CipherSuite is a cipher suite code point.
type CipherSuite uint16

const (
	SuiteECDHERSAWithAES128GCMSHA256 CipherSuite = 0xc02f
	SuiteTLS13AES128GCMSHA256        CipherSuite = 0x1301
	SuiteRSAExportWithDES40CBCSHA    CipherSuite = 0x0008
	SuiteRSAWithAES256CBCSHA256      CipherSuite = 0x003d
)

// CipherSuites is the client's offered suite list.
type CipherSuites []CipherSuite

// Compression is a legacy compression method.
type Compression uint8

const (
	CompressionNull    Compression = 0
	CompressionDeflate Compression = 1
)

// Compressions is the client's offered compression list.
type Compressions []Compression

// NamedGroup is a supported-groups code point.
type NamedGroup uint16

const (
	GroupX25519    NamedGroup = 0x001d
	GroupSecp384r1 NamedGroup = 0x0018
)

// Extension is one hello extension: code point plus opaque data.
type Extension struct {
	Typ  uint16
	Data []byte
}

// Extensions is an ordered extension list.
type Extensions []Extension

// HandshakeMessage is a handshake-layer message: type plus encoded body.
type HandshakeMessage struct {
	Typ  HandshakeType
	Body []byte
}

// Record is one TLS record.
type Record struct {
	Typ     ContentType
	Version ProtocolVersion
	Payload []byte
}

// HMACKey keys the HMAC functions.
type HMACKey []byte

// Secret is schedule material: an extracted PRK or a derived secret.
type Secret []byte

const (
	maxSessionIDLen = 32
	recordHeaderLen = 5
	handshakeHdrLen = 4
)

func encodeU16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func encodeProtocolVersion(v ProtocolVersion) ([]byte, error) {
	return encodeU16(uint16(v)), nil
}

func decodeProtocolVersion(data []byte) (ProtocolVersion, error) {
	if len(data) != 2 {
		return 0, loom.FnMalformedf("protocol version wants 2 bytes, got %d", len(data))
	}
	return ProtocolVersion(binary.BigEndian.Uint16(data)), nil
}

func encodeRandom(r Random) ([]byte, error) {
	out := make([]byte, len(r))
	copy(out, r[:])
	return out, nil
}

func decodeRandom(data []byte) (Random, error) {
	var r Random
	if len(data) != len(r) {
		return r, loom.FnMalformedf("random wants %d bytes, got %d", len(r), len(data))
	}
	copy(r[:], data)
	return r, nil
}

func encodeSessionID(id SessionID) ([]byte, error) {
	if len(id) > maxSessionIDLen {
		return nil, loom.FnMalformedf("session id too long: %d", len(id))
	}
	out := make([]byte, 0, 1+len(id))
	out = append(out, byte(len(id)))
	return append(out, id...), nil
}

func decodeSessionID(data []byte) (SessionID, error) {
	if len(data) < 1 || len(data) != 1+int(data[0]) || data[0] > maxSessionIDLen {
		return nil, loom.FnMalformedf("malformed session id")
	}
	return SessionID(append([]byte(nil), data[1:]...)), nil
}

func encodeCipherSuite(s CipherSuite) ([]byte, error) {
	return encodeU16(uint16(s)), nil
}

func decodeCipherSuite(data []byte) (CipherSuite, error) {
	if len(data) != 2 {
		return 0, loom.FnMalformedf("cipher suite wants 2 bytes, got %d", len(data))
	}
	return CipherSuite(binary.BigEndian.Uint16(data)), nil
}

func encodeCipherSuites(suites CipherSuites) ([]byte, error) {
	out := make([]byte, 0, 2+2*len(suites))
	out = append(out, encodeU16(uint16(2*len(suites)))...)
	for _, s := range suites {
		out = append(out, encodeU16(uint16(s))...)
	}
	return out, nil
}

func decodeCipherSuites(data []byte) (CipherSuites, error) {
	if len(data) < 2 {
		return nil, loom.FnMalformedf("cipher suites truncated")
	}
	n := int(binary.BigEndian.Uint16(data))
	if n%2 != 0 || len(data) != 2+n {
		return nil, loom.FnMalformedf("malformed cipher suite list")
	}
	suites := make(CipherSuites, 0, n/2)
	for off := 2; off < 2+n; off += 2 {
		suites = append(suites, CipherSuite(binary.BigEndian.Uint16(data[off:])))
	}
	return suites, nil
}

func encodeCompression(c Compression) ([]byte, error) {
	return []byte{byte(c)}, nil
}

func decodeCompression(data []byte) (Compression, error) {
	if len(data) != 1 {
		return 0, loom.FnMalformedf("compression wants 1 byte, got %d", len(data))
	}
	return Compression(data[0]), nil
}

func encodeCompressions(cs Compressions) ([]byte, error) {
	out := make([]byte, 0, 1+len(cs))
	out = append(out, byte(len(cs)))
	for _, c := range cs {
		out = append(out, byte(c))
	}
	return out, nil
}

func decodeCompressions(data []byte) (Compressions, error) {
	if len(data) < 1 || len(data) != 1+int(data[0]) {
		return nil, loom.FnMalformedf("malformed compression list")
	}
	cs := make(Compressions, 0, data[0])
	for _, b := range data[1:] {
		cs = append(cs, Compression(b))
	}
	return cs, nil
}

func encodeNamedGroup(g NamedGroup) ([]byte, error) {
	return encodeU16(uint16(g)), nil
}

func decodeNamedGroup(data []byte) (NamedGroup, error) {
	if len(data) != 2 {
		return 0, loom.FnMalformedf("named group wants 2 bytes, got %d", len(data))
	}
	return NamedGroup(binary.BigEndian.Uint16(data)), nil
}

func encodeExtension(e Extension) ([]byte, error) {
	out := make([]byte, 0, 4+len(e.Data))
	out = append(out, encodeU16(e.Typ)...)
	out = append(out, encodeU16(uint16(len(e.Data)))...)
	return append(out, e.Data...), nil
}

func decodeExtension(data []byte) (Extension, error) {
	if len(data) < 4 {
		return Extension{}, loom.FnMalformedf("extension truncated")
	}
	n := int(binary.BigEndian.Uint16(data[2:]))
	if len(data) != 4+n {
		return Extension{}, loom.FnMalformedf("malformed extension")
	}
	return Extension{
		Typ:  binary.BigEndian.Uint16(data),
		Data: append([]byte(nil), data[4:]...),
	}, nil
}

func encodeExtensions(exts Extensions) ([]byte, error) {
	var body []byte
	for _, e := range exts {
		enc, err := encodeExtension(e)
		if err != nil {
			return nil, err
		}
		body = append(body, enc...)
	}
	out := make([]byte, 0, 2+len(body))
	out = append(out, encodeU16(uint16(len(body)))...)
	return append(out, body...), nil
}

func decodeExtensions(data []byte) (Extensions, error) {
	if len(data) < 2 {
		return nil, loom.FnMalformedf("extensions truncated")
	}
	n := int(binary.BigEndian.Uint16(data))
	if len(data) != 2+n {
		return nil, loom.FnMalformedf("malformed extension list")
	}
	var exts Extensions
	rest := data[2:]
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, loom.FnMalformedf("extension truncated")
		}
		size := 4 + int(binary.BigEndian.Uint16(rest[2:]))
		if len(rest) < size {
			return nil, loom.FnMalformedf("extension truncated")
		}
		ext, err := decodeExtension(rest[:size])
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
		rest = rest[size:]
	}
	return exts, nil
}

func encodeHandshake(m HandshakeMessage) ([]byte, error) {
	if len(m.Body) >= 1<<24 {
		return nil, loom.FnMalformedf("handshake body too long: %d", len(m.Body))
	}
	out := make([]byte, 0, handshakeHdrLen+len(m.Body))
	out = append(out, byte(m.Typ), byte(len(m.Body)>>16), byte(len(m.Body)>>8), byte(len(m.Body)))
	return append(out, m.Body...), nil
}

func decodeHandshake(data []byte) (HandshakeMessage, error) {
	if len(data) < handshakeHdrLen {
		return HandshakeMessage{}, loom.FnMalformedf("handshake message truncated")
	}
	n := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	if len(data) != handshakeHdrLen+n {
		return HandshakeMessage{}, loom.FnMalformedf("malformed handshake message")
	}
	return HandshakeMessage{
		Typ:  HandshakeType(data[0]),
		Body: append([]byte(nil), data[handshakeHdrLen:]...),
	}, nil
}

func encodeRecord(r Record) ([]byte, error) {
	if len(r.Payload) >= 1<<16 {
		return nil, loom.FnMalformedf("record payload too long: %d", len(r.Payload))
	}
	out := make([]byte, 0, recordHeaderLen+len(r.Payload))
	out = append(out, byte(r.Typ))
	out = append(out, encodeU16(uint16(r.Version))...)
	out = append(out, encodeU16(uint16(len(r.Payload)))...)
	return append(out, r.Payload...), nil
}

func decodeRecord(data []byte) (Record, error) {
	if len(data) < recordHeaderLen {
		return Record{}, loom.FnMalformedf("record truncated")
	}
	n := int(binary.BigEndian.Uint16(data[3:]))
	if len(data) != recordHeaderLen+n {
		return Record{}, loom.FnMalformedf("malformed record")
	}
	return Record{
		Typ:     ContentType(data[0]),
		Version: ProtocolVersion(binary.BigEndian.Uint16(data[1:])),
		Payload: append([]byte(nil), data[recordHeaderLen:]...),
	}, nil
}

func encodeBytes(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

func decodeBytes(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func encodeU32(v uint32) ([]byte, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:], nil
}

func decodeU32(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, loom.FnMalformedf("u32 wants 4 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// registerTypes interns every native TLS type. Called once from Signature.
func registerTypes() {
	algebra.RegisterType[[]byte]("Bytes", encodeBytes, decodeBytes)
	algebra.RegisterType[uint32]("U32", encodeU32, decodeU32)
	algebra.RegisterType[ProtocolVersion]("tls.ProtocolVersion", encodeProtocolVersion, decodeProtocolVersion)
	algebra.RegisterType[Random]("tls.Random", encodeRandom, decodeRandom)
	algebra.RegisterType[SessionID]("tls.SessionID", encodeSessionID, decodeSessionID)
	algebra.RegisterType[CipherSuite]("tls.CipherSuite", encodeCipherSuite, decodeCipherSuite)
	algebra.RegisterType[CipherSuites]("tls.CipherSuites", encodeCipherSuites, decodeCipherSuites)
	algebra.RegisterType[Compression]("tls.Compression", encodeCompression, decodeCompression)
	algebra.RegisterType[Compressions]("tls.Compressions", encodeCompressions, decodeCompressions)
	algebra.RegisterType[NamedGroup]("tls.NamedGroup", encodeNamedGroup, decodeNamedGroup)
	algebra.RegisterType[Extension]("tls.Extension", encodeExtension, decodeExtension)
	algebra.RegisterType[Extensions]("tls.Extensions", encodeExtensions, decodeExtensions)
	algebra.RegisterType[HandshakeMessage]("tls.HandshakeMessage", encodeHandshake, decodeHandshake)
	algebra.RegisterType[Record]("tls.Record", encodeRecord, decodeRecord)
	algebra.RegisterType[HMACKey]("tls.HMACKey", encodeBytesAs[HMACKey], decodeBytesAs[HMACKey])
	algebra.RegisterType[Secret]("tls.Secret", encodeBytesAs[Secret], decodeBytesAs[Secret])
}

func encodeBytesAs[T ~[]byte](v T) ([]byte, error) {
	return append([]byte(nil), v...), nil
}

func decodeBytesAs[T ~[]byte](data []byte) (T, error) {
	return T(append([]byte(nil), data...)), nil
}
