package tls

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/loomfuzz/loom"
)

const hmacKeyLen = 32

func fnHmac256NewKey() (HMACKey, error) {
	// Fixed zero key. See the note on determinism in fn_fields.go.
	return make(HMACKey, hmacKeyLen), nil
}

func fnArbitraryToKey(key []byte) (HMACKey, error) {
	return HMACKey(append([]byte(nil), key...)), nil
}

func fnHmac256(key HMACKey, msg []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil), nil
}

func fnHkdfExtract(salt []byte, ikm []byte) (Secret, error) {
	return Secret(hkdf.Extract(sha256.New, ikm, salt)), nil
}

// deriveSecret expands a schedule secret under a handshake-context hash,
// with the TLS 1.3 HkdfLabel info layout.
func deriveSecret(secret Secret, label string, transcript []byte) (Secret, error) {
	const labelPrefix = "tls13 "

	if len(labelPrefix)+len(label) > 255 || len(transcript) > 255 {
		return nil, loom.FnCryptof("hkdf label out of range")
	}
	info := make([]byte, 0, 4+len(labelPrefix)+len(label)+len(transcript))
	info = binary.BigEndian.AppendUint16(info, sha256.Size)
	info = append(info, byte(len(labelPrefix)+len(label)))
	info = append(info, labelPrefix...)
	info = append(info, label...)
	info = append(info, byte(len(transcript)))
	info = append(info, transcript...)

	out := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, secret, info), out); err != nil {
		return nil, loom.FnCryptof("hkdf expand: %v", err)
	}
	return Secret(out), nil
}

func fnClientHandshakeTrafficSecret(secret Secret, transcript []byte) (Secret, error) {
	return deriveSecret(secret, "c hs traffic", transcript)
}

func fnServerHandshakeTrafficSecret(secret Secret, transcript []byte) (Secret, error) {
	return deriveSecret(secret, "s hs traffic", transcript)
}

func fnDerivedSecret(secret Secret) (Secret, error) {
	emptyHash := sha256.Sum256(nil)
	return deriveSecret(secret, "derived", emptyHash[:])
}

func fnNewKeyShare() ([]byte, error) {
	priv := make([]byte, curve25519.ScalarSize)
	for i := range priv {
		priv[i] = 2
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, loom.FnCryptof("x25519: %v", err)
	}
	return pub, nil
}

// recordNonce lays the record sequence number into the AEAD nonce.
func recordNonce(seq uint32) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint32(nonce[len(nonce)-4:], seq)
	return nonce
}

func fnEncrypt12(msg HandshakeMessage, seq uint32) (Record, error) {
	plaintext, err := encodeHandshake(msg)
	if err != nil {
		return Record{}, err
	}
	aead, err := chacha20poly1305.New(make([]byte, chacha20poly1305.KeySize))
	if err != nil {
		return Record{}, loom.FnCryptof("aead init: %v", err)
	}
	return Record{
		Typ:     ContentHandshake,
		Version: V1_2,
		Payload: aead.Seal(nil, recordNonce(seq), plaintext, nil),
	}, nil
}

func fnDecrypt12(rec Record, seq uint32) (HandshakeMessage, error) {
	aead, err := chacha20poly1305.New(make([]byte, chacha20poly1305.KeySize))
	if err != nil {
		return HandshakeMessage{}, loom.FnCryptof("aead init: %v", err)
	}
	plaintext, err := aead.Open(nil, recordNonce(seq), rec.Payload, nil)
	if err != nil {
		return HandshakeMessage{}, loom.FnCryptof("record open: %v", err)
	}
	return decodeHandshake(plaintext)
}
