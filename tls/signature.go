package tls

import (
	"sync"

	"github.com/loomfuzz/loom/algebra"
)

var (
	signatureOnce sync.Once
	signature     *algebra.Signature
)

// Signature returns the process signature over the TLS function set,
// registering the native types and claim payloads on first use.
func Signature() *algebra.Signature {
	signatureOnce.Do(func() {
		registerTypes()
		registerClaims()
		signature = algebra.NewSignature(
			// crypto
			algebra.MustFunction("fn_hmac256_new_key", fnHmac256NewKey),
			algebra.MustFunction("fn_arbitrary_to_key", fnArbitraryToKey),
			algebra.MustFunction("fn_hmac256", fnHmac256),
			algebra.MustFunction("fn_hkdf_extract", fnHkdfExtract),
			algebra.MustFunction("fn_client_handshake_traffic_secret", fnClientHandshakeTrafficSecret),
			algebra.MustFunction("fn_server_handshake_traffic_secret", fnServerHandshakeTrafficSecret),
			algebra.MustFunction("fn_derived_secret", fnDerivedSecret),
			algebra.MustFunction("fn_new_key_share", fnNewKeyShare),
			algebra.MustFunction("fn_encrypt12", fnEncrypt12, algebra.Opaque()),
			algebra.MustFunction("fn_decrypt12", fnDecrypt12),

			// messages
			algebra.MustFunction("fn_client_hello", fnClientHello),
			algebra.MustFunction("fn_finished", fnFinished),
			algebra.MustFunction("fn_finished_with", fnFinishedWith),
			algebra.MustFunction("fn_client_key_exchange", fnClientKeyExchange),
			algebra.MustFunction("fn_record", fnRecord),
			algebra.MustFunction("fn_application_data", fnApplicationData),
			algebra.MustFunction("fn_alert_close_notify", fnAlertCloseNotify),

			// fields
			algebra.MustFunction("fn_protocol_version12", fnProtocolVersion12),
			algebra.MustFunction("fn_protocol_version13", fnProtocolVersion13),
			algebra.MustFunction("fn_new_session_id", fnNewSessionID),
			algebra.MustFunction("fn_new_random", fnNewRandom),
			algebra.MustFunction("fn_compressions", fnCompressions),
			algebra.MustFunction("fn_compressions_deflate", fnCompressionsDeflate),
			algebra.MustFunction("fn_new_cipher_suites", fnNewCipherSuites),
			algebra.MustFunction("fn_append_cipher_suite", fnAppendCipherSuite, algebra.List()),
			algebra.MustFunction("fn_cipher_suite12", fnCipherSuite12),
			algebra.MustFunction("fn_cipher_suite13", fnCipherSuite13),
			algebra.MustFunction("fn_weak_export_cipher_suite", fnWeakExportCipherSuite),
			algebra.MustFunction("fn_secure_rsa_cipher_suite12", fnSecureRSACipherSuite12),
			algebra.MustFunction("fn_named_group_x25519", fnNamedGroupX25519),
			algebra.MustFunction("fn_named_group_secp384r1", fnNamedGroupSecp384r1),
			algebra.MustFunction("fn_seq_0", fnSeq0),
			algebra.MustFunction("fn_seq_1", fnSeq1),
			algebra.MustFunction("fn_empty_bytes", fnEmptyBytes),

			// extensions
			algebra.MustFunction("fn_extensions_new", fnExtensionsNew),
			algebra.MustFunction("fn_extensions_append", fnExtensionsAppend, algebra.List()),
			algebra.MustFunction("fn_server_name_extension", fnServerNameExtension),
			algebra.MustFunction("fn_support_group_extension", fnSupportGroupExtension),
			algebra.MustFunction("fn_signature_algorithm_extension", fnSignatureAlgorithmExtension),
			algebra.MustFunction("fn_signature_algorithm_cert_extension", fnSignatureAlgorithmCertExtension),
			algebra.MustFunction("fn_ec_point_formats_extension", fnECPointFormatsExtension),
			algebra.MustFunction("fn_signed_certificate_timestamp_extension", fnSignedCertificateTimestampExtension),
			algebra.MustFunction("fn_renegotiation_info_extension", fnRenegotiationInfoExtension),
			algebra.MustFunction("fn_key_share_extension", fnKeyShareExtension),
			algebra.MustFunction("fn_supported_versions_extension", fnSupportedVersionsExtension),
		)
	})
	return signature
}

// Install returns the signature after installing it for deserialization.
func Install() (*algebra.Signature, error) {
	sig := Signature()
	if err := algebra.SetDeserializationSignature(sig); err != nil {
		return nil, err
	}
	return sig, nil
}
