package tls

// Field constructors. Deterministic on purpose: a fuzzing campaign that wants
// entropy mutates these at the bit level instead of reseeding them.

func fnProtocolVersion13() (ProtocolVersion, error) {
	return V1_3, nil
}

func fnProtocolVersion12() (ProtocolVersion, error) {
	return V1_2, nil
}

func fnNewSessionID() (SessionID, error) {
	id := make(SessionID, maxSessionIDLen)
	for i := range id {
		id[i] = 3
	}
	return id, nil
}

func fnNewRandom() (Random, error) {
	var r Random
	for i := range r {
		r[i] = 1
	}
	return r, nil
}

func fnCompressions() (Compressions, error) {
	return Compressions{CompressionNull}, nil
}

func fnCompressionsDeflate() (Compressions, error) {
	return Compressions{CompressionNull, CompressionDeflate}, nil
}

// ----
// Cipher Suites
// ----

func fnNewCipherSuites() (CipherSuites, error) {
	return CipherSuites{}, nil
}

func fnAppendCipherSuite(suites CipherSuites, suite CipherSuite) (CipherSuites, error) {
	out := make(CipherSuites, 0, len(suites)+1)
	out = append(out, suites...)
	return append(out, suite), nil
}

func fnCipherSuite12() (CipherSuite, error) {
	return SuiteECDHERSAWithAES128GCMSHA256, nil
}

func fnCipherSuite13() (CipherSuite, error) {
	return SuiteTLS13AES128GCMSHA256, nil
}

func fnWeakExportCipherSuite() (CipherSuite, error) {
	return SuiteRSAExportWithDES40CBCSHA, nil
}

func fnSecureRSACipherSuite12() (CipherSuite, error) {
	return SuiteRSAWithAES256CBCSHA256, nil
}

// ----
// Groups, sequence numbers, raw bytes
// ----

func fnNamedGroupX25519() (NamedGroup, error) {
	return GroupX25519, nil
}

func fnNamedGroupSecp384r1() (NamedGroup, error) {
	return GroupSecp384r1, nil
}

func fnSeq0() (uint32, error) {
	return 0, nil
}

func fnSeq1() (uint32, error) {
	return 1, nil
}

func fnEmptyBytes() ([]byte, error) {
	return []byte{}, nil
}
