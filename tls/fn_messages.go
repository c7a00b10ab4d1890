package tls

// Message constructors assemble handshake messages and records from typed
// fields, using the same codecs the evaluator splices against.

func fnClientHello(
	version ProtocolVersion,
	random Random,
	sessionID SessionID,
	suites CipherSuites,
	compressions Compressions,
	extensions Extensions,
) (HandshakeMessage, error) {
	var body []byte
	for _, enc := range []func() ([]byte, error){
		func() ([]byte, error) { return encodeProtocolVersion(version) },
		func() ([]byte, error) { return encodeRandom(random) },
		func() ([]byte, error) { return encodeSessionID(sessionID) },
		func() ([]byte, error) { return encodeCipherSuites(suites) },
		func() ([]byte, error) { return encodeCompressions(compressions) },
		func() ([]byte, error) { return encodeExtensions(extensions) },
	} {
		part, err := enc()
		if err != nil {
			return HandshakeMessage{}, err
		}
		body = append(body, part...)
	}
	return HandshakeMessage{Typ: TypeClientHello, Body: body}, nil
}

func fnFinished() (HandshakeMessage, error) {
	return HandshakeMessage{Typ: TypeFinished, Body: make([]byte, 12)}, nil
}

func fnFinishedWith(verify []byte) (HandshakeMessage, error) {
	return HandshakeMessage{Typ: TypeFinished, Body: append([]byte(nil), verify...)}, nil
}

func fnClientKeyExchange() (HandshakeMessage, error) {
	pub, err := fnNewKeyShare()
	if err != nil {
		return HandshakeMessage{}, err
	}
	body := make([]byte, 0, 1+len(pub))
	body = append(body, byte(len(pub)))
	return HandshakeMessage{Typ: TypeClientKeyExchange, Body: append(body, pub...)}, nil
}

func fnRecord(msg HandshakeMessage, version ProtocolVersion) (Record, error) {
	payload, err := encodeHandshake(msg)
	if err != nil {
		return Record{}, err
	}
	return Record{Typ: ContentHandshake, Version: version, Payload: payload}, nil
}

func fnApplicationData(data []byte) (Record, error) {
	return Record{
		Typ:     ContentApplicationData,
		Version: V1_2,
		Payload: append([]byte(nil), data...),
	}, nil
}

func fnAlertCloseNotify() (Record, error) {
	// warning, close_notify
	return Record{Typ: ContentAlert, Version: V1_2, Payload: []byte{1, 0}}, nil
}
