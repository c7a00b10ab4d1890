package tls

import "encoding/binary"

// Extension code points.
const (
	extServerName             = 0x0000
	extSupportedGroups        = 0x000a
	extECPointFormats         = 0x000b
	extSignatureAlgorithms    = 0x000d
	extSCT                    = 0x0012
	extSupportedVersions      = 0x002b
	extSignatureAlgsCert      = 0x0032
	extKeyShare               = 0x0033
	extRenegotiationInfo      = 0xff01
	sigRSAPKCS1SHA256         = 0x0401
	sigRSAPSSSHA256           = 0x0804
	ecPointFormatUncompressed = 0
)

func fnExtensionsNew() (Extensions, error) {
	return Extensions{}, nil
}

func fnExtensionsAppend(exts Extensions, ext Extension) (Extensions, error) {
	out := make(Extensions, 0, len(exts)+1)
	out = append(out, exts...)
	return append(out, ext), nil
}

func fnServerNameExtension(host []byte) (Extension, error) {
	// server_name_list: one host_name entry
	entry := make([]byte, 0, 3+len(host))
	entry = append(entry, 0) // host_name
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(host)))
	entry = append(entry, host...)

	data := binary.BigEndian.AppendUint16(nil, uint16(len(entry)))
	data = append(data, entry...)
	return Extension{Typ: extServerName, Data: data}, nil
}

func fnSupportGroupExtension(group NamedGroup) (Extension, error) {
	data := binary.BigEndian.AppendUint16(nil, 2)
	data = binary.BigEndian.AppendUint16(data, uint16(group))
	return Extension{Typ: extSupportedGroups, Data: data}, nil
}

func fnSignatureAlgorithmExtension() (Extension, error) {
	return Extension{Typ: extSignatureAlgorithms, Data: signatureSchemeList()}, nil
}

func fnSignatureAlgorithmCertExtension() (Extension, error) {
	return Extension{Typ: extSignatureAlgsCert, Data: signatureSchemeList()}, nil
}

func signatureSchemeList() []byte {
	data := binary.BigEndian.AppendUint16(nil, 4)
	data = binary.BigEndian.AppendUint16(data, sigRSAPKCS1SHA256)
	return binary.BigEndian.AppendUint16(data, sigRSAPSSSHA256)
}

func fnECPointFormatsExtension() (Extension, error) {
	return Extension{Typ: extECPointFormats, Data: []byte{1, ecPointFormatUncompressed}}, nil
}

func fnSignedCertificateTimestampExtension() (Extension, error) {
	return Extension{Typ: extSCT, Data: []byte{}}, nil
}

func fnRenegotiationInfoExtension(info []byte) (Extension, error) {
	data := make([]byte, 0, 1+len(info))
	data = append(data, byte(len(info)))
	return Extension{Typ: extRenegotiationInfo, Data: append(data, info...)}, nil
}

func fnKeyShareExtension(pub []byte) (Extension, error) {
	entry := binary.BigEndian.AppendUint16(nil, uint16(GroupX25519))
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(pub)))
	entry = append(entry, pub...)

	data := binary.BigEndian.AppendUint16(nil, uint16(len(entry)))
	data = append(data, entry...)
	return Extension{Typ: extKeyShare, Data: data}, nil
}

func fnSupportedVersionsExtension() (Extension, error) {
	return Extension{Typ: extSupportedVersions, Data: []byte{2, 0x03, 0x04}}, nil
}
