package tls

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// Claim payloads an agent adapter may emit. Fields tagged `knowledge` are
// deposited into the knowledge store when the claim is recorded, so later
// recipe variables can bind them.

// TranscriptClientHello snapshots the handshake hash after the client hello.
type TranscriptClientHello struct {
	Hash []byte `knowledge:"transcript_client_hello"`
}

// TranscriptServerFinished snapshots the handshake hash after the server
// finished message.
type TranscriptServerFinished struct {
	Hash []byte `knowledge:"transcript_server_finished"`
}

// Certificate is emitted when the agent has presented or verified a
// certificate chain.
type Certificate struct {
	Chain []byte `knowledge:"certificate_chain"`
}

// Finished is emitted when the agent sends or accepts a finished message.
type Finished struct {
	Outbound bool

	ClientRandom []byte `knowledge:"client_random"`
	ServerRandom []byte `knowledge:"server_random"`
	SessionID    []byte `knowledge:"session_id"`
	MasterSecret []byte `knowledge:"master_secret"`
}

// Policy is the violation policy for the claim set above: an accepted
// finished message from an agent that never saw a certificate is an
// authentication bypass.
func Policy(claims []trace.Claim) (string, bool) {
	certSeen := make(map[agent.Name]bool)
	for _, c := range claims {
		switch c.Value.(type) {
		case Certificate:
			certSeen[c.Agent] = true
		case Finished:
			if !certSeen[c.Agent] {
				return "finished accepted without certificate", true
			}
		}
	}
	return "", false
}

func registerClaims() {
	algebra.RegisterType[TranscriptClientHello]("tls.TranscriptClientHello",
		encodeClaim[TranscriptClientHello], decodeClaim[TranscriptClientHello])
	algebra.RegisterType[TranscriptServerFinished]("tls.TranscriptServerFinished",
		encodeClaim[TranscriptServerFinished], decodeClaim[TranscriptServerFinished])
	algebra.RegisterType[Certificate]("tls.Certificate",
		encodeClaim[Certificate], decodeClaim[Certificate])
	algebra.RegisterType[Finished]("tls.Finished",
		encodeClaim[Finished], decodeClaim[Finished])

	for _, register := range []func() error{
		trace.RegisterClaimType[TranscriptClientHello],
		trace.RegisterClaimType[TranscriptServerFinished],
		trace.RegisterClaimType[Certificate],
		trace.RegisterClaimType[Finished],
	} {
		if err := register(); err != nil {
			panic(err)
		}
	}
}

// Claim payloads cross the wire only inside corpus snapshots, where the
// tagged msgpack form is good enough.
func encodeClaim[T any](v T) ([]byte, error) {
	return msgpack.Marshal(v)
}

func decodeClaim[T any](data []byte) (T, error) {
	var v T
	err := msgpack.Unmarshal(data, &v)
	return v, err
}
