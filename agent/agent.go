// Package agent names and describes the TLS endpoints a trace drives.
package agent

import "strconv"

// Name identifies an agent within a trace. Names are dense integers issued
// sequentially and monotonic within a process.
type Name uint8

// First returns the first agent name.
func First() Name {
	return 0
}

// Next returns the name following n.
func (n Name) Next() Name {
	return n + 1
}

func (n Name) String() string {
	return strconv.Itoa(int(n))
}

// Type is the protocol role of an agent.
type Type int

const (
	// Client agents initiate the handshake.
	Client Type = iota

	// Server agents answer it.
	Server
)

func (t Type) String() string {
	if t == Server {
		return "server"
	}
	return "client"
}

// TLSVersion is the protocol version an agent is configured for.
type TLSVersion int

const (
	V1_2 TLSVersion = iota
	V1_3
)

func (v TLSVersion) String() string {
	if v == V1_3 {
		return "1.3"
	}
	return "1.2"
}

// Descriptor configures one agent of a trace: its name, role, and version.
type Descriptor struct {
	Name    Name       `msgpack:"name"`
	Typ     Type       `msgpack:"typ"`
	Version TLSVersion `msgpack:"version"`
}

// NewServer describes a server agent.
func NewServer(name Name, version TLSVersion) Descriptor {
	return Descriptor{Name: name, Typ: Server, Version: version}
}

// NewClient describes a client agent.
func NewClient(name Name, version TLSVersion) Descriptor {
	return Descriptor{Name: name, Typ: Client, Version: version}
}
