// Package inmem provides an in-memory program-under-test adapter. It records
// attacker bytes and answers with scripted outbound flights, so traces can be
// executed without a real TLS stack. It is a test double for harnesses and
// this module's own tests, not a PUT implementation.
package inmem

import (
	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/trace"
)

// Memory is an in-memory Put.
type Memory struct {
	desc     agent.Descriptor
	inbound  [][]byte
	flights  [][]byte
	claims   []trace.Claim
	crashed  bool
	shutdown bool
}

// Option configures a Memory endpoint.
type Option func(*Memory)

// WithFlights scripts the outbound byte flights, drained one per
// TakeOutbound call.
func WithFlights(flights ...[]byte) Option {
	return func(m *Memory) { m.flights = flights }
}

// WithClaims queues claims reported on the next Claims call.
func WithClaims(claims ...trace.Claim) Option {
	return func(m *Memory) { m.claims = claims }
}

// New creates an endpoint for desc.
func New(desc agent.Descriptor, opts ...Option) *Memory {
	m := &Memory{desc: desc}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Crash marks the endpoint as terminated; every subsequent interaction fails
// with loom.ErrCrashed.
func (m *Memory) Crash() {
	m.crashed = true
}

// Inbound returns everything delivered so far.
func (m *Memory) Inbound() [][]byte {
	return m.inbound
}

// AddInbound implements trace.Put.
func (m *Memory) AddInbound(data []byte) error {
	if m.crashed {
		return loom.ErrCrashed
	}
	m.inbound = append(m.inbound, append([]byte(nil), data...))
	return nil
}

// Progress implements trace.Put.
func (m *Memory) Progress() error {
	if m.crashed {
		return loom.ErrCrashed
	}
	return nil
}

// TakeOutbound implements trace.Put, draining the next scripted flight.
func (m *Memory) TakeOutbound() ([]byte, error) {
	if m.crashed {
		return nil, loom.ErrCrashed
	}
	if len(m.flights) == 0 {
		return nil, nil
	}
	next := m.flights[0]
	m.flights = m.flights[1:]
	return next, nil
}

// Descriptor implements trace.Put.
func (m *Memory) Descriptor() agent.Descriptor {
	return m.desc
}

// Claims implements trace.Put, draining the queued claims.
func (m *Memory) Claims() []trace.Claim {
	claims := m.claims
	m.claims = nil
	return claims
}

// Shutdown implements trace.Put.
func (m *Memory) Shutdown() {
	m.shutdown = true
}

// WasShutdown reports whether Shutdown was called.
func (m *Memory) WasShutdown() bool {
	return m.shutdown
}

// Registry spawns Memory endpoints and keeps them reachable for assertions.
type Registry struct {
	opts   map[agent.Name][]Option
	Agents map[agent.Name]*Memory
}

// NewRegistry creates a registry; per-agent options script each endpoint.
func NewRegistry() *Registry {
	return &Registry{
		opts:   make(map[agent.Name][]Option),
		Agents: make(map[agent.Name]*Memory),
	}
}

// Script sets the options applied when name is spawned.
func (r *Registry) Script(name agent.Name, opts ...Option) *Registry {
	r.opts[name] = opts
	return r
}

// Spawn implements trace.Spawner.
func (r *Registry) Spawn(desc agent.Descriptor) (trace.Put, error) {
	m := New(desc, r.opts[desc.Name]...)
	r.Agents[desc.Name] = m
	return m, nil
}
