package inmem

import (
	"bytes"
	"errors"
	"testing"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
)

func TestMemoryRecordsInbound(t *testing.T) {
	m := New(agent.NewServer(agent.First(), agent.V1_2))

	if err := m.AddInbound([]byte{1, 2}); err != nil {
		t.Fatalf("AddInbound() error: %v", err)
	}
	if got := m.Inbound(); len(got) != 1 || !bytes.Equal(got[0], []byte{1, 2}) {
		t.Errorf("Inbound() = %v", got)
	}
}

func TestMemoryDrainsFlights(t *testing.T) {
	m := New(agent.NewServer(agent.First(), agent.V1_2),
		WithFlights([]byte("one"), []byte("two")))

	first, _ := m.TakeOutbound()
	second, _ := m.TakeOutbound()
	third, _ := m.TakeOutbound()
	if string(first) != "one" || string(second) != "two" || third != nil {
		t.Errorf("flights drained as %q %q %q", first, second, third)
	}
}

func TestMemoryCrash(t *testing.T) {
	m := New(agent.NewServer(agent.First(), agent.V1_2))
	m.Crash()

	if err := m.AddInbound(nil); !errors.Is(err, loom.ErrCrashed) {
		t.Errorf("AddInbound() after crash = %v, want ErrCrashed", err)
	}
	if _, err := m.TakeOutbound(); !errors.Is(err, loom.ErrCrashed) {
		t.Errorf("TakeOutbound() after crash = %v, want ErrCrashed", err)
	}
}

func TestRegistrySpawns(t *testing.T) {
	r := NewRegistry()
	r.Script(agent.First(), WithFlights([]byte("scripted")))

	put, err := r.Spawn(agent.NewServer(agent.First(), agent.V1_2))
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	out, err := put.TakeOutbound()
	if err != nil || string(out) != "scripted" {
		t.Errorf("TakeOutbound() = %q, %v", out, err)
	}
	if r.Agents[agent.First()] == nil {
		t.Errorf("registry lost track of the spawned agent")
	}
}
