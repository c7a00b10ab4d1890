package trace

import (
	"errors"
	"fmt"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
)

// Put is the boundary to one program under test: a running TLS endpoint
// driven by the harness. The core delivers attacker bytes inbound, drains
// responses outbound, and reads claims; everything else about the endpoint is
// the adapter's business.
type Put interface {
	// AddInbound delivers attacker bytes to the endpoint.
	AddInbound(data []byte) error

	// Progress drives the endpoint's state machine without new input.
	Progress() error

	// TakeOutbound drains the endpoint's pending response bytes.
	TakeOutbound() ([]byte, error)

	// Descriptor returns the endpoint's role and version.
	Descriptor() agent.Descriptor

	// Claims returns the protocol-internal observations emitted since the
	// previous call.
	Claims() []Claim

	// Shutdown releases the endpoint.
	Shutdown()
}

// Spawner creates endpoint adapters from descriptors. It is the PUT-registry
// boundary: the core never constructs endpoints itself.
type Spawner interface {
	Spawn(desc agent.Descriptor) (Put, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(desc agent.Descriptor) (Put, error)

func (f SpawnerFunc) Spawn(desc agent.Descriptor) (Put, error) {
	return f(desc)
}

// StatusKind classifies how a trace execution ended.
type StatusKind int

const (
	// Success means every step executed.
	Success StatusKind = iota

	// Failure means a step failed in an expected way: an unresolvable
	// variable, a function rejecting its inputs, a policy violation.
	Failure

	// Crashed means the program under test terminated.
	Crashed

	// Timeout means the harness aborted the execution.
	Timeout
)

func (k StatusKind) String() string {
	switch k {
	case Success:
		return "success"
	case Crashed:
		return "crashed"
	case Timeout:
		return "timeout"
	default:
		return "failure"
	}
}

// ExecutionStatus is the harness-facing outcome of Trace.Execute.
type ExecutionStatus struct {
	Kind   StatusKind
	Reason string
}

func (s ExecutionStatus) String() string {
	if s.Reason == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Reason)
}

// StatusOf maps an execution error onto the status taxonomy. FnError and
// term errors are expected fuzzing outcomes and map to Failure; only a
// terminated endpoint maps to Crashed.
func StatusOf(err error) ExecutionStatus {
	switch {
	case err == nil:
		return ExecutionStatus{Kind: Success}
	case errors.Is(err, loom.ErrCrashed):
		return ExecutionStatus{Kind: Crashed, Reason: err.Error()}
	case errors.Is(err, loom.ErrTimeout):
		return ExecutionStatus{Kind: Timeout, Reason: err.Error()}
	default:
		return ExecutionStatus{Kind: Failure, Reason: err.Error()}
	}
}
