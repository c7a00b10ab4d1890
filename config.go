package loom

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits bounds the shapes a fuzzing campaign may grow.
//
// The limits are advisory for evaluation but binding for mutation: mutators
// skip rewrites that would exceed them. Zero values mean unbounded.
type Limits struct {
	// MaxTraceSteps caps the number of steps a trace may grow to through
	// Repeat mutations.
	MaxTraceSteps int `yaml:"max_trace_steps"`

	// MaxTermSize caps the node count of a recipe term grown through
	// ReplaceReuse mutations.
	MaxTermSize int `yaml:"max_term_size"`
}

// DefaultLimits returns the engine's default bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxTraceSteps: 32,
		MaxTermSize:   512,
	}
}

// LoadLimits reads limits from a YAML file, filling absent fields from
// DefaultLimits.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("read limits: %w", err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("parse limits: %w", err)
	}
	if err := limits.Validate(); err != nil {
		return limits, err
	}
	return limits, nil
}

// Validate rejects negative bounds.
func (l Limits) Validate() error {
	if l.MaxTraceSteps < 0 {
		return fmt.Errorf("max_trace_steps must not be negative, got %d", l.MaxTraceSteps)
	}
	if l.MaxTermSize < 0 {
		return fmt.Errorf("max_term_size must not be negative, got %d", l.MaxTermSize)
	}
	return nil
}
