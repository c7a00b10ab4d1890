// Package loom is the core of a protocol-fuzzing engine that discovers
// logical flaws in TLS implementations by synthesizing and mutating symbolic
// attacker traces.
//
// An attacker-controlled message is represented as a typed first-order term
// over a closed set of cryptographic functions (hashing, key derivation,
// record encryption, extension and message constructors). Terms are evaluated
// against a live context holding knowledge extracted from prior protocol
// interactions, rendered into concrete bytes, and handed to a program under
// test. Between iterations, structural mutators rewrite traces while the type
// discipline keeps most mutations meaningful.
//
// # Packages
//
//   - agent: agent naming and descriptors
//   - algebra: type registry, dynamic functions, signature, terms, payload
//     overlays, matchers, and the wire encoding
//   - trace: knowledge store, claims, traces and steps, execution context,
//     and the PUT boundary
//   - mutator: the five structural trace mutators
//   - tls: the TLS function set, TLS wire types, record deframer, and seed
//     traces
//   - put/inmem: an in-memory PUT for tests and local harnesses
//
// # Basic Usage
//
//	sig := tls.Signature()
//	algebra.SetDeserializationSignature(sig)
//
//	server := agent.First()
//	tr := tls.SeedClientHello(server)
//
//	ctx := trace.NewTraceContext(spawner,
//	    trace.WithExtractor(tls.NewExtractor()),
//	    trace.WithPolicy(tls.Policy))
//	status := trace.StatusOf(tr.Execute(ctx))
//
// Mutation between iterations:
//
//	muts := mutator.All(sig, loom.DefaultLimits())
//	for _, m := range muts {
//	    m.Mutate(rng, tr)
//	}
//
// This package itself carries only the pieces shared by every subpackage:
// the error taxonomy, the engine signals, and the engine limits.
//
// # Errors
//
// Function-local failures are FnError values tagged with a kind (unknown,
// malformed, crypto). Trace-level failures wrap the sentinel errors ErrTerm,
// ErrAgent, ErrStream, ErrExtraction, and ErrSecurityClaim. Use errors.Is for
// programmatic handling; FnError and ErrTerm failures are expected during
// fuzzing and never halt the harness loop.
package loom
