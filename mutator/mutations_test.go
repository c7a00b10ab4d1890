package mutator_test

import (
	"encoding/binary"
	"math/rand"
	"sync"
	"testing"

	"github.com/loomfuzz/loom"
	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/mutator"
	"github.com/loomfuzz/loom/put/inmem"
	"github.com/loomfuzz/loom/trace"
)

func encodeU32(v uint32) ([]byte, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:], nil
}

func decodeU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, loom.FnMalformedf("u32 wants 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func fnSeq0() (uint32, error)              { return 0, nil }
func fnSeq1() (uint32, error)              { return 1, nil }
func fnSucc(v uint32) (uint32, error)      { return v + 1, nil }
func fnAdd(a, b uint32) (uint32, error)    { return a + b, nil }
func fnToBytes(v uint32) ([]byte, error)   { return encodeU32(v) }
func fnWrapBytes(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

var (
	sigOnce sync.Once
	testSig *algebra.Signature

	u32Shape algebra.TypeShape
)

func testSignature() *algebra.Signature {
	sigOnce.Do(func() {
		u32Shape = algebra.RegisterType[uint32]("test.U32", encodeU32, decodeU32)
		algebra.RegisterType[[]byte]("test.Bytes",
			func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
			func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
		)

		testSig = algebra.NewSignature(
			algebra.MustFunction("fn_seq_0", fnSeq0),
			algebra.MustFunction("fn_seq_1", fnSeq1),
			algebra.MustFunction("fn_succ", fnSucc),
			algebra.MustFunction("fn_add", fnAdd),
			algebra.MustFunction("fn_to_bytes", fnToBytes),
			algebra.MustFunction("fn_wrap_bytes", fnWrapBytes),
		)
	})
	return testSig
}

func mustFn(name string) *algebra.Function {
	f, ok := testSignature().LookupByName(name)
	if !ok {
		panic("unknown test function " + name)
	}
	return f.Instantiate()
}

func seqTrace() *trace.Trace {
	return &trace.Trace{
		Descriptors: []agent.Descriptor{agent.NewServer(agent.First(), agent.V1_2)},
		Steps: []trace.Step{
			trace.InputStep(agent.First(), algebra.AppEval(mustFn("fn_succ"),
				algebra.AppEval(mustFn("fn_seq_0")),
			)),
			trace.InputStep(agent.First(), algebra.AppEval(mustFn("fn_to_bytes"),
				algebra.AppEval(mustFn("fn_add"),
					algebra.AppEval(mustFn("fn_seq_0")),
					algebra.AppEval(mustFn("fn_seq_1")),
				),
			)),
		},
	}
}

// evaluateU32 lazily evaluates a recipe to its u32 value; the mutated trace
// must stay evaluable whenever types were preserved.
func evaluateU32(t *testing.T, te *algebra.TermEval) uint32 {
	t.Helper()
	ctx := trace.NewTraceContext(inmem.NewRegistry())
	out, err := te.EvaluateLazy(ctx)
	if err != nil {
		t.Fatalf("EvaluateLazy() error: %v", err)
	}
	return out.(uint32)
}

func TestSkipOnEmptyTrace(t *testing.T) {
	tr := &trace.Trace{}
	r := rand.New(rand.NewSource(1))

	for _, m := range mutator.All(testSignature(), loom.DefaultLimits()) {
		result, err := m.Mutate(r, tr)
		if err != nil {
			t.Fatalf("%s error: %v", m.Name(), err)
		}
		if result != mutator.Skipped {
			t.Errorf("%s on empty trace = %v, want Skipped", m.Name(), result)
		}
		if len(tr.Steps) != 0 {
			t.Errorf("%s changed an empty trace", m.Name())
		}
	}
}

func TestRepeatDuplicatesStep(t *testing.T) {
	tr := seqTrace()
	r := rand.New(rand.NewSource(2))

	result, err := mutator.NewRepeat(loom.DefaultLimits()).Mutate(r, tr)
	if err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}
	if result != mutator.Mutated {
		t.Fatalf("Mutate() = %v, want Mutated", result)
	}
	if len(tr.Steps) != 3 {
		t.Errorf("steps = %d, want 3", len(tr.Steps))
	}
}

func TestRepeatHonorsLimit(t *testing.T) {
	tr := seqTrace()
	r := rand.New(rand.NewSource(3))

	m := mutator.NewRepeat(loom.Limits{MaxTraceSteps: 2})
	result, err := m.Mutate(r, tr)
	if err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}
	if result != mutator.Skipped || len(tr.Steps) != 2 {
		t.Errorf("Repeat ignored MaxTraceSteps: result=%v steps=%d", result, len(tr.Steps))
	}
}

func TestSkipRemovesStep(t *testing.T) {
	tr := seqTrace()
	r := rand.New(rand.NewSource(4))

	result, err := mutator.NewSkip().Mutate(r, tr)
	if err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}
	if result != mutator.Mutated || len(tr.Steps) != 1 {
		t.Errorf("Skip: result=%v steps=%d, want Mutated/1", result, len(tr.Steps))
	}
}

func TestReplaceReusePreservesRootType(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	m := mutator.NewReplaceReuse(loom.DefaultLimits())

	for i := 0; i < 100; i++ {
		tr := seqTrace()
		before0 := tr.Steps[0].Recipe.TypeShape()
		before1 := tr.Steps[1].Recipe.TypeShape()

		if _, err := m.Mutate(r, tr); err != nil {
			t.Fatalf("Mutate() error: %v", err)
		}
		if tr.Steps[0].Recipe.TypeShape() != before0 || tr.Steps[1].Recipe.TypeShape() != before1 {
			t.Fatalf("iteration %d: ReplaceReuse changed a root return type", i)
		}
	}
}

func TestReplaceMatchPreservesTypeAndEvaluates(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	m := mutator.NewReplaceMatch(testSignature())

	fired := false
	for i := 0; i < 200; i++ {
		tr := &trace.Trace{Steps: []trace.Step{
			trace.InputStep(agent.First(), algebra.AppEval(mustFn("fn_seq_0"))),
		}}
		result, err := m.Mutate(r, tr)
		if err != nil {
			t.Fatalf("Mutate() error: %v", err)
		}
		recipe := tr.Steps[0].Recipe
		if recipe.TypeShape() != u32Shape {
			t.Fatalf("iteration %d: ReplaceMatch changed the return type", i)
		}
		if result == mutator.Mutated {
			fired = true
			if recipe.NodeName() != "fn_seq_1" {
				t.Fatalf("iteration %d: swapped to %s, want fn_seq_1", i, recipe.NodeName())
			}
			if got := evaluateU32(t, recipe); got != 1 {
				t.Fatalf("iteration %d: evaluates to %d, want 1", i, got)
			}
		}
	}
	if !fired {
		t.Fatalf("ReplaceMatch never fired in 200 iterations")
	}
}

func TestRemoveAndLiftPreservesType(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m := mutator.NewRemoveAndLift()

	fired := false
	for i := 0; i < 100; i++ {
		tr := &trace.Trace{Steps: []trace.Step{
			trace.InputStep(agent.First(), algebra.AppEval(mustFn("fn_succ"),
				algebra.AppEval(mustFn("fn_succ"),
					algebra.AppEval(mustFn("fn_seq_1")),
				),
			)),
		}}
		sizeBefore := tr.Steps[0].Recipe.Size()

		result, err := m.Mutate(r, tr)
		if err != nil {
			t.Fatalf("Mutate() error: %v", err)
		}
		recipe := tr.Steps[0].Recipe
		if recipe.TypeShape() != u32Shape {
			t.Fatalf("iteration %d: RemoveAndLift changed the return type", i)
		}
		if result == mutator.Mutated {
			fired = true
			if recipe.Size() != sizeBefore-1 {
				t.Fatalf("iteration %d: size %d, want %d", i, recipe.Size(), sizeBefore-1)
			}
			if got := evaluateU32(t, recipe); got != 1 && got != 2 {
				t.Fatalf("iteration %d: evaluates to %d, want 1 or 2", i, got)
			}
		}
	}
	if !fired {
		t.Fatalf("RemoveAndLift never fired in 100 iterations")
	}
}

func TestRemoveAndLiftSkipsWithoutCandidate(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	// fn_to_bytes changes type, fn_add has two arguments: no candidate.
	tr := &trace.Trace{Steps: []trace.Step{
		trace.InputStep(agent.First(), algebra.AppEval(mustFn("fn_to_bytes"),
			algebra.AppEval(mustFn("fn_add"),
				algebra.AppEval(mustFn("fn_seq_0")),
				algebra.AppEval(mustFn("fn_seq_1")),
			),
		)),
	}}

	result, err := mutator.NewRemoveAndLift().Mutate(r, tr)
	if err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}
	if result != mutator.Skipped {
		t.Errorf("Mutate() = %v, want Skipped", result)
	}
}

func TestMutatorsNeverPanic(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	muts := mutator.All(testSignature(), loom.DefaultLimits())

	tr := seqTrace()
	for i := 0; i < 500; i++ {
		m := muts[r.Intn(len(muts))]
		if _, err := m.Mutate(r, tr); err != nil {
			t.Fatalf("%s error: %v", m.Name(), err)
		}
		if len(tr.Steps) == 0 {
			tr = seqTrace()
		}
	}
}
