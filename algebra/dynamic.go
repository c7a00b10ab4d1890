package algebra

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/loomfuzz/loom"
)

// DynamicFn is the uniform call shim over a natively-typed function: it takes
// opaque boxed arguments and returns an opaque boxed value. Type checks happen
// at call time; failures are structured FnError values, never panics.
type DynamicFn func(args []any) (any, error)

// Shape describes a function symbol: its stable name, ordered argument types,
// and return type. The name is the sole serialization key; two processes
// linking compatible signatures interoperate through names.
type Shape struct {
	Name   string
	Args   []TypeShape
	Ret    TypeShape
	Opaque bool // encryption-like: output bytes hide the argument encodings
	List   bool // list-building: appends an element to a collection
}

// Arity returns the number of declared arguments.
func (s *Shape) Arity() int {
	return len(s.Args)
}

// SameTypes reports whether o declares the identical argument list and return
// type.
func (s *Shape) SameTypes(o *Shape) bool {
	if s.Ret != o.Ret || len(s.Args) != len(o.Args) {
		return false
	}
	for i, a := range s.Args {
		if a != o.Args[i] {
			return false
		}
	}
	return true
}

// Compatible reports whether o could replace s in a term: the names differ
// but argument list and return type coincide.
func (s *Shape) Compatible(o *Shape) bool {
	return s.Name != o.Name && s.SameTypes(o)
}

func (s *Shape) String() string {
	names := make([]string, len(s.Args))
	for i, a := range s.Args {
		names[i] = a.Name()
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Name, strings.Join(names, ", "), s.Ret.Name())
}

// Function pairs a shape with its call shim. Each instance carries a random
// resistant id, stable across clones and independent of the shape, used to
// discriminate visually identical nodes across mutations.
type Function struct {
	shape *Shape
	fn    DynamicFn
	id    uuid.UUID
}

// FunctionOption configures shape flags at construction.
type FunctionOption func(*Shape)

// Opaque marks the function's output as hiding its argument encodings.
// The flag feeds mutation heuristics, not evaluation semantics.
func Opaque() FunctionOption {
	return func(s *Shape) { s.Opaque = true }
}

// List marks the function as list-building.
// The flag feeds mutation heuristics, not evaluation semantics.
func List() FunctionOption {
	return func(s *Shape) { s.List = true }
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// NewFunction adapts a natively-typed implementation to the uniform call
// interface. impl must be a non-variadic func over registered types with
// signature func(A1, ..., An) (R, error). The returned Function carries name
// as its shape's name; the name must be the implementation's stable
// identifier, since it is the sole serialization key.
func NewFunction(name string, impl any, opts ...FunctionOption) (*Function, error) {
	rv := reflect.ValueOf(impl)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, fmt.Errorf("algebra: %s: impl is %T, want func", name, impl)
	}
	if rt.IsVariadic() {
		return nil, fmt.Errorf("algebra: %s: variadic functions cannot be adapted", name)
	}
	if rt.NumOut() != 2 || rt.Out(1) != errType {
		return nil, fmt.Errorf("algebra: %s: impl must return (R, error)", name)
	}

	shape := &Shape{Name: name, Args: make([]TypeShape, rt.NumIn())}
	for i := 0; i < rt.NumIn(); i++ {
		argShape, ok := LookupType(rt.In(i))
		if !ok {
			return nil, fmt.Errorf("algebra: %s: argument %d type %v not registered", name, i, rt.In(i))
		}
		shape.Args[i] = argShape
	}
	ret, ok := LookupType(rt.Out(0))
	if !ok {
		return nil, fmt.Errorf("algebra: %s: return type %v not registered", name, rt.Out(0))
	}
	shape.Ret = ret
	for _, opt := range opts {
		opt(shape)
	}

	shim := func(args []any) (any, error) {
		if len(args) != rt.NumIn() {
			return nil, loom.WrongArity(name, len(args), rt.NumIn())
		}
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			if arg == nil {
				return nil, loom.WrongType(name, i, rt.In(i).String(), "nil")
			}
			av := reflect.ValueOf(arg)
			if !av.Type().AssignableTo(rt.In(i)) {
				return nil, loom.WrongType(name, i, rt.In(i).String(), av.Type().String())
			}
			in[i] = av
		}
		out := rv.Call(in)
		if errv := out[1]; !errv.IsNil() {
			err := errv.Interface().(error)
			var fnErr *loom.FnError
			if errors.As(err, &fnErr) {
				return nil, fnErr
			}
			return nil, loom.FnUnknownf("%s: %v", name, err)
		}
		return out[0].Interface(), nil
	}

	return &Function{shape: shape, fn: shim, id: uuid.New()}, nil
}

// MustFunction is NewFunction, panicking on adapter errors. Signatures are
// assembled at process init where a bad shape is a programming error.
func MustFunction(name string, impl any, opts ...FunctionOption) *Function {
	f, err := NewFunction(name, impl, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the stable serialization name.
func (f *Function) Name() string {
	return f.shape.Name
}

// Shape returns the function's shape.
func (f *Function) Shape() *Shape {
	return f.shape
}

// Dynamic returns the uniform call shim.
func (f *Function) Dynamic() DynamicFn {
	return f.fn
}

// ResistantID returns the identity that survives clones and shape swaps.
func (f *Function) ResistantID() uuid.UUID {
	return f.id
}

// Equal reports structural equality: two functions are equal iff their names
// match.
func (f *Function) Equal(o *Function) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.shape.Name == o.shape.Name
}

// Clone copies the function, keeping its resistant id.
func (f *Function) Clone() *Function {
	return &Function{shape: f.shape, fn: f.fn, id: f.id}
}

// Instantiate copies the function under a fresh resistant id, for use as a
// new term node.
func (f *Function) Instantiate() *Function {
	return &Function{shape: f.shape, fn: f.fn, id: uuid.New()}
}

// ChangeFunction swaps the symbol in place, keeping the resistant id. The
// caller is responsible for only swapping in a compatible shape.
func (f *Function) ChangeFunction(shape *Shape, fn DynamicFn) {
	f.shape = shape
	f.fn = fn
}

func (f *Function) String() string {
	return f.shape.String()
}
