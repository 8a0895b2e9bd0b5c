package meta

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

var (
	ErrConstructorIsNotAFunction = errors.New("provided constructor is not a function")
	ErrIsNotAConstructor         = errors.New("provided function is not a recognizable constructor")
	ErrParameterNames            = errors.New("constructor parameter names do not match its arity")
	ErrDuplicateConstructor      = errors.New("constructor already registered for type")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param is a named constructor argument.
type Param struct {
	Name string
	Type reflect.Type
}

// Constructor is a function building instances of a shape from arguments.
type Constructor struct {
	Fn     reflect.Value
	Name   string
	Params []Param
	// Shape is the constructed struct type (never a pointer).
	Shape reflect.Type
	// ReturnsPointer is set for func(...) *S.
	ReturnsPointer bool
	// ReturnsError is set for func(...) (S, error).
	ReturnsError bool
}

// ParseConstructor inspects fn and binds names to its parameters.
//
// Supports:
//   - func(a A, b B, ...) S
//   - func(a A, b B, ...) *S
//   - func(a A, b B, ...) (S, error)
//   - func(a A, b B, ...) (*S, error)
func ParseConstructor(fn any, names ...string) (*Constructor, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, ErrConstructorIsNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() || fnType.NumOut() == 0 || fnType.NumOut() > 2 {
		return nil, ErrIsNotAConstructor
	}

	if fnType.NumIn() != len(names) {
		return nil, fmt.Errorf("%w: %d parameter(s), %d name(s)", ErrParameterNames, fnType.NumIn(), len(names))
	}

	ctor := &Constructor{Fn: fnVal, Name: runtime.FuncForPC(fnVal.Pointer()).Name()}

	out := fnType.Out(0)
	if out.Kind() == reflect.Pointer {
		ctor.ReturnsPointer = true
		out = out.Elem()
	}

	if out.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: returns %s", ErrIsNotAConstructor, fnType.Out(0))
	}

	ctor.Shape = out

	if fnType.NumOut() == 2 {
		if fnType.Out(1) != errorType {
			return nil, ErrIsNotAConstructor
		}

		ctor.ReturnsError = true
	}

	for i, name := range names {
		ctor.Params = append(ctor.Params, Param{Name: name, Type: fnType.In(i)})
	}

	return ctor, nil
}

// Call invokes the constructor and returns a pointer to the built value.
func (c *Constructor) Call(args []reflect.Value) (reflect.Value, error) {
	out := c.Fn.Call(args)
	if c.ReturnsError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}

	if c.ReturnsPointer {
		if out[0].IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor %s returned nil", c.Name)
		}

		return out[0], nil
	}

	ptr := reflect.New(c.Shape)
	ptr.Elem().Set(out[0])

	return ptr, nil
}

// Registry holds the constructors shapes are built with.
type Registry struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]*Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[reflect.Type]*Constructor)}
}

// Register parses and stores fn as the constructor of its result shape.
func (r *Registry) Register(fn any, names ...string) (*Constructor, error) {
	ctor, err := ParseConstructor(fn, names...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ctors[ctor.Shape]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateConstructor, ctor.Shape)
	}

	r.ctors[ctor.Shape] = ctor

	return ctor, nil
}

// Lookup returns the constructor of shape t, if any.
func (r *Registry) Lookup(t reflect.Type) *Constructor {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ctors[t]
}
