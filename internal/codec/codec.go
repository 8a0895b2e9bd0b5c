package codec

import (
	"math"
	"reflect"
	"unsafe"

	"flat-mapper/maperr"
	"flat-mapper/primitive"
)

type (
	setFunc   func(ctx *Context, dst unsafe.Pointer, cell []byte) error
	storeFunc func(ctx *Context, s *Slot, cell []byte) error
	writeFunc func(dst unsafe.Pointer, s *Slot) error
	loadFunc  func(s *Slot) (reflect.Value, error)
	equalFunc func(a, b *Slot) bool
)

// Codec decodes the cells of one column into values of Type.
type Codec struct {
	Type reflect.Type
	Kind primitive.KindEnum
	// Nullable types decode an empty cell to their zero value instead of failing.
	Nullable bool

	set   setFunc
	store storeFunc
	write writeFunc
	load  loadFunc
	equal equalFunc
}

// Set decodes cell straight into the value at dst.
func (c *Codec) Set(ctx *Context, dst unsafe.Pointer, cell []byte) error {
	return c.set(ctx, dst, cell)
}

// Store decodes cell into s.
func (c *Codec) Store(ctx *Context, s *Slot, cell []byte) error {
	return c.store(ctx, s, cell)
}

// Write copies the value held by s into dst.
func (c *Codec) Write(dst unsafe.Pointer, s *Slot) error {
	if s.boxed {
		return assignBoxed(c.Type, dst, s.val)
	}

	return c.write(dst, s)
}

// Load returns the value held by s.
func (c *Codec) Load(s *Slot) (reflect.Value, error) {
	if s.boxed {
		return boxedValue(c.Type, s.val)
	}

	return c.load(s)
}

// Equal compares two slots decoded by this codec.
func (c *Codec) Equal(a, b *Slot) bool {
	if a.null || b.null {
		return a.null == b.null
	}

	if a.boxed || b.boxed {
		return reflect.DeepEqual(a.val, b.val)
	}

	return c.equal(a, b)
}

// Decode returns the value of cell, boxed.
func (c *Codec) Decode(ctx *Context, cell []byte) (reflect.Value, error) {
	var s Slot
	if err := c.store(ctx, &s, cell); err != nil {
		return reflect.Value{}, err
	}

	return c.Load(&s)
}

func equalBits(a, b *Slot) bool { return a.bits == b.bits }

func equalStrings(a, b *Slot) bool { return a.str == b.str }

func equalValues(a, b *Slot) bool {
	if reflect.TypeOf(a.val).Comparable() {
		return a.val == b.val
	}

	return reflect.DeepEqual(a.val, b.val)
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type float interface {
	~float32 | ~float64
}

func signedCodec[T signed](t reflect.Type, kind primitive.KindEnum) *Codec {
	return &Codec{
		Type: t,
		Kind: kind,
		set: func(_ *Context, dst unsafe.Pointer, cell []byte) error {
			v, err := ParseInt(cell)
			if err != nil {
				return err
			}

			*(*T)(dst) = T(v)

			return nil
		},
		store: func(_ *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storeNull()
				return nil
			}

			v, err := ParseInt(cell)
			if err != nil {
				return err
			}

			s.storeBits(uint64(v))

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			if s.null {
				return maperr.ErrEmptyCell
			}

			*(*T)(dst) = T(int64(s.bits))

			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			if s.null {
				return reflect.Value{}, maperr.ErrEmptyCell
			}

			v := reflect.New(t).Elem()
			v.SetInt(int64(s.bits))

			return v, nil
		},
		equal: equalBits,
	}
}

func unsignedCodec[T unsigned](t reflect.Type, kind primitive.KindEnum) *Codec {
	return &Codec{
		Type: t,
		Kind: kind,
		set: func(_ *Context, dst unsafe.Pointer, cell []byte) error {
			v, err := ParseUint(cell)
			if err != nil {
				return err
			}

			*(*T)(dst) = T(v)

			return nil
		},
		store: func(_ *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storeNull()
				return nil
			}

			v, err := ParseUint(cell)
			if err != nil {
				return err
			}

			s.storeBits(v)

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			if s.null {
				return maperr.ErrEmptyCell
			}

			*(*T)(dst) = T(s.bits)

			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			if s.null {
				return reflect.Value{}, maperr.ErrEmptyCell
			}

			v := reflect.New(t).Elem()
			v.SetUint(s.bits)

			return v, nil
		},
		equal: equalBits,
	}
}

func floatCodec[T float](t reflect.Type, kind primitive.KindEnum) *Codec {
	bits := kind.Bits()

	return &Codec{
		Type: t,
		Kind: kind,
		set: func(_ *Context, dst unsafe.Pointer, cell []byte) error {
			v, err := ParseFloat(cell, bits)
			if err != nil {
				return err
			}

			*(*T)(dst) = T(v)

			return nil
		},
		store: func(_ *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storeNull()
				return nil
			}

			v, err := ParseFloat(cell, bits)
			if err != nil {
				return err
			}

			s.storeBits(math.Float64bits(v))

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			if s.null {
				return maperr.ErrEmptyCell
			}

			*(*T)(dst) = T(math.Float64frombits(s.bits))

			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			if s.null {
				return reflect.Value{}, maperr.ErrEmptyCell
			}

			v := reflect.New(t).Elem()
			v.SetFloat(math.Float64frombits(s.bits))

			return v, nil
		},
		equal: equalBits,
	}
}

func boolCodec(t reflect.Type) *Codec {
	return &Codec{
		Type: t,
		Kind: primitive.KindBool,
		set: func(_ *Context, dst unsafe.Pointer, cell []byte) error {
			v, err := ParseBool(cell)
			if err != nil {
				return err
			}

			*(*bool)(dst) = v

			return nil
		},
		store: func(_ *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storeNull()
				return nil
			}

			v, err := ParseBool(cell)
			if err != nil {
				return err
			}

			var b uint64
			if v {
				b = 1
			}

			s.storeBits(b)

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			if s.null {
				return maperr.ErrEmptyCell
			}

			*(*bool)(dst) = s.bits == 1

			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			if s.null {
				return reflect.Value{}, maperr.ErrEmptyCell
			}

			v := reflect.New(t).Elem()
			v.SetBool(s.bits == 1)

			return v, nil
		},
		equal: equalBits,
	}
}

func stringCodec(t reflect.Type) *Codec {
	return &Codec{
		Type:     t,
		Kind:     primitive.KindString,
		Nullable: true,
		set: func(_ *Context, dst unsafe.Pointer, cell []byte) error {
			*(*string)(dst) = string(cell)
			return nil
		},
		store: func(_ *Context, s *Slot, cell []byte) error {
			s.storeString(string(cell))
			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			*(*string)(dst) = s.str
			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			v.SetString(s.str)

			return v, nil
		},
		equal: equalStrings,
	}
}

// valueCodec wraps a typed decoder for a non-primitive type. Empty cells
// leave the zero value.
func valueCodec[T any](t reflect.Type, kind primitive.KindEnum, decode func(ctx *Context, cell []byte) (T, error)) *Codec {
	return &Codec{
		Type:     t,
		Kind:     kind,
		Nullable: true,
		set: func(ctx *Context, dst unsafe.Pointer, cell []byte) error {
			if len(cell) == 0 {
				var zero T
				*(*T)(dst) = zero

				return nil
			}

			v, err := decode(ctx, cell)
			if err != nil {
				return err
			}

			*(*T)(dst) = v

			return nil
		},
		store: func(ctx *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storeNull()
				return nil
			}

			v, err := decode(ctx, cell)
			if err != nil {
				return err
			}

			s.storeValue(v)

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			if s.null {
				var zero T
				*(*T)(dst) = zero

				return nil
			}

			*(*T)(dst) = s.val.(T)

			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			if !s.null {
				v.Set(reflect.ValueOf(s.val).Convert(t))
			}

			return v, nil
		},
		equal: equalValues,
	}
}

// boxedCodec decodes through a function returning an arbitrary value
// assignable or convertible to t.
func boxedCodec(t reflect.Type, decode func(ctx *Context, cell []byte) (any, error)) *Codec {
	return &Codec{
		Type:     t,
		Kind:     primitive.FromReflectType(t),
		Nullable: true,
		set: func(ctx *Context, dst unsafe.Pointer, cell []byte) error {
			v, err := decode(ctx, cell)
			if err != nil {
				return err
			}

			return assignBoxed(t, dst, v)
		},
		store: func(ctx *Context, s *Slot, cell []byte) error {
			v, err := decode(ctx, cell)
			if err != nil {
				return err
			}

			s.storeBoxed(v)

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			return assignBoxed(t, dst, s.val)
		},
		load: func(s *Slot) (reflect.Value, error) {
			return boxedValue(t, s.val)
		},
		equal: equalValues,
	}
}

// pointerCodec makes elem nullable behind a pointer: empty cells yield nil.
func pointerCodec(t reflect.Type, elem *Codec) *Codec {
	decodeNew := func(ctx *Context, cell []byte) (unsafe.Pointer, error) {
		p := reflect.New(elem.Type).UnsafePointer()
		if err := elem.set(ctx, p, cell); err != nil {
			return nil, err
		}

		return p, nil
	}

	return &Codec{
		Type:     t,
		Kind:     elem.Kind,
		Nullable: true,
		set: func(ctx *Context, dst unsafe.Pointer, cell []byte) error {
			if len(cell) == 0 {
				*(*unsafe.Pointer)(dst) = nil
				return nil
			}

			p, err := decodeNew(ctx, cell)
			if err != nil {
				return err
			}

			*(*unsafe.Pointer)(dst) = p

			return nil
		},
		store: func(ctx *Context, s *Slot, cell []byte) error {
			if len(cell) == 0 {
				s.storePointer(nil)
				return nil
			}

			p, err := decodeNew(ctx, cell)
			if err != nil {
				return err
			}

			s.storePointer(p)

			return nil
		},
		write: func(dst unsafe.Pointer, s *Slot) error {
			*(*unsafe.Pointer)(dst) = s.ptr
			return nil
		},
		load: func(s *Slot) (reflect.Value, error) {
			if s.ptr == nil {
				return reflect.Zero(t), nil
			}

			return reflect.NewAt(elem.Type, s.ptr), nil
		},
		equal: func(a, b *Slot) bool {
			return reflect.DeepEqual(
				reflect.NewAt(elem.Type, a.ptr).Elem().Interface(),
				reflect.NewAt(elem.Type, b.ptr).Elem().Interface(),
			)
		},
	}
}

func boxedValue(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)

	switch {
	case rv.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)

		return out, nil
	case rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	default:
		return reflect.Value{}, &mismatchError{want: t, got: rv.Type()}
	}
}

func assignBoxed(t reflect.Type, dst unsafe.Pointer, v any) error {
	rv, err := boxedValue(t, v)
	if err != nil {
		return err
	}

	reflect.NewAt(t, dst).Elem().Set(rv)

	return nil
}

type mismatchError struct {
	want, got reflect.Type
}

func (e *mismatchError) Error() string {
	return "decoded " + e.got.String() + " is not assignable to " + e.want.String()
}
