package codec

import (
	"reflect"
	"unsafe"

	"flat-mapper/column"
	"flat-mapper/maperr"
)

// ErrorHandler decides what happens to a cell that cannot be decoded: a nil
// error continues with the returned replacement (nil keeps the zero value),
// a non-nil error aborts the stream.
type ErrorHandler interface {
	HandleFieldError(err *maperr.CellParseError) (any, error)
}

type rethrow struct{}

func (rethrow) HandleFieldError(err *maperr.CellParseError) (any, error) { return nil, err }

// Rethrow is the default handler: every decode failure aborts the stream.
var Rethrow ErrorHandler = rethrow{}

// Binding is a codec attached to one column and its error policy.
type Binding struct {
	Codec  *Codec
	Key    column.Key
	errors ErrorHandler
}

// NewBinding binds c to key; a nil handler rethrows.
func NewBinding(c *Codec, key column.Key, h ErrorHandler) *Binding {
	if h == nil {
		h = Rethrow
	}

	return &Binding{Codec: c, Key: key, errors: h}
}

func (b *Binding) fail(raw []byte, cause error) (any, error) {
	return b.errors.HandleFieldError(&maperr.CellParseError{Column: b.Key, Raw: string(raw), Cause: cause})
}

// Set decodes cell into the value at dst.
func (b *Binding) Set(ctx *Context, dst unsafe.Pointer, cell []byte) error {
	err := b.Codec.Set(ctx, dst, cell)
	if err == nil {
		return nil
	}

	repl, err := b.fail(cell, err)
	if err != nil {
		return err
	}

	return b.replace(dst, repl)
}

// Value decodes cell into a boxed value, for setter methods.
func (b *Binding) Value(ctx *Context, cell []byte) (reflect.Value, error) {
	v, err := b.Codec.Decode(ctx, cell)
	if err == nil {
		return v, nil
	}

	repl, err := b.fail(cell, err)
	if err != nil {
		return reflect.Value{}, err
	}

	return boxedValue(b.Codec.Type, repl)
}

// Store decodes cell into s.
func (b *Binding) Store(ctx *Context, s *Slot, cell []byte) error {
	err := b.Codec.Store(ctx, s, cell)
	if err == nil {
		return nil
	}

	repl, err := b.fail(cell, err)
	if err != nil {
		return err
	}

	s.storeBoxed(repl)

	return nil
}

// Consume writes the value held by s into dst and clears s.
func (b *Binding) Consume(dst unsafe.Pointer, s *Slot) error {
	err := b.Codec.Write(dst, s)
	s.Reset()

	if err == nil {
		return nil
	}

	repl, err := b.fail(nil, err)
	if err != nil {
		return err
	}

	return b.replace(dst, repl)
}

// ConsumeValue returns the value held by s and clears it.
func (b *Binding) ConsumeValue(s *Slot) (reflect.Value, error) {
	v, err := b.Codec.Load(s)
	s.Reset()

	if err == nil {
		return v, nil
	}

	repl, err := b.fail(nil, err)
	if err != nil {
		return reflect.Value{}, err
	}

	return boxedValue(b.Codec.Type, repl)
}

// Equal compares two key snapshots of this column.
func (b *Binding) Equal(x, y *Slot) bool {
	return b.Codec.Equal(x, y)
}

func (b *Binding) replace(dst unsafe.Pointer, repl any) error {
	if repl == nil {
		reflect.NewAt(b.Codec.Type, dst).Elem().SetZero()
		return nil
	}

	return assignBoxed(b.Codec.Type, dst, repl)
}
