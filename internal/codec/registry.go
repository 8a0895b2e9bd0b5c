package codec

import (
	"bytes"
	"encoding"
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flat-mapper/column"
	"flat-mapper/internal/meta"
	"flat-mapper/maperr"
	"flat-mapper/primitive"
)

// DefaultDateLayout is used for time cells of columns without a date format.
const DefaultDateLayout = "2006-01-02 15:04:05"

var (
	uuidType            = reflect.TypeOf(uuid.UUID{})
	decimalType         = reflect.TypeOf(decimal.Decimal{})
	bytesType           = reflect.TypeOf([]byte(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Registry resolves codecs by type. It is safe for concurrent use.
type Registry struct {
	ctors *meta.Registry

	mu       sync.RWMutex
	decoders map[reflect.Type]column.Decoder
}

// NewRegistry returns a registry synthesizing decoders from ctors when a
// type has a single-argument constructor.
func NewRegistry(ctors *meta.Registry) *Registry {
	return &Registry{ctors: ctors, decoders: make(map[reflect.Type]column.Decoder)}
}

// Register installs d as the decoder of every column of type t.
func (r *Registry) Register(t reflect.Type, d column.Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decoders[t] = d
}

func (r *Registry) registered(t reflect.Type) column.Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.decoders[t]
}

// IsLeaf reports whether t is decoded from a single cell rather than
// decomposed into properties.
func (r *Registry) IsLeaf(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if r.registered(t) != nil || primitive.FromReflectType(t) != 0 {
		return true
	}

	switch t {
	case uuidType, decimalType, bytesType:
		return true
	}

	return reflect.PointerTo(t).Implements(textUnmarshalerType) ||
		(t.Kind() == reflect.Interface && t.NumMethod() == 0)
}

// Codec returns the codec for a column of type t. A custom decoder in def
// wins; then registered and built-in decoders, TextUnmarshaler, and a
// decoder synthesized from a single-argument constructor.
func (r *Registry) Codec(t reflect.Type, key column.Key, def column.Definition) (*Codec, error) {
	if d := def.Decoder(); d != nil {
		return decoderCodec(t, d), nil
	}

	return r.codecFor(t, key, def, true)
}

func (r *Registry) codecFor(t reflect.Type, key column.Key, def column.Definition, synthesize bool) (*Codec, error) {
	if d := r.registered(t); d != nil {
		return decoderCodec(t, d), nil
	}

	if c := builtin(t, key, def); c != nil {
		return c, nil
	}

	if t.Kind() == reflect.Pointer {
		elem, err := r.codecFor(t.Elem(), key, def, synthesize)
		if err != nil {
			return nil, err
		}

		return pointerCodec(t, elem), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return textCodec(t), nil
	}

	if ctor := r.ctors.Lookup(t); synthesize && ctor != nil && len(ctor.Params) == 1 {
		arg, err := r.codecFor(ctor.Params[0].Type, key, def, false)
		if err != nil {
			return nil, err
		}

		return constructorCodec(t, ctor, arg), nil
	}

	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return boxedCodec(t, func(_ *Context, cell []byte) (any, error) {
			if len(cell) == 0 {
				return nil, nil
			}

			return string(cell), nil
		}), nil
	}

	return nil, &maperr.NoDecoderError{Type: t, Column: key}
}

func builtin(t reflect.Type, key column.Key, def column.Definition) *Codec {
	switch t {
	case uuidType:
		return valueCodec(t, 0, func(_ *Context, cell []byte) (uuid.UUID, error) {
			return uuid.ParseBytes(cell)
		})
	case decimalType:
		return valueCodec(t, 0, func(_ *Context, cell []byte) (decimal.Decimal, error) {
			return decimal.NewFromString(string(cell))
		})
	case bytesType:
		return valueCodec(t, 0, func(_ *Context, cell []byte) ([]byte, error) {
			return bytes.Clone(cell), nil
		})
	}

	switch kind := primitive.FromReflectType(t); kind {
	case primitive.KindInt:
		return signedCodec[int](t, kind)
	case primitive.KindInt8:
		return signedCodec[int8](t, kind)
	case primitive.KindInt16:
		return signedCodec[int16](t, kind)
	case primitive.KindInt32:
		return signedCodec[int32](t, kind)
	case primitive.KindInt64:
		return signedCodec[int64](t, kind)
	case primitive.KindUint:
		return unsignedCodec[uint](t, kind)
	case primitive.KindUint8:
		return unsignedCodec[uint8](t, kind)
	case primitive.KindUint16:
		return unsignedCodec[uint16](t, kind)
	case primitive.KindUint32:
		return unsignedCodec[uint32](t, kind)
	case primitive.KindUint64:
		return unsignedCodec[uint64](t, kind)
	case primitive.KindFloat32:
		return floatCodec[float32](t, kind)
	case primitive.KindFloat64:
		return floatCodec[float64](t, kind)
	case primitive.KindBool:
		return boolCodec(t)
	case primitive.KindString:
		return stringCodec(t)
	case primitive.KindDuration:
		return valueCodec(t, kind, func(_ *Context, cell []byte) (time.Duration, error) {
			return time.ParseDuration(string(cell))
		})
	case primitive.KindTime:
		return timeCodec(t, key, def)
	}

	return nil
}

type timeFormat struct {
	layout   string
	location *time.Location
}

func timeCodec(t reflect.Type, key column.Key, def column.Definition) *Codec {
	layout, ok := def.DateLayout()
	if !ok {
		layout = DefaultDateLayout
	}

	location := def.Location()
	if location == nil {
		location = time.UTC
	}

	newFormat := func() any { return &timeFormat{layout: layout, location: location} }

	return valueCodec(t, primitive.KindTime, func(ctx *Context, cell []byte) (time.Time, error) {
		f := ctx.State(key.Index, newFormat).(*timeFormat)
		return time.ParseInLocation(f.layout, string(cell), f.location)
	})
}

func textCodec(t reflect.Type) *Codec {
	c := boxedCodec(t, func(_ *Context, cell []byte) (any, error) {
		if len(cell) == 0 {
			return nil, nil
		}

		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText(cell); err != nil {
			return nil, err
		}

		return p.Elem().Interface(), nil
	})

	c.set = func(_ *Context, dst unsafe.Pointer, cell []byte) error {
		v := reflect.NewAt(t, dst)
		if len(cell) == 0 {
			v.Elem().SetZero()
			return nil
		}

		return v.Interface().(encoding.TextUnmarshaler).UnmarshalText(cell)
	}

	return c
}

func decoderCodec(t reflect.Type, d column.Decoder) *Codec {
	return boxedCodec(t, func(_ *Context, cell []byte) (any, error) {
		return d.Decode(cell)
	})
}

func constructorCodec(t reflect.Type, ctor *meta.Constructor, arg *Codec) *Codec {
	return boxedCodec(t, func(ctx *Context, cell []byte) (any, error) {
		if len(cell) == 0 && !arg.Nullable {
			return nil, nil
		}

		v, err := arg.Decode(ctx, cell)
		if err != nil {
			return nil, err
		}

		out, err := ctor.Call([]reflect.Value{v})
		if err != nil {
			return nil, err
		}

		return out.Elem().Interface(), nil
	})
}
