package codec

import "unsafe"

// Slot buffers the decoded value of one delayed column until the target
// instance exists. Primitive kinds live in bits, strings in str, pointers in
// ptr and everything else boxed in val.
type Slot struct {
	set   bool
	null  bool
	boxed bool
	bits  uint64
	str   string
	ptr   unsafe.Pointer
	val   any
}

// IsSet reports whether a cell was stored since the last reset.
func (s *Slot) IsSet() bool { return s.set }

// IsNull reports whether the stored cell was empty.
func (s *Slot) IsNull() bool { return s.set && s.null }

// Reset clears the slot.
func (s *Slot) Reset() { *s = Slot{} }

// Peek returns a copy of the slot without clearing it.
func (s *Slot) Peek() Slot { return *s }

func (s *Slot) storeNull() {
	*s = Slot{set: true, null: true}
}

func (s *Slot) storeBits(v uint64) {
	*s = Slot{set: true, bits: v}
}

func (s *Slot) storeString(v string) {
	*s = Slot{set: true, str: v}
}

func (s *Slot) storePointer(p unsafe.Pointer) {
	*s = Slot{set: true, ptr: p, null: p == nil}
}

func (s *Slot) storeValue(v any) {
	*s = Slot{set: true, val: v, null: v == nil}
}

func (s *Slot) storeBoxed(v any) {
	*s = Slot{set: true, boxed: true, val: v, null: v == nil}
}
