package row

import (
	"fmt"
	"reflect"
	"unsafe"

	"flat-mapper/internal/codec"
	"flat-mapper/internal/meta"
	"flat-mapper/maperr"
)

// Emit receives every completed root entity, as a value of the root type.
type Emit func(v reflect.Value) error

// State maps one stream of rows with a sealed plan.
type State struct {
	root  *level
	slots []codec.Slot
	ctx   *codec.Context
	emit  Emit

	rows    int
	pending bool
	flushed bool
}

// NewState returns a fresh state for plan p. Completed root entities are
// handed to emit in stream order.
func NewState(p *Plan, ctx *codec.Context, emit Emit) *State {
	p.Seal()

	s := &State{
		slots: make([]codec.Slot, p.Width),
		ctx:   ctx,
		emit:  emit,
	}
	s.root = s.newLevel(p, nil, nil)

	return s
}

func (s *State) newLevel(p *Plan, parent *level, n *Nested) *level {
	l := &level{
		state:  s,
		plan:   p,
		parent: parent,
		nested: n,
		prev:   make([]codec.Slot, len(p.Keys)),
	}

	for _, child := range p.Nested {
		l.children = append(l.children, s.newLevel(child.Plan, l, child))
	}

	return l
}

// NewCell handles the cell at index of the current row. Indexes unknown
// to the plan are ignored. The root instance is materialized as soon as
// the last delayed cell of the row has been stored.
func (s *State) NewCell(index int, cell []byte) error {
	if s.flushed {
		return maperr.ErrPlanClosed
	}

	s.pending = true

	if err := s.root.newCell(index, cell); err != nil {
		return err
	}

	if index == s.root.plan.DelayedEnd-1 {
		return s.root.materialize()
	}

	return nil
}

// EndOfRow completes the current row.
func (s *State) EndOfRow() error {
	if s.flushed {
		return maperr.ErrPlanClosed
	}

	err := s.root.endOfRow()

	s.rows++
	s.pending = false
	clear(s.slots)
	s.root.reset()

	return err
}

// Flush ends the stream: the entity still being joined is emitted.
// Flushing more than once is a no-op.
func (s *State) Flush() error {
	if s.flushed {
		return nil
	}

	if s.pending {
		if err := s.EndOfRow(); err != nil {
			s.flushed = true
			return err
		}
	}

	s.flushed = true

	return s.root.close()
}

// Rows returns the number of rows ended so far.
func (s *State) Rows() int {
	return s.rows
}

// level is the mutable counterpart of one plan level.
type level struct {
	state    *State
	plan     *Plan
	parent   *level
	nested   *Nested
	children []*level

	inst   reflect.Value
	active bool
	// attach is the parent instance the current entity goes to on close.
	attach  unsafe.Pointer
	prev    []codec.Slot
	hasPrev bool

	// per row
	materialized bool
	touched      bool
	done         bool
	completed    bool
	parentBroke  bool
}

func (l *level) newCell(index int, cell []byte) error {
	if len(cell) > 0 {
		l.touched = true
	}

	r := l.plan.route(index)

	switch r.kind {
	case routeStore:
		if l.materialized && r.column.Property.Kind != meta.KindConstructorParam {
			return r.column.set(l.state.ctx, l.ptr(), cell)
		}

		return r.column.Binding.Store(l.state.ctx, &l.state.slots[index], cell)
	case routeApply:
		if err := l.materialize(); err != nil {
			return err
		}

		return r.column.set(l.state.ctx, l.ptr(), cell)
	case routeDelegate:
		child := l.children[r.nested]
		if err := child.newCell(index, cell); err != nil {
			return err
		}

		if index == child.nested.LastIndex {
			return child.endSegment()
		}
	}

	return nil
}

func (l *level) endOfRow() error {
	for _, c := range l.children {
		if err := c.finishRow(); err != nil {
			return err
		}
	}

	if err := l.materialize(); err != nil {
		return err
	}

	if !l.plan.HasKeys() {
		return l.close()
	}

	return nil
}

// finishRow ends the segments a short row left open, innermost first.
func (l *level) finishRow() error {
	for _, c := range l.children {
		if err := c.finishRow(); err != nil {
			return err
		}
	}

	if l.done {
		return nil
	}

	return l.endSegment()
}

func (l *level) endSegment() error {
	l.done = true

	// completed when the parent materializes
	if !l.parent.materialized || l.nested.ConstructorBound() {
		return nil
	}

	return l.complete()
}

func (l *level) complete() error {
	if l.completed {
		return nil
	}

	l.completed = true

	if !l.materialized {
		if !l.present() {
			return nil
		}

		if err := l.materialize(); err != nil {
			return err
		}
	}

	if !l.plan.HasKeys() {
		return l.close()
	}

	return nil
}

// present reports whether the segment of this row describes an entity:
// some cell is not empty and, for keyed levels, some key is not empty.
func (l *level) present() bool {
	if !l.touched {
		return false
	}

	if !l.plan.HasKeys() {
		return true
	}

	for _, k := range l.plan.Keys {
		if s := &l.state.slots[k.Index]; s.IsSet() && !s.IsNull() {
			return true
		}
	}

	return false
}

func (l *level) materialize() error {
	if l.materialized {
		return nil
	}

	if l.parent != nil {
		if err := l.parent.materialize(); err != nil {
			return err
		}
	}

	l.materialized = true

	broke := !l.plan.HasKeys() || !l.hasPrev || l.parentBroke || !l.sameKeys()
	if broke {
		if err := l.close(); err != nil {
			return err
		}
	}

	for _, c := range l.children {
		c.parentBroke = broke
	}

	var err error
	if broke {
		err = l.open()
	} else {
		err = l.resume()
	}

	if err != nil {
		return err
	}

	for _, c := range l.children {
		if c.done && !c.nested.ConstructorBound() {
			if err := c.complete(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (l *level) sameKeys() bool {
	for i, k := range l.plan.Keys {
		if !k.Binding.Equal(&l.prev[i], &l.state.slots[k.Index]) {
			return false
		}
	}

	return true
}

// open starts a new entity from the slots of the current row.
func (l *level) open() error {
	p := l.plan

	for i, k := range p.Keys {
		l.prev[i] = l.state.slots[k.Index].Peek()
	}

	l.hasPrev = true

	inst, err := l.instantiate()
	if err != nil {
		return err
	}

	l.inst = inst
	l.active = true

	if l.parent != nil && !l.nested.ConstructorBound() {
		l.attach = l.parent.ptr()
	}

	return l.apply(p.Delayed, false)
}

// resume continues the previous entity: keys repeated, so constructor
// arguments are dropped and the other delayed columns applied again.
func (l *level) resume() error {
	for _, c := range l.plan.Params {
		l.state.slots[c.Index].Reset()
	}

	for _, c := range l.children {
		if c.nested.ConstructorBound() {
			c.completed = true
		}
	}

	return l.apply(l.plan.Delayed, true)
}

func (l *level) apply(columns []*Column, skipKeys bool) error {
	ptr := l.ptr()

	for _, c := range columns {
		s := &l.state.slots[c.Index]
		if !s.IsSet() {
			continue
		}

		if skipKeys && c.key {
			s.Reset()
			continue
		}

		if err := c.consume(ptr, s); err != nil {
			return err
		}
	}

	return nil
}

func (l *level) instantiate() (reflect.Value, error) {
	p := l.plan
	if p.Constructor == nil {
		return reflect.New(p.Type), nil
	}

	args := make([]reflect.Value, len(p.Constructor.Params))

	for _, c := range p.Params {
		s := &l.state.slots[c.Index]
		if !s.IsSet() {
			args[c.Property.Param] = reflect.Zero(c.Property.Type)
			continue
		}

		v, err := c.Binding.ConsumeValue(s)
		if err != nil {
			return reflect.Value{}, err
		}

		args[c.Property.Param] = v
	}

	for _, c := range l.children {
		if !c.nested.ConstructorBound() {
			continue
		}

		v, err := c.argument()
		if err != nil {
			return reflect.Value{}, err
		}

		args[c.nested.Owner.Param] = v
	}

	ptr, err := p.Constructor.Call(args)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("construct %s: %w", p.Type, err)
	}

	return ptr, nil
}

// argument materializes a constructor-bound child and returns it as the
// parent constructor argument.
func (l *level) argument() (reflect.Value, error) {
	l.completed = true

	if !l.present() {
		return reflect.Zero(l.nested.Owner.Type), nil
	}

	if err := l.materialize(); err != nil {
		return reflect.Value{}, err
	}

	return l.value(), nil
}

// close completes the current entity: children first, then the entity is
// attached to its parent or emitted.
func (l *level) close() error {
	if !l.active {
		return nil
	}

	for _, c := range l.children {
		if err := c.close(); err != nil {
			return err
		}
	}

	v := l.value()
	target := l.attach

	l.active = false
	l.inst = reflect.Value{}
	l.attach = nil

	switch {
	case l.parent == nil:
		return l.state.emit(v)
	case l.nested.ConstructorBound():
		return nil
	case l.nested.Collection:
		owner := l.nested.Owner
		slice := reflect.NewAt(owner.Type, owner.Field.Pointer(target)).Elem()
		slice.Set(reflect.Append(slice, v))
	default:
		l.nested.Owner.Assign(target, v)
	}

	return nil
}

func (l *level) value() reflect.Value {
	if l.plan.Pointer {
		return l.inst
	}

	return l.inst.Elem()
}

func (l *level) ptr() unsafe.Pointer {
	return l.inst.UnsafePointer()
}

func (l *level) reset() {
	l.materialized = false
	l.touched = false
	l.done = false
	l.completed = false
	l.parentBroke = false

	for _, c := range l.children {
		c.reset()
	}
}
