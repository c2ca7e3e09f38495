package internal

// Slots represents the set of messages to which an object responds.
type Slots = map[string]*Object

// Slot is a named value cell. Object slots and local variables are both
// Slots, so closures can capture variables by sharing the cell.
type Slot struct {
	value *Object
	// Const marks the slot as constant. Writing a constant slot raises
	// ConstViolation.
	Const bool
	// props is the slot's property bag.
	props map[string]*Object
	// changed is emitted after every write. It is created the first time a
	// job logs the slot as a dependency.
	changed *Event
}

// NewSlot creates a slot holding v.
func NewSlot(v *Object) *Slot {
	return &Slot{value: v}
}

// Value returns the slot's current value without recording a dependency.
func (s *Slot) Value() *Object {
	return s.value
}

// Changed returns the slot's changed event, creating it if needed.
func (s *Slot) Changed(vm *VM) *Event {
	if s.changed == nil {
		s.changed = vm.NewEvent("changed")
	}
	return s.changed
}

// Prop returns a property of the slot.
func (s *Slot) Prop(name string) (*Object, bool) {
	v, ok := s.props[name]
	return v, ok
}

// SetProp sets a property of the slot.
func (s *Slot) SetProp(name string, v *Object) {
	if s.props == nil {
		s.props = make(map[string]*Object)
	}
	s.props[name] = v
}

// Protos returns a snapshot of the object's protos. The result is nil if o has
// no protos.
func (o *Object) Protos() []*Object {
	if len(o.protos) == 0 {
		return nil
	}
	return append([]*Object(nil), o.protos...)
}

// SetProtos sets the object's protos to those given.
func (o *Object) SetProtos(protos ...*Object) {
	o.protos = append(o.protos[:0:0], protos...)
}

// AppendProto appends a proto to the end of the object's protos list.
func (o *Object) AppendProto(proto *Object) {
	o.protos = append(o.protos, proto)
}

// PrependProto prepends a proto to the front of the object's protos list.
func (o *Object) PrependProto(proto *Object) {
	o.protos = append([]*Object{proto}, o.protos...)
}

// RemoveProto removes all instances of a proto from the object's protos list.
// Comparison is done by identity only.
func (o *Object) RemoveProto(proto *Object) {
	r := o.protos[:0:0]
	for _, p := range o.protos {
		if p != proto {
			r = append(r, p)
		}
	}
	o.protos = r
}

// findSlot checks obj and its ancestors in depth-first order without cycles
// for a slot, returning the slot and the proto which had it. proto is nil if
// and only if the slot was not found.
func (vm *VM) findSlot(obj *Object, name string) (s *Slot, proto *Object) {
	if obj == nil {
		return nil, nil
	}
	if s := obj.slots[name]; s != nil {
		return s, obj
	}
	vm.protoSet.Reset()
	vm.protoSet.Add(obj.UniqueID())
	stack := vm.protoStack[:0]
	// Push protos in reverse so the first proto is searched first.
	for i := len(obj.protos) - 1; i >= 0; i-- {
		if p := obj.protos[i]; vm.protoSet.Add(p.UniqueID()) {
			stack = append(stack, p)
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s := p.slots[name]; s != nil {
			vm.protoStack = stack[:0]
			return s, p
		}
		for i := len(p.protos) - 1; i >= 0; i-- {
			if q := p.protos[i]; vm.protoSet.Add(q.UniqueID()) {
				stack = append(stack, q)
			}
		}
	}
	vm.protoStack = stack[:0]
	return nil, nil
}

// GetSlot finds a slot on obj or its ancestors, returning the slot value and
// the proto which had it. proto is nil if and only if the slot was not found.
// GetSlot does not record dependencies; code running in a job should use
// Job.Lookup.
func (vm *VM) GetSlot(obj *Object, name string) (value, proto *Object) {
	s, proto := vm.findSlot(obj, name)
	if s == nil {
		return nil, nil
	}
	return s.value, proto
}

// GetLocalSlot checks only obj's own slots for a slot.
func (vm *VM) GetLocalSlot(obj *Object, name string) (value *Object, ok bool) {
	if obj == nil {
		return nil, false
	}
	if s := obj.slots[name]; s != nil {
		return s.value, true
	}
	return nil, false
}

// LocalSlot returns the slot cell of obj's own slot, or nil if there is
// none.
func (vm *VM) LocalSlot(obj *Object, name string) *Slot {
	return obj.slots[name]
}

// SetSlot sets the value of a slot on obj, creating it if needed. It ignores
// constancy and does not emit the slot's changed event; it is meant for hosts
// and initialization. Code running in a job should use Job.SetSlot.
func (vm *VM) SetSlot(obj *Object, name string, value *Object) {
	if s := obj.slots[name]; s != nil {
		s.value = value
		return
	}
	if obj.slots == nil {
		obj.slots = make(map[string]*Slot)
	}
	obj.slots[name] = NewSlot(value)
}

// SetSlots sets the values of multiple slots on obj.
func (vm *VM) SetSlots(obj *Object, slots Slots) {
	for name, value := range slots {
		vm.SetSlot(obj, name, value)
	}
}

// RemoveSlot removes slots from obj's local slots, if they are present.
func (vm *VM) RemoveSlot(obj *Object, names ...string) {
	for _, name := range names {
		delete(obj.slots, name)
	}
}

// ReadSlot returns the value of a slot, logging its changed event as a
// dependency if the job is evaluating a guard.
func (j *Job) ReadSlot(s *Slot) *Object {
	if j.deps != nil {
		j.deps.record(s.Changed(j.vm))
	}
	return s.value
}

// WriteSlot sets the value of a slot and emits its changed event.
func (j *Job) WriteSlot(s *Slot, v *Object) {
	s.value = v
	if s.changed != nil {
		s.changed.Emit(j, v)
	}
}

// Lookup is GetSlot with dependency logging.
func (j *Job) Lookup(obj *Object, name string) (value, proto *Object) {
	s, proto := j.vm.findSlot(obj, name)
	if s == nil {
		return nil, nil
	}
	return j.ReadSlot(s), proto
}

// SetSlot creates or replaces a slot on obj itself. If constant is true, the
// slot becomes constant. Replacing an existing constant slot raises
// ConstViolation.
func (j *Job) SetSlot(obj *Object, name string, value *Object, constant bool) (*Object, Stop) {
	if s := obj.slots[name]; s != nil {
		if s.Const {
			return j.Raisef(ConstViolation, "cannot modify const slot %s", name)
		}
		s.Const = constant
		j.WriteSlot(s, value)
		return value, NoStop
	}
	j.vm.SetSlot(obj, name, value)
	obj.slots[name].Const = constant
	return value, NoStop
}

// UpdateSlot writes an existing slot found on obj or its protos. A slot
// inherited from a proto is copied onto obj, and the inherited slot's changed
// event is emitted so that watchers which read it through obj see the write.
func (j *Job) UpdateSlot(obj *Object, name string, value *Object) (*Object, Stop) {
	s, proto := j.vm.findSlot(obj, name)
	if s == nil {
		return j.Raisef(LookupFailure, "lookup failed: %s", name)
	}
	if s.Const {
		return j.Raisef(ConstViolation, "cannot modify const slot %s", name)
	}
	if proto == obj {
		j.WriteSlot(s, value)
		return value, NoStop
	}
	j.vm.SetSlot(obj, name, value)
	if s.changed != nil {
		s.changed.Emit(j, value)
	}
	return value, NoStop
}
