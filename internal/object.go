package internal

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// Object is the basic type of urbi. Everything is an Object.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Objects are not synchronized: only the job holding the
// scheduler's baton may touch them.
type Object struct {
	// slots is the set of messages to which this object responds.
	slots map[string]*Slot
	// protos is the object's ordered list of prototypes.
	protos []*Object

	// Value is the object's type-specific primitive value.
	Value interface{}
	// kind is the type indicator of the object.
	kind Kind

	// id is the object's unique ID.
	id uintptr
}

// Kind is a type indicator for urbi objects. Kind values must be comparable.
// Kinds for different types must not be equal, meaning they must have
// different underlying types or different values otherwise.
type Kind interface {
	// CloneValue takes the Value of an existing object and returns the Value
	// of a clone of that object.
	CloneValue(value interface{}) interface{}

	// String returns the name of the type associated with this kind.
	String() string
}

// Clone returns a new object with empty slots and this object as its only
// proto. The clone's kind is the same as its parent's, and its primitive value
// is produced by the kind's CloneValue method.
func (o *Object) Clone() *Object {
	var v interface{}
	if o.kind != nil {
		v = o.kind.CloneValue(o.Value)
	}
	return &Object{
		protos: []*Object{o},
		Value:  v,
		kind:   o.kind,
		id:     nextObject(),
	}
}

// IsA evaluates whether the object has proto as any of its ancestors, or is
// itself proto.
func (o *Object) IsA(proto *Object) bool {
	if o == nil {
		return false
	}
	stack := []*Object{o}
	set := contains.Set{}
	set.Add(o.UniqueID())
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == proto {
			return true
		}
		for _, q := range p.protos {
			if set.Add(q.UniqueID()) {
				stack = append(stack, q)
			}
		}
	}
	return false
}

// Kind returns the object's type indicator.
func (o *Object) Kind() Kind {
	return o.kind
}

// UniqueID returns the object's unique ID.
func (o *Object) UniqueID() uintptr {
	return o.id
}

// BasicKind is a special Kind type for basic primitive types whose clones
// have values that are shallow copies of their parents.
type BasicKind string

// CloneValue returns value.
func (k BasicKind) CloneValue(value interface{}) interface{} {
	return value
}

// String returns the receiver.
func (k BasicKind) String() string {
	return string(k)
}

// objcounter is the global counter for object IDs. All accesses to this must
// be atomic, since separate VMs may allocate concurrently.
var objcounter uintptr

// nextObject increments the object counter and returns its value as a unique
// ID for a new object.
func nextObject() uintptr {
	return atomic.AddUintptr(&objcounter, 1)
}

// ObjectWith creates a new object with the given slots, protos, value, and
// kind.
func (vm *VM) ObjectWith(slots Slots, protos []*Object, value interface{}, kind Kind) *Object {
	r := &Object{
		protos: append([]*Object(nil), protos...),
		Value:  value,
		kind:   kind,
		id:     nextObject(),
	}
	vm.SetSlots(r, slots)
	return r
}

// NewObject creates a new object with the given slots and with the VM's base
// Object as its proto.
func (vm *VM) NewObject(slots Slots) *Object {
	return vm.ObjectWith(slots, []*Object{vm.BaseObject}, nil, nil)
}

// TypeName gets the name of the type of an object from its type slot. If
// there is no such slot, then its kind's name is used; if its kind is nil,
// then its name is Object.
func (vm *VM) TypeName(o *Object) string {
	if typ, proto := vm.GetSlot(o, "type"); proto != nil {
		if s, ok := typ.Value.(string); ok {
			return s
		}
	}
	if o.kind != nil {
		return o.kind.String()
	}
	return "Object"
}

// Equal reports whether two objects are equal as values: floats and strings
// compare by value, lists element-wise, and everything else by identity.
func (vm *VM) Equal(x, y *Object) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil || x.kind != y.kind {
		return false
	}
	switch a := x.Value.(type) {
	case float64:
		b, ok := y.Value.(float64)
		return ok && a == b
	case string:
		b, ok := y.Value.(string)
		return ok && a == b
	case *List:
		b, ok := y.Value.(*List)
		if !ok || len(a.Value) != len(b.Value) {
			return false
		}
		for i, v := range a.Value {
			if !vm.Equal(v, b.Value[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// AsBool converts an object to a Go bool. False, nil, void, zero, the empty
// string, and the empty list are false; everything else is true.
func (vm *VM) AsBool(o *Object) bool {
	switch o {
	case nil, vm.False, vm.Nil, vm.Void:
		return false
	case vm.True:
		return true
	}
	switch v := o.Value.(type) {
	case float64:
		return v != 0
	case string:
		return v != ""
	case *List:
		return len(v.Value) != 0
	}
	return true
}

// Bool converts a bool to the appropriate urbi boolean object.
func (vm *VM) Bool(c bool) *Object {
	if c {
		return vm.True
	}
	return vm.False
}

// AsString converts an object to a string by calling its asString slot. If
// that fails or does not produce a string, or if j is nil, then a default
// representation is used.
func (vm *VM) AsString(j *Job, obj *Object) string {
	if obj == nil {
		obj = vm.Nil
	}
	if s, ok := obj.Value.(string); ok && obj.kind == StringKind {
		return s
	}
	if j != nil {
		if m, proto := vm.GetSlot(obj, "asString"); proto != nil && m.Callable() {
			r, stop := j.Apply(obj, m, "asString", nil, nil, j.loc())
			if stop == NoStop {
				if s, ok := r.Value.(string); ok {
					return s
				}
			}
		}
	}
	return vm.defaultString(obj)
}

// defaultString is the representation of objects without asString.
func (vm *VM) defaultString(obj *Object) string {
	switch v := obj.Value.(type) {
	case string:
		return v
	case float64:
		return formatFloat(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%s_%#x", vm.TypeName(obj), obj.UniqueID())
}

// Printable is the string a connection displays for a top-level result.
// Strings are quoted; everything else uses AsString.
func (vm *VM) Printable(j *Job, obj *Object) string {
	if obj != nil && obj.kind == StringKind {
		return fmt.Sprintf("%q", obj.Value)
	}
	return vm.AsString(j, obj)
}

// initObject sets up the base object that is the first proto of all other
// built-in types.
func (vm *VM) initObject() {
	vm.BaseObject.SetProtos(vm.Global)
	slots := Slots{
		"!=":           vm.NewPrimitive("!=", ObjectNotEqual),
		"==":           vm.NewPrimitive("==", ObjectEqual),
		"addProto":     vm.NewPrimitive("addProto", ObjectAddProto),
		"asString":     vm.NewPrimitive("asString", ObjectAsString),
		"clone":        vm.NewPrimitive("clone", ObjectClone),
		"getSlot":      vm.NewPrimitive("getSlot", ObjectGetSlot),
		"hasLocalSlot": vm.NewPrimitive("hasLocalSlot", ObjectHasLocalSlot),
		"hasSlot":      vm.NewPrimitive("hasSlot", ObjectHasSlot),
		"isA":          vm.NewPrimitive("isA", ObjectIsA),
		"new":          vm.NewPrimitive("new", ObjectNew),
		"protos":       vm.NewPrimitive("protos", ObjectProtos),
		"removeProto":  vm.NewPrimitive("removeProto", ObjectRemoveProto),
		"removeSlot":   vm.NewPrimitive("removeSlot", ObjectRemoveSlot),
		"setSlot":      vm.NewPrimitive("setSlot", ObjectSetSlot),
		"slotNames":    vm.NewPrimitive("slotNames", ObjectSlotNames),
		"type":         vm.NewString("Object"),
		"uid":          vm.NewPrimitive("uid", ObjectUID),
		"updateSlot":   vm.NewPrimitive("updateSlot", ObjectUpdateSlot),
	}
	vm.SetSlots(vm.BaseObject, slots)
	vm.SetSlot(vm.Global, "Object", vm.BaseObject)
	vm.SetSlot(vm.Global, "Global", vm.Global)
}

// ObjectClone is an Object method.
//
// clone creates a new object with empty slots and the cloned object as its
// proto.
func ObjectClone(j *Job, args []*Object) (*Object, Stop) {
	return args[0].Clone(), NoStop
}

// ObjectNew is an Object method.
//
// new clones the receiver, then calls the clone's init slot, if it has one,
// with the arguments to new.
func ObjectNew(j *Job, args []*Object) (*Object, Stop) {
	clone := args[0].Clone()
	if init, proto := j.vm.GetSlot(clone, "init"); proto != nil && init.Callable() {
		if r, stop := j.Apply(clone, init, "init", args[1:], nil, j.loc()); stop != NoStop {
			return r, stop
		}
	}
	return clone, NoStop
}

// ObjectSetSlot is an Object method.
//
// setSlot creates or replaces a slot on the receiver itself.
func ObjectSetSlot(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("setSlot", args, 2, 2); stop != NoStop {
		return r, stop
	}
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	return j.SetSlot(args[0], name, args[2], false)
}

// ObjectUpdateSlot is an Object method.
//
// updateSlot writes an existing slot, raising LookupFailure if there is no
// such slot on the receiver or its protos.
func ObjectUpdateSlot(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("updateSlot", args, 2, 2); stop != NoStop {
		return r, stop
	}
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	return j.UpdateSlot(args[0], name, args[2])
}

// ObjectGetSlot is an Object method.
//
// getSlot gets the value of a slot without calling it.
func ObjectGetSlot(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("getSlot", args, 1, 1); stop != NoStop {
		return r, stop
	}
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	v, proto := j.Lookup(args[0], name)
	if proto == nil {
		return j.Raisef(LookupFailure, "lookup failed: %s", name)
	}
	return v, NoStop
}

// ObjectRemoveSlot is an Object method.
//
// removeSlot removes a slot from the receiver itself. It is not an error if
// there is no such slot.
func ObjectRemoveSlot(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("removeSlot", args, 1, 1); stop != NoStop {
		return r, stop
	}
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	j.vm.RemoveSlot(args[0], name)
	return args[0], NoStop
}

// ObjectHasSlot is an Object method.
//
// hasSlot returns whether the receiver or any of its protos has a slot.
func ObjectHasSlot(j *Job, args []*Object) (*Object, Stop) {
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	_, proto := j.Lookup(args[0], name)
	return j.vm.Bool(proto != nil), NoStop
}

// ObjectHasLocalSlot is an Object method.
//
// hasLocalSlot returns whether the receiver itself has a slot.
func ObjectHasLocalSlot(j *Job, args []*Object) (*Object, Stop) {
	name, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	_, ok := j.vm.GetLocalSlot(args[0], name)
	return j.vm.Bool(ok), NoStop
}

// SlotNames returns the sorted names of the object's own slots.
func (o *Object) SlotNames() []string {
	names := make([]string, 0, len(o.slots))
	for name := range o.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ObjectSlotNames is an Object method.
//
// slotNames returns a sorted list of the names of the receiver's own slots.
func ObjectSlotNames(j *Job, args []*Object) (*Object, Stop) {
	names := args[0].SlotNames()
	v := make([]*Object, len(names))
	for i, name := range names {
		v[i] = j.vm.NewString(name)
	}
	return j.vm.NewList(v...), NoStop
}

// ObjectProtos is an Object method.
//
// protos returns a list of the receiver's protos.
func ObjectProtos(j *Job, args []*Object) (*Object, Stop) {
	return j.vm.NewList(args[0].Protos()...), NoStop
}

// ObjectAddProto is an Object method.
//
// addProto puts a proto at the front of the receiver's protos.
func ObjectAddProto(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("addProto", args, 1, 1); stop != NoStop {
		return r, stop
	}
	args[0].PrependProto(args[1])
	return args[0], NoStop
}

// ObjectRemoveProto is an Object method.
//
// removeProto removes all instances of a proto from the receiver's protos.
func ObjectRemoveProto(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("removeProto", args, 1, 1); stop != NoStop {
		return r, stop
	}
	args[0].RemoveProto(args[1])
	return args[0], NoStop
}

// ObjectIsA is an Object method.
//
// isA returns whether the receiver inherits from the argument.
func ObjectIsA(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("isA", args, 1, 1); stop != NoStop {
		return r, stop
	}
	return j.vm.Bool(args[0].IsA(args[1])), NoStop
}

// ObjectAsString is an Object method.
//
// asString returns a default string representation of the receiver.
func ObjectAsString(j *Job, args []*Object) (*Object, Stop) {
	return j.vm.NewString(j.vm.defaultString(args[0])), NoStop
}

// ObjectEqual is an Object method.
//
// == compares values.
func ObjectEqual(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("==", args, 1, 1); stop != NoStop {
		return r, stop
	}
	return j.vm.Bool(j.vm.Equal(args[0], args[1])), NoStop
}

// ObjectNotEqual is an Object method.
//
// != is the negation of ==.
func ObjectNotEqual(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("!=", args, 1, 1); stop != NoStop {
		return r, stop
	}
	return j.vm.Bool(!j.vm.Equal(args[0], args[1])), NoStop
}

// ObjectUID is an Object method.
//
// uid returns a string unique to the receiver.
func ObjectUID(j *Job, args []*Object) (*Object, Stop) {
	return j.vm.NewString(fmt.Sprintf("%#x", args[0].UniqueID())), NoStop
}
