package internal

import (
	"sort"
	"strings"
)

// List is the value of List objects.
type List struct {
	Value []*Object
}

// listKind is the Kind for List objects.
type listKind struct{}

func (listKind) CloneValue(value interface{}) interface{} {
	l, _ := value.(*List)
	if l == nil {
		return &List{}
	}
	return &List{Value: append([]*Object(nil), l.Value...)}
}

func (listKind) String() string {
	return "List"
}

// ListKind is the Kind for List objects. CloneValue creates a shallow copy of
// the parent's list.
var ListKind listKind

// NewList creates a List with the given items.
func (vm *VM) NewList(items ...*Object) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoList}, &List{Value: items}, ListKind)
}

// initList initializes List on this VM.
func (vm *VM) initList() {
	vm.protoList = vm.ObjectWith(nil, []*Object{vm.BaseObject}, &List{}, ListKind)
	slots := Slots{
		"+":        vm.NewPrimitive("+", ListPlus),
		"append":   vm.NewPrimitive("append", ListAppend),
		"asString": vm.NewPrimitive("asString", ListAsString),
		"at":       vm.NewPrimitive("at", ListAt),
		"atPut":    vm.NewPrimitive("atPut", ListAtPut),
		"contains": vm.NewPrimitive("contains", ListContains),
		"each":     vm.NewPrimitive("each", ListEach),
		"indexOf":  vm.NewPrimitive("indexOf", ListIndexOf),
		"insert":   vm.NewPrimitive("insert", ListInsert),
		"prepend":  vm.NewPrimitive("prepend", ListPrepend),
		"remove":   vm.NewPrimitive("remove", ListRemove),
		"removeAt": vm.NewPrimitive("removeAt", ListRemoveAt),
		"reverse":  vm.NewPrimitive("reverse", ListReverse),
		"size":     vm.NewPrimitive("size", ListSize),
		"slice":    vm.NewPrimitive("slice", ListSlice),
		"sort":     vm.NewPrimitive("sort", ListSort),
		"type":     vm.NewString("List"),
	}
	slots["push"] = slots["append"]
	vm.SetSlots(vm.protoList, slots)
	vm.SetSlot(vm.Global, "List", vm.protoList)
}

// listArg returns the receiver's list.
func (j *Job) listArg(args []*Object) (*List, *Object, Stop) {
	l, ok := args[0].Value.(*List)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "expected List, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	return l, nil, NoStop
}

// index converts a Float argument to a list index. Negative indices count
// from the end. If allowEnd is true, the index may equal the length.
func (j *Job) index(args []*Object, i, n int, allowEnd bool) (int, *Object, Stop) {
	f, r, stop := j.FloatArg(args, i)
	if stop != NoStop {
		return 0, r, stop
	}
	k := int(f)
	if k < 0 {
		k += n
	}
	hi := n
	if allowEnd {
		hi++
	}
	if k < 0 || k >= hi {
		r, stop := j.Raisef(LookupFailure, "index %v out of range for size %d", f, n)
		return 0, r, stop
	}
	return k, nil, NoStop
}

// ListAppend is a List method.
//
// append adds items to the end of the list.
func ListAppend(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	l.Value = append(l.Value, args[1:]...)
	return args[0], NoStop
}

// ListPrepend is a List method.
//
// prepend adds items to the beginning of the list.
func ListPrepend(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	l.Value = append(append([]*Object(nil), args[1:]...), l.Value...)
	return args[0], NoStop
}

// ListPlus is a List method.
//
// + returns a new list with the elements of both lists.
func ListPlus(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	m, r, stop := j.ListArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	v := make([]*Object, 0, len(l.Value)+len(m))
	v = append(v, l.Value...)
	v = append(v, m...)
	return j.vm.NewList(v...), NoStop
}

// ListAt is a List method.
//
// at returns the item at the given index. Negative indices count from the
// end.
func ListAt(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.index(args, 1, len(l.Value), false)
	if stop != NoStop {
		return r, stop
	}
	return l.Value[k], NoStop
}

// ListAtPut is a List method.
//
// atPut replaces the item at the given index.
func ListAtPut(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.index(args, 1, len(l.Value), false)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 2)
	if stop != NoStop {
		return r, stop
	}
	l.Value[k] = v
	return v, NoStop
}

// ListInsert is a List method.
//
// insert puts an item at the given index, moving later items back.
func ListInsert(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.index(args, 1, len(l.Value), true)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 2)
	if stop != NoStop {
		return r, stop
	}
	l.Value = append(l.Value, nil)
	copy(l.Value[k+1:], l.Value[k:])
	l.Value[k] = v
	return args[0], NoStop
}

// ListRemove is a List method.
//
// remove removes all items equal to the argument.
func ListRemove(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	m := l.Value[:0]
	for _, x := range l.Value {
		if !j.vm.Equal(x, v) {
			m = append(m, x)
		}
	}
	for i := len(m); i < len(l.Value); i++ {
		l.Value[i] = nil
	}
	l.Value = m
	return args[0], NoStop
}

// ListRemoveAt is a List method.
//
// removeAt removes the item at the given index and returns it.
func ListRemoveAt(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.index(args, 1, len(l.Value), false)
	if stop != NoStop {
		return r, stop
	}
	v := l.Value[k]
	l.Value = append(l.Value[:k], l.Value[k+1:]...)
	return v, NoStop
}

// ListSize is a List method.
//
// size is the number of items in the list.
func ListSize(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(float64(len(l.Value))), NoStop
}

// ListContains is a List method.
//
// contains returns whether any item equals the argument.
func ListContains(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	for _, x := range l.Value {
		if j.vm.Equal(x, v) {
			return j.vm.True, NoStop
		}
	}
	return j.vm.False, NoStop
}

// ListIndexOf is a List method.
//
// indexOf returns the index of the first item equal to the argument, or nil.
func ListIndexOf(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	for i, x := range l.Value {
		if j.vm.Equal(x, v) {
			return j.vm.NewFloat(float64(i)), NoStop
		}
	}
	return j.vm.Nil, NoStop
}

// ListSlice is a List method.
//
// slice returns a new list of the items from start up to but not including
// end, which defaults to the size of the list.
func ListSlice(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	n := len(l.Value)
	lo, r, stop := j.index(args, 1, n, true)
	if stop != NoStop {
		return r, stop
	}
	hi := n
	if len(args) > 2 {
		hi, r, stop = j.index(args, 2, n, true)
		if stop != NoStop {
			return r, stop
		}
	}
	if hi < lo {
		hi = lo
	}
	return j.vm.NewList(append([]*Object(nil), l.Value[lo:hi]...)...), NoStop
}

// ListReverse is a List method.
//
// reverse reverses the list in place.
func ListReverse(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	v := l.Value
	for i, k := 0, len(v)-1; i < k; i, k = i+1, k-1 {
		v[i], v[k] = v[k], v[i]
	}
	return args[0], NoStop
}

// ListSort is a List method.
//
// sort sorts the list in place. Floats sort numerically, strings
// lexicographically, and floats before strings; other items keep their
// relative order at the end.
func ListSort(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	rank := func(o *Object) int {
		switch o.Value.(type) {
		case float64:
			return 0
		case string:
			return 1
		}
		return 2
	}
	sort.SliceStable(l.Value, func(a, b int) bool {
		x, y := l.Value[a], l.Value[b]
		rx, ry := rank(x), rank(y)
		if rx != ry {
			return rx < ry
		}
		switch v := x.Value.(type) {
		case float64:
			return v < y.Value.(float64)
		case string:
			return v < y.Value.(string)
		}
		return false
	})
	return args[0], NoStop
}

// ListEach is a List method.
//
// each calls the argument with each item in turn, yielding between calls.
func ListEach(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.listArg(args)
	if stop != NoStop {
		return r, stop
	}
	f, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	for i, x := range append([]*Object(nil), l.Value...) {
		if i > 0 {
			if r, stop := j.Yield(); stop != NoStop {
				return r, stop
			}
		}
		r, stop := j.Apply(j.Self(), f, calleeName(f), []*Object{x}, nil, j.loc())
		switch stop {
		case NoStop, ContinueStop:
		case BreakStop:
			return j.vm.Void, NoStop
		default:
			return r, stop
		}
	}
	return j.vm.Void, NoStop
}

// ListAsString is a List method.
//
// asString formats the list's items in brackets.
func ListAsString(j *Job, args []*Object) (*Object, Stop) {
	l, ok := args[0].Value.(*List)
	if !ok {
		return j.vm.NewString("List"), NoStop
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range l.Value {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(j.vm.Printable(j, x))
	}
	b.WriteByte(']')
	return j.vm.NewString(b.String()), NoStop
}
