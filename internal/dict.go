package internal

import (
	"sort"
	"strings"
)

// Dict is the value of Dictionary objects. Keys are strings.
type Dict struct {
	Value map[string]*Object
}

// dictKind is the Kind for Dictionary objects.
type dictKind struct{}

func (dictKind) CloneValue(value interface{}) interface{} {
	d, _ := value.(*Dict)
	m := make(map[string]*Object)
	if d != nil {
		for k, v := range d.Value {
			m[k] = v
		}
	}
	return &Dict{Value: m}
}

func (dictKind) String() string {
	return "Dictionary"
}

// DictKind is the Kind for Dictionary objects. CloneValue copies the
// parent's entries.
var DictKind dictKind

// NewDict creates a Dictionary holding m.
func (vm *VM) NewDict(m map[string]*Object) *Object {
	if m == nil {
		m = make(map[string]*Object)
	}
	return vm.ObjectWith(nil, []*Object{vm.protoDict}, &Dict{Value: m}, DictKind)
}

func (vm *VM) initDict() {
	slots := Slots{
		"asString": vm.NewPrimitive("asString", DictAsString),
		"erase":    vm.NewPrimitive("erase", DictErase),
		"get":      vm.NewPrimitive("get", DictGet),
		"has":      vm.NewPrimitive("has", DictHas),
		"keys":     vm.NewPrimitive("keys", DictKeys),
		"set":      vm.NewPrimitive("set", DictSet),
		"size":     vm.NewPrimitive("size", DictSize),
		"type":     vm.NewString("Dictionary"),
	}
	vm.SetSlots(vm.protoDict, slots)
	vm.SetSlot(vm.Global, "Dictionary", vm.protoDict)
}

func (j *Job) dictArg(args []*Object) (*Dict, *Object, Stop) {
	d, ok := args[0].Value.(*Dict)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "expected Dictionary, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	return d, nil, NoStop
}

// sortedKeys returns the dictionary's keys in order.
func (d *Dict) sortedKeys() []string {
	keys := make([]string, 0, len(d.Value))
	for k := range d.Value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DictGet is a Dictionary method.
//
// get returns the value for a key, raising LookupFailure if it is absent.
func DictGet(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	v, ok := d.Value[k]
	if !ok {
		return j.Raisef(LookupFailure, "no such key: %q", k)
	}
	return v, NoStop
}

// DictSet is a Dictionary method.
//
// set stores a value for a key.
func DictSet(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 2)
	if stop != NoStop {
		return r, stop
	}
	d.Value[k] = v
	return v, NoStop
}

// DictHas is a Dictionary method.
func DictHas(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	_, ok := d.Value[k]
	return j.vm.Bool(ok), NoStop
}

// DictErase is a Dictionary method.
func DictErase(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	k, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	delete(d.Value, k)
	return args[0], NoStop
}

// DictKeys is a Dictionary method.
//
// keys returns the sorted list of keys.
func DictKeys(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	keys := d.sortedKeys()
	l := make([]*Object, len(keys))
	for i, k := range keys {
		l[i] = j.vm.NewString(k)
	}
	return j.vm.NewList(l...), NoStop
}

// DictSize is a Dictionary method.
func DictSize(j *Job, args []*Object) (*Object, Stop) {
	d, r, stop := j.dictArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(float64(len(d.Value))), NoStop
}

// DictAsString is a Dictionary method.
func DictAsString(j *Job, args []*Object) (*Object, Stop) {
	d, ok := args[0].Value.(*Dict)
	if !ok {
		return j.vm.NewString("Dictionary"), NoStop
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, k := range d.sortedKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(j.vm.Printable(j, j.vm.NewString(k)))
		b.WriteString(" => ")
		b.WriteString(j.vm.Printable(j, d.Value[k]))
	}
	if len(d.Value) == 0 {
		b.WriteString("=>")
	}
	b.WriteByte(']')
	return j.vm.NewString(b.String()), NoStop
}
