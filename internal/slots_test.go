package internal_test

import (
	"testing"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/testutils"
)

// TestProtos tests that an object returns the same list of protos as it is
// created with.
func TestProtos(t *testing.T) {
	vm := testutils.VM()
	cases := map[string][]*urbi.Object{
		"none": nil,
		"one":  {vm.NewObject(nil)},
		"ten":  {vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil), vm.NewObject(nil)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			obj := vm.ObjectWith(nil, c, nil, nil)
			p := obj.Protos()
			for i, v := range p {
				if i >= len(c) {
					t.Errorf("too many protos: have %v at %d", v, i)
					continue // report every unexpected proto
				}
				if v != c[i] {
					t.Errorf("wrong proto at %d: want %v, have %v", i, c[i], v)
				}
			}
			for i := len(p); i < len(c); i++ {
				t.Errorf("too few protos: missing %v at %d", c[i], i)
			}
		})
	}
}

// TestProtoEdits tests adding and removing protos.
func TestProtoEdits(t *testing.T) {
	vm := testutils.VM()
	a, b := vm.NewObject(nil), vm.NewObject(nil)
	obj := vm.ObjectWith(nil, []*urbi.Object{a}, nil, nil)
	obj.AppendProto(b)
	obj.PrependProto(b)
	if p := obj.Protos(); len(p) != 3 || p[0] != b || p[1] != a || p[2] != b {
		t.Fatalf("wrong protos after append and prepend: %v", p)
	}
	obj.RemoveProto(b)
	if p := obj.Protos(); len(p) != 1 || p[0] != a {
		t.Errorf("wrong protos after remove: %v", p)
	}
	obj.SetProtos()
	if p := obj.Protos(); p != nil {
		t.Errorf("protos not cleared: %v", p)
	}
}

// TestGetSlot tests that GetSlot can find local and ancestor slots.
func TestGetSlot(t *testing.T) {
	vm := testutils.VM()
	float, _ := vm.GetLocalSlot(vm.Global, "Float")
	cases := map[string]struct {
		o, v, p *urbi.Object
		slot    string
	}{
		"Local":    {vm.Lobby, vm.Lobby, vm.Lobby, "lobby"},
		"Ancestor": {vm.Lobby, vm.BaseObject, vm.Global, "Object"},
		"Deep":     {vm.NewFloat(1), float, vm.Global, "Float"},
		"Never":    {vm.Lobby, nil, nil, "fail to find"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v, p := vm.GetSlot(c.o, c.slot)
			if v != c.v {
				t.Errorf("slot %s found wrong object: have %T@%p, want %T@%p", c.slot, v, v, c.v, c.v)
			}
			if p != c.p {
				t.Errorf("slot %s found on wrong proto: have %T@%p, want %T@%p", c.slot, p, p, c.p, c.p)
			}
		})
	}
}

// TestGetSlotCycle tests that a lookup through cyclic protos terminates.
func TestGetSlotCycle(t *testing.T) {
	vm := testutils.VM()
	a := vm.ObjectWith(nil, nil, nil, nil)
	b := vm.ObjectWith(urbi.Slots{"x": vm.True}, []*urbi.Object{a}, nil, nil)
	a.AppendProto(b)
	if v, p := vm.GetSlot(a, "x"); v != vm.True || p != b {
		t.Errorf("wrong lookup through cycle: have %v on %v", v, p)
	}
	if v, p := vm.GetSlot(a, "y"); v != nil || p != nil {
		t.Errorf("found missing slot through cycle: %v on %v", v, p)
	}
}

// BenchmarkGetSlot benchmarks VM.GetSlot in various depths of search.
func BenchmarkGetSlot(b *testing.B) {
	vm := testutils.VM()
	o := vm.BaseObject.Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone()
	cases := map[string]struct {
		o    *urbi.Object
		slot string
	}{
		"Local":    {vm.Lobby, "lobby"},
		"Proto":    {vm.BaseObject, "Lobby"},
		"Ancestor": {o, "Lobby"},
		"Missing":  {vm.Lobby, "Lobby fail to find"},
	}
	for name, c := range cases {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				BenchDummy, _ = vm.GetSlot(c.o, c.slot)
			}
		})
	}
}

// TestGetLocalSlot tests that GetLocalSlot can find local but not ancestor
// slots.
func TestGetLocalSlot(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]struct {
		o, v *urbi.Object
		ok   bool
		slot string
	}{
		"Local":    {vm.Lobby, vm.Lobby, true, "lobby"},
		"Ancestor": {vm.Lobby, nil, false, "Object"},
		"Never":    {vm.Lobby, nil, false, "fail to find"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v, ok := vm.GetLocalSlot(c.o, c.slot)
			if ok != c.ok {
				t.Errorf("slot %s has wrong presence: have %v, want %v", c.slot, ok, c.ok)
			}
			if v != c.v {
				t.Errorf("slot %s found wrong object: have %T@%p, want %T@%p", c.slot, v, v, c.v, c.v)
			}
		})
	}
}

// TestSlotWrites tests slot declaration, update, and constancy.
func TestSlotWrites(t *testing.T) {
	vm := testutils.VM()
	// Each program works on a fresh object held in local 0.
	const fresh = `{kind: declare, ref: {name: o, index: 0}, value: {kind: call, target: {kind: call, name: Object}, name: clone}}`
	cases := map[string]testutils.SourceTestCase{
		"declare": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: call, target: {kind: local, ref: {name: o, index: 0}}, name: x}]}`,
			Pass: testutils.PassEqual(vm.NewFloat(1)),
		},
		"update": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: slotassign, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 2},
				{kind: call, target: {kind: local, ref: {name: o, index: 0}}, name: x}]}`,
			Pass: testutils.PassEqual(vm.NewFloat(2)),
		},
		"updateMissing": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotassign, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 2}]}`,
			Pass: testutils.PassFailure(urbi.LookupFailure),
		},
		"updateInherited": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: declare, ref: {name: c, index: 1}, value: {kind: call, target: {kind: local, ref: {name: o, index: 0}}, name: clone}},
				{kind: slotassign, target: {kind: local, ref: {name: c, index: 1}}, name: x, value: 2},
				{kind: list, elems: [
					{kind: call, target: {kind: local, ref: {name: o, index: 0}}, name: x},
					{kind: call, target: {kind: local, ref: {name: c, index: 1}}, name: hasLocalSlot, args: [x]}]}]}`,
			Pass: testutils.PassEqual(vm.NewList(vm.NewFloat(1), vm.True)),
		},
		"constUpdate": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1, const: true},
				{kind: slotassign, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 2}]}`,
			Pass: testutils.PassFailure(urbi.ConstViolation),
		},
		"constRedeclare": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1, const: true},
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 2}]}`,
			Pass: testutils.PassFailure(urbi.ConstViolation),
		},
		"constantProperty": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1, const: true},
				{kind: property, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: constant}]}`,
			Pass: testutils.PassIdentical(vm.True),
		},
		"userProperty": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: propertyassign, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: unit, value: "m"},
				{kind: property, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: unit}]}`,
			Pass: testutils.PassEqual(vm.NewString("m")),
		},
		"missingProperty": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: property, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: unit}]}`,
			Pass: testutils.PassFailure(urbi.LookupFailure),
		},
		"changedReadOnly": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: propertyassign, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: changed, value: 1}]}`,
			Pass: testutils.PassFailure(urbi.ConstViolation),
		},
		"changedIsEvent": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: 1},
				{kind: property, target: {kind: local, ref: {name: o, index: 0}}, slot: x, prop: changed}]}`,
			Pass: testutils.PassKind(urbi.EventKind),
		},
		"voidValue": {
			Source: `{kind: nary, stmts: [` + fresh + `,
				{kind: slotdeclare, target: {kind: local, ref: {name: o, index: 0}}, name: x, value: {kind: void}}]}`,
			Pass: testutils.PassFailure(urbi.UnexpectedVoid),
		},
		"voidTarget": {
			Source: `{kind: slotdeclare, target: {kind: void}, name: x, value: 1}`,
			Pass:   testutils.PassFailure(urbi.UnexpectedVoid),
		},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestSlotWrites/"+name))
	}
}

// TestSlotChanged tests that writes through a job emit the slot's changed
// event and that host writes do not.
func TestSlotChanged(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	obj := vm.NewObject(urbi.Slots{"x": vm.NewFloat(0)})
	vm.SetSlot(vm.Lobby, "obj", obj)
	var seen []float64
	vm.LocalSlot(obj, "x").Changed(vm).Subscribe(func(j *urbi.Job, payload *urbi.Object) func(*urbi.Job) {
		seen = append(seen, payload.Value.(float64))
		return nil
	})
	vm.SetSlot(obj, "x", vm.NewFloat(-1))
	src := `{kind: nary, stmts: [
		{kind: slotassign, target: {kind: call, name: obj}, name: x, value: 1},
		{kind: slotassign, target: {kind: call, name: obj}, name: x, value: 2}]}`
	if r, stop := vm.DoNode(testutils.Decode(t, src, "TestSlotChanged")); stop != urbi.NoStop {
		t.Fatalf("program failed: %v (%v)", r, stop)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("wrong changed emissions: want [1 2], have %v", seen)
	}
}
