package internal_test

import (
	"testing"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/testutils"
)

// TestIsA tests that IsA finds direct and indirect ancestors.
func TestIsA(t *testing.T) {
	vm := testutils.VM()
	a := vm.NewObject(nil)
	b := a.Clone()
	c := vm.ObjectWith(nil, []*urbi.Object{vm.NewObject(nil), b}, nil, nil)
	cases := map[string]struct {
		o, p *urbi.Object
		want bool
	}{
		"self":      {a, a, true},
		"proto":     {b, a, true},
		"second":    {c, a, true},
		"object":    {c, vm.BaseObject, true},
		"global":    {vm.NewFloat(1), vm.Global, true},
		"unrelated": {a, b, false},
		"nil":       {nil, a, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if c.o.IsA(c.p) != c.want {
				t.Errorf("wrong IsA: want %v", c.want)
			}
		})
	}
}

// TestIsACycle tests that IsA terminates on cyclic protos.
func TestIsACycle(t *testing.T) {
	vm := testutils.VM()
	a, b := vm.NewObject(nil), vm.NewObject(nil)
	a.SetProtos(b)
	b.SetProtos(a)
	if a.IsA(vm.NewObject(nil)) {
		t.Error("cyclic object is an unrelated object")
	}
}

// TestEqual tests value equality.
func TestEqual(t *testing.T) {
	vm := testutils.VM()
	o := vm.NewObject(nil)
	cases := map[string]struct {
		x, y *urbi.Object
		want bool
	}{
		"floats":       {vm.NewFloat(1), vm.NewFloat(1), true},
		"floatsDiffer": {vm.NewFloat(1), vm.NewFloat(2), false},
		"strings":      {vm.NewString("a"), vm.NewString("a"), true},
		"stringFloat":  {vm.NewString("1"), vm.NewFloat(1), false},
		"lists":        {vm.NewList(vm.NewFloat(1), vm.NewString("a")), vm.NewList(vm.NewFloat(1), vm.NewString("a")), true},
		"listsLength":  {vm.NewList(vm.NewFloat(1)), vm.NewList(vm.NewFloat(1), vm.NewFloat(1)), false},
		"nested":       {vm.NewList(vm.NewList(vm.NewFloat(1))), vm.NewList(vm.NewList(vm.NewFloat(1))), true},
		"identical":    {o, o, true},
		"objects":      {o, vm.NewObject(nil), false},
		"nil":          {vm.Nil, vm.Nil, true},
		"nilVoid":      {vm.Nil, vm.Void, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if vm.Equal(c.x, c.y) != c.want {
				t.Errorf("wrong equality: want %v", c.want)
			}
			if vm.Equal(c.y, c.x) != c.want {
				t.Errorf("asymmetric equality: want %v", c.want)
			}
		})
	}
}

// TestAsBool tests truthiness of values.
func TestAsBool(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]struct {
		o    *urbi.Object
		want bool
	}{
		"zero":      {vm.NewFloat(0), false},
		"one":       {vm.NewFloat(1), true},
		"empty":     {vm.NewString(""), false},
		"string":    {vm.NewString("false"), true},
		"emptyList": {vm.NewList(), false},
		"list":      {vm.NewList(vm.False), true},
		"object":    {vm.NewObject(nil), true},
		"lobby":     {vm.Lobby, true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if vm.AsBool(c.o) != c.want {
				t.Errorf("wrong truth: want %v", c.want)
			}
		})
	}
}

// TestTypeName tests that type names come from type slots, then kinds.
func TestTypeName(t *testing.T) {
	vm := testutils.VM()
	typed := vm.NewObject(urbi.Slots{"type": vm.NewString("Point")})
	cases := map[string]struct {
		o    *urbi.Object
		want string
	}{
		"float":     {vm.NewFloat(1), "Float"},
		"string":    {vm.NewString("a"), "String"},
		"list":      {vm.NewList(), "List"},
		"dict":      {vm.NewDict(nil), "Dictionary"},
		"object":    {vm.NewObject(nil), "Object"},
		"slot":      {typed, "Point"},
		"inherited": {typed.Clone(), "Point"},
		"kindOnly":  {vm.ObjectWith(nil, nil, nil, urbi.BasicKind("Bare")), "Bare"},
		"bare":      {vm.ObjectWith(nil, nil, nil, nil), "Object"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if typ := vm.TypeName(c.o); typ != c.want {
				t.Errorf("wrong type name: want %s, have %s", c.want, typ)
			}
		})
	}
}

// TestPrintable tests the strings connections display for results.
func TestPrintable(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]struct {
		o    *urbi.Object
		want string
	}{
		"integral": {vm.NewFloat(2), "2"},
		"negative": {vm.NewFloat(-3), "-3"},
		"fraction": {vm.NewFloat(1.5), "1.5"},
		"string":   {vm.NewString("hi"), `"hi"`},
		"nil":      {nil, "nil"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if s := vm.Printable(nil, c.o); s != c.want {
				t.Errorf("wrong printable string: want %q, have %q", c.want, s)
			}
		})
	}
}

// TestObjectMethods tests the methods of Object.
func TestObjectMethods(t *testing.T) {
	vm := testutils.VM()
	float, _ := vm.GetLocalSlot(vm.Global, "Float")
	// The programs that need an object work on a fresh one in local 0.
	const fresh = `{kind: declare, ref: {name: o, index: 0}, value: {kind: call, target: {kind: call, name: Object}, name: clone}}`
	const o = `{kind: local, ref: {name: o, index: 0}}`
	cases := map[string]map[string]testutils.SourceTestCase{
		"==": {
			"equal":    {Source: `{kind: call, target: 1, name: "==", args: [1]}`, Pass: testutils.PassIdentical(vm.True)},
			"notEqual": {Source: `{kind: call, target: 1, name: "==", args: [2]}`, Pass: testutils.PassIdentical(vm.False)},
			"strings":  {Source: `{kind: call, target: "a", name: "==", args: ["a"]}`, Pass: testutils.PassIdentical(vm.True)},
			"lists":    {Source: `{kind: call, target: {kind: list, elems: [1]}, name: "==", args: [{kind: list, elems: [1]}]}`, Pass: testutils.PassIdentical(vm.True)},
			"objects":  {Source: `{kind: call, target: {kind: call, name: Object}, name: "==", args: [{kind: call, target: {kind: call, name: Object}, name: clone}]}`, Pass: testutils.PassIdentical(vm.False)},
			"arity":    {Source: `{kind: call, target: 1, name: "==", args: []}`, Pass: testutils.PassFailure(urbi.ArityMismatch)},
		},
		"!=": {
			"equal":    {Source: `{kind: call, target: 1, name: "!=", args: [1]}`, Pass: testutils.PassIdentical(vm.False)},
			"notEqual": {Source: `{kind: call, target: 1, name: "!=", args: [2]}`, Pass: testutils.PassIdentical(vm.True)},
		},
		"isA": {
			"float":    {Source: `{kind: call, target: 1, name: isA, args: [{kind: call, name: Float}]}`, Pass: testutils.PassIdentical(vm.True)},
			"object":   {Source: `{kind: call, target: 1, name: isA, args: [{kind: call, name: Object}]}`, Pass: testutils.PassIdentical(vm.True)},
			"notFloat": {Source: `{kind: call, target: "a", name: isA, args: [{kind: call, name: Float}]}`, Pass: testutils.PassIdentical(vm.False)},
		},
		"clone": {
			"protos": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: clone}, name: protos}`,
				Pass:   testutils.PassEqual(vm.NewList(vm.BaseObject)),
			},
			"noSlots": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: clone}, name: slotNames}`,
				Pass:   testutils.PassEqual(vm.NewList()),
			},
			"keepsValue": {
				Source: `{kind: call, target: {kind: call, target: 3, name: clone}, name: "+", args: [1]}`,
				Pass:   testutils.PassEqual(vm.NewFloat(4)),
			},
		},
		"new": {
			"init": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: slotdeclare, target: ` + o + `, name: init, value: {kind: function, formals: [v], body: {kind: slotdeclare, target: {kind: this}, name: v, value: {kind: local, ref: {name: v, index: 0}}}}},
					{kind: call, target: {kind: call, target: ` + o + `, name: new, args: [5]}, name: v}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(5)),
			},
			"noInit": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: new}, name: protos}`,
				Pass:   testutils.PassEqual(vm.NewList(vm.BaseObject)),
			},
		},
		"setSlot": {
			"returns": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: setSlot, args: [x, 3]}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(3)),
			},
			"sets": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: setSlot, args: [x, 3]},
					{kind: call, target: ` + o + `, name: x}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(3)),
			},
			"badName": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: clone}, name: setSlot, args: [1, 3]}`,
				Pass:   testutils.PassFailure(urbi.BadArgumentType),
			},
		},
		"updateSlot": {
			"existing": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: setSlot, args: [x, 3]},
					{kind: call, target: ` + o + `, name: updateSlot, args: [x, 4]},
					{kind: call, target: ` + o + `, name: x}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(4)),
			},
			"missing": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: updateSlot, args: [x, 4]}]}`,
				Pass: testutils.PassFailure(urbi.LookupFailure),
			},
		},
		"getSlot": {
			"noActivation": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: getSlot, args: [clone]}, name: type}`,
				Pass:   testutils.PassEqual(vm.NewString("Primitive")),
			},
			"missing": {
				Source: `{kind: call, target: {kind: call, name: Object}, name: getSlot, args: [nothingHere]}`,
				Pass:   testutils.PassFailure(urbi.LookupFailure),
			},
		},
		"removeSlot": {
			"removes": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: setSlot, args: [x, 3]},
					{kind: call, target: ` + o + `, name: removeSlot, args: [x]},
					{kind: call, target: ` + o + `, name: hasLocalSlot, args: [x]}]}`,
				Pass: testutils.PassIdentical(vm.False),
			},
			"absent": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: clone}, name: removeSlot, args: [x]}`,
				Pass:   testutils.PassSuccess(),
			},
		},
		"hasSlot": {
			"inherited": {Source: `{kind: call, target: 1, name: hasSlot, args: [floor]}`, Pass: testutils.PassIdentical(vm.True)},
			"missing":   {Source: `{kind: call, target: 1, name: hasSlot, args: [nothingHere]}`, Pass: testutils.PassIdentical(vm.False)},
		},
		"hasLocalSlot": {
			"inherited": {Source: `{kind: call, target: 1, name: hasLocalSlot, args: [floor]}`, Pass: testutils.PassIdentical(vm.False)},
			"local":     {Source: `{kind: call, target: {kind: call, name: Float}, name: hasLocalSlot, args: [floor]}`, Pass: testutils.PassIdentical(vm.True)},
		},
		"slotNames": {
			"sorted": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: setSlot, args: ["b", 1]},
					{kind: call, target: ` + o + `, name: setSlot, args: ["a", 2]},
					{kind: call, target: ` + o + `, name: slotNames}]}`,
				Pass: testutils.PassEqual(vm.NewList(vm.NewString("a"), vm.NewString("b"))),
			},
		},
		"protos": {
			"addProto": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: addProto, args: [{kind: call, name: Float}]},
					{kind: call, target: ` + o + `, name: protos}]}`,
				Pass: testutils.PassEqual(vm.NewList(float, vm.BaseObject)),
			},
			"removeProto": {
				Source: `{kind: nary, stmts: [` + fresh + `,
					{kind: call, target: ` + o + `, name: removeProto, args: [{kind: call, name: Object}]},
					{kind: call, target: ` + o + `, name: protos}]}`,
				Pass: testutils.PassEqual(vm.NewList()),
			},
		},
		"type": {
			"float":      {Source: `{kind: call, target: 1, name: type}`, Pass: testutils.PassEqual(vm.NewString("Float"))},
			"object":     {Source: `{kind: call, target: {kind: call, name: Object}, name: type}`, Pass: testutils.PassEqual(vm.NewString("Object"))},
			"activation": {Source: `{kind: call, target: 1, name: type, args: [1]}`, Pass: testutils.PassFailure(urbi.ArityMismatch)},
		},
		"asString": {
			"float":  {Source: `{kind: call, target: 1.5, name: asString}`, Pass: testutils.PassEqual(vm.NewString("1.5"))},
			"string": {Source: `{kind: call, target: "a", name: asString}`, Pass: testutils.PassEqual(vm.NewString("a"))},
			"object": {Source: `{kind: call, target: {kind: call, name: Object}, name: asString}`, Pass: testutils.PassKind(urbi.StringKind)},
		},
		"uid": {
			"distinct": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: uid}, name: "==", args: [{kind: call, target: {kind: call, name: Lobby}, name: uid}]}`,
				Pass:   testutils.PassIdentical(vm.False),
			},
			"stable": {
				Source: `{kind: call, target: {kind: call, target: {kind: call, name: Object}, name: uid}, name: "==", args: [{kind: call, target: {kind: call, name: Object}, name: uid}]}`,
				Pass:   testutils.PassIdentical(vm.True),
			},
		},
		"lookup": {
			"missing": {Source: `{kind: call, name: nothingHere}`, Pass: testutils.PassFailure(urbi.LookupFailure)},
			"void":    {Source: `{kind: call, target: {kind: void}, name: type}`, Pass: testutils.PassFailure(urbi.UnexpectedVoid)},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for subname, c := range s {
				t.Run(subname, c.TestFunc("TestObjectMethods/"+name+"/"+subname))
			}
		})
	}
}

// TestActivateSlot tests that plain values with an activate slot call it when
// they are looked up, and that they still refuse arguments.
func TestActivateSlot(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	act := vm.NewObject(urbi.Slots{
		"activate": vm.NewPrimitive("activate", func(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
			return j.VM().NewString("activated"), urbi.NoStop
		}),
	})
	vm.SetSlot(vm.Lobby, "act", act)
	r, stop := vm.DoNode(testutils.Decode(t, `{kind: call, name: act}`, "TestActivateSlot"))
	if stop != urbi.NoStop || !vm.Equal(r, vm.NewString("activated")) {
		t.Errorf("wrong activation result: %v (%v)", vm.AsString(nil, r), stop)
	}
	r, stop = vm.DoNode(testutils.Decode(t, `{kind: call, name: act, args: [1]}`, "TestActivateSlot"))
	if stop != urbi.ExceptionStop || !r.IsA(vm.ExceptionProto(urbi.ArityMismatch)) {
		t.Errorf("arguments to a plain value gave %v (%v)", vm.AsString(nil, r), stop)
	}
}
