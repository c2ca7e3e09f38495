package internal_test

import (
	"testing"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/testutils"
)

// TestFloatMethods tests the methods of Float.
func TestFloatMethods(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]map[string]testutils.SourceTestCase{
		"arithmetic": {
			"+":      {Source: `{kind: call, target: 1, name: "+", args: [2]}`, Pass: testutils.PassEqual(vm.NewFloat(3))},
			"-":      {Source: `{kind: call, target: 1, name: "-", args: [2]}`, Pass: testutils.PassEqual(vm.NewFloat(-1))},
			"negate": {Source: `{kind: call, target: 4, name: "-"}`, Pass: testutils.PassEqual(vm.NewFloat(-4))},
			"*":      {Source: `{kind: call, target: 3, name: "*", args: [4]}`, Pass: testutils.PassEqual(vm.NewFloat(12))},
			"/":      {Source: `{kind: call, target: 3, name: "/", args: [2]}`, Pass: testutils.PassEqual(vm.NewFloat(1.5))},
			"%":      {Source: `{kind: call, target: 7, name: "%", args: [3]}`, Pass: testutils.PassEqual(vm.NewFloat(1))},
			"**":     {Source: `{kind: call, target: 2, name: "**", args: [10]}`, Pass: testutils.PassEqual(vm.NewFloat(1024))},
			"badArg": {Source: `{kind: call, target: 1, name: "+", args: ["a"]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
			"noArg":  {Source: `{kind: call, target: 1, name: "+"}`, Pass: testutils.PassFailure(urbi.ArityMismatch)},
		},
		"compare": {
			"<":     {Source: `{kind: call, target: 1, name: "<", args: [2]}`, Pass: testutils.PassIdentical(vm.True)},
			"<=":    {Source: `{kind: call, target: 2, name: "<=", args: [2]}`, Pass: testutils.PassIdentical(vm.True)},
			">":     {Source: `{kind: call, target: 1, name: ">", args: [2]}`, Pass: testutils.PassIdentical(vm.False)},
			">=":    {Source: `{kind: call, target: 1, name: ">=", args: [2]}`, Pass: testutils.PassIdentical(vm.False)},
			"max":   {Source: `{kind: call, target: 1, name: max, args: [2]}`, Pass: testutils.PassEqual(vm.NewFloat(2))},
			"min":   {Source: `{kind: call, target: 1, name: min, args: [2]}`, Pass: testutils.PassEqual(vm.NewFloat(1))},
			"other": {Source: `{kind: call, target: 1, name: "<", args: [{kind: list}]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
		},
		"functions": {
			"abs":   {Source: `{kind: call, target: -2.5, name: abs}`, Pass: testutils.PassEqual(vm.NewFloat(2.5))},
			"ceil":  {Source: `{kind: call, target: 1.2, name: ceil}`, Pass: testutils.PassEqual(vm.NewFloat(2))},
			"floor": {Source: `{kind: call, target: 1.8, name: floor}`, Pass: testutils.PassEqual(vm.NewFloat(1))},
			"round": {Source: `{kind: call, target: 1.5, name: round}`, Pass: testutils.PassEqual(vm.NewFloat(2))},
			"sqrt":  {Source: `{kind: call, target: 9, name: sqrt}`, Pass: testutils.PassEqual(vm.NewFloat(3))},
		},
		"asString": {
			"integral": {Source: `{kind: call, target: 12, name: asString}`, Pass: testutils.PassEqual(vm.NewString("12"))},
			"fraction": {Source: `{kind: call, target: 0.25, name: asString}`, Pass: testutils.PassEqual(vm.NewString("0.25"))},
			"negative": {Source: `{kind: call, target: -7, name: asString}`, Pass: testutils.PassEqual(vm.NewString("-7"))},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for subname, c := range s {
				t.Run(subname, c.TestFunc("TestFloatMethods/"+name+"/"+subname))
			}
		})
	}
}

// TestStringMethods tests the methods of String.
func TestStringMethods(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]map[string]testutils.SourceTestCase{
		"+": {
			"string": {Source: `{kind: call, target: "ab", name: "+", args: ["cd"]}`, Pass: testutils.PassEqual(vm.NewString("abcd"))},
			"float":  {Source: `{kind: call, target: "n=", name: "+", args: [1.5]}`, Pass: testutils.PassEqual(vm.NewString("n=1.5"))},
			"list":   {Source: `{kind: call, target: "l=", name: "+", args: [{kind: list, elems: [1, "a"]}]}`, Pass: testutils.PassEqual(vm.NewString(`l=[1, "a"]`))},
		},
		"compare": {
			"<":     {Source: `{kind: call, target: "a", name: "<", args: ["b"]}`, Pass: testutils.PassIdentical(vm.True)},
			">":     {Source: `{kind: call, target: "a", name: ">", args: ["b"]}`, Pass: testutils.PassIdentical(vm.False)},
			"other": {Source: `{kind: call, target: "a", name: "<", args: [1]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
		},
		"asFloat": {
			"number": {Source: `{kind: call, target: " 2.5 ", name: asFloat}`, Pass: testutils.PassEqual(vm.NewFloat(2.5))},
			"junk":   {Source: `{kind: call, target: "two", name: asFloat}`, Pass: testutils.PassIdentical(vm.Nil)},
		},
		"size": {
			"ascii":   {Source: `{kind: call, target: "hello", name: size}`, Pass: testutils.PassEqual(vm.NewFloat(5))},
			"unicode": {Source: `{kind: call, target: "héllo", name: size}`, Pass: testutils.PassEqual(vm.NewFloat(5))},
			"empty":   {Source: `{kind: call, target: "", name: size}`, Pass: testutils.PassEqual(vm.NewFloat(0))},
		},
		"contains": {
			"yes": {Source: `{kind: call, target: "hello", name: contains, args: ["ell"]}`, Pass: testutils.PassIdentical(vm.True)},
			"no":  {Source: `{kind: call, target: "hello", name: contains, args: ["elk"]}`, Pass: testutils.PassIdentical(vm.False)},
		},
		"split": {
			"separator":  {Source: `{kind: call, target: "a,b,,c", name: split, args: [","]}`, Pass: testutils.PassEqual(vm.NewList(vm.NewString("a"), vm.NewString("b"), vm.NewString(""), vm.NewString("c")))},
			"whitespace": {Source: `{kind: call, target: " a  b ", name: split}`, Pass: testutils.PassEqual(vm.NewList(vm.NewString("a"), vm.NewString("b")))},
		},
		"case": {
			"toUpper": {Source: `{kind: call, target: "straße", name: toUpper}`, Pass: testutils.PassEqual(vm.NewString("STRASSE"))},
			"toLower": {Source: `{kind: call, target: "ÀB", name: toLower}`, Pass: testutils.PassEqual(vm.NewString("àb"))},
		},
		"bytes": {
			"utf8":    {Source: `{kind: call, target: "aé", name: bytes}`, Pass: testutils.PassEqual(vm.NewList(vm.NewFloat(0x61), vm.NewFloat(0xc3), vm.NewFloat(0xa9)))},
			"utf16":   {Source: `{kind: call, target: "a", name: bytes, args: [utf16]}`, Pass: testutils.PassEqual(vm.NewList(vm.NewFloat(0x61), vm.NewFloat(0)))},
			"latin1":  {Source: `{kind: call, target: "é", name: bytes, args: [latin1]}`, Pass: testutils.PassEqual(vm.NewList(vm.NewFloat(0xe9)))},
			"unknown": {Source: `{kind: call, target: "a", name: bytes, args: [ebcdic]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for subname, c := range s {
				t.Run(subname, c.TestFunc("TestStringMethods/"+name+"/"+subname))
			}
		})
	}
}

// TestListMethods tests the methods of List.
func TestListMethods(t *testing.T) {
	vm := testutils.VM()
	one, two, three := vm.NewFloat(1), vm.NewFloat(2), vm.NewFloat(3)
	// l is a fresh [1, 2, 3] in each program.
	const l = `{kind: list, elems: [1, 2, 3]}`
	cases := map[string]map[string]testutils.SourceTestCase{
		"size": {
			"empty": {Source: `{kind: call, target: {kind: list}, name: size}`, Pass: testutils.PassEqual(vm.NewFloat(0))},
			"three": {Source: `{kind: call, target: ` + l + `, name: size}`, Pass: testutils.PassEqual(three)},
		},
		"at": {
			"first":    {Source: `{kind: call, target: ` + l + `, name: at, args: [0]}`, Pass: testutils.PassEqual(one)},
			"negative": {Source: `{kind: call, target: ` + l + `, name: at, args: [-1]}`, Pass: testutils.PassEqual(three)},
			"range":    {Source: `{kind: call, target: ` + l + `, name: at, args: [3]}`, Pass: testutils.PassFailure(urbi.LookupFailure)},
			"badIndex": {Source: `{kind: call, target: ` + l + `, name: at, args: ["0"]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
		},
		"atPut": {
			"put": {
				Source: `{kind: nary, stmts: [
					{kind: declare, ref: {name: l, index: 0}, value: ` + l + `},
					{kind: call, target: {kind: local, ref: {name: l, index: 0}}, name: atPut, args: [1, 5]},
					{kind: local, ref: {name: l, index: 0}}]}`,
				Pass: testutils.PassEqual(vm.NewList(one, vm.NewFloat(5), three)),
			},
		},
		"append": {
			"many":    {Source: `{kind: call, target: ` + l + `, name: append, args: [4, 5]}`, Pass: testutils.PassEqual(vm.NewList(one, two, three, vm.NewFloat(4), vm.NewFloat(5)))},
			"prepend": {Source: `{kind: call, target: ` + l + `, name: prepend, args: [0]}`, Pass: testutils.PassEqual(vm.NewList(vm.NewFloat(0), one, two, three))},
		},
		"insert": {
			"middle": {Source: `{kind: call, target: ` + l + `, name: insert, args: [1, 9]}`, Pass: testutils.PassEqual(vm.NewList(one, vm.NewFloat(9), two, three))},
			"end":    {Source: `{kind: call, target: ` + l + `, name: insert, args: [3, 9]}`, Pass: testutils.PassEqual(vm.NewList(one, two, three, vm.NewFloat(9)))},
			"past":   {Source: `{kind: call, target: ` + l + `, name: insert, args: [4, 9]}`, Pass: testutils.PassFailure(urbi.LookupFailure)},
		},
		"remove": {
			"all":      {Source: `{kind: call, target: {kind: list, elems: [1, 2, 1]}, name: remove, args: [1]}`, Pass: testutils.PassEqual(vm.NewList(two))},
			"absent":   {Source: `{kind: call, target: ` + l + `, name: remove, args: [4]}`, Pass: testutils.PassEqual(vm.NewList(one, two, three))},
			"removeAt": {Source: `{kind: call, target: ` + l + `, name: removeAt, args: [1]}`, Pass: testutils.PassEqual(two)},
		},
		"search": {
			"contains":   {Source: `{kind: call, target: ` + l + `, name: contains, args: [2]}`, Pass: testutils.PassIdentical(vm.True)},
			"lacks":      {Source: `{kind: call, target: ` + l + `, name: contains, args: ["2"]}`, Pass: testutils.PassIdentical(vm.False)},
			"indexOf":    {Source: `{kind: call, target: ` + l + `, name: indexOf, args: [3]}`, Pass: testutils.PassEqual(two)},
			"indexOfNil": {Source: `{kind: call, target: ` + l + `, name: indexOf, args: [4]}`, Pass: testutils.PassIdentical(vm.Nil)},
		},
		"+": {
			"concat": {Source: `{kind: call, target: ` + l + `, name: "+", args: [{kind: list, elems: [4]}]}`, Pass: testutils.PassEqual(vm.NewList(one, two, three, vm.NewFloat(4)))},
			"other":  {Source: `{kind: call, target: ` + l + `, name: "+", args: [4]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
		},
		"slice": {
			"range":   {Source: `{kind: call, target: ` + l + `, name: slice, args: [1, 2]}`, Pass: testutils.PassEqual(vm.NewList(two))},
			"toEnd":   {Source: `{kind: call, target: ` + l + `, name: slice, args: [1]}`, Pass: testutils.PassEqual(vm.NewList(two, three))},
			"crossed": {Source: `{kind: call, target: ` + l + `, name: slice, args: [2, 1]}`, Pass: testutils.PassEqual(vm.NewList())},
		},
		"order": {
			"reverse": {Source: `{kind: call, target: ` + l + `, name: reverse}`, Pass: testutils.PassEqual(vm.NewList(three, two, one))},
			"sort":    {Source: `{kind: call, target: {kind: list, elems: ["b", 3, "a", 1]}, name: sort}`, Pass: testutils.PassEqual(vm.NewList(one, three, vm.NewString("a"), vm.NewString("b")))},
		},
		"each": {
			"sum": {
				Source: `{kind: nary, stmts: [
					{kind: declare, ref: {name: s, index: 0}, value: 0},
					{kind: call, target: ` + l + `, name: each, args: [{kind: closure, formals: [{name: x, ref: {name: x, index: 0}}], captures: [{name: s, index: 0}],
						body: {kind: assign, ref: {name: s, index: 0, captured: true}, value: {kind: call, target: {kind: local, ref: {name: s, index: 0, captured: true}}, name: "+", args: [{kind: local, ref: {name: x, index: 0}}]}}}]},
					{kind: local, ref: {name: s, index: 0}}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(6)),
			},
		},
		"asString": {
			"mixed": {Source: `{kind: call, target: {kind: list, elems: [1, "a", {kind: list}]}, name: asString}`, Pass: testutils.PassEqual(vm.NewString(`[1, "a", []]`))},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for subname, c := range s {
				t.Run(subname, c.TestFunc("TestListMethods/"+name+"/"+subname))
			}
		})
	}
}

// TestListCloneCopies tests that clones of lists do not share items.
func TestListCloneCopies(t *testing.T) {
	vm := testutils.VM()
	l := vm.NewList(vm.NewFloat(1))
	c := l.Clone()
	c.Value.(*urbi.List).Value[0] = vm.NewFloat(2)
	if !vm.Equal(l, vm.NewList(vm.NewFloat(1))) {
		t.Errorf("changing a clone changed the original: %s", vm.AsString(nil, l))
	}
}

// TestDictMethods tests the methods of Dictionary.
func TestDictMethods(t *testing.T) {
	vm := testutils.VM()
	const d = `{kind: dict, keys: ["a", "b"], values: [1, 2]}`
	cases := map[string]map[string]testutils.SourceTestCase{
		"literal": {
			"size":     {Source: `{kind: call, target: ` + d + `, name: size}`, Pass: testutils.PassEqual(vm.NewFloat(2))},
			"empty":    {Source: `{kind: call, target: {kind: dict}, name: size}`, Pass: testutils.PassEqual(vm.NewFloat(0))},
			"badKey":   {Source: `{kind: dict, keys: [1], values: [1]}`, Pass: testutils.PassFailure(urbi.BadArgumentType)},
			"asString": {Source: `{kind: call, target: ` + d + `, name: asString}`, Pass: testutils.PassEqual(vm.NewString(`["a" => 1, "b" => 2]`))},
			"emptyStr": {Source: `{kind: call, target: {kind: dict}, name: asString}`, Pass: testutils.PassEqual(vm.NewString(`[=>]`))},
		},
		"get": {
			"present": {Source: `{kind: call, target: ` + d + `, name: get, args: ["b"]}`, Pass: testutils.PassEqual(vm.NewFloat(2))},
			"absent":  {Source: `{kind: call, target: ` + d + `, name: get, args: ["c"]}`, Pass: testutils.PassFailure(urbi.LookupFailure)},
		},
		"has": {
			"present": {Source: `{kind: call, target: ` + d + `, name: has, args: ["a"]}`, Pass: testutils.PassIdentical(vm.True)},
			"absent":  {Source: `{kind: call, target: ` + d + `, name: has, args: ["c"]}`, Pass: testutils.PassIdentical(vm.False)},
		},
		"keys": {
			"sorted": {Source: `{kind: call, target: {kind: dict, keys: ["z", "m", "a"], values: [1, 2, 3]}, name: keys}`, Pass: testutils.PassEqual(vm.NewList(vm.NewString("a"), vm.NewString("m"), vm.NewString("z")))},
		},
		"set": {
			"new": {
				Source: `{kind: nary, stmts: [
					{kind: declare, ref: {name: d, index: 0}, value: ` + d + `},
					{kind: call, target: {kind: local, ref: {name: d, index: 0}}, name: set, args: ["c", 3]},
					{kind: call, target: {kind: local, ref: {name: d, index: 0}}, name: get, args: ["c"]}]}`,
				Pass: testutils.PassEqual(vm.NewFloat(3)),
			},
			"erase": {
				Source: `{kind: nary, stmts: [
					{kind: declare, ref: {name: d, index: 0}, value: ` + d + `},
					{kind: call, target: {kind: local, ref: {name: d, index: 0}}, name: erase, args: ["a"]},
					{kind: call, target: {kind: local, ref: {name: d, index: 0}}, name: keys}]}`,
				Pass: testutils.PassEqual(vm.NewList(vm.NewString("b"))),
			},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for subname, c := range s {
				t.Run(subname, c.TestFunc("TestDictMethods/"+name+"/"+subname))
			}
		})
	}
}
