package ast

import (
	"fmt"
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Decode reads a program tree encoded as a YAML document. Each node is a
// mapping with a kind key naming the node type and keys for its fields, e.g.
//
//	kind: call
//	name: "+"
//	target: 1
//	args: [2]
//
// Plain scalars stand for literals: numbers are Float, strings are String,
// booleans are Bool, and null is Nil. Every node mapping may carry line and
// col keys; name is used as the file of each location.
func Decode(r io.Reader, name string) (Node, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ast: reading %s: %w", name, err)
	}
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("ast: decoding %s: %w", name, err)
	}
	d := decoder{file: name}
	n, err := d.node(doc)
	if err != nil {
		return nil, fmt.Errorf("ast: decoding %s: %w", name, err)
	}
	return n, nil
}

type decoder struct {
	file string
}

// fields is one decoded YAML mapping.
type fields map[interface{}]interface{}

func (d *decoder) loc(m fields) Span {
	line, _ := m["line"].(int)
	col, _ := m["col"].(int)
	return Span{L: Loc{File: d.file, Line: line, Col: col}}
}

func (d *decoder) node(v interface{}) (Node, error) {
	switch v := v.(type) {
	case nil:
		return &Nil{}, nil
	case int:
		return &Float{Value: float64(v)}, nil
	case float64:
		return &Float{Value: v}, nil
	case string:
		return &String{Value: v}, nil
	case bool:
		return &Bool{Value: v}, nil
	case map[interface{}]interface{}:
		return d.mapping(fields(v))
	default:
		return nil, fmt.Errorf("cannot decode %T as a node", v)
	}
}

func (d *decoder) mapping(m fields) (Node, error) {
	kind, ok := m["kind"].(string)
	if !ok {
		return nil, fmt.Errorf("node without kind: %v", map[interface{}]interface{}(m))
	}
	s := d.loc(m)
	var err error
	// opt decodes an optional child node, remembering the first error.
	opt := func(key string) Node {
		v, ok := m[key]
		if !ok || err != nil {
			return nil
		}
		var n Node
		n, err = d.node(v)
		return n
	}
	req := func(key string) Node {
		if _, ok := m[key]; !ok && err == nil {
			err = fmt.Errorf("%s node at line %d needs %s", kind, s.L.Line, key)
		}
		return opt(key)
	}
	list := func(key string) []Node {
		if err != nil {
			return nil
		}
		var ns []Node
		ns, err = d.nodes(m[key])
		return ns
	}
	var n Node
	switch kind {
	case "float":
		f, _ := number(m["value"])
		n = &Float{Span: s, Value: f}
	case "string":
		v, _ := m["value"].(string)
		n = &String{Span: s, Value: v}
	case "bool":
		v, _ := m["value"].(bool)
		n = &Bool{Span: s, Value: v}
	case "nil":
		n = &Nil{Span: s}
	case "void":
		n = &Void{Span: s}
	case "list":
		n = &List{Span: s, Elems: list("elems")}
	case "dict":
		keys, values := list("keys"), list("values")
		if err == nil && len(keys) != len(values) {
			err = fmt.Errorf("dict at line %d has %d keys but %d values", s.L.Line, len(keys), len(values))
		}
		n = &Dict{Span: s, Keys: keys, Values: values}
	case "nary", "scope":
		var stmts []Stmt
		if err == nil {
			stmts, err = d.stmts(m["stmts"])
		}
		n = &Nary{Span: s, Stmts: stmts}
	case "and":
		n = &And{Span: s, Children: list("children")}
	case "while":
		n = &While{Span: s, Cond: req("cond"), Body: req("body"), Flavor: flavor(m["flavor"])}
	case "loop":
		n = &While{Span: s, Body: req("body"), Flavor: flavor(m["flavor"])}
	case "foreach":
		n = &Foreach{Span: s, Ref: ref(m["ref"]), List: req("list"), Body: req("body"), Flavor: flavor(m["flavor"])}
	case "if":
		n = &If{Span: s, Cond: req("cond"), Then: req("then"), Else: opt("else")}
	case "break":
		n = &Break{Span: s}
	case "continue":
		n = &Continue{Span: s}
	case "return":
		n = &Return{Span: s, Value: opt("value")}
	case "function", "closure", "routine":
		n, err = d.routine(m, s, kind == "closure")
	case "call":
		var args []Node
		if _, ok := m["args"]; ok {
			args = list("args")
			if args == nil {
				args = []Node{}
			}
		}
		name, _ := m["name"].(string)
		n = &Call{Span: s, Target: opt("target"), Name: name, Args: args}
	case "invoke":
		args := list("args")
		if args == nil {
			args = []Node{}
		}
		n = &Invoke{Span: s, Callee: req("callee"), Args: args}
	case "this":
		n = &This{Span: s}
	case "callmsg":
		n = &CallMsg{Span: s}
	case "exception":
		n = &CurrentException{Span: s}
	case "local":
		n = &Local{Span: s, Ref: ref(m["ref"])}
	case "assign":
		n = &Assign{Span: s, Ref: ref(m["ref"]), Value: req("value")}
	case "declare":
		n = &Declare{Span: s, Ref: ref(m["ref"]), Value: opt("value")}
	case "slotassign", "slotdeclare":
		name, _ := m["name"].(string)
		c, _ := m["const"].(bool)
		n = &SlotAssign{Span: s, Target: opt("target"), Name: name, Value: req("value"), Declare: kind == "slotdeclare", Const: c}
	case "property":
		slot, _ := m["slot"].(string)
		prop, _ := m["prop"].(string)
		n = &Property{Span: s, Target: opt("target"), Slot: slot, Prop: prop}
	case "propertyassign":
		slot, _ := m["slot"].(string)
		prop, _ := m["prop"].(string)
		n = &PropertyAssign{Span: s, Target: opt("target"), Slot: slot, Prop: prop, Value: req("value")}
	case "tagscope":
		n = &TagScope{Span: s, Tag: req("tag"), Body: req("body")}
	case "try":
		t := &Try{Span: s, Body: req("body"), Else: opt("else")}
		if err == nil {
			t.Handlers, err = d.handlers(m["handlers"])
		}
		n = t
	case "throw":
		n = &Throw{Span: s, Value: opt("value")}
	case "watch":
		n = &Watch{Span: s, Guard: req("guard")}
	case "at":
		n = &At{Span: s, Guard: req("guard"), Enter: req("enter"), Leave: opt("leave")}
	case "atevent":
		a := &AtEvent{Span: s, Event: req("event"), Guard: opt("guard"), Enter: req("enter"), Leave: opt("leave")}
		if err == nil {
			a.Patterns, err = d.patterns(m["patterns"])
		}
		n = a
	case "whenever":
		n = &Whenever{Span: s, Guard: req("guard"), Body: req("body"), Else: opt("else")}
	case "waituntil":
		n = &WaitUntil{Span: s, Guard: req("guard")}
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (d *decoder) nodes(v interface{}) ([]Node, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a sequence of nodes, not %T", v)
	}
	r := make([]Node, len(l))
	for i, x := range l {
		n, err := d.node(x)
		if err != nil {
			return nil, err
		}
		r[i] = n
	}
	return r, nil
}

func (d *decoder) stmts(v interface{}) ([]Stmt, error) {
	l, _ := v.([]interface{})
	r := make([]Stmt, 0, len(l))
	for _, x := range l {
		// A statement is either {expr: node, flavor: sep} or a bare node,
		// which is ;-separated.
		if m, ok := x.(map[interface{}]interface{}); ok {
			if e, ok := m["expr"]; ok {
				n, err := d.node(e)
				if err != nil {
					return nil, err
				}
				r = append(r, Stmt{Expr: n, Flavor: flavor(m["flavor"])})
				continue
			}
		}
		n, err := d.node(x)
		if err != nil {
			return nil, err
		}
		r = append(r, Stmt{Expr: n})
	}
	return r, nil
}

func (d *decoder) routine(m fields, s Span, closure bool) (Node, error) {
	name, _ := m["name"].(string)
	locals, _ := m["locals"].(int)
	strict := true
	if v, ok := m["strict"].(bool); ok {
		strict = v
	}
	uses, _ := m["usesCall"].(bool)
	r := &Routine{
		Span:     s,
		Name:     name,
		Locals:   locals,
		Closure:  closure,
		Strict:   strict,
		UsesCall: uses,
	}
	body, ok := m["body"]
	if !ok {
		return nil, fmt.Errorf("routine at line %d has no body", s.L.Line)
	}
	var err error
	if r.Body, err = d.node(body); err != nil {
		return nil, err
	}
	caps, _ := m["captures"].([]interface{})
	for _, c := range caps {
		r.Captures = append(r.Captures, ref(c))
	}
	formals, _ := m["formals"].([]interface{})
	for i, f := range formals {
		fm, ok := f.(map[interface{}]interface{})
		if !ok {
			// A bare name is a formal bound to the local of the same
			// position.
			n, _ := f.(string)
			r.Formals = append(r.Formals, Formal{Name: n, Ref: VarRef{Name: n, Index: i}})
			continue
		}
		fn, _ := fm["name"].(string)
		rest, _ := fm["rest"].(bool)
		formal := Formal{Name: fn, Ref: VarRef{Name: fn, Index: i}, Rest: rest}
		if rv, ok := fm["ref"]; ok {
			formal.Ref = ref(rv)
		}
		if dv, ok := fm["default"]; ok {
			if formal.Default, err = d.node(dv); err != nil {
				return nil, err
			}
		}
		if tv, ok := fm["type"]; ok {
			if formal.Type, err = d.node(tv); err != nil {
				return nil, err
			}
		}
		r.Formals = append(r.Formals, formal)
	}
	if r.Locals < len(r.Formals) {
		r.Locals = len(r.Formals)
	}
	return r, nil
}

func (d *decoder) handlers(v interface{}) ([]Handler, error) {
	l, _ := v.([]interface{})
	r := make([]Handler, 0, len(l))
	for _, x := range l {
		m, ok := x.(map[interface{}]interface{})
		if !ok {
			return nil, fmt.Errorf("handler must be a mapping, not %T", x)
		}
		h := Handler{Pattern: PatternAny{}}
		var err error
		if p, ok := m["pattern"]; ok {
			if h.Pattern, err = d.pattern(p); err != nil {
				return nil, err
			}
		}
		if g, ok := m["guard"]; ok {
			if h.Guard, err = d.node(g); err != nil {
				return nil, err
			}
		}
		if h.Body, err = d.node(m["body"]); err != nil {
			return nil, err
		}
		r = append(r, h)
	}
	return r, nil
}

func (d *decoder) patterns(v interface{}) ([]Pattern, error) {
	l, _ := v.([]interface{})
	r := make([]Pattern, 0, len(l))
	for _, x := range l {
		p, err := d.pattern(x)
		if err != nil {
			return nil, err
		}
		r = append(r, p)
	}
	return r, nil
}

func (d *decoder) pattern(v interface{}) (Pattern, error) {
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		// Scalars match by value.
		n, err := d.node(v)
		if err != nil {
			return nil, err
		}
		return PatternValue{Value: n}, nil
	}
	switch m["kind"] {
	case "any":
		return PatternAny{}, nil
	case "bind":
		return PatternBind{Ref: ref(m["ref"])}, nil
	case "list":
		if _, ok := m["patterns"]; ok {
			ps, err := d.patterns(m["patterns"])
			if err != nil {
				return nil, err
			}
			return PatternList{Elems: ps}, nil
		}
	}
	n, err := d.node(v)
	if err != nil {
		return nil, err
	}
	return PatternValue{Value: n}, nil
}

func number(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func flavor(v interface{}) Flavor {
	switch v {
	case ",", "comma":
		return Comma
	case "|", "pipe":
		return Pipe
	}
	return Semicolon
}

func ref(v interface{}) VarRef {
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		return VarRef{}
	}
	name, _ := m["name"].(string)
	index, _ := m["index"].(int)
	captured, _ := m["captured"].(bool)
	return VarRef{Name: name, Index: index, Captured: captured}
}
