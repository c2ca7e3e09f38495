package internal

import (
	"github.com/zephyrtronium/urbi/ast"
)

// Apply calls callee with the given target and already evaluated arguments.
// name is the name the callee is called by, used for diagnostics and call
// messages; loc is the location of the call. If callee is code whose routine
// uses its call message and callMsg is nil, one is built from args.
//
// Apply is the entry point for native code that needs to call back into the
// language; it must be called from the job holding the baton, which native
// code can find with Scheduler.Current. A void argument raises
// UnexpectedVoid before the callee runs.
func (j *Job) Apply(target, callee *Object, name string, args []*Object, callMsg *Object, loc ast.Loc) (*Object, Stop) {
	for i, a := range args {
		if a == j.vm.Void {
			return j.Raisef(UnexpectedVoid, "%s: argument %d is void", name, i+1)
		}
	}
	switch c := callee.Value.(type) {
	case *Primitive:
		vec := make([]*Object, 0, len(args)+1)
		vec = append(vec, target)
		if c.Lazy {
			for _, a := range args {
				vec = append(vec, LazyValue(a).Object(j.vm))
			}
		} else {
			vec = append(vec, args...)
		}
		return j.callPrimitive(c, vec, name, loc)
	case *Code:
		r := c.Routine
		if r.UsesCall && callMsg == nil {
			lazies := make([]*Lazy, len(args))
			for i, a := range args {
				lazies[i] = LazyValue(a)
			}
			callMsg = j.newCallMessage(target, callee, name, lazies)
		}
		if !r.Strict {
			wrapped := make([]*Object, len(args))
			for i, a := range args {
				wrapped[i] = LazyValue(a).Object(j.vm)
			}
			args = wrapped
		}
		return j.applyCode(c, target, name, args, callMsg, loc)
	default:
		if len(args) > 0 {
			return j.Raisef(ArityMismatch, "%s: %s is not callable", name, j.vm.TypeName(callee))
		}
		return j.activate(callee, name, loc)
	}
}

// CallApply calls callee from the current job. It is a convenience for native
// code; it panics if no job holds the baton.
func (vm *VM) CallApply(target, callee *Object, name string, args ...*Object) (*Object, Stop) {
	j := vm.Sched.Current()
	if j == nil {
		panic("urbi: CallApply called outside any job")
	}
	return j.Apply(target, callee, name, args, nil, j.loc())
}

// CallMethod looks up a method on target and calls it with args.
func (j *Job) CallMethod(target *Object, name string, args ...*Object) (*Object, Stop) {
	m, proto := j.Lookup(target, name)
	if proto == nil {
		return j.Raisef(LookupFailure, "lookup failed: %s", name)
	}
	return j.Apply(target, m, name, args, nil, j.loc())
}

// activate produces the result of calling a plain value with no arguments:
// the value itself, unless it has a callable activate slot.
func (j *Job) activate(v *Object, name string, loc ast.Loc) (*Object, Stop) {
	if v == nil {
		return j.vm.Nil, NoStop
	}
	if act, proto := j.vm.GetSlot(v, "activate"); proto != nil && act.Callable() {
		return j.Apply(v, act, name, nil, nil, loc)
	}
	return v, NoStop
}

// callPrimitive runs a primitive with its raw argument vector.
func (j *Job) callPrimitive(p *Primitive, args []*Object, name string, loc ast.Loc) (*Object, Stop) {
	j.stack = append(j.stack, StackFrame{Name: name, Loc: loc})
	defer func() { j.stack = j.stack[:len(j.stack)-1] }()
	return p.Fn(j, args)
}

// arity returns the minimum and maximum number of arguments a routine
// accepts. max is negative if it has a rest formal.
func arity(r *ast.Routine) (min, max int) {
	rest := false
	for _, f := range r.Formals {
		if f.Rest {
			rest = true
			continue
		}
		max++
	}
	min = max
	for i := len(r.Formals) - 1; i >= 0; i-- {
		f := r.Formals[i]
		if f.Rest {
			continue
		}
		if f.Default == nil {
			break
		}
		min--
	}
	if rest {
		max = -1
	}
	return min, max
}

// applyCode activates code. self is the target unless the code is a closure,
// in which case the closure's captured target and call message are used.
func (j *Job) applyCode(c *Code, target *Object, name string, args []*Object, callMsg *Object, loc ast.Loc) (*Object, Stop) {
	vm := j.vm
	r := c.Routine
	if len(j.frames) > vm.Config.MaxCallDepth {
		return j.Raisef(StackOverflow, "%s: maximum call depth %d exceeded", name, vm.Config.MaxCallDepth)
	}
	self, call := target, callMsg
	if r.Closure {
		self, call = c.Self, c.Call
	}
	f := &Frame{
		Locals:   make([]*Slot, r.Locals),
		Captured: c.Captured,
		Self:     self,
		Call:     call,
		Code:     c,
	}
	for i := range f.Locals {
		f.Locals[i] = NewSlot(vm.Void)
	}
	j.pushFrame(f, StackFrame{Name: name, Loc: loc})
	defer j.popFrame()
	if r.Strict {
		if res, stop := j.bindStrict(r, f, name, args); stop != NoStop {
			return res, stop
		}
	} else {
		j.bindLazy(r, f, args)
	}
	res, stop := j.Eval(r.Body)
	switch stop {
	case ReturnStop:
		return res, NoStop
	case BreakStop, ContinueStop:
		return j.Raisef(LanguageException, "%s: %s outside of a loop", name, stop)
	}
	return res, stop
}

// bindStrict binds evaluated arguments to the routine's formals, checking
// arity and types and evaluating defaults in the new frame.
func (j *Job) bindStrict(r *ast.Routine, f *Frame, name string, args []*Object) (*Object, Stop) {
	vm := j.vm
	min, max := arity(r)
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case max < 0:
			return j.Raisef(ArityMismatch, "%s: expected at least %d arguments, got %d", name, min, len(args))
		case min == max:
			return j.Raisef(ArityMismatch, "%s: expected %d arguments, got %d", name, min, len(args))
		default:
			return j.Raisef(ArityMismatch, "%s: expected between %d and %d arguments, got %d", name, min, max, len(args))
		}
	}
	// Arguments past the non-rest formals go to the rest formal.
	rest := len(args) - max
	if max < 0 {
		rest = len(args) - (len(r.Formals) - 1)
	}
	ai := 0
	for _, formal := range r.Formals {
		var v *Object
		switch {
		case formal.Rest:
			n := rest
			if n < 0 {
				n = 0
			}
			v = vm.NewList(append([]*Object(nil), args[ai:ai+n]...)...)
			ai += n
			f.cell(vm, formal.Ref).value = v
			continue
		case ai < len(args):
			v = args[ai]
			ai++
		case formal.Default != nil:
			var stop Stop
			v, stop = j.Eval(formal.Default)
			if stop != NoStop {
				return v, stop
			}
		default:
			v = vm.Void
		}
		if formal.Type != nil {
			typ, stop := j.Eval(formal.Type)
			if stop != NoStop {
				return typ, stop
			}
			if !v.IsA(typ) {
				return j.Raisef(BadArgumentType, "%s: argument %s must be %s, not %s", name, formal.Name, vm.TypeName(typ), vm.TypeName(v))
			}
		}
		f.cell(vm, formal.Ref).value = v
	}
	return vm.Void, NoStop
}

// bindLazy binds Lazy objects to the formals of a lazy routine. Missing
// arguments are void; extra arguments are reachable only through the call
// message.
func (j *Job) bindLazy(r *ast.Routine, f *Frame, args []*Object) {
	ai := 0
	for _, formal := range r.Formals {
		if formal.Rest {
			f.cell(j.vm, formal.Ref).value = j.vm.NewList(append([]*Object(nil), args[ai:]...)...)
			ai = len(args)
			continue
		}
		if ai < len(args) {
			f.cell(j.vm, formal.Ref).value = args[ai]
			ai++
		}
	}
}

// evalArgs evaluates argument expressions left to right. A void argument
// raises UnexpectedVoid.
func (j *Job) evalArgs(name string, nodes []ast.Node) ([]*Object, *Object, Stop) {
	args := make([]*Object, len(nodes))
	for i, n := range nodes {
		v, stop := j.Eval(n)
		if stop != NoStop {
			return nil, v, stop
		}
		if v == j.vm.Void {
			r, stop := j.Raisef(UnexpectedVoid, "%s: argument %d is void", name, i+1)
			return nil, r, stop
		}
		args[i] = v
	}
	return args, nil, NoStop
}

// callNode calls callee, found by name on target, with unevaluated argument
// expressions. Arguments are evaluated or wrapped as lazies according to
// the callee.
func (j *Job) callNode(target, callee *Object, name string, argNodes []ast.Node, loc ast.Loc) (*Object, Stop) {
	switch c := callee.Value.(type) {
	case *Primitive:
		vec := make([]*Object, 1, len(argNodes)+1)
		vec[0] = target
		if c.Lazy {
			for _, n := range argNodes {
				vec = append(vec, j.NewLazy(n).Object(j.vm))
			}
		} else {
			args, r, stop := j.evalArgs(name, argNodes)
			if stop != NoStop {
				return r, stop
			}
			vec = append(vec, args...)
		}
		return j.callPrimitive(c, vec, name, loc)
	case *Code:
		r := c.Routine
		var lazies []*Lazy
		if r.UsesCall || !r.Strict {
			lazies = make([]*Lazy, len(argNodes))
			for i, n := range argNodes {
				lazies[i] = j.NewLazy(n)
			}
		}
		var callMsg *Object
		if r.UsesCall {
			callMsg = j.newCallMessage(target, callee, name, lazies)
		}
		var args []*Object
		if r.Strict {
			var res *Object
			var stop Stop
			args, res, stop = j.evalArgs(name, argNodes)
			if stop != NoStop {
				return res, stop
			}
		} else {
			args = make([]*Object, len(lazies))
			for i, l := range lazies {
				args[i] = l.Object(j.vm)
			}
		}
		return j.applyCode(c, target, name, args, callMsg, loc)
	default:
		if len(argNodes) > 0 {
			return j.Raisef(ArityMismatch, "%s: %s is not callable", name, j.vm.TypeName(callee))
		}
		return j.activate(callee, name, loc)
	}
}

// evalCall evaluates a message send.
func (j *Job) evalCall(n *ast.Call) (*Object, Stop) {
	target := j.frame().Self
	if n.Target != nil {
		var stop Stop
		target, stop = j.Eval(n.Target)
		if stop != NoStop {
			return target, stop
		}
		if target == j.vm.Void {
			return j.Raisef(UnexpectedVoid, "%s: target is void", n.Name)
		}
	}
	callee, proto := j.Lookup(target, n.Name)
	if proto == nil {
		return j.Raisef(LookupFailure, "lookup failed: %s", n.Name)
	}
	j.pos = n.Pos()
	return j.callNode(target, callee, n.Name, n.Args, n.Pos())
}

// evalInvoke applies a computed callable with the current target.
func (j *Job) evalInvoke(n *ast.Invoke) (*Object, Stop) {
	callee, stop := j.Eval(n.Callee)
	if stop != NoStop {
		return callee, stop
	}
	if callee == j.vm.Void {
		return j.Raisef(UnexpectedVoid, "cannot call void")
	}
	if !callee.Callable() {
		if len(n.Args) > 0 {
			return j.Raisef(ArityMismatch, "%s is not callable", j.vm.TypeName(callee))
		}
		return callee, NoStop
	}
	j.pos = n.Pos()
	return j.callNode(j.frame().Self, callee, calleeName(callee), n.Args, n.Pos())
}

// AssertArgs checks that a primitive received between min and max
// arguments, not counting the target. A negative max means no maximum.
func (j *Job) AssertArgs(name string, args []*Object, min, max int) (*Object, Stop) {
	n := len(args) - 1
	if n < min || (max >= 0 && n > max) {
		if min == max {
			return j.Raisef(ArityMismatch, "%s: expected %d arguments, got %d", name, min, n)
		}
		return j.Raisef(ArityMismatch, "%s: expected %d to %d arguments, got %d", name, min, max, n)
	}
	return j.vm.Void, NoStop
}

// argAt returns args[i], raising ArityMismatch if it is missing.
func (j *Job) argAt(args []*Object, i int) (*Object, *Object, Stop) {
	if i >= len(args) {
		r, stop := j.Raisef(ArityMismatch, "missing argument %d", i)
		return nil, r, stop
	}
	return args[i], nil, NoStop
}

// StringArg returns args[i] as a Go string.
func (j *Job) StringArg(args []*Object, i int) (string, *Object, Stop) {
	v, r, stop := j.argAt(args, i)
	if stop != NoStop {
		return "", r, stop
	}
	s, ok := v.Value.(string)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "argument %d must be String, not %s", i, j.vm.TypeName(v))
		return "", r, stop
	}
	return s, nil, NoStop
}

// FloatArg returns args[i] as a Go float64.
func (j *Job) FloatArg(args []*Object, i int) (float64, *Object, Stop) {
	v, r, stop := j.argAt(args, i)
	if stop != NoStop {
		return 0, r, stop
	}
	f, ok := v.Value.(float64)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "argument %d must be Float, not %s", i, j.vm.TypeName(v))
		return 0, r, stop
	}
	return f, nil, NoStop
}

// ListArg returns the elements of args[i], which must be a list. The slice
// is the list's own storage.
func (j *Job) ListArg(args []*Object, i int) ([]*Object, *Object, Stop) {
	v, r, stop := j.argAt(args, i)
	if stop != NoStop {
		return nil, r, stop
	}
	l, ok := v.Value.(*List)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "argument %d must be List, not %s", i, j.vm.TypeName(v))
		return nil, r, stop
	}
	return l.Value, nil, NoStop
}
