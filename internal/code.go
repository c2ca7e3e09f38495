package internal

import (
	"github.com/zephyrtronium/urbi/ast"
)

// PrimitiveFn is the signature of native functions. args[0] is the target;
// the rest are the call's arguments, already evaluated unless the primitive
// is lazy, in which case they are Lazy objects.
type PrimitiveFn func(j *Job, args []*Object) (*Object, Stop)

// A Primitive is a callable implemented in Go.
type Primitive struct {
	// Name is used for diagnostics.
	Name string
	Fn   PrimitiveFn
	// Lazy primitives receive their arguments unevaluated.
	Lazy bool
}

// PrimitiveKind is the Kind for Primitive objects.
const PrimitiveKind = BasicKind("Primitive")

// NewPrimitive creates a primitive object.
func (vm *VM) NewPrimitive(name string, fn PrimitiveFn) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoPrimitive}, &Primitive{Name: name, Fn: fn}, PrimitiveKind)
}

// NewLazyPrimitive creates a primitive that receives its arguments as Lazy
// objects.
func (vm *VM) NewLazyPrimitive(name string, fn PrimitiveFn) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoPrimitive}, &Primitive{Name: name, Fn: fn, Lazy: true}, PrimitiveKind)
}

// Code is a routine together with the variable cells it captured when it was
// created. Closures also capture the target and call message of their
// definition.
type Code struct {
	Routine  *ast.Routine
	Captured []*Slot
	Self     *Object
	Call     *Object
}

// CodeKind is the Kind for Code objects.
const CodeKind = BasicKind("Code")

// NewCode creates a code object.
func (vm *VM) NewCode(c *Code) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoCode}, c, CodeKind)
}

// Callable reports whether the object is a primitive or code.
func (o *Object) Callable() bool {
	switch o.Value.(type) {
	case *Primitive, *Code:
		return true
	}
	return false
}

// A Lazy is a deferred argument: an expression together with the frame it
// must be evaluated in.
type Lazy struct {
	// Expr is the argument expression. If it is nil, the lazy holds an
	// already known value.
	Expr  ast.Node
	frame *Frame
	value *Object
	done  bool
}

// LazyKind is the Kind for Lazy objects.
const LazyKind = BasicKind("Lazy")

// NewLazy creates a lazy object for an expression in the job's current frame.
func (j *Job) NewLazy(expr ast.Node) *Lazy {
	return &Lazy{Expr: expr, frame: j.frame()}
}

// LazyValue creates a lazy holding a known value.
func LazyValue(v *Object) *Lazy {
	return &Lazy{value: v, done: true}
}

// Object wraps the lazy in a language object.
func (l *Lazy) Object(vm *VM) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoLazy}, l, LazyKind)
}

// EvalLazy evaluates the lazy's expression again in its frame.
func (j *Job) EvalLazy(l *Lazy) (*Object, Stop) {
	if l.Expr == nil {
		return l.value, NoStop
	}
	j.frames = append(j.frames, l.frame)
	defer func() { j.frames = j.frames[:len(j.frames)-1] }()
	return j.Eval(l.Expr)
}

// Force returns the lazy's value, evaluating it the first time.
func (j *Job) Force(l *Lazy) (*Object, Stop) {
	if l.done {
		return l.value, NoStop
	}
	v, stop := j.EvalLazy(l)
	if stop == NoStop {
		l.value, l.done = v, true
	}
	return v, stop
}

// CallMessage is the reified context of one call.
type CallMessage struct {
	Sender *Object
	Target *Object
	Code   *Object
	Name   string
	Args   []*Lazy
}

// CallMessageKind is the Kind for CallMessage objects.
const CallMessageKind = BasicKind("CallMessage")

// newCallMessage builds the call message for a call from the job's current
// frame.
func (j *Job) newCallMessage(target, callee *Object, name string, args []*Lazy) *Object {
	m := &CallMessage{
		Sender: j.frame().Self,
		Target: target,
		Code:   callee,
		Name:   name,
		Args:   args,
	}
	return j.vm.ObjectWith(nil, []*Object{j.vm.protoCallMessage}, m, CallMessageKind)
}

func (vm *VM) initCode() {
	vm.SetSlots(vm.protoPrimitive, Slots{
		"apply": vm.NewPrimitive("apply", CodeApply),
		"call":  vm.NewPrimitive("call", CodeCall),
		"type":  vm.NewString("Primitive"),
	})
	vm.SetSlot(vm.Global, "Primitive", vm.protoPrimitive)

	vm.protoCode = vm.NewObject(Slots{
		"apply": vm.NewPrimitive("apply", CodeApply),
		"call":  vm.NewPrimitive("call", CodeCall),
		"type":  vm.NewString("Code"),
	})
	vm.SetSlot(vm.Global, "Code", vm.protoCode)

	vm.protoLazy = vm.NewObject(Slots{
		"eval":  vm.NewPrimitive("eval", LazyEval),
		"type":  vm.NewString("Lazy"),
		"value": vm.NewPrimitive("value", LazyValueMethod),
	})
	vm.SetSlot(vm.Global, "Lazy", vm.protoLazy)

	vm.protoCallMessage = vm.NewObject(Slots{
		"args":      vm.NewPrimitive("args", CallMessageArgs),
		"argsCount": vm.NewPrimitive("argsCount", CallMessageArgsCount),
		"code":      vm.NewPrimitive("code", CallMessageCode),
		"evalArgAt": vm.NewPrimitive("evalArgAt", CallMessageEvalArgAt),
		"message":   vm.NewPrimitive("message", CallMessageMessage),
		"sender":    vm.NewPrimitive("sender", CallMessageSender),
		"target":    vm.NewPrimitive("target", CallMessageTarget),
		"type":      vm.NewString("CallMessage"),
	})
	vm.SetSlot(vm.Global, "CallMessage", vm.protoCallMessage)
}

// CodeApply is a Code and Primitive method.
//
// apply calls the receiver with a list whose first element is the target and
// whose remaining elements are the arguments.
func CodeApply(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("apply", args, 1, 1); stop != NoStop {
		return r, stop
	}
	l, r, stop := j.ListArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	if len(l) == 0 {
		return j.Raisef(ArityMismatch, "apply: argument list must contain the target")
	}
	return j.Apply(l[0], args[0], calleeName(args[0]), l[1:], nil, j.loc())
}

// CodeCall is a Code and Primitive method.
//
// call calls the receiver with the caller's target and the given arguments.
func CodeCall(j *Job, args []*Object) (*Object, Stop) {
	return j.Apply(j.Self(), args[0], calleeName(args[0]), args[1:], nil, j.loc())
}

// calleeName is the name used in stack frames for calls of a value.
func calleeName(callee *Object) string {
	switch c := callee.Value.(type) {
	case *Primitive:
		return c.Name
	case *Code:
		if c.Routine.Name != "" {
			return c.Routine.Name
		}
	}
	return "<anonymous>"
}

// lazyArg returns the receiver as a lazy.
func (j *Job) lazyArg(args []*Object) (*Lazy, *Object, Stop) {
	l, ok := args[0].Value.(*Lazy)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "expected Lazy, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	return l, nil, NoStop
}

// LazyEval is a Lazy method.
//
// eval evaluates the argument expression again.
func LazyEval(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.lazyArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.EvalLazy(l)
}

// LazyValueMethod is a Lazy method.
//
// value evaluates the argument expression the first time and returns the same
// result afterward.
func LazyValueMethod(j *Job, args []*Object) (*Object, Stop) {
	l, r, stop := j.lazyArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.Force(l)
}

// callMessageArg returns the receiver as a call message.
func (j *Job) callMessageArg(args []*Object) (*CallMessage, *Object, Stop) {
	m, ok := args[0].Value.(*CallMessage)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "expected CallMessage, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	return m, nil, NoStop
}

// CallMessageArgs is a CallMessage method.
//
// args returns the call's arguments as a list of Lazy objects.
func CallMessageArgs(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	l := make([]*Object, len(m.Args))
	for i, a := range m.Args {
		l[i] = a.Object(j.vm)
	}
	return j.vm.NewList(l...), NoStop
}

// CallMessageArgsCount is a CallMessage method.
//
// argsCount returns the number of arguments.
func CallMessageArgsCount(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(float64(len(m.Args))), NoStop
}

// CallMessageEvalArgAt is a CallMessage method.
//
// evalArgAt evaluates the argument at the given index in the caller's scope.
func CallMessageEvalArgAt(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	f, r, stop := j.FloatArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	i := int(f)
	if i < 0 || i >= len(m.Args) {
		return j.Raisef(ArityMismatch, "evalArgAt: index %d out of range for %d arguments", i, len(m.Args))
	}
	return j.EvalLazy(m.Args[i])
}

// CallMessageSender is a CallMessage method.
func CallMessageSender(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	return m.Sender, NoStop
}

// CallMessageTarget is a CallMessage method.
func CallMessageTarget(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	return m.Target, NoStop
}

// CallMessageCode is a CallMessage method.
func CallMessageCode(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	return m.Code, NoStop
}

// CallMessageMessage is a CallMessage method.
//
// message returns the name the callee was called by.
func CallMessageMessage(j *Job, args []*Object) (*Object, Stop) {
	m, r, stop := j.callMessageArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(m.Name), NoStop
}
