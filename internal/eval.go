package internal

import (
	"context"
	"fmt"

	"github.com/zephyrtronium/urbi/ast"
)

// Eval evaluates a node in the job. It may suspend the job.
func (j *Job) Eval(n ast.Node) (*Object, Stop) {
	vm := j.vm
	if vm.Tracing() {
		vm.trace(j, n)
	}
	switch n := n.(type) {
	case *ast.Float:
		return vm.NewFloat(n.Value), NoStop
	case *ast.String:
		return vm.NewString(n.Value), NoStop
	case *ast.Bool:
		return vm.Bool(n.Value), NoStop
	case *ast.Nil:
		return vm.Nil, NoStop
	case *ast.Void:
		return vm.Void, NoStop
	case *ast.List:
		return j.evalList(n)
	case *ast.Dict:
		return j.evalDict(n)
	case *ast.Nary:
		return j.evalNary(n)
	case *ast.And:
		return j.evalAnd(n)
	case *ast.While:
		return j.evalWhile(n)
	case *ast.Foreach:
		return j.evalForeach(n)
	case *ast.If:
		return j.evalIf(n)
	case *ast.Break:
		return vm.Void, BreakStop
	case *ast.Continue:
		return vm.Void, ContinueStop
	case *ast.Return:
		if n.Value == nil {
			return vm.Void, ReturnStop
		}
		r, stop := j.Eval(n.Value)
		if stop != NoStop {
			return r, stop
		}
		return r, ReturnStop
	case *ast.Routine:
		return j.evalRoutine(n), NoStop
	case *ast.Call:
		return j.evalCall(n)
	case *ast.Invoke:
		return j.evalInvoke(n)
	case *ast.This:
		return j.frame().Self, NoStop
	case *ast.CallMsg:
		if c := j.frame().Call; c != nil {
			return c, NoStop
		}
		return j.Raisef(LookupFailure, "call message is not available here")
	case *ast.CurrentException:
		if len(j.handling) == 0 {
			return vm.Nil, NoStop
		}
		return j.handling[len(j.handling)-1].Value, NoStop
	case *ast.Local:
		return j.ReadSlot(j.frame().cell(vm, n.Ref)), NoStop
	case *ast.Assign:
		v, stop := j.evalValue(n.Value)
		if stop != NoStop {
			return v, stop
		}
		j.WriteSlot(j.frame().cell(vm, n.Ref), v)
		return v, NoStop
	case *ast.Declare:
		v := vm.Void
		if n.Value != nil {
			var stop Stop
			v, stop = j.Eval(n.Value)
			if stop != NoStop {
				return v, stop
			}
		}
		j.frame().declare(vm, n.Ref, v)
		return v, NoStop
	case *ast.SlotAssign:
		return j.evalSlotAssign(n)
	case *ast.Property:
		return j.evalProperty(n)
	case *ast.PropertyAssign:
		return j.evalPropertyAssign(n)
	case *ast.TagScope:
		return j.evalTagScope(n)
	case *ast.Try:
		return j.evalTry(n)
	case *ast.Throw:
		return j.evalThrow(n)
	case *ast.Watch:
		return j.evalWatch(n)
	case *ast.At:
		return j.evalAt(n)
	case *ast.AtEvent:
		return j.evalAtEvent(n)
	case *ast.Whenever:
		return j.evalWhenever(n)
	case *ast.WaitUntil:
		return j.evalWaitUntil(n)
	case nil:
		return vm.Void, NoStop
	default:
		panic(fmt.Sprintf("urbi: unknown node type %T", n))
	}
}

// evalValue evaluates an expression that must not be void.
func (j *Job) evalValue(n ast.Node) (*Object, Stop) {
	v, stop := j.Eval(n)
	if stop != NoStop {
		return v, stop
	}
	if v == j.vm.Void {
		return j.Raisef(UnexpectedVoid, "unexpected void")
	}
	return v, NoStop
}

func (j *Job) evalList(n *ast.List) (*Object, Stop) {
	l := make([]*Object, len(n.Elems))
	for i, e := range n.Elems {
		v, stop := j.evalValue(e)
		if stop != NoStop {
			return v, stop
		}
		l[i] = v
	}
	return j.vm.NewList(l...), NoStop
}

func (j *Job) evalDict(n *ast.Dict) (*Object, Stop) {
	d := make(map[string]*Object, len(n.Keys))
	for i, kn := range n.Keys {
		k, stop := j.evalValue(kn)
		if stop != NoStop {
			return k, stop
		}
		s, ok := k.Value.(string)
		if !ok {
			return j.Raisef(BadArgumentType, "dictionary key must be String, not %s", j.vm.TypeName(k))
		}
		v, stop := j.evalValue(n.Values[i])
		if stop != NoStop {
			return v, stop
		}
		d[s] = v
	}
	return j.vm.NewDict(d), NoStop
}

// evalNary evaluates a sequence. Statements followed by a comma run in child
// jobs; the sequence waits for all of them before completing, and re-raises
// the first failure among them.
func (j *Job) evalNary(n *ast.Nary) (*Object, Stop) {
	var c *Collector
	result := j.vm.Void
	for i, st := range n.Stmts {
		if i > 0 && n.Stmts[i-1].Flavor == ast.Semicolon {
			if r, stop := j.Yield(); stop != NoStop {
				return j.abortScope(c, r, stop)
			}
		}
		if st.Flavor == ast.Comma {
			if c == nil {
				c = j.NewCollector()
			}
			expr := st.Expr
			c.Spawn("", func(cj *Job) (*Object, Stop) {
				return cj.Eval(expr)
			})
			result = j.vm.Void
			continue
		}
		r, stop := j.Eval(st.Expr)
		if stop != NoStop {
			return j.abortScope(c, r, stop)
		}
		result = r
	}
	if c != nil {
		if r, stop := c.Wait(); stop != NoStop {
			return j.abortScope(c, r, stop)
		}
	}
	return result, NoStop
}

// abortScope terminates and joins the children of a scope that is exiting
// abnormally with (r, stop). If the job is stopped by a tag while it waits,
// that stop replaces the original one.
func (j *Job) abortScope(c *Collector, r *Object, stop Stop) (*Object, Stop) {
	if c == nil || c.Len() == 0 {
		return r, stop
	}
	raised := j.raised
	ar, astop := c.abort()
	if astop == TagStop && stop != TagStop {
		return ar, astop
	}
	j.raised = raised
	return r, stop
}

// evalAnd runs the first child in the current job and each other child in
// its own job, then waits for all of them.
func (j *Job) evalAnd(n *ast.And) (*Object, Stop) {
	if len(n.Children) == 0 {
		return j.vm.Void, NoStop
	}
	c := j.NewCollector()
	for _, child := range n.Children[1:] {
		expr := child
		c.Spawn("", func(cj *Job) (*Object, Stop) {
			return cj.Eval(expr)
		})
	}
	if r, stop := j.Eval(n.Children[0]); stop != NoStop {
		return j.abortScope(c, r, stop)
	}
	if r, stop := c.Wait(); stop != NoStop {
		return j.abortScope(c, r, stop)
	}
	return j.vm.Void, NoStop
}

// loopYield yields between iterations of a loop unless its flavor is pipe.
func (j *Job) loopYield(flavor ast.Flavor) (*Object, Stop) {
	if flavor == ast.Pipe {
		return j.vm.Void, NoStop
	}
	return j.Yield()
}

func (j *Job) evalWhile(n *ast.While) (*Object, Stop) {
	var c *Collector
	for first := true; ; first = false {
		if !first {
			if r, stop := j.loopYield(n.Flavor); stop != NoStop {
				return j.abortScope(c, r, stop)
			}
		}
		if n.Cond != nil {
			cond, stop := j.Eval(n.Cond)
			if stop != NoStop {
				return j.abortScope(c, cond, stop)
			}
			if !j.vm.AsBool(cond) {
				break
			}
		}
		if n.Flavor == ast.Comma {
			if c == nil {
				c = j.NewCollector()
			}
			body := n.Body
			c.Spawn("", func(cj *Job) (*Object, Stop) {
				return cj.Eval(body)
			})
			continue
		}
		r, stop := j.Eval(n.Body)
		switch stop {
		case NoStop, ContinueStop:
			continue
		case BreakStop:
		default:
			return j.abortScope(c, r, stop)
		}
		break
	}
	if c != nil {
		if r, stop := c.Wait(); stop != NoStop {
			return j.abortScope(c, r, stop)
		}
	}
	return j.vm.Void, NoStop
}

func (j *Job) evalForeach(n *ast.Foreach) (*Object, Stop) {
	lv, stop := j.evalValue(n.List)
	if stop != NoStop {
		return lv, stop
	}
	l, ok := lv.Value.(*List)
	if !ok {
		return j.Raisef(BadArgumentType, "for: expected List, not %s", j.vm.TypeName(lv))
	}
	elems := append([]*Object(nil), l.Value...)
	var c *Collector
	for i, v := range elems {
		if i > 0 {
			if r, stop := j.loopYield(n.Flavor); stop != NoStop {
				return j.abortScope(c, r, stop)
			}
		}
		if n.Flavor == ast.Comma {
			if c == nil {
				c = j.NewCollector()
			}
			v := v
			c.Spawn("", func(cj *Job) (*Object, Stop) {
				cj.frame().declare(cj.vm, n.Ref, v)
				return cj.Eval(n.Body)
			})
			continue
		}
		j.frame().declare(j.vm, n.Ref, v)
		r, stop := j.Eval(n.Body)
		switch stop {
		case NoStop, ContinueStop:
			continue
		case BreakStop:
		default:
			return j.abortScope(c, r, stop)
		}
		break
	}
	if c != nil {
		if r, stop := c.Wait(); stop != NoStop {
			return j.abortScope(c, r, stop)
		}
	}
	return j.vm.Void, NoStop
}

func (j *Job) evalIf(n *ast.If) (*Object, Stop) {
	cond, stop := j.Eval(n.Cond)
	if stop != NoStop {
		return cond, stop
	}
	if j.vm.AsBool(cond) {
		return j.Eval(n.Then)
	}
	if n.Else == nil {
		return j.vm.Void, NoStop
	}
	return j.Eval(n.Else)
}

// evalRoutine creates code from a routine literal, capturing the variable
// cells it names from the current frame.
func (j *Job) evalRoutine(n *ast.Routine) *Object {
	f := j.frame()
	c := &Code{Routine: n}
	if len(n.Captures) > 0 {
		c.Captured = make([]*Slot, len(n.Captures))
		for i, ref := range n.Captures {
			c.Captured[i] = f.cell(j.vm, ref)
		}
	}
	if n.Closure {
		c.Self, c.Call = f.Self, f.Call
	}
	return j.vm.NewCode(c)
}

// slotTarget evaluates the target of a slot operation, defaulting to this.
func (j *Job) slotTarget(n ast.Node, name string) (*Object, Stop) {
	if n == nil {
		return j.frame().Self, NoStop
	}
	t, stop := j.Eval(n)
	if stop != NoStop {
		return t, stop
	}
	if t == j.vm.Void {
		return j.Raisef(UnexpectedVoid, "%s: target is void", name)
	}
	return t, NoStop
}

func (j *Job) evalSlotAssign(n *ast.SlotAssign) (*Object, Stop) {
	target, stop := j.slotTarget(n.Target, n.Name)
	if stop != NoStop {
		return target, stop
	}
	v, stop := j.evalValue(n.Value)
	if stop != NoStop {
		return v, stop
	}
	if n.Declare {
		return j.SetSlot(target, n.Name, v, n.Const)
	}
	return j.UpdateSlot(target, n.Name, v)
}

// propertySlot finds the slot a property node refers to.
func (j *Job) propertySlot(targetNode ast.Node, name string) (*Slot, *Object, Stop) {
	target, stop := j.slotTarget(targetNode, name)
	if stop != NoStop {
		return nil, target, stop
	}
	s, proto := j.vm.findSlot(target, name)
	if proto == nil {
		r, stop := j.Raisef(LookupFailure, "lookup failed: %s", name)
		return nil, r, stop
	}
	return s, nil, NoStop
}

// evalProperty reads a slot property. The changed property is the slot's
// change event and constant reports whether the slot is constant; others are
// user-defined.
func (j *Job) evalProperty(n *ast.Property) (*Object, Stop) {
	s, r, stop := j.propertySlot(n.Target, n.Slot)
	if stop != NoStop {
		return r, stop
	}
	switch n.Prop {
	case "changed":
		return s.Changed(j.vm).Object(), NoStop
	case "constant":
		return j.vm.Bool(s.Const), NoStop
	}
	if v, ok := s.Prop(n.Prop); ok {
		return v, NoStop
	}
	return j.Raisef(LookupFailure, "%s has no property %s", n.Slot, n.Prop)
}

func (j *Job) evalPropertyAssign(n *ast.PropertyAssign) (*Object, Stop) {
	s, r, stop := j.propertySlot(n.Target, n.Slot)
	if stop != NoStop {
		return r, stop
	}
	v, stop := j.evalValue(n.Value)
	if stop != NoStop {
		return v, stop
	}
	switch n.Prop {
	case "changed":
		return j.Raisef(ConstViolation, "the changed property is read-only")
	case "constant":
		s.Const = j.vm.AsBool(v)
	default:
		s.SetProp(n.Prop, v)
	}
	return v, NoStop
}

// DoNode evaluates a node in a new top-level job targeting the Lobby and runs
// the scheduler until that job finishes. If it raised an exception, the
// result is the exception's value and the Stop is ExceptionStop. If the job
// cannot finish because every job is waiting, the result is void.
func (vm *VM) DoNode(n ast.Node) (*Object, Stop) {
	return vm.DoNodeContext(context.Background(), n)
}

// DoNodeContext is DoNode with a context that bounds the scheduler run.
func (vm *VM) DoNodeContext(ctx context.Context, n ast.Node) (*Object, Stop) {
	j := vm.Sched.Spawn("", nil, func(j *Job) (*Object, Stop) {
		return j.Eval(n)
	})
	return vm.runJob(ctx, j)
}

// runJob runs the scheduler until j finishes.
func (vm *VM) runJob(ctx context.Context, j *Job) (*Object, Stop) {
	if err := vm.Sched.Run(ctx, j.Done); err != nil && !j.Done() {
		vm.Logger.Warn("scheduler stopped", "job", j.name, "err", err)
	}
	if !j.Done() {
		return vm.Void, NoStop
	}
	switch j.stop {
	case ExceptionStop:
		return j.err.Value, ExceptionStop
	case TagStop, ReturnStop, BreakStop, ContinueStop:
		return j.result, NoStop
	}
	return j.result, j.stop
}
