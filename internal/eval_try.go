package internal

import (
	"github.com/zephyrtronium/urbi/ast"
)

// evalTry runs a body and handles the exceptions it raises with the first
// handler whose pattern and guard match. Unmatched exceptions propagate.
func (j *Job) evalTry(n *ast.Try) (*Object, Stop) {
	r, stop := j.Eval(n.Body)
	switch stop {
	case NoStop:
		if n.Else != nil {
			return j.Eval(n.Else)
		}
		return r, NoStop
	case ExceptionStop:
	default:
		return r, stop
	}
	e := j.raised
	for _, h := range n.Handlers {
		ok, hr, hstop := j.matchHandler(h, e)
		if hstop != NoStop {
			return hr, hstop
		}
		if !ok {
			continue
		}
		j.handling = append(j.handling, e)
		r, stop = j.Eval(h.Body)
		j.handling = j.handling[:len(j.handling)-1]
		return r, stop
	}
	j.raised = e
	return r, ExceptionStop
}

// matchHandler matches an exception against a catch clause.
func (j *Job) matchHandler(h ast.Handler, e *Exception) (bool, *Object, Stop) {
	if h.Pattern != nil {
		ok, r, stop := j.match(h.Pattern, e.Value)
		if !ok || stop != NoStop {
			return false, r, stop
		}
	}
	if h.Guard == nil {
		return true, nil, NoStop
	}
	j.handling = append(j.handling, e)
	g, stop := j.Eval(h.Guard)
	j.handling = j.handling[:len(j.handling)-1]
	if stop != NoStop {
		return false, g, stop
	}
	return j.vm.AsBool(g), nil, NoStop
}

// match matches a value against a pattern, declaring bound variables in the
// current frame. A value pattern matches equal values and, for exceptions,
// any exception inheriting from the pattern's value.
func (j *Job) match(p ast.Pattern, v *Object) (bool, *Object, Stop) {
	switch p := p.(type) {
	case ast.PatternAny:
		return true, nil, NoStop
	case ast.PatternBind:
		j.frame().declare(j.vm, p.Ref, v)
		return true, nil, NoStop
	case ast.PatternValue:
		x, stop := j.Eval(p.Value)
		if stop != NoStop {
			return false, x, stop
		}
		if j.vm.Equal(x, v) {
			return true, nil, NoStop
		}
		return v.Kind() == ExceptionKind && v.IsA(x), nil, NoStop
	case ast.PatternList:
		l, ok := v.Value.(*List)
		if !ok || len(l.Value) != len(p.Elems) {
			return false, nil, NoStop
		}
		for i, q := range p.Elems {
			ok, r, stop := j.match(q, l.Value[i])
			if !ok || stop != NoStop {
				return false, r, stop
			}
		}
		return true, nil, NoStop
	}
	return false, nil, NoStop
}

// evalThrow raises a value, or rethrows the exception being handled.
func (j *Job) evalThrow(n *ast.Throw) (*Object, Stop) {
	if n.Value == nil {
		if len(j.handling) == 0 {
			return j.Raisef(LanguageException, "throw: no exception to rethrow")
		}
		return j.Raise(j.handling[len(j.handling)-1])
	}
	v, stop := j.evalValue(n.Value)
	if stop != NoStop {
		return v, stop
	}
	j.pos = n.Pos()
	return j.Raise(j.exceptionFor(v))
}
