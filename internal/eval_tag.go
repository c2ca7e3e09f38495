package internal

import (
	"github.com/zephyrtronium/urbi/ast"
)

// evalTagScope runs a body within a tag. The tag and its ancestors are pushed
// on the job's tag stack, root first, for the duration of the body.
//
// If the tag or an ancestor is blocked, the scope evaluates to the block's
// payload without running the body. If one is frozen, the job yields before
// entering, which parks it until the tag is unfrozen. Enter events are
// emitted outermost first; leave events are emitted innermost first however
// the body exits. A tag stop that targets one of the positions this scope
// pushed ends here, and the scope evaluates to the stop's payload.
func (j *Job) evalTagScope(n *ast.TagScope) (*Object, Stop) {
	v, stop := j.evalValue(n.Tag)
	if stop != NoStop {
		return v, stop
	}
	t, ok := v.Value.(*Tag)
	if !ok || t == nil {
		return j.Raisef(BadArgumentType, "tag scope: expected Tag, not %s", j.vm.TypeName(v))
	}
	chain := t.Chain()
	for _, a := range chain {
		if b, p := a.Blocked(); b {
			return p, NoStop
		}
	}
	base := len(j.tags)
	j.tags = append(j.tags, chain...)
	// The tags are on the stack before the yield so that a frozen one parks
	// the job when it resumes.
	r, stop := j.vm.Void, NoStop
	for _, a := range chain {
		if a.Frozen() {
			r, stop = j.Yield()
			break
		}
	}
	if stop == NoStop {
		r, stop = j.enterScope(chain)
		if stop == NoStop {
			r, stop = j.Eval(n.Body)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			chain[i].Leave.Emit(j, chain[i].Object())
		}
	}
	j.tags = j.tags[:base]
	if u := j.pending; u != nil && u.depth >= base {
		// The stop targeted a scope that has already ended.
		j.pending = nil
	}
	if stop == TagStop {
		if u := j.unwinding; u != nil && u.depth >= base && u.depth < base+len(chain) {
			j.unwinding = nil
			return u.payload, NoStop
		}
	}
	return r, stop
}

// enterScope emits the enter events of a tag chain, outermost first.
func (j *Job) enterScope(chain []*Tag) (*Object, Stop) {
	for _, a := range chain {
		a.Enter.Emit(j, a.Object())
	}
	return j.vm.Void, NoStop
}
