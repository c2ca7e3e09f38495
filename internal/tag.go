package internal

import (
	"github.com/zephyrtronium/contains"
)

// A Tag is a named, hierarchical scope that can be entered by any number of
// jobs and then stopped, frozen, or blocked as a unit.
type Tag struct {
	vm *VM
	// Name is used for diagnostics.
	Name string
	// Parent is the enclosing tag, or nil for a root tag.
	Parent *Tag
	// Enter is emitted each time a job enters a scope of the tag; Leave is
	// emitted each time one exits.
	Enter, Leave *Event

	frozen  bool
	blocked bool
	payload *Object
	// parked holds jobs suspended because the tag is frozen.
	parked []*Job
	// hooks run when the tag is stopped.
	hooks []*stopHook
	uid   uintptr
	obj   *Object
}

type stopHook struct {
	f    func(j *Job)
	dead bool
}

// NewTag creates a tag. parent may be nil.
func (vm *VM) NewTag(name string, parent *Tag) *Tag {
	return &Tag{
		vm:     vm,
		Name:   name,
		Parent: parent,
		Enter:  vm.NewEvent(name + ".enter"),
		Leave:  vm.NewEvent(name + ".leave"),
		uid:    nextObject(),
	}
}

// Chain returns the tag and its ancestors, most distant first.
func (t *Tag) Chain() []*Tag {
	var r []*Tag
	seen := contains.Set{}
	for p := t; p != nil; p = p.Parent {
		if !seen.Add(p.uid) {
			break
		}
		r = append(r, p)
	}
	for i, k := 0, len(r)-1; i < k; i, k = i+1, k-1 {
		r[i], r[k] = r[k], r[i]
	}
	return r
}

// Frozen reports whether the tag itself is frozen.
func (t *Tag) Frozen() bool {
	return t.frozen
}

// Blocked reports whether the tag is blocked and, if so, its payload.
func (t *Tag) Blocked() (bool, *Object) {
	return t.blocked, t.payload
}

// OnStop registers f to run the next time the tag is stopped. The returned
// function cancels the registration.
func (t *Tag) OnStop(f func(j *Job)) (cancel func()) {
	h := &stopHook{f: f}
	t.hooks = append(t.hooks, h)
	return func() { h.dead = true }
}

// Stop unwinds every live job that has entered the tag to the scope where it
// entered, making payload the scope's result. If j, the calling job, is among
// them, Stop returns (payload, TagStop) for it to propagate. Otherwise, if any
// other job was interrupted, j yields so that the unwinds happen before it
// continues. j may be nil when a host stops a tag outside any job.
func (t *Tag) Stop(j *Job, payload *Object) (*Object, Stop) {
	vm := t.vm
	if payload == nil {
		payload = vm.Void
	}
	vm.Logger.Debug("tag stop", "tag", t.Name)
	hooks := t.hooks
	t.hooks = nil
	for _, h := range hooks {
		if !h.dead {
			h.f(j)
		}
	}
	self := false
	var others []*Job
	for _, o := range vm.Sched.Jobs() {
		d := o.tagIndex(t)
		if d < 0 {
			continue
		}
		o.interrupt(unwind{depth: d, payload: payload})
		if o == j {
			self = true
		} else {
			others = append(others, o)
		}
	}
	vm.Sched.pushFront(others...)
	if self {
		return j.checkInterrupt()
	}
	if j != nil && len(others) > 0 {
		return j.yieldAfter(len(others))
	}
	return vm.Void, NoStop
}

// Freeze suspends every job that has entered the tag at its next suspension
// point until the tag is unfrozen.
func (t *Tag) Freeze() {
	t.vm.Logger.Debug("tag freeze", "tag", t.Name)
	t.frozen = true
}

// Unfreeze resumes jobs parked on the tag.
func (t *Tag) Unfreeze() {
	t.vm.Logger.Debug("tag unfreeze", "tag", t.Name)
	t.frozen = false
	parked := t.parked
	t.parked = nil
	for _, j := range parked {
		j.waitCancel = nil
		t.vm.Sched.pushBack(j)
	}
}

// Block stops the tag with payload and makes future entries into it evaluate
// to payload without running their bodies.
func (t *Tag) Block(j *Job, payload *Object) (*Object, Stop) {
	if payload == nil {
		payload = t.vm.Void
	}
	t.blocked, t.payload = true, payload
	return t.Stop(j, payload)
}

// Unblock allows entering the tag again.
func (t *Tag) Unblock() {
	t.blocked, t.payload = false, nil
}

// park suspends j until t is unfrozen.
func (t *Tag) park(j *Job) {
	t.parked = append(t.parked, j)
	j.waitCancel = func() {
		for i, p := range t.parked {
			if p == j {
				t.parked = append(t.parked[:i:i], t.parked[i+1:]...)
				return
			}
		}
	}
}

// tagKind is the Kind for Tag objects.
type tagKind struct{}

func (tagKind) CloneValue(value interface{}) interface{} {
	return value
}

func (tagKind) String() string {
	return "Tag"
}

// TagKind is the Kind for Tag objects. Clones share their tag.
var TagKind tagKind

// Object returns the tag's language object.
func (t *Tag) Object() *Object {
	if t.obj == nil {
		t.obj = t.vm.ObjectWith(nil, []*Object{t.vm.protoTag}, t, TagKind)
	}
	return t.obj
}

func (vm *VM) initTag() {
	vm.protoTag = vm.ObjectWith(nil, []*Object{vm.BaseObject}, (*Tag)(nil), TagKind)
	slots := Slots{
		"asString": vm.NewPrimitive("asString", TagAsString),
		"block":    vm.NewPrimitive("block", TagBlock),
		"blocked":  vm.NewPrimitive("blocked", TagBlocked),
		"enter":    vm.NewPrimitive("enter", TagEnter),
		"freeze":   vm.NewPrimitive("freeze", TagFreeze),
		"frozen":   vm.NewPrimitive("frozen", TagFrozen),
		"leave":    vm.NewPrimitive("leave", TagLeave),
		"name":     vm.NewPrimitive("name", TagName),
		"new":      vm.NewPrimitive("new", TagNew),
		"parent":   vm.NewPrimitive("parent", TagParent),
		"stop":     vm.NewPrimitive("stop", TagStopMethod),
		"type":     vm.NewString("Tag"),
		"unblock":  vm.NewPrimitive("unblock", TagUnblock),
		"unfreeze": vm.NewPrimitive("unfreeze", TagUnfreeze),
	}
	vm.SetSlots(vm.protoTag, slots)
	vm.SetSlot(vm.Global, "Tag", vm.protoTag)
}

// TagArg returns args[i] as a tag, raising BadArgumentType if it is not one.
func (j *Job) TagArg(args []*Object, i int) (*Tag, *Object, Stop) {
	if i >= len(args) {
		r, stop := j.Raisef(ArityMismatch, "missing argument %d", i)
		return nil, r, stop
	}
	t, ok := args[i].Value.(*Tag)
	if !ok || t == nil {
		r, stop := j.Raisef(BadArgumentType, "expected Tag, not %s", j.vm.TypeName(args[i]))
		return nil, r, stop
	}
	return t, nil, NoStop
}

// optArg returns args[i], or nil if it is absent.
func optArg(args []*Object, i int) *Object {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// TagNew is a Tag method.
//
// new creates a tag with the given name. If the receiver is itself a tag
// rather than the Tag prototype, the new tag is its child.
func TagNew(j *Job, args []*Object) (*Object, Stop) {
	name := "tag"
	if len(args) > 1 {
		s, r, stop := j.StringArg(args, 1)
		if stop != NoStop {
			return r, stop
		}
		name = s
	}
	parent, _ := args[0].Value.(*Tag)
	return j.vm.NewTag(name, parent).Object(), NoStop
}

// TagName is a Tag method.
//
// name returns the tag's name.
func TagName(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(t.Name), NoStop
}

// TagAsString is a Tag method.
func TagAsString(j *Job, args []*Object) (*Object, Stop) {
	t, _ := args[0].Value.(*Tag)
	if t == nil {
		return j.vm.NewString("Tag"), NoStop
	}
	return j.vm.NewString("Tag<" + t.Name + ">"), NoStop
}

// TagParent is a Tag method.
//
// parent returns the enclosing tag, or nil.
func TagParent(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	if t.Parent == nil {
		return j.vm.Nil, NoStop
	}
	return t.Parent.Object(), NoStop
}

// TagStopMethod is a Tag method.
//
// stop unwinds all jobs in the tag, with an optional payload.
func TagStopMethod(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return t.Stop(j, optArg(args, 1))
}

// TagBlock is a Tag method.
//
// block stops the tag and makes future scopes of it return the payload.
func TagBlock(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return t.Block(j, optArg(args, 1))
}

// TagUnblock is a Tag method.
func TagUnblock(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	t.Unblock()
	return j.vm.Void, NoStop
}

// TagFreeze is a Tag method.
func TagFreeze(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	t.Freeze()
	return j.vm.Void, NoStop
}

// TagUnfreeze is a Tag method.
func TagUnfreeze(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	t.Unfreeze()
	return j.vm.Void, NoStop
}

// TagFrozen is a Tag method.
func TagFrozen(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.Bool(t.Frozen()), NoStop
}

// TagBlocked is a Tag method.
func TagBlocked(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	b, _ := t.Blocked()
	return j.vm.Bool(b), NoStop
}

// TagEnter is a Tag method.
//
// enter returns the event emitted when a job enters the tag.
func TagEnter(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return t.Enter.Object(), NoStop
}

// TagLeave is a Tag method.
//
// leave returns the event emitted when a job leaves the tag.
func TagLeave(j *Job, args []*Object) (*Object, Stop) {
	t, r, stop := j.TagArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return t.Leave.Object(), NoStop
}
