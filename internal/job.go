package internal

import (
	"time"

	"github.com/zephyrtronium/urbi/ast"
)

// JobState is the scheduling state of a job.
type JobState int

// Job states. Terminated and Failed are absorbing.
const (
	Runnable JobState = iota
	Running
	Suspended
	Collecting
	Terminated
	Failed
)

var jobStateNames = [...]string{"runnable", "running", "suspended", "collecting", "terminated", "failed"}

func (s JobState) String() string {
	if s < Runnable || s > Failed {
		return "unknown"
	}
	return jobStateNames[s]
}

// A Job is one cooperative thread of control. Its methods must only be called
// by the job itself while it holds the scheduler's baton, unless documented
// otherwise.
type Job struct {
	vm    *VM
	sched *Scheduler
	name  string
	state JobState

	parent *Job
	// frames is the stack of routine frames, innermost last.
	frames []*Frame
	// stack is the diagnostic call stack, innermost last.
	stack []StackFrame
	// tags is the stack of entered tags, most specific last.
	tags []*Tag
	// pos is the location of the node being evaluated.
	pos ast.Loc

	// wake receives the baton.
	wake chan struct{}
	// queued is true while the job is in the run queue.
	queued bool
	// waitCancel removes the job from whatever it is suspended on, so that an
	// interrupt can reschedule it.
	waitCancel func()
	// pending is an unwind request not yet delivered.
	pending *unwind
	// unwinding is the unwind in progress, if any.
	unwinding *unwind
	// yields counts the job's scheduling yields.
	yields int

	// deps is the dependency log while evaluating a guard.
	deps *depLog
	// raised is the most recently raised exception.
	raised *Exception
	// handling is the stack of exceptions being handled by catch clauses.
	handling []*Exception

	result    *Object
	stop      Stop
	err       *Exception
	joiners   []*Job
	collector *Collector
	conn      *Connection
	obj       *Object
}

// A Frame holds the variables of one routine activation.
type Frame struct {
	// Locals are the routine's local variable cells.
	Locals []*Slot
	// Captured are the cells the routine's code captured when it was created.
	Captured []*Slot
	// Self is the target of the activation.
	Self *Object
	// Call is the reified call message, or nil.
	Call *Object
	// Code is the running code, or nil at top level.
	Code *Code
}

// fork copies the frame so that declarations in the copy do not affect the
// original. The variable cells themselves are shared.
func (f *Frame) fork() *Frame {
	g := *f
	g.Locals = append([]*Slot(nil), f.Locals...)
	return &g
}

// cell returns the variable cell for a reference, growing the locals if the
// reference is past their end.
func (f *Frame) cell(vm *VM, ref ast.VarRef) *Slot {
	if ref.Captured {
		return f.Captured[ref.Index]
	}
	for len(f.Locals) <= ref.Index {
		f.Locals = append(f.Locals, NewSlot(vm.Void))
	}
	if f.Locals[ref.Index] == nil {
		f.Locals[ref.Index] = NewSlot(vm.Void)
	}
	return f.Locals[ref.Index]
}

// declare replaces a local with a fresh cell.
func (f *Frame) declare(vm *VM, ref ast.VarRef, v *Object) *Slot {
	s := NewSlot(v)
	if ref.Captured {
		f.Captured[ref.Index] = s
		return s
	}
	f.cell(vm, ref)
	f.Locals[ref.Index] = s
	return s
}

// VM returns the job's VM.
func (j *Job) VM() *VM {
	return j.vm
}

// Name returns the job's name.
func (j *Job) Name() string {
	return j.name
}

// State returns the job's scheduling state. It is safe to call from any job.
func (j *Job) State() JobState {
	return j.state
}

// Done reports whether the job has terminated or failed.
func (j *Job) Done() bool {
	return j.state == Terminated || j.state == Failed
}

// Result returns the job's final value and, if it failed, its exception.
func (j *Job) Result() (*Object, *Exception) {
	return j.result, j.err
}

// Parent returns the job that spawned this one, or nil.
func (j *Job) Parent() *Job {
	return j.parent
}

// Tags returns a copy of the job's tag stack, most specific last.
func (j *Job) Tags() []*Tag {
	return append([]*Tag(nil), j.tags...)
}

// Self returns the current target.
func (j *Job) Self() *Object {
	return j.frame().Self
}

// Stack returns a copy of the job's call stack, innermost last.
func (j *Job) Stack() []StackFrame {
	return append([]StackFrame(nil), j.stack...)
}

// Yields returns the number of times the job has yielded.
func (j *Job) Yields() int {
	return j.yields
}

// Connection returns the connection the job reports to, or nil.
func (j *Job) Connection() *Connection {
	return j.conn
}

func (j *Job) frame() *Frame {
	return j.frames[len(j.frames)-1]
}

func (j *Job) loc() ast.Loc {
	return j.pos
}

// tagIndex returns the outermost position of t in the job's tag stack, or -1.
func (j *Job) tagIndex(t *Tag) int {
	for i, u := range j.tags {
		if u == t {
			return i
		}
	}
	return -1
}

// frozenTag returns a frozen tag the job has entered, or nil.
func (j *Job) frozenTag() *Tag {
	for _, t := range j.tags {
		if t.frozen {
			return t
		}
	}
	return nil
}

// run is the job's goroutine.
func (j *Job) run(body func(j *Job) (*Object, Stop)) {
	<-j.wake
	r, stop := j.checkInterrupt()
	if stop == NoStop {
		r, stop = body(j)
	}
	j.finish(r, stop)
	j.sched.back <- struct{}{}
}

// finish moves the job to an absorbing state and wakes its joiners.
func (j *Job) finish(r *Object, stop Stop) {
	j.result, j.stop = r, stop
	if stop == ExceptionStop {
		j.state = Failed
		j.err = j.raised
		j.vm.Logger.Debug("job failed", "job", j.name, "err", j.err)
		if j.collector == nil && j.conn != nil {
			j.conn.report(j, j.err)
		}
	} else {
		j.state = Terminated
		j.vm.Logger.Debug("job terminated", "job", j.name, "stop", stop)
	}
	j.sched.remove(j)
	for _, o := range j.joiners {
		o.waitCancel = nil
		j.sched.pushBack(o)
	}
	j.joiners = nil
}

// suspend hands the baton back to the scheduler and waits to receive it
// again. The caller must have arranged to be rescheduled.
func (j *Job) suspend() {
	j.sched.back <- struct{}{}
	<-j.wake
}

// interrupt records an unwind request. The job notices it at its next
// suspension point.
func (j *Job) interrupt(u unwind) {
	if j.pending == nil {
		j.pending = &u
		return
	}
	j.pending.merge(u)
}

// checkInterrupt delivers a pending unwind as a TagStop and parks the job
// while any of its tags is frozen. Every suspension point calls it after the
// job resumes.
func (j *Job) checkInterrupt() (*Object, Stop) {
	for {
		if u := j.pending; u != nil {
			j.pending = nil
			if j.unwinding != nil {
				j.unwinding.merge(*u)
			} else {
				j.unwinding = u
			}
			return j.unwinding.payload, TagStop
		}
		t := j.frozenTag()
		if t == nil {
			return j.vm.Void, NoStop
		}
		t.park(j)
		j.state = Suspended
		j.suspend()
	}
}

// Yield lets every other runnable job run before this one continues.
func (j *Job) Yield() (*Object, Stop) {
	j.yields++
	j.sched.pushBack(j)
	j.suspend()
	return j.checkInterrupt()
}

// yieldAfter yields to the first n jobs of the run queue only.
func (j *Job) yieldAfter(n int) (*Object, Stop) {
	j.yields++
	j.sched.insertAt(n, j)
	j.suspend()
	return j.checkInterrupt()
}

// Sleep suspends the job for at least d.
func (j *Job) Sleep(d time.Duration) (*Object, Stop) {
	if d <= 0 {
		return j.Yield()
	}
	j.sched.sleep(j, time.Now().Add(d))
	j.state = Suspended
	j.suspend()
	return j.checkInterrupt()
}

// Join suspends the job until o has terminated or failed.
func (j *Job) Join(o *Job) (*Object, Stop) {
	for !o.Done() {
		o.joiners = append(o.joiners, j)
		j.waitCancel = func() {
			for i, p := range o.joiners {
				if p == j {
					o.joiners = append(o.joiners[:i:i], o.joiners[i+1:]...)
					return
				}
			}
		}
		if j.state != Collecting {
			j.state = Suspended
		}
		j.suspend()
		if r, stop := j.checkInterrupt(); stop != NoStop {
			return r, stop
		}
	}
	return j.vm.Void, NoStop
}

// Terminate stops o entirely. If o is the calling job j, Terminate returns
// the TagStop for j to propagate; otherwise o unwinds the next time it runs,
// which is before any job that is already runnable.
func (j *Job) Terminate(o *Job) (*Object, Stop) {
	if o.Done() {
		return j.vm.Void, NoStop
	}
	j.sched.kill(o)
	if o == j {
		return j.checkInterrupt()
	}
	return j.vm.Void, NoStop
}

// pushFrame enters a routine activation.
func (j *Job) pushFrame(f *Frame, sf StackFrame) {
	j.frames = append(j.frames, f)
	j.stack = append(j.stack, sf)
}

// popFrame leaves the innermost routine activation.
func (j *Job) popFrame() {
	j.frames[len(j.frames)-1] = nil
	j.frames = j.frames[:len(j.frames)-1]
	j.stack = j.stack[:len(j.stack)-1]
}

// jobKind is the Kind for Job objects.
type jobKind struct{}

func (jobKind) CloneValue(value interface{}) interface{} {
	return value
}

func (jobKind) String() string {
	return "Job"
}

// JobKind is the Kind for Job objects.
var JobKind jobKind

// Object returns the job's language object.
func (j *Job) Object() *Object {
	if j.obj == nil {
		j.obj = j.vm.ObjectWith(nil, []*Object{j.vm.protoJob}, j, JobKind)
	}
	return j.obj
}

func (vm *VM) initJob() {
	vm.protoJob = vm.ObjectWith(nil, []*Object{vm.BaseObject}, (*Job)(nil), JobKind)
	slots := Slots{
		"asString":           vm.NewPrimitive("asString", JobAsString),
		"name":               vm.NewPrimitive("name", JobName),
		"status":             vm.NewPrimitive("status", JobStatus),
		"tags":               vm.NewPrimitive("tags", JobTags),
		"terminate":          vm.NewPrimitive("terminate", JobTerminate),
		"type":               vm.NewString("Job"),
		"waitForTermination": vm.NewPrimitive("waitForTermination", JobWaitForTermination),
	}
	vm.SetSlots(vm.protoJob, slots)
	vm.SetSlot(vm.Global, "Job", vm.protoJob)
}

// jobArg returns the receiver as a job.
func (j *Job) jobArg(args []*Object) (*Job, *Object, Stop) {
	o, ok := args[0].Value.(*Job)
	if !ok || o == nil {
		r, stop := j.Raisef(BadArgumentType, "expected Job, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	return o, nil, NoStop
}

// JobName is a Job method.
//
// name returns the job's name.
func JobName(j *Job, args []*Object) (*Object, Stop) {
	o, r, stop := j.jobArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(o.name), NoStop
}

// JobAsString is a Job method.
func JobAsString(j *Job, args []*Object) (*Object, Stop) {
	o, ok := args[0].Value.(*Job)
	if !ok || o == nil {
		return j.vm.NewString("Job"), NoStop
	}
	return j.vm.NewString("Job<" + o.name + ">"), NoStop
}

// JobStatus is a Job method.
//
// status returns the job's state as a string.
func JobStatus(j *Job, args []*Object) (*Object, Stop) {
	o, r, stop := j.jobArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(o.state.String()), NoStop
}

// JobTags is a Job method.
//
// tags returns the job's tag stack as a list, most specific last.
func JobTags(j *Job, args []*Object) (*Object, Stop) {
	o, r, stop := j.jobArg(args)
	if stop != NoStop {
		return r, stop
	}
	l := make([]*Object, len(o.tags))
	for i, t := range o.tags {
		l[i] = t.Object()
	}
	return j.vm.NewList(l...), NoStop
}

// JobTerminate is a Job method.
//
// terminate stops the job entirely.
func JobTerminate(j *Job, args []*Object) (*Object, Stop) {
	o, r, stop := j.jobArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.Terminate(o)
}

// JobWaitForTermination is a Job method.
//
// waitForTermination suspends the calling job until the receiver finishes.
func JobWaitForTermination(j *Job, args []*Object) (*Object, Stop) {
	o, r, stop := j.jobArg(args)
	if stop != NoStop {
		return r, stop
	}
	if o == j {
		return j.Raisef(LanguageException, "job cannot wait for itself")
	}
	return j.Join(o)
}
