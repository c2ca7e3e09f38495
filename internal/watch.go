package internal

import (
	"github.com/zephyrtronium/contains"

	"github.com/zephyrtronium/urbi/ast"
)

// depLog records the events a guard expression depends on, in the order they
// were first read.
type depLog struct {
	seen   contains.Set
	events []*Event
}

func (d *depLog) record(e *Event) {
	if d.seen.Add(e.id) {
		d.events = append(d.events, e)
	}
}

// logDeps evaluates a guard expression in frame f, collecting the events it
// depends on. The job's previous dependency log is restored afterward.
func (j *Job) logDeps(guard ast.Node, f *Frame) (*Object, Stop, []*Event) {
	saved := j.deps
	d := &depLog{}
	j.deps = d
	j.frames = append(j.frames, f)
	defer func() {
		j.frames = j.frames[:len(j.frames)-1]
		j.deps = saved
	}()
	r, stop := j.Eval(guard)
	return r, stop, d.events
}

// deferInterrupt hands an unwind that was delivered where it cannot
// propagate back to the job's pending state, restoring the unwind that was in
// progress before, so that the job's next suspension point delivers it.
func (j *Job) deferInterrupt(prior *unwind) {
	u := j.unwinding
	j.unwinding = prior
	if u != nil {
		j.interrupt(*u)
	}
}

// WatchEventData evaluates a guard expression each time one of the events it
// depends on fires and publishes the results on its output event.
//
// In value mode, every result other than void is emitted on the output. In
// edge mode, the output is triggered when the guard becomes true and the
// trigger is stopped when it becomes false.
//
// A watcher is live only while its output has subscribers. The first
// subscriber starts it, and it is torn down when the last one leaves.
type WatchEventData struct {
	vm    *VM
	guard ast.Node
	ctx   jobContext
	frame *Frame
	out   *Event
	edge  bool

	// active is the output's trigger while an edge guard is true.
	active *Trigger
	last   bool
	// subs are the subscriptions to the guard's current sources.
	subs    []*Subscription
	sources []*Event

	running bool
	dirty   bool
	dead    bool
}

// newWatch creates a watcher for guard in the job's current frame. The guard
// is not evaluated until the output gains a subscriber.
func (j *Job) newWatch(name string, guard ast.Node, edge bool) *WatchEventData {
	ctx := j.context()
	w := &WatchEventData{
		vm:    j.vm,
		guard: guard,
		ctx:   ctx,
		frame: ctx.frame,
		out:   j.vm.NewEvent(name),
		edge:  edge,
		dead:  true,
	}
	w.out.busy = w.start
	w.out.idle = w.Teardown
	return w
}

// Out returns the watcher's output event.
func (w *WatchEventData) Out() *Event {
	return w.out
}

// Active reports whether an edge guard is currently true.
func (w *WatchEventData) Active() bool {
	return w.last
}

// Sources returns the events the guard read during its latest evaluation.
func (w *WatchEventData) Sources() []*Event {
	return append([]*Event(nil), w.sources...)
}

// start brings the watcher to life and evaluates the guard for the first
// time. It runs in the current job, or in a new one when native code
// subscribed from outside any job.
func (w *WatchEventData) start() {
	if !w.dead {
		return
	}
	w.dead = false
	if j := w.vm.Sched.Current(); j != nil {
		w.evaluate(j)
		return
	}
	w.vm.Sched.spawn("", nil, w.ctx, func(j *Job) (*Object, Stop) {
		w.evaluate(j)
		return w.vm.Void, NoStop
	})
}

// evaluate re-evaluates the guard in j and publishes the result. A source
// that fires during the evaluation marks the watcher dirty, and the guard is
// evaluated again once the current evaluation finishes.
func (w *WatchEventData) evaluate(j *Job) {
	if w.dead {
		return
	}
	if w.running {
		w.dirty = true
		return
	}
	w.running = true
	defer func() { w.running = false }()
	var v *Object
	for {
		w.dirty = false
		prior := j.unwinding
		r, stop, deps := j.logDeps(w.guard, w.frame)
		w.resubscribe(j, deps)
		switch stop {
		case NoStop:
			v = r
		case TagStop:
			j.deferInterrupt(prior)
			return
		case ExceptionStop:
			// A failing guard counts as false.
			w.vm.Logger.Warn("watch guard failed", "job", j.name, "err", j.raised)
			v = w.vm.False
		default:
			v = r
		}
		if !w.dirty || w.dead {
			break
		}
	}
	w.vm.Logger.Debug("watch evaluate", "event", w.out.Name, "sources", len(w.sources))
	w.publish(j, v)
}

// publish delivers a guard result to the output event.
func (w *WatchEventData) publish(j *Job, v *Object) {
	if w.dead {
		return
	}
	if !w.edge {
		if v != w.vm.Void {
			w.out.Emit(j, v)
		}
		return
	}
	b := w.vm.AsBool(v)
	switch {
	case b && !w.last:
		w.last = true
		w.active = w.out.Trigger(j, v)
	case !b && w.last:
		w.last = false
		t := w.active
		w.active = nil
		t.Stop(j)
	}
}

// resubscribe replaces the watcher's sources with deps.
func (w *WatchEventData) resubscribe(j *Job, deps []*Event) {
	keep := contains.Set{}
	for _, e := range deps {
		keep.Add(e.id)
	}
	// Add reports whether the id was absent, so a false result from keep
	// means the source is still wanted. have collects the sources kept.
	have := contains.Set{}
	subs := w.subs[:0:0]
	for i, s := range w.subs {
		if id := w.sources[i].id; !keep.Add(id) {
			have.Add(id)
			subs = append(subs, s)
			continue
		}
		s.Unsubscribe(j)
	}
	sources := make([]*Event, 0, len(deps))
	for _, s := range subs {
		sources = append(sources, s.ev)
	}
	for _, e := range deps {
		if !have.Add(e.id) {
			continue
		}
		subs = append(subs, e.Subscribe(w.sourceFired))
		sources = append(sources, e)
	}
	w.subs, w.sources = subs, sources
}

// sourceFired is the subscriber callback on source events.
func (w *WatchEventData) sourceFired(j *Job, payload *Object) func(j *Job) {
	w.evaluate(j)
	return nil
}

// Teardown stops the watcher: the active trigger, if any, is stopped and the
// sources are released. It runs automatically when the output event loses
// its last subscriber. A later subscriber starts the watcher again.
func (w *WatchEventData) Teardown(j *Job) {
	if w.dead {
		return
	}
	w.dead = true
	w.last = false
	w.vm.Logger.Debug("watch teardown", "event", w.out.Name)
	if w.active != nil {
		t := w.active
		w.active = nil
		t.Stop(j)
	}
	for _, s := range w.subs {
		s.Unsubscribe(j)
	}
	w.subs, w.sources = nil, nil
}

// Dead reports whether the watcher is not running, either because nothing
// has subscribed to its output yet or because it has been torn down.
func (w *WatchEventData) Dead() bool {
	return w.dead
}

// dieWith unsubscribes sub when any of the tags is stopped.
func dieWith(tags []*Tag, sub *Subscription) {
	cancels := make([]func(), 0, len(tags))
	for _, t := range tags {
		cancels = append(cancels, t.OnStop(func(j *Job) {
			for _, c := range cancels {
				c()
			}
			sub.Unsubscribe(j)
		}))
	}
}

// evalWatch creates a value watcher and returns its output event.
func (j *Job) evalWatch(n *ast.Watch) (*Object, Stop) {
	w := j.newWatch("watch", n.Guard, false)
	return w.out.Object(), NoStop
}

// evalAt installs an at handler: each time the guard becomes true, Enter
// runs in a new detached job, and Leave runs in another when it becomes
// false. The handler lives until a tag enclosing its creation is stopped.
func (j *Job) evalAt(n *ast.At) (*Object, Stop) {
	w := j.newWatch("at", n.Guard, true)
	ctx := j.context()
	sub := w.out.Subscribe(func(ej *Job, payload *Object) func(*Job) {
		j.sched.spawn("", nil, ctx, func(hj *Job) (*Object, Stop) {
			return hj.Eval(n.Enter)
		})
		if n.Leave == nil {
			return nil
		}
		return func(lj *Job) {
			if w.dead {
				return
			}
			j.sched.spawn("", nil, ctx, func(hj *Job) (*Object, Stop) {
				return hj.Eval(n.Leave)
			})
		}
	})
	dieWith(ctx.tags, sub)
	return j.vm.Void, NoStop
}

// evalAtEvent installs an at handler on an event: each emission or trigger
// whose payload matches the patterns and guard runs Enter in a new detached
// job, and Leave in another when the trigger ends.
func (j *Job) evalAtEvent(n *ast.AtEvent) (*Object, Stop) {
	v, stop := j.Eval(n.Event)
	if stop != NoStop {
		return v, stop
	}
	e, ok := v.Value.(*Event)
	if !ok {
		return j.Raisef(BadArgumentType, "at: expected Event, not %s", j.vm.TypeName(v))
	}
	ctx := j.context()
	sub := e.Subscribe(func(ej *Job, payload *Object) func(*Job) {
		f := ctx.frame.fork()
		if !ej.matchEvent(n, f, payload) {
			return nil
		}
		hctx := ctx
		hctx.frame = f
		j.sched.spawn("", nil, hctx, func(hj *Job) (*Object, Stop) {
			return hj.Eval(n.Enter)
		})
		if n.Leave == nil {
			return nil
		}
		return func(lj *Job) {
			j.sched.spawn("", nil, hctx, func(hj *Job) (*Object, Stop) {
				return hj.Eval(n.Leave)
			})
		}
	})
	dieWith(ctx.tags, sub)
	return j.vm.Void, NoStop
}

// matchEvent matches an event payload against the handler's patterns and
// guard, binding pattern variables in f. Failures to evaluate count as no
// match.
func (j *Job) matchEvent(n *ast.AtEvent, f *Frame, payload *Object) bool {
	j.frames = append(j.frames, f)
	defer func() { j.frames = j.frames[:len(j.frames)-1] }()
	prior := j.unwinding
	if n.Patterns != nil {
		ok, _, stop := j.match(ast.PatternList{Elems: n.Patterns}, payload)
		if stop == TagStop {
			j.deferInterrupt(prior)
		}
		if !ok || stop != NoStop {
			return false
		}
	}
	if n.Guard == nil {
		return true
	}
	g, stop := j.Eval(n.Guard)
	switch stop {
	case NoStop:
		return j.vm.AsBool(g)
	case TagStop:
		j.deferInterrupt(prior)
	}
	return false
}

// whenever is the state of a whenever statement.
type whenever struct {
	n   *ast.Whenever
	w   *WatchEventData
	ctx jobContext
	// cur is the running branch job.
	cur *Job
}

// evalWhenever installs a whenever: Body runs repeatedly in a detached job
// while the guard is true, and Else while it is false. Each new branch job
// first terminates the previous one and waits for it to finish.
func (j *Job) evalWhenever(n *ast.Whenever) (*Object, Stop) {
	s := &whenever{n: n, w: j.newWatch("whenever", n.Guard, true), ctx: j.context()}
	sub := s.w.out.Subscribe(func(ej *Job, payload *Object) func(*Job) {
		s.branch(ej, n.Body)
		return func(lj *Job) {
			if s.w.dead {
				return
			}
			s.branch(lj, n.Else)
		}
	})
	dieWith(s.ctx.tags, sub)
	if !s.w.last && n.Else != nil {
		s.branch(j, n.Else)
	}
	return j.vm.Void, NoStop
}

// branch replaces the running branch with one looping over body. A nil body
// only stops the running branch.
func (s *whenever) branch(j *Job, body ast.Node) {
	prev := s.cur
	s.cur = nil
	if prev != nil {
		j.sched.kill(prev)
	}
	if body == nil {
		return
	}
	s.cur = j.sched.spawn("", nil, s.ctx, func(bj *Job) (*Object, Stop) {
		if prev != nil {
			if r, stop := bj.Join(prev); stop != NoStop {
				return r, stop
			}
		}
		for {
			r, stop := bj.Eval(body)
			switch stop {
			case NoStop, ContinueStop:
			case BreakStop:
				return bj.vm.Void, NoStop
			default:
				return r, stop
			}
			if r, stop := bj.Yield(); stop != NoStop {
				return r, stop
			}
		}
	})
}

// evalWaitUntil suspends the job until the guard is true. The guard is
// evaluated again each time one of its sources fires.
func (j *Job) evalWaitUntil(n *ast.WaitUntil) (*Object, Stop) {
	for {
		v, stop, deps := j.logDeps(n.Guard, j.frame())
		if stop != NoStop {
			return v, stop
		}
		if j.vm.AsBool(v) {
			return v, NoStop
		}
		subs := make([]*Subscription, 0, len(deps))
		release := func() {
			for _, s := range subs {
				s.Unsubscribe(j)
			}
		}
		wake := func(ej *Job, payload *Object) func(*Job) {
			if j.waitCancel != nil {
				j.waitCancel = nil
				j.sched.pushBack(j)
			}
			return nil
		}
		for _, e := range deps {
			subs = append(subs, e.Subscribe(wake))
		}
		j.waitCancel = release
		j.state = Suspended
		j.suspend()
		release()
		if r, stop := j.checkInterrupt(); stop != NoStop {
			return r, stop
		}
	}
}
