package internal

// An Event is a notification point. Subscribers receive every emission and
// every trigger of the event.
//
// An emission is instantaneous: each subscriber's enter callback runs, then
// the leave it returned. A trigger is durable: enter callbacks run when it
// starts and leaves run when it is stopped.
type Event struct {
	vm *VM
	id uintptr
	// Name is used for diagnostics.
	Name string
	subs []*Subscription
	// busy is called when the event gains its first subscriber, and idle
	// when the last one unsubscribes.
	busy func()
	idle func(j *Job)
	obj  *Object
}

// EnterFunc is a subscriber callback. j is the job emitting or triggering the
// event. The returned function, if not nil, is called when the emission or
// trigger ends.
type EnterFunc func(j *Job, payload *Object) (leave func(j *Job))

// A Subscription is one subscriber of an event.
type Subscription struct {
	ev    *Event
	enter EnterFunc
	dead  bool
}

// A Trigger is an ongoing activation of an event.
type Trigger struct {
	ev      *Event
	Payload *Object
	subs    []*Subscription
	leaves  []func(j *Job)
	stopped bool
	obj     *Object
}

// NewEvent creates an event.
func (vm *VM) NewEvent(name string) *Event {
	return &Event{vm: vm, id: nextObject(), Name: name}
}

// Subscribe adds a subscriber to the event. If it is the first subscriber,
// the event's busy hook runs after it is added.
func (e *Event) Subscribe(enter EnterFunc) *Subscription {
	s := &Subscription{ev: e, enter: enter}
	e.subs = append(e.subs, s)
	if len(e.subs) == 1 && e.busy != nil {
		e.busy()
	}
	return s
}

// Unsubscribe removes the subscription from its event. If it was the last
// subscriber, the event's idle hook runs. Unsubscribing twice is a no-op.
func (s *Subscription) Unsubscribe(j *Job) {
	if s.dead {
		return
	}
	s.dead = true
	e := s.ev
	for i, t := range e.subs {
		if t == s {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			break
		}
	}
	if len(e.subs) == 0 && e.idle != nil {
		e.idle(j)
	}
}

// Subscribers returns the number of subscribers of the event.
func (e *Event) Subscribers() int {
	return len(e.subs)
}

// Emit runs each subscriber's enter callback followed by its leave. Only
// those subscribed when Emit starts are notified.
func (e *Event) Emit(j *Job, payload *Object) {
	for _, s := range append([]*Subscription(nil), e.subs...) {
		if s.dead {
			continue
		}
		if leave := s.enter(j, payload); leave != nil {
			leave(j)
		}
	}
}

// Trigger starts a durable activation of the event, running every enter
// callback. The leaves run when the trigger is stopped.
func (e *Event) Trigger(j *Job, payload *Object) *Trigger {
	t := &Trigger{ev: e, Payload: payload}
	for _, s := range append([]*Subscription(nil), e.subs...) {
		if s.dead {
			continue
		}
		t.subs = append(t.subs, s)
		t.leaves = append(t.leaves, s.enter(j, payload))
	}
	return t
}

// Stop ends the trigger, running the leave callbacks of subscribers that are
// still subscribed. Stopping a trigger twice is a no-op.
func (t *Trigger) Stop(j *Job) {
	if t.stopped {
		return
	}
	t.stopped = true
	for i, leave := range t.leaves {
		if leave != nil && !t.subs[i].dead {
			leave(j)
		}
	}
	t.leaves = nil
}

// Active reports whether the trigger has not been stopped.
func (t *Trigger) Active() bool {
	return !t.stopped
}

// eventKind is the Kind for Event objects.
type eventKind struct{}

func (eventKind) CloneValue(value interface{}) interface{} {
	e := value.(*Event)
	return e.vm.NewEvent(e.Name)
}

func (eventKind) String() string {
	return "Event"
}

// EventKind is the Kind for Event objects. CloneValue creates a new event.
var EventKind eventKind

// TriggerKind is the Kind for Trigger objects.
const TriggerKind = BasicKind("Trigger")

// Object returns the event's language object.
func (e *Event) Object() *Object {
	if e.obj == nil {
		e.obj = e.vm.ObjectWith(nil, []*Object{e.vm.protoEvent}, e, EventKind)
	}
	return e.obj
}

// Object returns the trigger's language object.
func (t *Trigger) Object() *Object {
	if t.obj == nil {
		vm := t.ev.vm
		t.obj = vm.ObjectWith(nil, []*Object{vm.protoTrigger}, t, TriggerKind)
	}
	return t.obj
}

func (vm *VM) initEvent() {
	vm.protoEvent = vm.ObjectWith(nil, []*Object{vm.BaseObject}, vm.NewEvent("Event"), EventKind)
	vm.protoEvent.Value.(*Event).obj = vm.protoEvent
	slots := Slots{
		"emit":            vm.NewPrimitive("emit", EventEmit),
		"subscriberCount": vm.NewPrimitive("subscriberCount", EventSubscriberCount),
		"trigger":         vm.NewPrimitive("trigger", EventTrigger),
		"type":            vm.NewString("Event"),
	}
	vm.SetSlots(vm.protoEvent, slots)
	vm.SetSlot(vm.Global, "Event", vm.protoEvent)

	vm.protoTrigger = vm.NewObject(Slots{
		"active": vm.NewPrimitive("active", TriggerActive),
		"stop":   vm.NewPrimitive("stop", TriggerStop),
		"type":   vm.NewString("Trigger"),
	})
}

// eventArg returns the receiver as an event.
func (j *Job) eventArg(args []*Object) (*Event, *Object, Stop) {
	e, ok := args[0].Value.(*Event)
	if !ok {
		r, stop := j.Raisef(BadArgumentType, "expected Event, not %s", j.vm.TypeName(args[0]))
		return nil, r, stop
	}
	if e.obj == nil {
		e.obj = args[0]
	}
	return e, nil, NoStop
}

// EventEmit is an Event method.
//
// emit notifies subscribers with the arguments as a list payload.
func EventEmit(j *Job, args []*Object) (*Object, Stop) {
	e, r, stop := j.eventArg(args)
	if stop != NoStop {
		return r, stop
	}
	e.Emit(j, j.vm.NewList(args[1:]...))
	return j.vm.Void, NoStop
}

// EventTrigger is an Event method.
//
// trigger starts a durable activation with the arguments as a list payload
// and returns a Trigger whose stop method ends it.
func EventTrigger(j *Job, args []*Object) (*Object, Stop) {
	e, r, stop := j.eventArg(args)
	if stop != NoStop {
		return r, stop
	}
	return e.Trigger(j, j.vm.NewList(args[1:]...)).Object(), NoStop
}

// EventSubscriberCount is an Event method.
//
// subscriberCount returns the number of subscribers.
func EventSubscriberCount(j *Job, args []*Object) (*Object, Stop) {
	e, r, stop := j.eventArg(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(float64(e.Subscribers())), NoStop
}

// TriggerStop is a Trigger method.
//
// stop ends the trigger, running leave handlers.
func TriggerStop(j *Job, args []*Object) (*Object, Stop) {
	t, ok := args[0].Value.(*Trigger)
	if !ok {
		return j.Raisef(BadArgumentType, "expected Trigger, not %s", j.vm.TypeName(args[0]))
	}
	t.Stop(j)
	return j.vm.Void, NoStop
}

// TriggerActive is a Trigger method.
//
// active returns whether the trigger has not been stopped.
func TriggerActive(j *Job, args []*Object) (*Object, Stop) {
	t, ok := args[0].Value.(*Trigger)
	if !ok {
		return j.Raisef(BadArgumentType, "expected Trigger, not %s", j.vm.TypeName(args[0]))
	}
	return j.vm.Bool(t.Active()), NoStop
}
