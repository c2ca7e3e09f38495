/*
Package urbi implements the execution core of an Urbi-like robot scripting
runtime.

Programs arrive as already-resolved syntax trees (see package ast): every
variable reference names its frame slot or captured cell, and every routine
knows its arity, its captures, and whether it uses its call message. The
runtime evaluates them in cooperative jobs. A job runs until it reaches a
scheduling point, such as the end of a statement separated by a semicolon, a
sleep, or a wait, and then lets the next runnable job go.

Concurrency

Statements separated by commas, and bodies of foreach loops and while loops
using the comma flavor, run in child jobs collected by the enclosing scope;
the scope waits for all of them before it completes. If any failed, the
exception of the first one spawned is re-raised in the parent. detach starts a
job that nothing waits for.

Tags

A tag is a named, hierarchical handle on running code. Code runs in a tag by
evaluating a tagged statement. Stopping a tag makes every job running in it
or in any of its descendants abandon the tagged scope, which then evaluates to
the stop payload. Freezing a tag suspends those jobs at their next scheduling
point until it is unfrozen, and blocking a tag stops them and also makes later
attempts to enter it finish immediately.

Events

Events are broadcast points. at, whenever, and waituntil watch either a
boolean expression or an event. Expression watchers are re-evaluated whenever
a slot or variable they read changes, so

	at (x > 5) echo("over");

reports each time x rises above 5. Watchers belong to the tags that were
active when they were created and disappear when any of those tags stops.

Embedding

Create a VM with NewVM, open a Connection to it, and execute decoded
programs:

	vm := urbi.NewVM(urbi.DefaultConfig())
	conn := vm.NewConnection(os.Stdout)
	prog, err := ast.Decode(r, "prog.yaml")
	if err != nil {
		return err
	}
	return conn.Exec(prog)

Native code adds primitives with VM.NewPrimitive and installs them with
SetSlot. Primitives run inside a job and may suspend it.
*/
package urbi

import (
	"io"

	"github.com/zephyrtronium/urbi/internal"
)

// A VM runs urbi programs.
type VM = internal.VM

// Object is the basic type of urbi. Everything is an Object.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object = internal.Object

// Slots represents the set of messages to which an object responds.
type Slots = internal.Slots

// Kind is a type indicator for urbi objects. Kind values must be comparable.
// Kinds for different types must not be equal, meaning they must have
// different underlying types or different values otherwise.
type Kind = internal.Kind

// BasicKind is a special Kind type for basic primitive types whose clones
// have values that are shallow copies of their parents.
type BasicKind = internal.BasicKind

// A Stop represents a reason for flow control.
type Stop = internal.Stop

// A Job is one cooperative thread of control.
type Job = internal.Job

// JobState is the scheduling state of a job.
type JobState = internal.JobState

// A Collector waits for a group of child jobs.
type Collector = internal.Collector

// Scheduler runs a VM's jobs cooperatively.
type Scheduler = internal.Scheduler

// A Tag is a named handle on running code that can stop, freeze, or block it.
type Tag = internal.Tag

// An Event is a broadcast point for watchers and at handlers.
type Event = internal.Event

// A Trigger is a sustained emission of an event.
type Trigger = internal.Trigger

// An Exception is an urbi exception.
type Exception = internal.Exception

// ChildError reports a failed child job re-raised by a Collector.
type ChildError = internal.ChildError

// ExceptionClass is the class of an exception.
type ExceptionClass = internal.ExceptionClass

// A Primitive is a callable implemented in Go.
type Primitive = internal.Primitive

// PrimitiveFn is the signature of native functions.
type PrimitiveFn = internal.PrimitiveFn

// Code is the value of objects created from routine nodes.
type Code = internal.Code

// A Lazy is an unevaluated argument with the context to evaluate it.
type Lazy = internal.Lazy

// A CallMessage is the reified call of a routine that uses call.
type CallMessage = internal.CallMessage

// List is the value of List objects.
type List = internal.List

// Dict is the value of Dictionary objects.
type Dict = internal.Dict

// Slot is a variable cell or object slot.
type Slot = internal.Slot

// EnterFunc is an event subscriber.
type EnterFunc = internal.EnterFunc

// A Subscription is one subscriber of an event.
type Subscription = internal.Subscription

// A Connection is a client session with its own lobby and output.
type Connection = internal.Connection

// Config holds the tunable parameters of a VM.
type Config = internal.Config

// Debugger receives traced evaluations.
type Debugger = internal.Debugger

// Control flow reasons.
const (
	NoStop        = internal.NoStop
	ContinueStop  = internal.ContinueStop
	BreakStop     = internal.BreakStop
	ReturnStop    = internal.ReturnStop
	ExceptionStop = internal.ExceptionStop
	TagStop       = internal.TagStop
)

// Job states.
const (
	Runnable   = internal.Runnable
	Running    = internal.Running
	Suspended  = internal.Suspended
	Collecting = internal.Collecting
	Terminated = internal.Terminated
	Failed     = internal.Failed
)

// Exception classes.
const (
	LanguageException = internal.LanguageException
	UnexpectedVoid    = internal.UnexpectedVoid
	ArityMismatch     = internal.ArityMismatch
	BadArgumentType   = internal.BadArgumentType
	StackOverflow     = internal.StackOverflow
	LookupFailure     = internal.LookupFailure
	ConstViolation    = internal.ConstViolation
)

// Kinds for core types.
const (
	FloatKind       = internal.FloatKind
	StringKind      = internal.StringKind
	PrimitiveKind   = internal.PrimitiveKind
	CodeKind        = internal.CodeKind
	LazyKind        = internal.LazyKind
	CallMessageKind = internal.CallMessageKind
	TriggerKind     = internal.TriggerKind
	ExceptionKind   = internal.ExceptionKind
	LobbyKind       = internal.LobbyKind
)

// Kinds for core types whose clones do not share their values.
var (
	ListKind  = internal.ListKind
	DictKind  = internal.DictKind
	EventKind = internal.EventKind
	TagKind   = internal.TagKind
	JobKind   = internal.JobKind
)

// NewVM prepares a new VM with the given configuration.
func NewVM(cfg Config) *VM {
	return internal.NewVM(cfg)
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// LoadConfig reads a YAML configuration on top of the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	return internal.LoadConfig(r)
}

// NewDebugger creates a debugger to install with VM.SetDebugger.
func NewDebugger() *Debugger {
	return internal.NewDebugger()
}

// Register registers a core extension to run on every new VM. It must be
// called from an init func, before any VM is created.
func Register(f func(*VM)) {
	internal.Register(f)
}
