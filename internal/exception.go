package internal

import (
	"fmt"
	"strings"

	"github.com/zephyrtronium/urbi/ast"
)

// ExceptionClass classifies exceptions. It implements error so that
// errors.Is can match an *Exception against its class.
type ExceptionClass int

// Exception classes.
const (
	// LanguageException carries an arbitrary value thrown by a program or a
	// failure of a primitive.
	LanguageException ExceptionClass = iota
	// UnexpectedVoid means an operation received void where it needed a
	// value.
	UnexpectedVoid
	// ArityMismatch means a call supplied too few or too many arguments.
	ArityMismatch
	// BadArgumentType means an argument failed its formal's type check.
	BadArgumentType
	// StackOverflow means the job exceeded its maximum call depth.
	StackOverflow
	// LookupFailure means a slot or property does not exist.
	LookupFailure
	// ConstViolation means a program tried to write a constant slot.
	ConstViolation

	numExceptionClasses
)

var classNames = [...]string{"Exception", "UnexpectedVoid", "ArityMismatch", "BadArgumentType", "StackOverflow", "LookupFailure", "ConstViolation"}

// String returns the name of the class, which is also the name of its
// prototype object.
func (c ExceptionClass) String() string {
	if c < 0 || c >= numExceptionClasses {
		return fmt.Sprintf("ExceptionClass(%d)", int(c))
	}
	return classNames[c]
}

// Error returns the class name.
func (c ExceptionClass) Error() string {
	return c.String()
}

// StackFrame is one entry of a job's call stack, recorded at each call
// boundary for diagnostics.
type StackFrame struct {
	Name string
	Loc  ast.Loc
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.Loc)
}

// An Exception is a raised language exception.
type Exception struct {
	// Class is the exception's class.
	Class ExceptionClass
	// Value is the thrown object.
	Value *Object
	// Message describes the exception.
	Message string
	// Stack is the call stack of the raising job, innermost last.
	Stack []StackFrame
}

// Error returns the exception message prefixed with its class.
func (e *Exception) Error() string {
	if e.Class == LanguageException {
		return e.Message
	}
	return e.Class.String() + ": " + e.Message
}

// Unwrap returns the exception's class.
func (e *Exception) Unwrap() error {
	return e.Class
}

// Trace formats the exception's stack, innermost call first, one line per
// frame.
func (e *Exception) Trace() string {
	var b strings.Builder
	for i := len(e.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "called from: %v\n", e.Stack[i])
	}
	return b.String()
}

// ChildError is the error a Collector reports when one of its jobs failed.
type ChildError struct {
	// Job is the failed child.
	Job *Job
	// Err is the child's exception, which the parent raises again.
	Err *Exception
}

func (e *ChildError) Error() string {
	return fmt.Sprintf("child job %s failed: %v", e.Job.Name(), e.Err)
}

// Unwrap returns the child's exception.
func (e *ChildError) Unwrap() error {
	return e.Err
}

// ExceptionKind is the Kind for exception objects. Their values are their
// ExceptionClass.
const ExceptionKind = BasicKind("Exception")

// NewException creates an exception of the given class, along with its
// object, which has the class's prototype and a message slot.
func (vm *VM) NewException(class ExceptionClass, msg string) *Exception {
	obj := vm.ObjectWith(Slots{"message": vm.NewString(msg)}, []*Object{vm.excProtos[class]}, class, ExceptionKind)
	return &Exception{Class: class, Value: obj, Message: msg}
}

// NewExceptionf creates an exception with a formatted message.
func (vm *VM) NewExceptionf(class ExceptionClass, format string, args ...interface{}) *Exception {
	return vm.NewException(class, fmt.Sprintf(format, args...))
}

// ExceptionProto returns the prototype object of an exception class.
func (vm *VM) ExceptionProto(class ExceptionClass) *Object {
	return vm.excProtos[class]
}

// exceptionFor creates the exception raised by throwing v. Exception objects
// keep their class; anything else is a LanguageException carrying v.
func (j *Job) exceptionFor(v *Object) *Exception {
	if class, ok := v.Value.(ExceptionClass); ok && v.Kind() == ExceptionKind {
		msg := ""
		if m, proto := j.vm.GetSlot(v, "message"); proto != nil {
			msg = j.vm.AsString(j, m)
		}
		return &Exception{Class: class, Value: v, Message: msg}
	}
	return &Exception{Class: LanguageException, Value: v, Message: j.vm.AsString(j, v)}
}

// Raise starts propagating e from the job. The exception's stack is the
// job's call stack unless it already has one.
func (j *Job) Raise(e *Exception) (*Object, Stop) {
	if e.Stack == nil {
		e.Stack = j.Stack()
	}
	j.raised = e
	return e.Value, ExceptionStop
}

// Raisef raises a new exception with a formatted message.
func (j *Job) Raisef(class ExceptionClass, format string, args ...interface{}) (*Object, Stop) {
	return j.Raise(j.vm.NewExceptionf(class, format, args...))
}

// RaiseError raises a Go error as a LanguageException. If err is already an
// *Exception, it is raised unchanged.
func (j *Job) RaiseError(err error) (*Object, Stop) {
	if e, ok := err.(*Exception); ok {
		return j.Raise(e)
	}
	return j.Raise(j.vm.NewException(LanguageException, err.Error()))
}

// Raised returns the exception most recently raised in the job.
func (j *Job) Raised() *Exception {
	return j.raised
}

func (vm *VM) initException() {
	base := vm.ObjectWith(nil, []*Object{vm.BaseObject}, LanguageException, ExceptionKind)
	vm.excProtos[LanguageException] = base
	for c := UnexpectedVoid; c < numExceptionClasses; c++ {
		vm.excProtos[c] = vm.ObjectWith(Slots{"type": vm.NewString(c.String())}, []*Object{base}, c, ExceptionKind)
		vm.SetSlot(vm.Global, c.String(), vm.excProtos[c])
	}
	slots := Slots{
		"asString": vm.NewPrimitive("asString", ExceptionAsString),
		"message":  vm.NewString(""),
		"new":      vm.NewPrimitive("new", ExceptionNew),
		"type":     vm.NewString("Exception"),
	}
	vm.SetSlots(base, slots)
	vm.SetSlot(vm.Global, "Exception", base)
}

// ExceptionNew is an Exception method.
//
// new creates an exception of the receiver's class with the given message.
func ExceptionNew(j *Job, args []*Object) (*Object, Stop) {
	target := args[0]
	msg := ""
	if len(args) > 1 {
		msg = j.vm.AsString(j, args[1])
	}
	class, _ := target.Value.(ExceptionClass)
	return j.vm.ObjectWith(Slots{"message": j.vm.NewString(msg)}, []*Object{target}, class, ExceptionKind), NoStop
}

// ExceptionAsString is an Exception method.
//
// asString returns the exception's class name and message.
func ExceptionAsString(j *Job, args []*Object) (*Object, Stop) {
	e := j.exceptionFor(args[0])
	return j.vm.NewString(e.Error()), NoStop
}
