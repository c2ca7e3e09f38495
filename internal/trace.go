package internal

import (
	"fmt"
	"sync/atomic"

	"github.com/zephyrtronium/urbi/ast"
)

// Debugger receives the nodes jobs evaluate while tracing is enabled. The
// evaluating job waits until the message's Done channel is closed, so a host
// can step through a program.
type Debugger struct {
	msgs chan DebugMessage
}

// DebugMessage is one traced evaluation.
type DebugMessage struct {
	Job  *Job
	Node ast.Node
	// Done must be closed to let the job continue.
	Done chan struct{}
}

// NewDebugger creates a debugger.
func NewDebugger() *Debugger {
	return &Debugger{msgs: make(chan DebugMessage)}
}

// Messages returns the channel of traced evaluations.
func (d *Debugger) Messages() <-chan DebugMessage {
	return d.msgs
}

// SetDebugger installs a debugger for the VM, replacing trace logging. It
// must not be called while jobs are running.
func (vm *VM) SetDebugger(d *Debugger) {
	vm.debugger = d
}

// SetTracing enables or disables tracing. It is safe to call concurrently.
func (vm *VM) SetTracing(on bool) {
	if on {
		atomic.StoreUint32(&vm.Debug, 1)
	} else {
		atomic.StoreUint32(&vm.Debug, 0)
	}
}

// Tracing reports whether tracing is enabled.
func (vm *VM) Tracing() bool {
	return atomic.LoadUint32(&vm.Debug) != 0
}

// trace is the outlined slow path of tracing an evaluation.
func (vm *VM) trace(j *Job, n ast.Node) {
	if n == nil {
		return
	}
	if d := vm.debugger; d != nil {
		done := make(chan struct{})
		d.msgs <- DebugMessage{Job: j, Node: n, Done: done}
		<-done
		return
	}
	vm.Logger.Debug("eval", "job", j.name, "node", fmt.Sprintf("%T", n), "loc", n.Pos().String())
}
