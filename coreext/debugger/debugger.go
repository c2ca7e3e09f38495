// Package debugger adds the Debugger object, which lets programs switch
// evaluation tracing on and off.
package debugger

import (
	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/internal"
)

func init() {
	internal.Register(initDebugger)
}

func initDebugger(vm *urbi.VM) {
	slots := urbi.Slots{
		"trace":   vm.NewPrimitive("trace", trace),
		"tracing": vm.NewPrimitive("tracing", tracing),
		"type":    vm.NewString("Debugger"),
	}
	vm.Install("Debugger", slots, nil, nil)
}

// trace is a Debugger method.
//
// trace enables or disables tracing of every evaluated node. Traced nodes go
// to the host's debugger if one is installed, and to the debug log otherwise.
func trace(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	if r, stop := j.AssertArgs("trace", args, 1, 1); stop != urbi.NoStop {
		return r, stop
	}
	vm := j.VM()
	vm.SetTracing(vm.AsBool(args[1]))
	return args[0], urbi.NoStop
}

// tracing is a Debugger method.
//
// tracing returns whether tracing is enabled.
func tracing(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	vm := j.VM()
	return vm.Bool(vm.Tracing()), urbi.NoStop
}
