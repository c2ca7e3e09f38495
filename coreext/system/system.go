// Package system adds the System object, which describes the host and the
// runtime.
package system

import (
	"os"
	"runtime"
	"time"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/internal"
)

func init() {
	internal.Register(initSystem)
}

func initSystem(vm *urbi.VM) {
	slots := urbi.Slots{
		"activeCpus":             vm.NewPrimitive("activeCpus", activeCpus),
		"arch":                   vm.NewString(runtime.GOARCH),
		"getEnvironmentVariable": vm.NewPrimitive("getEnvironmentVariable", getEnvironmentVariable),
		"jobs":                   vm.NewPrimitive("jobs", jobs),
		"platform":               vm.NewString(runtime.GOOS),
		"platformVersion":        vm.NewString(platformVersion()),
		"thisProcessPid":         vm.NewPrimitive("thisProcessPid", thisProcessPid),
		"type":                   vm.NewString("System"),
		"uptime":                 vm.NewPrimitive("uptime", uptime),
		"version":                vm.NewString(internal.Version),
	}
	vm.Install("System", slots, nil, nil)
}

// activeCpus is a System method.
//
// activeCpus returns the number of CPUs the Go runtime may use.
func activeCpus(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	return j.VM().NewFloat(float64(runtime.GOMAXPROCS(0))), urbi.NoStop
}

// getEnvironmentVariable is a System method.
//
// getEnvironmentVariable returns the value of the environment variable with
// the given name, or nil if it does not exist.
func getEnvironmentVariable(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	name, r, stop := j.StringArg(args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	if s, ok := os.LookupEnv(name); ok {
		return j.VM().NewString(s), urbi.NoStop
	}
	return j.VM().Nil, urbi.NoStop
}

// jobs is a System method.
//
// jobs returns the number of unfinished jobs.
func jobs(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	vm := j.VM()
	return vm.NewFloat(float64(len(vm.Sched.Jobs()))), urbi.NoStop
}

// thisProcessPid is a System method.
func thisProcessPid(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	return j.VM().NewFloat(float64(os.Getpid())), urbi.NoStop
}

// uptime is a System method.
//
// uptime returns the number of seconds since the VM started.
func uptime(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	vm := j.VM()
	return vm.NewFloat(time.Since(vm.StartTime).Seconds()), urbi.NoStop
}
