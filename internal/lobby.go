package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"gitlab.com/variadico/lctime"

	"github.com/zephyrtronium/urbi/ast"
)

// A Connection is a client session: a lobby object that programs run in and
// a writer that receives their output. Uncaught exceptions of jobs started
// from the connection, including detached ones, are reported to it.
type Connection struct {
	vm *VM
	// Lobby is the connection's lobby, a clone of the VM's Lobby. Top-level
	// programs of the connection run with it as their target.
	Lobby *Object
	w     io.Writer
}

// LobbyKind is the Kind for connection lobbies. Their values are their
// *Connection.
const LobbyKind = BasicKind("Lobby")

// NewConnection creates a connection that writes its output to w.
func (vm *VM) NewConnection(w io.Writer) *Connection {
	c := &Connection{vm: vm, w: w}
	c.Lobby = vm.ObjectWith(nil, []*Object{vm.Lobby}, c, LobbyKind)
	vm.SetSlot(c.Lobby, "lobby", c.Lobby)
	return c
}

// Exec runs a program in a new top-level job of the connection and waits for
// it to finish. It returns the job's uncaught exception, if any.
func (c *Connection) Exec(n ast.Node) error {
	_, err := c.ExecContext(context.Background(), n)
	return err
}

// ExecContext runs a program like Exec, returning its result. A result other
// than void is written to the connection. ctx bounds the scheduler run; if it
// ends first, ExecContext returns its error.
func (c *Connection) ExecContext(ctx context.Context, n ast.Node) (*Object, error) {
	vm := c.vm
	ctxt := jobContext{frame: &Frame{Self: c.Lobby}, conn: c}
	j := vm.Sched.spawn("", nil, ctxt, func(j *Job) (*Object, Stop) {
		return j.Eval(n)
	})
	if err := vm.Sched.Run(ctx, j.Done); err != nil && !j.Done() {
		return vm.Void, err
	}
	if !j.Done() {
		return vm.Void, nil
	}
	if j.state == Failed {
		return j.err.Value, j.err
	}
	r := j.result
	if j.stop == NoStop && r != nil && r != vm.Void {
		c.writeLine("", vm.Printable(nil, r))
	}
	return r, nil
}

// timestamp formats the current time for an output line.
func (c *Connection) timestamp() string {
	if f := c.vm.Config.TimestampFormat; f != "" {
		return lctime.Strftime(f, time.Now())
	}
	return fmt.Sprintf("%08d", time.Since(c.vm.StartTime).Milliseconds())
}

// writeLine writes one output line. channel is empty for ordinary output.
func (c *Connection) writeLine(channel, text string) {
	if c.w == nil {
		return
	}
	ts := c.timestamp()
	if channel != "" {
		ts += ":" + channel
	}
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", ts, text); err != nil {
		c.vm.Logger.Warn("connection write failed", "err", err)
	}
}

// Echo writes a message line.
func (c *Connection) Echo(text string) {
	c.writeLine("", "*** "+text)
}

// report writes an uncaught exception and the stack it was raised from.
func (c *Connection) report(j *Job, e *Exception) {
	if e == nil {
		return
	}
	c.writeLine("error", "!!! "+e.Error())
	for i := len(e.Stack) - 1; i >= 0; i-- {
		c.writeLine("error", "!!!    called from: "+e.Stack[i].String())
	}
}

// initLobby sets up the primitives every object reaches through Global.
func (vm *VM) initLobby() {
	vm.Lobby.SetProtos(vm.BaseObject)
	slots := Slots{
		"detach": vm.NewLazyPrimitive("detach", LobbyDetach),
		"echo":   vm.NewPrimitive("echo", LobbyEcho),
		"job":    vm.NewPrimitive("job", LobbyJob),
		"jobs":   vm.NewPrimitive("jobs", LobbyJobs),
		"print":  vm.NewPrimitive("print", LobbyPrint),
		"sleep":  vm.NewPrimitive("sleep", LobbySleep),
		"yield":  vm.NewPrimitive("yield", LobbyYield),
	}
	vm.SetSlots(vm.Global, slots)
	vm.SetSlots(vm.Lobby, Slots{"lobby": vm.Lobby, "type": vm.NewString("Lobby")})
	vm.SetSlot(vm.Global, "Lobby", vm.Lobby)
}

// LobbyEcho is a Lobby method.
//
// echo writes its argument to the job's connection as a message line.
func LobbyEcho(j *Job, args []*Object) (*Object, Stop) {
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	s := j.vm.AsString(j, v)
	if j.conn != nil {
		j.conn.Echo(s)
	} else {
		j.vm.Logger.Info("echo", "job", j.name, "text", s)
	}
	return j.vm.Void, NoStop
}

// LobbyPrint is a Lobby method.
//
// print writes its argument to the job's connection as a value line.
func LobbyPrint(j *Job, args []*Object) (*Object, Stop) {
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	s := j.vm.Printable(j, v)
	if j.conn != nil {
		j.conn.writeLine("", s)
	} else {
		j.vm.Logger.Info("print", "job", j.name, "text", s)
	}
	return v, NoStop
}

// LobbySleep is a Lobby method.
//
// sleep suspends the job for a number of seconds or a Duration.
func LobbySleep(j *Job, args []*Object) (*Object, Stop) {
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	switch d := v.Value.(type) {
	case float64:
		return j.Sleep(time.Duration(d * float64(time.Second)))
	case time.Duration:
		return j.Sleep(d)
	}
	return j.Raisef(BadArgumentType, "sleep: expected Float or Duration, not %s", j.vm.TypeName(v))
}

// LobbyYield is a Lobby method.
//
// yield lets other jobs run.
func LobbyYield(j *Job, args []*Object) (*Object, Stop) {
	return j.Yield()
}

// LobbyDetach is a Lobby method.
//
// detach evaluates its argument in a new job that nothing waits for and
// returns the job. The job runs in the caller's scope and tags.
func LobbyDetach(j *Job, args []*Object) (*Object, Stop) {
	if r, stop := j.AssertArgs("detach", args, 1, 1); stop != NoStop {
		return r, stop
	}
	l := args[1].Value.(*Lazy)
	child := j.sched.spawn("", j, j.context(), func(cj *Job) (*Object, Stop) {
		if l.Expr == nil {
			return l.value, NoStop
		}
		return cj.Eval(l.Expr)
	})
	return child.Object(), NoStop
}

// LobbyJob is a Lobby method.
//
// job returns the calling job.
func LobbyJob(j *Job, args []*Object) (*Object, Stop) {
	return j.Object(), NoStop
}

// LobbyJobs is a Lobby method.
//
// jobs returns a list of all unfinished jobs.
func LobbyJobs(j *Job, args []*Object) (*Object, Stop) {
	jobs := j.sched.Jobs()
	l := make([]*Object, len(jobs))
	for i, o := range jobs {
		l[i] = o.Object()
	}
	return j.vm.NewList(l...), NoStop
}
