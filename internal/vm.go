package internal

import (
	"log/slog"
	"os"
	"time"

	"github.com/zephyrtronium/contains"
)

// Version is the runtime version, used for the System version slot.
const Version = "0.1.0"

// VM is an object for running urbi programs.
type VM struct {
	// Lobby is the proto of connection lobbies and the default target of
	// jobs that have no other.
	Lobby *Object
	// Global holds the built-in protos and functions. Every object reaches
	// it through BaseObject.
	Global *Object

	// Singletons.
	BaseObject *Object
	True       *Object
	False      *Object
	Nil        *Object
	Void       *Object

	// protoSet is the set of protos checked during GetSlot.
	protoSet contains.Set
	// protoStack is the stack of protos to check during GetSlot.
	protoStack []*Object

	// Protos of built-in types.
	protoString      *Object
	protoFloat       *Object
	protoList        *Object
	protoDict        *Object
	protoPrimitive   *Object
	protoCode        *Object
	protoLazy        *Object
	protoCallMessage *Object
	protoEvent       *Object
	protoTrigger     *Object
	protoTag         *Object
	protoJob         *Object
	excProtos        [numExceptionClasses]*Object

	// Sched runs the VM's jobs.
	Sched *Scheduler
	// Logger receives the runtime's diagnostics. Hosts may replace it before
	// running any job.
	Logger *slog.Logger
	// Config is the configuration the VM was created with.
	Config Config

	// debugger receives traced evaluations, if set.
	debugger *Debugger
	// Debug is an atomic flag controlling whether evaluation is traced.
	Debug uint32

	// StartTime is the time at which VM initialization began, used for
	// connection timestamps and the System uptime.
	StartTime time.Time
}

// NewVM prepares a new VM to run programs with the given configuration.
func NewVM(cfg Config) *VM {
	haveVM = true

	vm := VM{
		Lobby:      &Object{id: nextObject()},
		Global:     &Object{id: nextObject()},
		BaseObject: &Object{id: nextObject()},
		Config:     cfg,
		StartTime:  time.Now(),
	}
	lvl, err := cfg.Level()
	vm.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	if err != nil {
		vm.Logger.Warn("using default log level", "err", err)
	}
	if cfg.MaxCallDepth <= 0 {
		vm.Config.MaxCallDepth = DefaultConfig().MaxCallDepth
	}
	if cfg.Trace {
		vm.Debug = 1
	}
	vm.Sched = newScheduler(&vm)

	// Primitives and strings are needed by every other init method, so their
	// protos exist before any of them runs. Slots come later.
	vm.protoPrimitive = vm.ObjectWith(nil, []*Object{vm.BaseObject}, nil, PrimitiveKind)
	vm.protoString = vm.ObjectWith(nil, []*Object{vm.BaseObject}, "", StringKind)
	vm.protoDict = vm.ObjectWith(nil, []*Object{vm.BaseObject}, &Dict{Value: map[string]*Object{}}, DictKind)

	vm.initObject()
	vm.initSingletons()
	vm.initString()
	vm.initCode()
	vm.initFloat()
	vm.initList()
	vm.initDict()
	vm.initException()
	vm.initEvent()
	vm.initTag()
	vm.initJob()
	vm.initLobby()

	for _, ext := range coreExt {
		ext(&vm)
	}
	return &vm
}

// singleton is the value of true, false, nil, and void.
type singleton string

func (s singleton) String() string {
	return string(s)
}

// initSingletons creates the constant objects.
func (vm *VM) initSingletons() {
	mk := func(name, typ string) *Object {
		return vm.ObjectWith(Slots{"type": vm.NewString(typ)}, []*Object{vm.BaseObject}, singleton(name), BasicKind(typ))
	}
	vm.True = mk("true", "Boolean")
	vm.False = mk("false", "Boolean")
	vm.Nil = mk("nil", "Nil")
	vm.Void = mk("void", "Void")
	vm.SetSlots(vm.Global, Slots{
		"true":  vm.True,
		"false": vm.False,
		"nil":   vm.Nil,
		"void":  vm.Void,
	})
}

// Install creates a new proto with BaseObject as its proto and makes it a
// slot of Global. Core extensions use it to add types.
func (vm *VM) Install(name string, slots Slots, value interface{}, kind Kind) *Object {
	r := vm.ObjectWith(slots, []*Object{vm.BaseObject}, value, kind)
	vm.SetSlot(vm.Global, name, r)
	return r
}

// Register registers a core extension. Each function is called in the order
// it is registered; extensions that depend on other extensions need only
// import them. Register should be called from within init funcs. Panics if
// NewVM has been called.
func Register(f func(*VM)) {
	if haveVM {
		panic("urbi/internal: Register must be called before any VM is created")
	}
	coreExt = append(coreExt, f)
}

// coreExt is a list of core extensions that have been registered.
var coreExt = make([]func(*VM), 0, 10)

// haveVM becomes true once NewVM has been called.
var haveVM = false
