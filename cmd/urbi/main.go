// Command urbi runs programs given as YAML syntax trees.
//
// Each file named on the command line is decoded and executed in turn on one
// connection whose output goes to standard output. With no files, a single
// program is read from standard input.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/ast"
	// import for side effects
	_ "github.com/zephyrtronium/urbi/coreext"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML configuration file")
		trace   = flag.Bool("trace", false, "log every evaluated node")
		cpu     = flag.String("cpuprofile", "", "write a CPU profile to `file`")
		mem     = flag.String("memprofile", "", "write a heap profile to `file`")
	)
	flag.Parse()
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *trace {
		cfg.Trace = true
		cfg.LogLevel = "debug"
	}
	if *cpu != "" {
		stop, err := profiled(*cpu)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer stop()
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	status := run(ctx, cfg, flag.Args())
	if *mem != "" {
		if err := writeHeap(*mem); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	if status != 0 {
		// Deferred calls do not run after os.Exit.
		pprof.StopCPUProfile()
		os.Exit(status)
	}
}

func loadConfig(path string) (urbi.Config, error) {
	if path == "" {
		return urbi.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return urbi.Config{}, err
	}
	defer f.Close()
	return urbi.LoadConfig(f)
}

// run executes each program and returns the process exit status.
func run(ctx context.Context, cfg urbi.Config, files []string) int {
	vm := urbi.NewVM(cfg)
	conn := vm.NewConnection(os.Stdout)
	if len(files) == 0 {
		return exec(ctx, conn, os.Stdin, "<stdin>")
	}
	status := 0
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			status = 1
			continue
		}
		if s := exec(ctx, conn, f, name); s != 0 {
			status = s
		}
		f.Close()
		if ctx.Err() != nil {
			return 1
		}
	}
	return status
}

func exec(ctx context.Context, conn *urbi.Connection, r io.Reader, name string) int {
	prog, err := ast.Decode(r, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if _, err := conn.ExecContext(ctx, prog); err != nil {
		// Uncaught exceptions are already reported on the connection.
		if _, ok := err.(*urbi.Exception); !ok {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// profiled starts a CPU profile and returns a function to finish it.
func profiled(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
