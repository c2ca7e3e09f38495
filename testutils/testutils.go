// Package testutils provides utilities for testing urbi programs in Go.
package testutils

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/ast"
)

// testVM is the VM used for all tests.
var testVM *urbi.VM

var testVMInit sync.Once

// VM returns a VM for testing urbi. The VM is shared by all tests that use
// this package.
func VM() *urbi.VM {
	testVMInit.Do(ResetVM)
	return testVM
}

// ResetVM reinitializes the VM returned by VM. It is not safe to call this in
// parallel tests.
func ResetVM() {
	testVM = NewVM(urbi.DefaultConfig())
}

// NewVM creates a VM whose log output is discarded.
func NewVM(cfg urbi.Config) *urbi.VM {
	vm := urbi.NewVM(cfg)
	vm.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return vm
}

// Decode decodes a YAML program tree, failing the test on error.
func Decode(t testing.TB, src, name string) ast.Node {
	t.Helper()
	n, err := ast.Decode(strings.NewReader(src), name)
	if err != nil {
		t.Fatalf("could not decode %q: %v", src, err)
	}
	return n
}

// A SourceTestCase is a test case containing a YAML program tree and a
// predicate to check the result.
type SourceTestCase struct {
	// Source is the program to execute, in the form accepted by ast.Decode.
	Source string
	// Pass is a predicate taking the result of executing Source. If Pass
	// returns false, then the test fails.
	Pass func(result *urbi.Object, control urbi.Stop) bool
}

// TestFunc returns a test function for the test case. This uses VM to decode
// and execute the program.
func (c SourceTestCase) TestFunc(name string) func(*testing.T) {
	return func(t *testing.T) {
		vm := VM()
		n := Decode(t, c.Source, name)
		if r, s := vm.DoNode(n); !c.Pass(r, s) {
			if s == urbi.ExceptionStop && r.Kind() == urbi.ExceptionKind {
				msg, _ := vm.GetSlot(r, "message")
				t.Errorf("%s produced wrong result; an exception occurred: %s: %s", name, vm.TypeName(r), vm.AsString(nil, msg))
			} else {
				t.Errorf("%s produced wrong result; got %s@%p (%s)", name, vm.AsString(nil, r), r, s)
			}
		}
	}
}

// PassEqual returns a Pass function for a SourceTestCase that predicates on
// equality as VM.Equal defines it. If the Stop is not NoStop, then the
// predicate returns false.
func PassEqual(want *urbi.Object) func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		if control != urbi.NoStop {
			return false
		}
		return VM().Equal(want, result)
	}
}

// PassIdentical returns a Pass function for a SourceTestCase that predicates
// on identity, i.e. the result must be exactly the given object. If the Stop
// is not NoStop, then the predicate returns false.
func PassIdentical(want *urbi.Object) func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		if control != urbi.NoStop {
			return false
		}
		return want == result
	}
}

// PassKind returns a Pass function for a SourceTestCase that predicates on
// the Kind of the result. If the Stop is not NoStop, then the predicate
// returns false.
func PassKind(want urbi.Kind) func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		if control != urbi.NoStop {
			return false
		}
		return result.Kind() == want
	}
}

// PassFailure returns a Pass function for a SourceTestCase that returns true
// iff the result is a raised exception of the given class or one derived
// from it.
func PassFailure(class urbi.ExceptionClass) func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		return control == urbi.ExceptionStop && result.IsA(VM().ExceptionProto(class))
	}
}

// PassThrown returns a Pass function for a SourceTestCase that returns true
// iff the result is a raised exception whose thrown value equals want.
func PassThrown(want *urbi.Object) func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		return control == urbi.ExceptionStop && VM().Equal(want, result)
	}
}

// PassSuccess returns a Pass function for a SourceTestCase that returns true
// iff the control flow status is NoStop.
func PassSuccess() func(*urbi.Object, urbi.Stop) bool {
	return func(result *urbi.Object, control urbi.Stop) bool {
		return control == urbi.NoStop
	}
}

// CheckSlots is a testing helper to check whether an object has exactly the
// slots we expect.
func CheckSlots(t *testing.T, obj *urbi.Object, slots []string) {
	t.Helper()
	checked := make(map[string]bool, len(slots))
	have := obj.SlotNames()
	for _, name := range have {
		if !checked[name] {
			checked[name] = false
		}
	}
	for _, name := range slots {
		_, ok := checked[name]
		checked[name] = true
		t.Run("Have_"+name, func(t *testing.T) {
			if !ok {
				t.Fatal("no slot", name)
			}
		})
	}
	for name, want := range checked {
		t.Run("Want_"+name, func(t *testing.T) {
			if !want {
				t.Fatal("unexpected slot", name)
			}
		})
	}
}

// CheckNewSlots is a testing helper to check whether an object has at least
// the slots we expect.
func CheckNewSlots(t *testing.T, obj *urbi.Object, slots []string) {
	t.Helper()
	vm := VM()
	for _, name := range slots {
		t.Run("Have_"+name, func(t *testing.T) {
			if _, ok := vm.GetLocalSlot(obj, name); !ok {
				t.Fatal("no slot", name)
			}
		})
	}
}

// Output collects the lines a connection writes.
type Output struct {
	b strings.Builder
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.b.Write(p)
}

// Lines returns the written lines with their timestamps removed.
func (o *Output) Lines() []string {
	s := strings.TrimSuffix(o.b.String(), "\n")
	if s == "" {
		return nil
	}
	l := strings.Split(s, "\n")
	for i, line := range l {
		if k := strings.Index(line, "] "); strings.HasPrefix(line, "[") && k >= 0 {
			l[i] = line[k+2:]
		}
	}
	return l
}

// String returns everything written so far.
func (o *Output) String() string {
	return o.b.String()
}
