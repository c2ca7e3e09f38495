// Package ast defines the program tree executed by the urbi runtime.
//
// The tree is produced by a front end that is not part of this module; hosts
// may also build it directly or decode it from YAML with Decode. Nodes are
// immutable once built and may be shared freely, e.g. closures keep a
// reference to their routine body for as long as they live.
//
// Node is a closed sum type: only the types in this package implement it, so
// a type switch over nodes in the interpreter can be checked for coverage.
package ast

import "fmt"

// Loc is the source location of a node. It is used only for diagnostics.
type Loc struct {
	File      string
	Line, Col int
}

// String formats the location as file:line:col.
func (l Loc) String() string {
	f := l.File
	if f == "" {
		f = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", f, l.Line, l.Col)
}

// Node is an element of a program tree.
type Node interface {
	// Pos returns the node's location.
	Pos() Loc
	node()
}

// Span is embedded in every node to carry its location.
type Span struct {
	L Loc
}

// Pos returns the node's location.
func (a Span) Pos() Loc {
	return a.L
}

func (Span) node() {}

// Flavor is the separator following a statement in a sequence, or the
// evaluation style of a loop.
type Flavor int

// Statement flavors.
const (
	// Semicolon is sequential with a scheduling yield before the next
	// statement.
	Semicolon Flavor = iota
	// Pipe is sequential without yielding.
	Pipe
	// Comma launches the statement in a background child job.
	Comma
)

var flavorNames = [...]string{";", "|", ","}

// String returns the separator character for the flavor.
func (f Flavor) String() string {
	if f < Semicolon || f > Comma {
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
	return flavorNames[f]
}

// VarRef addresses a local variable. Index selects the slot in the current
// frame's locals, or in its captured variables if Captured is set. Name is
// used only for diagnostics.
type VarRef struct {
	Name     string
	Index    int
	Captured bool
}

func (r VarRef) String() string {
	if r.Captured {
		return fmt.Sprintf("%s@c%d", r.Name, r.Index)
	}
	return fmt.Sprintf("%s@l%d", r.Name, r.Index)
}
