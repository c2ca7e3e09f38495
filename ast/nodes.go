package ast

// Literals.
type (
	// Float is a numeric literal.
	Float struct {
		Span
		Value float64
	}
	// String is a string literal.
	String struct {
		Span
		Value string
	}
	// Bool is true or false.
	Bool struct {
		Span
		Value bool
	}
	// Nil evaluates to the nil object.
	Nil struct{ Span }
	// Void evaluates to the distinguished void value.
	Void struct{ Span }
	// List builds a new list from its elements.
	List struct {
		Span
		Elems []Node
	}
	// Dict builds a new dictionary. Keys and Values have equal length.
	Dict struct {
		Span
		Keys   []Node
		Values []Node
	}
)

// Sequences and control flow.
type (
	// Stmt is one statement of a Nary, with the separator that follows it.
	Stmt struct {
		Expr   Node
		Flavor Flavor
	}
	// Nary is a sequence of statements, i.e. a scope body.
	Nary struct {
		Span
		Stmts []Stmt
	}
	// And runs its children in parallel and waits for all of them.
	And struct {
		Span
		Children []Node
	}
	// While repeats Body as long as Cond is true. A nil Cond loops forever.
	While struct {
		Span
		Cond   Node
		Body   Node
		Flavor Flavor
	}
	// Foreach evaluates Body once per element of List, binding Ref.
	Foreach struct {
		Span
		Ref    VarRef
		List   Node
		Body   Node
		Flavor Flavor
	}
	// If evaluates Then when Cond is true and Else otherwise. Else may be
	// nil.
	If struct {
		Span
		Cond, Then, Else Node
	}
	// Break exits the innermost loop.
	Break struct{ Span }
	// Continue restarts the innermost loop.
	Continue struct{ Span }
	// Return exits the innermost routine. Value may be nil.
	Return struct {
		Span
		Value Node
	}
)

// Routines and calls.
type (
	// Formal is a routine parameter. Default and Type may be nil. Type
	// evaluates to an object that arguments must inherit from.
	Formal struct {
		Name    string
		Ref     VarRef
		Default Node
		Type    Node
		Rest    bool
	}
	// Routine is a function or closure literal. Locals is the number of
	// local variable cells its frame needs; Captures names, for each
	// captured variable, where to find it in the defining frame.
	Routine struct {
		Span
		Name     string
		Formals  []Formal
		Locals   int
		Captures []VarRef
		Body     Node
		Closure  bool
		Strict   bool
		UsesCall bool
	}
	// Call sends a message to Target, or to this if Target is nil. Args nil
	// means no argument list was given, as in a plain slot read.
	Call struct {
		Span
		Target Node
		Name   string
		Args   []Node
	}
	// Invoke applies a computed callable to arguments.
	Invoke struct {
		Span
		Callee Node
		Args   []Node
	}
	// This evaluates to the current target.
	This struct{ Span }
	// CallMsg evaluates to the reified call message of the current routine.
	CallMsg struct{ Span }
	// CurrentException evaluates to the exception being handled.
	CurrentException struct{ Span }
)

// Variables, slots and properties.
type (
	// Local reads a local variable.
	Local struct {
		Span
		Ref VarRef
	}
	// Assign writes an existing local variable.
	Assign struct {
		Span
		Ref   VarRef
		Value Node
	}
	// Declare creates a fresh local variable cell. Value may be nil.
	Declare struct {
		Span
		Ref   VarRef
		Value Node
	}
	// SlotAssign writes a slot on Target (this if nil). With Declare, the
	// slot is created on the target itself; otherwise it must already be
	// reachable. Const marks a newly declared slot as constant.
	SlotAssign struct {
		Span
		Target  Node
		Name    string
		Value   Node
		Declare bool
		Const   bool
	}
	// Property reads a property of a slot, as in x.y->changed.
	Property struct {
		Span
		Target Node
		Slot   string
		Prop   string
	}
	// PropertyAssign writes a property of a slot.
	PropertyAssign struct {
		Span
		Target Node
		Slot   string
		Prop   string
		Value  Node
	}
)

// Tags and exceptions.
type (
	// TagScope evaluates Body within the tag Tag evaluates to.
	TagScope struct {
		Span
		Tag  Node
		Body Node
	}
	// Handler is one catch clause. Guard may be nil.
	Handler struct {
		Pattern Pattern
		Guard   Node
		Body    Node
	}
	// Try runs Body and handles exceptions it raises. Else, if non-nil,
	// replaces the body's result on normal completion.
	Try struct {
		Span
		Body     Node
		Handlers []Handler
		Else     Node
	}
	// Throw raises Value, or rethrows the current exception if Value is nil.
	Throw struct {
		Span
		Value Node
	}
)

// Events.
type (
	// Watch evaluates to an event that carries each new value of Guard.
	Watch struct {
		Span
		Guard Node
	}
	// At runs Enter when Guard becomes true and Leave when it becomes false.
	// Leave may be nil.
	At struct {
		Span
		Guard Node
		Enter Node
		Leave Node
	}
	// AtEvent runs Enter each time Event is emitted or triggered with a
	// payload matching Patterns and Guard, and Leave when that trigger
	// ends.
	AtEvent struct {
		Span
		Event    Node
		Patterns []Pattern
		Guard    Node
		Enter    Node
		Leave    Node
	}
	// Whenever repeats Body while Guard is true and Else while it is false.
	// Else may be nil.
	Whenever struct {
		Span
		Guard Node
		Body  Node
		Else  Node
	}
	// WaitUntil suspends the job until Guard is true.
	WaitUntil struct {
		Span
		Guard Node
	}
)

// Pattern is a matcher used by catch clauses and event handlers.
type Pattern interface {
	pattern()
}

type (
	// PatternAny matches anything.
	PatternAny struct{}
	// PatternBind matches anything and stores it in a fresh variable.
	PatternBind struct {
		Ref VarRef
	}
	// PatternValue matches values equal to Value.
	PatternValue struct {
		Value Node
	}
	// PatternList matches lists element-wise.
	PatternList struct {
		Elems []Pattern
	}
)

func (PatternAny) pattern()   {}
func (PatternBind) pattern()  {}
func (PatternValue) pattern() {}
func (PatternList) pattern()  {}
