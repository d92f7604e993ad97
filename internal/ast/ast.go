package ast

import (
	"fmt"
	"strings"

	"github.com/funvibe/shale/internal/types"
)

// Expression is a node of the untyped program tree. Every node carries a
// type slot that analysis fills exactly once.
type Expression interface {
	// Term returns the resolved type, or nil before analysis.
	Term() types.Term
	// Annotate stores the resolved type. Annotating a node twice is an error.
	Annotate(t types.Term) error
	exprNode()
}

// typed owns the one-shot type slot shared by all expression variants.
type typed struct {
	ty types.Term
}

func (n *typed) Term() types.Term { return n.ty }

func (n *typed) Annotate(t types.Term) error {
	if n.ty != nil {
		return fmt.Errorf("node already typed as %s", n.ty)
	}
	n.ty = t
	return nil
}

// IntLiteral is an integer literal, e.g. 42.
type IntLiteral struct {
	typed
	Value int64
}

// FloatLiteral is a floating-point literal, e.g. 1.5. The parser emits a
// distinct kind for it; it never arrives as an IntLiteral.
type FloatLiteral struct {
	typed
	Value float64
}

// BoolLiteral is true or false.
type BoolLiteral struct {
	typed
	Value bool
}

// LvarRef reads a local variable.
type LvarRef struct {
	typed
	Name string
}

// IvarRef reads an instance variable of the enclosing class, e.g. @a.
type IvarRef struct {
	typed
	Name string
}

// ConstRef reads a class constant, e.g. Array.
type ConstRef struct {
	typed
	Name string
}

// AssignLvar binds or reassigns a local variable. IsVar marks the binding
// reassignable; without it the variable is write-once.
type AssignLvar struct {
	typed
	Name  string
	Value Expression
	IsVar bool
}

// AssignIvar assigns to an instance variable of the enclosing class.
type AssignIvar struct {
	typed
	Name  string
	Value Expression
}

// If is the conditional expression. Branches are statement sequences whose
// bindings do not escape.
type If struct {
	typed
	Cond Expression
	Then []Expression
	Else []Expression
}

// MethodCall invokes a method on a receiver.
type MethodCall struct {
	typed
	Receiver Expression
	Method   string
	Args     []Expression
}

// ClassSpecialization applies type arguments to a generic class constant,
// e.g. Pair<Int, Bool>.
type ClassSpecialization struct {
	typed
	Class    Expression
	TypeArgs []Expression
}

// ArrayLiteral is [e1, e2, ...]. All elements must share one type.
type ArrayLiteral struct {
	typed
	Elements []Expression
}

// Return exits the enclosing method with a value. A nil Value returns Void.
type Return struct {
	typed
	Value Expression
}

// Lambda creates an anonymous function. Captures lists the enclosing locals
// visible inside the body, in order; they are read-only there.
type Lambda struct {
	typed
	Params   []*ParamDecl
	Body     []Expression
	Captures []string
}

// LambdaCall invokes a lambda value through its call method.
type LambdaCall struct {
	typed
	Target Expression
	Args   []Expression
}

// CreateObject is the canonical body marker of a synthesized constructor.
// Method checking recognizes it and skips the body; it never appears in
// user-written code.
type CreateObject struct {
	typed
}

func (*IntLiteral) exprNode()          {}
func (*FloatLiteral) exprNode()        {}
func (*BoolLiteral) exprNode()         {}
func (*LvarRef) exprNode()             {}
func (*IvarRef) exprNode()             {}
func (*ConstRef) exprNode()            {}
func (*AssignLvar) exprNode()          {}
func (*AssignIvar) exprNode()          {}
func (*If) exprNode()                  {}
func (*MethodCall) exprNode()          {}
func (*ClassSpecialization) exprNode() {}
func (*ArrayLiteral) exprNode()        {}
func (*Return) exprNode()              {}
func (*Lambda) exprNode()              {}
func (*LambdaCall) exprNode()          {}
func (*CreateObject) exprNode()        {}

// CreateObjectBody is the body of a synthesized constructor: the single
// create-object marker.
func CreateObjectBody() []Expression {
	return []Expression{&CreateObject{}}
}

// IsCreateObjectBody reports whether body is exactly the create-object marker.
func IsCreateObjectBody(body []Expression) bool {
	if len(body) != 1 {
		return false
	}
	_, ok := body[0].(*CreateObject)
	return ok
}

// TypeSpec is an unresolved type annotation as written in the source,
// e.g. Int, A, or Array<T>. Analysis resolves it against the environment.
type TypeSpec struct {
	Name string
	Args []*TypeSpec
}

func (s *TypeSpec) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Name + "<" + strings.Join(parts, ",") + ">"
}
