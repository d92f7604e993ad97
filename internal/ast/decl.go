package ast

import (
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/types"
)

// ParamDecl is a method parameter. A parameter of the initializer with
// DeclaresIvar set also declares an instance variable of the same name and
// type on the enclosing class. A vararg parameter gathers the arguments not
// taken by the parameters before and after it into an Array; at most one may
// appear, anywhere in the list.
type ParamDecl struct {
	Name         string
	Spec         *TypeSpec
	IsVararg     bool
	DeclaresIvar bool
}

// MethodDecl is a method as parsed. A nil RetSpec means Void.
type MethodDecl struct {
	Name    string
	Params  []*ParamDecl
	RetSpec *TypeSpec
	Body    []Expression
}

// ClassDecl is a user class declaration. A nil Superclass means Object.
// A non-empty TypeParams makes the class generic. Ty is filled by analysis
// with the class type: Raw for a plain class, GenMeta for a generic one.
type ClassDecl struct {
	Name            string
	Superclass      *TypeSpec
	TypeParams      []string
	InstanceMethods []*MethodDecl
	ClassMethods    []*MethodDecl

	Ty types.Term
}

// Initializer returns the class's initialize method, if declared.
func (c *ClassDecl) Initializer() *MethodDecl {
	for _, m := range c.InstanceMethods {
		if m.Name == config.InitializerName {
			return m
		}
	}
	return nil
}

// Program is a parsed compilation unit: the class declarations in source
// order and the top-level statements.
type Program struct {
	Classes []*ClassDecl
	Main    []Expression
}
