package classes

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/types"
)

// Param is a method parameter. Ty is resolved by the header pass.
type Param struct {
	Name         string
	Spec         *ast.TypeSpec
	Ty           types.Term
	IsVararg     bool
	DeclaresIvar bool
}

// Method is a method of a class entity. Built-in methods arrive from the
// corelib manifest with Sig already filled in; user methods get theirs from
// the header pass. Body is shared with the declaration tree so that the
// annotations placed during body checking appear in the returned program.
type Method struct {
	Name    string
	Params  []*Param
	RetSpec *ast.TypeSpec
	Body    []ast.Expression
	Sig     *types.Method
}

// FromDecl converts a parsed method declaration.
func FromDecl(d *ast.MethodDecl) *Method {
	params := make([]*Param, len(d.Params))
	for i, p := range d.Params {
		params[i] = &Param{
			Name:         p.Name,
			Spec:         p.Spec,
			IsVararg:     p.IsVararg,
			DeclaresIvar: p.DeclaresIvar,
		}
	}
	return &Method{
		Name:    d.Name,
		Params:  params,
		RetSpec: d.RetSpec,
		Body:    d.Body,
	}
}

// VarargIndex returns the position of the vararg parameter, or -1.
func (m *Method) VarargIndex() int {
	for i, p := range m.Params {
		if p.IsVararg {
			return i
		}
	}
	return -1
}

// LeastArity is the minimum number of arguments a call must supply.
func (m *Method) LeastArity() int {
	if m.VarargIndex() >= 0 {
		return len(m.Params) - 1
	}
	return len(m.Params)
}

// Resolved reports whether the header pass has filled in the signature.
func (m *Method) Resolved() bool { return m.Sig != nil }

// specialized returns a copy of the method with every type-parameter
// occurrence replaced per s. The body is shared with the generic method.
func (m *Method) specialized(s types.Subst) *Method {
	params := make([]*Param, len(m.Params))
	for i, p := range m.Params {
		cp := *p
		if cp.Ty != nil {
			cp.Ty = cp.Ty.Substitute(s)
		}
		params[i] = &cp
	}
	out := &Method{
		Name:    m.Name,
		Params:  params,
		RetSpec: m.RetSpec,
		Body:    m.Body,
	}
	if m.Sig != nil {
		sig := m.Sig.Substitute(s).(types.Method)
		out.Sig = &sig
	}
	return out
}
