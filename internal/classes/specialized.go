package classes

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/types"
)

// SpecializedClass is a generic class applied to concrete type arguments.
// Its methods are the generic's methods with parameters and return types
// substituted; each is materialized on first lookup and memoized.
type SpecializedClass struct {
	Generic  *GenericClass
	TypeArgs []types.Term

	name    string
	methods map[string]*Method
}

func newSpecializedClass(g *GenericClass, args []types.Term) *SpecializedClass {
	return &SpecializedClass{
		Generic:  g,
		TypeArgs: args,
		name:     types.SpecializedName(g.Name, args),
		methods:  make(map[string]*Method),
	}
}

func (s *SpecializedClass) FullName() string { return s.name }

func (s *SpecializedClass) ClassType() types.Term {
	return types.Spe{Name: s.Generic.Name, Args: s.TypeArgs}
}

func (s *SpecializedClass) Superclass() types.Term {
	return s.Generic.SuperTemplate.Substitute(s.subst())
}

func (s *SpecializedClass) LookupMethod(name string) (*Method, bool) {
	if m, ok := s.methods[name]; ok {
		return m, true
	}
	gm, ok := s.Generic.Methods[name]
	if !ok {
		return nil, false
	}
	m := gm.specialized(s.subst())
	s.methods[name] = m
	return m, true
}

func (s *SpecializedClass) IVarNamed(name string) (*IVar, bool) {
	iv, ok := s.Generic.IVarNamed(name)
	if !ok {
		return nil, false
	}
	out := *iv
	if out.Ty != nil {
		out.Ty = out.Ty.Substitute(s.subst())
	}
	return &out, true
}

func (s *SpecializedClass) subst() types.Subst {
	m := make(types.Subst, len(s.Generic.TypeParams))
	for i, p := range s.Generic.TypeParams {
		m[p] = s.TypeArgs[i]
	}
	return m
}

// SpecializedMetaClass is the metaclass of a SpecializedClass. On top of the
// generic metaclass's methods it materializes the synthetic new, whose
// parameters are the generic's initialize parameters under substitution and
// whose return type is the specialized instance type.
type SpecializedMetaClass struct {
	Generic  *GenericClass // the generic class itself
	Meta     *GenericClass // its generic metaclass
	TypeArgs []types.Term

	name    string
	methods map[string]*Method
}

func newSpecializedMetaClass(g, meta *GenericClass, args []types.Term) *SpecializedMetaClass {
	return &SpecializedMetaClass{
		Generic:  g,
		Meta:     meta,
		TypeArgs: args,
		name:     types.MetaName(types.SpecializedName(g.Name, args)),
		methods:  make(map[string]*Method),
	}
}

func (s *SpecializedMetaClass) FullName() string { return s.name }

func (s *SpecializedMetaClass) ClassType() types.Term {
	return types.SpeMeta{Name: s.Generic.Name, Args: s.TypeArgs}
}

func (s *SpecializedMetaClass) Superclass() types.Term {
	return s.Meta.SuperTemplate.Substitute(s.subst())
}

func (s *SpecializedMetaClass) LookupMethod(name string) (*Method, bool) {
	if m, ok := s.methods[name]; ok {
		return m, true
	}
	if name == config.NewMethodName {
		m := s.makeNew()
		s.methods[name] = m
		return m, true
	}
	gm, ok := s.Meta.Methods[name]
	if !ok {
		return nil, false
	}
	m := gm.specialized(s.subst())
	s.methods[name] = m
	return m, true
}

func (s *SpecializedMetaClass) IVarNamed(name string) (*IVar, bool) { return nil, false }

// makeNew builds the constructor for this specialization: the generic's
// initialize parameters under substitution, returning the instance type.
func (s *SpecializedMetaClass) makeNew() *Method {
	sub := s.subst()
	var params []*Param
	var paramTys []types.Term
	if init, ok := s.Generic.Methods[config.InitializerName]; ok {
		params = make([]*Param, len(init.Params))
		paramTys = make([]types.Term, len(init.Params))
		for i, p := range init.Params {
			cp := *p
			cp.DeclaresIvar = false
			if cp.Ty != nil {
				cp.Ty = cp.Ty.Substitute(sub)
			}
			params[i] = &cp
			paramTys[i] = cp.Ty
		}
	}
	ret := types.Spe{Name: s.Generic.Name, Args: s.TypeArgs}
	return &Method{
		Name:   config.NewMethodName,
		Params: params,
		Body:   ast.CreateObjectBody(),
		Sig:    &types.Method{Name: config.NewMethodName, Params: paramTys, Return: ret},
	}
}

func (s *SpecializedMetaClass) subst() types.Subst {
	m := make(types.Subst, len(s.Generic.TypeParams))
	for i, p := range s.Generic.TypeParams {
		m[p] = s.TypeArgs[i]
	}
	return m
}
