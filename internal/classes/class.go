package classes

import (
	"strings"

	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/types"
)

// Entity is the closed sum of class variants held by the registry:
// *Class (plain classes and their metaclasses), *GenericClass (generic
// classes and generic metaclasses), *SpecializedClass and
// *SpecializedMetaClass.
type Entity interface {
	// FullName is the registry name, e.g. "Pair", "Meta:Pair",
	// "Pair<Int,Bool>" or "Meta:Pair<Int,Bool>".
	FullName() string
	// ClassType is the type of the entity itself when used as a value:
	// Raw, Meta, GenMeta, Spe or SpeMeta.
	ClassType() types.Term
	// Superclass is the superclass template, NoParent for the roots.
	// Inside a generic class it may contain free type parameters.
	Superclass() types.Term
	// LookupMethod finds an instance method defined directly on the entity.
	LookupMethod(name string) (*Method, bool)
	// IVarNamed finds an instance variable by name.
	IVarNamed(name string) (*IVar, bool)
}

// IVar is an instance variable, declared implicitly by an initializer
// parameter. Ty is resolved by the header pass.
type IVar struct {
	Name string
	Spec *ast.TypeSpec
	Ty   types.Term
}

// Class is a plain user or built-in class. With the meta flag set, the same
// struct represents a metaclass: its Methods are then the described class's
// class-level methods plus the synthetic constructor.
type Class struct {
	Name          string
	SuperTemplate types.Term
	IVars         []*IVar
	Methods       map[string]*Method
	meta          bool
}

func (c *Class) FullName() string { return c.Name }

func (c *Class) ClassType() types.Term {
	if c.meta {
		return types.Meta{Name: c.BaseName()}
	}
	return types.Raw{Name: c.Name}
}

func (c *Class) Superclass() types.Term { return c.SuperTemplate }

func (c *Class) LookupMethod(name string) (*Method, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

func (c *Class) IVarNamed(name string) (*IVar, bool) {
	for _, iv := range c.IVars {
		if iv.Name == name {
			return iv, true
		}
	}
	return nil, false
}

// IsMeta reports whether the entity is a metaclass.
func (c *Class) IsMeta() bool { return c.meta }

// BaseName strips the metaclass prefix: the base name of "Meta:A" is "A".
func (c *Class) BaseName() string {
	return strings.TrimPrefix(c.Name, config.MetaPrefix)
}

// GenericClass is a class parameterized by type parameters, or (with the
// meta flag of the embedded Class) the metaclass of one. Specializations
// are cached on the class entity, keyed by the canonical form of their
// type arguments, and folded into the registry's top-level map after
// analysis.
type GenericClass struct {
	Class
	TypeParams []string

	specs     map[string]*SpecializedClass
	metaSpecs map[string]*SpecializedMetaClass
	specOrder []string
}

func (g *GenericClass) ClassType() types.Term {
	return types.GenMeta{Name: g.BaseName(), Params: g.TypeParams}
}

// ParamTerms returns the type parameters as free Param terms, for seeding
// the typarams slot of the class-body environment.
func (g *GenericClass) ParamTerms() types.Subst {
	s := make(types.Subst, len(g.TypeParams))
	for _, p := range g.TypeParams {
		s[p] = types.Param{Name: p}
	}
	return s
}

// Specializations returns the cached specializations in creation order.
func (g *GenericClass) Specializations() []*SpecializedClass {
	out := make([]*SpecializedClass, 0, len(g.specOrder))
	for _, key := range g.specOrder {
		out = append(out, g.specs[key])
	}
	return out
}
