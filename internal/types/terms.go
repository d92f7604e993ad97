package types

import (
	"strings"

	"github.com/funvibe/shale/internal/config"
)

// Term is the interface for all type terms in the system.
// The algebra is closed: the eight variants below are the only implementations.
type Term interface {
	String() string
	// Key returns the canonical form used as a map key when caching
	// specializations. Two terms are equal iff their keys are equal.
	Key() string
	// Substitute replaces free type parameters according to s.
	Substitute(s Subst) Term
	term()
}

// Subst maps type-parameter names to the terms that replace them.
type Subst map[string]Term

// Raw is the instance type of a nominal non-generic class, e.g. Int.
type Raw struct {
	Name string
}

func (t Raw) String() string        { return t.Name }
func (t Raw) Key() string           { return t.Name }
func (t Raw) Substitute(Subst) Term { return t }
func (t Raw) term()                 {}

// Meta is the metaclass of Raw(Name): the type of the class constant.
type Meta struct {
	Name string
}

func (t Meta) String() string        { return config.MetaPrefix + t.Name }
func (t Meta) Key() string           { return config.MetaPrefix + t.Name }
func (t Meta) Substitute(Subst) Term { return t }
func (t Meta) term()                 {}

// GenMeta is the metaclass of an unspecialized generic class, e.g. the type
// of the constant Pair for class Pair<A, B>.
type GenMeta struct {
	Name   string
	Params []string
}

func (t GenMeta) String() string {
	return config.MetaPrefix + t.Name + "<" + strings.Join(t.Params, ",") + ">"
}

func (t GenMeta) Key() string           { return t.String() }
func (t GenMeta) Substitute(Subst) Term { return t }
func (t GenMeta) term()                 {}

// Spe is a generic class specialized at concrete type arguments,
// e.g. Array<Int> or Pair<Int, Bool>.
type Spe struct {
	Name string
	Args []Term
}

func (t Spe) String() string { return SpecializedName(t.Name, t.Args) }
func (t Spe) Key() string    { return t.Name + "<" + KeyList(t.Args) + ">" }

func (t Spe) Substitute(s Subst) Term {
	return Spe{Name: t.Name, Args: substituteAll(t.Args, s)}
}

func (t Spe) term() {}

// SpeMeta is the metaclass of Spe(Name, Args).
type SpeMeta struct {
	Name string
	Args []Term
}

func (t SpeMeta) String() string { return config.MetaPrefix + SpecializedName(t.Name, t.Args) }
func (t SpeMeta) Key() string    { return config.MetaPrefix + t.Name + "<" + KeyList(t.Args) + ">" }

func (t SpeMeta) Substitute(s Subst) Term {
	return SpeMeta{Name: t.Name, Args: substituteAll(t.Args, s)}
}

func (t SpeMeta) term() {}

// Param is a free type parameter within a generic-class body.
type Param struct {
	Name string
}

func (t Param) String() string { return t.Name }

// The "^" prefix keeps a parameter named T distinct from a class named T.
func (t Param) Key() string { return "^" + t.Name }

func (t Param) Substitute(s Subst) Term {
	if r, ok := s[t.Name]; ok {
		return r
	}
	return t
}

func (t Param) term() {}

// Method is a method signature: name, parameter types and return type.
type Method struct {
	Name   string
	Params []Term
	Return Term
}

func (t Method) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "#" + t.Name + "(" + strings.Join(parts, ",") + ")->" + t.Return.String()
}

func (t Method) Key() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.Key()
	}
	return "#" + t.Name + "(" + strings.Join(parts, ",") + ")->" + t.Return.Key()
}

func (t Method) Substitute(s Subst) Term {
	return Method{
		Name:   t.Name,
		Params: substituteAll(t.Params, s),
		Return: t.Return.Substitute(s),
	}
}

func (t Method) term() {}

// NoParent is the pseudo-type marking the absence of a superclass.
// Only the root classes carry it as their superclass template.
type NoParent struct{}

func (t NoParent) String() string        { return "__noparent__" }
func (t NoParent) Key() string           { return "__noparent__" }
func (t NoParent) Substitute(Subst) Term { return t }
func (t NoParent) term()                 {}

// IsNoParent reports whether t is the no-superclass sentinel.
func IsNoParent(t Term) bool {
	_, ok := t.(NoParent)
	return ok
}

// Equal reports structural equality of two terms.
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// SpecializedName is the registry name of a specialization: "G<T1,T2>".
func SpecializedName(name string, args []Term) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return name + "<" + strings.Join(parts, ",") + ">"
}

// MetaName is the registry name of the metaclass of the named class.
func MetaName(name string) string { return config.MetaPrefix + name }

// KeyList joins the keys of args with "," for use as a specialization
// cache key.
func KeyList(args []Term) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Key()
	}
	return strings.Join(parts, ",")
}

// InstanceOf returns the instance type described by a metaclass term:
// Meta(T) yields Raw(T) and SpeMeta(G, args) yields Spe(G, args).
func InstanceOf(t Term) (Term, bool) {
	switch m := t.(type) {
	case Meta:
		return Raw{Name: m.Name}, true
	case SpeMeta:
		return Spe{Name: m.Name, Args: m.Args}, true
	}
	return nil, false
}

// MetaOf returns the metaclass term for an instance type.
func MetaOf(t Term) (Term, bool) {
	switch i := t.(type) {
	case Raw:
		return Meta{Name: i.Name}, true
	case Spe:
		return SpeMeta{Name: i.Name, Args: i.Args}, true
	}
	return nil, false
}

func substituteAll(ts []Term, s Subst) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = t.Substitute(s)
	}
	return out
}
