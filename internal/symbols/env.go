// Package symbols holds the analysis environment: an immutable record that
// threads scope through type checking. Extension never mutates; each With*
// call returns a new record sharing everything it did not touch, so callers
// keep valid views of their own scope.
package symbols

import (
	"strings"

	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/types"
)

// LvarKind describes how a local variable binding may be used.
type LvarKind int

const (
	// LetKind is a write-once binding.
	LetKind LvarKind = iota
	// VarKind is a reassignable binding.
	VarKind
	// ParamKind is a method parameter.
	ParamKind
	// SpecialKind is an implicitly introduced binding.
	SpecialKind
)

func (k LvarKind) String() string {
	switch k {
	case LetKind:
		return "let"
	case VarKind:
		return "var"
	case ParamKind:
		return "param"
	case SpecialKind:
		return "special"
	}
	return "lvar"
}

// Lvar is a local variable binding. Captured marks a lambda capture, which
// is read-only regardless of kind.
type Lvar struct {
	Name     string
	Ty       types.Term
	Kind     LvarKind
	Captured bool
}

// ConstBinding is a class constant; its type is the class's metaclass.
type ConstBinding struct {
	Name string
	Ty   types.Term
}

// Env is the environment record.
type Env struct {
	registry *classes.Registry
	consts   map[string]ConstBinding
	locals   map[string]*Lvar
	self     classes.Entity
	typarams types.Subst
}

// NewEnv builds the root environment over a seeded registry: every
// non-metaclass entity becomes a constant typed as its metaclass.
func NewEnv(reg *classes.Registry) *Env {
	consts := make(map[string]ConstBinding)
	for _, name := range reg.Names() {
		if strings.HasPrefix(name, config.MetaPrefix) {
			continue
		}
		e, _ := reg.Find(name)
		switch cls := e.(type) {
		case *classes.GenericClass:
			consts[name] = ConstBinding{Name: name, Ty: types.GenMeta{Name: name, Params: cls.TypeParams}}
		case *classes.Class:
			consts[name] = ConstBinding{Name: name, Ty: types.Meta{Name: name}}
		}
	}
	return &Env{
		registry: reg,
		consts:   consts,
		locals:   make(map[string]*Lvar),
	}
}

// Registry exposes the class registry.
func (e *Env) Registry() *classes.Registry { return e.registry }

// Self returns the current class, or nil outside class bodies.
func (e *Env) Self() classes.Entity { return e.self }

func (e *Env) clone() *Env {
	c := *e
	return &c
}

// WithLocal returns an environment with one extra (or refreshed) binding.
func (e *Env) WithLocal(lv *Lvar) *Env {
	c := e.clone()
	c.locals = cloneLocals(e.locals, 1)
	c.locals[lv.Name] = lv
	return c
}

// WithLocals shallow-merges delta into the locals slot.
func (e *Env) WithLocals(delta map[string]*Lvar) *Env {
	c := e.clone()
	c.locals = cloneLocals(e.locals, len(delta))
	for name, lv := range delta {
		c.locals[name] = lv
	}
	return c
}

// WithLocalsOnly replaces the locals slot entirely. Lambda bodies use this:
// they see their captures and parameters, nothing else.
func (e *Env) WithLocalsOnly(locals map[string]*Lvar) *Env {
	c := e.clone()
	c.locals = locals
	return c
}

// WithSelf enters a class body.
func (e *Env) WithSelf(self classes.Entity) *Env {
	c := e.clone()
	c.self = self
	return c
}

// WithTyparams installs the type-parameter mapping of a generic class body.
func (e *Env) WithTyparams(tp types.Subst) *Env {
	c := e.clone()
	c.typarams = tp
	return c
}

// Typaram resolves a name against the type-parameter slot.
func (e *Env) Typaram(name string) (types.Term, bool) {
	t, ok := e.typarams[name]
	return t, ok
}

// LookupLvar is the allow-missing lookup used by assignment to distinguish
// a first bind from a reassignment.
func (e *Env) LookupLvar(name string) (*Lvar, bool) {
	lv, ok := e.locals[name]
	return lv, ok
}

// FindLvar resolves a local variable or fails with a NameError.
func (e *Env) FindLvar(name string) (*Lvar, error) {
	if lv, ok := e.locals[name]; ok {
		return lv, nil
	}
	return nil, diagnostics.Namef("undefined local variable %s", name)
}

// FindIvar resolves an instance variable on the current class.
func (e *Env) FindIvar(name string) (*classes.IVar, error) {
	if e.self == nil {
		return nil, diagnostics.Namef("instance variable @%s referenced outside a class", name)
	}
	if iv, ok := e.self.IVarNamed(name); ok {
		return iv, nil
	}
	return nil, diagnostics.Namef("class %s has no instance variable @%s", e.self.FullName(), name)
}

// FindConst resolves a class constant.
func (e *Env) FindConst(name string) (ConstBinding, error) {
	if cb, ok := e.consts[name]; ok {
		return cb, nil
	}
	return ConstBinding{}, diagnostics.Namef("undefined constant %s", name)
}

// FindClass resolves a class by registry name.
func (e *Env) FindClass(name string) (classes.Entity, error) {
	if cls, ok := e.registry.Find(name); ok {
		return cls, nil
	}
	return nil, diagnostics.Namef("class %s not found", name)
}

// FindMetaClass resolves the metaclass of the named class.
func (e *Env) FindMetaClass(name string) (classes.Entity, error) {
	return e.FindClass(types.MetaName(name))
}

// FindMethod resolves a method against a receiver type. Instance types
// dispatch to their class; metaclass types dispatch to the metaclass, which
// is where class-level methods live. Other type variants cannot receive
// calls.
func (e *Env) FindMethod(recv types.Term, name string) (*classes.Method, error) {
	switch recv.(type) {
	case types.Raw, types.Spe, types.Meta, types.GenMeta, types.SpeMeta:
	default:
		return nil, diagnostics.Typef("method %s cannot be called on a value of type %s", name, recv)
	}
	entity, err := e.registry.Materialize(recv)
	if err != nil {
		return nil, err
	}
	for cur := entity; ; {
		if m, ok := cur.LookupMethod(name); ok {
			return m, nil
		}
		sup := cur.Superclass()
		if types.IsNoParent(sup) {
			break
		}
		if _, free := sup.(types.Param); free {
			break
		}
		next, err := e.registry.Materialize(sup)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return nil, diagnostics.Namef("method %s not found on %s", name, recv)
}

// ConformsTo reports sub <= sup: equality, or a transitive subclass walk
// over superclass templates. Type parameters and metaclass types conform
// only by equality.
func (e *Env) ConformsTo(sub, sup types.Term) bool {
	if types.Equal(sub, sup) {
		return true
	}
	if !isInstanceType(sub) || !isInstanceType(sup) {
		return false
	}
	for cur := sub; ; {
		ent, err := e.registry.Materialize(cur)
		if err != nil {
			return false
		}
		st := ent.Superclass()
		if types.IsNoParent(st) {
			return false
		}
		if types.Equal(st, sup) {
			return true
		}
		if _, free := st.(types.Param); free {
			return false
		}
		cur = st
	}
}

func isInstanceType(t types.Term) bool {
	switch t.(type) {
	case types.Raw, types.Spe:
		return true
	}
	return false
}

func cloneLocals(src map[string]*Lvar, extra int) map[string]*Lvar {
	out := make(map[string]*Lvar, len(src)+extra)
	for name, lv := range src {
		out[name] = lv
	}
	return out
}
