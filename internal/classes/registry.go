package classes

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/types"
)

// Registry holds every known class entity by full name. It is the only
// mutable structure of the analysis: it is populated once from the corelib
// manifest and the user declarations, grows by specialization memoization
// while checking, and is flattened at the end so downstream consumers see
// every concrete class by name.
type Registry struct {
	classes map[string]Entity
	order   []string

	// specializations created during analysis, folded into classes by
	// Flatten
	specialized map[string]Entity
	specOrder   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		classes:     make(map[string]Entity),
		specialized: make(map[string]Entity),
	}
}

// Seed builds a registry from the corelib manifest and the user class
// declarations. Each user class gets a companion metaclass holding its
// class-level methods; non-generic classes additionally get a synthetic
// constructor whose body is the create-object marker.
func Seed(builtins []Entity, decls []*ast.ClassDecl) (*Registry, error) {
	r := New()
	for _, e := range builtins {
		if err := r.register(e); err != nil {
			return nil, err
		}
	}
	for _, d := range decls {
		cls, meta, err := build(d)
		if err != nil {
			return nil, err
		}
		if err := r.register(cls); err != nil {
			return nil, err
		}
		if err := r.register(meta); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(e Entity) error {
	name := e.FullName()
	if _, ok := r.classes[name]; ok {
		return diagnostics.Programf("class %s is already defined", name)
	}
	r.classes[name] = e
	r.order = append(r.order, name)
	return nil
}

// Find looks up an entity by full name. During analysis it also sees
// specializations that have not been flattened yet.
func (r *Registry) Find(name string) (Entity, bool) {
	if e, ok := r.classes[name]; ok {
		return e, true
	}
	e, ok := r.specialized[name]
	return e, ok
}

// Names returns all registered names in creation order. After Flatten this
// includes every specialization.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Specialize materializes (or returns the cached) specialization of g at
// the given type arguments, along with its metaclass. Both are keyed into
// the generic's cache and become visible to Find immediately.
func (r *Registry) Specialize(g *GenericClass, args []types.Term) (*SpecializedClass, *SpecializedMetaClass, error) {
	if len(args) != len(g.TypeParams) {
		return nil, nil, diagnostics.Typef(
			"wrong number of type arguments for %s (given %d, expected %d)",
			g.Name, len(args), len(g.TypeParams))
	}
	key := types.KeyList(args)
	if sc, ok := g.specs[key]; ok {
		return sc, g.metaSpecs[key], nil
	}
	meta, ok := r.Find(types.MetaName(g.Name))
	if !ok {
		return nil, nil, diagnostics.Namef("metaclass of %s not found", g.Name)
	}
	gm, ok := meta.(*GenericClass)
	if !ok {
		return nil, nil, diagnostics.Typef("%s is not a generic class", types.MetaName(g.Name))
	}
	sc := newSpecializedClass(g, args)
	sm := newSpecializedMetaClass(g, gm, args)
	g.specs[key] = sc
	g.metaSpecs[key] = sm
	g.specOrder = append(g.specOrder, key)
	r.specialized[sc.FullName()] = sc
	r.specialized[sm.FullName()] = sm
	r.specOrder = append(r.specOrder, sc.FullName(), sm.FullName())
	return sc, sm, nil
}

// SpecializeNamed is Specialize addressed by class name.
func (r *Registry) SpecializeNamed(name string, args []types.Term) (*SpecializedClass, *SpecializedMetaClass, error) {
	e, ok := r.Find(name)
	if !ok {
		return nil, nil, diagnostics.Namef("class %s not found", name)
	}
	g, ok := e.(*GenericClass)
	if !ok {
		return nil, nil, diagnostics.Typef("%s is not a generic class", name)
	}
	return r.Specialize(g, args)
}

// Materialize resolves a type term to its class entity, creating the
// specialization when needed.
func (r *Registry) Materialize(t types.Term) (Entity, error) {
	switch ty := t.(type) {
	case types.Raw:
		if e, ok := r.Find(ty.Name); ok {
			return e, nil
		}
		return nil, diagnostics.Namef("class %s not found", ty.Name)
	case types.Meta:
		if e, ok := r.Find(types.MetaName(ty.Name)); ok {
			return e, nil
		}
		return nil, diagnostics.Namef("class %s not found", types.MetaName(ty.Name))
	case types.GenMeta:
		if e, ok := r.Find(types.MetaName(ty.Name)); ok {
			return e, nil
		}
		return nil, diagnostics.Namef("class %s not found", types.MetaName(ty.Name))
	case types.Spe:
		sc, _, err := r.SpecializeNamed(ty.Name, ty.Args)
		if err != nil {
			return nil, err
		}
		return sc, nil
	case types.SpeMeta:
		_, sm, err := r.SpecializeNamed(ty.Name, ty.Args)
		if err != nil {
			return nil, err
		}
		return sm, nil
	}
	return nil, diagnostics.Typef("no class corresponds to type %s", t)
}

// Flatten folds every specialization created during analysis into the
// top-level class map.
func (r *Registry) Flatten() {
	for _, name := range r.specOrder {
		if _, ok := r.classes[name]; ok {
			continue
		}
		r.classes[name] = r.specialized[name]
		r.order = append(r.order, name)
	}
}

// build turns one class declaration into its class entity and companion
// metaclass.
func build(d *ast.ClassDecl) (Entity, Entity, error) {
	typarams := make(map[string]bool, len(d.TypeParams))
	for _, p := range d.TypeParams {
		typarams[p] = true
	}

	super := types.Term(types.Raw{Name: config.ObjectClassName})
	if d.Superclass != nil {
		super = templateFromSpec(d.Superclass, typarams)
	}

	methods, err := methodMap(d.Name, d.InstanceMethods)
	if err != nil {
		return nil, nil, err
	}
	ivars, err := ivarsOf(d)
	if err != nil {
		return nil, nil, err
	}

	metaMethods, err := methodMap(types.MetaName(d.Name), d.ClassMethods)
	if err != nil {
		return nil, nil, err
	}

	if len(d.TypeParams) > 0 {
		// No constructor on the generic metaclass itself: new exists only
		// on each specialized metaclass.
		cls := NewGenericClass(d.Name, d.TypeParams, super, nil)
		cls.IVars = ivars
		cls.Methods = methods
		meta := NewGenericMetaClass(d.Name, d.TypeParams, metaTemplate(super), nil)
		meta.Methods = metaMethods
		return cls, meta, nil
	}

	cls := &Class{Name: d.Name, SuperTemplate: super, IVars: ivars, Methods: methods}
	metaMethods[config.NewMethodName] = syntheticNew(d)
	meta := &Class{
		Name:          types.MetaName(d.Name),
		SuperTemplate: metaTemplate(super),
		Methods:       metaMethods,
		meta:          true,
	}
	return cls, meta, nil
}

// syntheticNew builds the constructor installed on a metaclass: the
// initializer's parameters, the class's own type as return, and the
// create-object marker as body.
func syntheticNew(d *ast.ClassDecl) *Method {
	var params []*Param
	if init := d.Initializer(); init != nil {
		params = make([]*Param, len(init.Params))
		for i, p := range init.Params {
			params[i] = &Param{Name: p.Name, Spec: p.Spec, IsVararg: p.IsVararg}
		}
	}
	return &Method{
		Name:    config.NewMethodName,
		Params:  params,
		RetSpec: &ast.TypeSpec{Name: d.Name},
		Body:    ast.CreateObjectBody(),
	}
}

func methodMap(owner string, decls []*ast.MethodDecl) (map[string]*Method, error) {
	out := make(map[string]*Method, len(decls))
	for _, d := range decls {
		if _, ok := out[d.Name]; ok {
			return nil, diagnostics.Programf("method %s is already defined on %s", d.Name, owner)
		}
		out[d.Name] = FromDecl(d)
	}
	return out, nil
}

// ivarsOf collects the instance variables a class declares through its
// initializer's ivar-declaring parameters.
func ivarsOf(d *ast.ClassDecl) ([]*IVar, error) {
	init := d.Initializer()
	if init == nil {
		return nil, nil
	}
	var out []*IVar
	seen := make(map[string]bool)
	for _, p := range init.Params {
		if !p.DeclaresIvar {
			continue
		}
		if seen[p.Name] {
			return nil, diagnostics.Programf("instance variable @%s is declared twice on %s", p.Name, d.Name)
		}
		seen[p.Name] = true
		out = append(out, &IVar{Name: p.Name, Spec: p.Spec})
	}
	return out, nil
}

// templateFromSpec resolves a superclass annotation structurally: names
// listed in typarams become free parameters, everything else is nominal.
func templateFromSpec(spec *ast.TypeSpec, typarams map[string]bool) types.Term {
	if typarams[spec.Name] && len(spec.Args) == 0 {
		return types.Param{Name: spec.Name}
	}
	if len(spec.Args) == 0 {
		return types.Raw{Name: spec.Name}
	}
	args := make([]types.Term, len(spec.Args))
	for i, a := range spec.Args {
		args[i] = templateFromSpec(a, typarams)
	}
	return types.Spe{Name: spec.Name, Args: args}
}

// metaTemplate lifts a superclass template to the metaclass side.
func metaTemplate(t types.Term) types.Term {
	switch ty := t.(type) {
	case types.Raw:
		return types.Meta{Name: ty.Name}
	case types.Spe:
		return types.SpeMeta{Name: ty.Name, Args: ty.Args}
	}
	return t
}

// NewClass builds a plain class entity for the corelib manifest.
func NewClass(name string, super types.Term, methods []*Method) *Class {
	return &Class{Name: name, SuperTemplate: super, Methods: asMap(methods)}
}

// NewMetaClass builds the metaclass of the named class for the corelib
// manifest. The name passed is the base class name.
func NewMetaClass(name string, super types.Term, methods []*Method) *Class {
	return &Class{
		Name:          types.MetaName(name),
		SuperTemplate: super,
		Methods:       asMap(methods),
		meta:          true,
	}
}

// NewGenericClass builds a generic class entity.
func NewGenericClass(name string, params []string, super types.Term, methods []*Method) *GenericClass {
	return &GenericClass{
		Class:      Class{Name: name, SuperTemplate: super, Methods: asMap(methods)},
		TypeParams: params,
		specs:      make(map[string]*SpecializedClass),
		metaSpecs:  make(map[string]*SpecializedMetaClass),
	}
}

// NewGenericMetaClass builds the metaclass of a generic class. The name
// passed is the base class name.
func NewGenericMetaClass(name string, params []string, super types.Term, methods []*Method) *GenericClass {
	return &GenericClass{
		Class: Class{
			Name:          types.MetaName(name),
			SuperTemplate: super,
			Methods:       asMap(methods),
			meta:          true,
		},
		TypeParams: params,
		specs:      make(map[string]*SpecializedClass),
		metaSpecs:  make(map[string]*SpecializedMetaClass),
	}
}

func asMap(methods []*Method) map[string]*Method {
	out := make(map[string]*Method, len(methods))
	for _, m := range methods {
		out[m.Name] = m
	}
	return out
}
