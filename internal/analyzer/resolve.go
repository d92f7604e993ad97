package analyzer

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/symbols"
	"github.com/funvibe/shale/internal/types"
)

// resolveSpec turns a written type annotation into a type term. Names bound
// as type parameters resolve to free Param terms; generic classes require
// type arguments and are materialized as soon as the arguments are concrete.
func (w *walker) resolveSpec(spec *ast.TypeSpec, env *symbols.Env) (types.Term, error) {
	if spec == nil {
		return types.Void, nil
	}
	if t, ok := env.Typaram(spec.Name); ok {
		if len(spec.Args) > 0 {
			return nil, diagnostics.Typef("type parameter %s cannot take type arguments", spec.Name)
		}
		return t, nil
	}
	cls, err := env.FindClass(spec.Name)
	if err != nil {
		return nil, err
	}
	g, generic := cls.(*classes.GenericClass)
	if len(spec.Args) == 0 {
		if generic {
			return nil, diagnostics.Typef("generic class %s requires type arguments", spec.Name)
		}
		return types.Raw{Name: spec.Name}, nil
	}
	if !generic {
		return nil, diagnostics.Typef("%s is not a generic class", spec.Name)
	}
	args := make([]types.Term, len(spec.Args))
	for i, a := range spec.Args {
		if args[i], err = w.resolveSpec(a, env); err != nil {
			return nil, err
		}
	}
	if containsParamList(args) {
		// Still generic over an enclosing type parameter; specialization
		// happens when the parameter is bound.
		return types.Spe{Name: spec.Name, Args: args}, nil
	}
	sc, _, err := w.registry.Specialize(g, args)
	if err != nil {
		return nil, err
	}
	return sc.ClassType(), nil
}

// resolveClassHeaders resolves the instance-variable types and every method
// signature of a class and its metaclass.
func (w *walker) resolveClassHeaders(decl *ast.ClassDecl, env *symbols.Env) error {
	entity, err := env.FindClass(decl.Name)
	if err != nil {
		return err
	}
	meta, err := env.FindMetaClass(decl.Name)
	if err != nil {
		return err
	}

	menv := env
	if g, ok := entity.(*classes.GenericClass); ok {
		menv = env.WithTyparams(g.ParamTerms())
	}

	for _, d := range decl.InstanceMethods {
		m, _ := entity.LookupMethod(d.Name)
		if err := w.resolveMethodHeader(m, menv); err != nil {
			return err
		}
	}
	for _, iv := range ivarsOf(entity) {
		if iv.Ty, err = w.resolveSpec(iv.Spec, menv); err != nil {
			return err
		}
	}
	for _, d := range decl.ClassMethods {
		m, _ := meta.LookupMethod(d.Name)
		if err := w.resolveMethodHeader(m, menv); err != nil {
			return err
		}
	}
	if ctor, ok := meta.LookupMethod(config.NewMethodName); ok {
		if err := w.resolveMethodHeader(ctor, menv); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) resolveMethodHeader(m *classes.Method, env *symbols.Env) error {
	if m.Resolved() {
		return nil
	}
	varargs := 0
	ptys := make([]types.Term, len(m.Params))
	for i, p := range m.Params {
		ty, err := w.resolveSpec(p.Spec, env)
		if err != nil {
			return err
		}
		p.Ty = ty
		ptys[i] = ty
		if !p.IsVararg {
			continue
		}
		varargs++
		if _, ok := varargElem(ty); !ok {
			return diagnostics.Typef("vararg parameter %s of %s must be declared Array, got %s", p.Name, m.Name, ty)
		}
	}
	if varargs > 1 {
		return diagnostics.Typef("method %s declares more than one vararg parameter", m.Name)
	}
	ret, err := w.resolveSpec(m.RetSpec, env)
	if err != nil {
		return err
	}
	if m.Name == config.InitializerName && !types.IsVoid(ret) {
		return diagnostics.Typef("initialize must return Void, not %s", ret)
	}
	m.Sig = &types.Method{Name: m.Name, Params: ptys, Return: ret}
	return nil
}

// varargElem extracts E from a vararg's declared Array<E> type.
func varargElem(t types.Term) (types.Term, bool) {
	spe, ok := t.(types.Spe)
	if !ok || spe.Name != config.ArrayClassName || len(spe.Args) != 1 {
		return nil, false
	}
	return spe.Args[0], true
}

func ivarsOf(entity classes.Entity) []*classes.IVar {
	switch cls := entity.(type) {
	case *classes.GenericClass:
		return cls.IVars
	case *classes.Class:
		return cls.IVars
	}
	return nil
}

// containsParam reports whether t mentions a free type parameter.
func containsParam(t types.Term) bool {
	switch ty := t.(type) {
	case types.Param:
		return true
	case types.Spe:
		return containsParamList(ty.Args)
	case types.SpeMeta:
		return containsParamList(ty.Args)
	case types.Method:
		return containsParamList(ty.Params) || containsParam(ty.Return)
	}
	return false
}

func containsParamList(ts []types.Term) bool {
	for _, t := range ts {
		if containsParam(t) {
			return true
		}
	}
	return false
}
