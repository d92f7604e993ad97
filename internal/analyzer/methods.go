package analyzer

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/symbols"
	"github.com/funvibe/shale/internal/types"
)

// checkClass type-checks one class declaration: instance methods against
// the class itself, class methods against its metaclass. The declaration's
// type slot receives the class type.
func (w *walker) checkClass(decl *ast.ClassDecl, env *symbols.Env) error {
	entity, err := env.FindClass(decl.Name)
	if err != nil {
		return err
	}
	meta, err := env.FindMetaClass(decl.Name)
	if err != nil {
		return err
	}

	cenv := env.WithSelf(entity)
	if g, ok := entity.(*classes.GenericClass); ok {
		cenv = cenv.WithTyparams(g.ParamTerms())
	}
	for _, d := range decl.InstanceMethods {
		m, _ := entity.LookupMethod(d.Name)
		if err := w.checkMethod(m, cenv); err != nil {
			return err
		}
	}

	menv := env.WithSelf(meta)
	if g, ok := meta.(*classes.GenericClass); ok {
		menv = menv.WithTyparams(g.ParamTerms())
	}
	for _, d := range decl.ClassMethods {
		m, _ := meta.LookupMethod(d.Name)
		if err := w.checkMethod(m, menv); err != nil {
			return err
		}
	}

	decl.Ty = entity.ClassType()
	return nil
}

// checkMethod type-checks a method body against its resolved signature.
// A body consisting of the create-object marker belongs to a synthesized
// constructor and is not analyzed.
func (w *walker) checkMethod(m *classes.Method, env *symbols.Env) error {
	if ast.IsCreateObjectBody(m.Body) {
		return nil
	}
	benv := env
	if len(m.Params) > 0 {
		delta := make(map[string]*symbols.Lvar, len(m.Params))
		for _, p := range m.Params {
			delta[p.Name] = &symbols.Lvar{Name: p.Name, Ty: p.Ty, Kind: symbols.ParamKind}
		}
		benv = env.WithLocals(delta)
	}

	var err error
	for _, stmt := range m.Body {
		if benv, err = w.addType(stmt, benv); err != nil {
			return err
		}
	}

	ret := m.Sig.Return
	if !types.IsVoid(ret) {
		if len(m.Body) == 0 {
			return diagnostics.Typef("method %s is declared %s but its body is empty", m.Name, ret)
		}
		last := m.Body[len(m.Body)-1]
		// A trailing return imposes its own check through the scan below.
		if _, isReturn := last.(*ast.Return); !isReturn {
			if !types.Equal(last.Term(), ret) {
				return diagnostics.Typef("method %s is declared %s but its body is %s", m.Name, ret, last.Term())
			}
		}
	}
	return w.scanReturns(m.Body, ret, m.Name)
}

// scanReturns walks the body and validates every return against the
// declared return type. Conditionals recurse branch-wise; lambda bodies
// are not scanned.
func (w *walker) scanReturns(stmts []ast.Expression, ret types.Term, method string) error {
	for _, s := range stmts {
		if err := w.scanReturn(s, ret, method); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) scanReturn(e ast.Expression, ret types.Term, method string) error {
	switch n := e.(type) {
	case *ast.Return:
		vt := types.Term(types.Void)
		if n.Value != nil {
			vt = n.Value.Term()
		}
		if !types.Equal(vt, ret) {
			return diagnostics.Typef("method %s is declared %s but returns %s", method, ret, vt)
		}
		if n.Value != nil {
			return w.scanReturn(n.Value, ret, method)
		}
	case *ast.If:
		if err := w.scanReturn(n.Cond, ret, method); err != nil {
			return err
		}
		if err := w.scanReturns(n.Then, ret, method); err != nil {
			return err
		}
		return w.scanReturns(n.Else, ret, method)
	case *ast.AssignLvar:
		return w.scanReturn(n.Value, ret, method)
	case *ast.AssignIvar:
		return w.scanReturn(n.Value, ret, method)
	case *ast.MethodCall:
		if err := w.scanReturn(n.Receiver, ret, method); err != nil {
			return err
		}
		return w.scanReturns(n.Args, ret, method)
	case *ast.LambdaCall:
		if err := w.scanReturn(n.Target, ret, method); err != nil {
			return err
		}
		return w.scanReturns(n.Args, ret, method)
	case *ast.ClassSpecialization:
		if err := w.scanReturn(n.Class, ret, method); err != nil {
			return err
		}
		return w.scanReturns(n.TypeArgs, ret, method)
	case *ast.ArrayLiteral:
		return w.scanReturns(n.Elements, ret, method)
	}
	return nil
}
