package analyzer

import (
	"fmt"

	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/symbols"
	"github.com/funvibe/shale/internal/types"
)

// addType computes and records the type of one expression and returns the
// environment the following sibling statement sees. Statement sequences are
// analyzed left to right; only assignments extend the environment.
func (w *walker) addType(e ast.Expression, env *symbols.Env) (*symbols.Env, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return env, n.Annotate(types.Int)
	case *ast.FloatLiteral:
		return env, n.Annotate(types.Float)
	case *ast.BoolLiteral:
		return env, n.Annotate(types.Bool)

	case *ast.LvarRef:
		lv, err := env.FindLvar(n.Name)
		if err != nil {
			return nil, err
		}
		return env, n.Annotate(lv.Ty)

	case *ast.IvarRef:
		iv, err := env.FindIvar(n.Name)
		if err != nil {
			return nil, err
		}
		return env, n.Annotate(iv.Ty)

	case *ast.ConstRef:
		cb, err := env.FindConst(n.Name)
		if err != nil {
			return nil, err
		}
		return env, n.Annotate(cb.Ty)

	case *ast.Return:
		env2 := env
		if n.Value != nil {
			var err error
			if env2, err = w.addType(n.Value, env2); err != nil {
				return nil, err
			}
		}
		return env2, n.Annotate(types.Void)

	case *ast.If:
		return w.addIf(n, env)
	case *ast.AssignLvar:
		return w.addAssignLvar(n, env)
	case *ast.AssignIvar:
		return w.addAssignIvar(n, env)
	case *ast.ArrayLiteral:
		return w.addArray(n, env)
	case *ast.ClassSpecialization:
		return w.addClassSpecialization(n, env)
	case *ast.MethodCall:
		return w.addMethodCall(n, env)
	case *ast.Lambda:
		return w.addLambda(n, env)
	case *ast.LambdaCall:
		return w.addLambdaCall(n, env)

	case *ast.CreateObject:
		return nil, diagnostics.Programf("the create-object marker cannot appear in executable code")
	}
	return nil, diagnostics.Programf("unknown expression node %T", e)
}

// typeStmts analyzes a statement sequence, threading the environment, and
// returns the last statement's type (Void for an empty sequence).
func (w *walker) typeStmts(stmts []ast.Expression, env *symbols.Env) (types.Term, error) {
	cur := env
	var err error
	for _, s := range stmts {
		if cur, err = w.addType(s, cur); err != nil {
			return nil, err
		}
	}
	if len(stmts) == 0 {
		return types.Void, nil
	}
	return stmts[len(stmts)-1].Term(), nil
}

func (w *walker) addIf(n *ast.If, env *symbols.Env) (*symbols.Env, error) {
	envC, err := w.addType(n.Cond, env)
	if err != nil {
		return nil, err
	}
	if !types.Equal(n.Cond.Term(), types.Bool) {
		return nil, diagnostics.Typef("`if` condition must be Bool, got %s", n.Cond.Term())
	}
	thenTy, err := w.typeStmts(n.Then, envC)
	if err != nil {
		return nil, err
	}
	elseTy, err := w.typeStmts(n.Else, envC)
	if err != nil {
		return nil, err
	}
	var ty types.Term
	switch {
	case types.Equal(thenTy, elseTy):
		ty = thenTy
	case types.IsVoid(thenTy):
		ty = elseTy
	case types.IsVoid(elseTy):
		ty = thenTy
	default:
		return nil, diagnostics.Typef("`if` branches must have the same type (then %s, else %s)", thenTy, elseTy)
	}
	// Branch-local bindings do not leak past the conditional.
	return env, n.Annotate(ty)
}

func (w *walker) addAssignLvar(n *ast.AssignLvar, env *symbols.Env) (*symbols.Env, error) {
	env2, err := w.addType(n.Value, env)
	if err != nil {
		return nil, err
	}
	vt := n.Value.Term()
	if types.IsVoid(vt) {
		return nil, diagnostics.Programf("cannot assign a Void value to %s", n.Name)
	}
	if existing, ok := env2.LookupLvar(n.Name); ok {
		if existing.Captured {
			return nil, diagnostics.Programf("captured variable %s is read-only", n.Name)
		}
		if existing.Kind != symbols.VarKind {
			return nil, diagnostics.Programf("%s is read-only (missing `var`)", n.Name)
		}
		if !env2.ConformsTo(vt, existing.Ty) {
			return nil, diagnostics.Typef("cannot assign %s to %s, which is declared %s", vt, n.Name, existing.Ty)
		}
		return env2, n.Annotate(vt)
	}
	kind := symbols.LetKind
	if n.IsVar {
		kind = symbols.VarKind
	}
	if err := n.Annotate(vt); err != nil {
		return nil, err
	}
	return env2.WithLocal(&symbols.Lvar{Name: n.Name, Ty: vt, Kind: kind}), nil
}

func (w *walker) addAssignIvar(n *ast.AssignIvar, env *symbols.Env) (*symbols.Env, error) {
	env2, err := w.addType(n.Value, env)
	if err != nil {
		return nil, err
	}
	vt := n.Value.Term()
	if types.IsVoid(vt) {
		return nil, diagnostics.Programf("cannot assign a Void value to @%s", n.Name)
	}
	iv, err := env2.FindIvar(n.Name)
	if err != nil {
		return nil, err
	}
	// Instance variables admit no subtyping: the types must match exactly.
	if !types.Equal(iv.Ty, vt) {
		return nil, diagnostics.Typef("cannot assign %s to @%s, which is declared %s", vt, n.Name, iv.Ty)
	}
	return env2, n.Annotate(vt)
}

func (w *walker) addArray(n *ast.ArrayLiteral, env *symbols.Env) (*symbols.Env, error) {
	env2 := env
	var err error
	for _, el := range n.Elements {
		if env2, err = w.addType(el, env2); err != nil {
			return nil, err
		}
	}
	if len(n.Elements) == 0 {
		return nil, diagnostics.Typef("cannot infer the element type of an empty array literal")
	}
	elem := n.Elements[0].Term()
	for _, el := range n.Elements[1:] {
		if !types.Equal(el.Term(), elem) {
			return nil, diagnostics.Typef("array elements must share one type (%s vs %s)", elem, el.Term())
		}
	}
	if !containsParam(elem) {
		if _, _, err := w.registry.SpecializeNamed(config.ArrayClassName, []types.Term{elem}); err != nil {
			return nil, err
		}
	}
	return env2, n.Annotate(types.Spe{Name: config.ArrayClassName, Args: []types.Term{elem}})
}

func (w *walker) addClassSpecialization(n *ast.ClassSpecialization, env *symbols.Env) (*symbols.Env, error) {
	env2, err := w.addType(n.Class, env)
	if err != nil {
		return nil, err
	}
	gm, ok := n.Class.Term().(types.GenMeta)
	if !ok {
		return nil, diagnostics.Typef("%s is not a generic class", n.Class.Term())
	}
	args := make([]types.Term, len(n.TypeArgs))
	for i, a := range n.TypeArgs {
		if env2, err = w.addType(a, env2); err != nil {
			return nil, err
		}
		inst, ok := types.InstanceOf(a.Term())
		if !ok {
			return nil, diagnostics.Typef("type argument %d of %s must be a class, got %s", i+1, gm.Name, a.Term())
		}
		args[i] = inst
	}
	_, sm, err := w.registry.SpecializeNamed(gm.Name, args)
	if err != nil {
		return nil, err
	}
	return env2, n.Annotate(sm.ClassType())
}

func (w *walker) addMethodCall(n *ast.MethodCall, env *symbols.Env) (*symbols.Env, error) {
	env2 := env
	var err error
	for _, a := range n.Args {
		if env2, err = w.addType(a, env2); err != nil {
			return nil, err
		}
	}
	if env2, err = w.addType(n.Receiver, env2); err != nil {
		return nil, err
	}
	m, err := env2.FindMethod(n.Receiver.Term(), n.Method)
	if err != nil {
		return nil, err
	}
	if err := w.checkCallArgs(m.Name, m, n.Args, env2); err != nil {
		return nil, err
	}
	return env2, n.Annotate(m.Sig.Return)
}

func (w *walker) addLambda(n *ast.Lambda, env *symbols.Env) (*symbols.Env, error) {
	if len(n.Params) > config.MaxLambdaArity {
		return nil, diagnostics.Typef("lambda arity %d exceeds the supported maximum %d", len(n.Params), config.MaxLambdaArity)
	}
	paramTys := make([]types.Term, len(n.Params))
	locals := make(map[string]*symbols.Lvar, len(n.Captures)+len(n.Params))
	for _, name := range n.Captures {
		lv, err := env.FindLvar(name)
		if err != nil {
			return nil, err
		}
		captured := *lv
		captured.Captured = true
		locals[name] = &captured
	}
	for i, p := range n.Params {
		if p.Spec == nil {
			return nil, diagnostics.Typef("lambda parameter %s needs a type annotation", p.Name)
		}
		ty, err := w.resolveSpec(p.Spec, env)
		if err != nil {
			return nil, err
		}
		paramTys[i] = ty
		locals[p.Name] = &symbols.Lvar{Name: p.Name, Ty: ty, Kind: symbols.ParamKind}
	}
	bodyTy, err := w.typeStmts(n.Body, env.WithLocalsOnly(locals))
	if err != nil {
		return nil, err
	}
	fnName := fmt.Sprintf("%s%d", config.LambdaClassPrefix, len(n.Params))
	args := append(append([]types.Term{}, paramTys...), bodyTy)
	if !containsParamList(args) {
		if _, _, err := w.registry.SpecializeNamed(fnName, args); err != nil {
			return nil, err
		}
	}
	// Lambda-local bindings do not leak.
	return env, n.Annotate(types.Spe{Name: fnName, Args: args})
}

func (w *walker) addLambdaCall(n *ast.LambdaCall, env *symbols.Env) (*symbols.Env, error) {
	env2 := env
	var err error
	for _, a := range n.Args {
		if env2, err = w.addType(a, env2); err != nil {
			return nil, err
		}
	}
	if env2, err = w.addType(n.Target, env2); err != nil {
		return nil, err
	}
	tt := n.Target.Term()
	if _, ok := tt.(types.Spe); !ok {
		return nil, diagnostics.Typef("%s is not callable", tt)
	}
	m, err := env2.FindMethod(tt, config.LambdaCallName)
	if err != nil {
		return nil, err
	}
	if err := w.checkCallArgs(config.LambdaCallName, m, n.Args, env2); err != nil {
		return nil, err
	}
	return env2, n.Annotate(m.Sig.Return)
}

// checkCallArgs validates argument count and types against a resolved
// method. At most one vararg parameter may be declared; arguments beyond
// the head and tail parameters collect into it, and each must match the
// element type of its declared Array exactly.
func (w *walker) checkCallArgs(name string, m *classes.Method, args []ast.Expression, env *symbols.Env) error {
	vi := m.VarargIndex()
	if vi < 0 {
		if len(args) != len(m.Params) {
			return diagnostics.Typef("wrong number of arguments for %s (given %d, expected %d)",
				name, len(args), len(m.Params))
		}
		for i, a := range args {
			if !env.ConformsTo(a.Term(), m.Params[i].Ty) {
				return diagnostics.Typef("argument %d of %s must be %s, got %s",
					i+1, name, m.Params[i].Ty, a.Term())
			}
		}
		return nil
	}

	least := m.LeastArity()
	if len(args) < least {
		return diagnostics.Typef("wrong number of arguments for %s (given %d, expected at least %d)",
			name, len(args), least)
	}
	head := m.Params[:vi]
	tail := m.Params[vi+1:]
	varCount := len(args) - least
	for i, p := range head {
		if !env.ConformsTo(args[i].Term(), p.Ty) {
			return diagnostics.Typef("argument %d of %s must be %s, got %s", i+1, name, p.Ty, args[i].Term())
		}
	}
	elem, _ := varargElem(m.Params[vi].Ty)
	for i := 0; i < varCount; i++ {
		a := args[len(head)+i]
		if !types.Equal(a.Term(), elem) {
			return diagnostics.Typef("vararg argument %d of %s must be %s, got %s",
				len(head)+i+1, name, elem, a.Term())
		}
	}
	for i, p := range tail {
		a := args[len(head)+varCount+i]
		if !env.ConformsTo(a.Term(), p.Ty) {
			return diagnostics.Typef("argument %d of %s must be %s, got %s",
				len(head)+varCount+i+1, name, p.Ty, a.Term())
		}
	}
	if !containsParam(elem) {
		if _, _, err := w.registry.SpecializeNamed(config.ArrayClassName, []types.Term{elem}); err != nil {
			return err
		}
	}
	return nil
}
