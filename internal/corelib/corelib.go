// Package corelib is the standard-library manifest: the built-in class
// definitions every program is seeded with, and nothing else. Built-in
// methods carry their signatures directly; they have no analyzable bodies.
package corelib

import (
	"fmt"

	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/types"
)

// Classes returns the built-in class entities in seeding order: Object,
// the value classes, Array<T>, and the anonymous-function classes
// Fn0..Fn4, each with its metaclass.
func Classes() []classes.Entity {
	out := []classes.Entity{
		classes.NewClass(config.ObjectClassName, types.NoParent{}, []*classes.Method{
			method(config.InitializerName, types.Void),
		}),
		classes.NewMetaClass(config.ObjectClassName, types.NoParent{}, nil),

		classes.NewClass(config.IntClassName, types.Object, intMethods()),
		classes.NewMetaClass(config.IntClassName, types.Meta{Name: config.ObjectClassName}, nil),

		classes.NewClass(config.FloatClassName, types.Object, floatMethods()),
		classes.NewMetaClass(config.FloatClassName, types.Meta{Name: config.ObjectClassName}, nil),

		classes.NewClass(config.BoolClassName, types.Object, boolMethods()),
		classes.NewMetaClass(config.BoolClassName, types.Meta{Name: config.ObjectClassName}, nil),

		classes.NewClass(config.VoidClassName, types.Object, nil),
		classes.NewMetaClass(config.VoidClassName, types.Meta{Name: config.ObjectClassName}, nil),

		arrayClass(),
		classes.NewGenericMetaClass(config.ArrayClassName, []string{"T"},
			types.Meta{Name: config.ObjectClassName}, nil),
	}
	for n := 0; n <= config.MaxLambdaArity; n++ {
		cls, meta := fnClass(n)
		out = append(out, cls, meta)
	}
	return out
}

func intMethods() []*classes.Method {
	ms := []*classes.Method{
		method("to_f", types.Float),
	}
	for _, op := range []string{"+", "-", "*", "/", "%"} {
		ms = append(ms, method(op, types.Int, param("other", types.Int)))
	}
	for _, op := range []string{"==", "!=", "<", "<=", ">", ">="} {
		ms = append(ms, method(op, types.Bool, param("other", types.Int)))
	}
	return ms
}

func floatMethods() []*classes.Method {
	ms := []*classes.Method{
		method("to_i", types.Int),
	}
	for _, op := range []string{"+", "-", "*", "/"} {
		ms = append(ms, method(op, types.Float, param("other", types.Float)))
	}
	for _, op := range []string{"==", "!=", "<", "<=", ">", ">="} {
		ms = append(ms, method(op, types.Bool, param("other", types.Float)))
	}
	return ms
}

func boolMethods() []*classes.Method {
	return []*classes.Method{
		method("and", types.Bool, param("other", types.Bool)),
		method("or", types.Bool, param("other", types.Bool)),
		method("not", types.Bool),
	}
}

func arrayClass() *classes.GenericClass {
	elem := types.Param{Name: "T"}
	return classes.NewGenericClass(config.ArrayClassName, []string{"T"}, types.Object,
		[]*classes.Method{
			method("length", types.Int),
			method("first", elem),
			method("last", elem),
			method("push", types.Void, param("value", elem)),
			method("pop", elem),
		})
}

// fnClass builds the anonymous-function class of the given arity. FnN is
// generic over its parameter types T1..TN and its return type R; call is
// specialized together with the class.
func fnClass(arity int) (*classes.GenericClass, *classes.GenericClass) {
	name := fmt.Sprintf("%s%d", config.LambdaClassPrefix, arity)
	typarams := make([]string, 0, arity+1)
	callParams := make([]*classes.Param, 0, arity)
	for i := 1; i <= arity; i++ {
		tp := fmt.Sprintf("T%d", i)
		typarams = append(typarams, tp)
		callParams = append(callParams, param(fmt.Sprintf("arg%d", i), types.Param{Name: tp}))
	}
	typarams = append(typarams, "R")
	call := method(config.LambdaCallName, types.Param{Name: "R"}, callParams...)
	cls := classes.NewGenericClass(name, typarams, types.Object, []*classes.Method{call})
	meta := classes.NewGenericMetaClass(name, typarams, types.Meta{Name: config.ObjectClassName}, nil)
	return cls, meta
}

func method(name string, ret types.Term, params ...*classes.Param) *classes.Method {
	tys := make([]types.Term, len(params))
	for i, p := range params {
		tys[i] = p.Ty
	}
	return &classes.Method{
		Name:   name,
		Params: params,
		Sig:    &types.Method{Name: name, Params: tys, Return: ret},
	}
}

func param(name string, ty types.Term) *classes.Param {
	return &classes.Param{Name: name, Ty: ty}
}
