package corelib

import (
	"testing"

	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/types"
)

func manifest(t *testing.T) map[string]classes.Entity {
	t.Helper()
	out := make(map[string]classes.Entity)
	for _, e := range Classes() {
		if _, dup := out[e.FullName()]; dup {
			t.Fatalf("manifest defines %s twice", e.FullName())
		}
		out[e.FullName()] = e
	}
	return out
}

func TestManifestShape(t *testing.T) {
	m := manifest(t)
	for _, name := range []string{
		"Object", "Int", "Float", "Bool", "Void", "Array",
		"Fn0", "Fn1", "Fn2", "Fn3", "Fn4",
	} {
		if _, ok := m[name]; !ok {
			t.Errorf("manifest lacks %s", name)
		}
		if _, ok := m["Meta:"+name]; !ok {
			t.Errorf("manifest lacks Meta:%s", name)
		}
	}
}

func TestObjectIsRoot(t *testing.T) {
	m := manifest(t)
	if !types.IsNoParent(m["Object"].Superclass()) {
		t.Errorf("Object superclass = %s", m["Object"].Superclass())
	}
	if !types.IsNoParent(m["Meta:Object"].Superclass()) {
		t.Errorf("Meta:Object superclass = %s", m["Meta:Object"].Superclass())
	}
	if !types.Equal(m["Int"].Superclass(), types.Object) {
		t.Errorf("Int superclass = %s", m["Int"].Superclass())
	}
}

func TestValueClassMethods(t *testing.T) {
	m := manifest(t)
	tests := []struct {
		class  string
		method string
		want   types.Method
	}{
		{"Int", "+", types.Method{Name: "+", Params: []types.Term{types.Int}, Return: types.Int}},
		{"Int", "<", types.Method{Name: "<", Params: []types.Term{types.Int}, Return: types.Bool}},
		{"Int", "to_f", types.Method{Name: "to_f", Return: types.Float}},
		{"Float", "+", types.Method{Name: "+", Params: []types.Term{types.Float}, Return: types.Float}},
		{"Float", "to_i", types.Method{Name: "to_i", Return: types.Int}},
		{"Bool", "and", types.Method{Name: "and", Params: []types.Term{types.Bool}, Return: types.Bool}},
		{"Bool", "not", types.Method{Name: "not", Return: types.Bool}},
	}
	for _, tt := range tests {
		mm, ok := m[tt.class].LookupMethod(tt.method)
		if !ok {
			t.Errorf("%s lacks %s", tt.class, tt.method)
			continue
		}
		if !types.Equal(*mm.Sig, tt.want) {
			t.Errorf("%s.%s = %s, want %s", tt.class, tt.method, mm.Sig, tt.want)
		}
	}
}

func TestArrayIsGenericOverT(t *testing.T) {
	m := manifest(t)
	g, ok := m["Array"].(*classes.GenericClass)
	if !ok {
		t.Fatalf("Array is not generic")
	}
	if len(g.TypeParams) != 1 || g.TypeParams[0] != "T" {
		t.Fatalf("Array type params = %v", g.TypeParams)
	}
	push, ok := g.LookupMethod("push")
	if !ok {
		t.Fatalf("Array lacks push")
	}
	want := types.Method{Name: "push", Params: []types.Term{types.Param{Name: "T"}}, Return: types.Void}
	if !types.Equal(*push.Sig, want) {
		t.Errorf("Array#push = %s, want %s", push.Sig, want)
	}
}

func TestFnClassesCarryCall(t *testing.T) {
	m := manifest(t)
	fn2, ok := m["Fn2"].(*classes.GenericClass)
	if !ok {
		t.Fatalf("Fn2 is not generic")
	}
	wantParams := []string{"T1", "T2", "R"}
	if len(fn2.TypeParams) != len(wantParams) {
		t.Fatalf("Fn2 type params = %v", fn2.TypeParams)
	}
	for i, p := range wantParams {
		if fn2.TypeParams[i] != p {
			t.Fatalf("Fn2 type params = %v, want %v", fn2.TypeParams, wantParams)
		}
	}
	call, ok := fn2.LookupMethod("call")
	if !ok {
		t.Fatalf("Fn2 lacks call")
	}
	want := types.Method{
		Name:   "call",
		Params: []types.Term{types.Param{Name: "T1"}, types.Param{Name: "T2"}},
		Return: types.Param{Name: "R"},
	}
	if !types.Equal(*call.Sig, want) {
		t.Errorf("Fn2#call = %s, want %s", call.Sig, want)
	}
}
