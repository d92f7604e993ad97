package classes

import (
	"sort"
	"testing"

	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/diagnostics"
	"github.com/funvibe/shale/internal/types"
)

func pairDecl() *ast.ClassDecl {
	return &ast.ClassDecl{
		Name:       "Pair",
		TypeParams: []string{"A", "B"},
		InstanceMethods: []*ast.MethodDecl{
			{
				Name: "initialize",
				Params: []*ast.ParamDecl{
					{Name: "a", Spec: &ast.TypeSpec{Name: "A"}, DeclaresIvar: true},
					{Name: "b", Spec: &ast.TypeSpec{Name: "B"}, DeclaresIvar: true},
				},
			},
			{Name: "fst", RetSpec: &ast.TypeSpec{Name: "A"}, Body: []ast.Expression{&ast.IvarRef{Name: "a"}}},
		},
	}
}

func plainDecl() *ast.ClassDecl {
	return &ast.ClassDecl{
		Name: "Point",
		InstanceMethods: []*ast.MethodDecl{
			{
				Name: "initialize",
				Params: []*ast.ParamDecl{
					{Name: "x", Spec: &ast.TypeSpec{Name: "Int"}, DeclaresIvar: true},
				},
			},
		},
		ClassMethods: []*ast.MethodDecl{
			{Name: "origin", RetSpec: &ast.TypeSpec{Name: "Point"}},
		},
	}
}

func TestSeedRegistersClassAndMeta(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{plainDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	cls, ok := reg.Find("Point")
	if !ok {
		t.Fatalf("Point not registered")
	}
	if !types.Equal(cls.ClassType(), types.Raw{Name: "Point"}) {
		t.Errorf("Point class type = %s", cls.ClassType())
	}
	if !types.Equal(cls.Superclass(), types.Raw{Name: "Object"}) {
		t.Errorf("Point superclass = %s", cls.Superclass())
	}
	meta, ok := reg.Find("Meta:Point")
	if !ok {
		t.Fatalf("Meta:Point not registered")
	}
	if !types.Equal(meta.ClassType(), types.Meta{Name: "Point"}) {
		t.Errorf("Meta:Point class type = %s", meta.ClassType())
	}
	if !types.Equal(meta.Superclass(), types.Meta{Name: "Object"}) {
		t.Errorf("Meta:Point superclass = %s", meta.Superclass())
	}
}

func TestSyntheticNew(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{plainDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	meta, _ := reg.Find("Meta:Point")
	ctor, ok := meta.LookupMethod("new")
	if !ok {
		t.Fatalf("Meta:Point has no new")
	}
	if len(ctor.Params) != 1 || ctor.Params[0].Name != "x" {
		t.Fatalf("new params = %+v, want the initializer's", ctor.Params)
	}
	if ctor.RetSpec == nil || ctor.RetSpec.Name != "Point" {
		t.Errorf("new return spec = %v", ctor.RetSpec)
	}
	if !ast.IsCreateObjectBody(ctor.Body) {
		t.Errorf("new body is not the create-object marker")
	}
	// Class-level method registered next to it.
	if _, ok := meta.LookupMethod("origin"); !ok {
		t.Errorf("Meta:Point lost the class method origin")
	}
}

func TestGenericMetaHasNoNew(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{pairDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	meta, ok := reg.Find("Meta:Pair")
	if !ok {
		t.Fatalf("Meta:Pair not registered")
	}
	if _, ok := meta.LookupMethod("new"); ok {
		t.Errorf("new must not be preinstalled on a generic metaclass")
	}
	if !types.Equal(meta.ClassType(), types.GenMeta{Name: "Pair", Params: []string{"A", "B"}}) {
		t.Errorf("Meta:Pair class type = %s", meta.ClassType())
	}
}

func TestSeedIdempotent(t *testing.T) {
	a, err := Seed(nil, []*ast.ClassDecl{plainDecl(), pairDecl()})
	if err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	b, err := Seed(nil, []*ast.ClassDecl{plainDecl(), pairDecl()})
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	an, bn := a.Names(), b.Names()
	sort.Strings(an)
	sort.Strings(bn)
	if len(an) != len(bn) {
		t.Fatalf("seed runs disagree on class count: %v vs %v", an, bn)
	}
	for i := range an {
		if an[i] != bn[i] {
			t.Fatalf("seed runs disagree: %v vs %v", an, bn)
		}
	}
	am, _ := a.Find("Meta:Point")
	bm, _ := b.Find("Meta:Point")
	for _, name := range []string{"new", "origin"} {
		if _, ok := am.LookupMethod(name); !ok {
			t.Errorf("first seed: Meta:Point lacks %s", name)
		}
		if _, ok := bm.LookupMethod(name); !ok {
			t.Errorf("second seed: Meta:Point lacks %s", name)
		}
	}
}

func TestSeedRejectsDuplicates(t *testing.T) {
	_, err := Seed(nil, []*ast.ClassDecl{plainDecl(), plainDecl()})
	if err == nil {
		t.Fatalf("duplicate class accepted")
	}
	if !diagnostics.IsKind(err, diagnostics.ProgramError) {
		t.Errorf("duplicate class error kind = %v", err)
	}
}

func TestSeedRejectsDuplicateIvars(t *testing.T) {
	decl := &ast.ClassDecl{
		Name: "Bad",
		InstanceMethods: []*ast.MethodDecl{
			{
				Name: "initialize",
				Params: []*ast.ParamDecl{
					{Name: "x", Spec: &ast.TypeSpec{Name: "Int"}, DeclaresIvar: true},
					{Name: "x", Spec: &ast.TypeSpec{Name: "Int"}, DeclaresIvar: true},
				},
			},
		},
	}
	if _, err := Seed(nil, []*ast.ClassDecl{decl}); err == nil {
		t.Fatalf("duplicate ivars accepted")
	}
}

func resolvePair(t *testing.T, reg *Registry) *GenericClass {
	t.Helper()
	e, ok := reg.Find("Pair")
	if !ok {
		t.Fatalf("Pair not registered")
	}
	g := e.(*GenericClass)
	// Stand in for the header pass: give the methods their signatures.
	init := g.Methods["initialize"]
	init.Params[0].Ty = types.Param{Name: "A"}
	init.Params[1].Ty = types.Param{Name: "B"}
	init.Sig = &types.Method{
		Name:   "initialize",
		Params: []types.Term{types.Param{Name: "A"}, types.Param{Name: "B"}},
		Return: types.Void,
	}
	fst := g.Methods["fst"]
	fst.Sig = &types.Method{Name: "fst", Return: types.Param{Name: "A"}}
	g.IVars[0].Ty = types.Param{Name: "A"}
	g.IVars[1].Ty = types.Param{Name: "B"}
	return g
}

func TestSpecializeCachesAndSubstitutes(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{pairDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	g := resolvePair(t, reg)
	args := []types.Term{types.Int, types.Bool}

	sc, sm, err := reg.Specialize(g, args)
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if sc.FullName() != "Pair<Int,Bool>" || sm.FullName() != "Meta:Pair<Int,Bool>" {
		t.Fatalf("specialization names = %s / %s", sc.FullName(), sm.FullName())
	}

	again, _, err := reg.Specialize(g, []types.Term{types.Int, types.Bool})
	if err != nil {
		t.Fatalf("second Specialize: %v", err)
	}
	if again != sc {
		t.Errorf("cache miss: a second request produced a new SpecializedClass")
	}

	fst, ok := sc.LookupMethod("fst")
	if !ok {
		t.Fatalf("Pair<Int,Bool> has no fst")
	}
	if !types.Equal(fst.Sig.Return, types.Int) {
		t.Errorf("specialized fst returns %s, want Int", fst.Sig.Return)
	}
	fst2, _ := sc.LookupMethod("fst")
	if fst2 != fst {
		t.Errorf("specialized method not memoized")
	}

	iv, ok := sc.IVarNamed("a")
	if !ok || !types.Equal(iv.Ty, types.Int) {
		t.Errorf("specialized ivar a = %+v", iv)
	}

	ctor, ok := sm.LookupMethod("new")
	if !ok {
		t.Fatalf("Meta:Pair<Int,Bool> has no new")
	}
	want := types.Method{
		Name:   "new",
		Params: []types.Term{types.Int, types.Bool},
		Return: types.Spe{Name: "Pair", Args: []types.Term{types.Int, types.Bool}},
	}
	if !types.Equal(*ctor.Sig, want) {
		t.Errorf("specialized new sig = %s, want %s", ctor.Sig, want)
	}
}

func TestSpecializeArityMismatch(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{pairDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	g := resolvePair(t, reg)
	if _, _, err := reg.Specialize(g, []types.Term{types.Int}); err == nil {
		t.Fatalf("arity mismatch accepted")
	} else if !diagnostics.IsKind(err, diagnostics.TypeError) {
		t.Errorf("arity mismatch kind = %v", err)
	}
}

func TestFindSeesUnflattenedSpecializations(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{pairDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	g := resolvePair(t, reg)
	if _, _, err := reg.Specialize(g, []types.Term{types.Int, types.Bool}); err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if _, ok := reg.Find("Pair<Int,Bool>"); !ok {
		t.Errorf("specialization invisible before Flatten")
	}
	names := reg.Names()
	for _, n := range names {
		if n == "Pair<Int,Bool>" {
			t.Errorf("specialization listed before Flatten")
		}
	}
	reg.Flatten()
	found := 0
	for _, n := range reg.Names() {
		if n == "Pair<Int,Bool>" || n == "Meta:Pair<Int,Bool>" {
			found++
		}
	}
	if found != 2 {
		t.Errorf("Flatten did not fold the specializations into the class map")
	}
}

func TestMaterialize(t *testing.T) {
	reg, err := Seed(nil, []*ast.ClassDecl{pairDecl(), plainDecl()})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	resolvePair(t, reg)

	e, err := reg.Materialize(types.Raw{Name: "Point"})
	if err != nil || e.FullName() != "Point" {
		t.Fatalf("Materialize(Point) = %v, %v", e, err)
	}
	e, err = reg.Materialize(types.Meta{Name: "Point"})
	if err != nil || e.FullName() != "Meta:Point" {
		t.Fatalf("Materialize(Meta:Point) = %v, %v", e, err)
	}
	e, err = reg.Materialize(types.Spe{Name: "Pair", Args: []types.Term{types.Int, types.Bool}})
	if err != nil || e.FullName() != "Pair<Int,Bool>" {
		t.Fatalf("Materialize(Pair<Int,Bool>) = %v, %v", e, err)
	}
	if _, err := reg.Materialize(types.Raw{Name: "Ghost"}); err == nil {
		t.Errorf("Materialize of an unknown class succeeded")
	}
	if _, err := reg.Materialize(types.Param{Name: "T"}); err == nil {
		t.Errorf("Materialize of a free parameter succeeded")
	}
}
