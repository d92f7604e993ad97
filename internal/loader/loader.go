// Package loader decodes the YAML program documents emitted by the
// external parser into untyped program trees. The document is validated
// structurally before lowering; analysis proper happens elsewhere.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/diagnostics"
)

var validate = validator.New()

type programDoc struct {
	Classes []*classDoc `yaml:"classes" validate:"dive"`
	Main    []*exprDoc  `yaml:"main" validate:"dive"`
}

type classDoc struct {
	Name            string       `yaml:"name" validate:"required"`
	TypeParams      []string     `yaml:"type_params"`
	Superclass      *typeDoc     `yaml:"superclass"`
	InstanceMethods []*methodDoc `yaml:"instance_methods" validate:"dive"`
	ClassMethods    []*methodDoc `yaml:"class_methods" validate:"dive"`
}

type methodDoc struct {
	Name   string      `yaml:"name" validate:"required"`
	Params []*paramDoc `yaml:"params" validate:"dive"`
	Return *typeDoc    `yaml:"return"`
	Body   []*exprDoc  `yaml:"body" validate:"dive"`
}

type paramDoc struct {
	Name   string   `yaml:"name" validate:"required"`
	Type   *typeDoc `yaml:"type" validate:"required"`
	Vararg bool     `yaml:"vararg"`
	Ivar   bool     `yaml:"ivar"`
}

type typeDoc struct {
	Name string     `yaml:"name" validate:"required"`
	Args []*typeDoc `yaml:"args" validate:"dive"`
}

// exprDoc is one expression node. Kind selects the variant; literal kinds
// carry their value in the correspondingly named field, so integer and
// float literals stay distinct at the document level.
type exprDoc struct {
	Kind string `yaml:"kind" validate:"required"`
	Name string `yaml:"name"`

	Int   int64   `yaml:"int"`
	Float float64 `yaml:"float"`
	Bool  bool    `yaml:"bool"`

	Var   bool     `yaml:"var"`
	Value *exprDoc `yaml:"value"`

	Cond *exprDoc   `yaml:"cond"`
	Then []*exprDoc `yaml:"then" validate:"dive"`
	Else []*exprDoc `yaml:"else" validate:"dive"`

	Receiver *exprDoc   `yaml:"receiver"`
	Method   string     `yaml:"method"`
	Args     []*exprDoc `yaml:"args" validate:"dive"`

	Class    *exprDoc   `yaml:"class"`
	TypeArgs []*exprDoc `yaml:"type_args" validate:"dive"`

	Elements []*exprDoc `yaml:"elements" validate:"dive"`

	Params   []*paramDoc `yaml:"params" validate:"dive"`
	Body     []*exprDoc  `yaml:"body" validate:"dive"`
	Captures []string    `yaml:"captures"`
	Target   *exprDoc    `yaml:"target"`
}

// Load decodes and lowers one program document.
func Load(r io.Reader) (*ast.Program, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc programDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty program document")
		}
		return nil, fmt.Errorf("decode program document: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid program document: %w", err)
	}
	return lowerProgram(&doc)
}

// LoadFile reads a program document from disk.
func LoadFile(path string) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prog, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

func lowerProgram(doc *programDoc) (*ast.Program, error) {
	prog := &ast.Program{}
	for _, c := range doc.Classes {
		cls, err := lowerClass(c)
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, cls)
	}
	main, err := lowerExprs(doc.Main)
	if err != nil {
		return nil, err
	}
	prog.Main = main
	return prog, nil
}

func lowerClass(d *classDoc) (*ast.ClassDecl, error) {
	cls := &ast.ClassDecl{
		Name:       d.Name,
		TypeParams: d.TypeParams,
		Superclass: lowerType(d.Superclass),
	}
	for _, m := range d.InstanceMethods {
		md, err := lowerMethod(m)
		if err != nil {
			return nil, err
		}
		cls.InstanceMethods = append(cls.InstanceMethods, md)
	}
	for _, m := range d.ClassMethods {
		md, err := lowerMethod(m)
		if err != nil {
			return nil, err
		}
		cls.ClassMethods = append(cls.ClassMethods, md)
	}
	return cls, nil
}

func lowerMethod(d *methodDoc) (*ast.MethodDecl, error) {
	md := &ast.MethodDecl{Name: d.Name, RetSpec: lowerType(d.Return)}
	for _, p := range d.Params {
		md.Params = append(md.Params, lowerParam(p))
	}
	body, err := lowerExprs(d.Body)
	if err != nil {
		return nil, err
	}
	md.Body = body
	return md, nil
}

func lowerParam(d *paramDoc) *ast.ParamDecl {
	return &ast.ParamDecl{
		Name:         d.Name,
		Spec:         lowerType(d.Type),
		IsVararg:     d.Vararg,
		DeclaresIvar: d.Ivar,
	}
}

func lowerType(d *typeDoc) *ast.TypeSpec {
	if d == nil {
		return nil
	}
	spec := &ast.TypeSpec{Name: d.Name}
	for _, a := range d.Args {
		spec.Args = append(spec.Args, lowerType(a))
	}
	return spec
}

func lowerExprs(docs []*exprDoc) ([]ast.Expression, error) {
	var out []ast.Expression
	for _, d := range docs {
		e, err := lowerExpr(d)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func lowerExpr(d *exprDoc) (ast.Expression, error) {
	switch d.Kind {
	case "int":
		return &ast.IntLiteral{Value: d.Int}, nil
	case "float":
		return &ast.FloatLiteral{Value: d.Float}, nil
	case "bool":
		return &ast.BoolLiteral{Value: d.Bool}, nil
	case "lvar_ref":
		return &ast.LvarRef{Name: d.Name}, nil
	case "ivar_ref":
		return &ast.IvarRef{Name: ivarName(d.Name)}, nil
	case "const_ref":
		return &ast.ConstRef{Name: d.Name}, nil
	case "assign_lvar":
		value, err := lowerChild(d.Value, "assign_lvar", "value")
		if err != nil {
			return nil, err
		}
		return &ast.AssignLvar{Name: d.Name, Value: value, IsVar: d.Var}, nil
	case "assign_ivar":
		value, err := lowerChild(d.Value, "assign_ivar", "value")
		if err != nil {
			return nil, err
		}
		return &ast.AssignIvar{Name: ivarName(d.Name), Value: value}, nil
	case "if":
		cond, err := lowerChild(d.Cond, "if", "cond")
		if err != nil {
			return nil, err
		}
		then, err := lowerExprs(d.Then)
		if err != nil {
			return nil, err
		}
		els, err := lowerExprs(d.Else)
		if err != nil {
			return nil, err
		}
		return &ast.If{Cond: cond, Then: then, Else: els}, nil
	case "method_call":
		recv, err := lowerChild(d.Receiver, "method_call", "receiver")
		if err != nil {
			return nil, err
		}
		args, err := lowerExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &ast.MethodCall{Receiver: recv, Method: d.Method, Args: args}, nil
	case "class_specialization":
		cls, err := lowerChild(d.Class, "class_specialization", "class")
		if err != nil {
			return nil, err
		}
		targs, err := lowerExprs(d.TypeArgs)
		if err != nil {
			return nil, err
		}
		return &ast.ClassSpecialization{Class: cls, TypeArgs: targs}, nil
	case "array":
		elems, err := lowerExprs(d.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{Elements: elems}, nil
	case "return":
		var value ast.Expression
		if d.Value != nil {
			var err error
			if value, err = lowerExpr(d.Value); err != nil {
				return nil, err
			}
		}
		return &ast.Return{Value: value}, nil
	case "lambda":
		var params []*ast.ParamDecl
		for _, p := range d.Params {
			params = append(params, lowerParam(p))
		}
		body, err := lowerExprs(d.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: params, Body: body, Captures: d.Captures}, nil
	case "lambda_call":
		target, err := lowerChild(d.Target, "lambda_call", "target")
		if err != nil {
			return nil, err
		}
		args, err := lowerExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &ast.LambdaCall{Target: target, Args: args}, nil
	case "assign_const":
		return nil, diagnostics.Programf("constant assignment is not supported")
	}
	return nil, fmt.Errorf("unsupported node kind %q", d.Kind)
}

func lowerChild(d *exprDoc, kind, field string) (ast.Expression, error) {
	if d == nil {
		return nil, fmt.Errorf("node kind %q is missing its %s", kind, field)
	}
	return lowerExpr(d)
}

// ivarName accepts both "a" and the surface form "@a".
func ivarName(name string) string {
	return strings.TrimPrefix(name, "@")
}
