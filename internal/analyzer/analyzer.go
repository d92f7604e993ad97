// Package analyzer performs semantic analysis: it resolves names, computes
// the type of every expression, enforces the type system and materializes
// generic specializations on demand. Analysis is single-threaded, one-shot
// and fails fast on the first error.
package analyzer

import (
	"github.com/google/uuid"

	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/corelib"
	"github.com/funvibe/shale/internal/pipeline"
	"github.com/funvibe/shale/internal/symbols"
)

// Result is a successful analysis: the now fully typed program tree and the
// class registry, flattened so every specialization is visible by name.
// RunID tags the run for diagnostics correlation.
type Result struct {
	Program  *ast.Program
	Registry *classes.Registry
	RunID    uuid.UUID
}

// Analyze type-checks an untyped program tree against the corelib manifest.
func Analyze(prog *ast.Program) (*Result, error) {
	ctx := pipeline.New(
		seedStage{},
		headerStage{},
		bodyStage{},
		mainStage{},
		flattenStage{},
	).Run(&pipeline.Context{Program: prog})
	if ctx.Err != nil {
		return nil, ctx.Err
	}
	return &Result{Program: prog, Registry: ctx.Registry, RunID: uuid.New()}, nil
}

// walker carries the mutable half of the analysis: the registry, which
// accrues specializations as checking discovers them.
type walker struct {
	registry *classes.Registry
}

// seedStage populates the registry from the corelib manifest and the user
// declarations, then builds the root environment exposing every class as a
// constant.
type seedStage struct{}

func (seedStage) Name() string { return "seed" }

func (seedStage) Process(ctx *pipeline.Context) *pipeline.Context {
	reg, err := classes.Seed(corelib.Classes(), ctx.Program.Classes)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Registry = reg
	ctx.Env = symbols.NewEnv(reg)
	return ctx
}

// headerStage resolves every method signature and instance-variable type
// before any body is checked, so that bodies may reference classes and
// methods declared later.
type headerStage struct{}

func (headerStage) Name() string { return "headers" }

func (headerStage) Process(ctx *pipeline.Context) *pipeline.Context {
	w := &walker{registry: ctx.Registry}
	for _, decl := range ctx.Program.Classes {
		if err := w.resolveClassHeaders(decl, ctx.Env); err != nil {
			ctx.Err = err
			return ctx
		}
	}
	return ctx
}

// bodyStage type-checks every class body: instance methods against the
// class, class methods against its metaclass.
type bodyStage struct{}

func (bodyStage) Name() string { return "bodies" }

func (bodyStage) Process(ctx *pipeline.Context) *pipeline.Context {
	w := &walker{registry: ctx.Registry}
	for _, decl := range ctx.Program.Classes {
		if err := w.checkClass(decl, ctx.Env); err != nil {
			ctx.Err = err
			return ctx
		}
	}
	return ctx
}

// mainStage type-checks the top-level statements, threading the environment
// so each statement sees the bindings of its predecessors.
type mainStage struct{}

func (mainStage) Name() string { return "main" }

func (mainStage) Process(ctx *pipeline.Context) *pipeline.Context {
	w := &walker{registry: ctx.Registry}
	env := ctx.Env
	var err error
	for _, stmt := range ctx.Program.Main {
		env, err = w.addType(stmt, env)
		if err != nil {
			ctx.Err = err
			return ctx
		}
	}
	return ctx
}

// flattenStage folds the specializations created during analysis into the
// top-level class map for downstream consumers.
type flattenStage struct{}

func (flattenStage) Name() string { return "flatten" }

func (flattenStage) Process(ctx *pipeline.Context) *pipeline.Context {
	ctx.Registry.Flatten()
	return ctx
}
