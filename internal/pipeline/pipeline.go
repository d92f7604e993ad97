// Package pipeline sequences the analysis stages. Unlike a diagnostics
// collector, semantic analysis fails fast: the first stage error stops the
// run and is surfaced as-is.
package pipeline

import (
	"github.com/funvibe/shale/internal/ast"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/symbols"
)

// Context carries the state threaded through the stages.
type Context struct {
	Program  *ast.Program
	Registry *classes.Registry
	Env      *symbols.Env
	Err      error
}

// Processor is one analysis stage.
type Processor interface {
	Name() string
	Process(ctx *Context) *Context
}

// Pipeline is a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the stages in order, stopping at the first error.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if ctx.Err != nil {
			return ctx
		}
	}
	return ctx
}
