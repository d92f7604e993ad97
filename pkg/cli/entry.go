// Package cli is the driver around the semantic core: it loads a program
// document, runs analysis and renders the typed result. The core itself
// never writes output; everything user-visible lives here.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/shale/internal/analyzer"
	"github.com/funvibe/shale/internal/classes"
	"github.com/funvibe/shale/internal/config"
	"github.com/funvibe/shale/internal/loader"
)

// Run executes the CLI with the given arguments and returns the process
// exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "check":
		if len(args) != 2 {
			usage(stderr)
			return 2
		}
		return runCheck(args[1], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "shale: unknown command %q\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  shale check <file"+config.ProgramFileExtensions[0]+">   type-check a program document")
	fmt.Fprintln(w, "  shale help                          show this help")
}

func runCheck(path string, stdout, stderr io.Writer) int {
	runID := uuid.New()
	if !isProgramFile(path) {
		fmt.Fprintf(stderr, "shale: %s is not a program document (expected one of %s)\n",
			path, strings.Join(config.ProgramFileExtensions, ", "))
		return 2
	}
	prog, err := loader.LoadFile(path)
	if err != nil {
		printError(stderr, runID, err)
		return 1
	}
	res, err := analyzer.Analyze(prog)
	if err != nil {
		printError(stderr, runID, err)
		return 1
	}
	printSummary(stdout, res)
	return 0
}

func isProgramFile(path string) bool {
	for _, ext := range config.ProgramFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func printError(w io.Writer, runID uuid.UUID, err error) {
	msg := err.Error()
	if colorEnabled() {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprintf(w, "shale: %s (run %s)\n", msg, shortID(runID))
}

// printSummary renders the typed registry and the top-level statement
// types.
func printSummary(w io.Writer, res *analyzer.Result) {
	fmt.Fprintf(w, "ok (run %s)\n", shortID(res.RunID))
	for _, name := range res.Registry.Names() {
		e, _ := res.Registry.Find(name)
		fmt.Fprintf(w, "class %s : %s\n", name, e.ClassType())
		for _, mn := range methodNames(e) {
			m, _ := e.LookupMethod(mn)
			if m.Sig != nil {
				fmt.Fprintf(w, "  %s\n", m.Sig)
			}
		}
	}
	for i, stmt := range res.Program.Main {
		fmt.Fprintf(w, "main[%d] : %s\n", i, stmt.Term())
	}
}

// methodNames lists the directly defined methods of an entity, sorted.
// Specialized entities materialize their methods on demand, so listing one
// here forces the substitution.
func methodNames(e classes.Entity) []string {
	var names []string
	switch cls := e.(type) {
	case *classes.GenericClass:
		for n := range cls.Methods {
			names = append(names, n)
		}
	case *classes.Class:
		for n := range cls.Methods {
			names = append(names, n)
		}
	case *classes.SpecializedClass:
		for n := range cls.Generic.Methods {
			if _, ok := cls.LookupMethod(n); ok {
				names = append(names, n)
			}
		}
	case *classes.SpecializedMetaClass:
		if _, ok := cls.LookupMethod(config.NewMethodName); ok {
			names = append(names, config.NewMethodName)
		}
	}
	sort.Strings(names)
	return names
}

var (
	colorOnce sync.Once
	colorOn   bool
)

// colorEnabled detects terminal color support once per process, honoring
// the NO_COLOR convention and TERM=dumb.
func colorEnabled() bool {
	colorOnce.Do(func() {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return
		}
		if os.Getenv("TERM") == "dumb" {
			return
		}
		fd := os.Stderr.Fd()
		colorOn = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	})
	return colorOn
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
