package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// errnoAccessor is never mocked: test frameworks rely on it for every
// system call they make.
const errnoAccessor = "__errno_location"

// CollectResult is the ordered set of declarations that need a mock.
type CollectResult struct {
	// Decls holds the accepted declarations in acceptance order.
	Decls []*m.Decl
	// AnyVariadic is set when at least one accepted function is variadic.
	AnyVariadic bool
}

// Functions returns the accepted functions in acceptance order.
func (r *CollectResult) Functions() []*m.Decl {
	var out []*m.Decl

	for _, decl := range r.Decls {
		if decl.IsFunction() {
			out = append(out, decl)
		}
	}

	return out
}

// Variables returns the accepted variables in acceptance order.
func (r *CollectResult) Variables() []*m.Decl {
	var out []*m.Decl

	for _, decl := range r.Decls {
		if !decl.IsFunction() {
			out = append(out, decl)
		}
	}

	return out
}

// Collector discovers the entities a translation unit uses without defining them.
type Collector interface {
	Run(ctx context.Context, tu *m.TranslationUnit) (*CollectResult, error)
}

type collector struct {
	opts   m.Options
	policy *ExclusionPolicy
	diag   Diagnostics
}

// NewCollector creates a Collector. The policy is shared read-only.
func NewCollector(opts m.Options, policy *ExclusionPolicy, diag Diagnostics) Collector {
	if diag == nil {
		diag = NopDiagnostics{}
	}

	return &collector{opts: opts, policy: policy, diag: diag}
}

// Run walks the syntax tree of tu once, depth-first, and returns every
// accepted declaration. Each call keeps its own state.
func (c *collector) Run(ctx context.Context, tu *m.TranslationUnit) (*CollectResult, error) {
	if tu == nil || tu.Root == nil {
		return nil, fmt.Errorf("translation unit has no syntax tree")
	}

	run := &collectRun{
		collector: c,
		visited:   make(map[m.DeclID]*m.Decl),
		result:    &CollectResult{},
	}

	var err error

	tu.Root.Walk(func(node *m.Node) bool {
		if err = ctx.Err(); err != nil {
			return false
		}

		err = run.visit(node)

		return err == nil
	})

	if err != nil {
		return nil, err
	}

	slog.Debug("Collected declarations", "file", tu.MainFile, "count", len(run.result.Decls), "variadic", run.result.AnyVariadic)

	return run.result, nil
}

type collectRun struct {
	*collector
	visited map[m.DeclID]*m.Decl
	result  *CollectResult
}

func (r *collectRun) visit(node *m.Node) error {
	switch node.Kind {
	case m.NodeCall:
		if node.Decl != nil && !node.Decl.IsFunction() {
			return nil
		}

		return r.dispatch(node, node.Decl)
	case m.NodeConstruct:
		if err := r.dispatch(node, node.Decl); err != nil {
			return err
		}

		return r.dispatch(node, node.Destructor)
	case m.NodeDeclRef:
		if node.Decl == nil || node.Decl.IsFunction() {
			return nil
		}

		return r.dispatch(node, node.Decl)
	default:
		return nil
	}
}

func (r *collectRun) dispatch(site *m.Node, decl *m.Decl) error {
	if !site.Loc.InMainFile {
		return nil
	}

	// Calls through function pointers have no declaration.
	if decl == nil {
		return nil
	}

	if decl.Defined || decl.Static || decl.Inline || decl.InAnonymousNamespace() {
		return nil
	}

	if decl.Name == errnoAccessor {
		return nil
	}

	if decl.IsFunction() && decl.Builtin && r.skipBuiltin(decl) {
		return nil
	}

	name := decl.QualifiedName()

	if rule, excluded := r.policy.Match(name); excluded {
		r.skipped(name, fmt.Sprintf("skipping %q due to %s", name, rule))
		return nil
	}

	if seen, ok := r.visited[decl.ID]; ok {
		if seen != decl && seen.QualifiedName() != name {
			return fmt.Errorf("%w: %q shares its identity with %q", ErrDuplicateDeclaration, name, seen.QualifiedName())
		}

		return nil
	}

	r.visited[decl.ID] = decl

	if decl.Variadic {
		if len(decl.Params) == 0 {
			return fmt.Errorf("%w: %q", ErrVariadicWithoutParameters, name)
		}

		if !r.opts.Mocking.MockVariadicFunctions {
			r.skipped(name, fmt.Sprintf("skipping variadic function %q", name))
			return nil
		}
	}

	if decl.Kind == m.DeclConversion {
		r.diag.Warnf("skipping conversion operator %q: conversion operators cannot be mocked", name)

		if r.opts.General.Strict {
			return fmt.Errorf("%w: conversion operator %q", ErrStrict, name)
		}

		return nil
	}

	r.result.Decls = append(r.result.Decls, decl)
	if decl.Variadic {
		r.result.AnyVariadic = true
	}

	slog.Debug("Accepted declaration", "name", name, "kind", decl.Kind.String(), "location", decl.Loc.String())

	return nil
}

// skipBuiltin applies the builtin policy. Compiler intrinsics, C++ standard
// library functions and C library functions are each governed by their own
// option.
func (r *collectRun) skipBuiltin(decl *m.Decl) bool {
	mocking := r.opts.Mocking

	switch {
	case strings.HasPrefix(decl.Name, "__builtin_"):
		if !mocking.MockBuiltins {
			r.skipped(decl.Name, fmt.Sprintf("skipping builtin %q", decl.Name))
			return true
		}
	case decl.InStdNamespace():
		if !mocking.MockCXXStdLib {
			name := decl.QualifiedName()
			r.skipped(name, fmt.Sprintf("skipping C++ standard library function %q", name))

			return true
		}
	default:
		if !mocking.MockCStdLib {
			name := decl.QualifiedName()
			r.skipped(name, fmt.Sprintf("skipping C standard library function %q", name))

			return true
		}
	}

	return false
}

func (r *collectRun) skipped(name, message string) {
	slog.Debug("Skipped declaration", "name", name, "reason", message)

	if r.opts.General.Verbose {
		r.diag.Infof("%s", message)
	}
}
