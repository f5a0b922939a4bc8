// Package domain contains the mock discovery pipeline: exclusion policy,
// declaration collector, scope tree and the generation driver.
package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"ccmock.dev/pkg/ccmock/internal/adapter"
	"ccmock.dev/pkg/ccmock/internal/domain/backends"
	m "ccmock.dev/pkg/ccmock/internal/model"
)

// MockFileExt is the extension of generated files when several inputs are
// written into one output directory.
const MockFileExt = ".inc"

const outputPerm = 0o644

// GenerateArgs contains the arguments of one generation run.
type GenerateArgs struct {
	Sources []m.Path
	Options m.Options
	// Version is printed in the header of every generated file.
	Version string
	// Stdout receives the output when no output path is configured, and the
	// diff in check mode.
	Stdout io.Writer
}

// CollectArgs contains the arguments of a collect-only run.
type CollectArgs struct {
	Sources []m.Path
	Options m.Options
}

// CollectReport is what the pipeline found in one source file.
type CollectReport struct {
	Source m.Path
	Unit   *m.TranslationUnit
	Result *CollectResult
	Tree   *ScopeTree
}

// Generator runs the complete pipeline for a set of source files.
type Generator interface {
	Generate(ctx context.Context, args GenerateArgs) error
	Collect(ctx context.Context, args CollectArgs) ([]CollectReport, error)
}

type generator struct {
	frontend adapter.Frontend
	fs       adapter.SourceFSAdapter
	diag     Diagnostics
	now      func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(frontend adapter.Frontend, fsAdapter adapter.SourceFSAdapter, diag Diagnostics) Generator {
	if diag == nil {
		diag = NopDiagnostics{}
	}

	return &generator{
		frontend: frontend,
		fs:       fsAdapter,
		diag:     diag,
		now:      time.Now,
	}
}

// target is where the output of one source goes. An empty path means stdout.
type target struct {
	source m.Path
	path   m.Path
}

func (g *generator) Generate(ctx context.Context, args GenerateArgs) error {
	if len(args.Sources) == 0 {
		return fmt.Errorf("no source files given")
	}

	opts := args.Options

	policy, err := NewExclusionPolicy(opts.Mocking.Blacklist)
	if err != nil {
		return err
	}

	base, err := g.baseDirectory(opts)
	if err != nil {
		return err
	}

	targets, err := g.targets(args.Sources, opts)
	if err != nil {
		return err
	}

	outputs := make([][]byte, len(targets))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(opts.General.Parallel, 1))

	for i, t := range targets {
		group.Go(func() error {
			out, err := g.generateOne(gctx, t, base, args, policy)
			if err != nil {
				return fmt.Errorf("%s: %w", t.source, err)
			}

			outputs[i] = out

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if opts.General.Check {
		return g.check(targets, outputs, args.Stdout)
	}

	return g.flush(targets, outputs, opts.General.Force, args.Stdout)
}

func (g *generator) Collect(ctx context.Context, args CollectArgs) ([]CollectReport, error) {
	policy, err := NewExclusionPolicy(args.Options.Mocking.Blacklist)
	if err != nil {
		return nil, err
	}

	reports := make([]CollectReport, len(args.Sources))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(args.Options.General.Parallel, 1))

	for i, source := range args.Sources {
		group.Go(func() error {
			unit, result, err := g.collect(gctx, source, args.Options, policy)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			reports[i] = CollectReport{
				Source: source,
				Unit:   unit,
				Result: result,
				Tree:   BuildScopeTree(unit.Scope, result.Decls),
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

func (g *generator) collect(ctx context.Context, source m.Path, opts m.Options, policy *ExclusionPolicy) (*m.TranslationUnit, *CollectResult, error) {
	slog.Debug("Parsing source", "source", source)

	unit, err := g.frontend.Parse(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	result, err := NewCollector(opts, policy, g.diag).Run(ctx, unit)
	if err != nil {
		return nil, nil, err
	}

	return unit, result, nil
}

func (g *generator) generateOne(ctx context.Context, t target, base m.Path, args GenerateArgs, policy *ExclusionPolicy) ([]byte, error) {
	opts := args.Options

	unit, result, err := g.collect(ctx, t.source, opts, policy)
	if err != nil {
		return nil, err
	}

	w := backends.NewWriter()

	emitter, err := backends.New(opts.Mocking.Backend, backends.Input{
		Options:     opts,
		Writer:      w,
		Decls:       result.Decls,
		AnyVariadic: result.AnyVariadic,
		Tree:        BuildScopeTree(unit.Scope, result.Decls),
		Unit:        unit,
	})
	if err != nil {
		return nil, err
	}

	header := backends.Header{
		Version:   args.Version,
		Backend:   emitter.Name(),
		Directory: string(base),
		Input:     g.relative(base, t.source),
	}

	if t.path != "" {
		header.Output = g.relative(base, t.path)
	}

	if opts.General.WriteDate {
		header.Date = g.now()
	}

	w.WriteHeader(header)
	emitter.Run()

	slog.Info("Generated mocks", "source", t.source, "backend", emitter.Name(), "declarations", len(result.Decls))

	return w.Bytes(), nil
}

func (g *generator) baseDirectory(opts m.Options) (m.Path, error) {
	base := opts.General.BaseDirectory
	if base == "" {
		base = "."
	}

	abs, err := g.fs.AbsPath(base)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}

	return abs, nil
}

// relative prints path relative to base, or as given when that fails.
func (g *generator) relative(base, path m.Path) string {
	abs, err := g.fs.AbsPath(path)
	if err != nil {
		return string(path)
	}

	rel, err := g.fs.RelPath(base, abs)
	if err != nil {
		return string(path)
	}

	return string(rel)
}

func (g *generator) targets(sources []m.Path, opts m.Options) ([]target, error) {
	output := opts.General.Output

	if len(sources) == 1 {
		return []target{{source: sources[0], path: output}}, nil
	}

	if output == "" {
		return nil, fmt.Errorf("%d input files need an output directory", len(sources))
	}

	info, err := g.fs.FileInfo(output)
	if err != nil {
		return nil, fmt.Errorf("output directory %s: %w", output, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("output %s must be a directory when generating %d files", output, len(sources))
	}

	targets := make([]target, 0, len(sources))
	seen := make(map[m.Path]m.Path, len(sources))

	for _, source := range sources {
		base := filepath.Base(string(source))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		path := g.fs.JoinPath(string(output), stem+MockFileExt)

		if prev, ok := seen[path]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, source, path)
		}

		seen[path] = source
		targets = append(targets, target{source: source, path: path})
	}

	return targets, nil
}

// flush writes every output. All targets are checked and staged next to
// their destination before the first one is renamed into place, so a refused
// or failed target leaves every file untouched.
func (g *generator) flush(targets []target, outputs [][]byte, force bool, stdout io.Writer) error {
	pending := make([]bool, len(targets))

	for i, t := range targets {
		if t.path == "" {
			pending[i] = true
			continue
		}

		write, err := g.needsWrite(t.path, outputs[i], force)
		if err != nil {
			return err
		}

		pending[i] = write
	}

	staged := make(map[int]m.Path, len(targets))

	discard := func() {
		for i, tmp := range staged {
			if err := g.fs.DiscardFile(tmp); err != nil {
				slog.Warn("Failed to remove staged output", "path", tmp, "error", err)
			}

			delete(staged, i)
		}
	}

	for i, t := range targets {
		if !pending[i] || t.path == "" {
			continue
		}

		tmp, err := g.fs.StageFile(t.path, outputs[i], outputPerm)
		if err != nil {
			discard()
			return fmt.Errorf("write %s: %w", t.path, err)
		}

		staged[i] = tmp
	}

	for i, t := range targets {
		tmp, ok := staged[i]
		if !ok {
			continue
		}

		if err := g.fs.CommitFile(tmp, t.path); err != nil {
			discard()
			return fmt.Errorf("write %s: %w", t.path, err)
		}

		delete(staged, i)
		slog.Info("Wrote mock file", "path", t.path, "bytes", len(outputs[i]))
	}

	for i, t := range targets {
		if !pending[i] {
			slog.Debug("Output unchanged", "path", t.path)
			continue
		}

		if t.path != "" {
			continue
		}

		if stdout == nil {
			return fmt.Errorf("no output writer configured")
		}

		if _, err := stdout.Write(outputs[i]); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

// needsWrite reports whether path must be (re)written with content.
func (g *generator) needsWrite(path m.Path, content []byte, force bool) (bool, error) {
	if _, err := g.fs.FileInfo(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}

		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	hash, err := g.fs.HashFile(path)
	if err == nil && hash == adapter.HashBytes(content) {
		return false, nil
	}

	if !force {
		return false, fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	}

	return true, nil
}

// check compares every output with the file on disk and prints a unified
// diff for each one that differs.
func (g *generator) check(targets []target, outputs [][]byte, stdout io.Writer) error {
	var outdated []string

	for i, t := range targets {
		if t.path == "" {
			return fmt.Errorf("check needs an output file")
		}

		current, err := g.fs.ReadFile(t.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", t.path, err)
		}

		if string(current) == string(outputs[i]) {
			continue
		}

		outdated = append(outdated, string(t.path))

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(current)),
			B:        difflib.SplitLines(string(outputs[i])),
			FromFile: string(t.path),
			ToFile:   string(t.path) + " (generated)",
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diff %s: %w", t.path, err)
		}

		if stdout != nil {
			if _, err := io.WriteString(stdout, diff); err != nil {
				return fmt.Errorf("write diff: %w", err)
			}
		}
	}

	if len(outdated) > 0 {
		return fmt.Errorf("%w: %s", ErrOutdated, strings.Join(outdated, ", "))
	}

	return nil
}
