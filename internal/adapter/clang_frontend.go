package adapter

import (
	"context"
	"fmt"
	"log/slog"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// ClangFrontend parses sources by asking clang for a JSON syntax tree.
type ClangFrontend struct {
	opts   m.FrontendOptions
	fs     SourceFSAdapter
	runner CompilerRunnerAdapter
}

// NewClangFrontend constructs a ClangFrontend.
func NewClangFrontend(opts m.FrontendOptions, fs SourceFSAdapter, runner CompilerRunnerAdapter) *ClangFrontend {
	if opts.Clang == "" {
		opts.Clang = "clang"
	}

	return &ClangFrontend{opts: opts, fs: fs, runner: runner}
}

// Parse runs clang on source with the flags from the compilation database.
func (f *ClangFrontend) Parse(ctx context.Context, source m.Path) (*m.TranslationUnit, error) {
	abs, err := f.fs.AbsPath(source)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", source, err)
	}

	db, err := compilationDatabase(f.opts, f.fs, abs)
	if err != nil {
		return nil, err
	}

	cmd := db.CommandFor(abs)
	args := f.arguments(cmd, abs)

	slog.Debug("Running clang", "source", abs, "dir", cmd.Directory, "args", args)

	out, err := f.runner.Run(ctx, cmd.Directory, f.opts.Clang, args)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	unit, err := DecodeClangAST(out, abs, cmd.Directory, languageFor(abs, cmd.Arguments))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	return unit, nil
}

func (f *ClangFrontend) arguments(cmd CompileCommand, source m.Path) []string {
	args := []string{"-fsyntax-only", "-Xclang", "-ast-dump=json"}

	if f.opts.ResourceDir != "" {
		args = append(args, "-resource-dir", f.opts.ResourceDir)
	}

	args = append(args, cmd.Arguments...)
	args = append(args, f.opts.ExtraArgs...)

	return append(args, string(source))
}
