package adapter

import (
	"context"
	"fmt"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// Frontend turns a source file into a resolved translation unit.
type Frontend interface {
	Parse(ctx context.Context, source m.Path) (*m.TranslationUnit, error)
}

// NewFrontend returns the frontend selected by opts.
func NewFrontend(opts m.FrontendOptions, fs SourceFSAdapter, runner CompilerRunnerAdapter) (Frontend, error) {
	switch opts.Kind {
	case m.FrontendClang, "":
		return NewClangFrontend(opts, fs, runner), nil
	case m.FrontendTreeSitter:
		return NewTreeSitterFrontend(opts, fs), nil
	default:
		return nil, fmt.Errorf("unknown frontend %q", opts.Kind)
	}
}

// compilationDatabase loads the configured database or detects one next to source.
func compilationDatabase(opts m.FrontendOptions, fs SourceFSAdapter, source m.Path) (CompilationDatabase, error) {
	if opts.CompileCommands != "" {
		return LoadCompilationDatabase(fs, opts.CompileCommands)
	}

	return DetectCompilationDatabase(fs, source)
}

// languageFor honours an explicit -x option before falling back to the
// file extension.
func languageFor(source m.Path, args []string) m.Language {
	lang := m.LanguageForPath(source)

	for i, arg := range args {
		value := ""

		switch {
		case arg == "-x" && i+1 < len(args):
			value = args[i+1]
		case len(arg) > 2 && arg[:2] == "-x":
			value = arg[2:]
		default:
			continue
		}

		switch value {
		case "c", "c-header", "cpp-output":
			lang = m.LanguageC
		case "c++", "c++-header", "c++-cpp-output":
			lang = m.LanguageCXX
		}
	}

	return lang
}
