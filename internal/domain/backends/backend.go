// Package backends renders collected declarations as mock source code in
// one of the supported idioms.
package backends

import (
	"fmt"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// ScopeTree is the read-only view of the scope hierarchy the emitters walk.
type ScopeTree interface {
	Root() *m.Scope
	Children(scope *m.Scope) []m.ScopeChild
	Scopes() []*m.Scope
	IsTopLevel(scope *m.Scope) bool
	ContainsFunctions(scope *m.Scope) bool
	HasFunctionDescendants(scope *m.Scope) bool
}

// Input is everything an emitter needs. Emitters never decide what to mock,
// they only print what they are given.
type Input struct {
	Options m.Options
	Writer  *Writer
	// Decls are the collected declarations in acceptance order.
	Decls       []*m.Decl
	AnyVariadic bool
	Tree        ScopeTree
	Unit        *m.TranslationUnit
}

func (in Input) functions() []*m.Decl {
	var out []*m.Decl

	for _, d := range in.Decls {
		if d.IsFunction() {
			out = append(out, d)
		}
	}

	return out
}

func (in Input) variables() []*m.Decl {
	var out []*m.Decl

	for _, d := range in.Decls {
		if !d.IsFunction() {
			out = append(out, d)
		}
	}

	return out
}

func (in Input) language() m.Language {
	if in.Unit == nil {
		return m.LanguageCXX
	}

	return in.Unit.Language
}

// Emitter writes the mocks of one translation unit into its Writer.
type Emitter interface {
	// Name is the backend name printed in the file header.
	Name() string
	Run()
}

// New returns the emitter for kind.
func New(kind m.Backend, in Input) (Emitter, error) {
	if in.Writer == nil {
		in.Writer = NewWriter()
	}

	switch kind {
	case m.BackendGMock:
		if err := in.Options.GMock.Validate(); err != nil {
			return nil, err
		}

		return newGMock(in), nil
	case m.BackendFFF:
		return newFFF(in), nil
	case m.BackendCMocka:
		return newCMocka(in), nil
	case m.BackendRaw:
		return newRaw(in), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}
