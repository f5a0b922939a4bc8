package domain

import (
	m "ccmock.dev/pkg/ccmock/internal/model"
)

// unitBuilder assembles small translation units for tests.
type unitBuilder struct {
	tu     *m.Scope
	body   *m.Node
	nextID m.DeclID
}

func newUnitBuilder() *unitBuilder {
	return &unitBuilder{
		tu:   m.NewTranslationUnitScope(),
		body: &m.Node{Kind: m.NodeOther, Loc: mainLoc()},
	}
}

func mainLoc() m.Location {
	return m.Location{File: "main.cpp", Line: 1, Column: 1, InMainFile: true}
}

func headerLoc() m.Location {
	return m.Location{File: "dep.h", Line: 1, Column: 1}
}

func (b *unitBuilder) id() m.DeclID {
	b.nextID++
	return b.nextID
}

func (b *unitBuilder) namespace(name string, parent *m.Scope) *m.Scope {
	if parent == nil {
		parent = b.tu
	}

	return &m.Scope{ID: b.id(), Kind: m.ScopeNamespace, Name: name, Parent: parent}
}

func (b *unitBuilder) class(name string, parent *m.Scope) *m.Scope {
	if parent == nil {
		parent = b.tu
	}

	return &m.Scope{ID: b.id(), Kind: m.ScopeRecord, Tag: m.TagClass, Name: name, Parent: parent}
}

func (b *unitBuilder) function(name string, scope *m.Scope, opts ...func(*m.Decl)) *m.Decl {
	if scope == nil {
		scope = b.tu
	}

	decl := &m.Decl{
		ID:     b.id(),
		Kind:   m.DeclFunction,
		Name:   name,
		Scope:  scope,
		Result: m.NewType("void"),
		Loc:    headerLoc(),
	}

	if scope.Kind == m.ScopeRecord {
		decl.Kind = m.DeclMethod
		decl.Access = m.AccessPublic
	}

	for _, opt := range opts {
		opt(decl)
	}

	return decl
}

func (b *unitBuilder) variable(name string, scope *m.Scope, typ string) *m.Decl {
	if scope == nil {
		scope = b.tu
	}

	return &m.Decl{ID: b.id(), Kind: m.DeclVariable, Name: name, Scope: scope, Type: m.NewType(typ), Loc: headerLoc()}
}

func (b *unitBuilder) call(decl *m.Decl) *unitBuilder {
	b.body.Children = append(b.body.Children, &m.Node{Kind: m.NodeCall, Loc: mainLoc(), Decl: decl})
	return b
}

func (b *unitBuilder) callFromHeader(decl *m.Decl) *unitBuilder {
	b.body.Children = append(b.body.Children, &m.Node{Kind: m.NodeCall, Loc: headerLoc(), Decl: decl})
	return b
}

func (b *unitBuilder) construct(ctor, dtor *m.Decl) *unitBuilder {
	b.body.Children = append(b.body.Children, &m.Node{Kind: m.NodeConstruct, Loc: mainLoc(), Decl: ctor, Destructor: dtor})
	return b
}

func (b *unitBuilder) ref(decl *m.Decl) *unitBuilder {
	b.body.Children = append(b.body.Children, &m.Node{Kind: m.NodeDeclRef, Loc: mainLoc(), Decl: decl})
	return b
}

func (b *unitBuilder) unit() *m.TranslationUnit {
	return &m.TranslationUnit{
		MainFile: "main.cpp",
		Language: m.LanguageCXX,
		Scope:    b.tu,
		Root:     &m.Node{Kind: m.NodeOther, Children: []*m.Node{b.body}},
	}
}

func withParams(types ...string) func(*m.Decl) {
	return func(d *m.Decl) {
		for _, typ := range types {
			d.Params = append(d.Params, m.Param{Type: m.NewType(typ)})
		}
	}
}

func withResult(typ string) func(*m.Decl) {
	return func(d *m.Decl) { d.Result = m.NewType(typ) }
}

func variadic(d *m.Decl) { d.Variadic = true }

func defined(d *m.Decl) { d.Defined = true }

func builtin(d *m.Decl) { d.Builtin = true }

func externC(d *m.Decl) { d.ExternC = true }

// recordingDiagnostics keeps every message for assertions.
type recordingDiagnostics struct {
	infos    []string
	warnings []string
	errors   []string
}

func (r *recordingDiagnostics) Infof(format string, args ...any) {
	r.infos = append(r.infos, sprintf(format, args...))
}

func (r *recordingDiagnostics) Warnf(format string, args ...any) {
	r.warnings = append(r.warnings, sprintf(format, args...))
}

func (r *recordingDiagnostics) Errorf(format string, args ...any) {
	r.errors = append(r.errors, sprintf(format, args...))
}
