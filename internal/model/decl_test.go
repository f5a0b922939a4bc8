package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecl_QualifiedName(t *testing.T) {
	tu := NewTranslationUnitScope()
	ns := &Scope{Kind: ScopeNamespace, Name: "n1", Parent: tu}
	class := &Scope{Kind: ScopeRecord, Name: "c2", Tag: TagClass, Parent: ns}
	anon := &Scope{Kind: ScopeNamespace, Parent: tu}

	tests := []struct {
		name string
		decl *Decl
		want string
	}{
		{"global", &Decl{Name: "f", Scope: tu}, "f"},
		{"namespace", &Decl{Name: "i1", Scope: ns}, "n1::i1"},
		{"method", &Decl{Name: "run", Scope: class, Kind: DeclMethod}, "n1::c2::run"},
		{"anonymous", &Decl{Name: "g", Scope: anon}, "(anonymous namespace)::g"},
		{"no scope", &Decl{Name: "h"}, "h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decl.QualifiedName())
		})
	}
}

func TestDecl_ScopeChain(t *testing.T) {
	tu := NewTranslationUnitScope()
	ns := &Scope{Kind: ScopeNamespace, Name: "ns", Parent: tu}
	decl := &Decl{Name: "c", Scope: ns}

	chain := decl.ScopeChain()
	require.Len(t, chain, 2)
	assert.Same(t, ns, chain[0])
	assert.Same(t, tu, chain[1])
	assert.True(t, chain[1].IsTranslationUnit())
}

func TestScope_Predicates(t *testing.T) {
	tu := NewTranslationUnitScope()
	std := &Scope{Kind: ScopeNamespace, Name: "std", Parent: tu}
	inner := &Scope{Kind: ScopeNamespace, Name: "__1", Parent: std}
	other := &Scope{Kind: ScopeNamespace, Name: "app", Parent: tu}
	anon := &Scope{Kind: ScopeNamespace, Parent: other}
	nested := &Scope{Kind: ScopeRecord, Name: "impl", Parent: anon}

	assert.True(t, inner.InStdNamespace())
	assert.True(t, std.InStdNamespace())
	assert.False(t, other.InStdNamespace())
	assert.False(t, tu.InStdNamespace())

	assert.True(t, nested.InAnonymousNamespace())
	assert.False(t, other.InAnonymousNamespace())
	assert.True(t, anon.IsAnonymous())
	assert.Equal(t, "app::(anonymous namespace)::impl", nested.QualifiedName())
}

func TestDecl_ParamName(t *testing.T) {
	decl := &Decl{Params: []Param{{Name: "a"}, {}, {Name: "c"}}}

	assert.Equal(t, "a", decl.ParamName(0))
	assert.Equal(t, "arg2", decl.ParamName(1))
	assert.Equal(t, "c", decl.ParamName(2))
}

func TestDecl_ReturnsVoid(t *testing.T) {
	assert.True(t, (&Decl{Kind: DeclFunction, Result: NewType("void")}).ReturnsVoid())
	assert.False(t, (&Decl{Kind: DeclFunction, Result: NewType("int")}).ReturnsVoid())
	assert.True(t, (&Decl{Kind: DeclConstructor}).ReturnsVoid())
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("GMock")
	require.NoError(t, err)
	assert.Equal(t, BackendGMock, b)

	_, err = ParseBackend("cpputest")
	assert.Error(t, err)
}
