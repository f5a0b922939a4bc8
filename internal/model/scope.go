package model

import "strings"

// ScopeKind is the kind of an enclosing lexical scope.
type ScopeKind int

const (
	// ScopeTranslationUnit is the root scope of a translation unit.
	ScopeTranslationUnit ScopeKind = iota
	// ScopeNamespace is a named or anonymous namespace.
	ScopeNamespace
	// ScopeRecord is a class, struct or union.
	ScopeRecord
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTranslationUnit:
		return "translation-unit"
	case ScopeNamespace:
		return "namespace"
	case ScopeRecord:
		return "record"
	default:
		return "unknown"
	}
}

// TagKind distinguishes the keyword a record was declared with.
type TagKind string

// Record tag kinds.
const (
	TagClass  TagKind = "class"
	TagStruct TagKind = "struct"
	TagUnion  TagKind = "union"
)

// AnonymousNamespaceName is how anonymous namespaces appear in qualified names.
const AnonymousNamespaceName = "(anonymous namespace)"

// Scope is one enclosing scope of a declaration. Frontends hand out exactly
// one *Scope per canonical scope, so pointer equality is scope identity.
type Scope struct {
	ID     DeclID
	Kind   ScopeKind
	Name   string
	Tag    TagKind
	Parent *Scope
}

// NewTranslationUnitScope returns a fresh root scope.
func NewTranslationUnitScope() *Scope {
	return &Scope{Kind: ScopeTranslationUnit}
}

// IsTranslationUnit reports whether s is the root scope.
func (s *Scope) IsTranslationUnit() bool {
	return s.Kind == ScopeTranslationUnit
}

// IsAnonymous reports whether s is an anonymous namespace.
func (s *Scope) IsAnonymous() bool {
	return s.Kind == ScopeNamespace && s.Name == ""
}

// Chain returns s and all of its ancestors, innermost first. The last element
// is always the translation unit.
func (s *Scope) Chain() []*Scope {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}

	return chain
}

// QualifiedName joins the names of s and its ancestors with "::". The
// translation unit has an empty qualified name.
func (s *Scope) QualifiedName() string {
	var parts []string

	for cur := s; cur != nil && !cur.IsTranslationUnit(); cur = cur.Parent {
		name := cur.Name
		if cur.IsAnonymous() {
			name = AnonymousNamespaceName
		}

		parts = append(parts, name)
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, "::")
}

// InStdNamespace reports whether the outermost namespace around s is "std".
func (s *Scope) InStdNamespace() bool {
	var outermost *Scope

	for cur := s; cur != nil && !cur.IsTranslationUnit(); cur = cur.Parent {
		if cur.Kind == ScopeNamespace {
			outermost = cur
		}
	}

	return outermost != nil && outermost.Name == "std"
}

// InAnonymousNamespace reports whether s is or is nested in an anonymous namespace.
func (s *Scope) InAnonymousNamespace() bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.IsAnonymous() {
			return true
		}
	}

	return false
}
