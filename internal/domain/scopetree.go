package domain

import m "ccmock.dev/pkg/ccmock/internal/model"

// ScopeTree maps every scope that encloses a collected declaration to its
// direct children. It is rooted at the translation unit and never changes
// after BuildScopeTree returns.
type ScopeTree struct {
	root     *m.Scope
	children map[*m.Scope][]m.ScopeChild
	parents  map[*m.Scope]*m.Scope
	members  map[*m.Scope]map[any]struct{}
}

// BuildScopeTree folds the scope chains of decls into a tree. Repeated
// insertions are no-ops, and children keep their first insertion order.
func BuildScopeTree(root *m.Scope, decls []*m.Decl) *ScopeTree {
	t := &ScopeTree{
		root:     root,
		children: make(map[*m.Scope][]m.ScopeChild),
		parents:  make(map[*m.Scope]*m.Scope),
		members:  make(map[*m.Scope]map[any]struct{}),
	}
	t.ensure(root)

	for _, decl := range decls {
		chain := decl.ScopeChain()
		if len(chain) == 0 {
			continue
		}

		t.insert(chain[0], m.ScopeChild{Decl: decl})

		for i := 0; i+1 < len(chain); i++ {
			t.insert(chain[i+1], m.ScopeChild{Scope: chain[i]})
			t.parents[chain[i]] = chain[i+1]
		}

		t.ensure(chain[len(chain)-1])
	}

	return t
}

func (t *ScopeTree) ensure(scope *m.Scope) {
	if _, ok := t.members[scope]; ok {
		return
	}

	t.members[scope] = make(map[any]struct{})
	t.children[scope] = nil
}

func (t *ScopeTree) insert(parent *m.Scope, child m.ScopeChild) {
	t.ensure(parent)

	var key any = child.Scope
	if child.Decl != nil {
		key = child.Decl.ID
	} else {
		t.ensure(child.Scope)
	}

	if _, ok := t.members[parent][key]; ok {
		return
	}

	t.members[parent][key] = struct{}{}
	t.children[parent] = append(t.children[parent], child)
}

// Root returns the translation unit scope.
func (t *ScopeTree) Root() *m.Scope {
	return t.root
}

// Has reports whether scope is a node of the tree.
func (t *ScopeTree) Has(scope *m.Scope) bool {
	_, ok := t.members[scope]
	return ok
}

// Children returns the direct children of scope in insertion order.
func (t *ScopeTree) Children(scope *m.Scope) []m.ScopeChild {
	return t.children[scope]
}

// Parent returns the parent of scope. The root has none.
func (t *ScopeTree) Parent(scope *m.Scope) (*m.Scope, bool) {
	parent, ok := t.parents[scope]
	return parent, ok
}

// Scopes lists every scope of the tree in pre-order, starting at the root.
func (t *ScopeTree) Scopes() []*m.Scope {
	var out []*m.Scope

	var walk func(*m.Scope)
	walk = func(scope *m.Scope) {
		out = append(out, scope)

		for _, child := range t.children[scope] {
			if child.Scope != nil {
				walk(child.Scope)
			}
		}
	}
	walk(t.root)

	return out
}

// IsTopLevel reports whether the parent of scope is the translation unit.
func (t *ScopeTree) IsTopLevel(scope *m.Scope) bool {
	parent, ok := t.parents[scope]
	return ok && parent == t.root
}

// ContainsFunctions reports whether scope directly contains a function.
func (t *ScopeTree) ContainsFunctions(scope *m.Scope) bool {
	for _, child := range t.children[scope] {
		if child.Decl != nil && child.Decl.IsFunction() {
			return true
		}
	}

	return false
}

// HasFunctionDescendants reports whether a function is declared anywhere
// below scope.
func (t *ScopeTree) HasFunctionDescendants(scope *m.Scope) bool {
	for _, child := range t.children[scope] {
		if child.Decl != nil && child.Decl.IsFunction() {
			return true
		}

		if child.Scope != nil && t.HasFunctionDescendants(child.Scope) {
			return true
		}
	}

	return false
}
