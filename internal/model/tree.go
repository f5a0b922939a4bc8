package model

// NodeKind classifies syntax tree nodes that matter to mock discovery.
type NodeKind int

const (
	// NodeOther is any node that is only traversed.
	NodeOther NodeKind = iota
	// NodeCall is a call expression. Decl is the direct callee, nil for
	// calls through function pointers.
	NodeCall
	// NodeConstruct is an object construction. Decl is the constructor and
	// Destructor the destructor of the constructed class.
	NodeConstruct
	// NodeDeclRef is a reference to a named declaration.
	NodeDeclRef
)

func (k NodeKind) String() string {
	switch k {
	case NodeCall:
		return "call"
	case NodeConstruct:
		return "construct"
	case NodeDeclRef:
		return "declref"
	default:
		return "other"
	}
}

// Node is one node of the syntax tree produced by a frontend.
type Node struct {
	Kind       NodeKind
	Loc        Location
	Decl       *Decl
	Destructor *Decl
	Children   []*Node
}

// Walk visits n and its descendants depth-first in pre-order. Returning false
// from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}

	if !fn(n) {
		return false
	}

	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}

	return true
}

// ScopeChild is an entry directly below a scope in a scope tree: either a
// nested scope or a declaration.
type ScopeChild struct {
	Scope *Scope
	Decl  *Decl
}

// TranslationUnit is a fully resolved source file.
type TranslationUnit struct {
	MainFile Path
	Language Language
	Scope    *Scope
	Root     *Node
}
