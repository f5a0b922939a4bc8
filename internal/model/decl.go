package model

import "strconv"

// DeclID is the opaque identity of a declared entity. All redeclarations of an
// entity share the same id, distinct overloads never do.
type DeclID uint64

// DeclKind classifies a declaration.
type DeclKind int

const (
	// DeclFunction is a free function.
	DeclFunction DeclKind = iota
	// DeclMethod is a non-special member function.
	DeclMethod
	// DeclConstructor is a class constructor.
	DeclConstructor
	// DeclDestructor is a class destructor.
	DeclDestructor
	// DeclConversion is a conversion operator.
	DeclConversion
	// DeclVariable is a global or static data member variable.
	DeclVariable
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclMethod:
		return "method"
	case DeclConstructor:
		return "constructor"
	case DeclDestructor:
		return "destructor"
	case DeclConversion:
		return "conversion"
	case DeclVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Access is the C++ access specifier of a member.
type Access string

// Access specifiers. AccessNone is used for non-members.
const (
	AccessNone      Access = ""
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// RefQualifier is the ref-qualifier of a member function.
type RefQualifier string

// Ref-qualifiers.
const (
	RefNone   RefQualifier = ""
	RefLValue RefQualifier = "&"
	RefRValue RefQualifier = "&&"
)

// Param is one declared function parameter. Name may be empty.
type Param struct {
	Name string
	Type Type
}

// Decl is a function, constructor, destructor or variable declaration as
// resolved by a frontend.
type Decl struct {
	ID    DeclID
	Kind  DeclKind
	Name  string
	Scope *Scope

	Params []Param
	Result Type // return type of functions
	Type   Type // type of variables

	// Operator is the spelling of an overloaded operator ("=", "()", "new[]")
	// and empty for ordinary functions.
	Operator     string
	Access       Access
	RefQualifier RefQualifier

	Variadic bool
	ExternC  bool
	Defined  bool
	Static   bool
	Inline   bool
	Builtin  bool
	Const    bool
	Noexcept bool

	Loc Location
}

// IsFunction reports whether d is any kind of function.
func (d *Decl) IsFunction() bool {
	return d.Kind != DeclVariable
}

// HasReturnType reports whether d is spelled with a return type.
func (d *Decl) HasReturnType() bool {
	switch d.Kind {
	case DeclConstructor, DeclDestructor, DeclConversion, DeclVariable:
		return false
	default:
		return true
	}
}

// ReturnsVoid reports whether calling d yields no value.
func (d *Decl) ReturnsVoid() bool {
	return !d.HasReturnType() || d.Result.IsVoid()
}

// QualifiedName computes the fully qualified name of d. It is not cached.
func (d *Decl) QualifiedName() string {
	if d.Scope == nil {
		return d.Name
	}

	prefix := d.Scope.QualifiedName()
	if prefix == "" {
		return d.Name
	}

	return prefix + "::" + d.Name
}

// ScopeChain returns the enclosing scopes of d, innermost first, ending with
// the translation unit.
func (d *Decl) ScopeChain() []*Scope {
	if d.Scope == nil {
		return nil
	}

	return d.Scope.Chain()
}

// InStdNamespace reports whether d is declared inside namespace std.
func (d *Decl) InStdNamespace() bool {
	return d.Scope != nil && d.Scope.InStdNamespace()
}

// InAnonymousNamespace reports whether d has internal linkage through an
// anonymous namespace.
func (d *Decl) InAnonymousNamespace() bool {
	return d.Scope != nil && d.Scope.InAnonymousNamespace()
}

// ParamName returns the name of the i-th parameter, or "arg<i+1>" when the
// parameter is unnamed.
func (d *Decl) ParamName(i int) string {
	if name := d.Params[i].Name; name != "" {
		return name
	}

	return "arg" + strconv.Itoa(i+1)
}
