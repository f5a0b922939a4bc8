package model

import (
	"regexp"
	"strings"
)

// Type is a printed C or C++ type as reported by a frontend.
type Type struct {
	// Spelling is the type as written, typedef sugar included.
	Spelling string
	// Canonical is the desugared spelling. Empty when it equals Spelling.
	Canonical string
}

var (
	trailingQualifiers = regexp.MustCompile(`(\s*\b(const|volatile|restrict|__restrict)\b)+$`)
	leadingQualifiers  = regexp.MustCompile(`^((const|volatile)\s+)+`)
	pointerHole        = regexp.MustCompile(`\(\s*\*(\s*(const|volatile|restrict|__restrict)\b)*\s*\)`)
	declaratorHole     = regexp.MustCompile(`\(\s*(\*|&&|&)(\s*(const|volatile|restrict|__restrict)\b)*\s*\)`)
	functionPtrHole    = regexp.MustCompile(`\(\s*\*(\s*(const|volatile|restrict|__restrict)\b)*\s*\)\s*\(`)
)

// NewType returns a type whose canonical spelling is its spelling.
func NewType(spelling string) Type {
	return Type{Spelling: strings.TrimSpace(spelling)}
}

// Printed returns the canonical spelling of t.
func (t Type) Printed() string {
	if t.Canonical != "" {
		return t.Canonical
	}

	return t.Spelling
}

func (t Type) String() string {
	return t.Printed()
}

// IsTypedef reports whether the written type is sugar for a different type.
func (t Type) IsTypedef() bool {
	return t.Canonical != "" && t.Canonical != t.Spelling
}

// IsVoid reports whether t is (possibly cv-qualified) void.
func (t Type) IsVoid() bool {
	core, _ := splitLocalQualifiers(t.Printed())
	return core == "void"
}

// IsPointer reports whether t is a pointer, including function pointers.
func (t Type) IsPointer() bool {
	core, _ := splitLocalQualifiers(t.Printed())
	if strings.HasSuffix(core, "*") {
		return true
	}

	return pointerHole.MatchString(core)
}

// IsFunctionPointer reports whether t is a pointer to a function.
func (t Type) IsFunctionPointer() bool {
	return functionPtrHole.MatchString(t.Printed())
}

// IsRValueReference reports whether t is an rvalue reference.
func (t Type) IsRValueReference() bool {
	core, _ := splitLocalQualifiers(t.Printed())
	return strings.HasSuffix(core, "&&")
}

// IsConst reports whether t itself is const qualified.
func (t Type) IsConst() bool {
	_, quals := splitLocalQualifiers(t.Printed())
	return hasWord(quals, "const")
}

// Pointee returns the type t points to. It returns false for function
// pointers and non-pointers.
func (t Type) Pointee() (Type, bool) {
	if t.IsFunctionPointer() {
		return Type{}, false
	}

	core, _ := splitLocalQualifiers(t.Printed())
	if !strings.HasSuffix(core, "*") {
		return Type{}, false
	}

	return NewType(strings.TrimSuffix(core, "*")), true
}

// PointeeConst reports whether t points to const data.
func (t Type) PointeeConst() bool {
	pointee, ok := t.Pointee()
	return ok && pointee.IsConst()
}

// PointeeVoid reports whether t is a pointer to (possibly cv-qualified) void.
func (t Type) PointeeVoid() bool {
	pointee, ok := t.Pointee()
	return ok && pointee.IsVoid()
}

// WithoutLocalConst drops a top-level const qualifier.
func (t Type) WithoutLocalConst() Type {
	out := Type{Spelling: removeLocalConst(t.Spelling)}
	if t.Canonical != "" {
		out.Canonical = removeLocalConst(t.Canonical)
	}

	return out
}

// Declare renders a declarator of the canonical type named name, e.g.
// "void (*cb)(int)", "int values[4]" or "const char *fmt".
func (t Type) Declare(name string) string {
	return DeclareSpelling(t.Printed(), name)
}

// DeclareSpelling places name inside the type spelling s.
func DeclareSpelling(s, name string) string {
	s = strings.TrimSpace(s)
	if name == "" {
		return s
	}

	if loc := declaratorHole.FindStringIndex(s); loc != nil {
		closing := loc[1] - 1
		inner := strings.TrimRight(s[:closing], " ")
		sep := ""

		if !strings.HasSuffix(inner, "*") && !strings.HasSuffix(inner, "&") {
			sep = " "
		}

		return inner + sep + name + s[closing:]
	}

	if i := strings.Index(s, " ["); i >= 0 {
		return s[:i] + " " + name + s[i+1:]
	}

	if strings.HasSuffix(s, "*") || strings.HasSuffix(s, "&") {
		return s + name
	}

	return s + " " + name
}

// splitLocalQualifiers separates the top-level cv-qualifiers of s from the
// rest of the type.
func splitLocalQualifiers(s string) (string, string) {
	s = strings.TrimSpace(s)

	if loc := trailingQualifiers.FindStringIndex(s); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(s[:loc[0]]), strings.TrimSpace(s[loc[0]:])
	}

	if isCompound(s) {
		return s, ""
	}

	if loc := leadingQualifiers.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:]), strings.TrimSpace(s[:loc[1]])
	}

	return s, ""
}

// isCompound reports whether leading qualifiers of s belong to a nested type
// rather than to s itself.
func isCompound(s string) bool {
	return strings.HasSuffix(s, "*") ||
		strings.HasSuffix(s, "&") ||
		strings.HasSuffix(s, ")") ||
		strings.HasSuffix(s, "]")
}

func removeLocalConst(s string) string {
	core, quals := splitLocalQualifiers(s)
	if !hasWord(quals, "const") {
		return strings.TrimSpace(s)
	}

	var kept []string

	for _, q := range strings.Fields(quals) {
		if q != "const" {
			kept = append(kept, q)
		}
	}

	if len(kept) == 0 {
		return core
	}

	if isCompound(core) {
		return core + " " + strings.Join(kept, " ")
	}

	return strings.Join(kept, " ") + " " + core
}

func hasWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}

	return false
}
