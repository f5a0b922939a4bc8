package backends

import (
	"strings"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// gmock generates GoogleMock classes that mirror the scopes of the mocked
// declarations, plus free function definitions forwarding to them.
//
// Every top-level scope gets a thread-local pointer to its mock instance.
// Nested scopes are reached through members of their top-level mock.
type gmock struct {
	Input
	w    *Writer
	opts m.GMockOptions
}

func newGMock(in Input) *gmock {
	in.Writer.Bool = true
	in.Writer.VoidParams = false

	return &gmock{Input: in, w: in.Writer, opts: in.Options.GMock}
}

func (g *gmock) Name() string { return string(m.BackendGMock) }

func (g *gmock) Run() {
	g.writeIncludes()
	g.w.WriteLinkageMacro()
	g.writeMockClass(g.Tree.Root(), 0)
	g.writePointerDefinitions()
	g.writeFixture()

	for _, d := range g.functions() {
		g.writeFunction(d)
	}

	g.w.WriteGlobalVariables(g.variables())
	g.writeMain()
}

func (g *gmock) writeIncludes() {
	if g.AnyVariadic {
		g.w.WriteString("\n#include <cstdarg>\n\n")
	}

	g.w.WriteString("\n#include <gmock/gmock.h>\n#include <gtest/gtest.h>\n\n")
}

func (g *gmock) pointerName() string {
	return strings.TrimRight(g.opts.ClassName, "_") + "_ptr_"
}

// needsPointer reports whether scope owns a mock instance pointer.
func (g *gmock) needsPointer(scope *m.Scope) bool {
	if scope.IsTranslationUnit() {
		return g.Tree.ContainsFunctions(scope)
	}

	return g.Tree.IsTopLevel(scope) && g.Tree.HasFunctionDescendants(scope)
}

// mockClassName is the qualified name of the mock class of a top-level or
// translation unit scope, e.g. "ccmock_::ns_".
func (g *gmock) mockClassName(scope *m.Scope) string {
	if scope.IsTranslationUnit() {
		return g.opts.ClassName
	}

	return g.opts.ClassName + "::" + scope.Name + "_"
}

func (g *gmock) writeMockClass(scope *m.Scope, indent int) {
	top := scope.IsTranslationUnit() || g.Tree.IsTopLevel(scope)

	g.w.Indent(indent)

	switch {
	case scope.IsTranslationUnit():
		g.w.WriteString("class " + g.opts.ClassName + " {\n")
	case top:
		g.w.WriteString("class " + scope.Name + "_ {\n")
	default:
		g.w.WriteString("class {\n")
	}

	g.w.Indent(indent)
	g.w.WriteString("public:\n")

	for _, child := range g.Tree.Children(scope) {
		switch {
		case child.Scope != nil:
			if g.Tree.HasFunctionDescendants(child.Scope) {
				g.writeMockClass(child.Scope, indent+4)
			}
		case child.Decl.IsFunction():
			g.writeMockMethod(child.Decl, indent+4)
		}
	}

	if g.needsPointer(scope) {
		g.w.Indent(indent + 4)
		g.w.Printf("static thread_local testing::%s<%s> *%s;\n",
			g.opts.MockType, g.localClassName(scope), g.pointerName())
	}

	g.w.Indent(indent)

	if top {
		g.w.WriteString("};\n\n")
	} else {
		g.w.WriteString("} " + scope.Name + ";\n\n")
	}
}

// localClassName names the mock class of scope from inside its own body.
func (g *gmock) localClassName(scope *m.Scope) string {
	if scope.IsTranslationUnit() {
		return g.opts.ClassName
	}

	return scope.Name + "_"
}

func (g *gmock) writeMockMethod(d *m.Decl, indent int) {
	result := "void"
	if d.HasReturnType() {
		result = g.w.TypeName(d.Result)
	}

	g.w.Indent(indent)
	g.w.Printf("MOCK_METHOD((%s), %s, %s);\n", result, MockName(d), g.w.ParamList(d, false, true))
}

func (g *gmock) pointerScopes() []*m.Scope {
	var out []*m.Scope

	for _, scope := range g.Tree.Scopes() {
		if g.needsPointer(scope) {
			out = append(out, scope)
		}
	}

	return out
}

func (g *gmock) writePointerDefinitions() {
	for _, scope := range g.pointerScopes() {
		name := g.mockClassName(scope)
		g.w.Printf("thread_local testing::%s<%s> *%s::%s = nullptr;\n",
			g.opts.MockType, name, name, g.pointerName())
	}
}

// fixtureMember is the name of the fixture member holding the mock of scope.
func (g *gmock) fixtureMember(scope *m.Scope) string {
	if scope.IsTranslationUnit() {
		return g.opts.GlobalNamespaceName
	}

	return scope.Name
}

func (g *gmock) writeFixture() {
	scopes := g.pointerScopes()

	g.w.Printf("\nclass %s : public testing::Test {\nprotected:\n", g.opts.FixtureName)
	g.w.WriteString("    void SetUp() override {\n")

	for _, scope := range scopes {
		g.w.Printf("        %s::%s = &(*this).%s;\n", g.mockClassName(scope), g.pointerName(), g.fixtureMember(scope))
	}

	g.w.WriteString("    }\n\n")

	for _, scope := range scopes {
		g.w.Printf("    testing::%s<%s> %s;\n", g.opts.MockType, g.mockClassName(scope), g.fixtureMember(scope))
	}

	g.w.WriteString("};\n\n")
}

// mockAccess is the expression reaching the mock object of d's scope,
// including the trailing member access dot.
func (g *gmock) mockAccess(d *m.Decl) string {
	if d.Scope == nil || d.Scope.IsTranslationUnit() {
		return "(*" + g.opts.ClassName + "::" + g.pointerName() + ")."
	}

	chain := d.Scope.Chain()

	var b strings.Builder

	// outermost first, skipping the translation unit
	for i := len(chain) - 2; i >= 0; i-- {
		scope := chain[i]

		if i == len(chain)-2 {
			b.WriteString("(*" + g.opts.ClassName + "::" + scope.Name + "_::" + g.pointerName() + ")")
			continue
		}

		b.WriteString("." + scope.Name)
	}

	b.WriteString(".")

	return b.String()
}

func (g *gmock) mockCall(d *m.Decl) string {
	args := make([]string, 0, len(d.Params)+1)

	for i, p := range d.Params {
		arg := d.ParamName(i)
		if p.Type.IsRValueReference() {
			arg = "std::move(" + arg + ")"
		}

		args = append(args, arg)
	}

	if d.Variadic {
		args = append(args, "vargs_")
	}

	return g.mockAccess(d) + MockName(d) + "(" + strings.Join(args, ", ") + ");\n"
}

func (g *gmock) writeFunction(d *m.Decl) {
	if d.ExternC {
		g.w.WriteString("CCMOCK_LINKAGE ")
	}

	if d.HasReturnType() {
		g.w.WriteString(g.w.TypeName(d.Result) + "\n")
	}

	g.w.WriteString(d.QualifiedName() + g.w.ParamList(d, true, false) + Qualifiers(d) + "\n")

	returns := !d.ReturnsVoid()

	if !d.Variadic {
		g.w.WriteString("{\n    ")

		if returns {
			g.w.WriteString("return ")
		}

		g.w.WriteString(g.mockCall(d))
		g.w.WriteString("}\n\n")

		return
	}

	g.w.WriteString("{\n    va_list vargs_;\n\n")
	g.w.Printf("    va_start(vargs_, %s);\n    ", d.ParamName(len(d.Params)-1))

	if returns {
		g.w.WriteString("auto ccmock_val_ = ")
	}

	g.w.WriteString(g.mockCall(d))
	g.w.WriteString("    va_end(vargs_);\n")

	if returns {
		g.w.WriteString("\n    return ccmock_val_;\n")
	}

	g.w.WriteString("}\n\n")
}

func (g *gmock) writeMain() {
	if !g.opts.WriteMain {
		return
	}

	g.w.WriteString("int main(int argc, char *argv[])\n" +
		"{\n" +
		"    testing::InitGoogleTest(&argc, argv);\n" +
		"\n" +
		"    return RUN_ALL_TESTS();\n" +
		"}\n\n")
}
