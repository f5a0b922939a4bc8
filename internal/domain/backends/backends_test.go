package backends_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccmock.dev/pkg/ccmock/internal/domain"
	"ccmock.dev/pkg/ccmock/internal/domain/backends"
	m "ccmock.dev/pkg/ccmock/internal/model"
)

func param(name, typ string) m.Param {
	return m.Param{Name: name, Type: m.NewType(typ)}
}

// cxxFixture is a translation unit using two extern "C" functions, a class
// in a namespace and a global variable.
func cxxFixture() (*m.TranslationUnit, []*m.Decl) {
	tu := m.NewTranslationUnitScope()
	n1 := &m.Scope{Kind: m.ScopeNamespace, Name: "n1", Parent: tu}
	c1 := &m.Scope{Kind: m.ScopeRecord, Name: "c1", Tag: m.TagClass, Parent: n1}

	decls := []*m.Decl{
		{
			ID: 1, Kind: m.DeclFunction, Name: "f", Scope: tu, ExternC: true,
			Result: m.NewType("int"),
			Params: []m.Param{param("a", "int"), param("", "const char *")},
		},
		{
			ID: 2, Kind: m.DeclFunction, Name: "log", Scope: tu, ExternC: true, Variadic: true,
			Result: m.NewType("void"),
			Params: []m.Param{param("fmt", "const char *")},
		},
		{
			ID: 3, Kind: m.DeclMethod, Name: "get", Scope: c1, Const: true, Access: m.AccessPublic,
			Result: m.NewType("int"),
		},
		{
			ID: 4, Kind: m.DeclConstructor, Name: "c1", Scope: c1, Access: m.AccessPublic,
			Result: m.NewType("void"),
			Params: []m.Param{param("x", "int")},
		},
		{
			ID: 5, Kind: m.DeclFunction, Name: "g", Scope: n1,
			Result: m.NewType("std::string"),
			Params: []m.Param{param("s", "std::string &&")},
		},
		{ID: 6, Kind: m.DeclVariable, Name: "counter", Scope: tu, Type: m.NewType("int")},
	}

	return &m.TranslationUnit{MainFile: "main.cpp", Language: m.LanguageCXX, Scope: tu}, decls
}

func run(t *testing.T, kind m.Backend, opts m.Options, unit *m.TranslationUnit, decls []*m.Decl) string {
	t.Helper()

	anyVariadic := false
	for _, d := range decls {
		anyVariadic = anyVariadic || d.Variadic
	}

	w := backends.NewWriter()

	emitter, err := backends.New(kind, backends.Input{
		Options:     opts,
		Writer:      w,
		Decls:       decls,
		AnyVariadic: anyVariadic,
		Tree:        domain.BuildScopeTree(unit.Scope, decls),
		Unit:        unit,
	})
	require.NoError(t, err)
	assert.Equal(t, string(kind), emitter.Name())

	emitter.Run()

	return string(w.Bytes())
}

const linkageMacro = "#ifdef __cplusplus\n" +
	"#define CCMOCK_LINKAGE extern \"C\"\n" +
	"#else\n" +
	"#define CCMOCK_LINKAGE\n" +
	"#endif\n" +
	"\n"

func TestGMock(t *testing.T) {
	unit, decls := cxxFixture()

	got := run(t, m.BackendGMock, m.DefaultOptions(), unit, decls)

	want := "\n#include <cstdarg>\n\n" +
		"\n#include <gmock/gmock.h>\n#include <gtest/gtest.h>\n\n" +
		linkageMacro +
		"class ccmock_ {\n" +
		"public:\n" +
		"    MOCK_METHOD((int), f, (int, const char *));\n" +
		"    MOCK_METHOD((void), log, (const char *, va_list));\n" +
		"    class n1_ {\n" +
		"    public:\n" +
		"        class {\n" +
		"        public:\n" +
		"            MOCK_METHOD((int), get, ());\n" +
		"            MOCK_METHOD((void), constructor, (int));\n" +
		"        } c1;\n" +
		"\n" +
		"        MOCK_METHOD((std::string), g, (std::string &&));\n" +
		"        static thread_local testing::StrictMock<n1_> *ccmock_ptr_;\n" +
		"    };\n" +
		"\n" +
		"    static thread_local testing::StrictMock<ccmock_> *ccmock_ptr_;\n" +
		"};\n" +
		"\n" +
		"thread_local testing::StrictMock<ccmock_> *ccmock_::ccmock_ptr_ = nullptr;\n" +
		"thread_local testing::StrictMock<ccmock_::n1_> *ccmock_::n1_::ccmock_ptr_ = nullptr;\n" +
		"\n" +
		"class CCMockFixture : public testing::Test {\n" +
		"protected:\n" +
		"    void SetUp() override {\n" +
		"        ccmock_::ccmock_ptr_ = &(*this).mock;\n" +
		"        ccmock_::n1_::ccmock_ptr_ = &(*this).n1;\n" +
		"    }\n" +
		"\n" +
		"    testing::StrictMock<ccmock_> mock;\n" +
		"    testing::StrictMock<ccmock_::n1_> n1;\n" +
		"};\n" +
		"\n" +
		"CCMOCK_LINKAGE int\n" +
		"f(int a, const char *arg2)\n" +
		"{\n" +
		"    return (*ccmock_::ccmock_ptr_).f(a, arg2);\n" +
		"}\n" +
		"\n" +
		"CCMOCK_LINKAGE void\n" +
		"log(const char *fmt, ...)\n" +
		"{\n" +
		"    va_list vargs_;\n" +
		"\n" +
		"    va_start(vargs_, fmt);\n" +
		"    (*ccmock_::ccmock_ptr_).log(fmt, vargs_);\n" +
		"    va_end(vargs_);\n" +
		"}\n" +
		"\n" +
		"int\n" +
		"n1::c1::get() const\n" +
		"{\n" +
		"    return (*ccmock_::n1_::ccmock_ptr_).c1.get();\n" +
		"}\n" +
		"\n" +
		"n1::c1::c1(int x)\n" +
		"{\n" +
		"    (*ccmock_::n1_::ccmock_ptr_).c1.constructor(x);\n" +
		"}\n" +
		"\n" +
		"std::string\n" +
		"n1::g(std::string &&s)\n" +
		"{\n" +
		"    return (*ccmock_::n1_::ccmock_ptr_).g(std::move(s));\n" +
		"}\n" +
		"\n" +
		"int counter;\n" +
		"\n"

	assert.Equal(t, want, got)
}

func TestGMock_Options(t *testing.T) {
	tu := m.NewTranslationUnitScope()
	ns := &m.Scope{Kind: m.ScopeNamespace, Name: "util", Parent: tu}

	decls := []*m.Decl{
		{ID: 1, Kind: m.DeclFunction, Name: "ready", Scope: ns, Result: m.NewType("_Bool")},
		{ID: 2, Kind: m.DeclVariable, Name: "state", Scope: ns, Type: m.NewType("int")},
	}
	unit := &m.TranslationUnit{Language: m.LanguageCXX, Scope: tu}

	opts := m.DefaultOptions()
	opts.GMock.ClassName = "mocks__"
	opts.GMock.MockType = "NiceMock"
	opts.GMock.FixtureName = "Fixture"
	opts.GMock.WriteMain = true

	got := run(t, m.BackendGMock, opts, unit, decls)

	assert.NotContains(t, got, "<cstdarg>")
	assert.Contains(t, got, "class mocks__ {\npublic:\n    class util_ {\n")
	assert.Contains(t, got, "MOCK_METHOD((bool), ready, ());")
	assert.Contains(t, got, "static thread_local testing::NiceMock<util_> *mocks_ptr_;")
	assert.Contains(t, got, "thread_local testing::NiceMock<mocks__::util_> *mocks__::util_::mocks_ptr_ = nullptr;\n")
	assert.Contains(t, got, "class Fixture : public testing::Test {")
	assert.Contains(t, got, "        mocks__::util_::mocks_ptr_ = &(*this).util;\n")
	assert.Contains(t, got, "bool\nutil::ready()\n{\n    return (*mocks__::util_::mocks_ptr_).ready();\n}\n")
	assert.Contains(t, got, "int util::state;\n")
	assert.Contains(t, got, "int main(int argc, char *argv[])\n{\n    testing::InitGoogleTest(&argc, argv);\n")

	// the translation unit has no functions of its own, so it owns no pointer
	assert.NotContains(t, got, "mocks__::mocks_ptr_")
}

func TestGMock_SkipsScopesWithoutFunctions(t *testing.T) {
	tu := m.NewTranslationUnitScope()
	ns := &m.Scope{Kind: m.ScopeNamespace, Name: "cfg", Parent: tu}

	decls := []*m.Decl{
		{ID: 1, Kind: m.DeclFunction, Name: "init", Scope: tu, Result: m.NewType("void")},
		{ID: 2, Kind: m.DeclVariable, Name: "level", Scope: ns, Type: m.NewType("int")},
	}
	unit := &m.TranslationUnit{Language: m.LanguageCXX, Scope: tu}

	got := run(t, m.BackendGMock, m.DefaultOptions(), unit, decls)

	assert.NotContains(t, got, "cfg_")
	assert.Contains(t, got, "int cfg::level;\n")
	assert.Contains(t, got, "void\ninit()\n{\n    (*ccmock_::ccmock_ptr_).init();\n}\n")
}

func TestFFF(t *testing.T) {
	tu := m.NewTranslationUnitScope()

	decls := []*m.Decl{
		{
			ID: 1, Kind: m.DeclFunction, Name: "f", Scope: tu, ExternC: true,
			Result: m.NewType("int"),
			Params: []m.Param{param("a", "int"), param("b", "const int")},
		},
		{
			ID: 2, Kind: m.DeclFunction, Name: "register_cb", Scope: tu, ExternC: true,
			Result: m.NewType("void"),
			Params: []m.Param{
				param("cb", "void (*)(int)"),
				{Name: "h", Type: m.Type{Spelling: "handler_t", Canonical: "void (*)(void)"}},
				param("again", "void (*)(int)"),
			},
		},
		{
			ID: 3, Kind: m.DeclFunction, Name: "logf", Scope: tu, ExternC: true, Variadic: true,
			Result: m.NewType("int"),
			Params: []m.Param{param("level", "int")},
		},
		{ID: 4, Kind: m.DeclVariable, Name: "counter", Scope: tu, Type: m.NewType("int")},
	}
	unit := &m.TranslationUnit{MainFile: "main.c", Language: m.LanguageC, Scope: tu}

	opts := m.DefaultOptions()
	opts.FFF.GCCFunctionAttributes = "weak"
	opts.FFF.ArgHistoryLen = 10

	got := run(t, m.BackendFFF, opts, unit, decls)

	want := "#define FFF_GCC_FUNCTION_ATTRIBUTES weak\n" +
		"#define FFF_ARG_HISTORY_LEN (10u)\n" +
		"\n#include <fff.h>\n\n" +
		"DEFINE_FFF_GLOBALS\n" +
		"\n" +
		"#define FFF_FAKE_LIST(FAKE) \\\n" +
		"    FAKE(f) \\\n" +
		"    FAKE(register_cb) \\\n" +
		"    FAKE(logf) \\\n" +
		"\n\n" +
		"typedef void (*register_cb_fn1_t)(int);\n" +
		"\n" +
		"#ifdef __cplusplus\n" +
		"extern \"C\" {\n" +
		"#endif\n" +
		"\n" +
		"FAKE_VALUE_FUNC(int, f, int, int);\n" +
		"FAKE_VOID_FUNC(register_cb, register_cb_fn1_t, handler_t, register_cb_fn1_t);\n" +
		"FAKE_VALUE_FUNC_VARARG(int, logf, int, ...);\n" +
		"\n" +
		"#ifdef __cplusplus\n" +
		"} /* extern \"C\" */\n" +
		"#endif\n" +
		"\n" +
		"int counter;\n" +
		"\n"

	assert.Equal(t, want, got)
}

func TestFFF_CallingConvention(t *testing.T) {
	tu := m.NewTranslationUnitScope()
	decls := []*m.Decl{{ID: 1, Kind: m.DeclFunction, Name: "tick", Scope: tu, Result: m.NewType("void")}}
	unit := &m.TranslationUnit{Language: m.LanguageC, Scope: tu}

	opts := m.DefaultOptions()
	opts.FFF.CallingConvention = "__stdcall"

	got := run(t, m.BackendFFF, opts, unit, decls)

	assert.NotContains(t, got, "FFF_ARG_HISTORY_LEN")
	assert.NotContains(t, got, "typedef")
	assert.Contains(t, got, "FAKE_VOID_FUNC(__stdcall, tick);\n")
}

func TestCMocka(t *testing.T) {
	tu := m.NewTranslationUnitScope()

	decls := []*m.Decl{
		{
			ID: 1, Kind: m.DeclFunction, Name: "read_into", Scope: tu, ExternC: true,
			Result: m.NewType("int"),
			Params: []m.Param{
				param("fd", "int"),
				param("buf", "void *"),
				param("out", "char *"),
				param("name", "const char *"),
			},
		},
		{
			ID: 2, Kind: m.DeclFunction, Name: "next", Scope: tu, ExternC: true,
			Result: m.NewType("char *"),
		},
	}
	unit := &m.TranslationUnit{MainFile: "main.c", Language: m.LanguageC, Scope: tu}

	got := run(t, m.BackendCMocka, m.DefaultOptions(), unit, decls)

	want := "#include <string.h>\n" +
		"#include <stdarg.h>\n" +
		"#include <stddef.h>\n" +
		"#include <setjmp.h>\n" +
		"\n" +
		"#include <cmocka.h>\n" +
		"\n" +
		linkageMacro +
		"CCMOCK_LINKAGE int\n" +
		"read_into(int fd, void *buf, char *out, const char *name)\n" +
		"{\n" +
		"    const void *mock_ptr;\n" +
		"\n" +
		"    function_called();\n" +
		"\n" +
		"    check_expected(fd);\n" +
		"    check_expected_ptr(buf);\n" +
		"    check_expected_ptr(out);\n" +
		"    check_expected_ptr(name);\n" +
		"\n" +
		"    mock_ptr = mock_ptr_type(char *);\n" +
		"    if (mock_ptr)\n" +
		"        memmove(out, mock_ptr, sizeof(*out));\n" +
		"\n" +
		"\n" +
		"    return mock_type(int);\n" +
		"}\n" +
		"\n" +
		"CCMOCK_LINKAGE char *\n" +
		"next(void)\n" +
		"{\n" +
		"    function_called();\n" +
		"\n" +
		"    return mock_ptr_type(char *);\n" +
		"}\n" +
		"\n"

	assert.Equal(t, want, got)
}

func TestCMocka_OptionsOff(t *testing.T) {
	tu := m.NewTranslationUnitScope()
	decls := []*m.Decl{{
		ID: 1, Kind: m.DeclFunction, Name: "fill", Scope: tu, ExternC: true,
		Result: m.NewType("void"),
		Params: []m.Param{param("out", "int *")},
	}}
	unit := &m.TranslationUnit{Language: m.LanguageC, Scope: tu}

	opts := m.DefaultOptions()
	opts.CMocka.StrictMocks = false
	opts.CMocka.OutputParameters = false

	got := run(t, m.BackendCMocka, opts, unit, decls)

	assert.Contains(t, got, "fill(int *out)\n{\n\n    check_expected_ptr(out);\n}\n")
	assert.NotContains(t, got, "function_called")
	assert.NotContains(t, got, "memmove")
}

func TestRaw(t *testing.T) {
	unit, decls := cxxFixture()

	got := run(t, m.BackendRaw, m.DefaultOptions(), unit, decls)

	want := "int f(int a, const char *arg2);\n" +
		"void log(const char *fmt, ...);\n" +
		"namespace n1 {\n" +
		"\n" +
		"class c1 {\n" +
		"public:\n" +
		"    int get() const;\n" +
		"    c1(int x);\n" +
		"};\n" +
		"\n" +
		"std::string g(std::string &&s);\n" +
		"\n" +
		"} /* namespace n1 */\n" +
		"\n"

	assert.Equal(t, want, got)
}

func TestNew(t *testing.T) {
	unit, decls := cxxFixture()
	in := backends.Input{
		Options: m.DefaultOptions(),
		Decls:   decls,
		Tree:    domain.BuildScopeTree(unit.Scope, decls),
		Unit:    unit,
	}

	for _, kind := range m.Backends {
		t.Run(string(kind), func(t *testing.T) {
			emitter, err := backends.New(kind, in)
			require.NoError(t, err)
			assert.Equal(t, string(kind), emitter.Name())
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		_, err := backends.New("cpputest", in)
		require.Error(t, err)
	})

	t.Run("invalid gmock options", func(t *testing.T) {
		bad := in
		bad.Options.GMock.MockType = "LooseMock"

		_, err := backends.New(m.BackendGMock, bad)
		require.Error(t, err)
	})
}
