package backends

import (
	"strconv"
	"strings"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// fff generates Fake Function Framework fakes.
type fff struct {
	Input
	w    *Writer
	opts m.FFFOptions

	// typedefs maps canonical function pointer spellings to the name of
	// the typedef generated for them.
	typedefs map[string]string
}

func newFFF(in Input) *fff {
	in.Writer.VoidParams = in.language() == m.LanguageC

	return &fff{Input: in, w: in.Writer, opts: in.Options.FFF, typedefs: make(map[string]string)}
}

func (f *fff) Name() string { return string(m.BackendFFF) }

func (f *fff) Run() {
	functions := f.functions()

	f.writeSettings()
	f.w.WriteString("\n#include <fff.h>\n\n")
	f.writeFakeList(functions)
	f.writeTypedefs(functions)
	f.writeFakes(functions)
	f.w.WriteGlobalVariables(f.variables())
}

func (f *fff) writeSettings() {
	if f.opts.GCCFunctionAttributes != "" {
		f.w.WriteString("#define FFF_GCC_FUNCTION_ATTRIBUTES " + f.opts.GCCFunctionAttributes + "\n")
	}

	if f.opts.ArgHistoryLen >= 0 {
		f.w.Printf("#define FFF_ARG_HISTORY_LEN (%du)\n", f.opts.ArgHistoryLen)
	}

	if f.opts.CallHistoryLen >= 0 {
		f.w.Printf("#define FFF_CALL_HISTORY_LEN (%du)\n", f.opts.CallHistoryLen)
	}
}

func (f *fff) writeFakeList(functions []*m.Decl) {
	f.w.WriteString("DEFINE_FFF_GLOBALS\n\n#define FFF_FAKE_LIST(FAKE) \\\n")

	for _, d := range functions {
		f.w.WriteString("    FAKE(" + d.Name + ") \\\n")
	}

	f.w.WriteString("\n\n")
}

// writeTypedefs names every anonymous function pointer parameter type. The
// fake macros cannot take a declarator that wraps around its name.
func (f *fff) writeTypedefs(functions []*m.Decl) {
	for _, d := range functions {
		for i, p := range d.Params {
			if !p.Type.IsFunctionPointer() || p.Type.IsTypedef() {
				continue
			}

			key := p.Type.Printed()
			if _, ok := f.typedefs[key]; ok {
				continue
			}

			name := d.Name + "_fn" + strconv.Itoa(i+1) + "_t"
			f.typedefs[key] = name
			f.w.WriteString("typedef " + f.w.Declare(p.Type, name) + ";\n")
		}
	}

	if len(f.typedefs) > 0 {
		f.w.WriteString("\n")
	}
}

func (f *fff) paramType(p m.Param) string {
	if p.Type.IsTypedef() {
		return f.w.TypeName(m.NewType(p.Type.Spelling).WithoutLocalConst())
	}

	if name, ok := f.typedefs[p.Type.Printed()]; ok {
		return name
	}

	return f.w.TypeName(p.Type.WithoutLocalConst())
}

func (f *fff) writeFakes(functions []*m.Decl) {
	f.w.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	for _, d := range functions {
		suffix := ""
		if d.Variadic {
			suffix = "_VARARG"
		}

		var args []string

		if d.ReturnsVoid() {
			f.w.WriteString("FAKE_VOID_FUNC" + suffix + "(")
		} else {
			f.w.WriteString("FAKE_VALUE_FUNC" + suffix + "(")
			args = append(args, f.w.TypeName(d.Result))
		}

		if f.opts.CallingConvention != "" {
			args = append(args, f.opts.CallingConvention)
		}

		args = append(args, d.Name)

		for _, p := range d.Params {
			args = append(args, f.paramType(p))
		}

		if d.Variadic {
			args = append(args, "...")
		}

		f.w.WriteString(strings.Join(args, ", ") + ");\n")
	}

	f.w.WriteString("\n#ifdef __cplusplus\n} /* extern \"C\" */\n#endif\n\n")
}
