package backends

import (
	m "ccmock.dev/pkg/ccmock/internal/model"
)

// cmocka generates functions that record their arguments with
// check_expected and return values queued with will_return.
type cmocka struct {
	Input
	w    *Writer
	opts m.CMockaOptions
}

func newCMocka(in Input) *cmocka {
	in.Writer.VoidParams = in.language() == m.LanguageC

	return &cmocka{Input: in, w: in.Writer, opts: in.Options.CMocka}
}

func (c *cmocka) Name() string { return string(m.BackendCMocka) }

func (c *cmocka) Run() {
	c.w.WriteString("#include <string.h>\n" +
		"#include <stdarg.h>\n" +
		"#include <stddef.h>\n" +
		"#include <setjmp.h>\n" +
		"\n" +
		"#include <cmocka.h>\n" +
		"\n")
	c.w.WriteLinkageMacro()
	c.w.WriteGlobalVariables(c.variables())

	for _, d := range c.functions() {
		c.writeFunction(d)
	}
}

// isOutParam reports whether p points to writable data the caller expects
// the function to fill in.
func isOutParam(p m.Param) bool {
	if p.Type.IsFunctionPointer() {
		return false
	}

	pointee, ok := p.Type.Pointee()
	if !ok {
		return false
	}

	return !pointee.IsVoid() && !pointee.IsConst()
}

func (c *cmocka) writeFunction(d *m.Decl) {
	if d.ExternC {
		c.w.WriteString("CCMOCK_LINKAGE ")
	}

	if d.HasReturnType() {
		c.w.WriteString(c.w.TypeName(d.Result) + "\n")
	}

	c.w.WriteString(d.QualifiedName() + c.w.ParamList(d, true, false) + Qualifiers(d) + "\n")
	c.writeBody(d)
	c.w.WriteString("\n")
}

func (c *cmocka) writeBody(d *m.Decl) {
	var outParams []int

	if c.opts.OutputParameters {
		for i, p := range d.Params {
			if isOutParam(p) {
				outParams = append(outParams, i)
			}
		}
	}

	c.w.WriteString("{\n")

	if len(outParams) > 0 {
		c.w.WriteString("    const void *mock_ptr;\n\n")
	}

	if c.opts.StrictMocks {
		c.w.WriteString("    function_called();\n")
	}

	if len(d.Params) > 0 {
		c.w.WriteString("\n")

		for i, p := range d.Params {
			check := "check_expected"
			if p.Type.IsPointer() {
				check = "check_expected_ptr"
			}

			c.w.Printf("    %s(%s);\n", check, d.ParamName(i))
		}
	}

	if len(outParams) > 0 {
		c.w.WriteString("\n")
	}

	for _, i := range outParams {
		name := d.ParamName(i)

		c.w.Printf("    mock_ptr = mock_ptr_type(%s);\n", c.w.TypeName(d.Params[i].Type))
		c.w.Printf("    if (mock_ptr)\n        memmove(%s, mock_ptr, sizeof(*%s));\n\n", name, name)
	}

	if !d.ReturnsVoid() {
		mock := "mock_type"
		if d.Result.IsPointer() {
			mock = "mock_ptr_type"
		}

		c.w.Printf("\n    return %s(%s);\n", mock, c.w.TypeName(d.Result))
	}

	c.w.WriteString("}\n")
}
