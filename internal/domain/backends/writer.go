package backends

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// DateLayout is the layout of the generation date in the file header.
const DateLayout = "2006-01-02T15:04:05-0700"

var boolRe = regexp.MustCompile(`\b_Bool\b`)

// mockNames maps overloaded operator spellings to member names usable in a
// mock class.
var mockNames = map[string]string{
	"new":      "op_new",
	"delete":   "op_delete",
	"new[]":    "op_array_new",
	"delete[]": "op_array_delete",
	"+":        "op_plus",
	"-":        "op_minus",
	"*":        "op_star",
	"/":        "op_slash",
	"%":        "op_percent",
	"^":        "op_caret",
	"&":        "op_amp",
	"|":        "op_pipe",
	"~":        "op_tilde",
	"!":        "op_exclaim",
	"=":        "op_equal",
	"<":        "op_less",
	">":        "op_greater",
	"+=":       "op_plus_equal",
	"-=":       "op_minus_equal",
	"*=":       "op_star_equal",
	"/=":       "op_slash_equal",
	"%=":       "op_percent_equal",
	"^=":       "op_caret_equal",
	"&=":       "op_amp_equal",
	"|=":       "op_pipe_equal",
	"<<":       "op_less_less",
	">>":       "op_greater_greater",
	"<<=":      "op_less_less_equal",
	">>=":      "op_greater_greater_equal",
	"==":       "op_equal_equal",
	"!=":       "op_exclaim_equal",
	"<=":       "op_less_equal",
	">=":       "op_greater_equal",
	"<=>":      "op_spaceship",
	"&&":       "op_amp_amp",
	"||":       "op_pipe_pipe",
	"++":       "op_plus_plus",
	"--":       "op_minus_minus",
	",":        "op_comma",
	"->*":      "op_arrow_star",
	"->":       "op_arrow",
	"()":       "op_call",
	"[]":       "op_subscript",
}

// Header describes the comment block at the top of every generated file.
type Header struct {
	Version   string
	Backend   string
	Directory string
	Input     string
	// Output is "-" for standard output.
	Output string
	// Date is omitted when zero.
	Date time.Time
}

// Writer accumulates generated text and knows how to print declarations.
type Writer struct {
	buf bytes.Buffer

	// Bool spells the C _Bool type as bool.
	Bool bool
	// VoidParams prints empty parameter lists as (void).
	VoidParams bool
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteString appends s.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

// Printf appends formatted text.
func (w *Writer) Printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

// Indent appends n spaces.
func (w *Writer) Indent(n int) {
	w.buf.WriteString(strings.Repeat(" ", n))
}

// Bytes returns the text written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset discards everything written.
func (w *Writer) Reset() {
	w.buf.Reset()
}

func (w *Writer) spell(s string) string {
	if w.Bool {
		s = boolRe.ReplaceAllString(s, "bool")
	}

	return s
}

// TypeName prints the canonical spelling of t.
func (w *Writer) TypeName(t m.Type) string {
	return w.spell(t.Printed())
}

// Declare prints a declarator of the canonical type t named name.
func (w *Writer) Declare(t m.Type, name string) string {
	return w.spell(t.Declare(name))
}

// DeclareAsWritten prints a declarator of t as it was spelled in the source.
func (w *Writer) DeclareAsWritten(t m.Type, name string) string {
	return w.spell(m.DeclareSpelling(t.Spelling, name))
}

// ParamList prints the parenthesized parameter list of d. Without names only
// the canonical types are printed. A variadic tail is printed as ", va_list"
// when vaList is set and as ", ..." otherwise.
func (w *Writer) ParamList(d *m.Decl, names, vaList bool) string {
	if len(d.Params) == 0 {
		if w.VoidParams {
			return "(void)"
		}

		return "()"
	}

	parts := make([]string, 0, len(d.Params)+1)

	for i, p := range d.Params {
		if !names {
			parts = append(parts, w.TypeName(p.Type))
			continue
		}

		parts = append(parts, w.DeclareAsWritten(p.Type, d.ParamName(i)))
	}

	if d.Variadic {
		if vaList {
			parts = append(parts, "va_list")
		} else {
			parts = append(parts, "...")
		}
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// Qualifiers prints the trailing const, ref-qualifier and noexcept of a
// member function, each preceded by a space.
func Qualifiers(d *m.Decl) string {
	var b strings.Builder

	if d.Const {
		b.WriteString(" const")
	}

	if d.RefQualifier != m.RefNone {
		b.WriteString(" " + string(d.RefQualifier))
	}

	if d.Noexcept {
		b.WriteString(" noexcept")
	}

	return b.String()
}

// Signature prints the fully qualified declaration of d as written.
func (w *Writer) Signature(d *m.Decl) string {
	name := d.QualifiedName()

	if !d.IsFunction() {
		return w.DeclareAsWritten(d.Type, name)
	}

	name += w.ParamList(d, true, false)

	if d.HasReturnType() {
		name = w.DeclareAsWritten(d.Result, name)
	}

	return name + Qualifiers(d)
}

// MockName is the member function name that stands in for d in a mock class.
func MockName(d *m.Decl) string {
	switch d.Kind {
	case m.DeclConstructor:
		return "constructor"
	case m.DeclDestructor:
		return "destructor"
	}

	if d.Operator != "" {
		if name, ok := mockNames[d.Operator]; ok {
			return name
		}
	}

	return d.Name
}

// WriteHeader writes the generated-file comment block.
func (w *Writer) WriteHeader(h Header) {
	w.WriteString("/*\n")
	w.Printf(" * Generated by ccmock %s\n", h.Version)
	w.WriteString(" *\n")

	if !h.Date.IsZero() {
		w.Printf(" *    Date        : %s\n", h.Date.UTC().Format(DateLayout))
	}

	output := h.Output
	if output == "" {
		output = "-"
	}

	w.Printf(" *    Backend     : %s\n", h.Backend)
	w.Printf(" *    Directory   : %s\n", h.Directory)
	w.Printf(" *    Input       : %s\n", h.Input)
	w.Printf(" *    Output      : %s\n", output)
	w.WriteString(" */\n\n")
}

// WriteLinkageMacro defines CCMOCK_LINKAGE, which gives C functions C
// linkage when the output is compiled as C++.
func (w *Writer) WriteLinkageMacro() {
	w.WriteString("#ifdef __cplusplus\n" +
		"#define CCMOCK_LINKAGE extern \"C\"\n" +
		"#else\n" +
		"#define CCMOCK_LINKAGE\n" +
		"#endif\n" +
		"\n")
}

// WriteGlobalVariables defines every collected variable.
func (w *Writer) WriteGlobalVariables(vars []*m.Decl) {
	for _, v := range vars {
		w.WriteString(w.Declare(v.Type, v.QualifiedName()) + ";\n")
	}

	if len(vars) > 0 {
		w.WriteString("\n")
	}
}
