package backends

import (
	m "ccmock.dev/pkg/ccmock/internal/model"
)

// raw prints the collected functions as plain declarations nested in their
// namespaces and classes.
type raw struct {
	Input
	w      *Writer
	access m.Access
}

func newRaw(in Input) *raw {
	in.Writer.VoidParams = in.language() == m.LanguageC

	return &raw{Input: in, w: in.Writer}
}

func (r *raw) Name() string { return string(m.BackendRaw) }

func (r *raw) Run() {
	r.visit(r.Tree.Root(), 0)
}

func (r *raw) visit(scope *m.Scope, indent int) {
	switch scope.Kind {
	case m.ScopeTranslationUnit:
		r.children(scope, indent)
	case m.ScopeNamespace:
		r.w.Indent(indent)
		r.w.WriteString("namespace " + scope.Name + " {\n\n")
		r.children(scope, indent)
		r.w.WriteString("\n} /* namespace " + scope.Name + " */\n\n")
	case m.ScopeRecord:
		tag := scope.Tag
		if tag == "" {
			tag = m.TagClass
		}

		r.w.Indent(indent)
		r.w.WriteString(string(tag) + " " + scope.Name + " {\n")
		r.children(scope, indent+4)
		r.w.Indent(indent)
		r.w.WriteString("};\n\n")

		r.access = m.AccessNone
	}
}

func (r *raw) children(scope *m.Scope, indent int) {
	for _, child := range r.Tree.Children(scope) {
		if child.Scope != nil {
			r.visit(child.Scope, indent)
			continue
		}

		if child.Decl.IsFunction() {
			r.function(child.Decl, indent)
		}
	}
}

func (r *raw) function(d *m.Decl, indent int) {
	if d.Access != r.access {
		if d.Access != m.AccessNone {
			r.w.WriteString(string(d.Access) + ":\n")
		}

		r.access = d.Access
	}

	r.w.Indent(indent)

	if d.Static {
		r.w.WriteString("static ")
	}

	if d.Inline {
		r.w.WriteString("inline ")
	}

	if d.HasReturnType() {
		r.w.WriteString(r.w.DeclareAsWritten(d.Result, d.Name+r.w.ParamList(d, true, false)))
	} else {
		r.w.WriteString(d.Name + r.w.ParamList(d, true, false))
	}

	r.w.WriteString(Qualifiers(d) + ";\n")
}
