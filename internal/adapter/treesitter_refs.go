package adapter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// refCtx tracks where in the main file a reference appears.
type refCtx struct {
	scope  *m.Scope          // enclosing namespace or record
	lookup *m.Scope          // scope names are looked up from
	locals map[string]string // local name to written type
	out    *m.Node
}

func (c *refCtx) from() *m.Scope {
	if c.lookup != nil {
		return c.lookup
	}

	return c.scope
}

func (c *refCtx) emit(node *m.Node) {
	c.out.Children = append(c.out.Children, node)
}

// references walks the top level of the main file.
func (p *syntaxParser) references(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		switch child.Type() {
		case "namespace_definition":
			scope := ctx.scope

			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				for _, part := range strings.Split(file.text(nameNode), "::") {
					scope = p.scope(scope, m.ScopeNamespace, strings.TrimSpace(part), "")
				}
			} else {
				scope = p.scope(scope, m.ScopeNamespace, "", "")
			}

			if body := child.ChildByFieldName("body"); body != nil {
				p.references(file, body, &refCtx{scope: scope, out: ctx.out})
			}
		case "class_specifier", "struct_specifier", "union_specifier":
			nameNode := child.ChildByFieldName("name")
			body := child.ChildByFieldName("body")

			if nameNode != nil && body != nil {
				if scope := p.lookupScope(ctx.scope, file.text(nameNode)); scope != nil && scope.Kind == m.ScopeRecord {
					p.references(file, body, &refCtx{scope: scope, out: ctx.out})
					continue
				}
			}

			p.references(file, child, ctx)
		case "function_definition":
			p.functionBody(file, child, ctx)
		case "declaration":
			if typ := child.ChildByFieldName("type"); typ != nil && strings.HasSuffix(typ.Type(), "_specifier") {
				p.references(file, child, ctx)
			}

			p.localDeclaration(file, child, &refCtx{scope: ctx.scope, out: ctx.out})
		case "field_declaration":
			if typ := child.ChildByFieldName("type"); typ != nil && strings.HasSuffix(typ.Type(), "_specifier") {
				p.references(file, child, ctx)
			}
		case "compound_statement", "preproc_include":
		default:
			p.references(file, child, ctx)
		}
	}
}

func (p *syntaxParser) functionBody(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}

	fnCtx := &refCtx{scope: ctx.scope, lookup: ctx.scope, locals: map[string]string{}, out: ctx.out}

	if fn := findFunctionDeclarator(n); fn != nil {
		if nameNode := declaratorName(fn.ChildByFieldName("declarator")); nameNode != nil {
			if qualifier, _ := splitQualified(whitespaceRe.ReplaceAllString(file.text(nameNode), "")); qualifier != "" {
				if scope := p.lookupScope(ctx.scope, qualifier); scope != nil {
					fnCtx.lookup = scope
				}
			}
		}

		if params := fn.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				p.addLocal(file, params.NamedChild(i), fnCtx)
			}
		}
	}

	// member initializers of constructors
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "field_initializer_list" {
			p.expressions(file, child, fnCtx)
		}
	}

	p.expressions(file, body, fnCtx)
}

func (p *syntaxParser) addLocal(file *syntaxFile, param *sitter.Node, ctx *refCtx) {
	switch param.Type() {
	case "parameter_declaration", "optional_parameter_declaration":
		name, typ := parameter(file, param)
		if name != "" {
			ctx.locals[name] = typ
		}
	}
}

// expressions emits the references found below n.
func (p *syntaxParser) expressions(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "call_expression":
		p.call(file, n, ctx)
		return
	case "declaration":
		p.localDeclaration(file, n, ctx)
		return
	case "new_expression":
		p.newExpression(file, n, ctx)
		return
	case "for_range_loop":
		if decl := n.ChildByFieldName("declarator"); decl != nil {
			if name := declaratorName(decl); name != nil && ctx.locals != nil {
				ctx.locals[file.text(name)] = ""
			}
		}

		for _, field := range []string{"right", "body"} {
			if child := n.ChildByFieldName(field); child != nil {
				p.expressions(file, child, ctx)
			}
		}

		return
	case "catch_clause":
		if params := n.ChildByFieldName("parameters"); params != nil && ctx.locals != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				p.addLocal(file, params.NamedChild(i), ctx)
			}
		}

		if body := n.ChildByFieldName("body"); body != nil {
			p.expressions(file, body, ctx)
		}

		return
	case "identifier", "qualified_identifier":
		p.identifier(file, n, ctx)
		return
	case "type_descriptor", "template_argument_list", "field_identifier", "lambda_capture_specifier":
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		p.expressions(file, n.NamedChild(i), ctx)
	}
}

func (p *syntaxParser) identifier(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	name := whitespaceRe.ReplaceAllString(file.text(n), "")

	if _, local := ctx.locals[name]; local {
		return
	}

	for _, decl := range p.lookup(name, ctx) {
		if decl.Kind == m.DeclVariable {
			ctx.emit(&m.Node{Kind: m.NodeDeclRef, Loc: file.location(n), Decl: decl})
			return
		}
	}
}

// lookup finds the declarations name refers to from the current scope.
func (p *syntaxParser) lookup(name string, ctx *refCtx) []*m.Decl {
	if global, ok := strings.CutPrefix(name, "::"); ok {
		return p.byName[global]
	}

	for s := ctx.from(); s != nil; s = s.Parent {
		if found := p.byName[qualify(s, name)]; len(found) > 0 {
			return found
		}
	}

	return nil
}

// byArity picks the overload taking argc arguments.
func byArity(candidates []*m.Decl, argc int) *m.Decl {
	var fallback *m.Decl

	for _, decl := range candidates {
		if !decl.IsFunction() {
			continue
		}

		if len(decl.Params) == argc || (decl.Variadic && argc >= len(decl.Params)) {
			return decl
		}

		if fallback == nil || len(decl.Params) >= argc && len(fallback.Params) < argc {
			fallback = decl
		}
	}

	return fallback
}

func argumentCount(n *sitter.Node) int {
	if n == nil {
		return 0
	}

	count := 0

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() != "comment" {
			count++
		}
	}

	return count
}

func (p *syntaxParser) call(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	argc := argumentCount(args)

	if fn == nil {
		return
	}

	var decl *m.Decl

	switch fn.Type() {
	case "identifier", "qualified_identifier", "template_function":
		nameNode := fn
		if fn.Type() == "template_function" {
			nameNode = fn.ChildByFieldName("name")
		}

		name := whitespaceRe.ReplaceAllString(file.text(nameNode), "")

		if _, local := ctx.locals[name]; !local {
			decl = byArity(p.lookup(name, ctx), argc)

			if decl == nil {
				if record := p.recordFor(name, ctx); record != nil {
					p.construct(file, n, record, argc, true, ctx)
					p.expressions(file, args, ctx)

					return
				}
			}
		}

		if decl == nil {
			p.expressions(file, fn, ctx)
		}
	case "field_expression":
		object := fn.ChildByFieldName("argument")
		field := fn.ChildByFieldName("field")

		if record := p.recordFor(p.typeOf(file, object, ctx), ctx); record != nil && field != nil {
			decl = byArity(p.byName[qualify(record, file.text(field))], argc)
		}

		p.expressions(file, object, ctx)
	default:
		p.expressions(file, fn, ctx)
	}

	ctx.emit(&m.Node{Kind: m.NodeCall, Loc: file.location(n), Decl: decl})

	if args != nil {
		p.expressions(file, args, ctx)
	}
}

// typeOf returns the written type of a simple object expression.
func (p *syntaxParser) typeOf(file *syntaxFile, n *sitter.Node, ctx *refCtx) string {
	if n == nil {
		return ""
	}

	switch n.Type() {
	case "this":
		if ctx.lookup != nil && ctx.lookup.Kind == m.ScopeRecord {
			return ctx.lookup.QualifiedName()
		}
	case "identifier", "qualified_identifier":
		name := whitespaceRe.ReplaceAllString(file.text(n), "")
		if typ, ok := ctx.locals[name]; ok {
			return typ
		}

		for _, decl := range p.lookup(name, ctx) {
			if decl.Kind == m.DeclVariable {
				return decl.Type.Spelling
			}
		}
	case "parenthesized_expression", "pointer_expression":
		if count := int(n.NamedChildCount()); count > 0 {
			return p.typeOf(file, n.NamedChild(count-1), ctx)
		}
	}

	return ""
}

// recordFor resolves a written class type to its record scope.
func (p *syntaxParser) recordFor(typ string, ctx *refCtx) *m.Scope {
	name := typ
	for _, prefix := range []string{"const ", "volatile ", "class ", "struct ", "union "} {
		name = strings.TrimPrefix(strings.TrimSpace(name), prefix)
	}

	name = strings.TrimRight(name, " *&")
	name = strings.TrimSuffix(name, " const")

	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}

	if name == "" {
		return nil
	}

	scope := p.lookupScope(ctx.from(), name)
	if scope == nil || scope.Kind != m.ScopeRecord {
		return nil
	}

	return scope
}

func (p *syntaxParser) construct(file *syntaxFile, at *sitter.Node, record *m.Scope, argc int, withDestructor bool, ctx *refCtx) {
	if p.lang != m.LanguageCXX {
		return
	}

	info := p.records[record]

	node := &m.Node{Kind: m.NodeConstruct, Loc: file.location(at), Decl: byArity(info.ctors, argc)}
	if withDestructor {
		node.Destructor = info.dtor
	}

	ctx.emit(node)
}

func (p *syntaxParser) newExpression(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	args := n.ChildByFieldName("arguments")

	if typ := n.ChildByFieldName("type"); typ != nil {
		if record := p.recordFor(file.text(typ), ctx); record != nil {
			p.construct(file, n, record, argumentCount(args), false, ctx)
		}
	}

	if args != nil {
		p.expressions(file, args, ctx)
	}
}

// localDeclaration records local names and emits object constructions.
func (p *syntaxParser) localDeclaration(file *syntaxFile, n *sitter.Node, ctx *refCtx) {
	leading := leadingType(file, n)

	if findFunctionDeclarator(n) != nil {
		return
	}

	for _, d := range declarators(n) {
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}

		if ctx.locals != nil {
			ctx.locals[file.text(nameNode)] = declaratorType(file, leading, d, nameNode)
		}

		core := d
		var value *sitter.Node

		if d.Type() == "init_declarator" {
			core = d.ChildByFieldName("declarator")
			value = d.ChildByFieldName("value")
		}

		if core.Type() == "identifier" {
			if record := p.recordFor(leading, ctx); record != nil && !storageClasses(file, n)["extern"] {
				switch {
				case value == nil:
					p.construct(file, nameNode, record, 0, true, ctx)
				case value.Type() == "argument_list", value.Type() == "initializer_list":
					p.construct(file, nameNode, record, argumentCount(value), true, ctx)
				}
			}
		}

		if value != nil {
			p.expressions(file, value, ctx)
		}
	}
}
