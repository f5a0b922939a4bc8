package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/zeebo/xxh3"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// TreeSitterFrontend is a purely syntactic frontend. It needs no compiler but
// only sees the main file and the project headers it can find, so library
// declarations are never resolved.
type TreeSitterFrontend struct {
	opts m.FrontendOptions
	fs   SourceFSAdapter
}

// NewTreeSitterFrontend constructs a TreeSitterFrontend.
func NewTreeSitterFrontend(opts m.FrontendOptions, fs SourceFSAdapter) *TreeSitterFrontend {
	return &TreeSitterFrontend{opts: opts, fs: fs}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Parse reads source and its quoted includes and resolves references by name.
func (f *TreeSitterFrontend) Parse(ctx context.Context, source m.Path) (*m.TranslationUnit, error) {
	abs, err := f.fs.AbsPath(source)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", source, err)
	}

	db, err := compilationDatabase(f.opts, f.fs, abs)
	if err != nil {
		return nil, err
	}

	cmd := db.CommandFor(abs)
	args := append(append([]string{}, cmd.Arguments...), f.opts.ExtraArgs...)
	lang := languageFor(abs, args)

	p := &syntaxParser{
		ctx:         ctx,
		fs:          f.fs,
		lang:        lang,
		mainFile:    string(abs),
		includeDirs: includeDirs(args, cmd.Directory),
		tu:          m.NewTranslationUnitScope(),
		scopes:      make(map[string]*m.Scope),
		records:     make(map[*m.Scope]*syntaxRecord),
		entities:    make(map[string]*m.Decl),
		byName:      make(map[string][]*m.Decl),
		visited:     make(map[string]bool),
	}

	p.parser = sitter.NewParser()
	defer p.parser.Close()

	if lang == m.LanguageC {
		p.parser.SetLanguage(c.GetLanguage())
	} else {
		p.parser.SetLanguage(cpp.GetLanguage())
	}

	root, err := p.parseFile(string(abs))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	slog.Debug("Parsed with tree-sitter", "source", abs, "files", len(p.visited), "declarations", len(p.entities))

	return &m.TranslationUnit{
		MainFile: abs,
		Language: lang,
		Scope:    p.tu,
		Root:     root,
	}, nil
}

// includeDirs extracts -I and -iquote directories.
func includeDirs(args []string, dir string) []string {
	var dirs []string

	add := func(d string) {
		if !filepath.IsAbs(d) {
			d = filepath.Join(dir, d)
		}

		dirs = append(dirs, filepath.Clean(d))
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case (arg == "-I" || arg == "-iquote") && i+1 < len(args):
			add(args[i+1])
			i++
		case strings.HasPrefix(arg, "-iquote") && len(arg) > len("-iquote"):
			add(arg[len("-iquote"):])
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			add(arg[2:])
		}
	}

	return dirs
}

type syntaxRecord struct {
	ctors []*m.Decl
	dtor  *m.Decl
}

type syntaxParser struct {
	ctx         context.Context
	fs          SourceFSAdapter
	parser      *sitter.Parser
	lang        m.Language
	mainFile    string
	includeDirs []string

	tu       *m.Scope
	scopes   map[string]*m.Scope
	records  map[*m.Scope]*syntaxRecord
	entities map[string]*m.Decl
	byName   map[string][]*m.Decl
	visited  map[string]bool
}

// syntaxFile is one parsed file.
type syntaxFile struct {
	path string
	src  []byte
	main bool
}

func (f *syntaxFile) text(n *sitter.Node) string {
	return n.Content(f.src)
}

func (f *syntaxFile) location(n *sitter.Node) m.Location {
	pt := n.StartPoint()
	return m.Location{File: f.path, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, InMainFile: f.main}
}

type declCtx struct {
	scope   *m.Scope
	externC bool
	access  m.Access
}

// parseFile collects the declarations of path and returns its reference tree
// when path is the main file.
func (p *syntaxParser) parseFile(path string) (*m.Node, error) {
	p.visited[path] = true

	src, err := p.fs.ReadFile(m.Path(path))
	if err != nil {
		return nil, err
	}

	tree, err := p.parser.ParseCtx(p.ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	file := &syntaxFile{path: path, src: src, main: path == p.mainFile}
	root := tree.RootNode()

	p.declarations(file, root, declCtx{scope: p.tu, externC: p.lang == m.LanguageC})

	if !file.main {
		return nil, nil
	}

	refs := &m.Node{}
	p.references(file, root, &refCtx{scope: p.tu, out: refs})

	return refs, nil
}

func (p *syntaxParser) include(file *syntaxFile, n *sitter.Node) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil || pathNode.Type() != "string_literal" {
		return
	}

	name := strings.Trim(file.text(pathNode), `"`)
	candidates := append([]string{filepath.Dir(file.path)}, p.includeDirs...)

	for _, dir := range candidates {
		path := filepath.Clean(filepath.Join(dir, name))
		if p.visited[path] {
			return
		}

		if _, err := p.fs.FileInfo(m.Path(path)); err != nil {
			continue
		}

		if _, err := p.parseFile(path); err != nil {
			slog.Error("Cannot parse include", "path", path, "error", err)
		}

		return
	}

	slog.Debug("Include not resolved", "include", name, "from", file.path)
}

func (p *syntaxParser) declarations(file *syntaxFile, n *sitter.Node, ctx declCtx) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		if child.Type() == "access_specifier" {
			ctx.access = m.Access(strings.TrimSpace(file.text(child)))
			continue
		}

		p.declaration(file, child, ctx)
	}
}

func (p *syntaxParser) declaration(file *syntaxFile, n *sitter.Node, ctx declCtx) {
	switch n.Type() {
	case "preproc_include":
		p.include(file, n)
	case "linkage_specification":
		if value := n.ChildByFieldName("value"); value != nil && file.text(value) == `"C"` {
			ctx.externC = true
		}

		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				p.declarations(file, body, ctx)
			} else {
				p.declaration(file, body, ctx)
			}
		}
	case "namespace_definition":
		scope := ctx.scope

		name := ""
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = file.text(nameNode)
		}

		for _, part := range strings.Split(name, "::") {
			scope = p.scope(scope, m.ScopeNamespace, strings.TrimSpace(part), "")
		}

		if body := n.ChildByFieldName("body"); body != nil {
			p.declarations(file, body, declCtx{scope: scope, externC: ctx.externC})
		}
	case "class_specifier", "struct_specifier", "union_specifier":
		p.record(file, n, ctx)
	case "function_definition":
		p.function(file, n, ctx, true)
	case "declaration", "field_declaration":
		if typ := n.ChildByFieldName("type"); typ != nil {
			p.declaration(file, typ, ctx)
		}

		if findFunctionDeclarator(n) != nil {
			p.function(file, n, ctx, false)
		} else {
			p.variables(file, n, ctx)
		}
	case "type_definition":
		if typ := n.ChildByFieldName("type"); typ != nil {
			p.declaration(file, typ, ctx)
		}
	case "compound_statement", "field_expression", "call_expression":
	default:
		p.declarations(file, n, ctx)
	}
}

func (p *syntaxParser) record(file *syntaxFile, n *sitter.Node, ctx declCtx) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}

	tag := m.TagStruct
	access := m.AccessPublic

	switch n.Type() {
	case "class_specifier":
		tag = m.TagClass
		access = m.AccessPrivate
	case "union_specifier":
		tag = m.TagUnion
	}

	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = file.text(nameNode)
	}

	scope := p.scope(ctx.scope, m.ScopeRecord, name, tag)
	p.declarations(file, body, declCtx{scope: scope, externC: ctx.externC, access: access})
}

// scope returns the shared scope named name inside parent.
func (p *syntaxParser) scope(parent *m.Scope, kind m.ScopeKind, name string, tag m.TagKind) *m.Scope {
	key := kind.String() + ":" + qualify(parent, name)
	if name == "" {
		key += ":" + strconv.Itoa(len(p.scopes))
		if kind == m.ScopeNamespace {
			key = "anonymous:" + qualify(parent, "")
		}
	}

	if scope, ok := p.scopes[key]; ok {
		return scope
	}

	scope := &m.Scope{ID: m.DeclID(xxh3.HashString("scope:" + key)), Kind: kind, Name: name, Tag: tag, Parent: parent}
	p.scopes[key] = scope

	if kind == m.ScopeRecord {
		p.records[scope] = &syntaxRecord{}
	}

	return scope
}

func qualify(scope *m.Scope, name string) string {
	if scope == nil {
		return name
	}

	prefix := scope.QualifiedName()
	if prefix == "" {
		return name
	}

	return prefix + "::" + name
}

// lookupScope resolves a written qualifier like "n1::c1" from inside scope.
func (p *syntaxParser) lookupScope(from *m.Scope, qualifier string) *m.Scope {
	qualifier = strings.TrimPrefix(qualifier, "::")

	for s := from; s != nil; s = s.Parent {
		full := qualify(s, qualifier)
		for _, kind := range []m.ScopeKind{m.ScopeRecord, m.ScopeNamespace} {
			if scope, ok := p.scopes[kind.String()+":"+full]; ok {
				return scope
			}
		}
	}

	return nil
}

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"qualified_identifier":     true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
	"operator_name":            true,
	"destructor_name":          true,
}

// declarators returns the declarator children of a declaration.
func declarators(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")

	var found []*sitter.Node

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if typ != nil && child.StartByte() == typ.StartByte() {
			continue
		}

		if declaratorTypes[child.Type()] {
			found = append(found, child)
		}
	}

	return found
}

// unwrap steps into the nested declarator of n.
func unwrap(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "init_declarator", "pointer_declarator", "array_declarator", "function_declarator", "attributed_declarator":
		return n.ChildByFieldName("declarator")
	case "reference_declarator", "parenthesized_declarator":
		if count := int(n.NamedChildCount()); count > 0 {
			return n.NamedChild(count - 1)
		}
	}

	return nil
}

func declaratorName(n *sitter.Node) *sitter.Node {
	for n != nil && declaratorTypes[n.Type()] && unwrap(n) != nil {
		n = unwrap(n)
	}

	return n
}

func findFunctionDeclarator(n *sitter.Node) *sitter.Node {
	var roots []*sitter.Node
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		roots = append(roots, decl)
	} else {
		roots = declarators(n)
	}

	for _, cur := range roots {
		for cur != nil {
			if cur.Type() == "function_declarator" {
				// function pointer variables
				if inner := cur.ChildByFieldName("declarator"); inner != nil && inner.Type() == "parenthesized_declarator" {
					break
				}

				return cur
			}

			cur = unwrap(cur)
		}
	}

	return nil
}

// pointerSuffix renders the pointer and reference levels wrapped around the
// function declarator, which belong to the return type.
func pointerSuffix(file *syntaxFile, n *sitter.Node) string {
	var suffix strings.Builder

	for cur := n; cur != nil && cur.Type() != "function_declarator"; cur = unwrap(cur) {
		switch cur.Type() {
		case "pointer_declarator":
			suffix.WriteString("*")
		case "reference_declarator":
			suffix.WriteString(strings.TrimSpace(file.text(cur.Child(0))))
		}
	}

	if suffix.Len() == 0 {
		return ""
	}

	return " " + suffix.String()
}

func storageClasses(file *syntaxFile, n *sitter.Node) map[string]bool {
	classes := map[string]bool{}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "storage_class_specifier", "virtual_function_specifier", "explicit_function_specifier":
			classes[strings.TrimSpace(file.text(child))] = true
		}
	}

	return classes
}

// leadingType is the written type of a declaration including its leading
// qualifiers.
func leadingType(file *syntaxFile, n *sitter.Node) string {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return ""
	}

	var parts []string

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_qualifier" && child.StartByte() < typ.StartByte() {
			parts = append(parts, file.text(child))
		}
	}

	return normalizeSpace(strings.Join(append(parts, file.text(typ)), " "))
}

func normalizeSpace(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.ReplaceAll(s, " ,", ",")

	return s
}

// splitQualified separates "n1::c1::get" into "n1::c1" and "get".
func splitQualified(name string) (string, string) {
	depth := 0

	for i := len(name) - 1; i > 0; i-- {
		switch name[i] {
		case '>':
			depth++
		case '<':
			depth--
		case ':':
			if depth == 0 && name[i-1] == ':' {
				return name[:i-1], name[i+1:]
			}
		}
	}

	return "", name
}

func (p *syntaxParser) function(file *syntaxFile, n *sitter.Node, ctx declCtx, defined bool) {
	fn := findFunctionDeclarator(n)
	if fn == nil {
		return
	}

	nameNode := declaratorName(fn.ChildByFieldName("declarator"))
	if nameNode == nil {
		return
	}

	qualifier, name := splitQualified(whitespaceRe.ReplaceAllString(file.text(nameNode), ""))
	if nameNode.Type() == "operator_cast" {
		name = normalizeSpace(file.text(nameNode))
		if q, _ := splitQualified(name); q != "" {
			name = strings.TrimSpace(name[len(q)+2:])
		}
	}

	scope := ctx.scope
	if qualifier != "" {
		scope = p.lookupScope(ctx.scope, qualifier)
		if scope == nil {
			scope = ctx.scope
			for _, part := range strings.Split(strings.TrimPrefix(qualifier, "::"), "::") {
				scope = p.scope(scope, m.ScopeNamespace, part, "")
			}
		}
	}

	classes := storageClasses(file, n)

	decl := &m.Decl{
		Kind:    m.DeclFunction,
		Name:    name,
		Scope:   scope,
		ExternC: ctx.externC,
		Inline:  classes["inline"],
		Static:  classes["static"] && scope.Kind != m.ScopeRecord,
		Loc:     file.location(nameNode),
	}

	if scope.Kind == m.ScopeRecord {
		decl.Access = ctx.access
		if qualifier != "" {
			decl.Access = m.AccessNone
		}

		decl.Kind = m.DeclMethod

		switch {
		case nameNode.Type() == "destructor_name" || strings.HasPrefix(name, "~"):
			decl.Kind = m.DeclDestructor
			decl.Name = "~" + strings.TrimSpace(strings.TrimPrefix(name, "~"))
		case nameNode.Type() == "operator_cast":
			decl.Kind = m.DeclConversion
		case name == scope.Name:
			decl.Kind = m.DeclConstructor
		}
	}

	if decl.Kind != m.DeclConversion {
		if op := operatorSpelling(decl.Name); op != "" {
			decl.Operator = op
		} else if op, ok := strings.CutPrefix(decl.Name, "operator"); ok {
			switch op {
			case "new", "delete", "new[]", "delete[]":
				decl.Operator = op
				decl.Name = "operator " + op
			}
		}
	}

	if decl.HasReturnType() {
		decl.Result = m.NewType(leadingType(file, n) + pointerSuffix(file, n.ChildByFieldName("declarator")))
	}

	p.functionQualifiers(file, fn, decl)
	p.parameters(file, fn, decl)

	if defined {
		decl.Defined = true
	}

	p.register(file, n, decl)
}

func (p *syntaxParser) functionQualifiers(file *syntaxFile, fn *sitter.Node, decl *m.Decl) {
	params := fn.ChildByFieldName("parameters")

	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if params != nil && child.StartByte() <= params.StartByte() {
			continue
		}

		switch text := strings.TrimSpace(file.text(child)); {
		case child.Type() == "type_qualifier" && text == "const":
			decl.Const = true
		case child.Type() == "ref_qualifier" || text == "&" || text == "&&":
			decl.RefQualifier = m.RefQualifier(text)
		case child.Type() == "noexcept":
			decl.Noexcept = text == "noexcept" || text == "noexcept(true)"
		}
	}
}

func (p *syntaxParser) parameters(file *syntaxFile, fn *sitter.Node, decl *m.Decl) {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return
	}

	for i := 0; i < int(list.NamedChildCount()); i++ {
		param := list.NamedChild(i)

		switch param.Type() {
		case "variadic_parameter":
			decl.Variadic = true
		case "parameter_declaration", "optional_parameter_declaration":
			name, typ := parameter(file, param)
			if name == "" && typ == "void" && list.NamedChildCount() == 1 {
				continue
			}

			decl.Params = append(decl.Params, m.Param{Name: name, Type: m.NewType(typ)})
		}
	}

	// "..." is an anonymous token in some grammar versions
	if !decl.Variadic && strings.Contains(file.text(list), "...") {
		decl.Variadic = true
	}
}

// parameter splits a parameter declaration into its name and the
// declaration text with the name cut out.
func parameter(file *syntaxFile, n *sitter.Node) (string, string) {
	text := file.text(n)
	end := len(text)

	if def := n.ChildByFieldName("default_value"); def != nil {
		end = int(def.StartByte() - n.StartByte())
		text = strings.TrimSuffix(strings.TrimSpace(text[:end]), "=")
		end = len(text)
	}

	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return "", normalizeSpace(text[:end])
	}

	nameNode := declaratorName(decl)
	if nameNode == nil || (nameNode.Type() != "identifier" && nameNode.Type() != "field_identifier") {
		return "", normalizeSpace(text[:end])
	}

	from := int(nameNode.StartByte() - n.StartByte())
	to := int(nameNode.EndByte() - n.StartByte())

	typ := strings.TrimSpace(text[:from]) + " " + strings.TrimSpace(text[to:end])
	typ = strings.ReplaceAll(normalizeSpace(typ), "* ", "*")
	typ = strings.ReplaceAll(typ, "& ", "&")

	return file.text(nameNode), strings.TrimSpace(typ)
}

func (p *syntaxParser) variables(file *syntaxFile, n *sitter.Node, ctx declCtx) {
	classes := storageClasses(file, n)
	if n.Type() == "field_declaration" && !classes["static"] {
		return
	}

	for _, d := range declarators(n) {
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}

		qualifier, name := splitQualified(file.text(nameNode))

		scope := ctx.scope
		if qualifier != "" {
			if found := p.lookupScope(ctx.scope, qualifier); found != nil {
				scope = found
			}
		}

		typ := declaratorType(file, leadingType(file, n), d, nameNode)

		decl := &m.Decl{
			Kind:    m.DeclVariable,
			Name:    name,
			Scope:   scope,
			Type:    m.NewType(typ),
			ExternC: ctx.externC,
			Static:  classes["static"] && scope.Kind != m.ScopeRecord,
			Loc:     file.location(nameNode),
		}

		hasInit := d.Type() == "init_declarator"

		switch {
		case hasInit:
			decl.Defined = true
		case classes["extern"], ctx.scope.Kind == m.ScopeRecord:
		default:
			decl.Defined = true
		}

		p.register(file, d, decl)
	}
}

// declaratorType renders the type of a declarator by cutting the declared
// name out of it: "int", "*p[4]" becomes "int *[4]".
func declaratorType(file *syntaxFile, leading string, d, nameNode *sitter.Node) string {
	core := d
	if d.Type() == "init_declarator" {
		core = d.ChildByFieldName("declarator")
	}

	text := file.text(core)
	from := int(nameNode.StartByte() - core.StartByte())
	to := int(nameNode.EndByte() - core.StartByte())

	if from < 0 || to > len(text) {
		return leading
	}

	rest := strings.TrimSpace(text[:from] + text[to:])
	if rest == "" {
		return leading
	}

	rest = strings.ReplaceAll(normalizeSpace(rest), "* ", "*")

	return leading + " " + rest
}

// register merges decl with earlier declarations of the same entity.
func (p *syntaxParser) register(file *syntaxFile, site *sitter.Node, decl *m.Decl) {
	key := decl.QualifiedName()
	if decl.IsFunction() {
		types := make([]string, 0, len(decl.Params))
		for _, param := range decl.Params {
			types = append(types, param.Type.Printed())
		}

		key += "(" + strings.Join(types, ",") + ")"
		if decl.Const {
			key += " const"
		}
	}

	if known, ok := p.entities[key]; ok {
		known.Defined = known.Defined || decl.Defined
		known.Inline = known.Inline || decl.Inline
		known.Static = known.Static || decl.Static
		known.ExternC = known.ExternC || decl.ExternC

		for i := range known.Params {
			if known.Params[i].Name == "" && i < len(decl.Params) {
				known.Params[i].Name = decl.Params[i].Name
			}
		}

		return
	}

	decl.ID = m.DeclID(xxh3.HashString(file.path + ":" + strconv.Itoa(int(site.StartByte()))))
	p.entities[key] = decl

	name := decl.QualifiedName()
	p.byName[name] = append(p.byName[name], decl)

	if info, ok := p.records[decl.Scope]; ok {
		switch decl.Kind {
		case m.DeclConstructor:
			info.ctors = append(info.ctors, decl)
		case m.DeclDestructor:
			info.dtor = decl
		}
	}
}
