package adapter

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// The structs below mirror the parts of clang's -ast-dump=json output that
// mock discovery needs. Everything else is ignored while decoding.

type clangLoc struct {
	Offset       int       `json:"offset"`
	File         string    `json:"file"`
	Line         int       `json:"line"`
	Col          int       `json:"col"`
	TokLen       int       `json:"tokLen"`
	SpellingLoc  *clangLoc `json:"spellingLoc"`
	ExpansionLoc *clangLoc `json:"expansionLoc"`
}

type clangRange struct {
	Begin *clangLoc `json:"begin"`
	End   *clangLoc `json:"end"`
}

type clangType struct {
	QualType          string `json:"qualType"`
	DesugaredQualType string `json:"desugaredQualType"`
}

type clangDeclRef struct {
	ID   string     `json:"id"`
	Kind string     `json:"kind"`
	Name string     `json:"name"`
	Type *clangType `json:"type"`
}

type clangNode struct {
	ID    string     `json:"id"`
	Kind  string     `json:"kind"`
	Loc   *clangLoc  `json:"loc"`
	Range clangRange `json:"range"`
	Name  string     `json:"name"`
	Type  *clangType `json:"type"`

	IsImplicit          bool          `json:"isImplicit"`
	PreviousDecl        string        `json:"previousDecl"`
	ParentDeclContextID string        `json:"parentDeclContextId"`
	OriginalNamespace   *clangDeclRef `json:"originalNamespace"`

	StorageClass        string `json:"storageClass"`
	Inline              bool   `json:"inline"`
	Variadic            bool   `json:"variadic"`
	ExplicitlyDefaulted string `json:"explicitlyDefaulted"`
	ExplicitlyDeleted   bool   `json:"explicitlyDeleted"`
	Init                string `json:"init"`
	Language            string `json:"language"`
	TagUsed             string `json:"tagUsed"`
	Access              string `json:"access"`

	ReferencedDecl       *clangDeclRef `json:"referencedDecl"`
	ReferencedMemberDecl string        `json:"referencedMemberDecl"`
	CtorType             *clangType    `json:"ctorType"`

	Inner []*clangNode `json:"inner"`
}

// expansion returns the position a macro expanded to, or l itself.
func (l *clangLoc) expansion() *clangLoc {
	if l == nil {
		return nil
	}

	if l.ExpansionLoc != nil {
		return l.ExpansionLoc
	}

	if l.SpellingLoc != nil {
		return l.SpellingLoc
	}

	return l
}

type decompressCtx struct {
	file string
	line int
}

// decompress restores the file and line fields clang omits when they equal
// the previously printed location.
func (l *clangLoc) decompress(last *decompressCtx) {
	if l == nil {
		return
	}

	l.SpellingLoc.decompress(last)
	l.ExpansionLoc.decompress(last)

	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		return
	}

	// invalid locations are printed as {}
	if l.Col == 0 && l.File == "" && l.Line == 0 {
		return
	}

	if l.File == "" {
		l.File = last.file
	} else {
		last.file = l.File
	}

	if l.Line == 0 {
		l.Line = last.line
	} else {
		last.line = l.Line
	}
}

func (n *clangNode) decompressLocs(last *decompressCtx) {
	n.Loc.decompress(last)
	n.Range.Begin.decompress(last)
	n.Range.End.decompress(last)

	for _, child := range n.Inner {
		child.decompressLocs(last)
	}
}

func (n *clangNode) hasChild(kinds ...string) bool {
	for _, child := range n.Inner {
		for _, kind := range kinds {
			if child.Kind == kind {
				return true
			}
		}
	}

	return false
}

func (n *clangNode) params() []*clangNode {
	var params []*clangNode

	for _, child := range n.Inner {
		if child.Kind == "ParmVarDecl" {
			params = append(params, child)
		}
	}

	return params
}

// declSite is one declaration or redeclaration of an entity together with
// the lexical context it appeared in.
type declSite struct {
	node          *clangNode
	scope         *m.Scope
	externC       bool
	inFunction    bool
	lexicalRecord bool
	access        m.Access
}

type walkCtx struct {
	scope      *m.Scope
	externC    bool
	inFunction bool
	friend     bool
	access     m.Access
}

type constructorSite struct {
	id        string
	signature string
}

type recordInfo struct {
	ctors []constructorSite
	dtor  string
}

// clangDecoder converts one decoded JSON dump into a model translation unit.
type clangDecoder struct {
	mainFile string
	workDir  string
	lang     m.Language

	tu            *m.Scope
	prev          map[string]string
	scopes        map[string]*m.Scope
	records       map[*m.Scope]*recordInfo
	recordsByName map[string][]*m.Scope

	entityOrder []string
	sites       map[string][]*declSite
	decls       map[string]*m.Decl
	inMain      map[string]bool
}

// DecodeClangAST converts the JSON AST of mainFile into a translation unit.
// mainFile must be absolute; relative file names in the dump are resolved
// against workDir.
func DecodeClangAST(data []byte, mainFile m.Path, workDir string, lang m.Language) (*m.TranslationUnit, error) {
	var root clangNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode clang AST: %w", err)
	}

	if root.Kind != "TranslationUnitDecl" {
		return nil, fmt.Errorf("decode clang AST: unexpected root node %q", root.Kind)
	}

	root.decompressLocs(&decompressCtx{})

	d := &clangDecoder{
		mainFile:      filepath.Clean(string(mainFile)),
		workDir:       workDir,
		lang:          lang,
		tu:            m.NewTranslationUnitScope(),
		prev:          make(map[string]string),
		scopes:        make(map[string]*m.Scope),
		records:       make(map[*m.Scope]*recordInfo),
		recordsByName: make(map[string][]*m.Scope),
		sites:         make(map[string][]*declSite),
		decls:         make(map[string]*m.Decl),
		inMain:        make(map[string]bool),
	}

	d.tu.ID = parseNodeID(root.ID)
	d.scopes[root.ID] = d.tu

	d.walkChildren(&root, walkCtx{scope: d.tu})

	for _, id := range d.entityOrder {
		decl := d.buildDecl(id, d.sites[id])
		for _, site := range d.sites[id] {
			d.decls[site.node.ID] = decl
		}
	}

	return &m.TranslationUnit{
		MainFile: mainFile,
		Language: lang,
		Scope:    d.tu,
		Root:     d.convert(&root),
	}, nil
}

func parseNodeID(id string) m.DeclID {
	v, err := strconv.ParseUint(strings.TrimPrefix(id, "0x"), 16, 64)
	if err != nil {
		return 0
	}

	return m.DeclID(v)
}

// canonical follows the redeclaration chain back to the first declaration.
func (d *clangDecoder) canonical(id string) string {
	for {
		prev, ok := d.prev[id]
		if !ok || prev == id {
			return id
		}

		id = prev
	}
}

func (d *clangDecoder) link(id, prev string) {
	if prev != "" && prev != id {
		d.prev[id] = prev
	}
}

func (d *clangDecoder) walkChildren(n *clangNode, ctx walkCtx) {
	for _, child := range n.Inner {
		if child.Kind == "AccessSpecDecl" {
			ctx.access = m.Access(child.Access)
			continue
		}

		d.walk(child, ctx)
	}
}

func (d *clangDecoder) walk(n *clangNode, ctx walkCtx) {
	switch n.Kind {
	case "LinkageSpecDecl":
		ctx.externC = ctx.externC || n.Language == "C"
		d.walkChildren(n, ctx)
	case "NamespaceDecl":
		if n.OriginalNamespace != nil {
			d.link(n.ID, n.OriginalNamespace.ID)
		} else {
			d.link(n.ID, n.PreviousDecl)
		}

		scope := d.scopeFor(n, ctx.scope, m.ScopeNamespace)
		d.walkChildren(n, walkCtx{scope: scope, externC: ctx.externC})
	case "CXXRecordDecl", "RecordDecl", "ClassTemplateSpecializationDecl", "ClassTemplatePartialSpecializationDecl":
		// the injected class name
		if n.IsImplicit {
			return
		}

		d.link(n.ID, n.PreviousDecl)

		scope := d.scopeFor(n, ctx.scope, m.ScopeRecord)

		access := m.AccessPublic
		if scope.Tag == m.TagClass {
			access = m.AccessPrivate
		}

		d.walkChildren(n, walkCtx{scope: scope, externC: ctx.externC, inFunction: ctx.inFunction, access: access})
	case "FriendDecl":
		ctx.friend = true
		d.walkChildren(n, ctx)
	case "FunctionDecl", "CXXMethodDecl", "CXXConstructorDecl", "CXXDestructorDecl", "CXXConversionDecl":
		d.addSite(n, ctx)

		ctx.inFunction = true
		ctx.friend = false
		d.walkChildren(n, ctx)
	case "VarDecl":
		d.addSite(n, ctx)
		d.walkChildren(n, ctx)
	default:
		ctx.friend = false
		d.walkChildren(n, ctx)
	}
}

// scopeFor returns the one *m.Scope shared by all redeclarations of n.
func (d *clangDecoder) scopeFor(n *clangNode, parent *m.Scope, kind m.ScopeKind) *m.Scope {
	id := d.canonical(n.ID)

	scope, ok := d.scopes[id]
	if !ok {
		scope = &m.Scope{ID: parseNodeID(id), Kind: kind, Name: n.Name, Parent: parent}
		if kind == m.ScopeRecord {
			scope.Tag = tagKind(n.TagUsed)
			d.records[scope] = &recordInfo{}
		}

		d.scopes[id] = scope
	}

	if scope.Name == "" && n.Name != "" {
		scope.Name = n.Name
	}

	if kind == m.ScopeRecord && n.TagUsed != "" {
		scope.Tag = tagKind(n.TagUsed)
	}

	d.scopes[n.ID] = scope

	if kind == m.ScopeRecord && scope.Name != "" {
		d.indexRecord(scope)
	}

	return scope
}

// indexRecord makes scope findable by every suffix of its qualified name,
// since clang prints types the way they were written.
func (d *clangDecoder) indexRecord(scope *m.Scope) {
	parts := strings.Split(scope.QualifiedName(), "::")

	for i := range parts {
		key := strings.Join(parts[i:], "::")

		known := false
		for _, other := range d.recordsByName[key] {
			if other == scope {
				known = true
				break
			}
		}

		if !known {
			d.recordsByName[key] = append(d.recordsByName[key], scope)
		}
	}
}

func tagKind(tag string) m.TagKind {
	switch tag {
	case "class":
		return m.TagClass
	case "union":
		return m.TagUnion
	default:
		return m.TagStruct
	}
}

func (d *clangDecoder) addSite(n *clangNode, ctx walkCtx) {
	d.link(n.ID, n.PreviousDecl)

	scope := ctx.scope

	switch {
	case n.ParentDeclContextID != "":
		if parent, ok := d.scopes[d.canonical(n.ParentDeclContextID)]; ok {
			scope = parent
		}
	case ctx.friend:
		for scope.Kind == m.ScopeRecord && scope.Parent != nil {
			scope = scope.Parent
		}
	}

	access := ctx.access
	if n.Access != "" {
		access = m.Access(n.Access)
	}

	if scope.Kind != m.ScopeRecord {
		access = m.AccessNone
	}

	id := d.canonical(n.ID)
	if _, ok := d.sites[id]; !ok {
		d.entityOrder = append(d.entityOrder, id)
	}

	d.sites[id] = append(d.sites[id], &declSite{
		node:          n,
		scope:         scope,
		externC:       ctx.externC,
		inFunction:    ctx.inFunction,
		lexicalRecord: ctx.scope.Kind == m.ScopeRecord,
		access:        access,
	})

	if info, ok := d.records[scope]; ok {
		switch n.Kind {
		case "CXXConstructorDecl":
			if len(d.sites[id]) == 1 && n.Type != nil {
				info.ctors = append(info.ctors, constructorSite{id: id, signature: n.Type.QualType})
			}
		case "CXXDestructorDecl":
			info.dtor = id
		}
	}
}

var declKinds = map[string]m.DeclKind{
	"FunctionDecl":       m.DeclFunction,
	"CXXMethodDecl":      m.DeclMethod,
	"CXXConstructorDecl": m.DeclConstructor,
	"CXXDestructorDecl":  m.DeclDestructor,
	"CXXConversionDecl":  m.DeclConversion,
	"VarDecl":            m.DeclVariable,
}

func (d *clangDecoder) buildDecl(id string, sites []*declSite) *m.Decl {
	first := sites[0]

	decl := &m.Decl{
		ID:      parseNodeID(id),
		Kind:    declKinds[first.node.Kind],
		Name:    first.node.Name,
		Scope:   first.scope,
		Access:  first.access,
		ExternC: d.lang == m.LanguageC,
		Loc:     d.location(first.node.Loc),
	}

	for _, site := range sites {
		decl.ExternC = decl.ExternC || site.externC
	}

	if decl.Kind == m.DeclVariable {
		d.fillVariable(decl, sites)
	} else {
		d.fillFunction(decl, sites)
	}

	return decl
}

func (d *clangDecoder) fillVariable(decl *m.Decl, sites []*declSite) {
	decl.Type = makeType(sites[0].node.Type)

	for _, site := range sites {
		n := site.node

		switch {
		case n.Init != "":
			decl.Defined = true
		case n.StorageClass == "extern":
		case site.inFunction, !site.lexicalRecord:
			decl.Defined = true
		}

		if n.StorageClass == "static" && decl.Scope.Kind != m.ScopeRecord {
			decl.Static = true
		}
	}

	// block scope extern declarations name a namespace scope variable
	if sites[0].inFunction && sites[0].node.StorageClass == "extern" && decl.Scope.Kind == m.ScopeRecord {
		for decl.Scope.Kind == m.ScopeRecord && decl.Scope.Parent != nil {
			decl.Scope = decl.Scope.Parent
		}
	}
}

func (d *clangDecoder) fillFunction(decl *m.Decl, sites []*declSite) {
	first := sites[0].node

	if first.Type != nil {
		spelling := first.Type.QualType
		// declared through a function typedef
		if !strings.Contains(spelling, "(") && first.Type.DesugaredQualType != "" {
			spelling = first.Type.DesugaredQualType
		}

		result, quals := splitFunctionType(spelling)
		decl.Result = m.NewType(result)

		if first.Type.DesugaredQualType != "" {
			if canonical, _ := splitFunctionType(first.Type.DesugaredQualType); canonical != result {
				decl.Result.Canonical = canonical
			}
		}

		for _, q := range quals {
			switch q {
			case "const":
				decl.Const = true
			case "noexcept":
				decl.Noexcept = decl.Kind != m.DeclDestructor
			case "&":
				decl.RefQualifier = m.RefLValue
			case "&&":
				decl.RefQualifier = m.RefRValue
			}
		}
	}

	if decl.Kind == m.DeclFunction || decl.Kind == m.DeclMethod {
		decl.Operator = operatorSpelling(decl.Name)
	}

	var base []*clangNode

	for _, site := range sites {
		n := site.node
		if params := n.params(); len(params) > len(base) {
			base = params
		}

		decl.Variadic = decl.Variadic || n.Variadic
		decl.Inline = decl.Inline || n.Inline
		decl.Builtin = decl.Builtin || n.hasChild("BuiltinAttr")

		if n.hasChild("CompoundStmt", "CXXTryStmt") || n.ExplicitlyDefaulted != "" || n.ExplicitlyDeleted {
			decl.Defined = true
		}

		if n.IsImplicit && decl.Scope.Kind == m.ScopeRecord {
			decl.Defined = true
		}

		if n.StorageClass == "static" && decl.Scope.Kind != m.ScopeRecord {
			decl.Static = true
		}
	}

	for i, p := range base {
		param := m.Param{Name: p.Name, Type: makeType(p.Type)}

		for _, site := range sites {
			if param.Name != "" {
				break
			}

			if params := site.node.params(); i < len(params) {
				param.Name = params[i].Name
			}
		}

		decl.Params = append(decl.Params, param)
	}
}

func makeType(t *clangType) m.Type {
	if t == nil {
		return m.Type{}
	}

	typ := m.NewType(t.QualType)
	if t.DesugaredQualType != "" && t.DesugaredQualType != typ.Spelling {
		typ.Canonical = strings.TrimSpace(t.DesugaredQualType)
	}

	return typ
}

// operatorSpelling extracts "=" from "operator=" and "new[]" from
// "operator new[]". It returns "" for ordinary names.
func operatorSpelling(name string) string {
	rest, ok := strings.CutPrefix(name, "operator")
	if !ok || rest == "" {
		return ""
	}

	trimmed := strings.ReplaceAll(strings.TrimSpace(rest), " ", "")

	if rest[0] == ' ' {
		switch trimmed {
		case "new", "delete", "new[]", "delete[]":
			return trimmed
		}
	}

	if isIdentByte(rest[0]) || rest[0] == ' ' || rest[0] == '"' {
		return ""
	}

	return trimmed
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func hasSuffixWord(s, word string) bool {
	if !strings.HasSuffix(s, word) {
		return false
	}

	rest := s[:len(s)-len(word)]

	return rest == "" || !isIdentByte(rest[len(rest)-1])
}

// splitFunctionType separates "int (char, long) const &" into the return
// type and the trailing function qualifiers.
func splitFunctionType(qt string) (string, []string) {
	s := strings.TrimSpace(qt)

	var quals []string

	for {
		switch {
		case strings.HasSuffix(s, "&&"):
			quals = append(quals, "&&")
			s = strings.TrimSpace(s[:len(s)-2])
		case strings.HasSuffix(s, "&"):
			quals = append(quals, "&")
			s = strings.TrimSpace(s[:len(s)-1])
		case hasSuffixWord(s, "const"), hasSuffixWord(s, "volatile"), hasSuffixWord(s, "noexcept"):
			i := strings.LastIndexByte(s, ' ')
			quals = append(quals, s[i+1:])
			s = strings.TrimSpace(s[:i+1])
		case strings.HasSuffix(s, ")"):
			open := matchingParen(s)
			if open < 0 {
				return s, quals
			}

			before := strings.TrimSpace(s[:open])

			switch {
			case hasSuffixWord(before, "noexcept"):
				if strings.TrimSpace(s[open:]) != "(false)" {
					quals = append(quals, "noexcept")
				}

				s = strings.TrimSpace(strings.TrimSuffix(before, "noexcept"))
			case hasSuffixWord(before, "throw"):
				s = strings.TrimSpace(strings.TrimSuffix(before, "throw"))
			case hasSuffixWord(before, "__attribute__"):
				s = strings.TrimSpace(strings.TrimSuffix(before, "__attribute__"))
			default:
				return before, quals
			}
		default:
			return s, quals
		}
	}
}

// matchingParen returns the index of the '(' closing the final ')' of s.
func matchingParen(s string) int {
	depth := 0

	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func (d *clangDecoder) isMainFile(file string) bool {
	if file == "" {
		return false
	}

	if in, ok := d.inMain[file]; ok {
		return in
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.workDir, path)
	}

	in := filepath.Clean(path) == d.mainFile
	d.inMain[file] = in

	return in
}

func (d *clangDecoder) location(l *clangLoc) m.Location {
	l = l.expansion()
	if l == nil || l.File == "" {
		return m.Location{}
	}

	return m.Location{File: l.File, Line: l.Line, Column: l.Col, InMainFile: d.isMainFile(l.File)}
}

func (d *clangDecoder) lookup(id string) *m.Decl {
	if id == "" {
		return nil
	}

	return d.decls[id]
}

func (d *clangDecoder) convert(n *clangNode) *m.Node {
	node := &m.Node{Loc: d.location(n.Range.Begin)}
	if node.Loc.File == "" {
		node.Loc = d.location(n.Loc)
	}

	switch n.Kind {
	case "CallExpr", "CXXMemberCallExpr", "CXXOperatorCallExpr", "UserDefinedLiteral":
		node.Kind = m.NodeCall
		node.Decl = d.callee(n)
	case "CXXConstructExpr", "CXXTemporaryObjectExpr":
		node.Kind = m.NodeConstruct
		node.Decl, node.Destructor = d.construction(n)
	case "DeclRefExpr":
		if n.ReferencedDecl != nil {
			node.Kind = m.NodeDeclRef
			node.Decl = d.lookup(n.ReferencedDecl.ID)
		}
	}

	if len(n.Inner) > 0 {
		node.Children = make([]*m.Node, 0, len(n.Inner))
		for _, child := range n.Inner {
			node.Children = append(node.Children, d.convert(child))
		}
	}

	return node
}

// callee resolves the directly called function, nil for indirect calls.
func (d *clangDecoder) callee(n *clangNode) *m.Decl {
	if len(n.Inner) == 0 {
		return nil
	}

	c := n.Inner[0]
	for (c.Kind == "ImplicitCastExpr" || c.Kind == "ParenExpr") && len(c.Inner) > 0 {
		c = c.Inner[0]
	}

	switch c.Kind {
	case "DeclRefExpr":
		if c.ReferencedDecl != nil {
			return d.lookup(c.ReferencedDecl.ID)
		}
	case "MemberExpr":
		return d.lookup(c.ReferencedMemberDecl)
	}

	return nil
}

// construction resolves the constructor by the constructed record and the
// constructor signature, and the destructor of that record.
func (d *clangDecoder) construction(n *clangNode) (*m.Decl, *m.Decl) {
	if n.Type == nil {
		return nil, nil
	}

	var candidates []*m.Scope

	for _, spelling := range []string{n.Type.DesugaredQualType, n.Type.QualType} {
		if name := recordName(spelling); name != "" {
			if found := d.recordsByName[name]; len(found) > 0 {
				candidates = found
				break
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	signature := ""
	if n.CtorType != nil {
		signature = n.CtorType.QualType
	}

	for _, record := range candidates {
		info := d.records[record]
		for _, ctor := range info.ctors {
			if ctor.signature == signature {
				return d.lookup(ctor.id), d.lookup(info.dtor)
			}
		}
	}

	return nil, d.lookup(d.records[candidates[0]].dtor)
}

// recordName strips qualifiers, elaboration keywords and template arguments
// from a printed class type.
func recordName(spelling string) string {
	s := strings.TrimSpace(spelling)

	for _, prefix := range []string{"const ", "volatile ", "class ", "struct ", "union "} {
		s = strings.TrimPrefix(s, prefix)
	}

	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}

	return strings.TrimPrefix(strings.TrimSpace(s), "::")
}
