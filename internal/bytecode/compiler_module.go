package bytecode

import (
	"strings"

	"github.com/tsnc-lang/tsnc/internal/ast"
)

// moduleContext carries one module's binding surface while its body
// compiles: which names are module-scoped (and so live under the
// module's global-name prefix), which names are imports reading through
// another module's exports object (live bindings, spec §4.5), and which
// local names are exported (so stores also refresh the exports object).
type moduleContext struct {
	path          string
	prefix        string
	exportsGlobal string
	bindings      map[string]bool
	imports       map[string]importBinding
	exported      map[string]string // local name -> exported name
	resolve       map[string]string
}

// importBinding names where an imported identifier reads from: the
// source module's exports-object global, and the exported name within
// it ("" binds the whole exports object, for namespace imports).
type importBinding struct {
	exportsGlobal string
	sourceName    string
}

// ExportsGlobalName is the global-table key under which a module's
// live exports object lives; the driver creates the object (before any
// module body runs, so cycles observe the §4.5 placeholder) and tests
// read it back.
func ExportsGlobalName(path string) string { return path + "::exports" }

// newModuleContext pre-scans a module's top-level statements for the
// declared, imported, and exported names compileLoadVariable and
// compileExport need. A unit with no path compiles as a plain script
// and gets no context.
func newModuleContext(unit ModuleUnit) *moduleContext {
	if unit.Path == "" {
		return nil
	}
	m := &moduleContext{
		path:          unit.Path,
		prefix:        unit.Path + "::",
		exportsGlobal: ExportsGlobalName(unit.Path),
		bindings:      map[string]bool{},
		imports:       map[string]importBinding{},
		exported:      map[string]string{},
		resolve:       unit.Resolve,
	}
	for _, stmt := range unit.Program.Statements {
		m.scanTopLevel(stmt)
	}
	return m
}

func (m *moduleContext) scanTopLevel(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		for _, name := range patternNames(s) {
			m.bindings[name] = true
		}
	case *ast.FunctionDecl:
		m.bindings[s.Function.Name] = true
	case *ast.ClassDecl:
		m.bindings[s.Name] = true
	case *ast.EnumDecl:
		m.bindings[s.Name] = true
	case *ast.NamespaceDecl:
		m.bindings[s.Name] = true
	case *ast.ImportStmt:
		m.scanImport(s)
	case *ast.ImportRequireStmt:
		src := m.resolvePath(s.Source)
		m.bindings[s.Name] = true
		m.imports[s.Name] = importBinding{exportsGlobal: ExportsGlobalName(src)}
	case *ast.ExportStmt:
		if s.Decl != nil {
			m.scanTopLevel(s.Decl)
			for _, name := range declaredNames(s.Decl) {
				if s.IsDefault {
					m.exported[name] = "default"
				} else {
					m.exported[name] = name
				}
			}
			return
		}
		if s.Source == "" {
			for _, spec := range s.Specifiers {
				m.exported[spec.Imported] = spec.Local
			}
		}
	}
}

func (m *moduleContext) scanImport(s *ast.ImportStmt) {
	if s.SideEffect {
		return
	}
	src := ExportsGlobalName(m.resolvePath(s.Source))
	if s.Default != "" {
		m.bindings[s.Default] = true
		m.imports[s.Default] = importBinding{exportsGlobal: src, sourceName: "default"}
	}
	if s.Namespace != "" {
		m.bindings[s.Namespace] = true
		m.imports[s.Namespace] = importBinding{exportsGlobal: src}
	}
	for _, spec := range s.Specifiers {
		if spec.TypeOnly {
			continue
		}
		m.bindings[spec.Local] = true
		m.imports[spec.Local] = importBinding{exportsGlobal: src, sourceName: spec.Imported}
	}
}

func (m *moduleContext) resolvePath(specifier string) string {
	if resolved, ok := m.resolve[specifier]; ok {
		return resolved
	}
	return specifier
}

// globalName maps a module-scope identifier onto its global-table key.
func (c *Compiler) globalName(name string) string {
	if c.module != nil && c.module.bindings[name] {
		return c.module.prefix + name
	}
	return name
}

// emitModuleGlobalLoad emits the global-path load for name, routing
// import bindings through the source module's live exports object.
func (c *Compiler) emitModuleGlobalLoad(name string, line int) {
	if c.module != nil {
		if imp, ok := c.module.imports[name]; ok {
			c.emit(OpLoadGlobal, c.chunk.AddName(imp.exportsGlobal), 0, line)
			if imp.sourceName != "" {
				c.emit(OpGetProp, c.chunk.AddName(imp.sourceName), 0, line)
			}
			return
		}
	}
	c.emit(OpLoadGlobal, c.chunk.AddName(c.globalName(name)), 0, line)
}

// emitModuleGlobalStore emits the global-path store for name and, when
// name is exported, refreshes the exports object so importers observe
// the new value (live binding).
func (c *Compiler) emitModuleGlobalStore(name string, line int) {
	c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(name)), 0, line)
	c.emitExportRefresh(name, line)
}

func (c *Compiler) emitExportRefresh(name string, line int) {
	if c.module == nil {
		return
	}
	exported, ok := c.module.exported[name]
	if !ok {
		return
	}
	c.emit(OpLoadGlobal, c.chunk.AddName(c.module.exportsGlobal), 0, line)
	c.emit(OpLoadGlobal, c.chunk.AddName(c.globalName(name)), 0, line)
	c.emit(OpSetProp, c.chunk.AddName(exported), 0, line)
}

// compileExport compiles the export statement forms: a wrapped
// declaration, a default expression, named local exports, and
// re-exports from another module.
func (c *Compiler) compileExport(s *ast.ExportStmt, line int) {
	if c.module == nil {
		c.failLine(line, "export outside of a module")
		return
	}
	switch {
	case s.Decl != nil:
		c.compileStmt(s.Decl)
		for _, name := range declaredNames(s.Decl) {
			c.emitExportRefresh(name, line)
		}
	case s.DefaultExpr != nil:
		c.emit(OpLoadGlobal, c.chunk.AddName(c.module.exportsGlobal), 0, line)
		c.compileExpr(s.DefaultExpr)
		c.emit(OpSetProp, c.chunk.AddName("default"), 0, line)
	case s.Source != "":
		src := ExportsGlobalName(c.module.resolvePath(s.Source))
		for _, spec := range s.Specifiers {
			c.emit(OpLoadGlobal, c.chunk.AddName(c.module.exportsGlobal), 0, line)
			c.emit(OpLoadGlobal, c.chunk.AddName(src), 0, line)
			c.emit(OpGetProp, c.chunk.AddName(spec.Imported), 0, line)
			c.emit(OpSetProp, c.chunk.AddName(spec.Local), 0, line)
		}
	default:
		for _, spec := range s.Specifiers {
			c.emitExportRefresh(spec.Imported, line)
		}
	}
}

// declaredNames lists the top-level binding names a declaration form
// introduces, matching the resolver's view of the same statements.
func declaredNames(stmt ast.Stmt) []string {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return patternNames(s)
	case *ast.FunctionDecl:
		return []string{s.Function.Name}
	case *ast.ClassDecl:
		return []string{s.Name}
	case *ast.EnumDecl:
		return []string{s.Name}
	case *ast.NamespaceDecl:
		return []string{s.Name}
	}
	return nil
}

// patternNames lists the names a VarDecl binds, walking destructuring
// patterns the same four-shape way the resolver does.
func patternNames(v *ast.VarDecl) []string {
	if v.Pattern == nil {
		return []string{v.Name}
	}
	var names []string
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch p := e.(type) {
		case *ast.Identifier:
			names = append(names, p.Name)
		case *ast.Assign:
			walk(p.Target)
		case *ast.ArrayLiteral:
			for _, el := range p.Elements {
				walk(el)
			}
		case *ast.ObjectLiteral:
			for _, prop := range p.Properties {
				walk(prop.Value)
			}
		case *ast.SpreadExpr:
			walk(p.Value)
		}
	}
	walk(v.Pattern)
	return names
}

// moduleDisplayPath trims a leading "./" for diagnostics.
func moduleDisplayPath(path string) string { return strings.TrimPrefix(path, "./") }
