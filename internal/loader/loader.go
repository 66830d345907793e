// Package loader implements the module loader (spec §4.5): specifier
// resolution against an injectable filesystem, the import dependency
// graph, and the topological evaluation order with import-order
// tie-breaks. Cycles are permitted — evaluation order puts the cycle
// leaf first and the driver's pre-created exports objects surface the
// §4.5 partially-initialized placeholder to the modules upstream.
package loader

import (
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/clog"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
)

// BuiltinPrefix marks the canonical path of a bare built-in module
// specifier (`events`, `timers`, `stream`).
const BuiltinPrefix = "builtin:"

var builtinModules = map[string]bool{"events": true, "timers": true, "stream": true}

// Module is one loaded, parsed module.
type Module struct {
	Path    string // canonical path, or BuiltinPrefix+name
	Source  string
	Program *ast.Program
	// Resolve maps each import specifier appearing in the module's
	// source to its canonical path.
	Resolve map[string]string
	Builtin bool
}

// Loader loads and parses a module graph from fs. An in-memory
// afero.MemMapFs makes the whole loader unit-testable without disk.
type Loader struct {
	fs      afero.Fs
	modules map[string]*Module
	order   []*Module
	state   map[string]int // 0 unvisited, 1 in progress, 2 done
}

// New creates a Loader reading through fs.
func New(fs afero.Fs) *Loader {
	return &Loader{fs: fs, modules: map[string]*Module{}, state: map[string]int{}}
}

// Load resolves the graph rooted at entry and returns every reachable
// module in evaluation order (dependencies first, entry last). Built-in
// modules appear in the list with Builtin set and a nil Program.
func (l *Loader) Load(entry string) ([]*Module, *cerrors.CompilerError) {
	canonical := canonicalize(entry)
	if err := l.visit(canonical, lexer.Position{Line: 1, Column: 1}, entry); err != nil {
		return nil, err
	}
	return l.order, nil
}

func (l *Loader) visit(canonical string, pos lexer.Position, importer string) *cerrors.CompilerError {
	switch l.state[canonical] {
	case 1:
		// Cycle: the in-progress module's exports object serves as the
		// placeholder; evaluation order already has the leaf first.
		clog.Module("loader", canonical).Debug("import cycle detected, using live placeholder")
		return nil
	case 2:
		return nil
	}
	l.state[canonical] = 1

	if strings.HasPrefix(canonical, BuiltinPrefix) {
		m := &Module{Path: canonical, Builtin: true}
		l.modules[canonical] = m
		l.order = append(l.order, m)
		l.state[canonical] = 2
		return nil
	}

	source, readErr := l.readSource(canonical)
	if readErr != nil {
		return cerrors.Wrap(readErr, "cannot load module \""+canonical+"\" (imported from "+importer+")", importer)
	}
	clog.Module("loader", canonical).Debug("parsing module")

	prog, parseErr := parser.New(lexer.New(source), canonical, source).Parse()
	if parseErr != nil {
		return parseErr
	}
	m := &Module{Path: canonical, Source: source, Program: prog, Resolve: map[string]string{}}
	l.modules[canonical] = m

	for _, dep := range importSpecifiers(prog) {
		resolved, err := l.resolveSpecifier(dep.specifier, canonical, dep.pos)
		if err != nil {
			return err
		}
		m.Resolve[dep.specifier] = resolved
		if err := l.visit(resolved, dep.pos, canonical); err != nil {
			return err
		}
	}

	l.order = append(l.order, m)
	l.state[canonical] = 2
	return nil
}

func (l *Loader) readSource(canonical string) (string, error) {
	data, err := afero.ReadFile(l.fs, canonical)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// resolveSpecifier maps an import specifier onto a canonical path:
// relative specifiers resolve against the importer's directory with
// ".ts"/".js" extension probing; bare names must be built-ins.
func (l *Loader) resolveSpecifier(specifier, importer string, pos lexer.Position) (string, *cerrors.CompilerError) {
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		if builtinModules[specifier] {
			return BuiltinPrefix + specifier, nil
		}
		return "", cerrors.New(cerrors.Resolve, pos,
			"cannot resolve module \""+specifier+"\": not a relative path or built-in module", "", importer)
	}
	base := path.Join(path.Dir(importer), specifier)
	for _, candidate := range []string{base, base + ".ts", base + ".js"} {
		if exists, _ := afero.Exists(l.fs, candidate); exists {
			if isDir, _ := afero.IsDir(l.fs, candidate); !isDir {
				return canonicalize(candidate), nil
			}
		}
	}
	return "", cerrors.New(cerrors.Resolve, pos,
		"cannot resolve module \""+specifier+"\" (imported from "+importer+")", "", importer)
}

func canonicalize(p string) string {
	clean := path.Clean(p)
	return strings.TrimPrefix(clean, "./")
}

type dependency struct {
	specifier string
	pos       lexer.Position
}

// importSpecifiers lists a module's static dependencies in source
// order: import declarations, `import x = require(...)`, and
// re-exports. Evaluation-order ties break by this order (spec §4.5).
func importSpecifiers(prog *ast.Program) []dependency {
	var deps []dependency
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.ImportStmt:
			deps = append(deps, dependency{specifier: s.Source, pos: s.Pos()})
		case *ast.ImportRequireStmt:
			deps = append(deps, dependency{specifier: s.Source, pos: s.Pos()})
		case *ast.ExportStmt:
			if s.Source != "" {
				deps = append(deps, dependency{specifier: s.Source, pos: s.Pos()})
			}
		}
	}
	return deps
}
