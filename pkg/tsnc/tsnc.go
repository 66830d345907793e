// Package tsnc is the public compile-and-run surface: it threads a
// source tree through the full pipeline — lexer, parser, resolver,
// checker, module loader, emitter — and drives the resulting program
// on the bytecode VM with the synthesized runtime installed.
package tsnc

import (
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/tsnc-lang/tsnc/internal/artifact"
	"github.com/tsnc-lang/tsnc/internal/bytecode"
	"github.com/tsnc-lang/tsnc/internal/checker"
	"github.com/tsnc-lang/tsnc/internal/clog"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/loader"
	"github.com/tsnc-lang/tsnc/internal/resolver"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

// Options configures a compilation.
type Options struct {
	// Fs is the filesystem modules load from; tests pass an
	// afero.MemMapFs.
	Fs afero.Fs
	// Entry is the entry module path.
	Entry string
	// Optimize runs the peephole pass over the emitted code.
	Optimize bool
}

// Program is a fully compiled module graph ready to run or package.
type Program struct {
	Chunk *bytecode.Chunk
	// Modules lists every loaded module in evaluation order (built-ins
	// included, with no compiled body).
	Modules []*loader.Module
	// ProtoIndex maps a module path to its top-level FunctionProto.
	ProtoIndex map[string]int
	EntryPath  string
}

// Compile loads, resolves, type-checks, and emits the module graph
// rooted at opts.Entry. The first error at any stage is fatal (spec
// §7: "first error stops the pipeline").
func Compile(opts Options) (*Program, *cerrors.CompilerError) {
	mods, err := loader.New(opts.Fs).Load(opts.Entry)
	if err != nil {
		return nil, err
	}

	var units []bytecode.ModuleUnit
	for _, mod := range mods {
		if mod.Builtin {
			continue
		}
		clog.Module("compile", mod.Path).Debug("resolving and checking")
		if errs := resolver.New(mod.Source, mod.Path).Resolve(mod.Program); len(errs) > 0 {
			return nil, errs[0]
		}
		if errs := checker.New(mod.Source, mod.Path).Check(mod.Program); len(errs) > 0 {
			return nil, errs[0]
		}
		units = append(units, bytecode.ModuleUnit{
			Path:    mod.Path,
			Program: mod.Program,
			Resolve: mod.Resolve,
		})
	}

	chunk, indices, cerr := bytecode.CompileProgram(units)
	if cerr != nil {
		return nil, cerr
	}
	if opts.Optimize {
		bytecode.Optimize(chunk)
	}

	protoIndex := map[string]int{}
	for i, unit := range units {
		protoIndex[unit.Path] = indices[i]
	}
	entry := mods[len(mods)-1].Path
	return &Program{Chunk: chunk, Modules: mods, ProtoIndex: protoIndex, EntryPath: entry}, nil
}

// Run executes a compiled program: installs the global environment and
// every module's live exports object, runs module bodies in evaluation
// order, then drains the virtual timer queue. Runtime exceptions that
// escape the entry point return as the error (spec §7).
func Run(p *Program, stdout, stderr io.Writer) error {
	vm := bytecode.NewVM(p.Chunk)
	console := runtime.NewConsole(stdout, stderr, vm.Clock)
	vm.InstallGlobals(runtime.NewGlobalEnvironment(console, vm.Clock))

	// Exports objects exist before any module body runs, so circular
	// imports observe the partially-initialized placeholder (spec §4.5).
	for _, mod := range p.Modules {
		if mod.Builtin {
			name := strings.TrimPrefix(mod.Path, loader.BuiltinPrefix)
			exports, ok := runtime.BuiltinModuleExports(name, vm.Clock)
			if !ok {
				exports = runtime.NewObject()
			}
			vm.Globals[bytecode.ExportsGlobalName(mod.Path)] = exports
			continue
		}
		vm.Globals[bytecode.ExportsGlobalName(mod.Path)] = runtime.NewObject()
	}
	vm.Globals["__import"] = dynamicImporter(vm, p)

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if exc, ok := r.(*runtime.Exception); ok {
					runErr = exc
					return
				}
				panic(r)
			}
		}()
		for _, mod := range p.Modules {
			if mod.Builtin {
				continue
			}
			vm.RunProto(p.ProtoIndex[mod.Path])
		}
		vm.Clock.RunUntilIdle(0)
	}()
	return runErr
}

// dynamicImporter backs `import(expr)`: a promise of the (already
// loaded) module's exports object. Only modules reachable through the
// static graph are importable — the artifact is self-contained.
func dynamicImporter(vm *bytecode.VM, p *Program) *runtime.Function {
	return &runtime.Function{Name: "__import", Call: func(_ interface{}, args []interface{}) interface{} {
		if len(args) == 0 {
			return runtime.RejectedPromise("TypeError: import() requires a specifier")
		}
		specifier, _ := args[0].(string)
		for _, mod := range p.Modules {
			if mod.Path == specifier || mod.Path == strings.TrimPrefix(specifier, "./") ||
				mod.Path == strings.TrimSuffix(strings.TrimPrefix(specifier, "./"), ".ts")+".ts" {
				if exports, ok := vm.Globals[bytecode.ExportsGlobalName(mod.Path)]; ok {
					return runtime.ResolvedPromise(exports)
				}
			}
		}
		return runtime.RejectedPromise("Error: Cannot find module '" + specifier + "'")
	}}
}

// CompileAndRun is the one-call path the CLI's `run` verb and the
// end-to-end tests use.
func CompileAndRun(opts Options, stdout, stderr io.Writer) error {
	p, err := Compile(opts)
	if err != nil {
		return err
	}
	return Run(p, stdout, stderr)
}

// RunArtifact executes a previously packaged artifact: the descriptor's
// module list reconstructs the evaluation order and exports wiring the
// live compile path gets from the loader.
func RunArtifact(a *artifact.Artifact, stdout, stderr io.Writer) error {
	p := &Program{
		Chunk:      a.Chunk,
		ProtoIndex: a.Descriptor.ProtoIndex,
		EntryPath:  a.Descriptor.EntryPath,
	}
	for _, path := range a.Descriptor.ModulePaths {
		p.Modules = append(p.Modules, &loader.Module{
			Path:    path,
			Builtin: strings.HasPrefix(path, loader.BuiltinPrefix),
		})
	}
	return Run(p, stdout, stderr)
}
