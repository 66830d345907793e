package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/tsnc-lang/tsnc/internal/artifact"
	"github.com/tsnc-lang/tsnc/internal/bytecode"
	"github.com/tsnc-lang/tsnc/internal/clog"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/pkg/tsnc"
)

var (
	outputFile      string
	refAssemblyPath string
	optimize        bool
	showDisasm      bool
	diagnosticsJSON bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [entry files...]",
	Short: "Compile entry modules to loadable artifacts",
	Long: `Compile one or more entry modules (plus everything they import) into
self-contained bytecode artifacts.

Examples:
  # Compile an entry module
  tsnc compile main.ts

  # Compile with a custom output path
  tsnc compile main.ts -o app.tsnc

  # Compile several independent entries concurrently
  tsnc compile tool1.ts tool2.ts tool10.ts

  # Remap implementation-detail references via a reference-assembly map
  tsnc compile main.ts --ref-assembly runtime.map`,
	Args: cobra.MinimumNArgs(1),
	RunE: compileEntries,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <entry>.tsnc; only valid with one entry)")
	compileCmd.Flags().StringVar(&refAssemblyPath, "ref-assembly", "", "reference-assembly map file for symbol remapping")
	compileCmd.Flags().BoolVar(&optimize, "optimize", true, "run the peephole optimizer")
	compileCmd.Flags().BoolVar(&showDisasm, "disassemble", false, "print the disassembled bytecode after compiling")
	compileCmd.Flags().BoolVar(&diagnosticsJSON, "diagnostics-json", false, "emit the first error as JSON on stderr")
}

func compileEntries(_ *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	if cfg.Optimize != nil {
		optimize = *cfg.Optimize
	}
	if refAssemblyPath == "" {
		refAssemblyPath = cfg.ReferenceAssembly
	}
	entries := append([]string(nil), args...)
	sort.Slice(entries, func(i, j int) bool { return natural.Less(entries[i], entries[j]) })
	if outputFile != "" && len(entries) > 1 {
		return fmt.Errorf("--output is only valid with a single entry file")
	}

	var rewriter *artifact.ReferenceRewriter
	if refAssemblyPath != "" {
		text, readErr := os.ReadFile(refAssemblyPath)
		if readErr != nil {
			return fmt.Errorf("reading reference assembly: %w", readErr)
		}
		rewriter = artifact.ParseReferenceTable(string(text))
	}

	// Independent entries compile concurrently; each gets its own
	// loader and chunk, so the only shared state is the flag set.
	var g errgroup.Group
	for _, entry := range entries {
		entry := entry
		g.Go(func() error { return compileOne(entry, rewriter) })
	}
	return g.Wait()
}

func compileOne(entry string, rewriter *artifact.ReferenceRewriter) error {
	clog.Stage("compile").Debug("compiling " + entry)
	program, cerr := tsnc.Compile(tsnc.Options{
		Fs:       afero.NewOsFs(),
		Entry:    entry,
		Optimize: optimize,
	})
	if cerr != nil {
		reportCompileError(cerr)
		return fmt.Errorf("compilation of %s failed", entry)
	}

	if rewriter != nil {
		for _, line := range rewriter.Rewrite(program.Chunk) {
			clog.Stage("rewrite").Debug(line)
		}
	}
	if showDisasm {
		fmt.Print(bytecode.Disassemble(program.Chunk))
	}

	var modulePaths []string
	for _, mod := range program.Modules {
		modulePaths = append(modulePaths, mod.Path)
	}
	art := artifact.New(program.Chunk, program.EntryPath, modulePaths, program.ProtoIndex)

	out := outputFile
	if out == "" {
		out = strings.TrimSuffix(entry, ".ts") + ".tsnc"
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer file.Close()
	if err := artifact.Write(file, art); err != nil {
		return err
	}
	clog.Stage("compile").Debug("wrote " + out)
	return nil
}

// reportCompileError prints the error with file:line:column context
// (spec §7); --diagnostics-json additionally emits a machine-readable
// object for editors and CI.
func reportCompileError(cerr *cerrors.CompilerError) {
	fmt.Fprintln(os.Stderr, cerr.FormatWithContext(2, false))
	if !diagnosticsJSON {
		return
	}
	doc := "{}"
	doc, _ = sjson.Set(doc, "kind", cerr.Kind.String())
	doc, _ = sjson.Set(doc, "message", cerr.Message)
	doc, _ = sjson.Set(doc, "file", cerr.File)
	doc, _ = sjson.Set(doc, "line", cerr.Pos.Line)
	doc, _ = sjson.Set(doc, "column", cerr.Pos.Column)
	fmt.Fprintln(os.Stderr, doc)
}
