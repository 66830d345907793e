package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tsnc-lang/tsnc/internal/artifact"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/pkg/tsnc"
)

var runOptimize bool

var runCmd = &cobra.Command{
	Use:   "run [entry file]",
	Short: "Compile and run an entry module",
	Long: `Compile the module graph rooted at the entry file and execute it
immediately on the virtual machine.

Examples:
  # Run a program
  tsnc run main.ts

  # Run without the optimizer (useful when bisecting a folding bug)
  tsnc run main.ts --optimize=false`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

var execCmd = &cobra.Command{
	Use:   "exec [artifact file]",
	Short: "Run a compiled artifact",
	Long:  `Load a .tsnc artifact produced by "tsnc compile" and execute it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  execArtifact,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	runCmd.Flags().BoolVar(&runOptimize, "optimize", true, "run the peephole optimizer")
}

func runScript(_ *cobra.Command, args []string) error {
	err := tsnc.CompileAndRun(tsnc.Options{
		Fs:       afero.NewOsFs(),
		Entry:    args[0],
		Optimize: runOptimize,
	}, os.Stdout, os.Stderr)
	if err == nil {
		return nil
	}
	if cerr, ok := err.(*cerrors.CompilerError); ok {
		reportCompileError(cerr)
		return fmt.Errorf("compilation failed")
	}
	// A runtime exception that escaped the entry point: print the
	// stringified error and exit non-zero (spec §7).
	fmt.Fprintln(os.Stderr, err.Error())
	return err
}

func execArtifact(_ *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer file.Close()
	art, err := artifact.Read(file)
	if err != nil {
		return err
	}
	if err := tsnc.RunArtifact(art, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return err
	}
	return nil
}
