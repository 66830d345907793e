package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/tsnc-lang/tsnc/internal/artifact"
	"github.com/tsnc-lang/tsnc/internal/bytecode"
	"github.com/tsnc-lang/tsnc/pkg/tsnc"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [entry file or artifact]",
	Short: "Print the disassembled bytecode for a program",
	Long: `Disassemble either a source entry module (compiled on the fly) or a
.tsnc artifact into a human-readable instruction listing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if art, ok := tryReadArtifact(args[0]); ok {
			fmt.Print(bytecode.Disassemble(art.Chunk))
			return nil
		}
		program, cerr := tsnc.Compile(tsnc.Options{Fs: afero.NewOsFs(), Entry: args[0]})
		if cerr != nil {
			reportCompileError(cerr)
			return fmt.Errorf("compilation failed")
		}
		fmt.Print(bytecode.Disassemble(program.Chunk))
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [artifact file]",
	Short: "Print an artifact's embedded manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		art, ok := tryReadArtifact(args[0])
		if !ok {
			return fmt.Errorf("%s is not a tsnc artifact", args[0])
		}
		os.Stdout.Write(pretty.Pretty(art.Manifest))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(inspectCmd)
}

func tryReadArtifact(path string) (*artifact.Artifact, bool) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer file.Close()
	art, err := artifact.Read(file)
	if err != nil {
		return nil, false
	}
	return art, true
}
