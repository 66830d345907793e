package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tsnc-lang/tsnc/internal/clog"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tsnc",
	Short: "TypeScript/JavaScript subset native compiler",
	Long: `tsnc compiles a pragmatic subset of TypeScript/JavaScript into a
self-contained bytecode artifact and runs it on a cooperative
single-threaded virtual machine.

The pipeline: lexer, recursive-descent parser, variable resolver,
structural type checker, module loader, async/generator lowering, and
a stack-based code emitter backed by a synthesized runtime library
(collections, JSON, virtual timers, event emitter, streams, promises).`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		clog.SetVerbose(verbose)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// ProjectConfig is the optional tsnc.yaml project file.
type ProjectConfig struct {
	Output            string   `yaml:"output"`
	Entry             string   `yaml:"entry"`
	ReferenceAssembly string   `yaml:"referenceAssembly"`
	LibRoots          []string `yaml:"libRoots"`
	Optimize          *bool    `yaml:"optimize"`
}

// loadProjectConfig reads tsnc.yaml from the working directory when
// present; a missing file is not an error.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile("tsnc.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectConfig{}, nil
		}
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("tsnc.yaml: %w", err)
	}
	return &cfg, nil
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
