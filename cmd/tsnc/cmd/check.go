package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
	"github.com/tsnc-lang/tsnc/pkg/tsnc"
)

var checkCmd = &cobra.Command{
	Use:   "check [entry file]",
	Short: "Type-check a module graph without emitting code",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		_, cerr := tsnc.Compile(tsnc.Options{Fs: afero.NewOsFs(), Entry: args[0]})
		if cerr != nil {
			reportCompileError(cerr)
			return fmt.Errorf("check failed")
		}
		fmt.Println("ok")
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a source file and print its AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		prog, cerr := parser.New(lexer.New(string(source)), args[0], string(source)).Parse()
		if cerr != nil {
			reportCompileError(cerr)
			return fmt.Errorf("parse failed")
		}
		fmt.Print(prog.String())
		return nil
	},
}

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a source file and print the token stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		l := lexer.New(string(source))
		for {
			tok := l.NextToken()
			fmt.Printf("%d:%d\t%s\t%q\n", tok.Pos.Line, tok.Pos.Column, tok.Type, tok.Literal)
			if tok.Type == lexer.EOF {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(lexCmd)
}
