package errors

import (
	"strings"
	"testing"

	stderrors "errors"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func TestCompilerError_Format(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		pos         lexer.Position
		message     string
		source      string
		file        string
		wantContain []string
	}{
		{
			name:    "resolve error with file",
			kind:    Resolve,
			pos:     lexer.Position{Line: 1, Column: 10},
			message: "undefined variable 'x'",
			source:  "let y = x + 5;",
			file:    "test.ts",
			wantContain: []string{
				"ResolveError in test.ts:1:10",
				"   1 | let y = x + 5;",
				"^",
				"undefined variable 'x'",
			},
		},
		{
			name:    "type error without file",
			kind:    Type,
			pos:     lexer.Position{Line: 5, Column: 15},
			message: "type mismatch",
			source:  "line1\nline2\nline3\nline4\nline5 with error here\nline6",
			file:    "",
			wantContain: []string{
				"TypeError at line 5:15",
				"   5 | line5 with error here",
				"^",
				"type mismatch",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.kind, tt.pos, tt.message, tt.source, tt.file)
			got := err.Format(false)
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("Format() output missing %q\ngot:\n%s", want, got)
				}
			}
		})
	}
}

func TestCompilerError_FormatWithContext(t *testing.T) {
	source := `let x: number = 5;
let y: string;
y = 10;
console.log(y);`

	err := New(Type, lexer.Position{Line: 3, Column: 5}, "cannot assign number to string", source, "test.ts")
	got := err.FormatWithContext(1, false)

	for _, want := range []string{
		"TypeError in test.ts:3:5",
		"   2 | let y: string;",
		"   3 | y = 10;",
		"   4 | console.log(y);",
		"^",
		"cannot assign number to string",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatWithContext() missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	root := stderrors.New("file not found")
	ce := Wrap(root, "failed to read module", "./a.ts")

	if ce.Kind != Io {
		t.Fatalf("expected Io kind, got %v", ce.Kind)
	}
	if ce.Cause().Error() != root.Error() {
		t.Errorf("expected cause %q, got %q", root.Error(), ce.Cause().Error())
	}
	if !stderrors.Is(ce, ce) {
		t.Errorf("expected self-identity under errors.Is")
	}
}

func TestFormatErrors_Multiple(t *testing.T) {
	errs := []*CompilerError{
		New(Lex, lexer.Position{Line: 1, Column: 1}, "unexpected character", "", "a.ts"),
		New(Parse, lexer.Position{Line: 2, Column: 1}, "expected ';'", "", "a.ts"),
	}
	got := FormatErrors(errs, false)
	if !strings.Contains(got, "2 error(s)") {
		t.Errorf("expected error count header, got:\n%s", got)
	}
	if !strings.Contains(got, "LexError") || !strings.Contains(got, "ParseError") {
		t.Errorf("expected both kinds present, got:\n%s", got)
	}
}
