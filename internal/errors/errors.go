// Package errors provides the compiler's error taxonomy and source-context
// formatting. Every stage of the pipeline (lexer through artifact writer)
// reports failures as a *CompilerError rather than panicking; runtime
// exceptions raised by emitted code are ordinary thrown JS values and are
// represented separately by internal/runtime.Exception.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// Kind distinguishes the taxonomy named in spec §7.
type Kind int

const (
	Lex Kind = iota
	Parse
	Resolve
	Type
	Runtime
	Json
	Io
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "LexError"
	case Parse:
		return "ParseError"
	case Resolve:
		return "ResolveError"
	case Type:
		return "TypeError"
	case Runtime:
		return "RuntimeError"
	case Json:
		return "JsonError"
	case Io:
		return "IoError"
	default:
		return "Error"
	}
}

// CompilerError represents a single compile-time failure with position and
// source context.
type CompilerError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Pos     lexer.Position
	cause   error
}

// New creates a compiler error of the given kind.
func New(kind Kind, pos lexer.Position, message, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: message, Source: source, File: file}
}

// Wrap creates an IoError around an underlying OS/filesystem failure,
// preserving the cause chain via github.com/pkg/errors so the original
// error (e.g. an afero path error) can still be recovered with Cause.
func Wrap(cause error, message, file string) *CompilerError {
	return &CompilerError{
		Kind:    Io,
		Message: message,
		File:    file,
		cause:   pkgerrors.Wrap(cause, message),
	}
}

// Cause returns the underlying error for an IoError created with Wrap, or
// nil otherwise.
func (e *CompilerError) Cause() error {
	if e.cause == nil {
		return nil
	}
	return pkgerrors.Cause(e.cause)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *CompilerError) Unwrap() error { return e.cause }

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format formats the error message with one line of source context.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	sb.WriteString(e.header())

	sourceLine := e.getSourceLine(e.Pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+maxInt(e.Pos.Column-1, 0)))
		sb.WriteString(caret(color))
		sb.WriteString("\n")
	}

	sb.WriteString(bold(e.Kind.String()+": "+e.Message, color))
	return sb.String()
}

// FormatWithContext formats the error with contextLines of source on either
// side of the failing line.
func (e *CompilerError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder
	sb.WriteString(e.header())

	ctx := e.getSourceContext(e.Pos.Line, contextLines, contextLines)
	if len(ctx) == 0 {
		return e.Format(color)
	}

	startLine := maxInt(e.Pos.Line-contextLines, 1)
	for i, line := range ctx {
		currentLine := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", currentLine)
		if currentLine == e.Pos.Line {
			sb.WriteString(bold(lineNumStr+line, color))
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+maxInt(e.Pos.Column-1, 0)))
			sb.WriteString(caret(color))
			sb.WriteString("\n")
		} else {
			sb.WriteString(dim(lineNumStr+line, color))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(bold(e.Kind.String()+": "+e.Message, color))
	return sb.String()
}

func (e *CompilerError) header() string {
	if e.File != "" {
		return fmt.Sprintf("%s in %s:%d:%d\n", e.Kind, e.File, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%s at line %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column)
}

func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func (e *CompilerError) getSourceContext(lineNum, before, after int) []string {
	if e.Source == "" {
		return nil
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}
	start := maxInt(lineNum-before, 1)
	end := minInt(lineNum+after, len(lines))
	return lines[start-1 : end]
}

func caret(color bool) string {
	if color {
		return "\033[1;31m^\033[0m"
	}
	return "^"
}

func bold(s string, color bool) string {
	if color {
		return "\033[1m" + s + "\033[0m"
	}
	return s
}

func dim(s string, color bool) string {
	if color {
		return "\033[2m" + s + "\033[0m"
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FormatErrors formats multiple compiler errors. The compiler itself always
// stops at the first error (spec §7); this is used by editor-facing
// diagnostics output that wants every error collected in one pass.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[%d/%d] ", i+1, len(errs)))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
