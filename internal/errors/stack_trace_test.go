package errors

import (
	"strings"
	"testing"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func TestStackFrame_String(t *testing.T) {
	tests := []struct {
		name     string
		frame    StackFrame
		expected string
	}{
		{
			name: "frame with position and file",
			frame: StackFrame{
				FunctionName: "myFunction",
				FileName:     "test.ts",
				Position:     &lexer.Position{Line: 10, Column: 5},
			},
			expected: "    at myFunction (test.ts:10:5)",
		},
		{
			name: "frame without position",
			frame: StackFrame{
				FunctionName: "myFunction",
				FileName:     "test.ts",
				Position:     nil,
			},
			expected: "    at myFunction",
		},
		{
			name: "frame with method name",
			frame: StackFrame{
				FunctionName: "MyClass.myMethod",
				FileName:     "test.ts",
				Position:     &lexer.Position{Line: 42, Column: 15},
			},
			expected: "    at MyClass.myMethod (test.ts:42:15)",
		},
		{
			name: "frame with arrow function and no file",
			frame: StackFrame{
				FunctionName: "<anonymous>",
				FileName:     "",
				Position:     &lexer.Position{Line: 7, Column: 1},
			},
			expected: "    at <anonymous> (7:1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.frame.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestStackTrace_String(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		trace    StackTrace
	}{
		{
			name:     "empty stack trace",
			trace:    StackTrace{},
			expected: "",
		},
		{
			name: "single frame",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 1, Column: 1}},
			},
			expected: "    at main (1:1)",
		},
		{
			name: "multiple frames print most-recent first",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
				{FunctionName: "foo", Position: &lexer.Position{Line: 15, Column: 5}},
				{FunctionName: "bar", Position: &lexer.Position{Line: 10, Column: 3}},
			},
			expected: "    at bar (10:3)\n    at foo (15:5)\n    at main (20:1)",
		},
		{
			name: "frames with and without position",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
				{FunctionName: "foo", Position: nil},
			},
			expected: "    at foo\n    at main (20:1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.trace.String()
			if result != tt.expected {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.expected, result)
			}
		})
	}
}

func TestStackTrace_Reverse(t *testing.T) {
	original := StackTrace{
		{FunctionName: "first", Position: &lexer.Position{Line: 1, Column: 1}},
		{FunctionName: "second", Position: &lexer.Position{Line: 2, Column: 1}},
		{FunctionName: "third", Position: &lexer.Position{Line: 3, Column: 1}},
	}

	reversed := original.Reverse()

	if reversed[0].FunctionName != "third" {
		t.Errorf("expected first frame to be 'third', got %q", reversed[0].FunctionName)
	}
	if reversed[1].FunctionName != "second" {
		t.Errorf("expected second frame to be 'second', got %q", reversed[1].FunctionName)
	}
	if reversed[2].FunctionName != "first" {
		t.Errorf("expected third frame to be 'first', got %q", reversed[2].FunctionName)
	}
	if original[0].FunctionName != "first" {
		t.Errorf("original stack trace was modified")
	}
}

func TestStackTrace_TopAndBottom(t *testing.T) {
	trace := StackTrace{
		{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
		{FunctionName: "foo", Position: &lexer.Position{Line: 15, Column: 5}},
		{FunctionName: "bar", Position: &lexer.Position{Line: 10, Column: 3}},
	}

	if top := trace.Top(); top == nil || top.FunctionName != "bar" {
		t.Errorf("expected top to be bar, got %v", top)
	}
	if bottom := trace.Bottom(); bottom == nil || bottom.FunctionName != "main" {
		t.Errorf("expected bottom to be main, got %v", bottom)
	}

	empty := StackTrace{}
	if empty.Top() != nil || empty.Bottom() != nil {
		t.Errorf("expected nil top/bottom for empty trace")
	}
}

func TestStackTrace_Depth(t *testing.T) {
	tests := []struct {
		name     string
		trace    StackTrace
		expected int
	}{
		{name: "empty", trace: StackTrace{}, expected: 0},
		{name: "single frame", trace: StackTrace{{FunctionName: "main"}}, expected: 1},
		{name: "multiple frames", trace: StackTrace{{FunctionName: "main"}, {FunctionName: "foo"}, {FunctionName: "bar"}}, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if depth := tt.trace.Depth(); depth != tt.expected {
				t.Errorf("expected depth %d, got %d", tt.expected, depth)
			}
		})
	}
}

func TestNewStackFrame(t *testing.T) {
	pos := &lexer.Position{Line: 42, Column: 13}
	frame := NewStackFrame("testFunc", "test.ts", pos)

	if frame.FunctionName != "testFunc" {
		t.Errorf("expected FunctionName 'testFunc', got %q", frame.FunctionName)
	}
	if frame.FileName != "test.ts" {
		t.Errorf("expected FileName 'test.ts', got %q", frame.FileName)
	}
	if frame.Position != pos {
		t.Errorf("expected position %v, got %v", pos, frame.Position)
	}
}

func TestNewStackTrace(t *testing.T) {
	trace := NewStackTrace()
	if trace == nil {
		t.Error("NewStackTrace returned nil")
	}
	if len(trace) != 0 {
		t.Errorf("expected empty stack trace, got length %d", len(trace))
	}
}

func TestStackTrace_RealWorldScenario(t *testing.T) {
	// Main -> processData -> validateInput, matching the call order an
	// uncaught exception's .stack property would show.
	trace := StackTrace{
		{FunctionName: "main", FileName: "main.ts", Position: &lexer.Position{Line: 50, Column: 1}},
		{FunctionName: "processData", FileName: "main.ts", Position: &lexer.Position{Line: 30, Column: 5}},
		{FunctionName: "validateInput", FileName: "main.ts", Position: &lexer.Position{Line: 10, Column: 3}},
	}

	expected := "    at validateInput (main.ts:10:3)\n    at processData (main.ts:30:5)\n    at main (main.ts:50:1)"
	if result := trace.String(); result != expected {
		t.Errorf("stack trace string doesn't match.\nexpected:\n%s\ngot:\n%s", expected, result)
	}

	if trace.Depth() != 3 {
		t.Errorf("expected depth 3, got %d", trace.Depth())
	}
	if top := trace.Top(); top == nil || top.FunctionName != "validateInput" {
		t.Errorf("expected top to be validateInput, got %v", top)
	}
	if bottom := trace.Bottom(); bottom == nil || bottom.FunctionName != "main" {
		t.Errorf("expected bottom to be main, got %v", bottom)
	}
}

func TestStackTrace_StringLines(t *testing.T) {
	trace := StackTrace{
		{FunctionName: "callsABomb", Position: &lexer.Position{Line: 8, Column: 4}},
		{FunctionName: "thisOneBombs", Position: &lexer.Position{Line: 3, Column: 20}},
	}

	result := trace.String()
	lines := strings.Split(result, "\n")

	if lines[0] != "    at thisOneBombs (3:20)" {
		t.Errorf("first line mismatch: %q", lines[0])
	}
	if lines[1] != "    at callsABomb (8:4)" {
		t.Errorf("second line mismatch: %q", lines[1])
	}
}
