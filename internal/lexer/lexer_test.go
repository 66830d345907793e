package lexer

import "testing"

func collectTypes(t *testing.T, input string) []TokenType {
	t.Helper()
	l := New(input)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	return types
}

func TestNextToken_Punctuation(t *testing.T) {
	input := `let x = (1 + 2) * 3;`
	want := []TokenType{LET, IDENT, ASSIGN, LPAREN, NUMBER, PLUS, NUMBER, RPAREN, STAR, NUMBER, SEMICOLON, EOF}
	got := collectTypes(t, input)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_MultiCharOperators(t *testing.T) {
	input := `a ??= b; c **= d; e >>>= f; g?.h; i?.[0];`
	got := collectTypes(t, input)
	want := []TokenType{
		IDENT, QUESTION_QUESTION_ASSIGN, IDENT, SEMICOLON,
		IDENT, STAR_STAR_ASSIGN, IDENT, SEMICOLON,
		IDENT, URSHIFT_ASSIGN, IDENT, SEMICOLON,
		IDENT, QUESTION_DOT, IDENT, SEMICOLON,
		IDENT, QUESTION_DOT, LBRACKET, NUMBER, RBRACKET, SEMICOLON,
		EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input      string
		wantCooked float64
		wantType   TokenType
	}{
		{"123", 123, NUMBER},
		{"1.5", 1.5, NUMBER},
		{"1_000_000", 1000000, NUMBER},
		{"0xFF", 255, NUMBER},
		{"0o17", 15, NUMBER},
		{"0b101", 5, NUMBER},
		{"1e3", 1000, NUMBER},
		{"2.5e-2", 0.025, NUMBER},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.wantType {
			t.Errorf("%q: got type %s want %s", tt.input, tok.Type, tt.wantType)
			continue
		}
		cooked, ok := tok.Cooked.(float64)
		if !ok || cooked != tt.wantCooked {
			t.Errorf("%q: got cooked %v want %v", tt.input, tok.Cooked, tt.wantCooked)
		}
	}
}

func TestNextToken_BigIntSuffix(t *testing.T) {
	l := New("123n")
	tok := l.NextToken()
	if tok.Type != BIGINT {
		t.Fatalf("got type %s want BIGINT", tok.Type)
	}
	if tok.Cooked != "123" {
		t.Errorf("got cooked %v want \"123\"", tok.Cooked)
	}
	if tok.Literal != "123n" {
		t.Errorf("got literal %q want \"123n\"", tok.Literal)
	}
}

func TestNextToken_StringEscapes(t *testing.T) {
	tests := []struct {
		input  string
		cooked string
	}{
		{`"hello\nworld"`, "hello\nworld"},
		{`"tab\there"`, "tab\there"},
		{`"AB"`, "AB"},
		{`"\u{1F600}"`, "\U0001F600"},
		{`"\x41"`, "A"},
		{`'single quoted'`, "single quoted"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Fatalf("%q: got type %s want STRING", tt.input, tok.Type)
		}
		if tok.Cooked != tt.cooked {
			t.Errorf("%q: got cooked %q want %q", tt.input, tok.Cooked, tt.cooked)
		}
	}
}

func TestNextToken_TemplateLiteralNoHoles(t *testing.T) {
	l := New("`hello world`")
	tok := l.NextToken()
	if tok.Type != TEMPLATE_FULL {
		t.Fatalf("got type %s want TEMPLATE_FULL", tok.Type)
	}
	if tok.Cooked != "hello world" {
		t.Errorf("got cooked %q", tok.Cooked)
	}
}

func TestNextToken_TemplateLiteralWithHoles(t *testing.T) {
	// `a${x}b${y}c`
	l := New("`a${x}b${y}c`")
	var got []TokenType
	for {
		tok := l.NextToken()
		got = append(got, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	want := []TokenType{TEMPLATE_HEAD, IDENT, TEMPLATE_MID, IDENT, TEMPLATE_TAIL, EOF}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_RegexVsDivide(t *testing.T) {
	// After an identifier, `/` is division.
	got := collectTypes(t, "a / b")
	want := []TokenType{IDENT, SLASH, IDENT, EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("division case token %d: got %s want %s", i, got[i], want[i])
		}
	}

	// After `(`, `/` opens a regex literal.
	l := New("(/ab+c/gi)")
	tok1 := l.NextToken()
	if tok1.Type != LPAREN {
		t.Fatalf("got %s want LPAREN", tok1.Type)
	}
	tok2 := l.NextToken()
	if tok2.Type != REGEX {
		t.Fatalf("got %s want REGEX", tok2.Type)
	}
	if tok2.Literal != "/ab+c/gi" {
		t.Errorf("got literal %q", tok2.Literal)
	}

	// After `return`, `/` opens a regex literal.
	l2 := New("return /x/")
	l2.NextToken() // return
	tok3 := l2.NextToken()
	if tok3.Type != REGEX {
		t.Fatalf("got %s want REGEX after return", tok3.Type)
	}
}

func TestNextToken_UnicodeIdentifiers(t *testing.T) {
	input := "let café = 1; let 日本語 = 2;"
	l := New(input)
	l.NextToken() // let
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "café" {
		t.Fatalf("got %s %q want IDENT \"café\"", tok.Type, tok.Literal)
	}
}

func TestNextToken_PositionTracking(t *testing.T) {
	input := "let x\n  = 1;"
	l := New(input)
	tokLet := l.NextToken()
	if tokLet.Pos.Line != 1 || tokLet.Pos.Column != 1 {
		t.Errorf("let: got pos %v", tokLet.Pos)
	}
	tokX := l.NextToken()
	if tokX.Pos.Line != 1 {
		t.Errorf("x: got line %d want 1", tokX.Pos.Line)
	}
	tokAssign := l.NextToken()
	if tokAssign.Pos.Line != 2 {
		t.Errorf("=: got line %d want 2", tokAssign.Pos.Line)
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	l := New("a b c")
	first := l.Peek(0)
	if first.Literal != "a" {
		t.Fatalf("Peek(0) got %q want \"a\"", first.Literal)
	}
	second := l.Peek(1)
	if second.Literal != "b" {
		t.Fatalf("Peek(1) got %q want \"b\"", second.Literal)
	}
	// Consuming should still start from "a".
	tok := l.NextToken()
	if tok.Literal != "a" {
		t.Fatalf("NextToken() got %q want \"a\"", tok.Literal)
	}
}

func TestLexer_SaveRestoreState(t *testing.T) {
	l := New("a b c")
	state := l.SaveState()
	first := l.NextToken()
	l.NextToken()
	l.RestoreState(state)
	replay := l.NextToken()
	if replay.Literal != first.Literal {
		t.Errorf("after restore got %q want %q", replay.Literal, first.Literal)
	}
}

func TestNextToken_CommentsSkippedByDefault(t *testing.T) {
	input := "// a comment\nlet x = 1; /* block\ncomment */ let y = 2;"
	got := collectTypes(t, input)
	for _, tt := range got {
		if tt == COMMENT {
			t.Fatalf("comment token leaked into stream: %v", got)
		}
	}
}

func TestNextToken_BOMStripped(t *testing.T) {
	input := "\uFEFFlet x = 1;"
	l := New(input)
	tok := l.NextToken()
	if tok.Type != LET {
		t.Fatalf("got %s want LET, BOM not stripped", tok.Type)
	}
}
