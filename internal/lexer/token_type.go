package lexer

// TokenType represents the kind of a token produced by the lexer.
// Categories mirror spec §3's Token data model: keywords, operators,
// identifiers, literals (number, string, template piece, regexp, bigint),
// and structural markers.
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota // unexpected character
	EOF                      // end of input
	COMMENT                  // line or block comment (only emitted with WithPreserveComments)

	// Identifiers and literals
	IDENT         // identifiers: x, myVar, MyClass
	NUMBER        // 123, 1.5e10, 0xFF, 0o17, 0b101, 1_000_000
	BIGINT        // 123n
	STRING        // 'hello', "world"
	TEMPLATE_FULL // `no holes`
	TEMPLATE_HEAD // `abc${
	TEMPLATE_MID  // }abc${
	TEMPLATE_TAIL // }abc`
	REGEX         // /ab+c/gi

	literalEnd // marker, not a real token kind

	// Keywords - declarations
	VAR
	LET
	CONST
	FUNCTION
	CLASS
	INTERFACE
	ENUM
	NAMESPACE
	MODULE
	TYPE
	DECLARE

	// Keywords - control flow
	IF
	ELSE
	FOR
	WHILE
	DO
	SWITCH
	CASE
	DEFAULT
	BREAK
	CONTINUE
	RETURN
	THROW
	TRY
	CATCH
	FINALLY

	// Keywords - OOP
	EXTENDS
	IMPLEMENTS
	SUPER
	THIS
	NEW
	STATIC
	GET
	SET
	CONSTRUCTOR
	PUBLIC
	PRIVATE
	PROTECTED
	READONLY
	ABSTRACT

	// Keywords - modules
	IMPORT
	EXPORT
	FROM
	AS

	// Keywords - async / generators
	ASYNC
	AWAIT
	YIELD
	USING

	// Keywords - operators-as-words
	TYPEOF
	INSTANCEOF
	IN
	OF
	VOID
	DELETE

	// Keywords - literals
	TRUE
	FALSE
	NULL_KW
	UNDEFINED_KW

	keywordEnd // marker

	// Punctuation / structural markers
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	SEMICOLON
	COMMA
	DOT
	ELLIPSIS // ...
	COLON
	QUESTION
	QUESTION_DOT // ?.
	QUESTION_QUESTION
	ARROW // =>
	AT    // @ (decorator)

	// Operators
	PLUS
	MINUS
	STAR
	STAR_STAR // **
	SLASH
	PERCENT
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	STAR_STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	AMP_ASSIGN
	PIPE_ASSIGN
	CARET_ASSIGN
	LSHIFT_ASSIGN
	RSHIFT_ASSIGN
	URSHIFT_ASSIGN
	AMP_AMP_ASSIGN
	PIPE_PIPE_ASSIGN
	QUESTION_QUESTION_ASSIGN
	EQ         // ==
	NOT_EQ     // !=
	STRICT_EQ  // ===
	STRICT_NEQ // !==
	LT
	GT
	LE
	GE
	AMP_AMP // &&
	PIPE_PIPE
	BANG
	AMP // &
	PIPE
	CARET
	TILDE
	LSHIFT
	RSHIFT
	URSHIFT
	PLUS_PLUS
	MINUS_MINUS
)

var keywords = map[string]TokenType{
	"var": VAR, "let": LET, "const": CONST, "function": FUNCTION,
	"class": CLASS, "interface": INTERFACE, "enum": ENUM,
	"namespace": NAMESPACE, "module": MODULE, "type": TYPE, "declare": DECLARE,
	"if": IF, "else": ELSE, "for": FOR, "while": WHILE, "do": DO,
	"switch": SWITCH, "case": CASE, "default": DEFAULT,
	"break": BREAK, "continue": CONTINUE, "return": RETURN,
	"throw": THROW, "try": TRY, "catch": CATCH, "finally": FINALLY,
	"extends": EXTENDS, "implements": IMPLEMENTS, "super": SUPER, "this": THIS,
	"new": NEW, "static": STATIC, "get": GET, "set": SET,
	"constructor": CONSTRUCTOR, "public": PUBLIC, "private": PRIVATE,
	"protected": PROTECTED, "readonly": READONLY, "abstract": ABSTRACT,
	"import": IMPORT, "export": EXPORT, "from": FROM, "as": AS,
	"async": ASYNC, "await": AWAIT, "yield": YIELD, "using": USING,
	"typeof": TYPEOF, "instanceof": INSTANCEOF, "in": IN, "of": OF,
	"void": VOID, "delete": DELETE,
	"true": TRUE, "false": FALSE, "null": NULL_KW, "undefined": UNDEFINED_KW,
}

// LookupIdent classifies an identifier as a keyword token or plain IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether tt is a reserved word.
func IsKeyword(tt TokenType) bool { return tt > literalEnd && tt < keywordEnd }

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

var tokenNames = func() map[TokenType]string {
	m := map[TokenType]string{
		ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT", IDENT: "IDENT",
		NUMBER: "NUMBER", BIGINT: "BIGINT", STRING: "STRING",
		TEMPLATE_FULL: "TEMPLATE_FULL", TEMPLATE_HEAD: "TEMPLATE_HEAD",
		TEMPLATE_MID: "TEMPLATE_MID", TEMPLATE_TAIL: "TEMPLATE_TAIL",
		REGEX:  "REGEX",
		LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
		LBRACKET: "[", RBRACKET: "]", SEMICOLON: ";", COMMA: ",", DOT: ".",
		ELLIPSIS: "...", COLON: ":", QUESTION: "?", QUESTION_DOT: "?.",
		QUESTION_QUESTION: "??", ARROW: "=>", AT: "@",
		PLUS: "+", MINUS: "-", STAR: "*", STAR_STAR: "**", SLASH: "/", PERCENT: "%",
		ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=",
		STAR_STAR_ASSIGN: "**=", SLASH_ASSIGN: "/=", PERCENT_ASSIGN: "%=",
		AMP_ASSIGN: "&=", PIPE_ASSIGN: "|=", CARET_ASSIGN: "^=",
		LSHIFT_ASSIGN: "<<=", RSHIFT_ASSIGN: ">>=", URSHIFT_ASSIGN: ">>>=",
		AMP_AMP_ASSIGN: "&&=", PIPE_PIPE_ASSIGN: "||=", QUESTION_QUESTION_ASSIGN: "??=",
		EQ: "==", NOT_EQ: "!=", STRICT_EQ: "===", STRICT_NEQ: "!==",
		LT: "<", GT: ">", LE: "<=", GE: ">=",
		AMP_AMP: "&&", PIPE_PIPE: "||", BANG: "!",
		AMP: "&", PIPE: "|", CARET: "^", TILDE: "~",
		LSHIFT: "<<", RSHIFT: ">>", URSHIFT: ">>>",
		PLUS_PLUS: "++", MINUS_MINUS: "--",
	}
	for word, tt := range keywords {
		m[tt] = word
	}
	return m
}()
