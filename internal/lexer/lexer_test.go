package lexer

import "testing"

func collectTypes(input string) []TokenType {
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
	input := `.a[0][1:2][] | , : {} () = |= == != <= >= < > + - * / % //`
	want := []TokenType{
		DOT, IDENT, LBRACKET, NUMBER, RBRACKET,
		LBRACKET, NUMBER, COLON, NUMBER, RBRACKET,
		LBRACKET, RBRACKET, PIPE, COMMA, COLON,
		LBRACE, RBRACE, LPAREN, RPAREN, EQ, PIPE_EQ, EQ_EQ, NOT_EQ,
		LE, GE, LT, GT, PLUS, MINUS, STAR, SLASH, PERCENT, SLASHSLASH,
		EOF,
	}
	got := collectTypes(input)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	got := collectTypes("and or not true false null")
	want := []TokenType{AND, OR, NOT, TRUE, FALSE, NULL, EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextToken_Identifier(t *testing.T) {
	l := New("keys foo_bar2")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "keys" {
		t.Fatalf("got %v", tok)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "foo_bar2" {
		t.Fatalf("got %v", tok)
	}
}

func TestNextToken_NumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1", "1"},
		{"1.5", "1.5"},
		{"1e10", "1e10"},
		{"0.25", "0.25"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != NUMBER {
			t.Fatalf("input %q: got token type %s", tt.input, tok.Type)
		}
		if tok.Literal != tt.want {
			t.Fatalf("input %q: got literal %q, want %q", tt.input, tok.Literal, tt.want)
		}
	}
}

func TestNextToken_StringLiteral(t *testing.T) {
	l := New(`"hello\nworld"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("got token type %s", tok.Type)
	}
	if tok.Literal != "hello\nworld" {
		t.Fatalf("got literal %q", tok.Literal)
	}
}

func TestNextToken_UnterminatedStringIsError(t *testing.T) {
	l := New(`"unterminated`)
	l.NextToken()
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lex error for an unterminated string")
	}
}

func TestNextToken_PositionsAreOneIndexed(t *testing.T) {
	l := New(".a\n.b")
	tok := l.NextToken() // .
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Fatalf("got pos %+v", tok.Pos)
	}
	l.NextToken() // a
	tok = l.NextToken()
	if tok.Type != DOT || tok.Pos.Line != 2 {
		t.Fatalf("expected second-line DOT, got %+v at %+v", tok, tok.Pos)
	}
}

func TestLookupIdent(t *testing.T) {
	if LookupIdent("and") != AND {
		t.Fatalf("expected and to lex as a keyword")
	}
	if LookupIdent("keys") != IDENT {
		t.Fatalf("expected keys to lex as a plain identifier, not a keyword")
	}
}
