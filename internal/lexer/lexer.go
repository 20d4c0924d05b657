package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/octofhir/fhirpath/diagnostic"
)

// LexError is returned by Lexer.Next when the source cannot be tokenized
// further; it carries a diagnostic code: one of the lexical failure codes
// (CodeUnclosedString, CodeInvalidEscape, CodeInvalidDateTime) or
// CodeUnexpectedToken for input that starts no valid token.
type LexError struct {
	Code string
	Msg  string
	Span diagnostic.Span
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Lexer produces a lazy sequence of Tokens from FHIRPath source text.
// It is not safe for concurrent use; callers needing concurrent lexing of
// independent expressions should construct one Lexer per goroutine.
type Lexer struct {
	src        string
	pos        int // byte offset
	line       int // 1-indexed
	lineOffset int // byte offset of the start of the current line
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, lineOffset: 0}
}

func (l *Lexer) column(offset int) int {
	return offset - l.lineOffset + 1
}

func (l *Lexer) spanFrom(start, startLine, startCol int) diagnostic.Span {
	return diagnostic.Span{
		Offset: start,
		Length: l.pos - start,
		Line:   startLine,
		Column: startCol,
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.lineOffset = l.pos
	}
	return b
}

// skipTrivia consumes whitespace and // and /* */ comments.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		case b == '/' && l.peekByteAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token, or an EOF token once the input is exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: diagnostic.Span{Offset: l.pos, Line: l.line, Column: l.column(l.pos)}}, nil
	}

	start := l.pos
	startLine := l.line
	startCol := l.column(start)
	b := l.peekByte()

	switch {
	case b == '\'':
		return l.lexString(start, startLine, startCol)
	case b == '`':
		return l.lexDelimitedIdentifier(start, startLine, startCol)
	case b == '@':
		return l.lexTemporal(start, startLine, startCol)
	case b == '%':
		return l.lexExternalConstant(start, startLine, startCol)
	case b >= '0' && b <= '9':
		return l.lexNumber(start, startLine, startCol)
	case isIdentStart(b) || b == '_':
		return l.lexIdentifierOrKeyword(start, startLine, startCol)
	case b == '$':
		return l.lexSpecialVariable(start, startLine, startCol)
	default:
		return l.lexPunctuation(start, startLine, startCol)
	}
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '_'
}

func (l *Lexer) lexIdentifierOrKeyword(start, startLine, startCol int) (Token, error) {
	for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	span := l.spanFrom(start, startLine, startCol)
	if kind, ok := IsKeyword(text); ok {
		return Token{Kind: kind, Text: text, Value: text, Span: span}, nil
	}
	return Token{Kind: Identifier, Text: text, Value: text, Span: span}, nil
}

func (l *Lexer) lexSpecialVariable(start, startLine, startCol int) (Token, error) {
	l.advance() // consume '$'
	rest := l.src[l.pos:]
	switch {
	case strings.HasPrefix(rest, "this"):
		l.pos += len("this")
		return Token{Kind: This, Text: l.src[start:l.pos], Span: l.spanFrom(start, startLine, startCol)}, nil
	case strings.HasPrefix(rest, "index"):
		l.pos += len("index")
		return Token{Kind: Index, Text: l.src[start:l.pos], Span: l.spanFrom(start, startLine, startCol)}, nil
	case strings.HasPrefix(rest, "total"):
		l.pos += len("total")
		return Token{Kind: Total, Text: l.src[start:l.pos], Span: l.spanFrom(start, startLine, startCol)}, nil
	default:
		span := l.spanFrom(start, startLine, startCol)
		return Token{}, &LexError{Code: diagnostic.CodeUnexpectedToken, Msg: "expected $this, $index or $total", Span: span}
	}
}

func (l *Lexer) lexNumber(start, startLine, startCol int) (Token, error) {
	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advance()
	}
	isDecimal := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isDecimal = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	kind := Number
	if !isDecimal && l.peekByte() == 'L' {
		l.advance()
		kind = LongNumber
	}
	text := l.src[start:l.pos]
	return Token{Kind: kind, Text: text, Value: text, Span: l.spanFrom(start, startLine, startCol)}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *Lexer) lexString(start, startLine, startCol int) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &LexError{Code: diagnostic.CodeUnclosedString, Msg: "unterminated string literal", Span: l.spanFrom(start, startLine, startCol)}
		}
		b := l.peekByte()
		if b == '\'' {
			l.advance()
			break
		}
		if b == '\\' {
			r, err := l.lexEscape(start, startLine, startCol)
			if err != nil {
				return Token{}, err
			}
			sb.WriteRune(r)
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		sb.WriteRune(r)
	}
	return Token{Kind: String, Text: l.src[start:l.pos], Value: sb.String(), Span: l.spanFrom(start, startLine, startCol)}, nil
}

func (l *Lexer) lexEscape(start, startLine, startCol int) (rune, error) {
	l.advance() // backslash
	if l.pos >= len(l.src) {
		return 0, &LexError{Code: diagnostic.CodeInvalidEscape, Msg: "unterminated escape sequence", Span: l.spanFrom(start, startLine, startCol)}
	}
	e := l.advance()
	switch e {
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case '`':
		return '`', nil
	case '\\':
		return '\\', nil
	case '/':
		return '/', nil
	case 'r':
		return '\r', nil
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'f':
		return '\f', nil
	case 'u':
		if l.pos+4 > len(l.src) {
			return 0, &LexError{Code: diagnostic.CodeInvalidEscape, Msg: "incomplete unicode escape", Span: l.spanFrom(start, startLine, startCol)}
		}
		hex := l.src[l.pos : l.pos+4]
		var r rune
		for _, c := range hex {
			var d rune
			switch {
			case c >= '0' && c <= '9':
				d = c - '0'
			case c >= 'a' && c <= 'f':
				d = c - 'a' + 10
			case c >= 'A' && c <= 'F':
				d = c - 'A' + 10
			default:
				return 0, &LexError{Code: diagnostic.CodeInvalidEscape, Msg: "invalid unicode escape", Span: l.spanFrom(start, startLine, startCol)}
			}
			r = r*16 + d
		}
		for i := 0; i < 4; i++ {
			l.advance()
		}
		return r, nil
	default:
		return 0, &LexError{Code: diagnostic.CodeInvalidEscape, Msg: fmt.Sprintf("invalid escape sequence \\%c", e), Span: l.spanFrom(start, startLine, startCol)}
	}
}

func (l *Lexer) lexDelimitedIdentifier(start, startLine, startCol int) (Token, error) {
	l.advance() // opening backtick
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &LexError{Code: diagnostic.CodeUnclosedString, Msg: "unterminated delimited identifier", Span: l.spanFrom(start, startLine, startCol)}
		}
		b := l.peekByte()
		if b == '`' {
			l.advance()
			break
		}
		if b == '\\' {
			r, err := l.lexEscape(start, startLine, startCol)
			if err != nil {
				return Token{}, err
			}
			sb.WriteRune(r)
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		sb.WriteRune(r)
	}
	return Token{Kind: DelimitedIdentifier, Text: l.src[start:l.pos], Value: sb.String(), Span: l.spanFrom(start, startLine, startCol)}, nil
}

func (l *Lexer) lexExternalConstant(start, startLine, startCol int) (Token, error) {
	l.advance() // '%'
	switch l.peekByte() {
	case '\'':
		strStart := l.pos
		strLine, strCol := l.line, l.column(l.pos)
		tok, err := l.lexString(strStart, strLine, strCol)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: ExternalConstant, Text: l.src[start:l.pos], Value: tok.Value, Span: l.spanFrom(start, startLine, startCol)}, nil
	case '`':
		idStart := l.pos
		idLine, idCol := l.line, l.column(l.pos)
		tok, err := l.lexDelimitedIdentifier(idStart, idLine, idCol)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: ExternalConstant, Text: l.src[start:l.pos], Value: tok.Value, Span: l.spanFrom(start, startLine, startCol)}, nil
	default:
		identStart := l.pos
		for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
			l.advance()
		}
		if l.pos == identStart {
			return Token{}, &LexError{Code: diagnostic.CodeUnexpectedToken, Msg: "expected identifier after %", Span: l.spanFrom(start, startLine, startCol)}
		}
		name := l.src[identStart:l.pos]
		return Token{Kind: ExternalConstant, Text: l.src[start:l.pos], Value: name, Span: l.spanFrom(start, startLine, startCol)}, nil
	}
}

// lexTemporal handles @-prefixed date/dateTime/time literals. It accepts
// partial precisions (year-only, year-month, ...) per spec.md's Date/
// DateTime value variants.
func (l *Lexer) lexTemporal(start, startLine, startCol int) (Token, error) {
	l.advance() // '@'
	if l.peekByte() == 'T' {
		l.advance()
		for l.pos < len(l.src) && isTimeBodyByte(l.peekByte()) {
			l.advance()
		}
		text := l.src[start:l.pos]
		if len(text) < 2 {
			return Token{}, &LexError{Code: diagnostic.CodeInvalidDateTime, Msg: "empty time literal", Span: l.spanFrom(start, startLine, startCol)}
		}
		return Token{Kind: Time, Text: text, Value: text, Span: l.spanFrom(start, startLine, startCol)}, nil
	}

	for l.pos < len(l.src) && isDateBodyByte(l.peekByte()) {
		l.advance()
	}
	isDateTime := false
	if l.peekByte() == 'T' {
		isDateTime = true
		l.advance()
		for l.pos < len(l.src) && isTimeBodyByte(l.peekByte()) {
			l.advance()
		}
	}
	text := l.src[start:l.pos]
	if len(text) < 2 {
		return Token{}, &LexError{Code: diagnostic.CodeInvalidDateTime, Msg: "empty date literal", Span: l.spanFrom(start, startLine, startCol)}
	}
	if isDateTime {
		return Token{Kind: DateTime, Text: text, Value: text, Span: l.spanFrom(start, startLine, startCol)}, nil
	}
	return Token{Kind: Date, Text: text, Value: text, Span: l.spanFrom(start, startLine, startCol)}, nil
}

func isDateBodyByte(b byte) bool {
	return isDigit(b) || b == '-'
}

func isTimeBodyByte(b byte) bool {
	return isDigit(b) || b == ':' || b == '.' || b == '+' || b == '-' || b == 'Z'
}

func (l *Lexer) lexPunctuation(start, startLine, startCol int) (Token, error) {
	b := l.advance()
	mk := func(k Kind) (Token, error) {
		return Token{Kind: k, Text: l.src[start:l.pos], Span: l.spanFrom(start, startLine, startCol)}, nil
	}
	switch b {
	case '.':
		return mk(Dot)
	case ',':
		return mk(Comma)
	case '(':
		return mk(LParen)
	case ')':
		return mk(RParen)
	case '[':
		return mk(LBracket)
	case ']':
		return mk(RBracket)
	case '{':
		return mk(LBrace)
	case '}':
		return mk(RBrace)
	case '|':
		return mk(Pipe)
	case '=':
		return mk(Eq)
	case '~':
		return mk(Equiv)
	case '+':
		return mk(Plus)
	case '-':
		return mk(Minus)
	case '*':
		return mk(Star)
	case '/':
		return mk(Slash)
	case '&':
		return mk(Amp)
	case '!':
		if l.peekByte() == '=' {
			l.advance()
			return mk(NotEq)
		}
		if l.peekByte() == '~' {
			l.advance()
			return mk(NotEquiv)
		}
		return Token{}, &LexError{Code: diagnostic.CodeUnexpectedToken, Msg: "expected != or !~", Span: l.spanFrom(start, startLine, startCol)}
	case '<':
		if l.peekByte() == '=' {
			l.advance()
			return mk(Lte)
		}
		return mk(Lt)
	case '>':
		if l.peekByte() == '=' {
			l.advance()
			return mk(Gte)
		}
		return mk(Gt)
	default:
		r, _ := utf8.DecodeRuneInString(string(b))
		if unicode.IsSpace(r) {
			return l.Next()
		}
		return Token{}, &LexError{Code: diagnostic.CodeUnexpectedToken, Msg: fmt.Sprintf("unexpected character %q", b), Span: l.spanFrom(start, startLine, startCol)}
	}
}

// Tokenize runs the lexer to completion, returning all tokens up to and
// including EOF, or the first lexical error encountered.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}
