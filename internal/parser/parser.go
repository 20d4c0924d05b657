package parser

import (
	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/lexer"
)

// Mode selects between strict parsing (stop at the first error) and
// analysis parsing (recover and keep going, for editor tooling).
type Mode int

const (
	// Strict stops at the first diagnostic and returns it as an error.
	Strict Mode = iota
	// Analysis recovers from errors, accumulating diagnostics and
	// returning a best-effort AST.
	Analysis
)

// Parser turns a token stream into an AST using precedence climbing.
// Precedence levels (low to high), per the FHIRPath grammar: implies(1),
// or/xor(1), and(2), in/contains(3), equality(4), comparison(5), union|(6),
// additive(7), multiplicative/div/mod(8), is/as(9), unary(10),
// postfix invocation/index(11). Associativity is left throughout except
// implies (right) and unary (right).
type Parser struct {
	toks []lexer.Token
	pos  int
	mode Mode
	diag []diagnostic.Diagnostic
}

// Parse tokenizes and parses src in Strict mode, returning the first
// diagnostic encountered as an error.
func Parse(src string) (Node, error) {
	toks, lexErr := lexer.Tokenize(src)
	if lexErr != nil {
		if le, ok := lexErr.(*lexer.LexError); ok {
			return nil, diagnostic.Errorf(le.Code, "%s", le.Msg).At(le.Span).Build()
		}
		return nil, lexErr
	}
	p := &Parser{toks: toks, mode: Strict}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.EOF) {
		tok := p.cur()
		return nil, diagnostic.Errorf(diagnostic.CodeUnexpectedToken, "unexpected %s after expression", tok.Kind).At(tok.Span).Build()
	}
	return expr, nil
}

// ParseAnalysis tokenizes and parses src in Analysis mode: it never
// returns an error, instead returning the best-effort AST (possibly nil)
// plus every diagnostic collected along the way.
func ParseAnalysis(src string) (Node, []diagnostic.Diagnostic) {
	toks, lexErr := lexer.Tokenize(src)
	p := &Parser{toks: toks, mode: Analysis}
	if lexErr != nil {
		if le, ok := lexErr.(*lexer.LexError); ok {
			p.addDiag(diagnostic.Errorf(le.Code, "%s", le.Msg).At(le.Span).Build())
		}
	}
	if len(toks) == 0 {
		return nil, p.diag
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		if d, ok := err.(diagErr); ok {
			p.addDiag(d.Diagnostic)
		}
		return expr, p.diag
	}
	if !p.at(lexer.EOF) {
		tok := p.cur()
		p.addDiag(diagnostic.Errorf(diagnostic.CodeUnexpectedToken, "unexpected %s after expression", tok.Kind).At(tok.Span).Build())
	}
	return expr, p.diag
}

// diagErr adapts a diagnostic.Diagnostic to the error interface so it can
// be threaded through normal Go error returns in Strict mode.
type diagErr struct{ diagnostic.Diagnostic }

func (e diagErr) Error() string { return e.Diagnostic.Error() }

func (p *Parser) addDiag(d diagnostic.Diagnostic) {
	p.diag = append(p.diag, d)
}

func (p *Parser) fail(d diagnostic.Diagnostic) error {
	if p.mode == Analysis {
		p.addDiag(d)
	}
	return diagErr{d}
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k lexer.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.at(k) {
		return p.advance(), nil
	}
	tok := p.cur()
	d := diagnostic.Errorf(diagnostic.CodeExpectedToken, "expected %s, found %s", k, tok.Kind).At(tok.Span).Build()
	return tok, p.fail(d)
}

// binding power table for infix/postfix operators.
type opInfo struct {
	bp       int
	rightAssoc bool
}

func infixOp(tok lexer.Token) (string, opInfo, bool) {
	switch tok.Kind {
	case lexer.KwImplies:
		return "implies", opInfo{1, true}, true
	case lexer.KwOr:
		return "or", opInfo{1, false}, true
	case lexer.KwXor:
		return "xor", opInfo{1, false}, true
	case lexer.KwAnd:
		return "and", opInfo{2, false}, true
	case lexer.KwIn:
		return "in", opInfo{3, false}, true
	case lexer.KwContains:
		return "contains", opInfo{3, false}, true
	case lexer.Eq:
		return "=", opInfo{4, false}, true
	case lexer.NotEq:
		return "!=", opInfo{4, false}, true
	case lexer.Equiv:
		return "~", opInfo{4, false}, true
	case lexer.NotEquiv:
		return "!~", opInfo{4, false}, true
	case lexer.Lt:
		return "<", opInfo{5, false}, true
	case lexer.Lte:
		return "<=", opInfo{5, false}, true
	case lexer.Gt:
		return ">", opInfo{5, false}, true
	case lexer.Gte:
		return ">=", opInfo{5, false}, true
	case lexer.Pipe:
		return "|", opInfo{6, false}, true
	case lexer.Plus:
		return "+", opInfo{7, false}, true
	case lexer.Minus:
		return "-", opInfo{7, false}, true
	case lexer.Amp:
		return "&", opInfo{7, false}, true
	case lexer.Star:
		return "*", opInfo{8, false}, true
	case lexer.Slash:
		return "/", opInfo{8, false}, true
	case lexer.KwDiv:
		return "div", opInfo{8, false}, true
	case lexer.KwMod:
		return "mod", opInfo{8, false}, true
	case lexer.KwIs:
		return "is", opInfo{9, false}, true
	case lexer.KwAs:
		return "as", opInfo{9, false}, true
	default:
		return "", opInfo{}, false
	}
}

// parseExpression implements precedence climbing: minBp is the minimum
// binding power an infix operator must have to be consumed at this level.
func (p *Parser) parseExpression(minBp int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		op, info, ok := infixOp(tok)
		if !ok || info.bp < minBp {
			break
		}
		p.advance()

		if op == "is" || op == "as" {
			ts, err := p.parseTypeSpecifier()
			if err != nil {
				return left, err
			}
			span := diagnostic.Span{
				Offset: left.Span().Offset,
				Length: ts.Span.End() - left.Span().Offset,
				Line:   left.Span().Line,
				Column: left.Span().Column,
			}
			if op == "is" {
				left = TypeCheck{base{span}, left, ts}
			} else {
				left = TypeCast{base{span}, left, ts}
			}
			continue
		}

		nextMinBp := info.bp + 1
		if info.rightAssoc {
			nextMinBp = info.bp
		}
		right, err := p.parseExpression(nextMinBp)
		if err != nil {
			return left, err
		}
		span := diagnostic.Span{
			Offset: left.Span().Offset,
			Length: right.Span().End() - left.Span().Offset,
			Line:   left.Span().Line,
			Column: left.Span().Column,
		}
		left = BinaryOp{base{span}, op, left, right}
	}

	return left, nil
}

// parseUnary handles prefix + / - at precedence 10 (right-associative),
// falling through to postfix parsing for everything else.
func (p *Parser) parseUnary() (Node, error) {
	tok := p.cur()
	if tok.Kind == lexer.Plus || tok.Kind == lexer.Minus {
		p.advance()
		operand, err := p.parseExpression(10)
		if err != nil {
			return nil, err
		}
		op := "+"
		if tok.Kind == lexer.Minus {
			op = "-"
		}
		span := diagnostic.Span{
			Offset: tok.Span.Offset,
			Length: operand.Span().End() - tok.Span.Offset,
			Line:   tok.Span.Line,
			Column: tok.Span.Column,
		}
		return UnaryOp{base{span}, op, operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a term followed by any number of `.name(...)`,
// `.name`, or `[index]` suffixes (precedence 11).
func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur().Kind {
		case lexer.Dot:
			p.advance()
			node, err = p.parseInvocation(node)
			if err != nil {
				return node, err
			}
		case lexer.LBracket:
			open := p.advance()
			idx, err := p.parseExpression(0)
			if err != nil {
				return node, err
			}
			closeTok, err := p.expect(lexer.RBracket)
			if err != nil {
				return node, err
			}
			_ = open
			span := diagnostic.Span{
				Offset: node.Span().Offset,
				Length: closeTok.Span.End() - node.Span().Offset,
				Line:   node.Span().Line,
				Column: node.Span().Column,
			}
			node = Indexer{base{span}, node, idx}
		default:
			return node, nil
		}
	}
}

// parseInvocation parses the member-access or method-call suffix after a
// `.`, attaching it to target.
func (p *Parser) parseInvocation(target Node) (Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Identifier, lexer.DelimitedIdentifier:
		name := tok.Value
		if tok.Value == "" {
			name = tok.Text
		}
		p.advance()
		if p.at(lexer.LParen) {
			args, endSpan, err := p.parseArgList()
			if err != nil {
				return target, err
			}
			span := diagnostic.Span{
				Offset: target.Span().Offset,
				Length: endSpan.End() - target.Span().Offset,
				Line:   target.Span().Line,
				Column: target.Span().Column,
			}
			return MethodCall{base{span}, target, name, args, true}, nil
		}
		span := diagnostic.Span{
			Offset: target.Span().Offset,
			Length: tok.Span.End() - target.Span().Offset,
			Line:   target.Span().Line,
			Column: target.Span().Column,
		}
		return MethodCall{base{span}, target, name, nil, false}, nil
	case lexer.This:
		p.advance()
		span := spanTo(target, tok.Span)
		return specialAsMethod(target, span, SpecialThis), nil
	case lexer.Index:
		p.advance()
		span := spanTo(target, tok.Span)
		return specialAsMethod(target, span, SpecialIndex), nil
	case lexer.Total:
		p.advance()
		span := spanTo(target, tok.Span)
		return specialAsMethod(target, span, SpecialTotal), nil
	default:
		d := diagnostic.Errorf(diagnostic.CodeExpectedToken, "expected identifier or function call after '.', found %s", tok.Kind).At(tok.Span).Build()
		return target, p.fail(d)
	}
}

func spanTo(target Node, end diagnostic.Span) diagnostic.Span {
	return diagnostic.Span{
		Offset: target.Span().Offset,
		Length: end.End() - target.Span().Offset,
		Line:   target.Span().Line,
		Column: target.Span().Column,
	}
}

// specialAsMethod wraps $this/$index/$total appearing after a `.` as a
// MethodCall-shaped node so the evaluator has one less case to special
// case; FHIRPath grammar permits `.( $this | $index | $total )`.
func specialAsMethod(target Node, span diagnostic.Span, kind SpecialKind) Node {
	name := map[SpecialKind]string{SpecialThis: "$this", SpecialIndex: "$index", SpecialTotal: "$total"}[kind]
	return MethodCall{base{span}, target, name, nil, false}
}

// parseArgList parses a parenthesized, comma-separated argument list and
// returns the span of the closing paren.
func (p *Parser) parseArgList() ([]Node, diagnostic.Span, error) {
	open, err := p.expect(lexer.LParen)
	if err != nil {
		return nil, open.Span, err
	}
	var args []Node
	if !p.at(lexer.RParen) {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return args, open.Span, err
			}
			args = append(args, arg)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	closeTok, err := p.expect(lexer.RParen)
	if err != nil {
		return args, closeTok.Span, err
	}
	return args, closeTok.Span, nil
}

// parseTypeSpecifier parses a possibly-namespaced type name after `is`/`as`.
func (p *Parser) parseTypeSpecifier() (TypeSpecifier, error) {
	first, err := p.expect(lexer.Identifier)
	if err != nil {
		return TypeSpecifier{}, err
	}
	names := []string{first.Text}
	span := first.Span
	for p.at(lexer.Dot) {
		p.advance()
		next, err := p.expect(lexer.Identifier)
		if err != nil {
			return TypeSpecifier{}, err
		}
		names = append(names, next.Text)
		span = diagnostic.Span{Offset: span.Offset, Length: next.Span.End() - span.Offset, Line: span.Line, Column: span.Column}
	}
	if len(names) == 1 {
		return TypeSpecifier{Name: names[0], Span: span}, nil
	}
	ns := ""
	for i, n := range names[:len(names)-1] {
		if i > 0 {
			ns += "."
		}
		ns += n
	}
	return TypeSpecifier{Namespace: ns, Name: names[len(names)-1], Span: span}, nil
}

// parseTerm parses a single primary term: literal, identifier, function
// call, variable, special invocation, parenthesized expression, or a
// bracketed collection literal.
func (p *Parser) parseTerm() (Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Number:
		p.advance()
		return p.maybeQuantity(tok, LitNumber)
	case lexer.LongNumber:
		p.advance()
		return p.maybeQuantity(tok, LitLongNumber)
	case lexer.String:
		p.advance()
		return Literal{base{tok.Span}, LitString, tok.Text, tok.Value}, nil
	case lexer.Date:
		p.advance()
		return Literal{base{tok.Span}, LitDate, tok.Text, tok.Value}, nil
	case lexer.DateTime:
		p.advance()
		return Literal{base{tok.Span}, LitDateTime, tok.Text, tok.Value}, nil
	case lexer.Time:
		p.advance()
		return Literal{base{tok.Span}, LitTime, tok.Text, tok.Value}, nil
	case lexer.KwTrue, lexer.KwFalse:
		p.advance()
		return Literal{base{tok.Span}, LitBoolean, tok.Text, tok.Text}, nil
	case lexer.ExternalConstant:
		p.advance()
		return Variable{base{tok.Span}, tok.Value}, nil
	case lexer.This:
		p.advance()
		return SpecialInvocation{base{tok.Span}, SpecialThis}, nil
	case lexer.Index:
		p.advance()
		return SpecialInvocation{base{tok.Span}, SpecialIndex}, nil
	case lexer.Total:
		p.advance()
		return SpecialInvocation{base{tok.Span}, SpecialTotal}, nil
	case lexer.LParen:
		open := p.advance()
		inner, err := p.parseExpression(0)
		if err != nil {
			return inner, err
		}
		closeTok, err := p.expect(lexer.RParen)
		if err != nil {
			return inner, err
		}
		span := diagnostic.Span{Offset: open.Span.Offset, Length: closeTok.Span.End() - open.Span.Offset, Line: open.Span.Line, Column: open.Span.Column}
		return Parens{base{span}, inner}, nil
	case lexer.LBrace:
		open := p.advance()
		if p.at(lexer.RBrace) {
			closeTok := p.advance()
			span := diagnostic.Span{Offset: open.Span.Offset, Length: closeTok.Span.End() - open.Span.Offset, Line: open.Span.Line, Column: open.Span.Column}
			return Literal{base{span}, LitEmpty, "{}", ""}, nil
		}
		var elems []Node
		for {
			el, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		closeTok, err := p.expect(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		span := diagnostic.Span{Offset: open.Span.Offset, Length: closeTok.Span.End() - open.Span.Offset, Line: open.Span.Line, Column: open.Span.Column}
		return Tuple{base{span}, elems}, nil
	case lexer.Identifier, lexer.DelimitedIdentifier:
		p.advance()
		name := tok.Value
		if name == "" {
			name = tok.Text
		}
		if p.at(lexer.LParen) {
			args, endSpan, err := p.parseArgList()
			span := diagnostic.Span{Offset: tok.Span.Offset, Length: endSpan.End() - tok.Span.Offset, Line: tok.Span.Line, Column: tok.Span.Column}
			if err != nil {
				return FunctionCall{base{span}, name, args}, err
			}
			return FunctionCall{base{span}, name, args}, nil
		}
		return Identifier{base{tok.Span}, name, tok.Kind == lexer.DelimitedIdentifier}, nil
	default:
		d := diagnostic.Errorf(diagnostic.CodeUnexpectedToken, "unexpected %s", tok.Kind).At(tok.Span).Build()
		return nil, p.fail(d)
	}
}

// calendarUnitWords are the bare (unquoted) duration keywords the
// quantity-literal grammar production accepts after a number, e.g. `4
// days`. They are not reserved words anywhere else, so this set is only
// consulted here, immediately after a number literal.
var calendarUnitWords = map[string]bool{
	"year": true, "years": true,
	"month": true, "months": true,
	"week": true, "weeks": true,
	"day": true, "days": true,
	"hour": true, "hours": true,
	"minute": true, "minutes": true,
	"second": true, "seconds": true,
	"millisecond": true, "milliseconds": true,
}

// maybeQuantity checks whether numTok is immediately followed by a
// quantity unit (a quoted UCUM string, or a bare calendar-duration
// keyword) and, if so, folds the pair into a single LitQuantity literal.
// Otherwise numTok stands alone as kind.
func (p *Parser) maybeQuantity(numTok lexer.Token, kind LiteralKind) (Node, error) {
	unitTok := p.cur()
	var unitText string
	switch {
	case unitTok.Kind == lexer.String:
		unitText = "'" + unitTok.Value + "'"
	case unitTok.Kind == lexer.Identifier && calendarUnitWords[unitTok.Text]:
		unitText = unitTok.Text
	default:
		return Literal{base{numTok.Span}, kind, numTok.Text, numTok.Value}, nil
	}
	p.advance()
	span := diagnostic.Span{
		Offset: numTok.Span.Offset,
		Length: unitTok.Span.End() - numTok.Span.Offset,
		Line:   numTok.Span.Line,
		Column: numTok.Span.Column,
	}
	text := numTok.Text + " " + unitTok.Text
	val := numTok.Value + " " + unitText
	return Literal{base{span}, LitQuantity, text, val}, nil
}
