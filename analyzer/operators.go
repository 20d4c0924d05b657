package analyzer

import (
	"context"

	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

var boolOps = map[string]bool{
	"and": true, "or": true, "xor": true, "implies": true,
	"=": true, "!=": true, "~": true, "!~": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"in": true, "contains": true, "is": true,
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "div": true, "mod": true}

func (a *Analyzer) walkBinaryOp(ctx context.Context, n parser.BinaryOp, s scope, res *Result) Annotation {
	left := a.walk(ctx, n.Left, s, res)
	right := a.walk(ctx, n.Right, s, res)

	a.checkCountExistsSimplification(n, res)

	switch {
	case boolOps[n.Op]:
		return exact(value.TypeSpecifier{Namespace: "System", Name: "Boolean"}, CardOneOne)
	case n.Op == "|":
		return Annotation{Types: dedupeTypeSpecifiers(append(append([]value.TypeSpecifier{}, left.Types...), right.Types...)),
			Cardinality: CardZeroMany, Confidence: minConfidence(left, right)}
	case n.Op == "&":
		return exact(value.TypeSpecifier{Namespace: "System", Name: "String"}, CardOneOne)
	case arithmeticOps[n.Op]:
		return a.arithmeticResult(n.Op, left, right, n.Span(), res)
	default:
		return unknownAnnotation()
	}
}

func minConfidence(a, b Annotation) Confidence {
	if a.Confidence < b.Confidence {
		return a.Confidence
	}
	return b.Confidence
}

// arithmeticResult checks operand types for the arithmetic operators and
// reports TypeMismatch when both operands are confidently typed and
// incompatible; widens Integer/Decimal per rule 3's coercion and always
// yields Decimal for `/` (spec.md's operator semantics summary).
func (a *Analyzer) arithmeticResult(op string, left, right Annotation, span diagnostic.Span, res *Result) Annotation {
	numeric := map[string]bool{"Integer": true, "Long": true, "Decimal": true, "Quantity": true}
	if left.Confidence == ConfidenceExact && right.Confidence == ConfidenceExact {
		lok, rok := false, false
		for _, t := range left.Types {
			if numeric[t.Name] || t.Name == "String" || t.Name == "Date" || t.Name == "Time" || t.Name == "DateTime" {
				lok = true
			}
		}
		for _, t := range right.Types {
			if numeric[t.Name] || t.Name == "String" || t.Name == "Date" || t.Name == "Time" || t.Name == "DateTime" {
				rok = true
			}
		}
		if !lok || !rok {
			a.diag(res, diagnostic.Errorf(diagnostic.CodeTypeMismatch,
				"operator %q: incompatible operand types %v and %v", op, left.Types, right.Types).At(span).Build())
			return unknownAnnotation()
		}
	}
	if op == "/" {
		return exact(value.TypeSpecifier{Namespace: "System", Name: "Decimal"}, CardZeroOne)
	}
	result := widestNumeric(left, right)
	return Annotation{Types: []value.TypeSpecifier{result}, Cardinality: CardZeroOne, Confidence: minConfidence(left, right)}
}

func widestNumeric(left, right Annotation) value.TypeSpecifier {
	rank := map[string]int{"Integer": 0, "Long": 1, "Decimal": 2, "Quantity": 3, "String": 0, "Date": 0, "Time": 0, "DateTime": 0}
	best := value.TypeSpecifier{Namespace: "System", Name: "Decimal"}
	bestRank := -1
	for _, t := range append(append([]value.TypeSpecifier{}, left.Types...), right.Types...) {
		if r, ok := rank[t.Name]; ok && r >= bestRank {
			bestRank = r
			best = t
		}
	}
	return best
}

// checkCountExistsSimplification is spec.md scenario 7: `expr.count() > 0`
// (or `0 < expr.count()`) should be written `expr.exists()`.
func (a *Analyzer) checkCountExistsSimplification(n parser.BinaryOp, res *Result) {
	if n.Op != ">" && n.Op != "<" {
		return
	}
	countSide, zeroSide := n.Left, n.Right
	if n.Op == "<" {
		countSide, zeroSide = n.Right, n.Left
	}
	if !isZeroLiteral(zeroSide) || !isCountCall(countSide) {
		return
	}
	a.diag(res, diagnostic.Hintf(diagnostic.CodeStyleHint,
		"`count() > 0` can be simplified to `exists()`").At(n.Span()).
		WithHelp("exists() short-circuits on the first match instead of counting every element").Build())
}

func isZeroLiteral(node parser.Node) bool {
	lit, ok := node.(parser.Literal)
	return ok && (lit.Kind == parser.LitNumber || lit.Kind == parser.LitLongNumber) && lit.Value == "0"
}

func isCountCall(node parser.Node) bool {
	switch n := node.(type) {
	case parser.MethodCall:
		return n.IsCall && n.Name == "count" && len(n.Args) == 0
	case parser.FunctionCall:
		return n.Name == "count" && len(n.Args) == 0
	default:
		return false
	}
}
