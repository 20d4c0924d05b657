package diagnostic

// Stable diagnostic codes. Lexical/syntactic codes occupy FP0001..FP0099,
// type/property codes occupy FP0100..FP0199 (except CodePropertyNotFound,
// which keeps FP0055), evaluation/runtime codes
// occupy FP0200..FP0299. Codes are never renumbered once published.
const (
	// Lexical
	CodeUnexpectedToken  = "FP0001"
	CodeUnclosedString   = "FP0002"
	CodeInvalidNumber    = "FP0003"
	CodeInvalidDateTime  = "FP0004"
	CodeInvalidEscape    = "FP0005"
	CodeExpectedToken    = "FP0010"
	CodeUnknownOperator  = "FP0011"
	CodeUnknownFunction  = "FP0012"

	// Type / property
	CodePropertyNotFound     = "FP0055"
	CodeTypeMismatch         = "FP0100"
	CodeInvalidArity         = "FP0101"
	CodeInvalidArgumentTypes = "FP0102"
	CodeUnresolvedReference  = "FP0103"
	CodeStyleHint            = "FP0153"
	CodeInfo                 = "FP0154"

	// Evaluation / runtime
	CodeEvaluationError   = "FP0200"
	CodeDivisionByZero    = "FP0201"
	CodeInvalidCast       = "FP0202"
	CodeRecursionExceeded = "FP0203"
	CodeModelProviderIO   = "FP0210"
)
