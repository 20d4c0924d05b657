// Package diagnostic implements the source-aware diagnostics engine shared
// by the tokenizer, parser, analyzer and evaluator.
package diagnostic

import "fmt"

// Severity classifies how serious a diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	return string(s)
}

// Span is an offset+length source range, plus the line/column of its start
// for human-readable rendering. Offsets are byte offsets into the source
// text that produced the diagnostic.
type Span struct {
	Offset int
	Length int
	Line   int
	Column int
}

// End returns the exclusive end offset of the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// IsZero reports whether the span carries no location information.
func (s Span) IsZero() bool {
	return s.Offset == 0 && s.Length == 0 && s.Line == 0 && s.Column == 0
}

// Suggestion is a proposed fix: replace the text at Span with Replacement.
type Suggestion struct {
	Span        Span
	Replacement string
	Message     string
}

// RelatedInfo points at a secondary location relevant to a diagnostic, such
// as the declaration a "redefined variable" error conflicts with.
type RelatedInfo struct {
	Span    Span
	Message string
}

// Diagnostic is a single source-anchored issue produced by any pipeline
// stage. Messages never embed the span in text form; renderers add it.
type Diagnostic struct {
	Severity    Severity
	Code        string
	Message     string
	Span        Span
	Help        string
	Suggestions []Suggestion
	Related     []RelatedInfo
	SourceID    string
}

// Error implements the error interface so a Diagnostic can be returned
// wherever Go code expects an error.
func (d Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return d.Message
}

// IsError reports whether the diagnostic's severity blocks further
// processing (Error severity).
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Builder provides a fluent API for constructing a Diagnostic, grounded on
// the issue-builder pattern (severity + code set up front, details appended
// afterward, finished with Build()).
type Builder struct {
	d Diagnostic
}

// New starts a Builder at the given severity and stable code.
func New(severity Severity, code string) *Builder {
	return &Builder{d: Diagnostic{Severity: severity, Code: code}}
}

// Errorf starts an Error-severity Builder with a formatted message.
func Errorf(code, format string, args ...any) *Builder {
	return New(SeverityError, code).Message(fmt.Sprintf(format, args...))
}

// Warningf starts a Warning-severity Builder with a formatted message.
func Warningf(code, format string, args ...any) *Builder {
	return New(SeverityWarning, code).Message(fmt.Sprintf(format, args...))
}

// Infof starts an Info-severity Builder with a formatted message.
func Infof(code, format string, args ...any) *Builder {
	return New(SeverityInfo, code).Message(fmt.Sprintf(format, args...))
}

// Hintf starts a Hint-severity Builder with a formatted message.
func Hintf(code, format string, args ...any) *Builder {
	return New(SeverityHint, code).Message(fmt.Sprintf(format, args...))
}

// Message sets the diagnostic message.
func (b *Builder) Message(msg string) *Builder {
	b.d.Message = msg
	return b
}

// At sets the span the diagnostic is anchored to.
func (b *Builder) At(span Span) *Builder {
	b.d.Span = span
	return b
}

// WithHelp attaches a help string.
func (b *Builder) WithHelp(help string) *Builder {
	b.d.Help = help
	return b
}

// Suggest appends a suggested fix.
func (b *Builder) Suggest(span Span, replacement, message string) *Builder {
	b.d.Suggestions = append(b.d.Suggestions, Suggestion{Span: span, Replacement: replacement, Message: message})
	return b
}

// Relate appends a related location.
func (b *Builder) Relate(span Span, message string) *Builder {
	b.d.Related = append(b.d.Related, RelatedInfo{Span: span, Message: message})
	return b
}

// Source sets the source-registry id the span is relative to.
func (b *Builder) Source(id string) *Builder {
	b.d.SourceID = id
	return b
}

// Build returns the constructed Diagnostic.
func (b *Builder) Build() Diagnostic {
	return b.d
}
