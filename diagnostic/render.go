package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report collects diagnostics produced across a single parse/analyze/
// evaluate pipeline run, grounded on the pack's DiagnosticReport shape
// (summary counts plus formatters), adapted to FHIRPath's severities.
type Report struct {
	Diagnostics []Diagnostic
	Summary     Summary
}

// Summary provides quick counts per severity.
type Summary struct {
	Errors   int
	Warnings int
	Infos    int
	Hints    int
}

// NewReport returns an empty Report.
func NewReport() *Report {
	return &Report{}
}

// Add appends a diagnostic and updates the summary counters.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	switch d.Severity {
	case SeverityError:
		r.Summary.Errors++
	case SeverityWarning:
		r.Summary.Warnings++
	case SeverityInfo:
		r.Summary.Infos++
	case SeverityHint:
		r.Summary.Hints++
	}
}

// HasErrors reports whether any Error-severity diagnostic was collected.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// jsonDiagnostic is the stable wire shape for FormatJSON, grounded on
// opentofu's jsonentities diagnostic (a start/end range rather than a raw
// offset+length pair, since that is what editor tooling consumes).
type jsonDiagnostic struct {
	Severity string           `json:"severity"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Help     string           `json:"help,omitempty"`
	Range    *jsonRange       `json:"range,omitempty"`
	Related  []jsonRelated    `json:"related,omitempty"`
	Fixes    []jsonSuggestion `json:"fixes,omitempty"`
}

type jsonPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

type jsonRange struct {
	Start jsonPos `json:"start"`
	End   jsonPos `json:"end"`
}

type jsonRelated struct {
	Message string     `json:"message"`
	Range   *jsonRange `json:"range,omitempty"`
}

type jsonSuggestion struct {
	Message     string     `json:"message"`
	Replacement string     `json:"replacement"`
	Range       *jsonRange `json:"range,omitempty"`
}

func toRange(s Span) *jsonRange {
	if s.IsZero() {
		return nil
	}
	return &jsonRange{
		Start: jsonPos{Line: s.Line, Column: s.Column, Offset: s.Offset},
		End:   jsonPos{Line: s.Line, Column: s.Column + s.Length, Offset: s.End()},
	}
}

// FormatJSON renders the report as an indented JSON array of diagnostics.
func (r *Report) FormatJSON() (string, error) {
	out := make([]jsonDiagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		jd := jsonDiagnostic{
			Severity: string(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Help:     d.Help,
			Range:    toRange(d.Span),
		}
		for _, rel := range d.Related {
			jd.Related = append(jd.Related, jsonRelated{Message: rel.Message, Range: toRange(rel.Span)})
		}
		for _, s := range d.Suggestions {
			jd.Fixes = append(jd.Fixes, jsonSuggestion{Message: s.Message, Replacement: s.Replacement, Range: toRange(s.Span)})
		}
		out = append(out, jd)
	}
	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// FormatRaw renders each diagnostic as a single "severity[code]: message
// (line:col)" line, with no code frame.
func (r *Report) FormatRaw() string {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "%s[%s]: %s", d.Severity, d.Code, d.Message)
		if !d.Span.IsZero() {
			fmt.Fprintf(&b, " (%d:%d)", d.Span.Line, d.Span.Column)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatPretty renders an ANSI code-frame report with a caret under the
// offending span, given the source text the diagnostics were produced from.
func (r *Report) FormatPretty(source string) string {
	var b strings.Builder
	for i, d := range r.Diagnostics {
		if i > 0 {
			b.WriteByte('\n')
		}
		writePretty(&b, d, source)
	}
	return b.String()
}

func writePretty(b *strings.Builder, d Diagnostic, source string) {
	sev := strings.ToUpper(string(d.Severity))
	fmt.Fprintf(b, "%s[%s]: %s\n", sev, d.Code, d.Message)
	if d.Span.IsZero() {
		return
	}
	text := line(source, d.Span.Line)
	fmt.Fprintf(b, "  --> %d:%d\n", d.Span.Line, d.Span.Column)
	if text == "" {
		return
	}
	lineNoStr := fmt.Sprintf("%d", d.Span.Line)
	gutter := strings.Repeat(" ", len(lineNoStr))
	fmt.Fprintf(b, "%s |\n", gutter)
	fmt.Fprintf(b, "%s | %s\n", lineNoStr, text)
	caretLen := d.Span.Length
	if caretLen < 1 {
		caretLen = 1
	}
	col := d.Span.Column - 1
	if col < 0 {
		col = 0
	}
	fmt.Fprintf(b, "%s | %s%s\n", gutter, strings.Repeat(" ", col), strings.Repeat("^", caretLen))
	if d.Help != "" {
		fmt.Fprintf(b, "%s = help: %s\n", gutter, d.Help)
	}
}
