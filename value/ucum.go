package value

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/iimos/ucum"
	"github.com/iimos/ucum/ucumapd"
)

// canonicalUCUMUnit reduces a unit code to UCUM's canonical form so that
// e.g. "mg" and "g" share a comparable base. Units ucum can't parse (bare
// calendar keywords like "days", or "1") pass through unchanged.
func canonicalUCUMUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "1"
	}
	expr, err := ucum.Parse(unit)
	if err != nil {
		return unit
	}
	return expr.String()
}

// convertDecimalUnit converts v from one UCUM unit to another. Units with
// incompatible dimensions return an error, which callers treat as FHIRPath
// empty.
func convertDecimalUnit(ctx context.Context, v *apd.Decimal, from, to string) (*apd.Decimal, error) {
	if from == to {
		return v, nil
	}
	result, err := ucumapd.Convert(apdContext(ctx), v, from, to)
	if err != nil {
		return nil, fmt.Errorf("incompatible units %q and %q: %w", from, to, err)
	}
	return result, nil
}

func displayQuantityUnit(unit String) string {
	return string(unit)
}
