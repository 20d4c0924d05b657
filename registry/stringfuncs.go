package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerStringFuncs adds the String category, adapted from the
// teacher's fhirpath/functions.go entries of the same name.
func registerStringFuncs(r *Registry) {
	simple := func(name, doc string, ret value.TypeSpecifier, f func(s string) value.Collection) {
		r.Register(FuncDef{
			Signature: Signature{Name: name, Return: ret, Category: CategoryString, Pure: true, Doc: doc},
			Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
				if err := requireArity(name, args, 0, 0); err != nil {
					return nil, err
				}
				s, ok, err := singleton[value.String](focus)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, nil
				}
				return f(string(s)), nil
			},
		})
	}
	simple("upper", "Upper-cases the input string.", strType(), func(s string) value.Collection {
		return value.Collection{value.String(strings.ToUpper(s))}
	})
	simple("lower", "Lower-cases the input string.", strType(), func(s string) value.Collection {
		return value.Collection{value.String(strings.ToLower(s))}
	})
	simple("trim", "Removes leading/trailing whitespace.", strType(), func(s string) value.Collection {
		return value.Collection{value.String(strings.TrimSpace(s))}
	})
	simple("length", "Number of characters in the input string.", intType(), func(s string) value.Collection {
		return value.Collection{value.Integer(len([]rune(s)))}
	})
	simple("toChars", "The input string exploded into single-character strings.", strType(), func(s string) value.Collection {
		runes := []rune(s)
		out := make(value.Collection, len(runes))
		for i, ru := range runes {
			out[i] = value.String(string(ru))
		}
		return out
	})

	oneStringArg := func(name, doc string, f func(s, arg string) (value.Collection, error)) {
		r.Register(FuncDef{
			Signature: Signature{Name: name, Return: boolType(), Category: CategoryString, Pure: true,
				Params: []Param{{Name: "arg", Type: strType()}}, Doc: doc},
			Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
				if err := requireArity(name, args, 1, 1); err != nil {
					return nil, err
				}
				s, ok, err := singleton[value.String](focus)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, nil
				}
				argCol, err := ec.Eval(ctx, args[0], focus)
				if err != nil {
					return nil, err
				}
				if len(argCol) == 0 {
					return nil, nil
				}
				arg, ok, err := singleton[value.String](argCol)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, fmt.Errorf("%s: expected a string argument", name)
				}
				return f(string(s), string(arg))
			},
		})
	}
	oneStringArg("startsWith", "True if the input string starts with arg.", func(s, arg string) (value.Collection, error) {
		return value.Collection{value.Boolean(arg == "" || strings.HasPrefix(s, arg))}, nil
	})
	oneStringArg("endsWith", "True if the input string ends with arg.", func(s, arg string) (value.Collection, error) {
		return value.Collection{value.Boolean(arg == "" || strings.HasSuffix(s, arg))}, nil
	})
	oneStringArg("contains", "True if the input string contains arg.", func(s, arg string) (value.Collection, error) {
		return value.Collection{value.Boolean(arg == "" || strings.Contains(s, arg))}, nil
	})
	oneStringArg("matches", "True if the input string matches the arg regular expression.", func(s, arg string) (value.Collection, error) {
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, fmt.Errorf("matches: invalid regular expression: %w", err)
		}
		return value.Collection{value.Boolean(re.MatchString(s))}, nil
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "indexOf", Return: intType(), Category: CategoryString, Pure: true,
			Params: []Param{{Name: "substring", Type: strType()}},
			Doc:    "0-based index of the first occurrence of substring, or -1."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("indexOf", args, 1, 1); err != nil {
				return nil, err
			}
			s, ok, err := singleton[value.String](focus)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			argCol, err := ec.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			sub, ok, err := singleton[value.String](argCol)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			idx := strings.Index(string(s), string(sub))
			if idx < 0 {
				return value.Collection{value.Integer(-1)}, nil
			}
			return value.Collection{value.Integer(len([]rune(string(s)[:idx])))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "substring", Return: strType(), Category: CategoryString, Pure: true,
			Params: []Param{{Name: "start", Type: intType()}, {Name: "length", Type: intType(), Optional: true}},
			Doc:    "The substring starting at start, for up to length characters."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("substring", args, 1, 2); err != nil {
				return nil, err
			}
			s, ok, err := singleton[value.String](focus)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			runes := []rune(string(s))
			startCol, err := ec.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			if len(startCol) == 0 {
				return nil, nil
			}
			start, ok, err := singleton[value.Integer](startCol)
			if err != nil {
				return nil, err
			}
			if !ok || int(start) < 0 || int(start) >= len(runes) {
				return nil, nil
			}
			if len(args) == 1 {
				return value.Collection{value.String(string(runes[start:]))}, nil
			}
			lenCol, err := ec.Eval(ctx, args[1], focus)
			if err != nil {
				return nil, err
			}
			if len(lenCol) == 0 {
				return value.Collection{value.String(string(runes[start:]))}, nil
			}
			length, ok, err := singleton[value.Integer](lenCol)
			if err != nil {
				return nil, err
			}
			if !ok || length <= 0 {
				return value.Collection{value.String("")}, nil
			}
			end := int(start) + int(length)
			if end > len(runes) {
				end = len(runes)
			}
			return value.Collection{value.String(string(runes[start:end]))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "replace", Return: strType(), Category: CategoryString, Pure: true,
			Params: []Param{{Name: "pattern", Type: strType()}, {Name: "substitution", Type: strType()}},
			Doc:    "Replaces every literal occurrence of pattern with substitution."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("replace", args, 2, 2); err != nil {
				return nil, err
			}
			s, ok, err := singleton[value.String](focus)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			pat, err := evalStringArg(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			sub, err := evalStringArg(ctx, ec, focus, args[1])
			if err != nil {
				return nil, err
			}
			return value.Collection{value.String(strings.ReplaceAll(string(s), pat, sub))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "replaceMatches", Return: strType(), Category: CategoryString, Pure: true,
			Params: []Param{{Name: "regex", Type: strType()}, {Name: "substitution", Type: strType()}},
			Doc:    "Replaces every regex match with substitution (Go regexp `$1`-style group references)."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("replaceMatches", args, 2, 2); err != nil {
				return nil, err
			}
			s, ok, err := singleton[value.String](focus)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			pat, err := evalStringArg(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			sub, err := evalStringArg(ctx, ec, focus, args[1])
			if err != nil {
				return nil, err
			}
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("replaceMatches: invalid regular expression: %w", err)
			}
			return value.Collection{value.String(re.ReplaceAllString(string(s), sub))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "split", Return: value.TypeSpecifier{Namespace: "System", Name: "String", List: true}, Category: CategoryString, Pure: true,
			Params: []Param{{Name: "separator", Type: strType()}},
			Doc:    "Splits the input string by separator."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("split", args, 1, 1); err != nil {
				return nil, err
			}
			s, ok, err := singleton[value.String](focus)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			sep, err := evalStringArg(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			parts := strings.Split(string(s), sep)
			out := make(value.Collection, len(parts))
			for i, p := range parts {
				out[i] = value.String(p)
			}
			return out, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "join", Return: strType(), Category: CategoryString, Pure: true,
			Params: []Param{{Name: "separator", Type: strType(), Optional: true}},
			Doc:    "Joins the input collection of strings with separator (default empty)."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("join", args, 0, 1); err != nil {
				return nil, err
			}
			sep := ""
			if len(args) == 1 {
				s, err := evalStringArg(ctx, ec, focus, args[0])
				if err != nil {
					return nil, err
				}
				sep = s
			}
			parts := make([]string, 0, len(focus))
			for _, e := range focus {
				s, ok, err := singleton[value.String](value.Singleton(e))
				if err != nil {
					return nil, err
				}
				if ok {
					parts = append(parts, string(s))
				}
			}
			return value.Collection{value.String(strings.Join(parts, sep))}, nil
		},
	})
}

func evalStringArg(ctx context.Context, ec EvalContext, focus value.Collection, arg parser.Node) (string, error) {
	res, err := ec.Eval(ctx, arg, focus)
	if err != nil {
		return "", err
	}
	s, ok, err := singleton[value.String](res)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("expected a single String argument")
	}
	return string(s), nil
}
