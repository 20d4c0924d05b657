package modelschema

import (
	"encoding/json"
	"fmt"
	"io"

	. "github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"
)

const valuePkg = "github.com/octofhir/fhirpath/value"

// ParseSubset decodes a schema description (see r4_subset.json) into a
// Subset for Generate.
func ParseSubset(r io.Reader) (Subset, error) {
	var s Subset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return Subset{}, fmt.Errorf("modelschema: decoding subset: %w", err)
	}
	return s, nil
}

// Generate renders the static schema tables model.StaticProvider serves,
// in the same Namespace/Name/BaseType/Element shape as the teacher's
// generated `allFHIRPathTypes` (internal/generate/fhirpath/types.go).
func Generate(s Subset) *File {
	f := NewFile("model")
	f.HeaderComment("Code generated by internal/generate/modelschema from r4_subset.json; DO NOT EDIT.")

	classes := Map(String()).Qual(valuePkg, "ClassInfo").Values(DictFunc(func(d Dict) {
		for _, t := range s.Types {
			d[Lit(t.Name)] = classInfoLiteral(t)
		}
	}))
	f.Var().Id("r4ClassInfos").Op("=").Add(classes)

	resources := Map(String()).Bool().Values(DictFunc(func(d Dict) {
		for _, t := range s.Types {
			if t.IsResource {
				d[Lit(t.Name)] = Lit(true)
			}
		}
	}))
	f.Var().Id("r4ResourceTypes").Op("=").Add(resources)

	choices := Map(String()).Index().String().Values(DictFunc(func(d Dict) {
		for k, variants := range s.ChoiceProperties {
			d[Lit(k)] = stringSliceLiteral(variants)
		}
	}))
	f.Var().Id("r4ChoiceProperties").Op("=").Add(choices)

	collections := Map(String()).Index().Qual(valuePkg, "TypeSpecifier").Values(DictFunc(func(d Dict) {
		for k, types := range s.CollectionTypes {
			d[Lit(k)] = typeSpecSliceLiteral(types)
		}
	}))
	f.Var().Id("r4CollectionElementTypes").Op("=").Add(collections)

	return f
}

func classInfoLiteral(t TypeDef) *Statement {
	return Values(Dict{
		Id("Namespace"): Lit("FHIR"),
		Id("Name"):      Lit(t.Name),
		Id("BaseType"):  typeSpecifierLiteral("FHIR", t.BaseName),
		Id("Element"):   elementsLiteral(t.Elements),
	})
}

func typeSpecifierLiteral(namespace, name string) *Statement {
	return Qual(valuePkg, "TypeSpecifier").Values(Dict{
		Id("Namespace"): Lit(namespace),
		Id("Name"):      Lit(name),
	})
}

func elementsLiteral(elements []ElementDef) *Statement {
	if len(elements) == 0 {
		return Nil()
	}
	return Index().Qual(valuePkg, "ClassInfoElement").ValuesFunc(func(g *Group) {
		for _, e := range elements {
			g.Values(Dict{
				Id("Name"): Lit(e.Name),
				Id("Type"): Qual(valuePkg, "TypeSpecifier").Values(Dict{
					Id("Namespace"): Lit(e.TypeNamespace),
					Id("Name"):      Lit(e.TypeName),
					Id("List"):      Lit(e.List),
				}),
			})
		}
	})
}

func stringSliceLiteral(values []string) *Statement {
	return Index().String().ValuesFunc(func(g *Group) {
		for _, v := range values {
			g.Lit(v)
		}
	})
}

func typeSpecSliceLiteral(types []CollectionType) *Statement {
	return Index().Qual(valuePkg, "TypeSpecifier").ValuesFunc(func(g *Group) {
		for _, t := range types {
			g.Values(Dict{Id("Namespace"): Lit(t.Namespace), Id("Name"): Lit(t.Name)})
		}
	})
}

// fieldName converts a FHIR element name to an exported Go identifier,
// matching the casing the teacher's struct-field generator produces.
func fieldName(s string) string {
	return strcase.ToCamel(s)
}
