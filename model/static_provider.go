package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath/value"
)

// StaticProvider is the default, in-memory, synchronous Provider
// implementation: no I/O suspension is ever triggered, since its schema
// tables are baked in at build time rather than fetched from a package
// registry. R4B and R5 currently alias the R4 tables for the types this
// subset covers; a release-specific divergence would need its own table.
type StaticProvider struct {
	version FHIRVersion
	classes map[string]value.ClassInfo
	resources map[string]bool
	choices map[string][]string
	collectionTypes map[string][]value.TypeSpecifier
}

// NewStaticProvider returns the built-in Provider for the given release.
func NewStaticProvider(version FHIRVersion) *StaticProvider {
	return &StaticProvider{
		version:         version,
		classes:         r4ClassInfos,
		resources:       r4ResourceTypes,
		choices:         r4ChoiceProperties,
		collectionTypes: r4CollectionElementTypes,
	}
}

func (p *StaticProvider) SchemaVersion() string {
	return string(p.version) + "-static-subset-1"
}

func (p *StaticProvider) GetType(ctx context.Context, name string) (value.TypeInfo, bool, error) {
	name = strings.TrimPrefix(name, "FHIR.")
	ci, ok := p.classes[name]
	if !ok {
		return nil, false, nil
	}
	return ci, true, nil
}

func (p *StaticProvider) GetElementType(ctx context.Context, parent, property string) (value.TypeInfo, bool, error) {
	parent = strings.TrimPrefix(parent, "FHIR.")
	if ci, ok, err := p.directElementType(parent, property); err != nil || ok {
		return ci, ok, err
	}
	if typeName, ok := p.resolveChoiceSuffix(parent, property); ok {
		return value.SimpleTypeInfo{
			Namespace: typeNamespace(typeName),
			Name:      typeName,
			BaseType:  value.TypeSpecifier{Namespace: "System", Name: "Any"},
		}, true, nil
	}
	return nil, false, nil
}

func (p *StaticProvider) directElementType(parent, property string) (value.TypeInfo, bool, error) {
	seen := map[string]bool{}
	for cur := parent; cur != "" && !seen[cur]; {
		seen[cur] = true
		ci, ok := p.classes[cur]
		if !ok {
			return nil, false, nil
		}
		for _, el := range ci.Element {
			if el.Name == property {
				return value.SimpleTypeInfo{
					Namespace: el.Type.Namespace,
					Name:      el.Type.Name,
					BaseType:  value.TypeSpecifier{Namespace: "System", Name: "Any"},
				}, true, nil
			}
		}
		cur = ci.BaseType.Name
	}
	return nil, false, nil
}

// resolveChoiceSuffix matches property against the registered choice
// elements of parent, e.g. "valueQuantity" against "Observation.value" ->
// ["Quantity", ...], returning the matched concrete type name.
func (p *StaticProvider) resolveChoiceSuffix(parent, property string) (string, bool) {
	variants, ok := p.choices[parent+".value"]
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(property, "value") || property == "value" {
		return "", false
	}
	suffix := property[len("value"):]
	for _, v := range variants {
		if strings.EqualFold(v, suffix) {
			return v, true
		}
	}
	return "", false
}

func (p *StaticProvider) GetElementNames(ctx context.Context, parent string) ([]string, error) {
	parent = strings.TrimPrefix(parent, "FHIR.")
	var names []string
	seen := map[string]bool{}
	for cur, ok := parent, true; ok; {
		ci, found := p.classes[cur]
		if !found {
			break
		}
		for _, el := range ci.Element {
			if !seen[el.Name] {
				seen[el.Name] = true
				names = append(names, el.Name)
			}
		}
		cur, ok = ci.BaseType.Name, ci.BaseType.Name != ""
	}
	return names, nil
}

func (p *StaticProvider) IsTypeCompatible(ctx context.Context, subtype, supertype string) (bool, error) {
	subtype = strings.TrimPrefix(subtype, "FHIR.")
	supertype = strings.TrimPrefix(supertype, "FHIR.")
	if subtype == supertype {
		return true, nil
	}
	seen := map[string]bool{}
	for cur := subtype; cur != "" && !seen[cur]; {
		seen[cur] = true
		if cur == supertype {
			return true, nil
		}
		ci, ok := p.classes[cur]
		if !ok {
			return false, nil
		}
		cur = ci.BaseType.Name
	}
	return false, nil
}

func (p *StaticProvider) ResourceTypeExists(ctx context.Context, name string) (bool, error) {
	return p.resources[strings.TrimPrefix(name, "FHIR.")], nil
}

func (p *StaticProvider) IsMixedCollection(ctx context.Context, parent, property string) (bool, error) {
	parent = strings.TrimPrefix(parent, "FHIR.")
	if _, ok := p.collectionTypes[parent+"."+property]; ok {
		return true, nil
	}
	if _, ok := p.choices[parent+"."+strings.TrimSuffix(property, "[x]")]; ok {
		return true, nil
	}
	return false, nil
}

func (p *StaticProvider) GetCollectionElementTypes(ctx context.Context, parent, property string) ([]value.TypeInfo, error) {
	parent = strings.TrimPrefix(parent, "FHIR.")
	if specs, ok := p.collectionTypes[parent+"."+property]; ok {
		out := make([]value.TypeInfo, len(specs))
		for i, s := range specs {
			out[i] = value.SimpleTypeInfo{Namespace: s.Namespace, Name: s.Name, BaseType: value.TypeSpecifier{Namespace: "System", Name: "Any"}}
		}
		return out, nil
	}
	if variants, ok := p.choices[parent+"."+property]; ok {
		out := make([]value.TypeInfo, len(variants))
		for i, v := range variants {
			out[i] = value.SimpleTypeInfo{Namespace: typeNamespace(v), Name: v, BaseType: value.TypeSpecifier{Namespace: "System", Name: "Any"}}
		}
		return out, nil
	}
	return nil, fmt.Errorf("model: %s.%s is not a polymorphic property", parent, property)
}

// typeNamespace guesses FHIR vs. System namespace for a choice variant's
// bare type name: the FHIRPath System type names listed below (String,
// Boolean, Integer, Decimal, Date, DateTime, Time, Quantity) map to System;
// every other name maps to FHIR.
func typeNamespace(name string) string {
	switch name {
	case "String", "Boolean", "Integer", "Decimal", "Date", "DateTime", "Time", "Quantity":
		return "System"
	default:
		return "FHIR"
	}
}
