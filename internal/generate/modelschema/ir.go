// Package modelschema is the build-time generator that turns a small JSON
// description of a FHIR schema subset into the static Go tables model.
// StaticProvider serves at runtime (model/schema_r4.go). Grounded on the
// teacher's internal/generate/fhirpath (generateTypes/generateType reading
// ir.ResourceOrType) and internal/generate/ir/parse.go (the IR these
// generators consume), scaled down from "parse a full StructureDefinition
// bundle" to "parse a hand-authored subset description", since this repo's
// schema table covers a representative slice rather than the whole of
// FHIR R4.
package modelschema

// TypeDef mirrors one entry of the generated `r4ClassInfos` table: a FHIR
// resource or datatype, its base type, and its direct (non-inherited)
// elements.
type TypeDef struct {
	Name       string       `json:"name"`
	BaseName   string       `json:"baseName"`
	IsResource bool         `json:"isResource"`
	Elements   []ElementDef `json:"elements"`
}

// ElementDef mirrors one value.ClassInfoElement entry.
type ElementDef struct {
	Name          string `json:"name"`
	TypeNamespace string `json:"typeNamespace"`
	TypeName      string `json:"typeName"`
	List          bool   `json:"list"`
}

// Subset is the root of the JSON schema description
// (internal/generate/modelschema/r4_subset.json) this generator consumes.
type Subset struct {
	Types            []TypeDef                  `json:"types"`
	ChoiceProperties map[string][]string         `json:"choiceProperties"`
	CollectionTypes  map[string][]CollectionType `json:"collectionTypes"`
}

// CollectionType names one concrete type a polymorphic collection
// property (e.g. BundleEntry.resource) may hold at runtime.
type CollectionType struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}
