// Package model provides the abstract model-provider capability FHIRPath
// consults for type/property/subtype lookup (schema.GetType and friends),
// plus a concrete, in-memory StaticProvider covering a representative FHIR
// R4 subset. Grounded on the teacher's model.Element/model.Resource
// interfaces (model/interfaces.go) and on the Namespace/Name/BaseType shape
// its generated fhirpath.ClassInfo tables describe.
package model

//go:generate go run ../internal/generate/modelschema/cmd ../internal/generate/modelschema/r4_subset.json schema_r4.go

import (
	"context"

	"github.com/octofhir/fhirpath/value"
)

// FHIRVersion selects which release's schema a Provider describes.
type FHIRVersion string

const (
	R4  FHIRVersion = "R4"
	R4B FHIRVersion = "R4B"
	R5  FHIRVersion = "R5"
)

// Provider is the abstract capability for type/property/subtype lookup
// that the analyzer (C7) and evaluator (C8) consult. Implementations may
// perform I/O the first time a schema package needs fetching, so every
// method threads a context.
type Provider interface {
	// GetType resolves a namespaced type name to its schema.
	GetType(ctx context.Context, name string) (value.TypeInfo, bool, error)
	// GetElementType resolves a property of parent, handling choice-type
	// (`value[x]` -> `valueString`) resolution transparently.
	GetElementType(ctx context.Context, parent, property string) (value.TypeInfo, bool, error)
	// GetElementNames lists the declared properties of parent, including
	// inherited ones.
	GetElementNames(ctx context.Context, parent string) ([]string, error)
	// IsTypeCompatible reports whether subtype is subtype-or-equal to
	// supertype per FHIR's inheritance chain.
	IsTypeCompatible(ctx context.Context, subtype, supertype string) (bool, error)
	// ResourceTypeExists reports whether name is a known resource type.
	ResourceTypeExists(ctx context.Context, name string) (bool, error)
	// IsMixedCollection reports whether parent.property can hold more than
	// one concrete type at runtime (e.g. a choice-type or
	// Bundle.entry.resource).
	IsMixedCollection(ctx context.Context, parent, property string) (bool, error)
	// GetCollectionElementTypes lists the concrete types a polymorphic
	// collection property may contain.
	GetCollectionElementTypes(ctx context.Context, parent, property string) ([]value.TypeInfo, error)
	// SchemaVersion identifies the currently loaded schema generation; the
	// integration facade's expression cache is invalidated when it changes.
	SchemaVersion() string
}

// Element is any element in the FHIR model: resources, datatypes, and
// backbone elements alike.
type Element interface {
	value.Element
	MemSize() int
}

// Resource is any FHIR resource.
type Resource interface {
	Element
	ResourceType() string
	ResourceID() (string, bool)
}
