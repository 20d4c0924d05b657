package model

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/octofhir/fhirpath/value"
)

// Node is the Resource variant of the value model: an opaque, schema-typed
// FHIR element backed by decoded JSON, navigated through a Provider rather
// than generated Go structs. Primitive JSON scalars (string/bool/number)
// are unwrapped directly into the matching value.Element on navigation
// instead of staying boxed in a Node.
//
// Grounded on the teacher's model.Element/model.Resource split
// (model/interfaces.go) generalized from per-release generated structs to
// a single runtime-typed representation driven by Provider.
type Node struct {
	value.DefaultConversions[Node]
	typeName string
	provider Provider
	fields   map[string]any
}

// NewResourceNode decodes a FHIR JSON resource document into a Node, using
// resourceType to seed the schema lookup.
func NewResourceNode(ctx context.Context, provider Provider, data []byte) (Node, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Node{}, fmt.Errorf("model: decoding resource: %w", err)
	}
	rt, _ := raw["resourceType"].(string)
	if rt == "" {
		return Node{}, fmt.Errorf("model: resource JSON missing resourceType")
	}
	return Node{typeName: rt, provider: provider, fields: raw}, nil
}

// newChildNode builds the Node (or primitive Element) for parent's
// property value, consulting the provider for the declared or
// choice-resolved element type.
func newChildNode(ctx context.Context, provider Provider, parentType, property string, raw any) value.Element {
	elType, hasType, _ := provider.GetElementType(ctx, parentType, property)
	switch v := raw.(type) {
	case map[string]any:
		childType := "BackboneElement"
		if hasType {
			if n, ok := elType.QualifiedName(); ok {
				childType = n.Name
			}
		}
		// A contained/polymorphic resource (Bundle.entry.resource,
		// DomainResource.contained, ...) carries its own resourceType that
		// overrides the schema's abstract declared type (Resource).
		if rt, ok := v["resourceType"].(string); ok && rt != "" {
			childType = rt
		}
		return Node{typeName: childType, provider: provider, fields: v}
	case []any:
		col := make(value.Collection, 0, len(v))
		for _, item := range v {
			col = append(col, newChildNode(ctx, provider, parentType, property, item))
		}
		return col
	default:
		return scalarElement(raw, elType, hasType)
	}
}

func scalarElement(raw any, elType value.TypeInfo, hasType bool) value.Element {
	typeName := ""
	if hasType {
		if n, ok := elType.QualifiedName(); ok {
			typeName = n.Name
		}
	}
	switch v := raw.(type) {
	case string:
		switch typeName {
		case "Date":
			if d, err := value.ParseDate(v); err == nil {
				return d
			}
		case "DateTime", "instant":
			if dt, err := value.ParseDateTime(v); err == nil {
				return dt
			}
		case "Time":
			if t, err := value.ParseTime(v); err == nil {
				return t
			}
		}
		return value.String(v)
	case bool:
		return value.Boolean(v)
	case float64:
		if typeName == "Integer" || typeName == "positiveInt" || typeName == "unsignedInt" {
			return value.Integer(int32(v))
		}
		d, _, _ := value.String(fmt.Sprintf("%v", v)).ToDecimal(true)
		return d
	case nil:
		return nil
	default:
		return value.String(fmt.Sprintf("%v", v))
	}
}

// Children implements value.Element navigation. With no name, it returns
// every populated property in schema-declaration order; with a name, the
// single (possibly list-valued) property, resolving choice-type suffixes
// via the provider.
func (n Node) Children(name ...string) value.Collection {
	if n.fields == nil {
		return nil
	}
	ctx := context.Background()
	if len(name) == 0 {
		names, _ := n.provider.GetElementNames(ctx, n.typeName)
		var out value.Collection
		for _, nm := range names {
			if key, raw, ok := resolvePropertyKey(ctx, n.provider, n.typeName, nm, n.fields); ok {
				out = append(out, flattenChild(newChildNode(ctx, n.provider, n.typeName, key, raw)))
			}
		}
		return out
	}
	key, raw, ok := resolvePropertyKey(ctx, n.provider, n.typeName, name[0], n.fields)
	if !ok {
		return nil
	}
	return flattenChild(newChildNode(ctx, n.provider, n.typeName, key, raw))
}

// resolvePropertyKey finds the raw JSON key backing property on parentType:
// the property name itself, or — for a choice element (`value[x]`) whose
// JSON key is suffixed with its concrete type (`valueQuantity`) — the
// matching suffixed key, consulting the provider for the set of concrete
// variants. The returned key is what must be passed to newChildNode so
// GetElementType resolves the concrete variant type rather than the
// declared choice base type.
func resolvePropertyKey(ctx context.Context, provider Provider, parentType, property string, fields map[string]any) (key string, raw any, ok bool) {
	if raw, ok := fields[property]; ok {
		return property, raw, true
	}
	variants, err := provider.GetCollectionElementTypes(ctx, parentType, property)
	if err != nil {
		return "", nil, false
	}
	for _, ti := range variants {
		qn, ok := ti.QualifiedName()
		if !ok {
			continue
		}
		suffixed := property + qn.Name
		if raw, ok := fields[suffixed]; ok {
			return suffixed, raw, true
		}
	}
	return "", nil, false
}

func flattenChild(e value.Element) value.Collection {
	if e == nil {
		return nil
	}
	if col, ok := e.(value.Collection); ok {
		return col
	}
	return value.Collection{e}
}

func (n Node) Equal(other value.Element) (eq bool, ok bool) {
	o, isNode := other.(Node)
	if !isNode {
		return false, true
	}
	if n.typeName != o.typeName {
		return false, true
	}
	nj, err1 := json.Marshal(n.fields)
	oj, err2 := json.Marshal(o.fields)
	if err1 != nil || err2 != nil {
		return false, true
	}
	return string(nj) == string(oj), true
}

func (n Node) Equivalent(other value.Element) bool {
	eq, _ := n.Equal(other)
	return eq
}

func (n Node) TypeInfo() value.TypeInfo {
	if n.provider != nil {
		if ti, ok, err := n.provider.GetType(context.Background(), n.typeName); err == nil && ok {
			return ti
		}
	}
	return value.SimpleTypeInfo{Namespace: "FHIR", Name: n.typeName, BaseType: value.TypeSpecifier{Namespace: "FHIR", Name: "Base"}}
}

func (n Node) MarshalJSON() ([]byte, error) { return json.Marshal(n.fields) }

func (n Node) String() string {
	b, err := json.Marshal(n.fields)
	if err != nil {
		return n.typeName
	}
	return string(b)
}

// MemSize approximates the node's retained memory footprint: the struct's
// own size plus a recursive walk of its decoded fields. Grounded on the
// teacher's generated `MemSize` accounting shape (struct size plus
// recursive child sizes), adapted for a single runtime-typed node instead
// of per-field generated code.
func (n Node) MemSize() int {
	s := int(reflect.TypeOf(n).Size())
	for k, v := range n.fields {
		s += len(k)
		s += memSizeOf(v)
	}
	return s
}

func memSizeOf(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return len(x)
	case map[string]any:
		s := 0
		for k, vv := range x {
			s += len(k) + memSizeOf(vv)
		}
		return s
	case []any:
		s := 0
		for _, vv := range x {
			s += memSizeOf(vv)
		}
		return s
	default:
		return int(reflect.TypeOf(v).Size())
	}
}

func (n Node) ResourceType() string { return n.typeName }

func (n Node) ResourceID() (string, bool) {
	id, ok := n.fields["id"].(string)
	return id, ok
}
