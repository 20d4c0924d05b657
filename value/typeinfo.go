package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeInfo is the reified type token returned by `.type()` and consulted
// by `is`/`as`/`ofType`. It is itself an Element (TypeInfo values can flow
// through pipelines, e.g. `%context.type().name`).
type TypeInfo interface {
	Element
	QualifiedName() (TypeSpecifier, bool)
	BaseTypeName() (TypeSpecifier, bool)
}

// TypeSpecifier is a possibly-namespaced type name, e.g. `FHIR.Patient` or
// `System.String`.
type TypeSpecifier struct {
	defaultConversionError[TypeSpecifier]
	Namespace string
	Name      string
	List      bool
}

// ParseTypeSpecifier parses a dotted or backtick-quoted type name, as
// produced by the `as`/`is` operator grammar.
func ParseTypeSpecifier(s string) TypeSpecifier {
	s = strings.TrimPrefix(s, "List<")
	s = strings.TrimSuffix(s, ">")
	parts := strings.SplitN(s, ".", 2)
	if len(parts) == 1 {
		return TypeSpecifier{Name: strings.Trim(parts[0], "`")}
	}
	return TypeSpecifier{Namespace: strings.Trim(parts[0], "`"), Name: strings.Trim(parts[1], "`")}
}

func (t TypeSpecifier) Children(name ...string) Collection { return nil }
func (t TypeSpecifier) Equal(other Element) (bool, bool) {
	o, ok := other.(TypeSpecifier)
	return ok && t == o, true
}
func (t TypeSpecifier) Equivalent(other Element) bool {
	eq, _ := t.Equal(other)
	return eq
}
func (t TypeSpecifier) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "TypeSpecifier", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (t TypeSpecifier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }
func (t TypeSpecifier) String() string {
	s := t.Name
	if t.Namespace != "" {
		s = fmt.Sprintf("%s.%s", t.Namespace, t.Name)
	}
	if t.List {
		return fmt.Sprintf("List<%s>", s)
	}
	return s
}

// SimpleTypeInfo describes a primitive or leaf type.
type SimpleTypeInfo struct {
	defaultConversionError[SimpleTypeInfo]
	Namespace string
	Name      string
	BaseType  TypeSpecifier
}

func (i SimpleTypeInfo) QualifiedName() (TypeSpecifier, bool) {
	return TypeSpecifier{Namespace: i.Namespace, Name: i.Name}, true
}
func (i SimpleTypeInfo) BaseTypeName() (TypeSpecifier, bool) { return i.BaseType, true }
func (i SimpleTypeInfo) Children(name ...string) Collection {
	return Collection{String(i.Namespace), String(i.Name), i.BaseType}
}
func (i SimpleTypeInfo) Equal(other Element) (bool, bool) {
	o, ok := other.(SimpleTypeInfo)
	return ok && i == o, true
}
func (i SimpleTypeInfo) Equivalent(other Element) bool {
	eq, _ := i.Equal(other)
	return eq
}
func (i SimpleTypeInfo) TypeInfo() TypeInfo {
	return ClassInfo{Namespace: "System", Name: "SimpleTypeInfo", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (i SimpleTypeInfo) MarshalJSON() ([]byte, error) {
	type alias SimpleTypeInfo
	return json.Marshal(alias(i))
}
func (i SimpleTypeInfo) String() string { return i.TypeInfo().(ClassInfo).Name + "(" + i.Name + ")" }

// ClassInfoElement describes one property of a ClassInfo.
type ClassInfoElement struct {
	defaultConversionError[ClassInfoElement]
	Name       string
	Type       TypeSpecifier
	IsOneBased bool
}

func (e ClassInfoElement) Children(name ...string) Collection {
	return Collection{String(e.Name), e.Type, Boolean(e.IsOneBased)}
}
func (e ClassInfoElement) Equal(other Element) (bool, bool) {
	o, ok := other.(ClassInfoElement)
	return ok && e == o, true
}
func (e ClassInfoElement) Equivalent(other Element) bool {
	eq, _ := e.Equal(other)
	return eq
}
func (e ClassInfoElement) TypeInfo() TypeInfo {
	return ClassInfo{Namespace: "System", Name: "ClassInfoElement", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (e ClassInfoElement) MarshalJSON() ([]byte, error) {
	type alias ClassInfoElement
	return json.Marshal(alias(e))
}
func (e ClassInfoElement) String() string { return e.Name + ": " + e.Type.String() }

// ClassInfo describes a structured (model-provider-backed) type, used for
// FHIR resources and complex datatypes.
type ClassInfo struct {
	defaultConversionError[ClassInfo]
	Namespace string
	Name      string
	BaseType  TypeSpecifier
	Element   []ClassInfoElement
}

func (i ClassInfo) QualifiedName() (TypeSpecifier, bool) {
	return TypeSpecifier{Namespace: i.Namespace, Name: i.Name}, true
}
func (i ClassInfo) BaseTypeName() (TypeSpecifier, bool) { return i.BaseType, true }
func (i ClassInfo) Children(name ...string) Collection {
	children := Collection{String(i.Namespace), String(i.Name), i.BaseType}
	for _, e := range i.Element {
		children = append(children, e)
	}
	return children
}
func (i ClassInfo) Equal(other Element) (bool, bool) {
	o, ok := other.(ClassInfo)
	if !ok || i.Namespace != o.Namespace || i.Name != o.Name || i.BaseType != o.BaseType || len(i.Element) != len(o.Element) {
		return false, true
	}
	for idx, e := range i.Element {
		if e != o.Element[idx] {
			return false, true
		}
	}
	return true, true
}
func (i ClassInfo) Equivalent(other Element) bool {
	eq, _ := i.Equal(other)
	return eq
}
func (i ClassInfo) TypeInfo() TypeInfo {
	return ClassInfo{Namespace: "System", Name: "ClassInfo", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (i ClassInfo) MarshalJSON() ([]byte, error) {
	type alias ClassInfo
	return json.Marshal(alias(i))
}
func (i ClassInfo) String() string { return i.Namespace + "." + i.Name }

// ListTypeInfo describes `List<T>` collections reported by
// `get_collection_element_types` for mixed/polymorphic collections.
type ListTypeInfo struct {
	defaultConversionError[ListTypeInfo]
	ElementType TypeSpecifier
}

func (i ListTypeInfo) QualifiedName() (TypeSpecifier, bool) { return TypeSpecifier{}, false }
func (i ListTypeInfo) BaseTypeName() (TypeSpecifier, bool)  { return TypeSpecifier{}, false }
func (i ListTypeInfo) Children(name ...string) Collection   { return Collection{i.ElementType} }
func (i ListTypeInfo) Equal(other Element) (bool, bool) {
	o, ok := other.(ListTypeInfo)
	return ok && i == o, true
}
func (i ListTypeInfo) Equivalent(other Element) bool {
	eq, _ := i.Equal(other)
	return eq
}
func (i ListTypeInfo) TypeInfo() TypeInfo {
	return ClassInfo{Namespace: "System", Name: "ListTypeInfo", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (i ListTypeInfo) MarshalJSON() ([]byte, error) {
	type alias ListTypeInfo
	return json.Marshal(alias(i))
}
func (i ListTypeInfo) String() string { return "List<" + i.ElementType.String() + ">" }
