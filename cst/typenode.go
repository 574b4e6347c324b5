package cst

import (
	"strings"

	"github.com/termfx/gdtk/lexis"
)

// TypeNode covers every written type form: a bare identifier sequence
// (`int`, `Vector2`, `Outer.Inner`), the generic containers
// (`Array[T]`, `Dictionary[K, V]`) and the quoted resource-path form
// used in extends clauses.
type TypeNode struct {
	base
	Segments  []*lexis.Token // dotted identifier sequence
	KeyType   *TypeNode      // Dictionary key
	ValueType *TypeNode      // Array element / Dictionary value
	Path      *lexis.Token   // quoted resource path form
}

func (*TypeNode) Kind() NodeKind { return KindType }

// Name returns the written head name: the joined identifier sequence,
// or the raw path content for the string form.
func (t *TypeNode) Name() string {
	if t == nil {
		return ""
	}
	if t.Path != nil {
		return stringContent(t.Path)
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		parts = append(parts, seg.Literal)
	}
	return strings.Join(parts, ".")
}

// Leaf returns the last identifier of the sequence, which is the name
// membership predicates are checked against.
func (t *TypeNode) Leaf() string {
	if t == nil {
		return ""
	}
	if t.Path != nil {
		return stringContent(t.Path)
	}
	if len(t.Segments) == 0 {
		return ""
	}
	return t.Segments[len(t.Segments)-1].Literal
}

// IsStringPath reports whether the type was written as a quoted
// resource path.
func (t *TypeNode) IsStringPath() bool { return t != nil && t.Path != nil }

// IsSubType reports whether the type was written as `Outer.Inner`.
func (t *TypeNode) IsSubType() bool { return t != nil && len(t.Segments) > 1 }

// IsArray reports an Array type, generic or bare.
func (t *TypeNode) IsArray() bool { return t.Leaf() == "Array" }

// IsDictionary reports a Dictionary type, generic or bare.
func (t *TypeNode) IsDictionary() bool { return t.Leaf() == "Dictionary" }

// IsNumeric reports int or float.
func (t *TypeNode) IsNumeric() bool {
	switch t.Leaf() {
	case "int", "float":
		return true
	}
	return false
}

// IsString reports String or StringName.
func (t *TypeNode) IsString() bool {
	switch t.Leaf() {
	case "String", "StringName":
		return true
	}
	return false
}

// vectorTypes is the fixed vector-family table.
var vectorTypes = map[string]bool{
	"Vector2": true, "Vector2i": true, "Vector3": true, "Vector3i": true,
	"Vector4": true, "Vector4i": true,
}

// IsVector reports membership in the vector family.
func (t *TypeNode) IsVector() bool { return vectorTypes[t.Leaf()] }

// IsColor reports the Color type.
func (t *TypeNode) IsColor() bool { return t.Leaf() == "Color" }
