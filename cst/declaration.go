package cst

import "github.com/termfx/gdtk/lexis"

// ClassNode is a class declaration. The top-level class of a file is
// the CST root; inner classes nest as members. Attribute and member
// slices alias nodes that also live in the form, in order.
type ClassNode struct {
	base
	Name      *lexis.Token // inner classes only; nil at file level
	Extends   *ExtendsNode
	ClassName *ClassNameNode
	Tool      *ToolNode
	Members   []Node
}

func (*ClassNode) Kind() NodeKind { return KindClass }

// AddMember records a parsed member in declaration order.
func (c *ClassNode) AddMember(m Node) {
	c.Members = append(c.Members, m)
	switch v := m.(type) {
	case *ExtendsNode:
		if c.Extends == nil {
			c.Extends = v
		}
	case *ClassNameNode:
		if c.ClassName == nil {
			c.ClassName = v
		}
	case *ToolNode:
		if c.Tool == nil {
			c.Tool = v
		}
	}
}

// Methods returns the class's method declarations in order.
func (c *ClassNode) Methods() []*MethodNode {
	var out []*MethodNode
	for _, m := range c.Members {
		if f, ok := m.(*MethodNode); ok {
			out = append(out, f)
		}
	}
	return out
}

// Variables returns class-level variable and constant declarations.
func (c *ClassNode) Variables() []*VariableNode {
	var out []*VariableNode
	for _, m := range c.Members {
		if v, ok := m.(*VariableNode); ok {
			out = append(out, v)
		}
	}
	return out
}

// InnerClasses returns nested class declarations.
func (c *ClassNode) InnerClasses() []*ClassNode {
	var out []*ClassNode
	for _, m := range c.Members {
		if ic, ok := m.(*ClassNode); ok {
			out = append(out, ic)
		}
	}
	return out
}

// ExtendsNode is the `extends T` attribute. Target covers both the
// identifier form and the quoted resource-path form.
type ExtendsNode struct {
	base
	Target *TypeNode
}

func (*ExtendsNode) Kind() NodeKind { return KindExtends }

// ClassNameNode is the `class_name N` attribute registering the class
// in the project-global registry.
type ClassNameNode struct {
	base
	Name *lexis.Token
}

func (*ClassNameNode) Kind() NodeKind { return KindClassName }

// ToolNode is the bare `tool` / `@tool` attribute.
type ToolNode struct{ base }

func (*ToolNode) Kind() NodeKind { return KindTool }

// AnnotationNode is an `@name(...)` attribute such as @export or
// @onready, standalone or prefixed to a declaration.
type AnnotationNode struct {
	base
	Name *lexis.Token
	Args []Expression
}

func (*AnnotationNode) Kind() NodeKind { return KindAnnotation }

// SignalNode declares a signal with an optional parameter list.
type SignalNode struct {
	base
	Name   *lexis.Token
	Params *ParameterListNode
}

func (*SignalNode) Kind() NodeKind { return KindSignal }

// EnumNode declares a named or anonymous enum.
type EnumNode struct {
	base
	Name   *lexis.Token
	Values []*EnumValueNode
}

func (*EnumNode) Kind() NodeKind { return KindEnum }

// EnumValueNode is one enum member with an optional explicit value.
type EnumValueNode struct {
	base
	Name  *lexis.Token
	Value Expression
}

func (*EnumValueNode) Kind() NodeKind { return KindEnumValue }

// VariableNode declares a variable or constant, at class scope or as a
// local statement. Infer marks the `:=` form; Type is nil when neither
// a declared type nor `:=` is present.
type VariableNode struct {
	base
	Annotations []*AnnotationNode
	Const       bool
	Static      bool
	Local       bool
	Name        *lexis.Token
	Type        *TypeNode
	Infer       bool
	Value       Expression
	Accessors   []*PropertyAccessorNode
}

func (*VariableNode) Kind() NodeKind { return KindVariable }
func (*VariableNode) stmtNode()      {}

// PropertyAccessorNode is one accessor of a property variable: either
// the delegating inline form (`get = _getter`), where Target names the
// backing method, or the block form (`set(value):`) with a body.
type PropertyAccessorNode struct {
	base
	Keyword *lexis.Token // get or set
	Params  *ParameterListNode
	Target  *lexis.Token
	Body    *StatementsListNode
}

func (*PropertyAccessorNode) Kind() NodeKind { return KindPropertyAccessor }

// MethodNode declares a method. Body holds the indented statements
// list, or the inline statements of the `func f(): pass` form.
type MethodNode struct {
	base
	Annotations []*AnnotationNode
	Static      bool
	Name        *lexis.Token
	Params      *ParameterListNode
	ReturnType  *TypeNode
	Body        *StatementsListNode
}

func (*MethodNode) Kind() NodeKind { return KindMethod }

// ParameterListNode is the parenthesized parameter sequence of a
// method, signal, or lambda.
type ParameterListNode struct {
	base
	Params []*ParameterNode
}

func (*ParameterListNode) Kind() NodeKind { return KindParameterList }

// ParameterNode is one parameter with optional type and default.
type ParameterNode struct {
	base
	Name    *lexis.Token
	Type    *TypeNode
	Infer   bool
	Default Expression
}

func (*ParameterNode) Kind() NodeKind { return KindParameter }
