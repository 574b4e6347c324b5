package semantics

import (
	"github.com/termfx/gdtk/cst"
)

// Confidence grades an inferred type.
type Confidence int

const (
	Unknown Confidence = iota
	Low
	Medium
	High
	Certain
)

// String returns the confidence name.
func (c Confidence) String() string {
	switch c {
	case Certain:
		return "certain"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// InferredType is the result of a type inference query.
type InferredType struct {
	TypeName   string
	Confidence Confidence
	Reason     string
}

// variant builds the Variant fallback with a reason.
func variant(conf Confidence, reason string) InferredType {
	return InferredType{TypeName: TypeVariant, Confidence: conf, Reason: reason}
}

// maxInferDepth bounds the recursive inference stack. Exhaustion
// yields Variant at Unknown confidence.
const maxInferDepth = 50

// Inferrer assigns types to expressions. Results are cached by node
// identity for the model's lifetime; the cache dies with the file's
// semantic model on any edit.
type Inferrer struct {
	model  *FileModel
	depth  int
	cache  map[cst.Node]InferredType
	active map[cst.Node]bool

	// FlowTypes, when set, overrides variable types with the flow
	// analyzer's narrowed view at the expression under inference.
	FlowTypes map[string]string

	resources ResourceTyper
}

// NewInferrer creates an inference engine over model.
func NewInferrer(model *FileModel) *Inferrer {
	return &Inferrer{
		model:  model,
		cache:  map[cst.Node]InferredType{},
		active: map[cst.Node]bool{},
	}
}

// Infer resolves the type of e. It is total: failure modes degrade to
// Variant with a reason, never an error.
func (in *Inferrer) Infer(e cst.Expression) InferredType {
	if e == nil {
		return variant(Unknown, "no expression")
	}
	if cached, ok := in.cache[e]; ok {
		return cached
	}
	if in.active[e] {
		return variant(Unknown, "cycle")
	}
	if in.depth >= maxInferDepth {
		return variant(Unknown, "depth")
	}
	in.depth++
	in.active[e] = true
	result := in.inferUncached(e)
	delete(in.active, e)
	in.depth--
	if in.FlowTypes == nil {
		// Flow-narrowed queries are positional; only the unnarrowed
		// view is cacheable.
		in.cache[e] = result
	}
	return result
}

func (in *Inferrer) inferUncached(e cst.Expression) InferredType {
	switch node := e.(type) {
	case *cst.NumberExpr:
		if node.IsFloat() {
			return InferredType{TypeName: "float", Confidence: Certain}
		}
		return InferredType{TypeName: "int", Confidence: Certain}
	case *cst.StringExpr:
		return InferredType{TypeName: "String", Confidence: Certain}
	case *cst.StringNameExpr:
		return InferredType{TypeName: "StringName", Confidence: Certain}
	case *cst.NodePathExpr:
		return InferredType{TypeName: "NodePath", Confidence: Certain}
	case *cst.KeywordExpr:
		return in.inferKeyword(node)
	case *cst.IdentifierExpr:
		return in.inferIdentifier(node)
	case *cst.BracketExpr:
		return in.Infer(node.Inner)
	case *cst.UnaryExpr:
		return in.inferUnary(node)
	case *cst.BinaryExpr:
		return in.inferBinary(node)
	case *cst.TernaryExpr:
		return in.inferTernary(node)
	case *cst.CallExpr:
		return in.inferCall(node)
	case *cst.IndexExpr:
		return in.inferIndex(node)
	case *cst.MemberExpr:
		return in.inferMember(node)
	case *cst.ArrayExpr:
		return InferredType{TypeName: "Array", Confidence: Certain}
	case *cst.DictExpr:
		return InferredType{TypeName: "Dictionary", Confidence: Certain}
	case *cst.LambdaExpr:
		return InferredType{TypeName: "Callable", Confidence: Certain}
	case *cst.GetNodeExpr:
		return in.inferGetNode(node)
	case *cst.UniqueNodeExpr:
		return in.inferUniqueNode(node)
	}
	return variant(Unknown, "unsupported expression")
}

func (in *Inferrer) inferKeyword(node *cst.KeywordExpr) InferredType {
	if node.Keyword == nil {
		return variant(Unknown, "malformed keyword")
	}
	switch node.Keyword.Literal {
	case "true", "false":
		return InferredType{TypeName: "bool", Confidence: Certain}
	case "null":
		return InferredType{TypeName: "null", Confidence: Certain}
	case "self":
		if name := in.selfTypeName(node); name != "" {
			return InferredType{TypeName: name, Confidence: Certain}
		}
		return variant(Low, "unnamed script class")
	case "super":
		if class := cst.EnclosingClass(node); class != nil {
			if base := baseName(class); base != "" {
				return InferredType{TypeName: base, Confidence: High}
			}
		}
		return variant(Low, "no base class")
	}
	return variant(Low, "keyword value")
}

// selfTypeName names the enclosing class when it has a class_name.
func (in *Inferrer) selfTypeName(node cst.Node) string {
	class := cst.EnclosingClass(node)
	if class == nil {
		class = in.model.Root
	}
	if class.ClassName != nil && class.ClassName.Name != nil {
		return class.ClassName.Name.Literal
	}
	if class.Name != nil {
		return class.Name.Literal
	}
	return ""
}

func (in *Inferrer) inferIdentifier(node *cst.IdentifierExpr) InferredType {
	if node.Name == nil {
		return variant(Unknown, "malformed identifier")
	}
	name := node.Name.Literal
	if in.FlowTypes != nil {
		if narrowed, ok := in.FlowTypes[name]; ok && narrowed != "" {
			return InferredType{TypeName: narrowed, Confidence: High, Reason: "flow narrowed"}
		}
	}
	sym, res := in.model.Resolve(node)
	switch res {
	case ResolvedLocal, ResolvedMember:
		return in.inferSymbol(sym)
	case ResolvedBase:
		class := in.model.ScopeOf(node).EnclosingClassScope()
		base := baseName(class.Owner.(*cst.ClassNode))
		if member := in.model.Provider.GetMember(base, name); member != nil {
			return memberType(member)
		}
		return variant(Low, "base member")
	case ResolvedGlobalClass:
		// A class reference used as a value is the script itself.
		return InferredType{TypeName: name, Confidence: High, Reason: "class reference"}
	case ResolvedBuiltIn:
		if t := GlobalConstantType(name); t != "" {
			return InferredType{TypeName: t, Confidence: Certain}
		}
		if in.model.Provider.IsKnownType(name) {
			return InferredType{TypeName: name, Confidence: High, Reason: "type reference"}
		}
		return variant(Low, "built-in")
	}
	return variant(Unknown, "unresolved identifier")
}

// inferSymbol types a resolved declaration: the written type when
// present, otherwise the initializer.
func (in *Inferrer) inferSymbol(sym *Symbol) InferredType {
	if sym == nil {
		return variant(Unknown, "no symbol")
	}
	if sym.Type != nil && sym.Type.Name() != "" {
		return InferredType{TypeName: sym.Type.Name(), Confidence: Certain}
	}
	switch decl := sym.Decl.(type) {
	case *cst.VariableNode:
		if decl.Value != nil {
			inner := in.Infer(decl.Value)
			if inner.Confidence > High {
				inner.Confidence = High
			}
			inner.Reason = "initializer"
			return inner
		}
	case *cst.ForStatementNode:
		return in.inferIterationElement(decl)
	case *cst.MethodNode:
		return InferredType{TypeName: "Callable", Confidence: High}
	case *cst.EnumValueNode:
		return InferredType{TypeName: "int", Confidence: Certain}
	}
	return variant(Low, "untyped declaration")
}

// inferIterationElement types a for-loop iterator from its iterable.
func (in *Inferrer) inferIterationElement(loop *cst.ForStatementNode) InferredType {
	iter := in.Infer(loop.Iterable)
	switch {
	case iter.TypeName == "Array":
		if id, ok := loop.Iterable.(*cst.IdentifierExpr); ok {
			if sym, _ := in.model.Resolve(id); sym != nil && sym.Type != nil &&
				sym.Type.IsArray() && sym.Type.ValueType != nil {
				return InferredType{TypeName: sym.Type.ValueType.Name(), Confidence: High, Reason: "typed array"}
			}
		}
		return variant(Low, "untyped array")
	case PackedElementType(iter.TypeName) != "":
		return InferredType{TypeName: PackedElementType(iter.TypeName), Confidence: High}
	case iter.TypeName == "String":
		return InferredType{TypeName: "String", Confidence: High}
	case iter.TypeName == "int":
		// range() and integer iteration yield ints.
		return InferredType{TypeName: "int", Confidence: High}
	case iter.TypeName == "Dictionary":
		return variant(Low, "dictionary keys")
	}
	if isRangeCall(loop.Iterable) {
		return InferredType{TypeName: "int", Confidence: High}
	}
	return variant(Low, "opaque iterable")
}

// isRangeCall recognizes `range(...)`.
func isRangeCall(e cst.Expression) bool {
	call, ok := e.(*cst.CallExpr)
	return ok && call.CalleeName() == "range"
}

func memberType(member *MemberInfo) InferredType {
	switch member.Kind {
	case MemberMethod:
		return InferredType{TypeName: "Callable", Confidence: High}
	case MemberSignal:
		return InferredType{TypeName: "Signal", Confidence: Certain}
	}
	if member.Type == "" {
		return variant(Low, "untyped member")
	}
	return InferredType{TypeName: member.Type, Confidence: Certain}
}

func (in *Inferrer) inferUnary(node *cst.UnaryExpr) InferredType {
	if node.Op == nil {
		return variant(Unknown, "malformed unary")
	}
	switch node.Op.Literal {
	case "not", "!":
		return InferredType{TypeName: "bool", Confidence: Certain}
	case "~":
		return InferredType{TypeName: "int", Confidence: Certain}
	case "-", "+":
		inner := in.Infer(node.Operand)
		if inner.TypeName == "int" || inner.TypeName == "float" || vectorResult(inner.TypeName) {
			return inner
		}
		return variant(Low, "negation of non-numeric")
	case "await":
		return variant(Low, "awaited value")
	}
	return variant(Unknown, "unsupported unary")
}

func vectorResult(name string) bool {
	switch name {
	case "Vector2", "Vector2i", "Vector3", "Vector3i", "Vector4", "Vector4i", "Color":
		return true
	}
	return false
}

func (in *Inferrer) inferBinary(node *cst.BinaryExpr) InferredType {
	if node.Op == nil {
		return variant(Unknown, "malformed binary")
	}
	op := node.Op.Literal
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "in", "is", "and", "or", "&&", "||":
		return InferredType{TypeName: "bool", Confidence: Certain}
	case "as":
		if id, ok := node.Right.(*cst.IdentifierExpr); ok && id.Name != nil {
			return InferredType{TypeName: id.Name.Literal, Confidence: Certain, Reason: "cast"}
		}
		return variant(Low, "dynamic cast")
	case "<<", ">>", "&", "|", "^":
		return InferredType{TypeName: "int", Confidence: High}
	}
	if node.IsAssignment() {
		return in.Infer(node.Right)
	}

	left := in.Infer(node.Left)
	right := in.Infer(node.Right)
	switch op {
	case "+":
		if left.TypeName == "String" || right.TypeName == "String" {
			return InferredType{TypeName: "String", Confidence: High}
		}
		if left.TypeName == "Array" && right.TypeName == "Array" {
			return InferredType{TypeName: "Array", Confidence: High}
		}
		return arithmeticResult(left, right)
	case "-", "*", "/":
		return arithmeticResult(left, right)
	case "%":
		if left.TypeName == "String" {
			// Format operator.
			return InferredType{TypeName: "String", Confidence: High}
		}
		return arithmeticResult(left, right)
	case "**":
		return arithmeticResult(left, right)
	}
	return variant(Unknown, "unsupported operator")
}

// arithmeticResult applies the numeric widening table.
func arithmeticResult(left, right InferredType) InferredType {
	lt, rt := left.TypeName, right.TypeName
	switch {
	case lt == "int" && rt == "int":
		return InferredType{TypeName: "int", Confidence: minConf(left, right)}
	case (lt == "int" || lt == "float") && (rt == "int" || rt == "float"):
		return InferredType{TypeName: "float", Confidence: minConf(left, right)}
	case vectorResult(lt) && (rt == "int" || rt == "float" || rt == lt):
		return InferredType{TypeName: lt, Confidence: minConf(left, right)}
	case vectorResult(rt) && (lt == "int" || lt == "float"):
		return InferredType{TypeName: rt, Confidence: minConf(left, right)}
	}
	return variant(Low, "mixed arithmetic")
}

func minConf(a, b InferredType) Confidence {
	if a.Confidence < b.Confidence {
		return a.Confidence
	}
	return b.Confidence
}

func (in *Inferrer) inferTernary(node *cst.TernaryExpr) InferredType {
	left := in.Infer(node.TrueExpr)
	right := in.Infer(node.FalseExpr)
	if left.TypeName == right.TypeName {
		return InferredType{TypeName: left.TypeName, Confidence: minConf(left, right)}
	}
	if sup := in.commonSupertype(left.TypeName, right.TypeName); sup != "" {
		return InferredType{TypeName: sup, Confidence: Medium, Reason: "branch supertype"}
	}
	return variant(Low, "diverging branches")
}

// commonSupertype returns the nearest shared ancestor of two type
// names, or "" when they only meet at Variant.
func (in *Inferrer) commonSupertype(a, b string) string {
	if a == "null" {
		return b
	}
	if b == "null" {
		return a
	}
	if (a == "int" && b == "float") || (a == "float" && b == "int") {
		return "float"
	}
	if in.model.Provider == nil {
		return ""
	}
	ancestors := map[string]bool{}
	for name := a; name != "" && !ancestors[name]; name = in.model.Provider.GetBaseType(name) {
		ancestors[name] = true
	}
	seen := map[string]bool{}
	for name := b; name != "" && !seen[name]; name = in.model.Provider.GetBaseType(name) {
		if ancestors[name] {
			return name
		}
		seen[name] = true
	}
	return ""
}

func (in *Inferrer) inferCall(node *cst.CallExpr) InferredType {
	// Constructor call: T.new() or T(...) on a value type.
	if mem, ok := node.Callee.(*cst.MemberExpr); ok && mem.Member != nil && mem.Member.Literal == "new" {
		if id, ok := mem.Target.(*cst.IdentifierExpr); ok && id.Name != nil {
			return InferredType{TypeName: id.Name.Literal, Confidence: Certain, Reason: "constructor"}
		}
	}
	if id, ok := node.Callee.(*cst.IdentifierExpr); ok && id.Name != nil {
		name := id.Name.Literal
		if in.model.Provider != nil && in.model.Provider.IsKnownType(name) {
			return InferredType{TypeName: name, Confidence: Certain, Reason: "constructor"}
		}
	}
	// Resource loads with a statically known path.
	if loaded := in.inferResourceLoad(node); loaded != nil {
		return *loaded
	}
	// Plain and member calls resolve to the callee's return type.
	sig := in.resolveCallee(node)
	if sig == nil {
		return variant(Low, "unresolved callee")
	}
	if sig.ReturnType == "" {
		return variant(Low, "untyped return")
	}
	if sig.ReturnType == "void" {
		return InferredType{TypeName: "void", Confidence: Certain}
	}
	return InferredType{TypeName: sig.ReturnType, Confidence: High, Reason: "declared return type"}
}

// ResourceTyper maps a statically known resource path to a type name.
// The project loader supplies the implementation; a nil typer falls
// back to extension-based typing.
type ResourceTyper interface {
	TypeOfResource(path string) string
}

// SetResourceTyper installs the optional collaborator for
// preload/load inference.
func (in *Inferrer) SetResourceTyper(t ResourceTyper) { in.resources = t }

// inferResourceLoad recognizes preload/load/ResourceLoader.load with a
// statically extractable path argument.
func (in *Inferrer) inferResourceLoad(node *cst.CallExpr) *InferredType {
	name := node.CalleeName()
	isLoad := name == "preload" || name == "load"
	if mem, ok := node.Callee.(*cst.MemberExpr); ok && !isLoad {
		if id, ok := mem.Target.(*cst.IdentifierExpr); ok && id.Name != nil &&
			id.Name.Literal == "ResourceLoader" && name == "load" {
			isLoad = true
		}
	}
	if !isLoad || len(node.Args) == 0 {
		return nil
	}
	path, ok := in.StaticString(node.Args[0])
	if !ok {
		res := variant(Low, "dynamic resource path")
		return &res
	}
	if in.resources != nil {
		if t := in.resources.TypeOfResource(path); t != "" {
			return &InferredType{TypeName: t, Confidence: High, Reason: "resource load"}
		}
	}
	if len(path) > 3 && path[len(path)-3:] == ".gd" {
		res := InferredType{TypeName: "GDScript", Confidence: High, Reason: "script load"}
		return &res
	}
	if len(path) > 5 && path[len(path)-5:] == ".tscn" {
		res := InferredType{TypeName: "PackedScene", Confidence: High, Reason: "scene load"}
		return &res
	}
	res := InferredType{TypeName: "Resource", Confidence: Medium, Reason: "resource load"}
	return &res
}

// resolveCallee finds the signature of the called method.
func (in *Inferrer) resolveCallee(node *cst.CallExpr) *MemberInfo {
	switch callee := node.Callee.(type) {
	case *cst.IdentifierExpr:
		if callee.Name == nil {
			return nil
		}
		name := callee.Name.Literal
		if sym, res := in.model.Resolve(callee); sym != nil && sym.Kind == SymbolMethod {
			info := methodInfo(sym.Decl.(*cst.MethodNode))
			return info
		} else if res == ResolvedBase {
			class := in.model.ScopeOf(callee).EnclosingClassScope()
			base := baseName(class.Owner.(*cst.ClassNode))
			return in.model.Provider.GetMember(base, name)
		}
		if in.model.Provider != nil {
			return in.model.Provider.GetGlobalFunction(name)
		}
	case *cst.MemberExpr:
		if callee.Member == nil {
			return nil
		}
		receiver := in.Infer(callee.Target)
		if receiver.TypeName == TypeVariant || in.model.Provider == nil {
			return nil
		}
		return in.model.Provider.GetMember(receiver.TypeName, callee.Member.Literal)
	}
	return nil
}

func (in *Inferrer) inferIndex(node *cst.IndexExpr) InferredType {
	target := in.Infer(node.Target)
	name := target.TypeName

	// Generic element types come from the declared type node when the
	// target is a typed symbol.
	if id, ok := node.Target.(*cst.IdentifierExpr); ok {
		if sym, _ := in.model.Resolve(id); sym != nil && sym.Type != nil {
			if sym.Type.IsArray() && sym.Type.ValueType != nil {
				return InferredType{TypeName: sym.Type.ValueType.Name(), Confidence: High, Reason: "typed element"}
			}
			if sym.Type.IsDictionary() && sym.Type.ValueType != nil {
				return InferredType{TypeName: sym.Type.ValueType.Name(), Confidence: High, Reason: "typed value"}
			}
		}
	}
	if elem := PackedElementType(name); elem != "" {
		return InferredType{TypeName: elem, Confidence: Certain}
	}
	switch name {
	case "String", "StringName":
		return InferredType{TypeName: "String", Confidence: Certain}
	case "Vector2", "Vector3", "Vector4":
		return InferredType{TypeName: "float", Confidence: Certain}
	case "Vector2i", "Vector3i", "Vector4i":
		return InferredType{TypeName: "int", Confidence: Certain}
	}
	return variant(Low, "opaque indexer")
}

func (in *Inferrer) inferMember(node *cst.MemberExpr) InferredType {
	if node.Member == nil {
		return variant(Unknown, "malformed member access")
	}
	receiver := in.Infer(node.Target)
	if receiver.TypeName == TypeVariant {
		return variant(Low, "variant receiver")
	}
	if in.model.Provider == nil {
		return variant(Low, "no provider")
	}
	member := in.model.Provider.GetMember(receiver.TypeName, node.Member.Literal)
	if member == nil {
		return variant(Low, "unknown member")
	}
	result := memberType(member)
	if receiver.Confidence < result.Confidence {
		result.Confidence = receiver.Confidence
	}
	return result
}

func (in *Inferrer) inferGetNode(node *cst.GetNodeExpr) InferredType {
	if in.model.Scenes != nil {
		if t := in.model.Scenes.NodeType(in.model.Path, node.Path); t != "" {
			return InferredType{TypeName: t, Confidence: Certain, Reason: "scene node"}
		}
	}
	return InferredType{TypeName: "Node", Confidence: Low, Reason: "unresolved scene node"}
}

func (in *Inferrer) inferUniqueNode(node *cst.UniqueNodeExpr) InferredType {
	if in.model.Scenes != nil {
		if t := in.model.Scenes.NodeType(in.model.Path, "%"+node.Name); t != "" {
			return InferredType{TypeName: t, Confidence: Certain, Reason: "scene node"}
		}
	}
	return InferredType{TypeName: "Node", Confidence: Low, Reason: "unresolved scene node"}
}
