package semantics

// TypeVariant is the top type: it matches any value.
const TypeVariant = "Variant"

// valueTypes are types that null cannot be assigned to.
var valueTypes = map[string]bool{
	"int": true, "float": true, "bool": true,
	"Vector2": true, "Vector2i": true, "Vector3": true, "Vector3i": true,
	"Vector4": true, "Vector4i": true, "Color": true, "Rect2": true,
	"Rect2i": true, "Transform2D": true, "Transform3D": true,
	"Basis": true, "Quaternion": true, "Plane": true, "AABB": true,
}

// packedElementTypes maps packed array types to their fixed element
// type.
var packedElementTypes = map[string]string{
	"PackedByteArray":    "int",
	"PackedInt32Array":   "int",
	"PackedInt64Array":   "int",
	"PackedFloat32Array": "float",
	"PackedFloat64Array": "float",
	"PackedStringArray":  "String",
	"PackedVector2Array": "Vector2",
	"PackedVector3Array": "Vector3",
	"PackedColorArray":   "Color",
}

// engineBases records the built-in inheritance chain.
var engineBases = map[string]string{
	"RefCounted":        "Object",
	"Resource":          "RefCounted",
	"PackedScene":       "Resource",
	"Texture2D":         "Resource",
	"AudioStream":       "Resource",
	"Script":            "Resource",
	"GDScript":          "Script",
	"Node":              "Object",
	"CanvasItem":        "Node",
	"Node2D":            "CanvasItem",
	"Control":           "CanvasItem",
	"Node3D":            "Node",
	"Sprite2D":          "Node2D",
	"Camera2D":          "Node2D",
	"CollisionObject2D": "Node2D",
	"PhysicsBody2D":     "CollisionObject2D",
	"Area2D":            "CollisionObject2D",
	"StaticBody2D":      "PhysicsBody2D",
	"RigidBody2D":       "PhysicsBody2D",
	"CharacterBody2D":   "PhysicsBody2D",
	"Label":             "Control",
	"Button":            "BaseButton",
	"BaseButton":        "Control",
	"Range":             "Control",
	"ProgressBar":       "Range",
	"Timer":             "Node",
	"AnimationPlayer":   "Node",
	"AudioStreamPlayer": "Node",
	"HTTPRequest":       "Node",
	"EditorPlugin":      "Node",
	"MainLoop":          "Object",
	"SceneTree":         "MainLoop",
	"Tween":             "RefCounted",
}

// leafEngineTypes are engine types with no scripted base worth
// modeling: primitives, math values and containers.
var leafEngineTypes = []string{
	"Variant", "Object", "bool", "int", "float", "String", "StringName",
	"NodePath", "RID", "Callable", "Signal", "Array", "Dictionary",
	"Vector2", "Vector2i", "Vector3", "Vector3i", "Vector4", "Vector4i",
	"Color", "Rect2", "Rect2i", "Transform2D", "Transform3D", "Basis",
	"Quaternion", "Plane", "AABB",
	"PackedByteArray", "PackedInt32Array", "PackedInt64Array",
	"PackedFloat32Array", "PackedFloat64Array", "PackedStringArray",
	"PackedVector2Array", "PackedVector3Array", "PackedColorArray",
}

// method is a table shorthand for building MemberInfo records.
func method(name, ret string, params ...ParameterInfo) *MemberInfo {
	return &MemberInfo{Name: name, Kind: MemberMethod, ReturnType: ret, Parameters: params}
}

func property(name, typ string) *MemberInfo {
	return &MemberInfo{Name: name, Kind: MemberProperty, Type: typ}
}

func param(name, typ string) ParameterInfo {
	return ParameterInfo{Name: name, Type: typ}
}

func optParam(name, typ string) ParameterInfo {
	return ParameterInfo{Name: name, Type: typ, HasDefault: true}
}

// builtinMembers is the default signature table for the core value and
// container types plus the node basics the inferencer leans on.
var builtinMembers = map[string][]*MemberInfo{
	"String": {
		method("length", "int"),
		method("substr", "String", param("from", "int"), optParam("len", "int")),
		method("split", "PackedStringArray", param("delimiter", "String"), optParam("allow_empty", "bool")),
		method("begins_with", "bool", param("text", "String")),
		method("ends_with", "bool", param("text", "String")),
		method("contains", "bool", param("what", "String")),
		method("find", "int", param("what", "String"), optParam("from", "int")),
		method("replace", "String", param("what", "String"), param("forwhat", "String")),
		method("strip_edges", "String", optParam("left", "bool"), optParam("right", "bool")),
		method("to_upper", "String"),
		method("to_lower", "String"),
		method("to_int", "int"),
		method("to_float", "float"),
		method("is_empty", "bool"),
		method("format", "String", param("values", "Variant"), optParam("placeholder", "String")),
	},
	"StringName": {
		method("length", "int"),
		method("is_empty", "bool"),
	},
	"Array": {
		method("size", "int"),
		method("is_empty", "bool"),
		method("append", "void", param("value", "Variant")),
		method("push_back", "void", param("value", "Variant")),
		method("push_front", "void", param("value", "Variant")),
		method("pop_back", "Variant"),
		method("pop_front", "Variant"),
		method("front", "Variant"),
		method("back", "Variant"),
		method("has", "bool", param("value", "Variant")),
		method("find", "int", param("what", "Variant"), optParam("from", "int")),
		method("clear", "void"),
		method("duplicate", "Array", optParam("deep", "bool")),
		method("sort", "void"),
		method("map", "Array", param("method", "Callable")),
		method("filter", "Array", param("method", "Callable")),
	},
	"Dictionary": {
		method("size", "int"),
		method("is_empty", "bool"),
		method("has", "bool", param("key", "Variant")),
		method("keys", "Array"),
		method("values", "Array"),
		method("get", "Variant", param("key", "Variant"), optParam("default", "Variant")),
		method("erase", "bool", param("key", "Variant")),
		method("clear", "void"),
		method("duplicate", "Dictionary", optParam("deep", "bool")),
		method("merge", "void", param("dictionary", "Dictionary"), optParam("overwrite", "bool")),
	},
	"Vector2": {
		property("x", "float"),
		property("y", "float"),
		method("length", "float"),
		method("normalized", "Vector2"),
		method("distance_to", "float", param("to", "Vector2")),
		method("dot", "float", param("with", "Vector2")),
		method("lerp", "Vector2", param("to", "Vector2"), param("weight", "float")),
	},
	"Vector3": {
		property("x", "float"),
		property("y", "float"),
		property("z", "float"),
		method("length", "float"),
		method("normalized", "Vector3"),
	},
	"Color": {
		property("r", "float"),
		property("g", "float"),
		property("b", "float"),
		property("a", "float"),
	},
	"Callable": {
		method("call", "Variant"),
		method("bind", "Callable"),
		method("is_valid", "bool"),
	},
	"Signal": {
		method("emit", "void"),
		method("connect", "int", param("callable", "Callable")),
		method("is_connected", "bool", param("callable", "Callable")),
	},
	"Object": {
		method("get", "Variant", param("property", "StringName")),
		method("set", "void", param("property", "StringName"), param("value", "Variant")),
		method("has_method", "bool", param("method", "StringName")),
		method("call", "Variant", param("method", "StringName")),
		method("emit_signal", "int", param("signal", "StringName")),
		method("connect", "int", param("signal", "StringName"), param("callable", "Callable")),
		method("free", "void"),
		method("duplicate", "Object", optParam("flags", "int")),
		method("new", "Object"),
	},
	"Node": {
		property("name", "StringName"),
		property("owner", "Node"),
		method("get_node", "Node", param("path", "NodePath")),
		method("get_node_or_null", "Node", param("path", "NodePath")),
		method("has_node", "bool", param("path", "NodePath")),
		method("get_parent", "Node"),
		method("get_children", "Array"),
		method("add_child", "void", param("node", "Node"), optParam("force_readable_name", "bool")),
		method("remove_child", "void", param("node", "Node")),
		method("queue_free", "void"),
		method("is_inside_tree", "bool"),
		method("get_tree", "SceneTree"),
	},
	"Node2D": {
		property("position", "Vector2"),
		property("global_position", "Vector2"),
		property("rotation", "float"),
		property("scale", "Vector2"),
		method("move_local_x", "void", param("delta", "float"), optParam("scaled", "bool")),
	},
	"CanvasItem": {
		property("visible", "bool"),
		property("modulate", "Color"),
		method("show", "void"),
		method("hide", "void"),
	},
	"Control": {
		property("size", "Vector2"),
		method("grab_focus", "void"),
	},
	"Label": {
		property("text", "String"),
	},
	"Timer": {
		property("wait_time", "float"),
		method("start", "void", optParam("time_sec", "float")),
		method("stop", "void"),
	},
	"Resource": {
		property("resource_path", "String"),
	},
	"PackedScene": {
		method("instantiate", "Node", optParam("edit_state", "int")),
		method("can_instantiate", "bool"),
	},
	"SceneTree": {
		method("create_timer", "SceneTreeTimer", param("time_sec", "float")),
		method("quit", "void", optParam("exit_code", "int")),
	},
}

// globalFunctions is the built-in global function table.
var globalFunctions = map[string]*MemberInfo{
	"print":       method("print", "void"),
	"prints":      method("prints", "void"),
	"printerr":    method("printerr", "void"),
	"push_error":  method("push_error", "void"),
	"push_warning": method("push_warning", "void"),
	"range":       method("range", "Array"),
	"len":         method("len", "int", param("value", "Variant")),
	"abs":         method("abs", "Variant", param("x", "Variant")),
	"absf":        method("absf", "float", param("x", "float")),
	"absi":        method("absi", "int", param("x", "int")),
	"min":         method("min", "Variant"),
	"max":         method("max", "Variant"),
	"clamp":       method("clamp", "Variant", param("value", "Variant"), param("min", "Variant"), param("max", "Variant")),
	"clampf":      method("clampf", "float", param("value", "float"), param("min", "float"), param("max", "float")),
	"clampi":      method("clampi", "int", param("value", "int"), param("min", "int"), param("max", "int")),
	"lerp":        method("lerp", "Variant", param("from", "Variant"), param("to", "Variant"), param("weight", "float")),
	"lerpf":       method("lerpf", "float", param("from", "float"), param("to", "float"), param("weight", "float")),
	"str":         method("str", "String"),
	"int":         method("int", "int", param("value", "Variant")),
	"float":       method("float", "float", param("value", "Variant")),
	"bool":        method("bool", "bool", param("value", "Variant")),
	"randi":       method("randi", "int"),
	"randf":       method("randf", "float"),
	"randf_range": method("randf_range", "float", param("from", "float"), param("to", "float")),
	"randi_range": method("randi_range", "int", param("from", "int"), param("to", "int")),
	"randomize":   method("randomize", "void"),
	"preload":     method("preload", "Resource", param("path", "String")),
	"load":        method("load", "Resource", param("path", "String")),
	"is_instance_valid": method("is_instance_valid", "bool", param("instance", "Object")),
	"typeof":      method("typeof", "int", param("variable", "Variant")),
	"sqrt":        method("sqrt", "float", param("x", "float")),
	"floor":       method("floor", "Variant", param("x", "Variant")),
	"ceil":        method("ceil", "Variant", param("x", "Variant")),
	"round":       method("round", "Variant", param("x", "Variant")),
	"sin":         method("sin", "float", param("angle_rad", "float")),
	"cos":         method("cos", "float", param("angle_rad", "float")),
	"pow":         method("pow", "float", param("base", "float"), param("exp", "float")),
	"assert":      method("assert", "void", param("condition", "bool"), optParam("message", "String")),
}

// globalConstants are engine enum constants visible everywhere.
var globalConstants = map[string]string{
	"PI": "float", "TAU": "float", "INF": "float", "NAN": "float",
	"OK": "int", "FAILED": "int",
	"TYPE_NIL": "int", "TYPE_BOOL": "int", "TYPE_INT": "int",
	"TYPE_FLOAT": "int", "TYPE_STRING": "int", "TYPE_ARRAY": "int",
	"TYPE_DICTIONARY": "int", "TYPE_OBJECT": "int",
}

// BuiltinProvider serves the engine's type universe: class hierarchy,
// core member signatures, global functions and constants.
type BuiltinProvider struct {
	types map[string]*TypeInfo
}

// NewBuiltinProvider assembles the provider from the static tables.
func NewBuiltinProvider() *BuiltinProvider {
	p := &BuiltinProvider{types: map[string]*TypeInfo{}}
	add := func(name, base string) {
		info := &TypeInfo{Name: name, BaseType: base, IsBuiltIn: true, Members: map[string]*MemberInfo{}}
		for _, m := range builtinMembers[name] {
			info.Members[m.Name] = m
		}
		p.types[name] = info
	}
	for _, name := range leafEngineTypes {
		add(name, "")
	}
	for name, base := range engineBases {
		add(name, base)
	}
	// Referenced bases without their own entry resolve as plain
	// objects.
	for _, base := range engineBases {
		if _, ok := p.types[base]; !ok {
			add(base, "Object")
		}
	}
	return p
}

func (p *BuiltinProvider) IsKnownType(name string) bool {
	_, ok := p.types[name]
	return ok
}

func (p *BuiltinProvider) GetTypeInfo(name string) *TypeInfo {
	return p.types[name]
}

func (p *BuiltinProvider) GetMember(typeName, memberName string) *MemberInfo {
	info := p.types[typeName]
	if info == nil {
		return nil
	}
	return info.Members[memberName]
}

func (p *BuiltinProvider) GetBaseType(name string) string {
	if info := p.types[name]; info != nil {
		return info.BaseType
	}
	return ""
}

func (p *BuiltinProvider) IsAssignableTo(source, target string) bool {
	if source == target {
		return true
	}
	visited := map[string]bool{}
	for name := source; name != "" && !visited[name]; {
		if name == target {
			return true
		}
		visited[name] = true
		name = p.GetBaseType(name)
	}
	return false
}

func (p *BuiltinProvider) GetGlobalFunction(name string) *MemberInfo {
	return globalFunctions[name]
}

func (p *BuiltinProvider) GetGlobalClass(name string) *TypeInfo {
	return nil
}

// IsBuiltIn reports engine types, global functions and global
// constants.
func (p *BuiltinProvider) IsBuiltIn(identifier string) bool {
	if p.IsKnownType(identifier) {
		return true
	}
	if _, ok := globalFunctions[identifier]; ok {
		return true
	}
	_, ok := globalConstants[identifier]
	return ok
}

func (p *BuiltinProvider) AllTypes() map[string]struct{} {
	out := make(map[string]struct{}, len(p.types))
	for name := range p.types {
		out[name] = struct{}{}
	}
	return out
}

// GlobalConstantType returns the type of a global engine constant, or
// "".
func GlobalConstantType(name string) string {
	return globalConstants[name]
}

// PackedElementType returns the fixed element type of a packed array
// type, or "".
func PackedElementType(name string) string {
	return packedElementTypes[name]
}
