package semantics

import (
	"sync"

	"github.com/termfx/gdtk/cst"
)

// ProjectClass records one class_name registration.
type ProjectClass struct {
	Name string
	Path string
	Root *cst.ClassNode
}

// ClassRegistry is the project-global class_name table. It implements
// RuntimeTypeProvider so the composite chain can resolve project
// classes exactly like engine types. Registration happens between
// analysis batches; reads during a batch are lock-protected but
// uncontended.
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]*ProjectClass
	byPath  map[string]*ProjectClass
}

// NewClassRegistry creates an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		classes: map[string]*ProjectClass{},
		byPath:  map[string]*ProjectClass{},
	}
}

// Register adds or replaces the class declared by the file at path.
// Files without a class_name are tracked by path only, so extends
// clauses with resource paths still resolve.
func (r *ClassRegistry) Register(path string, root *cst.ClassNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byPath[path]; ok {
		delete(r.classes, old.Name)
		delete(r.byPath, path)
	}
	pc := &ProjectClass{Path: path, Root: root}
	if root.ClassName != nil && root.ClassName.Name != nil {
		pc.Name = root.ClassName.Name.Literal
		r.classes[pc.Name] = pc
	}
	r.byPath[path] = pc
}

// Remove drops the file's registration.
func (r *ClassRegistry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byPath[path]; ok {
		delete(r.classes, old.Name)
		delete(r.byPath, path)
	}
}

// Get returns the project class registered under name.
func (r *ClassRegistry) Get(name string) *ProjectClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name]
}

// GetByPath returns the project class for a file path.
func (r *ClassRegistry) GetByPath(path string) *ProjectClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byPath[path]
}

// baseName extracts the written base type of a class.
func baseName(root *cst.ClassNode) string {
	if root == nil || root.Extends == nil {
		return ""
	}
	return root.Extends.Target.Name()
}

func (r *ClassRegistry) IsKnownType(name string) bool {
	return r.Get(name) != nil
}

func (r *ClassRegistry) GetTypeInfo(name string) *TypeInfo {
	pc := r.Get(name)
	if pc == nil {
		return nil
	}
	return classTypeInfo(pc)
}

// classTypeInfo projects a CST class into the provider's record shape.
func classTypeInfo(pc *ProjectClass) *TypeInfo {
	info := &TypeInfo{Name: pc.Name, BaseType: baseName(pc.Root), Members: map[string]*MemberInfo{}}
	for _, m := range pc.Root.Members {
		switch member := m.(type) {
		case *cst.VariableNode:
			if member.Name == nil {
				continue
			}
			kind := MemberProperty
			if member.Const {
				kind = MemberConstant
			}
			info.Members[member.Name.Literal] = &MemberInfo{
				Name: member.Name.Literal,
				Kind: kind,
				Type: member.Type.Name(),
			}
		case *cst.MethodNode:
			if member.Name == nil {
				continue
			}
			info.Members[member.Name.Literal] = methodInfo(member)
		case *cst.SignalNode:
			if member.Name == nil {
				continue
			}
			info.Members[member.Name.Literal] = &MemberInfo{
				Name: member.Name.Literal,
				Kind: MemberSignal,
				Type: "Signal",
			}
		case *cst.EnumNode:
			if member.Name != nil {
				info.Members[member.Name.Literal] = &MemberInfo{
					Name: member.Name.Literal,
					Kind: MemberEnum,
					Type: "Dictionary",
				}
			}
			for _, v := range member.Values {
				info.Members[v.Name.Literal] = &MemberInfo{
					Name: v.Name.Literal,
					Kind: MemberConstant,
					Type: "int",
				}
			}
		case *cst.ClassNode:
			if member.Name != nil {
				info.Members[member.Name.Literal] = &MemberInfo{
					Name: member.Name.Literal,
					Kind: MemberConstant,
					Type: "GDScript",
				}
			}
		}
	}
	return info
}

// methodInfo projects a method declaration.
func methodInfo(m *cst.MethodNode) *MemberInfo {
	info := &MemberInfo{Name: m.Name.Literal, Kind: MemberMethod, ReturnType: m.ReturnType.Name()}
	if info.ReturnType == "" {
		info.ReturnType = TypeVariant
	}
	if m.Params != nil {
		for _, p := range m.Params.Params {
			if p.Name == nil {
				continue
			}
			info.Parameters = append(info.Parameters, ParameterInfo{
				Name:       p.Name.Literal,
				Type:       p.Type.Name(),
				HasDefault: p.Default != nil,
			})
		}
	}
	return info
}

func (r *ClassRegistry) GetMember(typeName, memberName string) *MemberInfo {
	info := r.GetTypeInfo(typeName)
	if info == nil {
		return nil
	}
	return info.Members[memberName]
}

func (r *ClassRegistry) GetBaseType(name string) string {
	pc := r.Get(name)
	if pc == nil {
		return ""
	}
	return baseName(pc.Root)
}

func (r *ClassRegistry) IsAssignableTo(source, target string) bool {
	if source == target {
		return true
	}
	visited := map[string]bool{}
	for name := source; name != "" && !visited[name]; {
		if name == target {
			return true
		}
		visited[name] = true
		name = r.GetBaseType(name)
	}
	return false
}

func (r *ClassRegistry) GetGlobalFunction(name string) *MemberInfo { return nil }

func (r *ClassRegistry) GetGlobalClass(name string) *TypeInfo {
	return r.GetTypeInfo(name)
}

func (r *ClassRegistry) IsBuiltIn(identifier string) bool { return false }

func (r *ClassRegistry) AllTypes() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.classes))
	for name := range r.classes {
		out[name] = struct{}{}
	}
	return out
}

// SceneTypesProvider answers `$NodePath` queries from the scene that
// owns a script. Implementations come from the scene-file parser
// collaborator.
type SceneTypesProvider interface {
	// NodeType returns the declared type of the node at path within
	// the scene owning scriptPath, or "" when unknown.
	NodeType(scriptPath, nodePath string) string
}

// AutoloadProvider exposes project autoload singletons as global
// names. It wraps a plain name-to-type map in the provider interface.
type AutoloadProvider struct {
	Singletons map[string]string
}

func (a *AutoloadProvider) IsKnownType(name string) bool {
	_, ok := a.Singletons[name]
	return ok
}

func (a *AutoloadProvider) GetTypeInfo(name string) *TypeInfo {
	if typ, ok := a.Singletons[name]; ok {
		return &TypeInfo{Name: name, BaseType: typ, Members: map[string]*MemberInfo{}}
	}
	return nil
}

func (a *AutoloadProvider) GetMember(typeName, memberName string) *MemberInfo { return nil }

func (a *AutoloadProvider) GetBaseType(name string) string {
	return a.Singletons[name]
}

func (a *AutoloadProvider) IsAssignableTo(source, target string) bool { return false }

func (a *AutoloadProvider) GetGlobalFunction(name string) *MemberInfo { return nil }

func (a *AutoloadProvider) GetGlobalClass(name string) *TypeInfo {
	return a.GetTypeInfo(name)
}

func (a *AutoloadProvider) IsBuiltIn(identifier string) bool {
	_, ok := a.Singletons[identifier]
	return ok
}

func (a *AutoloadProvider) AllTypes() map[string]struct{} {
	out := make(map[string]struct{}, len(a.Singletons))
	for name := range a.Singletons {
		out[name] = struct{}{}
	}
	return out
}
