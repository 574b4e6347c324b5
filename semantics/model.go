package semantics

import (
	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// Resolution describes how an identifier was bound.
type Resolution int

const (
	ResolvedLocal Resolution = iota
	ResolvedMember
	ResolvedBase
	ResolvedGlobalClass
	ResolvedBuiltIn
	ResolvedExternal
	Unresolved
)

// FileModel is the per-file semantic model: the scope tree, the type
// info cache and the file's resolved inheritance chain. It is built
// once per parse and read by the validator, the inferencer and the
// flow analyzer.
type FileModel struct {
	Path     string
	Root     *cst.ClassNode
	Provider RuntimeTypeProvider
	Scenes   SceneTypesProvider

	scopes    map[cst.Node]*Scope
	rootScope *Scope
}

// NewFileModel builds the symbol table for root. provider answers
// queries for names not declared in the file; scenes may be nil.
func NewFileModel(path string, root *cst.ClassNode, provider RuntimeTypeProvider, scenes SceneTypesProvider) *FileModel {
	m := &FileModel{
		Path:     path,
		Root:     root,
		Provider: provider,
		Scenes:   scenes,
		scopes:   map[cst.Node]*Scope{},
	}
	m.rootScope = m.buildClassScope(root, nil)
	return m
}

// RootScope returns the file-level class scope.
func (m *FileModel) RootScope() *Scope {
	return m.rootScope
}

// buildClassScope declares a class's members and recurses into method
// bodies and inner classes.
func (m *FileModel) buildClassScope(class *cst.ClassNode, parent *Scope) *Scope {
	scope := NewScope(ScopeClass, class, parent)
	m.scopes[class] = scope
	for _, member := range class.Members {
		switch node := member.(type) {
		case *cst.VariableNode:
			if node.Name == nil {
				continue
			}
			kind := SymbolVariable
			if node.Const {
				kind = SymbolConstant
			}
			scope.Declare(&Symbol{
				Name: node.Name.Literal, Kind: kind, Type: node.Type,
				Decl: node, NameToken: node.Name,
			})
		case *cst.MethodNode:
			if node.Name == nil {
				continue
			}
			info := methodInfo(node)
			scope.Declare(&Symbol{
				Name: node.Name.Literal, Kind: SymbolMethod, Type: node.ReturnType,
				Decl: node, NameToken: node.Name, Params: info.Parameters,
			})
			m.buildMethodScope(node, scope)
		case *cst.SignalNode:
			if node.Name == nil {
				continue
			}
			scope.Declare(&Symbol{
				Name: node.Name.Literal, Kind: SymbolSignal,
				Decl: node, NameToken: node.Name,
			})
		case *cst.EnumNode:
			if node.Name != nil {
				scope.Declare(&Symbol{
					Name: node.Name.Literal, Kind: SymbolEnum,
					Decl: node, NameToken: node.Name,
				})
			}
			for _, v := range node.Values {
				if v.Name == nil {
					continue
				}
				scope.Declare(&Symbol{
					Name: v.Name.Literal, Kind: SymbolEnumValue,
					Decl: v, NameToken: v.Name,
				})
			}
		case *cst.ClassNode:
			if node.Name != nil {
				scope.Declare(&Symbol{
					Name: node.Name.Literal, Kind: SymbolInnerClass,
					Decl: node, NameToken: node.Name,
				})
			}
			m.buildClassScope(node, scope)
		}
	}
	return scope
}

// buildMethodScope declares parameters and walks the body for locals.
func (m *FileModel) buildMethodScope(method *cst.MethodNode, parent *Scope) {
	scope := NewScope(ScopeMethod, method, parent)
	m.scopes[method] = scope
	if method.Params != nil {
		for _, p := range method.Params.Params {
			if p.Name == nil {
				continue
			}
			scope.Declare(&Symbol{
				Name: p.Name.Literal, Kind: SymbolParameter, Type: p.Type,
				Decl: p, NameToken: p.Name,
			})
		}
	}
	if method.Body != nil {
		m.buildBlockScope(method.Body, scope)
	}
}

// buildBlockScope declares a statements list's locals and recurses
// into nested blocks and lambdas.
func (m *FileModel) buildBlockScope(list *cst.StatementsListNode, parent *Scope) *Scope {
	scope := NewScope(ScopeBlock, list, parent)
	m.scopes[list] = scope
	for _, stmt := range list.Statements {
		switch node := stmt.(type) {
		case *cst.VariableNode:
			if node.Name == nil {
				continue
			}
			kind := SymbolVariable
			if node.Const {
				kind = SymbolConstant
			}
			scope.Declare(&Symbol{
				Name: node.Name.Literal, Kind: kind, Type: node.Type,
				Decl: node, NameToken: node.Name,
			})
			m.buildExprScopes(node.Value, scope)
		case *cst.IfStatementNode:
			for _, br := range node.Branches {
				m.buildExprScopes(br.Condition, scope)
				if br.Body != nil {
					m.buildBlockScope(br.Body, scope)
				}
			}
		case *cst.ForStatementNode:
			if node.Body != nil {
				body := m.buildBlockScope(node.Body, scope)
				if node.Iterator != nil {
					body.Declare(&Symbol{
						Name: node.Iterator.Literal, Kind: SymbolVariable,
						Type: node.IterType, Decl: node, NameToken: node.Iterator,
					})
				}
			}
			m.buildExprScopes(node.Iterable, scope)
		case *cst.WhileStatementNode:
			m.buildExprScopes(node.Condition, scope)
			if node.Body != nil {
				m.buildBlockScope(node.Body, scope)
			}
		case *cst.MatchStatementNode:
			m.buildExprScopes(node.Subject, scope)
			for _, c := range node.Cases {
				// The case scope holds binding patterns so guards and
				// the body both see them.
				caseScope := NewScope(ScopeBlock, c, scope)
				m.scopes[c] = caseScope
				for _, pat := range c.Patterns {
					if id, ok := pat.(*cst.IdentifierExpr); ok && IsBindingPattern(id) {
						caseScope.Declare(&Symbol{
							Name: id.Name.Literal, Kind: SymbolVariable,
							Decl: id, NameToken: id.Name,
						})
					}
				}
				m.buildExprScopes(c.Guard, caseScope)
				if c.Body != nil {
					m.buildBlockScope(c.Body, caseScope)
				}
			}
		case *cst.ReturnStatementNode:
			m.buildExprScopes(node.Value, scope)
		case *cst.ExpressionStatementNode:
			m.buildExprScopes(node.Expr, scope)
		}
	}
	return scope
}

// IsBindingPattern reports a `var name` capture inside a match case,
// recognizable by the var keyword stored ahead of the name.
func IsBindingPattern(id *cst.IdentifierExpr) bool {
	if id.Name == nil {
		return false
	}
	for _, it := range id.Form().Items() {
		if it.Token != nil && it.Token.Is("var") {
			return true
		}
	}
	return false
}

// buildExprScopes scans an expression for lambdas, which open scopes
// of their own.
func (m *FileModel) buildExprScopes(e cst.Expression, parent *Scope) {
	if e == nil {
		return
	}
	cst.Walk(e, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		lam, ok := n.(*cst.LambdaExpr)
		if !ok {
			return
		}
		if _, done := m.scopes[lam]; done {
			return
		}
		scope := NewScope(ScopeLambda, lam, parent)
		m.scopes[lam] = scope
		if lam.Params != nil {
			for _, p := range lam.Params.Params {
				if p.Name == nil {
					continue
				}
				scope.Declare(&Symbol{
					Name: p.Name.Literal, Kind: SymbolParameter, Type: p.Type,
					Decl: p, NameToken: p.Name,
				})
			}
		}
		if lam.Body != nil {
			m.buildBlockScope(lam.Body, scope)
		}
	}})
}

// ScopeOf returns the nearest scope enclosing node, walking parents
// until a scope-owning ancestor appears.
func (m *FileModel) ScopeOf(node cst.Node) *Scope {
	for n := node; n != nil; n = n.Parent() {
		if scope, ok := m.scopes[n]; ok {
			return scope
		}
	}
	return m.rootScope
}

// Resolve binds an identifier following the documented order:
// innermost lambda or method parameters, block locals outward, class
// members, the base-class chain, the project class registry, then
// runtime built-ins. The first hit wins.
func (m *FileModel) Resolve(id *cst.IdentifierExpr) (*Symbol, Resolution) {
	if id == nil || id.Name == nil {
		return nil, Unresolved
	}
	name := id.Name.Literal
	scope := m.ScopeOf(id)

	// Steps 1-4: lexical scopes out to the enclosing class.
	if sym := scope.Lookup(name, id.Name.Line); sym != nil {
		if sym.Scope.Kind == ScopeClass {
			return sym, ResolvedMember
		}
		return sym, ResolvedLocal
	}

	// Step 5: the base-class chain.
	if class := scope.EnclosingClassScope(); class != nil {
		base := baseName(class.Owner.(*cst.ClassNode))
		if base != "" && m.Provider != nil {
			if member := m.Provider.GetMember(base, name); member != nil {
				return nil, ResolvedBase
			}
		}
	}

	if m.Provider == nil {
		return nil, Unresolved
	}
	// Step 6: project-global class_name registry.
	if cls := m.Provider.GetGlobalClass(name); cls != nil {
		return nil, ResolvedGlobalClass
	}
	// Step 7: runtime built-ins.
	if m.Provider.IsBuiltIn(name) {
		return nil, ResolvedBuiltIn
	}
	return nil, Unresolved
}

// ExtendsChain resolves the file's base classes outward. It returns
// the chain of type names and whether a cycle was found; a cycle
// terminates the walk.
func (m *FileModel) ExtendsChain() (chain []string, cycle bool) {
	visited := map[string]bool{}
	name := baseName(m.Root)
	for name != "" {
		if visited[name] {
			return chain, true
		}
		visited[name] = true
		chain = append(chain, name)
		if m.Provider == nil {
			break
		}
		name = m.Provider.GetBaseType(name)
	}
	return chain, false
}

// References collects the identifier tokens in this file that bind to
// sym, the declaration's own name token included.
func (m *FileModel) References(sym *Symbol) []*lexis.Token {
	var refs []*lexis.Token
	if sym.NameToken != nil {
		refs = append(refs, sym.NameToken)
	}
	cst.Walk(m.Root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		id, ok := n.(*cst.IdentifierExpr)
		if !ok || id.Name == nil || id.Name.Literal != sym.Name {
			return
		}
		if found, _ := m.Resolve(id); found == sym {
			refs = append(refs, id.Name)
		}
	}})
	return refs
}

// Rename rewrites the declaration and every same-file reference of sym
// to newName. This is the one sanctioned token mutation outside the
// formatter.
func (m *FileModel) Rename(sym *Symbol, newName string) int {
	refs := m.References(sym)
	for _, tok := range refs {
		tok.Literal = newName
	}
	sym.Name = newName
	return len(refs)
}
