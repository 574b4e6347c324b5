package semantics

import (
	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolConstant
	SymbolParameter
	SymbolMethod
	SymbolSignal
	SymbolEnum
	SymbolEnumValue
	SymbolInnerClass
)

// String returns the kind name.
func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolConstant:
		return "constant"
	case SymbolParameter:
		return "parameter"
	case SymbolMethod:
		return "method"
	case SymbolSignal:
		return "signal"
	case SymbolEnum:
		return "enum"
	case SymbolEnumValue:
		return "enum value"
	case SymbolInnerClass:
		return "inner class"
	}
	return "unknown"
}

// Symbol is one declared name: its kind, declared type (when written),
// the declaring node for navigation, and the scope that owns it.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Type  *cst.TypeNode
	Decl  cst.Node
	Scope *Scope

	// NameToken is the identifier token of the declaration, the anchor
	// for rename edits.
	NameToken *lexis.Token

	// Params is filled for methods and signals.
	Params []ParameterInfo
}

// DeclLine returns the line of the declaring name, or 0.
func (s *Symbol) DeclLine() int {
	if s.NameToken != nil {
		return s.NameToken.Line
	}
	if t := cst.FirstToken(s.Decl); t != nil {
		return t.Line
	}
	return 0
}

// ScopeKind names what opened a scope.
type ScopeKind int

const (
	ScopeClass ScopeKind = iota
	ScopeMethod
	ScopeLambda
	ScopeBlock
)

// Scope is one lexical nesting level. Lookup walks outward to the
// enclosing class; anything beyond that is the type resolver's job.
type Scope struct {
	Kind    ScopeKind
	Owner   cst.Node
	Parent  *Scope
	symbols map[string]*Symbol
	order   []*Symbol
}

// NewScope creates a scope under parent.
func NewScope(kind ScopeKind, owner cst.Node, parent *Scope) *Scope {
	return &Scope{Kind: kind, Owner: owner, Parent: parent, symbols: map[string]*Symbol{}}
}

// Declare records a symbol. The first declaration of a name wins;
// duplicates are kept in order for diagnostics but do not shadow.
func (s *Scope) Declare(sym *Symbol) {
	sym.Scope = s
	s.order = append(s.order, sym)
	if _, exists := s.symbols[sym.Name]; !exists {
		s.symbols[sym.Name] = sym
	}
}

// Get returns the symbol declared directly in this scope.
func (s *Scope) Get(name string) *Symbol {
	return s.symbols[name]
}

// Symbols returns the scope's symbols in declaration order.
func (s *Scope) Symbols() []*Symbol {
	return s.order
}

// Lookup resolves name through this scope and its ancestors, innermost
// first. beforeLine limits block-local variables to declarations at or
// before the given line; class members are position-independent.
func (s *Scope) Lookup(name string, beforeLine int) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		sym := scope.symbols[name]
		if sym == nil {
			if scope.Kind == ScopeClass {
				break
			}
			continue
		}
		if scope.Kind == ScopeBlock || scope.Kind == ScopeMethod {
			if beforeLine > 0 && sym.Kind != SymbolParameter && sym.DeclLine() > beforeLine {
				continue
			}
		}
		return sym
	}
	return nil
}

// EnclosingClassScope returns the nearest class scope at or above s.
func (s *Scope) EnclosingClassScope() *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind == ScopeClass {
			return scope
		}
	}
	return nil
}
