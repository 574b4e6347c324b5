package cst

import "github.com/termfx/gdtk/lexis"

// expr is the shared embeddable for expression variants.
type expr struct{ base }

func (*expr) exprNode() {}

// IdentifierExpr references a name.
type IdentifierExpr struct {
	expr
	Name *lexis.Token
}

func (*IdentifierExpr) Kind() NodeKind { return KindIdentifierExpr }

// KeywordExpr is a value keyword: true, false, null, self or super.
type KeywordExpr struct {
	expr
	Keyword *lexis.Token
}

func (*KeywordExpr) Kind() NodeKind { return KindKeywordExpr }

// NumberExpr is a numeric literal in any base.
type NumberExpr struct {
	expr
	Value *lexis.Token
}

func (*NumberExpr) Kind() NodeKind { return KindNumberExpr }

// IsFloat reports whether the literal denotes a float: any '.', 'e' or
// 'E' outside the hex/binary forms.
func (n *NumberExpr) IsFloat() bool {
	lit := n.Value.Literal
	if len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X' || lit[1] == 'b' || lit[1] == 'B') {
		return false
	}
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

// StringExpr is a string literal; the token keeps the original quote
// style and escapes verbatim.
type StringExpr struct {
	expr
	Value *lexis.Token
}

func (*StringExpr) Kind() NodeKind { return KindStringExpr }

// Text returns the literal's content without delimiters. Escape
// sequences are left as written; callers needing decoded text handle
// the common ones themselves.
func (s *StringExpr) Text() string {
	return stringContent(s.Value)
}

// stringContent strips the quote delimiters from a string token.
func stringContent(t *lexis.Token) string {
	lit := t.Literal
	switch t.Quote {
	case lexis.QuoteTripleSingle, lexis.QuoteTripleDouble:
		if len(lit) >= 6 {
			return lit[3 : len(lit)-3]
		}
	case lexis.QuoteSingle, lexis.QuoteDouble:
		if len(lit) >= 2 {
			return lit[1 : len(lit)-1]
		}
	}
	return lit
}

// StringNameExpr is `&"name"`.
type StringNameExpr struct {
	expr
	Value *lexis.Token
}

func (*StringNameExpr) Kind() NodeKind { return KindStringNameExpr }

// Text returns the name without delimiters.
func (s *StringNameExpr) Text() string { return stringContent(s.Value) }

// NodePathExpr is `^"Path/To/Node"`.
type NodePathExpr struct {
	expr
	Value *lexis.Token
}

func (*NodePathExpr) Kind() NodeKind { return KindNodePathExpr }

// Text returns the path without delimiters.
func (n *NodePathExpr) Text() string { return stringContent(n.Value) }

// GetNodeExpr is `$Path/To/Node` or `$"Path"`. Path is the textual
// node path without the dollar sign or quotes.
type GetNodeExpr struct {
	expr
	Path string
}

func (*GetNodeExpr) Kind() NodeKind { return KindGetNodeExpr }

// UniqueNodeExpr is `%UniqueName`.
type UniqueNodeExpr struct {
	expr
	Name string
}

func (*UniqueNodeExpr) Kind() NodeKind { return KindUniqueNodeExpr }

// BracketExpr is a parenthesized expression.
type BracketExpr struct {
	expr
	Inner Expression
}

func (*BracketExpr) Kind() NodeKind { return KindBracketExpr }

// UnaryExpr is a prefix operation: -, +, ~, not, !, await.
type UnaryExpr struct {
	expr
	Op      *lexis.Token
	Operand Expression
}

func (*UnaryExpr) Kind() NodeKind { return KindUnaryExpr }

// BinaryExpr is an infix operation, assignments included. Op records
// the operator kind for unparse and inference.
type BinaryExpr struct {
	expr
	Left  Expression
	Op    *lexis.Token
	Right Expression
}

func (*BinaryExpr) Kind() NodeKind { return KindBinaryExpr }

// IsAssignment reports whether the operator assigns, plainly or
// compound.
func (b *BinaryExpr) IsAssignment() bool {
	op := b.Op.Literal
	if op == "=" {
		return true
	}
	return len(op) >= 2 && op[len(op)-1] == '=' &&
		op != "==" && op != "!=" && op != "<=" && op != ">="
}

// TernaryExpr is `a if cond else b`.
type TernaryExpr struct {
	expr
	TrueExpr  Expression
	Condition Expression
	FalseExpr Expression
}

func (*TernaryExpr) Kind() NodeKind { return KindTernaryExpr }

// CallExpr applies a callee to arguments.
type CallExpr struct {
	expr
	Callee Expression
	Args   []Expression
}

func (*CallExpr) Kind() NodeKind { return KindCallExpr }

// CalleeName returns the called name for an identifier, keyword or
// member callee, and "" otherwise.
func (c *CallExpr) CalleeName() string {
	switch callee := c.Callee.(type) {
	case *IdentifierExpr:
		if callee.Name != nil {
			return callee.Name.Literal
		}
	case *KeywordExpr:
		if callee.Keyword != nil {
			return callee.Keyword.Literal
		}
	case *MemberExpr:
		if callee.Member != nil {
			return callee.Member.Literal
		}
	}
	return ""
}

// IndexExpr is `target[index]`.
type IndexExpr struct {
	expr
	Target Expression
	Index  Expression
}

func (*IndexExpr) Kind() NodeKind { return KindIndexExpr }

// MemberExpr is `target.member`.
type MemberExpr struct {
	expr
	Target Expression
	Member *lexis.Token
}

func (*MemberExpr) Kind() NodeKind { return KindMemberExpr }

// LambdaExpr is an anonymous `func`, with either an indented body or a
// single inline statement.
type LambdaExpr struct {
	expr
	Name       *lexis.Token
	Params     *ParameterListNode
	ReturnType *TypeNode
	Body       *StatementsListNode
}

func (*LambdaExpr) Kind() NodeKind { return KindLambdaExpr }

// ArrayExpr is `[a, b, c]`.
type ArrayExpr struct {
	expr
	Elements []Expression
}

func (*ArrayExpr) Kind() NodeKind { return KindArrayExpr }

// PairNode is one `key: value` (or `key = value`) entry of a
// dictionary initializer.
type PairNode struct {
	base
	Key   Expression
	Value Expression
}

func (*PairNode) Kind() NodeKind { return KindPair }

// DictExpr is `{k: v, ...}`.
type DictExpr struct {
	expr
	Pairs []*PairNode
}

func (*DictExpr) Kind() NodeKind { return KindDictExpr }
