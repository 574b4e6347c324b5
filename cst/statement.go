package cst

import "github.com/termfx/gdtk/lexis"

// StatementsListNode is an indented block of statements. Depth and
// Style are the block's own indentation contract: children are admitted
// at Depth with Style, and deviations are diagnosed without being
// rejected. Statements aliases the child nodes stored in the form.
type StatementsListNode struct {
	base
	Depth      int
	Style      lexis.IndentStyle
	Statements []Statement
}

func (*StatementsListNode) Kind() NodeKind { return KindStatementsList }

// AddStatement records s in source order.
func (l *StatementsListNode) AddStatement(s Statement) {
	l.Statements = append(l.Statements, s)
}

// BranchNode is one arm of an if/elif/else chain. Condition is nil for
// the else arm.
type BranchNode struct {
	base
	Keyword   *lexis.Token
	Condition Expression
	Body      *StatementsListNode
}

func (*BranchNode) Kind() NodeKind { return KindBranch }

// IfStatementNode chains an if arm, zero or more elif arms, and an
// optional else arm.
type IfStatementNode struct {
	base
	Branches []*BranchNode
}

func (*IfStatementNode) Kind() NodeKind { return KindIfStatement }
func (*IfStatementNode) stmtNode()      {}

// ForStatementNode is `for x in it:` with an optional iterator type.
type ForStatementNode struct {
	base
	Iterator *lexis.Token
	IterType *TypeNode
	Iterable Expression
	Body     *StatementsListNode
}

func (*ForStatementNode) Kind() NodeKind { return KindForStatement }
func (*ForStatementNode) stmtNode()      {}

// WhileStatementNode is `while cond:`.
type WhileStatementNode struct {
	base
	Condition Expression
	Body      *StatementsListNode
}

func (*WhileStatementNode) Kind() NodeKind { return KindWhileStatement }
func (*WhileStatementNode) stmtNode()      {}

// MatchStatementNode is `match subject:` with its case arms.
type MatchStatementNode struct {
	base
	Subject Expression
	Cases   []*MatchCaseNode
}

func (*MatchStatementNode) Kind() NodeKind { return KindMatchStatement }
func (*MatchStatementNode) stmtNode()      {}

// MatchCaseNode is one case arm: comma-separated patterns, an optional
// `when` guard, and a body.
type MatchCaseNode struct {
	base
	Patterns []Expression
	Guard    Expression
	Body     *StatementsListNode
}

func (*MatchCaseNode) Kind() NodeKind { return KindMatchCase }

// ReturnStatementNode is `return` with an optional value.
type ReturnStatementNode struct {
	base
	Value Expression
}

func (*ReturnStatementNode) Kind() NodeKind { return KindReturnStatement }
func (*ReturnStatementNode) stmtNode()      {}

// BreakStatementNode is `break`.
type BreakStatementNode struct{ base }

func (*BreakStatementNode) Kind() NodeKind { return KindBreakStatement }
func (*BreakStatementNode) stmtNode()      {}

// ContinueStatementNode is `continue`.
type ContinueStatementNode struct{ base }

func (*ContinueStatementNode) Kind() NodeKind { return KindContinueStatement }
func (*ContinueStatementNode) stmtNode()      {}

// PassStatementNode is `pass`.
type PassStatementNode struct{ base }

func (*PassStatementNode) Kind() NodeKind { return KindPassStatement }
func (*PassStatementNode) stmtNode()      {}

// ExpressionStatementNode wraps a bare expression used as a statement,
// including assignments.
type ExpressionStatementNode struct {
	base
	Expr Expression
}

func (*ExpressionStatementNode) Kind() NodeKind { return KindExpressionStatement }
func (*ExpressionStatementNode) stmtNode()      {}
