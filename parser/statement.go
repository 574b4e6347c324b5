package parser

import (
	"fmt"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lexis"
)

// parseBlock parses the body that follows a colon: an indented
// statements list on the next lines, or inline statements on the same
// line. parentDepth is the indentation depth of the owning statement's
// line; the body expects parentDepth+1.
func (p *parser) parseBlock(owner cst.Node, parentDepth int) *cst.StatementsListNode {
	body := &cst.StatementsListNode{Depth: parentDepth + 1}
	cst.Attach(owner, body)
	p.flushTrivia(body)

	if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
		p.take(body)
		p.parseStatements(body)
		return body
	}

	// Inline body: one or more `;`-separated statements on the colon's
	// line.
	for p.pos < len(p.toks) {
		if p.atLineEnd() {
			break
		}
		p.parseStatement(body, parentDepth)
		p.flushTrivia(body)
		if t := p.cur(); t != nil && t.Is(";") {
			p.take(body)
			continue
		}
		break
	}
	return body
}

// parseStatements consumes statement lines at the list's depth until a
// dedent or EOF. Blank and comment-only lines are absorbed wherever
// they appear; deeper lines are accepted in place and left to the
// indentation validator.
func (p *parser) parseStatements(list *cst.StatementsListNode) {
	for p.pos < len(p.toks) {
		if p.lineIsBlank() {
			p.absorbBlankLine(list)
			continue
		}
		t := p.cur()
		run := p.lineDepth()
		if t.Kind == lexis.Indentation {
			if run.Depth < list.Depth {
				return
			}
			if list.Style == lexis.IndentNone {
				list.Style = run.Style
			}
			p.take(list)
		} else {
			// Unindented line closes every open block.
			if list.Depth > 0 {
				return
			}
		}

		before := p.pos
		p.parseStatement(list, run.Depth)
		if p.pos == before {
			// A statement parser must always advance; preserve the
			// offending token and move on.
			inv := &cst.InvalidNode{}
			p.take(inv)
			cst.Attach(list, inv)
			list.AddStatement(inv)
		}

		p.flushTrivia(list)
		for p.pos < len(p.toks) && p.cur().Is(";") {
			p.take(list)
			p.flushTrivia(list)
			if !p.atLineEnd() {
				p.parseStatement(list, run.Depth)
				p.flushTrivia(list)
			}
		}
		if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
			p.take(list)
		}
	}
}

// parseStatement parses one statement and records it on the list.
// lineDepth is the depth of the statement's own line, used by block
// statements for their bodies.
func (p *parser) parseStatement(list *cst.StatementsListNode, lineDepth int) {
	t := p.peekSem()
	if t == nil {
		return
	}
	var stmt cst.Statement
	switch {
	case t.Is("var"), t.Is("const"):
		stmt = p.parseVariable(lineDepth, false, true, memberAnnotations{})
	case t.Is("if"):
		stmt = p.parseIf(lineDepth)
	case t.Is("for"):
		stmt = p.parseFor(lineDepth)
	case t.Is("while"):
		stmt = p.parseWhile(lineDepth)
	case t.Is("match"):
		stmt = p.parseMatch(lineDepth)
	case t.Is("return"):
		ret := &cst.ReturnStatementNode{}
		p.takeSem(ret)
		if !p.atLineEnd() {
			ret.Value = p.parseExpression(ret)
		}
		stmt = ret
	case t.Is("break"):
		br := &cst.BreakStatementNode{}
		p.takeSem(br)
		stmt = br
	case t.Is("continue"):
		c := &cst.ContinueStatementNode{}
		p.takeSem(c)
		stmt = c
	case t.Is("pass"):
		ps := &cst.PassStatementNode{}
		p.takeSem(ps)
		stmt = ps
	default:
		es := &cst.ExpressionStatementNode{}
		es.Expr = p.parseExpression(es)
		stmt = es
	}
	if stmt != nil {
		cst.Attach(list, stmt)
		list.AddStatement(stmt)
	}
}

// parseIf parses an if statement and its elif/else continuation lines.
func (p *parser) parseIf(lineDepth int) *cst.IfStatementNode {
	ifs := &cst.IfStatementNode{}
	p.parseBranch(ifs, lineDepth, true)
	for {
		kw, ok := p.peekContinuationKeyword(lineDepth)
		if !ok {
			break
		}
		p.consumeContinuationPrefix(ifs)
		if kw == "elif" {
			p.parseBranch(ifs, lineDepth, true)
			continue
		}
		p.parseBranch(ifs, lineDepth, false)
		break
	}
	return ifs
}

// parseBranch parses one if/elif/else arm starting at its keyword.
func (p *parser) parseBranch(ifs *cst.IfStatementNode, lineDepth int, hasCondition bool) {
	br := &cst.BranchNode{}
	cst.Attach(ifs, br)
	ifs.Branches = append(ifs.Branches, br)
	br.Keyword = p.takeSem(br)
	if hasCondition {
		br.Condition = p.parseExpression(br)
	}
	if p.expect(br, ":") {
		br.Body = p.parseBlock(br, lineDepth)
	}
}

// peekContinuationKeyword looks past blank lines for an elif/else line
// at exactly lineDepth without consuming anything.
func (p *parser) peekContinuationKeyword(lineDepth int) (string, bool) {
	i := p.pos
	for i < len(p.toks) {
		t := p.toks[i]
		switch t.Kind {
		case lexis.Newline, lexis.Space, lexis.Comment:
			i++
			continue
		case lexis.Indentation:
			run := lexis.MeasureIndent(t.Literal, p.spaceUnit)
			// A blank indented line is skippable.
			if i+1 < len(p.toks) && (p.toks[i+1].Kind == lexis.Newline ||
				p.toks[i+1].Kind == lexis.Comment) {
				i++
				continue
			}
			if run.Depth != lineDepth {
				return "", false
			}
			i++
			continue
		case lexis.Keyword:
			if t.Literal == "elif" || t.Literal == "else" {
				// Depth-zero continuations carry no indentation token.
				if lineDepth > 0 && (i == p.pos || p.toks[i-1].Kind != lexis.Indentation) {
					return "", false
				}
				return t.Literal, true
			}
			return "", false
		default:
			return "", false
		}
	}
	return "", false
}

// consumeContinuationPrefix moves the blank lines and indentation
// before an elif/else keyword into the if statement's form.
func (p *parser) consumeContinuationPrefix(ifs *cst.IfStatementNode) {
	for p.pos < len(p.toks) {
		t := p.cur()
		if t.Kind == lexis.Newline || t.Kind == lexis.Space ||
			t.Kind == lexis.Comment || t.Kind == lexis.Indentation {
			p.take(ifs)
			continue
		}
		return
	}
}

// parseFor parses `for name [: Type] in iterable:`.
func (p *parser) parseFor(lineDepth int) *cst.ForStatementNode {
	f := &cst.ForStatementNode{}
	p.takeSem(f)
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		f.Iterator = p.takeSem(f)
	} else {
		p.reportUnexpected(t, "loop variable")
	}
	if t := p.peekSem(); t != nil && t.Is(":") {
		p.takeSem(f)
		f.IterType = p.parseType(f)
	}
	p.expect(f, "in")
	f.Iterable = p.parseExpression(f)
	if p.expect(f, ":") {
		f.Body = p.parseBlock(f, lineDepth)
	}
	return f
}

// parseWhile parses `while condition:`.
func (p *parser) parseWhile(lineDepth int) *cst.WhileStatementNode {
	w := &cst.WhileStatementNode{}
	p.takeSem(w)
	w.Condition = p.parseExpression(w)
	if p.expect(w, ":") {
		w.Body = p.parseBlock(w, lineDepth)
	}
	return w
}

// parseMatch parses `match subject:` and its case lines one level
// deeper.
func (p *parser) parseMatch(lineDepth int) *cst.MatchStatementNode {
	m := &cst.MatchStatementNode{}
	p.takeSem(m)
	m.Subject = p.parseExpression(m)
	if !p.expect(m, ":") {
		return m
	}
	p.flushTrivia(m)
	if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
		p.take(m)
	} else {
		p.report(diag.CodeUnexpectedToken, diag.SeverityError,
			"match cases must start on a new line", p.cur())
		return m
	}
	caseDepth := lineDepth + 1
	for p.pos < len(p.toks) {
		if p.lineIsBlank() {
			p.absorbBlankLine(m)
			continue
		}
		t := p.cur()
		if t.Kind != lexis.Indentation {
			return m
		}
		if p.lineDepth().Depth < caseDepth {
			return m
		}
		p.take(m)
		p.parseMatchCase(m, caseDepth)
		p.flushTrivia(m)
		if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
			p.take(m)
		}
	}
	return m
}

// parseMatchCase parses one case arm: patterns, optional guard, body.
func (p *parser) parseMatchCase(m *cst.MatchStatementNode, caseDepth int) {
	c := &cst.MatchCaseNode{}
	cst.Attach(m, c)
	m.Cases = append(m.Cases, c)
	for {
		c.Patterns = append(c.Patterns, p.parseExpressionNoTernary(c))
		if t := p.peekSem(); t != nil && t.Is(",") {
			p.takeSem(c)
			continue
		}
		break
	}
	if t := p.peekSem(); t != nil && t.Is("when") {
		p.takeSem(c)
		c.Guard = p.parseExpression(c)
	}
	if p.expect(c, ":") {
		c.Body = p.parseBlock(c, caseDepth)
	}
}

// invalidExpr preserves one unparseable token as an invalid
// expression. When the line already ended, it returns an empty invalid
// node without consuming anything.
func (p *parser) invalidExpr() cst.Expression {
	inv := &cst.InvalidNode{}
	t := p.peekSem()
	if t != nil && t.Kind != lexis.Newline && t.Kind != lexis.Indentation {
		p.report(diag.CodeUnexpectedToken, diag.SeverityError,
			fmt.Sprintf("unexpected %q in expression", t.Literal), t)
		p.flushTrivia(inv)
		p.take(inv)
	} else {
		p.report(diag.CodeUnexpectedToken, diag.SeverityError, "expected expression", t)
	}
	return inv
}
