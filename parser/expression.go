package parser

import (
	"strings"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// Expression parsing follows the fixed precedence ladder, loosest to
// tightest: assignment, ternary, or, and, not, is/as, comparison
// chains, bitwise or/xor/and, shifts, additive, multiplicative, unary,
// power, postfix. Assignment, ternary and power associate right; the
// rest left.

// assignOps are the compound and plain assignment operators.
var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// comparisonOps chain left without association.
var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

// parseExpression parses a full expression including assignment.
func (p *parser) parseExpression(owner cst.Node) cst.Expression {
	e := p.parseAssign()
	cst.Attach(owner, e)
	return e
}

// parseExpressionNoTernary parses a pattern-level expression: no
// assignment, no ternary.
func (p *parser) parseExpressionNoTernary(owner cst.Node) cst.Expression {
	e := p.parseOr()
	cst.Attach(owner, e)
	return e
}

// binaryLoop builds left-associative chains for the operators accepted
// by match, with operands parsed by next.
func (p *parser) binaryLoop(next func() cst.Expression, match func(*lexis.Token) bool) cst.Expression {
	left := next()
	for {
		t := p.peekSem()
		if t == nil || !match(t) {
			return left
		}
		bin := &cst.BinaryExpr{}
		cst.Attach(bin, left)
		bin.Op = p.takeSem(bin)
		right := next()
		cst.Attach(bin, right)
		bin.Right = right
		bin.Left = left
		left = bin
	}
}

func (p *parser) parseAssign() cst.Expression {
	left := p.parseTernary()
	t := p.peekSem()
	if t == nil || t.Kind != lexis.Punctuator || !assignOps[t.Literal] {
		return left
	}
	bin := &cst.BinaryExpr{Left: left}
	cst.Attach(bin, left)
	bin.Op = p.takeSem(bin)
	right := p.parseAssign()
	cst.Attach(bin, right)
	bin.Right = right
	return bin
}

func (p *parser) parseTernary() cst.Expression {
	value := p.parseOr()
	t := p.peekSem()
	if t == nil || !t.Is("if") {
		return value
	}
	tern := &cst.TernaryExpr{TrueExpr: value}
	cst.Attach(tern, value)
	p.takeSem(tern) // if
	tern.Condition = p.parseOrAttached(tern)
	p.expect(tern, "else")
	fe := p.parseTernary()
	cst.Attach(tern, fe)
	tern.FalseExpr = fe
	return tern
}

// parseOrAttached parses an or-level expression directly into owner.
func (p *parser) parseOrAttached(owner cst.Node) cst.Expression {
	e := p.parseOr()
	cst.Attach(owner, e)
	return e
}

func (p *parser) parseOr() cst.Expression {
	return p.binaryLoop(p.parseAnd, func(t *lexis.Token) bool {
		return t.Is("or") || t.Is("||")
	})
}

func (p *parser) parseAnd() cst.Expression {
	return p.binaryLoop(p.parseNot, func(t *lexis.Token) bool {
		return t.Is("and") || t.Is("&&")
	})
}

func (p *parser) parseNot() cst.Expression {
	t := p.peekSem()
	if t != nil && (t.Is("not") || t.Is("!")) {
		un := &cst.UnaryExpr{}
		un.Op = p.takeSem(un)
		operand := p.parseNot()
		cst.Attach(un, operand)
		un.Operand = operand
		return un
	}
	return p.parseIsAs()
}

func (p *parser) parseIsAs() cst.Expression {
	return p.binaryLoop(p.parseComparison, func(t *lexis.Token) bool {
		return t.Is("is") || t.Is("as")
	})
}

func (p *parser) parseComparison() cst.Expression {
	left := p.parseBitOr()
	for {
		t := p.peekSem()
		if t == nil {
			return left
		}
		isNotIn := t.Is("not") && p.peekSemAfter() != nil && p.peekSemAfter().Is("in")
		if !isNotIn && !t.Is("in") && !(t.Kind == lexis.Punctuator && comparisonOps[t.Literal]) {
			return left
		}
		bin := &cst.BinaryExpr{Left: left}
		cst.Attach(bin, left)
		if isNotIn {
			p.takeSem(bin) // not
		}
		bin.Op = p.takeSem(bin) // operator or in
		right := p.parseBitOr()
		cst.Attach(bin, right)
		bin.Right = right
		left = bin
	}
}

func (p *parser) parseBitOr() cst.Expression {
	return p.binaryLoop(p.parseBitXor, func(t *lexis.Token) bool { return t.Is("|") })
}

func (p *parser) parseBitXor() cst.Expression {
	return p.binaryLoop(p.parseBitAnd, func(t *lexis.Token) bool { return t.Is("^") })
}

func (p *parser) parseBitAnd() cst.Expression {
	return p.binaryLoop(p.parseShift, func(t *lexis.Token) bool { return t.Is("&") })
}

func (p *parser) parseShift() cst.Expression {
	return p.binaryLoop(p.parseAdditive, func(t *lexis.Token) bool {
		return t.Is("<<") || t.Is(">>")
	})
}

func (p *parser) parseAdditive() cst.Expression {
	return p.binaryLoop(p.parseMultiplicative, func(t *lexis.Token) bool {
		return t.Is("+") || t.Is("-")
	})
}

func (p *parser) parseMultiplicative() cst.Expression {
	return p.binaryLoop(p.parseUnary, func(t *lexis.Token) bool {
		return t.Is("*") || t.Is("/") || t.Is("%")
	})
}

func (p *parser) parseUnary() cst.Expression {
	t := p.peekSem()
	if t != nil && (t.Is("-") || t.Is("+") || t.Is("~") || t.Is("await")) {
		un := &cst.UnaryExpr{}
		un.Op = p.takeSem(un)
		operand := p.parseUnary()
		cst.Attach(un, operand)
		un.Operand = operand
		return un
	}
	return p.parsePower()
}

func (p *parser) parsePower() cst.Expression {
	base := p.parsePostfix()
	t := p.peekSem()
	if t == nil || !t.Is("**") {
		return base
	}
	bin := &cst.BinaryExpr{Left: base}
	cst.Attach(bin, base)
	bin.Op = p.takeSem(bin)
	right := p.parseUnary()
	cst.Attach(bin, right)
	bin.Right = right
	return bin
}

func (p *parser) parsePostfix() cst.Expression {
	e := p.parsePrimary()
	for {
		t := p.peekSem()
		if t == nil {
			return e
		}
		switch {
		case t.Is("("):
			call := &cst.CallExpr{Callee: e}
			cst.Attach(call, e)
			p.takeSem(call)
			p.groupDepth++
			p.parseExpressionList(call, &call.Args, ")")
			p.closeGroup(call, ")")
			e = call
		case t.Is("["):
			idx := &cst.IndexExpr{Target: e}
			cst.Attach(idx, e)
			p.takeSem(idx)
			p.groupDepth++
			idx.Index = p.parseExpression(idx)
			p.closeGroup(idx, "]")
			e = idx
		case t.Is("."):
			mem := &cst.MemberExpr{Target: e}
			cst.Attach(mem, e)
			p.takeSem(mem)
			if nx := p.peekSem(); nx != nil && (nx.Kind == lexis.Identifier || nx.Kind == lexis.Keyword) {
				mem.Member = p.takeSem(mem)
			} else {
				p.reportUnexpected(nx, "member name")
			}
			e = mem
		default:
			return e
		}
	}
}

// parseExpressionList parses comma-separated expressions into args
// until the closing delimiter, tolerating a trailing comma.
func (p *parser) parseExpressionList(owner cst.Node, args *[]cst.Expression, closer string) {
	for {
		t := p.peekSem()
		if t == nil || t.Is(closer) {
			return
		}
		*args = append(*args, p.parseExpression(owner))
		if nx := p.peekSem(); nx != nil && nx.Is(",") {
			p.takeSem(owner)
			continue
		}
		return
	}
}

func (p *parser) parsePrimary() cst.Expression {
	t := p.peekSem()
	if t == nil {
		return p.invalidExpr()
	}
	switch t.Kind {
	case lexis.Number:
		n := &cst.NumberExpr{}
		n.Value = p.takeSem(n)
		return n
	case lexis.String:
		s := &cst.StringExpr{}
		s.Value = p.takeSem(s)
		return s
	case lexis.Identifier:
		id := &cst.IdentifierExpr{}
		id.Name = p.takeSem(id)
		return id
	case lexis.Keyword:
		return p.parseKeywordPrimary(t)
	}
	switch t.Literal {
	case "(":
		br := &cst.BracketExpr{}
		p.takeSem(br)
		p.groupDepth++
		br.Inner = p.parseExpression(br)
		p.closeGroup(br, ")")
		return br
	case "[":
		arr := &cst.ArrayExpr{}
		p.takeSem(arr)
		p.groupDepth++
		p.parseExpressionList(arr, &arr.Elements, "]")
		p.closeGroup(arr, "]")
		return arr
	case "{":
		return p.parseDict()
	case "$":
		return p.parseGetNode()
	case "%":
		return p.parseUniqueNode()
	case "^":
		return p.parseNodePath()
	case "&":
		return p.parseStringName()
	}
	return p.invalidExpr()
}

// parseKeywordPrimary handles keywords legal in operand position.
func (p *parser) parseKeywordPrimary(t *lexis.Token) cst.Expression {
	switch t.Literal {
	case "true", "false", "null", "self", "super", "breakpoint", "preload", "yield", "assert":
		kw := &cst.KeywordExpr{}
		kw.Keyword = p.takeSem(kw)
		return kw
	case "func":
		return p.parseLambda()
	case "var":
		// Binding pattern inside match cases: `var name` captures the
		// matched value.
		id := &cst.IdentifierExpr{}
		p.takeSem(id) // var
		if nx := p.peekSem(); nx != nil && nx.Kind == lexis.Identifier {
			id.Name = p.takeSem(id)
		} else {
			p.reportUnexpected(nx, "binding name")
		}
		return id
	}
	return p.invalidExpr()
}

// parseDict parses `{key: value, ...}`, accepting both the colon and
// the legacy `=` pair separator.
func (p *parser) parseDict() cst.Expression {
	d := &cst.DictExpr{}
	p.takeSem(d)
	p.groupDepth++
	for {
		t := p.peekSem()
		if t == nil || t.Is("}") {
			break
		}
		pair := &cst.PairNode{}
		cst.Attach(d, pair)
		d.Pairs = append(d.Pairs, pair)
		pair.Key = p.parseExpressionNoTernary(pair)
		if nx := p.peekSem(); nx != nil && (nx.Is(":") || nx.Is("=")) {
			p.takeSem(pair)
			pair.Value = p.parseExpression(pair)
		} else {
			p.reportUnexpected(nx, ":")
		}
		if nx := p.peekSem(); nx != nil && nx.Is(",") {
			p.takeSem(d)
			continue
		}
		break
	}
	p.closeGroup(d, "}")
	return d
}

// parseGetNode parses `$Path/To/Node` or `$"literal path"`.
func (p *parser) parseGetNode() cst.Expression {
	g := &cst.GetNodeExpr{}
	p.takeSem(g) // $
	if t := p.peekSem(); t != nil && t.Kind == lexis.String {
		tok := p.takeSem(g)
		g.Path = stringTokenContent(tok)
		return g
	}
	var segments []string
	for {
		t := p.peekSem()
		if t == nil || (t.Kind != lexis.Identifier && !t.Is("%")) {
			break
		}
		if t.Is("%") {
			p.takeSem(g)
			t = p.peekSem()
			if t == nil || t.Kind != lexis.Identifier {
				break
			}
		}
		segments = append(segments, p.takeSem(g).Literal)
		if nx := p.cur(); nx != nil && nx.Is("/") {
			p.take(g)
			continue
		}
		break
	}
	if len(segments) == 0 {
		p.reportUnexpected(p.peekSem(), "node path")
	}
	g.Path = strings.Join(segments, "/")
	return g
}

// parseUniqueNode parses `%UniqueName`.
func (p *parser) parseUniqueNode() cst.Expression {
	u := &cst.UniqueNodeExpr{}
	p.takeSem(u) // %
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		u.Name = p.takeSem(u).Literal
	} else {
		p.reportUnexpected(t, "unique node name")
	}
	return u
}

// parseNodePath parses `^"Path"`.
func (p *parser) parseNodePath() cst.Expression {
	n := &cst.NodePathExpr{}
	p.takeSem(n) // ^
	if t := p.peekSem(); t != nil && t.Kind == lexis.String {
		n.Value = p.takeSem(n)
	} else {
		p.reportUnexpected(t, "node path string")
	}
	return n
}

// parseStringName parses `&"name"`.
func (p *parser) parseStringName() cst.Expression {
	s := &cst.StringNameExpr{}
	p.takeSem(s) // &
	if t := p.peekSem(); t != nil && t.Kind == lexis.String {
		s.Value = p.takeSem(s)
	} else {
		p.reportUnexpected(t, "string name literal")
	}
	return s
}

// parseLambda parses an anonymous function expression.
func (p *parser) parseLambda() cst.Expression {
	l := &cst.LambdaExpr{}
	p.takeSem(l) // func
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		l.Name = p.takeSem(l)
	}
	if t := p.peekSem(); t != nil && t.Is("(") {
		l.Params = p.parseParameterList(l)
	}
	if t := p.peekSem(); t != nil && t.Is("->") {
		p.takeSem(l)
		l.ReturnType = p.parseType(l)
	}
	if p.expect(l, ":") {
		l.Body = p.parseLambdaBody(l)
	}
	return l
}

// parseLambdaBody parses the lambda's inline statement or indented
// block. The block depth is derived from the lambda's own line.
func (p *parser) parseLambdaBody(l *cst.LambdaExpr) *cst.StatementsListNode {
	depth := 0
	if first := cst.FirstToken(l); first != nil {
		depth = p.depthOfLine(first.Line)
	}
	saved := p.groupDepth
	p.groupDepth = 0
	body := p.parseBlock(l, depth)
	p.groupDepth = saved
	return body
}

// depthOfLine finds the indentation depth of the given source line.
func (p *parser) depthOfLine(line int) int {
	for _, t := range p.toks {
		if t.Line > line {
			break
		}
		if t.Line == line && t.Kind == lexis.Indentation {
			return lexis.MeasureIndent(t.Literal, p.spaceUnit).Depth
		}
	}
	return 0
}

// stringTokenContent strips delimiters from a string token literal.
func stringTokenContent(t *lexis.Token) string {
	lit := t.Literal
	switch t.Quote {
	case lexis.QuoteTripleSingle, lexis.QuoteTripleDouble:
		if len(lit) >= 6 {
			return lit[3 : len(lit)-3]
		}
	case lexis.QuoteSingle, lexis.QuoteDouble:
		if len(lit) >= 2 && strings.ContainsRune("\"'", rune(lit[len(lit)-1])) {
			return lit[1 : len(lit)-1]
		}
		if len(lit) >= 1 {
			return lit[1:]
		}
	}
	return lit
}
