package parser

import (
	"fmt"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lexis"
)

// parseClassBody consumes class members at the given indentation
// depth until a dedent or EOF. Deeper lines are accepted where they
// stand; the indentation validator reports them.
func (p *parser) parseClassBody(class *cst.ClassNode, depth int) {
	var pending []*cst.AnnotationNode
	for p.pos < len(p.toks) {
		if p.lineIsBlank() {
			p.absorbBlankLine(class)
			continue
		}
		t := p.cur()
		if t.Kind == lexis.Indentation {
			if p.lineDepth().Depth < depth {
				return
			}
			p.take(class)
		} else if depth > 0 {
			return
		}
		p.parseMember(class, depth, &pending)
		p.flushTrivia(class)
		if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
			p.take(class)
		}
	}
}

// parseMember parses one member line, attaching the results to class.
// pending carries standalone annotations forward to the declaration
// they decorate.
func (p *parser) parseMember(class *cst.ClassNode, depth int, pending *[]*cst.AnnotationNode) {
	var owned []*cst.AnnotationNode

	for {
		t := p.peekSem()
		if t == nil {
			for _, a := range owned {
				p.addMember(class, a)
			}
			return
		}
		// Same-line annotations only decorate declarations; anything
		// else flushes them into the class so their tokens survive.
		if len(owned) > 0 && !t.Is("@") && !t.Is("var") && !t.Is("const") &&
			!t.Is("func") && !t.Is("static") {
			for _, a := range owned {
				p.addMember(class, a)
			}
			owned = nil
		}
		switch {
		case t.Is("extends"):
			p.addMember(class, p.parseExtends())
			return
		case t.Is("class_name"):
			p.parseClassName(class)
			return
		case t.Is("tool"):
			tool := &cst.ToolNode{}
			p.takeSem(tool)
			p.addMember(class, tool)
			return
		case t.Is("@"):
			ann := p.parseAnnotation()
			if ann == nil {
				return
			}
			if tool, ok := ann.(*cst.ToolNode); ok {
				p.addMember(class, tool)
				return
			}
			a := ann.(*cst.AnnotationNode)
			if p.atLineEnd() {
				// Standalone annotation line; decorates the next
				// declaration.
				p.addMember(class, a)
				*pending = append(*pending, a)
				return
			}
			owned = append(owned, a)
			continue
		case t.Is("signal"):
			p.addMember(class, p.parseSignal())
			return
		case t.Is("enum"):
			p.addMember(class, p.parseEnum())
			return
		case t.Is("static"):
			p.parseStaticMember(class, depth, p.takeAnnotations(pending, owned))
			return
		case t.Is("func"):
			p.addMember(class, p.parseMethod(depth, false, p.takeAnnotations(pending, owned)))
			return
		case t.Is("var"), t.Is("const"):
			p.addMember(class, p.parseVariable(depth, false, false, p.takeAnnotations(pending, owned)))
			return
		case t.Is("class"):
			p.addMember(class, p.parseInnerClass(depth))
			return
		default:
			p.parseInvalidLine(class, t)
			return
		}
	}
}

// takeAnnotations merges held standalone annotations with same-line
// ones; standalone nodes already live in the class form, same-line
// ones are attached by the declaration parser.
func (p *parser) takeAnnotations(pending *[]*cst.AnnotationNode, owned []*cst.AnnotationNode) memberAnnotations {
	all := append([]*cst.AnnotationNode{}, *pending...)
	*pending = nil
	return memberAnnotations{refs: all, owned: owned}
}

// memberAnnotations splits a declaration's annotations into references
// (standalone lines owned by the class form) and owned nodes (same
// line, attached into the declaration form).
type memberAnnotations struct {
	refs  []*cst.AnnotationNode
	owned []*cst.AnnotationNode
}

func (a memberAnnotations) all() []*cst.AnnotationNode {
	return append(append([]*cst.AnnotationNode{}, a.refs...), a.owned...)
}

// addMember attaches m to the class form and records it.
func (p *parser) addMember(class *cst.ClassNode, m cst.Node) {
	if m == nil {
		return
	}
	cst.Attach(class, m)
	class.AddMember(m)
}

// parseInvalidLine preserves an unrecognized member line verbatim.
func (p *parser) parseInvalidLine(class *cst.ClassNode, at *lexis.Token) {
	p.report(diag.CodeUnexpectedToken, diag.SeverityError,
		fmt.Sprintf("unexpected %q at class scope", at.Literal), at)
	inv := &cst.InvalidNode{}
	for p.pos < len(p.toks) && p.cur().Kind != lexis.Newline {
		p.take(inv)
	}
	p.addMember(class, inv)
}

// parseExtends parses `extends Identifier`, `extends A.B` or
// `extends "res://base.gd"`.
func (p *parser) parseExtends() *cst.ExtendsNode {
	ext := &cst.ExtendsNode{}
	p.takeSem(ext)
	ext.Target = p.parseType(ext)
	return ext
}

// parseClassName parses `class_name N`, with an optional trailing
// extends clause on the same line.
func (p *parser) parseClassName(class *cst.ClassNode) {
	cn := &cst.ClassNameNode{}
	p.takeSem(cn)
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		cn.Name = p.takeSem(cn)
	} else {
		p.reportUnexpected(t, "class name")
	}
	p.addMember(class, cn)
	if t := p.peekSem(); t != nil && t.Is("extends") {
		p.addMember(class, p.parseExtends())
	}
}

// parseAnnotation parses `@name` or `@name(args)`. `@tool` comes back
// as a ToolNode.
func (p *parser) parseAnnotation() cst.Node {
	probe := p.semIndex()
	if probe+1 < len(p.toks) && p.toks[probe+1].Is("tool") {
		tool := &cst.ToolNode{}
		p.takeSem(tool) // @
		p.take(tool)    // tool
		return tool
	}
	ann := &cst.AnnotationNode{}
	p.takeSem(ann) // @
	t := p.peekSem()
	if t == nil || (t.Kind != lexis.Identifier && t.Kind != lexis.Keyword) {
		p.reportUnexpected(t, "annotation name")
		return ann
	}
	ann.Name = p.takeSem(ann)
	if nx := p.peekSem(); nx != nil && nx.Is("(") {
		p.takeSem(ann)
		p.groupDepth++
		p.parseExpressionList(ann, &ann.Args, ")")
		p.closeGroup(ann, ")")
	}
	return ann
}

// parseSignal parses `signal name` with an optional parameter list.
func (p *parser) parseSignal() *cst.SignalNode {
	sig := &cst.SignalNode{}
	p.takeSem(sig)
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		sig.Name = p.takeSem(sig)
	} else {
		p.reportUnexpected(t, "signal name")
	}
	if t := p.peekSem(); t != nil && t.Is("(") {
		sig.Params = p.parseParameterList(sig)
	}
	return sig
}

// parseEnum parses a named or anonymous enum block.
func (p *parser) parseEnum() *cst.EnumNode {
	enum := &cst.EnumNode{}
	p.takeSem(enum)
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		enum.Name = p.takeSem(enum)
	}
	if !p.expect(enum, "{") {
		return enum
	}
	p.groupDepth++
	for {
		t := p.peekSem()
		if t == nil || t.Is("}") {
			break
		}
		if t.Kind != lexis.Identifier {
			p.reportUnexpected(t, "enum value name")
			inv := &cst.InvalidNode{}
			p.takeSem(inv)
			cst.Attach(enum, inv)
			continue
		}
		val := &cst.EnumValueNode{}
		val.Name = p.takeSem(val)
		if nx := p.peekSem(); nx != nil && nx.Is("=") {
			p.takeSem(val)
			val.Value = p.parseExpression(val)
		}
		cst.Attach(enum, val)
		enum.Values = append(enum.Values, val)
		if nx := p.peekSem(); nx != nil && nx.Is(",") {
			p.takeSem(enum)
			continue
		}
		break
	}
	p.closeGroup(enum, "}")
	return enum
}

// parseStaticMember parses `static func` or `static var`.
func (p *parser) parseStaticMember(class *cst.ClassNode, depth int, anns memberAnnotations) {
	nx := p.peekSemAfter()
	if nx != nil && nx.Is("var") {
		p.addMember(class, p.parseVariable(depth, true, false, anns))
		return
	}
	p.addMember(class, p.parseMethod(depth, true, anns))
}

// peekSemAfter returns the semantic token after the next one.
func (p *parser) peekSemAfter() *lexis.Token {
	i := p.semIndex()
	if i >= len(p.toks) {
		return nil
	}
	i++
	for i < len(p.toks) && p.isTriviaAt(i) {
		i++
	}
	if i >= len(p.toks) {
		return nil
	}
	return p.toks[i]
}

// parseMethod parses a method declaration with its body.
func (p *parser) parseMethod(depth int, static bool, anns memberAnnotations) *cst.MethodNode {
	m := &cst.MethodNode{Static: static, Annotations: anns.all()}
	for _, a := range anns.owned {
		cst.Attach(m, a)
	}
	if static {
		p.takeSem(m) // static
	}
	if !p.expect(m, "func") {
		return m
	}
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		m.Name = p.takeSem(m)
	} else {
		p.reportUnexpected(t, "method name")
	}
	if t := p.peekSem(); t != nil && t.Is("(") {
		m.Params = p.parseParameterList(m)
	}
	if t := p.peekSem(); t != nil && t.Is("->") {
		p.takeSem(m)
		m.ReturnType = p.parseType(m)
	}
	if p.expect(m, ":") {
		m.Body = p.parseBlock(m, depth)
	}
	return m
}

// parseParameterList parses `(a, b: T, c := 0, d: T = x)`.
func (p *parser) parseParameterList(owner cst.Node) *cst.ParameterListNode {
	pl := &cst.ParameterListNode{}
	cst.Attach(owner, pl)
	p.takeSem(pl) // (
	p.groupDepth++
	for {
		t := p.peekSem()
		if t == nil || t.Is(")") {
			break
		}
		if t.Kind != lexis.Identifier {
			p.reportUnexpected(t, "parameter name")
			inv := &cst.InvalidNode{}
			p.takeSem(inv)
			cst.Attach(pl, inv)
			continue
		}
		param := &cst.ParameterNode{}
		param.Name = p.takeSem(param)
		if nx := p.peekSem(); nx != nil && nx.Is(":=") {
			p.takeSem(param)
			param.Infer = true
			param.Default = p.parseExpression(param)
		} else {
			if nx := p.peekSem(); nx != nil && nx.Is(":") {
				p.takeSem(param)
				param.Type = p.parseType(param)
			}
			if nx := p.peekSem(); nx != nil && nx.Is("=") {
				p.takeSem(param)
				param.Default = p.parseExpression(param)
			}
		}
		cst.Attach(pl, param)
		pl.Params = append(pl.Params, param)
		if nx := p.peekSem(); nx != nil && nx.Is(",") {
			p.takeSem(pl)
			continue
		}
		break
	}
	p.closeGroup(pl, ")")
	return pl
}

// parseVariable parses a var/const declaration, including the `:=`
// inference form and property accessors on class-level vars.
func (p *parser) parseVariable(depth int, static, local bool, anns memberAnnotations) *cst.VariableNode {
	v := &cst.VariableNode{Static: static, Local: local, Annotations: anns.all()}
	for _, a := range anns.owned {
		cst.Attach(v, a)
	}
	if static {
		p.takeSem(v)
	}
	kw := p.takeSem(v) // var or const
	if kw != nil && kw.Is("const") {
		v.Const = true
	}
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		v.Name = p.takeSem(v)
	} else {
		p.reportUnexpected(t, "variable name")
	}
	if t := p.peekSem(); t != nil && t.Is(":=") {
		p.takeSem(v)
		v.Infer = true
		v.Value = p.parseExpression(v)
		return v
	}
	if t := p.peekSem(); t != nil && t.Is(":") && (local || v.Const || !p.colonStartsAccessors()) {
		p.takeSem(v)
		v.Type = p.parseType(v)
	}
	if t := p.peekSem(); t != nil && t.Is("=") {
		p.takeSem(v)
		v.Value = p.parseExpression(v)
	}
	if t := p.peekSem(); t != nil && t.Is(":") && !local && !v.Const {
		p.parseAccessors(v, depth)
	}
	return v
}

// colonStartsAccessors distinguishes `var x:` introducing a property
// accessor block from a type annotation: a colon followed by a line
// end, or directly by get/set, opens accessors.
func (p *parser) colonStartsAccessors() bool {
	i := p.semIndex()
	if i >= len(p.toks) || !p.toks[i].Is(":") {
		return false
	}
	i++
	for i < len(p.toks) && p.isTriviaAt(i) {
		i++
	}
	if i >= len(p.toks) {
		return true
	}
	t := p.toks[i]
	if t.Kind == lexis.Newline {
		return true
	}
	return t.Kind == lexis.Identifier && (t.Literal == "get" || t.Literal == "set")
}

// parseAccessors parses a property's accessor clause: the inline
// `get = _g, set = _s` form or an indented block of get/set bodies.
func (p *parser) parseAccessors(v *cst.VariableNode, depth int) {
	p.takeSem(v) // :
	if !p.atLineEnd() {
		for {
			acc := p.parseInlineAccessor(v, depth)
			if acc == nil {
				return
			}
			v.Accessors = append(v.Accessors, acc)
			if t := p.peekSem(); t != nil && t.Is(",") {
				p.takeSem(v)
				continue
			}
			return
		}
	}
	p.flushTrivia(v)
	if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
		p.take(v)
	}
	for p.pos < len(p.toks) {
		if p.lineIsBlank() {
			p.absorbBlankLine(v)
			continue
		}
		if p.cur().Kind != lexis.Indentation || p.lineDepth().Depth < depth+1 {
			return
		}
		kw := p.peekSem()
		if kw == nil || kw.Kind != lexis.Identifier || (kw.Literal != "get" && kw.Literal != "set") {
			return
		}
		p.take(v) // indentation
		acc := p.parseBlockAccessor(v, depth+1)
		v.Accessors = append(v.Accessors, acc)
		// The delegating form allows both accessors on one line.
		for acc.Target != nil {
			t := p.peekSem()
			if t == nil || !t.Is(",") {
				break
			}
			p.takeSem(v)
			acc = p.parseBlockAccessor(v, depth+1)
			v.Accessors = append(v.Accessors, acc)
		}
		p.flushTrivia(v)
		if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
			p.take(v)
		}
	}
}

// parseInlineAccessor parses `get = name` / `set = name`.
func (p *parser) parseInlineAccessor(v *cst.VariableNode, depth int) *cst.PropertyAccessorNode {
	t := p.peekSem()
	if t == nil || t.Kind != lexis.Identifier || (t.Literal != "get" && t.Literal != "set") {
		p.reportUnexpected(t, "get or set")
		return nil
	}
	acc := &cst.PropertyAccessorNode{}
	cst.Attach(v, acc)
	acc.Keyword = p.takeSem(acc)
	if nx := p.peekSem(); nx != nil && nx.Is(":") {
		// Inline block form: `get: return _x` after a type clause.
		p.takeSem(acc)
		acc.Body = p.parseBlock(acc, depth)
		return acc
	}
	if !p.expect(acc, "=") {
		return acc
	}
	if nx := p.peekSem(); nx != nil && nx.Kind == lexis.Identifier {
		acc.Target = p.takeSem(acc)
	} else {
		p.reportUnexpected(nx, "accessor method name")
	}
	return acc
}

// parseBlockAccessor parses `get:` or `set(value):` with its body.
func (p *parser) parseBlockAccessor(v *cst.VariableNode, depth int) *cst.PropertyAccessorNode {
	acc := &cst.PropertyAccessorNode{}
	cst.Attach(v, acc)
	acc.Keyword = p.takeSem(acc)
	if t := p.peekSem(); t != nil && t.Is("(") {
		acc.Params = p.parseParameterList(acc)
	}
	if t := p.peekSem(); t != nil && t.Is("=") {
		p.takeSem(acc)
		if nx := p.peekSem(); nx != nil && nx.Kind == lexis.Identifier {
			acc.Target = p.takeSem(acc)
		}
		return acc
	}
	if p.expect(acc, ":") {
		acc.Body = p.parseBlock(acc, depth)
	}
	return acc
}

// parseInnerClass parses `class Name [extends T]:` with a nested body.
func (p *parser) parseInnerClass(depth int) *cst.ClassNode {
	inner := &cst.ClassNode{}
	p.takeSem(inner) // class
	if t := p.peekSem(); t != nil && t.Kind == lexis.Identifier {
		inner.Name = p.takeSem(inner)
	} else {
		p.reportUnexpected(t, "class name")
	}
	if t := p.peekSem(); t != nil && t.Is("extends") {
		ext := p.parseExtends()
		cst.Attach(inner, ext)
		inner.AddMember(ext)
	}
	if !p.expect(inner, ":") {
		return inner
	}
	p.flushTrivia(inner)
	if nl := p.cur(); nl != nil && nl.Kind == lexis.Newline {
		p.take(inner)
	}
	p.parseClassBody(inner, depth+1)
	return inner
}

// closeGroup consumes the closing delimiter and leaves the bracket
// group. A missing delimiter is diagnosed without aborting.
func (p *parser) closeGroup(owner cst.Node, closer string) {
	if t := p.peekSem(); t != nil && t.Is(closer) {
		p.takeSem(owner)
	} else {
		p.reportUnexpected(t, closer)
	}
	p.groupDepth--
}
