package parser

import (
	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// parseType parses a written type: an identifier sequence (`int`,
// `Outer.Inner`), a generic container (`Array[T]`,
// `Dictionary[K, V]`) or a quoted resource path. The node is attached
// to owner.
func (p *parser) parseType(owner cst.Node) *cst.TypeNode {
	tn := &cst.TypeNode{}
	cst.Attach(owner, tn)

	t := p.peekSem()
	if t == nil {
		p.reportUnexpected(t, "type name")
		return tn
	}
	if t.Kind == lexis.String {
		tn.Path = p.takeSem(tn)
		return tn
	}
	if t.Kind != lexis.Identifier && !t.Is("void") {
		p.reportUnexpected(t, "type name")
		return tn
	}
	tn.Segments = append(tn.Segments, p.takeSem(tn))
	for {
		nx := p.peekSem()
		if nx == nil || !nx.Is(".") {
			break
		}
		p.takeSem(tn)
		seg := p.peekSem()
		if seg == nil || seg.Kind != lexis.Identifier {
			p.reportUnexpected(seg, "type name")
			return tn
		}
		tn.Segments = append(tn.Segments, p.takeSem(tn))
	}

	head := tn.Segments[0].Literal
	if nx := p.peekSem(); nx != nil && nx.Is("[") && (head == "Array" || head == "Dictionary") {
		p.takeSem(tn)
		p.groupDepth++
		if head == "Dictionary" {
			tn.KeyType = p.parseType(tn)
			if c := p.peekSem(); c != nil && c.Is(",") {
				p.takeSem(tn)
				tn.ValueType = p.parseType(tn)
			}
		} else {
			tn.ValueType = p.parseType(tn)
		}
		p.closeGroup(tn, "]")
	}
	return tn
}
