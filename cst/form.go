package cst

import (
	"strings"

	"github.com/termfx/gdtk/lexis"
)

// FormItem is one position in a form's ordered child sequence. Exactly
// one of Token or Child is set. Tokens cover both semantic slots
// (keywords, names, operators) and interstitial trivia; children are
// nested nodes.
type FormItem struct {
	Token *lexis.Token
	Child Node
}

// Form is the ordered storage behind every internal node: the node's
// slots and interstitials in reading order, plus an integer handler
// state slot (see SetState). Serializing a form in item order
// reproduces the exact source text the node consumed.
type Form struct {
	items []FormItem
	state int
}

// State returns the handler state stored by SetState, or zero.
func (f *Form) State() int { return f.state }

// SetState stores the handler state. It does not check that states
// only move forward, and the parser does not call it.
func (f *Form) SetState(s int) { f.state = s }

// Items returns the ordered item sequence. The slice is owned by the
// form; callers must not append to it.
func (f *Form) Items() []FormItem { return f.items }

// Len returns the number of stored items.
func (f *Form) Len() int { return len(f.items) }

// addToken appends a token slot or interstitial.
func (f *Form) addToken(t *lexis.Token) {
	if t != nil {
		f.items = append(f.items, FormItem{Token: t})
	}
}

// addChild appends a nested node.
func (f *Form) addChild(n Node) {
	if n != nil {
		f.items = append(f.items, FormItem{Child: n})
	}
}

// removeItem deletes the item at index i, preserving order.
func (f *Form) removeItem(i int) {
	f.items = append(f.items[:i], f.items[i+1:]...)
}

// write appends the form's full text to sb in item order.
func (f *Form) write(sb *strings.Builder) {
	for _, it := range f.items {
		if it.Token != nil {
			sb.WriteString(it.Token.Literal)
			continue
		}
		it.Child.Form().write(sb)
	}
}

// RemoveTokens deletes every token in victims from the forms of n's
// subtree. Formatter rules collect victims first and remove in one
// deferred pass so iteration never observes a mutating form.
func RemoveTokens(n Node, victims map[*lexis.Token]bool) {
	if len(victims) == 0 {
		return
	}
	form := n.Form()
	for i := 0; i < len(form.items); {
		it := form.items[i]
		if it.Token != nil && victims[it.Token] {
			form.removeItem(i)
			continue
		}
		if it.Child != nil {
			RemoveTokens(it.Child, victims)
		}
		i++
	}
}

// InsertTokenAfter places tok immediately after the form item holding
// anchor in owner's form. It is a no-op when anchor is not a direct
// item of owner.
func InsertTokenAfter(owner Node, anchor, tok *lexis.Token) {
	form := owner.Form()
	for i, it := range form.items {
		if it.Token != anchor {
			continue
		}
		form.items = append(form.items, FormItem{})
		copy(form.items[i+2:], form.items[i+1:])
		form.items[i+1] = FormItem{Token: tok}
		return
	}
}

// AddToken appends t to owner's form. Trivia and semantic tokens share
// the same sequence; position is everything.
func AddToken(owner Node, t *lexis.Token) {
	owner.Form().addToken(t)
}

// Attach appends child to owner's form and records owner as the
// child's parent. The parent reference never owns; ownership follows
// the form.
func Attach(owner, child Node) {
	if child == nil {
		return
	}
	owner.Form().addChild(child)
	child.setParent(owner)
}
