package cst

import (
	"iter"
	"strings"

	"github.com/termfx/gdtk/lexis"
)

// Serialize writes n's subtree back to source text. For an unmodified
// parse the result is byte-identical to the input.
func Serialize(n Node) string {
	var sb strings.Builder
	n.Form().write(&sb)
	return sb.String()
}

// AllTokens returns a lazy in-order iterator over every token of n's
// subtree, interstitials included.
func AllTokens(n Node) iter.Seq[*lexis.Token] {
	return func(yield func(*lexis.Token) bool) {
		yieldTokens(n, yield)
	}
}

func yieldTokens(n Node, yield func(*lexis.Token) bool) bool {
	for _, it := range n.Form().Items() {
		if it.Token != nil {
			if !yield(it.Token) {
				return false
			}
			continue
		}
		if !yieldTokens(it.Child, yield) {
			return false
		}
	}
	return true
}

// InvalidTokens returns a lazy iterator over the invalid tokens of n's
// subtree, in source order.
func InvalidTokens(n Node) iter.Seq[*lexis.Token] {
	return func(yield func(*lexis.Token) bool) {
		for t := range AllTokens(n) {
			if t.Kind == lexis.Invalid {
				if !yield(t) {
					return
				}
			}
		}
	}
}
