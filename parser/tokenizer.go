package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lexis"
)

// tokenizer is the character-level state machine. It is total: every
// byte of input lands in exactly one token, so concatenating the
// literals reproduces the source. Malformed input degrades to Invalid
// tokens plus diagnostics; it never stops the scan.
type tokenizer struct {
	src    string
	pos    int
	line   int
	col    int
	atBOL  bool
	tokens []*lexis.Token
	diags  []diag.Diagnostic
}

// tokenize scans src completely.
func tokenize(src string) ([]*lexis.Token, []diag.Diagnostic) {
	t := &tokenizer{src: src, line: 1, atBOL: true}
	for t.pos < len(t.src) {
		t.scanOne()
	}
	return t.tokens, t.diags
}

// peekRune decodes the rune at the current position.
func (t *tokenizer) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(t.src[t.pos:])
}

// emit records a token starting at (line, col) and advances position
// bookkeeping over its literal.
func (t *tokenizer) emit(kind lexis.TokenKind, literal string) *lexis.Token {
	tok := &lexis.Token{Kind: kind, Literal: literal, Line: t.line, Column: t.col}
	t.tokens = append(t.tokens, tok)
	for _, r := range literal {
		if r == '\n' {
			t.line++
			t.col = 0
		} else {
			t.col++
		}
	}
	t.pos += len(literal)
	return tok
}

// report appends a tokenizer diagnostic at the current position.
func (t *tokenizer) report(code string, sev diag.Severity, msg string) {
	t.diags = append(t.diags, diag.New(code, sev, msg, t.line, t.col))
}

// scanOne consumes exactly one token.
func (t *tokenizer) scanOne() {
	r, _ := t.peekRune()

	if t.atBOL && lexis.IsSpace(r) {
		t.scanIndentation()
		return
	}
	t.atBOL = false

	switch {
	case r == '\n':
		t.emit(lexis.Newline, "\n")
		t.atBOL = true
	case r == '\r':
		t.scanCarriage()
	case lexis.IsSpace(r):
		t.scanRun(lexis.Space, lexis.IsSpace)
	case r == '#':
		t.scanComment()
	case lexis.IsQuote(r):
		t.scanString()
	case lexis.IsIdentStart(r):
		t.scanIdentifier()
	case lexis.IsDigit(r) || (r == '.' && t.nextIsDigit()):
		t.scanNumber()
	default:
		if p := lexis.MatchPunctuator(t.src[t.pos:]); p != "" {
			t.emit(lexis.Punctuator, p)
			return
		}
		t.report(diag.CodeInvalidCharacter, diag.SeverityError,
			fmt.Sprintf("invalid character %q", r))
		t.emit(lexis.Invalid, string(r))
	}
}

// nextIsDigit looks one rune past the current one.
func (t *tokenizer) nextIsDigit() bool {
	_, w := t.peekRune()
	if t.pos+w >= len(t.src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t.src[t.pos+w:])
	return lexis.IsDigit(r)
}

// scanIndentation captures a line's leading whitespace as one run.
func (t *tokenizer) scanIndentation() {
	end := t.pos
	for end < len(t.src) && (t.src[end] == ' ' || t.src[end] == '\t') {
		end++
	}
	t.emit(lexis.Indentation, t.src[t.pos:end])
	t.atBOL = false
}

// scanCarriage handles CR: CRLF is one newline token, a lone CR at end
// of file is tolerated, a lone CR elsewhere is invalid.
func (t *tokenizer) scanCarriage() {
	if t.pos+1 < len(t.src) && t.src[t.pos+1] == '\n' {
		t.emit(lexis.Newline, "\r\n")
		t.atBOL = true
		return
	}
	if t.pos+1 == len(t.src) {
		t.emit(lexis.Newline, "\r")
		return
	}
	t.report(diag.CodeStrayCarriage, diag.SeverityError, "carriage return without line feed")
	t.emit(lexis.Invalid, "\r")
}

// scanRun consumes a maximal run of runes satisfying pred.
func (t *tokenizer) scanRun(kind lexis.TokenKind, pred func(rune) bool) {
	end := t.pos
	for end < len(t.src) {
		r, w := utf8.DecodeRuneInString(t.src[end:])
		if !pred(r) {
			break
		}
		end += w
	}
	t.emit(kind, t.src[t.pos:end])
}

// scanComment consumes from '#' to just before the newline.
func (t *tokenizer) scanComment() {
	end := strings.IndexAny(t.src[t.pos:], "\r\n")
	if end < 0 {
		end = len(t.src) - t.pos
	}
	t.emit(lexis.Comment, t.src[t.pos:t.pos+end])
}

// scanIdentifier consumes an identifier or keyword.
func (t *tokenizer) scanIdentifier() {
	end := t.pos
	for end < len(t.src) {
		r, w := utf8.DecodeRuneInString(t.src[end:])
		if !lexis.IsIdentPart(r) {
			break
		}
		end += w
	}
	name := t.src[t.pos:end]
	kind := lexis.Identifier
	if lexis.IsKeyword(name) {
		kind = lexis.Keyword
	}
	t.emit(kind, name)
}

// scanNumber consumes decimal, hex, binary and float forms with
// underscore separators and exponents.
func (t *tokenizer) scanNumber() {
	s := t.src
	end := t.pos

	if end+1 < len(s) && s[end] == '0' && (s[end+1] == 'x' || s[end+1] == 'X') {
		end += 2
		for end < len(s) && (lexis.IsHexDigit(rune(s[end])) || s[end] == '_') {
			end++
		}
		t.emit(lexis.Number, s[t.pos:end])
		return
	}
	if end+1 < len(s) && s[end] == '0' && (s[end+1] == 'b' || s[end+1] == 'B') {
		end += 2
		for end < len(s) && (s[end] == '0' || s[end] == '1' || s[end] == '_') {
			end++
		}
		t.emit(lexis.Number, s[t.pos:end])
		return
	}

	digits := func() {
		for end < len(s) && (lexis.IsDigit(rune(s[end])) || s[end] == '_') {
			end++
		}
	}
	digits()
	if end < len(s) && s[end] == '.' && end+1 < len(s) && lexis.IsDigit(rune(s[end+1])) {
		end++
		digits()
	} else if end < len(s) && s[end] == '.' && end == t.pos {
		// leading-dot float: .5
		end++
		digits()
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		mark := end
		end++
		if end < len(s) && (s[end] == '+' || s[end] == '-') {
			end++
		}
		if end < len(s) && lexis.IsDigit(rune(s[end])) {
			digits()
		} else {
			end = mark
		}
	}
	t.emit(lexis.Number, s[t.pos:end])
}

// scanString consumes a string literal, preserving delimiters and
// escapes verbatim. Triple-quoted strings may span lines; a
// single-line string ending at a newline or EOF without its closing
// quote is kept as-is with a diagnostic.
func (t *tokenizer) scanString() {
	s := t.src
	q := s[t.pos]

	if t.pos+2 < len(s) && s[t.pos+1] == q && s[t.pos+2] == q {
		t.scanTripleString(q)
		return
	}

	style := lexis.QuoteDouble
	if q == '\'' {
		style = lexis.QuoteSingle
	}
	end := t.pos + 1
	for end < len(s) {
		c := s[end]
		if c == '\\' && end+1 < len(s) {
			end += 2
			continue
		}
		if c == q {
			end++
			tok := t.emit(lexis.String, s[t.pos:end])
			tok.Quote = style
			return
		}
		if c == '\n' || c == '\r' {
			break
		}
		end++
	}
	t.report(diag.CodeUnterminatedString, diag.SeverityError, "unterminated string literal")
	tok := t.emit(lexis.String, s[t.pos:end])
	tok.Quote = style
}

// scanTripleString consumes a triple-quoted literal, internal newlines
// included.
func (t *tokenizer) scanTripleString(q byte) {
	s := t.src
	style := lexis.QuoteTripleDouble
	if q == '\'' {
		style = lexis.QuoteTripleSingle
	}
	end := t.pos + 3
	for end < len(s) {
		if s[end] == '\\' && end+1 < len(s) {
			end += 2
			continue
		}
		if s[end] == q && end+2 < len(s) && s[end+1] == q && s[end+2] == q {
			end += 3
			tok := t.emit(lexis.String, s[t.pos:end])
			tok.Quote = style
			return
		}
		end++
	}
	t.report(diag.CodeUnterminatedString, diag.SeverityError, "unterminated string literal")
	tok := t.emit(lexis.String, s[t.pos:end])
	tok.Quote = style
}
