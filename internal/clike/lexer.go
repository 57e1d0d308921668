package clike

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies tokens.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokNumber
	TokString
	TokRegex
	TokPunct
)

// Token is one lexeme. Strings keep their opening delimiter in Quote and
// their content in Value.
type Token struct {
	Kind  TokenKind
	Text  string
	Value string
	Quote string
	Line  int
	// Space is set when whitespace or a comment precedes the token.
	Space bool
	// Newline is set when a line break precedes the token.
	Newline bool
}

// Is reports whether t is the punctuator or keyword text.
func (t Token) Is(text string) bool {
	return (t.Kind == TokPunct || t.Kind == TokKeyword) && t.Text == text
}

// puncts is ordered longest first so the lexer takes the longest match.
var puncts = []string{
	">>>=",
	"===", "!==", "**=", "<<=", ">>=", ">>>", "...", "??=", "&&=", "||=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "<<", ">>", "**", "??", "?.", "::", "->",
}

// regexAfter lists keywords after which a slash starts a regex literal.
var regexAfter = set(
	"return", "typeof", "case", "do", "else", "in", "of", "new", "delete", "void",
	"throw", "instanceof", "yield", "await",
)

type lexer struct {
	src  string
	d    *Dialect
	i    int
	line int
	prev *Token
}

// Lex splits src into tokens. It never fails: unterminated strings and
// comments run to the end of input and unknown characters become
// single-character punctuators. The last token is always TokEOF.
func Lex(src string, d *Dialect) []Token {
	lx := &lexer{src: src, d: d, line: 1}
	var toks []Token
	for {
		tok := lx.next()
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
		lx.prev = &toks[len(toks)-1]
	}
}

func (lx *lexer) peekByte(k int) byte {
	if lx.i+k < len(lx.src) {
		return lx.src[lx.i+k]
	}
	return 0
}

func (lx *lexer) next() Token {
	space, newline := lx.skip()
	tok := Token{Line: lx.line, Space: space || lx.prev == nil, Newline: newline}
	if lx.i >= len(lx.src) {
		tok.Kind = TokEOF
		return tok
	}

	start := lx.i
	c := lx.src[lx.i]
	r, _ := utf8.DecodeRuneInString(lx.src[lx.i:])

	switch {
	case lx.d.Verbatim && (c == '@' || c == '$') && lx.verbatimStart():
		lx.verbatim(&tok)
	case c == '"' || c == '\'':
		if lx.d.Verbatim && strings.HasPrefix(lx.src[lx.i:], `"""`) {
			lx.raw(&tok)
		} else {
			lx.quoted(&tok, string(c))
		}
	case c == '`' && lx.d.Templates:
		lx.template(&tok)
	case isIdentStart(r) || (c == '@' && lx.d.Verbatim && isIdentStart(rune(lx.peekByte(1)))):
		lx.i++
		lx.ident()
		tok.Text = lx.src[start:lx.i]
		tok.Kind = TokIdent
		if lx.d.IsKeyword(tok.Text) {
			tok.Kind = TokKeyword
		}
	case c == '#' && lx.d.HashNames && isIdentStart(rune(lx.peekByte(1))):
		lx.i++
		lx.ident()
		tok.Text = lx.src[start:lx.i]
		tok.Kind = TokIdent
	case isDigit(c) || (c == '.' && isDigit(lx.peekByte(1))):
		lx.number()
		tok.Text = lx.src[start:lx.i]
		tok.Kind = TokNumber
	case c == '/' && lx.d.RegexLiterals && lx.regexAllowed() && lx.regex():
		tok.Text = lx.src[start:lx.i]
		tok.Kind = TokRegex
	default:
		tok.Kind = TokPunct
		tok.Text = lx.punct()
	}
	return tok
}

// skip consumes whitespace, comments and preprocessor lines.
func (lx *lexer) skip() (space, newline bool) {
	lineStart := lx.prev == nil
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch {
		case c == '\n':
			lx.line++
			lx.i++
			space, newline, lineStart = true, true, true
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			lx.i++
			space = true
		case c == '/' && lx.peekByte(1) == '/':
			for lx.i < len(lx.src) && lx.src[lx.i] != '\n' {
				lx.i++
			}
			space = true
		case c == '/' && lx.peekByte(1) == '*':
			lx.i += 2
			for lx.i < len(lx.src) && !(lx.src[lx.i] == '*' && lx.peekByte(1) == '/') {
				if lx.src[lx.i] == '\n' {
					lx.line++
					newline = true
				}
				lx.i++
			}
			lx.i = min(lx.i+2, len(lx.src))
			space = true
		case c == '#' && lx.d.Preprocessor && lineStart:
			for lx.i < len(lx.src) && lx.src[lx.i] != '\n' {
				lx.i++
			}
			space = true
		default:
			if c >= utf8.RuneSelf {
				r, size := utf8.DecodeRuneInString(lx.src[lx.i:])
				if unicode.IsSpace(r) {
					lx.i += size
					space = true
					continue
				}
			}
			return space, newline
		}
	}
	return space, newline
}

func (lx *lexer) ident() {
	for lx.i < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.i:])
		if !isIdentPart(r) {
			return
		}
		lx.i += size
	}
}

func (lx *lexer) number() {
	hex := lx.src[lx.i] == '0' && (lx.peekByte(1) == 'x' || lx.peekByte(1) == 'X')
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch {
		case isDigit(c) || isLetter(c) || c == '_':
			lx.i++
		case c == '.' && isDigit(lx.peekByte(1)):
			lx.i++
		case (c == '+' || c == '-') && !hex && lx.i > 0 && (lx.src[lx.i-1] == 'e' || lx.src[lx.i-1] == 'E'):
			lx.i++
		default:
			return
		}
	}
}

// quoted lexes a '...' or "..." literal. A line break ends an
// unterminated literal.
func (lx *lexer) quoted(tok *Token, quote string) {
	lx.i++
	start := lx.i
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		if c == '\\' {
			lx.i += 2
			continue
		}
		if c == quote[0] {
			tok.Value = lx.src[start:lx.i]
			lx.i++
			lx.finishString(tok, start-1, quote)
			return
		}
		if c == '\n' {
			break
		}
		lx.i++
	}
	lx.i = min(lx.i, len(lx.src))
	tok.Value = lx.src[start:lx.i]
	lx.finishString(tok, start-1, quote)
}

func (lx *lexer) finishString(tok *Token, start int, quote string) {
	tok.Kind = TokString
	tok.Quote = quote
	tok.Text = lx.src[start:lx.i]
	lx.line += strings.Count(tok.Text, "\n")
}

// template lexes a backtick literal, skipping over ${...} substitutions.
func (lx *lexer) template(tok *Token) {
	start := lx.i
	lx.i++
	depth := 0
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch {
		case c == '\\':
			lx.i += 2
			continue
		case c == '$' && lx.peekByte(1) == '{':
			depth++
			lx.i += 2
			continue
		case c == '}' && depth > 0:
			depth--
		case c == '`' && depth == 0:
			lx.i++
			tok.Value = lx.src[start+1 : lx.i-1]
			lx.finishString(tok, start, "`")
			return
		}
		lx.i++
	}
	lx.i = min(lx.i, len(lx.src))
	tok.Value = lx.src[start+1 : lx.i]
	lx.finishString(tok, start, "`")
}

// verbatimStart reports whether @ or $ opens a C# string prefix.
func (lx *lexer) verbatimStart() bool {
	rest := lx.src[lx.i:]
	for _, p := range []string{`$@"`, `@$"`, `@"`, `$"""`, `$"`} {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

// verbatim lexes @"..." ("" escapes a quote), $"..." and $@"..."; braces
// of interpolations may contain nested strings.
func (lx *lexer) verbatim(tok *Token) {
	start := lx.i
	for lx.src[lx.i] == '@' || lx.src[lx.i] == '$' {
		lx.i++
	}
	prefix := lx.src[start:lx.i]
	if strings.HasPrefix(lx.src[lx.i:], `"""`) {
		lx.raw(tok)
		tok.Quote = prefix + tok.Quote
		tok.Text = lx.src[start:lx.i]
		return
	}
	isVerbatim := strings.Contains(prefix, "@")
	interpolated := strings.Contains(prefix, "$")
	lx.i++ // opening quote
	body := lx.i
	depth := 0
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch {
		case c == '\\' && !isVerbatim:
			lx.i += 2
			continue
		case c == '{' && interpolated:
			if lx.peekByte(1) == '{' {
				lx.i += 2
				continue
			}
			depth++
		case c == '}' && interpolated && depth > 0:
			depth--
		case c == '"' && depth > 0:
			// nested string inside an interpolation hole
			lx.i++
			for lx.i < len(lx.src) && lx.src[lx.i] != '"' && lx.src[lx.i] != '\n' {
				if lx.src[lx.i] == '\\' {
					lx.i++
				}
				lx.i++
			}
		case c == '"' && isVerbatim && lx.peekByte(1) == '"':
			lx.i += 2
			continue
		case c == '"':
			tok.Value = lx.src[body:lx.i]
			lx.i++
			lx.finishString(tok, start, prefix+`"`)
			return
		case c == '\n' && !isVerbatim:
			tok.Value = lx.src[body:lx.i]
			lx.finishString(tok, start, prefix+`"`)
			return
		}
		lx.i++
	}
	lx.i = min(lx.i, len(lx.src))
	tok.Value = lx.src[body:lx.i]
	lx.finishString(tok, start, prefix+`"`)
}

// raw lexes a C# raw string literal delimited by three or more quotes.
func (lx *lexer) raw(tok *Token) {
	start := lx.i
	n := 0
	for lx.i < len(lx.src) && lx.src[lx.i] == '"' {
		lx.i++
		n++
	}
	delim := strings.Repeat(`"`, n)
	end := strings.Index(lx.src[lx.i:], delim)
	if end < 0 {
		tok.Value = lx.src[lx.i:]
		lx.i = len(lx.src)
	} else {
		tok.Value = lx.src[lx.i : lx.i+end]
		lx.i += end + n
	}
	lx.finishString(tok, start, delim)
}

// regexAllowed reports whether a slash at the current position starts an
// operand rather than a division.
func (lx *lexer) regexAllowed() bool {
	p := lx.prev
	if p == nil {
		return true
	}
	switch p.Kind {
	case TokIdent, TokNumber, TokString, TokRegex:
		return false
	case TokKeyword:
		return regexAfter[p.Text]
	case TokPunct:
		return p.Text != ")" && p.Text != "]" && p.Text != "}" && p.Text != "++" && p.Text != "--"
	}
	return true
}

// regex consumes a regex literal; it reports false and consumes nothing
// when the literal is not closed on the same line.
func (lx *lexer) regex() bool {
	j := lx.i + 1
	inClass := false
	for j < len(lx.src) {
		c := lx.src[j]
		switch {
		case c == '\n':
			return false
		case c == '\\':
			j += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			j++
			for j < len(lx.src) && isLetter(lx.src[j]) {
				j++
			}
			lx.i = j
			return true
		}
		j++
	}
	return false
}

func (lx *lexer) punct() string {
	rest := lx.src[lx.i:]
	for _, p := range puncts {
		if strings.HasPrefix(rest, p) {
			lx.i += len(p)
			return p
		}
	}
	_, size := utf8.DecodeRuneInString(rest)
	lx.i += size
	return rest[:size]
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
