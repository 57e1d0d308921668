package clike

import (
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Render joins tokens into a single-line label. Whitespace from the
// source collapses to one space, and is dropped before ) ] , ; . and
// after ( [ . and a prefix !. String contents are truncated to
// flow.StringCap characters.
func Render(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && spaced(toks[i-1], t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenText(t))
	}
	return sb.String()
}

func spaced(prev, cur Token) bool {
	if !cur.Space {
		return false
	}
	if cur.Kind == TokPunct {
		switch cur.Text {
		case ")", "]", ",", ";", ".", "?.":
			return false
		}
	}
	if prev.Kind == TokPunct {
		switch prev.Text {
		case "(", "[", ".", "?.", "!":
			return false
		}
	}
	return true
}

func tokenText(t Token) string {
	if t.Kind != TokString {
		return t.Text
	}
	closing := strings.TrimLeft(t.Quote, "$@")
	return t.Quote + flow.Truncate(t.Value) + closing
}

// isOpen and isClose classify bracket punctuators.
func isOpen(t Token) bool  { return t.Is("(") || t.Is("[") || t.Is("{") }
func isClose(t Token) bool { return t.Is(")") || t.Is("]") || t.Is("}") }

// SplitTopLevel splits toks at every sep outside brackets. With angles
// set, < and > also count as brackets (generic argument lists).
func SplitTopLevel(toks []Token, sep string, angles bool) [][]Token {
	var out [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch {
		case isOpen(t) || (angles && t.Is("<")):
			depth++
		case isClose(t) || (angles && t.Is(">")):
			depth = max(depth-1, 0)
		case angles && t.Is(">>"):
			depth = max(depth-2, 0)
		case depth == 0 && t.Is(sep):
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	return append(out, toks[start:])
}

// indexTop returns the index of the first sep outside brackets, or -1.
func indexTop(toks []Token, sep string) int {
	depth := 0
	for i, t := range toks {
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth = max(depth-1, 0)
		case depth == 0 && t.Is(sep):
			return i
		}
	}
	return -1
}

var assignOps = set(
	"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", ">>>=",
	"**=", "??=", "&&=", "||=",
)

// SplitAssignment splits toks at the first top-level assignment operator.
func SplitAssignment(toks []Token) (target []Token, op string, value []Token, ok bool) {
	depth := 0
	for i, t := range toks {
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth = max(depth-1, 0)
		case depth == 0 && t.Kind == TokPunct && assignOps[t.Text]:
			if i == 0 {
				return nil, "", nil, false
			}
			return toks[:i], t.Text, toks[i+1:], true
		}
	}
	return nil, "", nil, false
}

// CallShape reports whether toks is a single call of a dotted name, such
// as `console.log(x)` or `await Console.Out.WriteLineAsync(x)`, and returns
// the callee with `?.` normalized to `.`.
func CallShape(toks []Token) (string, bool) {
	if len(toks) > 0 && toks[0].Is("await") {
		toks = toks[1:]
	}
	if len(toks) < 3 {
		return "", false
	}

	var parts []string
	i := 0
	for {
		t := toks[i]
		if t.Kind != TokIdent && !t.Is("this") && !t.Is("base") && !t.Is("super") {
			return "", false
		}
		parts = append(parts, t.Text)
		i++
		if i < len(toks) && (toks[i].Is(".") || toks[i].Is("?.")) {
			i++
			if i >= len(toks) {
				return "", false
			}
			continue
		}
		break
	}
	if i >= len(toks) || !toks[i].Is("(") {
		return "", false
	}

	depth := 0
	for j := i; j < len(toks); j++ {
		switch {
		case isOpen(toks[j]):
			depth++
		case isClose(toks[j]):
			depth--
			if depth == 0 {
				return strings.Join(parts, "."), j == len(toks)-1
			}
		}
	}
	return "", false
}

// ParamNames extracts parameter names from the tokens between the
// parentheses of a parameter list. Types, modifiers and default values
// are dropped; rest parameters keep their ... and destructuring patterns
// render whole.
func ParamNames(toks []Token) []string {
	var out []string
	for _, seg := range SplitTopLevel(toks, ",", true) {
		if i := indexTop(seg, "="); i >= 0 {
			seg = seg[:i]
		}
		if len(seg) == 0 {
			continue
		}
		switch {
		case seg[0].Is("{") || seg[0].Is("["):
			out = append(out, Render(seg))
		case seg[0].Is("..."):
			out = append(out, "..."+lastIdent(seg))
		default:
			if name := lastIdent(seg); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func lastIdent(toks []Token) string {
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].Kind == TokIdent {
			return toks[i].Text
		}
	}
	return ""
}
