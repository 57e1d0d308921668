package clike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// lex returns the tokens of src without the trailing EOF.
func lex(src string, d *Dialect) []Token {
	toks := Lex(src, d)
	return toks[:len(toks)-1]
}

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLex_EndsWithEOF(t *testing.T) {
	for _, src := range []string{"", "   ", "x", "// only a comment"} {
		toks := Lex(src, JavaScript)
		require.NotEmpty(t, toks)
		assert.Equal(t, TokEOF, toks[len(toks)-1].Kind, "src %q", src)
	}
}

func TestLex_Basics(t *testing.T) {
	toks := lex(`x = "hello"; // trailing`, JavaScript)
	require.Len(t, toks, 4)
	assert.Equal(t, TokIdent, toks[0].Kind)
	assert.Equal(t, TokPunct, toks[1].Kind)
	assert.Equal(t, TokString, toks[2].Kind)
	assert.Equal(t, "hello", toks[2].Value)
	assert.Equal(t, `"`, toks[2].Quote)
	assert.True(t, toks[3].Is(";"))
}

func TestLex_LongestPunctuator(t *testing.T) {
	toks := lex("a === b && c >>>= 1 ?. d", JavaScript)
	assert.Equal(t, []string{"a", "===", "b", "&&", "c", ">>>=", "1", "?.", "d"}, texts(toks))
}

func TestLex_Keywords(t *testing.T) {
	js := lex("class foreach", JavaScript)
	assert.Equal(t, TokKeyword, js[0].Kind)
	assert.Equal(t, TokIdent, js[1].Kind)

	cs := lex("class foreach", CSharp)
	assert.Equal(t, TokKeyword, cs[0].Kind)
	assert.Equal(t, TokKeyword, cs[1].Kind)
}

func TestLex_LinesAndNewlines(t *testing.T) {
	toks := lex("a\n/* one\ntwo */ b c", JavaScript)
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 3, toks[1].Line)
	assert.True(t, toks[1].Newline)
	assert.False(t, toks[2].Newline)
	assert.True(t, toks[2].Space)
}

func TestLex_RegexVersusDivision(t *testing.T) {
	toks := lex("r = /ab+c/g.test(s)", JavaScript)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, TokRegex, toks[2].Kind)
	assert.Equal(t, "/ab+c/g", toks[2].Text)

	div := lex("a / b / c", JavaScript)
	assert.Equal(t, []string{"a", "/", "b", "/", "c"}, texts(div))

	// C# has no regex literals
	cs := lex("x = /a/", CSharp)
	assert.Equal(t, TokPunct, cs[2].Kind)
}

func TestLex_Template(t *testing.T) {
	toks := lex("s = `hi ${name}`;", JavaScript)
	require.Len(t, toks, 4)
	assert.Equal(t, TokString, toks[2].Kind)
	assert.Equal(t, "hi ${name}", toks[2].Value)
	assert.Equal(t, "`", toks[2].Quote)
}

func TestLex_UnterminatedStringEndsAtLineBreak(t *testing.T) {
	toks := lex("s = \"abc\nx", JavaScript)
	require.Len(t, toks, 4)
	assert.Equal(t, TokString, toks[2].Kind)
	assert.Equal(t, "abc", toks[2].Value)
	assert.Equal(t, "x", toks[3].Text)
	assert.Equal(t, 2, toks[3].Line)
}

func TestLex_CSharpStrings(t *testing.T) {
	tests := []struct {
		src   string
		quote string
		value string
	}{
		{`@"C:\path"`, `@"`, `C:\path`},
		{`@"say ""hi"""`, `@"`, `say ""hi""`},
		{`$"x={a}"`, `$"`, `x={a}`},
		{`$"{d["k"]}!"`, `$"`, `{d["k"]}!`},
		{`"""raw "text" """`, `"""`, `raw "text" `},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := lex(tt.src, CSharp)
			require.Len(t, toks, 1)
			assert.Equal(t, TokString, toks[0].Kind)
			assert.Equal(t, tt.quote, toks[0].Quote)
			assert.Equal(t, tt.value, toks[0].Value)
		})
	}
}

func TestLex_Preprocessor(t *testing.T) {
	toks := lex("#region Setup\nint a;\n#endregion", CSharp)
	assert.Equal(t, []string{"int", "a", ";"}, texts(toks))
	assert.Equal(t, 2, toks[0].Line)
}

func TestLex_PrivateNames(t *testing.T) {
	toks := lex("this.#count++", JavaScript)
	assert.Equal(t, []string{"this", ".", "#count", "++"}, texts(toks))
	assert.Equal(t, TokIdent, toks[2].Kind)
}
