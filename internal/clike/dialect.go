package clike

import (
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Dialect configures the lexer, parser and translator for one C-family
// language.
type Dialect struct {
	Name string

	keywords map[string]bool

	// ASI enables newline statement termination (JavaScript).
	ASI bool
	// RegexLiterals lexes /.../flags where an operand is expected.
	RegexLiterals bool
	// Templates lexes backtick template literals.
	Templates bool
	// HashNames lexes #name as a single identifier (private class members).
	HashNames bool
	// Verbatim lexes @"..." and $"..." strings and raw """ literals.
	Verbatim bool
	// Preprocessor skips lines starting with #.
	Preprocessor bool
	// LocalFunctions recognizes `Type Name(params) { ... }` inside blocks.
	LocalFunctions bool

	inputs         map[string]bool
	outputs        map[string]bool
	outputPrefixes []string
}

// IsKeyword reports whether word is reserved in the dialect.
func (d *Dialect) IsKeyword(word string) bool { return d.keywords[word] }

// CallKind classifies a call statement by its dotted callee name.
func (d *Dialect) CallKind(callee string) flow.NodeKind {
	if d.inputs[callee] {
		return flow.KindInput
	}
	if d.outputs[callee] {
		return flow.KindOutput
	}
	for _, p := range d.outputPrefixes {
		if strings.HasPrefix(callee, p) {
			return flow.KindOutput
		}
	}
	return flow.KindProcess
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// JavaScript is the ECMAScript dialect.
var JavaScript = &Dialect{
	Name: "javascript",
	keywords: set(
		"async", "await", "break", "case", "catch", "class", "const", "continue", "debugger",
		"default", "delete", "do", "else", "export", "extends", "false", "finally", "for",
		"function", "if", "import", "in", "instanceof", "let", "new", "null", "of", "return",
		"static", "super", "switch", "this", "throw", "true", "try", "typeof", "undefined",
		"var", "void", "while", "with", "yield",
	),
	ASI:           true,
	RegexLiterals: true,
	Templates:     true,
	HashNames:     true,
	inputs: set(
		"prompt", "window.prompt", "readline", "rl.question", "readline.question",
		"readlineSync.question", "process.stdin.read",
	),
	outputs: set(
		"alert", "window.alert", "document.write", "document.writeln",
		"process.stdout.write", "process.stderr.write",
	),
	outputPrefixes: []string{"console."},
}

// CSharp is the C# dialect.
var CSharp = &Dialect{
	Name: "csharp",
	keywords: set(
		"abstract", "as", "base", "bool", "break", "byte", "case", "catch", "char", "checked",
		"class", "const", "continue", "decimal", "default", "delegate", "do", "double", "else",
		"enum", "event", "explicit", "extern", "false", "finally", "fixed", "float", "for",
		"foreach", "goto", "if", "implicit", "in", "int", "interface", "internal", "is", "lock",
		"long", "namespace", "new", "null", "object", "operator", "out", "override", "params",
		"private", "protected", "public", "readonly", "ref", "return", "sbyte", "sealed",
		"short", "sizeof", "stackalloc", "static", "string", "struct", "switch", "this",
		"throw", "true", "try", "typeof", "uint", "ulong", "unchecked", "unsafe", "ushort",
		"using", "virtual", "void", "volatile", "while",
		// contextual keywords that matter to statement parsing
		"async", "await", "var", "record", "partial", "when", "yield",
	),
	Verbatim:       true,
	Preprocessor:   true,
	LocalFunctions: true,
	inputs:         set("Console.ReadLine", "Console.Read", "Console.ReadKey", "Console.In.ReadLine"),
	outputs: set(
		"MessageBox.Show", "Debug.WriteLine", "Debug.Write", "Trace.WriteLine", "Trace.Write",
		"Console.Out.WriteLine", "Console.Error.WriteLine",
	),
	outputPrefixes: []string{"Console.Write"},
}
