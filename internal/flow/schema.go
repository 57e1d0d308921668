package flow

import (
	"strconv"
	"unicode/utf8"
)

// --- Enums ---

// NodeKind classifies flowchart nodes.
type NodeKind string

const (
	KindStart            NodeKind = "start"
	KindEnd              NodeKind = "end"
	KindInput            NodeKind = "input"
	KindOutput           NodeKind = "output"
	KindProcess          NodeKind = "process"
	KindCondition        NodeKind = "condition"
	KindLoop             NodeKind = "loop"
	KindTryStart         NodeKind = "try_start"
	KindExceptionHandler NodeKind = "exception_handler"
	KindFinally          NodeKind = "finally"
	KindClassStart       NodeKind = "class_start"
	KindMethod           NodeKind = "method"
	KindProperty         NodeKind = "property"
)

// NodeKinds lists every kind in declaration order.
var NodeKinds = []NodeKind{
	KindStart, KindEnd, KindInput, KindOutput, KindProcess, KindCondition, KindLoop,
	KindTryStart, KindExceptionHandler, KindFinally, KindClassStart, KindMethod, KindProperty,
}

// Branch tags the semantic role of an edge.
type Branch string

const (
	BranchPlain     Branch = ""
	BranchYes       Branch = "yes"
	BranchNo        Branch = "no"
	BranchLoopBody  Branch = "loop_body"
	BranchLoopBack  Branch = "loop_back"
	BranchException Branch = "exception"
	BranchFromNo    Branch = "from_no"
	BranchLoopExit  Branch = "loop_exit"
)

// FanOut returns the branch tag for the i-th method edge of a class skeleton.
func FanOut(i int) Branch {
	return Branch("fan_" + strconv.Itoa(i))
}

// Language identifies an input language.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangCSharp     Language = "csharp"
)

// Languages lists the supported input languages.
var Languages = []Language{LangPython, LangJavaScript, LangCSharp}

// UnitKind classifies the diagrams of a Result.
type UnitKind string

const (
	UnitFunction UnitKind = "function"
	UnitMethod   UnitKind = "method"
	UnitProperty UnitKind = "property"
	UnitClass    UnitKind = "class"
)

// --- Models ---

// Node is a single flowchart box. ID is unique within its Diagram.
type Node struct {
	ID   int      `json:"id"`
	Kind NodeKind `json:"type"`
	Text string   `json:"text"`
}

// Edge is a directed connection between two nodes of one Diagram.
type Edge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Label  string `json:"label"`
	Branch Branch `json:"branch"`
}

// Unit is one named diagram of a Result.
type Unit struct {
	Name    string   `json:"name"`
	Kind    UnitKind `json:"type"`
	Diagram *Diagram `json:"diagram"`
}

// Result is the full translation of one source text.
type Result struct {
	Main      *Diagram `json:"mainDiagram"`
	Functions []Unit   `json:"functions"`
	Classes   []Unit   `json:"classes"`
}

// NewResult returns a Result with an empty main diagram and non-nil unit lists.
func NewResult() *Result {
	return &Result{
		Main:      NewDiagram(),
		Functions: []Unit{},
		Classes:   []Unit{},
	}
}

// Lookup returns the diagram named name. "" and "main" select the main diagram.
func (r *Result) Lookup(name string) (*Diagram, bool) {
	if name == "" || name == "main" {
		return r.Main, r.Main != nil
	}
	for _, u := range r.Functions {
		if u.Name == name {
			return u.Diagram, true
		}
	}
	for _, u := range r.Classes {
		if u.Name == name {
			return u.Diagram, true
		}
	}
	return nil, false
}

// UnitNames returns every unit name in result order, main first.
func (r *Result) UnitNames() []string {
	names := make([]string, 0, 1+len(r.Functions)+len(r.Classes))
	names = append(names, "main")
	for _, u := range r.Functions {
		names = append(names, u.Name)
	}
	for _, u := range r.Classes {
		names = append(names, u.Name)
	}
	return names
}

// StringCap is the number of characters a rendered string literal keeps.
const StringCap = 20

// Truncate shortens s to StringCap runes followed by "...".
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= StringCap {
		return s
	}
	r := []rune(s)
	return string(r[:StringCap]) + "..."
}
