package flow

import "fmt"

// ExitKind tags the variant of an Exit.
type ExitKind uint8

const (
	// ExitDirect is an ordinary fall-through from a node.
	ExitDirect ExitKind = iota
	// ExitEmptyElse leaves a condition whose false branch created no node.
	ExitEmptyElse
	// ExitDeferredNo leaves the last node of an else branch.
	ExitDeferredNo
	// ExitLoop leaves a loop once its condition is exhausted.
	ExitLoop
	// ExitReturn leaves a return or throw; only function assembly connects it.
	ExitReturn
)

func (k ExitKind) String() string {
	switch k {
	case ExitDirect:
		return "direct"
	case ExitEmptyElse:
		return "empty_else"
	case ExitDeferredNo:
		return "deferred_no"
	case ExitLoop:
		return "loop_exit"
	case ExitReturn:
		return "return"
	}
	return fmt.Sprintf("ExitKind(%d)", uint8(k))
}

// Exit is a pending outgoing connection whose destination is not known
// yet. Node is the source node of the future edge.
type Exit struct {
	Kind ExitKind
	Node int
}

func Direct(id int) Exit     { return Exit{Kind: ExitDirect, Node: id} }
func EmptyElse(id int) Exit  { return Exit{Kind: ExitEmptyElse, Node: id} }
func DeferredNo(id int) Exit { return Exit{Kind: ExitDeferredNo, Node: id} }
func LoopExit(id int) Exit   { return Exit{Kind: ExitLoop, Node: id} }
func ReturnExit(id int) Exit { return Exit{Kind: ExitReturn, Node: id} }

// Style returns the label and branch an edge drawn from e carries. ok is
// false for return exits, which never connect to ordinary statements.
func (e Exit) Style() (label string, branch Branch, ok bool) {
	switch e.Kind {
	case ExitDirect:
		return "", BranchPlain, true
	case ExitEmptyElse:
		return "no", BranchNo, true
	case ExitDeferredNo:
		return "", BranchFromNo, true
	case ExitLoop:
		return "", BranchLoopExit, true
	case ExitReturn:
		return "", BranchPlain, false
	}
	panic(fmt.Sprintf("flow: unknown exit kind %d", e.Kind))
}

// Partition splits exits into live exits and return exits, keeping order.
func Partition(exits []Exit) (live, returns []Exit) {
	for _, e := range exits {
		if e.Kind == ExitReturn {
			returns = append(returns, e)
		} else {
			live = append(live, e)
		}
	}
	return live, returns
}
