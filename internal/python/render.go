package python

import (
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// RenderExpr returns the single-line label text for e.
func RenderExpr(e Expr) string {
	var sb strings.Builder
	render(&sb, e)
	return sb.String()
}

func render(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		// absent optional parts render as nothing
	case *Name:
		sb.WriteString(x.ID)
	case *Num:
		sb.WriteString(x.Text)
	case *Str:
		sb.WriteString(x.Prefix)
		sb.WriteByte('"')
		sb.WriteString(flow.Truncate(x.Value))
		sb.WriteByte('"')
	case *Const:
		sb.WriteString(x.Value)
	case *BinOp:
		render(sb, x.Left)
		sb.WriteString(" " + x.Op.Symbol() + " ")
		render(sb, x.Right)
	case *UnaryOp:
		sb.WriteString(x.Op.Symbol())
		render(sb, x.Operand)
	case *BoolOp:
		for i, v := range x.Values {
			if i > 0 {
				sb.WriteString(" " + x.Op.Symbol() + " ")
			}
			render(sb, v)
		}
	case *Compare:
		render(sb, x.Left)
		for i, op := range x.Ops {
			sb.WriteString(" " + op.Symbol() + " ")
			if i < len(x.Comparators) {
				render(sb, x.Comparators[i])
			}
		}
	case *Call:
		render(sb, x.Func)
		sb.WriteByte('(')
		renderList(sb, x.Args)
		sb.WriteByte(')')
	case *Keyword:
		sb.WriteString(x.Name + "=")
		render(sb, x.Value)
	case *Starred:
		if x.Double {
			sb.WriteString("**")
		} else {
			sb.WriteString("*")
		}
		render(sb, x.Value)
	case *List:
		sb.WriteByte('[')
		renderList(sb, x.Elts)
		sb.WriteByte(']')
	case *Tuple:
		if x.Bare {
			renderList(sb, x.Elts)
			return
		}
		sb.WriteByte('(')
		renderList(sb, x.Elts)
		if len(x.Elts) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case *Set:
		sb.WriteByte('{')
		renderList(sb, x.Elts)
		sb.WriteByte('}')
	case *Dict:
		sb.WriteByte('{')
		for i, it := range x.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			if it.Key == nil {
				sb.WriteString("**")
			} else {
				render(sb, it.Key)
				sb.WriteString(": ")
			}
			render(sb, it.Value)
		}
		sb.WriteByte('}')
	case *Attribute:
		render(sb, x.Value)
		sb.WriteString("." + x.Attr)
	case *Subscript:
		render(sb, x.Value)
		sb.WriteByte('[')
		renderList(sb, x.Index)
		sb.WriteByte(']')
	case *Slice:
		render(sb, x.Lower)
		sb.WriteByte(':')
		render(sb, x.Upper)
		if x.HasStep {
			sb.WriteByte(':')
			render(sb, x.Step)
		}
	case *IfExp:
		render(sb, x.Body)
		sb.WriteString(" if ")
		render(sb, x.Test)
		sb.WriteString(" else ")
		render(sb, x.Orelse)
	case *Comprehension:
		sb.WriteString(comprehensionText(x.Kind))
	case *Lambda:
		sb.WriteString("lambda")
		if len(x.Params) > 0 {
			sb.WriteString(" " + strings.Join(x.Params, ", "))
		}
		sb.WriteString(": ")
		render(sb, x.Body)
	case *Await:
		sb.WriteString("await ")
		render(sb, x.Value)
	case *Yield:
		sb.WriteString("yield")
		if x.From {
			sb.WriteString(" from")
		}
		if x.Value != nil {
			sb.WriteByte(' ')
			render(sb, x.Value)
		}
	case *NamedExpr:
		sb.WriteString(x.Target + " := ")
		render(sb, x.Value)
	case *Paren:
		sb.WriteByte('(')
		render(sb, x.Inner)
		sb.WriteByte(')')
	default:
		sb.WriteString("expr")
	}
}

func renderList(sb *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			sb.WriteString(", ")
		}
		render(sb, e)
	}
}

func comprehensionText(k CompKind) string {
	switch k {
	case CompSet, CompDict:
		return "{comprehension}"
	case CompGenerator:
		return "(generator)"
	default:
		return "[comprehension]"
	}
}

// RenderTargets joins chained assignment targets: `a = b`.
func RenderTargets(targets []Expr) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = RenderExpr(t)
	}
	return strings.Join(parts, " = ")
}

// CalleeName returns the dotted name of a call target, or "" when the
// callee is not a plain name or attribute chain.
func CalleeName(e Expr) string {
	switch x := e.(type) {
	case *Name:
		return x.ID
	case *Attribute:
		base := CalleeName(x.Value)
		if base == "" {
			return ""
		}
		return base + "." + x.Attr
	}
	return ""
}
