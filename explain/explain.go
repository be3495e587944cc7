// Package explain renders a compiled plan tree as a human-readable
// markdown table, grounded on the teacher's table_formatter.go (which
// renders result relations, not plans, but the same tablewriter setup).
package explain

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/janusql/compiler/plan"
)

// Formatter renders plan trees. MaxWidth truncates long detail cells
// (a Filter's constant, a Join's node string) the same way the
// teacher's formatter truncates result values.
type Formatter struct {
	MaxWidth int
}

// NewFormatter creates a Formatter with the teacher's default width.
func NewFormatter() *Formatter {
	return &Formatter{MaxWidth: 60}
}

type row struct {
	depth  int
	kind   string
	detail string
}

// FormatQuery renders a CompiledQuery's plan tree, followed by its
// ordered input list.
func (f *Formatter) FormatQuery(cq *plan.CompiledQuery) string {
	out := f.renderTree(cq.Plan)
	if len(cq.Inputs) == 0 {
		return out
	}
	var b strings.Builder
	b.WriteString(out)
	b.WriteString("\nInputs:\n")
	for i, in := range cq.Inputs {
		b.WriteString(fmt.Sprintf("- [%d] %s = %s\n", i, in.Var, in.Binding))
	}
	return b.String()
}

// FormatRule renders a single compiled rule's plan tree.
func (f *Formatter) FormatRule(r plan.Rule) string {
	return f.renderTree(r.Plan)
}

func (f *Formatter) renderTree(n plan.Node) string {
	var rows []row
	f.walk(n, 0, &rows)

	tableString := &strings.Builder{}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Node", "Detail"})
	for _, r := range rows {
		table.Append([]string{strings.Repeat("  ", r.depth) + r.kind, f.truncate(r.detail)})
	}
	table.Render()
	return tableString.String()
}

func (f *Formatter) walk(n plan.Node, depth int, out *[]row) {
	if n == nil {
		return
	}
	*out = append(*out, row{depth: depth, kind: n.Kind(), detail: n.String()})

	switch v := n.(type) {
	case plan.Join:
		f.walk(v.Left, depth+1, out)
		f.walk(v.Right, depth+1, out)
	case plan.Antijoin:
		f.walk(v.Left, depth+1, out)
		f.walk(v.Right, depth+1, out)
	case plan.Union:
		for _, c := range v.Children {
			f.walk(c, depth+1, out)
		}
	case plan.Project:
		f.walk(v.Child, depth+1, out)
	case plan.Aggregate:
		f.walk(v.Child, depth+1, out)
	case plan.PredExpr:
		f.walk(v.Child, depth+1, out)
	}
}

func (f *Formatter) truncate(s string) string {
	if f.MaxWidth <= 0 || len(s) <= f.MaxWidth {
		return s
	}
	return s[:f.MaxWidth] + "..."
}
