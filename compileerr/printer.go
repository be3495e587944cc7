package compileerr

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer renders a compiler Error to a terminal, color-coding the Kind
// and highlighting its fields, in the style of the teacher's
// annotations output formatter.
type Printer struct {
	Out io.Writer

	kind   *color.Color
	field  *color.Color
	value  *color.Color
	arrow  *color.Color
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		Out:   out,
		kind:  color.New(color.FgRed, color.Bold),
		field: color.New(color.FgCyan),
		value: color.New(color.FgYellow),
		arrow: color.New(color.FgBlue),
	}
}

// Print writes err's Kind, Message, and Fields to p.Out.
func (p *Printer) Print(err *Error) {
	fmt.Fprintf(p.Out, "%s %s\n", p.kind.Sprintf("[%s]", err.Kind), err.Message)
	for _, f := range err.Fields {
		fmt.Fprintf(p.Out, "  %s %s %s\n", p.field.Sprint(f.Key), p.arrow.Sprint("→"), p.value.Sprintf("%v", f.Value))
	}
	if err.Cause != nil {
		fmt.Fprintf(p.Out, "  caused by: %v\n", err.Cause)
	}
}
