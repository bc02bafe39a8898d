package printers

import (
	"io"
	"time"

	"github.com/fatih/color"
)

// Result routes a runner's output to structured encoding or to the pretty
// printer.
type Result struct {
	Out    io.Writer
	Format Format
	Loc    *time.Location
	ShowID bool
}

func (r Result) out() io.Writer {
	if r.Out == nil {
		return color.Output
	}
	return r.Out
}

// Pretty returns a PrettyPrint writing where r writes.
func (r Result) Pretty() *PrettyPrint {
	return &PrettyPrint{ShowID: r.ShowID, Out: r.out(), Loc: r.Loc}
}

// Emit encodes v for json and yaml output, and calls text otherwise.
func (r Result) Emit(v any, text func(pp *PrettyPrint)) error {
	switch r.Format {
	case FormatJSON, FormatYAML:
		return Encode(r.out(), r.Format, v)
	}
	text(r.Pretty())
	return nil
}
