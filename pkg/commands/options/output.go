package options

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/printers"
)

// OutputOptions
type OutputOptions struct {
	JSON   bool
	Format string
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
	cmd.Flags().StringVarP(&po.Format, "output", "o", "text",
		"Output format. One of 'text', 'json' or 'yaml'.")
}

// Result resolves the output flags into a printers.Result writing to out.
// --json wins over --output.
func (o *OutputOptions) Result(out io.Writer, ids *IDOptions) (printers.Result, error) {
	r := printers.Result{Out: out}
	if ids != nil {
		r.ShowID = ids.ShowID
	}
	if o.JSON {
		r.Format = printers.FormatJSON
		return r, nil
	}
	f, err := printers.ParseFormat(o.Format)
	if err != nil {
		return r, err
	}
	r.Format = f
	return r, nil
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
