package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/query"
)

func addQuery(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	so := &options.SelectOptions{}
	oo := &options.OutputOptions{}
	io := &options.IDOptions{}
	indices := false

	cmd := &cobra.Command{
		Use:   "query EXPR...",
		Short: "Find the tasks matching a query expression.",
		Long: `Evaluate a query against the payload index.

Terms: uuid:a,b  status:pending  project:work  day:2020-01-01  +tag  tag:a,b
-tag  desc~regex  desc!~regex  desc:text, and any bare word as a substring of
the description. Values inside one term are ORed; terms are ANDed.`,
		Example: `
taskcal query -p payload.json +meeting project:work
taskcal query -p payload.json status:pending 'desc~^review' -blocked --indices
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), io)
			if err != nil {
				return oo.HandleError(err)
			}
			s := query.Query{
				Payload:         po.Path,
				Expr:            strings.Join(args, " "),
				Indices:         indices,
				IncludeFixtures: so.IncludeFixtures,
				Result:          r,
				Stdin:           cmd.InOrStdin(),
				Log:             logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	options.AddPayloadArg(cmd, po)
	options.AddSelectArgs(cmd, so)
	options.AddOutputArg(cmd, oo)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&indices, "indices", false, "Print matching task positions only.")

	topLevel.AddCommand(cmd)
}
