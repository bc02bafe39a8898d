package commands

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/watch"
)

func addWatch(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	so := &options.SelectOptions{}
	oo := &options.OutputOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "watch EXPR...",
		Short: "Re-run a query every time the payload file changes.",
		Example: `
taskcal watch -p payload.json +meeting
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), io)
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := watch.Watch{
				Payload:         po.Path,
				Expr:            strings.Join(args, " "),
				IncludeFixtures: so.IncludeFixtures,
				Result:          r,
				Log:             logger,
			}
			return oo.HandleError(s.Do(ctx))
		},
	}

	options.AddPayloadArg(cmd, po)
	options.AddSelectArgs(cmd, so)
	options.AddOutputArg(cmd, oo)
	options.AddShowIDArgs(cmd, io)

	topLevel.AddCommand(cmd)
}
