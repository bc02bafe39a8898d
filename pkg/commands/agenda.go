package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/agenda"
)

func addAgenda(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	so := &options.SelectOptions{}
	plo := &options.PlanOptions{}
	oo := &options.OutputOptions{}
	day := ""
	days := ""
	month := false

	cmd := &cobra.Command{
		Use:   "agenda [EXPR...]",
		Short: "Show a day by day timeline of planned tasks.",
		Example: `
taskcal agenda -p payload.json
taskcal agenda -p payload.json --day 2020-01-06 --days 1w project:work
taskcal agenda -p payload.json --month
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), nil)
			if err != nil {
				return oo.HandleError(err)
			}
			plans, err := loadPlans(plo.PlanID != "")
			if err != nil {
				return oo.HandleError(err)
			}
			s := agenda.Agenda{
				Payload:         po.Path,
				Expr:            strings.Join(args, " "),
				Day:             day,
				Window:          days,
				Month:           month,
				OverridesFile:   plo.OverridesFile,
				PlanID:          plo.PlanID,
				IncludeFixtures: so.IncludeFixtures,
				Plans:           plans,
				Result:          r,
				Stdin:           cmd.InOrStdin(),
				Log:             logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	options.AddPayloadArg(cmd, po)
	options.AddSelectArgs(cmd, so)
	options.AddPlanArgs(cmd, plo)
	_ = cmd.RegisterFlagCompletionFunc("plan", planCompletions)
	options.AddOutputArg(cmd, oo)
	cmd.Flags().StringVar(&day, "day", "", "First day to show as YYYY-MM-DD, today when empty.")
	cmd.Flags().StringVar(&days, "days", "1d", "How much to show, e.g. 1d, 3d, 1w.")
	cmd.Flags().BoolVar(&month, "month", false, "Also print a month calendar with task counts.")

	topLevel.AddCommand(cmd)
}
