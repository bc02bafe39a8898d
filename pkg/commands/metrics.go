package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/metrics"
)

func addMetrics(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	plo := &options.PlanOptions{}
	oo := &options.OutputOptions{}
	expr := ""

	cmd := &cobra.Command{
		Use:   "metrics [UUID...]",
		Short: "Summarize the time used by a selection of tasks.",
		Example: `
taskcal metrics -p payload.json 6a1f... 9c2e...
taskcal metrics -p payload.json -q +meeting -o json
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
			s := metrics.Metrics{
				Payload:       po.Path,
				UUIDs:         args,
				Expr:          expr,
				OverridesFile: plo.OverridesFile,
				PlanID:        plo.PlanID,
				Plans:         plans,
				Result:        r,
				Stdin:         cmd.InOrStdin(),
				Log:           logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	options.AddPayloadArg(cmd, po)
	options.AddPlanArgs(cmd, plo)
	options.AddOutputArg(cmd, oo)
	cmd.Flags().StringVarP(&expr, "query", "q", "", "Select tasks by query when no uuids are given.")

	topLevel.AddCommand(cmd)
}
