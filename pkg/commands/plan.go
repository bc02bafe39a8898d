package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/plan"
)

func addPlan(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	so := &options.SelectOptions{}
	plo := &options.PlanOptions{}
	oo := &options.OutputOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "plan [EXPR...]",
		Short: "Resolve task intervals and report conflicts.",
		Long: `Resolve a calendar interval for every selected task, applying overrides,
then report overlaps and time outside working hours.`,
		Example: `
taskcal plan -p payload.json
taskcal plan -p payload.json project:work --plan 6a1f...
taskcal plan -p payload.json --overrides moved.json -o yaml
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), io)
			if err != nil {
				return oo.HandleError(err)
			}
			plans, err := loadPlans(plo.PlanID != "")
			if err != nil {
				return oo.HandleError(err)
			}
			s := plan.Plan{
				Payload:         po.Path,
				Expr:            strings.Join(args, " "),
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
	options.AddShowIDArgs(cmd, io)

	topLevel.AddCommand(cmd)
}
