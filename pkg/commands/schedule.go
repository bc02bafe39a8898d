package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/schedule"
)

var transformHelp = map[string]string{
	"align-starts": "Start every task of a day at the earliest start.",
	"align-ends":   "End every task of a day at the latest due time.",
	"stack":        "Lay the tasks of a day back to back.",
	"distribute":   "Spread three or more tasks of a day evenly across their window.",
	schedule.Nudge: "Shift tasks by --delta minutes.",
}

func addSchedule(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute overrides that move tasks on the calendar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	for _, name := range schedule.Names() {
		addTransform(cmd, name)
	}
	topLevel.AddCommand(cmd)
}

func addTransform(parent *cobra.Command, name string) {
	po := &options.PayloadOptions{}
	plo := &options.PlanOptions{}
	oo := &options.OutputOptions{}
	expr := ""
	commands := false
	save := false
	planName := ""
	var delta int64

	cmd := &cobra.Command{
		Use:   name + " [UUID...]",
		Short: transformHelp[name],
		Example: fmt.Sprintf(`
taskcal schedule %[1]s -p payload.json 6a1f... 9c2e...
taskcal schedule %[1]s -p payload.json -q +meeting --commands | sh
`, name),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), nil)
			if err != nil {
				return oo.HandleError(err)
			}
			plans, err := loadPlans(save || plo.PlanID != "")
			if err != nil {
				return oo.HandleError(err)
			}
			s := schedule.Schedule{
				Payload:       po.Path,
				Transform:     name,
				UUIDs:         args,
				Expr:          expr,
				DeltaMin:      delta,
				OverridesFile: plo.OverridesFile,
				PlanID:        plo.PlanID,
				Commands:      commands,
				Save:          save,
				Name:          planName,
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
	_ = cmd.RegisterFlagCompletionFunc("plan", planCompletions)
	options.AddOutputArg(cmd, oo)
	cmd.Flags().StringVarP(&expr, "query", "q", "", "Select tasks by query when no uuids are given.")
	cmd.Flags().BoolVar(&commands, "commands", false, "Print task modify commands that apply the result.")
	cmd.Flags().BoolVar(&save, "save", false, "Save the overrides as a plan.")
	cmd.Flags().StringVar(&planName, "name", "", "Name of the saved plan.")
	if name == schedule.Nudge {
		cmd.Flags().Int64Var(&delta, "delta", 0, "Minutes to shift by, negative moves earlier.")
		_ = cmd.MarkFlagRequired("delta")
	}

	parent.AddCommand(cmd)
}
