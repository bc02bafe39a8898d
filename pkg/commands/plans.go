package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/plans"
)

func addPlans(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage saved override plans.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addPlansList(cmd)
	addPlansShow(cmd)
	addPlansRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addPlansList(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved plans.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), nil)
			if err != nil {
				return oo.HandleError(err)
			}
			s, err := loadPlans(true)
			if err != nil {
				return oo.HandleError(err)
			}
			n := plans.List{Plans: s, Result: r}
			return oo.HandleError(n.Do(cmd.Context()))
		},
	}
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addPlansShow(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:               "show ID",
		Short:             "Show the overrides of a saved plan.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: planCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), nil)
			if err != nil {
				return oo.HandleError(err)
			}
			s, err := loadPlans(true)
			if err != nil {
				return oo.HandleError(err)
			}
			n := plans.Show{ID: args[0], Plans: s, Result: r}
			return oo.HandleError(n.Do(cmd.Context()))
		},
	}
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addPlansRemove(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:               "rm ID...",
		Short:             "Delete saved plans.",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: planCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := loadPlans(true)
			if err != nil {
				return oo.HandleError(err)
			}
			n := plans.Remove{IDs: args, Plans: s, Log: logger}
			return oo.HandleError(n.Do(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")
	parent.AddCommand(cmd)
}
