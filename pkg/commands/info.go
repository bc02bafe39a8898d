package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/info"
	"tableflip.dev/taskcal/pkg/store"
)

func addInfo(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about configuration and saved plans.",
		Example: `
taskcal info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, err := store.LoadConfig()
			if err != nil {
				return oo.HandleError(err)
			}
			p, err := store.LoadPlans(cfg)
			if err != nil {
				return oo.HandleError(err)
			}
			s := info.Info{
				Config: cfg,
				Plans:  p,
				Out:    cmd.OutOrStdout(),
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
