package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/runner/upgrade"
)

func addUpgrade(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	write := ""
	to := 0

	cmd := &cobra.Command{
		Use:   "upgrade [file|-]",
		Short: "Upgrade a payload to a newer schema version.",
		Example: `
taskcal upgrade old.json -w payload.json
taskcal upgrade --to 1 < v0.json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			input := source.Stdin
			if len(args) == 1 {
				input = args[0]
			}
			s := upgrade.Upgrade{
				Input:  input,
				Output: write,
				To:     to,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Log:    logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "Target schema version, the latest when 0.")
	cmd.Flags().StringVarP(&write, "write", "w", "", "Write the payload to this file instead of stdout.")
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
