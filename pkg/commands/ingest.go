package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/ingest"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
)

func addIngest(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	write := ""

	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Build a payload from a raw task export.",
		Long: `Normalize a JSON array of exported tasks, index them and write a payload
at the latest schema version. The calendar settings come from .taskcal.yaml.`,
		Example: `
task export | taskcal ingest > payload.json
taskcal ingest export.json -w payload.json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			input := source.Stdin
			if len(args) == 1 {
				input = args[0]
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return oo.HandleError(err)
			}
			s := ingest.Ingest{
				Input:  input,
				Output: write,
				Cfg:    cfg.Calendar(),
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Log:    logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	cmd.Flags().StringVarP(&write, "write", "w", "", "Write the payload to this file instead of stdout.")
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
