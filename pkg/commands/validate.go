package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskcal/pkg/commands/options"
	"tableflip.dev/taskcal/pkg/runner/validate"
)

func addValidate(topLevel *cobra.Command) {
	po := &options.PayloadOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a payload against its schema without upgrading it.",
		Example: `
taskcal validate -p payload.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			r, err := oo.Result(cmd.OutOrStdout(), nil)
			if err != nil {
				return oo.HandleError(err)
			}
			s := validate.Validate{
				Payload: po.Path,
				Result:  r,
				Stdin:   cmd.InOrStdin(),
				Log:     logger,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	options.AddPayloadArg(cmd, po)
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
