package options

import (
	"github.com/spf13/cobra"
)

// PayloadOptions locates the payload a command reads.
type PayloadOptions struct {
	Path string
}

func AddPayloadArg(cmd *cobra.Command, o *PayloadOptions) {
	cmd.Flags().StringVarP(&o.Path, "payload", "p", "-",
		"Payload file to read, '-' for stdin.")
}

// SelectOptions controls which tasks a query may select.
type SelectOptions struct {
	IncludeFixtures bool
}

func AddSelectArgs(cmd *cobra.Command, o *SelectOptions) {
	cmd.Flags().BoolVar(&o.IncludeFixtures, "include-fixtures", false,
		"Include scaffold tasks generated for view alignment.")
}

// PlanOptions selects overrides to apply before planning.
type PlanOptions struct {
	OverridesFile string
	PlanID        string
}

func AddPlanArgs(cmd *cobra.Command, o *PlanOptions) {
	cmd.Flags().StringVar(&o.OverridesFile, "overrides", "",
		"JSON file of per-task overrides. Wins over --plan.")
	cmd.Flags().StringVar(&o.PlanID, "plan", "",
		"Id of a saved plan whose overrides to apply.")
}
