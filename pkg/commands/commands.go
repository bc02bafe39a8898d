package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/taskcal/pkg/store"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "taskcal",
		Short: base.Wrap80("Index, query and plan exported tasks on a calendar."),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addIngest(topLevel)
	addQuery(topLevel)
	addPlan(topLevel)
	addMetrics(topLevel)
	addSchedule(topLevel)
	addPlans(topLevel)
	addUpgrade(topLevel)
	addValidate(topLevel)
	addAgenda(topLevel)
	addWatch(topLevel)
	addInfo(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// loadPlans opens the plan store named by the config, or returns nil when
// want is false so commands only touch disk when a plan is involved.
func loadPlans(want bool) (store.Plans, error) {
	if !want {
		return nil, nil
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	return store.LoadPlans(cfg)
}
