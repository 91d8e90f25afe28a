package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kernelsim/preemptk"
)

var (
	cfgPath  string
	verbose  bool
)

// Execute builds and runs the root command.
func Execute() error {
	root := newRootCmd()
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preemptk",
		Short: "Drive the preemptk process-management kernel",
		Long: "preemptk boots the simulated kernel nucleus — PCB table, dispatcher, IPC,\n" +
			"sleep queue, signals, and the keyboard driver — against either a canned\n" +
			"scenario or a real terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger := logrus.New()
				logger.SetLevel(logrus.TraceLevel)
				preemptk.SetLogger(logger)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "directory containing preemptk.yaml")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace-level kernel event logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newInteractiveCmd())
	cmd.AddCommand(newSnapshotCmd())
	return cmd
}

func loadConfig() (preemptk.Config, error) {
	viper.Reset()
	return preemptk.LoadConfig(cfgPath)
}
