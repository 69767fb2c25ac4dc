package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd runs the daemon when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "drive-timer",
	Short: "Drive/rest compliance clock",
	Long: `drive-timer tracks driving time and rest time against the legal limits
of the selected jurisdiction, alerts on the buzzer before each limit and
publishes every transition to MQTT.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default /etc/drive-timer/drive-timer.yaml)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
