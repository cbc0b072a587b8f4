// Package cmd assembles the sensor's cobra command tree: a root command
// carrying shared flags, plus the run subcommand that wires capture
// through publish into a running Controller.
//
// Grounded on the teacher's cmd/root.go (SilenceErrors/SilenceUsage
// convention, ExitError-to-exit-code translation in Execute).
package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sifis-home/aud-sensor/printer"
	"github.com/sifis-home/aud-sensor/util"
	"github.com/sifis-home/aud-sensor/version"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "aud-sensor",
	Short:         "Passive network anomaly-detection sensor.",
	Long:          "Captures locally-originated and locally-destined traffic, builds an Application Usage Description per remote conversation, and raises anomalies when a flow departs from it.",
	Version:       version.DisplayString(),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Output detailed debug information.")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(runCmd)
}

// Execute runs the command tree, translating a returned util.ExitError
// into the matching process exit code.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	cmd.Println(cmd.UsageString())

	exitCode := 1
	var exitErr util.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode
	}
	printer.Errorf("%s\n", err)
	os.Exit(exitCode)
}
