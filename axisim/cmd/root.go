// Package cmd provides the command-line interface of axisim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var opts = &options{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "axisim",
	Short: "axisim runs AXI bus-functional models cycle by cycle.",
	Long: `axisim runs AXI4-Stream and AXI4-Lite bus-functional models on a ` +
		`single-clock bench. Scenarios come from YAML files; traces can be ` +
		`recorded into SQLite and a running bench can be watched in a browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}

		return opts.applyEnv(cmd.Flags())
	},
}

func init() {
	opts.bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(liteCmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It runs the exit handlers before returning to the shell.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
