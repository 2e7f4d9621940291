// Command aggrolog replays a fight's combat-log events through the threat
// engine and emits the augmented stream.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "aggrolog",
	Short: "Combat-log threat replay engine",
	Long: `Aggrolog replays the raw event stream of one raid fight and re-derives
the threat every friendly actor held against every enemy, event by event.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	viper.SetEnvPrefix("AGGROLOG")
	viper.AutomaticEnv()
	viper.SetDefault("version", "classic")
	viper.SetDefault("log.sinks", []string{})
	viper.SetDefault("log.json_path", "")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "aggrolog: %v\n", err)
		os.Exit(1)
	}
}
