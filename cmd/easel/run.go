package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/easel/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Play a scripted editing scenario",
	Long: `Loads a YAML scenario and plays its steps (select, upload, complete, fail,
abort, resize, expect) against a fresh editor, printing the document after
every step. Transfers are driven by the scenario itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return cli.Execute(cli.RunOptions{
			ScenarioPath: args[0],
			ConfigPath:   configPath,
			Debug:        debug,
			Quiet:        quiet,
			Out:          cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("quiet", "q", false, "Print failing steps only")
}
