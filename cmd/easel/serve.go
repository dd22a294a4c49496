package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/easel/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts easel in server mode, exposing editing sessions as a JSON API with an
SSE stream of committed changes. Uploaded files are stored under upload.dir
unless --external is set, in which case an outside uploader reports transfer
outcomes through /transfers/{id}/complete|fail|abort.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		addr, _ := cmd.Flags().GetString("addr")
		external, _ := cmd.Flags().GetBool("external")

		return cli.Serve(cli.ServeOptions{
			ConfigPath: configPath,
			Addr:       addr,
			Debug:      debug,
			External:   external,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("external", false, "Let an external uploader finish transfers")
}
