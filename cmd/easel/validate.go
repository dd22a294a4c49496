package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel/internal/cli"
	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <markup-file>",
	Short: "Check document markup against the schema",
	Long: `Parses document markup and reports every node the configured schema rejects,
along with media still waiting for an upload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		allowPending, _ := cmd.Flags().GetBool("allow-pending")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		s, err := cli.LoadSchema(cfg)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		markup, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		opts := validator.Options{Media: cfg.Media.Element, AllowPending: allowPending}
		if err := validator.Validate(s, strings.TrimSpace(string(markup)), opts); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Document is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("allow-pending", false, "Accept media still waiting for an upload")
}
