package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel/internal/presentation/graph"
	"github.com/aretw0/easel/pkg/model"
)

var graphCmd = &cobra.Command{
	Use:   "graph [markup-file]",
	Short: "Export a document tree as a Mermaid diagram",
	Long: `Parses document markup (from a file, or stdin when no file is given) and
outputs a Mermaid diagram (graph TD) of its tree, marking pending uploads,
resized media and the selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		media, _ := cmd.Flags().GetString("media")

		var src io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}
		markup, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		root, sel, err := model.Parse(strings.TrimSpace(string(markup)))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(root, &graph.Overlay{Media: media, Selection: &sel}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("media", "image", "Name of the media element")
}
