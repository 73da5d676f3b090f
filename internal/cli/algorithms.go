package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// algorithmsCommand lists the algorithms known to the default registry.
func (c *CLI) algorithmsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the available layout, overlap and routing algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := pipeline.DefaultRegistry().Kinds()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(kinds)
			}
			printKinds(kinds)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printKinds(k pipeline.Kinds) {
	line := func(title string, kinds []string, def string) {
		marked := make([]string, len(kinds))
		for i, kind := range kinds {
			marked[i] = kind
			if kind == def {
				marked[i] += "*"
			}
		}
		printKeyValue(title, strings.Join(marked, ", "))
	}
	printNewline()
	fmt.Println(StyleTitle.Render("Algorithms"))
	line("layout", k.Layout, string(pipeline.DefaultLayout))
	line("overlap", k.Overlap, string(pipeline.DefaultOverlap))
	line("routing", k.Routing, string(pipeline.DefaultRouting))
	printNewline()
	printDetail("* default; 'none' skips a stage")
}
