package cmd

import (
	"fmt"
	"sort"
	"strings"

	"engagement-optimizer/internal/markdown"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.md>",
	Short: "Parse a generated report and print its frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := markdown.ParseFile(args[0])
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "frontmatter keys: %s\n", strings.Join(keys, ", "))
		fmt.Fprintf(out, "body bytes: %d\n", len(doc.Body))

		meta, err := doc.ReportMeta()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "title: %s\nchannel: %s\nrun_id: %s\ntopics: %s\n",
			meta.Title, meta.Channel, meta.RunID, strings.Join(meta.Topics, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
