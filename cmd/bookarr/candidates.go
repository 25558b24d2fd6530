package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates <provider> <key>",
	Short: "Discover download candidates for a book",
	Long: `Discover download candidates for a book.

Candidate ids are only valid briefly; grab soon after discovering.

Examples:
  bookarr candidates fl 42                      # Text edition candidates
  bookarr candidates fl 42 --media-type audio   # Audiobook candidates
  bookarr candidates fl 42 --page 2`,
	Args: cobra.ExactArgs(2),
	RunE: runCandidates,
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.Flags().StringP("media-type", "m", "text", "Media type (text, audio)")
	candidatesCmd.Flags().Int("page", 1, "Result page")
	candidatesCmd.Flags().Int("page-size", 20, "Results per page")
}

func runCandidates(cmd *cobra.Command, args []string) error {
	mediaType, _ := cmd.Flags().GetString("media-type")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	client := NewClient(serverURL)
	candidates, err := client.Candidates(args[0], args[1], mediaType, page, pageSize)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if jsonOutput {
		return printJSON(candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSOURCE\tSEEDERS\tSIZE\tSCORE")
	for _, c := range candidates {
		seeders := "-"
		if c.Seeders != nil {
			seeders = fmt.Sprintf("%d", *c.Seeders)
		}
		size := "-"
		if c.Size != nil {
			size = formatSize(*c.Size)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			c.ID, c.Title, c.Source, seeders, size, c.MatchScore)
	}
	return w.Flush()
}
