package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var grabCmd = &cobra.Command{
	Use:   "grab <provider> <key> <candidate-id>",
	Short: "Add a book and start downloading a candidate",
	Long: `Add a book and start downloading a candidate.

The candidate id comes from 'bookarr candidates'. The book is added to
the catalog if it is not already there.

Examples:
  bookarr grab fl 42 1a2b3c4d5e6f7a8b
  bookarr grab fl 42 1a2b3c4d5e6f7a8b --media-type audio --user alice`,
	Args: cobra.ExactArgs(3),
	RunE: runGrab,
}

func init() {
	rootCmd.AddCommand(grabCmd)
	grabCmd.Flags().StringP("media-type", "m", "text", "Media type (text, audio)")
	grabCmd.Flags().StringP("user", "u", "default", "User the download belongs to")
}

func runGrab(cmd *cobra.Command, args []string) error {
	mediaType, _ := cmd.Flags().GetString("media-type")
	userID, _ := cmd.Flags().GetString("user")

	client := NewClient(serverURL)
	job, err := client.Grab(userID, args[0], args[1], mediaType, args[2])
	if err != nil {
		return fmt.Errorf("grab failed: %w", err)
	}

	if jsonOutput {
		return printJSON(job)
	}

	fmt.Printf("Download %d queued (book %d, %s)\n", job.ID, job.BookID, job.MediaType)
	return nil
}
