package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Show and manage download jobs",
	Long: `Show and manage download jobs.

Examples:
  bookarr downloads                   # Show active downloads
  bookarr downloads --all             # Include finished jobs
  bookarr downloads --user alice      # Only one user's jobs
  bookarr downloads show 42           # Show detailed info for job #42
  bookarr downloads cancel 42         # Cancel job #42
  bookarr downloads cancel 42 --delete # Cancel and delete files`,
	RunE: runDownloads,
}

var downloadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show detailed job info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsShow,
}

var downloadsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a download job",
	Long:  "Cancels the job and removes it from the download engine. Use --delete to also remove downloaded files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsCancel,
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
	downloadsCmd.PersistentFlags().StringP("user", "u", "default", "User the jobs belong to")
	downloadsCmd.Flags().BoolP("all", "a", false, "Include terminal jobs (completed, failed, canceled)")

	downloadsCancelCmd.Flags().BoolP("delete", "d", false, "Also delete downloaded files")
	downloadsCmd.AddCommand(downloadsShowCmd)
	downloadsCmd.AddCommand(downloadsCancelCmd)
}

func runDownloads(cmd *cobra.Command, _ []string) error {
	showAll, _ := cmd.Flags().GetBool("all")
	userID, _ := cmd.Flags().GetString("user")

	client := NewClient(serverURL)
	jobs, err := client.Downloads(userID, !showAll)
	if err != nil {
		return fmt.Errorf("list downloads failed: %w", err)
	}

	if jsonOutput {
		return printJSON(jobs)
	}

	if len(jobs) == 0 {
		fmt.Println("No downloads.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOK\tTYPE\tSTATUS\tSOURCE\tUPDATED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			j.ID, j.BookID, j.MediaType, j.Status, j.Source,
			j.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runDownloadsShow(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ID: %s", args[0])
	}

	client := NewClient(serverURL)
	job, err := client.Download(id)
	if err != nil {
		return fmt.Errorf("get download failed: %w", err)
	}

	if jsonOutput {
		return printJSON(job)
	}

	fmt.Printf("Job:        %d\n", job.ID)
	fmt.Printf("User:       %s\n", job.UserID)
	fmt.Printf("Book:       %d (%s)\n", job.BookID, job.MediaType)
	fmt.Printf("Status:     %s\n", job.Status)
	if job.Source != "" {
		fmt.Printf("Source:     %s\n", job.Source)
	}
	if job.ExternalID != "" {
		fmt.Printf("Engine ID:  %s\n", job.ExternalID)
	}
	if job.FailureReason != "" {
		fmt.Printf("Failure:    %s\n", job.FailureReason)
	}
	fmt.Printf("Created:    %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if job.CompletedAt != nil {
		fmt.Printf("Completed:  %s\n", job.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDownloadsCancel(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ID: %s", args[0])
	}
	deleteFiles, _ := cmd.Flags().GetBool("delete")
	userID, _ := cmd.Flags().GetString("user")

	client := NewClient(serverURL)
	if err := client.CancelDownload(id, userID, deleteFiles); err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	if deleteFiles {
		fmt.Printf("Download %d canceled (files deleted)\n", id)
	} else {
		fmt.Printf("Download %d canceled\n", id)
	}
	return nil
}
