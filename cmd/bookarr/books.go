package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List catalog books",
	Long: `List catalog books.

Examples:
  bookarr books           # List all books
  bookarr books show 3    # Show one book with its media assets`,
	RunE: runBooks,
}

var booksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one book with its assets",
	Args:  cobra.ExactArgs(1),
	RunE:  runBooksShow,
}

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(booksShowCmd)
}

func runBooks(_ *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	books, err := client.Books()
	if err != nil {
		return fmt.Errorf("list books failed: %w", err)
	}

	if jsonOutput {
		return printJSON(books)
	}

	if len(books.Items) == 0 {
		fmt.Println("No books in catalog.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEY\tTITLE\tAUTHOR\tYEAR\tSTATE")
	for _, b := range books.Items {
		fmt.Fprintf(w, "%d\t%s:%s\t%s\t%s\t%d\t%s\n",
			b.ID, b.Provider, b.Key, b.Title, b.Author, b.Year, b.State)
	}
	return w.Flush()
}

func runBooksShow(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ID: %s", args[0])
	}

	client := NewClient(serverURL)
	book, err := client.Book(id)
	if err != nil {
		return fmt.Errorf("get book failed: %w", err)
	}

	if jsonOutput {
		return printJSON(book)
	}

	fmt.Printf("Title:  %s (%d)\n", book.Title, book.Year)
	fmt.Printf("Author: %s\n", book.Author)
	fmt.Printf("Key:    %s:%s\n", book.Provider, book.Key)
	fmt.Printf("State:  %s\n", book.State)
	if len(book.Assets) == 0 {
		fmt.Println("Assets: none")
		return nil
	}

	fmt.Println("Assets:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  TYPE\tSTATUS\tSIZE\tPATH")
	for _, a := range book.Assets {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			a.MediaType, a.Status, formatSize(a.SizeBytes), a.StoragePath)
	}
	return w.Flush()
}
