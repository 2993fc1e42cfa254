package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <user-id> <query...>",
	Short: "Search messages in a conversation",
	Long: `Search the conversation with another user for messages matching the
query.

Examples:
  courier search u2 lunch
  courier search u2 project deadline -n 10`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	counterpart := args[0]
	query := strings.Join(args[1:], " ")

	messages, err := apiClient.SearchMessages(cmd.Context(), counterpart, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search messages: %w", err)
	}

	if len(messages) == 0 {
		fmt.Println("No matching messages.")
		return nil
	}

	for _, m := range messages {
		printMessage(m)
	}
	return nil
}
