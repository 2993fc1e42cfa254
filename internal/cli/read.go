package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <user-id>",
	Short: "Mark a conversation as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
	count, err := apiClient.MarkAsRead(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}

	fmt.Printf("Marked %d messages as read\n", count)
	return nil
}
