package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the total unread message count",
	Args:  cobra.NoArgs,
	RunE:  runUnread,
}

func runUnread(cmd *cobra.Command, args []string) error {
	count, err := apiClient.GetUnreadCount(cmd.Context())
	if err != nil {
		return fmt.Errorf("unread count: %w", err)
	}

	fmt.Println(count)
	return nil
}
