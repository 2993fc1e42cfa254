package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <message-id>",
	Short: "Delete one of your messages",
	Long: `Delete a message you sent. The message is removed only after the
server confirms the deletion; other users' messages cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := eng.DeleteMessage(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	fmt.Printf("Deleted message %s\n", args[0])
	return nil
}
