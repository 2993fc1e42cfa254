package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <user-id> <message...>",
	Short: "Send a direct message",
	Long: `Send a direct message to another user.

Examples:
  courier send u2 see you at noon
  courier send u2 "multi  spaced   content"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	recipient := args[0]
	content := strings.Join(args[1:], " ")

	msg, err := eng.SendMessage(cmd.Context(), recipient, content)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	fmt.Printf("Sent message %s to %s\n", msg.ID, recipient)
	return nil
}
