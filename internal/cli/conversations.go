package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"ls"},
	Short:   "List conversations with unread counts",
	Long: `List all conversations, most recent first, with the latest message
and the number of unread messages per counterpart.`,
	Args: cobra.NoArgs,
	RunE: runConversations,
}

func runConversations(cmd *cobra.Command, args []string) error {
	eng.FetchConversations(cmd.Context())

	st := eng.Snapshot()
	if st.Err != "" {
		return errors.New(st.Err)
	}
	if len(st.Conversations) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	for _, c := range st.Conversations {
		label := fmt.Sprintf("%s (%s)", c.OtherUsername, c.OtherUserID)
		badge := ""
		if c.UnreadCount > 0 {
			badge = fmt.Sprintf(" [%d unread]", c.UnreadCount)
		}
		when := c.LatestMessage.CreatedAt.Local().Format("Jan 02 15:04")

		avail := width - len(label) - len(badge) - len(when) - 6
		preview := truncate(c.LatestMessage.Content, avail)

		fmt.Printf("%s%s  %s  %s\n", label, badge, when, preview)
	}

	fmt.Printf("\n%d unread total\n", st.UnreadCount)
	return nil
}

// truncate shortens s to at most n runes, ellipsized.
func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
