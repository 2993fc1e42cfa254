package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courierchat/courier/internal/engine"
	"github.com/courierchat/courier/internal/models"
)

var (
	historyOffset int
	historyLimit  int
	historyMore   bool
)

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show the conversation with another user",
	Long: `Show a page of the conversation with another user, oldest first.

Use --offset together with --more to page backwards through older
history; the older page is shown before the messages already loaded.

Examples:
  courier history u2
  courier history u2 --limit 20
  courier history u2 --offset 50 --more`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of messages to skip")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", engine.DefaultPageLimit, "page size")
	historyCmd.Flags().BoolVar(&historyMore, "more", false, "treat the page as older history to prepend")
}

func runHistory(cmd *cobra.Command, args []string) error {
	counterpart := args[0]

	eng.SetCurrentConversation(counterpart)
	eng.FetchMessages(cmd.Context(), counterpart, engine.FetchOptions{
		Offset:   historyOffset,
		Limit:    historyLimit,
		LoadMore: historyMore,
	})

	st := eng.Snapshot()
	if st.Err != "" {
		return errors.New(st.Err)
	}
	if len(st.Messages) == 0 {
		fmt.Println("No messages in this conversation.")
		return nil
	}

	for _, m := range st.Messages {
		printMessage(m)
	}
	return nil
}

// printMessage renders one message line for non-interactive output.
func printMessage(m models.Message) {
	sender := m.SenderID
	if sender == cfg.UserID {
		sender = "me"
	}
	fmt.Printf("[%s] %s  %s: %s\n",
		m.ID, m.CreatedAt.Local().Format("Jan 02 15:04"), sender, m.Content)
}
