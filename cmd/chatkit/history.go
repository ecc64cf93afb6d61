package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mursalin-dev/chatkit/internal/chat"
	"github.com/mursalin-dev/chatkit/internal/storage"
)

var (
	historyIDStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	historyDateStyle = lipgloss.NewStyle().Faint(true)
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store := storage.NewFileStore(cfg.DataDir, "state.json")

			entries := chat.LoadHistory(store)
			if len(entries) == 0 {
				fmt.Println("No past conversations.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %s\n",
					historyIDStyle.Render(e.SessionID),
					historyDateStyle.Render(e.Date.Format("2006-01-02 15:04")),
					e.Preview)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a past conversation from local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store := storage.NewFileStore(cfg.DataDir, "state.json")

			if !chat.RemoveHistoryEntry(store, args[0]) {
				return fmt.Errorf("no history entry for %s", args[0])
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}
