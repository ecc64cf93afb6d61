package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mursalin-dev/chatkit/internal/chat"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a fresh conversation",
		Long: `Archives the current session locally (when it has messages in this
process) and mints a new session id. The server keeps the old conversation;
it stays resumable from history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			// Offline controller: the reset only touches persisted state, the
			// start for the new session goes out on the next chat run.
			ctrl, err := newController(cfg, logger, chat.NopNotifier{})
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctrl.ResetChat()
			fmt.Printf("New session: %s\n", ctrl.Snapshot().SessionID)
			return nil
		},
	}
}
