package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mursalin-dev/chatkit/internal/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctrl, err := newController(cfg, logger, tui.Bell{Enabled: cfg.Sound})
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.Connect(context.Background()); err != nil {
				return err
			}
			return tui.Run(ctrl)
		},
	}
}
