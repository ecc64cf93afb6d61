package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mursalin-dev/chatkit/internal/chat"
	"github.com/mursalin-dev/chatkit/internal/config"
	"github.com/mursalin-dev/chatkit/internal/storage"
	"github.com/mursalin-dev/chatkit/internal/transport"
)

var (
	flagConfig string
	flagServer string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatkit",
		Short: "Terminal client for the portfolio live-chat service",
		Long: `chatkit maintains a visitor chat session against the portfolio
live-chat service: it persists the session across runs, reconnects
automatically, captures contact details, and keeps a local history of past
conversations.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "chat service URL (overrides config)")

	root.AddCommand(newChatCmd(), newHistoryCmd(), newResetCmd())
	return root
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "chatkit",
	})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	return cfg, logger, nil
}

// newController assembles the session controller from configuration.
func newController(cfg *config.Config, logger *log.Logger, notifier chat.Notifier) (*chat.Controller, error) {
	store := storage.NewFileStore(cfg.DataDir, "state.json")
	ws := transport.NewWS(cfg.ServerURL, logger)

	return chat.New(chat.Options{
		Store:               store,
		Transport:           ws,
		Notifier:            notifier,
		Logger:              logger,
		ProactiveDelay:      cfg.ProactiveDelay,
		SoftPromptThreshold: cfg.SoftPromptThreshold,
		HistoryLimit:        cfg.HistoryLimit,
	})
}
