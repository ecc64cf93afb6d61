package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "chatkit"

// Config holds the client configuration. Values come from the config file,
// CHATKIT_* environment variables, and defaults, in that order of precedence.
type Config struct {
	// ServerURL is the ws:// or wss:// endpoint of the chat service.
	ServerURL string `mapstructure:"server_url"`
	// DataDir holds the persisted client state (session id, visitor info,
	// conversation history).
	DataDir string `mapstructure:"data_dir"`
	// ProactiveDelay is how long to wait before starting the session
	// unsolicited when the panel was never opened.
	ProactiveDelay time.Duration `mapstructure:"proactive_delay"`
	// SoftPromptThreshold is the visitor-message count that triggers the
	// soft lead-capture prompt.
	SoftPromptThreshold int `mapstructure:"soft_prompt_threshold"`
	// HistoryLimit bounds the local conversation history list.
	HistoryLimit int `mapstructure:"history_limit"`
	// Sound enables the notification sound (terminal bell).
	Sound bool `mapstructure:"sound"`
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`
}

// Load reads the configuration. An explicit path overrides the search paths;
// a missing config file in the search paths is not an error, defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	configure(v)

	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return &cfg, nil
}

// configure sets up viper's search paths, env binding, and defaults.
func configure(v *viper.Viper) {
	v.SetConfigName(fmt.Sprintf(".%s", appName))
	v.SetConfigType("json")
	v.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	v.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	v.AddConfigPath("$HOME")
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.AutomaticEnv()

	v.SetDefault("server_url", "ws://localhost:4040/ws")
	v.SetDefault("proactive_delay", 10*time.Second)
	v.SetDefault("soft_prompt_threshold", 5)
	v.SetDefault("history_limit", 20)
	v.SetDefault("sound", true)
	v.SetDefault("debug", false)
}

// defaultDataDir resolves the state directory, preferring XDG locations.
func defaultDataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Sprintf("./.%s", appName)
	}
	return filepath.Join(homeDir, ".local", "share", appName)
}
