// Package config loads harness settings from INI files with a fallback chain:
// local .chatcheck/config, then the global config directory, then embedded defaults.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/umputun/chatcheck/pkg/dom"
	"github.com/umputun/chatcheck/pkg/notify"
)

//go:embed defaults/config
var defaultsFS embed.FS

// file names inside a config directory.
const (
	configFile   = "config"
	scenarioFile = "scenario.yml"
	localDirName = ".chatcheck"
)

// Config is the merged configuration of a run.
type Config struct {
	Values
	Colors ColorConfig

	configDir string // global config directory
	localDir  string // .chatcheck in the working directory, empty if absent
}

// Load reads configuration from configDir, or the default location if empty.
// a .chatcheck directory in the working directory overrides it.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	localDir := ""
	if st, err := os.Stat(localDirName); err == nil && st.IsDir() {
		if abs, absErr := filepath.Abs(localDirName); absErr == nil {
			localDir = abs
		}
	}
	return loadWithLocal(configDir, localDir)
}

func loadWithLocal(globalDir, localDir string) (*Config, error) {
	globalPath := filepath.Join(globalDir, configFile)
	localPath := ""
	if localDir != "" {
		localPath = filepath.Join(localDir, configFile)
	}

	res, err := loader{embedFS: defaultsFS}.load(localPath, globalPath)
	if err != nil {
		return nil, err
	}
	return &Config{Values: res.values, Colors: res.colors, configDir: globalDir, localDir: localDir}, nil
}

// DefaultConfigDir returns ~/.config/chatcheck.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "chatcheck")
	}
	return filepath.Join(home, ".config", "chatcheck")
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string { return c.configDir }

// LocalDir returns the local config directory, empty if not used.
func (c *Config) LocalDir() string { return c.localDir }

// ScenarioPath returns the scenario file to run: the configured one, else a
// scenario.yml in the local or global config directory. empty means the built-in scenario.
func (c *Config) ScenarioPath() string {
	if c.Scenario != "" {
		return c.Scenario
	}
	for _, dir := range []string{c.localDir, c.configDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, scenarioFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DOMSelectors returns the built-in selectors with configured overrides applied.
func (c *Config) DOMSelectors() dom.Selectors {
	return dom.DefaultSelectors().Merge(c.Selectors)
}

// IdleWindow returns the quiet period after which messages count as received.
func (c *Config) IdleWindow() time.Duration {
	return time.Duration(c.IdleWindowMs) * time.Millisecond
}

// WaitTimeout returns the upper bound of every wait.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMs) * time.Millisecond
}

// PollInterval returns the period of predicate polling.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// NotifyParams returns the notification settings.
func (c *Config) NotifyParams() notify.Params {
	return notify.Params{
		Channels:      c.NotifyChannels,
		OnError:       c.NotifyOnError,
		OnComplete:    c.NotifyOnComplete,
		TimeoutMs:     c.NotifyTimeoutMs,
		TelegramToken: c.NotifyTelegramToken,
		TelegramChat:  c.NotifyTelegramChat,
		SlackToken:    c.NotifySlackToken,
		SlackChannel:  c.NotifySlackChannel,
		SMTPHost:      c.NotifySMTPHost,
		SMTPPort:      c.NotifySMTPPort,
		SMTPUsername:  c.NotifySMTPUsername,
		SMTPPassword:  c.NotifySMTPPassword,
		SMTPStartTLS:  c.NotifySMTPStartTLS,
		EmailFrom:     c.NotifyEmailFrom,
		EmailTo:       c.NotifyEmailTo,
		WebhookURLs:   c.NotifyWebhookURLs,
		CustomScript:  c.NotifyCustomScript,
	}
}
