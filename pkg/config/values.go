package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/chatcheck/pkg/dom"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., HeadlessSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	BaseURL           string
	Username          string
	Password          string
	Driver            string // playwright or chromedp
	Browser           string // playwright browser type
	Headless          bool
	HeadlessSet       bool // tracks if headless was explicitly set
	IdleWindowMs      int
	IdleWindowMsSet   bool // tracks if idle_window_ms was explicitly set
	WaitTimeoutMs     int
	WaitTimeoutMsSet  bool // tracks if wait_timeout_ms was explicitly set
	PollIntervalMs    int
	PollIntervalMsSet bool // tracks if poll_interval_ms was explicitly set
	UpdatePattern     string
	Scenario          string        // scenario file path, empty for the built-in one
	Selectors         dom.Selectors // non-empty fields override the built-in selectors

	NotifyChannels        []string
	NotifyChannelsSet     bool
	NotifyOnError         bool
	NotifyOnErrorSet      bool
	NotifyOnComplete      bool
	NotifyOnCompleteSet   bool
	NotifyTimeoutMs       int
	NotifyTimeoutMsSet    bool
	NotifyTelegramToken   string
	NotifyTelegramChat    string
	NotifySlackToken      string
	NotifySlackChannel    string
	NotifySMTPHost        string
	NotifySMTPPort        int
	NotifySMTPPortSet     bool
	NotifySMTPUsername    string
	NotifySMTPPassword    string
	NotifySMTPStartTLS    bool
	NotifySMTPStartTLSSet bool
	NotifyEmailFrom       string
	NotifyEmailTo         []string
	NotifyEmailToSet      bool
	NotifyWebhookURLs     []string
	NotifyWebhookURLsSet  bool
	NotifyCustomScript    string
}

// parseValues reads the scalar keys of one config source.
func parseValues(section *ini.Section) (Values, error) {
	var values Values

	// client and browser
	getString(section, "base_url", &values.BaseURL)
	getString(section, "username", &values.Username)
	getString(section, "password", &values.Password)
	getString(section, "driver", &values.Driver)
	getString(section, "browser", &values.Browser)
	if values.Driver != "" && values.Driver != "playwright" && values.Driver != "chromedp" {
		return Values{}, fmt.Errorf("invalid driver: %q, must be playwright or chromedp", values.Driver)
	}
	if err := getBool(section, "headless", &values.Headless, &values.HeadlessSet); err != nil {
		return Values{}, err
	}

	// timing
	if err := getNonNegativeInt(section, "idle_window_ms", &values.IdleWindowMs, &values.IdleWindowMsSet); err != nil {
		return Values{}, err
	}
	if err := getNonNegativeInt(section, "wait_timeout_ms", &values.WaitTimeoutMs, &values.WaitTimeoutMsSet); err != nil {
		return Values{}, err
	}
	if err := getNonNegativeInt(section, "poll_interval_ms", &values.PollIntervalMs, &values.PollIntervalMsSet); err != nil {
		return Values{}, err
	}

	getString(section, "update_pattern", &values.UpdatePattern)
	if values.UpdatePattern != "" {
		if _, err := regexp.Compile(values.UpdatePattern); err != nil {
			return Values{}, fmt.Errorf("invalid update_pattern: %w", err)
		}
	}

	getString(section, "scenario", &values.Scenario)
	values.Scenario = expandTilde(values.Scenario)

	// DOM contract overrides
	getString(section, "selector_heading", &values.Selectors.Heading)
	getString(section, "selector_body", &values.Selectors.Body)
	getString(section, "selector_compose_form", &values.Selectors.ComposeForm)
	getString(section, "selector_compose_send", &values.Selectors.ComposeSend)
	getString(section, "selector_compose_open", &values.Selectors.ComposeOpen)
	getString(section, "selector_unnarrow", &values.Selectors.Unnarrow)
	getString(section, "selector_login_link", &values.Selectors.LoginLink)
	getString(section, "selector_login_form", &values.Selectors.LoginForm)
	if s := values.Selectors.ComposeOpen; s != "" && strings.Count(s, "%s") != 1 {
		return Values{}, fmt.Errorf("invalid selector_compose_open: %q must contain %%s once", s)
	}

	if err := parseNotifyValues(section, &values); err != nil {
		return Values{}, err
	}
	return values, nil
}

// parseNotifyValues reads the notify_* keys.
func parseNotifyValues(section *ini.Section, values *Values) error {
	getList(section, "notify_channels", &values.NotifyChannels, &values.NotifyChannelsSet)
	if err := getBool(section, "notify_on_error", &values.NotifyOnError, &values.NotifyOnErrorSet); err != nil {
		return err
	}
	if err := getBool(section, "notify_on_complete", &values.NotifyOnComplete, &values.NotifyOnCompleteSet); err != nil {
		return err
	}
	if err := getNonNegativeInt(section, "notify_timeout_ms", &values.NotifyTimeoutMs, &values.NotifyTimeoutMsSet); err != nil {
		return err
	}
	getString(section, "notify_telegram_token", &values.NotifyTelegramToken)
	getString(section, "notify_telegram_chat", &values.NotifyTelegramChat)
	getString(section, "notify_slack_token", &values.NotifySlackToken)
	getString(section, "notify_slack_channel", &values.NotifySlackChannel)
	getString(section, "notify_smtp_host", &values.NotifySMTPHost)
	if err := getNonNegativeInt(section, "notify_smtp_port", &values.NotifySMTPPort, &values.NotifySMTPPortSet); err != nil {
		return err
	}
	getString(section, "notify_smtp_username", &values.NotifySMTPUsername)
	getString(section, "notify_smtp_password", &values.NotifySMTPPassword)
	if err := getBool(section, "notify_smtp_starttls", &values.NotifySMTPStartTLS, &values.NotifySMTPStartTLSSet); err != nil {
		return err
	}
	getString(section, "notify_email_from", &values.NotifyEmailFrom)
	getList(section, "notify_email_to", &values.NotifyEmailTo, &values.NotifyEmailToSet)
	getList(section, "notify_webhook_urls", &values.NotifyWebhookURLs, &values.NotifyWebhookURLsSet)
	getString(section, "notify_custom_script", &values.NotifyCustomScript)
	values.NotifyCustomScript = expandTilde(values.NotifyCustomScript)
	return nil
}

func getString(section *ini.Section, name string, dst *string) {
	if key, err := section.GetKey(name); err == nil {
		*dst = strings.TrimSpace(key.String())
	}
}

func getBool(section *ini.Section, name string, dst, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil //nolint:nilerr // missing key is not an error
	}
	val, err := key.Bool()
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst, *set = val, true
	return nil
}

func getNonNegativeInt(section *ini.Section, name string, dst *int, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil //nolint:nilerr // missing key is not an error
	}
	val, err := key.Int()
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if val < 0 {
		return fmt.Errorf("invalid %s: must be non-negative, got %d", name, val)
	}
	*dst, *set = val, true
	return nil
}

// getList reads a comma-separated list. a present but empty key sets the flag with an empty list.
func getList(section *ini.Section, name string, dst *[]string, set *bool) {
	key, err := section.GetKey(name)
	if err != nil {
		return
	}
	*set = true
	*dst = nil
	for p := range strings.SplitSeq(key.String(), ",") {
		if t := strings.TrimSpace(p); t != "" {
			*dst = append(*dst, t)
		}
	}
}

// expandTilde replaces a leading ~/ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	pick := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	pick(&dst.BaseURL, src.BaseURL)
	pick(&dst.Username, src.Username)
	pick(&dst.Password, src.Password)
	pick(&dst.Driver, src.Driver)
	pick(&dst.Browser, src.Browser)
	if src.HeadlessSet {
		dst.Headless, dst.HeadlessSet = src.Headless, true
	}
	if src.IdleWindowMsSet {
		dst.IdleWindowMs, dst.IdleWindowMsSet = src.IdleWindowMs, true
	}
	if src.WaitTimeoutMsSet {
		dst.WaitTimeoutMs, dst.WaitTimeoutMsSet = src.WaitTimeoutMs, true
	}
	if src.PollIntervalMsSet {
		dst.PollIntervalMs, dst.PollIntervalMsSet = src.PollIntervalMs, true
	}
	pick(&dst.UpdatePattern, src.UpdatePattern)
	pick(&dst.Scenario, src.Scenario)
	dst.Selectors = dst.Selectors.Merge(src.Selectors)

	if src.NotifyChannelsSet {
		dst.NotifyChannels, dst.NotifyChannelsSet = src.NotifyChannels, true
	}
	if src.NotifyOnErrorSet {
		dst.NotifyOnError, dst.NotifyOnErrorSet = src.NotifyOnError, true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete, dst.NotifyOnCompleteSet = src.NotifyOnComplete, true
	}
	if src.NotifyTimeoutMsSet {
		dst.NotifyTimeoutMs, dst.NotifyTimeoutMsSet = src.NotifyTimeoutMs, true
	}
	pick(&dst.NotifyTelegramToken, src.NotifyTelegramToken)
	pick(&dst.NotifyTelegramChat, src.NotifyTelegramChat)
	pick(&dst.NotifySlackToken, src.NotifySlackToken)
	pick(&dst.NotifySlackChannel, src.NotifySlackChannel)
	pick(&dst.NotifySMTPHost, src.NotifySMTPHost)
	if src.NotifySMTPPortSet {
		dst.NotifySMTPPort, dst.NotifySMTPPortSet = src.NotifySMTPPort, true
	}
	pick(&dst.NotifySMTPUsername, src.NotifySMTPUsername)
	pick(&dst.NotifySMTPPassword, src.NotifySMTPPassword)
	if src.NotifySMTPStartTLSSet {
		dst.NotifySMTPStartTLS, dst.NotifySMTPStartTLSSet = src.NotifySMTPStartTLS, true
	}
	pick(&dst.NotifyEmailFrom, src.NotifyEmailFrom)
	if src.NotifyEmailToSet {
		dst.NotifyEmailTo, dst.NotifyEmailToSet = src.NotifyEmailTo, true
	}
	if src.NotifyWebhookURLsSet {
		dst.NotifyWebhookURLs, dst.NotifyWebhookURLsSet = src.NotifyWebhookURLs, true
	}
	pick(&dst.NotifyCustomScript, src.NotifyCustomScript)
}
