package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., WatchProjectSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	Port            int
	ProjectFile     string
	WatchProject    bool
	WatchProjectSet bool // tracks if watch_project was explicitly set
	TabLimit        int

	// trace alert notifications, see pkg/notify
	NotifyChannels        []string // telegram, slack, email, webhook, custom
	NotifyStatuses        []string // step outcomes that raise an alert
	NotifyTimeoutMs       int
	NotifyTelegramToken   string
	NotifyTelegramChat    string
	NotifySlackToken      string
	NotifySlackChannel    string
	NotifySMTPHost        string
	NotifySMTPPort        int
	NotifySMTPUsername    string
	NotifySMTPPassword    string
	NotifySMTPStartTLS    bool
	NotifySMTPStartTLSSet bool // tracks if notify_smtp_starttls was explicitly set
	NotifyEmailFrom       string
	NotifyEmailTo         []string
	NotifyWebhookURLs     []string
	NotifyCustomScript    string
}

// valuesLoader loads Values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("")

	if key, err := section.GetKey("port"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid port: %w", intErr)
		}
		if val < 1 || val > 65535 {
			return Values{}, fmt.Errorf("invalid port: must be in 1..65535, got %d", val)
		}
		values.Port = val
	}

	if key, err := section.GetKey("project_file"); err == nil {
		values.ProjectFile = strings.TrimSpace(key.String())
	}

	if key, err := section.GetKey("watch_project"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid watch_project: %w", boolErr)
		}
		values.WatchProject = val
		values.WatchProjectSet = true
	}

	if key, err := section.GetKey("tab_limit"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid tab_limit: %w", intErr)
		}
		if val < 1 {
			return Values{}, fmt.Errorf("invalid tab_limit: must be positive, got %d", val)
		}
		values.TabLimit = val
	}

	if err := parseNotifyValues(section, &values); err != nil {
		return Values{}, err
	}

	return values, nil
}

// parseNotifyValues reads the notify_* keys into values.
func parseNotifyValues(section *ini.Section, values *Values) error {
	lists := []struct {
		key   string
		field *[]string
	}{
		{"notify_channels", &values.NotifyChannels},
		{"notify_statuses", &values.NotifyStatuses},
		{"notify_email_to", &values.NotifyEmailTo},
		{"notify_webhook_urls", &values.NotifyWebhookURLs},
	}
	for _, l := range lists {
		if key, err := section.GetKey(l.key); err == nil {
			*l.field = splitList(key.String())
		}
	}

	strs := []struct {
		key   string
		field *string
	}{
		{"notify_telegram_token", &values.NotifyTelegramToken},
		{"notify_telegram_chat", &values.NotifyTelegramChat},
		{"notify_slack_token", &values.NotifySlackToken},
		{"notify_slack_channel", &values.NotifySlackChannel},
		{"notify_smtp_host", &values.NotifySMTPHost},
		{"notify_smtp_username", &values.NotifySMTPUsername},
		{"notify_smtp_password", &values.NotifySMTPPassword},
		{"notify_email_from", &values.NotifyEmailFrom},
		{"notify_custom_script", &values.NotifyCustomScript},
	}
	for _, sv := range strs {
		if key, err := section.GetKey(sv.key); err == nil {
			*sv.field = strings.TrimSpace(key.String())
		}
	}

	if key, err := section.GetKey("notify_timeout_ms"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, intErr := key.Int()
		if intErr != nil || val < 0 {
			return fmt.Errorf("invalid notify_timeout_ms: %q", key.String())
		}
		values.NotifyTimeoutMs = val
	}

	if key, err := section.GetKey("notify_smtp_port"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, intErr := key.Int()
		if intErr != nil || val < 1 || val > 65535 {
			return fmt.Errorf("invalid notify_smtp_port: %q", key.String())
		}
		values.NotifySMTPPort = val
	}

	if key, err := section.GetKey("notify_smtp_starttls"); err == nil && strings.TrimSpace(key.String()) != "" {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return fmt.Errorf("invalid notify_smtp_starttls: %w", boolErr)
		}
		values.NotifySMTPStartTLS = val
		values.NotifySMTPStartTLSSet = true
	}
	return nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var res []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.ProjectFile != "" {
		dst.ProjectFile = src.ProjectFile
	}
	if src.WatchProjectSet {
		dst.WatchProject = src.WatchProject
		dst.WatchProjectSet = true
	}
	if src.TabLimit != 0 {
		dst.TabLimit = src.TabLimit
	}
	dst.mergeNotifyFrom(src)
}

// mergeNotifyFrom merges notify_* values. lists are replaced as a whole.
func (dst *Values) mergeNotifyFrom(src *Values) {
	for _, l := range []struct{ dst, src *[]string }{
		{&dst.NotifyChannels, &src.NotifyChannels},
		{&dst.NotifyStatuses, &src.NotifyStatuses},
		{&dst.NotifyEmailTo, &src.NotifyEmailTo},
		{&dst.NotifyWebhookURLs, &src.NotifyWebhookURLs},
	} {
		if len(*l.src) > 0 {
			*l.dst = *l.src
		}
	}
	for _, sv := range []struct{ dst, src *string }{
		{&dst.NotifyTelegramToken, &src.NotifyTelegramToken},
		{&dst.NotifyTelegramChat, &src.NotifyTelegramChat},
		{&dst.NotifySlackToken, &src.NotifySlackToken},
		{&dst.NotifySlackChannel, &src.NotifySlackChannel},
		{&dst.NotifySMTPHost, &src.NotifySMTPHost},
		{&dst.NotifySMTPUsername, &src.NotifySMTPUsername},
		{&dst.NotifySMTPPassword, &src.NotifySMTPPassword},
		{&dst.NotifyEmailFrom, &src.NotifyEmailFrom},
		{&dst.NotifyCustomScript, &src.NotifyCustomScript},
	} {
		if *sv.src != "" {
			*sv.dst = *sv.src
		}
	}
	if src.NotifyTimeoutMs != 0 {
		dst.NotifyTimeoutMs = src.NotifyTimeoutMs
	}
	if src.NotifySMTPPort != 0 {
		dst.NotifySMTPPort = src.NotifySMTPPort
	}
	if src.NotifySMTPStartTLSSet {
		dst.NotifySMTPStartTLS = src.NotifySMTPStartTLS
		dst.NotifySMTPStartTLSSet = true
	}
}
