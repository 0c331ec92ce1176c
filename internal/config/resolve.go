package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvConfig   = "CHECKIN_CONFIG"
	EnvAccounts = "LEAFLOW_ACCOUNTS"
	EnvBotToken = "TELEGRAM_BOT_TOKEN"
	EnvChatID   = "TELEGRAM_CHAT_ID"
)

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "checkin", "config.yaml"))
	}
	paths = append(paths, "/etc/checkin/config.yaml")
	return paths
}

// Resolve loads the config from the explicit path, $CHECKIN_CONFIG, or the
// default locations. With no file anywhere it falls back to Default() so a
// plain environment (LEAFLOW_ACCOUNTS etc.) is enough to run. Environment
// overrides and then each overlay are applied before validation.
func Resolve(explicit string, overlays ...func(*Config)) (*Config, error) {
	path, err := Path(explicit)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg, os.Getenv)
	for _, o := range overlays {
		o(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv fills gaps in cfg from the process environment: the accounts
// string, a Telegram service built from bot token + chat id, and CI mode.
// Services whose credential expanded to nothing are dropped first, so an
// unset token means no notification rather than a failing one.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg.Accounts == "" {
		cfg.Accounts = getenv(EnvAccounts)
	}

	for name, svc := range cfg.Notify.Services {
		if unsetCredential(svc.URL) {
			delete(cfg.Notify.Services, name)
		}
	}

	token, chat := getenv(EnvBotToken), getenv(EnvChatID)
	if len(cfg.Notify.Services) == 0 && token != "" && chat != "" {
		cfg.Notify.Services = map[string]Service{
			"telegram": {
				URL:    "telegram://" + token + "@telegram",
				Params: map[string]string{"chats": chat},
			},
		}
	}

	if isCI(getenv) {
		cfg.Browser.CI = true
		cfg.Browser.Headless = true
	}
}

// unsetCredential reports whether rawURL is empty or carries an empty
// userinfo part, as "telegram://${TOKEN}@telegram" does with TOKEN unset.
func unsetCredential(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return false
	}
	pw, _ := u.User.Password()
	return u.User.Username() == "" && pw == ""
}

func isCI(getenv func(string) string) bool {
	for _, key := range []string{"GITHUB_ACTIONS", "CI"} {
		switch strings.ToLower(getenv(key)) {
		case "", "0", "false":
		default:
			return true
		}
	}
	return false
}

// Path returns the config file Resolve would read, or "" when nothing was
// requested and no default exists.
func Path(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfig)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}
