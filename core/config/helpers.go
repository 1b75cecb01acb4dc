package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns a map of the non-secret settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":           Global.App.Version,
		"app_debug":             Global.App.Debug,
		"command_prefixes":      Global.App.CommandPrefixes,
		"session_dir":           Global.Session.Dir,
		"write_store":           Global.Session.WriteStore,
		"persist_interval":      Global.Session.PersistInterval.String(),
		"plugin_dir":            Global.Registry.PluginDir,
		"scraper_dir":           Global.Registry.ScraperDir,
		"db_driver":             Global.Database.Driver,
		"whatsapp_status_read":  Global.Whatsapp.StatusRead,
		"whatsapp_status_react": Global.Whatsapp.StatusReact,
		"ai_provider":           Global.AI.Provider,
	}
}

// IsOwner reports whether the bare phone number belongs to a configured owner.
func (c *Config) IsOwner(number string) bool {
	number = NormalizeNumber(number)
	if number == "" {
		return false
	}
	for _, o := range c.App.OwnerNumbers {
		if o == number {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// NormalizeNumber keeps only the digits of a phone number.
func NormalizeNumber(v string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
}

func NormalizeNumbers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if n := NormalizeNumber(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
