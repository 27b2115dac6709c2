// Package config provides configuration loading for tubenav using TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Navigation settings
type Navigation struct {
	NearEnd       int    `toml:"nearEnd"` // re-discover this close to the end of the set
	Stride        int    `toml:"stride"`  // items per big move
	HomeURL       string `toml:"homeURL"`
	RetreatPolicy string `toml:"retreatPolicy"` // "focus-player", "clamp" or "disable-on-watch"
}

// Lifecycle timings, in milliseconds
type Lifecycle struct {
	SettleDelayMs      int   `toml:"settleDelayMs"`
	StartDelaysMs      []int `toml:"startDelaysMs"`
	RetryDelaysMs      []int `toml:"retryDelaysMs"` // only run while the set is sparse
	SparseThreshold    int   `toml:"sparseThreshold"`
	FallbackIntervalMs int   `toml:"fallbackIntervalMs"`
}

// Browser settings
type Browser struct {
	ChromePath  string `toml:"chromePath"`
	UserAgent   string `toml:"userAgent"`
	Headless    bool   `toml:"headless"`
	StartURL    string `toml:"startURL"`
	UserDataDir string `toml:"userDataDir"`
	OpTimeoutMs int    `toml:"opTimeoutMs"`
}

// Keybindings names the key for each action, as reported by a keydown event.
type Keybindings struct {
	Advance    string `toml:"advance"`
	Retreat    string `toml:"retreat"`
	BigAdvance string `toml:"bigAdvance"`
	BigRetreat string `toml:"bigRetreat"`
	Activate   string `toml:"activate"`
	Home       string `toml:"home"`
}

// Log settings
type Log struct {
	Level int  `toml:"level"` // verbosity, 0 = info
	JSON  bool `toml:"json"`
}

// Config is the main configuration struct
type Config struct {
	Navigation  Navigation  `toml:"navigation"`
	Lifecycle   Lifecycle   `toml:"lifecycle"`
	Browser     Browser     `toml:"browser"`
	Keybindings Keybindings `toml:"keybindings"`
	Log         Log         `toml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Navigation: Navigation{
			NearEnd:       3,
			Stride:        5,
			HomeURL:       "https://www.youtube.com",
			RetreatPolicy: "focus-player",
		},
		Lifecycle: Lifecycle{
			SettleDelayMs:      1000,
			StartDelaysMs:      []int{500, 1000},
			RetryDelaysMs:      []int{3000, 5000},
			SparseThreshold:    10,
			FallbackIntervalMs: 5000,
		},
		Browser: Browser{
			StartURL:    "https://www.youtube.com",
			OpTimeoutMs: 2000,
		},
		Keybindings: Keybindings{
			Advance:    "d",
			Retreat:    "a",
			BigAdvance: "s",
			BigRetreat: "w",
			Activate:   "enter",
			Home:       "r",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tubenav"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	userCfg, meta, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	result := merge(cfg, userCfg, meta)
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return result, nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, meta, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, meta, nil
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults. Booleans and lists
// override whenever the key is present in the file.
func merge(defaults, user *Config, meta toml.MetaData) *Config {
	result := *defaults
	result.Lifecycle.StartDelaysMs = append([]int(nil), defaults.Lifecycle.StartDelaysMs...)
	result.Lifecycle.RetryDelaysMs = append([]int(nil), defaults.Lifecycle.RetryDelaysMs...)

	// Navigation
	if user.Navigation.NearEnd != 0 {
		result.Navigation.NearEnd = user.Navigation.NearEnd
	}
	if user.Navigation.Stride != 0 {
		result.Navigation.Stride = user.Navigation.Stride
	}
	if user.Navigation.HomeURL != "" {
		result.Navigation.HomeURL = user.Navigation.HomeURL
	}
	if user.Navigation.RetreatPolicy != "" {
		result.Navigation.RetreatPolicy = user.Navigation.RetreatPolicy
	}

	// Lifecycle
	if user.Lifecycle.SettleDelayMs != 0 {
		result.Lifecycle.SettleDelayMs = user.Lifecycle.SettleDelayMs
	}
	if meta.IsDefined("lifecycle", "startDelaysMs") {
		result.Lifecycle.StartDelaysMs = user.Lifecycle.StartDelaysMs
	}
	if meta.IsDefined("lifecycle", "retryDelaysMs") {
		result.Lifecycle.RetryDelaysMs = user.Lifecycle.RetryDelaysMs
	}
	if user.Lifecycle.SparseThreshold != 0 {
		result.Lifecycle.SparseThreshold = user.Lifecycle.SparseThreshold
	}
	if user.Lifecycle.FallbackIntervalMs != 0 {
		result.Lifecycle.FallbackIntervalMs = user.Lifecycle.FallbackIntervalMs
	}

	// Browser
	if user.Browser.ChromePath != "" {
		result.Browser.ChromePath = user.Browser.ChromePath
	}
	if user.Browser.UserAgent != "" {
		result.Browser.UserAgent = user.Browser.UserAgent
	}
	if meta.IsDefined("browser", "headless") {
		result.Browser.Headless = user.Browser.Headless
	}
	if user.Browser.StartURL != "" {
		result.Browser.StartURL = user.Browser.StartURL
	}
	if user.Browser.UserDataDir != "" {
		result.Browser.UserDataDir = user.Browser.UserDataDir
	}
	if user.Browser.OpTimeoutMs != 0 {
		result.Browser.OpTimeoutMs = user.Browser.OpTimeoutMs
	}

	// Keybindings - override each if set
	mergeKeybinding(&result.Keybindings.Advance, user.Keybindings.Advance)
	mergeKeybinding(&result.Keybindings.Retreat, user.Keybindings.Retreat)
	mergeKeybinding(&result.Keybindings.BigAdvance, user.Keybindings.BigAdvance)
	mergeKeybinding(&result.Keybindings.BigRetreat, user.Keybindings.BigRetreat)
	mergeKeybinding(&result.Keybindings.Activate, user.Keybindings.Activate)
	mergeKeybinding(&result.Keybindings.Home, user.Keybindings.Home)

	// Log
	if user.Log.Level != 0 {
		result.Log.Level = user.Log.Level
	}
	if meta.IsDefined("log", "json") {
		result.Log.JSON = user.Log.JSON
	}

	return &result
}

func mergeKeybinding(dst *string, src string) {
	if src != "" {
		*dst = strings.ToLower(src)
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Navigation.RetreatPolicy {
	case "focus-player", "clamp", "disable-on-watch":
	default:
		return fmt.Errorf("navigation.retreatPolicy: unknown policy %q", c.Navigation.RetreatPolicy)
	}
	if c.Navigation.NearEnd < 0 || c.Navigation.Stride < 0 {
		return errors.New("navigation: nearEnd and stride must not be negative")
	}

	seen := make(map[string]string)
	for action, key := range c.Keybindings.byAction() {
		if key == "" {
			continue
		}
		if other, ok := seen[key]; ok {
			first, second := min(action, other), max(action, other)
			return fmt.Errorf("keybindings: %q is bound to both %s and %s", key, first, second)
		}
		seen[key] = action
	}
	return nil
}

func (k Keybindings) byAction() map[string]string {
	return map[string]string{
		"advance":    k.Advance,
		"retreat":    k.Retreat,
		"bigAdvance": k.BigAdvance,
		"bigRetreat": k.BigRetreat,
		"activate":   k.Activate,
		"home":       k.Home,
	}
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// MillisList converts a list of millisecond settings.
func MillisList(ms []int) []time.Duration {
	out := make([]time.Duration, 0, len(ms))
	for _, v := range ms {
		out = append(out, Millis(v))
	}
	return out
}

// DefaultTOML returns the default configuration as a TOML string.
// Used by init-config to generate a user config file.
func DefaultTOML() string {
	return `# tubenav configuration
# Save to ~/.config/tubenav/config.toml and customize
# Only include settings you want to change from defaults

[navigation]
nearEnd = 3                       # Look for more items this close to the end
stride = 5                        # Items moved by bigAdvance / bigRetreat
homeURL = "https://www.youtube.com"
retreatPolicy = "focus-player"    # "focus-player", "clamp" or "disable-on-watch"

[lifecycle]
settleDelayMs = 1000              # Wait after a navigation before discovering
startDelaysMs = [500, 1000]       # Discovery passes after start
retryDelaysMs = [3000, 5000]      # Extra passes while fewer than sparseThreshold items
sparseThreshold = 10
fallbackIntervalMs = 5000         # Periodic discovery while nothing is found

[browser]
chromePath = ""                   # Empty = auto-detect
userAgent = ""                    # Empty = Chrome's own
headless = false
startURL = "https://www.youtube.com"
userDataDir = ""                  # Empty = per-user cache directory
opTimeoutMs = 2000

# Key names as reported by the page (KeyboardEvent.key, lower case)
[keybindings]
advance = "d"
retreat = "a"
bigAdvance = "s"
bigRetreat = "w"
activate = "enter"
home = "r"

[log]
level = 0                         # 1 = discovery and actions, 2 = absorbed failures
json = false
`
}

// FormatError formats a configuration error for user display.
func FormatError(err error) string {
	return fmt.Sprintf("Configuration error:\n\n%s", err.Error())
}
