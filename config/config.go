package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

type Config struct {
	Port      int
	GamesDir  string // Root dir of the game library, one folder per game
	DataDir   string // Import history and other launcher state
	StaticDir string // Serve the frontend from disk instead of the embedded copy

	Kiosk             bool   // Auto-launch a fullscreen kiosk browser on start
	KioskNoExtensions bool   // Pass --disable-extensions to the kiosk browser
	KioskProfileDir   string // Fixed browser profile dir; empty means a fresh temp dir
	KioskBrowser      string // Browser binary override
	KioskBrowserArgs  string // Extra browser args, shell-quoted

	NativeGamepads bool   // Read host joysticks and feed them to the gamepad engine
	GithubBaseURL  string // Codeload base, overridable for tests and mirrors
	LogFormat      string // "json" (default) or "console"
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:          3000,
		GamesDir:      "games",
		DataDir:       "data",
		GithubBaseURL: "https://codeload.github.com",
		LogFormat:     "json",
	}
}

// Load builds the config from defaults, an optional ini file (LAUNCHER_CONFIG, default
// launcher.ini) and the environment, in that order of precedence (env wins).
func Load() *Config {
	cfg := Default()
	path := os.Getenv("LAUNCHER_CONFIG")
	if path == "" {
		path = "launcher.ini"
	}
	cfg.applyFile(path)
	cfg.applyEnv(os.Getenv)
	return cfg
}

func (c *Config) applyFile(path string) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return
	}
	sec := f.Section("")
	c.Port = sec.Key("port").MustInt(c.Port)
	c.GamesDir = sec.Key("games_dir").MustString(c.GamesDir)
	c.DataDir = sec.Key("data_dir").MustString(c.DataDir)
	c.StaticDir = sec.Key("static_dir").MustString(c.StaticDir)
	c.LogFormat = sec.Key("log_format").MustString(c.LogFormat)
	c.NativeGamepads = sec.Key("native_gamepads").MustBool(c.NativeGamepads)

	kiosk := f.Section("kiosk")
	c.Kiosk = kiosk.Key("enabled").MustBool(c.Kiosk)
	c.KioskNoExtensions = kiosk.Key("no_extensions").MustBool(c.KioskNoExtensions)
	c.KioskProfileDir = kiosk.Key("profile_dir").MustString(c.KioskProfileDir)
	c.KioskBrowser = kiosk.Key("browser").MustString(c.KioskBrowser)
	c.KioskBrowserArgs = kiosk.Key("browser_args").MustString(c.KioskBrowserArgs)
}

func (c *Config) applyEnv(getenv func(string) string) {
	// Prefer PORT (hosted environments) then LAUNCHER_PORT
	if p := getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			c.Port = v
		}
	} else if p := getenv("LAUNCHER_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			c.Port = v
		}
	}
	if v := getenv("GAMES_DIR"); v != "" {
		c.GamesDir = v
	}
	if v := getenv("LAUNCHER_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.StaticDir = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("GITHUB_CODELOAD_URL"); v != "" {
		c.GithubBaseURL = strings.TrimSuffix(v, "/")
	}
	if v := getenv("KIOSK_PROFILE_DIR"); v != "" {
		c.KioskProfileDir = v
	}
	if v := getenv("KIOSK_BROWSER"); v != "" {
		c.KioskBrowser = v
	}
	if v := getenv("KIOSK_BROWSER_ARGS"); v != "" {
		c.KioskBrowserArgs = v
	}
	envBool(getenv, "KIOSK", &c.Kiosk)
	envBool(getenv, "KIOSK_NO_EXTENSIONS", &c.KioskNoExtensions)
	envBool(getenv, "NATIVE_GAMEPADS", &c.NativeGamepads)
}

// envBool sets *dst when the variable is present; "1", "true", "yes" and "on" count as true.
func envBool(getenv func(string) string, key string, dst *bool) {
	v := strings.TrimSpace(strings.ToLower(getenv(key)))
	if v == "" {
		return
	}
	*dst = v == "1" || v == "true" || v == "yes" || v == "on"
}
