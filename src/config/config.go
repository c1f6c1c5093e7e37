package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ConfigPathEnvVar  = "SWIFTSHOT_CONFIG"
	DefaultModeEnvVar = "DEFAULT_MODE"
	DefaultModeRect   = "rectangle"
	DefaultModeLasso  = "lasso"

	AfterCaptureSave      = "save"
	AfterCaptureClipboard = "clipboard"
	AfterCaptureBoth      = "both"

	DefaultFilenamePattern = "swiftshot_20060102_150405.png"
)

type LoadOptions struct {
	SaveDirOverride     string
	DefaultModeOverride string
}

type Config struct {
	Hotkey            string
	WindowHotkey      string
	RepeatHotkey      string
	DefaultMode       string
	SaveDir           string
	FilenamePattern   string
	AfterCapture      string
	TimedDelaySec     int
	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SWIFTSHOT_CONFIG env var as a path to a config file
	envPath := resolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Resolve timed-capture delay (seconds) with env override and sane default
	timedDelaySec := 3
	if v := os.Getenv("TIMED_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timedDelaySec = n
		}
	}

	cfg := &Config{
		Hotkey:            getEnvWithDefault("HOTKEY", "Ctrl+Alt+S"),
		WindowHotkey:      getEnvWithDefault("WINDOW_HOTKEY", "Ctrl+Alt+W"),
		RepeatHotkey:      getEnvWithDefault("REPEAT_HOTKEY", "Ctrl+Alt+R"),
		DefaultMode:       resolveDefaultModeValue(opts),
		SaveDir:           resolveSaveDir(opts),
		FilenamePattern:   getEnvWithDefault("FILENAME_PATTERN", DefaultFilenamePattern),
		AfterCapture:      resolveAfterCapture(os.Getenv("AFTER_CAPTURE")),
		TimedDelaySec:     timedDelaySec,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveSaveDir(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.SaveDirOverride); override != "" {
		return override
	}
	if dir := strings.TrimSpace(os.Getenv("SAVE_DIR")); dir != "" {
		return dir
	}
	return defaultSaveDir()
}

// defaultSaveDir prefers the user's Pictures directory and falls back to the
// working directory when it does not exist.
func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	pictures := filepath.Join(home, "Pictures")
	if st, err := os.Stat(pictures); err == nil && st.IsDir() {
		return pictures
	}
	return "."
}

func resolveAfterCapture(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case AfterCaptureSave:
		return AfterCaptureSave
	case AfterCaptureClipboard, "copy":
		return AfterCaptureClipboard
	case AfterCaptureBoth, "":
		return AfterCaptureBoth
	default:
		return AfterCaptureBoth
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func resolveDefaultMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rect", DefaultModeRect:
		return DefaultModeRect
	case "freehand", DefaultModeLasso:
		return DefaultModeLasso
	default:
		return DefaultModeRect
	}
}

func resolveDefaultModeValue(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.DefaultModeOverride); override != "" {
		return resolveDefaultMode(override)
	}
	return resolveDefaultMode(os.Getenv(DefaultModeEnvVar))
}
