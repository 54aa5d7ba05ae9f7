package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ferrite-labs/ferrite/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Settings is the immutable configuration record handed to the platform
// layer. Durations are stored in the file as integer seconds.
type Settings struct {
	Verbose           bool
	CheckCertificates bool
	CacheTimeout      time.Duration
	CacheFailTimeout  time.Duration
	ConnectionTimeout time.Duration
	UserAgent         string
	ShowDownloads     bool
	Platforms         []string
	Tools             map[string]string
}

// Dir returns the path to the ferrite config directory (~/.ferrite/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.ferrite/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// defaultTools maps tool-path variable names to the command invoked when the
// config file does not override them.
var defaultTools = map[string]string{
	"cp":    "cp",
	"mkdir": "mkdir",
	"rm":    "rm",
	"chmod": "chmod",
	"ls":    "ls",
	"wget":  "wget",
	"curl":  "curl",
}

// DetectPlatforms returns the platform identifier list for the running OS,
// ordered most-specific-first (e.g. "linux" before the "unix" family).
func DetectPlatforms() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"windows"}
	case "darwin":
		return []string{"darwin", "unix"}
	default:
		return []string{runtime.GOOS, "unix"}
	}
}

// setDefaults installs the built-in configuration underneath any values read
// from the file or environment. viper.SetDefault never overrides a key the
// user supplied, which gives the merge-underneath contract for free; nested
// groups (tools.*) are registered key by key so a partial tools section in
// the file keeps the remaining defaults.
func setDefaults() {
	viper.SetDefault("verbose", false)
	viper.SetDefault("check_certificates", true)
	viper.SetDefault("cache_timeout", 60)
	viper.SetDefault("cache_fail_timeout", 86400)
	viper.SetDefault("connection_timeout", 30)
	viper.SetDefault("user_agent", branding.CLIName())
	viper.SetDefault("show_downloads", false)
	viper.SetDefault("platforms", DetectPlatforms())
	for name, cmd := range defaultTools {
		viper.SetDefault("tools."+name, cmd)
	}
}

// Load initializes Viper to read from the config file and environment.
// A missing config file is not an error; defaults apply.
func Load() {
	LoadFile(FilePath())
}

// LoadFile is Load with an explicit file path, for hosts and tests.
func LoadFile(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	setDefaults()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current snapshots the loaded configuration into a Settings record.
func Current() Settings {
	platforms := viper.GetStringSlice("platforms")
	if len(platforms) == 0 {
		platforms = DetectPlatforms()
	}

	tools := make(map[string]string, len(defaultTools))
	for name := range defaultTools {
		tools[name] = viper.GetString("tools." + name)
	}
	// Carry through tool names only the user defines.
	for name, cmd := range viper.GetStringMapString("tools") {
		if _, ok := tools[name]; !ok {
			tools[name] = cmd
		}
	}

	return Settings{
		Verbose:           viper.GetBool("verbose"),
		CheckCertificates: viper.GetBool("check_certificates"),
		CacheTimeout:      time.Duration(viper.GetInt("cache_timeout")) * time.Second,
		CacheFailTimeout:  time.Duration(viper.GetInt("cache_fail_timeout")) * time.Second,
		ConnectionTimeout: time.Duration(viper.GetInt("connection_timeout")) * time.Second,
		UserAgent:         viper.GetString("user_agent"),
		ShowDownloads:     viper.GetBool("show_downloads"),
		Platforms:         platforms,
		Tools:             tools,
	}
}

// Defaults returns a Settings record built purely from the built-in defaults,
// without touching the config file. Used by tests and by hosts embedding the
// platform layer without a config file.
func Defaults() Settings {
	tools := make(map[string]string, len(defaultTools))
	for name, cmd := range defaultTools {
		tools[name] = cmd
	}
	return Settings{
		CheckCertificates: true,
		CacheTimeout:      60 * time.Second,
		CacheFailTimeout:  86400 * time.Second,
		ConnectionTimeout: 30 * time.Second,
		UserAgent:         branding.CLIName(),
		Platforms:         DetectPlatforms(),
		Tools:             tools,
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
