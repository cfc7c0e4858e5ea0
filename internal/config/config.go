package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 25 * 1024 * 1024 // 25MB
	DefaultFontSize    = 10.0

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. OFFICIAL_FORMS_PORT
	EnvPrefix = "OFFICIAL_FORMS"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the official forms server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Template configuration
	TemplateDirectory string
	MaxFileSize       int64   // Maximum template size in bytes
	FontSize          float64 // Default font size for coordinate placements
	MappingsPath      string  // Optional mapping JSON merged over the embedded tables

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		TemplateDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		FontSize:          DefaultFontSize,
		Version:           "1.0.0",
		ServerName:        "mcp-official-forms",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and OFFICIAL_FORMS_* environment variables into a
// validated configuration. Flags take precedence over the environment.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return nil, ErrVersionRequested
		}
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet("mcp-official-forms", pflag.ContinueOnError)
	defineCommandLineFlags(flags, cfg)
	flags.Usage = usage(flags)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	if cfg.TemplateDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDirectory); err == nil {
			cfg.TemplateDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.TemplateDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("fontsize", cfg.FontSize)
	v.SetDefault("mappings", cfg.MappingsPath)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.TemplateDirectory, "Directory containing official form templates")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum template file size in bytes")
	flags.Float64("fontsize", cfg.FontSize, "Default font size for coordinate placements")
	flags.String("mappings", cfg.MappingsPath, "Field mapping JSON merged over the built-in tables")
}

func usage(flags *pflag.FlagSet) func() {
	return func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", name)
		fmt.Fprintf(os.Stderr, "\nMCP Official Forms - compliance lookup and official form filling\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/forms                          # stdio mode\n", name)
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/srv/forms            # HTTP server\n", name)
		fmt.Fprintf(os.Stderr, "  %s --mappings=/etc/forms/mappings.json       # extra mappings\n", name)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_DIR          Template directory\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_MAXFILESIZE  Maximum template size\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_FONTSIZE     Default placement font size\n")
		fmt.Fprintf(os.Stderr, "  OFFICIAL_FORMS_MAPPINGS     Mapping override file\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TemplateDirectory = v.GetString("dir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.FontSize = v.GetFloat64("fontsize")
	cfg.MappingsPath = v.GetString("mappings")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when serving HTTP
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDirectory == "" {
		return errors.New("template directory cannot be empty")
	}

	// Create the template directory if it doesn't exist
	if _, err := os.Stat(c.TemplateDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.TemplateDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create template directory %s: %w", c.TemplateDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplateDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.FontSize <= 0 || c.FontSize > 72 {
		return fmt.Errorf("font size must be between 0 and 72, got %g", c.FontSize)
	}

	if c.MappingsPath != "" {
		info, err := os.Stat(c.MappingsPath)
		if err != nil {
			return fmt.Errorf("cannot access mappings file %s: %w", c.MappingsPath, err)
		}
		if info.IsDir() {
			return fmt.Errorf("mappings path %s is a directory", c.MappingsPath)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDirectory: %s, LogLevel: %s, MaxFileSize: %d, FontSize: %g, MappingsPath: %q}",
		c.Mode, c.Host, c.Port, c.TemplateDirectory, c.LogLevel, c.MaxFileSize, c.FontSize, c.MappingsPath)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
