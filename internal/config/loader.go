package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath     string
	Hostname       string
	LogLevel       string
	Listen         string
	Maildir        string
	AuthDB         string
	MaxConnections int

	// Args holds the positional arguments remaining after flag parsing.
	Args []string
}

// ParseFlags parses command-line flags from args and returns a Flags struct.
// args should not include the program name.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}

	fs := flag.NewFlagSet("popd", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "./popd.toml", "Path to configuration file")
	fs.StringVar(&f.Hostname, "hostname", "", "Server hostname")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.Listen, "listen", "", "Listen address (replaces all config listeners)")
	fs.StringVar(&f.Maildir, "maildir", "", "Maildir base path for message storage")
	fs.StringVar(&f.AuthDB, "auth-db", "", "Path to the credential database")
	fs.IntVar(&f.MaxConnections, "max-connections", 0, "Maximum concurrent connections")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()
	return f, nil
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
// Values from [popd] take precedence over shared [server] values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig FileConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg = mergeServerConfig(cfg, fileConfig.Server)
	cfg = mergeConfig(cfg, fileConfig.Popd)

	return cfg, nil
}

// mergeServerConfig merges shared [server] settings into the config.
func mergeServerConfig(cfg Config, sc ServerConfig) Config {
	if sc.Hostname != "" {
		cfg.Hostname = sc.Hostname
	}
	if sc.Maildir != "" {
		cfg.Maildir = sc.Maildir
	}
	if sc.AuthDB != "" {
		cfg.AuthDB = sc.AuthDB
	}
	return cfg
}

// mergeConfig merges [popd] settings into the config; non-zero values win.
func mergeConfig(cfg Config, fc Config) Config {
	if fc.Hostname != "" {
		cfg.Hostname = fc.Hostname
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if len(fc.Listeners) > 0 {
		cfg.Listeners = fc.Listeners
	}
	if fc.Maildir != "" {
		cfg.Maildir = fc.Maildir
	}
	if fc.AuthDB != "" {
		cfg.AuthDB = fc.AuthDB
	}
	if fc.Timeouts.Command != "" {
		cfg.Timeouts.Command = fc.Timeouts.Command
	}
	if fc.Timeouts.Idle != "" {
		cfg.Timeouts.Idle = fc.Timeouts.Idle
	}
	if fc.Limits.MaxConnections > 0 {
		cfg.Limits.MaxConnections = fc.Limits.MaxConnections
	}
	if fc.Metrics.Enabled {
		cfg.Metrics.Enabled = true
	}
	if fc.Metrics.Address != "" {
		cfg.Metrics.Address = fc.Metrics.Address
	}
	if fc.Metrics.Path != "" {
		cfg.Metrics.Path = fc.Metrics.Path
	}
	return cfg
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.Listen != "" {
		// -listen replaces ALL listeners with a single listener
		cfg.Listeners = []ListenerConfig{
			{Address: f.Listen},
		}
	}

	if f.Maildir != "" {
		cfg.Maildir = f.Maildir
	}

	if f.AuthDB != "" {
		cfg.AuthDB = f.AuthDB
	}

	if f.MaxConnections > 0 {
		cfg.Limits.MaxConnections = f.MaxConnections
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}
