// Package config handles configuration loading and validation for graviti.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".graviti"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
)

// Config holds all configuration for graviti.
type Config struct {
	// Flow contains diagram rendering configuration.
	Flow FlowConfig `mapstructure:"flow" yaml:"flow"`
	// Store contains analysis cache configuration.
	Store StoreConfig `mapstructure:"store" yaml:"store"`
	// Server contains preview server configuration.
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	// Neo4j contains graph export configuration.
	Neo4j Neo4jConfig `mapstructure:"neo4j" yaml:"neo4j"`
}

// FlowConfig holds diagram rendering configuration.
type FlowConfig struct {
	// IgnoredServices lists external invocation prefixes hidden from diagrams.
	IgnoredServices []string `mapstructure:"ignored_services" yaml:"ignored_services"`
	// IgnoredVariables lists receiver variables hidden from diagrams.
	IgnoredVariables []string `mapstructure:"ignored_variables" yaml:"ignored_variables"`
	// CollapseDetails renders the method-overview diagram by default.
	CollapseDetails bool `mapstructure:"collapse_details" yaml:"collapse_details"`
	// ShowSourceRefs appends source line references to diagram labels.
	ShowSourceRefs bool `mapstructure:"show_source_refs" yaml:"show_source_refs"`
}

// StoreConfig holds analysis cache configuration.
type StoreConfig struct {
	// Enabled turns the on-disk analysis cache on or off.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Path is the cache database directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds preview server configuration.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `mapstructure:"port" yaml:"port"`
}

// Neo4jConfig holds graph export configuration.
type Neo4jConfig struct {
	// URI is the bolt connection URI.
	URI string `mapstructure:"uri" yaml:"uri"`
	// User is the connection user name.
	User string `mapstructure:"user" yaml:"user"`
	// Password is the connection password.
	Password string `mapstructure:"password" yaml:"password"`
}

// Load loads configuration from file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Check if a specific config file was set via CLI flag (stored in global viper)
	globalViper := viper.GetViper()
	if configFile := globalViper.GetString("config_file"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GRAVITI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 0 and 65535, got %d", c.Server.Port)
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store path is required when the store is enabled")
	}

	if c.Neo4j.URI != "" && !strings.Contains(c.Neo4j.URI, "://") {
		return fmt.Errorf("neo4j uri must include a scheme, got %q", c.Neo4j.URI)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("flow.ignored_services", []string{
		"System.out",
		"System.err",
	})
	v.SetDefault("flow.ignored_variables", []string{})
	v.SetDefault("flow.collapse_details", false)
	v.SetDefault("flow.show_source_refs", false)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", ".graviti/graph.db")

	v.SetDefault("server.port", 4977)

	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
}
