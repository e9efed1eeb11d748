package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/duewatch/internal/classify"
	"github.com/spiffcs/duewatch/internal/model"
)

// Config represents the application configuration
type Config struct {
	Owner         string `yaml:"owner,omitempty"`
	OwnerType     string `yaml:"owner_type,omitempty"`
	Repository    string `yaml:"repository,omitempty"`
	ProjectNumber int    `yaml:"project_number,omitempty"`
	Enterprise    bool   `yaml:"enterprise,omitempty"`

	DueDateField    string   `yaml:"due_date_field,omitempty"`
	AllowedStatuses []string `yaml:"allowed_statuses,omitempty"`
	Channel         string   `yaml:"channel,omitempty"`

	// Top-level config sections
	SMTP   *SMTPConfig   `yaml:"smtp,omitempty"`
	GitHub *GitHubConfig `yaml:"github,omitempty"`
}

// SMTPConfig holds outbound mail settings. The password is never stored
// here; it is read from the environment only.
type SMTPConfig struct {
	Host       string `yaml:"host,omitempty"`
	Username   string `yaml:"username,omitempty"`
	From       string `yaml:"from,omitempty"`
	FallbackCC string `yaml:"fallback_cc,omitempty"`
}

// GitHubConfig holds GitHub API settings other than the token.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint,omitempty"`
}

// DefaultDueDateField is the project field holding the due date.
const DefaultDueDateField = "Due Date"

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".duewatch"
	}
	return filepath.Join(configDir, "duewatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".duewatch.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .duewatch.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	cfg := &Config{}

	// Load global config if it exists
	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	// Load local config if it exists and merge on top
	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}

		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}

		cfg = mergeConfig(cfg, &localCfg)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DueDateField == "" {
		c.DueDateField = DefaultDueDateField
	}
	if len(c.AllowedStatuses) == 0 {
		c.AllowedStatuses = classify.DefaultAllowedStatuses
	}
	if c.Channel == "" {
		c.Channel = string(model.ChannelComment)
	}
	if c.OwnerType == "" {
		c.OwnerType = string(model.OwnerOrganization)
	}
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.Owner != "" {
		result.Owner = local.Owner
	} else {
		result.Owner = global.Owner
	}

	if local.OwnerType != "" {
		result.OwnerType = local.OwnerType
	} else {
		result.OwnerType = global.OwnerType
	}

	if local.Repository != "" {
		result.Repository = local.Repository
	} else {
		result.Repository = global.Repository
	}

	if local.ProjectNumber != 0 {
		result.ProjectNumber = local.ProjectNumber
	} else {
		result.ProjectNumber = global.ProjectNumber
	}

	// A local file cannot unset the enterprise flag, only set it.
	result.Enterprise = global.Enterprise || local.Enterprise

	if local.DueDateField != "" {
		result.DueDateField = local.DueDateField
	} else {
		result.DueDateField = global.DueDateField
	}

	if len(local.AllowedStatuses) > 0 {
		result.AllowedStatuses = local.AllowedStatuses
	} else {
		result.AllowedStatuses = global.AllowedStatuses
	}

	if local.Channel != "" {
		result.Channel = local.Channel
	} else {
		result.Channel = global.Channel
	}

	result.SMTP = mergeSMTP(global.SMTP, local.SMTP)
	result.GitHub = mergeGitHub(global.GitHub, local.GitHub)

	return result
}

func mergeSMTP(global, local *SMTPConfig) *SMTPConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &SMTPConfig{}

	if global != nil {
		*result = *global
	}

	if local != nil {
		if local.Host != "" {
			result.Host = local.Host
		}
		if local.Username != "" {
			result.Username = local.Username
		}
		if local.From != "" {
			result.From = local.From
		}
		if local.FallbackCC != "" {
			result.FallbackCC = local.FallbackCC
		}
	}

	return result
}

func mergeGitHub(global, local *GitHubConfig) *GitHubConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &GitHubConfig{}

	if global != nil {
		*result = *global
	}

	if local != nil && local.GraphQLEndpoint != "" {
		result.GraphQLEndpoint = local.GraphQLEndpoint
	}

	return result
}

// Validate checks the loaded configuration against the values a
// notification run can actually use.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if !model.OwnerType(c.OwnerType).Valid() {
		return fmt.Errorf("invalid owner_type %q (must be %q or %q)",
			c.OwnerType, model.OwnerUser, model.OwnerOrganization)
	}
	if !model.Channel(c.Channel).Valid() {
		return fmt.Errorf("invalid channel %q (must be %q or %q)",
			c.Channel, model.ChannelComment, model.ChannelEmail)
	}
	if c.ProjectNumber <= 0 {
		return fmt.Errorf("project_number must be a positive project number")
	}
	if !c.Enterprise && c.Repository == "" {
		return fmt.Errorf("repository is required when enterprise is false")
	}
	if model.Channel(c.Channel) == model.ChannelEmail {
		if c.SMTP == nil || c.SMTP.Host == "" {
			return fmt.Errorf("smtp.host is required for the email channel")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("smtp.from is required for the email channel")
		}
	}
	return nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := ConfigPath()
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetSMTPPassword returns the SMTP password from the DUEWATCH_SMTP_PASSWORD
// environment variable. Like the GitHub token it is never read from files.
func (c *Config) GetSMTPPassword() string {
	return os.Getenv("DUEWATCH_SMTP_PASSWORD")
}

// GetGraphQLEndpoint returns the configured GraphQL endpoint, or empty for
// the github.com default.
func (c *Config) GetGraphQLEndpoint() string {
	if c.GitHub == nil {
		return ""
	}
	return c.GitHub.GraphQLEndpoint
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	// Get absolute path for local config
	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# Duewatch configuration file

# Project scope
owner: my-org
owner_type: organization   # organization or user
project_number: 1

# Repository to scan (omit when enterprise: true)
repository: my-repo

# Use the project-items query for GitHub Enterprise projects
# enterprise: true

# Project field holding the due date
due_date_field: "Due Date"

# Only issues in these statuses are notified
# allowed_statuses:
#   - In Progress
#   - In review

# Notification channel: comment or email
channel: comment

# Required for channel: email. The password comes from the
# DUEWATCH_SMTP_PASSWORD environment variable.
# smtp:
#   host: smtp.example.com
#   username: bot@example.com
#   from: bot@example.com
#   fallback_cc: team@example.com
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
