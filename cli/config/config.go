package config

import (
	"fmt"
	"time"
)

// Config represents a gridsync.yaml configuration file.
// All values are optional and act as defaults for gridsync sync flags.
// CLI flags always override config values.
type Config struct {
	API     APIConfig           `yaml:"api"`
	Sheets  SheetsConfig        `yaml:"sheets"`
	Pacing  PacingConfig        `yaml:"pacing"`
	Retry   RetryConfig         `yaml:"retry"`
	Archive ArchiveConfig       `yaml:"archive"`
	Adapter AdapterConfig       `yaml:"adapter"`
	Metrics map[string][]string `yaml:"metrics,omitempty"`

	Checkpoint string   `yaml:"checkpoint,omitempty"`
	Report     string   `yaml:"report,omitempty"`
	Watchdog   Duration `yaml:"watchdog,omitempty"`
}

// APIConfig holds analytics API defaults from the config file.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// SheetsConfig holds spreadsheet sink defaults from the config file.
// Spreadsheets maps group keys to spreadsheet document ids.
type SheetsConfig struct {
	BaseURL      string            `yaml:"base_url,omitempty"`
	Token        string            `yaml:"token"`
	Spreadsheets map[string]string `yaml:"spreadsheets"`
}

// PacingConfig holds quota-pacing defaults from the config file.
type PacingConfig struct {
	InterGroupDelay   Duration `yaml:"inter_group_delay"`
	InterProfileDelay Duration `yaml:"inter_profile_delay"`
	WriteSpacing      Duration `yaml:"write_spacing"`
}

// RetryConfig holds retry-policy defaults from the config file.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	AuthAttempts int      `yaml:"auth_attempts"`
	Base         Duration `yaml:"base"`
}

// ArchiveConfig holds raw-page archive defaults from the config file.
// Backend is one of "none", "dir", "s3".
type ArchiveConfig struct {
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir,omitempty"`
	Bucket      string `yaml:"bucket,omitempty"`
	Prefix      string `yaml:"prefix,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	S3PathStyle bool   `yaml:"s3_path_style,omitempty"`
}

// AdapterConfig holds completion-event adapter defaults from the config
// file. Type is one of "", "webhook", "redis".
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks cross-field constraints that YAML decoding cannot.
func (c *Config) Validate() error {
	switch c.Archive.Backend {
	case "", "none":
	case "dir":
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive backend %q requires dir", c.Archive.Backend)
		}
	case "s3":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive backend %q requires bucket", c.Archive.Backend)
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}

	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown adapter type %q", c.Adapter.Type)
	}
	if (c.Adapter.Type == "webhook" || c.Adapter.Type == "redis") && c.Adapter.URL == "" {
		return fmt.Errorf("adapter type %q requires url", c.Adapter.Type)
	}
	return nil
}
