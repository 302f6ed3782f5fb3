package internal

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/wtnb75/sftpovw/internal/digest"
	"github.com/wtnb75/sftpovw/internal/safecopy"
	"github.com/wtnb75/sftpovw/internal/sshconn"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	SSH    SSHConfig    `yaml:"ssh"`
	Copy   CopyConfig   `yaml:"copy"`
	Digest DigestConfig `yaml:"digest"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.SSH.Validate(); err != nil {
		return err
	}
	if err := c.Copy.Validate(); err != nil {
		return err
	}
	return c.Digest.Validate()
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// SSHConfig holds connection configuration. Host may stay empty in the
// file; commands that dial a session require it at run time, from the file
// or the --host flag.
type SSHConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	IdentityFile string `yaml:"identity_file"`
	ConfigFile   string `yaml:"config_file"`
	KnownHosts   string `yaml:"known_hosts"`
}

// Validate validates the connection configuration. Port 0 defers to the
// OpenSSH client configuration.
func (c *SSHConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// Target converts the configuration into a dialing target.
func (c *SSHConfig) Target() sshconn.Target {
	return sshconn.Target{
		Host:           c.Host,
		Port:           c.Port,
		User:           c.User,
		IdentityFile:   c.IdentityFile,
		ConfigFile:     c.ConfigFile,
		KnownHostsFile: c.KnownHosts,
	}
}

// CopyConfig holds replacement protocol configuration.
type CopyConfig struct {
	Level int `yaml:"level"`
}

// Validate validates the copy configuration.
func (c *CopyConfig) Validate() error {
	_, err := safecopy.ParseLevel(c.Level)
	return err
}

// DigestConfig holds verification configuration.
type DigestConfig struct {
	Algorithm string `yaml:"algorithm"`
}

// Validate validates the verification configuration.
func (c *DigestConfig) Validate() error {
	_, err := digest.ParseAlgo(c.Algorithm)
	return err
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		SSH: SSHConfig{
			ConfigFile: "~/.ssh/config",
			KnownHosts: "~/.ssh/known_hosts",
		},
		Copy: CopyConfig{
			Level: int(safecopy.DefaultLevel),
		},
		Digest: DigestConfig{
			Algorithm: string(digest.Default),
		},
	}
}
