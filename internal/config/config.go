// Copyright (C) 2025 Jeff Rose
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drone/envsubst"
	"gopkg.in/yaml.v2"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultLogLevel = "info"
	DefaultListen   = ":9100"
)

type Config struct {
	Timeout  string        `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
	Output   OutputFormat  `yaml:"output"`
	Expect   string        `yaml:"expect"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Server   ServerConfig  `yaml:"server"`

	timeout time.Duration
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	normalizeConfig(c)
	return c
}

// LoadConfiguration reads the file at path. An empty path yields Default().
func LoadConfiguration(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	config, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, err
	}

	expandedData, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func normalizeConfig(c *Config) {
	c.Timeout = strings.TrimSpace(c.Timeout)
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout.String()
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Output = OutputFormat(strings.ToLower(string(c.Output)))
	if c.Output == "" {
		c.Output = OutputText
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	c.timeout, _ = ParseTimeout(c.Timeout)
}

func validateConfig(c *Config) error {
	if _, err := ParseTimeout(c.Timeout); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}
	return nil
}

// DefaultTimeout is the parsed, normalized timeout.
func (c *Config) DefaultTimeout() time.Duration {
	return c.timeout
}

func (o OutputFormat) Validate() error {
	switch o {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", o)
	}
}

// ParseTimeout accepts a Go duration or a bare number of seconds. Negative
// values are normalized to their magnitude.
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("timeout cannot be empty")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = time.ParseDuration(s + "s")
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
	}
	if d < 0 {
		d = -d
	}
	return d, nil
}
