// Package config loads killport defaults from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pranshuparmar/killport/pkg/model"
)

// EnvConfig overrides the default config file location.
const EnvConfig = "KILLPORT_CONFIG"

const DefaultTimeout = 3 * time.Second

type Config struct {
	Timeout   time.Duration
	Tree      bool
	Protocols []model.Protocol
	Protected []string
	NoColor   bool
}

// fileConfig is the on-disk shape. Durations are strings like "3s".
type fileConfig struct {
	Timeout   string   `yaml:"timeout"`
	Tree      bool     `yaml:"tree"`
	Protocols []string `yaml:"protocols"`
	Protected []string `yaml:"protected"`
	NoColor   bool     `yaml:"no_color"`
}

func Default() Config {
	return Config{
		Timeout:   DefaultTimeout,
		Protocols: []model.Protocol{model.TCP},
	}
}

// DefaultPath returns $KILLPORT_CONFIG, or killport/config.yaml under the
// user config directory. It returns "" when neither can be determined.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "killport", "config.yaml")
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("parse config: timeout: %w", err)
		}
		if d < 0 {
			return cfg, fmt.Errorf("parse config: timeout must not be negative")
		}
		cfg.Timeout = d
	}

	if len(fc.Protocols) > 0 {
		protos := make([]model.Protocol, 0, len(fc.Protocols))
		for _, s := range fc.Protocols {
			p, err := model.ParseProtocol(s)
			if err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
			protos = append(protos, p)
		}
		cfg.Protocols = protos
	}

	cfg.Tree = fc.Tree
	cfg.Protected = fc.Protected
	cfg.NoColor = fc.NoColor
	return cfg, nil
}
