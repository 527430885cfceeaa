// Package config loads the optional YAML configuration file of the sedir
// command line tool.
package config

import (
	goerrors "errors"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sedirdb/sedir/internal/logging"
)

// Config errors.
var (
	ErrFileNotFound = goerrors.New("configuration file not found")
	ErrInvalidYAML  = goerrors.New("invalid configuration file")
)

// Config holds the complete tool configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  logging.Config `yaml:"logging"`
}

// DatabaseConfig holds the parameters the database file is opened with.
// Size and order settings only matter when the file is created.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	BlockSize    int    `yaml:"blockSize"`
	Order        int    `yaml:"order"`
	MaxKeySize   int    `yaml:"maxKeySize"`
	MaxValueSize int    `yaml:"maxValueSize"`
	Overwrite    bool   `yaml:"overwrite"`
	SyncOnWrite  bool   `yaml:"syncOnWrite"`
}

// Load reads the configuration file at path. Values of the form ${VAR}
// are substituted from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrFileNotFound, path)
		}
		return nil, err
	}

	return Parse(data)
}

// Parse parses YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(ErrInvalidYAML, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
