package config

import "github.com/sedirdb/sedir/internal/logging"

// Default database parameters. Zero sizes in the file fall back to these;
// a zero order derives the fan-out from the block size at creation.
const (
	DefaultPath         = "sedir.sdr"
	DefaultBlockSize    = 4096
	DefaultMaxKeySize   = 64
	DefaultMaxValueSize = 256
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         DefaultPath,
			BlockSize:    DefaultBlockSize,
			MaxKeySize:   DefaultMaxKeySize,
			MaxValueSize: DefaultMaxValueSize,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
