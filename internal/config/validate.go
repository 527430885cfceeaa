package config

import (
	goerrors "errors"

	"github.com/pkg/errors"
)

// Validation errors.
var (
	ErrEmptyPath        = goerrors.New("database path cannot be empty")
	ErrInvalidBlockSize = goerrors.New("block size must be at least 512")
	ErrInvalidOrder     = goerrors.New("order must be 0 or at least 3")
	ErrInvalidLimit     = goerrors.New("size limits must be positive")
)

// Validate checks the configuration for values the engine would reject.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return ErrEmptyPath
	}
	if c.Database.BlockSize < 512 {
		return errors.Wrapf(ErrInvalidBlockSize, "got %d", c.Database.BlockSize)
	}
	if c.Database.Order != 0 && c.Database.Order < 3 {
		return errors.Wrapf(ErrInvalidOrder, "got %d", c.Database.Order)
	}
	if c.Database.MaxKeySize <= 0 || c.Database.MaxValueSize <= 0 {
		return errors.Wrapf(ErrInvalidLimit,
			"max key %d, max value %d", c.Database.MaxKeySize, c.Database.MaxValueSize)
	}
	return nil
}
