package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  path: /tmp/data.sdr\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/data.sdr", cfg.Database.Path)
	assert.Equal(t, DefaultBlockSize, cfg.Database.BlockSize)
	assert.Equal(t, DefaultMaxKeySize, cfg.Database.MaxKeySize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseFullConfig(t *testing.T) {
	data := []byte(`
database:
  path: data.sdr
  blockSize: 8192
  order: 32
  maxKeySize: 128
  maxValueSize: 512
  overwrite: true
  syncOnWrite: true
logging:
  level: debug
  format: json
  output: sedir.log
  maxSizeMB: 10
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 8192, cfg.Database.BlockSize)
	assert.Equal(t, 32, cfg.Database.Order)
	assert.True(t, cfg.Database.Overwrite)
	assert.True(t, cfg.Database.SyncOnWrite)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sedir.log", cfg.Logging.Output)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("SEDIR_DATA", "/var/lib/sedir")

	cfg, err := Parse([]byte("database:\n  path: ${SEDIR_DATA}/data.sdr\n"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sedir/data.sdr", cfg.Database.Path)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = ""
	assert.ErrorIs(t, cfg.Validate(), ErrEmptyPath)

	cfg = Default()
	cfg.Database.BlockSize = 100
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidBlockSize)

	cfg = Default()
	cfg.Database.Order = 2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidOrder)

	cfg = Default()
	cfg.Database.MaxValueSize = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidLimit)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sedir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: data.sdr\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data.sdr", cfg.Database.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}
