package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// go test -run ^TestLoad$ ./config -count 1
func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("TOML", func(t *testing.T) {
		path := filepath.Join(dir, "becs.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[registry]
sparse_page_size = 64
max_entities = 4096

[registry.page_sizes]
"main.Position" = 256
"main.Tag" = 0

[logging]
level = "debug"
format = "json"
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 64, cfg.Registry.SparsePageSize)
		require.Equal(t, 1024, cfg.Registry.PackedPageSize, "missing keys keep defaults")
		require.Equal(t, 4096, cfg.Registry.MaxEntities)
		n, ok := cfg.Registry.PageSizeOf("main.Position")
		require.True(t, ok)
		require.Equal(t, 256, n)
		n, ok = cfg.Registry.PageSizeOf("main.Tag")
		require.True(t, ok)
		require.Zero(t, n)
		require.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "becs.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
registry:
  packed_page_size: 512
  initial_capacity: 100
logging:
  level: warn
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 32, cfg.Registry.SparsePageSize)
		require.Equal(t, 512, cfg.Registry.PackedPageSize)
		require.Equal(t, 100, cfg.Registry.InitialCapacity)
		require.Equal(t, "warn", cfg.Logging.Level)
		require.Equal(t, "console", cfg.Logging.Format)
	})

	t.Run("Unknown Extension", func(t *testing.T) {
		path := filepath.Join(dir, "becs.ini")
		require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.toml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

// go test -run ^TestDecode$ ./config -count 1
func TestDecode(t *testing.T) {
	t.Run("Empty YAML Keeps Defaults", func(t *testing.T) {
		cfg, err := Decode(strings.NewReader(""), YAML)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("Invalid Page Size", func(t *testing.T) {
		_, err := Decode(strings.NewReader("[registry]\nsparse_page_size = 30\n"), TOML)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("Invalid Type Page Size", func(t *testing.T) {
		_, err := Decode(strings.NewReader("registry:\n  page_sizes:\n    main.Position: 100\n"), YAML)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("Capacity Above Limit", func(t *testing.T) {
		_, err := Decode(strings.NewReader("[registry]\ninitial_capacity = 10\nmax_entities = 5\n"), TOML)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Decode(strings.NewReader("[registry"), TOML)
		require.Error(t, err)
	})

	t.Run("Unknown Format", func(t *testing.T) {
		_, err := Decode(strings.NewReader(""), Format("ini"))
		require.Error(t, err)
	})
}

// go test -run ^TestNewLogger$ ./config -count 1
func TestNewLogger(t *testing.T) {
	for _, cfg := range []LoggingConfig{
		{Level: "debug", Format: "json"},
		{Level: "info", Format: "console"},
		{Level: "bogus"},
	} {
		log, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)
	}

	log, err := NewLogger(LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.InfoLevel), "unknown level falls back to info")
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
