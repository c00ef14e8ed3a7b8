package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "2015-01-01", cfg.DataSource.HistoryStart)
	assert.Equal(t, []string{"PEP", "BBWI", "MSFT", "TSLA"}, cfg.Tickers)
	assert.Equal(t, cfg.Tickers, cfg.WatchList)
	assert.Equal(t, 128, cfg.Cache.Size)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "0 30 6 * * 1-5", cfg.Schedule.WarmCron)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
data_source:
  history_start: "2020-01-01"
tickers: [aapl, " nvda "]
cache:
  size: 10
  ttl: 5m
`), 0o644))

	t.Setenv("STOCKSEER_ADDR", ":7000")
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "alpaca", cfg.DataSource.Provider)
	assert.Equal(t, []string{"AAPL", "NVDA"}, cfg.Tickers)
	assert.Equal(t, 10, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)

	start, err := cfg.HistoryStartDate()
	require.NoError(t, err)
	assert.Equal(t, 2020, start.Year())
	require.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKSEER_TICKERS=ko, pep\nSQLITE_PATH=/tmp/x.db\n"), 0o644))
	// godotenv sets these; clear them when the test ends.
	t.Setenv("STOCKSEER_TICKERS", "")
	t.Setenv("SQLITE_PATH", "")
	os.Unsetenv("STOCKSEER_TICKERS")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"KO", "PEP"}, cfg.Tickers)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		t.Chdir(t.TempDir())
		cfg, err := Load("does-not-exist.yaml")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.DataSource.HistoryStart = "01/01/2015"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.DataSource.Provider = "bloomberg"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.DataSource.Provider = "alpaca"
	cfg.DataSource.Alpaca.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChatID = ""
	assert.Error(t, cfg.Validate())
}
