package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithEnvSecrets(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_USER_ID", "@someone")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:abc")
	}
	if cfg.Monitor.PriceChangeThreshold != DefaultPriceChangeThreshold {
		t.Errorf("PriceChangeThreshold = %v, want %v", cfg.Monitor.PriceChangeThreshold, DefaultPriceChangeThreshold)
	}
	if cfg.Monitor.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v, want 30s", cfg.Monitor.CheckInterval)
	}
	if len(cfg.Monitor.DailyReportHours) != 4 {
		t.Errorf("DailyReportHours = %v, want 4 entries", cfg.Monitor.DailyReportHours)
	}
	if len(cfg.Monitor.Assets) != 2 {
		t.Errorf("Assets = %v, want 2 entries", cfg.Monitor.Assets)
	}
	if cfg.CryptoPanic.Enabled() {
		t.Error("CryptoPanic.Enabled() = true without an API key")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
telegram:
  token: "t0ken"
  user_id: "42"
monitor:
  assets:
    - id: bitcoin
      symbol: BTC
  report_asset: bitcoin
  price_change_threshold: 5.5
  check_interval: 1m
  daily_report_hours: [9, 21]
store:
  driver: sqlite
  path: state.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if got := cfg.Monitor.Assets; len(got) != 1 || got[0].Symbol != "BTC" {
		t.Errorf("Assets = %+v, want [bitcoin/BTC]", got)
	}
	if cfg.Monitor.PriceChangeThreshold != 5.5 {
		t.Errorf("PriceChangeThreshold = %v, want 5.5", cfg.Monitor.PriceChangeThreshold)
	}
	if cfg.Monitor.CheckInterval != time.Minute {
		t.Errorf("CheckInterval = %v, want 1m", cfg.Monitor.CheckInterval)
	}
	if got := cfg.Monitor.DailyReportHours; len(got) != 2 || got[0] != 9 || got[1] != 21 {
		t.Errorf("DailyReportHours = %v, want [9 21]", got)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "state.db" {
		t.Errorf("Store = %+v, want sqlite/state.db", cfg.Store)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing token",
			body: "telegram:\n  user_id: \"1\"\n",
		},
		{
			name: "hour out of range",
			body: "telegram:\n  token: x\n  user_id: \"1\"\nmonitor:\n  daily_report_hours: [8, 24]\n",
		},
		{
			name: "report asset not tracked",
			body: "telegram:\n  token: x\n  user_id: \"1\"\nmonitor:\n  report_asset: dogecoin\n",
		},
		{
			name: "unknown store driver",
			body: "telegram:\n  token: x\n  user_id: \"1\"\nstore:\n  driver: redis\n",
		},
		{
			name: "bad timezone",
			body: "telegram:\n  token: x\n  user_id: \"1\"\nscheduler:\n  timezone: Mars/Olympus\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil, want validation error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Load() error = %v, want wrapped ErrConfiguration", err)
			}
		})
	}
}

func TestCryptoPanicEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want bool
	}{
		{key: "", want: false},
		{key: "   ", want: false},
		{key: placeholderAPIKey, want: false},
		{key: "real-key", want: true},
	}
	for _, tt := range tests {
		if got := (CryptoPanicConfig{APIKey: tt.key}).Enabled(); got != tt.want {
			t.Errorf("Enabled(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
