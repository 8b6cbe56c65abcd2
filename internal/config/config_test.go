package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.OddsAPI.Keys = []string{"key-a"}
	return cfg
}

func TestDefaultsValidateWithKeys(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "turbo"
	cfg.LogLevel = "loud"
	cfg.Scanner.Investment = 0
	cfg.Simulation.Store = "sqlite"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"unknown mode", "unknown log_level", "investment must be > 0", "unknown store"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateRequiresKeySource(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "keys or encrypted_keys_path") {
		t.Fatalf("Validate() = %v, want missing key source error", err)
	}

	cfg.OddsAPI.EncryptedKeysPath = "keys.enc"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "keys_password is required") {
		t.Fatalf("Validate() = %v, want missing password error", err)
	}
}

func TestValidateWindowPairing(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.WindowStart = 17
	cfg.Scanner.WindowEnd = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "set together") {
		t.Fatalf("Validate() = %v, want window pairing error", err)
	}

	cfg.Scanner.WindowEnd = 25
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "0-23") {
		t.Fatalf("Validate() = %v, want hour range error", err)
	}

	cfg.Scanner.WindowStart = 20
	cfg.Scanner.WindowEnd = 17
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "must not exceed") {
		t.Fatalf("Validate() = %v, want ordering error", err)
	}

	cfg.Scanner.WindowStart = 17
	cfg.Scanner.WindowEnd = 22
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil for 17-22", err)
	}
}

func TestValidatePostgresOnlyForPostgresStore(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Host = ""
	cfg.Simulation.Store = "memory"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil when postgres is unused", err)
	}

	cfg.Simulation.Store = "postgres"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "postgres: host") {
		t.Fatalf("Validate() = %v, want postgres host error", err)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "auto"

[odds_api]
keys = ["file-key"]

[scanner]
peak_interval = "2m"
auto_bet = true
max_investment = 25.0

[server]
port = 9000
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BETGO_SERVER_PORT", "9100")
	t.Setenv("BETGO_ODDS_API_KEYS", "env-key-1, env-key-2")
	t.Setenv("BETGO_SCANNER_OFF_PEAK_INTERVAL", "45m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Mode != "auto" {
		t.Errorf("Mode = %q, want auto", cfg.Mode)
	}
	if cfg.Scanner.PeakInterval.Duration != 2*time.Minute {
		t.Errorf("PeakInterval = %v, want 2m", cfg.Scanner.PeakInterval.Duration)
	}
	if !cfg.Scanner.AutoBet || cfg.Scanner.MaxInvestment != 25.0 {
		t.Errorf("scanner auto-bet settings not decoded: %+v", cfg.Scanner)
	}
	// Env wins over file.
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Server.Port)
	}
	if len(cfg.OddsAPI.Keys) != 2 || cfg.OddsAPI.Keys[0] != "env-key-1" {
		t.Errorf("Keys = %v, want env-key-1, env-key-2", cfg.OddsAPI.Keys)
	}
	// Env can set fields the file never mentions.
	if cfg.Scanner.OffPeakInterval.Duration != 45*time.Minute {
		t.Errorf("OffPeakInterval = %v, want 45m", cfg.Scanner.OffPeakInterval.Duration)
	}
	// Untouched fields keep their defaults.
	if cfg.Simulation.StartingBankroll != 1000 {
		t.Errorf("StartingBankroll = %v, want default 1000", cfg.Simulation.StartingBankroll)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load() = nil error for missing file")
	}
}
