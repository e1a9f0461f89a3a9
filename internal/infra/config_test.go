package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boryxf/ag-kernel/internal/engine"
)

const testYAML = `
app:
  name: ag-kernel
  version: 0.1.0
engine:
  initial_cash: 10000
  maker_fee: 0.0001
  taker_fee: 0.0002
  spread_bps: 2.0
  tick_size: 0.01
storage:
  path: /tmp/agk.db
  stream: btcusdt
feed:
  ws_url: wss://example.com/ws
  symbol: BTCUSDT
logging:
  level: info
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.App.Name != "ag-kernel" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Engine.InitialCash != 10000 || cfg.Engine.TickSize != 0.01 {
		t.Errorf("engine config = %+v", cfg.Engine)
	}
	if cfg.Storage.Stream != "btcusdt" {
		t.Errorf("stream = %q", cfg.Storage.Stream)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AGK_DB_PATH", "/data/override.db")
	t.Setenv("AGK_ARITHMETIC", "float")

	cfg, err := LoadConfig(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Path != "/data/override.db" {
		t.Errorf("storage path = %q, want env override", cfg.Storage.Path)
	}
	if cfg.Engine.Arithmetic != engine.ArithmeticFloat {
		t.Errorf("arithmetic = %q, want float", cfg.Engine.Arithmetic)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Missing Storage Path", `
engine:
  tick_size: 0.01
storage:
  stream: s
`},
		{"Bad Feed URL", `
engine:
  tick_size: 0.01
storage:
  path: /tmp/x.db
  stream: s
feed:
  ws_url: http://not-a-ws
`},
		{"Bad Engine Config", `
engine:
  tick_size: 0
storage:
  path: /tmp/x.db
  stream: s
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
