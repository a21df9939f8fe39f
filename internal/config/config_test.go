package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestDefaultGameConfig(t *testing.T) {
	g := DefaultGameConfig()

	testutil.AssertEqual(t, "quest reward points", g.QuestRewardPoints, int64(10))
	testutil.AssertEqual(t, "quest gold min", g.QuestGoldMin, int64(60))
	testutil.AssertEqual(t, "quest gold max", g.QuestGoldMax, int64(120))
	testutil.AssertEqual(t, "experience per level", g.ExperiencePerLevel, int64(1000))
	testutil.AssertEqual(t, "base power", g.BasePower, int64(1))
	testutil.AssertEqual(t, "base points per second", g.BasePointsPerSecond, 1.0)
	testutil.AssertEqual(t, "upgrade cost", g.UpgradeCost, int64(200))
	testutil.AssertEqual(t, "upgrade power", g.UpgradePower, int64(5))
	testutil.AssertEqual(t, "fish reward", g.FishRewardGold, int64(10))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	testutil.AssertEqual(t, "port", cfg.Server.Port, 8080)
	testutil.AssertEqual(t, "log level", cfg.Log.Level, "info")
	testutil.AssertEqual(t, "kafka enabled", cfg.Kafka.Enabled, false)
	testutil.AssertEqual(t, "command topic", cfg.Kafka.CommandTopic, "taskfish-commands")
	testutil.AssertEqual(t, "production enabled", cfg.Production.Enabled, true)
	testutil.AssertEqual(t, "production interval", cfg.Production.Interval, time.Second)
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BROKER", "kafka-1:9092")

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: 9090
log:
  level: debug
kafka:
  enabled: true
  brokers: ["${TEST_BROKER}"]
game:
  upgrade_cost: 300
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "port", cfg.Server.Port, 9090)
	testutil.AssertEqual(t, "log level", cfg.Log.SlogLevel(), slog.LevelDebug)
	testutil.AssertEqual(t, "kafka enabled", cfg.Kafka.Enabled, true)
	testutil.AssertEqual(t, "brokers", len(cfg.Kafka.Brokers), 1)
	testutil.AssertEqual(t, "broker", cfg.Kafka.Brokers[0], "kafka-1:9092")
	testutil.AssertEqual(t, "upgrade cost", cfg.Game.UpgradeCost, int64(300))
	testutil.AssertEqual(t, "upgrade power default", cfg.Game.UpgradePower, int64(5))
	testutil.AssertEqual(t, "read timeout default", cfg.Server.ReadTimeout, 5*time.Second)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TASKFISH_SERVER_PORT", "7070")
	t.Setenv("TASKFISH_GAME_FISH_REWARD_GOLD", "25")
	t.Setenv("TASKFISH_KAFKA_BROKERS", "a:1,b:2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "port", cfg.Server.Port, 7070)
	testutil.AssertEqual(t, "fish reward", cfg.Game.FishRewardGold, int64(25))
	testutil.AssertEqual(t, "brokers", len(cfg.Kafka.Brokers), 2)
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("TASKFISH_SERVER_PORT", "not-a-number")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid env value")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for level, exp := range tests {
		cfg := LogConfig{Level: level}
		testutil.AssertEqual(t, level, cfg.SlogLevel(), exp)
	}
}
