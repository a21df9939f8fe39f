package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "TASKFISH_"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Kafka      KafkaConfig      `yaml:"kafka" envPrefix:"KAFKA_"`
	Production ProductionConfig `yaml:"production" envPrefix:"PRODUCTION_"`
	Game       GameConfig       `yaml:"game" envPrefix:"GAME_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" env:"BROKERS"`
	CommandTopic string   `yaml:"command_topic" env:"COMMAND_TOPIC"`
	EventTopic   string   `yaml:"event_topic" env:"EVENT_TOPIC"`
	GroupID      string   `yaml:"group_id" env:"GROUP_ID"`
	Enabled      bool     `yaml:"enabled" env:"ENABLED"`
	// CommandTimeout bounds the dispatch of one consumed command
	CommandTimeout time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT"`
	FlushFrequency time.Duration `yaml:"flush_frequency" env:"FLUSH_FREQUENCY"`
}

// ProductionConfig holds the idle production broadcaster configuration
type ProductionConfig struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
}

// GameConfig holds the tunable game rules
type GameConfig struct {
	QuestRewardPoints   int64   `yaml:"quest_reward_points" env:"QUEST_REWARD_POINTS"`
	QuestGoldMin        int64   `yaml:"quest_gold_min" env:"QUEST_GOLD_MIN"`
	QuestGoldMax        int64   `yaml:"quest_gold_max" env:"QUEST_GOLD_MAX"`
	ExperiencePerLevel  int64   `yaml:"experience_per_level" env:"EXPERIENCE_PER_LEVEL"`
	BasePower           int64   `yaml:"base_power" env:"BASE_POWER"`
	BasePointsPerSecond float64 `yaml:"base_points_per_second" env:"BASE_POINTS_PER_SECOND"`
	UpgradeCost         int64   `yaml:"upgrade_cost" env:"UPGRADE_COST"`
	UpgradePower        int64   `yaml:"upgrade_power" env:"UPGRADE_POWER"`
	FishRewardGold      int64   `yaml:"fish_reward_gold" env:"FISH_REWARD_GOLD"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides and defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// ApplyEnv overrides fields from TASKFISH_* environment variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.CommandTopic == "" {
		c.Kafka.CommandTopic = "taskfish-commands"
	}
	if c.Kafka.EventTopic == "" {
		c.Kafka.EventTopic = "taskfish-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "taskfish-server"
	}
	if c.Kafka.CommandTimeout == 0 {
		c.Kafka.CommandTimeout = 10 * time.Second
	}
	if c.Kafka.FlushFrequency == 0 {
		c.Kafka.FlushFrequency = 100 * time.Millisecond
	}

	// Production defaults
	if c.Production.Interval == 0 {
		c.Production.Interval = 1 * time.Second
	}

	c.Game.applyDefaults()
}

func (g *GameConfig) applyDefaults() {
	if g.QuestRewardPoints == 0 {
		g.QuestRewardPoints = 10
	}
	if g.QuestGoldMin == 0 {
		g.QuestGoldMin = 60
	}
	if g.QuestGoldMax == 0 {
		g.QuestGoldMax = 120
	}
	if g.ExperiencePerLevel == 0 {
		g.ExperiencePerLevel = 1000
	}
	if g.BasePower == 0 {
		g.BasePower = 1
	}
	if g.BasePointsPerSecond == 0 {
		g.BasePointsPerSecond = 1.0
	}
	if g.UpgradeCost == 0 {
		g.UpgradeCost = 200
	}
	if g.UpgradePower == 0 {
		g.UpgradePower = 5
	}
	if g.FishRewardGold == 0 {
		g.FishRewardGold = 10
	}
}

// SlogLevel maps the configured level name onto a slog.Level
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Production.Enabled = true
	return cfg
}

// DefaultGameConfig returns the default game rules
func DefaultGameConfig() *GameConfig {
	g := &GameConfig{}
	g.applyDefaults()
	return g
}
