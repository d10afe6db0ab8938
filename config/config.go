package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Gemini struct {
		ApiKey     string `yaml:"apiKey"`
		ChatModel  string `yaml:"chatModel"`
		JudgeModel string `yaml:"judgeModel"`
	} `yaml:"gemini"`

	Treasury struct {
		URL       string `yaml:"url"`
		ProgramId string `yaml:"programId"`
	} `yaml:"treasury"`

	Game struct {
		MessageCostIncrement int64   `yaml:"messageCostIncrement"`
		PlatformFee          float64 `yaml:"platformFee"`
		InferenceTimeoutSec  int     `yaml:"inferenceTimeoutSec"`
		TreasuryTimeoutSec   int     `yaml:"treasuryTimeoutSec"`
		ChatCooldownSec      int     `yaml:"chatCooldownSec"`
	} `yaml:"game"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Static struct {
		Dir string `yaml:"dir"`
	} `yaml:"static"`
}

// LoadConfig reads the configuration file and applies game defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Game.MessageCostIncrement == 0 {
		cfg.Game.MessageCostIncrement = 10
	}
	if cfg.Game.PlatformFee == 0 {
		cfg.Game.PlatformFee = 0.1
	}
	if cfg.Game.InferenceTimeoutSec == 0 {
		cfg.Game.InferenceTimeoutSec = 30
	}
	if cfg.Game.TreasuryTimeoutSec == 0 {
		cfg.Game.TreasuryTimeoutSec = 45
	}

	return &cfg, nil
}
