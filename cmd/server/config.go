package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kevinxiao27/lseq/lseq"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the relay's YAML config.
type Config struct {
	Addr     string `yaml:"addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// SendBuffer is the number of outgoing messages queued per client before
	// the client is dropped.
	SendBuffer int `yaml:"send_buffer" validate:"min=1"`

	LSEQ lseq.Config `yaml:"lseq"`
}

func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		LogLevel:   "info",
		SendBuffer: 64,
		LSEQ:       lseq.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return c.LSEQ.Validate()
}

func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
