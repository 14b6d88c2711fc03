package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("checkpoint not found")

// Store persists opaque blobs under string keys.
type Store interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

type Config struct {
	Kind   string `mapstructure:"kind" yaml:"kind"` // file or redis
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Key    string `mapstructure:"key" yaml:"key"` // Checkpoint key used by the CLI
}

// New opens the store the configuration names. An empty kind means a file store.
func New(cfg Config) (Store, error) {
	switch cfg.Kind {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(cfg.Addr, WithPrefix(cfg.Prefix)), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
