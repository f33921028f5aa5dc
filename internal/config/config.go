// Package config loads the gateway configuration from a yaml file overlaid
// with environment variables.
//
// Sources, in order of precedence:
//  1. an explicit path;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment variables only.
package config

import (
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"dev"`
	AppName string        `yaml:"app_name" env:"APP_NAME" env-default:"Admin Dashboard"`
	HTTP    HTTPConfig    `yaml:"http"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
}

// HTTPConfig is the gateway's own listen address.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// APIConfig points at the upstream REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"https://dummyjson.com"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s"`
}

// SessionConfig selects and tunes the token store. With RedisAddr set the
// session lives in redis; otherwise it is a file at StorePath, encrypted at
// rest when Passphrase is non-empty.
type SessionConfig struct {
	StorePath     string `yaml:"store_path" env:"SESSION_STORE_PATH" env-default:"./data/session.json"`
	Passphrase    string `yaml:"passphrase" env:"SESSION_PASSPHRASE"`
	ExpiresInMins int    `yaml:"expires_in_mins" env:"SESSION_EXPIRES_IN_MINS" env-default:"30"`
	RedisAddr     string `yaml:"redis_addr" env:"SESSION_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"SESSION_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"SESSION_REDIS_DB" env-default:"0"`
}

// MustLoad panics when the configuration cannot be loaded.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, errors.Wrapf(err, "config file %q", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "overlay environment")
		}
		return &cfg, nil
	}

	if path != "" {
		return tryRead(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	return &cfg, nil
}
