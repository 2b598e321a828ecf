// config реализует конфигурацию фид-ядра: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация подсистемы.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Limits  LimitsConfig  `yaml:"limits"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
}

// APIConfig — настройки клиента удалённого сервиса.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL" env-required:"true"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"  env-default:"10s"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"journal-feed/1.0"`
}

// LimitsConfig — лимиты постраничной выдачи.
// Пагинация: limit=0 -> берём Default; верхняя граница — Max.
type LimitsConfig struct {
	Default int `yaml:"default" env:"DEFAULT_LIMIT" env-default:"10"`
	Max     int `yaml:"max"     env:"MAX_LIMIT"     env-default:"100"`
}

// CacheConfig — локальный кэш с ограниченным временем жизни записей.
type CacheConfig struct {
	// Path — путь к файлу SQLite; пустая строка -> кэш только в памяти.
	Path string `yaml:"path" env:"CACHE_PATH" env-default:""`
	// FeedTTL — срок жизни кэшированной первой страницы именованных лент.
	FeedTTL time.Duration `yaml:"feed_ttl" env:"CACHE_FEED_TTL" env-default:"10m"`
	// TopListTTL — срок жизни «топа» по тегу/категории (медленно меняющиеся
	// агрегаты; бо́льшая staleness в обмен на меньше запросов).
	TopListTTL time.Duration `yaml:"top_list_ttl" env:"CACHE_TOP_LIST_TTL" env-default:"1h"`
	// EntryTTL — срок жизни кэшированной записи по slug.
	EntryTTL time.Duration `yaml:"entry_ttl" env:"CACHE_ENTRY_TTL" env-default:"5m"`
}

// SessionConfig — параметры клиентской сессии.
type SessionConfig struct {
	// TTL — срок жизни персистентной записи «текущая сессия», если
	// expiry не удалось извлечь из access-токена.
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"720h"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide path, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}

	if c.Limits.Max <= 0 {
		return fmt.Errorf("limits.max must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Cache.FeedTTL <= 0 || c.Cache.TopListTTL <= 0 || c.Cache.EntryTTL <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}

	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session.ttl must be at least 1m")
	}

	return nil
}
