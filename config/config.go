// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads tabulate settings from an optional config file and
// TABULATE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/pipeline"
	"github.com/poiesic/tabulate/source"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. TABULATE_EXTRACTION_HOST.
const EnvPrefix = "TABULATE"

// Document source kinds.
const (
	SourceDir = "dir"
	SourceS3  = "s3"
)

// Text cache kinds.
const (
	CacheNone   = "none"
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheS3     = "s3"
)

var (
	// ErrInvalidConfig is returned when loaded settings cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds all application configuration.
type Config struct {
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Source     SourceConfig     `mapstructure:"source"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ExtractionConfig holds model backend settings.
type ExtractionConfig struct {
	Backend          string        `mapstructure:"backend"`
	Host             string        `mapstructure:"host"`
	Token            string        `mapstructure:"token"`
	VisionModel      string        `mapstructure:"vision_model"`
	AttributeModel   string        `mapstructure:"attribute_model"`
	AudioHost        string        `mapstructure:"audio_host"`
	AudioToken       string        `mapstructure:"audio_token"`
	AudioModel       string        `mapstructure:"audio_model"`
	AudioLanguage    string        `mapstructure:"audio_language"`
	MaxDocumentChars int           `mapstructure:"max_document_chars"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	RateBurst        int           `mapstructure:"rate_burst"`
	PageTimeout      time.Duration `mapstructure:"page_timeout"`
}

// SourceConfig selects where documents are read from.
type SourceConfig struct {
	Kind string   `mapstructure:"kind"`
	Dir  string   `mapstructure:"dir"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds bucket settings for the s3 source and the s3 cache.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// StorageConfig holds the batch database and processed-text cache settings.
type StorageConfig struct {
	// Path is the Badger directory. Empty keeps everything in memory.
	Path  string      `mapstructure:"path"`
	Cache string      `mapstructure:"cache"`
	Redis RedisConfig `mapstructure:"redis"`
	S3    S3Config    `mapstructure:"s3"`
}

// RedisConfig holds settings for the redis text cache.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Namespace string        `mapstructure:"namespace"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// PipelineConfig holds batch execution settings.
type PipelineConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	TimeUnit    time.Duration `mapstructure:"time_unit"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	def := extraction.DefaultConfig()

	// Extraction defaults
	v.SetDefault("extraction.backend", def.Backend)
	v.SetDefault("extraction.host", def.Host)
	v.SetDefault("extraction.token", def.Token)
	v.SetDefault("extraction.vision_model", def.VisionModel)
	v.SetDefault("extraction.attribute_model", def.AttributeModel)
	v.SetDefault("extraction.audio_host", "")
	v.SetDefault("extraction.audio_token", "")
	v.SetDefault("extraction.audio_model", def.AudioModel)
	v.SetDefault("extraction.audio_language", "en")
	v.SetDefault("extraction.max_document_chars", def.MaxDocumentChars)
	v.SetDefault("extraction.max_tokens", def.MaxTokens)
	v.SetDefault("extraction.call_timeout", def.CallTimeout)
	v.SetDefault("extraction.rate_limit", 0)
	v.SetDefault("extraction.rate_burst", 1)
	v.SetDefault("extraction.page_timeout", "10s")

	// Source defaults
	v.SetDefault("source.kind", SourceDir)
	v.SetDefault("source.dir", ".")
	v.SetDefault("source.s3.bucket", "")
	v.SetDefault("source.s3.prefix", "")
	v.SetDefault("source.s3.region", "us-east-1")
	v.SetDefault("source.s3.endpoint", "")
	v.SetDefault("source.s3.access_key", "")
	v.SetDefault("source.s3.secret_key", "")

	// Storage defaults
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.cache", CacheBadger)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.namespace", "tabulate")
	v.SetDefault("storage.redis.ttl", "168h")
	v.SetDefault("storage.s3.region", "us-east-1")

	// Pipeline defaults
	v.SetDefault("pipeline.concurrency", pipeline.MaxConcurrency)
	v.SetDefault("pipeline.time_unit", pipeline.DefaultTimeUnit)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
}

// Load reads configuration from the file at path, if path is not empty, and
// from environment variables with the TABULATE_ prefix. Environment
// variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that are not validated by the packages they
// are handed to.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			return fmt.Errorf("%w: source.dir is required for the dir source", ErrInvalidConfig)
		}
	case SourceS3:
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("%w: source.s3.bucket is required for the s3 source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalidConfig, c.Source.Kind)
	}

	switch c.Storage.Cache {
	case CacheNone, CacheBadger:
	case CacheRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("%w: storage.redis.addr is required for the redis cache", ErrInvalidConfig)
		}
	case CacheS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("%w: storage.s3.bucket is required for the s3 cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.cache %q", ErrInvalidConfig, c.Storage.Cache)
	}

	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > pipeline.MaxConcurrency {
		return fmt.Errorf("%w: pipeline.concurrency must be between 1 and %d", ErrInvalidConfig, pipeline.MaxConcurrency)
	}
	if c.Pipeline.TimeUnit < 0 {
		return fmt.Errorf("%w: pipeline.time_unit cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ExtractionConfig returns the extraction library configuration.
func (c *Config) ExtractionConfig() *extraction.Config {
	e := c.Extraction
	return extraction.NewConfig(
		extraction.WithBackend(e.Backend),
		extraction.WithHost(e.Host),
		extraction.WithToken(e.Token),
		extraction.WithVisionModel(e.VisionModel),
		extraction.WithAttributeModel(e.AttributeModel),
		extraction.WithAudioHost(e.AudioHost),
		extraction.WithAudioToken(e.AudioToken),
		extraction.WithAudioModel(e.AudioModel),
		extraction.WithMaxDocumentChars(e.MaxDocumentChars),
		extraction.WithMaxTokens(e.MaxTokens),
		extraction.WithCallTimeout(e.CallTimeout),
		extraction.WithRateLimit(e.RateLimit, e.RateBurst),
	)
}

// S3Config returns the S3 source settings.
func (c *Config) S3Config() source.S3Config {
	return c.Source.S3.client()
}

// CacheS3Config returns the bucket settings of the s3 text cache.
func (c *Config) CacheS3Config() source.S3Config {
	return c.Storage.S3.client()
}

func (s S3Config) client() source.S3Config {
	return source.S3Config{
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
	}
}
