package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, extraction.BackendOpenAI, cfg.Extraction.Backend)
	assert.Equal(t, "whisper-1", cfg.Extraction.AudioModel)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.CallTimeout)
	assert.Equal(t, 10*time.Second, cfg.Extraction.PageTimeout)
	assert.Equal(t, SourceDir, cfg.Source.Kind)
	assert.Equal(t, CacheBadger, cfg.Storage.Cache)
	assert.Equal(t, 168*time.Hour, cfg.Storage.Redis.TTL)
	assert.Equal(t, pipeline.MaxConcurrency, cfg.Pipeline.Concurrency)
	assert.Equal(t, time.Second, cfg.Pipeline.TimeUnit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabulate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extraction:
  backend: bedrock
  attribute_model: anthropic.claude-3-haiku
  call_timeout: 30s
source:
  kind: s3
  s3:
    bucket: uploads
    prefix: incoming
storage:
  path: /var/lib/tabulate
  cache: redis
  redis:
    addr: cache:6379
    ttl: 1h
pipeline:
  concurrency: 4
  time_unit: 250ms
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, extraction.BackendBedrock, cfg.Extraction.Backend)
	assert.Equal(t, 30*time.Second, cfg.Extraction.CallTimeout)
	assert.Equal(t, "uploads", cfg.S3Config().Bucket)
	assert.Equal(t, "incoming", cfg.S3Config().Prefix)
	assert.Equal(t, "us-east-1", cfg.S3Config().Region)
	assert.Equal(t, "/var/lib/tabulate", cfg.Storage.Path)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Storage.Redis.TTL)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.TimeUnit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabulate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  concurrency: 4\n"), 0644))
	t.Setenv("TABULATE_PIPELINE_CONCURRENCY", "2")
	t.Setenv("TABULATE_EXTRACTION_HOST", "http://models:8000")
	t.Setenv("TABULATE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, "http://models:8000", cfg.Extraction.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"TABULATE_SOURCE_KIND": "ftp"}},
		{"s3 without bucket", map[string]string{"TABULATE_SOURCE_KIND": "s3"}},
		{"unknown cache", map[string]string{"TABULATE_STORAGE_CACHE": "memcached"}},
		{"s3 cache without bucket", map[string]string{"TABULATE_STORAGE_CACHE": "s3"}},
		{"concurrency too high", map[string]string{"TABULATE_PIPELINE_CONCURRENCY": "11"}},
		{"concurrency zero", map[string]string{"TABULATE_PIPELINE_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_ExtractionConfig(t *testing.T) {
	t.Setenv("TABULATE_EXTRACTION_HOST", "http://models:8000")
	t.Setenv("TABULATE_EXTRACTION_RATE_LIMIT", "2.5")
	t.Setenv("TABULATE_EXTRACTION_RATE_BURST", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	ec := cfg.ExtractionConfig()
	require.NoError(t, ec.Validate())
	assert.Equal(t, "http://models:8000/v1", ec.Host)
	assert.Equal(t, ec.Host, ec.AudioHost, "audio host falls back to the main host")
	assert.Equal(t, 2.5, ec.RateLimit)
	assert.Equal(t, 5, ec.RateBurst)
}
