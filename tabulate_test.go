package tabulate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/poiesic/tabulate/config"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction/mock"
	"github.com/poiesic/tabulate/pipeline"
	"github.com/poiesic/tabulate/storage/s3cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.Dir = t.TempDir()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "db")
	cfg.Pipeline.TimeUnit = 0
	return cfg
}

func TestOpen(t *testing.T) {
	t.Run("builds model-backed services", func(t *testing.T) {
		p, err := Open(context.Background(), testConfig(t))
		require.NoError(t, err)
		defer p.Close()

		assert.NotNil(t, p.Batches())
		assert.NotNil(t, p.TextCache())
		assert.NotNil(t, p.client)
		assert.NotNil(t, p.attributes)
	})

	t.Run("in-memory without cache", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Path = ""
		cfg.Storage.Cache = config.CacheNone

		p, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		defer p.Close()
		assert.Nil(t, p.TextCache())
	})

	t.Run("redis cache", func(t *testing.T) {
		srv := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Storage.Cache = config.CacheRedis
		cfg.Storage.Redis.Addr = srv.Addr()

		p, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		defer p.Close()

		require.NoError(t, p.TextCache().PutText(context.Background(), &core.ProcessedText{Key: "processed/a.txt", Content: "a"}))
		assert.NotEmpty(t, srv.Keys())
	})

	t.Run("s3 cache", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Cache = config.CacheS3
		cfg.Storage.S3 = config.S3Config{
			Bucket:    "cache",
			Prefix:    "tabulate",
			Region:    "us-east-1",
			Endpoint:  "http://localhost:9000",
			AccessKey: "key",
			SecretKey: "secret",
		}

		p, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		defer p.Close()
		assert.IsType(t, &s3cache.TextCache{}, p.TextCache())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Path = filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(cfg.Storage.Path, []byte("test"), 0644))

		p, err := Open(context.Background(), cfg)
		assert.Error(t, err)
		assert.Nil(t, p)
	})

	t.Run("error with missing source dir", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Source.Dir = filepath.Join(t.TempDir(), "missing")

		_, err := Open(context.Background(), cfg)
		assert.Error(t, err)
	})

	t.Run("error with unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Extraction.Backend = "watson"

		_, err := Open(context.Background(), cfg)
		assert.Error(t, err)
	})
}

func TestProcessor_RunBatch(t *testing.T) {
	services, vision, documents, audio := mock.NewMockServices()
	attributes := mock.NewMockAttributeExtractor()

	p, err := Open(context.Background(), testConfig(t),
		WithServices(services),
		WithAttributeExtractor(attributes))
	require.NoError(t, err)
	defer p.Close()

	orchestrator, err := p.NewOrchestrator(pipeline.WithIDGenerator(func() string { return "b1" }))
	require.NoError(t, err)

	result, err := orchestrator.Run(context.Background(), &core.BatchRequest{
		Documents:  []string{"memo.pdf", "scan.png", "call.wav"},
		Attributes: []core.Attribute{{Name: "sender"}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.BatchSucceeded, result.Status)
	assert.Len(t, result.Documents, 3)

	assert.Equal(t, []string{"memo.pdf"}, documents.Calls())
	assert.Equal(t, []string{"scan.png"}, vision.Calls())
	assert.Equal(t, []string{"call.wav"}, audio.Calls())
	assert.Equal(t, 1, attributes.CallCount())

	record, err := p.Batches().GetBatch(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, result.Documents, record.Result.Documents)
}

func TestProcessor_Close(t *testing.T) {
	p, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
