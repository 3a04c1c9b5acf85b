package s3cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type object struct {
	body        []byte
	contentType string
	meta        map[string]string
}

// fakeS3 keeps objects in memory. Multipart calls fail; the cached bodies
// are far below the uploader's part size.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]object)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = object{
		body:        data,
		contentType: aws.ToString(in.ContentType),
		meta:        in.Metadata,
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(obj.body)),
		Metadata: obj.meta,
	}, nil
}

var errMultipart = errors.New("multipart not supported by fake")

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) object(key string) (object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

func TestNewTextCache_RequiresBucket(t *testing.T) {
	_, err := NewTextCache(newFakeS3(), "", "")
	assert.Error(t, err)
}

func TestTextCache_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	cache, err := NewTextCache(fake, "docs", "cache")
	require.NoError(t, err)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	text := &core.ProcessedText{
		Key:          core.ProcessedKey("Q1 résumé.xlsx"),
		OriginalName: "Q1 résumé.xlsx",
		Content:      "sheet contents",
		Tables: []core.Table{
			{Key: core.TableKey("Q1 résumé.xlsx", "Sheet 1"), Name: "Sheet 1", CSV: "a,b\n1,2\n"},
			{Key: core.TableKey("Q1 résumé.xlsx", "totals,net"), Name: "totals,net", CSV: "x\n"},
		},
		SourceID:  core.IDFromContent("workbook bytes").Hex(),
		CreatedAt: created,
	}
	require.NoError(t, cache.PutText(ctx, text))

	obj, ok := fake.object("docs/cache/processed/Q1 résumé.xlsx.txt")
	require.True(t, ok, "text stored under the prefixed processed key")
	assert.Equal(t, "sheet contents", string(obj.body))
	assert.Equal(t, "text/plain; charset=utf-8", obj.contentType)

	table, ok := fake.object("docs/cache/processed/Q1 résumé.xlsx/Sheet 1.csv")
	require.True(t, ok, "tables stored beside the text")
	assert.Equal(t, "a,b\n1,2\n", string(table.body))
	assert.Equal(t, "text/csv", table.contentType)

	got, err := cache.GetText(ctx, text.Key)
	require.NoError(t, err)
	assert.Equal(t, text.OriginalName, got.OriginalName)
	assert.Equal(t, text.Content, got.Content)
	assert.Equal(t, text.Tables, got.Tables)
	assert.Equal(t, text.SourceID, got.SourceID)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestTextCache_SetsCreatedAt(t *testing.T) {
	cache, err := NewTextCache(newFakeS3(), "docs", "")
	require.NoError(t, err)

	text := &core.ProcessedText{Key: "processed/a.txt", Content: "a"}
	require.NoError(t, cache.PutText(context.Background(), text))
	assert.False(t, text.CreatedAt.IsZero())

	got, err := cache.GetText(context.Background(), "processed/a.txt")
	require.NoError(t, err)
	assert.Empty(t, got.Tables)
}

func TestTextCache_Errors(t *testing.T) {
	fake := newFakeS3()
	cache, err := NewTextCache(fake, "docs", "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cache.GetText(ctx, "processed/ghost.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = cache.GetText(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)

	assert.ErrorIs(t, cache.PutText(ctx, &core.ProcessedText{}), storage.ErrInvalidKey)
	assert.ErrorIs(t, cache.PutText(ctx, &core.ProcessedText{
		Key:    "processed/a.txt",
		Tables: []core.Table{{Name: "t"}},
	}), storage.ErrInvalidKey)

	fake.getErr = errors.New("access denied")
	_, err = cache.GetText(ctx, "processed/a.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestTextCache_MissingTable(t *testing.T) {
	fake := newFakeS3()
	cache, err := NewTextCache(fake, "docs", "")
	require.NoError(t, err)
	ctx := context.Background()

	text := &core.ProcessedText{
		Key:    "processed/a.txt",
		Tables: []core.Table{{Key: "processed/a/t.csv", Name: "t", CSV: "1"}},
	}
	require.NoError(t, cache.PutText(ctx, text))

	fake.mu.Lock()
	delete(fake.objects, "docs/processed/a/t.csv")
	fake.mu.Unlock()

	_, err = cache.GetText(ctx, "processed/a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
