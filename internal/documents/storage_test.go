package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects  map[string][]byte
	types    map[string]string
	pageSize int
	puts     []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}, pageSize: 2}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = body
	f.types[*in.Key] = aws.ToString(in.ContentType)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data)), ContentType: aws.String(f.types[*in.Key])}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	modified := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k]))), LastModified: &modified})
	}
	return out, nil
}

func TestS3StoragePutGetList(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Storage(fake, "childcare-docs")

	for _, key := range []string{"resources/handbook.pdf", "resources/menu.pdf", "resources/calendar.png", "portal/f1/shots.pdf"} {
		require.NoError(t, store.Put(ctx, key, "application/pdf", strings.NewReader("data"), 4))
	}
	require.Len(t, fake.puts, 4)
	assert.Equal(t, "childcare-docs", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, fake.puts[0].ServerSideEncryption)

	objects, err := store.List(ctx, "resources/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "calendar.png", objects[0].Name)
	assert.Equal(t, "menu.pdf", objects[2].Name)
	assert.Equal(t, int64(4), objects[1].Size)

	body, contentType, err := store.Get(ctx, "portal/f1/shots.pdf")
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "application/pdf", contentType)

	_, _, err = store.Get(ctx, "portal/f1/missing.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.Put(ctx, "resources/a.pdf", "application/pdf", strings.NewReader("abc"), 3))
	require.NoError(t, store.Put(ctx, "portal/x/b.png", "image/png", strings.NewReader("d"), 1))

	objects, err := store.List(ctx, "resources/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "a.pdf", objects[0].Name)
	assert.Equal(t, int64(3), objects[0].Size)

	_, _, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
