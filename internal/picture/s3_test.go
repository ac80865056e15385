package picture

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_Lifecycle(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := newS3(fake, S3Config{Bucket: "pics", Region: "eu-west-1", PublicURL: "https://cdn.example.com/"})
	store.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ctx := context.Background()

	url, err := store.Save(ctx, Upload{Data: png})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/sales/2024/03/"))
	assert.Len(t, fake.objects, 1)

	rc, err := store.Open(ctx, url)
	require.NoError(t, err)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, png, got)

	require.NoError(t, store.Delete(ctx, url))
	assert.Empty(t, fake.objects)

	assert.NoError(t, store.Delete(ctx, "/uploads/local.png"))
}

func TestS3_DefaultPublicURL(t *testing.T) {
	store := newS3(&fakeS3{}, S3Config{Bucket: "pics", Region: "eu-west-1"})
	assert.Equal(t, "https://pics.s3.eu-west-1.amazonaws.com", store.publicURL)
}
