package fileset

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "runtime.tar.zst"},
		{"builds", "builds/runtime.tar.zst"},
		{"/builds/nightly/", "builds/nightly/runtime.tar.zst"},
	}
	for _, tt := range tests {
		c := &S3Client{Prefix: tt.prefix}
		assert.Equal(t, tt.want, c.objectKey("runtime.tar.zst"), "prefix %q", tt.prefix)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.tar.zst":        "application/zstd",
		"a.tar.gz":         "application/gzip",
		"a.tgz":            "application/gzip",
		"a.tar.xz":         "application/x-xz",
		"a.tar":            "application/x-tar",
		"runtime.manifest": "text/plain; charset=utf-8",
		"notes.txt":        "text/plain; charset=utf-8",
		"meta.json":        "application/json",
		"blob":             "application/octet-stream",
	}
	for key, want := range tests {
		assert.Equal(t, want, contentTypeFor(key), key)
	}
}

func TestNewS3Client(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), keyS3Bucket)

	client, err := NewS3Client(context.Background(), S3Config{
		Bucket:    "artifacts",
		Region:    "auto",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "builds",
	})
	require.NoError(t, err)
	assert.Equal(t, "artifacts", client.Bucket)

	opts := client.Client.Options()
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key", creds.AccessKeyID)
}
