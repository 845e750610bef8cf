package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/fedexps/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGCSURL(t *testing.T) {
	tests := []struct {
		in             string
		bucket, object string
		ok             bool
	}{
		{"gs://reports/ranks/all.md", "reports", "ranks/all.md", true},
		{"gs://reports/a", "reports", "a", true},
		{"gs://reports/", "", "", false},
		{"gs://reports", "", "", false},
		{"gs:///x", "", "", false},
		{"s3://reports/a", "", "", false},
		{"ranks.md", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, o, ok := storage.ParseGCSURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.object, o)
		})
	}
}

func TestSaveLocal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "nested", "ranks.md")
	require.NoError(t, storage.Save(context.Background(), dest, []byte("| a |\n")))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "| a |\n", string(got))
}

func TestSaveRejectsBadGCSURL(t *testing.T) {
	err := storage.Save(context.Background(), "gs://bucket-only", []byte("x"))
	assert.Error(t, err)
}

func TestSaveGCS(t *testing.T) {
	bucket := os.Getenv("FEDEXPS_GCS_BUCKET")
	if bucket == "" {
		t.Skip("set FEDEXPS_GCS_BUCKET to run GCS tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dest := "gs://" + bucket + "/fedexps-test/" + time.Now().UTC().Format("20060102T150405") + ".md"
	require.NoError(t, storage.Save(ctx, dest, []byte("test\n")))
}
