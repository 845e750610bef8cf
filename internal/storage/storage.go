// Package storage writes rendered reports to a local file or to a Google
// Cloud Storage object.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ParseGCSURL splits gs://bucket/object. ok is false for anything else.
func ParseGCSURL(s string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(s, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", false
	}
	return bucket, object, true
}

// Save writes data to dest, a local path or a gs:// URL.
func Save(ctx context.Context, dest string, data []byte, opts ...option.ClientOption) error {
	if strings.HasPrefix(dest, "gs://") {
		bucket, object, ok := ParseGCSURL(dest)
		if !ok {
			return fmt.Errorf("invalid GCS destination %q: want gs://bucket/object", dest)
		}
		return saveGCS(ctx, bucket, object, data, opts...)
	}
	return saveLocal(dest, data)
}

func saveLocal(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func saveGCS(ctx context.Context, bucket, object string, data []byte, opts ...option.ClientOption) error {
	opts = append([]option.ClientOption{option.WithUserAgent("fedexps")}, opts...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(object)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("uploading gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	}
	return "text/plain; charset=utf-8"
}
