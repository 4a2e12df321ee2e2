package table

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig holds credentials for an S3-compatible object store.
type ObjectStoreConfig struct {
	Endpoint  string `json:"endpoint,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	UseSSL    bool   `json:"use_ssl,omitempty"`
}

// IsObjectURL reports whether a location names an object in a bucket.
func IsObjectURL(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseObjectURL splits s3://bucket/key into its parts.
func ParseObjectURL(location string) (bucket string, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid object URL: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid object URL %q: expected s3://bucket/key", location)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid object URL %q: missing key", location)
	}
	return u.Host, key, nil
}

// FetchObject downloads an artifact from object storage and decodes it by extension.
func FetchObject(ctx context.Context, location string, cfg ObjectStoreConfig) (*Table, error) {
	bucket, key, err := ParseObjectURL(location)
	if err != nil {
		return nil, &LoadError{Source: location, Message: "bad location", Cause: err}
	}
	if cfg.Endpoint == "" {
		return nil, &LoadError{Source: location, Message: "object store endpoint is not configured"}
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, &LoadError{Source: location, Message: "create object store client", Cause: err}
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &LoadError{Source: location, Message: "get object", Cause: err}
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", location, ErrArtifactNotFound)
		}
		return nil, &LoadError{Source: location, Message: "read object", Cause: err}
	}

	return decodeBytes(data, path.Ext(key), location)
}

// decodeBytes picks a decoder from the artifact's file extension.
func decodeBytes(data []byte, ext string, source string) (*Table, error) {
	switch strings.ToLower(ext) {
	case ".parquet":
		return LoadParquet(bytes.NewReader(data), int64(len(data)), source)
	case ".csv":
		return LoadCSV(bytes.NewReader(data), source)
	default:
		return nil, &LoadError{Source: source, Message: fmt.Sprintf("unsupported artifact extension %q", ext)}
	}
}
