package table

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Default artifact names, tried in order when no explicit location is configured.
const (
	DefaultParquetName = "predictions.parquet"
	DefaultCSVName     = "predictions.csv"
)

// Source describes where the predictions artifact lives.
type Source struct {
	// Location is a file path, s3://bucket/key, or postgres:// URL. Empty means discover
	// predictions.parquet, then predictions.csv, in DataDir.
	Location    string
	DataDir     string
	ObjectStore ObjectStoreConfig
}

// Open loads the predictions table from its source. A missing artifact yields an error
// matching ErrArtifactNotFound.
func Open(ctx context.Context, src Source) (*Table, error) {
	var (
		t   *Table
		err error
	)

	switch {
	case src.Location == "":
		var path string
		path, err = Discover(src.DataDir)
		if err == nil {
			t, err = LoadFile(path)
		}
	case IsObjectURL(src.Location):
		t, err = FetchObject(ctx, src.Location, src.ObjectStore)
	case IsPostgresURL(src.Location):
		t, err = LoadPostgres(ctx, src.Location)
	default:
		t, err = LoadFile(src.Location)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[table] Loaded %d buildings from %s", t.Len(), t.Source())
	return t, nil
}

// Discover returns the first default artifact present in dir.
func Discover(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{DefaultParquetName, DefaultCSVName} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s or %s not found in %s: %w", DefaultParquetName, DefaultCSVName, dir, ErrArtifactNotFound)
}

// LoadFile decodes a local artifact, choosing the decoder by extension.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrArtifactNotFound)
		}
		return nil, &LoadError{Source: path, Message: "open", Cause: err}
	}
	defer func() { _ = f.Close() }()

	switch ext := filepath.Ext(path); ext {
	case ".parquet":
		info, err := f.Stat()
		if err != nil {
			return nil, &LoadError{Source: path, Message: "stat", Cause: err}
		}
		return LoadParquet(f, info.Size(), path)
	case ".csv":
		return LoadCSV(f, path)
	default:
		return nil, &LoadError{Source: path, Message: fmt.Sprintf("unsupported artifact extension %q", ext)}
	}
}
