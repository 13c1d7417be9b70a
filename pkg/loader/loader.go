// Package loader reads dataset files for ingestion. A dataset is a tree of
// annotation JSON files plus a categories file, stored either on local disk
// or in an S3 bucket.
package loader

import (
	"context"
	"path"
	"strings"
)

// DatasetFile is a single file of a dataset. Its content is retrieved via
// the associated FileLoader.
type DatasetFile struct {
	Path   string
	Loader FileLoader
}

// NewDatasetFile creates a DatasetFile bound to l.
func NewDatasetFile(filePath string, l FileLoader) DatasetFile {
	return DatasetFile{Path: filePath, Loader: l}
}

// Read retrieves the raw content of the file.
func (f *DatasetFile) Read(ctx context.Context) ([]byte, error) {
	return f.Loader.ReadFile(ctx, f.Path)
}

// Name is the base name of the file.
func (f *DatasetFile) Name() string {
	return path.Base(f.Path)
}

// ID is the base name without its final extension, so "4859.png.json" is
// the annotation of diagram "4859.png".
func (f *DatasetFile) ID() string {
	name := f.Name()
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// FileLoader defines how dataset files are listed and read. Implementations
// may load files from disk, cloud storage, or other sources.
type FileLoader interface {
	ReadFile(ctx context.Context, filePath string) ([]byte, error)
	// ListFiles returns the paths of the files directly below dir in lexical
	// order.
	ListFiles(ctx context.Context, dir string) ([]string, error)
	// Join builds a path understood by the loader.
	Join(elem ...string) string
}

// CacheKey is the cache key of a file path.
func CacheKey(filePath string) string {
	return path.Clean(filePath)
}
