package attachments

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a locally selected screenshot that has not been uploaded yet.
// It is either backed by a path on disk or by an in-memory buffer.
type File struct {
	name      string
	mediaType string
	size      int64
	path      string
	data      []byte
}

// FileFromPath stages a file from disk. The media type is sniffed from
// the file content and the size comes from the file system.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to detect media type of %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return File{
		name:      filepath.Base(path),
		mediaType: normalizeMediaType(mtype.String()),
		size:      info.Size(),
		path:      abs,
	}, nil
}

// FileFromBytes stages an in-memory file. An empty mediaType is sniffed
// from data.
func FileFromBytes(name, mediaType string, data []byte) File {
	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	return File{
		name:      name,
		mediaType: normalizeMediaType(mediaType),
		size:      int64(len(data)),
		data:      data,
	}
}

// FileName returns the display name
func (f File) FileName() string { return f.name }

// MediaType returns the declared (or sniffed) media type
func (f File) MediaType() string { return f.mediaType }

// Size returns the size in bytes
func (f File) Size() int64 { return f.size }

// Path returns the absolute source path, or "" for in-memory files
func (f File) Path() string { return f.path }

// Open returns a reader over the file content
func (f File) Open() (io.ReadCloser, error) {
	if f.path != "" {
		return os.Open(f.path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// normalizeMediaType lowercases, drops parameters and maps common aliases
func normalizeMediaType(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	switch mediaType {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-png":
		return "image/png"
	}
	return mediaType
}
