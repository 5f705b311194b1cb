// Package sink opens the output artifacts the splitter writes to.
//
// An Opener resolves artifact paths relative to an output root. Paths handed
// to it are slash-separated and carry the plain ".sql" suffix; the opener
// appends the suffix of its compression codec.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how artifacts are encoded on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ValidCompressions lists the accepted compression names.
var ValidCompressions = []Compression{CompressionNone, CompressionGzip, CompressionZstd}

// ParseCompression converts a flag or config value into a Compression.
// An empty string means CompressionNone.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q: must be one of %v", s, ValidCompressions)
	}
}

// Suffix returns the file name suffix added after ".sql".
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// Sink is a single open artifact.
type Sink interface {
	io.Writer

	// Close flushes buffered data and releases the underlying handle.
	// It is safe to call more than once.
	Close() error

	// Path is the location the sink writes to, as reported to users.
	Path() string
}

// Opener creates sinks and directories below an output root.
type Opener interface {
	// EnsureDir creates the directory rel (and its parents) if absent.
	EnsureDir(rel string) error

	// Open creates or truncates the artifact at rel for writing.
	Open(rel string) (Sink, error)
}

// FileOpener writes artifacts to the local filesystem.
type FileOpener struct {
	Root        string
	Compression Compression

	// Level is the codec-specific compression level. Zero selects the
	// codec default.
	Level int
}

// NewFileOpener returns an opener rooted at root.
func NewFileOpener(root string, c Compression, level int) *FileOpener {
	return &FileOpener{Root: root, Compression: c, Level: level}
}

// EnsureDir creates root/rel.
func (o *FileOpener) EnsureDir(rel string) error {
	dir := filepath.Join(o.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Open creates root/rel plus the codec suffix. Missing parent directories
// are created.
func (o *FileOpener) Open(rel string) (Sink, error) {
	path := filepath.Join(o.Root, filepath.FromSlash(rel)) + o.Compression.Suffix()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &fileSink{path: path, file: f}
	switch o.Compression {
	case CompressionGzip:
		level := gzip.DefaultCompression
		if o.Level != 0 {
			level = o.Level
		}
		zw, err := gzip.NewWriterLevel(f, level)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip writer for %s: %w", path, err)
		}
		s.codec = zw
	case CompressionZstd:
		var opts []zstd.EOption
		if o.Level != 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(o.Level)))
		}
		zw, err := zstd.NewWriter(f, opts...)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd writer for %s: %w", path, err)
		}
		s.codec = zw
	}

	if s.codec != nil {
		s.buf = bufio.NewWriter(s.codec)
	} else {
		s.buf = bufio.NewWriter(f)
	}
	return s, nil
}

// fileSink layers a buffer over an optional codec over the file.
type fileSink struct {
	path   string
	file   *os.File
	codec  io.WriteCloser
	buf    *bufio.Writer
	closed bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("write %s: %w", s.path, os.ErrClosed)
	}
	return s.buf.Write(p)
}

func (s *fileSink) Path() string { return s.path }

// Close flushes every layer and closes the file even when an earlier layer
// fails, returning all errors joined.
func (s *fileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush %s: %w", s.path, err))
	}
	if s.codec != nil {
		if err := s.codec.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finish %s: %w", s.path, err))
		}
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}
