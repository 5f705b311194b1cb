// Package input opens the dump stream the splitter reads.
//
// A dump can come from a file or standard input, may be gzip or zstd
// compressed (detected from its first bytes, not its name) and may use a
// legacy single-byte charset that is decoded to UTF-8 on the fly.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Stream is an open dump stream. Closing it releases every layer.
type Stream struct {
	io.Reader

	// Name is the path read from, or "stdin".
	Name string

	// Codec is "gzip", "zstd" or "" for plain text.
	Codec string

	closers []func() error
}

// Close releases the decoder layers and the underlying file.
func (s *Stream) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open opens path ("" or "-" for stdin) and wraps it with decompression and
// charset decoding. charset is a WHATWG/IANA label such as "latin1" or
// "windows-1252"; empty or "utf-8" leaves bytes untouched.
func Open(path, charset string) (*Stream, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}

	var (
		rc   io.ReadCloser
		name string
	)
	if path == "" || path == Stdin {
		rc, name = io.NopCloser(os.Stdin), "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		rc, name = f, path
	}

	s, err := Wrap(rc, enc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open input %s: %w", name, err)
	}
	s.Name = name
	return s, nil
}

// Wrap layers decompression and decoding over rc. The returned stream owns
// rc and closes it.
func Wrap(rc io.ReadCloser, enc encoding.Encoding) (*Stream, error) {
	s := &Stream{closers: []func() error{rc.Close}}

	br := bufio.NewReader(rc)
	magic, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("sniff compression: %w", err)
	}

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		s.Codec = "gzip"
		s.closers = append(s.closers, zr.Close)
		r = zr
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		s.Codec = "zstd"
		s.closers = append(s.closers, func() error { zr.Close(); return nil })
		r = zr
	}

	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	s.Reader = r
	return s, nil
}

// Lookup resolves a charset label. Empty and UTF-8 labels return nil,
// meaning no decoding.
func Lookup(charset string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(charset))
	switch label {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", charset, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
