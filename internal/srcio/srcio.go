// Package srcio provides the re-openable input and output adapters the
// redaction pipeline needs at its boundary: gzip sniffing/wrapping of
// byte streams and fast, re-openable file backing for the two-pass
// driver. These are external-collaborator concerns the core format
// rewriter never has to know about.
package srcio

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
)

var gzipMagic = []byte{0x1f, 0x8b}

// FileSource opens path fresh on every Open call, memory-mapping it for
// plain HPROF input and transparently decompressing it when its content
// sniffs as gzip. It satisfies redact.Source.
type FileSource struct {
	Path string
}

// Open implements redact.Source.
func (s FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("srcio: open %s: %w", s.Path, err)
	}

	head := make([]byte, 2)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("srcio: sniff %s: %w", s.Path, err)
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		f.Close()
		return nil, fmt.Errorf("srcio: rewind %s: %w", s.Path, serr)
	}

	if n == 2 && bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("srcio: gzip header %s: %w", s.Path, err)
		}
		return &gzipFileReader{gz: gz, f: f}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Zero-length files and a handful of filesystems refuse to map;
		// fall back to buffered reads rather than failing the open.
		return &plainFileReader{r: bufio.NewReader(f), f: f}, nil
	}
	return &mmapReader{r: bytes.NewReader(m), m: m, f: f}, nil
}

// mmapReader serves reads out of a memory-mapped file; each Open call
// produces its own independent mapping, which is what lets pass 1 and
// pass 2 run over the same path without re-reading it through the page
// cache twice in the usual buffered-I/O sense.
type mmapReader struct {
	r *bytes.Reader
	m mmap.MMap
	f *os.File
}

func (m *mmapReader) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *mmapReader) Close() error {
	uerr := m.m.Unmap()
	cerr := m.f.Close()
	if uerr != nil {
		return uerr
	}
	return cerr
}

type plainFileReader struct {
	r *bufio.Reader
	f *os.File
}

func (p *plainFileReader) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *plainFileReader) Close() error                { return p.f.Close() }

type gzipFileReader struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipFileReader) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFileReader) Close() error {
	gerr := g.gz.Close()
	ferr := g.f.Close()
	if gerr != nil {
		return gerr
	}
	return ferr
}

// OpenOutput opens path for writing, wrapping it in a gzip encoder if
// its name ends in ".gz" (case-insensitive). The returned io.WriteCloser
// must be closed to flush the gzip trailer.
func OpenOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("srcio: create %s: %w", path, err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &gzipFileWriter{gz: gzip.NewWriter(f), f: f}, nil
	}
	return f, nil
}

type gzipFileWriter struct {
	gz *gzip.Writer
	f  *os.File
}

func (g *gzipFileWriter) Write(p []byte) (int, error) { return g.gz.Write(p) }

func (g *gzipFileWriter) Close() error {
	gerr := g.gz.Close()
	ferr := g.f.Close()
	if gerr != nil {
		return gerr
	}
	return ferr
}
