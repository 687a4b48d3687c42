// Package srcio provides the re-openable input and output adapters the
// redaction pipeline needs at its boundary: gzip sniffing/wrapping of
// byte streams and fast, re-openable file backing for the two-pass
// driver. These are external-collaborator concerns the core format
// rewriter never has to know about.
package srcio

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourcePlainRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.hprof")
	want := []byte("JAVA PROFILE 1.0.2\x00not a real dump, just plain bytes")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	src := FileSource{Path: path}
	for i := 0; i < 2; i++ {
		rc, err := src.Open()
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll #%d: %v", i, err)
		}
		rc.Close()
		if !bytes.Equal(got, want) {
			t.Errorf("Open #%d: got %q, want %q", i, got, want)
		}
	}
}

func TestFileSourceGzipSniffed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.hprof.gz")
	want := []byte("JAVA PROFILE 1.0.2\x00payload bytes")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src := FileSource{Path: path}
	rc, err := src.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOpenOutputGzipSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.hprof.GZ")

	w, err := OpenOutput(path)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	want := []byte("hello")
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	gz, err := gzip.NewReader(raw)
	if err != nil {
		t.Fatalf("output is not valid gzip: %v", err)
	}
	got, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOpenOutputPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.hprof")

	w, err := OpenOutput(path)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	want := []byte("hello")
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
