// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"encoding/binary"
	"io"
)

// byteReader wraps an io.Reader with big-endian typed reads and a
// width-polymorphic identifier read governed by idSize, which is fixed
// once the header has been parsed and never changes afterward.
type byteReader struct {
	r       io.Reader
	idSize  int
	scratch [8]byte
}

func newByteReader(r io.Reader, idSize int) *byteReader {
	return &byteReader{r: r, idSize: idSize}
}

func (r *byteReader) readFull(n int) ([]byte, error) {
	b := r.scratch[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrShortRead
		}
		return nil, err
	}
	return b, nil
}

func (r *byteReader) u1() (byte, error) {
	b, err := r.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) u2() (uint16, error) {
	b, err := r.readFull(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *byteReader) u4() (uint64, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return uint64(binary.BigEndian.Uint32(b)), nil
}

func (r *byteReader) u8() (uint64, error) {
	b, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// id reads one identifier, whose width is fixed by r.idSize (4 or 8).
func (r *byteReader) id() (uint64, error) {
	switch r.idSize {
	case 4:
		return r.u4()
	case 8:
		return r.u8()
	default:
		return 0, ErrUnsupportedIDSize
	}
}

// bytesN reads n bytes and returns a freshly allocated copy (the scratch
// buffer is too small to reuse for anything beyond 8 bytes).
func (r *byteReader) bytesN(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrShortRead
		}
		return nil, err
	}
	return b, nil
}

// skip advances past n bytes by discarding them via io.CopyN; it does
// not seek, even when the underlying reader supports it.
func (r *byteReader) skip(n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, r.r, n)
	if err != nil {
		if copied == n {
			return nil
		}
		return ErrShortRead
	}
	return nil
}

// byteWriter is the emit-side counterpart of byteReader.
type byteWriter struct {
	w       io.Writer
	idSize  int
	scratch [8]byte
}

func newByteWriter(w io.Writer, idSize int) *byteWriter {
	return &byteWriter{w: w, idSize: idSize}
}

func (w *byteWriter) writeFull(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

func (w *byteWriter) u1(v byte) error {
	return w.writeFull([]byte{v})
}

func (w *byteWriter) u2(v uint16) error {
	b := w.scratch[:2]
	binary.BigEndian.PutUint16(b, v)
	return w.writeFull(b)
}

func (w *byteWriter) u4(v uint64) error {
	b := w.scratch[:4]
	binary.BigEndian.PutUint32(b, uint32(v))
	return w.writeFull(b)
}

func (w *byteWriter) u8(v uint64) error {
	b := w.scratch[:8]
	binary.BigEndian.PutUint64(b, v)
	return w.writeFull(b)
}

func (w *byteWriter) id(v uint64) error {
	switch w.idSize {
	case 4:
		return w.u4(v)
	case 8:
		return w.u8(v)
	default:
		return ErrUnsupportedIDSize
	}
}

func (w *byteWriter) raw(b []byte) error {
	return w.writeFull(b)
}

// boundedReader wraps a byteReader and enforces a declared byte length for
// a heap-dump segment: every read subtracts actual bytes consumed from an
// outstanding-byte counter, which is the sole framing authority for the
// length-ambient sub-records inside a HEAP_DUMP / HEAP_DUMP_SEGMENT body.
type boundedReader struct {
	*byteReader
	remaining int64
}

func newBoundedReader(r io.Reader, idSize int, length int64) *boundedReader {
	return &boundedReader{byteReader: newByteReader(r, idSize), remaining: length}
}

func (b *boundedReader) consume(n int64) error {
	if n > b.remaining {
		return ErrSegmentLengthMismatch
	}
	b.remaining -= n
	return nil
}

func (b *boundedReader) u1() (byte, error) {
	if err := b.consume(1); err != nil {
		return 0, err
	}
	return b.byteReader.u1()
}

func (b *boundedReader) u2() (uint16, error) {
	if err := b.consume(2); err != nil {
		return 0, err
	}
	return b.byteReader.u2()
}

func (b *boundedReader) u4() (uint64, error) {
	if err := b.consume(4); err != nil {
		return 0, err
	}
	return b.byteReader.u4()
}

func (b *boundedReader) u8() (uint64, error) {
	if err := b.consume(8); err != nil {
		return 0, err
	}
	return b.byteReader.u8()
}

func (b *boundedReader) id() (uint64, error) {
	if err := b.consume(int64(b.idSize)); err != nil {
		return 0, err
	}
	return b.byteReader.id()
}

func (b *boundedReader) bytesN(n int) ([]byte, error) {
	if err := b.consume(int64(n)); err != nil {
		return nil, err
	}
	return b.byteReader.bytesN(n)
}

func (b *boundedReader) skip(n int64) error {
	if err := b.consume(n); err != nil {
		return err
	}
	return b.byteReader.skip(n)
}

// atEnd reports whether the bounded reader has exactly zero bytes
// remaining, the invariant that must hold after a heap-dump segment's
// sub-record loop completes (spec.md property 5).
func (b *boundedReader) atEnd() bool {
	return b.remaining == 0
}
