// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

const hprofMagic = "JAVA PROFILE 1.0.2"

// Source supplies a fresh, independently-seeked reader for one pass over
// an HPROF stream. Filter calls Open exactly twice: once for the
// metadata scan, once for the rewrite. A Source backed by a one-shot
// pipe (e.g. stdin) cannot satisfy this and should fail its second Open
// with ErrNotReopenable.
type Source interface {
	Open() (io.ReadCloser, error)
}

// ChangeSink receives one notification per symbol the transformer
// actually changed, for the configuration surface's optional verbose
// side-channel.
type ChangeSink interface {
	NoteChange(kind NameKind, symbolID uint64, before, after string)
}

// ProgressSink receives a running count of input bytes consumed during
// pass 2, for a caller driving a progress display.
type ProgressSink interface {
	Advance(n int64)
}

// Stats summarizes one completed filter operation.
type Stats struct {
	IDSize            int
	BytesIn           int64
	BytesOut          int64
	ClassesSeen       int
	SymbolsClassified int
	StringsChanged    int
	Duration          time.Duration
}

// Options configures a Driver. Every field is optional; a nil
// Transformer is treated as NoopTransformer.
type Options struct {
	Transformer  Transformer
	Verbose      bool
	ChangeSink   ChangeSink
	ProgressSink ProgressSink
	// DryRun runs both passes and returns Stats without writing any
	// output bytes; it is used to validate a dump without committing to
	// an output path.
	DryRun bool
}

// Driver runs the two-pass filter operation: pass 1 scans an HPROF stream to populate class metadata
// and name-kind tables, pass 2 re-opens the same stream and rewrites it
// through the configured Transformer.
type Driver struct {
	opts Options
}

// NewDriver returns a Driver that will filter through t according to
// opts. opts.Transformer is overwritten with t.
func NewDriver(t Transformer, opts Options) *Driver {
	opts.Transformer = t
	return &Driver{opts: opts}
}

// driver is the mutable, single-use state shared by record.go and
// heapdump.go for one Filter call.
type driver struct {
	idSize      int
	classes     *ClassStore
	kinds       *nameKindTable
	transformer Transformer
	changeSink  ChangeSink
	progress    ProgressSink
	stats       *Stats
}

func (d *driver) noteChange(kind NameKind, symbolID uint64, before, after string) {
	d.stats.StringsChanged++
	if d.changeSink != nil {
		d.changeSink.NoteChange(kind, symbolID, before, after)
	}
}

// Filter runs both passes of src through drv's transformer and writes
// the rewritten stream to w, unless opts.DryRun is set, in which case w
// is ignored and pass 2 writes to io.Discard.
func (drv *Driver) Filter(src Source, w io.Writer) (Stats, error) {
	if drv.opts.Transformer == nil {
		drv.opts.Transformer = NoopTransformer{}
	}

	d := &driver{
		classes:     NewClassStore(),
		kinds:       newNameKindTable(),
		transformer: drv.opts.Transformer,
		changeSink:  drv.opts.ChangeSink,
		progress:    drv.opts.ProgressSink,
		stats:       &Stats{},
	}
	start := time.Now()

	scanReader, err := src.Open()
	if err != nil {
		return *d.stats, err
	}
	idSize, _, scanStart, err := readHeader(scanReader)
	if err != nil {
		scanReader.Close()
		return *d.stats, err
	}
	d.idSize = idSize
	d.stats.IDSize = idSize
	scanErr := d.walkRecords(scanReader, nil, scanStart)
	if cerr := scanReader.Close(); scanErr == nil {
		scanErr = cerr
	}
	if scanErr != nil {
		return *d.stats, scanErr
	}
	d.stats.ClassesSeen = len(d.classes.classes)
	d.stats.SymbolsClassified = len(d.kinds.kinds)

	rewriteReader, err := src.Open()
	if err != nil {
		return *d.stats, err
	}
	defer rewriteReader.Close()

	out := w
	if drv.opts.DryRun {
		out = io.Discard
	}
	countingOut := &countingWriter{w: out}
	countingIn := &countingReader{r: rewriteReader}

	rewriteIDSize, timestamp, rewriteStart, err := readHeader(countingIn)
	if err != nil {
		return *d.stats, err
	}
	if rewriteIDSize != idSize {
		return *d.stats, ErrUnsupportedIDSize
	}
	if err := writeHeader(countingOut, idSize, timestamp); err != nil {
		return *d.stats, err
	}

	if err := d.walkRecords(countingIn, countingOut, rewriteStart); err != nil {
		return *d.stats, err
	}

	d.stats.BytesIn = countingIn.n
	d.stats.BytesOut = countingOut.n
	d.stats.Duration = time.Since(start)
	return *d.stats, nil
}

// Filter is the package-level convenience entry point equivalent to
// NewDriver(t, Options{}).Filter(src, w); see Driver.Filter.
func Filter(src Source, w io.Writer, t Transformer) (Stats, error) {
	return NewDriver(t, Options{}).Filter(src, w)
}

// readHeader reads and validates the fixed HPROF preamble, returning the
// identifier size, the raw timestamp, and the byte offset immediately
// following the header (the first record's starting position).
func readHeader(r io.Reader) (idSize int, timestamp uint64, offset int64, err error) {
	magicBuf := make([]byte, len(hprofMagic)+1)
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return 0, 0, 0, wrapAt(0, ErrShortRead)
	}
	if !bytes.Equal(magicBuf[:len(hprofMagic)], []byte(hprofMagic)) || magicBuf[len(hprofMagic)] != 0 {
		return 0, 0, 0, wrapAt(0, ErrBadMagic)
	}
	offset = int64(len(magicBuf))

	var idBuf [4]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return 0, 0, 0, wrapAt(offset, ErrShortRead)
	}
	idSize = int(binary.BigEndian.Uint32(idBuf[:]))
	if idSize != 4 && idSize != 8 {
		return 0, 0, 0, wrapAt(offset, ErrUnsupportedIDSize)
	}
	offset += 4

	var tsBuf [8]byte
	if _, err := io.ReadFull(r, tsBuf[:]); err != nil {
		return 0, 0, 0, wrapAt(offset, ErrShortRead)
	}
	timestamp = binary.BigEndian.Uint64(tsBuf[:])
	offset += 8

	return idSize, timestamp, offset, nil
}

func writeHeader(w io.Writer, idSize int, timestamp uint64) error {
	buf := make([]byte, 0, len(hprofMagic)+1+4+8)
	buf = append(buf, []byte(hprofMagic)...)
	buf = append(buf, 0)
	var idBuf [4]byte
	binary.BigEndian.PutUint32(idBuf[:], uint32(idSize))
	buf = append(buf, idBuf[:]...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], timestamp)
	buf = append(buf, tsBuf[:]...)
	_, err := w.Write(buf)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
