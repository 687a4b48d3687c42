// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"encoding/binary"
	"io"
	"math"
)

// walkRecords loops over top-level records from r until a clean
// end-of-stream, dispatching each to its handler. w is nil during the
// pass-1 scan: handlers still parse enough of the body to populate the
// class-metadata and name-kind tables, but emit nothing. startOffset is
// the byte position r begins at, used only to annotate fatal errors.
func (d *driver) walkRecords(r io.Reader, w io.Writer, startOffset int64) error {
	br := newByteReader(r, d.idSize)
	var bw *byteWriter
	if w != nil {
		bw = newByteWriter(w, d.idSize)
	}
	pos := startOffset

	for {
		tagBuf := br.scratch[:1]
		n, err := io.ReadFull(br.r, tagBuf)
		if err == io.EOF && n == 0 {
			return nil
		}
		if err != nil {
			return wrapAt(pos, ErrShortRead)
		}
		tag := tagBuf[0]
		pos++

		timeVal, err := br.u4()
		if err != nil {
			return wrapAt(pos, err)
		}
		pos += 4
		length64, err := br.u4()
		if err != nil {
			return wrapAt(pos, err)
		}
		pos += 4
		length := uint32(length64)

		recordStart := pos
		switch tag {
		case TagUTF8:
			if err := d.handleUTF8(br, bw, timeVal, length); err != nil {
				return wrapAt(recordStart, err)
			}
		case TagLoadClass:
			if err := d.handleLoadClass(br, bw, timeVal, length); err != nil {
				return wrapAt(recordStart, err)
			}
		case TagFrame:
			if err := d.handleFrame(br, bw, timeVal, length); err != nil {
				return wrapAt(recordStart, err)
			}
		case TagStartThread:
			if err := d.handleStartThread(br, bw, timeVal, length); err != nil {
				return wrapAt(recordStart, err)
			}
		case TagHeapDump, TagHeapDumpSegment:
			if bw != nil {
				if err := bw.u1(tag); err != nil {
					return err
				}
				if err := bw.u4(timeVal); err != nil {
					return err
				}
				if err := bw.u4(uint64(length)); err != nil {
					return err
				}
			}
			if err := d.walkHeapDump(br, bw, int64(length)); err != nil {
				return wrapAt(recordStart, err)
			}
		default:
			if err := d.copyVerbatim(br, bw, tag, timeVal, length); err != nil {
				return wrapAt(recordStart, err)
			}
		}
		pos += int64(length)
		if d.progress != nil && w != nil {
			d.progress.Advance(9 + int64(length))
		}
	}
}

// copyVerbatim emits the header unchanged (when bw is non-nil) and reads
// (and, in pass 2, writes) the length-bounded body without interpreting
// it. Used for every record tag the specification treats as opaque.
func (d *driver) copyVerbatim(br *byteReader, bw *byteWriter, tag byte, timeVal uint64, length uint32) error {
	if bw != nil {
		if err := bw.u1(tag); err != nil {
			return err
		}
		if err := bw.u4(timeVal); err != nil {
			return err
		}
		if err := bw.u4(uint64(length)); err != nil {
			return err
		}
	}
	return copyN(br, bw, int64(length))
}

// copyN streams exactly n bytes from br to bw (when bw is non-nil), in
// chunks of at most len(br.scratch) bytes, each read through bytesN.
func copyN(br *byteReader, bw *byteWriter, n int64) error {
	for n > 0 {
		chunk := n
		if chunk > int64(len(br.scratch)) {
			chunk = int64(len(br.scratch))
		}
		b, err := br.bytesN(int(chunk))
		if err != nil {
			return err
		}
		if bw != nil {
			if err := bw.raw(b); err != nil {
				return err
			}
		}
		n -= chunk
	}
	return nil
}

// handleUTF8 decodes a UTF8 record's body (id + MUTF-8 bytes), routes the
// symbol through the transformer by its classified kind, and re-encodes
// it with a recomputed length. A decode failure, or a transformer that
// returns the symbol unchanged, causes the original bytes to be emitted
// verbatim (spec.md properties 1 and 6). Pass 1 only validates the
// minimum body length; it has no writer and nothing to classify here,
// since name-kinds are attributed by the records that reference an id,
// not by the UTF8 record itself.
func (d *driver) handleUTF8(br *byteReader, bw *byteWriter, timeVal uint64, length uint32) error {
	body, err := br.bytesN(int(length))
	if err != nil {
		return err
	}
	if len(body) < d.idSize {
		return ErrUTF8LengthTooSmall
	}
	if bw == nil {
		return nil
	}

	id := decodeID(body[:d.idSize], d.idSize)
	original := body[d.idSize:]

	emitLen := uint32(length)
	emitBody := body
	if s, derr := decodeMUTF8(original); derr == nil {
		kind := d.kinds.kindOf(id)
		out := transformString(d.transformer, kind, s)
		if out != s {
			d.noteChange(kind, id, s, out)
			encoded := encodeMUTF8(out)
			newLen := uint64(d.idSize) + uint64(len(encoded))
			if newLen > math.MaxUint32 {
				return ErrUTF8LengthOverflow
			}
			emitLen = uint32(newLen)
			emitBody = make([]byte, 0, newLen)
			emitBody = append(emitBody, body[:d.idSize]...)
			emitBody = append(emitBody, encoded...)
		}
	}

	if err := bw.u1(TagUTF8); err != nil {
		return err
	}
	if err := bw.u4(timeVal); err != nil {
		return err
	}
	if err := bw.u4(uint64(emitLen)); err != nil {
		return err
	}
	return bw.raw(emitBody)
}

func decodeID(b []byte, idSize int) uint64 {
	if idSize == 4 {
		return uint64(binary.BigEndian.Uint32(b))
	}
	return binary.BigEndian.Uint64(b)
}

// handleLoadClass validates the fixed body shape (serial, classObjectId,
// stackTraceSerial, classNameId), classifies classNameId as a class name
// during pass 1, and otherwise copies the record unchanged: LOAD_CLASS
// carries no redactable payload of its own.
func (d *driver) handleLoadClass(br *byteReader, bw *byteWriter, timeVal uint64, length uint32) error {
	want := uint32(4 + d.idSize + 4 + d.idSize)
	if length != want {
		return ErrRecordLengthMismatch
	}
	body, err := br.bytesN(int(length))
	if err != nil {
		return err
	}
	classNameID := decodeID(body[4+d.idSize+4:4+d.idSize+4+d.idSize], d.idSize)
	if bw == nil {
		d.kinds.classify(classNameID, KindClassName)
		return nil
	}
	return d.emitFixedRecord(bw, TagLoadClass, timeVal, length, body)
}

// handleFrame validates the fixed body shape (stackFrameId, methodNameId,
// methodSignatureId, sourceFileNameId, classSerial, lineNumber) and
// classifies its three symbol references during pass 1.
func (d *driver) handleFrame(br *byteReader, bw *byteWriter, timeVal uint64, length uint32) error {
	want := uint32(4*d.idSize + 8)
	if length != want {
		return ErrRecordLengthMismatch
	}
	body, err := br.bytesN(int(length))
	if err != nil {
		return err
	}
	methodNameID := decodeID(body[d.idSize:2*d.idSize], d.idSize)
	methodSigID := decodeID(body[2*d.idSize:3*d.idSize], d.idSize)
	sourceFileID := decodeID(body[3*d.idSize:4*d.idSize], d.idSize)
	if bw == nil {
		d.kinds.classify(methodNameID, KindMethodName)
		d.kinds.classify(methodSigID, KindMethodSignature)
		d.kinds.classify(sourceFileID, KindSourceFileName)
		return nil
	}
	return d.emitFixedRecord(bw, TagFrame, timeVal, length, body)
}

// handleStartThread validates the fixed body shape (threadSerial,
// threadObjectId, stackTraceSerial, threadNameId, threadGroupNameId,
// threadGroupParentNameId) and classifies the three name references.
func (d *driver) handleStartThread(br *byteReader, bw *byteWriter, timeVal uint64, length uint32) error {
	want := uint32(8 + 4*d.idSize)
	if length != want {
		return ErrRecordLengthMismatch
	}
	body, err := br.bytesN(int(length))
	if err != nil {
		return err
	}
	base := 4 + d.idSize + 4
	threadNameID := decodeID(body[base:base+d.idSize], d.idSize)
	threadGroupID := decodeID(body[base+d.idSize:base+2*d.idSize], d.idSize)
	threadGroupParentID := decodeID(body[base+2*d.idSize:base+3*d.idSize], d.idSize)
	if bw == nil {
		d.kinds.classify(threadNameID, KindThreadName)
		d.kinds.classify(threadGroupID, KindThreadGroupName)
		d.kinds.classify(threadGroupParentID, KindThreadGroupParentName)
		return nil
	}
	return d.emitFixedRecord(bw, TagStartThread, timeVal, length, body)
}

func (d *driver) emitFixedRecord(bw *byteWriter, tag byte, timeVal uint64, length uint32, body []byte) error {
	if err := bw.u1(tag); err != nil {
		return err
	}
	if err := bw.u4(timeVal); err != nil {
		return err
	}
	if err := bw.u4(uint64(length)); err != nil {
		return err
	}
	return bw.raw(body)
}
