// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"errors"
	"fmt"
)

// Sentinel errors, grouped by the taxonomy in the redaction specification:
// I/O, Format, Type, and Encoding.
var (
	// ErrUnsupportedIDSize is returned when the header declares an
	// identifier width other than 4 or 8 bytes.
	ErrUnsupportedIDSize = errors.New("hprofredact: unsupported identifier size")

	// ErrShortRead is returned when the underlying source ends before a
	// declared length is satisfied.
	ErrShortRead = errors.New("hprofredact: premature end of stream")

	// ErrBadMagic is returned when the header does not begin with the
	// expected "JAVA PROFILE 1.0.2" magic string.
	ErrBadMagic = errors.New("hprofredact: bad header magic")

	// ErrRecordLengthMismatch is returned when a fixed-shape record's
	// declared length is inconsistent with the current identifier size.
	ErrRecordLengthMismatch = errors.New("hprofredact: record length inconsistent with id size")

	// ErrSegmentLengthMismatch is returned when a sub-record inside a
	// heap dump segment would read past the segment's declared length.
	ErrSegmentLengthMismatch = errors.New("hprofredact: heap dump segment length mismatch")

	// ErrUnsupportedSubrecordTag is returned for an unrecognized heap dump
	// sub-record tag.
	ErrUnsupportedSubrecordTag = errors.New("hprofredact: unsupported heap dump subrecord tag")

	// ErrUnsupportedRecordTag is returned only by strict callers that
	// chose to reject unknown top-level tags; the default dispatcher
	// copies unknown tags verbatim per the specification and never
	// returns this.
	ErrUnsupportedRecordTag = errors.New("hprofredact: unsupported record tag")

	// ErrInstanceLayoutMismatch is returned when an instance dump's
	// declared data length disagrees with its resolved flattened layout.
	ErrInstanceLayoutMismatch = errors.New("hprofredact: instance data length inconsistent with flattened layout")

	// ErrUnsupportedPrimitiveType is returned for an unknown basic type tag
	// inside a class dump, static field, or primitive array.
	ErrUnsupportedPrimitiveType = errors.New("hprofredact: unsupported primitive type code")

	// ErrUTF8LengthTooSmall is returned when a UTF8 record's body is
	// shorter than one identifier.
	ErrUTF8LengthTooSmall = errors.New("hprofredact: utf8 record body shorter than identifier size")

	// ErrUTF8LengthOverflow is returned when a transformed symbol no
	// longer fits the 32-bit record length field.
	ErrUTF8LengthOverflow = errors.New("hprofredact: transformed utf8 body exceeds maximum record length")

	// ErrInvalidMUTF8 is returned by the codec for a malformed byte
	// sequence; callers inside the record dispatcher recover from this by
	// copying the record's bytes verbatim (see mutf8.go and record.go).
	ErrInvalidMUTF8 = errors.New("hprofredact: invalid modified utf-8 sequence")

	// ErrNotReopenable is returned when the configured input cannot be
	// opened a second time (e.g. stdin), which the two-pass driver requires.
	ErrNotReopenable = errors.New("hprofredact: input source is not re-openable")

	// ErrUnknownTransformer is returned by ResolveTransformer for a name
	// outside {"zero", "zero-strings", "drop-strings"} and the no-op
	// names {"", "noop", "none"}.
	ErrUnknownTransformer = errors.New("hprofredact: unknown transformer name")
)

// FormatError decorates a sentinel error with the byte offset at which the
// record or sub-record began, so a fatal parse failure can be reported with
// enough context to find the offending bytes in a hex dump.
type FormatError struct {
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("hprofredact: at offset %#x: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// wrapAt returns err decorated with offset, or nil if err is nil.
func wrapAt(offset int64, err error) error {
	if err == nil {
		return nil
	}
	return &FormatError{Offset: offset, Err: err}
}
