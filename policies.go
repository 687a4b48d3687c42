// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import "strings"

// zeroLengthPreserving returns a run of '0' whose MUTF-8 byte length
// equals that of s. For an ASCII input this is also the same rune count;
// a non-ASCII input gets one '0' per encoded byte.
func zeroLengthPreserving(s string) string {
	return strings.Repeat("0", len(encodeMUTF8(s)))
}

// ZeroTransformer replaces every string with a run of '0' of the same
// MUTF-8 byte length and every scalar/array element with the zero value
// of its type.
type ZeroTransformer struct{ NoopTransformer }

func (ZeroTransformer) Name() string { return "zero" }

func (ZeroTransformer) TransformUTF8String(s string) string            { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformClassName(s string) string             { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformFieldName(s string) string             { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformSourceFileName(s string) string        { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformThreadName(s string) string            { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformThreadGroupName(s string) string       { return zeroLengthPreserving(s) }
func (ZeroTransformer) TransformThreadGroupParentName(s string) string { return zeroLengthPreserving(s) }

func (ZeroTransformer) TransformBoolean(bool) bool      { return false }
func (ZeroTransformer) TransformByte(int8) int8         { return 0 }
func (ZeroTransformer) TransformShort(int16) int16      { return 0 }
func (ZeroTransformer) TransformChar(uint16) uint16     { return 0 }
func (ZeroTransformer) TransformInt(int32) int32        { return 0 }
func (ZeroTransformer) TransformLong(int64) int64       { return 0 }
func (ZeroTransformer) TransformFloat(float32) float32  { return 0 }
func (ZeroTransformer) TransformDouble(float64) float64 { return 0 }

func (t ZeroTransformer) TransformBooleanArray(v []bool) []bool {
	out := make([]bool, len(v))
	return out
}
func (t ZeroTransformer) TransformByteArray(v []int8) []int8 {
	return make([]int8, len(v))
}
func (t ZeroTransformer) TransformShortArray(v []int16) []int16 {
	return make([]int16, len(v))
}
func (t ZeroTransformer) TransformCharArray(v []uint16) []uint16 {
	return make([]uint16, len(v))
}
func (t ZeroTransformer) TransformIntArray(v []int32) []int32 {
	return make([]int32, len(v))
}
func (t ZeroTransformer) TransformLongArray(v []int64) []int64 {
	return make([]int64, len(v))
}
func (t ZeroTransformer) TransformFloatArray(v []float32) []float32 {
	return make([]float32, len(v))
}
func (t ZeroTransformer) TransformDoubleArray(v []float64) []float64 {
	return make([]float64, len(v))
}

// ZeroStringsLengthPreservingTransformer replaces string payloads with a
// run of '0' of the same MUTF-8 byte length, leaving every scalar and
// array untouched.
type ZeroStringsLengthPreservingTransformer struct{ NoopTransformer }

func (ZeroStringsLengthPreservingTransformer) Name() string { return "zero-strings" }

func (ZeroStringsLengthPreservingTransformer) TransformUTF8String(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformClassName(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformFieldName(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformSourceFileName(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformThreadName(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformThreadGroupName(s string) string {
	return zeroLengthPreserving(s)
}
func (ZeroStringsLengthPreservingTransformer) TransformThreadGroupParentName(s string) string {
	return zeroLengthPreserving(s)
}

// DropStringsTransformer replaces every string payload with the empty
// string, leaving every scalar and array untouched. This shrinks UTF8
// records and therefore shifts byte offsets downstream; accepted by
// design for this policy only.
type DropStringsTransformer struct{ NoopTransformer }

func (DropStringsTransformer) Name() string { return "drop-strings" }

func (DropStringsTransformer) TransformUTF8String(string) string            { return "" }
func (DropStringsTransformer) TransformClassName(string) string             { return "" }
func (DropStringsTransformer) TransformFieldName(string) string             { return "" }
func (DropStringsTransformer) TransformSourceFileName(string) string        { return "" }
func (DropStringsTransformer) TransformThreadName(string) string            { return "" }
func (DropStringsTransformer) TransformThreadGroupName(string) string       { return "" }
func (DropStringsTransformer) TransformThreadGroupParentName(string) string { return "" }

// ResolveTransformer maps a CLI-facing name to a Transformer instance.
// Matching is case-insensitive and treats '_' and '-' as interchangeable,
// so "zero_strings", "Zero-Strings" and "zero-strings" all resolve to the
// same policy.
func ResolveTransformer(name string) (Transformer, error) {
	normalized := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	switch normalized {
	case "", "noop", "none":
		return NoopTransformer{}, nil
	case "zero":
		return ZeroTransformer{}, nil
	case "zero-strings":
		return ZeroStringsLengthPreservingTransformer{}, nil
	case "drop-strings":
		return DropStringsTransformer{}, nil
	default:
		return nil, ErrUnknownTransformer
	}
}
