// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

// Transformer decides how a filter pass rewrites sensitive data. Every
// method has a default no-op meaning (return the input unchanged), so a
// concrete policy embedding NoopTransformer only needs to override the
// hooks it actually changes. Returning the original value from any hook
// is the formal "no change" signal: the rewriter then emits the original
// bytes verbatim rather than re-encoding, per the no-change byte
// preservation invariant.
type Transformer interface {
	// Generic string hook, used for method names, method signatures, and
	// any symbol with no classified kind.
	TransformUTF8String(s string) string

	TransformClassName(s string) string
	TransformFieldName(s string) string
	TransformSourceFileName(s string) string
	TransformThreadName(s string) string
	TransformThreadGroupName(s string) string
	TransformThreadGroupParentName(s string) string

	TransformBoolean(v bool) bool
	TransformByte(v int8) int8
	TransformShort(v int16) int16
	TransformChar(v uint16) uint16
	TransformInt(v int32) int32
	TransformLong(v int64) int64
	TransformFloat(v float32) float32
	TransformDouble(v float64) float64

	// Bulk hooks let a policy replace a whole primitive array in one
	// call (e.g. a memset-style zero fill) instead of forcing the
	// walker to unroll it. The walker calls only these hooks for array
	// elements. The defaults in NoopTransformer return the slice
	// unchanged; they do not call a scalar hook that an embedding policy
	// overrides.
	TransformBooleanArray(v []bool) []bool
	TransformByteArray(v []int8) []int8
	TransformShortArray(v []int16) []int16
	TransformCharArray(v []uint16) []uint16
	TransformIntArray(v []int32) []int32
	TransformLongArray(v []int64) []int64
	TransformFloatArray(v []float32) []float32
	TransformDoubleArray(v []float64) []float64

	// Name identifies the policy for CLI flags and logging.
	Name() string
}

// transformString routes a decoded symbol to the correct hook by its
// classified kind; this is the single call site record.go uses instead of
// switching on kind itself.
func transformString(t Transformer, kind NameKind, s string) string {
	switch kind {
	case KindClassName:
		return t.TransformClassName(s)
	case KindFieldName:
		return t.TransformFieldName(s)
	case KindSourceFileName:
		return t.TransformSourceFileName(s)
	case KindThreadName:
		return t.TransformThreadName(s)
	case KindThreadGroupName:
		return t.TransformThreadGroupName(s)
	case KindThreadGroupParentName:
		return t.TransformThreadGroupParentName(s)
	default:
		// Method name, method signature, and unclassified symbols all
		// share the generic hook: HPROF does not always allow method
		// names and signatures to be told apart at the point a symbol
		// is transformed.
		return t.TransformUTF8String(s)
	}
}

// NoopTransformer leaves every value unchanged. It is embedded by every
// concrete policy so each overrides only the hooks it cares about; its
// bulk array hooks return their input slice as is.
type NoopTransformer struct{}

func (NoopTransformer) TransformUTF8String(s string) string              { return s }
func (NoopTransformer) TransformClassName(s string) string               { return s }
func (NoopTransformer) TransformFieldName(s string) string               { return s }
func (NoopTransformer) TransformSourceFileName(s string) string          { return s }
func (NoopTransformer) TransformThreadName(s string) string              { return s }
func (NoopTransformer) TransformThreadGroupName(s string) string         { return s }
func (NoopTransformer) TransformThreadGroupParentName(s string) string   { return s }

func (NoopTransformer) TransformBoolean(v bool) bool       { return v }
func (NoopTransformer) TransformByte(v int8) int8          { return v }
func (NoopTransformer) TransformShort(v int16) int16       { return v }
func (NoopTransformer) TransformChar(v uint16) uint16      { return v }
func (NoopTransformer) TransformInt(v int32) int32         { return v }
func (NoopTransformer) TransformLong(v int64) int64        { return v }
func (NoopTransformer) TransformFloat(v float32) float32   { return v }
func (NoopTransformer) TransformDouble(v float64) float64  { return v }

func (NoopTransformer) TransformBooleanArray(v []bool) []bool { return v }
func (NoopTransformer) TransformByteArray(v []int8) []int8    { return v }
func (NoopTransformer) TransformShortArray(v []int16) []int16 { return v }
func (NoopTransformer) TransformCharArray(v []uint16) []uint16 { return v }
func (NoopTransformer) TransformIntArray(v []int32) []int32   { return v }
func (NoopTransformer) TransformLongArray(v []int64) []int64  { return v }
func (NoopTransformer) TransformFloatArray(v []float32) []float32 { return v }
func (NoopTransformer) TransformDoubleArray(v []float64) []float64 { return v }

func (NoopTransformer) Name() string { return "noop" }
