// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

// PrimitiveType is the one-byte HPROF basic type tag used throughout class
// dumps, instance dumps, static fields, constant pool entries, and
// primitive array dumps.
type PrimitiveType byte

// Basic type tags, per the HPROF binary format.
const (
	TypeArrayObject PrimitiveType = 0x01
	TypeObject      PrimitiveType = 0x02
	TypeBoolean     PrimitiveType = 0x04
	TypeChar        PrimitiveType = 0x05
	TypeFloat       PrimitiveType = 0x06
	TypeDouble      PrimitiveType = 0x07
	TypeByte        PrimitiveType = 0x08
	TypeShort       PrimitiveType = 0x09
	TypeInt         PrimitiveType = 0x0A
	TypeLong        PrimitiveType = 0x0B
)

// Width returns the on-wire byte width of t given the stream's identifier
// size (4 or 8). It returns ErrUnsupportedPrimitiveType for unknown tags.
func (t PrimitiveType) Width(idSize int) (int, error) {
	switch t {
	case TypeObject, TypeArrayObject:
		return idSize, nil
	case TypeBoolean, TypeByte:
		return 1, nil
	case TypeChar, TypeShort:
		return 2, nil
	case TypeFloat, TypeInt:
		return 4, nil
	case TypeDouble, TypeLong:
		return 8, nil
	default:
		return 0, ErrUnsupportedPrimitiveType
	}
}

// String names the primitive type for diagnostics.
func (t PrimitiveType) String() string {
	switch t {
	case TypeArrayObject:
		return "array-object"
	case TypeObject:
		return "object"
	case TypeBoolean:
		return "boolean"
	case TypeChar:
		return "char"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a recognized basic type tag.
func (t PrimitiveType) Valid() bool {
	switch t {
	case TypeArrayObject, TypeObject, TypeBoolean, TypeChar, TypeFloat,
		TypeDouble, TypeByte, TypeShort, TypeInt, TypeLong:
		return true
	default:
		return false
	}
}

// Top-level record tags (spec.md §6.1).
const (
	TagUTF8              byte = 0x01
	TagLoadClass         byte = 0x02
	TagUnloadClass       byte = 0x03
	TagFrame             byte = 0x04
	TagTrace             byte = 0x05
	TagAllocSites        byte = 0x06
	TagHeapSummary       byte = 0x07
	TagStartThread       byte = 0x0A
	TagEndThread         byte = 0x0B
	TagHeapDump          byte = 0x0C
	TagCPUSamples        byte = 0x0D
	TagControlSettings   byte = 0x0E
	TagHeapDumpSegment   byte = 0x1C
	TagHeapDumpEnd       byte = 0x2C
)

// Heap dump sub-record tags (spec.md §4.7).
const (
	SubTagRootUnknown       byte = 0xFF
	SubTagRootJNIGlobal     byte = 0x01
	SubTagRootJNILocal      byte = 0x02
	SubTagRootJavaFrame     byte = 0x03
	SubTagRootNativeStack   byte = 0x04
	SubTagRootStickyClass   byte = 0x05
	SubTagRootThreadBlock   byte = 0x06
	SubTagRootMonitorUsed   byte = 0x07
	SubTagRootThreadObject  byte = 0x08
	SubTagClassDump         byte = 0x20
	SubTagInstanceDump      byte = 0x21
	SubTagObjectArrayDump   byte = 0x22
	SubTagPrimitiveArrayDump byte = 0x23
)

// NameKind is the semantic role under which a UTF-8 symbol was first
// referenced, used to route it to the correct transformer hook.
type NameKind int

const (
	// KindUnknown symbols are routed through the generic string hook.
	KindUnknown NameKind = iota
	KindClassName
	KindFieldName
	KindMethodName
	KindMethodSignature
	KindSourceFileName
	KindThreadName
	KindThreadGroupName
	KindThreadGroupParentName
)

func (k NameKind) String() string {
	switch k {
	case KindClassName:
		return "class-name"
	case KindFieldName:
		return "field-name"
	case KindMethodName:
		return "method-name"
	case KindMethodSignature:
		return "method-signature"
	case KindSourceFileName:
		return "source-file-name"
	case KindThreadName:
		return "thread-name"
	case KindThreadGroupName:
		return "thread-group-name"
	case KindThreadGroupParentName:
		return "thread-group-parent-name"
	default:
		return "unknown"
	}
}
