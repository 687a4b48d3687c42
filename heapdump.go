// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"encoding/binary"
	"math"
)

// walkHeapDump processes the sub-records of one HEAP_DUMP or
// HEAP_DUMP_SEGMENT body, bounded by the record's declared length. The
// outer record header has already been emitted by the caller.
func (d *driver) walkHeapDump(br *byteReader, bw *byteWriter, length int64) error {
	bbr := newBoundedReader(br.r, d.idSize, length)

	for !bbr.atEnd() {
		subTag, err := bbr.u1()
		if err != nil {
			return err
		}
		if bw != nil {
			if err := bw.u1(subTag); err != nil {
				return err
			}
		}

		switch subTag {
		case SubTagRootUnknown, SubTagRootStickyClass, SubTagRootMonitorUsed:
			if err := copySub(bbr, bw, d.idSize); err != nil {
				return err
			}
		case SubTagRootJNIGlobal:
			if err := copySub(bbr, bw, 2*d.idSize); err != nil {
				return err
			}
		case SubTagRootJNILocal, SubTagRootJavaFrame, SubTagRootThreadObject:
			if err := copySub(bbr, bw, d.idSize+4+4); err != nil {
				return err
			}
		case SubTagRootNativeStack, SubTagRootThreadBlock:
			if err := copySub(bbr, bw, d.idSize+4); err != nil {
				return err
			}
		case SubTagClassDump:
			if err := d.handleClassDump(bbr, bw); err != nil {
				return err
			}
		case SubTagInstanceDump:
			if err := d.handleInstanceDump(bbr, bw); err != nil {
				return err
			}
		case SubTagObjectArrayDump:
			if err := d.handleObjectArrayDump(bbr, bw); err != nil {
				return err
			}
		case SubTagPrimitiveArrayDump:
			if err := d.handlePrimitiveArrayDump(bbr, bw); err != nil {
				return err
			}
		default:
			return ErrUnsupportedSubrecordTag
		}
	}
	return nil
}

// copySub reads n fixed bytes of a root sub-record and, in pass 2,
// writes them back unchanged; roots carry no redactable payload.
func copySub(bbr *boundedReader, bw *byteWriter, n int) error {
	b, err := bbr.bytesN(n)
	if err != nil {
		return err
	}
	if bw != nil {
		return bw.raw(b)
	}
	return nil
}

// handleClassDump reads a GC_CLASS_DUMP sub-record, transforms its
// constant-pool and static-field values, records the class's instance
// field layout in the metadata store (pass 1 only), and classifies every
// referenced field name id.
func (d *driver) handleClassDump(bbr *boundedReader, bw *byteWriter) error {
	classID, err := bbr.id()
	if err != nil {
		return err
	}
	stackSerial, err := bbr.u4()
	if err != nil {
		return err
	}
	superID, err := bbr.id()
	if err != nil {
		return err
	}
	classLoaderID, err := bbr.id()
	if err != nil {
		return err
	}
	signersID, err := bbr.id()
	if err != nil {
		return err
	}
	protectionDomainID, err := bbr.id()
	if err != nil {
		return err
	}
	reserved1, err := bbr.id()
	if err != nil {
		return err
	}
	reserved2, err := bbr.id()
	if err != nil {
		return err
	}
	instanceSize, err := bbr.u4()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.id(classID); err != nil {
			return err
		}
		if err := bw.u4(stackSerial); err != nil {
			return err
		}
		if err := bw.id(superID); err != nil {
			return err
		}
		if err := bw.id(classLoaderID); err != nil {
			return err
		}
		if err := bw.id(signersID); err != nil {
			return err
		}
		if err := bw.id(protectionDomainID); err != nil {
			return err
		}
		if err := bw.id(reserved1); err != nil {
			return err
		}
		if err := bw.id(reserved2); err != nil {
			return err
		}
		if err := bw.u4(instanceSize); err != nil {
			return err
		}
	}

	cpCount, err := bbr.u2()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.u2(cpCount); err != nil {
			return err
		}
	}
	for i := 0; i < int(cpCount); i++ {
		index, err := bbr.u2()
		if err != nil {
			return err
		}
		typ, err := bbr.u1()
		if err != nil {
			return err
		}
		t := PrimitiveType(typ)
		if !t.Valid() {
			return ErrUnsupportedPrimitiveType
		}
		width, err := t.Width(d.idSize)
		if err != nil {
			return err
		}
		raw, err := bbr.bytesN(width)
		if err != nil {
			return err
		}
		if bw != nil {
			if err := bw.u2(index); err != nil {
				return err
			}
			if err := bw.u1(typ); err != nil {
				return err
			}
			out, err := d.transformScalarRaw(t, raw)
			if err != nil {
				return err
			}
			if err := bw.raw(out); err != nil {
				return err
			}
		}
	}

	staticCount, err := bbr.u2()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.u2(staticCount); err != nil {
			return err
		}
	}
	for i := 0; i < int(staticCount); i++ {
		nameID, err := bbr.id()
		if err != nil {
			return err
		}
		typ, err := bbr.u1()
		if err != nil {
			return err
		}
		t := PrimitiveType(typ)
		if !t.Valid() {
			return ErrUnsupportedPrimitiveType
		}
		width, err := t.Width(d.idSize)
		if err != nil {
			return err
		}
		raw, err := bbr.bytesN(width)
		if err != nil {
			return err
		}
		if bw == nil {
			d.kinds.classify(nameID, KindFieldName)
			continue
		}
		if err := bw.id(nameID); err != nil {
			return err
		}
		if err := bw.u1(typ); err != nil {
			return err
		}
		out, err := d.transformScalarRaw(t, raw)
		if err != nil {
			return err
		}
		if err := bw.raw(out); err != nil {
			return err
		}
	}

	instCount, err := bbr.u2()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.u2(instCount); err != nil {
			return err
		}
	}
	fields := make([]FieldDef, 0, instCount)
	for i := 0; i < int(instCount); i++ {
		nameID, err := bbr.id()
		if err != nil {
			return err
		}
		typ, err := bbr.u1()
		if err != nil {
			return err
		}
		t := PrimitiveType(typ)
		if !t.Valid() {
			return ErrUnsupportedPrimitiveType
		}
		fields = append(fields, FieldDef{NameID: nameID, Type: t})
		if bw == nil {
			d.kinds.classify(nameID, KindFieldName)
			continue
		}
		if err := bw.id(nameID); err != nil {
			return err
		}
		if err := bw.u1(typ); err != nil {
			return err
		}
	}

	// Class metadata is built during the scan pass only; by the time
	// pass 2 runs, every class the stream will ever reference is
	// already recorded, so re-applying Update here would only redo
	// work and needlessly invalidate the flatten memoization pass 2
	// itself has started relying on.
	if bw == nil {
		d.classes.Update(classID, superID, fields)
	}
	return nil
}

// handleInstanceDump reads a GC_INSTANCE_DUMP sub-record. If the class's
// flattened field layout is resolvable, the declared data length is
// checked against it and each field value is transformed in place;
// otherwise the instance body is copied verbatim.
func (d *driver) handleInstanceDump(bbr *boundedReader, bw *byteWriter) error {
	objectID, err := bbr.id()
	if err != nil {
		return err
	}
	stackSerial, err := bbr.u4()
	if err != nil {
		return err
	}
	classID, err := bbr.id()
	if err != nil {
		return err
	}
	dataLength, err := bbr.u4()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.id(objectID); err != nil {
			return err
		}
		if err := bw.u4(stackSerial); err != nil {
			return err
		}
		if err := bw.id(classID); err != nil {
			return err
		}
		if err := bw.u4(dataLength); err != nil {
			return err
		}
	}

	types, resolved := d.classes.Flatten(classID)
	if !resolved {
		raw, err := bbr.bytesN(int(dataLength))
		if err != nil {
			return err
		}
		if bw != nil {
			return bw.raw(raw)
		}
		return nil
	}

	expected, err := FieldWidths(types, d.idSize)
	if err != nil {
		return err
	}
	if expected != int(dataLength) {
		return ErrInstanceLayoutMismatch
	}

	for _, t := range types {
		width, err := t.Width(d.idSize)
		if err != nil {
			return err
		}
		raw, err := bbr.bytesN(width)
		if err != nil {
			return err
		}
		if bw == nil {
			continue
		}
		out, err := d.transformScalarRaw(t, raw)
		if err != nil {
			return err
		}
		if err := bw.raw(out); err != nil {
			return err
		}
	}
	return nil
}

// handleObjectArrayDump copies a GC_OBJ_ARRAY_DUMP sub-record's element
// identifiers unchanged: object identity is never redacted.
func (d *driver) handleObjectArrayDump(bbr *boundedReader, bw *byteWriter) error {
	arrayID, err := bbr.id()
	if err != nil {
		return err
	}
	stackSerial, err := bbr.u4()
	if err != nil {
		return err
	}
	numElements, err := bbr.u4()
	if err != nil {
		return err
	}
	arrayClassID, err := bbr.id()
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.id(arrayID); err != nil {
			return err
		}
		if err := bw.u4(stackSerial); err != nil {
			return err
		}
		if err := bw.u4(numElements); err != nil {
			return err
		}
		if err := bw.id(arrayClassID); err != nil {
			return err
		}
	}
	for i := uint64(0); i < numElements; i++ {
		elemID, err := bbr.id()
		if err != nil {
			return err
		}
		if bw != nil {
			if err := bw.id(elemID); err != nil {
				return err
			}
		}
	}
	return nil
}

// handlePrimitiveArrayDump reads a GC_PRIM_ARRAY_DUMP sub-record and
// applies the transformer's bulk array hook to its element type.
func (d *driver) handlePrimitiveArrayDump(bbr *boundedReader, bw *byteWriter) error {
	arrayID, err := bbr.id()
	if err != nil {
		return err
	}
	stackSerial, err := bbr.u4()
	if err != nil {
		return err
	}
	numElements, err := bbr.u4()
	if err != nil {
		return err
	}
	elemTypeByte, err := bbr.u1()
	if err != nil {
		return err
	}
	t := PrimitiveType(elemTypeByte)
	if !t.Valid() {
		return ErrUnsupportedPrimitiveType
	}
	width, err := t.Width(d.idSize)
	if err != nil {
		return err
	}
	if bw != nil {
		if err := bw.id(arrayID); err != nil {
			return err
		}
		if err := bw.u4(stackSerial); err != nil {
			return err
		}
		if err := bw.u4(numElements); err != nil {
			return err
		}
		if err := bw.u1(elemTypeByte); err != nil {
			return err
		}
	}

	raw, err := bbr.bytesN(int(numElements) * width)
	if err != nil {
		return err
	}
	if bw == nil {
		return nil
	}
	out, err := d.transformArrayRaw(t, raw, int(numElements))
	if err != nil {
		return err
	}
	return bw.raw(out)
}

// transformScalarRaw reinterprets raw (exactly t.Width(idSize) bytes)
// under t's declared width, passes it through the matching scalar hook,
// and re-serializes the result at the same width. Object and
// array-object values have no scalar hook — HPROF object identifiers are
// never redacted — and are returned unchanged.
func (d *driver) transformScalarRaw(t PrimitiveType, raw []byte) ([]byte, error) {
	tr := d.transformer
	switch t {
	case TypeObject, TypeArrayObject:
		return raw, nil
	case TypeBoolean:
		orig := raw[0] != 0
		out := tr.TransformBoolean(orig)
		if out == orig {
			return raw, nil
		}
		if out {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case TypeByte:
		out := tr.TransformByte(int8(raw[0]))
		return []byte{byte(out)}, nil
	case TypeShort:
		out := tr.TransformShort(int16(binary.BigEndian.Uint16(raw)))
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(out))
		return b, nil
	case TypeChar:
		out := tr.TransformChar(binary.BigEndian.Uint16(raw))
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, out)
		return b, nil
	case TypeInt:
		out := tr.TransformInt(int32(binary.BigEndian.Uint32(raw)))
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(out))
		return b, nil
	case TypeFloat:
		orig := math.Float32frombits(binary.BigEndian.Uint32(raw))
		out := tr.TransformFloat(orig)
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, math.Float32bits(out))
		return b, nil
	case TypeLong:
		out := tr.TransformLong(int64(binary.BigEndian.Uint64(raw)))
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(out))
		return b, nil
	case TypeDouble:
		orig := math.Float64frombits(binary.BigEndian.Uint64(raw))
		out := tr.TransformDouble(orig)
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(out))
		return b, nil
	default:
		return nil, ErrUnsupportedPrimitiveType
	}
}

// transformArrayRaw decodes raw as n elements of type t, applies the
// matching bulk array hook, and re-encodes the result. Only the bulk
// hook is called; scalar hooks are not applied to array elements. A
// boolean element whose value the hook left unchanged keeps its original
// byte.
func (d *driver) transformArrayRaw(t PrimitiveType, raw []byte, n int) ([]byte, error) {
	tr := d.transformer
	switch t {
	case TypeBoolean:
		in := make([]bool, n)
		for i := 0; i < n; i++ {
			in[i] = raw[i] != 0
		}
		out := tr.TransformBooleanArray(in)
		b := make([]byte, n)
		for i := 0; i < n; i++ {
			if out[i] == in[i] {
				b[i] = raw[i]
			} else if out[i] {
				b[i] = 1
			}
		}
		return b, nil
	case TypeByte:
		in := make([]int8, n)
		for i := 0; i < n; i++ {
			in[i] = int8(raw[i])
		}
		out := tr.TransformByteArray(in)
		b := make([]byte, n)
		for i := 0; i < n; i++ {
			b[i] = byte(out[i])
		}
		return b, nil
	case TypeShort:
		in := make([]int16, n)
		for i := 0; i < n; i++ {
			in[i] = int16(binary.BigEndian.Uint16(raw[i*2:]))
		}
		out := tr.TransformShortArray(in)
		b := make([]byte, n*2)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(b[i*2:], uint16(out[i]))
		}
		return b, nil
	case TypeChar:
		in := make([]uint16, n)
		for i := 0; i < n; i++ {
			in[i] = binary.BigEndian.Uint16(raw[i*2:])
		}
		out := tr.TransformCharArray(in)
		b := make([]byte, n*2)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(b[i*2:], out[i])
		}
		return b, nil
	case TypeInt:
		in := make([]int32, n)
		for i := 0; i < n; i++ {
			in[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
		}
		out := tr.TransformIntArray(in)
		b := make([]byte, n*4)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint32(b[i*4:], uint32(out[i]))
		}
		return b, nil
	case TypeFloat:
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:]))
		}
		out := tr.TransformFloatArray(in)
		b := make([]byte, n*4)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint32(b[i*4:], math.Float32bits(out[i]))
		}
		return b, nil
	case TypeLong:
		in := make([]int64, n)
		for i := 0; i < n; i++ {
			in[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
		}
		out := tr.TransformLongArray(in)
		b := make([]byte, n*8)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint64(b[i*8:], uint64(out[i]))
		}
		return b, nil
	case TypeDouble:
		in := make([]float64, n)
		for i := 0; i < n; i++ {
			in[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
		}
		out := tr.TransformDoubleArray(in)
		b := make([]byte, n*8)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint64(b[i*8:], math.Float64bits(out[i]))
		}
		return b, nil
	default:
		return nil, ErrUnsupportedPrimitiveType
	}
}
