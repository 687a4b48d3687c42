// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import (
	"bytes"
	"encoding/binary"
	"io"
)

// hprofBuilder assembles minimal, well-formed HPROF byte streams for
// tests. It always uses a 4-byte identifier size.
type hprofBuilder struct {
	buf []byte
}

func newHprofBuilder(timestamp uint64) *hprofBuilder {
	b := &hprofBuilder{}
	b.buf = append(b.buf, []byte(hprofMagic)...)
	b.buf = append(b.buf, 0)
	b.buf = append(b.buf, u4b(4)...)
	b.buf = append(b.buf, u8b(timestamp)...)
	return b
}

func u1b(v byte) []byte { return []byte{v} }

func u2b(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u4b(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u8b(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func (b *hprofBuilder) record(tag byte, timeVal uint32, body []byte) {
	b.buf = append(b.buf, tag)
	b.buf = append(b.buf, u4b(timeVal)...)
	b.buf = append(b.buf, u4b(uint32(len(body)))...)
	b.buf = append(b.buf, body...)
}

func (b *hprofBuilder) utf8(id uint32, s string) {
	body := append(u4b(id), encodeMUTF8(s)...)
	b.record(TagUTF8, 0, body)
}

func (b *hprofBuilder) loadClass(serial uint32, classObjID uint32, nameID uint32) {
	body := append(u4b(serial), u4b(classObjID)...)
	body = append(body, u4b(0)...) // stack trace serial
	body = append(body, u4b(nameID)...)
	b.record(TagLoadClass, 0, body)
}

func (b *hprofBuilder) frame(frameID, methodNameID, methodSigID, sourceFileID uint32) {
	body := append(u4b(frameID), u4b(methodNameID)...)
	body = append(body, u4b(methodSigID)...)
	body = append(body, u4b(sourceFileID)...)
	body = append(body, u4b(0)...) // class serial
	body = append(body, u4b(0)...) // line number
	b.record(TagFrame, 0, body)
}

func (b *hprofBuilder) startThread(threadObjID, nameID, groupID, parentGroupID uint32) {
	body := append(u4b(1), u4b(threadObjID)...)
	body = append(body, u4b(0)...) // stack trace serial
	body = append(body, u4b(nameID)...)
	body = append(body, u4b(groupID)...)
	body = append(body, u4b(parentGroupID)...)
	b.record(TagStartThread, 0, body)
}

func (b *hprofBuilder) heapDumpEnd() {
	b.record(TagHeapDumpEnd, 0, nil)
}

// classDumpField is one instance field in a test class dump.
type classDumpField struct {
	nameID uint32
	typ    PrimitiveType
}

func classDumpBody(classID, superID uint32, instanceSize uint32, fields []classDumpField) []byte {
	var body []byte
	body = append(body, u4b(classID)...)
	body = append(body, u4b(0)...) // stack trace serial
	body = append(body, u4b(superID)...)
	body = append(body, u4b(0)...) // class loader id
	body = append(body, u4b(0)...) // signers id
	body = append(body, u4b(0)...) // protection domain id
	body = append(body, u4b(0)...) // reserved1
	body = append(body, u4b(0)...) // reserved2
	body = append(body, u4b(instanceSize)...)
	body = append(body, u2b(0)...) // constant pool count
	body = append(body, u2b(0)...) // static field count
	body = append(body, u2b(uint16(len(fields)))...)
	for _, f := range fields {
		body = append(body, u4b(f.nameID)...)
		body = append(body, byte(f.typ))
	}
	return body
}

func instanceDumpBody(objectID, classID uint32, fieldBytes []byte) []byte {
	var body []byte
	body = append(body, u4b(objectID)...)
	body = append(body, u4b(0)...) // stack trace serial
	body = append(body, u4b(classID)...)
	body = append(body, u4b(uint32(len(fieldBytes)))...)
	body = append(body, fieldBytes...)
	return body
}

func primArrayDumpBody(arrayID uint32, elemType PrimitiveType, elems []byte) []byte {
	var body []byte
	body = append(body, u4b(arrayID)...)
	body = append(body, u4b(0)...) // stack trace serial
	numElements := len(elems) / mustWidth(elemType)
	body = append(body, u4b(uint32(numElements))...)
	body = append(body, byte(elemType))
	body = append(body, elems...)
	return body
}

func mustWidth(t PrimitiveType) int {
	w, err := t.Width(4)
	if err != nil {
		panic(err)
	}
	return w
}

func (b *hprofBuilder) heapDumpSegment(subRecords ...[]byte) {
	var body []byte
	for _, sr := range subRecords {
		body = append(body, sr...)
	}
	b.record(TagHeapDumpSegment, 0, body)
}

func subTagged(tag byte, body []byte) []byte {
	return append([]byte{tag}, body...)
}

func (b *hprofBuilder) bytes() []byte { return b.buf }

// memSource is an in-memory redact.Source over a fixed byte slice.
type memSource struct {
	data []byte
}

func (m memSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}
