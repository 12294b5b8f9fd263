// SPDX-License-Identifier: GPL-2.0-or-later

package wire

import (
	"bytes"
	"encoding/binary"

	qm "gochoreo/math"
)

type Writer struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

func NewWriter() *Writer {
	return &Writer{order: Order}
}

// NewWriterOrder writes in an explicit byte order.
func NewWriterOrder(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

func (m *Writer) Bytes() []byte {
	return m.buf.Bytes()
}

func (m *Writer) Len() int {
	return m.buf.Len()
}

func (m *Writer) write(data interface{}) {
	// writes into a bytes.Buffer do not fail
	binary.Write(&m.buf, m.order, data)
}

func (m *Writer) WriteInt8(c int8) {
	m.write(c)
}

func (m *Writer) WriteUint8(c uint8) {
	m.write(c)
}

func (m *Writer) WriteInt16(c int16) {
	m.write(c)
}

func (m *Writer) WriteUint16(c uint16) {
	m.write(c)
}

func (m *Writer) WriteInt32(c int32) {
	m.write(c)
}

func (m *Writer) WriteUint32(c uint32) {
	m.write(c)
}

func (m *Writer) WriteFloat32(f float32) {
	m.write(f)
}

func (m *Writer) WriteBool(b bool) {
	if b {
		m.WriteUint8(1)
		return
	}
	m.WriteUint8(0)
}

// WriteUnit writes v in [0,1] quantized to 0..255.
func (m *Writer) WriteUnit(v float32) {
	m.WriteUint8(qm.QuantizeUnit(v))
}

// WriteUnit4096 writes v in [0,16) as u4.12 fixed point.
func (m *Writer) WriteUnit4096(v float32) {
	m.WriteUint16(uint16(qm.Clamp(0, v, 15.99) * 4096))
}

// WriteString writes s zero terminated.
func (m *Writer) WriteString(s string) {
	m.buf.WriteString(s)
	m.buf.WriteByte(0)
}

// Write appends raw bytes.
func (m *Writer) Write(p []byte) (int, error) {
	return m.buf.Write(p)
}

// PutUint32At overwrites a previously written 32 bit value.
func (m *Writer) PutUint32At(offset int, v uint32) {
	m.order.PutUint32(m.buf.Bytes()[offset:offset+4], v)
}
