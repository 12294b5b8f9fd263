// SPDX-License-Identifier: GPL-2.0-or-later

package wire

import (
	"bytes"
	"encoding/binary"
	"io"
)

type Reader struct {
	r     *bytes.Reader
	order binary.ByteOrder
}

func NewReader(data []byte) *Reader {
	return &Reader{bytes.NewReader(data), Order}
}

// NewReaderOrder reads data in an explicit byte order.
func NewReaderOrder(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{bytes.NewReader(data), order}
}

func (q *Reader) ReadInt8() (int8, error) {
	var r int8
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadUint8() (uint8, error) {
	var r uint8
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadInt16() (int16, error) {
	var r int16
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadUint16() (uint16, error) {
	var r uint16
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadInt32() (int32, error) {
	var r int32
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadUint32() (uint32, error) {
	var r uint32
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) ReadFloat32() (float32, error) {
	var r float32
	err := binary.Read(q.r, q.order, &r)
	return r, err
}

func (q *Reader) Read(data interface{}) error {
	return binary.Read(q.r, q.order, data)
}

// ReadUnit reads a value quantized to 0..255 and returns it in [0,1].
func (q *Reader) ReadUnit() (float32, error) {
	b, err := q.ReadUint8()
	return float32(b) / 255, err
}

// ReadUnit4096 reads a u4.12 fixed point percentage.
func (q *Reader) ReadUnit4096() (float32, error) {
	u, err := q.ReadUint16()
	return float32(u) * (1.0 / 4096.0), err
}

// ReadString reads a zero terminated string.
func (q *Reader) ReadString() (string, error) {
	var sb bytes.Buffer
	for {
		b, err := q.r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

// Len returns the number of bytes of the unread portion of the slice.
func (q *Reader) Len() int {
	return q.r.Len()
}

// Offset returns the read position.
func (q *Reader) Offset() int64 {
	i, _ := q.r.Seek(0, io.SeekCurrent)
	return i
}

// Seek moves the read position to an absolute offset.
func (q *Reader) Seek(offset int64) error {
	_, err := q.r.Seek(offset, io.SeekStart)
	return err
}
