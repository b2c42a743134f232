// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package codec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

var (
	// ErrTruncated indicates that fewer bytes remain than a field declares.
	ErrTruncated = errors.New("codec: not enough bytes remaining")

	// ErrTooLong indicates that a length prefix exceeds the field's declared maximum.
	ErrTooLong = errors.New("codec: length exceeds declared maximum")

	// ErrInvalidWidth indicates a number width outside 1..8 bytes.
	ErrInvalidWidth = errors.New("codec: number width must be between 1 and 8 bytes")

	// ErrValueOverflow indicates a number that does not fit in the requested width.
	ErrValueOverflow = errors.New("codec: value does not fit in width")

	// ErrTrailingData indicates bytes left over after a complete structure.
	ErrTrailingData = errors.New("codec: trailing data after structure")
)

// SerializationError reports which field of a structure failed to encode or decode.
type SerializationError struct {
	Field string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Wrap tags err with the name of the field being processed.
// It returns nil when err is nil so that it can wrap any return value.
func Wrap(field string, err error) error {
	if err == nil {
		return nil
	}
	var se *SerializationError
	if errors.As(err, &se) {
		return &SerializationError{Field: field + "." + se.Field, Err: se.Err}
	}
	return &SerializationError{Field: field, Err: err}
}

// BytesForValue returns the smallest number of bytes able to hold maxValue.
// This is the width of the length prefix of a variable-length field.
func BytesForValue(maxValue uint64) int {
	n := 1
	for v := maxValue >> 8; v > 0; v >>= 8 {
		n++
	}
	return n
}

// Deserializer reads TLS presentation-language fields from a byte slice.
// All numbers are unsigned big-endian.
type Deserializer struct {
	s cryptobyte.String
}

// NewDeserializer returns a Deserializer positioned at the start of data.
func NewDeserializer(data []byte) *Deserializer {
	return &Deserializer{s: cryptobyte.String(data)}
}

// Len returns the number of unread bytes.
func (d *Deserializer) Len() int { return len(d.s) }

// Empty reports whether all bytes have been consumed.
func (d *Deserializer) Empty() bool { return d.s.Empty() }

// ReadNumber reads an unsigned big-endian integer of width bytes.
func (d *Deserializer) ReadNumber(width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, ErrInvalidWidth
	}
	var raw []byte
	if !d.s.ReadBytes(&raw, width) {
		return 0, ErrTruncated
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadFixedBytes reads exactly n bytes. The returned slice is a copy, and
// nil when n is zero.
func (d *Deserializer) ReadFixedBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrTruncated
	}
	if n == 0 {
		return nil, nil
	}
	var raw []byte
	if !d.s.ReadBytes(&raw, n) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, nil
}

// ReadVariableLength reads a length-prefixed byte array whose length may be
// at most maxLength. The prefix is BytesForValue(maxLength) bytes wide.
func (d *Deserializer) ReadVariableLength(maxLength uint64) ([]byte, error) {
	n, err := d.ReadNumber(BytesForValue(maxLength))
	if err != nil {
		return nil, err
	}
	if n > maxLength {
		return nil, ErrTooLong
	}
	if n > uint64(d.Len()) {
		return nil, ErrTruncated
	}
	return d.ReadFixedBytes(int(n))
}

// ReadList reads a length-prefixed list (at most maxLength bytes in total)
// of length-prefixed entries, each at most maxEntryLength bytes.
func (d *Deserializer) ReadList(maxLength, maxEntryLength uint64) ([][]byte, error) {
	body, err := d.ReadVariableLength(maxLength)
	if err != nil {
		return nil, err
	}
	inner := NewDeserializer(body)
	var entries [][]byte
	for !inner.Empty() {
		entry, err := inner.ReadVariableLength(maxEntryLength)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Finish returns ErrTrailingData if unread bytes remain.
func (d *Deserializer) Finish() error {
	if !d.Empty() {
		return ErrTrailingData
	}
	return nil
}

// Serializer writes TLS presentation-language fields.
type Serializer struct {
	b *cryptobyte.Builder
}

// NewSerializer returns an empty Serializer.
func NewSerializer() *Serializer {
	return &Serializer{b: cryptobyte.NewBuilder(nil)}
}

// WriteNumber writes v as an unsigned big-endian integer of width bytes.
func (s *Serializer) WriteNumber(v uint64, width int) error {
	if width < 1 || width > 8 {
		return ErrInvalidWidth
	}
	if width < 8 && v>>(8*uint(width)) != 0 {
		return ErrValueOverflow
	}
	raw := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	s.b.AddBytes(raw)
	return nil
}

// WriteFixedBytes writes data verbatim.
func (s *Serializer) WriteFixedBytes(data []byte) {
	s.b.AddBytes(data)
}

// WriteVariableLength writes data prefixed by its length using the prefix
// width implied by maxLength.
func (s *Serializer) WriteVariableLength(data []byte, maxLength uint64) error {
	if uint64(len(data)) > maxLength {
		return ErrTooLong
	}
	if err := s.WriteNumber(uint64(len(data)), BytesForValue(maxLength)); err != nil {
		return err
	}
	s.b.AddBytes(data)
	return nil
}

// WriteList writes entries as a length-prefixed list of length-prefixed entries.
func (s *Serializer) WriteList(entries [][]byte, maxLength, maxEntryLength uint64) error {
	inner := NewSerializer()
	for _, e := range entries {
		if err := inner.WriteVariableLength(e, maxEntryLength); err != nil {
			return err
		}
	}
	body, err := inner.Bytes()
	if err != nil {
		return err
	}
	return s.WriteVariableLength(body, maxLength)
}

// Bytes returns the serialized output.
func (s *Serializer) Bytes() ([]byte, error) {
	return s.b.Bytes()
}
