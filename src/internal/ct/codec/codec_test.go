// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package codec_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/codec"
)

func TestBytesForValue(t *testing.T) {
	tests := []struct {
		max  uint64
		want int
	}{
		{0, 1},
		{1, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 3},
		{1<<24 - 1, 3},
		{1 << 24, 4},
		{^uint64(0), 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, codec.BytesForValue(tt.max), "BytesForValue(%d)", tt.max)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		width int
		wire  []byte
	}{
		{name: "one byte", value: 0xfe, width: 1, wire: []byte{0xfe}},
		{name: "two bytes", value: 0x0102, width: 2, wire: []byte{0x01, 0x02}},
		{name: "three bytes", value: 0xabcdef, width: 3, wire: []byte{0xab, 0xcd, 0xef}},
		{name: "no sign extension", value: 0x80, width: 4, wire: []byte{0, 0, 0, 0x80}},
		{name: "eight bytes", value: 0xffffffffffffffff, width: 8, wire: bytes.Repeat([]byte{0xff}, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := codec.NewSerializer()
			require.NoError(t, s.WriteNumber(tt.value, tt.width))
			out, err := s.Bytes()
			require.NoError(t, err)
			assert.Equal(t, tt.wire, out)

			d := codec.NewDeserializer(out)
			got, err := d.ReadNumber(tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
			assert.NoError(t, d.Finish())
		})
	}
}

func TestWriteNumberErrors(t *testing.T) {
	s := codec.NewSerializer()
	assert.ErrorIs(t, s.WriteNumber(256, 1), codec.ErrValueOverflow)
	assert.ErrorIs(t, s.WriteNumber(1, 0), codec.ErrInvalidWidth)
	assert.ErrorIs(t, s.WriteNumber(1, 9), codec.ErrInvalidWidth)
}

func TestReadNumberTruncated(t *testing.T) {
	d := codec.NewDeserializer([]byte{0x01, 0x02})
	_, err := d.ReadNumber(3)
	assert.ErrorIs(t, err, codec.ErrTruncated)
}

func TestVariableLength(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxLength uint64
		prefix    int
	}{
		{name: "empty uint8 prefix", data: nil, maxLength: 255, prefix: 1},
		{name: "uint16 prefix", data: []byte("hello"), maxLength: 65535, prefix: 2},
		{name: "uint24 prefix", data: bytes.Repeat([]byte{7}, 300), maxLength: 1<<24 - 1, prefix: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := codec.NewSerializer()
			require.NoError(t, s.WriteVariableLength(tt.data, tt.maxLength))
			out, err := s.Bytes()
			require.NoError(t, err)
			assert.Len(t, out, tt.prefix+len(tt.data))

			d := codec.NewDeserializer(out)
			got, err := d.ReadVariableLength(tt.maxLength)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(got))
			assert.True(t, bytes.Equal(tt.data, got))
		})
	}
}

func TestReadVariableLengthErrors(t *testing.T) {
	t.Run("declared length exceeds remaining bytes", func(t *testing.T) {
		d := codec.NewDeserializer([]byte{0x00, 0x05, 'a', 'b'})
		_, err := d.ReadVariableLength(65535)
		assert.ErrorIs(t, err, codec.ErrTruncated)
	})

	t.Run("declared length exceeds maximum", func(t *testing.T) {
		data := append([]byte{0x01, 0x2d}, make([]byte, 301)...)
		d := codec.NewDeserializer(data)
		_, err := d.ReadVariableLength(300)
		assert.ErrorIs(t, err, codec.ErrTooLong)
	})

	t.Run("prefix itself truncated", func(t *testing.T) {
		d := codec.NewDeserializer([]byte{0x00})
		_, err := d.ReadVariableLength(65535)
		assert.ErrorIs(t, err, codec.ErrTruncated)
	})

	t.Run("write over maximum", func(t *testing.T) {
		s := codec.NewSerializer()
		assert.ErrorIs(t, s.WriteVariableLength(make([]byte, 256), 255), codec.ErrTooLong)
	})
}

func TestList(t *testing.T) {
	entries := [][]byte{[]byte("first"), []byte("second"), {}}

	s := codec.NewSerializer()
	require.NoError(t, s.WriteList(entries, 65535, 65535))
	out, err := s.Bytes()
	require.NoError(t, err)

	d := codec.NewDeserializer(out)
	got, err := d.ReadList(65535, 65535)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", string(got[0]))
	assert.Equal(t, "second", string(got[1]))
	assert.Empty(t, got[2])
}

func TestFinishTrailingData(t *testing.T) {
	d := codec.NewDeserializer([]byte{1, 2})
	_, err := d.ReadNumber(1)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Finish(), codec.ErrTrailingData)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, codec.Wrap("field", nil))

	err := codec.Wrap("outer", codec.Wrap("inner", codec.ErrTruncated))
	var se *codec.SerializationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "outer.inner", se.Field)
	assert.ErrorIs(t, err, codec.ErrTruncated)
	assert.Contains(t, err.Error(), "outer.inner")
}
