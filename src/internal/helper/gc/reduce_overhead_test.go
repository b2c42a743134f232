// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorReader is a mock io.Reader that always returns an error
type errorReader struct {
	err error
}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, e.err
}

// chunkReader hands out data a few bytes at a time, like a slow network body.
type chunkReader struct {
	data  []byte
	chunk int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := min(c.chunk, len(p), len(c.data))
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestBorrow(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Buffer starts empty",
			testFunc: func(t *testing.T) {
				require.NoError(t, Borrow(func(buf Buffer) error {
					assert.Zero(t, buf.Len())
					buf.Write([]byte("log_list"))
					buf.WriteString(".json")
					assert.Equal(t, "log_list.json", buf.String())
					assert.Equal(t, []byte("log_list.json"), buf.Bytes())
					return nil
				}))
				require.NoError(t, Borrow(func(buf Buffer) error {
					assert.Zero(t, buf.Len(), "returned buffers are reset")
					return nil
				}))
			},
		},
		{
			name: "Error passes through",
			testFunc: func(t *testing.T) {
				boom := errors.New("boom")
				assert.ErrorIs(t, Borrow(func(Buffer) error { return boom }), boom)
			},
		},
		{
			name: "ReadFrom",
			testFunc: func(t *testing.T) {
				require.NoError(t, Borrow(func(buf Buffer) error {
					n, err := buf.ReadFrom(&chunkReader{data: []byte("signature"), chunk: 2})
					require.NoError(t, err)
					assert.Equal(t, int64(9), n)
					assert.Equal(t, "signature", buf.String())
					return nil
				}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

// TestPoolGetPut verifies pool Get/Put operations
func TestPoolGetPut(t *testing.T) {
	buf1 := Default.Get()
	require.NotNil(t, buf1, "Get() returned nil buffer")

	buf1.WriteString("test data")
	assert.Equal(t, 9, buf1.Len(), "WriteString() length")
	buf1.Reset()
	assert.Equal(t, 0, buf1.Len(), "Reset() failed")
	Default.Put(buf1)

	buf2 := Default.Get()
	require.NotNil(t, buf2, "Get() returned nil buffer after Put()")
	assert.Equal(t, 0, buf2.Len(), "Buffer from pool should be empty")

	buf2.Reset()
	Default.Put(buf2)
}

// TestGoroutineCooking verifies the pool is safe for concurrent use (with 100 goroutines sizzling!)
func TestGoroutineCooking(t *testing.T) {
	const goroutines = 100
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := range goroutines {
		go func(id int) {
			defer wg.Done()
			for range iterations {
				data, err := ReadAll(strings.NewReader(strings.Repeat("x", id+1)), 1024)
				assert.NoError(t, err)
				assert.Len(t, data, id+1)
			}
		}(i)
	}

	wg.Wait()
}

func TestReadAll(t *testing.T) {
	tests := []struct {
		name    string
		reader  func() io.Reader
		limit   int64
		want    string
		wantErr error
	}{
		{
			name:   "Below limit",
			reader: func() io.Reader { return strings.NewReader("{}") },
			limit:  512,
			want:   "{}",
		},
		{
			name:   "Exactly at limit",
			reader: func() io.Reader { return strings.NewReader(strings.Repeat("a", 512)) },
			limit:  512,
			want:   strings.Repeat("a", 512),
		},
		{
			name:    "One byte over",
			reader:  func() io.Reader { return strings.NewReader(strings.Repeat("a", 513)) },
			limit:   512,
			wantErr: ErrTooLarge,
		},
		{
			name:    "Slow body over limit",
			reader:  func() io.Reader { return &chunkReader{data: bytes.Repeat([]byte{1}, 4096), chunk: 7} },
			limit:   1024,
			wantErr: ErrTooLarge,
		},
		{
			name:   "Empty",
			reader: func() io.Reader { return strings.NewReader("") },
			limit:  1,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAll(tt.reader(), tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReadAllReaderError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := ReadAll(&errorReader{err: boom}, 1024)
	assert.ErrorIs(t, err, boom)
}

func TestReadAllReturnsCopy(t *testing.T) {
	first, err := ReadAll(strings.NewReader("first"), 64)
	require.NoError(t, err)
	_, err = ReadAll(strings.NewReader("second"), 64)
	require.NoError(t, err)
	assert.Equal(t, "first", string(first), "result must not alias a pooled buffer")
}
