// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned by [ReadAll] when the input exceeds the limit.
var ErrTooLarge = errors.New("gc: input exceeds size limit")

// maxSizeReader fails once more than limit bytes have been read, whatever
// the producer claimed the size would be.
type maxSizeReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (m *maxSizeReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.read += int64(n)
	if m.read > m.limit {
		return n, ErrTooLarge
	}
	return n, err
}

// ReadAll reads r through a pooled buffer and returns a copy of at most
// limit bytes. Inputs larger than limit fail with an error wrapping
// [ErrTooLarge].
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	var out []byte
	err := Borrow(func(buf Buffer) error {
		if _, err := buf.ReadFrom(&maxSizeReader{r: r, limit: limit}); err != nil {
			if errors.Is(err, ErrTooLarge) {
				return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
			}
			return err
		}
		out = make([]byte, buf.Len())
		copy(out, buf.Bytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
