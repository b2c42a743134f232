// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer is the part of [bytebufferpool.ByteBuffer] the readers here need.
type Buffer interface {
	io.Writer
	io.ReaderFrom
	WriteString(s string) (int, error)
	Bytes() []byte
	String() string
	Len() int
	Reset()
}

// Pool hands out reusable buffers. Implementations are safe for
// concurrent use.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

type pool struct{ p *bytebufferpool.Pool }

func (p *pool) Get() Buffer { return p.p.Get() }

func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default backs [ReadAll] and [Borrow].
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// Borrow lends fn a reset buffer from [Default] and takes it back when fn
// returns. fn must not keep the buffer or its Bytes.
func Borrow(fn func(Buffer) error) error {
	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()
	return fn(buf)
}
