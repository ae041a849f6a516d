// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package netbuf implements a growable accumulate buffer for a framed
// connection's inbound side: bytes are appended as they arrive and
// discarded from the front as complete frames are consumed. Unlike a
// fixed-capacity buffer that truncates past its capacity, this buffer
// grows without limit, since a RESP frame may be arbitrarily larger than
// any one read.
package netbuf

import "github.com/valyala/bytebufferpool"

// Buffer accumulates bytes read off a connection and exposes the
// unconsumed tail for decoding.
type Buffer struct {
	bb  *bytebufferpool.ByteBuffer
	off int
}

// New returns an empty Buffer backed by a pooled byte slice.
func New() *Buffer {
	return &Buffer{bb: bytebufferpool.Get()}
}

// Append adds p to the buffer's tail.
func (b *Buffer) Append(p []byte) {
	_, _ = b.bb.Write(p)
}

// Bytes returns the unconsumed portion of the buffer. The slice is only
// valid until the next Append or Discard call.
func (b *Buffer) Bytes() []byte {
	return b.bb.B[b.off:]
}

// Len reports the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.bb.B) - b.off
}

// Discard advances the consumed cursor by n bytes, then compacts the
// buffer once every byte has been consumed or the consumed prefix
// exceeds 4096 bytes, so a long-lived connection does not retain an
// ever-growing backing array.
func (b *Buffer) Discard(n int) {
	b.off += n
	if b.off > 0 && (b.off >= len(b.bb.B) || b.off > 4096) {
		b.compact()
	}
}

func (b *Buffer) compact() {
	remaining := b.bb.B[b.off:]
	b.bb.B = append(b.bb.B[:0], remaining...)
	b.off = 0
}

// Release returns the backing buffer to the pool. The Buffer must not
// be used afterward.
func (b *Buffer) Release() {
	bytebufferpool.Put(b.bb)
	b.bb = nil
}
