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

// Package transport implements the framed RESP3 connection: it reads raw
// bytes off a net.Conn, hands complete frames to the caller one at a
// time, and writes reply frames back out. It is the Go equivalent of the
// Rust implementation's tokio_util Framed<TcpStream, RespFrameCodec>.
package transport

import (
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/fasttime"
	"github.com/respd/respd/internal/netbuf"
	"github.com/respd/respd/resp"
)

// Conn is a single client connection framed for RESP3. It is not safe
// for concurrent use: the protocol is strictly request/reply, so one
// goroutine drives Next/Send in lockstep.
type Conn struct {
	ID          string
	RemoteAddr  string
	ConnectedAt int64 // unix seconds, from fasttime rather than time.Now per-connection

	nc   net.Conn
	in   *netbuf.Buffer
	out  *bytebufferpool.ByteBuffer
	read [common.ReadWriteBlockSize]byte
}

// New wraps nc as a framed RESP3 connection.
func New(nc net.Conn) *Conn {
	return &Conn{
		ID:          uuid.NewString(),
		RemoteAddr:  nc.RemoteAddr().String(),
		ConnectedAt: fasttime.UnixTimestamp(),
		nc:          nc,
		in:          netbuf.New(),
		out:         bytebufferpool.Get(),
	}
}

// Age reports how many seconds this connection has been open, per the
// cached clock in internal/fasttime rather than a fresh time.Now() call
// on every structured log line.
func (c *Conn) Age() int64 {
	return fasttime.UnixTimestamp() - c.ConnectedAt
}

// Next blocks until one complete frame has arrived and returns it. It
// returns io.EOF-wrapping net errors unchanged on clean close, and a
// *resp.DecodeError when the peer sent malformed RESP3; either case
// means the caller must close the connection, per §7.
func (c *Conn) Next() (resp.Frame, error) {
	for {
		if c.in.Len() > 0 {
			f, n, err := resp.Decode(c.in.Bytes())
			switch {
			case err == nil:
				c.in.Discard(n)
				return f, nil
			case err != resp.ErrIncomplete:
				return resp.Frame{}, err
			}
		}

		n, err := c.nc.Read(c.read[:])
		if n > 0 {
			c.in.Append(c.read[:n])
		}
		if err != nil {
			return resp.Frame{}, err
		}
	}
}

// Send encodes f and writes it to the connection in one syscall where
// possible, reusing a per-connection buffer across calls.
func (c *Conn) Send(f resp.Frame) error {
	c.out.Reset()
	resp.EncodeTo(c.out, f)
	_, err := c.nc.Write(c.out.B)
	return err
}

// SetDeadline forwards to the underlying connection, letting callers
// bound an otherwise-unbounded read wait.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.nc.SetDeadline(t)
}

// Close releases the connection's buffers and closes the socket.
func (c *Conn) Close() error {
	c.in.Release()
	bytebufferpool.Put(c.out)
	return c.nc.Close()
}
