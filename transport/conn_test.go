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

package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respd/respd/resp"
)

func TestConnNextReadsOneFrameAtATime(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	c := New(srv)
	defer c.Close()

	go func() {
		_, _ = client.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	}()

	f, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, resp.KindArray, f.Kind)
	require.Len(t, f.Array, 2)
	assert.True(t, resp.BulkString([]byte("GET")).Equal(f.Array[0]))
	assert.True(t, resp.BulkString([]byte("k")).Equal(f.Array[1]))
}

func TestConnNextAssemblesFragmentedWrites(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	c := New(srv)
	defer c.Close()

	whole := []byte("*1\r\n$5\r\nhello\r\n")
	go func() {
		for _, b := range whole {
			_, _ = client.Write([]byte{b})
		}
	}()

	f, err := c.Next()
	require.NoError(t, err)
	require.Len(t, f.Array, 1)
	assert.True(t, resp.BulkString([]byte("hello")).Equal(f.Array[0]))
}

func TestConnSendWritesWireForm(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	c := New(srv)
	defer c.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	err := c.Send(resp.OK)
	require.NoError(t, err)
	assert.Equal(t, []byte("+OK\r\n"), <-done)
}

func TestConnNextReturnsErrorOnMalformedFrame(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	c := New(srv)
	defer c.Close()

	go func() {
		_, _ = client.Write([]byte("@bad\r\n"))
	}()

	_, err := c.Next()
	require.Error(t, err)
	_, ok := err.(*resp.DecodeError)
	assert.True(t, ok)
}
