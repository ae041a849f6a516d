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

package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Frame
	}{
		{"SimpleString", "+OK\r\n", SimpleString("OK")},
		{"SimpleError", "-ERR bad\r\n", SimpleError("ERR bad")},
		{"IntegerPositive", ":+123\r\n", Integer(123)},
		{"IntegerNegative", ":-1\r\n", Integer(-1)},
		{"NullBulk", "$-1\r\n", NullBulk()},
		{"BulkString", "$5\r\nhello\r\n", BulkString([]byte("hello"))},
		{"EmptyBulkString", "$0\r\n\r\n", BulkString([]byte{})},
		{"NullArray", "*-1\r\n", NullArray()},
		{"Null", "_\r\n", Null()},
		{"BooleanTrue", "#t\r\n", Boolean(true)},
		{"BooleanFalse", "#f\r\n", Boolean(false)},
		{"Double", ",3.14\r\n", DoubleFrame(3.14)},
		{"DoubleExplicitPlus", ",+3.14\r\n", DoubleFrame(3.14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.True(t, tt.want.Equal(f), "got %+v want %+v", f, tt.want)
		})
	}
}

func TestDecodeAggregate(t *testing.T) {
	input := "*3\r\n$3\r\nGET\r\n:+1\r\n#t\r\n"
	f, n, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	want := Array([]Frame{BulkString([]byte("GET")), Integer(1), Boolean(true)})
	assert.True(t, want.Equal(f))
}

func TestDecodeMap(t *testing.T) {
	input := "%2\r\n+a\r\n:+1\r\n+b\r\n:+2\r\n"
	f, n, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	want := Map([]MapEntry{{Key: "a", Value: Integer(1)}, {Key: "b", Value: Integer(2)}})
	assert.True(t, want.Equal(f))
}

func TestDecodeSet(t *testing.T) {
	input := "~2\r\n:+1\r\n:+2\r\n"
	f, n, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	assert.Equal(t, KindSet, f.Kind)
	assert.Len(t, f.Set, 2)
}

func TestDecodeNestedArray(t *testing.T) {
	input := "*2\r\n*1\r\n:+1\r\n$-1\r\n"
	f, n, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	want := Array([]Frame{Array([]Frame{Integer(1)}), NullBulk()})
	assert.True(t, want.Equal(f))
}

func TestDecodeIncomplete(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"EmptyBuffer", ""},
		{"PartialPrefix", "+O"},
		{"MissingTerminator", "+OK"},
		{"BulkStringHeaderOnly", "$5\r\n"},
		{"BulkStringPartialPayload", "$5\r\nhel"},
		{"BulkStringMissingTrailingCRLF", "$5\r\nhello"},
		{"NullBulkPartial", "$-1\r"},
		{"ArrayHeaderOnly", "*2\r\n"},
		{"ArrayPartialElement", "*2\r\n:+1\r\n"},
		{"NestedArrayPartial", "*1\r\n*2\r\n:+1\r\n"},
		{"MapPartialValue", "%1\r\n+a\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := Decode([]byte(tt.input))
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Equal(t, 0, n)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"InvalidFrameType", "@foo\r\n"},
		{"BadInteger", ":abc\r\n"},
		{"BadDouble", ",abc\r\n"},
		{"BadBoolean", "#x\r\n"},
		{"BadNull", "_x\n"},
		{"NegativeBulkLength", "$-2\r\n"},
		{"NegativeAggregateLength", "*-2\r\n"},
		{"SetCannotBeNull", "~-1\r\n"},
		{"MapKeyNotSimpleString", "%1\r\n:+1\r\n:+2\r\n"},
		{"BulkStringBadTerminator", "$5\r\nhelloXX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrIncomplete)
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

// TestExpectLengthNullBulkIsFiveBytes pins the fix for the null-bulk
// short-circuit bug described in spec §9: `$-1\r\n` must account for all
// 5 wire bytes, not 4.
func TestExpectLengthNullBulkIsFiveBytes(t *testing.T) {
	n, err := ExpectLength([]byte("$-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

// TestByteFragmentationImmunity is §8.1's fragmentation-immunity
// property: splitting an encoded multi-frame byte sequence at every
// possible index must still decode the same frames in the same order,
// and every intermediate Incomplete must consume zero bytes.
func TestByteFragmentationImmunity(t *testing.T) {
	frames := []Frame{
		SimpleString("OK"),
		Integer(-7),
		BulkString([]byte("hello world")),
		NullBulk(),
		Array([]Frame{Integer(1), BulkString([]byte("x")), NullArray()}),
		Map([]MapEntry{{Key: "k", Value: Boolean(true)}}),
		Set([]Frame{Integer(1), Integer(2)}),
		DoubleFrame(3.25),
	}

	var whole []byte
	for _, f := range frames {
		whole = append(whole, Encode(f)...)
	}

	for split := 0; split <= len(whole); split++ {
		var got []Frame
		var buf []byte
		buf = append(buf, whole[:split]...)
		pending := whole[split:]

		for {
			f, n, err := Decode(buf)
			if err == ErrIncomplete {
				assert.Equal(t, 0, n, "split=%d", split)
				if len(pending) == 0 {
					break
				}
				buf = append(buf, pending...)
				pending = nil
				continue
			}
			require.NoError(t, err, "split=%d", split)
			got = append(got, f)
			buf = buf[n:]
			if len(buf) == 0 && len(pending) == 0 {
				break
			}
		}

		require.Len(t, got, len(frames), "split=%d", split)
		for i := range frames {
			assert.True(t, frames[i].Equal(got[i]), "split=%d idx=%d", split, i)
		}
	}
}
