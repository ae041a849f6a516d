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
	"strconv"

	"github.com/respd/respd/internal/splitio"
)

// Decode parses one frame from the front of buf. On success it returns
// the frame and the number of bytes consumed; buf is left untouched. On
// ErrIncomplete, buf holds a prefix of a frame and the caller must
// retry after appending more bytes. Any other error is a DecodeError
// and the connection must be closed, per §7.
//
// Decode is two-pass: ExpectLength first walks the frame (recursively,
// for aggregates) without allocating, to learn its exact total size; only
// once that size is known to be fully present does decodeFull build the
// Frame. This is what lets an arbitrarily nested frame be decoded
// atomically regardless of where the input happens to be split.
func Decode(buf []byte) (Frame, int, error) {
	n, err := ExpectLength(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	f, err := decodeFull(buf[:n])
	if err != nil {
		return Frame{}, 0, err
	}
	return f, n, nil
}

// ExpectLength reports the total byte length of the single frame at the
// front of buf, without allocating a Frame. It returns ErrIncomplete if
// buf does not yet hold the whole frame.
func ExpectLength(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrIncomplete
	}

	switch buf[0] {
	case prefixSimpleString, prefixSimpleError, prefixInteger, prefixDouble:
		n, res := scanLine(buf[1:])
		switch res {
		case lineIncomplete:
			return 0, ErrIncomplete
		case lineMalformed:
			return 0, malformed(ErrInvalidFrame, "line-terminated frame missing CRLF")
		}
		return 1 + n, nil
	case prefixNull:
		if len(buf) < 3 {
			return 0, ErrIncomplete
		}
		if buf[1] != '\r' || buf[2] != '\n' {
			return 0, malformed(ErrInvalidFrame, "invalid null frame")
		}
		return 3, nil
	case prefixBoolean:
		if len(buf) < 4 {
			return 0, ErrIncomplete
		}
		if buf[1] != 't' && buf[1] != 'f' {
			return 0, malformed(ErrInvalidFrame, "invalid boolean value %q", buf[1])
		}
		if buf[2] != '\r' || buf[3] != '\n' {
			return 0, malformed(ErrInvalidFrame, "invalid boolean frame")
		}
		return 4, nil
	case prefixBulkString:
		return expectBulkStringLength(buf)
	case prefixArray:
		return expectSeqLength(buf, true)
	case prefixSet:
		return expectSeqLength(buf, false)
	case prefixMap:
		return expectMapLength(buf)
	default:
		return 0, malformed(ErrInvalidFrameType, "invalid frame type %q", buf[0])
	}
}

// expectBulkStringLength reports the wire length of a BulkString,
// including the 5-byte null form `$-1\r\n`. The original decoder this
// system is modeled on short-circuits the null case to 4 bytes; that is
// a bug (`$-1\r\n` is 5 bytes) and is fixed here.
func expectBulkStringLength(buf []byte) (int, error) {
	n, res := scanLine(buf[1:])
	switch res {
	case lineIncomplete:
		return 0, ErrIncomplete
	case lineMalformed:
		return 0, malformed(ErrInvalidFrame, "bulk string length line missing CRLF")
	}
	header := 1 + n
	length, err := strconv.ParseInt(string(buf[1:header-2]), 10, 64)
	if err != nil {
		return 0, malformed(ErrParseInt, "invalid bulk string length %q", buf[1:header-2])
	}
	if length == -1 {
		return header, nil
	}
	if length < 0 {
		return 0, malformed(ErrInvalidFrameLength, "invalid bulk string length %d", length)
	}
	total := header + int(length) + 2
	if len(buf) < total {
		return 0, ErrIncomplete
	}
	if buf[total-2] != '\r' || buf[total-1] != '\n' {
		return 0, malformed(ErrInvalidFrameLength, "bulk string missing trailing CRLF")
	}
	return total, nil
}

// expectSeqLength walks an Array or Set header and its elements.
// allowNull is true only for Array, which alone has a null form.
func expectSeqLength(buf []byte, allowNull bool) (int, error) {
	n, res := scanLine(buf[1:])
	switch res {
	case lineIncomplete:
		return 0, ErrIncomplete
	case lineMalformed:
		return 0, malformed(ErrInvalidFrame, "aggregate length line missing CRLF")
	}
	header := 1 + n
	count, err := strconv.ParseInt(string(buf[1:header-2]), 10, 64)
	if err != nil {
		return 0, malformed(ErrParseInt, "invalid aggregate length %q", buf[1:header-2])
	}
	if count == -1 {
		if !allowNull {
			return 0, malformed(ErrInvalidFrameLength, "null length not allowed for this frame type")
		}
		return header, nil
	}
	if count < 0 {
		return 0, malformed(ErrInvalidFrameLength, "invalid aggregate length %d", count)
	}

	pos := header
	for i := int64(0); i < count; i++ {
		elemLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += elemLen
	}
	return pos, nil
}

// expectMapLength walks a Map header and its key/value pairs. Keys must
// themselves be SimpleString frames.
func expectMapLength(buf []byte) (int, error) {
	n, res := scanLine(buf[1:])
	switch res {
	case lineIncomplete:
		return 0, ErrIncomplete
	case lineMalformed:
		return 0, malformed(ErrInvalidFrame, "map length line missing CRLF")
	}
	header := 1 + n
	count, err := strconv.ParseInt(string(buf[1:header-2]), 10, 64)
	if err != nil || count < 0 {
		return 0, malformed(ErrParseInt, "invalid map length %q", buf[1:header-2])
	}

	pos := header
	for i := int64(0); i < count; i++ {
		if pos >= len(buf) {
			return 0, ErrIncomplete
		}
		if buf[pos] != prefixSimpleString {
			return 0, malformed(ErrInvalidFrame, "map key must be a simple string")
		}
		keyLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += keyLen

		valLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += valLen
	}
	return pos, nil
}

// decodeFull builds a Frame from buf, which must hold exactly one
// complete frame (as established by a prior, successful ExpectLength
// call). It therefore only fails on scalar parse errors (ParseInt,
// ParseFloat) or an internal inconsistency.
func decodeFull(buf []byte) (Frame, error) {
	switch buf[0] {
	case prefixSimpleString:
		return SimpleString(string(buf[1 : len(buf)-2])), nil
	case prefixSimpleError:
		return SimpleError(string(buf[1 : len(buf)-2])), nil
	case prefixInteger:
		text := buf[1 : len(buf)-2]
		v, err := strconv.ParseInt(string(text), 10, 64)
		if err != nil {
			return Frame{}, malformed(ErrParseInt, "invalid integer %q", text)
		}
		return Integer(v), nil
	case prefixDouble:
		text := buf[1 : len(buf)-2]
		v, err := strconv.ParseFloat(string(text), 64)
		if err != nil {
			return Frame{}, malformed(ErrParseFloat, "invalid double %q", text)
		}
		return DoubleFrame(v), nil
	case prefixNull:
		return Null(), nil
	case prefixBoolean:
		switch buf[1] {
		case 't':
			return Boolean(true), nil
		case 'f':
			return Boolean(false), nil
		default:
			return Frame{}, malformed(ErrInvalidFrame, "invalid boolean value %q", buf[1])
		}
	case prefixBulkString:
		return decodeBulkString(buf)
	case prefixArray:
		return decodeSeq(buf, true)
	case prefixSet:
		f, err := decodeSeq(buf, false)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Kind: KindSet, Set: f.Array}, nil
	case prefixMap:
		return decodeMap(buf)
	default:
		return Frame{}, malformed(ErrInvalidFrameType, "invalid frame type %q", buf[0])
	}
}

func decodeBulkString(buf []byte) (Frame, error) {
	n, _ := scanLine(buf[1:])
	header := 1 + n
	length, _ := strconv.ParseInt(string(buf[1:header-2]), 10, 64)
	if length == -1 {
		return NullBulk(), nil
	}
	payload := buf[header : header+int(length)]
	return BulkString(append([]byte(nil), payload...)), nil
}

func decodeSeq(buf []byte, allowNull bool) (Frame, error) {
	n, _ := scanLine(buf[1:])
	header := 1 + n
	count, _ := strconv.ParseInt(string(buf[1:header-2]), 10, 64)
	if count == -1 && allowNull {
		return NullArray(), nil
	}

	elems := make([]Frame, 0, count)
	pos := header
	for i := int64(0); i < count; i++ {
		elemLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return Frame{}, err
		}
		f, err := decodeFull(buf[pos : pos+elemLen])
		if err != nil {
			return Frame{}, err
		}
		elems = append(elems, f)
		pos += elemLen
	}
	return Array(elems), nil
}

func decodeMap(buf []byte) (Frame, error) {
	n, _ := scanLine(buf[1:])
	header := 1 + n
	count, _ := strconv.ParseInt(string(buf[1:header-2]), 10, 64)

	entries := make([]MapEntry, 0, count)
	pos := header
	for i := int64(0); i < count; i++ {
		keyLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return Frame{}, err
		}
		keyFrame, err := decodeFull(buf[pos : pos+keyLen])
		if err != nil {
			return Frame{}, err
		}
		pos += keyLen

		valLen, err := ExpectLength(buf[pos:])
		if err != nil {
			return Frame{}, err
		}
		valFrame, err := decodeFull(buf[pos : pos+valLen])
		if err != nil {
			return Frame{}, err
		}
		pos += valLen

		entries = append(entries, MapEntry{Key: keyFrame.Str, Value: valFrame})
	}
	return Map(entries), nil
}

type lineResult int

const (
	lineIncomplete lineResult = iota
	lineFound
	lineMalformed
)

// scanLine locates the first CRLF-terminated line in buf, reusing the
// packet-capture codec's zero-copy scanner rather than a fresh
// bytes.Index walk. It returns the line length including the
// terminator.
func scanLine(buf []byte) (int, lineResult) {
	sc := splitio.NewScanner(buf)
	if !sc.Scan() {
		return 0, lineIncomplete
	}
	line := sc.Bytes()
	if len(line) == 0 || line[len(line)-1] != '\n' {
		return 0, lineIncomplete
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return 0, lineMalformed
	}
	return len(line), lineFound
}
