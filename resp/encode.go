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
	"math"
	"sort"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Encode serializes f to its RESP3 wire form.
func Encode(f Frame) []byte {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	EncodeTo(bb, f)
	out := make([]byte, bb.Len())
	copy(out, bb.B)
	return out
}

// EncodeTo appends f's wire form to dst, letting callers reuse a single
// pooled buffer across many frames (the framed connection's send path
// does this).
func EncodeTo(dst *bytebufferpool.ByteBuffer, f Frame) {
	switch f.Kind {
	case KindSimpleString:
		_, _ = dst.Write([]byte{prefixSimpleString})
		_, _ = dst.WriteString(f.Str)
		_, _ = dst.WriteString("\r\n")
	case KindSimpleError:
		_, _ = dst.Write([]byte{prefixSimpleError})
		_, _ = dst.WriteString(f.Str)
		_, _ = dst.WriteString("\r\n")
	case KindInteger:
		_, _ = dst.Write([]byte{prefixInteger})
		if f.Int >= 0 {
			_, _ = dst.WriteString("+")
		}
		_, _ = dst.WriteString(strconv.FormatInt(f.Int, 10))
		_, _ = dst.WriteString("\r\n")
	case KindBulkString:
		if f.BulkNull {
			_, _ = dst.WriteString("$-1\r\n")
			return
		}
		_, _ = dst.Write([]byte{prefixBulkString})
		_, _ = dst.WriteString(strconv.Itoa(len(f.Bulk)))
		_, _ = dst.WriteString("\r\n")
		_, _ = dst.Write(f.Bulk)
		_, _ = dst.WriteString("\r\n")
	case KindArray:
		if f.ArrayNull {
			_, _ = dst.WriteString("*-1\r\n")
			return
		}
		_, _ = dst.Write([]byte{prefixArray})
		_, _ = dst.WriteString(strconv.Itoa(len(f.Array)))
		_, _ = dst.WriteString("\r\n")
		for _, e := range f.Array {
			EncodeTo(dst, e)
		}
	case KindNull:
		_, _ = dst.WriteString("_\r\n")
	case KindBoolean:
		if f.Bool {
			_, _ = dst.WriteString("#t\r\n")
		} else {
			_, _ = dst.WriteString("#f\r\n")
		}
	case KindDouble:
		_, _ = dst.Write([]byte{prefixDouble})
		_, _ = dst.WriteString(encodeDoubleText(f.Double))
		_, _ = dst.WriteString("\r\n")
	case KindMap:
		_, _ = dst.Write([]byte{prefixMap})
		_, _ = dst.WriteString(strconv.Itoa(len(f.Map)))
		_, _ = dst.WriteString("\r\n")
		entries := append([]MapEntry(nil), f.Map...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		for _, e := range entries {
			EncodeTo(dst, SimpleString(e.Key))
			EncodeTo(dst, e.Value)
		}
	case KindSet:
		_, _ = dst.Write([]byte{prefixSet})
		_, _ = dst.WriteString(strconv.Itoa(len(f.Set)))
		_, _ = dst.WriteString("\r\n")
		for _, e := range f.Set {
			EncodeTo(dst, e)
		}
	}
}

// encodeDoubleText renders the text following the `,` prefix, per §4.C:
// scientific notation outside [1e-8, 1e8], otherwise plain decimal, with
// an explicit sign always present.
func encodeDoubleText(f float64) string {
	if math.IsNaN(f) {
		return "+nan"
	}
	neg := math.Signbit(f)
	abs := math.Abs(f)

	var mag string
	switch {
	case math.IsInf(abs, 1):
		mag = "inf"
	case abs != 0 && (abs > 1e8 || abs < 1e-8):
		mag = strconv.FormatFloat(abs, 'e', -1, 64)
	default:
		mag = strconv.FormatFloat(abs, 'f', -1, 64)
	}

	if neg {
		return "-" + mag
	}
	return "+" + mag
}
