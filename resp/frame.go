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

// Package resp implements the RESP3 wire format: a Frame model, a
// streaming two-pass Decoder, and a deterministic Encoder.
package resp

import (
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies which RESP3 variant a Frame holds.
type Kind uint8

const (
	KindSimpleString Kind = iota
	KindSimpleError
	KindInteger
	KindBulkString
	KindArray
	KindNull
	KindBoolean
	KindDouble
	KindMap
	KindSet
)

// Prefix bytes, §3.1.
const (
	prefixSimpleString = '+'
	prefixSimpleError  = '-'
	prefixInteger      = ':'
	prefixBulkString   = '$'
	prefixArray        = '*'
	prefixNull         = '_'
	prefixBoolean      = '#'
	prefixDouble       = ','
	prefixMap          = '%'
	prefixSet          = '~'
)

// MapEntry is one key/value pair of a Map frame. Keys are always
// SimpleString text, per §3.1.
type MapEntry struct {
	Key   string
	Value Frame
}

// Frame is a RESP3 value. It is a closed tagged struct rather than an
// interface: every variant's payload lives in a dedicated field, and Kind
// says which one is populated. This keeps Equal/Hash/Encode exhaustive
// switches instead of a type-assertion chain.
type Frame struct {
	Kind Kind

	Str string // SimpleString, SimpleError
	Int int64  // Integer

	Bulk     []byte // BulkString payload; nil when BulkNull
	BulkNull bool

	Array     []Frame // Array elements; nil when ArrayNull
	ArrayNull bool

	Bool   bool    // Boolean
	Double float64 // Double

	Map []MapEntry // Map entries, insertion order (encoder sorts)

	Set []Frame // Set elements, insertion order
}

func SimpleString(s string) Frame { return Frame{Kind: KindSimpleString, Str: s} }
func SimpleError(s string) Frame  { return Frame{Kind: KindSimpleError, Str: s} }
func Integer(n int64) Frame       { return Frame{Kind: KindInteger, Int: n} }

func BulkString(b []byte) Frame { return Frame{Kind: KindBulkString, Bulk: b} }
func NullBulk() Frame           { return Frame{Kind: KindBulkString, BulkNull: true} }

func Array(elems []Frame) Frame { return Frame{Kind: KindArray, Array: elems} }
func NullArray() Frame          { return Frame{Kind: KindArray, ArrayNull: true} }

func Null() Frame                { return Frame{Kind: KindNull} }
func Boolean(b bool) Frame       { return Frame{Kind: KindBoolean, Bool: b} }
func DoubleFrame(f float64) Frame { return Frame{Kind: KindDouble, Double: f} }

func Map(entries []MapEntry) Frame { return Frame{Kind: KindMap, Map: entries} }
func Set(elems []Frame) Frame      { return Frame{Kind: KindSet, Set: elems} }

// OK is the process-wide SimpleString("OK") reply constant, per §9's
// "Globals" note. Frame is a value type so reuse is just a copy of a
// small struct, cheap enough that callers can also construct it fresh.
var OK = SimpleString("OK")

// IsNull reports whether f is the exact Null singleton, a null bulk
// string, or a null array. These are three distinct wire forms that all
// represent "nothing" at the application layer.
func (f Frame) IsNull() bool {
	switch f.Kind {
	case KindNull:
		return true
	case KindBulkString:
		return f.BulkNull
	case KindArray:
		return f.ArrayNull
	default:
		return false
	}
}

// Equal reports structural equality. Double compares by IEEE-754 bit
// pattern so NaN is distinguishable and equal to itself, matching §3.1's
// hashing requirement and the round-trip property in §8.1. Map compares
// as an unordered dictionary since the encoder is free to reorder keys
// (sorted) and a round-tripped Map must still compare equal.
func (a Frame) Equal(b Frame) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSimpleString, KindSimpleError:
		return a.Str == b.Str
	case KindInteger:
		return a.Int == b.Int
	case KindBulkString:
		if a.BulkNull || b.BulkNull {
			return a.BulkNull == b.BulkNull
		}
		return string(a.Bulk) == string(b.Bulk)
	case KindArray:
		if a.ArrayNull || b.ArrayNull {
			return a.ArrayNull == b.ArrayNull
		}
		return equalFrameSlice(a.Array, b.Array)
	case KindNull:
		return true
	case KindBoolean:
		return a.Bool == b.Bool
	case KindDouble:
		return math.Float64bits(a.Double) == math.Float64bits(b.Double)
	case KindMap:
		return equalMap(a.Map, b.Map)
	case KindSet:
		return equalFrameSlice(a.Set, b.Set)
	default:
		return false
	}
}

func equalFrameSlice(a, b []Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func equalMap(a, b []MapEntry) bool {
	if len(a) != len(b) {
		return false
	}
	idx := make(map[string]Frame, len(a))
	for _, e := range a {
		idx[e.Key] = e.Value
	}
	for _, e := range b {
		v, ok := idx[e.Key]
		if !ok || !v.Equal(e.Value) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash suitable for de-duplicating Frame
// values inside the backend's Set store. Every variant mixes in a kind
// discriminant so frames of different kinds never collide by accident,
// and Double hashes its bit pattern rather than its float value.
func (f Frame) Hash() uint64 {
	h := xxhash.New()
	f.writeHash(h)
	return h.Sum64()
}

func (f Frame) writeHash(h *xxhash.Digest) {
	_, _ = h.Write([]byte{byte(f.Kind)})
	switch f.Kind {
	case KindSimpleString, KindSimpleError:
		_, _ = h.Write([]byte(f.Str))
	case KindInteger:
		_, _ = h.Write(uint64Bytes(uint64(f.Int)))
	case KindBulkString:
		if f.BulkNull {
			_, _ = h.Write([]byte{0})
			return
		}
		_, _ = h.Write([]byte{1})
		_, _ = h.Write(f.Bulk)
	case KindArray:
		if f.ArrayNull {
			_, _ = h.Write([]byte{0})
			return
		}
		_, _ = h.Write([]byte{1})
		for _, e := range f.Array {
			e.writeHash(h)
		}
	case KindNull:
		// no payload
	case KindBoolean:
		if f.Bool {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	case KindDouble:
		_, _ = h.Write(uint64Bytes(math.Float64bits(f.Double)))
	case KindMap:
		// Order-independent: sort by key before mixing in, matching
		// Equal's unordered comparison.
		entries := append([]MapEntry(nil), f.Map...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		for _, e := range entries {
			_, _ = h.Write([]byte(e.Key))
			e.Value.writeHash(h)
		}
	case KindSet:
		for _, e := range f.Set {
			e.writeHash(h)
		}
	}
}

func uint64Bytes(v uint64) []byte {
	return []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
}
