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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Frame
		want bool
	}{
		{"SimpleStringEqual", SimpleString("OK"), SimpleString("OK"), true},
		{"SimpleStringDiffers", SimpleString("OK"), SimpleString("NO"), false},
		{"KindMismatch", SimpleString("1"), Integer(1), false},
		{"NullBulkEqual", NullBulk(), NullBulk(), true},
		{"NullBulkVsValue", NullBulk(), BulkString([]byte{}), false},
		{"NullArrayVsArray", NullArray(), Array(nil), false},
		{"ArrayElementOrderMatters", Array([]Frame{Integer(1), Integer(2)}), Array([]Frame{Integer(2), Integer(1)}), false},
		{
			"MapOrderIndependent",
			Map([]MapEntry{{Key: "a", Value: Integer(1)}, {Key: "b", Value: Integer(2)}}),
			Map([]MapEntry{{Key: "b", Value: Integer(2)}, {Key: "a", Value: Integer(1)}}),
			true,
		},
		{"NaNEqualsSelf", DoubleFrame(math.NaN()), DoubleFrame(math.NaN()), true},
		{"PositiveZeroVsNegativeZero", DoubleFrame(0), DoubleFrame(math.Copysign(0, -1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestFrameIsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.True(t, NullBulk().IsNull())
	assert.True(t, NullArray().IsNull())
	assert.False(t, BulkString([]byte("x")).IsNull())
	assert.False(t, Integer(0).IsNull())
}

func TestFrameHashDistinguishesNaN(t *testing.T) {
	nan1 := DoubleFrame(math.NaN())
	nan2 := DoubleFrame(math.Float64frombits(math.Float64bits(math.NaN()) ^ 1))
	assert.Equal(t, nan1.Hash(), nan1.Hash())
	// Different bit patterns both called "NaN" must not collide into the
	// same structural identity.
	assert.NotEqual(t, math.Float64bits(nan1.Double), math.Float64bits(nan2.Double))
	assert.NotEqual(t, nan1.Hash(), nan2.Hash())
}

func TestFrameHashOrderIndependentForMap(t *testing.T) {
	m1 := Map([]MapEntry{{Key: "a", Value: Integer(1)}, {Key: "b", Value: Integer(2)}})
	m2 := Map([]MapEntry{{Key: "b", Value: Integer(2)}, {Key: "a", Value: Integer(1)}})
	assert.Equal(t, m1.Hash(), m2.Hash())
}

func TestFrameHashDistinguishesKind(t *testing.T) {
	assert.NotEqual(t, SimpleString("1").Hash(), Integer(1).Hash())
}
