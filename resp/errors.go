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

import "github.com/pkg/errors"

// ErrIncomplete signals that buf holds a prefix of a frame; the caller
// must retry decoding after more bytes arrive. It is never wrapped, so
// callers can compare it directly with errors.Is.
var ErrIncomplete = errors.New("resp: incomplete frame")

// ErrorKind classifies a decode failure, mirroring the taxonomy in §4.B.
type ErrorKind uint8

const (
	ErrInvalidFrameType ErrorKind = iota
	ErrInvalidFrame
	ErrInvalidFrameLength
	ErrParseInt
	ErrParseFloat
)

// DecodeError is returned for anything other than ErrIncomplete. The
// connection must be closed on any DecodeError; see §7.
type DecodeError struct {
	Kind ErrorKind
	Msg  string
}

func (e *DecodeError) Error() string { return e.Msg }

func malformed(kind ErrorKind, format string, args ...interface{}) error {
	return &DecodeError{Kind: kind, Msg: errors.Errorf(format, args...).Error()}
}
