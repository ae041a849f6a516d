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

package command

import (
	"github.com/respd/respd/backend"
	"github.com/respd/respd/resp"
)

// Config governs the two behaviors spec.md §9 flags as open questions
// and leaves to the implementer's judgment. Both default to the
// current observable behavior described in the spec; see DESIGN.md.
type Config struct {
	// StrictUnknown, when true, replies `-ERR unknown command` to an
	// unrecognised command instead of the placeholder `+OK`.
	StrictUnknown bool `config:"strictUnknown"`

	// ReplyErrorOnParseFailure, when true, replies `-ERR <message>` and
	// keeps the connection open on a command parse failure, instead of
	// treating the parse failure as fatal.
	ReplyErrorOnParseFailure bool `config:"replyErrorOnParseFailure"`
}

// Dispatch parses frame and executes it against store. fatal reports
// whether the connection handler must close the connection: true only
// when parsing failed and cfg.ReplyErrorOnParseFailure is false (the
// default), matching §7.
func Dispatch(frame resp.Frame, store *backend.Store, cfg Config) (reply resp.Frame, fatal bool) {
	cmd, err := Parse(frame)
	if err != nil {
		if cfg.ReplyErrorOnParseFailure {
			return resp.SimpleError("ERR " + err.Error()), false
		}
		return resp.Frame{}, true
	}

	if cmd.Kind == KindUnrecognized {
		store.IncCommand("UNRECOGNIZED")
		if cfg.StrictUnknown {
			return resp.SimpleError("ERR unknown command"), false
		}
		return resp.OK, false
	}

	store.IncCommand(cmd.Name)
	return Execute(cmd, store), false
}

// Execute runs a validated, recognised Command against store and
// produces its reply frame, per §4.F's reply table. Backend operations
// do not fail (§7); Execute never returns an error.
func Execute(cmd Command, store *backend.Store) resp.Frame {
	switch cmd.Kind {
	case KindGet:
		if v, ok := store.Get(cmd.Key); ok {
			return v
		}
		return resp.Null()

	case KindSet:
		store.Set(cmd.Key, cmd.Value)
		return resp.OK

	case KindHGet:
		if v, ok := store.HGet(cmd.Key, cmd.Field); ok {
			return v
		}
		return resp.Null()

	case KindHSet:
		store.HSet(cmd.Key, cmd.Field, cmd.Value)
		return resp.OK

	case KindHGetAll:
		entries, ok := store.HGetAll(cmd.Key)
		if !ok {
			return resp.Array([]resp.Frame{})
		}
		out := make([]resp.Frame, 0, len(entries)*2)
		for _, e := range entries {
			out = append(out, resp.BulkString([]byte(e.Key)), e.Value)
		}
		return resp.Array(out)

	case KindHMGet:
		return resp.Array(store.HMGet(cmd.Key, cmd.Fields))

	case KindEcho:
		return store.Echo(cmd.Text)

	case KindSAdd:
		if store.SAdd(cmd.Key, cmd.Member) == backend.SAddAdded {
			return resp.Integer(1)
		}
		return resp.Integer(0)

	case KindSIsMember:
		if store.SIsMember(cmd.Key, cmd.Member) {
			return resp.Integer(1)
		}
		return resp.Integer(0)

	default:
		return resp.SimpleError("ERR internal: unexecutable command")
	}
}
