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

package server

import (
	"net/http"

	"github.com/goccy/go-json"
)

// InfoFunc produces the document served at /debug/info. The controller
// supplies one that closes over the backend store and build info.
type InfoFunc func() any

// RegisterInfoRoute wires /debug/info, JSON-encoded with goccy/go-json
// rather than encoding/json since this is on the admin hot path.
func (s *Server) RegisterInfoRoute(fn InfoFunc) {
	s.RegisterGetRoute("/debug/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fn())
	})
}
