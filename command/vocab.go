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

// Package command parses inbound Array frames into typed commands and
// executes them against a backend.Store, per spec §4.F.
package command

import (
	_ "embed"
	"strconv"
	"strings"
)

// variadicArity marks a command whose argument count is "1 + whatever
// remains" (only HMGET uses this, per §4.F).
const variadicArity = -1

//go:embed command.list
var vocabContent string

// vocabulary maps an upper-cased command name to its argument count
// (excluding the name itself), or variadicArity for HMGET.
var vocabulary map[string]int

func init() {
	vocabulary = make(map[string]int)
	for _, line := range strings.Split(vocabContent, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			panic("command: malformed command.list entry: " + line)
		}
		vocabulary[fields[0]] = n
	}
}
