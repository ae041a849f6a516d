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

package common

const (
	// App is the application name, used as the metrics namespace.
	App = "respd"

	// Version is the application version.
	Version = "v0.1.0"

	// ReadWriteBlockSize is the chunk size used for each Read off a
	// connection's socket before handing the bytes to the framed
	// connection's accumulate buffer. Frames may span many chunks;
	// this only bounds one syscall's worth of bytes.
	ReadWriteBlockSize = 4096
)
