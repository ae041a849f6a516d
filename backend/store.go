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

// Package backend implements the concurrent in-memory store shared by
// every connection: a flat key/value map, a hash-of-maps, and a set of
// frames, each sharded to avoid a single global lock.
package backend

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/respd/respd/common"
	"github.com/respd/respd/resp"
)

// shard holds one bucket's worth of all three stores. Distinct keys
// that hash to distinct shards never contend, per §5.
type shard struct {
	mu   sync.RWMutex
	kv   map[string]resp.Frame
	hash map[string]map[string]resp.Frame
	set  map[string]map[uint64]resp.Frame
}

func newShard() *shard {
	return &shard{
		kv:   make(map[string]resp.Frame),
		hash: make(map[string]map[string]resp.Frame),
		set:  make(map[string]map[uint64]resp.Frame),
	}
}

// Store is the Backend of spec.md §3.2/§4.E: a Store is created once at
// process start, shared by every connection handler, and torn down at
// process end.
type Store struct {
	shards []*shard
	mask   uint64

	// commandsTotal and activeConnections are created unregistered so
	// that IncCommand/IncConnection/DecConnection are always safe to
	// call, even before (or without) RegisterMetrics wiring them into a
	// Prometheus registry.
	commandsTotal     *prometheus.CounterVec
	activeConnections prometheus.Gauge
}

// New creates a Store sharded across n buckets, rounded up to the next
// power of two. n <= 0 uses common.Concurrency() as a default, the same
// heuristic the teacher uses for worker pool sizing.
func New(n int) *Store {
	if n <= 0 {
		n = common.Concurrency()
	}
	n = nextPowerOfTwo(n)

	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = newShard()
	}
	return &Store{
		shards: shards,
		mask:   uint64(n - 1),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "backend",
			Name:      "commands_total",
			Help:      "Commands dispatched, by command name.",
		}, []string{"command"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: common.App,
			Subsystem: "backend",
			Name:      "active_connections",
			Help:      "Number of currently open RESP3 connections.",
		}),
	}
}

// IncCommand records one dispatch of the named command (upper-cased,
// matching command.Command.Name; "UNRECOGNIZED" for the catch-all).
func (s *Store) IncCommand(name string) {
	s.commandsTotal.WithLabelValues(name).Inc()
}

// IncConnection records one RESP3 connection being accepted.
func (s *Store) IncConnection() {
	s.activeConnections.Inc()
}

// DecConnection records one RESP3 connection closing.
func (s *Store) DecConnection() {
	s.activeConnections.Dec()
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)&s.mask]
}

// Get implements `get(key) -> Frame?`.
func (s *Store) Get(key string) (resp.Frame, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	f, ok := sh.kv[key]
	return f, ok
}

// Set implements `set(key, value)`; previous value discarded.
func (s *Store) Set(key string, value resp.Frame) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.kv[key] = value
}

// HGet implements `hget(key, field) -> Frame?`.
func (s *Store) HGet(key, field string) (resp.Frame, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	h, ok := sh.hash[key]
	if !ok {
		return resp.Frame{}, false
	}
	f, ok := h[field]
	return f, ok
}

// HSet implements `hset(key, field, value)`, creating the hash if
// absent.
func (s *Store) HSet(key, field string, value resp.Frame) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	h, ok := sh.hash[key]
	if !ok {
		h = make(map[string]resp.Frame)
		sh.hash[key] = h
	}
	h[field] = value
}

// HGetAll implements `hgetall(key) -> (field, value) pairs?`. The
// returned slice is a snapshot: later mutations of the hash are not
// observed through it, matching §5's "consistent snapshot, not
// linearizable" guarantee.
func (s *Store) HGetAll(key string) ([]resp.MapEntry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	h, ok := sh.hash[key]
	if !ok {
		return nil, false
	}
	entries := make([]resp.MapEntry, 0, len(h))
	for field, v := range h {
		entries = append(entries, resp.MapEntry{Key: field, Value: v})
	}
	return entries, true
}

// HMGet looks up several fields of one hash in one snapshot, returning
// a Frame per field (Null where absent). Used by the HMGET command.
func (s *Store) HMGet(key string, fields []string) []resp.Frame {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make([]resp.Frame, len(fields))
	h := sh.hash[key]
	for i, field := range fields {
		if v, ok := h[field]; ok {
			out[i] = v
		} else {
			out[i] = resp.Null()
		}
	}
	return out
}

// SAddResult is the outcome of `sadd`, matching §4.E's reserved Error
// arm (never produced by this store; member insertion cannot fail).
type SAddResult int

const (
	SAddExisted SAddResult = iota
	SAddAdded
)

// SAdd implements `sadd(key, member)`.
func (s *Store) SAdd(key string, member resp.Frame) SAddResult {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	set, ok := sh.set[key]
	if !ok {
		set = make(map[uint64]resp.Frame)
		sh.set[key] = set
	}
	h := member.Hash()
	if existing, ok := set[h]; ok && existing.Equal(member) {
		return SAddExisted
	}
	set[h] = member
	return SAddAdded
}

// SIsMember implements `sismember(key, member) -> bool`.
func (s *Store) SIsMember(key string, member resp.Frame) bool {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	set, ok := sh.set[key]
	if !ok {
		return false
	}
	existing, ok := set[member.Hash()]
	return ok && existing.Equal(member)
}

// Echo implements `echo(text) -> Frame`. It touches no shard; it is a
// pure function of its argument.
func (s *Store) Echo(text []byte) resp.Frame {
	return resp.BulkString(append([]byte(nil), text...))
}

// Stats summarizes the store's current size, used by the admin
// surface's debug endpoint and by Prometheus gauges.
type Stats struct {
	Keys    int
	Hashes  int
	Fields  int
	SetKeys int
	Members int
}

func (s *Store) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		sh.mu.RLock()
		st.Keys += len(sh.kv)
		st.Hashes += len(sh.hash)
		for _, h := range sh.hash {
			st.Fields += len(h)
		}
		st.SetKeys += len(sh.set)
		for _, set := range sh.set {
			st.Members += len(set)
		}
		sh.mu.RUnlock()
	}
	return st
}
