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

package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/respd/respd/common"
)

// RegisterMetrics wires the keys/hash_fields/set_members GaugeFuncs,
// which lazily sum shard sizes on scrape so normal operations never pay
// a metrics-bookkeeping cost, plus the commandsTotal/activeConnections
// collectors that IncCommand/IncConnection/DecConnection already
// maintain regardless of whether this is ever called.
func (s *Store) RegisterMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "backend",
		Name:      "keys",
		Help:      "Number of keys in the flat key/value store.",
	}, func() float64 { return float64(s.Stats().Keys) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "backend",
		Name:      "hash_fields",
		Help:      "Number of fields across all hashes.",
	}, func() float64 { return float64(s.Stats().Fields) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "backend",
		Name:      "set_members",
		Help:      "Number of members across all sets.",
	}, func() float64 { return float64(s.Stats().Members) })

	reg.MustRegister(s.commandsTotal, s.activeConnections)
}
