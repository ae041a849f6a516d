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

// Package controller wires configuration, logging, the backend store,
// the RESP3 TCP server and the optional admin HTTP surface together, and
// owns their combined lifecycle. It plays the role the teacher's
// controller package plays for its sniffer/pipeline/exporter stack.
package controller

import (
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/respd/respd/backend"
	"github.com/respd/respd/command"
	"github.com/respd/respd/common"
	"github.com/respd/respd/confengine"
	"github.com/respd/respd/internal/fasttime"
	"github.com/respd/respd/logger"
	"github.com/respd/respd/server"
)

// Config holds the top-level `commands` config section and the
// `backend.shards` override.
type Config struct {
	Commands command.Config `config:"commands"`

	// Shards overrides the backend's shard count; <= 0 uses the
	// default heuristic (common.Concurrency(), rounded up to a power
	// of two).
	Shards int `config:"shards"`
}

// Controller owns the whole running process: the backend store, the
// RESP3 listener, and the optional admin HTTP listener.
type Controller struct {
	cfg       Config
	buildInfo common.BuildInfo

	store *backend.Store
	resp  *server.RespServer
	admin *server.Server
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}
	if opts.Filename == "" {
		opts.Filename = "respd.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}
	logger.SetOptions(opts)
	return nil
}

// New builds a Controller from conf, ready to Start.
func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("commands", &cfg.Commands); err != nil {
		return nil, err
	}
	if conf.Has("backend") {
		var backendCfg struct {
			Shards int `config:"shards"`
		}
		if err := conf.UnpackChild("backend", &backendCfg); err != nil {
			return nil, err
		}
		cfg.Shards = backendCfg.Shards
	}

	store := backend.New(cfg.Shards)
	store.RegisterMetrics(prometheus.DefaultRegisterer)

	resp, err := server.NewResp(conf, store, cfg.Commands)
	if err != nil {
		return nil, err
	}

	admin, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:       cfg,
		buildInfo: buildInfo,
		store:     store,
		resp:      resp,
		admin:     admin,
	}, nil
}

// Start launches the RESP3 listener and, if configured, the admin HTTP
// listener on their own goroutines and returns without waiting for them
// to bind. A bind failure is logged, not returned.
func (c *Controller) Start() error {
	go func() {
		if err := c.resp.ListenAndServe(); err != nil {
			logger.Errorf("resp server stopped: %v", err)
		}
	}()

	if c.admin != nil {
		c.setupAdminRoutes()
		go func() {
			err := c.admin.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("admin server stopped: %v", err)
			}
		}()
	}
	return nil
}

func (c *Controller) setupAdminRoutes() {
	c.admin.RegisterGetRoute("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	c.admin.RegisterInfoRoute(func() any {
		st := c.store.Stats()
		return map[string]any{
			"version":     c.buildInfo.Version,
			"gitHash":     c.buildInfo.GitHash,
			"buildTime":   c.buildInfo.Time,
			"uptime":      fasttime.UnixTimestamp() - common.Started(),
			"keys":        st.Keys,
			"hashes":      st.Hashes,
			"hashFields":  st.Fields,
			"setKeys":     st.SetKeys,
			"setMembers":  st.Members,
		}
	})
}

// Stop closes both listeners, combining any shutdown errors.
func (c *Controller) Stop() error {
	var result *multierror.Error
	if err := c.resp.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.admin != nil {
		if err := c.admin.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
