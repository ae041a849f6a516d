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
	"errors"
	"net"
	"sync"

	"github.com/respd/respd/backend"
	"github.com/respd/respd/command"
	"github.com/respd/respd/confengine"
	"github.com/respd/respd/internal/rescue"
	"github.com/respd/respd/logger"
	"github.com/respd/respd/transport"
)

// RespConfig is unpacked from the top-level `server` config section: the
// RESP3 TCP listener's own knobs, distinct from the admin surface's.
type RespConfig struct {
	Address string `config:"address"`
}

// RespServer accepts RESP3 connections and serves them against a shared
// backend.Store, one goroutine per connection, per spec.md §4.G/§5.
type RespServer struct {
	config   RespConfig
	commands command.Config
	store    *backend.Store
	listener net.Listener
}

// NewResp returns the RESP3 TCP server. It does not bind a listener
// until ListenAndServe is called. cmdConfig governs the open-question
// behaviors from spec.md §9 (unpacked by the caller from the top-level
// `commands` section, since it is shared with nothing server-specific).
func NewResp(conf *confengine.Config, store *backend.Store, cmdConfig command.Config) (*RespServer, error) {
	var config RespConfig
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	if config.Address == "" {
		config.Address = "0.0.0.0:6378"
	}
	return &RespServer{config: config, commands: cmdConfig, store: store}, nil
}

// ListenAndServe binds the RESP3 listener and serves connections until
// the listener is closed, at which point it returns nil.
func (s *RespServer) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = l
	logger.Infof("resp server listening on %s", s.config.Address)

	for {
		nc, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handle(nc)
	}
}

// Addr reports the bound listener address, or "" before ListenAndServe
// has bound it.
func (s *RespServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops accepting new connections. Connections already in flight
// run to completion on their own goroutines.
func (s *RespServer) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *RespServer) handle(nc net.Conn) {
	defer rescue.HandleCrash()

	c := transport.New(nc)
	s.store.IncConnection()
	defer func() {
		s.store.DecConnection()
		logger.Debugf("connection %s closed after %ds", c.ID, c.Age())
		c.Close()
	}()
	logger.Debugf("accepted connection %s from %s", c.ID, c.RemoteAddr)

	for {
		frame, err := c.Next()
		if err != nil {
			logger.Debugf("connection %s closing: %v", c.ID, err)
			return
		}

		reply, fatal := command.Dispatch(frame, s.store, s.commands)
		if fatal {
			logger.Debugf("connection %s closing on command error", c.ID)
			return
		}
		if err := c.Send(reply); err != nil {
			logger.Debugf("connection %s write failed: %v", c.ID, err)
			return
		}
	}
}
