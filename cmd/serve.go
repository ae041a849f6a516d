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

package cmd

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/respd/respd/common"
	"github.com/respd/respd/confengine"
	"github.com/respd/respd/controller"
	"github.com/respd/respd/internal/sigs"
)

// serveCmdConfig holds the flag-driven defaults used when --config is
// not given. Mirrors the shape of the teacher's watchCmdConfig/
// logCmdConfig: a small struct rendered through a YAML template rather
// than hand-assembled into a confengine.Config.
type serveCmdConfig struct {
	ConfigPath    string
	Address       string
	AdminEnabled  bool
	AdminAddress  string
	Pprof         bool
	Shards        int
	ReplyOnError  bool
	StrictUnknown bool
	Console       bool
}

const serveYamlTemplate = `
server:
  address: {{ .Address }}

admin:
  enabled: {{ .AdminEnabled }}
  address: {{ .AdminAddress }}
  pprof: {{ .Pprof }}
  timeout: 5s

backend:
  shards: {{ .Shards }}

commands:
  replyErrorOnParseFailure: {{ .ReplyOnError }}
  strictUnknown: {{ .StrictUnknown }}

logger:
  stdout: {{ .Console }}
`

// Yaml renders the in-memory config overlay, applying --set overrides
// for address, shards and pprof on top of the flag defaults via
// common.Options; other --set keys are ignored (the cast
// conversions mirror how the teacher's Options type normalizes
// loosely-typed values pulled from outside cobra's own typed flags).
func (c *serveCmdConfig) Yaml(overrides common.Options) []byte {
	if v, ok := overrides["address"]; ok {
		if s, err := cast.ToStringE(v); err == nil {
			c.Address = s
		}
	}
	if v, err := overrides.GetInt("shards"); err == nil {
		c.Shards = v
	}
	if v, err := overrides.GetBool("pprof"); err == nil {
		c.Pprof = v
	}

	tpl, err := template.New("serve").Parse(serveYamlTemplate)
	if err != nil {
		return nil
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, c); err != nil {
		return nil
	}
	return buf.Bytes()
}

var (
	serveConfig serveCmdConfig
	serveSets   []string
)

// parseSets turns repeated --set key=value flags into a common.Options,
// the generic escape hatch for overriding a flag-rendered config without
// adding a dedicated cobra flag for every knob.
func parseSets(sets []string) common.Options {
	opts := common.NewOptions()
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		opts.Merge(k, v)
	}
	return opts
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RESP3 server",
	Run: func(cmd *cobra.Command, args []string) {
		var cfg *confengine.Config
		var err error
		if serveConfig.ConfigPath != "" {
			cfg, err = confengine.LoadConfigPath(serveConfig.ConfigPath)
		} else {
			cfg, err = confengine.LoadContent(serveConfig.Yaml(parseSets(serveSets)))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		ctr, err := controller.New(cfg, common.GetBuildInfo())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
			os.Exit(1)
		}
		if err := ctr.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			os.Exit(1)
		}

		<-sigs.Terminate()
		if err := ctr.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		}
	},
	Example: "# respd serve --address 0.0.0.0:6378 --admin-address 0.0.0.0:6379 --set shards=16",
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig.ConfigPath, "config", "", "Configuration file path (overrides the flags below entirely)")
	serveCmd.Flags().StringVar(&serveConfig.Address, "address", "0.0.0.0:6378", "RESP3 TCP listener address")
	serveCmd.Flags().BoolVar(&serveConfig.AdminEnabled, "admin", true, "Enable the admin HTTP surface")
	serveCmd.Flags().StringVar(&serveConfig.AdminAddress, "admin-address", "0.0.0.0:6379", "Admin HTTP listener address")
	serveCmd.Flags().BoolVar(&serveConfig.Pprof, "pprof", false, "Expose net/http/pprof routes on the admin surface")
	serveCmd.Flags().IntVar(&serveConfig.Shards, "shards", 0, "Backend shard count override; <= 0 uses the default heuristic")
	serveCmd.Flags().BoolVar(&serveConfig.ReplyOnError, "reply-error-on-parse-failure", false, "Reply -ERR instead of closing the connection on a malformed command")
	serveCmd.Flags().BoolVar(&serveConfig.StrictUnknown, "strict-unknown", false, "Reply -ERR unknown command instead of +OK for unrecognized commands")
	serveCmd.Flags().BoolVar(&serveConfig.Console, "console", false, "Log to stdout instead of the log file")
	serveCmd.Flags().StringArrayVar(&serveSets, "set", nil, "Override address, shards or pprof as key=value (e.g. --set shards=16)")
	rootCmd.AddCommand(serveCmd)
}
