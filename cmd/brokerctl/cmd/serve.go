// Copyright DataPlaneBroker Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/remote"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/topology"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func serveCommand() *cobra.Command {
	var (
		topologyFile string
		networkName  string
		addr         string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Present one network from a topology over a JSON/websocket channel",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := topology.Load(topologyFile)
			if err != nil {
				return err
			}
			broker, err := topology.Apply(cfg, nil)
			if err != nil {
				return err
			}
			net := broker.Network(networkName)
			if net == nil {
				return fmt.Errorf("no such network %q", networkName)
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				c, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					log.Errorf("upgrading connection: %v", err)
					return
				}
				sess := remote.NewSession(c, net)
				go func() {
					if err := sess.Serve(); err != nil {
						log.Infof("session ended: %v", err)
					}
				}()
			})

			fmt.Printf("serving network %q on %s\n", networkName, addr)
			return http.ListenAndServe(addr, mux)
		},
	}

	cmd.Flags().StringVar(&topologyFile, "topology", "", "path to a YAML bootstrap file")
	cmd.Flags().StringVar(&networkName, "network", "", "name of the switch or aggregator to present")
	cmd.Flags().StringVar(&addr, "addr", ":8910", "address to listen on")
	cmd.MarkFlagRequired("topology")
	cmd.MarkFlagRequired("network")

	return cmd
}
