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

	"github.com/spf13/cobra"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/topology"
)

func modelCommand() *cobra.Command {
	var (
		topologyFile string
		networkName  string
		minBandwidth float64
	)

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Print the connectivity a network reports between its own external terminals",
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
			for edge, metrics := range net.GetModel(minBandwidth) {
				fmt.Printf("%s <-> %s: distance=%g\n", edge.A.Name(), edge.B.Name(), metrics.Distance)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topologyFile, "topology", "", "path to a YAML bootstrap file")
	cmd.Flags().StringVar(&networkName, "network", "", "name of the switch or aggregator to query")
	cmd.Flags().Float64Var(&minBandwidth, "min-bandwidth", 0, "only report chords carrying at least this much bandwidth")
	cmd.MarkFlagRequired("topology")
	cmd.MarkFlagRequired("network")

	return cmd
}
