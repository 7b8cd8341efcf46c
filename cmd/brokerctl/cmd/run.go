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
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/topology"
)

func runCommand() *cobra.Command {
	var (
		topologyFile string
		networkName  string
		flows        []string
		holdActive   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a topology, open a service on one network, and drive it through define/activate/release",
		Example: `  brokerctl run --topology demo.yaml --network core \
    --flow edge-a=10,5 --flow edge-b=5,10 --hold 2s`,
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

			svc, err := net.NewService(model.CreationContext{}, nil)
			if err != nil {
				return err
			}
			if svc == nil {
				return fmt.Errorf("service handle already in use")
			}
			svc.AddListener(model.ListenerFunc(func(status model.Status) {
				fmt.Printf("service %d -> %s\n", svc.ID(), status)
			}))

			seg, err := parseFlows(net, flows)
			if err != nil {
				return err
			}
			if err := svc.Define(seg); err != nil {
				return err
			}
			if err := svc.Activate(); err != nil {
				return err
			}

			time.Sleep(holdActive)

			if err := svc.Release(); err != nil {
				return err
			}
			for _, e := range svc.Errors() {
				fmt.Printf("service %d error: %v\n", svc.ID(), e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topologyFile, "topology", "", "path to a YAML bootstrap file")
	cmd.Flags().StringVar(&networkName, "network", "", "name of the switch or aggregator to open the service on")
	cmd.Flags().StringArrayVar(&flows, "flow", nil, "terminal=ingress,egress, repeatable")
	cmd.Flags().DurationVar(&holdActive, "hold", time.Second, "how long to stay active before releasing")
	cmd.MarkFlagRequired("topology")
	cmd.MarkFlagRequired("network")

	return cmd
}

// parseFlows turns repeated --flow terminal=ingress,egress flags into a
// Segment against net's own terminals.
func parseFlows(net model.Network, flows []string) (model.Segment, error) {
	seg := make(model.Segment, len(flows))
	for _, f := range flows {
		name, rest, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --flow %q, want terminal=ingress,egress", f)
		}
		parts := strings.Split(rest, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --flow %q, want terminal=ingress,egress", f)
		}
		ingress, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("--flow %q: %v", f, err)
		}
		egress, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("--flow %q: %v", f, err)
		}
		t, err := net.GetTerminal(name)
		if err != nil {
			return nil, err
		}
		flow, err := model.NewTrafficFlow(ingress, egress)
		if err != nil {
			return nil, err
		}
		seg[model.NewCircuit(t, 0)] = flow
	}
	return seg, nil
}
