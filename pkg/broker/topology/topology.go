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

// Package topology loads a network hierarchy from YAML bootstrap files
// and applies it through the in-process contract of pkg/broker/switchnet,
// pkg/broker/aggregator and pkg/broker/trunk — the loader is not part of
// the runtime API, since the core never opens files or sockets itself,
// only a convenience for building one from disk.
package topology

import (
	"os"

	"gopkg.in/yaml.v3"
	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/aggregator"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/policy"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/switchnet"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/trunk"
)

var scope = log.RegisterScope("topology", "YAML bootstrap loader for switches, aggregators and trunks", 0)

// Config is the top-level bootstrap document.
type Config struct {
	Switches    []SwitchConfig    `yaml:"switches"`
	Aggregators []AggregatorConfig `yaml:"aggregators"`
}

// SwitchConfig describes one atomic network and its terminals.
type SwitchConfig struct {
	Name      string             `yaml:"name"`
	Terminals []TerminalConfig   `yaml:"terminals"`
}

// TerminalConfig describes one terminal's capacity. A nil pointer means
// unlimited in that direction; an explicit value must be non-negative.
type TerminalConfig struct {
	Name    string   `yaml:"name"`
	Ingress *float64 `yaml:"ingress,omitempty"`
	Egress  *float64 `yaml:"egress,omitempty"`
}

// AggregatorConfig describes one composite network: the terminals it
// exposes (each naming an already-defined switch or aggregator terminal
// to wrap) and the trunks linking its inferior networks.
type AggregatorConfig struct {
	Name      string                `yaml:"name"`
	Terminals []AggTerminalConfig   `yaml:"terminals"`
	Trunks    []TrunkConfig         `yaml:"trunks"`
}

// AggTerminalConfig names the externally-visible terminal and the
// network/terminal pair it wraps.
type AggTerminalConfig struct {
	Name          string `yaml:"name"`
	InnerNetwork  string `yaml:"innerNetwork"`
	InnerTerminal string `yaml:"innerTerminal"`
}

// TrunkConfig describes one trunk: its two endpoints (by network/terminal
// name), its delay, label ranges and provided bandwidth.
type TrunkConfig struct {
	StartNetwork string  `yaml:"startNetwork"`
	StartTerminal string `yaml:"startTerminal"`
	EndNetwork   string  `yaml:"endNetwork"`
	EndTerminal  string  `yaml:"endTerminal"`
	Delay        float64 `yaml:"delay"`

	LabelStartBase int32 `yaml:"labelStartBase"`
	LabelEndBase   int32 `yaml:"labelEndBase"`
	LabelAmount    int32 `yaml:"labelAmount"`

	UpstreamBandwidth   float64 `yaml:"upstreamBandwidth"`
	DownstreamBandwidth float64 `yaml:"downstreamBandwidth"`
}

// Load parses the YAML document at path into a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewInvalidArgument("reading topology file %q: %v", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, model.NewInvalidArgument("parsing topology file %q: %v", path, err)
	}
	return &cfg, nil
}

// Broker is the realized set of networks and trunks built from a Config,
// keyed by name for later lookup (e.g. by cmd/brokerctl).
type Broker struct {
	Switches    map[string]*switchnet.Switch
	Aggregators map[string]*aggregator.Aggregator
	Trunks      []*trunk.Trunk
}

// Network returns the named switch or aggregator as a model.Network, or
// nil if neither owns that name.
func (b *Broker) Network(name string) model.Network {
	if sw, ok := b.Switches[name]; ok {
		return sw
	}
	if a, ok := b.Aggregators[name]; ok {
		return a
	}
	return nil
}

// Apply builds a Broker by applying cfg's switches, then its aggregators
// and trunks, against a freshly-created shared executor. blocker may be
// nil.
func Apply(cfg *Config, blocker *policy.CircuitBlocker) (*Broker, error) {
	exec := listener.NewExecutor()
	b := &Broker{
		Switches:    make(map[string]*switchnet.Switch),
		Aggregators: make(map[string]*aggregator.Aggregator),
	}

	for _, sc := range cfg.Switches {
		sw := switchnet.New(sc.Name, exec, blocker)
		for _, tc := range sc.Terminals {
			t, err := sw.AddTerminal(tc.Name)
			if err != nil {
				return nil, err
			}
			t.SetIngressCapacity(tc.Ingress)
			t.SetEgressCapacity(tc.Egress)
		}
		b.Switches[sc.Name] = sw
		scope.Infof("loaded switch %q with %d terminals", sc.Name, len(sc.Terminals))
	}

	for _, ac := range cfg.Aggregators {
		agg := aggregator.New(ac.Name, exec, blocker)
		for _, tc := range ac.Terminals {
			net := b.Network(tc.InnerNetwork)
			if net == nil {
				return nil, model.NewNotFound("aggregator %q terminal %q names unknown inferior network %q", ac.Name, tc.Name, tc.InnerNetwork)
			}
			inner, err := net.GetTerminal(tc.InnerTerminal)
			if err != nil {
				return nil, err
			}
			if _, err := agg.AddTerminal(tc.Name, net, inner); err != nil {
				return nil, err
			}
		}
		for _, trc := range ac.Trunks {
			startNet := b.Network(trc.StartNetwork)
			endNet := b.Network(trc.EndNetwork)
			if startNet == nil || endNet == nil {
				return nil, model.NewNotFound("trunk on aggregator %q names an unknown inferior network", ac.Name)
			}
			start, err := startNet.GetTerminal(trc.StartTerminal)
			if err != nil {
				return nil, err
			}
			end, err := endNet.GetTerminal(trc.EndTerminal)
			if err != nil {
				return nil, err
			}
			tr, err := agg.AddTrunk(start, end, trc.Delay)
			if err != nil {
				return nil, err
			}
			if trc.LabelAmount > 0 {
				if err := tr.DefineLabelRange(trc.LabelStartBase, trc.LabelAmount, trc.LabelEndBase); err != nil {
					return nil, err
				}
			}
			if trc.UpstreamBandwidth > 0 || trc.DownstreamBandwidth > 0 {
				if err := tr.ProvideBandwidth(trc.UpstreamBandwidth, trc.DownstreamBandwidth); err != nil {
					return nil, err
				}
			}
			b.Trunks = append(b.Trunks, tr)
		}
		b.Aggregators[ac.Name] = agg
		scope.Infof("loaded aggregator %q with %d terminals, %d trunks", ac.Name, len(ac.Terminals), len(ac.Trunks))
	}

	return b, nil
}
