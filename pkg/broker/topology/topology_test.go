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

package topology

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
switches:
  - name: left
    terminals:
      - name: lt
  - name: right
    terminals:
      - name: rt
aggregators:
  - name: agg
    terminals:
      - name: extL
        innerNetwork: left
        innerTerminal: lt
      - name: extR
        innerNetwork: right
        innerTerminal: rt
    trunks:
      - startNetwork: left
        startTerminal: lt
        endNetwork: right
        endTerminal: rt
        delay: 1
        labelStartBase: 1
        labelEndBase: 101
        labelAmount: 4
        upstreamBandwidth: 100
        downstreamBandwidth: 100
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("writing sample topology: %v", err)
	}
	return path
}

func TestApplyBuildsSwitchesAggregatorsAndTrunks(t *testing.T) {
	path := writeSample(t)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	broker, err := Apply(cfg, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(broker.Switches) != 2 {
		t.Fatalf("got %d switches, want 2", len(broker.Switches))
	}
	if len(broker.Aggregators) != 1 {
		t.Fatalf("got %d aggregators, want 1", len(broker.Aggregators))
	}
	if len(broker.Trunks) != 1 {
		t.Fatalf("got %d trunks, want 1", len(broker.Trunks))
	}

	agg := broker.Network("agg")
	if agg == nil {
		t.Fatal("expected to find aggregator \"agg\" by name")
	}
	terms := agg.GetTerminals()
	if len(terms) != 2 {
		t.Fatalf("got %d aggregator terminals, want 2", len(terms))
	}

	tr := broker.Trunks[0]
	if !tr.HasFreeLabel() {
		t.Fatal("expected the configured label range to leave a free label")
	}
	if up := tr.UpstreamAvailable(); up != 100 {
		t.Fatalf("upstream bandwidth = %v, want 100", up)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/topology.yaml"); err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}

func TestApplyRejectsUnknownInferiorNetwork(t *testing.T) {
	cfg := &Config{
		Aggregators: []AggregatorConfig{{
			Name: "agg",
			Terminals: []AggTerminalConfig{{
				Name:          "ext",
				InnerNetwork:  "missing",
				InnerTerminal: "t",
			}},
		}},
	}
	if _, err := Apply(cfg, nil); err == nil {
		t.Fatal("expected an error referencing an unregistered inferior network")
	}
}
