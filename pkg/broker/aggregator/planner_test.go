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

package aggregator

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/policy"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/switchnet"
)

// buildParallelTrunkTopology wires two single-terminal switches behind one
// aggregator with two parallel trunks between them: a cheap one too thin
// to carry the negotiated downstream flow, and a more expensive one with
// ample bandwidth. The cheap trunk's lower delay makes the spanning tree
// prefer it first, forcing the admission check to reject it and retry
// with the trunk excluded.
func buildParallelTrunkTopology(t *testing.T) (*Aggregator, *model.AggregatorTerminal, *model.AggregatorTerminal) {
	t.Helper()
	exec := listener.NewExecutor()

	left := switchnet.New("left", exec, nil)
	right := switchnet.New("right", exec, nil)
	lt, err := left.AddTerminal("lt")
	if err != nil {
		t.Fatalf("AddTerminal left: %v", err)
	}
	rt, err := right.AddTerminal("rt")
	if err != nil {
		t.Fatalf("AddTerminal right: %v", err)
	}

	agg := New("agg", exec, nil)
	extL, err := agg.AddTerminal("extL", left, lt)
	if err != nil {
		t.Fatalf("AddTerminal extL: %v", err)
	}
	extR, err := agg.AddTerminal("extR", right, rt)
	if err != nil {
		t.Fatalf("AddTerminal extR: %v", err)
	}

	thin, err := agg.AddTrunk(lt, rt, 1)
	if err != nil {
		t.Fatalf("AddTrunk thin: %v", err)
	}
	if err := thin.DefineLabelRange(1, 4, 101); err != nil {
		t.Fatalf("DefineLabelRange thin: %v", err)
	}
	if err := thin.ProvideBandwidth(10, 2); err != nil {
		t.Fatalf("ProvideBandwidth thin: %v", err)
	}

	wide, err := agg.AddTrunk(lt, rt, 5)
	if err != nil {
		t.Fatalf("AddTrunk wide: %v", err)
	}
	if err := wide.DefineLabelRange(1, 4, 201); err != nil {
		t.Fatalf("DefineLabelRange wide: %v", err)
	}
	if err := wide.ProvideBandwidth(100, 100); err != nil {
		t.Fatalf("ProvideBandwidth wide: %v", err)
	}

	return agg, extL, extR
}

func TestPlanRetriesPastAnUndersizedTrunk(t *testing.T) {
	agg, extL, extR := buildParallelTrunkTopology(t)

	seg := model.Segment{
		model.NewCircuit(extL, 0): {Ingress: 5, Egress: 5},
		model.NewCircuit(extR, 0): {Ingress: 5, Egress: 1},
	}

	agg.mu.Lock()
	result, err := agg.plan(seg)
	agg.mu.Unlock()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(result.tunnels) != 1 {
		t.Fatalf("got %d tunnels allocated, want 1", len(result.tunnels))
	}
	if got := result.tunnels[0].trunk.UpstreamAvailable(); got != 100-1 {
		t.Fatalf("expected the retry to land on the wide trunk, upstream available = %v", got)
	}
}

func TestPlanRejectsBlockedInnerCircuit(t *testing.T) {
	v := viper.New()
	v.Set("blocked.lt", "0")
	blocker := policy.NewCircuitBlocker(v, "blocked.")

	exec := listener.NewExecutor()
	left := switchnet.New("left", exec, nil)
	right := switchnet.New("right", exec, nil)
	lt, err := left.AddTerminal("lt")
	if err != nil {
		t.Fatalf("AddTerminal left: %v", err)
	}
	rt, err := right.AddTerminal("rt")
	if err != nil {
		t.Fatalf("AddTerminal right: %v", err)
	}

	agg := New("agg", exec, blocker)
	extL, err := agg.AddTerminal("extL", left, lt)
	if err != nil {
		t.Fatalf("AddTerminal extL: %v", err)
	}
	extR, err := agg.AddTerminal("extR", right, rt)
	if err != nil {
		t.Fatalf("AddTerminal extR: %v", err)
	}
	tr, err := agg.AddTrunk(lt, rt, 1)
	if err != nil {
		t.Fatalf("AddTrunk: %v", err)
	}
	if err := tr.DefineLabelRange(1, 4, 101); err != nil {
		t.Fatalf("DefineLabelRange: %v", err)
	}
	if err := tr.ProvideBandwidth(100, 100); err != nil {
		t.Fatalf("ProvideBandwidth: %v", err)
	}

	seg := model.Segment{
		model.NewCircuit(extL, 0): {Ingress: 5, Egress: 5},
		model.NewCircuit(extR, 0): {Ingress: 5, Egress: 5},
	}

	agg.mu.Lock()
	_, err = agg.plan(seg)
	agg.mu.Unlock()
	if err == nil {
		t.Fatal("expected plan to reject a segment naming a blocked inner circuit")
	}
}

func TestPlanExcludesTrunkWithBlockedLabel(t *testing.T) {
	v := viper.New()
	v.Set("blocked.lt", "1")
	blocker := policy.NewCircuitBlocker(v, "blocked.")

	exec := listener.NewExecutor()
	left := switchnet.New("left", exec, nil)
	right := switchnet.New("right", exec, nil)
	lt, err := left.AddTerminal("lt")
	if err != nil {
		t.Fatalf("AddTerminal left: %v", err)
	}
	rt, err := right.AddTerminal("rt")
	if err != nil {
		t.Fatalf("AddTerminal right: %v", err)
	}

	agg := New("agg", exec, blocker)
	extL, err := agg.AddTerminal("extL", left, lt)
	if err != nil {
		t.Fatalf("AddTerminal extL: %v", err)
	}
	extR, err := agg.AddTerminal("extR", right, rt)
	if err != nil {
		t.Fatalf("AddTerminal extR: %v", err)
	}

	// "thin" is preferred by the spanning tree (lower delay) and its
	// lowest free label (1 on lt) is blocked, so the planner must fall
	// back to "wide" once it discovers the block at tunnel-commit time.
	thin, err := agg.AddTrunk(lt, rt, 1)
	if err != nil {
		t.Fatalf("AddTrunk thin: %v", err)
	}
	if err := thin.DefineLabelRange(1, 4, 101); err != nil {
		t.Fatalf("DefineLabelRange thin: %v", err)
	}
	if err := thin.ProvideBandwidth(100, 100); err != nil {
		t.Fatalf("ProvideBandwidth thin: %v", err)
	}

	wide, err := agg.AddTrunk(lt, rt, 5)
	if err != nil {
		t.Fatalf("AddTrunk wide: %v", err)
	}
	if err := wide.DefineLabelRange(5, 4, 201); err != nil {
		t.Fatalf("DefineLabelRange wide: %v", err)
	}
	if err := wide.ProvideBandwidth(100, 100); err != nil {
		t.Fatalf("ProvideBandwidth wide: %v", err)
	}

	seg := model.Segment{
		model.NewCircuit(extL, 0): {Ingress: 5, Egress: 5},
		model.NewCircuit(extR, 0): {Ingress: 5, Egress: 5},
	}

	agg.mu.Lock()
	result, err := agg.plan(seg)
	agg.mu.Unlock()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(result.tunnels) != 1 {
		t.Fatalf("got %d tunnels allocated, want 1", len(result.tunnels))
	}
	if result.tunnels[0].trunk != wide {
		t.Fatal("expected the blocked-label trunk to be excluded in favor of the other trunk")
	}
	if thin.UpstreamAvailable() != 100 {
		t.Fatalf("thin trunk's bandwidth should have been rolled back, got upstream available = %v", thin.UpstreamAvailable())
	}
}

func TestPlanFailsWhenNoTrunkCanCarryTheFlow(t *testing.T) {
	agg, extL, extR := buildParallelTrunkTopology(t)

	seg := model.Segment{
		model.NewCircuit(extL, 0): {Ingress: 5, Egress: 5},
		model.NewCircuit(extR, 0): {Ingress: 5, Egress: 50},
	}

	// Shrink every trunk down to a sliver of bandwidth so none can carry
	// the negotiated flow, forcing exhaustion of the retry loop.
	agg.mu.Lock()
	for _, tr := range agg.trunks {
		_ = tr.WithdrawBandwidth(tr.UpstreamAvailable()-0.5, tr.DownstreamAvailable()-0.5)
	}
	_, err := agg.plan(seg)
	agg.mu.Unlock()
	if err == nil {
		t.Fatal("expected plan to fail once every trunk is excluded for insufficient bandwidth")
	}
}
