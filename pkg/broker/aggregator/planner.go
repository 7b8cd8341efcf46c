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
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/graph"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/metrics"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/trunk"
)

const posInf = 1e18

func terminalKey(t model.Terminal) string { return t.NetworkName() + "/" + t.Name() }

// innerTerminal is implemented by model.AggregatorTerminal; declared
// locally so the planner can unwrap an external circuit's terminal
// without importing a concrete type it doesn't otherwise need.
type innerTerminal interface {
	Inner() model.Terminal
}

// tunnelAllocation is one trunk edge admitted and committed by the
// planner: the start-side circuit AllocateTunnel returned, and the
// up/down bandwidth negotiated for it.
type tunnelAllocation struct {
	trunk *trunk.Trunk
	start model.Circuit
	end   model.Circuit
	up    float64
	down  float64
}

// planResult is the planner's output: the sub-Segment to submit to each
// inferior network, and the tunnels allocated to carry it, kept so the
// service can release them later.
type planResult struct {
	subSegments map[string]model.Segment
	tunnels     []tunnelAllocation
}

// buildFullGraphLocked returns the full routed graph: every registered
// trunk, plus every registered inferior network's self-reported model,
// filtered to edges at least minBandwidth wide. Callers must hold a.mu.
func (a *Aggregator) buildFullGraphLocked(minBandwidth float64) []graph.WeightedEdge {
	var edges []graph.WeightedEdge
	for _, tr := range a.trunks {
		if tr.UpstreamAvailable() < minBandwidth && tr.DownstreamAvailable() < minBandwidth {
			continue
		}
		edges = append(edges, graph.WeightedEdge{U: tr.Start(), V: tr.End(), Weight: tr.Delay(), Ref: tr})
	}
	for _, net := range a.networks {
		for e, m := range net.GetModel(minBandwidth) {
			edges = append(edges, graph.WeightedEdge{U: e.A, V: e.B, Weight: m.Distance})
		}
	}
	return edges
}

// plan runs the admission-retry loop against seg, expressed in terms of
// this aggregator's own terminals. Callers must
// hold a.mu; plan allocates trunk tunnels as a side effect of a
// successful run (rolled back internally if a later retry iteration
// invalidates them).
func (a *Aggregator) plan(seg model.Segment) (*planResult, error) {
	// Step 1: map external circuits to their inferior-network circuits.
	innerSeg := make(model.Segment, len(seg))
	minProd := posInf
	for c, f := range seg {
		it, ok := c.Terminal.(innerTerminal)
		if !ok {
			return nil, model.NewInvalidService("circuit %v does not belong to aggregator %q", c, a.name)
		}
		inner := it.Inner()
		innerCircuit := model.NewCircuit(inner, c.Label)
		if a.blocker.IsBlocked(innerCircuit) {
			return nil, model.NewInvalidService("circuit %v is administratively blocked", innerCircuit)
		}
		innerSeg[innerCircuit] = f
		if f.Ingress < minProd {
			minProd = f.Ingress
		}
	}
	if len(innerSeg) == 0 {
		return nil, model.NewInvalidArgument("segment must name at least one circuit")
	}

	destinations := make(map[string]model.Terminal, len(innerSeg))
	perTerminal := make(map[string]model.TrafficFlow, len(innerSeg))
	for c, f := range innerSeg {
		k := terminalKey(c.Terminal)
		destinations[k] = c.Terminal
		perTerminal[k] = perTerminal[k].Add(f)
	}
	dests := make([]model.Terminal, 0, len(destinations))
	for _, t := range destinations {
		dests = append(dests, t)
	}

	excluded := make(map[*trunk.Trunk]bool)

	for {
		// Step 2: select trunks.
		var trunkEdges []graph.WeightedEdge
		for _, tr := range a.trunks {
			if excluded[tr] {
				continue
			}
			if !tr.IsCommissioned() || !tr.HasFreeLabel() {
				continue
			}
			if tr.UpstreamAvailable() < minProd && tr.DownstreamAvailable() < minProd {
				continue
			}
			trunkEdges = append(trunkEdges, graph.WeightedEdge{U: tr.Start(), V: tr.End(), Weight: tr.Delay(), Ref: tr})
		}

		// Step 3: build the routed graph.
		var modelEdges []graph.WeightedEdge
		for _, net := range a.networks {
			for e, m := range net.GetModel(minProd) {
				modelEdges = append(modelEdges, graph.WeightedEdge{U: e.A, V: e.B, Weight: m.Distance})
			}
		}
		allEdges := append(append([]graph.WeightedEdge(nil), trunkEdges...), modelEdges...)
		allEdges = graph.Prune(allEdges, func(t model.Terminal) bool {
			_, isDest := destinations[terminalKey(t)]
			return isDest
		})

		// Step 4: route.
		fib := graph.ComputeFIB(allEdges, dests)

		// Step 5: plan tree.
		eliminate := graph.SameInferiorNetwork(func(u, v model.Terminal) bool {
			return u.NetworkName() == v.NetworkName()
		})
		tree := graph.SpanningTree(allEdges, dests, fib, eliminate)
		if tree == nil {
			return nil, model.NewInvalidService("no spanning tree reaches every requested terminal")
		}

		// Step 6: admission check.
		worstShortfall := 0.0
		var worstTrunk *trunk.Trunk
		type edgeDemand struct {
			tr       *trunk.Trunk
			up, down float64
		}
		var demands []edgeDemand

		for _, e := range tree {
			tr, ok := e.Ref.(*trunk.Trunk)
			if !ok {
				continue
			}
			uSide, vSide := bisect(tree, e)
			uIngress, uEgress := sumFlows(uSide, perTerminal)
			vIngress, vEgress := sumFlows(vSide, perTerminal)

			requiredUp := min(uIngress, vEgress)
			requiredDown := min(vIngress, uEgress)

			shortfall := 0.0
			if over := requiredUp - tr.UpstreamAvailable(); over > 0 {
				shortfall += over
			}
			if over := requiredDown - tr.DownstreamAvailable(); over > 0 {
				shortfall += over
			}
			if shortfall > worstShortfall {
				worstShortfall = shortfall
				worstTrunk = tr
			}
			demands = append(demands, edgeDemand{tr: tr, up: requiredUp, down: requiredDown})
		}

		// Step 7: retry or commit.
		if worstTrunk != nil {
			excluded[worstTrunk] = true
			metrics.PlannerRetries.Increment()
			metrics.AdmissionShortfalls.Increment()
			continue
		}

		allocations := make([]tunnelAllocation, 0, len(demands))
		rollback := func() {
			for _, al := range allocations {
				_ = al.trunk.ReleaseTunnel(al.start)
			}
		}
		blockedTrunk := false
		for _, d := range demands {
			start, err := d.tr.AllocateTunnel(d.up, d.down)
			if err != nil || start == nil {
				metrics.TunnelAllocationFailures.Increment()
				rollback()
				return nil, model.NewInvalidService("trunk could not allocate a tunnel for the negotiated bandwidth")
			}
			end, err := d.tr.Peer(*start)
			if err != nil {
				rollback()
				return nil, err
			}
			// A trunk's label assignment is only known after allocation
			// (lowest free label), so the blocker can only be consulted
			// here: a blocked label on either side excludes the whole
			// trunk and retries step 2-6 with it out of the running,
			// the same way an admission shortfall does.
			if a.blocker.IsBlocked(*start) || a.blocker.IsBlocked(end) {
				_ = d.tr.ReleaseTunnel(*start)
				rollback()
				excluded[d.tr] = true
				blockedTrunk = true
				break
			}
			allocations = append(allocations, tunnelAllocation{trunk: d.tr, start: *start, end: end, up: d.up, down: d.down})
		}
		if blockedTrunk {
			continue
		}

		// Sub-requests are keyed by inferior network name rather than by
		// the computed terminal-group partition; see the "sub-request
		// keying" entry in DESIGN.md's Open Question decisions for why.
		network := func(t model.Terminal) string { return t.NetworkName() }

		subSegments := make(map[string]model.Segment)
		addFlow := func(c model.Circuit, f model.TrafficFlow) {
			net := network(c.Terminal)
			if subSegments[net] == nil {
				subSegments[net] = make(model.Segment)
			}
			subSegments[net][c] = subSegments[net][c].Add(f)
		}
		for c, f := range innerSeg {
			addFlow(c, f)
		}
		for _, al := range allocations {
			startFlow := model.TrafficFlow{Ingress: al.down, Egress: al.up}
			addFlow(al.start, startFlow)
			addFlow(al.end, startFlow.Invert())
		}

		return &planResult{subSegments: subSegments, tunnels: allocations}, nil
	}
}

// bisect partitions every terminal incident to tree into two sides: the
// component reached from removed.U and the component reached from
// removed.V, once removed itself is excluded.
func bisect(tree []graph.WeightedEdge, removed graph.WeightedEdge) (map[string]bool, map[string]bool) {
	adj := make(map[string][]model.Terminal)
	byKey := make(map[string]model.Terminal)
	for _, e := range tree {
		if sameEdge(e, removed) {
			continue
		}
		uk, vk := terminalKey(e.U), terminalKey(e.V)
		byKey[uk], byKey[vk] = e.U, e.V
		adj[uk] = append(adj[uk], e.V)
		adj[vk] = append(adj[vk], e.U)
	}
	side := func(seed model.Terminal) map[string]bool {
		visited := map[string]bool{terminalKey(seed): true}
		queue := []model.Terminal{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range adj[terminalKey(cur)] {
				if !visited[terminalKey(n)] {
					visited[terminalKey(n)] = true
					queue = append(queue, n)
				}
			}
		}
		return visited
	}
	return side(removed.U), side(removed.V)
}

func sameEdge(a, b graph.WeightedEdge) bool {
	ak, bk := terminalKey(a.U)+terminalKey(a.V), terminalKey(b.U)+terminalKey(b.V)
	return ak == bk && a.Ref == b.Ref
}

func sumFlows(side map[string]bool, perTerminal map[string]model.TrafficFlow) (ingress, egress float64) {
	for k := range side {
		f := perTerminal[k]
		ingress += f.Ingress
		egress += f.Egress
	}
	return
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
