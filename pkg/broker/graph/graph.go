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

// Package graph implements the utility layer the aggregator planner
// builds on: distance-vector FIBs, spanning-tree
// construction with a guide and an elimination predicate, adjacency
// grouping, and spur pruning. None of it is specific to trunks or
// services; it operates purely on terminals and weighted edges.
package graph

import (
	"sort"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// WeightedEdge is one edge of the graph the planner routes over: either a
// trunk (weight = delay) or an inferior network's self-reported internal
// connectivity (weight = that network's getModel distance).
type WeightedEdge struct {
	U, V   model.Terminal
	Weight float64
	// Ref carries the caller's identity for this edge (e.g. a *trunk.Trunk
	// or nil for an inferior-network model edge) so the planner can map
	// a chosen tree edge back to the resource it came from without a
	// second lookup.
	Ref interface{}
}

// Other returns the endpoint of e that isn't t.
func (e WeightedEdge) Other(t model.Terminal) model.Terminal {
	if sameTerminal(e.U, t) {
		return e.V
	}
	return e.U
}

func sameTerminal(a, b model.Terminal) bool {
	return a.NetworkName() == b.NetworkName() && a.Name() == b.Name()
}

func terminalKey(t model.Terminal) string {
	return t.NetworkName() + "/" + t.Name()
}

// stableSortEdges orders edges deterministically so that tie-breaking
// elsewhere in this package (and in the planner) is reproducible.
func stableSortEdges(edges []WeightedEdge) []WeightedEdge {
	out := make([]WeightedEdge, len(edges))
	copy(out, edges)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := terminalKey(out[i].U)+terminalKey(out[i].V), terminalKey(out[j].U)+terminalKey(out[j].V)
		return ki < kj
	})
	return out
}
