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

package graph

import "github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"

// AdjacencyGroups partitions terminals by the equivalence closure of edge
// incidence: two terminals are in the same group iff there is a path
// between them using only the given edges. The aggregator planner does
// not call it: it addresses each sub-Segment to an inferior network by
// name rather than to a computed terminal group.
func AdjacencyGroups(edges []WeightedEdge, terminals []model.Terminal) [][]model.Terminal {
	uf := newUnionFind()
	for _, t := range terminals {
		uf.add(terminalKey(t))
	}
	for _, e := range edges {
		uf.add(terminalKey(e.U))
		uf.add(terminalKey(e.V))
		uf.union(terminalKey(e.U), terminalKey(e.V))
	}

	byTerminal := make(map[string]model.Terminal, len(terminals))
	for _, t := range terminals {
		byTerminal[terminalKey(t)] = t
	}

	groups := make(map[string][]model.Terminal)
	for _, t := range terminals {
		root := uf.find(terminalKey(t))
		groups[root] = append(groups[root], t)
	}

	out := make([][]model.Terminal, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.SortTerminals(g))
	}
	return out
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(k string) {
	if _, ok := u.parent[k]; !ok {
		u.parent[k] = k
	}
}

func (u *unionFind) find(k string) string {
	u.add(k)
	for u.parent[k] != k {
		u.parent[k] = u.parent[u.parent[k]]
		k = u.parent[k]
	}
	return k
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
