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

import (
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// ComputeFIB produces, for every terminal reachable in edges, a Way toward
// every terminal in destinations: the next hop to take and the summed
// distance. It is a plain Bellman-Ford relaxation (edge weights are
// non-negative delays, so this also satisfies Dijkstra's preconditions,
// but Bellman-Ford is simpler to keep correct as edges come and go across
// planner retries).
//
// The planner recomputes the FIB from scratch on every retry iteration
// rather than patching it incrementally: incremental update is an
// implementation freedom, not an observable guarantee, and
// recomputation is simple enough to stay obviously correct across edge
// removals.
func ComputeFIB(edges []WeightedEdge, destinations []model.Terminal) map[string]map[string]model.Way {
	adj, byKey := buildAdjacency(edges)

	fib := make(map[string]map[string]model.Way)
	for _, dst := range destinations {
		dk := terminalKey(dst)
		dist := map[string]float64{dk: 0}
		next := map[string]model.Terminal{}

		changed := true
		for changed {
			changed = false
			for vk, neighbors := range adj {
				vDist, ok := dist[vk]
				if !ok {
					continue
				}
				for _, n := range neighbors {
					nk := terminalKey(n.to)
					cand := vDist + n.weight
					if cur, ok := dist[nk]; !ok || cand < cur-1e-12 {
						dist[nk] = cand
						// Standing at nk, the next hop toward dst is back
						// across the edge that was just relaxed, i.e. vk.
						next[nk] = byKey[vk]
						changed = true
					}
				}
			}
		}

		perSource := make(map[string]model.Way, len(dist))
		for sk, d := range dist {
			perSource[sk] = model.Way{NextHop: next[sk], Distance: d}
		}
		fib[dk] = perSource
	}
	return fib
}

type adjEntry struct {
	to     model.Terminal
	weight float64
}

func buildAdjacency(edges []WeightedEdge) (map[string][]adjEntry, map[string]model.Terminal) {
	adj := make(map[string][]adjEntry)
	byKey := make(map[string]model.Terminal)
	register := func(t model.Terminal) {
		k := terminalKey(t)
		byKey[k] = t
		if _, ok := adj[k]; !ok {
			adj[k] = nil
		}
	}
	for _, e := range edges {
		register(e.U)
		register(e.V)
		adj[terminalKey(e.U)] = append(adj[terminalKey(e.U)], adjEntry{to: e.V, weight: e.Weight})
		adj[terminalKey(e.V)] = append(adj[terminalKey(e.V)], adjEntry{to: e.U, weight: e.Weight})
	}
	return adj, byKey
}
