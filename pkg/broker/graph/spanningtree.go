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
	"sort"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// EliminationPredicate reports whether edge e may still be considered for
// inclusion in the tree, given the set of terminals reached so far.
// An edge is eliminable (not allowed) only when
// both endpoints are already reached AND the endpoints belong to
// different inferior networks; every intra-network edge, and every edge
// with at least one unreached endpoint, is always allowed.
type EliminationPredicate func(e WeightedEdge, reached func(model.Terminal) bool) bool

// SameInferiorNetwork builds the standard EliminationPredicate described
// above from a same-network test.
func SameInferiorNetwork(sameNetwork func(a, b model.Terminal) bool) EliminationPredicate {
	return func(e WeightedEdge, reached func(model.Terminal) bool) bool {
		if sameNetwork(e.U, e.V) {
			return true
		}
		return !reached(e.U) || !reached(e.V)
	}
}

// SpanningTree computes a minimum subset of edges that reaches every
// terminal in targets, starting from a seed terminal and growing the
// frontier edge-by-edge. At each step, among the edges allowed by
// eliminate with exactly one endpoint already reached, it picks the one
// whose unreached endpoint is nearest (per fib) to the nearest remaining
// target, breaking ties by (distance, destination key) and finally by
// stable edge order. It returns nil if some target cannot be reached.
func SpanningTree(
	edges []WeightedEdge,
	targets []model.Terminal,
	fib map[string]map[string]model.Way,
	eliminate EliminationPredicate,
) []WeightedEdge {
	if len(targets) == 0 {
		return nil
	}
	ordered := model.SortTerminals(targets)
	sorted := stableSortEdges(edges)

	reachedSet := map[string]bool{terminalKey(ordered[0]): true}
	reached := func(t model.Terminal) bool { return reachedSet[terminalKey(t)] }

	remaining := map[string]model.Terminal{}
	for _, t := range ordered[1:] {
		remaining[terminalKey(t)] = t
	}

	var tree []WeightedEdge

	for len(remaining) > 0 {
		type candidate struct {
			edge        WeightedEdge
			newTerminal model.Terminal
			distance    float64
			destKey     string
		}
		var candidates []candidate

		for _, e := range sorted {
			uReached, vReached := reached(e.U), reached(e.V)
			if uReached == vReached {
				// Either neither endpoint is reached yet (not a frontier
				// edge), or both are (redundant unless intra-network,
				// and even then it reaches nothing new).
				continue
			}
			if !eliminate(e, reached) {
				continue
			}
			newTerminal := e.V
			if vReached {
				newTerminal = e.U
			}
			dist, destKey := nearestRemaining(newTerminal, remaining, fib)
			candidates = append(candidates, candidate{edge: e, newTerminal: newTerminal, distance: dist, destKey: destKey})
		}

		if len(candidates) == 0 {
			return nil
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].distance != candidates[j].distance {
				return candidates[i].distance < candidates[j].distance
			}
			return candidates[i].destKey < candidates[j].destKey
		})
		best := candidates[0]

		tree = append(tree, best.edge)
		reachedSet[terminalKey(best.newTerminal)] = true
		delete(remaining, terminalKey(best.newTerminal))
	}

	return tree
}

// nearestRemaining returns the smallest FIB distance from t to any
// terminal still in remaining, and that destination's key (for tie
// breaking), or +Inf if the FIB has no route there at all.
func nearestRemaining(t model.Terminal, remaining map[string]model.Terminal, fib map[string]map[string]model.Way) (float64, string) {
	best := posInf
	bestKey := ""
	tk := terminalKey(t)
	for dk := range remaining {
		perSource, ok := fib[dk]
		if !ok {
			continue
		}
		way, ok := perSource[tk]
		if !ok {
			continue
		}
		if way.Distance < best {
			best = way.Distance
			bestKey = dk
		}
	}
	return best, bestKey
}

const posInf = 1e18
