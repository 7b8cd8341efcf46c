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

// Prune iteratively removes spur vertices: terminals of degree 1 that
// keep(t) reports as non-essential. Each removal can create a new spur,
// so the pass repeats until the edge set stops shrinking.
func Prune(edges []WeightedEdge, keep func(model.Terminal) bool) []WeightedEdge {
	current := append([]WeightedEdge(nil), edges...)
	for {
		degree := make(map[string]int)
		byKey := make(map[string]model.Terminal)
		for _, e := range current {
			degree[terminalKey(e.U)]++
			degree[terminalKey(e.V)]++
			byKey[terminalKey(e.U)] = e.U
			byKey[terminalKey(e.V)] = e.V
		}

		var next []WeightedEdge
		removed := false
		for _, e := range current {
			uSpur := degree[terminalKey(e.U)] == 1 && !keep(e.U)
			vSpur := degree[terminalKey(e.V)] == 1 && !keep(e.V)
			if uSpur || vSpur {
				removed = true
				continue
			}
			next = append(next, e)
		}
		current = next
		if !removed {
			return current
		}
	}
}
