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
	"testing"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

func term(name string) model.Terminal { return model.NewAtomicTerminal("net", name) }

func TestComputeFIBShortestPath(t *testing.T) {
	a, b, c := term("a"), term("b"), term("c")
	edges := []WeightedEdge{
		{U: a, V: b, Weight: 1},
		{U: b, V: c, Weight: 1},
		{U: a, V: c, Weight: 10},
	}
	fib := ComputeFIB(edges, []model.Terminal{c})

	way, ok := fib[terminalKey(c)][terminalKey(a)]
	if !ok {
		t.Fatal("expected a route from a to c")
	}
	if way.Distance != 2 {
		t.Fatalf("distance a->c = %v, want 2 (via b)", way.Distance)
	}
}

func TestComputeFIBUnreachableOmitted(t *testing.T) {
	a, b, isolated := term("a"), term("b"), term("isolated")
	edges := []WeightedEdge{{U: a, V: b, Weight: 1}}
	fib := ComputeFIB(edges, []model.Terminal{b})
	if _, ok := fib[terminalKey(b)][terminalKey(isolated)]; ok {
		t.Fatal("expected no route to an edge-less terminal")
	}
}

func TestAdjacencyGroupsPartitionsConnectedComponents(t *testing.T) {
	a, b, c, d := term("a"), term("b"), term("c"), term("d")
	edges := []WeightedEdge{{U: a, V: b, Weight: 1}}
	groups := AdjacencyGroups(edges, []model.Terminal{a, b, c, d})
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 ({a,b},{c},{d})", len(groups))
	}
}

func TestPruneRemovesSpurs(t *testing.T) {
	a, b, c, d := term("a"), term("b"), term("c"), term("d")
	edges := []WeightedEdge{
		{U: a, V: b, Weight: 1},
		{U: b, V: c, Weight: 1},
		{U: c, V: d, Weight: 1},
	}
	// keep only b and c; a and d are non-essential leaves and should be
	// pruned away, leaving just the b-c edge.
	pruned := Prune(edges, func(t model.Terminal) bool {
		return sameTerminal(t, b) || sameTerminal(t, c)
	})
	if len(pruned) != 1 {
		t.Fatalf("got %d edges after pruning, want 1", len(pruned))
	}
	e := pruned[0]
	if !((sameTerminal(e.U, b) && sameTerminal(e.V, c)) || (sameTerminal(e.U, c) && sameTerminal(e.V, b))) {
		t.Fatalf("unexpected surviving edge %+v, want b-c", e)
	}
}
