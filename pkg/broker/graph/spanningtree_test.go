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

func allowAll(model.Terminal, model.Terminal) bool { return true }

func TestSpanningTreeReachesEveryTarget(t *testing.T) {
	a, b, c := term("a"), term("b"), term("c")
	edges := []WeightedEdge{
		{U: a, V: b, Weight: 1},
		{U: b, V: c, Weight: 1},
	}
	targets := []model.Terminal{a, b, c}
	fib := ComputeFIB(edges, targets)

	tree := SpanningTree(edges, targets, fib, SameInferiorNetwork(allowAll))
	if len(tree) != 2 {
		t.Fatalf("got %d tree edges, want 2", len(tree))
	}

	reached := map[string]bool{terminalKey(a): true}
	for _, e := range tree {
		reached[terminalKey(e.U)] = true
		reached[terminalKey(e.V)] = true
	}
	for _, tgt := range targets {
		if !reached[terminalKey(tgt)] {
			t.Fatalf("target %v not reached by spanning tree", tgt)
		}
	}
}

func TestSpanningTreeReturnsNilWhenUnreachable(t *testing.T) {
	a, b, isolated := term("a"), term("b"), term("isolated")
	edges := []WeightedEdge{{U: a, V: b, Weight: 1}}
	targets := []model.Terminal{a, b, isolated}
	fib := ComputeFIB(edges, targets)

	tree := SpanningTree(edges, targets, fib, SameInferiorNetwork(allowAll))
	if tree != nil {
		t.Fatalf("expected nil tree when a target is unreachable, got %v", tree)
	}
}
