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

package model

import "testing"

func TestNewTrafficFlowRejectsNegative(t *testing.T) {
	if _, err := NewTrafficFlow(-1, 0); err == nil {
		t.Fatal("expected error for negative ingress")
	}
	if _, err := NewTrafficFlow(0, -1); err == nil {
		t.Fatal("expected error for negative egress")
	}
}

func TestTrafficFlowInvert(t *testing.T) {
	f := TrafficFlow{Ingress: 3, Egress: 7}
	inv := f.Invert()
	if inv.Ingress != 7 || inv.Egress != 3 {
		t.Fatalf("Invert() = %+v, want {7 3}", inv)
	}
}

func TestSanitizeClampsIngressFloor(t *testing.T) {
	term := NewAtomicTerminal("sw", "a")
	seg := Segment{
		NewCircuit(term, 0): {Ingress: 0, Egress: 0},
	}
	out := Sanitize(seg, 0.01)
	for _, f := range out {
		if f.Ingress != 0.01 {
			t.Fatalf("ingress = %v, want 0.01", f.Ingress)
		}
	}
}

func TestSanitizeBoundsEgressByOthersIngress(t *testing.T) {
	term := NewAtomicTerminal("sw", "a")
	a := NewCircuit(term, 0)
	b := NewCircuit(term, 1)
	seg := Segment{
		a: {Ingress: 2, Egress: 100},
		b: {Ingress: 3, Egress: 0},
	}
	out := Sanitize(seg, 0.01)
	total := out.TotalIngress()
	for c, f := range out {
		max := total - f.Ingress
		if f.Egress > max+1e-9 {
			t.Fatalf("circuit %v: egress %v exceeds bound %v", c, f.Egress, max)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	term := NewAtomicTerminal("sw", "a")
	seg := Segment{
		NewCircuit(term, 0): {Ingress: 0, Egress: 50},
		NewCircuit(term, 1): {Ingress: 10, Egress: 5},
	}
	once := Sanitize(seg, 0.01)
	twice := Sanitize(once, 0.01)
	for c, f := range once {
		g, ok := twice[c]
		if !ok || f != g {
			t.Fatalf("sanitize not idempotent at circuit %v: %+v vs %+v", c, f, g)
		}
	}
}

func TestNewEdgeCanonicalizesOrder(t *testing.T) {
	a := NewAtomicTerminal("sw", "a")
	b := NewAtomicTerminal("sw", "b")
	if NewEdge(a, b) != NewEdge(b, a) {
		t.Fatal("NewEdge should be order-independent")
	}
}
