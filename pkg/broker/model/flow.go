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

import "math"

// TrafficFlow is a pair of non-negative bandwidth demands. Ingress is
// traffic entering the network at the circuit; egress leaves it.
type TrafficFlow struct {
	Ingress float64
	Egress  float64
}

// NewTrafficFlow validates and constructs a TrafficFlow. Negative or NaN
// components are rejected at construction so that invalid flows can never
// enter a Segment.
func NewTrafficFlow(ingress, egress float64) (TrafficFlow, error) {
	if math.IsNaN(ingress) || math.IsNaN(egress) {
		return TrafficFlow{}, NewInvalidArgument("traffic flow components must not be NaN")
	}
	if ingress < 0 || egress < 0 {
		return TrafficFlow{}, NewInvalidArgument("traffic flow components must be non-negative")
	}
	return TrafficFlow{Ingress: ingress, Egress: egress}, nil
}

// Invert swaps ingress and egress, used when translating a flow between a
// circuit's two directions (e.g. a tunnel's start-side vs. end-side view).
func (f TrafficFlow) Invert() TrafficFlow {
	return TrafficFlow{Ingress: f.Egress, Egress: f.Ingress}
}

// Add combines two flows componentwise.
func (f TrafficFlow) Add(o TrafficFlow) TrafficFlow {
	return TrafficFlow{Ingress: f.Ingress + o.Ingress, Egress: f.Egress + o.Egress}
}

// Segment is a service's request: a map from circuit to the bidirectional
// bandwidth demanded at it. The union of all ingresses is the total
// traffic entering the service.
type Segment map[Circuit]TrafficFlow

// Clone returns a shallow copy of the segment map.
func (s Segment) Clone() Segment {
	out := make(Segment, len(s))
	for c, f := range s {
		out[c] = f
	}
	return out
}

// TotalIngress sums the ingress component across every circuit.
func (s Segment) TotalIngress() float64 {
	var total float64
	for _, f := range s {
		total += f.Ingress
	}
	return total
}

// Sanitize returns a new Segment guaranteeing:
//
//  1. every circuit's ingress is >= minProd;
//  2. every circuit's egress is <= (sum of all ingresses) - its own
//     ingress.
//
// Applying Sanitize twice with the same minProd is a no-op on its own
// output (see TestSanitizeIdempotent): clamping ingress up to minProd
// first, then clamping egress against the resulting total, already
// satisfies both bounds, so a second pass changes nothing.
func Sanitize(s Segment, minProd float64) Segment {
	out := make(Segment, len(s))
	for c, f := range s {
		ingress := f.Ingress
		if ingress < minProd {
			ingress = minProd
		}
		out[c] = TrafficFlow{Ingress: ingress, Egress: f.Egress}
	}

	total := out.TotalIngress()
	for c, f := range out {
		max := total - f.Ingress
		if max < 0 {
			max = 0
		}
		if f.Egress > max {
			f.Egress = max
		}
		out[c] = f
	}
	return out
}
