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

// Package model holds the identity and value types shared by every network
// kind: terminals, circuits, traffic flows, segments and edges.
package model

import (
	"fmt"
	"sort"
)

// Terminal is a named attachment point of a network. Atomic networks
// (switches) own AtomicTerminal values directly; aggregators expose an
// AggregatorTerminal that wraps one inferior-network terminal.
type Terminal interface {
	// Name is the network-scoped name of the terminal.
	Name() string
	// NetworkName is the name of the network this terminal belongs to.
	NetworkName() string
}

// AtomicTerminal is a terminal owned by a switch. Capacity is nil until
// set, meaning unlimited.
type AtomicTerminal struct {
	name        string
	networkName string

	ingressCap *float64
	egressCap  *float64
}

// NewAtomicTerminal constructs a terminal with unlimited capacity in both
// directions.
func NewAtomicTerminal(networkName, name string) *AtomicTerminal {
	return &AtomicTerminal{name: name, networkName: networkName}
}

func (t *AtomicTerminal) Name() string        { return t.name }
func (t *AtomicTerminal) NetworkName() string { return t.networkName }

// IngressCapacity returns the current ingress cap, or nil if unlimited.
// Callers must hold the owning switch's mutex; AtomicTerminal carries no
// lock of its own, matching the switch engine's single-mutex design (see
// pkg/broker/switchnet).
func (t *AtomicTerminal) IngressCapacity() *float64 { return t.ingressCap }

// EgressCapacity returns the current egress cap, or nil if unlimited.
func (t *AtomicTerminal) EgressCapacity() *float64 { return t.egressCap }

// SetIngressCapacity replaces the ingress cap (nil means unlimited).
func (t *AtomicTerminal) SetIngressCapacity(v *float64) { t.ingressCap = v }

// SetEgressCapacity replaces the egress cap (nil means unlimited).
func (t *AtomicTerminal) SetEgressCapacity(v *float64) { t.egressCap = v }

// AggregatorTerminal is exposed by an aggregator; it holds a non-owning
// reference to the inferior-network terminal it wraps.
type AggregatorTerminal struct {
	name        string
	networkName string
	inner       Terminal
}

// NewAggregatorTerminal wraps an inferior-network terminal under the given
// externally-visible name.
func NewAggregatorTerminal(networkName, name string, inner Terminal) *AggregatorTerminal {
	return &AggregatorTerminal{name: name, networkName: networkName, inner: inner}
}

func (t *AggregatorTerminal) Name() string        { return t.name }
func (t *AggregatorTerminal) NetworkName() string { return t.networkName }

// Inner returns the wrapped inferior-network terminal.
func (t *AggregatorTerminal) Inner() Terminal { return t.inner }

// Circuit is a (terminal, label) pair, the finest-grained endpoint of a
// service. Labels are opaque at this layer.
type Circuit struct {
	Terminal Terminal
	Label    int32
}

// NewCircuit builds a Circuit.
func NewCircuit(t Terminal, label int32) Circuit {
	return Circuit{Terminal: t, Label: label}
}

func (c Circuit) String() string {
	name := "<nil>"
	if c.Terminal != nil {
		name = c.Terminal.Name()
	}
	return fmt.Sprintf("%s:%d", name, c.Label)
}

// Edge is an unordered pair of terminals. Two Edges referring to the same
// pair of terminals in either order compare equal once canonicalized via
// NewEdge.
type Edge struct {
	A, B Terminal
}

// NewEdge returns a canonically-ordered Edge so that NewEdge(a, b) ==
// NewEdge(b, a). Ordering is by (network name, terminal name) since
// terminal identity otherwise has no total order available to this
// package.
func NewEdge(a, b Terminal) Edge {
	if edgeLess(b, a) {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

func edgeLess(x, y Terminal) bool {
	if x.NetworkName() != y.NetworkName() {
		return x.NetworkName() < y.NetworkName()
	}
	return x.Name() < y.Name()
}

// SortTerminals returns a stably-ordered copy of ts, used wherever the
// spec calls for deterministic tie-breaking over a terminal set.
func SortTerminals(ts []Terminal) []Terminal {
	out := make([]Terminal, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool { return edgeLess(out[i], out[j]) })
	return out
}
