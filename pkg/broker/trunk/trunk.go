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

// Package trunk implements the per-trunk resource manager: the label
// bijection, the free-label bitset, the per-direction bandwidth ledgers
// and tunnel allocation. A Trunk's operations are all
// expected to be serialized on the owning aggregator's mutex; Trunk keeps
// its own mutex too so it remains safe if ever driven directly (e.g. from
// a test), but in production the aggregator never calls into a Trunk
// without already holding its own lock.
package trunk

import (
	"math"
	"sync"

	"go.uber.org/atomic"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Trunk is a bandwidth-capped, labelled link between two terminals of
// inferior networks, owned by an aggregator.
type Trunk struct {
	mu sync.Mutex

	start, end model.Terminal
	delay      float64

	upstreamAvail   float64
	downstreamAvail float64

	// startToEnd/endToStart form the label bijection. Every key present
	// in startToEnd is either free or allocated; never both, never
	// neither.
	startToEnd map[int32]int32
	endToStart map[int32]int32
	free       map[int32]bool

	upstreamAlloc   map[int32]float64
	downstreamAlloc map[int32]float64

	commissioned *atomic.Bool
}

// New creates a Trunk between start and end with the given delay. It has
// no label ranges and no bandwidth until DefineLabelRange and
// ProvideBandwidth are called; it starts commissioned, per spec.
func New(start, end model.Terminal, delay float64) *Trunk {
	return &Trunk{
		start:           start,
		end:             end,
		delay:           delay,
		startToEnd:      make(map[int32]int32),
		endToStart:      make(map[int32]int32),
		free:            make(map[int32]bool),
		upstreamAlloc:   make(map[int32]float64),
		downstreamAlloc: make(map[int32]float64),
		commissioned:    atomic.NewBool(true),
	}
}

func (t *Trunk) Start() model.Terminal { return t.start }
func (t *Trunk) End() model.Terminal   { return t.end }
func (t *Trunk) Delay() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// SetDelay changes the trunk's additive routing metric.
func (t *Trunk) SetDelay(d float64) error {
	if d < 0 {
		return model.NewInvalidArgument("trunk delay must be non-negative")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
	return nil
}

func (t *Trunk) Decommission()      { t.commissioned.Store(false) }
func (t *Trunk) Recommission()      { t.commissioned.Store(true) }
func (t *Trunk) IsCommissioned() bool { return t.commissioned.Load() }

// UpstreamAvailable and DownstreamAvailable report the bandwidth
// currently free for new allocation in each direction ("upstream" is
// start->end).
func (t *Trunk) UpstreamAvailable() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.upstreamAvail
}

func (t *Trunk) DownstreamAvailable() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.downstreamAvail
}

// HasFreeLabel reports whether any start-side label is currently free.
func (t *Trunk) HasFreeLabel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.free) > 0
}

// ProvideBandwidth adds to both ledgers.
func (t *Trunk) ProvideBandwidth(up, down float64) error {
	if up < 0 || down < 0 {
		return model.NewInvalidArgument("bandwidth to provide must be non-negative")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.upstreamAvail += up
	t.downstreamAvail += down
	return nil
}

// WithdrawBandwidth removes from both ledgers; fails if either amount is
// negative or exceeds what is currently available (not yet allocated).
func (t *Trunk) WithdrawBandwidth(up, down float64) error {
	if up < 0 || down < 0 {
		return model.NewInvalidArgument("bandwidth to withdraw must be non-negative")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if up > t.upstreamAvail {
		return model.NewInvalidArgument("cannot withdraw %v upstream, only %v available", up, t.upstreamAvail)
	}
	if down > t.downstreamAvail {
		return model.NewInvalidArgument("cannot withdraw %v downstream, only %v available", down, t.downstreamAvail)
	}
	t.upstreamAvail -= up
	t.downstreamAvail -= down
	return nil
}

// DefineLabelRange adds [startBase, startBase+amount) <-> [endBase,
// endBase+amount) to both bijections and marks the start-side labels
// free. The full validity check runs before any mutation, so a failure
// leaves the trunk completely unchanged.
func (t *Trunk) DefineLabelRange(startBase, amount, endBase int32) error {
	if amount <= 0 {
		return model.NewInvalidArgument("label range amount must be positive")
	}
	if !representable(startBase, amount) {
		return model.NewInvalidArgument("start label range [%d, %d) is not representable", startBase, int64(startBase)+int64(amount))
	}
	if !representable(endBase, amount) {
		return model.NewInvalidArgument("end label range [%d, %d) is not representable", endBase, int64(endBase)+int64(amount))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := int32(0); i < amount; i++ {
		s := startBase + i
		e := endBase + i
		if _, ok := t.startToEnd[s]; ok {
			return model.NewNameInUse("start label %d already defined", s)
		}
		if _, ok := t.endToStart[e]; ok {
			return model.NewNameInUse("end label %d already defined", e)
		}
	}

	for i := int32(0); i < amount; i++ {
		s := startBase + i
		e := endBase + i
		t.startToEnd[s] = e
		t.endToStart[e] = s
		t.free[s] = true
	}
	return nil
}

func representable(base, amount int32) bool {
	sum := int64(base) + int64(amount)
	return sum <= math.MaxInt32 && sum >= math.MinInt32
}

// RevokeStartLabelRange removes [startBase, startBase+amount) from both
// bijections and the free set. Unknown labels are silently skipped
// (best-effort, matching the source this spec was distilled from).
// Labels currently allocated are removed too: it is the aggregator's
// responsibility never to revoke a label range while tunnels on it are
// still held, since this call does not check allocation state.
func (t *Trunk) RevokeStartLabelRange(startBase, amount int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := int32(0); i < amount; i++ {
		s := startBase + i
		e, ok := t.startToEnd[s]
		if !ok {
			continue
		}
		delete(t.startToEnd, s)
		delete(t.endToStart, e)
		delete(t.free, s)
		delete(t.upstreamAlloc, s)
		delete(t.downstreamAlloc, s)
	}
}

// RevokeEndLabelRange is the symmetric operation over end-side labels.
func (t *Trunk) RevokeEndLabelRange(endBase, amount int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := int32(0); i < amount; i++ {
		e := endBase + i
		s, ok := t.endToStart[e]
		if !ok {
			continue
		}
		delete(t.startToEnd, s)
		delete(t.endToStart, e)
		delete(t.free, s)
		delete(t.upstreamAlloc, s)
		delete(t.downstreamAlloc, s)
	}
}

// AllocateTunnel reserves the lowest free start-side label with enough
// bandwidth in both directions, returning the start-side Circuit. It
// returns (nil, nil) if no free label has sufficient bandwidth — that is
// not itself an error, just "no tunnel available" — and a non-nil error
// only for invalid arguments.
func (t *Trunk) AllocateTunnel(up, down float64) (*model.Circuit, error) {
	if up < 0 || down < 0 {
		return nil, model.NewInvalidArgument("tunnel bandwidth must be non-negative")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if up > t.upstreamAvail || down > t.downstreamAvail {
		return nil, nil
	}

	label, ok := t.lowestFreeLabelLocked()
	if !ok {
		return nil, nil
	}

	t.upstreamAvail -= up
	t.downstreamAvail -= down
	t.upstreamAlloc[label] = up
	t.downstreamAlloc[label] = down
	delete(t.free, label)

	c := model.NewCircuit(t.start, label)
	return &c, nil
}

func (t *Trunk) lowestFreeLabelLocked() (int32, bool) {
	found := false
	var lowest int32
	for l := range t.free {
		if !found || l < lowest {
			lowest = l
			found = true
		}
	}
	return lowest, found
}

// ReleaseTunnel returns both bandwidths for the tunnel named by circuit
// (which may be given as either the start- or end-side label) and marks
// the label free again.
func (t *Trunk) ReleaseTunnel(circuit model.Circuit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	label, err := t.resolveStartLabelLocked(circuit)
	if err != nil {
		return err
	}
	if t.free[label] {
		return model.NewInvalidArgument("label %d is not currently allocated", label)
	}
	up, ok1 := t.upstreamAlloc[label]
	down, ok2 := t.downstreamAlloc[label]
	if !ok1 || !ok2 {
		return model.NewInvalidArgument("label %d has no recorded allocation", label)
	}

	t.upstreamAvail += up
	t.downstreamAvail += down
	delete(t.upstreamAlloc, label)
	delete(t.downstreamAlloc, label)
	t.free[label] = true
	return nil
}

// Peer returns the other end of the tunnel named by circuit, or an error
// if circuit belongs to neither of this trunk's terminals.
func (t *Trunk) Peer(circuit model.Circuit) (model.Circuit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case sameTerminal(circuit.Terminal, t.start):
		e, ok := t.startToEnd[circuit.Label]
		if !ok {
			return model.Circuit{}, model.NewNotFound("label %d is unknown on trunk start side", circuit.Label)
		}
		return model.NewCircuit(t.end, e), nil
	case sameTerminal(circuit.Terminal, t.end):
		s, ok := t.endToStart[circuit.Label]
		if !ok {
			return model.Circuit{}, model.NewNotFound("label %d is unknown on trunk end side", circuit.Label)
		}
		return model.NewCircuit(t.start, s), nil
	default:
		return model.Circuit{}, model.NewInvalidArgument("circuit %v belongs to neither end of this trunk", circuit)
	}
}

// resolveStartLabelLocked maps either end's circuit to the start-side
// label, the ledgers' canonical key.
func (t *Trunk) resolveStartLabelLocked(circuit model.Circuit) (int32, error) {
	switch {
	case sameTerminal(circuit.Terminal, t.start):
		if _, ok := t.startToEnd[circuit.Label]; !ok {
			return 0, model.NewInvalidArgument("label %d is unknown on trunk start side", circuit.Label)
		}
		return circuit.Label, nil
	case sameTerminal(circuit.Terminal, t.end):
		s, ok := t.endToStart[circuit.Label]
		if !ok {
			return 0, model.NewInvalidArgument("label %d is unknown on trunk end side", circuit.Label)
		}
		return s, nil
	default:
		return 0, model.NewInvalidArgument("circuit %v belongs to neither end of this trunk", circuit)
	}
}

func sameTerminal(a, b model.Terminal) bool {
	return a.NetworkName() == b.NetworkName() && a.Name() == b.Name()
}

// AllocationFor reports the upstream and downstream bandwidth held by the
// tunnel at the given start-side label.
func (t *Trunk) AllocationFor(startLabel int32) (up, down float64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	up, ok1 := t.upstreamAlloc[startLabel]
	down, ok2 := t.downstreamAlloc[startLabel]
	return up, down, ok1 && ok2
}
