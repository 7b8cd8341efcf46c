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

package trunk

import (
	"testing"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

func newTestTrunk(t *testing.T) *Trunk {
	start := model.NewAtomicTerminal("left", "a")
	end := model.NewAtomicTerminal("right", "b")
	tr := New(start, end, 5)
	if err := tr.DefineLabelRange(100, 4, 200); err != nil {
		t.Fatalf("DefineLabelRange: %v", err)
	}
	if err := tr.ProvideBandwidth(10, 10); err != nil {
		t.Fatalf("ProvideBandwidth: %v", err)
	}
	return tr
}

func TestAllocateTunnelUsesLowestFreeLabel(t *testing.T) {
	tr := newTestTrunk(t)
	c, err := tr.AllocateTunnel(3, 3)
	if err != nil {
		t.Fatalf("AllocateTunnel: %v", err)
	}
	if c == nil {
		t.Fatal("expected a tunnel")
	}
	if c.Label != 100 {
		t.Fatalf("label = %d, want 100 (lowest free)", c.Label)
	}
}

func TestAllocateTunnelRejectsInsufficientBandwidth(t *testing.T) {
	tr := newTestTrunk(t)
	c, err := tr.AllocateTunnel(100, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil tunnel when upstream bandwidth is insufficient")
	}
}

func TestReleaseTunnelRestoresBandwidthAndLabel(t *testing.T) {
	tr := newTestTrunk(t)
	c, err := tr.AllocateTunnel(4, 6)
	if err != nil || c == nil {
		t.Fatalf("AllocateTunnel: %v, %v", c, err)
	}
	if up := tr.UpstreamAvailable(); up != 6 {
		t.Fatalf("upstream available = %v, want 6", up)
	}
	if err := tr.ReleaseTunnel(*c); err != nil {
		t.Fatalf("ReleaseTunnel: %v", err)
	}
	if up := tr.UpstreamAvailable(); up != 10 {
		t.Fatalf("upstream available after release = %v, want 10", up)
	}
	if down := tr.DownstreamAvailable(); down != 10 {
		t.Fatalf("downstream available after release = %v, want 10", down)
	}
	if !tr.HasFreeLabel() {
		t.Fatal("label should be free again after release")
	}
}

func TestPeerResolvesBothDirections(t *testing.T) {
	tr := newTestTrunk(t)
	c, err := tr.AllocateTunnel(1, 1)
	if err != nil || c == nil {
		t.Fatalf("AllocateTunnel: %v, %v", c, err)
	}
	peer, err := tr.Peer(*c)
	if err != nil {
		t.Fatalf("Peer: %v", err)
	}
	if peer.Label != 200 {
		t.Fatalf("peer label = %d, want 200", peer.Label)
	}
	back, err := tr.Peer(peer)
	if err != nil {
		t.Fatalf("Peer (reverse): %v", err)
	}
	if back.Label != c.Label {
		t.Fatalf("round-trip peer label = %d, want %d", back.Label, c.Label)
	}
}

func TestLabelBijectionExclusivity(t *testing.T) {
	tr := newTestTrunk(t)
	seen := make(map[int32]bool)
	for i := 0; i < 4; i++ {
		c, err := tr.AllocateTunnel(0.1, 0.1)
		if err != nil {
			t.Fatalf("AllocateTunnel %d: %v", i, err)
		}
		if c == nil {
			t.Fatalf("AllocateTunnel %d: expected a tunnel, bandwidth not exhausted yet", i)
		}
		if seen[c.Label] {
			t.Fatalf("label %d allocated twice", c.Label)
		}
		seen[c.Label] = true
	}
	// all four start labels are now allocated; a fifth must fail.
	c, err := tr.AllocateTunnel(0.01, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected no tunnel once every label is allocated")
	}
}

func TestDefineLabelRangeRejectsOverlap(t *testing.T) {
	tr := newTestTrunk(t)
	if err := tr.DefineLabelRange(100, 1, 300); err == nil {
		t.Fatal("expected error defining an already-used start label")
	}
}

func TestWithdrawBandwidthRejectsExcess(t *testing.T) {
	tr := newTestTrunk(t)
	if err := tr.WithdrawBandwidth(100, 0); err == nil {
		t.Fatal("expected error withdrawing more than is available")
	}
}

func TestDecommissionToggle(t *testing.T) {
	tr := newTestTrunk(t)
	if !tr.IsCommissioned() {
		t.Fatal("trunk should start commissioned")
	}
	tr.Decommission()
	if tr.IsCommissioned() {
		t.Fatal("trunk should be decommissioned")
	}
	tr.Recommission()
	if !tr.IsCommissioned() {
		t.Fatal("trunk should be recommissioned")
	}
}
