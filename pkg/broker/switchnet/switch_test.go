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

package switchnet

import (
	"sync"
	"testing"
	"time"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

func newTestSwitch(t *testing.T) *Switch {
	t.Helper()
	return New("sw", listener.NewExecutor(), nil)
}

// statusRecorder collects every status delivered, synchronized since
// delivery always runs on the switch's executor goroutine.
type statusRecorder struct {
	mu   sync.Mutex
	seen []model.Status
}

func (r *statusRecorder) NewStatus(s model.Status) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *statusRecorder) snapshot() []model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Status(nil), r.seen...)
}

func waitForStatus(t *testing.T, r *statusRecorder, want model.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		seen := r.snapshot()
		if len(seen) > 0 && seen[len(seen)-1] == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %v, saw %v", want, r.snapshot())
}

func TestDefineActivateReleaseLifecycle(t *testing.T) {
	sw := newTestSwitch(t)
	term, err := sw.AddTerminal("a")
	if err != nil {
		t.Fatalf("AddTerminal: %v", err)
	}

	svc, err := sw.NewService(model.CreationContext{}, nil)
	if err != nil || svc == nil {
		t.Fatalf("NewService: %v, %v", svc, err)
	}
	rec := &statusRecorder{}
	svc.AddListener(rec)

	seg := model.Segment{model.NewCircuit(term, 0): {Ingress: 1, Egress: 1}}
	if err := svc.Define(seg); err != nil {
		t.Fatalf("Define: %v", err)
	}
	waitForStatus(t, rec, model.Inactive)

	if err := svc.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	waitForStatus(t, rec, model.Active)

	if err := svc.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	waitForStatus(t, rec, model.Released)

	seen := rec.snapshot()
	want := []model.Status{model.Establishing, model.Inactive, model.Activating, model.Active, model.Deactivating, model.Inactive, model.Releasing, model.Released}
	if len(seen) != len(want) {
		t.Fatalf("status sequence = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("status sequence = %v, want %v", seen, want)
		}
	}
}

func TestDefineRejectsCapacityOverrun(t *testing.T) {
	sw := newTestSwitch(t)
	term, err := sw.AddTerminal("a")
	if err != nil {
		t.Fatalf("AddTerminal: %v", err)
	}
	cap := 5.0
	term.SetIngressCapacity(&cap)

	svc, err := sw.NewService(model.CreationContext{}, nil)
	if err != nil || svc == nil {
		t.Fatalf("NewService: %v, %v", svc, err)
	}

	seg := model.Segment{model.NewCircuit(term, 0): {Ingress: 10, Egress: 0}}
	if err := svc.Define(seg); err == nil {
		t.Fatal("expected capacity overrun to be rejected")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	sw := newTestSwitch(t)
	svc, err := sw.NewService(model.CreationContext{}, nil)
	if err != nil || svc == nil {
		t.Fatalf("NewService: %v, %v", svc, err)
	}
	if err := svc.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := svc.Release(); err != nil {
		t.Fatalf("second Release should be a no-op, got: %v", err)
	}
	if err := svc.Activate(); err == nil {
		t.Fatal("expected operations on a released service to fail")
	}
}

func TestNewServiceRejectsDuplicateHandle(t *testing.T) {
	sw := newTestSwitch(t)
	handle := "h1"
	first, err := sw.NewService(model.CreationContext{}, &handle)
	if err != nil || first == nil {
		t.Fatalf("NewService: %v, %v", first, err)
	}
	second, err := sw.NewService(model.CreationContext{}, &handle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != nil {
		t.Fatal("expected nil service for duplicate handle")
	}
}
