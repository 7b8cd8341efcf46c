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

package listener

import (
	"sync"
	"testing"
	"time"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

func TestExecutorRunsTasksInOrder(t *testing.T) {
	e := NewExecutor()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		e.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	waitOrTimeout(t, &wg)
	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestForwarderDetachesOnReleased(t *testing.T) {
	var mu sync.Mutex
	var got []model.Status
	f := NewForwarder(func(s model.Status) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	f.NewStatus(model.Active)
	f.NewStatus(model.Released)
	f.NewStatus(model.Dormant) // should be dropped: already detached

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("got %v, want exactly [ACTIVE RELEASED]", got)
	}
}

func TestForwarderSurvivesFailed(t *testing.T) {
	var mu sync.Mutex
	var got []model.Status
	f := NewForwarder(func(s model.Status) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	f.NewStatus(model.Failed)
	f.NewStatus(model.Releasing)
	f.NewStatus(model.Released)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("got %v, want [FAILED RELEASING RELEASED], FAILED must not detach", got)
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for executor tasks")
	}
}
