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

package policy

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

func TestCircuitBlockerParsesCommaAndSpaceSeparatedLists(t *testing.T) {
	v := viper.New()
	v.Set("blocked.a", "1, 2 3")
	v.Set("blocked.b", "9")

	cb := NewCircuitBlocker(v, "blocked.")

	a := model.NewAtomicTerminal("sw", "a")
	for _, label := range []int32{1, 2, 3} {
		c := model.NewCircuit(a, label)
		if !cb.IsBlocked(c) {
			t.Fatalf("expected label %d on terminal a to be blocked", label)
		}
	}
	if cb.IsBlocked(model.NewCircuit(a, 4)) {
		t.Fatal("label 4 on terminal a should not be blocked")
	}

	b := model.NewAtomicTerminal("sw", "b")
	if !cb.IsBlocked(model.NewCircuit(b, 9)) {
		t.Fatal("expected label 9 on terminal b to be blocked")
	}
}

func TestCircuitBlockerIgnoresKeysOutsidePrefix(t *testing.T) {
	v := viper.New()
	v.Set("other.a", "1")
	cb := NewCircuitBlocker(v, "blocked.")
	a := model.NewAtomicTerminal("sw", "a")
	if cb.IsBlocked(model.NewCircuit(a, 1)) {
		t.Fatal("key outside the configured prefix must not contribute blocked labels")
	}
}

func TestNilCircuitBlockerClearsEverything(t *testing.T) {
	var cb *CircuitBlocker
	a := model.NewAtomicTerminal("sw", "a")
	if cb.IsBlocked(model.NewCircuit(a, 1)) {
		t.Fatal("a nil blocker must never report a circuit as blocked")
	}
	if !cb.IsClear(model.NewCircuit(a, 1)) {
		t.Fatal("a nil blocker must report every circuit as clear")
	}
}
