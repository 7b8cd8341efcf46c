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

// Package policy implements the "circuit blocker" configuration surface:
// a property set, one key per terminal (with an optional shared prefix),
// each value a comma- or space-separated list of integer labels that are
// blocked on that terminal.
//
// An earlier implementation this one descends from parsed each
// property's value as a single integer, even though its own docstring
// described a space/comma-separated list. This one honors the doc
// instead.
package policy

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// CircuitBlocker answers whether a given circuit is administratively
// blocked. It is consulted by the switch engine's define() and by the
// aggregator planner, which checks each requested inner circuit up front
// and both ends of every tunnel once AllocateTunnel has picked its label:
// both treat it as a policy input to the admission layer.
type CircuitBlocker struct {
	// blocked[terminalName] is the set of blocked labels on that
	// terminal.
	blocked map[string]map[int32]bool
}

// NewCircuitBlocker loads a property set (as spf13/viper exposes it: a
// flat key/value map already materialized from whatever underlying file
// format) into a CircuitBlocker. Every key beginning with prefix is
// treated as "<prefix><terminalName>"; with an empty prefix, every key is
// a terminal name.
func NewCircuitBlocker(v *viper.Viper, prefix string) *CircuitBlocker {
	cb := &CircuitBlocker{blocked: make(map[string]map[int32]bool)}
	for _, key := range v.AllKeys() {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		terminalName := strings.TrimPrefix(key, prefix)
		raw := v.GetString(key)
		labels := parseLabelList(raw)
		if len(labels) == 0 {
			continue
		}
		set := cb.blocked[terminalName]
		if set == nil {
			set = make(map[int32]bool)
			cb.blocked[terminalName] = set
		}
		for _, l := range labels {
			set[l] = true
		}
	}
	return cb
}

// parseLabelList splits a comma- or space-separated list of integers,
// ignoring fields that don't parse (a stray separator or typo should not
// abort loading of the rest of the property set).
func parseLabelList(raw string) []int32 {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]int32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, int32(n))
	}
	return out
}

// IsBlocked reports whether circuit's label is administratively blocked
// on its terminal.
func (cb *CircuitBlocker) IsBlocked(circuit model.Circuit) bool {
	if cb == nil {
		return false
	}
	set, ok := cb.blocked[circuit.Terminal.Name()]
	if !ok {
		return false
	}
	return set[circuit.Label]
}

// IsClear is the complement of IsBlocked, kept as its own method since
// callers read more naturally guarding on "must be clear" than on
// "negated blocked".
func (cb *CircuitBlocker) IsClear(circuit model.Circuit) bool {
	return !cb.IsBlocked(circuit)
}
