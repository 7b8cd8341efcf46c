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

// Package switchnet implements the atomic network: per-terminal capacity
// accounting and the per-service state machine. A switch performs no
// routing — its terminals are direct endpoints — so its responsibility
// is admission control only.
package switchnet

import (
	"sync"

	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/metrics"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/policy"
)

var scope = log.RegisterScope("switchnet", "atomic network admission and service lifecycle", 0)

// minProduction is the sanitize() floor applied to every defined
// segment.
const minProduction = 0.01

// Switch is an atomic network: a flat set of capacity-checked terminals
// with no routing of its own.
type Switch struct {
	mu sync.RWMutex

	name      string
	terminals map[string]*model.AtomicTerminal
	services  map[int]*Service
	handles   map[string]*Service
	nextID    int

	exec    *listener.Executor
	blocker *policy.CircuitBlocker
}

// New creates an empty switch. exec is the shared executor listener
// deliveries are posted through; blocker may be nil if no circuit policy
// applies.
func New(name string, exec *listener.Executor, blocker *policy.CircuitBlocker) *Switch {
	return &Switch{
		name:      name,
		terminals: make(map[string]*model.AtomicTerminal),
		services:  make(map[int]*Service),
		handles:   make(map[string]*Service),
		exec:      exec,
		blocker:   blocker,
	}
}

func (sw *Switch) Name() string { return sw.name }

// AddTerminal creates a new terminal with unlimited capacity.
func (sw *Switch) AddTerminal(name string) (*model.AtomicTerminal, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, ok := sw.terminals[name]; ok {
		return nil, model.NewNameInUse("terminal %q already exists on switch %q", name, sw.name)
	}
	t := model.NewAtomicTerminal(sw.name, name)
	sw.terminals[name] = t
	return t, nil
}

func (sw *Switch) GetTerminal(name string) (model.Terminal, error) {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	t, ok := sw.terminals[name]
	if !ok {
		return nil, model.NewNotFound("unknown terminal %q on switch %q", name, sw.name)
	}
	return t, nil
}

func (sw *Switch) GetTerminals() []model.Terminal {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	out := make([]model.Terminal, 0, len(sw.terminals))
	for _, t := range sw.terminals {
		out = append(out, t)
	}
	return out
}

// ModifyBandwidth either sets (replaces, nil meaning unlimited) or
// adjusts (adds a delta to the current value, treating an unset current
// as zero) a terminal's ingress and/or egress capacity.
func (sw *Switch) ModifyBandwidth(name string, setIngress bool, ingressDelta *float64, setEgress bool, egressDelta *float64) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	t, ok := sw.terminals[name]
	if !ok {
		return model.NewNotFound("unknown terminal %q on switch %q", name, sw.name)
	}

	if setIngress {
		if ingressDelta != nil && *ingressDelta < 0 {
			return model.NewInvalidArgument("ingress capacity must be non-negative")
		}
		t.SetIngressCapacity(ingressDelta)
	} else if ingressDelta != nil {
		cur := 0.0
		if t.IngressCapacity() != nil {
			cur = *t.IngressCapacity()
		}
		next := cur + *ingressDelta
		if next < 0 {
			return model.NewInvalidArgument("adjusted ingress capacity would be negative")
		}
		t.SetIngressCapacity(&next)
	}

	if setEgress {
		if egressDelta != nil && *egressDelta < 0 {
			return model.NewInvalidArgument("egress capacity must be non-negative")
		}
		t.SetEgressCapacity(egressDelta)
	} else if egressDelta != nil {
		cur := 0.0
		if t.EgressCapacity() != nil {
			cur = *t.EgressCapacity()
		}
		next := cur + *egressDelta
		if next < 0 {
			return model.NewInvalidArgument("adjusted egress capacity would be negative")
		}
		t.SetEgressCapacity(&next)
	}

	return nil
}

// NewService creates a new service, or returns nil if handle is already
// in use.
func (sw *Switch) NewService(cc model.CreationContext, handle *string) (model.Service, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if handle != nil {
		if _, ok := sw.handles[*handle]; ok {
			return nil, nil
		}
	}

	sw.nextID++
	id := sw.nextID
	s := newService(id, handle, sw, cc)
	sw.services[id] = s
	if handle != nil {
		sw.handles[*handle] = s
	}
	metrics.ServicesCreated.Increment()
	scope.Debugf("switch %q: created service %d", sw.name, id)
	return s, nil
}

func (sw *Switch) GetServiceByID(id int) (model.Service, error) {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	s, ok := sw.services[id]
	if !ok {
		return nil, model.NewNotFound("unknown service id %d on switch %q", id, sw.name)
	}
	return s, nil
}

func (sw *Switch) GetServiceByHandle(handle string) (model.Service, error) {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	s, ok := sw.handles[handle]
	if !ok {
		return nil, model.NewNotFound("unknown service handle %q on switch %q", handle, sw.name)
	}
	return s, nil
}

func (sw *Switch) RequireServiceByID(id int) (model.Service, error) {
	return sw.GetServiceByID(id)
}

func (sw *Switch) RequireServiceByHandle(handle string) (model.Service, error) {
	return sw.GetServiceByHandle(handle)
}

func (sw *Switch) GetServiceIDs() []int {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	out := make([]int, 0, len(sw.services))
	for id := range sw.services {
		out = append(out, id)
	}
	return out
}

// GetModel reports small, positive connectivity weights between every
// pair of this switch's terminals: an atomic network never reports zero,
// since its terminals are always mutually reachable at the hardware
// level.
func (sw *Switch) GetModel(minBandwidth float64) map[model.Edge]model.ChordMetrics {
	sw.mu.RLock()
	defer sw.mu.RUnlock()

	terms := make([]model.Terminal, 0, len(sw.terminals))
	for _, t := range sw.terminals {
		terms = append(terms, t)
	}
	terms = model.SortTerminals(terms)

	out := make(map[model.Edge]model.ChordMetrics)
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			out[model.NewEdge(terms[i], terms[j])] = model.ChordMetrics{Distance: 1}
		}
	}
	return out
}

// usageOnTerminal sums ingress/egress across every currently-defined
// service's circuits at terminalName, excluding excludeID (the service
// being defined, whose tentative contribution the caller adds itself).
//
// Callers must hold sw.mu for writing (define/reset/release all take it
// while they touch a Service's segment field) — this is what lets
// usageOnTerminal read another service's segment directly, without
// acquiring that service's own mutex, which would risk a lock-order
// cycle between two services racing to define() at once (each already
// holds its own service mutex, and the order is always
// service-mutex-then-network-mutex).
func (sw *Switch) usageOnTerminal(terminalName string, excludeID int) (ingress, egress float64) {
	for id, s := range sw.services {
		if id == excludeID {
			continue
		}
		if s.segment == nil {
			continue
		}
		for c, f := range s.segment {
			if c.Terminal.Name() == terminalName {
				ingress += f.Ingress
				egress += f.Egress
			}
		}
	}
	return
}

func (sw *Switch) unregister(s *Service) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	delete(sw.services, s.id)
	if s.handle != nil {
		delete(sw.handles, *s.handle)
	}
	scope.Debugf("switch %q: released service %d", sw.name, s.id)
}
