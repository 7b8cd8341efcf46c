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

// Package aggregator implements the composite network: terminals wrapping
// inferior networks, trunks linking them, and the asymmetric
// spanning-tree planner and service state machine described in spec
// sections 4.2 through 4.5. An aggregator can itself be the inferior
// network behind another aggregator's terminal, which is what lets the
// hierarchy nest arbitrarily deep.
package aggregator

import (
	"sync"

	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/graph"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/metrics"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/policy"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/trunk"
)

var scope = log.RegisterScope("aggregator", "composite network planner and service lifecycle", 0)

// minProduction is the sanitize() floor applied to every defined segment.
const minProduction = 0.01

// Aggregator is a composite network: a set of terminals each wrapping a
// terminal of some inferior network, a set of trunks linking inferior
// terminals together, and the services built on top of them.
type Aggregator struct {
	mu sync.Mutex

	name string

	terminals map[string]*model.AggregatorTerminal
	networks  map[string]model.Network // keyed by inferior network name
	trunks    []*trunk.Trunk

	services map[int]*Service
	handles  map[string]*Service
	nextID   int

	exec    *listener.Executor
	blocker *policy.CircuitBlocker
}

// New creates an empty aggregator. exec is the shared executor listener
// deliveries are posted through; blocker may be nil.
func New(name string, exec *listener.Executor, blocker *policy.CircuitBlocker) *Aggregator {
	return &Aggregator{
		name:      name,
		terminals: make(map[string]*model.AggregatorTerminal),
		networks:  make(map[string]model.Network),
		services:  make(map[int]*Service),
		handles:   make(map[string]*Service),
		exec:      exec,
		blocker:   blocker,
	}
}

func (a *Aggregator) Name() string { return a.name }

// AddTerminal exposes innerTerminal (belonging to inferior network net) as
// an aggregator terminal named name. net is registered as one of this
// aggregator's inferior networks if it is not already known.
func (a *Aggregator) AddTerminal(name string, net model.Network, innerTerminal model.Terminal) (*model.AggregatorTerminal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.terminals[name]; ok {
		return nil, model.NewNameInUse("terminal %q already exists on aggregator %q", name, a.name)
	}
	t := model.NewAggregatorTerminal(a.name, name, innerTerminal)
	a.terminals[name] = t
	if _, ok := a.networks[net.Name()]; !ok {
		a.networks[net.Name()] = net
	}
	return t, nil
}

func (a *Aggregator) GetTerminal(name string) (model.Terminal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.terminals[name]
	if !ok {
		return nil, model.NewNotFound("unknown terminal %q on aggregator %q", name, a.name)
	}
	return t, nil
}

func (a *Aggregator) GetTerminals() []model.Terminal {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Terminal, 0, len(a.terminals))
	for _, t := range a.terminals {
		out = append(out, t)
	}
	return out
}

// AddTrunk creates and registers a new trunk between two inferior
// terminals. Both terminals must belong to inferior networks already
// registered via AddTerminal (i.e. reachable through at least one of this
// aggregator's own terminals).
func (a *Aggregator) AddTrunk(start, end model.Terminal, delay float64) (*trunk.Trunk, error) {
	if delay < 0 {
		return nil, model.NewInvalidArgument("trunk delay must be non-negative")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.networks[start.NetworkName()]; !ok {
		return nil, model.NewInvalidService("trunk endpoint %v belongs to an unregistered inferior network", start)
	}
	if _, ok := a.networks[end.NetworkName()]; !ok {
		return nil, model.NewInvalidService("trunk endpoint %v belongs to an unregistered inferior network", end)
	}
	tr := trunk.New(start, end, delay)
	a.trunks = append(a.trunks, tr)
	return tr, nil
}

func (a *Aggregator) GetTrunks() []*trunk.Trunk {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*trunk.Trunk, len(a.trunks))
	copy(out, a.trunks)
	return out
}

// NewService creates a new aggregator-owned service, or returns nil if
// handle is already in use.
func (a *Aggregator) NewService(cc model.CreationContext, handle *string) (model.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if handle != nil {
		if _, ok := a.handles[*handle]; ok {
			return nil, nil
		}
	}

	a.nextID++
	id := a.nextID
	s := newService(id, handle, a, cc)
	a.services[id] = s
	if handle != nil {
		a.handles[*handle] = s
	}
	metrics.ServicesCreated.Increment()
	scope.Debugf("aggregator %q: created service %d", a.name, id)
	return s, nil
}

func (a *Aggregator) GetServiceByID(id int) (model.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.services[id]
	if !ok {
		return nil, model.NewNotFound("unknown service id %d on aggregator %q", id, a.name)
	}
	return s, nil
}

func (a *Aggregator) GetServiceByHandle(handle string) (model.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.handles[handle]
	if !ok {
		return nil, model.NewNotFound("unknown service handle %q on aggregator %q", handle, a.name)
	}
	return s, nil
}

func (a *Aggregator) RequireServiceByID(id int) (model.Service, error) { return a.GetServiceByID(id) }

func (a *Aggregator) RequireServiceByHandle(handle string) (model.Service, error) {
	return a.GetServiceByHandle(handle)
}

func (a *Aggregator) GetServiceIDs() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, 0, len(a.services))
	for id := range a.services {
		out = append(out, id)
	}
	return out
}

// GetModel reports connectivity between every pair of this aggregator's
// external terminals, computed from the planner's FIB over the full
// inner graph (trunks plus every inferior network's own model), filtered
// to routes carrying at least minBandwidth.
func (a *Aggregator) GetModel(minBandwidth float64) map[model.Edge]model.ChordMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	edges := a.buildFullGraphLocked(minBandwidth)
	terms := make([]model.Terminal, 0, len(a.terminals))
	inner := make(map[string]model.Terminal, len(a.terminals))
	for _, t := range a.terminals {
		terms = append(terms, t)
		inner[terminalKey(t.Inner())] = t.Inner()
	}
	dests := make([]model.Terminal, 0, len(inner))
	for _, t := range inner {
		dests = append(dests, t)
	}

	fib := graph.ComputeFIB(edges, dests)

	out := make(map[model.Edge]model.ChordMetrics)
	sorted := model.SortTerminals(terms)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			ti := sorted[i].(*model.AggregatorTerminal)
			tj := sorted[j].(*model.AggregatorTerminal)
			way, ok := fib[terminalKey(tj.Inner())][terminalKey(ti.Inner())]
			if !ok || way.Distance >= posInf {
				continue
			}
			out[model.NewEdge(ti, tj)] = model.ChordMetrics{Distance: way.Distance}
		}
	}
	return out
}

func (a *Aggregator) unregister(s *Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.services, s.id)
	if s.handle != nil {
		delete(a.handles, *s.handle)
	}
	scope.Debugf("aggregator %q: released service %d", a.name, s.id)
}
