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

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/metrics"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Service is a switch-owned service: a sanitized Segment admitted against
// per-terminal capacity, with no sub-services of its own.
type Service struct {
	mu sync.Mutex

	id     int
	handle *string
	sw     *Switch
	cc     model.CreationContext

	intent      model.Intent
	segment     model.Segment
	status      model.Status
	lastEmitted *model.Status

	listeners []model.Listener
}

func newService(id int, handle *string, sw *Switch, cc model.CreationContext) *Service {
	return &Service{
		id:     id,
		handle: handle,
		sw:     sw,
		cc:     cc,
		status: model.Dormant,
	}
}

func (s *Service) ID() int          { return s.id }
func (s *Service) Handle() *string  { return s.handle }
func (s *Service) Errors() []error  { return nil }

func (s *Service) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) Intent() model.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

func (s *Service) AddListener(l model.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) RemoveListener(l model.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.listeners {
		if x == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// emitLocked records status as current and posts it to every listener,
// debounced against the last value actually emitted. Must be called with
// s.mu held; the listener fanout itself runs off-lock via the switch's
// shared executor.
func (s *Service) emitLocked(status model.Status) {
	s.status = status
	if s.lastEmitted != nil && *s.lastEmitted == status {
		return
	}
	v := status
	s.lastEmitted = &v
	listeners := append([]model.Listener(nil), s.listeners...)
	s.sw.exec.Post(func() {
		for _, l := range listeners {
			l.NewStatus(status)
		}
	})
}

// Define validates and installs seg.
func (s *Service) Define(seg model.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == model.Released {
		return model.NewIllegalState("service %d is released", s.id)
	}
	if s.segment != nil {
		return model.NewIllegalState("service %d already has a defined segment", s.id)
	}

	// Capacity accounting runs under the switch's mutex, acquired here
	// only after s.mu — service mutex first, network mutex second,
	// consistently throughout this package.
	s.sw.mu.Lock()
	defer s.sw.mu.Unlock()

	for c := range seg {
		if c.Terminal == nil || c.Terminal.NetworkName() != s.sw.name {
			return model.NewInvalidService("circuit %v does not belong to switch %q", c, s.sw.name)
		}
		if _, ok := s.sw.terminals[c.Terminal.Name()]; !ok {
			return model.NewInvalidService("circuit %v names an unknown terminal", c)
		}
		if s.sw.blocker.IsBlocked(c) {
			return model.NewInvalidService("circuit %v is administratively blocked", c)
		}
	}

	perTerminal := make(map[string]model.TrafficFlow)
	for c, f := range seg {
		perTerminal[c.Terminal.Name()] = perTerminal[c.Terminal.Name()].Add(f)
	}

	for name, want := range perTerminal {
		existingIngress, existingEgress := s.sw.usageOnTerminal(name, s.id)
		t := s.sw.terminals[name]
		if cap := t.IngressCapacity(); cap != nil && existingIngress+want.Ingress > *cap {
			return model.NewInvalidService("terminal %q: requested ingress would exceed ingress capacity", name)
		}
		if cap := t.EgressCapacity(); cap != nil && existingEgress+want.Egress > *cap {
			return model.NewInvalidService("terminal %q: requested egress would exceed egress capacity", name)
		}
	}

	s.segment = model.Sanitize(seg, minProduction)
	s.emitLocked(model.Establishing)
	s.emitLocked(model.Inactive)
	if s.intent == model.IntentActive {
		s.emitLocked(model.Activating)
		s.emitLocked(model.Active)
	}
	return nil
}

// Activate records ACTIVE intent, activating immediately if already
// defined.
func (s *Service) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == model.Released {
		return model.NewIllegalState("service %d is released", s.id)
	}
	s.intent = model.IntentActive
	if s.segment != nil && s.status != model.Active {
		s.emitLocked(model.Activating)
		s.emitLocked(model.Active)
	}
	return nil
}

// Deactivate records INACTIVE intent, deactivating immediately if
// currently active.
func (s *Service) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == model.Released {
		return model.NewIllegalState("service %d is released", s.id)
	}
	s.intent = model.IntentInactive
	if s.status == model.Active {
		s.emitLocked(model.Deactivating)
		s.emitLocked(model.Inactive)
	}
	return nil
}

// Reset clears the current definition, returning the service to DORMANT
// but leaving it otherwise usable.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == model.Released {
		return model.NewIllegalState("service %d is released", s.id)
	}
	if s.status == model.Active {
		s.emitLocked(model.Deactivating)
		s.emitLocked(model.Inactive)
	}
	s.sw.mu.Lock()
	s.segment = nil
	s.sw.mu.Unlock()
	s.emitLocked(model.Releasing)
	s.emitLocked(model.Dormant)
	return nil
}

// Release is terminal: it deactivates if needed, releases, and
// unregisters from the owning switch.
func (s *Service) Release() error {
	s.mu.Lock()
	if s.status == model.Released {
		s.mu.Unlock()
		return nil
	}
	if s.status == model.Active {
		s.emitLocked(model.Deactivating)
		s.emitLocked(model.Inactive)
	}
	s.sw.mu.Lock()
	s.segment = nil
	s.sw.mu.Unlock()
	s.emitLocked(model.Releasing)
	s.emitLocked(model.Released)
	s.listeners = nil
	s.mu.Unlock()

	s.sw.unregister(s)
	metrics.ServicesReleased.Increment()
	return nil
}
