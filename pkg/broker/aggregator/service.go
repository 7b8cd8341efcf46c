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

package aggregator

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/metrics"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Service is an aggregator-owned service: a segment spread, by the
// planner, across one sub-service per inferior network it touches. Its
// derived status is built entirely from its sub-clients' last-reported
// status.
type Service struct {
	mu sync.Mutex

	id     int
	handle *string
	agg    *Aggregator
	cc     model.CreationContext

	intent        model.Intent
	status        model.Status
	lastEmitted   *model.Status
	defined       bool
	releaseStarted bool

	subClients map[string]*subClient
	tunnels    []tunnelAllocation

	inactiveCount, activeCount, failedCount, releasedCount int

	// errs accumulates sub-service failures as a snapshot of accumulated
	// causes, the same way istioctl and pilot's workload-entry validation
	// accumulate independent failures with go-multierror rather than
	// returning only the first one.
	errs *multierror.Error

	listeners []model.Listener
}

func newService(id int, handle *string, agg *Aggregator, cc model.CreationContext) *Service {
	return &Service{
		id:         id,
		handle:     handle,
		agg:        agg,
		cc:         cc,
		status:     model.Dormant,
		subClients: make(map[string]*subClient),
	}
}

func (s *Service) ID() int         { return s.id }
func (s *Service) Handle() *string { return s.handle }

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

func (s *Service) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errs == nil {
		return nil
	}
	return append([]error(nil), s.errs.Errors...)
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
// s.mu held; delivery runs off-lock via the aggregator's shared
// executor.
func (s *Service) emitLocked(status model.Status) {
	s.status = status
	if s.lastEmitted != nil && *s.lastEmitted == status {
		return
	}
	v := status
	s.lastEmitted = &v
	listeners := append([]model.Listener(nil), s.listeners...)
	s.agg.exec.Post(func() {
		for _, l := range listeners {
			l.NewStatus(status)
		}
	})
}

// deriveStatusLocked implements the derived-status table directly from
// the current intent and sub-client counters.
func (s *Service) deriveStatusLocked() model.Status {
	n := len(s.subClients)
	if s.intent == model.IntentRelease {
		if n == 0 || s.releasedCount >= n {
			return model.Released
		}
		return model.Releasing
	}
	if s.failedCount > 0 {
		return model.Failed
	}
	if !s.defined {
		return model.Dormant
	}
	dormant := n - s.inactiveCount - s.activeCount - s.failedCount - s.releasedCount
	if dormant > 0 {
		return model.Establishing
	}
	if s.intent == model.IntentActive {
		if s.activeCount < n {
			return model.Activating
		}
		return model.Active
	}
	if s.activeCount > 0 {
		return model.Deactivating
	}
	return model.Inactive
}

func (s *Service) recomputeLocked() {
	s.emitLocked(s.deriveStatusLocked())
}

func (s *Service) attachSubClient(networkName string, svc model.Service) *subClient {
	sc := &subClient{networkName: networkName, service: svc, lastStatus: model.Dormant}
	sc.forwarder = listener.NewForwarder(func(st model.Status) { s.onSubStatus(sc, st) })
	svc.AddListener(sc.forwarder)
	return sc
}

// Define runs the planner against seg and spins up one sub-service per
// inferior network it targets.
func (s *Service) Define(seg model.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.intent == model.IntentRelease {
		return model.NewIllegalState("service %d is releasing or released", s.id)
	}
	if s.defined {
		return model.NewIllegalState("service %d already has a defined segment", s.id)
	}

	seg = model.Sanitize(seg, minProduction)

	// The aggregator mutex is acquired only after s.mu: service mutex
	// first, network mutex second, consistently throughout this package.
	s.agg.mu.Lock()
	result, err := s.agg.plan(seg)
	if err != nil {
		s.agg.mu.Unlock()
		return err
	}

	subClients := make(map[string]*subClient, len(result.subSegments))
	var created []model.Service
	rollback := func() {
		for _, c := range created {
			_ = c.Release()
		}
		for _, al := range result.tunnels {
			_ = al.trunk.ReleaseTunnel(al.start)
		}
	}

	for networkName, subSeg := range result.subSegments {
		net, ok := s.agg.networks[networkName]
		if !ok {
			rollback()
			s.agg.mu.Unlock()
			return model.NewInvalidService("planner targeted unregistered network %q", networkName)
		}
		subSvc, nerr := net.NewService(s.cc, nil)
		if nerr != nil {
			rollback()
			s.agg.mu.Unlock()
			return nerr
		}
		if subSvc == nil {
			rollback()
			s.agg.mu.Unlock()
			return model.NewInvalidService("could not create sub-service on network %q", networkName)
		}
		created = append(created, subSvc)
		sc := s.attachSubClient(networkName, subSvc)
		subClients[networkName] = sc
		if derr := subSvc.Define(subSeg); derr != nil {
			rollback()
			s.agg.mu.Unlock()
			return derr
		}
	}
	s.agg.mu.Unlock()

	s.subClients = subClients
	s.tunnels = result.tunnels
	s.defined = true

	s.emitLocked(model.Establishing)
	if s.intent == model.IntentActive {
		// The caller activated before defining: signal that activation
		// is already under way and kick every sub-service off early,
		// rather than waiting for the generic derived-status formula to
		// notice once every sub-client first reports INACTIVE.
		s.emitLocked(model.Activating)
		for _, sc := range s.subClients {
			_ = sc.service.Activate()
		}
	}
	return nil
}

// Activate records ACTIVE intent.
func (s *Service) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.deriveStatusLocked()
	if cur == model.Failed || cur == model.Released {
		return model.NewIllegalState("service %d cannot be activated in state %s", s.id, cur)
	}

	s.intent = model.IntentActive
	if !s.defined {
		// Deferred: Define will propagate once sub-services exist.
		return nil
	}
	n := len(s.subClients)
	if n > 0 && s.inactiveCount >= n {
		s.emitLocked(model.Activating)
	}
	for _, sc := range s.subClients {
		_ = sc.service.Activate()
	}
	return nil
}

// Deactivate records INACTIVE intent.
func (s *Service) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intent = model.IntentInactive
	allInactiveOrFailed := true
	for _, sc := range s.subClients {
		if sc.lastStatus != model.Inactive && sc.lastStatus != model.Failed {
			allInactiveOrFailed = false
			break
		}
	}
	if len(s.subClients) == 0 || allInactiveOrFailed {
		s.emitLocked(model.Inactive)
		return nil
	}
	for _, sc := range s.subClients {
		_ = sc.service.Deactivate()
	}
	return nil
}

// Release drives the service toward RELEASED, deactivating first if a
// sub-client is still active.
func (s *Service) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.intent == model.IntentRelease {
		return nil
	}

	activeSubPresent := false
	for _, sc := range s.subClients {
		if sc.lastStatus == model.Active {
			activeSubPresent = true
			break
		}
	}

	s.intent = model.IntentRelease
	if activeSubPresent {
		s.emitLocked(model.Deactivating)
		for _, sc := range s.subClients {
			_ = sc.service.Deactivate()
		}
		return nil
	}
	s.startReleaseLocked()
	return nil
}

// startReleaseLocked runs the "otherwise" branch of release(): propagate
// release to every sub-client, return all held tunnels, and complete
// immediately if nothing is left to wait for.
func (s *Service) startReleaseLocked() {
	s.releaseStarted = true
	s.emitLocked(model.Releasing)
	for _, sc := range s.subClients {
		_ = sc.service.Release()
	}

	s.agg.mu.Lock()
	for _, al := range s.tunnels {
		_ = al.trunk.ReleaseTunnel(al.start)
	}
	s.agg.mu.Unlock()
	s.tunnels = nil

	if len(s.subClients) == 0 || s.releasedCount >= len(s.subClients) {
		s.completeReleaseLocked()
	}
}

func (s *Service) completeReleaseLocked() {
	s.emitLocked(model.Released)
	s.subClients = nil
	s.listeners = nil
	s.agg.unregister(s)
	metrics.ServicesReleased.Increment()
}

// onSubStatus is the listener callback installed on every sub-client,
// via its Forwarder. It implements the counter bookkeeping and derived
// status transitions as each sub-client reports a new status.
func (s *Service) onSubStatus(sc *subClient, status model.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := sc.lastStatus
	sc.lastStatus = status

	if status == model.Dormant {
		return
	}

	adjust := func(st model.Status, delta int) {
		switch st {
		case model.Inactive:
			s.inactiveCount += delta
		case model.Active:
			s.activeCount += delta
		case model.Failed:
			s.failedCount += delta
		case model.Released:
			s.releasedCount += delta
		}
	}
	if prev == model.Inactive || prev == model.Active || prev == model.Released {
		adjust(prev, -1)
	}
	// FAILED is sticky: once counted it is never decremented, even once
	// the same sub-client later reports RELEASED (which then also
	// increments releasedCount, deliberately double-counted).
	if status == model.Inactive || status == model.Active || status == model.Failed || status == model.Released {
		adjust(status, +1)
	}

	if status == model.Failed && prev != model.Failed && s.intent != model.IntentRelease && s.failedCount == 1 {
		for _, e := range sc.service.Errors() {
			s.errs = multierror.Append(s.errs, e)
		}
		s.errs = multierror.Append(s.errs, model.NewRemote("sub-service on network %q reported FAILED", sc.networkName))
		if s.intent != model.IntentAbort {
			s.intent = model.IntentAbort
		}
		for _, other := range s.subClients {
			_ = other.service.Deactivate()
		}
		s.agg.mu.Lock()
		for _, al := range s.tunnels {
			_ = al.trunk.ReleaseTunnel(al.start)
		}
		s.agg.mu.Unlock()
		s.tunnels = nil
		metrics.ServicesFailed.Increment()
		s.emitLocked(model.Failed)
		return
	}

	n := len(s.subClients)

	if s.intent == model.IntentRelease {
		if !s.releaseStarted {
			if s.inactiveCount >= n {
				s.startReleaseLocked()
			}
			return
		}
		if s.releasedCount >= n {
			s.completeReleaseLocked()
			return
		}
		s.emitLocked(model.Releasing)
		return
	}

	if s.failedCount > 0 {
		s.emitLocked(model.Failed)
		return
	}

	if n > 0 && s.inactiveCount >= n && s.intent == model.IntentActive {
		s.emitLocked(model.Activating)
		for _, c := range s.subClients {
			_ = c.service.Activate()
		}
		return
	}

	if n > 0 && s.activeCount >= n && s.intent == model.IntentActive {
		s.emitLocked(model.Active)
		return
	}

	s.recomputeLocked()
}
