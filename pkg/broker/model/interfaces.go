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

package model

// Listener observes a Service's derived status transitions. Delivery is
// asynchronous and ordered per-listener; see pkg/broker/listener for the
// executor that guarantees this.
type Listener interface {
	NewStatus(status Status)
}

// ListenerFunc adapts a plain function to a Listener.
type ListenerFunc func(Status)

func (f ListenerFunc) NewStatus(status Status) { f(status) }

// Service is the common contract implemented by both switch-owned and
// aggregator-owned services. Aggregator sub-clients hold a Service of
// whatever concrete kind its target inferior network produces, which is
// what lets aggregators nest recursively without any package depending on
// its own caller.
type Service interface {
	ID() int
	Handle() *string
	Status() Status
	Intent() Intent

	Define(seg Segment) error
	Activate() error
	Deactivate() error
	Release() error

	AddListener(l Listener)
	RemoveListener(l Listener)

	// Errors returns a snapshot of throwables/causes accumulated from
	// this service or, for an aggregator service, its sub-services.
	Errors() []error
}

// Way is one entry of a distance-vector FIB: the next hop to take and the
// cumulative distance to a destination.
type Way struct {
	NextHop  Terminal
	Distance float64
}

// ChordMetrics summarizes the internal connectivity a network reports
// between one pair of its external terminals.
type ChordMetrics struct {
	Distance float64
}

// CreationContext flows optional ambient data into NewService calls
// without resorting to a process-global (the source used a ThreadLocal
// for this; here it is an explicit parameter, which may be the zero value).
type CreationContext struct {
	AuthToken string
}

// Network is the control surface every network kind (switch or
// aggregator) exposes to callers.
type Network interface {
	Name() string

	GetTerminal(name string) (Terminal, error)
	GetTerminals() []Terminal

	// NewService creates a new service, or returns nil if handle is
	// non-nil and already in use. cc may be the zero value.
	NewService(cc CreationContext, handle *string) (Service, error)

	GetServiceByID(id int) (Service, error)
	GetServiceByHandle(handle string) (Service, error)
	RequireServiceByID(id int) (Service, error)
	RequireServiceByHandle(handle string) (Service, error)

	// GetServiceIDs returns a snapshot of currently open service ids.
	GetServiceIDs() []int

	// GetModel reports connectivity between every pair of this
	// network's external terminals, filtered to edges carrying at
	// least minBandwidth.
	GetModel(minBandwidth float64) map[Edge]ChordMetrics
}
