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

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Forwarder is the indirection the design notes call for: a sub-service
// holds a Forwarder, not a direct reference back to its parent, so that
// once the sub-service reaches a terminal status the Forwarder drops its
// callback and the parent<->sub-client cycle cannot outlive the parent
// service.
type Forwarder struct {
	mu sync.Mutex
	fn func(model.Status)
}

// NewForwarder wraps fn. NewStatus calls fn synchronously, on whatever
// goroutine delivers the status (typically a listener.Executor's worker).
func NewForwarder(fn func(model.Status)) *Forwarder {
	return &Forwarder{fn: fn}
}

// NewStatus implements model.Listener.
func (f *Forwarder) NewStatus(status model.Status) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(status)
	}
	if status == model.Released {
		// RELEASED is the one truly terminal status (FAILED can still be
		// followed by RELEASING/RELEASED): drop the closure now rather
		// than waiting for the sub-service to be garbage collected, so
		// the parent<->sub-client cycle cannot outlive the parent.
		f.Detach()
	}
}

// Detach drops the forwarding callback, making this Forwarder inert.
func (f *Forwarder) Detach() {
	f.mu.Lock()
	f.fn = nil
	f.mu.Unlock()
}
