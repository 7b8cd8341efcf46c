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

// Status is a service's derived lifecycle state. The same enum is used by
// switch-owned and aggregator-owned services, since aggregator status
// events are built by aggregating these same values reported by
// sub-services.
type Status int

const (
	Dormant Status = iota
	Establishing
	Inactive
	Activating
	Active
	Deactivating
	Failed
	Releasing
	Released
)

func (s Status) String() string {
	switch s {
	case Dormant:
		return "DORMANT"
	case Establishing:
		return "ESTABLISHING"
	case Inactive:
		return "INACTIVE"
	case Activating:
		return "ACTIVATING"
	case Active:
		return "ACTIVE"
	case Deactivating:
		return "DEACTIVATING"
	case Failed:
		return "FAILED"
	case Releasing:
		return "RELEASING"
	case Released:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// IsStable reports whether s is a state the service can sit in
// indefinitely without further internal action (as opposed to a
// transitional "-ING" state).
func IsStable(s Status) bool {
	switch s {
	case Dormant, Inactive, Active, Failed, Released:
		return true
	default:
		return false
	}
}

// Intent is the user-requested target state of a service.
type Intent int

const (
	IntentInactive Intent = iota
	IntentActive
	IntentRelease
	IntentAbort
)

func (i Intent) String() string {
	switch i {
	case IntentInactive:
		return "INACTIVE"
	case IntentActive:
		return "ACTIVE"
	case IntentRelease:
		return "RELEASE"
	case IntentAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}
