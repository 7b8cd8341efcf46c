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

// Package metrics registers the counters the control plane exposes,
// using istio.io/pkg/monitoring exactly as
// pkg/kube/secretcontroller/secretcontroller.go registers its
// remote_cluster_sync_timeouts_total counter: a package-level Sum/Gauge
// created at init time and incremented inline where the event occurs.
package metrics

import "istio.io/pkg/monitoring"

func init() {
	monitoring.MustRegister(
		ServicesCreated,
		ServicesReleased,
		ServicesFailed,
		PlannerRetries,
		TunnelAllocationFailures,
		AdmissionShortfalls,
	)
}

var (
	// ServicesCreated counts NewService calls across every network kind.
	ServicesCreated = monitoring.NewSum(
		"broker_services_created_total",
		"Number of services created on any network.",
	)

	// ServicesReleased counts services that reached RELEASED.
	ServicesReleased = monitoring.NewSum(
		"broker_services_released_total",
		"Number of services that completed release.",
	)

	// ServicesFailed counts services that reported FAILED at least once.
	ServicesFailed = monitoring.NewSum(
		"broker_services_failed_total",
		"Number of services that reported FAILED at least once.",
	)

	// PlannerRetries counts admission-retry iterations across all
	// aggregator define() calls.
	PlannerRetries = monitoring.NewSum(
		"broker_planner_retries_total",
		"Number of spanning-tree admission retries across all define() calls.",
	)

	// TunnelAllocationFailures counts AllocateTunnel calls that returned
	// nil (no free label or insufficient bandwidth).
	TunnelAllocationFailures = monitoring.NewSum(
		"broker_tunnel_allocation_failures_total",
		"Number of trunk tunnel allocation attempts that failed.",
	)

	// AdmissionShortfalls counts trunk edges rejected by the planner's
	// admission check for insufficient bandwidth.
	AdmissionShortfalls = monitoring.NewSum(
		"broker_admission_shortfalls_total",
		"Number of tree edges removed by the planner due to a bandwidth shortfall.",
	)
)
