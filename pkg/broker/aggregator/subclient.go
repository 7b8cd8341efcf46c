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
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/listener"
	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// subClient is one inferior-network service a Service has spread its
// segment across. It holds the sub-service through a listener.Forwarder
// rather than directly: the forwarder drops its callback once the
// sub-service reaches RELEASED, so the parent<->sub-client reference
// cannot outlive the parent (the cyclic-reference concern this design
// note addresses is inherent to any hierarchy where a parent listens to
// children that listen back to it).
type subClient struct {
	networkName string
	service     model.Service
	forwarder   *listener.Forwarder
	lastStatus  model.Status
}
