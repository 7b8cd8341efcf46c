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

package remote

import "github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"

// FlowEntry is the wire representation of one Segment circuit: a
// network-local terminal name plus label, rather than model.Circuit's
// Terminal interface value, which has no JSON encoding of its own.
type FlowEntry struct {
	Terminal string  `json:"terminal"`
	Label    int32   `json:"label"`
	Ingress  float64 `json:"ingress"`
	Egress   float64 `json:"egress"`
}

// toSegment resolves each FlowEntry's terminal name against net and
// builds the equivalent model.Segment.
func toSegment(net model.Network, flows []FlowEntry) (model.Segment, error) {
	seg := make(model.Segment, len(flows))
	for _, f := range flows {
		t, err := net.GetTerminal(f.Terminal)
		if err != nil {
			return nil, err
		}
		flow, err := model.NewTrafficFlow(f.Ingress, f.Egress)
		if err != nil {
			return nil, err
		}
		seg[model.NewCircuit(t, f.Label)] = flow
	}
	return seg, nil
}

func fromSegment(seg model.Segment) []FlowEntry {
	out := make([]FlowEntry, 0, len(seg))
	for c, f := range seg {
		out = append(out, FlowEntry{Terminal: c.Terminal.Name(), Label: c.Label, Ingress: f.Ingress, Egress: f.Egress})
	}
	return out
}

// NewServiceRequest is the "newService" request payload.
type NewServiceRequest struct {
	Handle    *string `json:"handle,omitempty"`
	AuthToken string  `json:"authToken,omitempty"`
}

// NewServiceResponse is the "newService" response payload.
type NewServiceResponse struct {
	ID     int     `json:"id"`
	Handle *string `json:"handle,omitempty"`
}

// ServiceRequest addresses an existing service by id, for activate
// /deactivate/release/status/errors requests.
type ServiceRequest struct {
	ID int `json:"id"`
}

// DefineRequest is the "define" request payload.
type DefineRequest struct {
	ID    int         `json:"id"`
	Flows []FlowEntry `json:"flows"`
}

// StatusResponse reports a service's current derived status and intent.
type StatusResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Intent string `json:"intent"`
}

// ErrorsResponse carries a service's accumulated error messages.
type ErrorsResponse struct {
	ID       int      `json:"id"`
	Messages []string `json:"messages"`
}

// TerminalsResponse lists a network's external terminal names.
type TerminalsResponse struct {
	Terminals []string `json:"terminals"`
}

// GetModelRequest is the "getModel" request payload.
type GetModelRequest struct {
	MinBandwidth float64 `json:"minBandwidth"`
}

// ModelEdge is one entry of a "getModel" response.
type ModelEdge struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Distance float64 `json:"distance"`
}

// ModelResponse is the "getModel" response payload.
type ModelResponse struct {
	Edges []ModelEdge `json:"edges"`
}

// ServiceIDsResponse lists a network's currently open service ids.
type ServiceIDsResponse struct {
	IDs []int `json:"ids"`
}
