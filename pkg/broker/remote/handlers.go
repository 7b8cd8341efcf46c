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

import (
	"encoding/json"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// handler dispatches one request type's payload against a Session's bound
// network and returns the value to marshal as the response, or an error
// to map onto an ErrorCode.
type handler func(s *Session, data json.RawMessage) (interface{}, error)

var handlers = map[string]handler{
	"newService":    handleNewService,
	"define":        handleDefine,
	"activate":      handleActivate,
	"deactivate":    handleDeactivate,
	"release":       handleRelease,
	"status":        handleStatus,
	"errors":        handleErrors,
	"getTerminals":  handleGetTerminals,
	"getModel":      handleGetModel,
	"getServiceIds": handleGetServiceIDs,
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return model.NewInvalidArgument("malformed request body: %v", err)
	}
	return nil
}

func handleNewService(s *Session, data json.RawMessage) (interface{}, error) {
	var req NewServiceRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	cc := model.CreationContext{AuthToken: req.AuthToken}
	svc, err := s.net.NewService(cc, req.Handle)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, model.NewNameInUse("service handle already in use")
	}
	s.attach(svc)
	return NewServiceResponse{ID: svc.ID(), Handle: svc.Handle()}, nil
}

func handleDefine(s *Session, data json.RawMessage) (interface{}, error) {
	var req DefineRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	svc, err := s.net.RequireServiceByID(req.ID)
	if err != nil {
		return nil, err
	}
	seg, err := toSegment(s.net, req.Flows)
	if err != nil {
		return nil, err
	}
	if err := svc.Define(seg); err != nil {
		return nil, err
	}
	return statusOf(svc), nil
}

func handleActivate(s *Session, data json.RawMessage) (interface{}, error) {
	svc, err := requireByRequest(s, data)
	if err != nil {
		return nil, err
	}
	if err := svc.Activate(); err != nil {
		return nil, err
	}
	return statusOf(svc), nil
}

func handleDeactivate(s *Session, data json.RawMessage) (interface{}, error) {
	svc, err := requireByRequest(s, data)
	if err != nil {
		return nil, err
	}
	if err := svc.Deactivate(); err != nil {
		return nil, err
	}
	return statusOf(svc), nil
}

func handleRelease(s *Session, data json.RawMessage) (interface{}, error) {
	svc, err := requireByRequest(s, data)
	if err != nil {
		return nil, err
	}
	if err := svc.Release(); err != nil {
		return nil, err
	}
	return statusOf(svc), nil
}

func handleStatus(s *Session, data json.RawMessage) (interface{}, error) {
	svc, err := requireByRequest(s, data)
	if err != nil {
		return nil, err
	}
	return statusOf(svc), nil
}

func handleErrors(s *Session, data json.RawMessage) (interface{}, error) {
	svc, err := requireByRequest(s, data)
	if err != nil {
		return nil, err
	}
	msgs := make([]string, 0)
	for _, e := range svc.Errors() {
		msgs = append(msgs, e.Error())
	}
	return ErrorsResponse{ID: svc.ID(), Messages: msgs}, nil
}

func handleGetTerminals(s *Session, _ json.RawMessage) (interface{}, error) {
	terms := s.net.GetTerminals()
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name())
	}
	return TerminalsResponse{Terminals: names}, nil
}

func handleGetServiceIDs(s *Session, _ json.RawMessage) (interface{}, error) {
	return ServiceIDsResponse{IDs: s.net.GetServiceIDs()}, nil
}

func handleGetModel(s *Session, data json.RawMessage) (interface{}, error) {
	var req GetModelRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	chords := s.net.GetModel(req.MinBandwidth)
	edges := make([]ModelEdge, 0, len(chords))
	for e, m := range chords {
		edges = append(edges, ModelEdge{A: e.A.Name(), B: e.B.Name(), Distance: m.Distance})
	}
	return ModelResponse{Edges: edges}, nil
}

func requireByRequest(s *Session, data json.RawMessage) (model.Service, error) {
	var req ServiceRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.net.RequireServiceByID(req.ID)
}

func statusOf(svc model.Service) StatusResponse {
	return StatusResponse{ID: svc.ID(), Status: svc.Status().String(), Intent: svc.Intent().String()}
}
