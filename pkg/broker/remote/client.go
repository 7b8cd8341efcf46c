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
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Client is the caller-side counterpart of Session: it issues requests
// over the same duplex JSON channel and correlates responses by ID,
// and reports pushed "status" Envelopes to whichever listeners were
// registered for a given remote service id.
type Client struct {
	c conn

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]chan Envelope
	listeners map[int][]model.Listener
}

// Dial wraps an already-established connection (typically opened with
// websocket.DefaultDialer.Dial) as a Client. It starts a background
// reader that must be stopped by closing c.
func Dial(c conn) *Client {
	cl := &Client{
		c:         c,
		pending:   make(map[string]chan Envelope),
		listeners: make(map[int][]model.Listener),
	}
	go cl.readLoop()
	return cl
}

func (cl *Client) readLoop() {
	for {
		_, data, err := cl.c.ReadMessage()
		if err != nil {
			cl.failPending(err)
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			scope.Warnf("client: malformed envelope: %v", err)
			continue
		}
		switch env.Type {
		case "status":
			cl.deliverStatus(env.Data)
		default:
			cl.resolve(env)
		}
	}
}

func (cl *Client) failPending(err error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for id, ch := range cl.pending {
		ch <- Envelope{ID: id, Error: ErrNoNetwork, Data: mustJSON(map[string]string{"message": err.Error()})}
		delete(cl.pending, id)
	}
}

func (cl *Client) deliverStatus(data json.RawMessage) {
	var push StatusPush
	if err := json.Unmarshal(data, &push); err != nil {
		return
	}
	status := parseStatus(push.Status)
	cl.mu.Lock()
	ls := append([]model.Listener(nil), cl.listeners[push.ID]...)
	cl.mu.Unlock()
	for _, l := range ls {
		l.NewStatus(status)
	}
}

func (cl *Client) resolve(env Envelope) {
	cl.mu.Lock()
	ch, ok := cl.pending[env.ID]
	if ok {
		delete(cl.pending, env.ID)
	}
	cl.mu.Unlock()
	if ok {
		ch <- env
	}
}

// Listen registers l to receive status pushes for remote service id.
func (cl *Client) Listen(id int, l model.Listener) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.listeners[id] = append(cl.listeners[id], l)
}

// call sends a request of the given type and blocks for its correlated
// response, unmarshaling its Data into out if non-nil.
func (cl *Client) call(reqType string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	ch := make(chan Envelope, 1)
	cl.mu.Lock()
	cl.pending[id] = ch
	cl.mu.Unlock()

	env := Envelope{Type: reqType, ID: id, Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	cl.writeMu.Lock()
	err = cl.c.WriteMessage(websocket.TextMessage, raw)
	cl.writeMu.Unlock()
	if err != nil {
		cl.mu.Lock()
		delete(cl.pending, id)
		cl.mu.Unlock()
		return err
	}

	resp := <-ch
	if resp.Error != "" {
		var body struct {
			Message string `json:"message"`
		}
		json.Unmarshal(resp.Data, &body)
		return resp.Error.AsError(body.Message)
	}
	if out != nil && len(resp.Data) > 0 {
		return json.Unmarshal(resp.Data, out)
	}
	return nil
}

// NewService asks the remote network to create a service.
func (cl *Client) NewService(handle *string, authToken string) (NewServiceResponse, error) {
	var out NewServiceResponse
	err := cl.call("newService", NewServiceRequest{Handle: handle, AuthToken: authToken}, &out)
	return out, err
}

// Define sends a define request for the given remote service id.
func (cl *Client) Define(id int, seg model.Segment) (StatusResponse, error) {
	var out StatusResponse
	err := cl.call("define", DefineRequest{ID: id, Flows: fromSegment(seg)}, &out)
	return out, err
}

// Activate, Deactivate and Release drive a remote service's lifecycle.
func (cl *Client) Activate(id int) (StatusResponse, error)   { return cl.simpleCall("activate", id) }
func (cl *Client) Deactivate(id int) (StatusResponse, error) { return cl.simpleCall("deactivate", id) }
func (cl *Client) Release(id int) (StatusResponse, error)    { return cl.simpleCall("release", id) }
func (cl *Client) Status(id int) (StatusResponse, error)     { return cl.simpleCall("status", id) }

func (cl *Client) simpleCall(reqType string, id int) (StatusResponse, error) {
	var out StatusResponse
	err := cl.call(reqType, ServiceRequest{ID: id}, &out)
	return out, err
}

// GetModel asks the remote network to report connectivity at or above
// minBandwidth.
func (cl *Client) GetModel(minBandwidth float64) (ModelResponse, error) {
	var out ModelResponse
	err := cl.call("getModel", GetModelRequest{MinBandwidth: minBandwidth}, &out)
	return out, err
}

// GetTerminals lists the remote network's external terminal names.
func (cl *Client) GetTerminals() ([]string, error) {
	var out TerminalsResponse
	err := cl.call("getTerminals", struct{}{}, &out)
	return out.Terminals, err
}

func mustJSON(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func parseStatus(s string) model.Status {
	switch s {
	case "DORMANT":
		return model.Dormant
	case "ESTABLISHING":
		return model.Establishing
	case "INACTIVE":
		return model.Inactive
	case "ACTIVATING":
		return model.Activating
	case "ACTIVE":
		return model.Active
	case "DEACTIVATING":
		return model.Deactivating
	case "FAILED":
		return model.Failed
	case "RELEASING":
		return model.Releasing
	case "RELEASED":
		return model.Released
	default:
		scope.Warnf("client: unknown remote status %q, treating as DORMANT", s)
		return model.Dormant
	}
}
