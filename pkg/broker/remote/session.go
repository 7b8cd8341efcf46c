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
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

var scope = log.RegisterScope("remote", "JSON-over-websocket presentation of a network's service contract", 0)

// idleFlush is how often a Session pings its connection; a connection
// that goes pingTimeouts consecutive ticks without a pong is closed.
const (
	idleFlush    = 30 * time.Second
	pingTimeouts = 2
)

// conn is the subset of *websocket.Conn a Session needs; exists so tests
// can substitute a fake without opening a real socket.
type conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session presents one model.Network's service contract over a single
// duplex JSON channel. Each inbound Envelope is a request; Session
// dispatches it to the network and writes back a response Envelope
// carrying the same ID. Service status transitions are pushed
// unprompted as "status" Envelopes.
type Session struct {
	c   conn
	net model.Network

	writeMu sync.Mutex

	mu        sync.Mutex
	bindings  map[int]*binding
	missedPongs int

	done chan struct{}
}

type binding struct {
	svc model.Service
}

// NewSession wraps c (typically a *websocket.Conn dialed or accepted via
// gorilla/websocket) to present net.
func NewSession(c conn, net model.Network) *Session {
	s := &Session{
		c:        c,
		net:      net,
		bindings: make(map[int]*binding),
		done:     make(chan struct{}),
	}
	c.SetPongHandler(func(string) error {
		s.mu.Lock()
		s.missedPongs = 0
		s.mu.Unlock()
		return nil
	})
	return s
}

// Serve reads envelopes from the connection until it closes or ctx-like
// shutdown via Close, dispatching each to the bound network. It also
// starts the idle-flush ticker and blocks until the connection ends.
func (s *Session) Serve() error {
	go s.flushLoop()
	defer func() {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	}()

	for {
		_, data, err := s.c.ReadMessage()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.writeError("", ErrInvalidArgument, "malformed envelope: "+err.Error())
			continue
		}
		s.dispatch(env)
	}
}

// Close ends the session, stopping the flush loop and closing the
// underlying connection.
func (s *Session) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.c.Close()
}

func (s *Session) flushLoop() {
	ticker := time.NewTicker(idleFlush)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.missedPongs++
			missed := s.missedPongs
			s.mu.Unlock()
			if missed >= pingTimeouts {
				scope.Warnf("session missed %d pings, closing", missed)
				s.Close()
				return
			}
			s.writeMu.Lock()
			err := s.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(idleFlush))
			s.writeMu.Unlock()
			if err != nil {
				scope.Warnf("session ping failed: %v", err)
				s.Close()
				return
			}
		}
	}
}

func (s *Session) dispatch(env Envelope) {
	h, ok := handlers[env.Type]
	if !ok {
		s.writeError(env.ID, ErrInvalidArgument, "unknown request type "+env.Type)
		return
	}
	result, err := h(s, env.Data)
	if err != nil {
		s.writeError(env.ID, CodeForError(err), err.Error())
		return
	}
	s.writeResult(env.ID, result)
}

func (s *Session) writeResult(id string, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		scope.Errorf("marshaling response for %s: %v", id, err)
		return
	}
	s.send(Envelope{Type: "response", ID: id, Data: data})
}

func (s *Session) writeError(id string, code ErrorCode, message string) {
	data, _ := json.Marshal(map[string]string{"message": message})
	s.send(Envelope{Type: "response", ID: id, Error: code, Data: data})
}

func (s *Session) send(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		scope.Errorf("marshaling envelope: %v", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.c.WriteMessage(websocket.TextMessage, data); err != nil {
		scope.Warnf("writing envelope: %v", err)
	}
}

// attach installs a status listener on svc that pushes a "status"
// Envelope for every transition, and remembers the binding so a service
// is attached at most once. The listener is never detached: there is no
// request that removes it, and Close leaves it installed.
func (s *Session) attach(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[svc.ID()]; ok {
		return
	}
	b := &binding{svc: svc}
	s.bindings[svc.ID()] = b
	svc.AddListener(model.ListenerFunc(func(status model.Status) {
		push, _ := json.Marshal(StatusPush{ID: svc.ID(), Status: status.String()})
		s.send(Envelope{Type: "status", ID: uuid.NewString(), Data: push})
	}))
}
