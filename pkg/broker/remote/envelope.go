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

// Package remote is a JSON-over-duplex-channel collaborator: a thin
// transport for presenting a network's in-process contract to a remote
// caller, built on an explicit request/response correlation pattern
// over a long-lived duplex stream.
package remote

import (
	"encoding/json"

	"github.com/DataPlaneBroker/DPB-sub005/pkg/broker/model"
)

// Envelope is one message on the duplex channel: every message carries a
// mandatory Type, requests and their matching responses share an ID for
// correlation, and a response either carries its result in Data or one of the known
// ErrorCode values.
type Envelope struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Error ErrorCode       `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorCode is one of the known response error strings.
type ErrorCode string

const (
	ErrUnauthorized    ErrorCode = "unauthorized"
	ErrNoNetwork       ErrorCode = "no-network"
	ErrUnknownTerminal ErrorCode = "unknown-terminal"
	ErrUnknownService  ErrorCode = "unknown-service"
	ErrNameInUse       ErrorCode = "name-in-use"
	ErrInvalidService  ErrorCode = "invalid-service"
	ErrIllegalState    ErrorCode = "illegal-state"
	ErrInvalidArgument ErrorCode = "invalid-argument"
)

// kindToCode maps the in-process error taxonomy onto the wire's
// error-code vocabulary.
var kindToCode = map[model.Kind]ErrorCode{
	model.KindInvalidArgument: ErrInvalidArgument,
	model.KindNotFound:        ErrUnknownService,
	model.KindNameInUse:       ErrNameInUse,
	model.KindInvalidService:  ErrInvalidService,
	model.KindIllegalState:    ErrIllegalState,
}

// CodeForError derives the wire error code for a core error, defaulting
// to invalid-service for anything not recognized (never unauthorized or
// no-network, which are transport-level concerns with no core
// equivalent).
func CodeForError(err error) ErrorCode {
	be, ok := err.(*model.Error)
	if !ok {
		return ErrInvalidService
	}
	if code, ok := kindToCode[be.Kind]; ok {
		return code
	}
	return ErrInvalidService
}

// AsError maps a response's error code back onto a core error, for a
// local caller that wants to treat a remote failure like any other: a
// remote error semantically matches one of the core error kinds.
func (c ErrorCode) AsError(message string) error {
	switch c {
	case ErrUnknownTerminal, ErrUnknownService, ErrNoNetwork:
		return model.NewNotFound("%s", message)
	case ErrNameInUse:
		return model.NewNameInUse("%s", message)
	case ErrInvalidService:
		return model.NewInvalidService("%s", message)
	case ErrIllegalState:
		return model.NewIllegalState("%s", message)
	case ErrInvalidArgument:
		return model.NewInvalidArgument("%s", message)
	default:
		return model.NewRemote("%s: %s", c, message)
	}
}

// StatusPush is the wire payload for the "status" message type:
// {type:"status", id:<int>, status:"ACTIVE"|...}.
type StatusPush struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}
