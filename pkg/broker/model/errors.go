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

import "fmt"

// Kind classifies a broker error per the error taxonomy. It is a kind of
// error, not a concrete error type: callers should switch on Kind(err)
// rather than type-asserting to a specific struct.
type Kind int

const (
	// KindInvalidArgument marks a programmer error: negative bandwidth,
	// negative capacity, a non-contiguous label range, a circuit that does
	// not belong to the network it was presented to. Never mutates state.
	KindInvalidArgument Kind = iota
	// KindNotFound marks an unknown terminal, service id or service
	// handle.
	KindNotFound
	// KindNameInUse marks a terminal/handle/label-range collision.
	KindNameInUse
	// KindInvalidService marks a request referencing an unknown or
	// foreign circuit, one that exceeds terminal capacity, or one for
	// which no spanning tree exists.
	KindInvalidService
	// KindIllegalState marks an operation invalid for a service's current
	// lifecycle state (define after release, activate after failure, any
	// operation on a released service).
	KindIllegalState
	// KindRemote marks an error surfaced from the remote transport
	// collaborator; it semantically maps to one of the other kinds.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindNotFound:
		return "resource-not-found"
	case KindNameInUse:
		return "name-in-use"
	case KindInvalidService:
		return "invalid-service"
	case KindIllegalState:
		return "illegal-state"
	case KindRemote:
		return "remote-error"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carrying a Kind alongside its message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidArgument(format string, args ...interface{}) error {
	return newError(KindInvalidArgument, format, args...)
}

func NewNotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func NewNameInUse(format string, args ...interface{}) error {
	return newError(KindNameInUse, format, args...)
}

func NewInvalidService(format string, args ...interface{}) error {
	return newError(KindInvalidService, format, args...)
}

func NewIllegalState(format string, args ...interface{}) error {
	return newError(KindIllegalState, format, args...)
}

func NewRemote(format string, args ...interface{}) error {
	return newError(KindRemote, format, args...)
}

// Is reports whether err is a broker error of the given kind.
func Is(err error, k Kind) bool {
	be, ok := err.(*Error)
	return ok && be.Kind == k
}

// TerminalLogicError reports a violation scoped to one terminal of one
// network. The source this spec derives from conflated the two fields
// (storing the network name into what was documented as the terminal
// name); here they are kept distinct on purpose.
type TerminalLogicError struct {
	NetworkName  string
	TerminalName string
	Message      string
}

func (e *TerminalLogicError) Error() string {
	return fmt.Sprintf("%s: terminal %s/%s: %s", KindInvalidArgument, e.NetworkName, e.TerminalName, e.Message)
}

func NewTerminalLogicError(networkName, terminalName, format string, args ...interface{}) error {
	return &TerminalLogicError{
		NetworkName:  networkName,
		TerminalName: terminalName,
		Message:      fmt.Sprintf(format, args...),
	}
}
