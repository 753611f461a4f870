// Package action is the request boundary used by external callers: a named
// action with JSON parameters goes in, a uniform envelope comes out. Nothing
// below this package panics or returns raw errors past it.
package action

import (
	"encoding/json"

	"github.com/djklmr2025/cosmos-den/internal/fault"
)

// Request names an action and carries its parameters as raw JSON.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Envelope is the response to every request.
type Envelope struct {
	OK    bool       `json:"ok"`
	Error string     `json:"error,omitempty"`
	Kind  fault.Kind `json:"kind,omitempty"`
	Data  any        `json:"data,omitempty"`
}

func success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// failure renders err for the caller. Partial results survive only for
// timeouts and cancellations, where the output captured so far is useful;
// a policy rejection never explains itself.
func failure(err error, data any) Envelope {
	env := Envelope{Error: fault.Message(err), Kind: fault.KindOf(err)}
	switch env.Kind {
	case fault.KindTimeout, fault.KindCanceled:
		env.Data = data
	}
	return env
}
