package live

import (
	"encoding/json"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/drag"
	"github.com/planviz/planviz/viewer-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypePointerDown   = "pointer.down"
	TypePointerMove   = "pointer.move"
	TypePointerUp     = "pointer.up"
	TypePointerCancel = "pointer.cancel"
	TypeReload        = "reload"
	TypeRegenerate    = "regenerate"
	TypeParamsSet     = "params.set"

	// Server to client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeDrag    = "drag"
	TypeError   = "error"
)

// PointerPayload carries a pointer position in logical canvas units. The
// browser inverts its viewport matrix before sending.
type PointerPayload struct {
	View engine.View `json:"view"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

type ParamsPayload struct {
	Params document.ViewParameters `json:"params"`
}

type WelcomePayload struct {
	SessionID string                  `json:"sessionId"`
	ClientID  string                  `json:"clientId"`
	Mode      document.Mode           `json:"mode"`
	Views     []engine.View           `json:"views"`
	Params    document.ViewParameters `json:"params"`
	Canvas    [2]int                  `json:"canvas"`
}

// DragPayload reports the end of a drag. Reverted is true when the marker
// was put back because it was released inside an obstacle.
type DragPayload struct {
	View engine.View `json:"view"`
	drag.Outcome
}

type ErrorPayload struct {
	Message string `json:"message"`
}
