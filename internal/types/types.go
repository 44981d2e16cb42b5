package types

const (
	MsgTakeGeneral = "TakeGeneral"
	MsgArrange     = "Arrange"
	MsgStartDraft  = "StartDraft"
)

type ClientMessage struct {
	Type     string   `json:"type" validate:"required,oneof=TakeGeneral Arrange StartDraft"`
	General  string   `json:"general,omitempty" validate:"required_if=Type TakeGeneral"`
	Generals []string `json:"generals,omitempty" validate:"required_if=Type Arrange"`
}

type ServerMessage struct {
	Type    string `json:"type"` // "Event" | "Request" | "Joined" | "Error"
	Event   string `json:"event,omitempty"`
	Seat    string `json:"seat,omitempty"`
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}
