package types

// Client -> Server, one JSON object per WebSocket text frame:
//
//   {"type": "Chat", "message": "hi"}
//   {"type": "startGame"}
//   {"type": "ready"}
//   {"type": "drawVault"} | {"type": "drawAlarm"} | {"type": "drawHandcuff"}
//   {"type": "giveCard", "recipient_id": "bob"}
//   {"type": "acknowledgeCard"}
//
// Joining and leaving are implied by opening and closing the socket.

const (
	MsgChat            = "Chat"
	MsgStartGame       = "startGame"
	MsgReady           = "ready"
	MsgDrawVault       = "drawVault"
	MsgDrawAlarm       = "drawAlarm"
	MsgDrawHandcuff    = "drawHandcuff"
	MsgGiveCard        = "giveCard"
	MsgAcknowledgeCard = "acknowledgeCard"
)

type ClientMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
}
