package model

// Frame type discriminators. send_message is the only client-to-server frame;
// the rest flow server-to-client.
const (
	FrameSendMessage = "send_message"
	FrameNewMessage  = "new_message"
	FrameMessageSent = "message_sent"
	FrameError       = "error"
)

type (
	// SendFrame carries no sender field: the server takes the sender identity
	// from the authenticated channel the frame arrived on.
	SendFrame struct {
		Type       string `json:"type"`
		ReceiverID string `json:"receiverId"`
		Content    string `json:"content"`
	}

	MessageFrame struct {
		Type    string   `json:"type"`
		Message *Message `json:"message"`
	}

	ErrorFrame struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
)

func NewMessageFrame(m *Message) *MessageFrame {
	return &MessageFrame{Type: FrameNewMessage, Message: m}
}

func MessageSentFrame(m *Message) *MessageFrame {
	return &MessageFrame{Type: FrameMessageSent, Message: m}
}

func NewErrorFrame(reason string) *ErrorFrame {
	return &ErrorFrame{Type: FrameError, Message: reason}
}
