package conversation

// Event is an inbound update: either a TextMessage or a Callback.
type Event interface {
	Sender() int64
	Chat() int64
	event()
}

// TextMessage is a free-text or command message.
type TextMessage struct {
	UserID      int64
	ChatID      int64
	DisplayName string
	Text        string
}

// Callback is a button press carrying an opaque token.
type Callback struct {
	UserID int64
	ChatID int64
	Token  string
}

// Sender returns the user identity.
func (m TextMessage) Sender() int64 { return m.UserID }

// Chat returns the originating chat.
func (m TextMessage) Chat() int64 { return m.ChatID }

func (TextMessage) event() {}

// Sender returns the user identity.
func (c Callback) Sender() int64 { return c.UserID }

// Chat returns the originating chat.
func (c Callback) Chat() int64 { return c.ChatID }

func (Callback) event() {}
