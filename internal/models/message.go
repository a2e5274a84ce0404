package models

// MessageKind tags an inbound message with its content type. Only kinds the
// bot is able to copy between chats are listed; everything else maps to
// MessageKindUnsupported and is reported instead of forwarded.
type MessageKind string

const (
	MessageKindText        MessageKind = "text"
	MessageKindPhoto       MessageKind = "photo"
	MessageKindSticker     MessageKind = "sticker"
	MessageKindDocument    MessageKind = "document"
	MessageKindVoice       MessageKind = "voice"
	MessageKindVideo       MessageKind = "video"
	MessageKindAudio       MessageKind = "audio"
	MessageKindVideoNote   MessageKind = "video_note"
	MessageKindAnimation   MessageKind = "animation"
	MessageKindService     MessageKind = "service"
	MessageKindUnsupported MessageKind = "unsupported"
)

// Forwardable reports whether a message of this kind may be copied to other
// chats.
func (k MessageKind) Forwardable() bool {
	switch k {
	case MessageKindText, MessageKindPhoto, MessageKindSticker, MessageKindDocument,
		MessageKindVoice, MessageKindVideo, MessageKindAudio, MessageKindVideoNote,
		MessageKindAnimation:
		return true
	}
	return false
}

// Entity is a rich-text range over a message text or caption. Offsets and
// lengths are in characters over the text the entity belongs to.
type Entity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	Language string `json:"language,omitempty"`
}

// User is the message sender as reported by the transport.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"isBot"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
	LangCode  string `json:"langCode,omitempty"`
}

// Message is an inbound message validated at the transport boundary.
// The core never touches raw protocol payloads; everything it needs is
// carried here.
type Message struct {
	ID              int         `json:"id"`
	ChatID          int64       `json:"chatId"`
	ChatType        string      `json:"chatType"`
	From            *User       `json:"from,omitempty"`
	Kind            MessageKind `json:"kind"`
	Text            string      `json:"text,omitempty"`
	Caption         string      `json:"caption,omitempty"`
	Entities        []Entity    `json:"entities,omitempty"`
	CaptionEntities []Entity    `json:"captionEntities,omitempty"`
	ReplyTo         *Message    `json:"replyTo,omitempty"`

	// Service-message details, set only when Kind == MessageKindService.
	GroupChatCreated  bool  `json:"groupChatCreated,omitempty"`
	MigrateToChatID   int64 `json:"migrateToChatId,omitempty"`
	MigrateFromChatID int64 `json:"migrateFromChatId,omitempty"`
}

// IsPersonal reports whether the message was sent in a private chat with the
// bot.
func (m *Message) IsPersonal() bool {
	return m.ChatType == "private"
}

// Body returns the message text or, for media messages, the caption.
func (m *Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// Update is the tagged variant handed to the relay: exactly one of the
// fields is set.
type Update struct {
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"editedMessage,omitempty"`
}
