package models

import "time"

// ForwardRecord links one physical copy of a message in a destination chat
// back to its source. A record with a nil ReplyToID starts a new reply chain;
// records created while a chain is open point at the chain root.
type ForwardRecord struct {
	ID            int64     `json:"id"`
	FromUserID    *int64    `json:"fromUserId,omitempty"`
	ToUserID      *int64    `json:"toUserId,omitempty"`
	FromChatID    int64     `json:"fromChatId"`
	ToChatID      int64     `json:"toChatId"`
	FromMessageID int       `json:"fromMessageId"`
	ToMessageID   int       `json:"toMessageId"`
	ReplyToID     *int64    `json:"replyToId,omitempty"`
	Deleted       bool      `json:"deleted"`
	Created       time.Time `json:"created"`
}
