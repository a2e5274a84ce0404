// Package service implements the relay core: routing inbound messages to
// their destination chats, fitting them under the transport size limits,
// keeping the forward ledger consistent and replaying edits.
package service

import (
	"context"

	"github.com/spacey745/cpbot/internal/models"
)

// SendOptions carries the optional parts of a text dispatch.
type SendOptions struct {
	Entities                 []models.Entity
	ParseMode                string
	ReplyToMessageID         int
	AllowSendingWithoutReply bool
}

// CopyOptions carries the optional parts of a message copy. A nil Caption
// leaves the original caption untouched.
type CopyOptions struct {
	Caption                  *string
	CaptionEntities          []models.Entity
	ReplyToMessageID         int
	AllowSendingWithoutReply bool
}

// SendResult is what the core needs back from a dispatch: the id the copy
// got in the destination chat.
type SendResult struct {
	MessageID int
}

// Transport is the messaging-protocol client the relay dispatches through.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*SendResult, error)
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, opts *CopyOptions) (*SendResult, error)
	ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (*SendResult, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, entities []models.Entity) error
	EditMessageCaption(ctx context.Context, chatID int64, messageID int, caption string, entities []models.Entity) error

	// IsReplyTargetMissing reports whether a dispatch failed because the
	// message it tried to reply to no longer exists upstream.
	IsReplyTargetMissing(err error) bool
}

// Ledger is the persistent forward graph.
type Ledger interface {
	CreateForward(ctx context.Context, rec *models.ForwardRecord) error
	LatestOpenForward(ctx context.Context, fromUserID, toChatID int64) (*models.ForwardRecord, error)
	ForwardByDest(ctx context.Context, toChatID int64, toMessageID int) (*models.ForwardRecord, error)
	ForwardsBySource(ctx context.Context, fromChatID int64, fromMessageID int) ([]*models.ForwardRecord, error)
	ForwardByDestSourceMsg(ctx context.Context, toChatID int64, fromMessageID int) (*models.ForwardRecord, error)
	ForwardByCopy(ctx context.Context, fromChatID, toChatID int64, toMessageID int) (*models.ForwardRecord, error)
	MarkForwardDeleted(ctx context.Context, id int64) error
}

// UserStore is the persistent user state.
type UserStore interface {
	UserByTgID(ctx context.Context, tgUserID int64) (*models.UserRecord, error)
	SaveUser(ctx context.Context, rec *models.UserRecord) error
	SetUserBanned(ctx context.Context, tgUserID int64, banned bool) error
	SetUserFavorite(ctx context.Context, tgUserID int64, favorite bool) error
}

// NoticeLevel classifies a master-chat notice.
type NoticeLevel string

const (
	LevelError NoticeLevel = "ERROR"
	LevelWarn  NoticeLevel = "WARN"
	LevelInfo  NoticeLevel = "INFO"
)

// Notifier is the side channel operational notices are pushed through.
type Notifier interface {
	Notify(ctx context.Context, level NoticeLevel, text string, meta map[string]interface{}) error
}
