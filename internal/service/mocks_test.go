package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spacey745/cpbot/internal/models"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*SendResult, error) {
	args := m.Called(ctx, chatID, text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

func (m *mockTransport) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, opts *CopyOptions) (*SendResult, error) {
	args := m.Called(ctx, toChatID, fromChatID, messageID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

func (m *mockTransport) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (*SendResult, error) {
	args := m.Called(ctx, toChatID, fromChatID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

func (m *mockTransport) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, entities []models.Entity) error {
	args := m.Called(ctx, chatID, messageID, text, entities)
	return args.Error(0)
}

func (m *mockTransport) EditMessageCaption(ctx context.Context, chatID int64, messageID int, caption string, entities []models.Entity) error {
	args := m.Called(ctx, chatID, messageID, caption, entities)
	return args.Error(0)
}

func (m *mockTransport) IsReplyTargetMissing(err error) bool {
	args := m.Called(err)
	return args.Bool(0)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CreateForward(ctx context.Context, rec *models.ForwardRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockLedger) LatestOpenForward(ctx context.Context, fromUserID, toChatID int64) (*models.ForwardRecord, error) {
	args := m.Called(ctx, fromUserID, toChatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForwardRecord), args.Error(1)
}

func (m *mockLedger) ForwardByDest(ctx context.Context, toChatID int64, toMessageID int) (*models.ForwardRecord, error) {
	args := m.Called(ctx, toChatID, toMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForwardRecord), args.Error(1)
}

func (m *mockLedger) ForwardsBySource(ctx context.Context, fromChatID int64, fromMessageID int) ([]*models.ForwardRecord, error) {
	args := m.Called(ctx, fromChatID, fromMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ForwardRecord), args.Error(1)
}

func (m *mockLedger) ForwardByDestSourceMsg(ctx context.Context, toChatID int64, fromMessageID int) (*models.ForwardRecord, error) {
	args := m.Called(ctx, toChatID, fromMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForwardRecord), args.Error(1)
}

func (m *mockLedger) ForwardByCopy(ctx context.Context, fromChatID, toChatID int64, toMessageID int) (*models.ForwardRecord, error) {
	args := m.Called(ctx, fromChatID, toChatID, toMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForwardRecord), args.Error(1)
}

func (m *mockLedger) MarkForwardDeleted(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) UserByTgID(ctx context.Context, tgUserID int64) (*models.UserRecord, error) {
	args := m.Called(ctx, tgUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserRecord), args.Error(1)
}

func (m *mockUserStore) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockUserStore) SetUserBanned(ctx context.Context, tgUserID int64, banned bool) error {
	args := m.Called(ctx, tgUserID, banned)
	return args.Error(0)
}

func (m *mockUserStore) SetUserFavorite(ctx context.Context, tgUserID int64, favorite bool) error {
	args := m.Called(ctx, tgUserID, favorite)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, level NoticeLevel, text string, meta map[string]interface{}) error {
	args := m.Called(ctx, level, text, meta)
	return args.Error(0)
}
