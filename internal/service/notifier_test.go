package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacey745/cpbot/internal/constants"
)

func TestNotifyRejectsUnknownLevel(t *testing.T) {
	transport := &mockTransport{}
	notifier := NewMasterNotifier(transport, testMasterChat, "cpbot", testLogger())

	err := notifier.Notify(context.Background(), NoticeLevel("TRACE"), "text", nil)
	require.Error(t, err)
	transport.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyRequiresText(t *testing.T) {
	transport := &mockTransport{}
	notifier := NewMasterNotifier(transport, testMasterChat, "cpbot", testLogger())

	err := notifier.Notify(context.Background(), LevelError, "", nil)
	require.Error(t, err)
	transport.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifySendsLevelTextAndMeta(t *testing.T) {
	transport := &mockTransport{}
	notifier := NewMasterNotifier(transport, testMasterChat, "cpbot", testLogger())

	transport.On("SendMessage", mock.Anything, testMasterChat, mock.MatchedBy(func(text string) bool {
		return strings.HasPrefix(text, "ERROR something broke ") &&
			strings.Contains(text, `"botName":"cpbot"`) &&
			strings.Contains(text, `"chat_id":5`)
	}), mock.Anything).Return(&SendResult{MessageID: 1}, nil)

	err := notifier.Notify(context.Background(), LevelError, "something broke", map[string]interface{}{"chat_id": 5})
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestNotifyTruncatesOversizedNotices(t *testing.T) {
	transport := &mockTransport{}
	notifier := NewMasterNotifier(transport, testMasterChat, "cpbot", testLogger())

	transport.On("SendMessage", mock.Anything, testMasterChat, mock.MatchedBy(func(text string) bool {
		return utf8.RuneCountInString(text) == constants.MessageTextLimit &&
			strings.HasSuffix(text, constants.EllipsisMarker)
	}), mock.Anything).Return(&SendResult{MessageID: 1}, nil)

	err := notifier.Notify(context.Background(), LevelWarn, strings.Repeat("я", 5000), nil)
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestNotifyWithoutMasterChatDropsNotice(t *testing.T) {
	transport := &mockTransport{}
	notifier := NewMasterNotifier(transport, 0, "cpbot", testLogger())

	err := notifier.Notify(context.Background(), LevelInfo, "hello", nil)
	require.NoError(t, err)
	transport.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTruncateShortTextUntouched(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
}
