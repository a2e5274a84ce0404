package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/models"
)

func adminEdit(text string) *models.Message {
	return &models.Message{
		ID:      60,
		ChatID:  testAdminChat,
		Kind:    models.MessageKindText,
		Text:    text,
		ReplyTo: &models.Message{ID: 41, ChatID: testAdminChat},
	}
}

func TestPropagateEditIgnoresNonAdminChats(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	msg := adminEdit("updated")
	msg.ChatID = testUserChat

	err := editor.PropagateEdit(context.Background(), msg)
	require.NoError(t, err)
	ledger.AssertNotCalled(t, "ForwardsBySource", mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateEditIgnoresNonReplies(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	msg := adminEdit("updated")
	msg.ReplyTo = nil

	err := editor.PropagateEdit(context.Background(), msg)
	require.NoError(t, err)
	ledger.AssertNotCalled(t, "ForwardsBySource", mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateEditNoRecordsIsNoOp(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{}, nil)

	err := editor.PropagateEdit(context.Background(), adminEdit("updated"))
	require.NoError(t, err)
	transport.AssertNotCalled(t, "EditMessageText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateEditAmbiguousTargetFailsWithoutTransportCall(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	records := []*models.ForwardRecord{
		{ID: 1, ToChatID: testUserChat, ToMessageID: 77},
		{ID: 2, ToChatID: testUserChat, ToMessageID: 78},
	}
	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return(records, nil)

	err := editor.PropagateEdit(context.Background(), adminEdit("updated"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAmbiguousEditTarget)
	transport.AssertNotCalled(t, "EditMessageText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	transport.AssertNotCalled(t, "EditMessageCaption", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateEditUpdatesUserAndMirrorCopies(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	rec := &models.ForwardRecord{ID: 1, ToChatID: testUserChat, ToMessageID: 77}
	mirrorRec := &models.ForwardRecord{ID: 2, FromChatID: testMirrorChat, FromMessageID: 88, ToChatID: testUserChat, ToMessageID: 77}

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{rec}, nil)
	ledger.On("ForwardByCopy", mock.Anything, testMirrorChat, testUserChat, 77).Return(mirrorRec, nil)
	transport.On("EditMessageText", mock.Anything, testUserChat, 77, "updated", mock.Anything).Return(nil)
	transport.On("EditMessageText", mock.Anything, testMirrorChat, 88, "updated", mock.Anything).Return(nil)

	err := editor.PropagateEdit(context.Background(), adminEdit("updated"))
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestPropagateEditWithoutMirrorRecordUpdatesUserCopyOnly(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(true)), testLogger())

	rec := &models.ForwardRecord{ID: 1, ToChatID: testUserChat, ToMessageID: 77}

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{rec}, nil)
	ledger.On("ForwardByCopy", mock.Anything, testMirrorChat, testUserChat, 77).Return(nil, nil)
	transport.On("EditMessageText", mock.Anything, testUserChat, 77, "updated", mock.Anything).Return(nil)

	err := editor.PropagateEdit(context.Background(), adminEdit("updated"))
	require.NoError(t, err)
	transport.AssertExpectations(t)
	transport.AssertNumberOfCalls(t, "EditMessageText", 1)
}

func TestPropagateEditCaption(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(false)), testLogger())

	rec := &models.ForwardRecord{ID: 1, ToChatID: testUserChat, ToMessageID: 77}
	msg := adminEdit("")
	msg.Kind = models.MessageKindPhoto
	msg.Caption = "new caption"

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{rec}, nil)
	transport.On("EditMessageCaption", mock.Anything, testUserChat, 77, "new caption", mock.Anything).Return(nil)

	err := editor.PropagateEdit(context.Background(), msg)
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestPropagateEditWithoutBodyFails(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(false)), testLogger())

	rec := &models.ForwardRecord{ID: 1, ToChatID: testUserChat, ToMessageID: 77}
	msg := adminEdit("")

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{rec}, nil)

	err := editor.PropagateEdit(context.Background(), msg)
	require.Error(t, err)
	transport.AssertNotCalled(t, "EditMessageText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateEditReportsTransportFailure(t *testing.T) {
	transport := &mockTransport{}
	ledger := &mockLedger{}
	editor := NewEditor(transport, ledger, NewRouter(testChats(false)), testLogger())

	rec := &models.ForwardRecord{ID: 1, ToChatID: testUserChat, ToMessageID: 77}

	ledger.On("ForwardsBySource", mock.Anything, testAdminChat, 60).Return([]*models.ForwardRecord{rec}, nil)
	transport.On("EditMessageText", mock.Anything, testUserChat, 77, "updated", mock.Anything).
		Return(fmt.Errorf("Bad Request: message is not modified"))

	err := editor.PropagateEdit(context.Background(), adminEdit("updated"))
	require.Error(t, err)
	assert.Equal(t, errors.KindServer, errors.KindOf(err))
}
