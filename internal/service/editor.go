package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/metrics"
	"github.com/spacey745/cpbot/internal/models"
)

// Editor replays edits of admin replies onto every copy the original was
// delivered as: the copy in the user chat and, when a mirror chat is
// configured, the duplicate in the mirror chat.
type Editor struct {
	transport Transport
	ledger    Ledger
	router    *Router
	logger    *logrus.Logger
}

func NewEditor(transport Transport, ledger Ledger, router *Router, logger *logrus.Logger) *Editor {
	return &Editor{
		transport: transport,
		ledger:    ledger,
		router:    router,
		logger:    logger,
	}
}

// PropagateEdit applies an edited admin reply to its forwarded copies. Edits
// that did not happen in an admin chat, are not replies, or were never
// forwarded are ignored. Finding more than one ledger record for the source
// is a broken invariant and fails before any transport call.
func (e *Editor) PropagateEdit(ctx context.Context, msg *models.Message) error {
	if msg == nil || !e.router.IsAdminChat(msg.ChatID) || msg.ReplyTo == nil {
		return nil
	}

	records, err := e.ledger.ForwardsBySource(ctx, msg.ChatID, msg.ID)
	if err != nil {
		return errors.Server("failed to look up edit targets", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": msg.ID,
		}).WithCause(err)
	}

	if len(records) == 0 {
		e.logger.WithFields(logrus.Fields{
			"chat_id":    msg.ChatID,
			"message_id": msg.ID,
		}).Debug("Edited message was never forwarded, nothing to update")
		return nil
	}
	if len(records) > 1 {
		return errors.Server("edited message matches several forward records", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": msg.ID,
			"matches":    len(records),
		}).WithCause(errors.ErrAmbiguousEditTarget)
	}

	rec := records[0]
	targets := []editTarget{{chatID: rec.ToChatID, messageID: rec.ToMessageID}}

	if mirrorID := e.router.MirrorChatID(); mirrorID != 0 && msg.ChatID != mirrorID {
		mirrorRec, err := e.ledger.ForwardByCopy(ctx, mirrorID, rec.ToChatID, rec.ToMessageID)
		if err != nil {
			return errors.Server("failed to look up mirror copy of edited message", map[string]interface{}{
				"chat_id":    msg.ChatID,
				"message_id": msg.ID,
			}).WithCause(err)
		}
		if mirrorRec != nil {
			targets = append(targets, editTarget{chatID: mirrorRec.FromChatID, messageID: mirrorRec.FromMessageID})
		} else {
			e.logger.WithFields(logrus.Fields{
				"chat_id":    msg.ChatID,
				"message_id": msg.ID,
			}).Warn("No mirror copy found for the edited message, updating the user copy only")
		}
	}

	if err := e.applyEdit(ctx, msg, targets); err != nil {
		return err
	}
	metrics.RecordEdit()
	return nil
}

type editTarget struct {
	chatID    int64
	messageID int
}

// applyEdit pushes the new body to every target copy in parallel. All targets
// are attempted even when one fails; the first failure is returned.
func (e *Editor) applyEdit(ctx context.Context, msg *models.Message, targets []editTarget) error {
	edit, err := e.editFunc(msg)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target editTarget) {
			defer wg.Done()
			errs[i] = edit(ctx, target)
		}(i, target)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.Server("failed to apply edit to forwarded copy", map[string]interface{}{
				"chat_id":    targets[i].chatID,
				"message_id": targets[i].messageID,
			}).WithCause(err)
		}
	}
	return nil
}

func (e *Editor) editFunc(msg *models.Message) (func(context.Context, editTarget) error, error) {
	switch {
	case msg.Text != "":
		return func(ctx context.Context, target editTarget) error {
			return e.transport.EditMessageText(ctx, target.chatID, target.messageID, msg.Text, msg.Entities)
		}, nil
	case msg.Caption != "":
		return func(ctx context.Context, target editTarget) error {
			return e.transport.EditMessageCaption(ctx, target.chatID, target.messageID, msg.Caption, msg.CaptionEntities)
		}, nil
	default:
		return nil, errors.Server("edited message carries neither text nor caption", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": msg.ID,
		})
	}
}
