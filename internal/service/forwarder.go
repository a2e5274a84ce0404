package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/constants"
	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/metrics"
	"github.com/spacey745/cpbot/internal/models"
)

// Forwarder copies user messages into the admin chats and admin replies back
// into user chats, recording every delivered copy in the ledger so later
// replies and edits can be resolved.
type Forwarder struct {
	transport Transport
	ledger    Ledger
	router    *Router
	notifier  Notifier
	logger    *logrus.Logger
}

func NewForwarder(transport Transport, ledger Ledger, router *Router, notifier Notifier, logger *logrus.Logger) *Forwarder {
	return &Forwarder{
		transport: transport,
		ledger:    ledger,
		router:    router,
		notifier:  notifier,
		logger:    logger,
	}
}

// BuildHeader renders the attribution header prepended to every forwarded
// copy: the sender's mask tag on the first line, the display name and
// username on the second. Missing profile fields render as blanks, matching
// what the admins are used to seeing.
func BuildHeader(user *models.UserRecord, from *models.User) string {
	var firstName, lastName, username string
	if from != nil {
		firstName = from.FirstName
		lastName = from.LastName
		username = from.Username
	}

	nameLine := fmt.Sprintf("%s %s @%s", firstName, lastName, username)
	if user != nil && user.MaskUID != "" {
		return "#" + user.MaskUID + "\n" + nameLine
	}
	return nameLine
}

// ForwardUserMessage copies an inbound user message to every destination the
// router names for the sender. Each destination keeps its own reply chain:
// the copy replies to the latest open forward from the same user, so
// consecutive messages stay visually threaded in the admin chat.
//
// When the chain head was deleted upstream the dispatch fails with a missing
// reply target; the stale ledger row is marked deleted and the dispatch is
// retried exactly once without a chain. Any other failure aborts the whole
// forward.
func (f *Forwarder) ForwardUserMessage(ctx context.Context, msg *models.Message, user *models.UserRecord) error {
	if msg == nil || msg.From == nil {
		return errors.Server("cannot forward a message without a sender", nil)
	}

	header := BuildHeader(user, msg.From)

	for _, dest := range f.router.Destinations(user) {
		chain, err := f.ledger.LatestOpenForward(ctx, msg.From.ID, dest)
		if err != nil {
			return errors.Server("failed to load reply chain", map[string]interface{}{
				"user_id": msg.From.ID,
				"chat_id": dest,
			}).WithCause(err)
		}

		err = f.dispatch(ctx, msg, dest, header, chain)
		if err != nil && chain != nil && f.transport.IsReplyTargetMissing(err) {
			f.logger.WithFields(logrus.Fields{
				"chat_id":    dest,
				"message_id": chain.ToMessageID,
			}).Warn("Reply chain target is gone, dropping chain and retrying")

			if markErr := f.ledger.MarkForwardDeleted(ctx, chain.ID); markErr != nil {
				return errors.Server("failed to mark stale forward deleted", map[string]interface{}{
					"forward_id": chain.ID,
				}).WithCause(markErr)
			}
			metrics.RecordChainRecovery()
			err = f.dispatch(ctx, msg, dest, header, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// dispatch delivers one message to one destination chat, splitting oversized
// bodies in two, and records each delivered piece. Only the first piece joins
// the reply chain; the overflow piece is sent as a plain follow-up.
func (f *Forwarder) dispatch(ctx context.Context, msg *models.Message, dest int64, header string, chain *models.ForwardRecord) error {
	// The newline between header and body counts against the limit too.
	headerLen := utf8.RuneCountInString(header) + 1

	if msg.Text != "" {
		return f.dispatchText(ctx, msg, dest, header, headerLen, chain)
	}
	return f.dispatchCopy(ctx, msg, dest, header, headerLen, chain)
}

func (f *Forwarder) dispatchText(ctx context.Context, msg *models.Message, dest int64, header string, headerLen int, chain *models.ForwardRecord) error {
	parts, err := Segment(msg.Text, constants.MessageTextLimit-headerLen)
	if err != nil {
		return errors.Server("message cannot be split to fit the size limit", map[string]interface{}{
			"user_id": msg.From.ID,
			"length":  utf8.RuneCountInString(msg.Text),
		}).WithCause(err)
	}

	part1, part2, marker := splitParts(parts)
	leftEntities, rightEntities := msg.Entities, []models.Entity(nil)
	if part2 != "" {
		leftEntities, rightEntities = SegmentEntities(msg.Entities, utf8.RuneCountInString(part1))
	}

	sent, err := f.transport.SendMessage(ctx, dest, header+"\n"+part1+marker, &SendOptions{
		Entities:         ShiftEntities(leftEntities, headerLen),
		ReplyToMessageID: chainMessageID(chain),
	})
	if err != nil {
		return err
	}
	if err := f.recordForward(ctx, msg, dest, sent.MessageID, chain); err != nil {
		return err
	}

	if part2 == "" {
		return nil
	}
	return f.sendOverflow(ctx, msg, dest, header, headerLen, part2, rightEntities)
}

func (f *Forwarder) dispatchCopy(ctx context.Context, msg *models.Message, dest int64, header string, headerLen int, chain *models.ForwardRecord) error {
	parts, err := Segment(msg.Caption, constants.MessageCaptionLimit-headerLen)
	if err != nil {
		return errors.Server("caption cannot be split to fit the size limit", map[string]interface{}{
			"user_id": msg.From.ID,
			"length":  utf8.RuneCountInString(msg.Caption),
		}).WithCause(err)
	}

	part1, part2, marker := splitParts(parts)
	leftEntities, rightEntities := msg.CaptionEntities, []models.Entity(nil)
	if part2 != "" {
		leftEntities, rightEntities = SegmentEntities(msg.CaptionEntities, utf8.RuneCountInString(part1))
	}

	opts := &CopyOptions{ReplyToMessageID: chainMessageID(chain)}
	if part1 != "" {
		caption := header + "\n" + part1 + marker
		opts.Caption = &caption
		opts.CaptionEntities = ShiftEntities(leftEntities, headerLen)
	}

	sent, err := f.transport.CopyMessage(ctx, dest, msg.ChatID, msg.ID, opts)
	if err != nil {
		return err
	}
	if err := f.recordForward(ctx, msg, dest, sent.MessageID, chain); err != nil {
		return err
	}

	if part2 == "" {
		return nil
	}
	return f.sendOverflow(ctx, msg, dest, header, headerLen, part2, rightEntities)
}

// sendOverflow delivers the second half of a split body as a standalone text
// message. It never joins the reply chain but is still recorded so edits can
// find it.
func (f *Forwarder) sendOverflow(ctx context.Context, msg *models.Message, dest int64, header string, headerLen int, part string, entities []models.Entity) error {
	sent, err := f.transport.SendMessage(ctx, dest, header+"\n"+part, &SendOptions{
		Entities: ShiftEntities(entities, headerLen),
	})
	if err != nil {
		return err
	}
	return f.recordForward(ctx, msg, dest, sent.MessageID, nil)
}

func (f *Forwarder) recordForward(ctx context.Context, msg *models.Message, dest int64, sentID int, chain *models.ForwardRecord) error {
	fromUserID := msg.From.ID
	rec := &models.ForwardRecord{
		FromUserID:    &fromUserID,
		FromChatID:    msg.ChatID,
		ToChatID:      dest,
		FromMessageID: msg.ID,
		ToMessageID:   sentID,
	}
	if chain != nil {
		rec.ReplyToID = &chain.ID
	}

	if err := f.ledger.CreateForward(ctx, rec); err != nil {
		return errors.Server("failed to record forward", map[string]interface{}{
			"user_id": fromUserID,
			"chat_id": dest,
		}).WithCause(err)
	}
	metrics.RecordForward(string(msg.Kind))
	return nil
}

// ForwardAdminReply copies an admin's reply into the user chat the replied-to
// forward came from, threading it under the user's original message. When a
// mirror chat is configured the reply is duplicated there too, linked to the
// mirror's copy of the same user message.
func (f *Forwarder) ForwardAdminReply(ctx context.Context, msg *models.Message, chain *models.ForwardRecord) error {
	if chain.FromUserID == nil {
		return errors.Server("forward record has no source user", map[string]interface{}{
			"forward_id": chain.ID,
		})
	}
	userID := *chain.FromUserID

	sent, err := f.transport.CopyMessage(ctx, chain.FromChatID, msg.ChatID, msg.ID, &CopyOptions{
		ReplyToMessageID:         chain.FromMessageID,
		AllowSendingWithoutReply: true,
	})
	if err != nil {
		return errors.Client(fmt.Sprintf("Ошибка: %v. ID пользователя %d", err, userID)).WithCause(err)
	}

	rec := &models.ForwardRecord{
		ToUserID:      &userID,
		FromChatID:    msg.ChatID,
		ToChatID:      chain.FromChatID,
		FromMessageID: msg.ID,
		ToMessageID:   sent.MessageID,
		ReplyToID:     &chain.ID,
	}
	if err := f.ledger.CreateForward(ctx, rec); err != nil {
		return errors.Server("failed to record admin reply", map[string]interface{}{
			"user_id": userID,
		}).WithCause(err)
	}

	mirrorID := f.router.MirrorChatID()
	if mirrorID == 0 || msg.ChatID == mirrorID {
		return nil
	}
	f.mirrorAdminReply(ctx, msg, chain, mirrorID, sent.MessageID, userID)
	return nil
}

// mirrorAdminReply duplicates an admin reply into the mirror chat. The reply
// already reached the user at this point, so mirror failures are reported as
// notices instead of failing the whole operation.
func (f *Forwarder) mirrorAdminReply(ctx context.Context, msg *models.Message, chain *models.ForwardRecord, mirrorID int64, userCopyID int, userID int64) {
	mirrorChain, err := f.ledger.ForwardByDestSourceMsg(ctx, mirrorID, chain.FromMessageID)
	if err != nil || mirrorChain == nil {
		f.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"message_id": chain.FromMessageID,
		}).WithError(err).Warn("No mirror copy found for the replied message, skipping duplication")
		return
	}

	mirrorSent, err := f.transport.CopyMessage(ctx, mirrorID, msg.ChatID, msg.ID, &CopyOptions{
		ReplyToMessageID:         mirrorChain.ToMessageID,
		AllowSendingWithoutReply: true,
	})
	if err != nil {
		f.notify(ctx, LevelError, "Failed to duplicate an admin reply to the mirror chat", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	rec := &models.ForwardRecord{
		ToUserID:      &userID,
		FromChatID:    mirrorID,
		ToChatID:      chain.FromChatID,
		FromMessageID: mirrorSent.MessageID,
		ToMessageID:   userCopyID,
		ReplyToID:     &mirrorChain.ID,
	}
	if err := f.ledger.CreateForward(ctx, rec); err != nil {
		f.notify(ctx, LevelError, "Failed to record a mirror copy of an admin reply", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (f *Forwarder) notify(ctx context.Context, level NoticeLevel, text string, meta map[string]interface{}) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, level, text, meta); err != nil {
		f.logger.WithError(err).Error("Failed to deliver a notice")
	}
}

// chainMessageID returns the destination message id of an open chain, or 0
// when there is no chain to reply to.
func chainMessageID(chain *models.ForwardRecord) int {
	if chain == nil {
		return 0
	}
	return chain.ToMessageID
}

// splitParts unpacks a Segment result into the two body parts and the marker
// appended to part one when the split point was not a natural boundary.
func splitParts(parts []string) (part1, part2, marker string) {
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], parts[2]
	}
}
