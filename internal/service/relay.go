package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/metrics"
	"github.com/spacey745/cpbot/internal/models"
	"github.com/spacey745/cpbot/internal/tracing"
)

// Fixed localized notices shown to end users. Only the greeting and the
// per-message footer are operator-configurable.
const (
	defaultGreeting   = "Приветствую, отправьте мне сообщение. Постараюсь ответить в ближайшее время."
	bannedNotice      = "Вы заблокированы"
	replyWrongNotice  = "Для ответа пользователю используйте функцию Ответить/Reply."
	failureNotice     = "❌ Ошибка при обработке запроса. Обратитесь в техподдержку или повторите операцию позже"
	brokenChainNotice = "❌ На это сообщение невозможно ответить так как настройки пользователя несовместимы " +
		"с предыдущей версией бота. На все новые сообщения от этого пользователя уже можно будет отвечать."
)

// Relay is the update entry point: it validates inbound updates, decides
// whether they are user messages, admin actions or edits, and hands them to
// the matching component. It also owns the error boundary that decides who
// hears about a failure.
type Relay struct {
	transport Transport
	ledger    Ledger
	users     *UserService
	forwarder *Forwarder
	editor    *Editor
	router    *Router
	notifier  Notifier
	logger    *logrus.Logger

	botID    int64
	botName  string
	greeting string
	footer   string
}

// RelayOptions bundles the identity and operator-configured strings the
// relay needs besides its collaborators.
type RelayOptions struct {
	BotID   int64
	BotName string
	Strings models.CustomStrings
}

func NewRelay(transport Transport, ledger Ledger, users *UserService, forwarder *Forwarder, editor *Editor, router *Router, notifier Notifier, logger *logrus.Logger, opts RelayOptions) *Relay {
	greeting := opts.Strings.OnStart
	if greeting == "" {
		greeting = defaultGreeting
	}
	return &Relay{
		transport: transport,
		ledger:    ledger,
		users:     users,
		forwarder: forwarder,
		editor:    editor,
		router:    router,
		notifier:  notifier,
		logger:    logger,
		botID:     opts.BotID,
		botName:   opts.BotName,
		greeting:  greeting,
		footer:    opts.Strings.OnEachMessage,
	}
}

// HandleUpdate processes one inbound update. Errors never escape: they are
// classified and reported to whoever the classification names, so a broken
// update cannot take down the update loop.
func (r *Relay) HandleUpdate(ctx context.Context, upd *models.Update) {
	start := time.Now()
	defer func() { metrics.RecordUpdateDuration(time.Since(start)) }()

	var err error
	var origin int64

	switch {
	case upd == nil:
		return
	case upd.Message != nil:
		origin = upd.Message.ChatID
		spanCtx, span := tracing.StartSpan(ctx, "relay.handle_message",
			attribute.Int64("chat.id", origin),
			attribute.String("message.kind", string(upd.Message.Kind)),
		)
		err = r.handleMessage(spanCtx, upd.Message)
		if err != nil {
			tracing.RecordError(spanCtx, err)
		}
		span.End()
	case upd.EditedMessage != nil:
		origin = upd.EditedMessage.ChatID
		spanCtx, span := tracing.StartSpan(ctx, "relay.handle_edit",
			attribute.Int64("chat.id", origin),
		)
		err = r.handleEdit(spanCtx, upd.EditedMessage)
		if err != nil {
			tracing.RecordError(spanCtx, err)
		}
		span.End()
	default:
		return
	}

	if err != nil {
		r.reportError(ctx, origin, err)
	}
}

// reportError is the error boundary: client errors answer the originating
// chat, server errors go to the master chat, anything unclassified goes to
// the master chat with the raw error attached. Unless the error is marked
// silent the originating chat also gets the generic failure notice.
func (r *Relay) reportError(ctx context.Context, origin int64, err error) {
	r.logger.WithError(err).Error("Update handling failed")

	var botErr *errors.BotError
	switch errors.KindOf(err) {
	case errors.KindClient:
		if stderrors.As(err, &botErr) && origin != 0 {
			if _, sendErr := r.transport.SendMessage(ctx, origin, botErr.Message, nil); sendErr != nil {
				r.logger.WithError(sendErr).Error("Failed to answer chat with error message")
			}
		}
	case errors.KindServer:
		r.notify(ctx, LevelError, err.Error(), errors.MetaOf(err))
	default:
		r.notify(ctx, LevelError, err.Error(), map[string]interface{}{
			"error": fmt.Sprintf("%+v", err),
		})
	}

	if !errors.IsSilent(err) && errors.KindOf(err) != errors.KindClient && origin != 0 {
		if _, sendErr := r.transport.SendMessage(ctx, origin, failureNotice, nil); sendErr != nil {
			r.logger.WithError(sendErr).Error("Failed to send failure notice")
		}
	}
}

func (r *Relay) handleMessage(ctx context.Context, msg *models.Message) error {
	if r.router.IsMirrorChat(msg.ChatID) {
		return nil
	}

	if handled, err := r.handleServiceMessage(ctx, msg); handled {
		return err
	}

	if msg.Text == "/start" {
		if !r.router.IsAdminChat(msg.ChatID) {
			_, err := r.transport.SendMessage(ctx, msg.ChatID, r.greeting, nil)
			return err
		}
		return nil
	}

	if !msg.Kind.Forwardable() {
		return r.notifier.Notify(ctx, LevelWarn, "A message with not allowed update type was sent", map[string]interface{}{
			"user_id": senderID(msg),
			"chat_id": msg.ChatID,
			"kind":    string(msg.Kind),
		})
	}

	if r.router.IsAdminChat(msg.ChatID) {
		return r.handleAdminMessage(ctx, msg)
	}
	return r.handleUserMessage(ctx, msg)
}

// handleServiceMessage deals with group lifecycle events. The bot is meant
// to live in the configured chats only, so being pulled into a new group is
// worth a notice.
func (r *Relay) handleServiceMessage(ctx context.Context, msg *models.Message) (bool, error) {
	switch {
	case msg.GroupChatCreated:
		return true, r.notifier.Notify(ctx, LevelWarn, "A bot was added to a new group chat", map[string]interface{}{
			"chat_id": msg.ChatID,
		})
	case msg.MigrateToChatID != 0:
		return true, r.notifier.Notify(ctx, LevelWarn, "A group chat was migrated to another id", map[string]interface{}{
			"from_chat_id": msg.ChatID,
			"to_chat_id":   msg.MigrateToChatID,
		})
	case msg.MigrateFromChatID != 0:
		// Arrives in pair with the migrate-to event, which already reported.
		return true, nil
	}
	return false, nil
}

func (r *Relay) handleUserMessage(ctx context.Context, msg *models.Message) error {
	if !msg.IsPersonal() || msg.From == nil {
		return nil
	}

	rec, err := r.users.Lookup(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if rec != nil && rec.IsBanned {
		_, err := r.transport.SendMessage(ctx, msg.ChatID, bannedNotice, nil)
		return err
	}

	rec, err = r.users.Touch(ctx, msg.From)
	if err != nil {
		return err
	}

	if err := r.forwarder.ForwardUserMessage(ctx, msg, rec); err != nil {
		return err
	}

	if r.footer != "" {
		if _, err := r.transport.SendMessage(ctx, msg.ChatID, r.footer, nil); err != nil {
			r.logger.WithError(err).Warn("Failed to send the per-message footer")
		}
	}
	return nil
}

// handleAdminMessage routes admin-chat activity. A reply to a forwarded bot
// message is either a command about its sender or a response to relay back; a
// reply to another admin is duplicated to the mirror chat. A plain non-reply
// message has no target user, so the admin is reminded to use Reply.
func (r *Relay) handleAdminMessage(ctx context.Context, msg *models.Message) error {
	if msg.ReplyTo == nil {
		_, err := r.transport.SendMessage(ctx, msg.ChatID, replyWrongNotice, nil)
		return err
	}

	body := msg.Body()
	if isInfoCommand(body) {
		chatIDs := []int64{msg.ChatID}
		if mirrorID := r.router.MirrorChatID(); mirrorID != 0 {
			chatIDs = append(chatIDs, mirrorID)
		}
		return r.sendUserInfo(ctx, chatIDs, msg.ReplyTo)
	}

	if msg.ReplyTo.From == nil || msg.ReplyTo.From.ID != r.botID {
		if mirrorID := r.router.MirrorChatID(); mirrorID != 0 {
			if _, err := r.transport.ForwardMessage(ctx, mirrorID, msg.ChatID, msg.ID); err != nil {
				return errors.Server("failed to duplicate admin discussion to the mirror chat", map[string]interface{}{
					"chat_id":    msg.ChatID,
					"message_id": msg.ID,
				}).WithCause(err)
			}
		}
		return nil
	}

	chain, err := r.ledger.ForwardByDest(ctx, msg.ChatID, msg.ReplyTo.ID)
	if err != nil {
		return errors.Server("failed to resolve replied forward", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": msg.ReplyTo.ID,
		}).WithCause(err)
	}
	if chain == nil {
		return errors.Client(brokenChainNotice)
	}

	if cmd, ok := parseFlagCommand(body); ok {
		return r.handleFlagCommand(ctx, msg, chain, cmd)
	}
	if strings.HasPrefix(body, "/") {
		return r.handleUnknownCommand(ctx, msg, body)
	}
	return r.forwarder.ForwardAdminReply(ctx, msg, chain)
}

func (r *Relay) handleEdit(ctx context.Context, msg *models.Message) error {
	return r.editor.PropagateEdit(ctx, msg)
}

func (r *Relay) notify(ctx context.Context, level NoticeLevel, text string, meta map[string]interface{}) {
	if err := r.notifier.Notify(ctx, level, text, meta); err != nil {
		r.logger.WithError(err).Error("Failed to deliver a notice")
	}
}

func senderID(msg *models.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
