// Package telegram adapts the Bot API client to the transport contract the
// relay core consumes. All protocol payloads are converted to boundary
// models here; nothing downstream sees raw API types.
package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/models"
	"github.com/spacey745/cpbot/internal/service"
)

// UpdateHandler receives every converted inbound update.
type UpdateHandler func(ctx context.Context, upd *models.Update)

// Client wraps the Bot API client.
type Client struct {
	bot     *tgbot.Bot
	logger  *logrus.Logger
	handler UpdateHandler
}

// NewClient creates a Telegram client. Updates are handled one at a time in
// arrival order; reply chains depend on it.
func NewClient(token, webhookSecret string, logger *logrus.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	c := &Client{logger: logger}

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(c.onUpdate),
		tgbot.WithNotAsyncHandlers(),
	}
	if webhookSecret != "" {
		opts = append(opts, tgbot.WithWebhookSecretToken(webhookSecret))
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = b
	return c, nil
}

// SetUpdateHandler registers the update sink. Must be called before Start.
func (c *Client) SetUpdateHandler(handler UpdateHandler) {
	c.handler = handler
}

func (c *Client) onUpdate(ctx context.Context, _ *tgbot.Bot, upd *tgmodels.Update) {
	if c.handler == nil {
		return
	}

	converted := &models.Update{
		Message:       convertMessage(upd.Message),
		EditedMessage: convertMessage(upd.EditedMessage),
	}
	if converted.Message == nil && converted.EditedMessage == nil {
		c.logger.WithField("update_id", upd.ID).Debug("Ignoring update without a message")
		return
	}
	c.handler(ctx, converted)
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*models.User, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot account: %w", err)
	}
	return convertUser(me), nil
}

// Start runs long polling until the context is cancelled.
func (c *Client) Start(ctx context.Context) {
	c.logger.Info("Starting Telegram long polling")
	c.bot.Start(ctx)
	c.logger.Info("Telegram long polling stopped")
}

// RegisterWebhook points the Bot API at the given public URL.
func (c *Client) RegisterWebhook(ctx context.Context, url string) error {
	ok, err := c.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: url})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("webhook registration was not confirmed")
	}
	c.logger.WithField("url", url).Info("Webhook registered")
	return nil
}

// StartWebhook runs the webhook update loop until the context is cancelled.
// The HTTP route must be wired to WebhookHandler separately.
func (c *Client) StartWebhook(ctx context.Context) {
	c.logger.Info("Starting Telegram webhook update loop")
	c.bot.StartWebhook(ctx)
	c.logger.Info("Telegram webhook update loop stopped")
}

// WebhookHandler returns the HTTP handler updates are posted to.
func (c *Client) WebhookHandler() http.HandlerFunc {
	return c.bot.WebhookHandler()
}

// SendMessage dispatches a text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *service.SendOptions) (*service.SendResult, error) {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if opts != nil {
		params.Entities = toEntities(opts.Entities)
		params.ParseMode = tgmodels.ParseMode(opts.ParseMode)
		params.ReplyParameters = replyParams(opts.ReplyToMessageID, opts.AllowSendingWithoutReply)
	}

	sent, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return nil, err
	}
	return &service.SendResult{MessageID: sent.ID}, nil
}

// CopyMessage re-sends a message into another chat without a forward header.
func (c *Client) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, opts *service.CopyOptions) (*service.SendResult, error) {
	params := &tgbot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	}
	if opts != nil {
		if opts.Caption != nil {
			params.Caption = *opts.Caption
			params.CaptionEntities = toEntities(opts.CaptionEntities)
		}
		params.ReplyParameters = replyParams(opts.ReplyToMessageID, opts.AllowSendingWithoutReply)
	}

	sent, err := c.bot.CopyMessage(ctx, params)
	if err != nil {
		return nil, err
	}
	return &service.SendResult{MessageID: sent.ID}, nil
}

// ForwardMessage forwards a message with the protocol's forward header.
func (c *Client) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (*service.SendResult, error) {
	sent, err := c.bot.ForwardMessage(ctx, &tgbot.ForwardMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	})
	if err != nil {
		return nil, err
	}
	return &service.SendResult{MessageID: sent.ID}, nil
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, entities []models.Entity) error {
	_, err := c.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		Entities:  toEntities(entities),
	})
	return err
}

// EditMessageCaption replaces the caption of a previously sent message.
func (c *Client) EditMessageCaption(ctx context.Context, chatID int64, messageID int, caption string, entities []models.Entity) error {
	_, err := c.bot.EditMessageCaption(ctx, &tgbot.EditMessageCaptionParams{
		ChatID:          chatID,
		MessageID:       messageID,
		Caption:         caption,
		CaptionEntities: toEntities(entities),
	})
	return err
}

// IsReplyTargetMissing satisfies the transport contract.
func (c *Client) IsReplyTargetMissing(err error) bool {
	return IsReplyTargetMissing(err)
}

func replyParams(messageID int, allowWithoutReply bool) *tgmodels.ReplyParameters {
	if messageID == 0 {
		return nil
	}
	return &tgmodels.ReplyParameters{
		MessageID:                messageID,
		AllowSendingWithoutReply: allowWithoutReply,
	}
}
