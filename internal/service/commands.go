package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/models"
)

// flagCommand is an admin command that flips a stored flag on the user a
// forwarded message came from.
type flagCommand struct {
	favorite bool
	value    bool
}

// parseFlagCommand recognizes the ban and favorite commands in both
// languages. Ban commands match by prefix so a trailing note is allowed;
// favorite commands must match exactly.
func parseFlagCommand(body string) (flagCommand, bool) {
	switch {
	case strings.HasPrefix(body, "/бан") || strings.HasPrefix(body, "/ban"):
		return flagCommand{value: true}, true
	case strings.HasPrefix(body, "/отбан") || strings.HasPrefix(body, "/unban"):
		return flagCommand{value: false}, true
	case body == "/favorite" || body == "/избранный":
		return flagCommand{favorite: true, value: true}, true
	case body == "/unfavorite":
		return flagCommand{favorite: true, value: false}, true
	}
	return flagCommand{}, false
}

// isInfoCommand recognizes the sender-info request in both languages.
func isInfoCommand(body string) bool {
	return strings.HasPrefix(body, "/инфо") || strings.HasPrefix(body, "/info")
}

// handleFlagCommand resolves the target user from the replied forward and
// flips the requested flag. A forward without a source user means the ledger
// cannot say who to act on; the operator is told instead of guessing.
func (r *Relay) handleFlagCommand(ctx context.Context, msg *models.Message, chain *models.ForwardRecord, cmd flagCommand) error {
	if chain.FromUserID == nil {
		r.notify(ctx, LevelError, fmt.Sprintf("Command failed: %s.\nMessage from chatId: %d.\nCommand: %s", r.botName, msg.ChatID, msg.Body()), nil)
		if cmd.favorite {
			return errors.Client("❌ Операция не получилась. Обратитесь в техподдержку")
		}
		return errors.Client("❌ Заблокировать не получилось. Обратитесь в техподдержку")
	}
	userID := *chain.FromUserID

	var err error
	var confirmation string
	if cmd.favorite {
		err = r.users.SetFavorite(ctx, userID, cmd.value)
		if cmd.value {
			confirmation = "Пользователь добавлен в избранные"
		} else {
			confirmation = "Пользователь удален из избранных"
		}
	} else {
		err = r.users.SetBanned(ctx, userID, cmd.value)
		if cmd.value {
			confirmation = "Пользователь заблокирован"
		} else {
			confirmation = "Пользователь разблокирован"
		}
	}
	if err != nil {
		return err
	}

	if _, err := r.transport.SendMessage(ctx, msg.ChatID, confirmation, nil); err != nil {
		return errors.Server("failed to confirm command", map[string]interface{}{
			"chat_id": msg.ChatID,
		}).WithCause(err)
	}
	return nil
}

// handleUnknownCommand reports a command the bot does not know: the operator
// gets a notice, the admin gets a readable refusal.
func (r *Relay) handleUnknownCommand(ctx context.Context, msg *models.Message, body string) error {
	r.notify(ctx, LevelWarn, fmt.Sprintf("Unknown command: %s.\nMessage from chatId: %d.\nCommand: %s", r.botName, msg.ChatID, body), nil)
	return errors.Client(fmt.Sprintf("Я не знаком с командой %s 🧐", body))
}

// sendUserInfo sends the stored profile of a forwarded message's sender to
// the given chats. Values fall back to the live message profile when the
// message was never forwarded, and every missing field renders as an
// explicit placeholder.
func (r *Relay) sendUserInfo(ctx context.Context, chatIDs []int64, replied *models.Message) error {
	if replied == nil || replied.From == nil {
		return errors.Server("replied message carries no sender", nil)
	}

	chain, err := r.ledger.ForwardByDest(ctx, replied.ChatID, replied.ID)
	if err != nil {
		return errors.Server("failed to resolve replied forward", map[string]interface{}{
			"chat_id":    replied.ChatID,
			"message_id": replied.ID,
		}).WithCause(err)
	}

	userID := replied.From.ID
	if chain != nil && chain.FromUserID != nil {
		userID = *chain.FromUserID
	}

	rec, err := r.users.Lookup(ctx, userID)
	if err != nil {
		return err
	}

	var firstName, lastName, username, initFirstName, initLastName, firstUsername string
	if rec != nil {
		firstName = rec.FirstName
		lastName = rec.LastName
		username = rec.Username
		initFirstName = rec.InitFirstName
		initLastName = rec.InitLastName
		firstUsername = rec.FirstUsername
	}
	// For an unforwarded message the live profile is all there is.
	if chain == nil {
		if firstName == "" {
			firstName = replied.From.FirstName
		}
		if lastName == "" {
			lastName = replied.From.LastName
		}
		if username == "" {
			username = replied.From.Username
		}
	}

	profile := fmt.Sprintf(
		"Имя: [%s] [%s]\nНачальное имя: [%s] [%s]\nТекущий ник: [%s]\nПервый ник: [%s]",
		orPlaceholder(firstName, "нет_имени"),
		orPlaceholder(lastName, "нет_фамилии"),
		orPlaceholder(initFirstName, "нет_имени"),
		orPlaceholder(initLastName, "нет_фамилии"),
		orPlaceholder(atUsername(username), "нет_ника"),
		orPlaceholder(atUsername(firstUsername), "нет_ника"),
	)
	idLine := fmt.Sprintf("🆔: [%d](tg://user?id=%d)", userID, userID)

	for _, chatID := range chatIDs {
		if _, err := r.transport.SendMessage(ctx, chatID, profile, nil); err != nil {
			return errors.Server("failed to send user info", map[string]interface{}{
				"chat_id": chatID,
			}).WithCause(err)
		}
		if _, err := r.transport.SendMessage(ctx, chatID, idLine, &SendOptions{ParseMode: "MarkdownV2"}); err != nil {
			return errors.Server("failed to send user id link", map[string]interface{}{
				"chat_id": chatID,
			}).WithCause(err)
		}
	}
	return nil
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func atUsername(username string) string {
	if username == "" {
		return ""
	}
	return "@" + username
}
