package telegram

import (
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spacey745/cpbot/internal/models"
)

// convertMessage validates a raw protocol message into the boundary model
// the core works with. Unknown content maps to the unsupported kind instead
// of being guessed at.
func convertMessage(msg *tgmodels.Message) *models.Message {
	if msg == nil {
		return nil
	}

	out := &models.Message{
		ID:                msg.ID,
		ChatID:            msg.Chat.ID,
		ChatType:          string(msg.Chat.Type),
		From:              convertUser(msg.From),
		Kind:              detectKind(msg),
		Text:              msg.Text,
		Caption:           msg.Caption,
		Entities:          convertEntities(msg.Entities),
		CaptionEntities:   convertEntities(msg.CaptionEntities),
		GroupChatCreated:  msg.GroupChatCreated,
		MigrateToChatID:   msg.MigrateToChatID,
		MigrateFromChatID: msg.MigrateFromChatID,
	}
	if msg.ReplyToMessage != nil {
		out.ReplyTo = convertMessage(msg.ReplyToMessage)
	}
	return out
}

func convertUser(user *tgmodels.User) *models.User {
	if user == nil {
		return nil
	}
	return &models.User{
		ID:        user.ID,
		IsBot:     user.IsBot,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		LangCode:  user.LanguageCode,
	}
}

func convertEntities(entities []tgmodels.MessageEntity) []models.Entity {
	if entities == nil {
		return nil
	}
	out := make([]models.Entity, len(entities))
	for i, entity := range entities {
		out[i] = models.Entity{
			Type:     string(entity.Type),
			Offset:   entity.Offset,
			Length:   entity.Length,
			URL:      entity.URL,
			Language: entity.Language,
		}
	}
	return out
}

func toEntities(entities []models.Entity) []tgmodels.MessageEntity {
	if entities == nil {
		return nil
	}
	out := make([]tgmodels.MessageEntity, len(entities))
	for i, entity := range entities {
		out[i] = tgmodels.MessageEntity{
			Type:     tgmodels.MessageEntityType(entity.Type),
			Offset:   entity.Offset,
			Length:   entity.Length,
			URL:      entity.URL,
			Language: entity.Language,
		}
	}
	return out
}

func detectKind(msg *tgmodels.Message) models.MessageKind {
	switch {
	case msg.GroupChatCreated || msg.MigrateToChatID != 0 || msg.MigrateFromChatID != 0:
		return models.MessageKindService
	case msg.Text != "":
		return models.MessageKindText
	case len(msg.Photo) > 0:
		return models.MessageKindPhoto
	case msg.Sticker != nil:
		return models.MessageKindSticker
	case msg.Document != nil:
		return models.MessageKindDocument
	case msg.Voice != nil:
		return models.MessageKindVoice
	case msg.Video != nil:
		return models.MessageKindVideo
	case msg.Audio != nil:
		return models.MessageKindAudio
	case msg.VideoNote != nil:
		return models.MessageKindVideoNote
	case msg.Animation != nil:
		return models.MessageKindAnimation
	}
	return models.MessageKindUnsupported
}
