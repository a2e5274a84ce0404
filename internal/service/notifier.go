package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/constants"
	"github.com/spacey745/cpbot/internal/errors"
)

// MasterNotifier pushes operational notices into the master chat: a level
// tag, the notice text and the attached meta serialized as JSON. Notices are
// how the operator learns about failures that have no chat to answer in.
type MasterNotifier struct {
	transport    Transport
	masterChatID int64
	botName      string
	logger       *logrus.Logger
}

func NewMasterNotifier(transport Transport, masterChatID int64, botName string, logger *logrus.Logger) *MasterNotifier {
	return &MasterNotifier{
		transport:    transport,
		masterChatID: masterChatID,
		botName:      botName,
		logger:       logger,
	}
}

// Notify delivers one notice. The level must be one of the known levels and
// the text must be present; both are validated before any side effect.
// Notices longer than the transport text limit are truncated.
func (n *MasterNotifier) Notify(ctx context.Context, level NoticeLevel, text string, meta map[string]interface{}) error {
	switch level {
	case LevelError, LevelWarn, LevelInfo:
	default:
		return errors.Server(fmt.Sprintf("unknown notice level %q", level), nil)
	}
	if text == "" {
		return errors.Server("notice text is required", nil)
	}
	if n.masterChatID == 0 {
		n.logger.WithField("level", level).Warn("Master chat is not configured, dropping notice")
		return nil
	}

	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["botName"] = n.botName

	body := fmt.Sprintf("%s %s", level, text)
	if encoded, err := json.Marshal(meta); err == nil {
		body += " " + string(encoded)
	} else {
		n.logger.WithError(err).Warn("Failed to serialize notice meta")
	}
	body = truncate(body, constants.MessageTextLimit)

	if _, err := n.transport.SendMessage(ctx, n.masterChatID, body, nil); err != nil {
		return errors.Server("failed to deliver notice to master chat", nil).WithCause(err)
	}
	return nil
}

// truncate cuts the text to the limit in characters, marking the cut.
func truncate(text string, limit int) string {
	chars := []rune(text)
	if len(chars) <= limit {
		return text
	}
	marker := []rune(constants.EllipsisMarker)
	return string(chars[:limit-len(marker)]) + constants.EllipsisMarker
}
