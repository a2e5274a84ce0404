package telegram

import "strings"

// Substrings the Bot API uses in the error description when the message a
// dispatch tried to reply to no longer exists. The wording changed across
// API versions, so both forms are matched.
var replyTargetMissingMarkers = []string{
	"replied message not found",
	"message to be replied not found",
	"message to reply not found",
}

// IsReplyTargetMissing reports whether the error came from dispatching a
// reply whose target message was deleted upstream.
func IsReplyTargetMissing(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	for _, marker := range replyTargetMissingMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
