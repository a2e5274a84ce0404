package service

import (
	"github.com/spacey745/cpbot/internal/models"
)

// Router decides which chats an inbound message must reach, based on the
// configured chat set and the sender's stored state.
type Router struct {
	chats models.ChatConfig
}

func NewRouter(chats models.ChatConfig) *Router {
	return &Router{chats: chats}
}

// IsAdminChat reports whether the chat is one of the admin chats replies are
// accepted from.
func (r *Router) IsAdminChat(chatID int64) bool {
	if r.chats.AdminChatID == 0 || chatID == 0 {
		return false
	}
	return chatID == r.chats.AdminChatID || (r.chats.FavAdminChatID != 0 && chatID == r.chats.FavAdminChatID)
}

// IsMirrorChat reports whether the chat is the configured mirror chat.
func (r *Router) IsMirrorChat(chatID int64) bool {
	return r.chats.MirrorChatID != 0 && chatID == r.chats.MirrorChatID
}

// MirrorChatID returns the mirror chat id, or 0 when mirroring is disabled.
func (r *Router) MirrorChatID() int64 {
	return r.chats.MirrorChatID
}

// MasterChatID returns the chat operational notices go to.
func (r *Router) MasterChatID() int64 {
	return r.chats.MasterChatID
}

// Destinations returns the ordered chat list a user message is copied to:
// the primary admin chat first (the favorite-admin chat when the user is
// flagged favorite), then the mirror chat when configured. Reply chains are
// tracked per destination, so the order is fixed.
func (r *Router) Destinations(user *models.UserRecord) []int64 {
	primary := r.chats.AdminChatID
	if r.chats.FavAdminChatID != 0 && user != nil && user.IsFavorite {
		primary = r.chats.FavAdminChatID
	}

	destinations := []int64{primary}
	if r.chats.MirrorChatID != 0 {
		destinations = append(destinations, r.chats.MirrorChatID)
	}
	return destinations
}
