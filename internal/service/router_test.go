package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spacey745/cpbot/internal/models"
)

func TestRouterIsAdminChat(t *testing.T) {
	router := NewRouter(testChats(true))

	assert.True(t, router.IsAdminChat(testAdminChat))
	assert.True(t, router.IsAdminChat(testFavChat))
	assert.False(t, router.IsAdminChat(testMirrorChat))
	assert.False(t, router.IsAdminChat(testUserChat))
	assert.False(t, router.IsAdminChat(0))
}

func TestRouterIsAdminChatWithoutConfiguredAdmin(t *testing.T) {
	router := NewRouter(models.ChatConfig{})
	assert.False(t, router.IsAdminChat(testAdminChat))
}

func TestRouterIsMirrorChat(t *testing.T) {
	assert.True(t, NewRouter(testChats(true)).IsMirrorChat(testMirrorChat))
	assert.False(t, NewRouter(testChats(false)).IsMirrorChat(testMirrorChat))
	assert.False(t, NewRouter(testChats(false)).IsMirrorChat(0))
}

func TestRouterDestinationsDefaultUser(t *testing.T) {
	router := NewRouter(testChats(true))
	assert.Equal(t, []int64{testAdminChat, testMirrorChat}, router.Destinations(testUserRecord()))
}

func TestRouterDestinationsFavoriteUser(t *testing.T) {
	router := NewRouter(testChats(true))
	user := testUserRecord()
	user.IsFavorite = true

	assert.Equal(t, []int64{testFavChat, testMirrorChat}, router.Destinations(user))
}

func TestRouterDestinationsFavoriteWithoutFavChat(t *testing.T) {
	chats := testChats(false)
	chats.FavAdminChatID = 0
	router := NewRouter(chats)

	user := testUserRecord()
	user.IsFavorite = true

	assert.Equal(t, []int64{testAdminChat}, router.Destinations(user))
}

func TestRouterDestinationsUnknownUser(t *testing.T) {
	router := NewRouter(testChats(false))
	assert.Equal(t, []int64{testAdminChat}, router.Destinations(nil))
}
