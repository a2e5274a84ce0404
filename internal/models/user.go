package models

import "time"

// UserRecord is the stored state of an end user known to the bot.
// The Init* and FirstUsername fields are write-once: they keep the values
// seen on the very first message and are never overwritten afterwards.
type UserRecord struct {
	ID            int64     `json:"id"`
	TgUserID      int64     `json:"tgUserId"`
	FirstUsername string    `json:"firstUsername,omitempty"`
	Username      string    `json:"username,omitempty"`
	InitFirstName string    `json:"initFirstName,omitempty"`
	FirstName     string    `json:"firstName,omitempty"`
	InitLastName  string    `json:"initLastName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	LangCode      string    `json:"langCode,omitempty"`
	IsFavorite    bool      `json:"isFavorite"`
	IsBanned      bool      `json:"isBanned"`
	MaskUID       string    `json:"maskUid"`
	Created       time.Time `json:"created"`
	LastUsed      time.Time `json:"lastUsed"`
}
