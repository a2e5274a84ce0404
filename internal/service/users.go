package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/models"
)

// UserService tracks the users writing to the bot. Every inbound message
// refreshes the sender's record; profile details are only persisted when the
// operator opted into storing them.
type UserService struct {
	store        UserStore
	storeDetails bool
	logger       *logrus.Logger
}

func NewUserService(store UserStore, storeDetails bool, logger *logrus.Logger) *UserService {
	return &UserService{
		store:        store,
		storeDetails: storeDetails,
		logger:       logger,
	}
}

// Touch creates or refreshes the record for a sender and returns it. The
// first-seen profile fields are filled once and kept; the current fields
// track whatever the profile says now.
func (s *UserService) Touch(ctx context.Context, from *models.User) (*models.UserRecord, error) {
	if from == nil {
		return nil, errors.Server("message carries no sender", nil)
	}

	rec, err := s.store.UserByTgID(ctx, from.ID)
	if err != nil {
		return nil, errors.Server("failed to load user record", map[string]interface{}{
			"user_id": from.ID,
		}).WithCause(err)
	}

	if rec == nil {
		rec = &models.UserRecord{TgUserID: from.ID}
	}
	rec.LangCode = from.LangCode

	if s.storeDetails {
		if rec.FirstUsername == "" {
			rec.FirstUsername = from.Username
		}
		if rec.InitFirstName == "" {
			rec.InitFirstName = from.FirstName
		}
		if rec.InitLastName == "" {
			rec.InitLastName = from.LastName
		}
		rec.Username = from.Username
		rec.FirstName = from.FirstName
		rec.LastName = from.LastName
	}

	if err := s.store.SaveUser(ctx, rec); err != nil {
		return nil, errors.Server("failed to save user record", map[string]interface{}{
			"user_id": from.ID,
		}).WithCause(err)
	}
	return rec, nil
}

// Lookup returns the stored record for a user id, or nil when the user has
// never been seen.
func (s *UserService) Lookup(ctx context.Context, tgUserID int64) (*models.UserRecord, error) {
	rec, err := s.store.UserByTgID(ctx, tgUserID)
	if err != nil {
		return nil, errors.Server("failed to load user record", map[string]interface{}{
			"user_id": tgUserID,
		}).WithCause(err)
	}
	return rec, nil
}

// SetBanned flips the banned flag for a user id.
func (s *UserService) SetBanned(ctx context.Context, tgUserID int64, banned bool) error {
	if err := s.store.SetUserBanned(ctx, tgUserID, banned); err != nil {
		return errors.Server("failed to change ban state", map[string]interface{}{
			"user_id": tgUserID,
			"banned":  banned,
		}).WithCause(err)
	}
	return nil
}

// SetFavorite flips the favorite flag for a user id.
func (s *UserService) SetFavorite(ctx context.Context, tgUserID int64, favorite bool) error {
	if err := s.store.SetUserFavorite(ctx, tgUserID, favorite); err != nil {
		return errors.Server("failed to change favorite state", map[string]interface{}{
			"user_id":  tgUserID,
			"favorite": favorite,
		}).WithCause(err)
	}
	return nil
}
