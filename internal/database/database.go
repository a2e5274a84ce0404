// Package database is the persistence layer: the forward ledger and the user
// records, stored in SQLite with field-level encryption applied on write and
// removed on read. Callers only ever see plaintext records.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spacey745/cpbot/internal/maskid"
	"github.com/spacey745/cpbot/internal/migrations"
	"github.com/spacey745/cpbot/internal/models"
	"github.com/spacey745/cpbot/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to read schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// encodeID encrypts an id column value with the deterministic variant so the
// same value can be used in lookups.
func (d *Database) encodeID(id int64) (string, error) {
	return d.encryptor.EncryptForLookup(strconv.FormatInt(id, 10))
}

func (d *Database) encodeOptionalID(id *int64) (*string, error) {
	if id == nil {
		return nil, nil
	}
	encoded, err := d.encodeID(*id)
	if err != nil {
		return nil, err
	}
	return &encoded, nil
}

func (d *Database) decodeID(encoded string) (int64, error) {
	plain, err := d.encryptor.Decrypt(encoded)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(plain, 10, 64)
}

func (d *Database) decodeOptionalID(encoded *string) (*int64, error) {
	if encoded == nil {
		return nil, nil
	}
	id, err := d.decodeID(*encoded)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateForward appends a ledger entry. The record's ID and Created fields
// are filled in on success.
func (d *Database) CreateForward(ctx context.Context, rec *models.ForwardRecord) error {
	fromUserID, err := d.encodeOptionalID(rec.FromUserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt from user id: %w", err)
	}
	toUserID, err := d.encodeOptionalID(rec.ToUserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt to user id: %w", err)
	}
	fromChatID, err := d.encodeID(rec.FromChatID)
	if err != nil {
		return fmt.Errorf("failed to encrypt from chat id: %w", err)
	}
	toChatID, err := d.encodeID(rec.ToChatID)
	if err != nil {
		return fmt.Errorf("failed to encrypt to chat id: %w", err)
	}

	var res sql.Result
	err = retryableDBOperation(ctx, func() error {
		var execErr error
		res, execErr = d.db.ExecContext(ctx, insertForwardQuery,
			fromUserID, toUserID, fromChatID, toChatID,
			rec.FromMessageID, rec.ToMessageID, rec.ReplyToID,
		)
		return execErr
	}, "create forward")
	if err != nil {
		return fmt.Errorf("failed to create forward record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read forward record id: %w", err)
	}
	rec.ID = id
	rec.Created = time.Now()
	return nil
}

// LatestOpenForward returns the most recent chain-root entry for the given
// user and destination chat that has not been marked deleted, or nil when
// the user has no open chain there.
func (d *Database) LatestOpenForward(ctx context.Context, fromUserID, toChatID int64) (*models.ForwardRecord, error) {
	encodedUser, err := d.encodeID(fromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt from user id: %w", err)
	}
	encodedChat, err := d.encodeID(toChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt to chat id: %w", err)
	}
	return d.queryForward(ctx, selectLatestOpenForwardQuery, encodedUser, encodedChat)
}

// ForwardByDest returns the entry whose destination copy is the given
// message, or nil.
func (d *Database) ForwardByDest(ctx context.Context, toChatID int64, toMessageID int) (*models.ForwardRecord, error) {
	encodedChat, err := d.encodeID(toChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt to chat id: %w", err)
	}
	return d.queryForward(ctx, selectForwardByDestQuery, encodedChat, toMessageID)
}

// ForwardsBySource returns every entry produced from the given source
// message, oldest first.
func (d *Database) ForwardsBySource(ctx context.Context, fromChatID int64, fromMessageID int) ([]*models.ForwardRecord, error) {
	encodedChat, err := d.encodeID(fromChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt from chat id: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, selectForwardsBySourceQuery, encodedChat, fromMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forwards by source: %w", err)
	}
	defer rows.Close()

	var records []*models.ForwardRecord
	for rows.Next() {
		rec, err := d.scanForward(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forwards: %w", err)
	}
	return records, nil
}

// ForwardByDestSourceMsg returns the entry that copied the given source
// message into the given destination chat, or nil. Used to locate the mirror
// chat's copy of a user message.
func (d *Database) ForwardByDestSourceMsg(ctx context.Context, toChatID int64, fromMessageID int) (*models.ForwardRecord, error) {
	encodedChat, err := d.encodeID(toChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt to chat id: %w", err)
	}
	return d.queryForward(ctx, selectForwardByDestSourceMsgQuery, encodedChat, fromMessageID)
}

// ForwardByCopy returns the entry matching the full
// (fromChatID, toChatID, toMessageID) triple, or nil.
func (d *Database) ForwardByCopy(ctx context.Context, fromChatID, toChatID int64, toMessageID int) (*models.ForwardRecord, error) {
	encodedFrom, err := d.encodeID(fromChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt from chat id: %w", err)
	}
	encodedTo, err := d.encodeID(toChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt to chat id: %w", err)
	}
	return d.queryForward(ctx, selectForwardByCopyQuery, encodedFrom, encodedTo, toMessageID)
}

// MarkForwardDeleted soft-deletes a ledger entry. The record stays for
// history but no longer counts as an open reply chain.
func (d *Database) MarkForwardDeleted(ctx context.Context, id int64) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, markForwardDeletedQuery, id)
		return execErr
	}, "mark forward deleted")
	if err != nil {
		return fmt.Errorf("failed to mark forward deleted: %w", err)
	}
	return nil
}

func (d *Database) queryForward(ctx context.Context, query string, args ...interface{}) (*models.ForwardRecord, error) {
	row := d.db.QueryRowContext(ctx, query, args...)
	rec, err := d.scanForward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanForward(row rowScanner) (*models.ForwardRecord, error) {
	var (
		rec        models.ForwardRecord
		fromUserID *string
		toUserID   *string
		fromChatID string
		toChatID   string
	)

	err := row.Scan(
		&rec.ID,
		&fromUserID,
		&toUserID,
		&fromChatID,
		&toChatID,
		&rec.FromMessageID,
		&rec.ToMessageID,
		&rec.ReplyToID,
		&rec.Deleted,
		&rec.Created,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan forward record: %w", err)
	}

	if rec.FromUserID, err = d.decodeOptionalID(fromUserID); err != nil {
		return nil, fmt.Errorf("failed to decrypt from user id: %w", err)
	}
	if rec.ToUserID, err = d.decodeOptionalID(toUserID); err != nil {
		return nil, fmt.Errorf("failed to decrypt to user id: %w", err)
	}
	if rec.FromChatID, err = d.decodeID(fromChatID); err != nil {
		return nil, fmt.Errorf("failed to decrypt from chat id: %w", err)
	}
	if rec.ToChatID, err = d.decodeID(toChatID); err != nil {
		return nil, fmt.Errorf("failed to decrypt to chat id: %w", err)
	}
	return &rec, nil
}

// UserByTgID returns the stored record for a Telegram user id, or nil when
// the user has never been seen.
func (d *Database) UserByTgID(ctx context.Context, tgUserID int64) (*models.UserRecord, error) {
	encodedID, err := d.encodeID(tgUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt user id: %w", err)
	}

	var (
		rec           models.UserRecord
		encodedTgID   string
		firstUsername *string
		username      *string
		initFirstName *string
		firstName     *string
		initLastName  *string
		lastName      *string
		langCode      *string
	)
	err = d.db.QueryRowContext(ctx, selectUserByTgIDQuery, encodedID).Scan(
		&rec.ID,
		&encodedTgID,
		&firstUsername,
		&username,
		&initFirstName,
		&firstName,
		&initLastName,
		&lastName,
		&langCode,
		&rec.IsFavorite,
		&rec.IsBanned,
		&rec.MaskUID,
		&rec.Created,
		&rec.LastUsed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user record: %w", err)
	}

	if rec.TgUserID, err = d.decodeID(encodedTgID); err != nil {
		return nil, fmt.Errorf("failed to decrypt user id: %w", err)
	}
	if rec.FirstUsername, err = d.decryptOptional(firstUsername); err != nil {
		return nil, fmt.Errorf("failed to decrypt first username: %w", err)
	}
	if rec.Username, err = d.decryptOptional(username); err != nil {
		return nil, fmt.Errorf("failed to decrypt username: %w", err)
	}
	if rec.InitFirstName, err = d.decryptOptional(initFirstName); err != nil {
		return nil, fmt.Errorf("failed to decrypt init first name: %w", err)
	}
	if rec.FirstName, err = d.decryptOptional(firstName); err != nil {
		return nil, fmt.Errorf("failed to decrypt first name: %w", err)
	}
	if rec.InitLastName, err = d.decryptOptional(initLastName); err != nil {
		return nil, fmt.Errorf("failed to decrypt init last name: %w", err)
	}
	if rec.LastName, err = d.decryptOptional(lastName); err != nil {
		return nil, fmt.Errorf("failed to decrypt last name: %w", err)
	}
	if langCode != nil {
		rec.LangCode = *langCode
	}
	return &rec, nil
}

// SaveUser inserts a new user record or updates the mutable fields of an
// existing one. A new record gets a freshly generated mask uid unless one is
// already set.
func (d *Database) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	encodedID, err := d.encodeID(rec.TgUserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt user id: %w", err)
	}

	fields, err := d.encryptUserFields(rec)
	if err != nil {
		return err
	}

	existing, err := d.UserByTgID(ctx, rec.TgUserID)
	if err != nil {
		return err
	}

	if existing == nil {
		if rec.MaskUID == "" {
			rec.MaskUID = maskid.Next()
		}
		err = retryableDBOperation(ctx, func() error {
			_, execErr := d.db.ExecContext(ctx, insertUserQuery,
				encodedID, fields.firstUsername, fields.username,
				fields.initFirstName, fields.firstName,
				fields.initLastName, fields.lastName,
				nullable(rec.LangCode), rec.MaskUID,
			)
			return execErr
		}, "insert user")
		if err != nil {
			return fmt.Errorf("failed to insert user record: %w", err)
		}
		return nil
	}

	rec.MaskUID = existing.MaskUID
	err = retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, updateUserQuery,
			fields.firstUsername, fields.username,
			fields.initFirstName, fields.firstName,
			fields.initLastName, fields.lastName,
			nullable(rec.LangCode), encodedID,
		)
		return execErr
	}, "update user")
	if err != nil {
		return fmt.Errorf("failed to update user record: %w", err)
	}
	return nil
}

// SetUserBanned flips the banned flag, creating a minimal record when the
// user has never written to the bot.
func (d *Database) SetUserBanned(ctx context.Context, tgUserID int64, banned bool) error {
	return d.upsertUserFlag(ctx, upsertUserBannedQuery, tgUserID, banned, "set user banned")
}

// SetUserFavorite flips the favorite flag, creating a minimal record when
// needed.
func (d *Database) SetUserFavorite(ctx context.Context, tgUserID int64, favorite bool) error {
	return d.upsertUserFlag(ctx, upsertUserFavoriteQuery, tgUserID, favorite, "set user favorite")
}

func (d *Database) upsertUserFlag(ctx context.Context, query string, tgUserID int64, value bool, operation string) error {
	encodedID, err := d.encodeID(tgUserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt user id: %w", err)
	}

	err = retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, query, encodedID, value, maskid.Next())
		return execErr
	}, operation)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	return nil
}

type encryptedUserFields struct {
	firstUsername *string
	username      *string
	initFirstName *string
	firstName     *string
	initLastName  *string
	lastName      *string
}

func (d *Database) encryptUserFields(rec *models.UserRecord) (*encryptedUserFields, error) {
	var fields encryptedUserFields
	var err error

	if fields.firstUsername, err = d.encryptOptional(rec.FirstUsername); err != nil {
		return nil, fmt.Errorf("failed to encrypt first username: %w", err)
	}
	if fields.username, err = d.encryptOptional(rec.Username); err != nil {
		return nil, fmt.Errorf("failed to encrypt username: %w", err)
	}
	if fields.initFirstName, err = d.encryptOptional(rec.InitFirstName); err != nil {
		return nil, fmt.Errorf("failed to encrypt init first name: %w", err)
	}
	if fields.firstName, err = d.encryptOptional(rec.FirstName); err != nil {
		return nil, fmt.Errorf("failed to encrypt first name: %w", err)
	}
	if fields.initLastName, err = d.encryptOptional(rec.InitLastName); err != nil {
		return nil, fmt.Errorf("failed to encrypt init last name: %w", err)
	}
	if fields.lastName, err = d.encryptOptional(rec.LastName); err != nil {
		return nil, fmt.Errorf("failed to encrypt last name: %w", err)
	}
	return &fields, nil
}

func (d *Database) encryptOptional(value string) (*string, error) {
	if value == "" {
		return nil, nil
	}
	encrypted, err := d.encryptor.Encrypt(value)
	if err != nil {
		return nil, err
	}
	return &encrypted, nil
}

func (d *Database) decryptOptional(value *string) (string, error) {
	if value == nil {
		return "", nil
	}
	return d.encryptor.Decrypt(*value)
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
