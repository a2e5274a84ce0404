package database

// Forward ledger queries
const (
	insertForwardQuery = `
		INSERT INTO message_forwards (
			from_user_id, to_user_id, from_chat_id, to_chat_id,
			from_message_id, to_message_id, reply_to_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	forwardColumns = `
		id, from_user_id, to_user_id, from_chat_id, to_chat_id,
		from_message_id, to_message_id, reply_to_id, deleted, created
	`

	selectLatestOpenForwardQuery = `
		SELECT ` + forwardColumns + `
		FROM message_forwards
		WHERE from_user_id = ? AND to_chat_id = ?
		  AND reply_to_id IS NULL AND deleted = FALSE
		ORDER BY created DESC
		LIMIT 1
	`

	selectForwardByDestQuery = `
		SELECT ` + forwardColumns + `
		FROM message_forwards
		WHERE to_chat_id = ? AND to_message_id = ?
		ORDER BY created DESC
		LIMIT 1
	`

	selectForwardsBySourceQuery = `
		SELECT ` + forwardColumns + `
		FROM message_forwards
		WHERE from_chat_id = ? AND from_message_id = ?
		ORDER BY created ASC
	`

	selectForwardByDestSourceMsgQuery = `
		SELECT ` + forwardColumns + `
		FROM message_forwards
		WHERE to_chat_id = ? AND from_message_id = ?
		ORDER BY created DESC
		LIMIT 1
	`

	selectForwardByCopyQuery = `
		SELECT ` + forwardColumns + `
		FROM message_forwards
		WHERE from_chat_id = ? AND to_chat_id = ? AND to_message_id = ?
		ORDER BY created DESC
		LIMIT 1
	`

	markForwardDeletedQuery = `
		UPDATE message_forwards
		SET deleted = TRUE
		WHERE id = ?
	`
)

// User record queries
const (
	userColumns = `
		id, tg_user_id, first_username, username, init_first_name, first_name,
		init_last_name, last_name, lang_code, is_favorite, is_banned, mask_uid,
		created, last_used
	`

	selectUserByTgIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE tg_user_id = ?
	`

	insertUserQuery = `
		INSERT INTO users (
			tg_user_id, first_username, username, init_first_name, first_name,
			init_last_name, last_name, lang_code, mask_uid, last_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	updateUserQuery = `
		UPDATE users
		SET first_username = ?, username = ?, init_first_name = ?, first_name = ?,
		    init_last_name = ?, last_name = ?, lang_code = ?,
		    last_used = CURRENT_TIMESTAMP
		WHERE tg_user_id = ?
	`

	upsertUserBannedQuery = `
		INSERT INTO users (tg_user_id, is_banned, mask_uid)
		VALUES (?, ?, ?)
		ON CONFLICT(tg_user_id) DO UPDATE SET is_banned = excluded.is_banned
	`

	upsertUserFavoriteQuery = `
		INSERT INTO users (tg_user_id, is_favorite, mask_uid)
		VALUES (?, ?, ?)
		ON CONFLICT(tg_user_id) DO UPDATE SET is_favorite = excluded.is_favorite
	`
)
