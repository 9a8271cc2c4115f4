package store

import (
	"database/sql"
	"time"
)

// GetValue returns the value stored under key for a user. The boolean is
// false when the key is missing.
func (s *Store) GetValue(userID int64, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM user_kv WHERE user_id = ? AND key = ?`, userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue upserts a key-value pair for a user.
func (s *Store) SetValue(userID int64, key, value string) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO user_kv (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = ?, updated_at = ?`,
		userID, key, value, now, value, now,
	)
	return err
}

// RemoveValue deletes a key for a user. Removing a missing key is not an error.
func (s *Store) RemoveValue(userID int64, key string) error {
	_, err := s.db.Exec(`DELETE FROM user_kv WHERE user_id = ? AND key = ?`, userID, key)
	return err
}
