package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS banks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		items TEXT NOT NULL,
		question_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		max_marks INTEGER NOT NULL DEFAULT 100,
		available_on TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'available',
		bank_id INTEGER NOT NULL,
		FOREIGN KEY (bank_id) REFERENCES banks(id)
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		test_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		submitted_at DATETIME NOT NULL,
		score_percent REAL NOT NULL,
		correct INTEGER NOT NULL,
		incorrect INTEGER NOT NULL,
		unanswered INTEGER NOT NULL,
		answers TEXT NOT NULL,
		report TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (test_id) REFERENCES tests(id)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_user ON attempts(user_id);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS user_kv (
		user_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_inr INTEGER NOT NULL,
		duration TEXT NOT NULL DEFAULT '',
		students INTEGER NOT NULL DEFAULT 0,
		lectures INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		features TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS video_lectures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		instructor TEXT NOT NULL DEFAULT '',
		duration TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		views INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS study_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		pages INTEGER NOT NULL DEFAULT 0,
		size TEXT NOT NULL DEFAULT '',
		downloads INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertBank stores a validated item bank.
func (s *Store) InsertBank(name, source string, bank *assessment.Bank) (int64, error) {
	items, err := json.Marshal(bank.Items())
	if err != nil {
		return 0, fmt.Errorf("marshal items: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO banks (name, source, items, question_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, source, string(items), bank.Len(), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetBank returns a stored bank by ID.
func (s *Store) GetBank(id int64) (model.BankRecord, error) {
	var (
		rec   model.BankRecord
		items string
	)
	err := s.db.QueryRow(
		`SELECT id, name, source, items, created_at FROM banks WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Source, &items, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return rec, fmt.Errorf("decode items for bank %d: %w", id, err)
	}
	return rec, nil
}

// LoadBank returns the engine bank for a stored bank ID.
func (s *Store) LoadBank(id int64) (*assessment.Bank, error) {
	rec, err := s.GetBank(id)
	if err != nil {
		return nil, err
	}
	return assessment.NewBank(rec.Items)
}

// ListBanks returns all banks without their items.
func (s *Store) ListBanks() ([]model.BankRecord, error) {
	rows, err := s.db.Query(`SELECT id, name, source, created_at FROM banks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var banks []model.BankRecord
	for rows.Next() {
		var b model.BankRecord
		if err := rows.Scan(&b.ID, &b.Name, &b.Source, &b.CreatedAt); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// BankCount returns the number of stored banks.
func (s *Store) BankCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM banks`).Scan(&count)
	return count, err
}

// GetImportedFileHash returns the content hash recorded for path, or "".
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?`,
		path, hash, hash,
	)
	return err
}
