package store

import (
	"time"

	"github.com/pavelanni/testprep/internal/model"
)

// CreateContactMessage stores a contact form submission.
func (s *Store) CreateContactMessage(m model.ContactMessage) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO contact_messages (name, email, phone, subject, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Phone, m.Subject, m.Message, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListContactMessages returns contact form submissions, newest first.
func (s *Store) ListContactMessages() ([]model.ContactMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, phone, subject, message, created_at
		 FROM contact_messages ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
