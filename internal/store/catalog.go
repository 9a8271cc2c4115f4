package store

import (
	"database/sql"

	"github.com/pavelanni/testprep/internal/model"
)

const testColumns = `t.id, t.title, t.subject, t.duration_minutes, t.max_marks, t.available_on, t.status, t.bank_id, b.question_count`

// CreateTest adds a catalog entry.
func (s *Store) CreateTest(t model.TestInfo) (int64, error) {
	if t.Status == "" {
		t.Status = model.TestAvailable
	}
	res, err := s.db.Exec(
		`INSERT INTO tests (title, subject, duration_minutes, max_marks, available_on, status, bank_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Subject, t.DurationMinutes, t.MaxMarks, t.AvailableOn, t.Status, t.BankID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTest returns a catalog entry by ID.
func (s *Store) GetTest(id int64) (model.TestInfo, error) {
	var t model.TestInfo
	err := s.db.QueryRow(
		`SELECT `+testColumns+` FROM tests t JOIN banks b ON b.id = t.bank_id WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Subject, &t.DurationMinutes, &t.MaxMarks, &t.AvailableOn, &t.Status, &t.BankID, &t.QuestionCount)
	return t, err
}

// ListTestsForUser returns the catalog as seen by userID: tests the user has
// already submitted are marked completed with their best score. Pass 0 for an
// anonymous caller.
func (s *Store) ListTestsForUser(userID int64) ([]model.TestInfo, error) {
	rows, err := s.db.Query(
		`SELECT `+testColumns+`,
		        (SELECT MAX(a.score_percent) FROM attempts a WHERE a.test_id = t.id AND a.user_id = ?)
		 FROM tests t JOIN banks b ON b.id = t.bank_id
		 ORDER BY t.id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []model.TestInfo
	for rows.Next() {
		var (
			t    model.TestInfo
			best sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Subject, &t.DurationMinutes, &t.MaxMarks, &t.AvailableOn, &t.Status, &t.BankID, &t.QuestionCount, &best); err != nil {
			return nil, err
		}
		if best.Valid {
			score := best.Float64
			t.BestScore = &score
			t.Status = model.TestCompleted
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// UpdateTestStatus changes a test between available and upcoming.
func (s *Store) UpdateTestStatus(id int64, status model.TestStatus) error {
	_, err := s.db.Exec(`UPDATE tests SET status = ? WHERE id = ?`, status, id)
	return err
}

// TestCount returns the number of catalog entries.
func (s *Store) TestCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tests`).Scan(&count)
	return count, err
}
