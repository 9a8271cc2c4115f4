package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pavelanni/testprep/internal/model"
)

// ArchiveAttempt stores a submitted attempt and its report.
func (s *Store) ArchiveAttempt(rec model.AttemptRecord) error {
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	c := rec.Report.Counts
	_, err = s.db.Exec(
		`INSERT INTO attempts (id, user_id, test_id, started_at, submitted_at, score_percent,
		                       correct, incorrect, unanswered, answers, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.TestID, rec.StartedAt, rec.SubmittedAt, rec.Report.ScorePercent,
		c.Correct, c.Incorrect, c.Unanswered, string(answers), string(report),
	)
	if err != nil {
		slog.Error("failed to archive attempt", "attempt_id", rec.ID, "error", err)
		return err
	}
	slog.Info("archived attempt", "attempt_id", rec.ID, "user_id", rec.UserID,
		"test_id", rec.TestID, "score", rec.Report.ScorePercent)
	return nil
}

// GetAttemptRecord returns an archived attempt, or nil if there is none.
func (s *Store) GetAttemptRecord(id string) (*model.AttemptRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, test_id, started_at, submitted_at, answers, report
		 FROM attempts WHERE id = ?`, id,
	)
	rec, err := scanAttemptRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAttemptsForUser returns the user's archived attempts, newest first.
func (s *Store) ListAttemptsForUser(userID int64) ([]model.AttemptSummary, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.test_id, COALESCE(t.title, ''), a.submitted_at, a.score_percent,
		        a.correct, a.incorrect, a.unanswered
		 FROM attempts a LEFT JOIN tests t ON t.id = a.test_id
		 WHERE a.user_id = ?
		 ORDER BY a.rowid DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AttemptSummary
	for rows.Next() {
		var a model.AttemptSummary
		if err := rows.Scan(&a.ID, &a.TestID, &a.TestTitle, &a.SubmittedAt, &a.ScorePercent,
			&a.Counts.Correct, &a.Counts.Incorrect, &a.Counts.Unanswered); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SubjectProgressForUser averages the user's archived scores per test
// subject, in subject order.
func (s *Store) SubjectProgressForUser(userID int64) ([]model.SubjectProgress, error) {
	rows, err := s.db.Query(
		`SELECT t.subject, COUNT(*), AVG(a.score_percent)
		 FROM attempts a JOIN tests t ON t.id = a.test_id
		 WHERE a.user_id = ?
		 GROUP BY t.subject
		 ORDER BY t.subject`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SubjectProgress
	for rows.Next() {
		var p model.SubjectProgress
		if err := rows.Scan(&p.Subject, &p.Attempts, &p.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CompletedTestCount returns how many distinct tests the user has submitted.
func (s *Store) CompletedTestCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT test_id) FROM attempts WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// ListAttemptRecords returns every archived attempt in submission order.
func (s *Store) ListAttemptRecords() ([]model.AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, test_id, started_at, submitted_at, answers, report
		 FROM attempts ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AttemptRecord
	for rows.Next() {
		rec, err := scanAttemptRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttemptRecord(row rowScanner) (*model.AttemptRecord, error) {
	var (
		rec             model.AttemptRecord
		answers, report string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.TestID, &rec.StartedAt, &rec.SubmittedAt, &answers, &report); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
		return nil, fmt.Errorf("decode answers for attempt %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(report), &rec.Report); err != nil {
		return nil, fmt.Errorf("decode report for attempt %s: %w", rec.ID, err)
	}
	return &rec, nil
}
