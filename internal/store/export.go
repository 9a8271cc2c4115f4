package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/testprep/internal/model"
)

// ExportAllAttempts builds export-ready results from every archived attempt.
func (s *Store) ExportAllAttempts() ([]model.StudentResult, error) {
	records, err := s.ListAttemptRecords()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	// Attempt number counts retakes of the same test by the same user.
	type userTest struct{ user, test int64 }
	attemptCount := make(map[userTest]int)
	users := make(map[int64]*model.User)
	titles := make(map[int64]string)

	results := make([]model.StudentResult, 0, len(records))
	for _, rec := range records {
		key := userTest{rec.UserID, rec.TestID}
		attemptCount[key]++

		user, ok := users[rec.UserID]
		if !ok {
			user, err = s.GetUserByID(rec.UserID)
			if err != nil {
				return nil, fmt.Errorf("get user %d: %w", rec.UserID, err)
			}
			users[rec.UserID] = user
		}
		title, ok := titles[rec.TestID]
		if !ok {
			t, err := s.GetTest(rec.TestID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("get test %d: %w", rec.TestID, err)
			}
			title = t.Title
			titles[rec.TestID] = title
		}

		var username, displayName string
		if user != nil {
			username = user.Username
			displayName = user.DisplayName
		}

		results = append(results, model.StudentResult{
			AttemptID:     rec.ID,
			Username:      username,
			DisplayName:   displayName,
			AttemptNumber: attemptCount[key],
			TestTitle:     title,
			StartedAt:     rec.StartedAt,
			SubmittedAt:   rec.SubmittedAt,
			ScorePercent:  rec.Report.ScorePercent,
			Counts:        rec.Report.Counts,
			Items:         rec.Report.Items,
		})
	}

	return results, nil
}
