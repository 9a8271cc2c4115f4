package model

import (
	"time"

	"github.com/pavelanni/testprep/internal/assessment"
)

// ResultsExport is the top-level JSON structure for attempt export.
type ResultsExport struct {
	ExportedAt  time.Time       `json:"exported_at"`
	NumAttempts int             `json:"num_attempts"`
	Results     []StudentResult `json:"results"`
}

// StudentResult holds one archived attempt for export.
type StudentResult struct {
	AttemptID     string                  `json:"attempt_id"`
	Username      string                  `json:"username"`
	DisplayName   string                  `json:"display_name"`
	AttemptNumber int                     `json:"attempt_number"`
	TestTitle     string                  `json:"test_title"`
	StartedAt     time.Time               `json:"started_at"`
	SubmittedAt   time.Time               `json:"submitted_at"`
	ScorePercent  float64                 `json:"score_percent"`
	Counts        assessment.Counts       `json:"counts"`
	Items         []assessment.ItemResult `json:"items"`
}
