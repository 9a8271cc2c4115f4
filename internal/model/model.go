package model

import (
	"context"
	"time"

	"github.com/pavelanni/testprep/internal/assessment"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a learner taking tests.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin can upload banks and manage the catalog.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user. Username is the login email.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession is an issued bearer token, keyed by its JWT ID.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type tokenIDCtxKey struct{}

// ContextWithTokenID stores the JWT ID of the current request.
func ContextWithTokenID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tokenIDCtxKey{}, id)
}

// TokenIDFromContext retrieves the JWT ID (empty string if not set).
func TokenIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tokenIDCtxKey{}).(string)
	return id
}

// TestStatus is a catalog entry's availability for a user.
type TestStatus string

const (
	TestCompleted TestStatus = "completed"
	TestAvailable TestStatus = "available"
	TestUpcoming  TestStatus = "upcoming"
)

// BankRecord is an item bank as stored in the database.
type BankRecord struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Source    string            `json:"source"`
	Items     []assessment.Item `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

// TestInfo is a catalog entry learners can start.
type TestInfo struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	DurationMinutes int        `json:"duration_minutes"`
	MaxMarks        int        `json:"max_marks"`
	AvailableOn     string     `json:"available_on"`
	Status          TestStatus `json:"status"`
	BankID          int64      `json:"bank_id"`
	QuestionCount   int        `json:"question_count"`
	BestScore       *float64   `json:"best_score,omitempty"`
}

// AttemptRecord is a submitted attempt archived with its report.
type AttemptRecord struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"user_id"`
	TestID      int64             `json:"test_id"`
	StartedAt   time.Time         `json:"started_at"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Answers     map[int]int       `json:"answers"`
	Report      assessment.Report `json:"report"`
}

// AttemptSummary is an archived attempt without per-item detail.
type AttemptSummary struct {
	ID           string            `json:"id"`
	TestID       int64             `json:"test_id"`
	TestTitle    string            `json:"test_title"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	ScorePercent float64           `json:"score_percent"`
	Counts       assessment.Counts `json:"counts"`
}

// SubjectProgress is a learner's average score over archived attempts on
// tests of one subject.
type SubjectProgress struct {
	Subject      string  `json:"subject"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
}

// Profile is the learner's editable profile document.
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Location    string `json:"location"`
	DateOfBirth string `json:"dateOfBirth"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio"`
}

// Settings is the learner's preferences document.
type Settings struct {
	Notifications      bool   `json:"notifications"`
	EmailNotifications bool   `json:"emailNotifications"`
	SoundEffects       bool   `json:"soundEffects"`
	Autoplay           bool   `json:"autoplay"`
	VideoQuality       string `json:"videoQuality"`
	Language           string `json:"language"`
	FontSize           int    `json:"fontSize"`
	Animations         bool   `json:"animations"`
	DataUsage          bool   `json:"dataUsage"`
}

// DefaultSettings returns the preferences a new learner starts with.
func DefaultSettings() Settings {
	return Settings{
		Notifications:      true,
		EmailNotifications: true,
		SoundEffects:       true,
		VideoQuality:       "HD",
		Language:           "English",
		FontSize:           16,
		Animations:         true,
	}
}

// Key names in the per-user key-value store.
const (
	KeyProfile       = "profile"
	KeySettings      = "settings"
	KeyWatchedVideos = "watched_videos"
)

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	JWTSecret    []byte
	TokenTTL     time.Duration
	CORSOrigins  []string
	ExplainStyle string // Explanation prompt variant (brief, standard, detailed)
}
