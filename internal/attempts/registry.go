package attempts

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/testprep/internal/assessment"
)

// ErrNotFound is returned for unknown attempts and for attempts owned by
// another user.
var ErrNotFound = errors.New("attempt not found")

// Entry is a live attempt with its ownership and timing.
type Entry struct {
	ID        string
	UserID    int64
	TestID    int64
	StartedAt time.Time
	Attempt   *assessment.Attempt

	mu       sync.Mutex
	archived bool
}

// Submit submits the attempt and hands its report to archive. An attempt
// that was submitted but whose archive step failed may be submitted again;
// only a successful archive makes later calls fail with
// assessment.ErrAttemptAlreadySubmitted.
func (e *Entry) Submit(archive func(assessment.Report) error) (assessment.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.archived {
		return assessment.Report{}, assessment.ErrAttemptAlreadySubmitted
	}
	if err := e.Attempt.Submit(); err != nil && !errors.Is(err, assessment.ErrAttemptAlreadySubmitted) {
		return assessment.Report{}, err
	}
	rep, err := e.Attempt.Report()
	if err != nil {
		return assessment.Report{}, err
	}
	if err := archive(rep); err != nil {
		return assessment.Report{}, err
	}
	e.archived = true
	return rep, nil
}

// Archived reports whether Submit has stored the attempt.
func (e *Entry) Archived() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.archived
}

// Registry holds live attempts in memory. An attempt leaves the registry
// when it is archived or when Sweep finds it too old.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Start begins an attempt on bank for userID and registers it. If the user
// already has an unarchived attempt on testID, that attempt is returned
// instead and created is false.
func (r *Registry) Start(userID, testID int64, bank *assessment.Bank) (e *Entry, created bool, err error) {
	a, err := assessment.Start(bank)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.UserID == userID && existing.TestID == testID && !existing.Archived() {
			return existing, false, nil
		}
	}
	e = &Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		TestID:    testID,
		StartedAt: r.now(),
		Attempt:   a,
	}
	r.entries[e.ID] = e

	slog.Debug("attempt started", "attempt_id", e.ID, "user_id", userID, "test_id", testID, "items", bank.Len())
	return e, true, nil
}

// Get returns the attempt id if it belongs to userID.
func (r *Registry) Get(id string, userID int64) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return e, nil
}

// Finish drops an attempt once it has been archived.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// ActiveForUser lists the user's attempts that have not been archived yet,
// oldest first.
func (r *Registry) ActiveForUser(userID int64) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Entry
	for _, e := range r.entries {
		if e.UserID == userID && !e.Archived() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Sweep drops attempts started more than maxAge ago and returns how many
// were removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.StartedAt.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept stale attempts", "count", removed, "max_age", maxAge)
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(maxAge)
		}
	}
}

// Len returns the number of registered attempts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
