package assessment

import (
	"fmt"
	"strings"
	"sync"
)

// Status is the lifecycle state of an attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// Direction moves the current item backward or forward.
type Direction string

const (
	Previous Direction = "previous"
	Next     Direction = "next"
)

// ParseDirection accepts "previous"/"prev" and "next", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "previous", "prev":
		return Previous, nil
	case "next":
		return Next, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Attempt is one learner's pass through a bank. It is safe for concurrent
// use; every method runs under the attempt's lock.
type Attempt struct {
	mu        sync.Mutex
	bank      *Bank
	current   int
	answers   map[int]int
	submitted bool
}

// State is a point-in-time copy of an attempt for rendering.
type State struct {
	Status          Status      `json:"status"`
	CurrentIndex    int         `json:"current_index"`
	Total           int         `json:"total"`
	Answered        int         `json:"answered"`
	ProgressPercent float64     `json:"progress_percent"`
	Answers         map[int]int `json:"answers"`
}

// Start begins a new attempt on bank positioned at the first item.
func Start(bank *Bank) (*Attempt, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidBank)
	}
	return &Attempt{
		bank:    bank,
		answers: make(map[int]int),
	}, nil
}

// Bank returns the bank the attempt was started on.
func (a *Attempt) Bank() *Bank { return a.bank }

// SelectAnswer records option as the answer for item, replacing any earlier
// answer. The item does not have to be the current one.
func (a *Attempt) SelectAnswer(item, option int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return ErrAttemptAlreadySubmitted
	}
	if item < 0 || item >= a.bank.Len() {
		return fmt.Errorf("%w: item %d not in [0,%d)", ErrIndexOutOfRange, item, a.bank.Len())
	}
	n := len(a.bank.items[item].Options)
	if option < 0 || option >= n {
		return fmt.Errorf("%w: option %d not in [0,%d) for item %d", ErrIndexOutOfRange, option, n, item)
	}
	a.answers[item] = option
	return nil
}

// Clear removes the answer for item, leaving it unanswered.
func (a *Attempt) Clear(item int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return ErrAttemptAlreadySubmitted
	}
	if item < 0 || item >= a.bank.Len() {
		return fmt.Errorf("%w: item %d not in [0,%d)", ErrIndexOutOfRange, item, a.bank.Len())
	}
	delete(a.answers, item)
	return nil
}

// Navigate moves the current item by one in direction d and returns the new
// index. Moving past either end leaves the index where it is.
func (a *Attempt) Navigate(d Direction) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return a.current, ErrAttemptAlreadySubmitted
	}
	switch d {
	case Previous:
		if a.current > 0 {
			a.current--
		}
	case Next:
		if a.current < a.bank.Len()-1 {
			a.current++
		}
	default:
		return a.current, fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}
	return a.current, nil
}

// GoTo jumps directly to item i.
func (a *Attempt) GoTo(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return ErrAttemptAlreadySubmitted
	}
	if i < 0 || i >= a.bank.Len() {
		return fmt.Errorf("%w: item %d not in [0,%d)", ErrIndexOutOfRange, i, a.bank.Len())
	}
	a.current = i
	return nil
}

// Submit finalizes the attempt. It succeeds exactly once.
func (a *Attempt) Submit() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return ErrAttemptAlreadySubmitted
	}
	a.submitted = true
	return nil
}

// Submitted reports whether Submit has been called.
func (a *Attempt) Submitted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitted
}

// Current returns the index and a copy of the item currently presented.
func (a *Attempt) Current() (int, Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, copyItem(a.bank.items[a.current])
}

// Snapshot returns a copy of the attempt's state.
func (a *Attempt) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make(map[int]int, len(a.answers))
	for k, v := range a.answers {
		answers[k] = v
	}
	status := StatusInProgress
	if a.submitted {
		status = StatusSubmitted
	}
	total := a.bank.Len()
	return State{
		Status:          status,
		CurrentIndex:    a.current,
		Total:           total,
		Answered:        len(answers),
		ProgressPercent: 100.0 * float64(a.current+1) / float64(total),
		Answers:         answers,
	}
}

// Report scores a submitted attempt.
func (a *Attempt) Report() (Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.submitted {
		return Report{}, ErrAttemptNotSubmitted
	}
	return buildReport(a.bank, a.answers), nil
}
