package assessment

import "errors"

var (
	// ErrInvalidBank is returned when a bank is empty or holds a malformed item.
	ErrInvalidBank = errors.New("invalid item bank")
	// ErrAttemptAlreadySubmitted is returned for any mutation after Submit.
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAttemptNotSubmitted is returned by Report before Submit.
	ErrAttemptNotSubmitted = errors.New("attempt not submitted")
	// ErrIndexOutOfRange is returned for an item or option index outside the bank.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidDirection is returned by ParseDirection for unknown input.
	ErrInvalidDirection = errors.New("invalid direction")
)
