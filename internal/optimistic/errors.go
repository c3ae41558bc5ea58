package optimistic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrStaleResponse is returned by Mutation.Send when every response it
	// received belonged to a request superseded by a later one on the same
	// item. Nothing was applied to the store.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrAlreadySent is returned when Send is called twice on a mutation.
	ErrAlreadySent = errors.New("mutation already sent")
)

// maxNameLength matches the server-side limit on board, list and card names.
const maxNameLength = 64

// ValidationError rejects an operation before any local or remote change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RequestError reports a failed gateway call whose optimistic change was
// rolled back.
type RequestError struct {
	Op     string
	ItemID string
	Err    error
	// Reload is set when a batch failed part way: some of its requests may
	// have been applied by the server, so the board should be fetched again.
	Reload bool
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func validateName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}
	return name, nil
}
