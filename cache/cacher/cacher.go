package cacher

import (
	"errors"
	"time"
)

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrUnexpectedError = errors.New("unexpected error")
)

// Entry is the cached outcome of a short code lookup. Negative results are
// cached too, with Err carrying the lookup error.
type Entry struct {
	UrlID     uint
	LongUrl   string
	ExpiresAt *time.Time
	Err       error
}

type Engine interface {
	Get(code string) (*Entry, bool, error)
	Set(code string, entry *Entry, expiration time.Duration) error
	Delete(code string) error

	// Check reports whether the calling goroutine won the recompute
	// permission for the given code.
	//
	// This method is goroutine-safe.
	Check(code string) (bool, error)
	// Uncheck returns the permission for the given code.
	Uncheck(code string) error
}
