package store

import (
	"errors"
	"fmt"
)

// Kind classifies store failures so callers can react without string matching.
type Kind string

const (
	KindPrecondition Kind = "precondition"
	KindRemoteWrite  Kind = "remote_write"
	KindUpload       Kind = "upload"
	KindDecode       Kind = "decode"
	KindSubscription Kind = "subscription"
)

var (
	ErrNoUser    = errors.New("no authenticated user")
	ErrEmptyName = errors.New("name must not be empty")
	ErrEmptyID   = errors.New("id must not be empty")

	ErrListNotFound = errors.New("list does not exist")
	ErrItemNotFound = errors.New("item does not exist")
)

// Error is returned by every store operation that fails.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsPrecondition(err error) bool { return KindOf(err) == KindPrecondition }
func IsRemoteWrite(err error) bool  { return KindOf(err) == KindRemoteWrite }
func IsUpload(err error) bool       { return KindOf(err) == KindUpload }
func IsSubscription(err error) bool { return KindOf(err) == KindSubscription }
