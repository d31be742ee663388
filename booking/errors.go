package booking

import (
	"errors"
	"fmt"
)

// Kind classifies every failure that leaves the booking core.
type Kind int

const (
	KindUnknown Kind = iota
	InvalidInput
	NotFound
	AuthRequired
	SeatConflict
	Transient
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	case AuthRequired:
		return "authentication required"
	case SeatConflict:
		return "seat conflict"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

var (
	ErrNoSession        = errors.New("no valid session")
	ErrSessionExpired   = errors.New("session expired")
	ErrEmptySelection   = errors.New("no seats selected")
	ErrInvalidScreening = errors.New("invalid screening id")
)

// Error is a classified failure. Message is safe to show to the user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "booking error"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func newError(kind Kind, op string, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

var errNotEditable = errors.New("selection is not editable")
