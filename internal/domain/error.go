package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrEmptyMessage       = errors.New("message text is empty")
	ErrChatNotResolved    = errors.New("update carries no chat")
	ErrVerifyIncomplete   = errors.New("verification steps still pending")
	ErrQueueSaturated     = errors.New("background queue is full")
	ErrInvalidSettingKey  = errors.New("unknown setting key")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// ErrorKind buckets Telegram API failures by how the caller should react.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRateLimited
	KindNotFound
	KindForbidden
	KindBadRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// TelegramError wraps a Telegram API failure with its classified kind.
type TelegramError struct {
	Code        int
	Kind        ErrorKind
	Description string
	Err         error
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram: %s (code=%d kind=%s)", e.Description, e.Code, e.Kind)
}

func (e *TelegramError) Unwrap() error { return e.Err }

// Recoverable reports whether the failure is worth a degraded retry,
// such as resending without a reply-to anchor.
func (e *TelegramError) Recoverable() bool {
	switch e.Kind {
	case KindRateLimited, KindNotFound, KindForbidden:
		return true
	default:
		return false
	}
}

// Recoverable reports whether err carries a recoverable TelegramError.
func Recoverable(err error) bool {
	var te *TelegramError
	if errors.As(err, &te) {
		return te.Recoverable()
	}
	return false
}

// AsTelegramError unwraps err into a TelegramError when present.
func AsTelegramError(err error) (*TelegramError, bool) {
	var te *TelegramError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
