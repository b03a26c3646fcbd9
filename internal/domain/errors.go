package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers; each kind is also a sentinel usable with errors.Is.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindInventory  Kind = "INVENTORY_CONFLICT"
	KindDuplicate  Kind = "DUPLICATE_BOOKING"
	KindState      Kind = "STATE_CONFLICT"
	KindDataGap    Kind = "DATA_GAP"
	KindNotFound   Kind = "NOT_FOUND"
	KindInternal   Kind = "INTERNAL"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrInventoryConflict     = errors.New("inventory conflict")
	ErrInsufficientInventory = fmt.Errorf("%w: insufficient seat inventory", ErrInventoryConflict)
	ErrSeatUnavailable       = fmt.Errorf("%w: seat not available", ErrInventoryConflict)
	ErrDuplicateBooking      = errors.New("traveler already booked on this flight")
	ErrStateConflict         = errors.New("state conflict")
	ErrDataGap               = errors.New("reference data missing")
	ErrNotFound              = errors.New("not found")
)

var kindSentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindInventory:  ErrInventoryConflict,
	KindDuplicate:  ErrDuplicateBooking,
	KindState:      ErrStateConflict,
	KindDataGap:    ErrDataGap,
	KindNotFound:   ErrNotFound,
}

// Error is a user-facing failure with a stable reason code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrValidation) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

func newError(kind Kind, code, msg string, wrapped error) *Error {
	if wrapped == nil {
		wrapped = kindSentinels[kind]
	}
	return &Error{Kind: kind, Code: code, Message: msg, Err: wrapped}
}

func Validation(code, msg string) error {
	return newError(KindValidation, code, msg, nil)
}

func InsufficientInventory(msg string) error {
	return newError(KindInventory, "INSUFFICIENT_INVENTORY", msg, ErrInsufficientInventory)
}

func SeatUnavailable(msg string) error {
	return newError(KindInventory, "SEAT_NOT_AVAILABLE", msg, ErrSeatUnavailable)
}

func DuplicateBooking(msg string) error {
	return newError(KindDuplicate, "DUPLICATE_BOOKING", msg, nil)
}

func StateConflict(code, msg string) error {
	return newError(KindState, code, msg, nil)
}

func DataGap(code, msg string) error {
	return newError(KindDataGap, code, msg, nil)
}

func NotFound(what string) error {
	return newError(KindNotFound, "NOT_FOUND", what+" not found", nil)
}

// KindOf classifies err; anything unrecognised is internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInventoryConflict):
		return KindInventory
	case errors.Is(err, ErrDuplicateBooking):
		return KindDuplicate
	case errors.Is(err, ErrStateConflict):
		return KindState
	case errors.Is(err, ErrDataGap):
		return KindDataGap
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}
	return KindInternal
}

// CodeOf returns the reason code carried by err, falling back to its kind.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return string(KindOf(err))
}
