package gatt

import (
	"errors"
	"fmt"

	"github.com/asset-tag/tag-go/pkg/store"
)

// ATTError is an attribute protocol error code returned to the peer.
// It is comparable and implements error.
type ATTError uint8

// Attribute protocol error codes.
const (
	ErrInvalidHandle     ATTError = 0x01
	ErrReadNotPermitted  ATTError = 0x02
	ErrWriteNotPermitted ATTError = 0x03
	ErrInvalidOffset     ATTError = 0x07
	ErrAttributeNotFound ATTError = 0x0A
	ErrUnlikely          ATTError = 0x0E
)

func (c ATTError) Error() string {
	switch c {
	case ErrInvalidHandle:
		return "invalid handle"
	case ErrReadNotPermitted:
		return "read not permitted"
	case ErrWriteNotPermitted:
		return "write not permitted"
	case ErrInvalidOffset:
		return "invalid offset"
	case ErrAttributeNotFound:
		return "attribute not found"
	case ErrUnlikely:
		return "unlikely error"
	default:
		return fmt.Sprintf("att error 0x%02x", uint8(c))
	}
}

// E carries an ATT code together with the operation and cause.
type E struct {
	C   ATTError
	Op  string
	Err error
}

func (e *E) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.C.Error() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.C.Error()
}

// Unwrap exposes both the ATT code and the cause to errors.Is.
func (e *E) Unwrap() []error {
	if e.Err == nil {
		return []error{e.C}
	}
	return []error{e.C, e.Err}
}

// Code returns the ATT code.
func (e *E) Code() ATTError { return e.C }

// Of extracts the ATT code from an error. Nil maps to 0; unknown errors map
// to ErrUnlikely.
func Of(err error) ATTError {
	if err == nil {
		return 0
	}
	var e *E
	if errors.As(err, &e) {
		return e.C
	}
	var c ATTError
	if errors.As(err, &c) {
		return c
	}
	if errors.Is(err, store.ErrInvalidOffset) {
		return ErrInvalidOffset
	}
	return ErrUnlikely
}
