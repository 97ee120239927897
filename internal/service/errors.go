package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidOperation   = errors.New("invalid operation")   // 400
	ErrInvalidState       = errors.New("invalid state")       // 400
	ErrPreconditionFailed = errors.New("precondition failed") // 400
	ErrVerificationFailed = errors.New("verification failed") // 400
	ErrUnauthorized       = errors.New("unauthorized")        // 401
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrUpstream           = errors.New("upstream failure")    // 500
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
