package service

import (
	"errors"
	"time"

	"ticket_engine/constants"
	"ticket_engine/utils"

	"gorm.io/gorm"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

var errUnchanged = errors.New("row not in expected state")

func requireUUID(value, field string) error {
	if !utils.IsUUID(value) {
		return utils.ValidationError(constants.INVALID_FORMAT, field+" must be a UUID")
	}
	return nil
}

// notFoundOr maps gorm.ErrRecordNotFound to a not-found error with code and
// anything else to a system error.
func notFoundOr(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFoundError(code, message)
	}
	return utils.SystemError(message, err)
}
