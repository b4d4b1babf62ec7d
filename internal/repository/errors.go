package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrResetTokenInvalid is returned when a reset token does not match any
// user or has expired.
var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique-constraint violation. Drivers
// that do not translate errors are matched on their message.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
