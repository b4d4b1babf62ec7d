package services

import (
	"linkvault/internal/apperr"
	"linkvault/internal/repository"
)

// mapRepoError turns datastore errors into client-safe application errors.
func mapRepoError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case notFoundMsg != "" && repository.IsNotFound(err):
		return apperr.Wrap(apperr.KindNotFound, notFoundMsg, err)
	case repository.IsDuplicate(err):
		return apperr.Wrap(apperr.KindConflict, "Resource already exists", err)
	default:
		return apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}
}
