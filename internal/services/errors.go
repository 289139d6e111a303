package services

import (
	"fmt"

	"github.com/matjar-app/api/internal/repositories"
)

// translateRepoError maps a persistence failure onto the calling service's
// sentinel errors so handlers never see driver details.
func translateRepoError(err error, notFound, conflict, unavailable error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %v", notFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %v", conflict, err)
	default:
		return fmt.Errorf("%w: %v", unavailable, err)
	}
}
