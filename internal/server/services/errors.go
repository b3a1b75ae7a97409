package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/sethvargo/go-retry"
)

// conflictBackoff is the pause before replaying an operation that lost an
// optimistic-concurrency race.
var conflictBackoff = 5 * time.Millisecond

// withConflictRetry runs op and replays it from scratch, up to maxRetries
// more times, while it fails with ErrVersionConflict. Any other error ends
// the loop immediately.
func withConflictRetry(ctx context.Context, maxRetries uint64, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, retry.NewConstant(conflictBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, common.ErrVersionConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// classify passes domain error kinds through and wraps everything else,
// including exhausted conflicts, commit failures and expired deadlines, as
// ErrPersistenceFailure with the cause attached.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", common.ErrPersistenceFailure, op, err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		common.ErrAccountNotFound,
		common.ErrEntryNotFound,
		common.ErrEntryNotOwned,
		common.ErrUniquenessViolation,
		common.ErrValidation,
		common.ErrorUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
