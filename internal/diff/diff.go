// Package diff computes which source orders are not yet present in the sink.
package diff

import (
	"context"
	"fmt"
)

// EligibilityPolicy decides whether an order id in the candidate range should
// be synced at all. Policies must be deterministic for a given source state.
type EligibilityPolicy interface {
	Eligible(ctx context.Context, orderID int64) (bool, error)
}

// AllOrders accepts every id in the range. The default policy.
type AllOrders struct{}

// Eligible always reports true.
func (AllOrders) Eligible(context.Context, int64) (bool, error) { return true, nil }

// ConfirmationSource exposes the order confirmation flag a policy may consult.
type ConfirmationSource interface {
	EmailSent(ctx context.Context, orderID int64) (bool, error)
}

// EmailSentPolicy only accepts orders whose new-order confirmation email was
// recorded as sent, so drafts and unpaid orders never reach the report.
type EmailSentPolicy struct {
	Source ConfirmationSource
}

// Eligible reports whether the confirmation email went out for the order.
func (p EmailSentPolicy) Eligible(ctx context.Context, orderID int64) (bool, error) {
	return p.Source.EmailSent(ctx, orderID)
}

// MissingOrderIDs returns every eligible order id in [floor, watermark] that
// is not already present in the sink, ascending. With an empty existing set
// the whole range is returned (bootstrap). The result is deterministic for
// the same inputs and contains no duplicates.
func MissingOrderIDs(ctx context.Context, existing map[int64]struct{}, watermark, floor int64, policy EligibilityPolicy) ([]int64, error) {
	if policy == nil {
		policy = AllOrders{}
	}
	if watermark < floor {
		return nil, nil
	}

	var missing []int64
	for id := floor; id <= watermark; id++ {
		if _, ok := existing[id]; ok {
			continue
		}
		eligible, err := policy.Eligible(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("eligibility check failed for order %d: %w", id, err)
		}
		if eligible {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
