// Package syncer drives one full sync cycle: watermark, diff, per-order
// assembly, guarded appends, and the final chronological resort.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ASAPRATAJ/OrderAutomation/internal/diff"
	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

// DefaultFloorID is the first order id the report ever tracks. Earlier
// orders predate the report and are never synced.
const DefaultFloorID = 13190

// WatermarkSource yields the highest order id known to the source.
type WatermarkSource interface {
	LatestOrderID(ctx context.Context) (int64, error)
}

// Assembler builds one report row per order id.
type Assembler interface {
	Assemble(ctx context.Context, orderID int64) (models.SinkRow, error)
}

// SinkWriter is the sink surface the orchestrator drives.
type SinkWriter interface {
	ExistingOrderIDs(ctx context.Context) (map[int64]struct{}, error)
	HasOrder(ctx context.Context, orderID int64) (bool, error)
	Append(ctx context.Context, row models.SinkRow) (bool, error)
	Resort(ctx context.Context) error
}

// Stats summarizes one completed cycle.
type Stats struct {
	Watermark int64 `json:"watermark"`
	Missing   int   `json:"missing"`
	Appended  int   `json:"appended"`
	Skipped   int   `json:"skipped"`
}

// Syncer runs sync cycles. Cycles are serialized by an internal mutex: the
// sink offers no transactional isolation across calls, so two interleaved
// cycles could both pass the existence check before either writes.
type Syncer struct {
	mu        sync.Mutex
	source    WatermarkSource
	assembler Assembler
	writer    SinkWriter
	policy    diff.EligibilityPolicy
	floor     int64
}

// New wires a Syncer. A zero floor falls back to DefaultFloorID and a nil
// policy to diff.AllOrders.
func New(source WatermarkSource, assembler Assembler, writer SinkWriter, policy diff.EligibilityPolicy, floor int64) *Syncer {
	if floor <= 0 {
		floor = DefaultFloorID
	}
	if policy == nil {
		policy = diff.AllOrders{}
	}
	return &Syncer{
		source:    source,
		assembler: assembler,
		writer:    writer,
		policy:    policy,
		floor:     floor,
	}
}

// Run executes one full sync cycle. Field-level gaps are tolerated inside
// assembly; source or sink connectivity failures abort the cycle with no
// partial resort. Running twice with no source change appends nothing.
func (s *Syncer) Run(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	stats := Stats{}

	watermark, err := s.source.LatestOrderID(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logging.LogKV("info", "source has no orders, nothing to sync", map[string]interface{}{"run_id": runID})
			return stats, nil
		}
		return stats, fmt.Errorf("failed to read source watermark: %w", err)
	}
	stats.Watermark = watermark

	existing, err := s.writer.ExistingOrderIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read sink order ids: %w", err)
	}

	missing, err := diff.MissingOrderIDs(ctx, existing, watermark, s.floor, s.policy)
	if err != nil {
		return stats, fmt.Errorf("failed to diff source against sink: %w", err)
	}
	stats.Missing = len(missing)

	logging.LogKV("info", "sync cycle started", map[string]interface{}{
		"run_id":    runID,
		"watermark": watermark,
		"existing":  len(existing),
		"missing":   len(missing),
	})

	for _, orderID := range missing {
		row, err := s.assembler.Assemble(ctx, orderID)
		if err != nil {
			return stats, fmt.Errorf("failed to assemble order %d: %w", orderID, err)
		}
		if !row.Ready() {
			stats.Skipped++
			logging.LogKV("info", "order not ready, skipping", map[string]interface{}{
				"run_id":   runID,
				"order_id": orderID,
			})
			continue
		}

		// Re-check right before the write; the diff may be stale by now.
		exists, err := s.writer.HasOrder(ctx, orderID)
		if err != nil {
			return stats, fmt.Errorf("failed existence re-check for order %d: %w", orderID, err)
		}
		if exists {
			stats.Skipped++
			logging.LogKV("info", "order already in sink, skipping", map[string]interface{}{
				"run_id":   runID,
				"order_id": orderID,
			})
			continue
		}

		appended, err := s.writer.Append(ctx, row)
		if err != nil {
			return stats, fmt.Errorf("failed to append order %d: %w", orderID, err)
		}
		if appended {
			stats.Appended++
		} else {
			stats.Skipped++
		}
	}

	if err := s.writer.Resort(ctx); err != nil {
		return stats, fmt.Errorf("failed to resort sink: %w", err)
	}

	logging.LogKV("info", "sync cycle finished", map[string]interface{}{
		"run_id":   runID,
		"appended": stats.Appended,
		"skipped":  stats.Skipped,
	})
	return stats, nil
}
