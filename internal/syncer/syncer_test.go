package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASAPRATAJ/OrderAutomation/internal/diff"
	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

type fakeWatermark struct {
	id  int64
	err error
}

func (f fakeWatermark) LatestOrderID(context.Context) (int64, error) { return f.id, f.err }

// fakeAssembler produces dated rows except for ids listed in undated.
type fakeAssembler struct {
	undated map[int64]bool
	calls   []int64
}

func (f *fakeAssembler) Assemble(_ context.Context, orderID int64) (models.SinkRow, error) {
	f.calls = append(f.calls, orderID)
	row := models.SinkRow{OrderID: orderID}
	if !f.undated[orderID] {
		row.DeliveryDate = fmt.Sprintf("2026-09-%02d", orderID%28+1)
	}
	return row, nil
}

// fakeSink tracks appended ids and mimics the sheet's id column. When
// diffIDs is set, ExistingOrderIDs reports that stale view instead of the
// live one, simulating a write that lands mid-cycle.
type fakeSink struct {
	existing  map[int64]struct{}
	diffIDs   map[int64]struct{}
	appended  []int64
	resorts   int
	appendErr error
}

func (f *fakeSink) ExistingOrderIDs(context.Context) (map[int64]struct{}, error) {
	view := f.existing
	if f.diffIDs != nil {
		view = f.diffIDs
	}
	out := make(map[int64]struct{}, len(view))
	for id := range view {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeSink) HasOrder(_ context.Context, orderID int64) (bool, error) {
	_, ok := f.existing[orderID]
	return ok, nil
}

func (f *fakeSink) Append(_ context.Context, row models.SinkRow) (bool, error) {
	if f.appendErr != nil {
		return false, f.appendErr
	}
	if !row.Ready() {
		return false, nil
	}
	f.existing[row.OrderID] = struct{}{}
	f.appended = append(f.appended, row.OrderID)
	return true, nil
}

func (f *fakeSink) Resort(context.Context) error {
	f.resorts++
	return nil
}

func TestRun_SyncsMissingOrders(t *testing.T) {
	sink := &fakeSink{existing: map[int64]struct{}{101: {}, 102: {}, 104: {}}}
	assembler := &fakeAssembler{}
	s := New(fakeWatermark{id: 105}, assembler, sink, diff.AllOrders{}, 100)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{100, 103, 105}, assembler.calls)
	assert.Equal(t, []int64{100, 103, 105}, sink.appended)
	assert.Equal(t, Stats{Watermark: 105, Missing: 3, Appended: 3, Skipped: 0}, stats)
	assert.Equal(t, 1, sink.resorts)
}

func TestRun_SecondCycleAppendsNothing(t *testing.T) {
	sink := &fakeSink{existing: map[int64]struct{}{}}
	s := New(fakeWatermark{id: 103}, &fakeAssembler{}, sink, diff.AllOrders{}, 100)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.appended, 4)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Appended)
	assert.Len(t, sink.appended, 4, "re-running with no source change must not duplicate rows")
}

func TestRun_SkipsUndatedOrders(t *testing.T) {
	sink := &fakeSink{existing: map[int64]struct{}{}}
	assembler := &fakeAssembler{undated: map[int64]bool{101: true}}
	s := New(fakeWatermark{id: 102}, assembler, sink, diff.AllOrders{}, 100)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 102}, sink.appended)
	assert.Equal(t, 1, stats.Skipped)
}

func TestRun_ExistenceRecheckGuardsAgainstStaleDiff(t *testing.T) {
	// 103 lands in the sink after the diff but before its append, as a
	// concurrent external writer would cause.
	sink := &fakeSink{
		existing: map[int64]struct{}{103: {}},
		diffIDs:  map[int64]struct{}{},
	}
	assembler := &fakeAssembler{}
	s := New(fakeWatermark{id: 103}, assembler, sink, diff.AllOrders{}, 103)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sink.appended)
	assert.Equal(t, 1, stats.Skipped)
}

func TestRun_EmptySourceIsNoop(t *testing.T) {
	sink := &fakeSink{existing: map[int64]struct{}{}}
	s := New(fakeWatermark{err: models.ErrNotFound}, &fakeAssembler{}, sink, nil, 0)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, sink.resorts)
}

func TestRun_SinkFailureAbortsWithoutResort(t *testing.T) {
	sink := &fakeSink{existing: map[int64]struct{}{}, appendErr: errors.New("quota exceeded")}
	s := New(fakeWatermark{id: 100}, &fakeAssembler{}, sink, diff.AllOrders{}, 100)

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, sink.resorts, "a failed cycle must not trigger the resort")
}
