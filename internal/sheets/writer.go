package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

const (
	// headerRow is the first sheet row; order data starts right below it.
	headerRow    = 1
	firstDataRow = headerRow + 1
	columnCount  = 10

	deliveryDateCol = 1
	shippingInfoCol = 4
)

// dateLayouts are tried in order when comparing delivery dates. Rows whose
// dates parse with none of them fall back to a string compare.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02-01-2006",
	"02/01/2006",
}

// Writer owns all writes to the report worksheet.
type Writer struct {
	api API
}

// NewWriter returns a Writer over the given sink API.
func NewWriter(api API) *Writer {
	return &Writer{api: api}
}

// ExistingOrderIDs reads the id column and returns the set of order ids
// already present in the sheet. Blank or non-numeric cells are skipped.
func (w *Writer) ExistingOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	values, err := w.api.ColumnValues(ctx, "A", firstDataRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing order ids: %w", err)
	}

	ids := make(map[int64]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// HasOrder re-reads the id column and reports whether the order is already
// in the sheet. The orchestrator calls this right before every append as the
// idempotence guard.
func (w *Writer) HasOrder(ctx context.Context, orderID int64) (bool, error) {
	ids, err := w.ExistingOrderIDs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[orderID]
	return ok, nil
}

// Append writes the row into the first free sheet row. Rows without a
// delivery date are refused; undated orders never enter the report. Returns
// whether the row was written.
func (w *Writer) Append(ctx context.Context, row models.SinkRow) (bool, error) {
	if !row.Ready() {
		logging.LogKV("info", "skipping order without delivery date", map[string]interface{}{
			"order_id": row.OrderID,
		})
		return false, nil
	}

	existing, err := w.api.AllRows(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to determine next free row: %w", err)
	}
	nextRow := firstDataRow + len(existing)

	if err := w.api.Write(ctx, nextRow, [][]any{row.Values()}); err != nil {
		return false, fmt.Errorf("failed to append order %d: %w", row.OrderID, err)
	}
	return true, nil
}

// Resort rewrites the full data range in chronological order by delivery
// date, dropping rows whose date cell is empty. The sort is stable: ties are
// broken by the shipping/pickup column, then by original row order. Trailing
// rows freed by dropped entries are cleared so they never reappear.
func (w *Writer) Resort(ctx context.Context) error {
	rows, err := w.api.AllRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to read rows for resort: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row[deliveryDateCol]) == "" {
			continue
		}
		kept = append(kept, row)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if c := compareDates(kept[i][deliveryDateCol], kept[j][deliveryDateCol]); c != 0 {
			return c < 0
		}
		return kept[i][shippingInfoCol] < kept[j][shippingInfoCol]
	})

	out := make([][]any, len(kept))
	for i, row := range kept {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}

	if err := w.api.Write(ctx, firstDataRow, out); err != nil {
		return fmt.Errorf("failed to rewrite sorted rows: %w", err)
	}
	if len(kept) < len(rows) {
		from := firstDataRow + len(kept)
		to := firstDataRow + len(rows) - 1
		if err := w.api.ClearRows(ctx, from, to); err != nil {
			return fmt.Errorf("failed to clear leftover rows: %w", err)
		}
	}
	return nil
}

// compareDates orders two delivery date strings, parsing known layouts and
// falling back to a plain string compare when either does not parse.
func compareDates(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
