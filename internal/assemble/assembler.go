// Package assemble composes projected fields into complete report rows.
package assemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

// FieldProjector is the projection surface the assembler drives, one method
// per report column. *projector.Projector satisfies it.
type FieldProjector interface {
	LineItemsSummary(ctx context.Context, orderID int64) (string, error)
	DeliveryDate(ctx context.Context, orderID int64) (string, error)
	ShippingOrPickupInfo(ctx context.Context, orderID int64) (string, error)
	OrderAttributes(ctx context.Context, orderID int64) (string, error)
	ProductPrice(ctx context.Context, orderID int64) (string, error)
	ShippingPrice(ctx context.Context, orderID int64) (string, error)
	PaymentMethod(ctx context.Context, orderID int64) (string, error)
	FullName(ctx context.Context, orderID int64) (string, error)
	OrderComment(ctx context.Context, orderID int64) (string, error)
}

// Assembler builds one SinkRow per order id.
type Assembler struct {
	projector FieldProjector
}

// New returns an Assembler over the given projector.
func New(projector FieldProjector) *Assembler {
	return &Assembler{projector: projector}
}

// Assemble projects every report field for the order. A field lookup that
// finds nothing leaves that field empty; only source connectivity errors
// abort. A row whose delivery date stayed empty reports Ready() == false and
// must not reach the sink.
func (a *Assembler) Assemble(ctx context.Context, orderID int64) (models.SinkRow, error) {
	row := models.SinkRow{OrderID: orderID}

	fields := []struct {
		name    string
		project func(context.Context, int64) (string, error)
		target  *string
	}{
		{"delivery_date", a.projector.DeliveryDate, &row.DeliveryDate},
		{"line_items", a.projector.LineItemsSummary, &row.LineItems},
		{"attributes", a.projector.OrderAttributes, &row.Attributes},
		{"shipping_info", a.projector.ShippingOrPickupInfo, &row.ShippingInfo},
		{"product_price", a.projector.ProductPrice, &row.ProductPrice},
		{"shipping_price", a.projector.ShippingPrice, &row.ShippingPrice},
		{"payment_method", a.projector.PaymentMethod, &row.PaymentMethod},
		{"customer_name", a.projector.FullName, &row.CustomerName},
		{"comment", a.projector.OrderComment, &row.Comment},
	}

	for _, f := range fields {
		value, err := f.project(ctx, orderID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				logging.LogKV("info", "field absent for order", map[string]interface{}{
					"order_id": orderID,
					"field":    f.name,
				})
				continue
			}
			return models.SinkRow{}, fmt.Errorf("failed to project %s for order %d: %w", f.name, orderID, err)
		}
		*f.target = value
	}

	return row, nil
}
