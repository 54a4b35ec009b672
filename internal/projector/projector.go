// Package projector maps raw order rows from the source schema onto the
// scalar fields of the report row. Every projection is a side-effect-free
// read and can be retried independently.
package projector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

// Source is the read-only query surface the projector needs. *db.Store
// satisfies it.
type Source interface {
	LineItemQuantities(ctx context.Context, orderID int64) ([]models.LineItemQuantity, error)
	ShippingDeliveryDate(ctx context.Context, orderID int64) (string, error)
	ShippingDetails(ctx context.Context, orderID int64) (*models.ShippingDetails, error)
	OrderComment(ctx context.Context, orderID int64) (string, error)
	BillingName(ctx context.Context, orderID int64) (models.BillingName, error)
	OrderTotals(ctx context.Context, orderID int64) (models.OrderTotals, error)
	FeeAmount(ctx context.Context, orderID int64) (float64, error)
	PaymentMethodTitle(ctx context.Context, orderID int64) (string, error)
	ItemAttributes(ctx context.Context, orderID int64) ([]models.ItemAttributes, error)
	TaxID(ctx context.Context, orderID int64) (string, error)
}

// DefaultPickupLocations maps the shop's pickup shipping labels to the short
// codes rendered in the report.
var DefaultPickupLocations = map[string]string{
	"Odbiór osobisty - Bema (Bezpłatnie)":         "Bema",
	"Odbiór osobisty - Olimpia Port (Bezpłatnie)": "Olimpia",
	"Odbiór osobisty - Wroclavia (Bezpłatnie)":    "Wroclavia",
	"Odbiór osobisty - Hubska (Bezpłatnie)":       "Hubska",
	"Odbiór osobisty - Oławska (Bezpłatnie)":      "Oławska",
}

// Projector renders report fields for single orders.
type Projector struct {
	source  Source
	pickups map[string]string
}

// New builds a Projector over the given source. A nil pickups map falls back
// to DefaultPickupLocations.
func New(source Source, pickups map[string]string) *Projector {
	if pickups == nil {
		pickups = DefaultPickupLocations
	}
	return &Projector{source: source, pickups: pickups}
}

// LineItemsSummary aggregates product quantities by name, preserving first
// occurrence order, and renders "name (n szt.)" lines.
func (p *Projector) LineItemsSummary(ctx context.Context, orderID int64) (string, error) {
	items, err := p.source.LineItemQuantities(ctx, orderID)
	if err != nil {
		return "", err
	}

	var names []string
	quantities := make(map[string]int)
	for _, item := range items {
		if _, seen := quantities[item.ProductName]; !seen {
			names = append(names, item.ProductName)
		}
		quantities[item.ProductName] += item.Quantity
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s (%d szt.)", name, quantities[name]))
	}
	return strings.Join(lines, ", \n"), nil
}

// DeliveryDate returns the delivery date of the order's shipping line item.
// ErrNotFound when the order has no dated shipping item.
func (p *Projector) DeliveryDate(ctx context.Context, orderID int64) (string, error) {
	return p.source.ShippingDeliveryDate(ctx, orderID)
}

// ShippingOrPickupInfo renders either a pickup short code or the delivery
// address block. Pickup orders get "Odbiór <code>", with the NIP appended on
// its own line when present. Home deliveries render every non-null field in
// fixed order: street (with optional number), city, delivery hour, phone,
// company, NIP. A shipping row with nothing renderable logs a warning and
// yields an empty field rather than failing the record.
func (p *Projector) ShippingOrPickupInfo(ctx context.Context, orderID int64) (string, error) {
	details, err := p.source.ShippingDetails(ctx, orderID)
	if err != nil {
		return "", err
	}

	if code, ok := p.pickups[details.MethodName]; ok {
		info := "Odbiór " + code
		if nip := p.taxID(ctx, orderID); nip != "" {
			info += "\nNIP:" + nip
		}
		return info, nil
	}

	var parts []string
	if details.Street != nil {
		location := *details.Street
		if details.StreetNumber != nil {
			location += " " + *details.StreetNumber
		}
		if details.City != nil {
			location += ", " + *details.City
		}
		parts = append(parts, "Adres dostawy:\n"+location)
	} else if details.City != nil {
		parts = append(parts, "Adres dostawy:\n"+*details.City)
	}
	if details.DeliveryHour != nil {
		parts = append(parts, "Godziny dostawy: "+*details.DeliveryHour)
	}
	if details.Phone != nil {
		parts = append(parts, "telefon kontaktowy: "+*details.Phone)
	}
	if details.Company != nil {
		parts = append(parts, "firma: "+*details.Company)
		if nip := p.taxID(ctx, orderID); nip != "" {
			parts = append(parts, "NIP:"+nip)
		}
	}

	if len(parts) == 0 {
		logging.LogKV("warn", "shipping row with no renderable fields", map[string]interface{}{
			"order_id": orderID,
			"method":   details.MethodName,
		})
		return "", nil
	}
	return strings.Join(parts, ", \n"), nil
}

// OrderAttributes renders the per-item custom attribute blocks (topper,
// candles, then the cake layer/decoration block), one item per line.
func (p *Projector) OrderAttributes(ctx context.Context, orderID int64) (string, error) {
	items, err := p.source.ItemAttributes(ctx, orderID)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(items))
	for _, item := range items {
		var b strings.Builder
		if item.Topper != nil {
			fmt.Fprintf(&b, "Topper: %s\n", *item.Topper)
		}
		if item.CandleOne != nil {
			fmt.Fprintf(&b, "Świeczka nr 1: %s\n", *item.CandleOne)
		}
		if item.CandleTwo != nil {
			fmt.Fprintf(&b, "Świeczka nr 2: %s\n", *item.CandleTwo)
		}

		var layers []string
		for _, l := range []struct {
			label string
			value *string
		}{
			{"Warstwa 1", item.LayerOne},
			{"Warstwa 2", item.LayerTwo},
			{"Warstwa 3", item.LayerThree},
			{"Warstwa 4", item.LayerFour},
			{"Dekoracja", item.Decoration},
		} {
			if l.value != nil {
				layers = append(layers, l.label+": "+*l.value)
			}
		}
		if len(layers) > 0 {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strings.Join(layers, ", \n"))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n"), nil
}

// ProductPrice returns the order total minus shipping and the packaging fee,
// rendered as an amount in złoty. ErrNotFound when the order carries no
// _order_total metadata.
func (p *Projector) ProductPrice(ctx context.Context, orderID int64) (string, error) {
	totals, err := p.source.OrderTotals(ctx, orderID)
	if err != nil {
		return "", err
	}
	fee, err := p.source.FeeAmount(ctx, orderID)
	if err != nil {
		return "", err
	}

	shipping := 0.0
	if totals.ShippingValue != nil {
		shipping = *totals.ShippingValue
	}
	return fmt.Sprintf("%.2f zł", totals.Total-shipping-fee), nil
}

// ShippingPrice renders the raw shipping amount, with the insulated-box fee
// appended when charged. ErrNotFound when the order has no shipping metadata,
// which means a pickup order.
func (p *Projector) ShippingPrice(ctx context.Context, orderID int64) (string, error) {
	totals, err := p.source.OrderTotals(ctx, orderID)
	if err != nil {
		return "", err
	}
	if totals.Shipping == nil {
		return "", models.ErrNotFound
	}
	fee, err := p.source.FeeAmount(ctx, orderID)
	if err != nil {
		return "", err
	}

	if fee > 0 {
		return fmt.Sprintf("Dostawa: %s\nStyropian: %s", *totals.Shipping, formatAmount(fee)), nil
	}
	return "Dostawa: " + *totals.Shipping, nil
}

// PaymentMethod returns the order's payment method title.
func (p *Projector) PaymentMethod(ctx context.Context, orderID int64) (string, error) {
	return p.source.PaymentMethodTitle(ctx, orderID)
}

// FullName returns the customer's billing first and last name.
func (p *Projector) FullName(ctx context.Context, orderID int64) (string, error) {
	name, err := p.source.BillingName(ctx, orderID)
	if err != nil {
		return "", err
	}
	var parts []string
	if name.FirstName != nil {
		parts = append(parts, *name.FirstName)
	}
	if name.LastName != nil {
		parts = append(parts, *name.LastName)
	}
	return strings.Join(parts, " "), nil
}

// OrderComment returns the free-text comment attached to the order.
func (p *Projector) OrderComment(ctx context.Context, orderID int64) (string, error) {
	return p.source.OrderComment(ctx, orderID)
}

// taxID resolves the optional NIP, treating lookup failures as absent.
func (p *Projector) taxID(ctx context.Context, orderID int64) string {
	nip, err := p.source.TaxID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logging.LogKV("warn", "NIP lookup failed", map[string]interface{}{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
		return ""
	}
	return nip
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
