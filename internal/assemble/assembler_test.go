package assemble

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

// fakeProjector returns canned values per field name; missing entries behave
// like absent source rows.
type fakeProjector struct {
	values map[string]string
	errs   map[string]error
}

func (f *fakeProjector) field(name string) (string, error) {
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	if v, ok := f.values[name]; ok {
		return v, nil
	}
	return "", models.ErrNotFound
}

func (f *fakeProjector) LineItemsSummary(context.Context, int64) (string, error) {
	return f.field("line_items")
}
func (f *fakeProjector) DeliveryDate(context.Context, int64) (string, error) {
	return f.field("delivery_date")
}
func (f *fakeProjector) ShippingOrPickupInfo(context.Context, int64) (string, error) {
	return f.field("shipping_info")
}
func (f *fakeProjector) OrderAttributes(context.Context, int64) (string, error) {
	return f.field("attributes")
}
func (f *fakeProjector) ProductPrice(context.Context, int64) (string, error) {
	return f.field("product_price")
}
func (f *fakeProjector) ShippingPrice(context.Context, int64) (string, error) {
	return f.field("shipping_price")
}
func (f *fakeProjector) PaymentMethod(context.Context, int64) (string, error) {
	return f.field("payment_method")
}
func (f *fakeProjector) FullName(context.Context, int64) (string, error) {
	return f.field("customer_name")
}
func (f *fakeProjector) OrderComment(context.Context, int64) (string, error) {
	return f.field("comment")
}

func TestAssemble_AllFieldsPresent(t *testing.T) {
	a := New(&fakeProjector{values: map[string]string{
		"delivery_date":  "2026-09-05",
		"line_items":     "Tort czekoladowy (2 szt.)",
		"attributes":     "Topper: Sto lat\n",
		"shipping_info":  "Odbiór Bema",
		"product_price":  "250.00 zł",
		"shipping_price": "Dostawa: 15.00",
		"payment_method": "Przelewy24",
		"customer_name":  "Jan Kowalski",
		"comment":        "proszę o odbiór po 16",
	}})

	row, err := a.Assemble(context.Background(), 13250)
	require.NoError(t, err)
	assert.True(t, row.Ready())
	assert.Equal(t, models.SinkRow{
		OrderID:       13250,
		DeliveryDate:  "2026-09-05",
		LineItems:     "Tort czekoladowy (2 szt.)",
		Attributes:    "Topper: Sto lat\n",
		ShippingInfo:  "Odbiór Bema",
		ProductPrice:  "250.00 zł",
		ShippingPrice: "Dostawa: 15.00",
		PaymentMethod: "Przelewy24",
		CustomerName:  "Jan Kowalski",
		Comment:       "proszę o odbiór po 16",
	}, row)
}

func TestAssemble_MissingFieldsStayEmpty(t *testing.T) {
	a := New(&fakeProjector{values: map[string]string{
		"delivery_date": "2026-09-05",
		"line_items":    "Tort malinowy (1 szt.)",
	}})

	row, err := a.Assemble(context.Background(), 13251)
	require.NoError(t, err)
	assert.True(t, row.Ready())
	assert.Empty(t, row.ShippingPrice)
	assert.Empty(t, row.PaymentMethod)
	assert.Empty(t, row.Comment)
	assert.Equal(t, "Tort malinowy (1 szt.)", row.LineItems)
}

func TestAssemble_MissingDeliveryDateNotReady(t *testing.T) {
	a := New(&fakeProjector{values: map[string]string{
		"line_items": "Tort czekoladowy (1 szt.)",
	}})

	row, err := a.Assemble(context.Background(), 13252)
	require.NoError(t, err)
	assert.False(t, row.Ready())
	assert.EqualValues(t, 13252, row.OrderID)
}

func TestAssemble_SourceFailureAborts(t *testing.T) {
	a := New(&fakeProjector{
		values: map[string]string{"delivery_date": "2026-09-05"},
		errs:   map[string]error{"product_price": errors.New("connection refused")},
	})

	_, err := a.Assemble(context.Background(), 13253)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product_price")
}
