package models

// LineItemQuantity is one line_item row joined to its _qty metadata.
type LineItemQuantity struct {
	ProductName string
	Quantity    int
}

// ShippingDetails carries the shipping line item's display name together with
// the order-level address metadata resolved for home deliveries. Every field
// except MethodName is optional in the source and stays nil when absent.
type ShippingDetails struct {
	MethodName   string
	Street       *string
	StreetNumber *string
	City         *string
	Company      *string
	Phone        *string
	DeliveryHour *string
}

// BillingName holds the billing first/last name metadata of an order.
type BillingName struct {
	FirstName *string
	LastName  *string
}

// OrderTotals holds the order-level money metadata. Shipping keeps the raw
// meta_value string because the sink renders it verbatim; ShippingValue is
// its parsed form, nil when the order has no shipping metadata (pickup).
type OrderTotals struct {
	Total         float64
	Shipping      *string
	ShippingValue *float64
}

// ItemAttributes is the pivoted custom-attribute metadata of one line item
// (topper, candles, cake layers, decoration). Absent attributes stay nil.
type ItemAttributes struct {
	OrderItemID int64
	Topper      *string
	CandleOne   *string
	CandleTwo   *string
	LayerOne    *string
	LayerTwo    *string
	LayerThree  *string
	LayerFour   *string
	Decoration  *string
}

// SinkRow is one assembled order record in sink-column order (A through J).
// It is created once per order and never mutated field by field afterwards;
// only whole-range rewrites reorder rows in the sink.
type SinkRow struct {
	OrderID       int64
	DeliveryDate  string
	LineItems     string
	Attributes    string
	ShippingInfo  string
	ProductPrice  string
	ShippingPrice string
	PaymentMethod string
	CustomerName  string
	Comment       string
}

// Ready reports whether the record may be written to the sink. Undated
// orders are excluded from the sink entirely.
func (r SinkRow) Ready() bool {
	return r.DeliveryDate != ""
}

// Values returns the row in sink-column order for a range write.
func (r SinkRow) Values() []any {
	return []any{
		r.OrderID,
		r.DeliveryDate,
		r.LineItems,
		r.Attributes,
		r.ShippingInfo,
		r.ProductPrice,
		r.ShippingPrice,
		r.PaymentMethod,
		r.CustomerName,
		r.Comment,
	}
}
