package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
)

// Store is the read-only query surface over the WooCommerce schema
// (wp_posts, wp_postmeta, wp_woocommerce_order_items,
// wp_woocommerce_order_itemmeta). Every method is a single parameterized
// lookup returning a typed row; none of them mutate anything.
//
// Duplicate metadata keys are resolved with MAX() pivots, so the
// lexicographically-last value wins. That is a documented tie-break, not an
// error.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool in the order query surface.
func NewStore(database *Database) *Store {
	return &Store{pool: database.Pool}
}

// LatestOrderID returns the highest order id present in the order metadata
// table (the source watermark).
func (s *Store) LatestOrderID(ctx context.Context) (int64, error) {
	const q = `
		SELECT post_id
		FROM wp_postmeta
		ORDER BY post_id DESC
		LIMIT 1`

	var id int64
	if err := s.pool.QueryRow(ctx, q).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("failed to query latest order id: %w", err)
	}
	return id, nil
}

// LineItemQuantities returns the product line items of an order joined to
// their _qty metadata, in row order.
func (s *Store) LineItemQuantities(ctx context.Context, orderID int64) ([]models.LineItemQuantity, error) {
	const q = `
		SELECT woi.order_item_name, wim.meta_value
		FROM wp_woocommerce_order_items woi
		JOIN wp_woocommerce_order_itemmeta wim ON woi.order_item_id = wim.order_item_id
		WHERE woi.order_id = $1
		  AND woi.order_item_type = 'line_item'
		  AND wim.meta_key = '_qty'`

	rows, err := s.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []models.LineItemQuantity
	for rows.Next() {
		var name, qty string
		if err := rows.Scan(&name, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan line item for order %d: %w", orderID, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for order %d: %w", qty, orderID, err)
		}
		items = append(items, models.LineItemQuantity{ProductName: name, Quantity: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items for order %d: %w", orderID, err)
	}
	return items, nil
}

// ShippingDeliveryDate returns the _delivery_date metadata of the order's
// shipping line item. ErrNotFound when the order has no shipping line item
// or no such metadata key.
func (s *Store) ShippingDeliveryDate(ctx context.Context, orderID int64) (string, error) {
	const q = `
		SELECT wim.meta_value
		FROM wp_woocommerce_order_itemmeta wim
		WHERE wim.order_item_id = (
			SELECT woi.order_item_id
			FROM wp_woocommerce_order_items woi
			WHERE woi.order_item_type = 'shipping' AND woi.order_id = $1
			LIMIT 1
		)
		AND wim.meta_key = '_delivery_date'
		LIMIT 1`

	var date string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to query delivery date for order %d: %w", orderID, err)
	}
	return date, nil
}

// ShippingDetails returns the shipping line item's display name plus the
// order-level address metadata used by home-delivery rendering. ErrNotFound
// when the order has no shipping line item.
func (s *Store) ShippingDetails(ctx context.Context, orderID int64) (*models.ShippingDetails, error) {
	const q = `
		SELECT
			woi.order_item_name,
			MAX(CASE WHEN pm.meta_key = '_shipping_address_1' THEN pm.meta_value END) AS street,
			MAX(CASE WHEN pm.meta_key = '_shipping_address_2' THEN pm.meta_value END) AS street_number,
			MAX(CASE WHEN pm.meta_key = '_shipping_city' THEN pm.meta_value END) AS city,
			MAX(CASE WHEN pm.meta_key = '_shipping_company' THEN pm.meta_value END) AS company,
			MAX(CASE WHEN pm.meta_key = '_billing_phone' THEN pm.meta_value END) AS phone,
			MAX(CASE WHEN pm.meta_key = 'Czas dostawy' THEN pm.meta_value END) AS delivery_hour
		FROM wp_woocommerce_order_items woi
		LEFT JOIN wp_postmeta pm ON pm.post_id = woi.order_id
		WHERE woi.order_item_type = 'shipping' AND woi.order_id = $1
		GROUP BY woi.order_item_id, woi.order_item_name
		LIMIT 1`

	var d models.ShippingDetails
	err := s.pool.QueryRow(ctx, q, orderID).Scan(
		&d.MethodName,
		&d.Street,
		&d.StreetNumber,
		&d.City,
		&d.Company,
		&d.Phone,
		&d.DeliveryHour,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query shipping details for order %d: %w", orderID, err)
	}
	return &d, nil
}

// OrderComment returns the order's excerpt text (customer comment).
// ErrNotFound when the order post does not exist.
func (s *Store) OrderComment(ctx context.Context, orderID int64) (string, error) {
	const q = `
		SELECT post_excerpt
		FROM wp_posts
		WHERE id = $1`

	var comment string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&comment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to query comment for order %d: %w", orderID, err)
	}
	return comment, nil
}

// BillingName returns the billing first/last name metadata of an order.
func (s *Store) BillingName(ctx context.Context, orderID int64) (models.BillingName, error) {
	const q = `
		SELECT
			MAX(CASE WHEN meta_key = '_billing_first_name' THEN meta_value END) AS billing_first_name,
			MAX(CASE WHEN meta_key = '_billing_last_name' THEN meta_value END) AS billing_last_name
		FROM wp_postmeta
		WHERE post_id = $1`

	var name models.BillingName
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&name.FirstName, &name.LastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BillingName{}, models.ErrNotFound
		}
		return models.BillingName{}, fmt.Errorf("failed to query billing name for order %d: %w", orderID, err)
	}
	return name, nil
}

// OrderTotals returns the order's _order_total and _order_shipping metadata.
// ErrNotFound when the order has no _order_total entry. Shipping stays nil
// for pickup orders, which carry no shipping metadata at all.
func (s *Store) OrderTotals(ctx context.Context, orderID int64) (models.OrderTotals, error) {
	const q = `
		SELECT
			MAX(CASE WHEN meta_key = '_order_total' THEN meta_value END) AS order_total,
			MAX(CASE WHEN meta_key = '_order_shipping' THEN meta_value END) AS order_shipping
		FROM wp_postmeta
		WHERE post_id = $1
		  AND meta_key IN ('_order_total', '_order_shipping')`

	var totalRaw, shippingRaw *string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&totalRaw, &shippingRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OrderTotals{}, models.ErrNotFound
		}
		return models.OrderTotals{}, fmt.Errorf("failed to query totals for order %d: %w", orderID, err)
	}
	if totalRaw == nil {
		return models.OrderTotals{}, models.ErrNotFound
	}

	total, err := strconv.ParseFloat(strings.TrimSpace(*totalRaw), 64)
	if err != nil {
		return models.OrderTotals{}, fmt.Errorf("invalid order total %q for order %d: %w", *totalRaw, orderID, err)
	}

	totals := models.OrderTotals{Total: total, Shipping: shippingRaw}
	if shippingRaw != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(*shippingRaw), 64)
		if err != nil {
			return models.OrderTotals{}, fmt.Errorf("invalid shipping total %q for order %d: %w", *shippingRaw, orderID, err)
		}
		totals.ShippingValue = &v
	}
	return totals, nil
}

// FeeAmount returns the _fee_amount of the order's fee line item (the
// insulated-packaging surcharge). Zero when the order has no fee item.
func (s *Store) FeeAmount(ctx context.Context, orderID int64) (float64, error) {
	const q = `
		SELECT oim.meta_value
		FROM wp_woocommerce_order_items oi
		JOIN wp_woocommerce_order_itemmeta oim ON oi.order_item_id = oim.order_item_id
		WHERE oi.order_id = $1
		  AND oi.order_item_type = 'fee'
		  AND oim.meta_key = '_fee_amount'
		LIMIT 1`

	var raw string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query fee amount for order %d: %w", orderID, err)
	}
	fee, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fee amount %q for order %d: %w", raw, orderID, err)
	}
	return fee, nil
}

// PaymentMethodTitle returns the order's payment method title metadata.
func (s *Store) PaymentMethodTitle(ctx context.Context, orderID int64) (string, error) {
	const q = `
		SELECT meta_value
		FROM wp_postmeta
		WHERE post_id = $1 AND meta_key = '_payment_method_title'
		LIMIT 1`

	var title string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to query payment method for order %d: %w", orderID, err)
	}
	return title, nil
}

// ItemAttributes returns the pivoted custom attributes (topper, candles,
// cake layers, decoration) of every product line item in the order.
func (s *Store) ItemAttributes(ctx context.Context, orderID int64) ([]models.ItemAttributes, error) {
	const q = `
		SELECT
			woi.order_item_id,
			MAX(CASE WHEN wim.meta_key = 'pa_topper' THEN wim.meta_value END) AS topper,
			MAX(CASE WHEN wim.meta_key = 'pa_swieczka-nr-1' THEN wim.meta_value END) AS candle_one,
			MAX(CASE WHEN wim.meta_key = 'pa_swieczka-nr-2' THEN wim.meta_value END) AS candle_two,
			MAX(CASE WHEN wim.meta_key = 'warstwa-1-najnizsza-warstwa' THEN wim.meta_value END) AS layer_one,
			MAX(CASE WHEN wim.meta_key = 'warstwa-2-srodkowa' THEN wim.meta_value END) AS layer_two,
			MAX(CASE WHEN wim.meta_key = 'warstwa-3-srodkowa' THEN wim.meta_value END) AS layer_three,
			MAX(CASE WHEN wim.meta_key = 'warstwa-4-zewnetrzna-warstwa' THEN wim.meta_value END) AS layer_four,
			MAX(CASE WHEN wim.meta_key = 'dekoracja' THEN wim.meta_value END) AS decoration
		FROM wp_woocommerce_order_items woi
		JOIN wp_woocommerce_order_itemmeta wim ON woi.order_item_id = wim.order_item_id
		WHERE woi.order_id = $1
		  AND woi.order_item_type = 'line_item'
		  AND wim.meta_key IN (
			'pa_topper', 'pa_swieczka-nr-1', 'pa_swieczka-nr-2',
			'warstwa-1-najnizsza-warstwa', 'warstwa-2-srodkowa',
			'warstwa-3-srodkowa', 'warstwa-4-zewnetrzna-warstwa', 'dekoracja'
		  )
		GROUP BY woi.order_item_id
		ORDER BY woi.order_item_id`

	rows, err := s.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item attributes for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var attrs []models.ItemAttributes
	for rows.Next() {
		var a models.ItemAttributes
		err := rows.Scan(
			&a.OrderItemID,
			&a.Topper,
			&a.CandleOne,
			&a.CandleTwo,
			&a.LayerOne,
			&a.LayerTwo,
			&a.LayerThree,
			&a.LayerFour,
			&a.Decoration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item attributes for order %d: %w", orderID, err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item attributes for order %d: %w", orderID, err)
	}
	return attrs, nil
}

// TaxID returns the NIP metadata of an order. ErrNotFound when absent.
func (s *Store) TaxID(ctx context.Context, orderID int64) (string, error) {
	const q = `
		SELECT meta_value
		FROM wp_postmeta
		WHERE post_id = $1 AND meta_key = 'NIP'
		LIMIT 1`

	var nip string
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&nip); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to query NIP for order %d: %w", orderID, err)
	}
	return nip, nil
}

// EmailSent reports whether the new-order confirmation email was recorded as
// sent for the order. Used by the confirmation-based diff policy.
func (s *Store) EmailSent(ctx context.Context, orderID int64) (bool, error) {
	const q = `
		SELECT COUNT(*)
		FROM wp_postmeta
		WHERE post_id = $1
		  AND meta_key = '_new_order_email_sent'
		  AND meta_value = 'true'`

	var count int64
	if err := s.pool.QueryRow(ctx, q, orderID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query email-sent flag for order %d: %w", orderID, err)
	}
	return count > 0, nil
}
