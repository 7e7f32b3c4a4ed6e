package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type reconcilers struct {
	customerStore *memCustomers
	productStore  *memProducts
	orderStore    *memOrders
	customers     *CustomerUpsertService
	products      *ProductUpsertService
	orders        *OrderUpsertService
}

func newReconcilers() *reconcilers {
	r := &reconcilers{
		customerStore: newMemCustomers(),
		productStore:  newMemProducts(),
		orderStore:    newMemOrders(),
	}
	r.customers = NewCustomerUpsertService(r.customerStore, zerolog.Nop())
	r.products = NewProductUpsertService(r.productStore, zerolog.Nop())
	r.orders = NewOrderUpsertService(r.orderStore, r.customerStore, r.productStore, zerolog.Nop())
	r.customers.now = fixedClock
	r.products.now = fixedClock
	r.orders.now = fixedClock
	return r
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

const customerPayload = `{
	"id": 501,
	"email": "ada@example.com",
	"first_name": "Ada",
	"last_name": "Lovelace",
	"state": "enabled",
	"total_spent": "99.90",
	"orders_count": 3,
	"created_at": "2024-01-02T10:00:00-05:00",
	"updated_at": "2024-02-03T08:30:00Z",
	"addresses": [
		{"id": 1, "address1": "1 Main St", "city": "London", "country": "UK", "default": true},
		{"id": 2, "address1": "2 Side St", "city": "Paris", "country": "FR"}
	]
}`

func TestCustomerUpsert_CreatesCustomerWithAddresses(t *testing.T) {
	r := newReconcilers()

	customer, err := r.customers.Upsert(context.Background(), "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)

	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, "t1", customer.TenantID)
	assert.Equal(t, int64(501), customer.ExternalID)
	assert.Equal(t, "ada@example.com", customer.Email)
	assert.False(t, customer.AcceptsMarketing)
	assert.True(t, decimal.RequireFromString("99.90").Equal(customer.TotalSpent))
	assert.Equal(t, 3, customer.OrdersCount)
	require.NotNil(t, customer.CreatedAt)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), *customer.CreatedAt)
	assert.Equal(t, fixedNow, customer.SyncedAt)

	stored, err := r.customerStore.ListAddresses(context.Background(), "t1", customer.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "London", stored[0].City)
	assert.True(t, stored[0].IsDefault)
	assert.Equal(t, customer.ID, stored[1].CustomerID)
}

func TestCustomerUpsert_IsIdempotent(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	first, err := r.customers.Upsert(ctx, "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)
	second, err := r.customers.Upsert(ctx, "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, r.customerStore.count("t1", 501))
	assert.Len(t, r.customerStore.rows, 1)
}

func TestCustomerUpsert_KeysAreTenantScoped(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	a, err := r.customers.Upsert(ctx, "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)
	b, err := r.customers.Upsert(ctx, "t2", json.RawMessage(customerPayload))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 1, r.customerStore.count("t1", 501))
	assert.Equal(t, 1, r.customerStore.count("t2", 501))
}

func TestCustomerUpsert_ReplacesAddresses(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	customer, err := r.customers.Upsert(ctx, "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)

	updated := `{"id": 501, "email": "ada@example.com", "addresses": [{"id": 9, "city": "Berlin"}]}`
	_, err = r.customers.Upsert(ctx, "t1", json.RawMessage(updated))
	require.NoError(t, err)

	stored, err := r.customerStore.ListAddresses(ctx, "t1", customer.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(9), stored[0].ExternalID)
	assert.Equal(t, "Berlin", stored[0].City)

	_, err = r.customers.Upsert(ctx, "t1", json.RawMessage(`{"id": 501}`))
	require.NoError(t, err)
	stored, err = r.customerStore.ListAddresses(ctx, "t1", customer.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCustomerUpsert_OverwritesScalarsAndDefaults(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	_, err := r.customers.Upsert(ctx, "t1", json.RawMessage(customerPayload))
	require.NoError(t, err)

	customer, err := r.customers.Upsert(ctx, "t1", json.RawMessage(`{"id": 501, "accepts_marketing": true, "total_spent": null}`))
	require.NoError(t, err)

	assert.Empty(t, customer.Email)
	assert.True(t, customer.AcceptsMarketing)
	assert.True(t, customer.TotalSpent.IsZero())
	assert.Equal(t, 0, customer.OrdersCount)
	assert.Nil(t, customer.CreatedAt)
}

func TestCustomerUpsert_RejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{`},
		{name: "array", payload: `[1,2]`},
		{name: "missing id", payload: `{"email": "x@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReconcilers()
			_, err := r.customers.Upsert(context.Background(), "t1", json.RawMessage(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Empty(t, r.customerStore.rows)
		})
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func TestProductUpsert_VariantsAndDefaults(t *testing.T) {
	r := newReconcilers()
	payload := `{
		"id": 700,
		"title": "Mug",
		"status": "active",
		"published_at": "not a date",
		"variants": [
			{"id": 71, "title": "Red", "price": "12.50", "sku": "MUG-R", "inventory_quantity": 4},
			{"id": 72, "title": "Blue", "price": "12.50", "compare_at_price": "15.00", "requires_shipping": false, "taxable": false}
		]
	}`

	product, err := r.products.Upsert(context.Background(), "t1", json.RawMessage(payload))
	require.NoError(t, err)

	assert.Equal(t, "Mug", product.Title)
	assert.Nil(t, product.PublishedAt)
	require.Len(t, product.Variants, 2)

	red := product.Variants[0]
	assert.Equal(t, product.ID, red.ProductID)
	assert.True(t, red.Price.Valid)
	assert.Equal(t, "12.5", red.Price.Decimal.String())
	assert.False(t, red.CompareAtPrice.Valid)
	assert.False(t, red.Weight.Valid)
	assert.Equal(t, 4, red.InventoryQuantity)
	assert.True(t, red.RequiresShipping)
	assert.True(t, red.Taxable)

	blue := product.Variants[1]
	assert.False(t, blue.RequiresShipping)
	assert.False(t, blue.Taxable)
	assert.Equal(t, 0, blue.InventoryQuantity)

	again, err := r.products.Upsert(context.Background(), "t1", json.RawMessage(`{"id": 700, "variants": [{"id": 73}]}`))
	require.NoError(t, err)
	assert.Equal(t, product.ID, again.ID)
	stored, err := r.productStore.ListVariants(context.Background(), "t1", product.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(73), stored[0].ExternalID)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func orderPayload(id int64, customerID int64, total string) json.RawMessage {
	body := map[string]interface{}{
		"id":           id,
		"order_number": id,
		"total_price":  total,
		"customer":     map[string]interface{}{"id": customerID},
		"line_items": []map[string]interface{}{
			{"id": id * 10, "title": "Mug", "quantity": 2, "price": "5.00", "product_id": 700, "variant_id": 71},
		},
		"shipping_lines": []map[string]interface{}{{"price": "4.99"}},
	}
	raw, _ := json.Marshal(body)
	return raw
}

func TestOrderUpsert_RecomputesCustomerTotals(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	customer, err := r.customers.Upsert(ctx, "t1", json.RawMessage(`{"id": 501, "total_spent": "1000.00", "orders_count": 40}`))
	require.NoError(t, err)

	_, err = r.orders.Upsert(ctx, "t1", orderPayload(1, 501, "10.00"))
	require.NoError(t, err)
	_, err = r.orders.Upsert(ctx, "t1", orderPayload(2, 501, "15.50"))
	require.NoError(t, err)

	stored := r.customerStore.rows[customer.ID]
	assert.Equal(t, "25.5", stored.TotalSpent.String())
	assert.True(t, decimal.RequireFromString("25.50").Equal(stored.TotalSpent))
	assert.Equal(t, 2, stored.OrdersCount)

	// re-upserting an order does not double count
	_, err = r.orders.Upsert(ctx, "t1", orderPayload(2, 501, "15.50"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.customerStore.rows[customer.ID].OrdersCount)
	assert.Len(t, r.orderStore.rows, 2)
}

func TestOrderUpsert_MovesTotalsWhenCustomerChanges(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	a, err := r.customers.Upsert(ctx, "t1", json.RawMessage(`{"id": 501}`))
	require.NoError(t, err)
	b, err := r.customers.Upsert(ctx, "t1", json.RawMessage(`{"id": 502}`))
	require.NoError(t, err)

	_, err = r.orders.Upsert(ctx, "t1", orderPayload(1, 501, "10.00"))
	require.NoError(t, err)
	_, err = r.orders.Upsert(ctx, "t1", orderPayload(1, 502, "10.00"))
	require.NoError(t, err)

	assert.Equal(t, 0, r.customerStore.rows[a.ID].OrdersCount)
	assert.True(t, r.customerStore.rows[a.ID].TotalSpent.IsZero())
	assert.Equal(t, 1, r.customerStore.rows[b.ID].OrdersCount)
}

func TestOrderUpsert_ResolvesReferencesAndDefaults(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	product, err := r.products.Upsert(ctx, "t1", json.RawMessage(`{"id": 700, "variants": [{"id": 71}]}`))
	require.NoError(t, err)

	order, err := r.orders.Upsert(ctx, "t1", orderPayload(1, 999, "10.00"))
	require.NoError(t, err)

	assert.Empty(t, order.CustomerID, "customer 999 was never synced")
	assert.Equal(t, int64(999), order.CustomerExternalID)
	assert.True(t, order.Confirmed)
	assert.False(t, order.TotalDiscounts.Valid)
	require.True(t, order.TotalShipping.Valid)
	assert.Equal(t, "4.99", order.TotalShipping.Decimal.String())

	require.Len(t, order.LineItems, 1)
	li := order.LineItems[0]
	assert.Equal(t, product.ID, li.ProductID)
	assert.Equal(t, product.Variants[0].ID, li.VariantID)
	assert.Equal(t, 2, li.Quantity)
	assert.True(t, li.TotalDiscount.IsZero())
}

func TestOrderUpsert_ReplacesLineItems(t *testing.T) {
	r := newReconcilers()
	ctx := context.Background()

	first := json.RawMessage(`{"id": 1, "line_items": [
		{"id": 11, "title": "Mug", "quantity": 1, "price": "5.00"},
		{"id": 12, "title": "Plate", "quantity": 4, "price": "3.00"}
	]}`)
	order, err := r.orders.Upsert(ctx, "t1", first)
	require.NoError(t, err)

	items, err := r.orderStore.ListLineItems(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	second := json.RawMessage(`{"id": 1, "line_items": [
		{"id": 13, "title": "Bowl", "quantity": 2, "price": "7.50"}
	]}`)
	again, err := r.orders.Upsert(ctx, "t1", second)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)

	items, err = r.orderStore.ListLineItems(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(13), items[0].ExternalID)
	assert.Equal(t, "Bowl", items[0].Title)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, order.ID, items[0].OrderID)

	// an order that loses all its line items keeps none
	_, err = r.orders.Upsert(ctx, "t1", json.RawMessage(`{"id": 1, "line_items": []}`))
	require.NoError(t, err)
	items, err = r.orderStore.ListLineItems(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderUpsert_WithoutCustomer(t *testing.T) {
	r := newReconcilers()

	order, err := r.orders.Upsert(context.Background(), "t1", json.RawMessage(`{"id": 9, "confirmed": false, "total_price": null}`))
	require.NoError(t, err)

	assert.Empty(t, order.CustomerID)
	assert.False(t, order.Confirmed)
	assert.False(t, order.TotalPrice.Valid)
	assert.False(t, order.TotalShipping.Valid)
	assert.Empty(t, order.LineItems)
}

// ---------------------------------------------------------------------------
// Timestamps
// ---------------------------------------------------------------------------

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{name: "offset", value: "2024-03-01T10:00:00+02:00", want: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), ok: true},
		{name: "utc marker", value: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ok: true},
		{name: "fractional local", value: "2024-03-01T10:00:00.250", want: time.Date(2024, 3, 1, 10, 0, 0, 250000000, time.UTC), ok: true},
		{name: "local", value: "2024-03-01T10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ok: true},
		{name: "garbage", value: "yesterday", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
