package entity

import (
	"testing"

	"archie-core-shopify-sync/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalRoundTrip(t *testing.T) {
	tests := []string{"0", "10", "15.5", "25.50", "-3.25", "12345678901234.99"}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			d := decimal.RequireFromString(in)
			assert.True(t, d.Equal(DecimalFromBSON(DecimalToBSON(d))))
		})
	}
}

func TestNullDecimal_AbsentStaysAbsent(t *testing.T) {
	assert.Nil(t, NullDecimalToBSON(decimal.NullDecimal{}))
	assert.False(t, NullDecimalFromBSON(nil).Valid)

	v := NullDecimalToBSON(decimal.NewNullDecimal(decimal.RequireFromString("9.99")))
	require.NotNil(t, v)
	back := NullDecimalFromBSON(v)
	assert.True(t, back.Valid)
	assert.Equal(t, "9.99", back.Decimal.String())
}

func TestOrderDoc_KeepsNullTotals(t *testing.T) {
	o := &domain.Order{
		ID:         "65a1b2c3d4e5f60718293a4b",
		TenantID:   "t1",
		ExternalID: 42,
		TotalPrice: decimal.NewNullDecimal(decimal.RequireFromString("10.00")),
	}

	doc := MongoOrderDocFromDomain(o)
	assert.Equal(t, o.ID, doc.ID.Hex())
	assert.Nil(t, doc.TotalTax)

	back := doc.ToDomain()
	assert.Equal(t, o.ID, back.ID)
	assert.True(t, back.TotalPrice.Valid)
	assert.True(t, back.TotalPrice.Decimal.Equal(decimal.RequireFromString("10")))
	assert.False(t, back.TotalTax.Valid)
}

func TestObjectIDFromHex_InvalidIsNil(t *testing.T) {
	assert.True(t, objectIDFromHex("").IsZero())
	assert.True(t, objectIDFromHex("not-hex").IsZero())
	assert.Equal(t, "", hexOrEmpty(objectIDFromHex("")))
}
