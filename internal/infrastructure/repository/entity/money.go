package entity

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecimalToBSON stores an amount as Decimal128 so that sums stay exact in the database
func DecimalToBSON(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

// NullDecimalToBSON returns nil for an absent amount
func NullDecimalToBSON(d decimal.NullDecimal) *primitive.Decimal128 {
	if !d.Valid {
		return nil
	}
	v := DecimalToBSON(d.Decimal)
	return &v
}

// DecimalFromBSON converts back; unparsable values read as zero
func DecimalFromBSON(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NullDecimalFromBSON converts back, keeping nil as an invalid NullDecimal
func NullDecimalFromBSON(v *primitive.Decimal128) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(DecimalFromBSON(*v))
}

func objectIDFromHex(id string) primitive.ObjectID {
	if id == "" {
		return primitive.NilObjectID
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return objID
}

func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}
