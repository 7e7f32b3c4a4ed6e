package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// localTimestampLayouts are tried after RFC 3339 once a trailing Z has been stripped
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// record is a lenient reader over one upstream JSON object
type record struct {
	gjson.Result
}

func parseRecord(raw json.RawMessage) (record, error) {
	if !gjson.ValidBytes(raw) {
		return record{}, domain.NewValidationError(fmt.Errorf("record is not valid JSON"))
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return record{}, domain.NewValidationError(fmt.Errorf("record is not a JSON object"))
	}
	return record{r}, nil
}

func (r record) present(path string) (gjson.Result, bool) {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return v, false
	}
	return v, true
}

// externalID returns the upstream "id", failing when it is missing or zero
func (r record) externalID() (int64, error) {
	id := r.number("id")
	if id == 0 {
		return 0, domain.NewValidationError(fmt.Errorf("record has no id"))
	}
	return id, nil
}

func (r record) text(path string) string {
	v, ok := r.present(path)
	if !ok {
		return ""
	}
	return v.String()
}

func (r record) number(path string) int64 {
	v, ok := r.present(path)
	if !ok {
		return 0
	}
	return v.Int()
}

func (r record) count(path string) int {
	return int(r.number(path))
}

func (r record) boolOr(path string, fallback bool) bool {
	v, ok := r.present(path)
	if !ok {
		return fallback
	}
	return v.Bool()
}

// money reads a decimal amount; missing, null or unparsable values are null
func (r record) money(path string) decimal.NullDecimal {
	v, ok := r.present(path)
	if !ok {
		return decimal.NullDecimal{}
	}
	raw := v.String()
	if v.Type == gjson.Number {
		raw = v.Raw
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (r record) moneyOrZero(path string) decimal.Decimal {
	m := r.money(path)
	if !m.Valid {
		return decimal.Zero
	}
	return m.Decimal
}

func (r record) items(path string) []record {
	var out []record
	for _, v := range r.Get(path).Array() {
		if v.IsObject() {
			out = append(out, record{v})
		}
	}
	return out
}

// timestamp parses an upstream timestamp. Unparsable values are logged and stored as nil.
func (r record) timestamp(path string, logger zerolog.Logger) *time.Time {
	value := r.text(path)
	if value == "" {
		return nil
	}
	t, ok := parseTimestamp(value)
	if !ok {
		logger.Warn().Str("field", path).Str("value", value).Msg("Unparsable timestamp, storing null")
		return nil
	}
	return &t
}

func parseTimestamp(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), true
	}
	local := strings.TrimSuffix(strings.TrimSuffix(value, "Z"), "z")
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, local, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
