package strategy

import (
	"math"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"
)

const (
	FIELD_MULTIPLE string = "multiple"
	FIELD_RATIO    string = "ratio"
	FIELD_PERCENT  string = "percent"
)

// TakeProfitLevel sells Percent of the position once the price reaches
// Multiple (trailing) or Ratio (simple) times the buy price.
type TakeProfitLevel struct {
	Multiple *float64 `json:"multiple,omitempty"`
	Ratio    *float64 `json:"ratio,omitempty"`
	Percent  float64  `json:"percent"`
}

// Trigger returns whichever price multiple the level carries.
func (l TakeProfitLevel) Trigger() float64 {
	if l.Multiple != nil {
		return *l.Multiple
	}

	if l.Ratio != nil {
		return *l.Ratio
	}

	return 0
}

// ParseTakeProfitList decodes a persisted list. Anything that is not a JSON
// array decodes to no levels; items without a numeric multiple/ratio and a
// numeric percent are dropped.
func ParseTakeProfitList(raw string) []TakeProfitLevel {
	levels, _ := DecodeTakeProfitList(raw)

	return levels
}

// DecodeTakeProfitList is ParseTakeProfitList that also reports how many
// items were dropped, so the caller can warn about them.
func DecodeTakeProfitList(raw string) ([]TakeProfitLevel, int) {
	var parsed any
	if err := sonic.UnmarshalString(raw, &parsed); err != nil {
		return []TakeProfitLevel{}, 0
	}

	items, ok := parsed.([]any)
	if !ok {
		return []TakeProfitLevel{}, 0
	}

	levels := lo.FilterMap(items, func(item any, _ int) (TakeProfitLevel, bool) {
		return decodeLevel(item)
	})

	return levels, len(items) - len(levels)
}

func decodeLevel(item any) (TakeProfitLevel, bool) {
	fields, ok := item.(map[string]any)
	if !ok {
		return TakeProfitLevel{}, false
	}

	multiple, hasMultiple := finite(fields[FIELD_MULTIPLE])
	ratio, hasRatio := finite(fields[FIELD_RATIO])
	percent, hasPercent := finite(fields[FIELD_PERCENT])

	if !(hasMultiple || hasRatio) || !hasPercent {
		return TakeProfitLevel{}, false
	}

	level := TakeProfitLevel{Percent: percent}
	if hasMultiple {
		level.Multiple = lo.ToPtr(multiple)
	}

	if hasRatio {
		level.Ratio = lo.ToPtr(ratio)
	}

	return level, true
}

func finite(v any) (float64, bool) {
	f, ok := v.(float64)

	return f, ok && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// EncodeTakeProfitList writes the canonical JSON array text. It fails when a
// level carries a value JSON cannot represent.
func EncodeTakeProfitList(levels []TakeProfitLevel) (string, error) {
	if levels == nil {
		levels = []TakeProfitLevel{}
	}

	return sonic.MarshalString(levels)
}

// SerializeTakeProfitList is EncodeTakeProfitList for lists that came out of
// ParseTakeProfitList or ValidateTakeProfitLevelEdit, which only hold finite
// values.
func SerializeTakeProfitList(levels []TakeProfitLevel) string {
	out, err := EncodeTakeProfitList(levels)
	if err != nil {
		return "[]"
	}

	return out
}

// ValidateTakeProfitLevelEdit applies one field edit to a level. On failure
// the original level is returned untouched along with the error.
func ValidateTakeProfitLevelEdit(level TakeProfitLevel, field, raw string) (TakeProfitLevel, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if field != FIELD_MULTIPLE && field != FIELD_RATIO && field != FIELD_PERCENT {
		return level, &ValidationError{Field: field, Rule: InvalidField, Reason: "unknown take-profit field"}
	}

	n, err := ParseNumber(raw)
	if err != nil {
		return level, &ValidationError{Field: field, Rule: InvalidNumber, Reason: "must be a finite number"}
	}

	value, _ := n.Float64()

	switch field {
	case FIELD_MULTIPLE, FIELD_RATIO:
		if n.LessThan(one) {
			return level, &ValidationError{Field: field, Rule: OutOfRange, Reason: "price multiple must be at least 1"}
		}

		if field == FIELD_MULTIPLE {
			level.Multiple = lo.ToPtr(value)
		} else {
			level.Ratio = lo.ToPtr(value)
		}
	case FIELD_PERCENT:
		if n.LessThan(zero) || n.GreaterThan(hundred) {
			return level, &ValidationError{Field: field, Rule: OutOfRange, Reason: "percent must be between 0 and 100"}
		}

		level.Percent = value
	}

	return level, nil
}

// TriggerField is the field name a list under key uses for its multiple.
func TriggerField(key string) string {
	if KeyNamespace(key) == NamespaceSimple {
		return FIELD_RATIO
	}

	return FIELD_MULTIPLE
}
