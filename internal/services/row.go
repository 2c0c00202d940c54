package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// row wraps one loosely typed ingestion record. Keys are matched case
// insensitively; values of the wrong shape are coerced where the meaning is
// unambiguous and reported as field errors otherwise.
type row struct {
	values map[string]any
	verr   *models.ValidationError
}

func newRow(entity string, raw map[string]any) *row {
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		values[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &row{values: values, verr: models.NewValidationError(entity)}
}

func (r *row) lookup(key string) (any, bool) {
	v, ok := r.values[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *row) str(key string) string {
	if s := r.strPtr(key); s != nil {
		return *s
	}
	return ""
}

func (r *row) strPtr(key string) *string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	s, err := coerceString(v)
	if err != nil {
		r.verr.Add(key, err.Error())
		return nil
	}
	return &s
}

// date returns the value as YYYY-MM-DD; timestamps are cut to their UTC day
func (r *row) date(key string) *string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	if t, isTime := v.(time.Time); isTime {
		s := models.DateOf(t).Format(models.DateLayout)
		return &s
	}
	s := r.strPtr(key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return s
	}
	t, err := models.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		r.verr.Add(key, "must be a valid date (YYYY-MM-DD)")
		return nil
	}
	out := t.Format(models.DateLayout)
	return &out
}

func (r *row) intPtr(key string) *int {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	n, err := coerceInt(v)
	if err != nil {
		r.verr.Add(key, err.Error())
		return nil
	}
	return &n
}

func (r *row) integer(key string) int {
	if n := r.intPtr(key); n != nil {
		return *n
	}
	return 0
}

func (r *row) boolPtr(key string) *bool {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	b, err := coerceBool(v)
	if err != nil {
		r.verr.Add(key, err.Error())
		return nil
	}
	return &b
}

func (r *row) money(key string) *decimal.Decimal {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	d, err := coerceDecimal(v)
	if err != nil {
		r.verr.Add(key, err.Error())
		return nil
	}
	return &d
}

// list accepts a sequence or a comma separated string
func (r *row) list(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, item := range t {
			s, err := coerceString(item)
			if err != nil {
				r.verr.Add(key, err.Error())
				return nil
			}
			out = append(out, s)
		}
	default:
		s, err := coerceString(v)
		if err != nil {
			r.verr.Add(key, err.Error())
			return nil
		}
		out = strings.Split(s, ",")
	}

	goals := make([]string, 0, len(out))
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			goals = append(goals, s)
		}
	}
	return goals
}

// address reads a nested address object, falling back to flat keys
func (r *row) address() models.Address {
	src := r
	if v, ok := r.lookup("address"); ok {
		nested, isMap := v.(map[string]any)
		if !isMap {
			r.verr.Add("address", "must be an object")
			return models.Address{}
		}
		src = newRow("address", nested)
		defer r.verr.Merge(src.verr)
	}
	return models.Address{
		Street:     src.str("street"),
		City:       src.str("city"),
		PostalCode: src.str("postal_code"),
		Country:    src.str("country"),
	}
}

// finish merges coercion errors into err, which is the result of building
// the typed entity
func (r *row) finish(err error) error {
	if !r.verr.HasErrors() {
		return err
	}
	if err == nil {
		return r.verr
	}
	var built *models.ValidationError
	if errors.As(err, &built) {
		seen := make(map[string]bool, len(r.verr.Fields))
		for _, f := range r.verr.Fields {
			seen[f.Field] = true
		}
		for _, f := range built.Fields {
			if !seen[f.Field] {
				r.verr.Fields = append(r.verr.Fields, f)
			}
		}
		return r.verr
	}
	return err
}

func coerceString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("must be a scalar value, got %T", v)
}

func coerceInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		return n, nil
	}
	return 0, fmt.Errorf("must be a whole number, got %T", v)
}

func coerceBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("must be true or false")
		}
		return b, nil
	}
	return false, fmt.Errorf("must be true or false, got %T", v)
}

func coerceDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("must be a decimal amount")
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("must be a decimal amount, got %T", v)
}
