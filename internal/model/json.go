package model

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"marketplace/pkg/json"
)

// Limits maps a billing component name to its quantity.
type Limits map[string]int64

func (l Limits) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *Limits) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func (l Limits) Clone() Limits {
	if l == nil {
		return nil
	}
	out := make(Limits, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l Limits) Equal(other Limits) bool {
	if len(l) != len(other) {
		return false
	}
	for k, v := range l {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Attributes are free-form provisioning parameters.
type Attributes map[string]interface{}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(src interface{}) error {
	return scanJSON(src, a)
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a copy of a overlaid with extra.
func (a Attributes) Merge(extra map[string]interface{}) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(extra))
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	return reflect.DeepEqual(map[string]interface{}(a), map[string]interface{}(other))
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
