package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpIn  FilterOp = "$in"
	OpGte FilterOp = "$gte"
	OpAnd FilterOp = "$and"
)

// Filter is a metadata filter expression. A leaf compares one field, a composite
// node requires all of its children to match.
type Filter struct {
	Op    FilterOp
	Field string
	Value Value
	And   []Filter
}

func Eq(field string, value Value) Filter {
	return Filter{Op: OpEq, Field: field, Value: value}
}

func In(field string, values []Value) Filter {
	return Filter{Op: OpIn, Field: field, Value: List(values...)}
}

func InStrings(field string, values []string) Filter {
	return Filter{Op: OpIn, Field: field, Value: StringList(values)}
}

func Gte(field string, n float64) Filter {
	return Filter{Op: OpGte, Field: field, Value: Number(n)}
}

func And(children ...Filter) Filter {
	return Filter{Op: OpAnd, And: children}
}

// Combine wraps several conditions in an $and node. A single condition is returned
// unwrapped and an empty list yields nil.
func Combine(conditions []Filter) *Filter {
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		f := conditions[0]
		return &f
	default:
		f := And(conditions...)
		return &f
	}
}

// Matches evaluates the expression against a metadata map. A missing field never matches.
func (f Filter) Matches(m Metadata) bool {
	switch f.Op {
	case OpAnd:
		for _, child := range f.And {
			if !child.Matches(m) {
				return false
			}
		}
		return true
	case OpEq:
		v, ok := m[f.Field]
		if !ok {
			return false
		}
		return v.Equal(f.Value) || v.String() == f.Value.String()
	case OpIn:
		v, ok := m[f.Field]
		if !ok {
			return false
		}
		allowed, _ := f.Value.AsList()
		if items, isList := v.AsList(); isList {
			for _, item := range items {
				if containsValue(allowed, item) {
					return true
				}
			}
			return false
		}
		return containsValue(allowed, v)
	case OpGte:
		v, ok := m[f.Field]
		if !ok {
			return false
		}
		have, ok := v.AsFloat()
		if !ok {
			return false
		}
		want, ok := f.Value.AsFloat()
		if !ok {
			return false
		}
		return have >= want
	default:
		return false
	}
}

func containsValue(set []Value, v Value) bool {
	s := v.String()
	for _, candidate := range set {
		if candidate.String() == s {
			return true
		}
	}
	return false
}

// MarshalJSON renders the expression as {field: value}, {field: {"$in": [...]}},
// {field: {"$gte": n}} or {"$and": [...]}.
func (f Filter) MarshalJSON() ([]byte, error) {
	switch f.Op {
	case OpAnd:
		children := f.And
		if children == nil {
			children = []Filter{}
		}
		return json.Marshal(map[string]any{string(OpAnd): children})
	case OpEq:
		return json.Marshal(map[string]any{f.Field: f.Value})
	case OpIn, OpGte:
		return json.Marshal(map[string]any{f.Field: map[string]any{string(f.Op): f.Value}})
	default:
		return nil, fmt.Errorf("unknown filter op %q", f.Op)
	}
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return errors.New("filter must have exactly one key")
	}
	for key, body := range raw {
		if key == string(OpAnd) {
			var children []Filter
			if err := json.Unmarshal(body, &children); err != nil {
				return fmt.Errorf("invalid $and: %w", err)
			}
			*f = And(children...)
			return nil
		}

		var ops map[string]Value
		if err := json.Unmarshal(body, &ops); err == nil && len(ops) == 1 {
			if v, ok := ops[string(OpIn)]; ok {
				*f = Filter{Op: OpIn, Field: key, Value: v}
				return nil
			}
			if v, ok := ops[string(OpGte)]; ok {
				*f = Filter{Op: OpGte, Field: key, Value: v}
				return nil
			}
		}

		var v Value
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("invalid value for %q: %w", key, err)
		}
		*f = Eq(key, v)
	}
	return nil
}
