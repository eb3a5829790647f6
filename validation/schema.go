package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Kind is the declared wire type of a field.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindNumber
	KindInteger
	KindSequence
)

// Rule is a range/shape constraint evaluated after the field passed its type
// check. Tag uses go-playground/validator syntax, for example "min=1,max=500".
type Rule struct {
	Tag     string
	Message string
}

// Field declares one member of a schema.
type Field struct {
	Key  string
	Kind Kind

	// Required is emitted when the field is absent, nil, or (with NonEmpty)
	// a zero-length string or sequence. Type is emitted when the field is
	// present with the wrong kind. Both may carry the same text.
	Required string
	Type     string
	NonEmpty bool

	Rules []Rule

	// Elem validates every element of a KindSequence field. UniqueKey names
	// an element member that must not repeat; Duplicate is the single
	// message appended when it does.
	Elem      *Schema
	UniqueKey string
	Duplicate string
}

// Schema is an ordered set of field declarations for one entity. Required is
// emitted, alone, when the input is not an object at all.
type Schema struct {
	Name     string
	Required string
	Fields   []Field
}

type checkedField struct {
	field *Field
	value any
}

// evaluate runs the four validation phases over a normalized object.
func evaluate(v *validator.Validate, s *Schema, input any) []string {
	obj, ok := asObject(input)
	if !ok {
		return []string{s.Required}
	}

	errs := make([]string, 0, 4)
	passed := make([]checkedField, 0, len(s.Fields))

	for i := range s.Fields {
		f := &s.Fields[i]
		raw, present := obj[f.Key]
		if !present || raw == nil {
			errs = append(errs, f.Required)
			continue
		}
		value, msg, ok := coerce(f, raw)
		if !ok {
			errs = append(errs, msg)
			continue
		}
		passed = append(passed, checkedField{field: f, value: value})
	}

	for _, c := range passed {
		for _, r := range c.field.Rules {
			if err := v.Var(c.value, r.Tag); err != nil {
				errs = append(errs, r.Message)
			}
		}
	}

	for _, c := range passed {
		if c.field.Elem == nil {
			continue
		}
		for _, item := range c.value.([]any) {
			errs = append(errs, evaluate(v, c.field.Elem, item)...)
		}
	}

	for _, c := range passed {
		if c.field.UniqueKey == "" {
			continue
		}
		if hasDuplicates(c.value.([]any), c.field.UniqueKey) {
			errs = append(errs, c.field.Duplicate)
		}
	}

	return errs
}

// coerce checks the field kind and returns the value in the form handed to
// the validator: string, bool, float64, or []any. Integers stay float64 so
// values past the int64 range keep their sign.
func coerce(f *Field, raw any) (any, string, bool) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Type, false
		}
		if f.NonEmpty && s == "" {
			return nil, f.Required, false
		}
		return s, "", true
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, f.Type, false
		}
		return b, "", true
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok || math.IsNaN(n) {
			return nil, f.Type, false
		}
		return n, "", true
	case KindInteger:
		n, ok := toFloat(raw)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) || math.Trunc(n) != n {
			return nil, f.Type, false
		}
		return n, "", true
	case KindSequence:
		items, ok := asSequence(raw)
		if !ok {
			return nil, f.Type, false
		}
		if f.NonEmpty && len(items) == 0 {
			return nil, f.Required, false
		}
		return items, "", true
	}
	return nil, f.Type, false
}

func hasDuplicates(items []any, key string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		raw, present := obj[key]
		if !present || raw == nil {
			continue
		}
		k := identityKey(raw)
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

func identityKey(v any) string {
	if n, ok := toFloat(v); ok {
		return "n:" + strconv.FormatFloat(n, 'g', -1, 64)
	}
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	return fmt.Sprintf("%T:%v", v, v)
}
