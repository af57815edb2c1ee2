package mapping

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Transform is one step of a rule's value pipeline. The set of
// implementations is closed; each step consumes the previous step's output.
type Transform interface {
	apply(v any) any
	validate() error
}

// Coalesce picks the first defined element of an array-valued input. Scalar
// input passes through unchanged.
type Coalesce struct{}

func (Coalesce) apply(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	for _, item := range arr {
		if item != nil {
			return item
		}
	}
	return nil
}

func (Coalesce) validate() error { return nil }

// Pick selects one element of an array-valued input. An out-of-range index or
// a non-array input yields nil, never an error.
type Pick struct {
	Index int
}

func (p Pick) apply(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	if p.Index < 0 || p.Index >= len(arr) {
		return nil
	}
	return arr[p.Index]
}

func (p Pick) validate() error {
	if p.Index < 0 {
		return errors.New("pick index must not be negative")
	}
	return nil
}

// Slice returns the sub-array [Start, End) of an array-valued input with
// bounds clamped to the array length. Non-array input yields nil.
type Slice struct {
	Start int
	End   int
}

func (s Slice) apply(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(arr) {
		end = len(arr)
	}
	if start >= end {
		return []any{}
	}
	out := make([]any, end-start)
	copy(out, arr[start:end])
	return out
}

func (s Slice) validate() error {
	if s.Start < 0 || s.End < 0 {
		return errors.New("slice bounds must not be negative")
	}
	if s.End < s.Start {
		return errors.New("slice end must not precede start")
	}
	return nil
}

// ToNumber coerces the input to a float64. Non-coercible input yields NaN,
// which propagates without failing the pipeline; nil stays nil so omission
// semantics apply downstream.
type ToNumber struct{}

func (ToNumber) apply(v any) any {
	if v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return float64(1)
		}
		return float64(0)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

func (ToNumber) validate() error { return nil }

// ToString coerces the input to its string form. Nil stays nil.
type ToString struct{}

func (ToString) apply(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (ToString) validate() error { return nil }

// EnumMap remaps a categorical value. An input with no entry in Map, nil
// included, falls back to Default.
type EnumMap struct {
	Map     map[string]any
	Default any
}

func (e EnumMap) apply(v any) any {
	if s, ok := v.(string); ok {
		if mapped, ok := e.Map[s]; ok {
			return mapped
		}
	}
	return e.Default
}

func (e EnumMap) validate() error {
	if len(e.Map) == 0 {
		return errors.New("enum map requires at least one entry")
	}
	return nil
}

// Default substitutes Value when the input is nil. Defined-but-falsy values
// such as 0, "" or false pass through unchanged.
type Default struct {
	Value any
}

func (d Default) apply(v any) any {
	if v == nil {
		return d.Value
	}
	return v
}

func (d Default) validate() error {
	if d.Value == nil {
		return errors.New("default value must not be nil")
	}
	return nil
}
