// Package credits implements the pure cost arithmetic for a generation
// request. Estimates are advisory; billing itself is out of scope.
package credits

import (
	"fmt"
	"math"
	"strconv"

	"studio/internal/registry"
)

const defaultDurationSeconds = 5

// Estimate derives the credit cost of one submission from a model's pricing
// declaration and the current form values, rounded to two decimal places.
//
// Per-second models charge base credit times the duration field. Tiered
// models charge base * resolutionTier * durationTier * outputs / 10, where a
// tier multiplier is the 1-based index of the selected option within the
// matching custom parameter; a value with no matching option counts as 1.
// The /10 applies only to the tiered branch, the two modes price in
// different units.
//
// When the pricing declaration names a control input, the number of items
// supplied under it charges as one unit each: it is the outputs multiplier
// in the tiered branch when num_outputs is absent, and a straight multiplier
// in the per-second branch.
func Estimate(m registry.ModelSetting, values map[string]any) float64 {
	if m.Pricing.CreditBySecond {
		duration, ok := numberField(values, "duration")
		if !ok {
			duration = defaultDuration(m)
		}
		return round2(m.UseCredits * duration * controlUnits(m, values))
	}
	resolution := tierMultiplier(m, "resolution", fieldValue(values, "resolution"))
	duration := tierMultiplier(m, "duration", fieldValue(values, "duration"))
	outputs, ok := numberField(values, "num_outputs")
	if !ok || outputs <= 0 {
		outputs = controlUnits(m, values)
	}
	return round2(m.UseCredits * resolution * duration * outputs / 10)
}

// controlUnits counts the items supplied under the control input named by the
// model's pricing declaration. Models that name none, and requests that leave
// the input empty, charge a single unit.
func controlUnits(m registry.ModelSetting, values map[string]any) float64 {
	name := m.Pricing.CreditsByControl
	if name == "" {
		return 1
	}
	switch v := fieldValue(values, name).(type) {
	case []any:
		if len(v) > 0 {
			return float64(len(v))
		}
	case []string:
		if len(v) > 0 {
			return float64(len(v))
		}
	case string:
		if v != "" {
			return 1
		}
	}
	return 1
}

func defaultDuration(m registry.ModelSetting) float64 {
	if p, ok := m.Parameter("duration"); ok {
		if d, ok := toNumber(p.Default); ok {
			return d
		}
	}
	return defaultDurationSeconds
}

// tierMultiplier resolves the 1-based option index of value within the named
// select parameter. Any miss collapses to 1.
func tierMultiplier(m registry.ModelSetting, name string, value any) float64 {
	if value == nil {
		return 1
	}
	p, ok := m.Parameter(name)
	if !ok {
		return 1
	}
	needle := fmt.Sprint(value)
	for i, opt := range p.Options {
		if opt.Value == needle {
			return float64(i + 1)
		}
	}
	return 1
}

// fieldValue reads a form field from the top level or the meta_data bag.
func fieldValue(values map[string]any, name string) any {
	if v, ok := values[name]; ok && v != nil {
		return v
	}
	if meta, ok := values["meta_data"].(map[string]any); ok {
		if v, ok := meta[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func numberField(values map[string]any, name string) (float64, bool) {
	return toNumber(fieldValue(values, name))
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
