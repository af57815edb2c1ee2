package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule indicates a rule that declares neither a constant nor a
// source path. These are configuration mistakes and are expected to be caught
// by catalog validation before any request is mapped.
var ErrInvalidRule = errors.New("mapping: rule requires exactly one of Const or From")

// Rule produces one destination field of a provider payload.
//
// A rule either carries a fixed value (Const) or resolves one from the source
// object (From). From may list several candidate paths; the first one that
// resolves to a defined value wins. The optional transform pipeline is applied
// to the resolved value in order before the write.
type Rule struct {
	To         string
	Const      any
	From       []string
	Transforms []Transform
}

// From builds a rule reading a single source path.
func From(to, from string, transforms ...Transform) Rule {
	return Rule{To: to, From: []string{from}, Transforms: transforms}
}

// FromAny builds a rule coalescing over several candidate source paths.
func FromAny(to string, from []string, transforms ...Transform) Rule {
	return Rule{To: to, From: from, Transforms: transforms}
}

// Const builds a rule writing a fixed value.
func Const(to string, value any) Rule {
	return Rule{To: to, Const: value}
}

// Validate reports structural problems with the rule. It never inspects a
// source object; resolution failures at request time are not errors.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.To) == "" {
		return errors.New("mapping: rule destination path is empty")
	}
	for _, seg := range strings.Split(r.To, ".") {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("mapping: destination path %q has an empty segment", r.To)
		}
	}
	hasConst := r.Const != nil
	hasFrom := len(r.From) > 0
	if hasConst == hasFrom {
		return fmt.Errorf("%w (to=%q)", ErrInvalidRule, r.To)
	}
	for _, p := range r.From {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("mapping: rule %q has an empty source path", r.To)
		}
	}
	for i, t := range r.Transforms {
		if t == nil {
			return fmt.Errorf("mapping: rule %q transform %d is nil", r.To, i)
		}
		if err := t.validate(); err != nil {
			return fmt.Errorf("mapping: rule %q transform %d: %w", r.To, i, err)
		}
	}
	return nil
}

// ValidateRules runs Validate over a whole rule set.
func ValidateRules(rules []Rule) error {
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
