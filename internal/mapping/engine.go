package mapping

import (
	"fmt"
	"strings"
)

// Apply projects the source object through the rule set into a new
// destination object. The source is never mutated. Rules run in array order;
// a later rule writing the same destination path overwrites an earlier one,
// which lets a generic default rule be shadowed by a more specific rule
// further down the list.
//
// A resolved value of nil causes the destination key to be omitted entirely
// rather than written as null; provider APIs commonly reject unexpected null
// fields. The only request-time errors are structural: a malformed rule that
// slipped past catalog validation, or a scalar write colliding with a nested
// write at the same path.
func Apply(rules []Rule, source map[string]any) (map[string]any, error) {
	dest := make(map[string]any)
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("mapping: rule %d: %w", i, err)
		}
		value := resolve(rule, source)
		for _, t := range rule.Transforms {
			value = t.apply(value)
		}
		if value == nil {
			continue
		}
		if err := deepSet(dest, rule.To, value); err != nil {
			return nil, fmt.Errorf("mapping: rule %d: %w", i, err)
		}
	}
	return dest, nil
}

func resolve(rule Rule, source map[string]any) any {
	if rule.Const != nil {
		return rule.Const
	}
	for _, path := range rule.From {
		if v, ok := lookup(source, path); ok {
			return v
		}
	}
	return nil
}

// lookup walks a bracket-free dot path through nested maps. A value is
// defined when every segment resolves and the final value is non-nil; array
// elements are only reachable through Pick and Slice, never by path index.
func lookup(source map[string]any, path string) (any, bool) {
	current := any(source)
	for _, seg := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

func deepSet(dest map[string]any, path string, value any) error {
	segs := strings.Split(path, ".")
	current := dest
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current[seg]
		if !ok {
			child := make(map[string]any)
			current[seg] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path %q: segment %q already holds a scalar", path, seg)
		}
		current = child
	}
	last := segs[len(segs)-1]
	if existing, ok := current[last]; ok {
		_, existingIsMap := existing.(map[string]any)
		_, valueIsMap := value.(map[string]any)
		if existingIsMap != valueIsMap {
			return fmt.Errorf("path %q: scalar and nested writes collide", path)
		}
	}
	current[last] = value
	return nil
}
