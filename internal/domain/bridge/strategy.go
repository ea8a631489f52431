package bridge

import (
	"fmt"
	"strings"
	"unicode"
)

// NameStrategy is one way of spelling a logical operation name. The
// resolver tries strategies in order; the first spelling that resolves
// to a binding wins. Keeping the order as data lets a bindings file
// rearrange it when a backend ships different casing conventions.
type NameStrategy struct {
	Name      string
	Transform func(string) string
}

const (
	StrategyLiteral = "literal"
	StrategyCamel   = "camel"
	StrategySnake   = "snake"
)

// DefaultStrategies returns the standard resolution order: the literal
// name, then a camelCase variant, then a snake_case variant.
func DefaultStrategies() []NameStrategy {
	return []NameStrategy{
		{Name: StrategyLiteral, Transform: func(s string) string { return s }},
		{Name: StrategyCamel, Transform: ToCamel},
		{Name: StrategySnake, Transform: ToSnake},
	}
}

// StrategiesByName builds an ordered strategy list from names out of a
// bindings file. Unknown names are rejected so a typo fails loudly at
// startup instead of silently shrinking the resolution order.
func StrategiesByName(names []string) ([]NameStrategy, error) {
	known := make(map[string]NameStrategy, 3)
	for _, s := range DefaultStrategies() {
		known[s.Name] = s
	}

	out := make([]NameStrategy, 0, len(names))
	for _, name := range names {
		s, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown name strategy: %q", name)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return DefaultStrategies(), nil
	}
	return out, nil
}

// ToCamel converts snake_case to camelCase. Names without underscores
// pass through unchanged.
func ToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}

	parts := strings.Split(s, "_")
	var b strings.Builder
	b.Grow(len(s))
	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if first {
			b.WriteString(part)
			first = false
			continue
		}
		r := []rune(part)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// ToSnake converts camelCase to snake_case. Names already in snake_case
// pass through unchanged.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
