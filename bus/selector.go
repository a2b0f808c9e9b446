package bus

import (
	"fmt"
	"regexp"
)

// Selector decides whether a registration is interested in a routing key.
// Matches must be a pure lookup with no side effects; the bus calls it on every notify.
type Selector[K comparable] interface {
	Matches(key K) bool
}

// MatchFunc adapts a predicate function to the [Selector] interface.
type MatchFunc[K comparable] func(key K) bool

func (f MatchFunc[K]) Matches(key K) bool {
	return f(key)
}

// Key returns a [Selector] matching exactly one routing key.
func Key[K comparable](key K) Selector[K] {
	return keySelector[K]{key: key}
}

type keySelector[K comparable] struct {
	key K
}

func (s keySelector[K]) Matches(key K) bool {
	return key == s.key
}

// Any returns a [Selector] that matches every routing key.
func Any[K comparable]() Selector[K] {
	return MatchFunc[K](func(K) bool {
		return true
	})
}

// Pattern compiles expr as a regular expression matching string routing keys.
func Pattern(expr string) (Selector[string], error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid selector pattern '%s': %w", expr, err)
	}
	return MatchFunc[string](re.MatchString), nil
}
