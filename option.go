package avroskema

import "fmt"

// Option is a two-variant sum type: Some(value) or None. It is the host
// representation read by the ExplicitSumType policy.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns a present Option.
func Some[T any](v T) Option[T] { return Option[T]{value: v, present: true} }

// None returns an absent Option.
func None[T any]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.present }

// IsSome reports whether the option holds a value.
func (o Option[T]) IsSome() bool { return o.present }

// OrElse returns the value, or def when absent.
func (o Option[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}

func (o Option[T]) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// SumType is implemented by Option. Mappers use it to read the variant
// without knowing T.
type SumType interface {
	Variant() (any, bool)
}

// Variant implements SumType.
func (o Option[T]) Variant() (any, bool) {
	if !o.present {
		return nil, false
	}
	return o.value, true
}
