package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Practical email check; full RFC 5322 conformance is not worth the regex.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Required fails on empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:   field,
			Message: "is required",
		},
	}
}

// MaxLength limits string length in runes.
func MaxLength(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= max
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", max),
		},
	}
}

// Email validates address format. Empty values pass; combine with Required
// when the field is mandatory.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return value == "" || emailRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		},
	}
}

// OneOf restricts the value to an allowed set.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of %v", allowed),
		},
	}
}

// PositiveAmount fails unless the decimal amount is strictly greater than
// zero.
func PositiveAmount(field string, value decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return value.IsPositive()
		},
		Error: ValidationError{
			Field:   field,
			Message: "amount must be positive",
		},
	}
}

// MaxDecimalPlaces guards monetary precision at the validation boundary.
func MaxDecimalPlaces(field string, value decimal.Decimal, places int32) Rule {
	return Rule{
		Check: func() bool {
			return value.Exponent() >= -places
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must have at most %d decimal places", places),
		},
	}
}
