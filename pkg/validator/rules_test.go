package validator_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "Acme Ltd"),
			validator.Email("email", "billing@acme.test"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "  "),
			validator.Email("email", "not-an-email"),
		)
		require.Error(t, err)
		require.True(t, validator.IsValidationError(err))

		ve := err.(validator.ValidationErrors)
		assert.ElementsMatch(t, []string{"name", "email"}, ve.Fields())
		assert.True(t, ve.Has("name"))
		assert.Equal(t, []string{"is required"}, ve.Get("name"))
	})
}

func TestRules(t *testing.T) {
	t.Parallel()

	t.Run("required rejects whitespace", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, validator.Apply(validator.Required("name", " \t")))
		assert.NoError(t, validator.Apply(validator.Required("name", "x")))
	})

	t.Run("email allows empty optional value", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.Email("email", "")))
		assert.Error(t, validator.Apply(validator.Email("email", "nope@")))
	})

	t.Run("one of", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.OneOf("kind", "income", "income", "expense")))
		assert.Error(t, validator.Apply(validator.OneOf("kind", "transfer", "income", "expense")))
	})

	t.Run("positive amount", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.PositiveAmount("amount", decimal.NewFromFloat(0.01))))
		assert.Error(t, validator.Apply(validator.PositiveAmount("amount", decimal.Zero)))
		assert.Error(t, validator.Apply(validator.PositiveAmount("amount", decimal.NewFromInt(-5))))
	})

	t.Run("max decimal places", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.MaxDecimalPlaces("amount", decimal.RequireFromString("10.25"), 2)))
		assert.Error(t, validator.Apply(validator.MaxDecimalPlaces("amount", decimal.RequireFromString("10.255"), 2)))
	})

	t.Run("max length counts runes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.MaxLength("name", "héllo", 5)))
		assert.Error(t, validator.Apply(validator.MaxLength("name", "hello!", 5)))
	})
}
