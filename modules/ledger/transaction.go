package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/pkg/validator"
)

// Kind distinguishes money coming in from money going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether the kind is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single ledger entry. EffectiveDate is when the money
// moved (user-entered, may be backdated); CreatedAt is when the record
// entered the system and is what the creation quota counts against.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"-"`
	ClientID      *uuid.UUID      `json:"clientId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          Kind            `json:"kind"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	EffectiveDate time.Time       `json:"effectiveDate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TransactionInput carries the user-supplied fields for create and
// update operations.
type TransactionInput struct {
	ClientID      *uuid.UUID      `json:"clientId"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          Kind            `json:"kind"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	EffectiveDate time.Time       `json:"effectiveDate"`
}

// Validate rejects malformed input before any store call.
func (in TransactionInput) Validate() error {
	return validator.Apply(
		validator.PositiveAmount("amount", in.Amount),
		validator.MaxDecimalPlaces("amount", in.Amount, 2),
		validator.OneOf("kind", in.Kind, KindIncome, KindExpense),
		validator.MaxLength("category", in.Category, 100),
		validator.MaxLength("description", in.Description, 1000),
		validator.Rule{
			Check: func() bool { return !in.EffectiveDate.IsZero() },
			Error: validator.ValidationError{Field: "effectiveDate", Message: "is required"},
		},
	)
}

// TransactionFilter narrows a transaction listing. Nil fields match
// everything; Limit <= 0 means no limit.
type TransactionFilter struct {
	Kind     *Kind
	ClientID *uuid.UUID
	From     *time.Time // inclusive, on EffectiveDate
	To       *time.Time // inclusive, on EffectiveDate
	Limit    int
}

// Summary aggregates the ledger over a period for the dashboard.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int64           `json:"count"`
}
