package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/validator"
)

// Client is a party the owner does business with. Transactions may
// reference a client but do not have to.
type Client struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClientInput carries the user-supplied fields for create and update
// operations.
type ClientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// Validate rejects malformed input before any store call.
func (in ClientInput) Validate() error {
	return validator.Apply(
		validator.Required("name", in.Name),
		validator.MaxLength("name", in.Name, 200),
		validator.Email("email", in.Email),
		validator.MaxLength("phone", in.Phone, 50),
		validator.MaxLength("notes", in.Notes, 1000),
	)
}
