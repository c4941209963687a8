package profile

import (
	"time"
)

// Profile holds the health-profile details a user maintains about themselves.
// The row is keyed by the identity provider's user ID; email lives with the
// verified session user and is never stored here.
type Profile struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Age         *int      `db:"age"`
	PhoneNumber string    `db:"phone_number"`
	Address     string    `db:"address"`
	Country     string    `db:"country"`
	State       string    `db:"state"`
	City        string    `db:"city"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
