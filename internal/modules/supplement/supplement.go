package supplement

import (
	"time"
)

// Default supplements seeded on a user's first list.
var defaultNames = []string{"Vitamin D", "Omega 3"}

// Supplement is an item a user tracks daily intake for.
type Supplement struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Log records that a supplement was taken on a calendar date. At most one
// row exists per (supplement, date); marking the same day twice is a no-op.
type Log struct {
	ID           string    `db:"id"`
	SupplementID string    `db:"supplement_id"`
	TakenDate    time.Time `db:"taken_date"`
	CreatedAt    time.Time `db:"created_at"`
}
