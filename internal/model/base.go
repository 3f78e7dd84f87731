package model

import "time"

const (
	// ShelfLifeDays is how long a collected unit stays usable.
	ShelfLifeDays = 42
	// CooldownDays is the wait between two donations by the same donor.
	CooldownDays = 42
)

// DateOf truncates t to a calendar day in UTC. All DATE columns are compared
// against values produced here.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time
