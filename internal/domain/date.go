package domain

import "time"

// dateKeyLayout is the calendar-date layout used to key journal and mood
// entries: YYYY-MM-DD.
const dateKeyLayout = "2006-01-02"

// DateKey identifies one calendar date in the journal ledgers.
// Keys compare lexicographically in chronological order.
type DateKey string

// NewDateKey returns the DateKey for the given instant in UTC.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.UTC().Format(dateKeyLayout))
}

// ParseDateKey validates and returns a DateKey from its string form.
// Returns ErrInvalidDateKey if the value is not a YYYY-MM-DD calendar date.
func ParseDateKey(s string) (DateKey, error) {
	if _, err := time.Parse(dateKeyLayout, s); err != nil {
		return "", ErrInvalidDateKey
	}
	return DateKey(s), nil
}

// Validate checks that the key is a well-formed YYYY-MM-DD calendar date.
func (d DateKey) Validate() error {
	if _, err := time.Parse(dateKeyLayout, string(d)); err != nil {
		return ErrInvalidDateKey
	}
	return nil
}

// Before reports whether d is strictly earlier than other.
func (d DateKey) Before(other DateKey) bool {
	return string(d) < string(other)
}

// String returns the YYYY-MM-DD form of the key.
func (d DateKey) String() string {
	return string(d)
}
