package domain

// JournalEntry records what was solved on one calendar date plus freeform
// notes. The date key is immutable once created; Problems is replaced
// wholesale on each auto-log, never merged with prior content.
type JournalEntry struct {
	Date     DateKey  `json:"date"`
	Problems []string `json:"problems"`
	Notes    string   `json:"notes"`
}

// Mood is one value of the closed mood set.
type Mood string

// The closed set of moods a day may be logged with.
const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// Valid reports whether m belongs to the closed mood set.
func (m Mood) Valid() bool {
	switch m {
	case MoodPositive, MoodNeutral, MoodNegative:
		return true
	}
	return false
}

// MoodEntry records the mood and an optional note for one calendar date.
// Mood logging and solved logging are independent concerns sharing a date key.
type MoodEntry struct {
	Date DateKey `json:"date"`
	Mood Mood    `json:"mood"`
	Note string  `json:"note"`
}

// MoodCount is the per-mood aggregate inside MoodStatistics.
type MoodCount struct {
	Count int `json:"count"`
	// Percentage is round(count/total*100).
	Percentage int `json:"percentage"`
}

// MoodStatistics is the derived aggregate over all recorded mood entries.
// It is recomputed on demand, never cached.
type MoodStatistics struct {
	Total  int                `json:"total"`
	ByMood map[Mood]MoodCount `json:"by_mood"`
}
