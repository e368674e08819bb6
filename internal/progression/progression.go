// Package progression derives level and experience from a solved-item count.
// It is the single source of truth for the leveling rule: no other package
// may compute a level on its own.
package progression

// ItemsPerLevel is the number of solved items required to advance one level.
const ItemsPerLevel = 5

// Progression is the derived pair computed from a solved-item count.
type Progression struct {
	// Level is the user's current level, starting at 1.
	Level int `json:"level"`

	// XP is the experience accumulated within the current level,
	// in [0, ItemsPerLevel).
	XP int `json:"xp"`
}

// Derive computes the progression for the given solved-item count.
// Level = count/ItemsPerLevel + 1 and XP = count mod ItemsPerLevel.
// The function is total over all inputs; negative counts clamp to zero.
func Derive(solvedCount int) Progression {
	if solvedCount < 0 {
		solvedCount = 0
	}
	return Progression{
		Level: solvedCount/ItemsPerLevel + 1,
		XP:    solvedCount % ItemsPerLevel,
	}
}
