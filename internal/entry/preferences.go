package entry

// CEFR proficiency levels.
const (
	LevelA1 = "A1"
	LevelA2 = "A2"
	LevelB1 = "B1"
	LevelB2 = "B2"
	LevelC1 = "C1"
	LevelC2 = "C2"
)

// DefaultLevel is assumed for users who never configured a level.
const DefaultLevel = LevelB1

// UserPreferences holds a user's study profile. The enrichment worker only
// reads these; command handlers elsewhere write them.
type UserPreferences struct {
	UserID  string `json:"user_id"`
	Level   string `json:"level"`
	Context string `json:"context,omitempty"`
}

// DefaultPreferences returns the documented defaults for a user without a
// stored profile.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{UserID: userID, Level: DefaultLevel}
}

// ValidLevel reports whether s is one of the CEFR levels.
func ValidLevel(s string) bool {
	switch s {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}
