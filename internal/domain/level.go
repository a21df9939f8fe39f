package domain

// DefaultExperiencePerLevel is the experience span of a single level
const DefaultExperiencePerLevel = 1000

// LevelForExperience returns floor(experience / perLevel) + 1. Negative
// experience is treated as zero.
func LevelForExperience(experience, perLevel int64) int64 {
	if perLevel <= 0 {
		perLevel = DefaultExperiencePerLevel
	}
	if experience <= 0 {
		return 1
	}
	return experience/perLevel + 1
}
