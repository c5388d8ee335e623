package domain

type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureCool Temperature = "cool"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

// Progress thresholds. The temperature bands and the unlock threshold are
// mirrored by the client's rendering logic and must not drift.
const (
	MaxProgress     = 100
	UnlockThreshold = 50

	coolAt = 30
	warmAt = 50
	hotAt  = 70

	// Bonus applied to a mission's points when the mission matched one of the
	// pair's shared interests, in percent.
	sharedInterestBonusPct = 20
)

// TemperatureFor derives the discrete temperature band from a progress value.
func TemperatureFor(progress int) Temperature {
	switch {
	case progress >= hotAt:
		return TemperatureHot
	case progress >= warmAt:
		return TemperatureWarm
	case progress >= coolAt:
		return TemperatureCool
	default:
		return TemperatureCold
	}
}

// NormalizePoints maps a mission's raw point value onto the 0-100 progress
// scale. Points are treated as a direct percentage contribution; missions that
// matched a shared interest earn a bonus.
func NormalizePoints(points int, sharedInterest bool) int {
	if points < 0 {
		return 0
	}
	if sharedInterest {
		points += points * sharedInterestBonusPct / 100
	}
	return points
}

// ProgressUpdate is the result of applying a point delta to a connection.
type ProgressUpdate struct {
	Progress     int
	Temperature  Temperature
	JustUnlocked bool
}

// ApplyPoints computes the next progress state. Progress never decreases and
// is clamped to MaxProgress. JustUnlocked is set only on the transition across
// UnlockThreshold for a connection that has not unlocked chat yet.
func ApplyPoints(current int, alreadyUnlocked bool, delta int) ProgressUpdate {
	if delta < 0 {
		delta = 0
	}
	next := current + delta
	if next > MaxProgress {
		next = MaxProgress
	}
	if next < current {
		next = current
	}
	return ProgressUpdate{
		Progress:     next,
		Temperature:  TemperatureFor(next),
		JustUnlocked: !alreadyUnlocked && next >= UnlockThreshold,
	}
}
