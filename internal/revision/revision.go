// Package revision implements the spaced-repetition interval math. It is
// pure computation: callers supply the clock, so the same inputs always
// produce the same schedule.
package revision

import (
	"fmt"
	"math"
	"time"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// A session's first revision is always one day after the study block
	// ends, before any difficulty feedback exists.
	initialOffset = 24 * time.Hour
)

// InvalidDifficultyError reports a difficulty rating outside [1,5].
type InvalidDifficultyError struct {
	Difficulty int
}

func (e *InvalidDifficultyError) Error() string {
	return fmt.Sprintf("difficulty must be between %d and %d, got %d", MinDifficulty, MaxDifficulty, e.Difficulty)
}

// InitialRevision returns the bootstrap revision date for a newly created
// session: a fixed one-day offset from the end of the study block.
func InitialRevision(endTime time.Time) time.Time {
	return endTime.Add(initialOffset)
}

// IntervalDays computes how many days until the next revision after a
// completed review: round(2^priorRevisions / difficulty). Each accumulated
// revision doubles the base interval; a harder recall (higher difficulty)
// shrinks it proportionally.
//
// priorRevisions is the length of the session's revision history before this
// completion is recorded, so it is at least 1 for any session that exists.
func IntervalDays(priorRevisions, difficulty int) (int, error) {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return 0, &InvalidDifficultyError{Difficulty: difficulty}
	}

	days := math.Pow(2, float64(priorRevisions)) / float64(difficulty)
	return int(math.Round(days)), nil
}

// Next returns the revision date that follows a review completed at now.
func Next(now time.Time, priorRevisions, difficulty int) (time.Time, error) {
	days, err := IntervalDays(priorRevisions, difficulty)
	if err != nil {
		return time.Time{}, err
	}
	return now.AddDate(0, 0, days), nil
}
