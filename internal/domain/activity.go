package domain

import "time"

// ActivityLevel is the derived engagement level of a member. Levels degrade
// monotonically with elapsed time since the last activity; any activity
// event resets the member to ACTIVE.
type ActivityLevel = string

const (
	ActivityLevelActive   ActivityLevel = "ACTIVE"
	ActivityLevelWarning  ActivityLevel = "WARNING"
	ActivityLevelInactive ActivityLevel = "INACTIVE"
	ActivityLevelExcluded ActivityLevel = "EXCLUDED"
)

// ActivityThresholds are the three ascending cut-offs for classification.
type ActivityThresholds struct {
	Warning   time.Duration
	Inactive  time.Duration
	Exclusion time.Duration
}

// DefaultActivityThresholds returns the 15/30/60 minute defaults.
func DefaultActivityThresholds() ActivityThresholds {
	return ActivityThresholds{
		Warning:   15 * time.Minute,
		Inactive:  30 * time.Minute,
		Exclusion: 60 * time.Minute,
	}
}

// ActivitySnapshot is the derived, never persisted, classification result.
type ActivitySnapshot struct {
	MinutesSinceActivity    int            `json:"minutesSinceActivity"`
	Level                   ActivityLevel  `json:"level"`
	ShouldExcludeFromVoting bool           `json:"shouldExcludeFromVoting"`
	Status                  ActivityStatus `json:"status"`
}

// ClassifyActivity is a pure function of the elapsed time since the last
// activity against the thresholds. Because it holds no state beyond
// lastActivityAt it is always recomputable and consistent no matter how many
// concurrent callers evaluate it.
func ClassifyActivity(lastActivityAt, now time.Time, th ActivityThresholds) ActivitySnapshot {
	elapsed := now.Sub(lastActivityAt)
	if elapsed < 0 {
		elapsed = 0
	}

	level := ActivityLevelActive
	switch {
	case elapsed >= th.Exclusion:
		level = ActivityLevelExcluded
	case elapsed >= th.Inactive:
		level = ActivityLevelInactive
	case elapsed >= th.Warning:
		level = ActivityLevelWarning
	}

	excluded := level == ActivityLevelInactive || level == ActivityLevelExcluded
	status := MemberActive
	if excluded {
		status = MemberInactive
	}

	return ActivitySnapshot{
		MinutesSinceActivity:    int(elapsed / time.Minute),
		Level:                   level,
		ShouldExcludeFromVoting: excluded,
		Status:                  status,
	}
}
