package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"matchroom/internal/domain"
)

func TestClassifyActivityLevels(t *testing.T) {
	th := domain.DefaultActivityThresholds()
	now := time.Now().UTC()

	cases := []struct {
		name     string
		elapsed  time.Duration
		level    domain.ActivityLevel
		excluded bool
	}{
		{"fresh activity", 0, domain.ActivityLevelActive, false},
		{"just under warning", 14 * time.Minute, domain.ActivityLevelActive, false},
		{"warning boundary", 15 * time.Minute, domain.ActivityLevelWarning, false},
		{"just under inactive", 29 * time.Minute, domain.ActivityLevelWarning, false},
		{"inactive boundary", 30 * time.Minute, domain.ActivityLevelInactive, true},
		{"exclusion boundary", 60 * time.Minute, domain.ActivityLevelExcluded, true},
		{"long gone", 5 * time.Hour, domain.ActivityLevelExcluded, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := domain.ClassifyActivity(now.Add(-tc.elapsed), now, th)
			assert.Equal(t, tc.level, snapshot.Level)
			assert.Equal(t, tc.excluded, snapshot.ShouldExcludeFromVoting)
			assert.Equal(t, int(tc.elapsed/time.Minute), snapshot.MinutesSinceActivity)
		})
	}
}

func TestClassifyActivityClockSkewClampsToZero(t *testing.T) {
	th := domain.DefaultActivityThresholds()
	now := time.Now().UTC()

	// A timestamp slightly in the future must not underflow the elapsed time.
	snapshot := domain.ClassifyActivity(now.Add(2*time.Minute), now, th)
	assert.Equal(t, domain.ActivityLevelActive, snapshot.Level)
	assert.Zero(t, snapshot.MinutesSinceActivity)
}

func TestConsensusTypeForParticipantCount(t *testing.T) {
	assert.Equal(t, domain.ConsensusPrivate, domain.ConsensusTypeFor(2))
	assert.Equal(t, domain.ConsensusGroup, domain.ConsensusTypeFor(3))
	assert.Equal(t, domain.ConsensusGroup, domain.ConsensusTypeFor(8))
}

func TestMemberProgressIsCapped(t *testing.T) {
	member := &domain.Member{CurrentIndex: 5}
	assert.Zero(t, member.Progress())

	assert.NoError(t, member.SetShuffledList([]domain.ContentID{"a", "b", "c", "d"}))
	assert.Equal(t, 1.0, member.Progress())

	member.CurrentIndex = 2
	assert.Equal(t, 0.5, member.Progress())
}
