package app

import (
	"fmt"
	"time"

	"prep-progress-service/internal/domain"
)

const dayLayout = "2006-01-02"

// weeklyGoalTable maps the onboarding test-frequency preference to a weekly
// test goal. Unrecognized (or missing) preferences fall back to the lightest
// goal.
var weeklyGoalTable = map[string]int{
	domain.FrequencyDaily:    7,
	domain.FrequencyModerate: 4,
	domain.FrequencyLight:    2,
}

const defaultWeeklyGoal = 2

func weeklyGoalFor(profile *domain.UserProfile) int {
	if profile == nil {
		return defaultWeeklyGoal
	}
	if goal, ok := weeklyGoalTable[profile.TestFrequency]; ok {
		return goal
	}
	return defaultWeeklyGoal
}

// levelForXP derives the level tier from total XP: one level per 500 XP,
// starting at level 1.
func levelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/domain.XPPerLevel + 1
}

// levelProgressFor reports position within the current 500-XP band.
func levelProgressFor(xp int) domain.LevelProgress {
	if xp < 0 {
		xp = 0
	}
	inLevel := xp % domain.XPPerLevel
	percent := float64(inLevel) / float64(domain.XPPerLevel) * 100
	if percent > 100 {
		percent = 100
	}
	return domain.LevelProgress{
		Level:            levelForXP(xp),
		XPInCurrentLevel: inLevel,
		XPForNextLevel:   domain.XPPerLevel,
		ProgressPercent:  percent,
	}
}

// newStats seeds fresh counters for a user. A nil profile yields the default
// weekly goal so stats can be created lazily before onboarding completes.
func newStats(profile *domain.UserProfile, day time.Time) domain.UserStats {
	return domain.UserStats{
		XPTotal:         0,
		Level:           1,
		CurrentStreak:   0,
		WeeklyGoal:      weeklyGoalFor(profile),
		WeeklyCompleted: 0,
		LastWeek:        isoWeek(day),
	}
}

// awardXP adds to the XP total and re-derives the level. Negative amounts are
// rejected at the boundary; nothing in the engine ever decreases XP.
func awardXP(stats *domain.UserStats, amount int) error {
	if amount < 0 {
		return domain.ErrNegativeXP
	}
	stats.XPTotal += amount
	stats.Level = levelForXP(stats.XPTotal)
	return nil
}

// advanceStreak applies the day-diff streak policy for activity on day:
// no prior day starts at 1, same day is a no-op, the very next day increments,
// and any other gap (including out-of-order days) resets to 1. Days are
// normalized to UTC calendar days before differencing.
func advanceStreak(stats *domain.UserStats, day time.Time) {
	today := calendarDay(day)
	last, ok := parseDay(stats.LastTestDay)
	if !ok {
		stats.CurrentStreak = 1
		stats.LastTestDay = today.Format(dayLayout)
		return
	}
	switch daysBetween(last, today) {
	case 0:
		return
	case 1:
		stats.CurrentStreak++
	default:
		stats.CurrentStreak = 1
	}
	stats.LastTestDay = today.Format(dayLayout)
}

// advanceWeek counts one completed test toward the weekly goal, rolling the
// counter over whenever the ISO week changes.
func advanceWeek(stats *domain.UserStats, day time.Time) {
	week := isoWeek(day)
	if stats.LastWeek != week {
		stats.LastWeek = week
		stats.WeeklyCompleted = 1
		return
	}
	stats.WeeklyCompleted++
}

// weakSubjectsFrom replaces the weak-subject set wholesale: only subjects
// present in the report with accuracy below the threshold survive.
func weakSubjectsFrom(accuracy map[string]float64) []string {
	weak := make([]string, 0, len(accuracy))
	for subject, pct := range accuracy {
		if pct < domain.WeakSubjectThreshold {
			weak = append(weak, subject)
		}
	}
	return weak
}

// isoWeek formats the ISO-8601 year-week identifier, e.g. "2026-W35".
func isoWeek(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// calendarDay truncates a timestamp to its UTC calendar day.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
