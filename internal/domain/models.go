package domain

import "time"

// Test-frequency preferences a user can pick during onboarding. The raw
// strings come from the onboarding form and are stored verbatim.
const (
	FrequencyDaily    = "Daily practice"
	FrequencyModerate = "3-5 tests"
	FrequencyLight    = "1-2 tests"
)

// Document names under which user state is persisted.
const (
	DocProfile  = "profile"
	DocStats    = "stats"
	DocActivity = "activity"
)

// WeakSubjectThreshold is the accuracy percentage below which a subject
// counts as weak.
const WeakSubjectThreshold = 70.0

// XPPerLevel is the size of each level band.
const XPPerLevel = 500

// MaxRecentTests caps the activity log; older entries are evicted.
const MaxRecentTests = 10

// UserProfile is created at onboarding and only changes through an explicit
// profile edit.
type UserProfile struct {
	Name          string `json:"name"`
	ExamTarget    string `json:"examTarget"`
	TestFrequency string `json:"testsPerWeek"`
}

// UserStats holds the gamification counters for one user. Level is always
// derived from XPTotal and never mutated independently.
type UserStats struct {
	XPTotal         int    `json:"xpTotal"`
	Level           int    `json:"level"`
	CurrentStreak   int    `json:"currentStreak"`
	LastTestDay     string `json:"lastTestDateISO,omitempty"` // calendar day, "2006-01-02", empty = never tested
	WeeklyGoal      int    `json:"weeklyGoalCount"`
	WeeklyCompleted int    `json:"weeklyCompletedCount"`
	LastWeek        string `json:"lastWeekISO"` // ISO year-week, e.g. "2026-W35"
}

// TestResult is one completed mock test. Immutable once recorded; only
// removed by truncation past the activity cap.
type TestResult struct {
	ID          string    `json:"testId"`
	Title       string    `json:"testTitle"`
	Score       int       `json:"score"`
	Percentile  float64   `json:"percentile"`
	CompletedAt time.Time `json:"dateISO"`
}

// ActivityLog keeps the most recent tests (newest first) and the current
// weak-subject set.
type ActivityLog struct {
	RecentTests  []TestResult `json:"recentTests"`
	WeakSubjects []string     `json:"weakSubjects"`
}

// TestCompletion is the event emitted when a user finishes a mock test.
// SubjectAccuracy maps subject name to accuracy percentage; a nil map means
// no per-subject breakdown was reported and the weak-subject set is left
// untouched.
type TestCompletion struct {
	Result          TestResult         `json:"result"`
	SubjectAccuracy map[string]float64 `json:"subjectAccuracy,omitempty"`
	XPAward         int                `json:"xpAward"`
}

// LevelProgress describes position within the current level band.
type LevelProgress struct {
	Level            int     `json:"level"`
	XPInCurrentLevel int     `json:"xpInCurrentLevel"`
	XPForNextLevel   int     `json:"xpForNextLevel"`
	ProgressPercent  float64 `json:"progressPercent"`
}

// Summary sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// ProgressSummary is the dashboard view of a user's progress. Source records
// whether it came from the remote gamification endpoint or local documents.
type ProgressSummary struct {
	UserID       string        `json:"userId"`
	Stats        UserStats     `json:"stats"`
	Progress     LevelProgress `json:"progress"`
	RecentTests  []TestResult  `json:"recentTests"`
	WeakSubjects []string      `json:"weakSubjects"`
	Source       string        `json:"source"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Task priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is one "today's focus" recommendation.
type Task struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	XPReward     int    `json:"xpReward"`
	TargetAction string `json:"targetAction"`
	Priority     string `json:"priority"`
}
