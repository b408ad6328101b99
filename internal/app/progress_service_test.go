package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"prep-progress-service/internal/app"
	"prep-progress-service/internal/domain"
	"prep-progress-service/internal/infra/memory"
)

func newTestService(now time.Time) *app.ProgressService {
	return app.NewProgressService(memory.NewDocumentStore(), memory.NewFeedRegistry()).
		WithClock(func() time.Time { return now })
}

func completionOn(day time.Time, xp int) domain.TestCompletion {
	return domain.TestCompletion{
		Result: domain.TestResult{
			Title:       "Full Mock Test",
			Score:       120,
			Percentile:  91.5,
			CompletedAt: day,
		},
		XPAward: xp,
	}
}

func TestSaveProfileSeedsStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	stats, err := service.SaveProfile(ctx, "u1", domain.UserProfile{
		Name:          "Asha",
		ExamTarget:    "JEE Advanced",
		TestFrequency: domain.FrequencyModerate,
	})
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if stats.WeeklyGoal != 4 {
		t.Fatalf("expected weekly goal 4 for %q, got %d", domain.FrequencyModerate, stats.WeeklyGoal)
	}
	if stats.Level != 1 || stats.XPTotal != 0 || stats.CurrentStreak != 0 {
		t.Fatalf("expected fresh stats, got %+v", stats)
	}
	if stats.LastWeek != "2026-W35" {
		t.Fatalf("expected current ISO week seeded, got %s", stats.LastWeek)
	}

	profile, err := service.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.ExamTarget != "JEE Advanced" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestProfileEditRederivesWeeklyGoal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	if _, err := service.SaveProfile(ctx, "u1", domain.UserProfile{TestFrequency: domain.FrequencyLight}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if _, err := service.RecordTestResult(ctx, "u1", completionOn(now, 100)); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := service.SaveProfile(ctx, "u1", domain.UserProfile{TestFrequency: domain.FrequencyDaily})
	if err != nil {
		t.Fatalf("edit profile: %v", err)
	}
	if stats.WeeklyGoal != 7 {
		t.Fatalf("expected goal re-derived to 7, got %d", stats.WeeklyGoal)
	}
	if stats.XPTotal != 100 {
		t.Fatalf("edit must keep accumulated xp, got %d", stats.XPTotal)
	}
}

func TestProfileNotFound(t *testing.T) {
	service := newTestService(time.Now())
	if _, err := service.Profile(context.Background(), "ghost"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestRecordTestResultUpdatesCounters(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	service := newTestService(monday)

	summary, err := service.RecordTestResult(ctx, "u1", completionOn(monday, 480))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.Stats.CurrentStreak != 1 || summary.Stats.WeeklyCompleted != 1 {
		t.Fatalf("unexpected counters %+v", summary.Stats)
	}
	if summary.Stats.Level != 1 {
		t.Fatalf("480 xp should stay level 1, got %d", summary.Stats.Level)
	}

	// Same-day second call: streak idempotent, weekly counts again.
	summary, err = service.RecordTestResult(ctx, "u1", completionOn(monday.Add(3*time.Hour), 50))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.Stats.CurrentStreak != 1 {
		t.Fatalf("same-day streak should stay 1, got %d", summary.Stats.CurrentStreak)
	}
	if summary.Stats.WeeklyCompleted != 2 {
		t.Fatalf("expected 2 weekly completions, got %d", summary.Stats.WeeklyCompleted)
	}
	if summary.Stats.XPTotal != 530 || summary.Stats.Level != 2 {
		t.Fatalf("expected xp 530 level 2, got %+v", summary.Stats)
	}

	// Next day increments the streak.
	tuesday := monday.AddDate(0, 0, 1)
	summary, err = service.RecordTestResult(ctx, "u1", completionOn(tuesday, 0))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.Stats.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", summary.Stats.CurrentStreak)
	}

	// A two-day gap resets it.
	friday := monday.AddDate(0, 0, 4)
	summary, err = service.RecordTestResult(ctx, "u1", completionOn(friday, 0))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.Stats.CurrentStreak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", summary.Stats.CurrentStreak)
	}

	// Next ISO week resets the weekly counter.
	nextMonday := monday.AddDate(0, 0, 7)
	summary, err = service.RecordTestResult(ctx, "u1", completionOn(nextMonday, 0))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.Stats.WeeklyCompleted != 1 {
		t.Fatalf("expected weekly reset to 1, got %d", summary.Stats.WeeklyCompleted)
	}
}

func TestRecordTestResultRejectsNegativeAward(t *testing.T) {
	service := newTestService(time.Now())
	_, err := service.RecordTestResult(context.Background(), "u1", completionOn(time.Now(), -5))
	if !errors.Is(err, domain.ErrNegativeXP) {
		t.Fatalf("expected ErrNegativeXP, got %v", err)
	}
}

func TestActivityLogCappedNewestFirst(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(start)

	for i := 0; i < 14; i++ {
		event := completionOn(start.AddDate(0, 0, i), 10)
		event.Result.Title = fmt.Sprintf("Mock %d", i)
		if _, err := service.RecordTestResult(ctx, "u1", event); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	summary, err := service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.RecentTests) != 10 {
		t.Fatalf("expected 10 recent tests, got %d", len(summary.RecentTests))
	}
	if summary.RecentTests[0].Title != "Mock 13" {
		t.Fatalf("expected newest first, got %s", summary.RecentTests[0].Title)
	}
	for i := 1; i < len(summary.RecentTests); i++ {
		if summary.RecentTests[i].CompletedAt.After(summary.RecentTests[i-1].CompletedAt) {
			t.Fatalf("recent tests out of order at %d", i)
		}
	}
}

func TestWeakSubjectsReplacedWholesale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	event := completionOn(now, 10)
	event.SubjectAccuracy = map[string]float64{"Physics": 65, "Chemistry": 80}
	summary, err := service.RecordTestResult(ctx, "u1", event)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(summary.WeakSubjects) != 1 || summary.WeakSubjects[0] != "Physics" {
		t.Fatalf("expected [Physics], got %v", summary.WeakSubjects)
	}

	// Physics absent from the next report drops it even though it was weak.
	event = completionOn(now.Add(time.Hour), 10)
	event.SubjectAccuracy = map[string]float64{"Maths": 55}
	summary, err = service.RecordTestResult(ctx, "u1", event)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(summary.WeakSubjects) != 1 || summary.WeakSubjects[0] != "Maths" {
		t.Fatalf("expected wholesale replacement with [Maths], got %v", summary.WeakSubjects)
	}

	// No breakdown reported leaves the set untouched.
	summary, err = service.RecordTestResult(ctx, "u1", completionOn(now.Add(2*time.Hour), 10))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(summary.WeakSubjects) != 1 || summary.WeakSubjects[0] != "Maths" {
		t.Fatalf("nil breakdown must keep previous set, got %v", summary.WeakSubjects)
	}
}

func TestResultIDAssignedWhenMissing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	summary, err := service.RecordTestResult(ctx, "u1", completionOn(now, 10))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if summary.RecentTests[0].ID == "" {
		t.Fatalf("expected generated result id")
	}
}

func TestTodaysTasksRules(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	service := newTestService(today)

	// Brand-new user: practice test and weekly goal, no review (no history).
	tasks, err := service.TodaysTasks(ctx, "u1", today)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks for new user, got %d", len(tasks))
	}
	if tasks[0].ID != "daily-practice-test" || tasks[0].Priority != domain.PriorityHigh {
		t.Fatalf("expected practice test first, got %+v", tasks[0])
	}
	if tasks[1].ID != "weekly-goal" || tasks[1].Priority != domain.PriorityMedium {
		t.Fatalf("expected weekly goal second, got %+v", tasks[1])
	}

	// After testing today with the goal still open, all three rules fire in order.
	if _, err := service.SaveProfile(ctx, "u1", domain.UserProfile{TestFrequency: domain.FrequencyModerate}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if _, err := service.RecordTestResult(ctx, "u1", completionOn(today, 10)); err != nil {
		t.Fatalf("record: %v", err)
	}
	tasks, err = service.TodaysTasks(ctx, "u1", today)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected practice rule suppressed after testing today, got %d tasks", len(tasks))
	}
	if tasks[0].ID != "weekly-goal" || tasks[1].ID != "review-weak-questions" {
		t.Fatalf("unexpected rule order: %+v", tasks)
	}
	if tasks[0].Description != "3 more tests to hit this week's goal of 4." {
		t.Fatalf("expected remaining count in description, got %q", tasks[0].Description)
	}
}

func TestSummaryPrefersRemoteAndFallsBack(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	service := newTestService(now).WithRemoteSummary(&stubFetcher{
		summary: domain.ProgressSummary{Stats: domain.UserStats{XPTotal: 9000, Level: 19}},
	})
	if _, err := service.RecordTestResult(ctx, "u1", completionOn(now, 10)); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary, err := service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Source != domain.SourceRemote || summary.Stats.XPTotal != 9000 {
		t.Fatalf("expected remote summary to win, got %+v", summary)
	}

	service = newTestService(now).WithRemoteSummary(&stubFetcher{err: errors.New("backend down")})
	if _, err := service.RecordTestResult(ctx, "u1", completionOn(now, 10)); err != nil {
		t.Fatalf("record: %v", err)
	}
	summary, err = service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary must not fail when remote is down: %v", err)
	}
	if summary.Source != domain.SourceLocal || summary.Stats.XPTotal != 10 {
		t.Fatalf("expected local fallback, got %+v", summary)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	ch, cancel, err := service.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Stats.XPTotal != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial.Stats)
	}

	if _, err := service.RecordTestResult(ctx, "u1", completionOn(now, 25)); err != nil {
		t.Fatalf("record: %v", err)
	}

	select {
	case update := <-ch:
		if update.Stats.XPTotal != 25 {
			t.Fatalf("expected update with 25 xp, got %+v", update.Stats)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for feed update")
	}
}

func TestClearProgress(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	service := newTestService(now)

	if _, err := service.SaveProfile(ctx, "u1", domain.UserProfile{TestFrequency: domain.FrequencyDaily}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if _, err := service.RecordTestResult(ctx, "u1", completionOn(now, 600)); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := service.ClearProgress(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := service.Profile(ctx, "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}
	summary, err := service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Stats.XPTotal != 0 || len(summary.RecentTests) != 0 {
		t.Fatalf("expected defaults after clear, got %+v", summary)
	}
}

func TestCorruptDocumentTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := memory.NewDocumentStore()
	service := app.NewProgressService(store, memory.NewFeedRegistry()).
		WithClock(func() time.Time { return now })

	if err := store.Set(ctx, "u1", domain.DocStats, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt doc: %v", err)
	}

	summary, err := service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary must tolerate corrupt documents: %v", err)
	}
	if summary.Stats.XPTotal != 0 || summary.Stats.Level != 1 {
		t.Fatalf("expected default stats, got %+v", summary.Stats)
	}
}

type stubFetcher struct {
	summary domain.ProgressSummary
	err     error
}

func (f *stubFetcher) FetchSummary(_ context.Context, userID string) (domain.ProgressSummary, error) {
	if f.err != nil {
		return domain.ProgressSummary{}, f.err
	}
	s := f.summary
	s.UserID = userID
	return s, nil
}
