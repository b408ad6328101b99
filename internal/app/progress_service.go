package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"prep-progress-service/internal/domain"
)

// DocumentStore abstracts how user documents are persisted (in-memory,
// Postgres, Redis-cached, etc). Get returns domain.ErrDocumentNotFound for
// documents that were never written.
type DocumentStore interface {
	Get(ctx context.Context, userID, name string) ([]byte, error)
	Set(ctx context.Context, userID, name string, data []byte) error
	Delete(ctx context.Context, userID string) error
}

// FeedRegistry tracks live progress feeds per user.
type FeedRegistry interface {
	GetOrCreate(userID string) *Feed
	Get(userID string) (*Feed, bool)
	DeleteIfIdle(userID string)
}

// SummaryFetcher pulls the server-authoritative gamification summary. The
// service treats it as optional: any error falls back to local documents.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, userID string) (domain.ProgressSummary, error)
}

// ProgressService contains the progress-tracking use cases.
type ProgressService struct {
	store  DocumentStore
	feeds  FeedRegistry
	remote SummaryFetcher // nil when no authoritative endpoint is configured
	now    func() time.Time
}

func NewProgressService(store DocumentStore, feeds FeedRegistry) *ProgressService {
	return &ProgressService{store: store, feeds: feeds, now: time.Now}
}

// WithRemoteSummary makes the service consult the authoritative gamification
// endpoint before falling back to local documents.
func (s *ProgressService) WithRemoteSummary(remote SummaryFetcher) *ProgressService {
	s.remote = remote
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// SaveProfile persists the onboarding profile. First-time saves seed fresh
// stats; later edits only re-derive the weekly goal from the new frequency
// preference.
func (s *ProgressService) SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) (domain.UserStats, error) {
	s.persist(ctx, userID, domain.DocProfile, profile)

	stats, found := s.loadStats(ctx, userID, &profile)
	if found {
		stats.WeeklyGoal = weeklyGoalFor(&profile)
	}
	s.persist(ctx, userID, domain.DocStats, stats)
	return stats, nil
}

// Profile returns the stored onboarding profile.
func (s *ProgressService) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	profile := s.loadProfile(ctx, userID)
	if profile == nil {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return *profile, nil
}

// RecordTestResult applies one test-completion event: streak and weekly
// counters advance, XP is awarded, the result is prepended to the activity
// log, and weak subjects are recomputed. Persistence failures are logged but
// never block the caller; the computed summary is returned regardless.
func (s *ProgressService) RecordTestResult(ctx context.Context, userID string, event domain.TestCompletion) (domain.ProgressSummary, error) {
	if event.XPAward < 0 {
		return domain.ProgressSummary{}, domain.ErrNegativeXP
	}

	result := event.Result
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now()
	}
	day := result.CompletedAt

	profile := s.loadProfile(ctx, userID)
	stats, _ := s.loadStats(ctx, userID, profile)

	advanceStreak(&stats, day)
	advanceWeek(&stats, day)
	if err := awardXP(&stats, event.XPAward); err != nil {
		return domain.ProgressSummary{}, err
	}

	activity := s.loadActivity(ctx, userID)
	activity.RecentTests = append([]domain.TestResult{result}, activity.RecentTests...)
	if len(activity.RecentTests) > domain.MaxRecentTests {
		activity.RecentTests = activity.RecentTests[:domain.MaxRecentTests]
	}
	if event.SubjectAccuracy != nil {
		activity.WeakSubjects = weakSubjectsFrom(event.SubjectAccuracy)
	}

	s.persist(ctx, userID, domain.DocStats, stats)
	s.persist(ctx, userID, domain.DocActivity, activity)

	summary := s.summarize(userID, stats, activity)
	if feed, ok := s.feeds.Get(userID); ok {
		feed.publish(summary)
	}
	return summary, nil
}

// Summary returns the progress summary for the dashboard. When an
// authoritative remote endpoint is configured it wins; any remote failure
// degrades to the locally stored documents.
func (s *ProgressService) Summary(ctx context.Context, userID string) (domain.ProgressSummary, error) {
	if s.remote != nil {
		summary, err := s.remote.FetchSummary(ctx, userID)
		if err == nil {
			summary.UserID = userID
			summary.Source = domain.SourceRemote
			return summary, nil
		}
		log.Printf("remote summary for %s unavailable, using local: %v", userID, err)
	}
	return s.localSummary(ctx, userID), nil
}

// TodaysTasks projects up to three focus items for the given day.
func (s *ProgressService) TodaysTasks(ctx context.Context, userID string, today time.Time) ([]domain.Task, error) {
	if today.IsZero() {
		today = s.now()
	}
	profile := s.loadProfile(ctx, userID)
	stats, _ := s.loadStats(ctx, userID, profile)
	activity := s.loadActivity(ctx, userID)
	return todaysTasks(profile, stats, activity, today), nil
}

// Subscribe returns a channel carrying summary updates for a user, primed
// with the current local snapshot. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *ProgressService) Subscribe(ctx context.Context, userID string) (<-chan domain.ProgressSummary, func(), error) {
	feed := s.feeds.GetOrCreate(userID)
	ch, unsubscribe := feed.subscribe(s.localSummary(ctx, userID))
	cancel := func() {
		unsubscribe()
		s.feeds.DeleteIfIdle(userID)
	}
	return ch, cancel, nil
}

// ClearProgress removes every document for a user. Called when the session
// is torn down (logout / storage clear).
func (s *ProgressService) ClearProgress(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.feeds.DeleteIfIdle(userID)
	return nil
}

func (s *ProgressService) localSummary(ctx context.Context, userID string) domain.ProgressSummary {
	profile := s.loadProfile(ctx, userID)
	stats, _ := s.loadStats(ctx, userID, profile)
	activity := s.loadActivity(ctx, userID)
	return s.summarize(userID, stats, activity)
}

func (s *ProgressService) summarize(userID string, stats domain.UserStats, activity domain.ActivityLog) domain.ProgressSummary {
	return domain.ProgressSummary{
		UserID:       userID,
		Stats:        stats,
		Progress:     levelProgressFor(stats.XPTotal),
		RecentTests:  activity.RecentTests,
		WeakSubjects: activity.WeakSubjects,
		Source:       domain.SourceLocal,
		UpdatedAt:    s.now(),
	}
}

// loadProfile returns nil when the profile is absent or unreadable; callers
// degrade to defaults rather than failing.
func (s *ProgressService) loadProfile(ctx context.Context, userID string) *domain.UserProfile {
	var profile domain.UserProfile
	if !s.loadDocument(ctx, userID, domain.DocProfile, &profile) {
		return nil
	}
	return &profile
}

// loadStats reports whether a stored stats document was found; otherwise a
// fresh one is seeded from the profile.
func (s *ProgressService) loadStats(ctx context.Context, userID string, profile *domain.UserProfile) (domain.UserStats, bool) {
	var stats domain.UserStats
	if !s.loadDocument(ctx, userID, domain.DocStats, &stats) {
		return newStats(profile, s.now()), false
	}
	// Re-derive instead of trusting a possibly stale persisted level.
	stats.Level = levelForXP(stats.XPTotal)
	return stats, true
}

func (s *ProgressService) loadActivity(ctx context.Context, userID string) domain.ActivityLog {
	var activity domain.ActivityLog
	s.loadDocument(ctx, userID, domain.DocActivity, &activity)
	return activity
}

// loadDocument normalizes the two read-failure modes at the boundary:
// a missing document and a corrupt one are both treated as absent.
func (s *ProgressService) loadDocument(ctx context.Context, userID, name string, v any) bool {
	data, err := s.store.Get(ctx, userID, name)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			log.Printf("read %s document for %s: %v", name, userID, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("corrupt %s document for %s, treating as absent: %v", name, userID, err)
		return false
	}
	return true
}

// persist writes a document, logging and swallowing failures; the in-session
// state already reflects the change.
func (s *ProgressService) persist(ctx context.Context, userID, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal %s document for %s: %v", name, userID, err)
		return
	}
	if err := s.store.Set(ctx, userID, name, data); err != nil {
		log.Printf("persist %s document for %s: %v", name, userID, err)
	}
}
