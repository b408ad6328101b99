package app

import (
	"fmt"
	"time"

	"prep-progress-service/internal/domain"
)

const maxTasks = 3

// todaysTasks projects up to three focus items from the current snapshots.
// Rules are evaluated in a fixed order so the output is deterministic; any
// nil snapshot degrades to its zero value.
func todaysTasks(profile *domain.UserProfile, stats domain.UserStats, activity domain.ActivityLog, today time.Time) []domain.Task {
	tasks := make([]domain.Task, 0, maxTasks)

	if !testedOn(activity, today) {
		title := "Take a practice test"
		if profile != nil && profile.ExamTarget != "" {
			title = fmt.Sprintf("Take a %s practice test", profile.ExamTarget)
		}
		tasks = append(tasks, domain.Task{
			ID:           "daily-practice-test",
			Title:        title,
			Description:  "Keep your streak alive with a full mock test.",
			XPReward:     50,
			TargetAction: "start_test",
			Priority:     domain.PriorityHigh,
		})
	}

	if stats.WeeklyCompleted < stats.WeeklyGoal {
		remaining := stats.WeeklyGoal - stats.WeeklyCompleted
		tasks = append(tasks, domain.Task{
			ID:           "weekly-goal",
			Title:        "Complete your weekly goal",
			Description:  fmt.Sprintf("%d more tests to hit this week's goal of %d.", remaining, stats.WeeklyGoal),
			XPReward:     30,
			TargetAction: "view_goal",
			Priority:     domain.PriorityMedium,
		})
	}

	if len(activity.RecentTests) > 0 {
		tasks = append(tasks, domain.Task{
			ID:           "review-weak-questions",
			Title:        "Review weak questions",
			Description:  "Go over the questions you missed in recent tests.",
			XPReward:     20,
			TargetAction: "review_mistakes",
			Priority:     domain.PriorityLow,
		})
	}

	if len(tasks) > maxTasks {
		tasks = tasks[:maxTasks]
	}
	return tasks
}

// testedOn reports whether the newest activity entry falls on the same UTC
// calendar day as today.
func testedOn(activity domain.ActivityLog, today time.Time) bool {
	if len(activity.RecentTests) == 0 {
		return false
	}
	return calendarDay(activity.RecentTests[0].CompletedAt).Equal(calendarDay(today))
}
