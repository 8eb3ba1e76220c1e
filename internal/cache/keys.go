package cache

import (
	"fmt"
	"time"
)

// Time-to-live values for cache-resident state. Interview progress is
// reclaimed purely via TTL when a candidate abandons a session.
const (
	// ProgressTTL bounds the lifetime of an abandoned interview.
	ProgressTTL = 48 * time.Hour
	// DashboardTTL bounds the dashboard aggregate.
	DashboardTTL = time.Hour
	// InterviewRunsTTL bounds the all-interview-runs aggregate.
	InterviewRunsTTL = 10 * time.Minute
	// TurnsTTL bounds cached turn lists.
	TurnsTTL = time.Hour
	// QnATTL bounds the per-session QnA aggregate.
	QnATTL = 10 * time.Minute
	// UserTTL bounds the login-time user cache.
	UserTTL = 90 * time.Minute
)

// ProgressKey holds the InterviewProgress hash for a user.
func ProgressKey(uid int64) string {
	return fmt.Sprintf("interview_progress:%d", uid)
}

// QuestionsKey holds the ordered question buffer for a user's active interview.
func QuestionsKey(uid int64) string {
	return fmt.Sprintf("interview_questions:%d", uid)
}

// AnswersKey holds the ordered answer buffer for a user's active interview.
func AnswersKey(uid int64) string {
	return fmt.Sprintf("interview_answers:%d", uid)
}

// DashboardKey holds the dashboard aggregate hash for a user.
func DashboardKey(uid int64) string {
	return fmt.Sprintf("dashboard_cache:%d", uid)
}

// InterviewRunsKey holds the all-interview-runs aggregate hash for a user.
func InterviewRunsKey(uid int64) string {
	return fmt.Sprintf("allinterview_cache:%d", uid)
}

// TurnsKey holds the cached turn list for one session.
func TurnsKey(uid, iid int64) string {
	return fmt.Sprintf("turns_cache:%d:%d", uid, iid)
}

// AllTurnsKey holds the cached turn list across sessions for a user.
func AllTurnsKey(uid int64) string {
	return fmt.Sprintf("all_turns_cache:%d", uid)
}

// QnAKey holds the cached QnA aggregate for a user.
func QnAKey(uid int64) string {
	return fmt.Sprintf("allqna_cache:%d", uid)
}

// UserKey holds the login-time user cache hash.
func UserKey(uid int64) string {
	return fmt.Sprintf("user:%d", uid)
}
