package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// rebindPostgres rewrites ? placeholders to $1..$n for lib/pq.
func rebindPostgres(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rebindSQLite leaves ? placeholders untouched.
func rebindSQLite(query string) string { return query }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser scans a user row.
func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.UID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	return u, nil
}

// scanInterviewSession scans a session row.
func scanInterviewSession(row rowScanner) (models.InterviewSession, error) {
	var s models.InterviewSession
	var endedAt sql.NullTime
	err := row.Scan(&s.IID, &s.UID, &s.JID, &s.Status, &s.StartedAt, &endedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return s, nil
}

// scanTurn scans a turn row.
func scanTurn(row rowScanner) (models.Turn, error) {
	var t models.Turn
	err := row.Scan(
		&t.QAID, &t.IID, &t.UID, &t.TurnIndex, &t.Question, &t.Answer,
		&t.TranscriptText, &t.TargetCompetency, &t.Blocked,
		&t.Clarity, &t.Relevance, &t.Filler, &t.TechnicalDepth,
		&t.StarS, &t.StarT, &t.StarA, &t.StarR, &t.CompositeStar,
		&t.RepairAttempts, &t.Issues, &t.SafetyFlags, &t.Justification,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, fmt.Errorf("scan turn failed: %w", err)
	}
	return t, nil
}

// scanCombinedResult scans a combined result row.
func scanCombinedResult(row rowScanner) (models.CombinedResult, error) {
	var r models.CombinedResult
	err := row.Scan(
		&r.RID, &r.IID, &r.UID, &r.TotalScore25,
		&r.ClarityAvg, &r.RelevanceAvg, &r.FillerAvg, &r.StarAvg, &r.TechnicalDepthAvg,
		&r.EvalConfidence, &r.Strengths, &r.Weaknesses, &r.Gaps, &r.Recommendation,
		&r.RubricVersion, &r.PerMetricWeights, &r.TurnIndicesUsed,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("scan combined result failed: %w", err)
	}
	return r, nil
}

// scanPracticePlan scans a practice plan row.
func scanPracticePlan(row rowScanner) (models.PracticePlan, error) {
	var p models.PracticePlan
	var approvedAt sql.NullTime
	err := row.Scan(
		&p.PPID, &p.IID, &p.UID, &p.OverallGoal, &p.MotivationNote, &p.ReadingList,
		&p.PlanVersion, &p.Status, &p.CreatedBy, &p.ApprovedBy, &approvedAt,
		&p.DeclineReason, &p.NextSessionSuggestedDays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("scan practice plan failed: %w", err)
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	return p, nil
}

// scanPracticeTask scans a practice task row.
func scanPracticeTask(row rowScanner) (models.PracticeTask, error) {
	var t models.PracticeTask
	var completedAt sql.NullTime
	err := row.Scan(
		&t.PTID, &t.PPID, &t.UID, &t.Competency, &t.Description, &t.Actions,
		&t.SuccessCriteria, &t.Priority, &t.Status, &t.EstMinutes, &t.DueDate,
		&completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, fmt.Errorf("scan practice task failed: %w", err)
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}
