// Package store implements the Store interface over database/sql. The SQLite
// and Postgres backends share this implementation and differ only in driver,
// migrations and placeholder style.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop-ai/hireloop/internal/models"
)

type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

func (s *sqlStore) NextID(sequence string) (int64, error) {
	q := s.rebind(`INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`)
	var id int64
	if err := s.db.QueryRow(q, sequence).Scan(&id); err != nil {
		slog.Error("Store.NextID failed", "error", err, "sequence", sequence)
		return 0, fmt.Errorf("next id for sequence %s: %w", sequence, err)
	}
	slog.Debug("Store.NextID allocated", "sequence", sequence, "id", id)
	return id, nil
}

func (s *sqlStore) NextIDBlock(sequence string, n int) (int64, error) {
	if n < 1 {
		n = 1
	}
	q := s.rebind(`INSERT INTO sequences (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + ?
		RETURNING value`)
	var last int64
	if err := s.db.QueryRow(q, sequence, n, n).Scan(&last); err != nil {
		slog.Error("Store.NextIDBlock failed", "error", err, "sequence", sequence, "n", n)
		return 0, fmt.Errorf("next id block for sequence %s: %w", sequence, err)
	}
	return last - int64(n) + 1, nil
}

const userColumns = `uid, name, email, password_hash, role, refresh_token, created_at, updated_at`

func (s *sqlStore) GetUser(uid int64) (*models.User, error) {
	q := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE uid = ?`)
	u, err := scanUser(s.db.QueryRow(q, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", uid, err)
	}
	return &u, nil
}

func (s *sqlStore) GetUserByEmail(email string) (*models.User, error) {
	q := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(?)`)
	u, err := scanUser(s.db.QueryRow(q, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *sqlStore) CreateUser(u models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	q := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(q, u.UID, u.Name, u.Email, u.PasswordHash, u.Role, u.RefreshToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		slog.Error("Store.CreateUser failed", "error", err, "uid", u.UID)
		return fmt.Errorf("create user %d: %w", u.UID, err)
	}
	return nil
}

func (s *sqlStore) UpdateUser(u models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	q := s.rebind(`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, refresh_token = ?, updated_at = ? WHERE uid = ?`)
	res, err := s.db.Exec(q, u.Name, u.Email, u.PasswordHash, u.Role, u.RefreshToken, u.UpdatedAt, u.UID)
	if err != nil {
		slog.Error("Store.UpdateUser failed", "error", err, "uid", u.UID)
		return fmt.Errorf("update user %d: %w", u.UID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &models.ValidationError{Record: "User", Criteria: []string{"user does not exist"}}
	}
	return nil
}

func (s *sqlStore) CreateJobDescription(j models.JobDescription) error {
	if err := validateJobDescription(j); err != nil {
		return err
	}
	q := s.rebind(`INSERT INTO job_descriptions (jid, uid, title, company, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(q, j.JID, j.UID, j.Title, j.Company, j.Description, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		slog.Error("Store.CreateJobDescription failed", "error", err, "jid", j.JID)
		return fmt.Errorf("create job description %d: %w", j.JID, err)
	}
	return nil
}

const sessionColumns = `iid, uid, jid, status, started_at, ended_at, created_at, updated_at`

func (s *sqlStore) CreateInterviewSession(sess models.InterviewSession) error {
	if err := validateInterviewSession(sess); err != nil {
		return err
	}
	q := s.rebind(`INSERT INTO interview_sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(q, sess.IID, sess.UID, sess.JID, sess.Status, sess.StartedAt, nullableTime(sess.EndedAt), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("Store.CreateInterviewSession failed", "error", err, "iid", sess.IID)
		return fmt.Errorf("create interview session %d: %w", sess.IID, err)
	}
	return nil
}

func (s *sqlStore) UpdateInterviewSession(sess models.InterviewSession) error {
	if err := validateInterviewSession(sess); err != nil {
		return err
	}
	q := s.rebind(`UPDATE interview_sessions SET status = ?, ended_at = ?, updated_at = ? WHERE iid = ?`)
	res, err := s.db.Exec(q, sess.Status, nullableTime(sess.EndedAt), sess.UpdatedAt, sess.IID)
	if err != nil {
		slog.Error("Store.UpdateInterviewSession failed", "error", err, "iid", sess.IID)
		return fmt.Errorf("update interview session %d: %w", sess.IID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &models.ValidationError{Record: "InterviewSession", Criteria: []string{"session does not exist"}}
	}
	return nil
}

func (s *sqlStore) GetInterviewSession(iid int64) (*models.InterviewSession, error) {
	q := s.rebind(`SELECT ` + sessionColumns + ` FROM interview_sessions WHERE iid = ?`)
	sess, err := scanInterviewSession(s.db.QueryRow(q, iid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interview session %d: %w", iid, err)
	}
	return &sess, nil
}

func (s *sqlStore) ListInterviewSessionsByUser(uid int64) ([]models.InterviewSession, error) {
	q := s.rebind(`SELECT ` + sessionColumns + ` FROM interview_sessions WHERE uid = ? ORDER BY created_at`)
	rows, err := s.db.Query(q, uid)
	if err != nil {
		return nil, fmt.Errorf("list interview sessions for user %d: %w", uid, err)
	}
	defer rows.Close()
	var out []models.InterviewSession
	for rows.Next() {
		sess, err := scanInterviewSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

const turnColumns = `qaid, iid, uid, turn_index, question, answer, transcript_text, target_competency, blocked,
	clarity, relevance, filler, technical_depth, star_s, star_t, star_a, star_r, composite_star,
	repair_attempts, issues, safety_flags, justification, created_at, updated_at`

func (s *sqlStore) CreateTurns(turns []models.Turn) error {
	for _, t := range turns {
		if err := validateTurn(t); err != nil {
			return err
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin turn batch: %w", err)
	}
	defer tx.Rollback()

	q := s.rebind(`INSERT INTO turns (` + turnColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	stmt, err := tx.Prepare(q)
	if err != nil {
		return fmt.Errorf("prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		_, err := stmt.Exec(
			t.QAID, t.IID, t.UID, t.TurnIndex, t.Question, t.Answer,
			t.TranscriptText, t.TargetCompetency, t.Blocked,
			t.Clarity, t.Relevance, t.Filler, t.TechnicalDepth,
			t.StarS, t.StarT, t.StarA, t.StarR, t.CompositeStar,
			t.RepairAttempts, t.Issues, t.SafetyFlags, t.Justification,
			t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			slog.Error("Store.CreateTurns insert failed", "error", err, "qaid", t.QAID)
			return fmt.Errorf("insert turn %d: %w", t.QAID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn batch: %w", err)
	}
	slog.Debug("Store.CreateTurns committed", "count", len(turns))
	return nil
}

func (s *sqlStore) ListTurnsBySession(uid, iid int64) ([]models.Turn, error) {
	q := s.rebind(`SELECT ` + turnColumns + ` FROM turns WHERE uid = ? AND iid = ? ORDER BY turn_index`)
	return s.queryTurns(q, uid, iid)
}

func (s *sqlStore) ListTurnsByUser(uid int64) ([]models.Turn, error) {
	q := s.rebind(`SELECT ` + turnColumns + ` FROM turns WHERE uid = ? ORDER BY iid, turn_index`)
	return s.queryTurns(q, uid)
}

func (s *sqlStore) queryTurns(query string, args ...interface{}) ([]models.Turn, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()
	var out []models.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlStore) GetCombinedResultBySession(iid int64) (*models.CombinedResult, error) {
	q := s.rebind(`SELECT rid, iid, uid, total_score_25, clarity_avg, relevance_avg, filler_avg, star_avg,
		technical_depth_avg, eval_confidence, strengths, weaknesses, gaps, recommendation,
		rubric_version, per_metric_weights, turn_indices_used, created_at, updated_at
		FROM combined_results WHERE iid = ?`)
	r, err := scanCombinedResult(s.db.QueryRow(q, iid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get combined result for session %d: %w", iid, err)
	}
	return &r, nil
}

func (s *sqlStore) ListPracticePlansBySession(iid int64) ([]models.PracticePlan, error) {
	q := s.rebind(`SELECT ppid, iid, uid, overall_goal, motivation_note, reading_list, plan_version,
		status, created_by, approved_by, approved_at, decline_reason, next_session_suggested_days,
		created_at, updated_at FROM practice_plans WHERE iid = ?`)
	rows, err := s.db.Query(q, iid)
	if err != nil {
		return nil, fmt.Errorf("list practice plans for session %d: %w", iid, err)
	}
	defer rows.Close()
	var out []models.PracticePlan
	for rows.Next() {
		p, err := scanPracticePlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) ListPracticeTasksByPlan(ppid int64) ([]models.PracticeTask, error) {
	q := s.rebind(`SELECT ptid, ppid, uid, competency, description, actions, success_criteria,
		priority, status, est_minutes, due_date, completed_at, created_at, updated_at
		FROM practice_tasks WHERE ppid = ?`)
	rows, err := s.db.Query(q, ppid)
	if err != nil {
		return nil, fmt.Errorf("list practice tasks for plan %d: %w", ppid, err)
	}
	defer rows.Close()
	var out []models.PracticeTask
	for rows.Next() {
		t, err := scanPracticeTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlStore) CreateResume(r models.Resume) error {
	if err := validateResume(r); err != nil {
		return err
	}
	q := s.rebind(`INSERT INTO resumes (cvid, uid, active, resume_summary, education, workex, projects,
		skills, resume_raw, parser_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(q, r.CVID, r.UID, r.Active, r.ResumeSummary, r.Education, r.WorkEx,
		r.Projects, r.Skills, r.ResumeRaw, r.ParserVersion, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		slog.Error("Store.CreateResume failed", "error", err, "cvid", r.CVID)
		return fmt.Errorf("create resume %d: %w", r.CVID, err)
	}
	return nil
}

func (s *sqlStore) GetActiveResume(uid int64) (*models.Resume, error) {
	q := s.rebind(`SELECT cvid, uid, active, resume_summary, education, workex, projects,
		skills, resume_raw, parser_version, created_at, updated_at
		FROM resumes WHERE uid = ? AND active ORDER BY cvid DESC LIMIT 1`)
	row := s.db.QueryRow(q, uid)
	var r models.Resume
	err := row.Scan(&r.CVID, &r.UID, &r.Active, &r.ResumeSummary, &r.Education, &r.WorkEx,
		&r.Projects, &r.Skills, &r.ResumeRaw, &r.ParserVersion, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active resume for %d: %w", uid, err)
	}
	return &r, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// nullableTime maps a *time.Time to a driver-friendly NULL.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
