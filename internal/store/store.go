// Package store provides the durable record store boundary for Hireloop.
//
// Records cross this boundary as the typed structs in internal/models; the
// store validates writes and rejects them with a ValidationError carrying the
// failing criteria. Backends: in-memory (tests and local development), SQLite
// and PostgreSQL.
package store

import (
	"strings"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// Sequence names for NextID.
const (
	SeqUser    = "user"
	SeqSession = "interview_session"
	SeqJob     = "job_description"
	SeqTurn    = "turn"
	SeqResume  = "resume"
)

// Store is the durable record store consumed by the controllers. Lookups
// return (nil, nil) when the record does not exist; callers decide whether
// absence is an error.
type Store interface {
	// NextID allocates the next identifier from a named monotonic sequence.
	NextID(sequence string) (int64, error)

	// NextIDBlock reserves n consecutive identifiers from a sequence and
	// returns the first. Used when a batch needs a contiguous range that
	// concurrent allocators must not split.
	NextIDBlock(sequence string, n int) (int64, error)

	GetUser(uid int64) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(u models.User) error
	UpdateUser(u models.User) error

	CreateJobDescription(j models.JobDescription) error

	CreateInterviewSession(s models.InterviewSession) error
	UpdateInterviewSession(s models.InterviewSession) error
	GetInterviewSession(iid int64) (*models.InterviewSession, error)
	ListInterviewSessionsByUser(uid int64) ([]models.InterviewSession, error)

	// CreateTurns writes a batch of turns in a single transaction.
	CreateTurns(turns []models.Turn) error
	ListTurnsBySession(uid, iid int64) ([]models.Turn, error)
	ListTurnsByUser(uid int64) ([]models.Turn, error)

	GetCombinedResultBySession(iid int64) (*models.CombinedResult, error)
	ListPracticePlansBySession(iid int64) ([]models.PracticePlan, error)
	ListPracticeTasksByPlan(ppid int64) ([]models.PracticeTask, error)

	CreateResume(r models.Resume) error
	GetActiveResume(uid int64) (*models.Resume, error)

	Close() error
}

// Opts holds configuration for SQL-backed stores.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a connection string as "postgres" or "sqlite".
// URL-style and keyword DSNs are Postgres; anything else is treated as a
// SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
