// Package models defines the core data structures for Hireloop.
//
// It includes the typed records persisted in the durable record store, the
// cache-resident interview progress state, and the request/response schemas
// shared across modules.
package models

import "time"

// Role defines the access level of a user account.
type Role string

const (
	// RoleCandidate is a regular interviewee account.
	RoleCandidate Role = "candidate"
	// RoleCoach can review results across their assigned candidates.
	RoleCoach Role = "coach"
	// RoleAdmin has unrestricted access.
	RoleAdmin Role = "admin"
)

// IsValidRole checks if the given role is supported.
func IsValidRole(r Role) bool {
	switch r {
	case RoleCandidate, RoleCoach, RoleAdmin:
		return true
	default:
		return false
	}
}

// SessionStatus tracks the lifecycle of an interview session record.
type SessionStatus string

const (
	// SessionStatusStarted marks a session whose interview is still in progress.
	SessionStatusStarted SessionStatus = "started"
	// SessionStatusCompleted marks a session whose transcript has been committed.
	SessionStatusCompleted SessionStatus = "completed"
)

// User represents a registered account in the durable record store.
type User struct {
	UID          int64     `json:"uid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InterviewSession represents one mock interview. Status transitions
// started -> completed exactly once, at finalize.
type InterviewSession struct {
	IID       int64         `json:"iid"`
	UID       int64         `json:"uid"`
	JID       int64         `json:"jid"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Turn is one question/answer exchange within an interview. Turns are
// immutable once written; the scoring fields are filled in later by the
// evaluation pipeline and are zero-valued when a turn is first committed.
type Turn struct {
	QAID             int64     `json:"qaid"`
	IID              int64     `json:"iid"`
	UID              int64     `json:"uid"`
	TurnIndex        int       `json:"turn_index"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	TranscriptText   string    `json:"transcript_text"`
	TargetCompetency string    `json:"target_competency,omitempty"`
	Blocked          bool      `json:"blocked"`
	Clarity          float64   `json:"clarity"`
	Relevance        float64   `json:"relevance"`
	Filler           float64   `json:"filler"`
	TechnicalDepth   float64   `json:"technical_depth"`
	StarS            float64   `json:"star_s"`
	StarT            float64   `json:"star_t"`
	StarA            float64   `json:"star_a"`
	StarR            float64   `json:"star_r"`
	CompositeStar    float64   `json:"composite_star"`
	RepairAttempts   int       `json:"repair_attempts"`
	Issues           string    `json:"issues,omitempty"`
	SafetyFlags      string    `json:"safety_flags,omitempty"`
	Justification    string    `json:"justification,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// JobDescription holds the role a candidate interviews against.
type JobDescription struct {
	JID         int64     `json:"jid"`
	UID         int64     `json:"uid"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PracticePlan is a coach-approvable improvement plan linked to a session.
type PracticePlan struct {
	PPID                     int64      `json:"ppid"`
	IID                      int64      `json:"iid"`
	UID                      int64      `json:"uid"`
	OverallGoal              string     `json:"overall_goal"`
	MotivationNote           string     `json:"motivation_note,omitempty"`
	ReadingList              string     `json:"reading_list,omitempty"`
	PlanVersion              string     `json:"plan_version"`
	Status                   string     `json:"status"`
	CreatedBy                string     `json:"created_by"`
	ApprovedBy               string     `json:"approved_by,omitempty"`
	ApprovedAt               *time.Time `json:"approved_at,omitempty"`
	DeclineReason            string     `json:"decline_reason,omitempty"`
	NextSessionSuggestedDays int        `json:"next_session_suggested_days"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// PracticeTask is a single actionable item within a practice plan.
type PracticeTask struct {
	PTID            int64      `json:"ptid"`
	PPID            int64      `json:"ppid"`
	UID             int64      `json:"uid"`
	Competency      string     `json:"competency"`
	Description     string     `json:"description"`
	Actions         string     `json:"actions"`
	SuccessCriteria string     `json:"success_criteria"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	EstMinutes      int        `json:"est_minutes"`
	DueDate         time.Time  `json:"due_date"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CombinedResult is the aggregate evaluation computed for a finished session.
type CombinedResult struct {
	RID               int64     `json:"rid"`
	IID               int64     `json:"iid"`
	UID               int64     `json:"uid"`
	TotalScore25      float64   `json:"total_score_25"`
	ClarityAvg        float64   `json:"clarity_avg"`
	RelevanceAvg      float64   `json:"relevance_avg"`
	FillerAvg         float64   `json:"filler_avg"`
	StarAvg           float64   `json:"star_avg"`
	TechnicalDepthAvg float64   `json:"technical_depth_avg"`
	EvalConfidence    float64   `json:"eval_confidence"`
	Strengths         string    `json:"strengths,omitempty"`
	Weaknesses        string    `json:"weaknesses,omitempty"`
	Gaps              string    `json:"gaps,omitempty"`
	Recommendation    string    `json:"recommendation,omitempty"`
	RubricVersion     string    `json:"rubric_version"`
	PerMetricWeights  string    `json:"per_metric_weights,omitempty"`
	TurnIndicesUsed   string    `json:"turn_indices_used,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Resume holds a parsed resume uploaded by a candidate.
type Resume struct {
	CVID          int64     `json:"cvid"`
	UID           int64     `json:"uid"`
	Active        bool      `json:"active"`
	ResumeSummary string    `json:"resume_summary"`
	Education     string    `json:"education"`
	WorkEx        string    `json:"workex"`
	Projects      string    `json:"projects"`
	Skills        string    `json:"skills"`
	ResumeRaw     string    `json:"resume_raw"`
	ParserVersion string    `json:"parser_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InterviewProgress is the cache-resident record tracking an in-flight
// interview. It is the single source of truth for "is there an active
// interview for this user"; its TTL is refreshed on every mutation and the
// turn pointer is monotonically non-decreasing while the record exists.
type InterviewProgress struct {
	AgentSessionID  string `json:"agent_session_id"`
	TurnPointer     int    `json:"turn_pointer"`
	SessionRecordID int64  `json:"session_record_id"`
	JobRecordID     int64  `json:"job_record_id"`
	// TurnBaseID is the cached starting turn identifier allocated at
	// finalize; zero until a finalize attempt has allocated one.
	TurnBaseID int64 `json:"turn_base_id"`
	// TurnsWritten marks that the batch turn write already succeeded, so a
	// retried finalize must not re-submit it.
	TurnsWritten bool `json:"turns_written"`
}

// DashboardView is the aggregate served by the dashboard endpoint: the most
// recent session, its combined result and the linked practice artifacts.
type DashboardView struct {
	InterviewSession *InterviewSession `json:"InterviewSession,omitempty"`
	CombinedResult   *CombinedResult   `json:"CombinedResult,omitempty"`
	PracticePlans    []PracticePlan    `json:"PracticePlans,omitempty"`
	PracticeTasks    []PracticeTask    `json:"PracticeTasks,omitempty"`
}

// InterviewRunsView is the aggregate served by the all-interview-runs
// endpoint: every session with its results and practice artifacts.
type InterviewRunsView struct {
	InterviewSessions []InterviewSession `json:"InterviewSession,omitempty"`
	CombinedResults   []CombinedResult   `json:"CombinedResult,omitempty"`
	PracticePlans     []PracticePlan     `json:"PracticePlans,omitempty"`
	PracticeTasks     []PracticeTask     `json:"PracticeTasks,omitempty"`
}

// QnAPair is one question/answer exchange as served by the QnA endpoint.
type QnAPair struct {
	TurnIndex int    `json:"turn_index"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}
