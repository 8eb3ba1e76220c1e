// Package models defines request schemas and their validation for Hireloop endpoints.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an interview answer
	MaxMessageLength = 8192
	// MaxJobDescriptionLength defines the maximum allowed length for a job description body
	MaxJobDescriptionLength = 16384
	// MinPasswordLength defines the minimum allowed password length at signup
	MinPasswordLength = 8
)

// StartSentinel is the client-supplied message text that opens an interview
// instead of answering a question.
const StartSentinel = "start"

// EndInterviewSentinel is the literal chunk terminating the message stream
// once the turn limit is reached.
const EndInterviewSentinel = "##END_INTERVIEW##"

var (
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrInvalidRole       = errors.New("invalid role")
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrMessageTooLong    = errors.New("message exceeds maximum length")
	ErrEmptyJobDetails   = errors.New("job details are required")
	ErrJobDetailsTooLong = errors.New("job details exceed maximum length")
)

// LoginRequest carries the credentials for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate performs basic validation on a LoginRequest.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// SignupRequest carries the fields for POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate performs basic validation on a SignupRequest.
func (r *SignupRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if r.Role == "" {
		r.Role = RoleCandidate
	}
	if !IsValidRole(r.Role) {
		return ErrInvalidRole
	}
	return nil
}

// CreateSessionRequest carries the job details for POST /interviewagent/create-session.
type CreateSessionRequest struct {
	JobDetails JobDetails `json:"jobDetails"`
}

// JobDetails is the client-supplied description of the target role.
type JobDetails struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// Validate performs basic validation on a CreateSessionRequest.
func (r *CreateSessionRequest) Validate() error {
	if strings.TrimSpace(r.JobDetails.Title) == "" && strings.TrimSpace(r.JobDetails.Description) == "" {
		return ErrEmptyJobDetails
	}
	if len(r.JobDetails.Description) > MaxJobDescriptionLength {
		return ErrJobDetailsTooLong
	}
	return nil
}

// SendMessageRequest carries one conversational turn for
// POST /interviewagent/send-message-streaming.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// Validate performs basic validation on a SendMessageRequest.
func (r *SendMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// UploadDataRequest carries parsed resume sections for POST /api/storage/send-data.
type UploadDataRequest struct {
	ResumeSummary  string `json:"resumeSummary"`
	Education      string `json:"education"`
	WorkExperience string `json:"workExperience"`
	Projects       string `json:"projects"`
	Skills         string `json:"skills"`
}

// Validate performs basic validation on an UploadDataRequest.
func (r *UploadDataRequest) Validate() error {
	if strings.TrimSpace(r.ResumeSummary) == "" && strings.TrimSpace(r.WorkExperience) == "" {
		return errors.New("resume data is empty")
	}
	return nil
}

// TurnQueryRequest identifies the session for POST /api/turn/get-turn-by-iid.
type TurnQueryRequest struct {
	IID int64 `json:"iid"`
}

// Validate performs basic validation on a TurnQueryRequest.
func (r *TurnQueryRequest) Validate() error {
	if r.IID <= 0 {
		return errors.New("iid must be positive")
	}
	return nil
}
