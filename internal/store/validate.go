// Package store implements write validation at the record-store boundary.
package store

import (
	"strings"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// validateUser checks the submission criteria for a user record.
func validateUser(u models.User) error {
	var criteria []string
	if u.UID <= 0 {
		criteria = append(criteria, "uid must be positive")
	}
	if strings.TrimSpace(u.Email) == "" {
		criteria = append(criteria, "email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		criteria = append(criteria, "name is required")
	}
	if u.PasswordHash == "" {
		criteria = append(criteria, "password hash is required")
	}
	if !models.IsValidRole(u.Role) {
		criteria = append(criteria, "role is not recognized")
	}
	if len(criteria) > 0 {
		return &models.ValidationError{Record: "User", Criteria: criteria}
	}
	return nil
}

// validateJobDescription checks the submission criteria for a job description.
func validateJobDescription(j models.JobDescription) error {
	var criteria []string
	if j.JID <= 0 {
		criteria = append(criteria, "jid must be positive")
	}
	if j.UID <= 0 {
		criteria = append(criteria, "uid must be positive")
	}
	if strings.TrimSpace(j.Title) == "" && strings.TrimSpace(j.Description) == "" {
		criteria = append(criteria, "title or description is required")
	}
	if len(criteria) > 0 {
		return &models.ValidationError{Record: "JobDescription", Criteria: criteria}
	}
	return nil
}

// validateInterviewSession checks the submission criteria for a session record.
func validateInterviewSession(s models.InterviewSession) error {
	var criteria []string
	if s.IID <= 0 {
		criteria = append(criteria, "iid must be positive")
	}
	if s.UID <= 0 {
		criteria = append(criteria, "uid must be positive")
	}
	if s.JID <= 0 {
		criteria = append(criteria, "jid must be positive")
	}
	switch s.Status {
	case models.SessionStatusStarted:
	case models.SessionStatusCompleted:
		if s.EndedAt == nil {
			criteria = append(criteria, "completed session requires ended_at")
		}
	default:
		criteria = append(criteria, "status is not recognized")
	}
	if len(criteria) > 0 {
		return &models.ValidationError{Record: "InterviewSession", Criteria: criteria}
	}
	return nil
}

// validateTurn checks the submission criteria for a turn record.
func validateTurn(t models.Turn) error {
	var criteria []string
	if t.QAID <= 0 {
		criteria = append(criteria, "qaid must be positive")
	}
	if t.IID <= 0 {
		criteria = append(criteria, "iid must be positive")
	}
	if t.UID <= 0 {
		criteria = append(criteria, "uid must be positive")
	}
	if t.TurnIndex < 0 {
		criteria = append(criteria, "turn_index must be non-negative")
	}
	if t.Question == "" {
		criteria = append(criteria, "question is required")
	}
	if t.Answer == "" {
		criteria = append(criteria, "answer is required")
	}
	if len(criteria) > 0 {
		return &models.ValidationError{Record: "Turn", Criteria: criteria}
	}
	return nil
}

// validateResume checks the submission criteria for a resume record.
func validateResume(r models.Resume) error {
	var criteria []string
	if r.CVID <= 0 {
		criteria = append(criteria, "cvid must be positive")
	}
	if r.UID <= 0 {
		criteria = append(criteria, "uid must be positive")
	}
	if strings.TrimSpace(r.ResumeRaw) == "" {
		criteria = append(criteria, "resume content is required")
	}
	if len(criteria) > 0 {
		return &models.ValidationError{Record: "Resume", Criteria: criteria}
	}
	return nil
}
