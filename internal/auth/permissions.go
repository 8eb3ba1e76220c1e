package auth

import "github.com/hireloop-ai/hireloop/internal/models"

// Permission names an action a role may perform.
type Permission string

const (
	// PermTakeInterview covers creating interview sessions and sending turns.
	PermTakeInterview Permission = "interview:take"
	// PermViewResults covers the dashboard, interview-runs, turn and QnA reads.
	PermViewResults Permission = "results:view"
	// PermUploadResume covers the resume upload endpoint.
	PermUploadResume Permission = "resume:upload"
	// PermManagePlans covers creating and editing practice plans.
	PermManagePlans Permission = "plans:manage"
)

var rolePermissions = map[models.Role][]Permission{
	models.RoleCandidate: {PermTakeInterview, PermViewResults, PermUploadResume},
	models.RoleCoach:     {PermViewResults, PermManagePlans},
}

// Allowed reports whether the role may perform the action. Admin passes every
// check.
func Allowed(role models.Role, p Permission) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}
