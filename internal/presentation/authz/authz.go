// Package authz maps appraisal operations to the staff roles allowed to run
// them. Both transports resolve the caller through it.
package authz

import (
	"context"
	"errors"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/auth"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("permission denied")
)

// Role groups. The admin role passes every check.
var (
	// Readers may look at applications, evaluations and statistics.
	Readers = []string{
		auth.RoleCreditAgent, auth.RoleRiskOfficer, auth.RoleBranchManager,
		auth.RoleCommitteeMember, auth.RoleAuditor,
	}
	// Originators open applications and maintain their financials.
	Originators = []string{auth.RoleCreditAgent, auth.RoleBranchManager}
	// Evaluators run ad hoc schedules, ratios and scores.
	Evaluators = []string{
		auth.RoleCreditAgent, auth.RoleRiskOfficer, auth.RoleBranchManager, auth.RoleCommitteeMember,
	}
	// Supervisors move applications between review steps.
	Supervisors = []string{auth.RoleBranchManager, auth.RoleRiskOfficer}
)

var stageRoles = map[string][]string{
	valueobject.DecisionStageAgentRecommendation.String(): {auth.RoleCreditAgent},
	valueobject.DecisionStageFieldVisit.String():          {auth.RoleCreditAgent, auth.RoleBranchManager},
	valueobject.DecisionStageRiskOfficer.String():         {auth.RoleRiskOfficer},
	valueobject.DecisionStageBranchManager.String():       {auth.RoleBranchManager},
	valueobject.DecisionStageCommittee.String():           {auth.RoleCommitteeMember},
}

// StageRoles returns the roles that may record a decision at stage.
func StageRoles(stage string) ([]string, error) {
	s, err := valueobject.NewDecisionStage(stage)
	if err != nil {
		return nil, err
	}
	return stageRoles[s.String()], nil
}

// Caller is the authenticated staff member behind a request.
type Caller struct {
	UserID   string
	TenantID string
	Name     string
}

// Author is how the caller is named on decision records.
func (c Caller) Author() string {
	if c.Name != "" {
		return c.Name
	}
	return c.UserID
}

// Authorize returns the caller when the claims in ctx carry a tenant and
// one of roles.
func Authorize(ctx context.Context, roles ...string) (Caller, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || claims == nil {
		return Caller{}, ErrUnauthenticated
	}
	if claims.TenantID == "" {
		return Caller{}, ErrForbidden
	}
	if !claims.HasAnyRole(roles...) {
		return Caller{}, ErrForbidden
	}
	return Caller{UserID: claims.UserID, TenantID: claims.TenantID, Name: claims.Name}, nil
}
