package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by appraisal staff tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims include at least one of roles.
// The admin role satisfies every check.
func (c Claims) HasAnyRole(roles ...string) bool {
	if c.HasRole(RoleAdmin) {
		return true
	}
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Role constants
const (
	RoleAdmin           = "admin"
	RoleCreditAgent     = "credit_agent"
	RoleRiskOfficer     = "risk_officer"
	RoleBranchManager   = "branch_manager"
	RoleCommitteeMember = "committee_member"
	RoleAuditor         = "auditor"
)
