package domain

import "fmt"

// Role is the coarse-grained authorization unit. The set is closed; every
// capability check in the system derives from the predicates below, never
// from ad-hoc role comparisons elsewhere.
type Role string

const (
	RoleCitizen     Role = "citizen"
	RoleFundOfficer Role = "fund_officer"
	RoleFundAdmin   Role = "fund_admin"
	RoleSuperadmin  Role = "superadmin"
)

// AllRoles returns the closed role enumeration.
func AllRoles() []Role {
	return []Role{RoleCitizen, RoleFundOfficer, RoleFundAdmin, RoleSuperadmin}
}

// ParseRole validates a raw string against the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleFundOfficer, RoleFundAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries administrative privileges.
func (r Role) IsAdmin() bool {
	return r == RoleFundAdmin || r == RoleSuperadmin
}

// CanReviewApplications reports whether the role may review fund applications.
func (r Role) CanReviewApplications() bool {
	return r == RoleFundOfficer || r == RoleFundAdmin || r == RoleSuperadmin
}

// CanDeployContracts reports whether the role may deploy fund contracts.
func (r Role) CanDeployContracts() bool {
	return r == RoleFundAdmin || r == RoleSuperadmin
}

func (r Role) String() string {
	return string(r)
}
