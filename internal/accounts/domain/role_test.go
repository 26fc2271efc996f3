package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
)

func TestRolePredicates(t *testing.T) {
	testCases := []struct {
		role      domain.Role
		isAdmin   bool
		canReview bool
		canDeploy bool
	}{
		{domain.RoleCitizen, false, false, false},
		{domain.RoleFundOfficer, false, true, false},
		{domain.RoleFundAdmin, true, true, true},
		{domain.RoleSuperadmin, true, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.role.String(), func(t *testing.T) {
			assert.True(t, tc.role.Valid())
			assert.Equal(t, tc.isAdmin, tc.role.IsAdmin())
			assert.Equal(t, tc.canReview, tc.role.CanReviewApplications())
			assert.Equal(t, tc.canDeploy, tc.role.CanDeployContracts())
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range domain.AllRoles() {
		parsed, err := domain.ParseRole(r.String())
		assert.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	for _, invalid := range []string{"", "admin", "CITIZEN", "fund-admin"} {
		_, err := domain.ParseRole(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestFullName(t *testing.T) {
	u := &domain.User{FirstName: "Wanjiku", LastName: "Kamau"}
	assert.Equal(t, "Wanjiku Kamau", u.FullName())

	u = &domain.User{FirstName: "Wanjiku"}
	assert.Equal(t, "Wanjiku", u.FullName())

	u = &domain.User{}
	assert.Equal(t, "", u.FullName())
}
