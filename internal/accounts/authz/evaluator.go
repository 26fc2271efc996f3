package authz

import (
	"errors"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

// ErrUnauthenticated means no verified principal accompanied the request.
var ErrUnauthenticated = errors.New("authentication required")

// Principal is the authenticated identity extracted from verified token
// claims. It is passed explicitly through every call boundary; there is no
// ambient current-user state.
type Principal struct {
	ID   string
	Role domain.Role
}

// Action names a role-gated operation class. Allow-sets are explicit per
// action: the read set of a resource is configured independently of its
// write set.
type Action string

const (
	ActionUserList    Action = "users:list"
	ActionUserCreate  Action = "users:create"
	ActionUserDelete  Action = "users:delete"
	ActionUserStats   Action = "users:stats"
	ActionUserBulk    Action = "users:bulk"
	ActionRoleList    Action = "users:list-by-role"
	ActionAuditList   Action = "login-attempts:list"
	ActionReviewApps  Action = "applications:review"
	ActionDeployFunds Action = "contracts:deploy"
)

// Evaluator makes per-request authorization decisions from data-driven
// allow-sets. Decisions are never cached; every call re-evaluates.
type Evaluator struct {
	allow map[Action]map[domain.Role]bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{allow: make(map[Action]map[domain.Role]bool)}
}

// Allow registers roles into an action's allow-set. Called once at startup,
// before the server accepts traffic.
func (e *Evaluator) Allow(action Action, roles ...domain.Role) {
	set, ok := e.allow[action]
	if !ok {
		set = make(map[domain.Role]bool)
		e.allow[action] = set
	}
	for _, r := range roles {
		set[r] = true
	}
}

// Default returns an evaluator loaded with the platform's allow-sets.
func Default() *Evaluator {
	e := NewEvaluator()
	admins := []domain.Role{domain.RoleFundAdmin, domain.RoleSuperadmin}
	reviewers := []domain.Role{domain.RoleFundOfficer, domain.RoleFundAdmin, domain.RoleSuperadmin}

	e.Allow(ActionUserList, admins...)
	e.Allow(ActionUserCreate, admins...)
	e.Allow(ActionUserDelete, admins...)
	e.Allow(ActionUserStats, admins...)
	e.Allow(ActionAuditList, admins...)
	e.Allow(ActionUserBulk, domain.RoleSuperadmin)
	e.Allow(ActionRoleList, reviewers...)
	e.Allow(ActionReviewApps, reviewers...)
	e.Allow(ActionDeployFunds, admins...)

	return e
}

// Authorize allows the principal iff its role is in the action's allow-set.
// A nil principal is unauthenticated and denied for every action.
func (e *Evaluator) Authorize(p *Principal, action Action) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if e.allow[action][p.Role] {
		return nil
	}
	return &apperror.AuthorizationError{
		Message: "role " + p.Role.String() + " may not perform " + string(action),
	}
}

// AuthorizeOwner allows admins (admin bypass always wins) or the owner of the
// target resource. When the target is itself a user, ownerID is that user's id.
func (e *Evaluator) AuthorizeOwner(p *Principal, ownerID string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.Role.IsAdmin() {
		return nil
	}
	if p.ID == ownerID {
		return nil
	}
	return &apperror.AuthorizationError{Message: "not the owner of this resource"}
}
