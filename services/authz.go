package services

import (
	"booking-service/domain"

	"github.com/casbin/casbin"
)

// TransitionPolicy answers whether a role may perform a transition action
// at all. Ownership of the concrete booking or property is checked
// separately by the booking service.
type TransitionPolicy interface {
	Allow(role domain.UserRole, action string) bool
}

type casbinPolicy struct {
	enforcer *casbin.Enforcer
}

func NewTransitionPolicy(modelPath, policyPath string) (TransitionPolicy, error) {
	enforcer, err := casbin.NewEnforcerSafe(modelPath, policyPath)
	if err != nil {
		return nil, err
	}
	return &casbinPolicy{enforcer: enforcer}, nil
}

func (p *casbinPolicy) Allow(role domain.UserRole, action string) bool {
	return p.enforcer.Enforce(string(role), "booking", action)
}
